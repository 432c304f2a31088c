package builtin_test

import (
	"sort"
	"strconv"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"

	"github.com/polka-codes/agentflow/tool/builtin"
)

func TestCompareIDs_LiteralSortScenario(t *testing.T) {
	ids := []string{"10", "2", "1.2", "1.1", "1"}
	sort.Slice(ids, func(i, j int) bool { return builtin.CompareIDs(ids[i], ids[j]) < 0 })
	assert.Equal(t, []string{"1", "1.1", "1.2", "2", "10"}, ids)
}

func TestCompareIDs_PropertyNumericOrdering(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	properties := gopter.NewProperties(parameters)

	properties.Property("sorting non-negative integers as dotted ids matches numeric order", prop.ForAll(
		func(values []uint8) bool {
			ids := make([]string, len(values))
			numeric := make([]int, len(values))
			for i, v := range values {
				ids[i] = strconv.Itoa(int(v))
				numeric[i] = int(v)
			}
			sort.Slice(ids, func(i, j int) bool { return builtin.CompareIDs(ids[i], ids[j]) < 0 })
			sort.Ints(numeric)
			for i, id := range ids {
				n, _ := strconv.Atoi(id)
				if n != numeric[i] {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.UInt8Range(0, 200)),
	))

	properties.TestingRun(t)
}

func TestCompareIDs_ShorterPrefixOrdersBeforeDottedSegments(t *testing.T) {
	assert.True(t, builtin.CompareIDs("1", "1.1") < 0)
	assert.True(t, builtin.CompareIDs("1.1", "1.2") < 0)
	assert.True(t, builtin.CompareIDs("1.2", "2") < 0)
	assert.Equal(t, 0, builtin.CompareIDs("3", "3"))
}
