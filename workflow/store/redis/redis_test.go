package redis_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	redisstore "github.com/polka-codes/agentflow/workflow/store/redis"
)

func TestNewRunID_NormalizesDotsAndStaysUnique(t *testing.T) {
	a := redisstore.NewRunID("epic.planner")
	b := redisstore.NewRunID("epic.planner")

	assert.True(t, strings.HasPrefix(a, "epic-planner-"))
	assert.NotEqual(t, a, b)
}
