package epic

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReviewableFilesChanged_OnlyReadmeIsSkipped(t *testing.T) {
	files := reviewableFilesChanged("M\tREADME.md\n")
	assert.Empty(t, files)
}

func TestReviewableFilesChanged_MixedChangesKeepsOnlyReviewable(t *testing.T) {
	files := reviewableFilesChanged("M\tREADME.md\nA\tmain.go\nM\tdocs/notes.md\n")
	assert.Equal(t, []string{"main.go"}, files)
}

func TestReviewableFilesChanged_EmptyDiffReturnsNoFiles(t *testing.T) {
	assert.Empty(t, reviewableFilesChanged(""))
}

func TestChecklistProgress_CountsCheckedAndTotal(t *testing.T) {
	plan := "- [x] done one\n- [x] done two\n- [ ] pending\n"
	completed, total := checklistProgress(plan)
	assert.Equal(t, 2, completed)
	assert.Equal(t, 3, total)
}

func TestBranchNamePattern_RejectsInvalidCharacters(t *testing.T) {
	assert.True(t, branchNamePattern.MatchString("feat/login-page_2"))
	assert.False(t, branchNamePattern.MatchString("feat login"))
	assert.False(t, branchNamePattern.MatchString("feat@login"))
}
