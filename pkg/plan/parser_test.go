package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractActions_Commands(t *testing.T) {
	response := "I'll execute: `mkdir -p build` and then run `make all`."

	actions := ExtractActions(response)
	require.Len(t, actions, 2)

	assert.Equal(t, ActionExec, actions[0].Type)
	assert.Equal(t, "mkdir -p build", actions[0].Command)
	assert.Equal(t, "Execute: mkdir -p build", actions[0].Description)
	assert.Equal(t, "make all", actions[1].Command)
}

func TestExtractActions_FileDirectives(t *testing.T) {
	response := "First I need more context.\n" +
		"Read file: /etc/hostname\n" +
		"Then I'll save the summary.\n" +
		"Write file: summary.txt\n" +
		"Create file: 'backup/copy.txt'\n"

	actions := ExtractActions(response)
	require.Len(t, actions, 3)

	assert.Equal(t, ActionRead, actions[0].Type)
	assert.Equal(t, "/etc/hostname", actions[0].FilePath)
	assert.Equal(t, ActionWrite, actions[1].Type)
	assert.Equal(t, "summary.txt", actions[1].FilePath)
	assert.Equal(t, ActionWrite, actions[2].Type)
	assert.Equal(t, "backup/copy.txt", actions[2].FilePath, "quotes stripped")
}

func TestExtractActions_Search(t *testing.T) {
	actions := ExtractActions("Search: golang context cancellation")
	require.Len(t, actions, 1)
	assert.Equal(t, ActionSearch, actions[0].Type)
	assert.Equal(t, "golang context cancellation", actions[0].Query)
}

func TestExtractActions_WebSearchMatchesOnce(t *testing.T) {
	actions := ExtractActions("Web search: kernel changelog")
	require.Len(t, actions, 1)
	assert.Equal(t, "kernel changelog", actions[0].Query)
}

func TestExtractActions_IgnoresProse(t *testing.T) {
	for _, text := range []string{
		"The research shows interesting results.",
		"You should read files carefully before editing.",
		"That command line was never executed.",
		"Nothing actionable here.",
	} {
		assert.Empty(t, ExtractActions(text), "text %q", text)
	}
}

func TestExtractActions_CaseInsensitive(t *testing.T) {
	actions := ExtractActions("EXECUTE: `ls`\nREAD FILE: a.txt\nSEARCH: b")
	require.Len(t, actions, 3)
	assert.Equal(t, ActionExec, actions[0].Type)
	assert.Equal(t, ActionRead, actions[1].Type)
	assert.Equal(t, ActionSearch, actions[2].Type)
}

func TestBuildPlan_NoActionsMeansConversation(t *testing.T) {
	assert.Nil(t, BuildPlan("The capital of France is Paris.", "", ""))
}

func TestBuildPlan_DefaultsDescriptionToFirstSentence(t *testing.T) {
	p := BuildPlan("I'll create the directory. Execute: `mkdir foo`", "", "")
	require.NotNil(t, p)
	assert.Equal(t, "I'll create the directory", p.Description)
	assert.Equal(t, "Performing requested actions", p.Reasoning)
	require.Len(t, p.Actions, 1)
}

func TestPlanSummary(t *testing.T) {
	p := BuildPlan("Execute: `go test ./...`\nRead file: go.mod", "Verify the build", "Run checks")
	require.NotNil(t, p)
	p.Actions[0].Executed = true

	summary := p.Summary()
	assert.Contains(t, summary, "Plan: Run checks")
	assert.Contains(t, summary, "Reasoning: Verify the build")
	assert.Contains(t, summary, "✓ 1. Execute: go test ./...")
	assert.Contains(t, summary, "○ 2. Read file: go.mod")
	assert.Contains(t, summary, "     Command: go test ./...")
	assert.Contains(t, summary, "     File: go.mod")
}

func TestActionTarget(t *testing.T) {
	assert.Equal(t, "ls", (&Action{Type: ActionExec, Command: "ls"}).Target())
	assert.Equal(t, "a.txt", (&Action{Type: ActionRead, FilePath: "a.txt"}).Target())
	assert.Equal(t, "b.txt", (&Action{Type: ActionWrite, FilePath: "b.txt"}).Target())
	assert.Equal(t, "q", (&Action{Type: ActionSearch, Query: "q"}).Target())
}
