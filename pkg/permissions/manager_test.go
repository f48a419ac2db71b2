package permissions

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parleyhq/parley/pkg/config"
	"github.com/parleyhq/parley/pkg/plan"
)

type fakePrompter struct {
	decision   Decision
	calls      int
	lastTarget string
	lastOp     Operation
}

func (f *fakePrompter) Ask(_ context.Context, target string, op Operation) Decision {
	f.calls++
	f.lastTarget = target
	f.lastOp = op
	return f.decision
}

func TestAllowReadInsideRootNoPrompt(t *testing.T) {
	root := t.TempDir()
	prompter := &fakePrompter{decision: DecisionDeny}
	m := NewManager(root, nil, prompter)

	assert.True(t, m.AllowRead(context.Background(), "notes.txt", true))
	assert.True(t, m.AllowRead(context.Background(), filepath.Join(root, "sub", "deep.go"), true))
	assert.Equal(t, 0, prompter.calls, "default allow-list covers the project root")
}

func TestAllowReadOutsideRootPrompts(t *testing.T) {
	root := t.TempDir()
	outside := filepath.Join(t.TempDir(), "secret.txt")
	prompter := &fakePrompter{decision: DecisionAllowOnce}
	m := NewManager(root, nil, prompter)

	assert.True(t, m.AllowRead(context.Background(), outside, true))
	require.Equal(t, 1, prompter.calls)
	assert.Equal(t, outside, prompter.lastTarget)
	assert.Equal(t, OpFileRead, prompter.lastOp)

	// Allow-once is cached for the life of the process.
	assert.True(t, m.AllowRead(context.Background(), outside, true))
	assert.Equal(t, 1, prompter.calls)
}

func TestInteractiveDenyIsCached(t *testing.T) {
	root := t.TempDir()
	outside := filepath.Join(t.TempDir(), "blocked.txt")
	prompter := &fakePrompter{decision: DecisionDeny}
	m := NewManager(root, nil, prompter)

	assert.False(t, m.AllowWrite(context.Background(), outside, true))
	assert.False(t, m.AllowWrite(context.Background(), outside, true))
	assert.Equal(t, 1, prompter.calls, "denial answered once, then served from cache")
}

func TestNonInteractiveDenyNotCached(t *testing.T) {
	root := t.TempDir()
	outside := filepath.Join(t.TempDir(), "later.txt")
	prompter := &fakePrompter{decision: DecisionAllowOnce}
	m := NewManager(root, nil, prompter)

	assert.False(t, m.AllowRead(context.Background(), outside, false))
	assert.False(t, m.AllowRead(context.Background(), outside, false))
	assert.Equal(t, 0, prompter.calls)

	// A later interactive request still gets to ask.
	assert.True(t, m.AllowRead(context.Background(), outside, true))
	assert.Equal(t, 1, prompter.calls)
}

func TestAllowAlwaysPersistsFileGrant(t *testing.T) {
	root := t.TempDir()
	outside := filepath.Join(t.TempDir(), "shared", "data.txt")
	prompter := &fakePrompter{decision: DecisionAllowAlways}
	m := NewManager(root, nil, prompter)

	assert.True(t, m.AllowRead(context.Background(), outside, true))
	assert.Equal(t, 1, prompter.calls)

	loaded, err := config.LoadProjectConfig(root)
	require.NoError(t, err)
	assert.Contains(t, loaded.Permissions.FileOperations.AlwaysAllow, outside,
		"targets outside the root are stored absolute")

	// A fresh manager built from the persisted config grants without asking.
	fresh := &fakePrompter{decision: DecisionDeny}
	m2 := NewManager(root, loaded, fresh)
	assert.True(t, m2.AllowRead(context.Background(), outside, true))
	assert.Equal(t, 0, fresh.calls)
}

func TestAllowAlwaysStoresRelativeEntryInsideRoot(t *testing.T) {
	root := t.TempDir()
	prompter := &fakePrompter{decision: DecisionAllowAlways}
	cfg := &config.ProjectConfig{} // empty allow-lists, so even in-root paths prompt
	m := NewManager(root, cfg, prompter)

	assert.True(t, m.AllowWrite(context.Background(), "build/out.bin", true))

	loaded, err := config.LoadProjectConfig(root)
	require.NoError(t, err)
	assert.Contains(t, loaded.Permissions.FileOperations.AlwaysAllow, filepath.Join("build", "out.bin"),
		"in-root grants are stored project-relative")
}

func TestAllowCommandScopedByCwd(t *testing.T) {
	root := t.TempDir()
	outside := t.TempDir()
	prompter := &fakePrompter{decision: DecisionAllowAlways}
	m := NewManager(root, nil, prompter)

	assert.True(t, m.AllowCommand(context.Background(), "make build", outside, true))
	require.Equal(t, 1, prompter.calls)
	assert.Equal(t, OpCommandExec, prompter.lastOp)
	assert.Equal(t, "make build", prompter.lastTarget)

	loaded, err := config.LoadProjectConfig(root)
	require.NoError(t, err)
	assert.Contains(t, loaded.Permissions.CommandExecution.AllowedPaths, outside,
		"always grants whitelist the working directory, not the command text")

	// The persisted grant covers any command in that directory.
	fresh := &fakePrompter{decision: DecisionDeny}
	m2 := NewManager(root, loaded, fresh)
	assert.True(t, m2.AllowCommand(context.Background(), "make test", outside, false))
	assert.Equal(t, 0, fresh.calls)
}

func TestAllowCommandDistinctCommandsPromptSeparately(t *testing.T) {
	root := t.TempDir()
	outside := t.TempDir()
	prompter := &fakePrompter{decision: DecisionAllowOnce}
	m := NewManager(root, nil, prompter)

	assert.True(t, m.AllowCommand(context.Background(), "ls", outside, true))
	assert.True(t, m.AllowCommand(context.Background(), "rm -rf cache", outside, true))
	assert.Equal(t, 2, prompter.calls, "allow-once covers one command, not the directory")
}

func TestPersistFailureStillAllowsOnce(t *testing.T) {
	root := t.TempDir()
	// Occupy the project dir path with a regular file so saving fails.
	require.NoError(t, os.WriteFile(config.ProjectDir(root), []byte("not a dir"), 0o644))

	outside := filepath.Join(t.TempDir(), "grant.txt")
	prompter := &fakePrompter{decision: DecisionAllowAlways}
	m := NewManager(root, nil, prompter)

	assert.True(t, m.AllowRead(context.Background(), outside, true),
		"failed persistence degrades to allow-once")
	assert.True(t, m.AllowRead(context.Background(), outside, true))
	assert.Equal(t, 1, prompter.calls)
}

func TestCheckPlanReportsDeniedActions(t *testing.T) {
	root := t.TempDir()
	prompter := &fakePrompter{decision: DecisionAllowAlways}
	m := NewManager(root, nil, prompter)

	p := &plan.Plan{Actions: []plan.Action{
		{Type: plan.ActionExec, Description: "List files", Command: "ls"},
		{Type: plan.ActionRead, Description: "Read notes", FilePath: "notes.txt"},
		{Type: plan.ActionRead, Description: "Read passwd", FilePath: "/etc/passwd"},
		{Type: plan.ActionSearch, Description: "Look it up", Query: "go testing"},
	}}

	ok, denied := m.CheckPlan(context.Background(), p)
	assert.False(t, ok)
	require.Len(t, denied, 1)
	assert.Equal(t, "/etc/passwd", denied[0].FilePath)
	assert.Equal(t, 0, prompter.calls, "plan checks never prompt")
}

func TestCheckPlanAllAllowed(t *testing.T) {
	root := t.TempDir()
	m := NewManager(root, nil, &fakePrompter{})

	p := &plan.Plan{Actions: []plan.Action{
		{Type: plan.ActionExec, Description: "Build", Command: "go build ./..."},
		{Type: plan.ActionWrite, Description: "Write", FilePath: "out.txt"},
		{Type: plan.ActionSearch, Description: "Search", Query: "anything"},
	}}

	ok, denied := m.CheckPlan(context.Background(), p)
	assert.True(t, ok)
	assert.Empty(t, denied)
}

func TestReloadPicksUpConfigEdits(t *testing.T) {
	root := t.TempDir()
	m := NewManager(root, &config.ProjectConfig{}, &fakePrompter{})

	assert.False(t, m.AllowRead(context.Background(), "notes.txt", false))

	require.NoError(t, config.SaveProjectConfig(root, config.DefaultProjectConfig()))
	require.NoError(t, m.Reload())

	assert.True(t, m.AllowRead(context.Background(), "notes.txt", false))
}

func TestCLIPrompterChoices(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  Decision
	}{
		{"allow once", "1\n", DecisionAllowOnce},
		{"allow always", "2\n", DecisionAllowAlways},
		{"explicit deny", "3\n", DecisionDeny},
		{"garbage denies", "yes please\n", DecisionDeny},
		{"empty input denies", "\n", DecisionDeny},
		{"eof denies", "", DecisionDeny},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var out bytes.Buffer
			p := NewCLIPrompter(strings.NewReader(tc.input), &out)

			got := p.Ask(context.Background(), "/tmp/thing.txt", OpFileWrite)

			assert.Equal(t, tc.want, got)
			assert.Contains(t, out.String(), "Write file: /tmp/thing.txt")
			assert.Contains(t, out.String(), "1. Yes, this once")
			assert.Contains(t, out.String(), "3. No, deny this operation")
		})
	}
}

func TestCLIPrompterCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	p := NewCLIPrompter(strings.NewReader("1\n"), &out)

	assert.Equal(t, DecisionDeny, p.Ask(ctx, "ls", OpCommandExec))
}
