package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/parleyhq/parley/pkg/agent"
	"github.com/parleyhq/parley/pkg/agentdef"
	"github.com/parleyhq/parley/pkg/config"
	"github.com/parleyhq/parley/pkg/history"
	"github.com/parleyhq/parley/pkg/logger"
	"github.com/parleyhq/parley/pkg/openrouter"
	"github.com/parleyhq/parley/pkg/permissions"
	"github.com/parleyhq/parley/pkg/providers"
	"github.com/parleyhq/parley/pkg/session"
	"github.com/parleyhq/parley/pkg/tools"
	"github.com/parleyhq/parley/pkg/websearch"
)

// repl owns the interactive chat state. All slash command handlers and
// the chat dispatch hang off it.
type repl struct {
	cfg      *config.Config
	paths    config.RuntimePaths
	workDir  string
	client   *openrouter.Client
	caps     *providers.CapabilityTable
	perms    *permissions.Manager
	executor *tools.Executor
	loop     *agent.Loop
	searcher *websearch.Searcher
	sessions *session.Store
	queries  *history.Store
	agents   *agentdef.Manager

	sess  *session.Session
	model string
	stdin *bufio.Reader

	// persona overrides applied by /agent use; nil falls back to config
	activePersona string
	temperature   *float64
	maxTokens     *int
}

func runChat(_ *cobra.Command, _ []string) error {
	paths := config.ResolveRuntimePaths()
	cfg, err := config.LoadConfig(paths.ConfigPath)
	if err != nil {
		logger.FatalCF("config", "Failed to load configuration", map[string]any{
			"path":  paths.ConfigPath,
			"error": err.Error(),
		})
	}

	if flagVerbose {
		logger.SetLevel(logger.DEBUG)
	} else if cfg.LogLevel != "" {
		logger.SetLevel(logger.ParseLevel(cfg.LogLevel))
	}
	if cfg.LogFile != "" {
		if err := logger.EnableFileLogging(cfg.LogFile); err != nil {
			logger.WarnCF("config", "Cannot open log file", map[string]any{
				"path":  cfg.LogFile,
				"error": err.Error(),
			})
		}
	}

	if err := cfg.Validate(); err != nil {
		logger.FatalC("config", err.Error())
	}

	r, err := newREPL(cfg, paths)
	if err != nil {
		logger.FatalCF("repl", "Failed to initialize", map[string]any{"error": err.Error()})
	}
	defer r.close()

	return r.run()
}

func newREPL(cfg *config.Config, paths config.RuntimePaths) (*repl, error) {
	workDir, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("resolving working directory: %w", err)
	}

	projCfg, err := config.LoadProjectConfig(workDir)
	if err != nil {
		return nil, fmt.Errorf("loading project config: %w", err)
	}

	client := openrouter.NewClient(cfg.APIKey,
		openrouter.WithBaseURL(cfg.BaseURL),
		openrouter.WithTimeout(cfg.Timeout()),
		openrouter.WithRetryPolicy(cfg.MaxRetries, time.Duration(cfg.RetryInitialDelay*float64(time.Second)), cfg.RetryBackoffFactor),
		openrouter.WithRequestsPerMinute(cfg.RequestsPerMinute),
	)

	prompter := permissions.NewCLIPrompter(os.Stdin, os.Stdout)
	perms := permissions.NewManager(workDir, projCfg, prompter)
	searcher := websearch.NewSearcher()
	executor := tools.NewExecutor(workDir, perms, searcher)
	executor.SetCommandTimeout(cfg.Timeout())

	sessions, err := session.NewStore(paths.SessionsDir)
	if err != nil {
		return nil, fmt.Errorf("opening sessions dir: %w", err)
	}

	queries, err := history.Open(paths.HistoryPath)
	if err != nil {
		logger.WarnCF("history", "Prompt history unavailable", map[string]any{
			"path":  paths.HistoryPath,
			"error": err.Error(),
		})
		queries = nil
	}

	model := cfg.DefaultModel
	if flagModel != "" {
		model = flagModel
	}

	return &repl{
		cfg:      cfg,
		paths:    paths,
		workDir:  workDir,
		client:   client,
		caps:     providers.NewCapabilityTable(cfg.ModelCapabilities),
		perms:    perms,
		executor: executor,
		loop:     agent.New(client, executor),
		searcher: searcher,
		sessions: sessions,
		queries:  queries,
		agents:   agentdef.NewManager(paths.AgentsDir, filepath.Join(config.ProjectDir(workDir), "agents")),
		sess:     session.New(cfg.SystemPrompt, cfg.HistorySize),
		model:    model,
		stdin:    bufio.NewReader(os.Stdin),
	}, nil
}

func (r *repl) close() {
	if r.queries != nil {
		r.queries.Close()
	}
}

func (r *repl) banner() {
	fmt.Printf("%s parley %s\n", logo, formatVersion())
	fmt.Printf("  Model: %s\n", r.model)
	if !r.caps.SupportsTools(r.model) {
		fmt.Println("  Tool calling: unavailable for this model, using plan mode")
	}
	fmt.Println("  Type /help for commands, /quit or Ctrl+D to exit.")
	fmt.Println()
}

func (r *repl) run() error {
	r.banner()

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          r.prompt(),
		HistoryFile:     r.paths.LineHistoryPath,
		HistoryLimit:    500,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		logger.WarnCF("repl", "Readline unavailable", map[string]any{"error": err.Error()})
		fmt.Println("Falling back to simple input mode...")
		return r.runSimple()
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			fmt.Println("Interrupted. Type /quit or /exit to leave.")
			continue
		}
		if err == io.EOF {
			fmt.Println("Goodbye!")
			return nil
		}
		if err != nil {
			fmt.Printf("Error reading input: %v\n", err)
			continue
		}

		if r.handleLine(line) {
			return nil
		}
		rl.SetPrompt(r.prompt())
	}
}

// runSimple is the line-buffered fallback for terminals where readline
// cannot take over the tty.
func (r *repl) runSimple() error {
	for {
		fmt.Print(r.prompt())
		line, err := r.stdin.ReadString('\n')
		if err == io.EOF {
			fmt.Println("\nGoodbye!")
			return nil
		}
		if err != nil {
			fmt.Printf("Error reading input: %v\n", err)
			continue
		}
		if r.handleLine(line) {
			return nil
		}
	}
}

func (r *repl) prompt() string {
	if r.activePersona != "" {
		return fmt.Sprintf("%s [%s] You: ", logo, r.activePersona)
	}
	return fmt.Sprintf("%s You: ", logo)
}

// handleLine dispatches one line of input. Returns true when the user
// asked to quit.
func (r *repl) handleLine(line string) bool {
	input := strings.TrimSpace(line)
	if input == "" {
		return false
	}

	ctx, release := operationContext()
	defer release()

	r.record(history.KindQuery, input)

	if strings.HasPrefix(input, "/") {
		return r.handleCommand(ctx, input)
	}
	r.handleChat(ctx, input)
	return false
}

// operationContext returns a context cancelled by Ctrl+C, so an
// in-flight request or tool run can be aborted without leaving the
// REPL. The release function restores default signal handling.
func operationContext() (context.Context, func()) {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	go func() {
		select {
		case <-sigCh:
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, func() {
		signal.Stop(sigCh)
		cancel()
	}
}

// record appends an entry to the prompt history, which is best-effort:
// a broken history database never blocks chatting.
func (r *repl) record(kind, content string) {
	if r.queries == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := r.queries.Add(ctx, kind, content); err != nil {
		logger.WarnCF("history", "Failed to record entry", map[string]any{"error": err.Error()})
	}
}

func (r *repl) promptLine(label string) string {
	fmt.Print(label)
	line, _ := r.stdin.ReadString('\n')
	return strings.TrimSpace(line)
}

// promptDefault asks for a value, falling back to defaultValue on an
// empty answer.
func (r *repl) promptDefault(label, defaultValue string) string {
	var line string
	if defaultValue != "" {
		line = r.promptLine(fmt.Sprintf("%s [%s]: ", label, defaultValue))
	} else {
		line = r.promptLine(label + ": ")
	}
	if line == "" {
		return defaultValue
	}
	return line
}

// readMultiline collects lines until a line containing only END.
func (r *repl) readMultiline() string {
	var lines []string
	for {
		line, err := r.stdin.ReadString('\n')
		if err != nil && line == "" {
			break
		}
		trimmed := strings.TrimRight(line, "\r\n")
		if strings.EqualFold(strings.TrimSpace(trimmed), "END") {
			break
		}
		lines = append(lines, trimmed)
		if err != nil {
			break
		}
	}
	return strings.Join(lines, "\n")
}

// sampling returns the effective temperature and max token settings,
// honoring persona overrides before config defaults.
func (r *repl) sampling() (*float64, *int) {
	temperature := r.temperature
	if temperature == nil {
		t := r.cfg.Temperature
		temperature = &t
	}
	maxTokens := r.maxTokens
	if maxTokens == nil && r.cfg.MaxTokens > 0 {
		mt := r.cfg.MaxTokens
		maxTokens = &mt
	}
	return temperature, maxTokens
}
