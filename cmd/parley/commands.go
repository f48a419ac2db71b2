package main

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/parleyhq/parley/pkg/config"
	"github.com/parleyhq/parley/pkg/history"
	"github.com/parleyhq/parley/pkg/tools"
	"github.com/parleyhq/parley/pkg/utils"
)

// splitArg splits the first word from the rest of the string.
func splitArg(s string) (string, string) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", ""
	}
	parts := strings.SplitN(s, " ", 2)
	if len(parts) == 1 {
		return parts[0], ""
	}
	return parts[0], strings.TrimSpace(parts[1])
}

// handleCommand runs one slash command. Returns true when the user
// asked to quit.
func (r *repl) handleCommand(ctx context.Context, input string) bool {
	name, args := splitArg(input)
	switch strings.ToLower(name) {
	case "/quit", "/exit":
		fmt.Println("Goodbye!")
		return true
	case "/help":
		printREPLHelp()
	case "/clear":
		r.sess.Clear()
		fmt.Println("Conversation cleared.")
	case "/history":
		r.cmdHistory(ctx, args)
	case "/read":
		r.cmdRead(ctx, args)
	case "/write":
		r.cmdWrite(ctx, args)
	case "/exec":
		r.cmdExec(ctx, args)
	case "/search":
		r.cmdSearch(ctx, args)
	case "/save":
		r.cmdSave(args)
	case "/load":
		r.cmdLoad(args)
	case "/sessions":
		r.cmdSessions()
	case "/model":
		r.cmdModel(args)
	case "/system":
		r.cmdSystem(args)
	case "/tools":
		r.cmdTools()
	case "/retry":
		r.cmdRetry(ctx)
	case "/agent":
		r.handlePersonaCommand(args)
	default:
		fmt.Printf("Unknown command: %s\n", name)
		fmt.Println("Available commands: /read /write /exec /search /clear /history /save /load /sessions /model /system /agent /tools /retry /help /quit /exit")
	}
	return false
}

func printREPLHelp() {
	fmt.Println(`
Commands:
  /read <path>        Read a file and add it to the conversation
  /write <path>       Write a file (content is read until a line with only END)
  /exec <command>     Run a shell command and share the output
  /search <query>     Search the web and share the results
  /clear              Clear the conversation
  /history [n]        Show the conversation, or the last n recorded prompts
  /save [name]        Save the session
  /load <name>        Load a saved session
  /sessions           List saved sessions
  /model [task] [m]   Show configured models, or set one
  /system [prompt]    Show or replace the system prompt
  /agent <subcommand> Manage agents: list, templates, create, use, view, delete
  /tools              List the tools available to the model
  /retry              Re-send the last prompt
  /help               Show this help
  /quit, /exit        Leave`)
	fmt.Println()
}

// runTool executes one named tool through the permission-gated
// executor. Failures come back as "Error: ..." strings per the
// executor contract, so err only fires for unknown tool names.
func (r *repl) runTool(ctx context.Context, name string, args map[string]any) string {
	result, err := r.executor.Execute(ctx, name, args)
	if err != nil {
		return "Error: " + err.Error()
	}
	return result
}

func isToolError(result string) bool {
	return strings.HasPrefix(result, "Error:")
}

func (r *repl) cmdRead(ctx context.Context, args string) {
	if args == "" {
		fmt.Println("Usage: /read <path>")
		return
	}
	result := r.runTool(ctx, "read_file", map[string]any{"file_path": args})
	if isToolError(result) {
		fmt.Println(result)
		return
	}
	fmt.Printf("\nContents of %s:\n%s\n", args, result)
	r.sess.Add("user", fmt.Sprintf("Please look at this file content and respond:\n\n```\n%s\n```", result))
	r.record(history.KindCommand, "Read file: "+args)
}

func (r *repl) cmdWrite(ctx context.Context, args string) {
	if args == "" {
		fmt.Println("Usage: /write <path>")
		return
	}
	fmt.Println("Enter content; finish with a line containing only END:")
	content := r.readMultiline()
	result := r.runTool(ctx, "write_file", map[string]any{"file_path": args, "content": content})
	fmt.Println(result)
	if !isToolError(result) {
		r.record(history.KindCommand, "Wrote file: "+args)
	}
}

func (r *repl) cmdExec(ctx context.Context, args string) {
	if args == "" {
		fmt.Println("Usage: /exec <command>")
		return
	}
	fmt.Printf("Executing: %s\n", args)
	result := r.runTool(ctx, "execute_command", map[string]any{"command": args})
	fmt.Println(result)
	if !isToolError(result) {
		r.sess.Add("user", fmt.Sprintf("Command: %s\n\nOutput:\n%s", args, result))
		r.record(history.KindCommand, "Executed: "+args)
	}
}

func (r *repl) cmdSearch(ctx context.Context, args string) {
	if args == "" {
		fmt.Println("Usage: /search <query>")
		return
	}
	fmt.Printf("Searching for: %s\n", args)
	result := r.runTool(ctx, "search_web", map[string]any{"query": args})
	if isToolError(result) {
		fmt.Println(result)
		return
	}
	fmt.Println(result)
	r.sess.Add("user", fmt.Sprintf("Web search results for '%s':\n\n%s", args, result))
	r.record(history.KindCommand, "Searched: "+args)
}

func (r *repl) cmdHistory(ctx context.Context, args string) {
	if args == "" {
		if r.sess.Len() == 0 {
			fmt.Println("No conversation history yet.")
			return
		}
		fmt.Println("\nConversation history:")
		fmt.Println(r.sess.Context())
		return
	}

	n, err := strconv.Atoi(args)
	if err != nil || n <= 0 {
		fmt.Println("Usage: /history [n]")
		return
	}
	if r.queries == nil {
		fmt.Println("Prompt history unavailable.")
		return
	}
	entries, err := r.queries.Recent(ctx, n, "")
	if err != nil {
		fmt.Printf("Error reading history: %v\n", err)
		return
	}
	if len(entries) == 0 {
		fmt.Println("No recorded prompts yet.")
		return
	}
	fmt.Printf("\nLast %d entries:\n", len(entries))
	for _, e := range entries {
		fmt.Printf("  %s [%s] %s\n", e.Timestamp.Format("2006-01-02 15:04"), e.Kind, utils.Truncate(e.Content, 80))
	}
	fmt.Println()
}

func (r *repl) cmdSave(args string) {
	filename, err := r.sessions.Save(r.sess, args)
	if err != nil {
		fmt.Printf("Error saving session: %v\n", err)
		return
	}
	fmt.Printf("✓ Session saved as: %s\n", filename)
	r.record(history.KindCommand, "Saved session: "+filename)
}

func (r *repl) cmdLoad(args string) {
	if args == "" {
		fmt.Println("Usage: /load <name>")
		return
	}
	loaded, err := r.sessions.Load(args)
	if err != nil {
		fmt.Printf("Error loading session: %v\n", err)
		return
	}
	if n := r.cfg.HistorySize; n > 0 {
		loaded.HistorySize = n
	}
	r.sess = loaded
	fmt.Printf("✓ Session loaded: %s\n", args)
	fmt.Printf("Messages: %d\n", loaded.Len())
	r.record(history.KindCommand, "Loaded session: "+args)
}

func (r *repl) cmdSessions() {
	infos, err := r.sessions.List()
	if err != nil {
		fmt.Printf("Error listing sessions: %v\n", err)
		return
	}
	if len(infos) == 0 {
		fmt.Println("No saved sessions yet.")
		return
	}
	fmt.Println("\nSaved sessions:")
	for _, info := range infos {
		fmt.Printf("  %s - %d messages - %s\n", info.Name, info.MessageCount, info.CreatedAt.Format("2006-01-02 15:04"))
	}
	fmt.Println()
}

func (r *repl) cmdModel(args string) {
	fields := strings.Fields(args)
	switch len(fields) {
	case 0:
		fmt.Println("\nConfigured models:")
		for _, task := range slices.Sorted(maps.Keys(r.cfg.Models)) {
			fmt.Printf("  %-10s %s\n", task, r.cfg.Models[task])
		}
		fmt.Printf("\nCurrently using: %s\n\n", r.model)
	case 1:
		r.setModel("default", fields[0])
	case 2:
		r.setModel(fields[0], fields[1])
	default:
		fmt.Println("Usage: /model [task] [model]")
		fmt.Println("Examples:")
		fmt.Println("  /model anthropic/claude-sonnet-4     Set the default model")
		fmt.Println("  /model thinking openai/o3            Set the model for a task")
	}
}

func (r *repl) setModel(task, model string) {
	r.cfg.SetModel(task, model)
	if err := config.SaveConfig(r.paths.ConfigPath, r.cfg); err != nil {
		fmt.Printf("Error saving config: %v\n", err)
		return
	}
	if task == "default" {
		r.model = model
	}
	fmt.Printf("✓ Set %s model to: %s\n", task, model)
	r.record(history.KindCommand, fmt.Sprintf("Set %s model to %s", task, model))
}

func (r *repl) cmdSystem(args string) {
	if args == "" {
		fmt.Printf("\nCurrent system prompt:\n%s\n\n", r.sess.SystemPrompt)
		return
	}
	r.sess.SetSystemPrompt(args)
	fmt.Println("System prompt updated.")
	r.record(history.KindCommand, "Updated system prompt")
}

func (r *repl) cmdTools() {
	if !r.caps.SupportsTools(r.model) {
		fmt.Printf("Model %s does not support tool calling; tools run through plan mode instead.\n", r.model)
	}
	fmt.Println("\nAvailable tools:")
	for _, line := range tools.Summaries() {
		fmt.Printf("  %s\n", line)
	}
	fmt.Println()
}

func (r *repl) cmdRetry(ctx context.Context) {
	last := r.sess.LastUserPrompt
	if last == "" {
		fmt.Println("Nothing to retry yet.")
		return
	}
	// permission grants may have been edited between attempts
	if err := r.perms.Reload(); err != nil {
		fmt.Printf("Warning: could not reload permissions: %v\n", err)
	}
	fmt.Printf("Retrying: %s\n", utils.Truncate(last, 80))
	r.handleChat(ctx, last)
}
