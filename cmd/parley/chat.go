package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/parleyhq/parley/pkg/agent"
	"github.com/parleyhq/parley/pkg/history"
	"github.com/parleyhq/parley/pkg/openrouter"
	"github.com/parleyhq/parley/pkg/plan"
	"github.com/parleyhq/parley/pkg/providers"
	"github.com/parleyhq/parley/pkg/tools"
	"github.com/parleyhq/parley/pkg/utils"
)

// planningPrompt steers models without tool calling into emitting
// actions the plan parser recognizes.
const planningPrompt = "You are Parley, an AI assistant that helps users accomplish tasks.\n" +
	"\n" +
	"When a user asks you to do something, your job is to:\n" +
	"1. Understand their intent\n" +
	"2. Generate a plan of specific actions to accomplish it\n" +
	"3. Express those actions clearly\n" +
	"\n" +
	"Express actions using these patterns:\n" +
	"- Shell commands: I'll execute: `command here`\n" +
	"- Read files: Read file: /path/to/file\n" +
	"- Write files: Write file: /path/to/file (with content following)\n" +
	"- Search: Search: query terms here\n" +
	"\n" +
	"For simple tasks, the plan is simple. For complex tasks, break it into steps.\n" +
	"\n" +
	"Always be clear about what you're going to do before doing it.\n" +
	"After expressing your plan, execute it."

// handleChat routes a plain prompt. Models with tool calling get the
// agent loop; everything else goes through plan extraction first and
// falls back to streaming chat when the reply contains no actions.
func (r *repl) handleChat(ctx context.Context, input string) {
	if r.caps.SupportsTools(r.model) {
		r.agentTurn(ctx, input)
		return
	}
	if r.planTurn(ctx, input) {
		return
	}
	r.streamTurn(ctx, input)
}

func (r *repl) agentTurn(ctx context.Context, input string) {
	past := r.sess.History()
	r.sess.Add("user", input)

	temperature, maxTokens := r.sampling()
	reply, err := r.loop.Run(ctx, agent.RunOptions{
		Prompt:        input,
		SystemPrompt:  r.sess.SystemPrompt,
		Model:         r.model,
		History:       past,
		Temperature:   temperature,
		MaxTokens:     maxTokens,
		MaxIterations: r.cfg.MaxToolIterations,
	})
	if err != nil {
		r.reportChatError(err)
		return
	}

	fmt.Printf("\nAssistant: %s\n\n", reply)
	r.sess.Add("assistant", reply)
	r.record(history.KindResponse, reply)
}

func (r *repl) streamTurn(ctx context.Context, input string) {
	past := r.sess.All()
	r.sess.Add("user", input)

	adapter := providers.AdapterFor(r.model)
	wire := make([]map[string]any, 0, len(past)+1)
	for _, msg := range past {
		wire = append(wire, adapter.SerializeMessage(msg))
	}
	wire = append(wire, adapter.SerializeMessage(providers.Message{Role: "user", Content: input}))

	temperature, maxTokens := r.sampling()
	fmt.Print("\nAssistant: ")
	var reply strings.Builder
	err := r.client.ChatStream(ctx, openrouter.ChatRequest{
		Model:       r.model,
		Messages:    wire,
		Temperature: temperature,
		MaxTokens:   maxTokens,
	}, func(token string) error {
		fmt.Print(token)
		reply.WriteString(token)
		return nil
	})
	fmt.Println()

	if err != nil {
		// a cancelled stream leaves the transcript without the partial reply
		if errors.Is(err, context.Canceled) {
			fmt.Println("Response interrupted.")
			return
		}
		r.reportChatError(err)
		return
	}
	if reply.Len() == 0 {
		return
	}
	r.sess.Add("assistant", reply.String())
	r.record(history.KindResponse, reply.String())
	fmt.Println()
}

// planTurn asks the model for an action plan and executes it after
// approval. Returns false when the reply contains no recognizable
// actions, meaning the input was plain conversation.
func (r *repl) planTurn(ctx context.Context, input string) bool {
	temperature, maxTokens := r.sampling()
	var raw strings.Builder
	err := r.client.ChatStream(ctx, openrouter.ChatRequest{
		Model: r.model,
		Messages: []map[string]any{
			{"role": "user", "content": planningPrompt + "\n\nUser request: " + input},
		},
		Temperature: temperature,
		MaxTokens:   maxTokens,
	}, func(token string) error {
		raw.WriteString(token)
		return nil
	})
	if err != nil {
		r.reportChatError(err)
		return true
	}

	p := plan.BuildPlan(raw.String(), "Processing user request", utils.Truncate(input, 100))
	if p == nil {
		return false
	}

	if !r.approvePlan(ctx, p) {
		fmt.Println("Plan execution cancelled.")
		return true
	}

	results := r.executePlan(ctx, p)
	r.sess.Add("user", input)
	r.sess.Add("assistant", results)
	r.record(history.KindResponse, results)
	return true
}

// approvePlan shows the plan and collects consent. Pre-approved plans
// (all actions inside the project allowlist) run without prompting.
func (r *repl) approvePlan(ctx context.Context, p *plan.Plan) bool {
	fmt.Println()
	fmt.Println(p.Summary())

	allowed, denied := r.perms.CheckPlan(ctx, p)
	if allowed {
		return true
	}

	fmt.Printf("\n⚠ %d action(s) require approval:\n", len(denied))
	for i, action := range denied {
		fmt.Printf("  %d. %s (%s)\n", i+1, action.Description, action.Target())
	}
	fmt.Println()
	fmt.Println("  1. Run the plan this once")
	fmt.Println("  2. Review each action")
	fmt.Println("  3. Cancel")

	switch r.promptLine("Enter choice [3]: ") {
	case "1":
		return true
	case "2":
		for _, action := range denied {
			if !r.approveAction(ctx, action) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func (r *repl) approveAction(ctx context.Context, action plan.Action) bool {
	switch action.Type {
	case plan.ActionExec:
		return r.perms.AllowCommand(ctx, action.Command, r.workDir, true)
	case plan.ActionRead:
		return r.perms.AllowRead(ctx, action.FilePath, true)
	case plan.ActionWrite:
		return r.perms.AllowWrite(ctx, action.FilePath, true)
	default:
		return true
	}
}

// grantedGate satisfies the executor's permission surface for plan
// actions, which were already approved as a batch.
type grantedGate struct{}

func (grantedGate) AllowRead(context.Context, string, bool) bool            { return true }
func (grantedGate) AllowWrite(context.Context, string, bool) bool           { return true }
func (grantedGate) AllowCommand(context.Context, string, string, bool) bool { return true }

func (r *repl) executePlan(ctx context.Context, p *plan.Plan) string {
	fmt.Printf("\nExecuting plan: %s\n\n", p.Description)

	exec := tools.NewExecutor(r.workDir, grantedGate{}, r.searcher)
	exec.SetCommandTimeout(r.cfg.Timeout())

	results := make([]string, 0, len(p.Actions))
	for i := range p.Actions {
		action := &p.Actions[i]
		fmt.Printf("[%d/%d] %s... ", i+1, len(p.Actions), action.Description)
		results = append(results, runPlanAction(ctx, exec, action))
	}
	fmt.Println()
	return strings.Join(results, "\n")
}

func runPlanAction(ctx context.Context, exec *tools.Executor, action *plan.Action) string {
	var result string
	switch action.Type {
	case plan.ActionExec:
		result, _ = exec.Execute(ctx, "execute_command", map[string]any{"command": action.Command})
	case plan.ActionRead:
		result, _ = exec.Execute(ctx, "read_file", map[string]any{"file_path": action.FilePath})
	case plan.ActionWrite:
		result, _ = exec.Execute(ctx, "write_file", map[string]any{"file_path": action.FilePath, "content": action.Content})
	case plan.ActionSearch:
		result, _ = exec.Execute(ctx, "search_web", map[string]any{"query": action.Query})
	}
	action.Executed = true

	if isToolError(result) {
		fmt.Println("✗")
		action.Error = result
		return fmt.Sprintf("✗ %s: %s", action.Description, result)
	}

	fmt.Println("✓")
	action.Result = result
	if action.Type == plan.ActionRead || action.Type == plan.ActionSearch {
		return fmt.Sprintf("✓ %s\n\n%s", action.Description, result)
	}
	return "✓ " + action.Description
}

func (r *repl) reportChatError(err error) {
	if errors.Is(err, context.Canceled) {
		fmt.Println("Operation cancelled.")
		return
	}
	fmt.Printf("Error: %v\n", err)
	if openrouter.IsRetryable(err) {
		fmt.Println("The provider looks temporarily overloaded. /retry re-sends your last prompt.")
	}
}
