// Parley - Terminal chat client for OpenRouter
// License: MIT
//
// Copyright (c) 2026 Parley contributors

package tools

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"time"

	"github.com/parleyhq/parley/pkg/logger"
)

const (
	// maxOutputSize caps captured command output; longer output is
	// truncated middle-out so both the head and the tail survive.
	maxOutputSize = 10 * 1024 * 1024

	// maxFileSize caps read_file.
	maxFileSize = 100 * 1024 * 1024

	defaultCommandTimeout = 30 * time.Second
)

// PermissionGate approves or denies tool side effects. Interactive calls
// may block on a user prompt.
type PermissionGate interface {
	AllowRead(ctx context.Context, path string, interactive bool) bool
	AllowWrite(ctx context.Context, path string, interactive bool) bool
	AllowCommand(ctx context.Context, command, cwd string, interactive bool) bool
}

// WebSearcher runs a web search and returns formatted results.
type WebSearcher interface {
	Search(ctx context.Context, query string) (string, error)
}

// Executor carries tool calls out. Every failure is reported as a result
// string with an "Error: " prefix; the error return is reserved for an
// unknown tool name, which indicates a model/registry mismatch rather
// than a runtime failure.
type Executor struct {
	gate       PermissionGate
	searcher   WebSearcher
	baseDir    string
	cmdTimeout time.Duration
}

func NewExecutor(baseDir string, gate PermissionGate, searcher WebSearcher) *Executor {
	return &Executor{
		gate:       gate,
		searcher:   searcher,
		baseDir:    baseDir,
		cmdTimeout: defaultCommandTimeout,
	}
}

func (e *Executor) SetCommandTimeout(timeout time.Duration) {
	if timeout > 0 {
		e.cmdTimeout = timeout
	}
}

func (e *Executor) Execute(ctx context.Context, name string, args map[string]any) (string, error) {
	logger.InfoCF("tools", "Tool execution started", map[string]any{
		"tool": name,
	})

	switch name {
	case "execute_command":
		return e.executeCommand(ctx, args), nil
	case "read_file":
		return e.readFile(ctx, args), nil
	case "write_file":
		return e.writeFile(ctx, args), nil
	case "search_web":
		return e.searchWeb(ctx, args), nil
	default:
		return "", fmt.Errorf("unknown tool: %s", name)
	}
}

func (e *Executor) executeCommand(ctx context.Context, args map[string]any) string {
	command, ok := args["command"].(string)
	if !ok || command == "" {
		return "Error: command parameter is required"
	}

	if !e.gate.AllowCommand(ctx, command, e.baseDir, true) {
		return "Error: Permission denied: command execution not allowed"
	}

	logger.InfoCF("tools", "Executing command", map[string]any{"command": command})

	stdout, stderr, exitCode, err := e.runCommand(ctx, command)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Sprintf("Error: Command timed out after %d seconds", int(e.cmdTimeout.Seconds()))
		}
		logger.ErrorCF("tools", "Command execution failed", map[string]any{"error": err.Error()})
		return "Error: Failed to execute command: " + err.Error()
	}

	if exitCode == 0 {
		if stdout == "" {
			return "(command executed successfully)"
		}
		return stdout
	}
	if stderr != "" {
		return "Error: " + stderr
	}
	return fmt.Sprintf("Error: Command failed with exit code %d", exitCode)
}

func (e *Executor) runCommand(ctx context.Context, command string) (stdout, stderr string, exitCode int, err error) {
	cmdCtx, cancel := context.WithTimeout(ctx, e.cmdTimeout)
	defer cancel()

	var cmd *exec.Cmd
	if runtime.GOOS == "windows" {
		cmd = exec.CommandContext(cmdCtx, "powershell", "-NoProfile", "-NonInteractive", "-Command", command)
	} else {
		cmd = exec.CommandContext(cmdCtx, "sh", "-c", command)
	}
	if e.baseDir != "" {
		cmd.Dir = e.baseDir
	}

	var outBuf, errBuf bytes.Buffer
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf

	runErr := cmd.Run()
	if cmdCtx.Err() == context.DeadlineExceeded {
		return "", "", 0, context.DeadlineExceeded
	}
	if runErr != nil {
		var exitErr *exec.ExitError
		if !errors.As(runErr, &exitErr) {
			return "", "", 0, runErr
		}
		exitCode = exitErr.ExitCode()
	}

	return truncateOutput(outBuf.String(), "output"), truncateOutput(errBuf.String(), "error output"), exitCode, nil
}

func (e *Executor) readFile(ctx context.Context, args map[string]any) string {
	filePath, ok := args["file_path"].(string)
	if !ok || filePath == "" {
		return "Error: file_path parameter is required"
	}

	if !e.gate.AllowRead(ctx, filePath, true) {
		return "Error: Permission denied: " + filePath
	}

	target := e.resolvePath(filePath)
	info, err := os.Stat(target)
	if err != nil {
		if os.IsNotExist(err) {
			return "Error: File not found: " + filePath
		}
		return "Error: Failed to read file: " + err.Error()
	}
	if info.IsDir() {
		return "Error: Not a file: " + filePath
	}
	if info.Size() > maxFileSize {
		return fmt.Sprintf("Error: File too large: %s exceeds %d bytes", filePath, maxFileSize)
	}

	data, err := os.ReadFile(target)
	if err != nil {
		return "Error: Failed to read file: " + err.Error()
	}
	return string(data)
}

func (e *Executor) writeFile(ctx context.Context, args map[string]any) string {
	filePath, ok := args["file_path"].(string)
	if !ok || filePath == "" {
		return "Error: file_path parameter is required"
	}
	content, ok := args["content"].(string)
	if !ok {
		return "Error: content parameter is required"
	}

	if !e.gate.AllowWrite(ctx, filePath, true) {
		return "Error: Permission denied: " + filePath
	}

	target := e.resolvePath(filePath)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "Error: Failed to write file: " + err.Error()
	}
	if err := os.WriteFile(target, []byte(content), 0o644); err != nil {
		return "Error: Failed to write file: " + err.Error()
	}

	logger.InfoCF("tools", "Wrote file", map[string]any{
		"path":  filePath,
		"bytes": len(content),
	})
	return fmt.Sprintf("Successfully wrote %d bytes to %s", len(content), filePath)
}

func (e *Executor) searchWeb(ctx context.Context, args map[string]any) string {
	query, ok := args["query"].(string)
	if !ok || query == "" {
		return "Error: query parameter is required"
	}

	logger.InfoCF("tools", "Searching web", map[string]any{"query": query})

	results, err := e.searcher.Search(ctx, query)
	if err != nil {
		return "Error: Failed to search web: " + err.Error()
	}
	return results
}

func (e *Executor) resolvePath(path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(e.baseDir, path)
}

func truncateOutput(s, label string) string {
	if len(s) <= maxOutputSize {
		return s
	}
	half := maxOutputSize / 2
	return s[:half] + fmt.Sprintf("\n... (%s truncated, exceeded %d bytes) ...\n", label, maxOutputSize) + s[len(s)-half:]
}
