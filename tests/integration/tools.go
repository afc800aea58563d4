// Package integration provides end-to-end tests for the schema engine.
// Some tests cross-check behavior against the sqlite3 command-line
// tool when it is installed.
package integration

import (
	"os/exec"
	"sync"
	"testing"
)

// Tool represents an external tool that may be required for tests.
type Tool struct {
	Name        string   // Display name
	Command     string   // Command to check
	Args        []string // Args to verify tool works
	Description string   // What the tool is used for
}

// ToolSQLite3 is the stock SQLite client, used to verify that
// databases written by the engine are readable outside it.
var ToolSQLite3 = Tool{
	Name:        "sqlite3",
	Command:     "sqlite3",
	Args:        []string{"--version"},
	Description: "SQLite command-line interface",
}

// toolCache caches tool availability checks.
var (
	toolCache   = make(map[string]bool)
	toolCacheMu sync.RWMutex
)

// HasTool checks if a tool is available on the system.
// Results are cached for performance.
func HasTool(tool Tool) bool {
	toolCacheMu.RLock()
	if available, ok := toolCache[tool.Command]; ok {
		toolCacheMu.RUnlock()
		return available
	}
	toolCacheMu.RUnlock()

	_, err := exec.LookPath(tool.Command)
	available := err == nil

	toolCacheMu.Lock()
	toolCache[tool.Command] = available
	toolCacheMu.Unlock()

	return available
}

// RequireTool skips the test if the specified tool is not available.
func RequireTool(t *testing.T, tool Tool) {
	t.Helper()
	if !HasTool(tool) {
		t.Skipf("skipping: %s (%s) not installed", tool.Name, tool.Command)
	}
}

// RunTool executes a tool and returns its output.
// It skips the test if the tool is not available.
func RunTool(t *testing.T, tool Tool, args ...string) (string, error) {
	t.Helper()
	RequireTool(t, tool)

	cmd := exec.Command(tool.Command, args...)
	output, err := cmd.CombinedOutput()
	return string(output), err
}
