package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/chepyr/task-scheduler/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// run executes the CLI in a fresh data directory shared across calls of one
// test.
func run(t *testing.T, dataDir string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("TASKER_DATA_DIR", dataDir)
	t.Setenv("TASKER_LOG_LEVEL", "error")

	root := newRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(append([]string{"--env-file", dataDir + "/none.env"}, args...))
	err := root.Execute()
	return out.String(), err
}

func TestCLI_EndToEnd(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	out, err := run(t, dir, "register", "alice", "--password", "secret")
	require.NoError(t, err)
	assert.Contains(t, out, "Registration successful! Please login.")

	_, err = run(t, dir, "register", "alice", "--password", "secret")
	assert.EqualError(t, err, "Username already exists")

	_, err = run(t, dir, "login", "alice", "--password", "nope")
	assert.EqualError(t, err, "Invalid username or password")

	out, err = run(t, dir, "login", "alice", "--password", "secret")
	require.NoError(t, err)
	token := strings.TrimSpace(out)
	require.NotEmpty(t, token)

	_, err = run(t, dir, "task", "add", "--token", token, "--title", "Buy milk", "--due", "2024-04-02", "--priority", "medium")
	require.NoError(t, err)

	t.Setenv(tokenEnv, token)
	_, err = run(t, dir, "task", "add", "--title", "  ")
	assert.EqualError(t, err, "Title is required!")

	out, err = run(t, dir, "task", "list", "--output", "json")
	require.NoError(t, err)
	var list []models.Task
	require.NoError(t, json.Unmarshal([]byte(out), &list))
	require.Len(t, list, 1)
	assert.Equal(t, "Buy milk", list[0].Title)
	assert.Equal(t, models.PriorityMedium, list[0].Priority)

	_, err = run(t, dir, "task", "toggle", list[0].ID)
	require.NoError(t, err)

	out, err = run(t, dir, "task", "list", "--status", "active")
	require.NoError(t, err)
	assert.Contains(t, out, "No tasks found.")

	out, err = run(t, dir, "task", "list", "--status", "completed", "-o", "yaml")
	require.NoError(t, err)
	var raw []map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(out), &raw))
	require.Len(t, raw, 1)
	assert.Equal(t, true, raw[0]["completed"])
	assert.Equal(t, "2024-04-02", raw[0]["due_date"])

	_, err = run(t, dir, "task", "delete", list[0].ID)
	require.NoError(t, err)
	_, err = run(t, dir, "task", "delete", "no-such-id")
	require.NoError(t, err)
}

func TestCLI_TaskWithoutToken(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv(tokenEnv, "")

	_, err := run(t, dir, "task", "list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not logged in")

	_, err = run(t, dir, "task", "list", "--token", "garbage")
	assert.EqualError(t, err, "Invalid session. Please login again.")
}

func TestParseOutput(t *testing.T) {
	for in, want := range map[string]string{"": outputTable, "JSON": outputJSON, "yaml": outputYAML, "table": outputTable} {
		got, err := parseOutput(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := parseOutput("xml")
	assert.Error(t, err)
}

func TestPrintTasks_Table(t *testing.T) {
	due, _ := models.ParseDate("2024-04-02")
	var buf bytes.Buffer
	err := printTasks(&buf, []models.Task{
		{ID: "1", Title: "Buy milk", DueDate: due, Priority: models.PriorityHigh, Completed: true},
	}, outputTable)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "ID"))
	assert.Contains(t, lines[1], "[x]")
	assert.Contains(t, lines[1], "2024-04-02")
}
