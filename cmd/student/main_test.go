package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeanpaul/studentmodel/internal/model"
	"github.com/jeanpaul/studentmodel/internal/session"
)

// cli runs the command tree against a model file in a temp directory.
type cli struct {
	t    *testing.T
	file string
}

func newCLI(t *testing.T) *cli {
	t.Setenv("STUDENT_LOG_LEVEL", "error")
	return &cli{t: t, file: filepath.Join(t.TempDir(), "student_model.json")}
}

func (c *cli) run(args ...string) (int, string, string) {
	c.t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(append([]string{"--file", c.file, "--no-color"}, args...), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func (c *cli) ok(args ...string) string {
	c.t.Helper()
	code, out, errOut := c.run(args...)
	require.Equal(c.t, 0, code, "student %v failed: %s", args, errOut)
	return out
}

func TestParseUpdate(t *testing.T) {
	req, err := parseUpdate("Big O: Notation:70:high")
	require.NoError(t, err)
	assert.Equal(t, "Big O: Notation", req.Concept)
	assert.Equal(t, 70, *req.Mastery)
	assert.Equal(t, model.ConfidenceHigh, *req.Confidence)

	req, err = parseUpdate("Recursion::low")
	require.NoError(t, err)
	assert.Nil(t, req.Mastery)
	assert.Equal(t, model.ConfidenceLow, *req.Confidence)

	req, err = parseUpdate("Recursion:55:")
	require.NoError(t, err)
	assert.Equal(t, 55, *req.Mastery)
	assert.Nil(t, req.Confidence)
}

func TestParseUpdate_Rejects(t *testing.T) {
	for _, raw := range []string{"Recursion", "Recursion:70", ":70:high", "Recursion:lots:high", "Recursion:70:sure"} {
		_, err := parseUpdate(raw)
		assert.Error(t, err, raw)
	}
}

func TestParseNote(t *testing.T) {
	req, err := parseNote(session.KindStruggle, "Closures:captured i: all the same value")
	require.NoError(t, err)
	assert.Equal(t, "Closures", req.Concept)
	assert.Equal(t, "captured i: all the same value", req.Description)

	_, err = parseNote(session.KindBreakthrough, "no separator")
	assert.Error(t, err)
}

func TestParseBatch_Order(t *testing.T) {
	b, err := parseBatch([]rawRequest{
		{session.KindStruggle, "B:x"},
		{session.KindUpdate, "A:1:low"},
		{session.KindBreakthrough, "C:y"},
		{session.KindUpdate, "D::high"},
	})
	require.NoError(t, err)
	require.Len(t, b.Requests, 4)
	assert.Equal(t, session.KindStruggle, b.Requests[0].Kind)
	assert.Equal(t, session.KindUpdate, b.Requests[1].Kind)
	assert.Equal(t, session.KindBreakthrough, b.Requests[2].Kind)
	assert.Equal(t, "D", b.Requests[3].Concept)

	_, err = parseBatch(nil)
	assert.Equal(t, exitUsage, exitCode(err))
}

func TestSessionEnd_ReportsFailingFlag(t *testing.T) {
	c := newCLI(t)
	c.ok("init")
	c.ok("add", "Recursion", "40", "low")

	code, _, errOut := c.run("session-end",
		"--struggle", "Recursion:base cases",
		"--update", "Recursion:60:",
		"--breakthrough", "Monads:bind",
		"--update", "Recursion::high")
	assert.Equal(t, exitGeneric, code)
	assert.Contains(t, errOut, `--breakthrough "Monads:bind"`)
	assert.Contains(t, errOut, "batch request 3 (breakthrough)")
}

func TestExitCodes(t *testing.T) {
	c := newCLI(t)

	code, _, errOut := c.run("list")
	assert.Equal(t, exitNotInitialized, code)
	assert.Contains(t, errOut, "student init")

	c.ok("init", "--profile", "CS101")
	code, _, _ = c.run("init")
	assert.Equal(t, exitGeneric, code, "existing model is not overwritten without --force")

	code, _, _ = c.run("add", "Recursion", "150", "high")
	assert.Equal(t, exitUsage, code)
	code, _, _ = c.run("add", "Recursion")
	assert.Equal(t, exitUsage, code)
	code, _, _ = c.run("show", "Nope")
	assert.Equal(t, exitGeneric, code)

	require.NoError(t, os.WriteFile(c.file, []byte("{"), 0o644))
	require.NoError(t, os.WriteFile(c.file+".backup", []byte("}"), 0o644))
	code, _, errOut = c.run("info")
	assert.Equal(t, exitCorrupt, code)
	assert.Contains(t, errOut, "backup")
}

func TestWorkflow(t *testing.T) {
	c := newCLI(t)
	c.ok("init")
	c.ok("add", "React Hooks", "45", "low")
	c.ok("add", "Closures", "70", "medium", "--related", "react hooks")
	c.ok("struggle", "REACT hooks", "useEffect cleanup")

	out := c.ok("--output", "json", "related", "closures")
	var related []struct {
		Name string `json:"name"`
		Weak bool   `json:"weak"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &related))
	require.Len(t, related, 1)
	assert.Equal(t, "React Hooks", related[0].Name)
	assert.True(t, related[0].Weak)

	c.ok("add", "Big O", "30", "low")
	out = c.ok("unlink", "Closures", "Big O")
	assert.Contains(t, out, "nothing saved")
	code, _, _ := c.run("link", "Closures", "closures")
	assert.Equal(t, exitGeneric, code)

	c.ok("session-end",
		"--update", "React Hooks:65:medium",
		"--breakthrough", "react hooks:dependency arrays",
		"--summary", "hooks deep dive")

	code, _, _ = c.run("session-end", "--update", "React Hooks:90:high", "--struggle", "Monads:what")
	assert.Equal(t, exitGeneric, code)

	out = c.ok("--output", "json", "show", "react hooks")
	var shown model.Concept
	require.NoError(t, json.Unmarshal([]byte(out), &shown))
	assert.Equal(t, 65, shown.Mastery, "failed batch saved nothing")
	assert.Len(t, shown.Struggles, 1)
	assert.Len(t, shown.Breakthroughs, 1)

	c.ok("misconception", "add", "Closures", "copies values", "captures variables")
	out = c.ok("misconception", "list", "--open")
	assert.Contains(t, out, "[0] active")
	c.ok("misconception", "resolve", "closures", "0")
	out = c.ok("misconception", "list", "--open")
	assert.Contains(t, out, "No misconceptions found")

	out = c.ok("diff")
	assert.Contains(t, out, "resolved")

	out = c.ok("doctor")
	assert.Contains(t, out, "Health Check")
	assert.NotContains(t, out, "✗")

	xlsx := filepath.Join(t.TempDir(), "model.xlsx")
	c.ok("export", "--xlsx", xlsx)
	assert.FileExists(t, xlsx)
}
