package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const waterXYZ = "3\nwater\nO 0 0 0\nH 0.757 0.586 0\nH -0.757 0.586 0\n"

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestBondsCommand(t *testing.T) {
	path := writeFile(t, "water.xyz", waterXYZ)
	out, err := run(t, "bonds", path)
	require.NoError(t, err)
	assert.Equal(t, "0-1 O-H d=0.957\n0-2 O-H d=0.957\n", out)
}

func TestBondsCommandFlagsOverride(t *testing.T) {
	path := writeFile(t, "water.xyz", waterXYZ)
	for _, index := range []string{"brute", "rtree"} {
		out, err := run(t, "--index", index, "--workers", "2", "bonds", path)
		require.NoError(t, err, index)
		assert.Equal(t, 2, strings.Count(out, "\n"), index)
	}

	out, err := run(t, "--policy", "fixed", "--cutoff", "0.5", "bonds", path)
	require.NoError(t, err)
	assert.Empty(t, out)

	_, err = run(t, "--policy", "magic", "bonds", path)
	assert.ErrorContains(t, err, "bond.policy")
}

func TestBondsCommandErrors(t *testing.T) {
	_, err := run(t, "bonds", filepath.Join(t.TempDir(), "missing.xyz"))
	assert.Error(t, err)

	_, err = run(t, "bonds", writeFile(t, "bad.xyz", "2\nbad\nO 0 0 0\n"))
	assert.ErrorContains(t, err, "malformed")

	_, err = run(t, "bonds")
	assert.Error(t, err)
}

func TestSceneCommand(t *testing.T) {
	path := writeFile(t, "water.xyz", waterXYZ)
	out, err := run(t, "scene", path)
	require.NoError(t, err)

	var records []struct {
		Kind  string `json:"kind"`
		Tag   string `json:"tag"`
		Color string `json:"color"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &records))
	require.Len(t, records, 5)
	assert.Equal(t, "sphere", records[0].Kind)
	assert.Equal(t, "atom/0", records[0].Tag)
	assert.Equal(t, "#FF0000", records[0].Color)
	assert.Equal(t, "cylinder", records[4].Kind)
	assert.Equal(t, "bond/1", records[4].Tag)
}

func TestPickCommand(t *testing.T) {
	path := writeFile(t, "water.xyz", waterXYZ)
	out, err := run(t, "pick", path,
		"--camera-position", "0,0,5",
		"--x", "0", "--y", "0",
		"--x", "0.9", "--y", "0.9",
	)
	require.NoError(t, err)
	assert.Equal(t, "hit atom/0 d=4.700 selected\nmiss (0.900, 0.900)\nType: O, Position: (0.00, 0.00, 0.00)\n", out)

	// Clicking twice deselects.
	out, err = run(t, "pick", path, "--camera-position", "0,0,5", "--x", "0,0", "--y", "0,0")
	require.NoError(t, err)
	assert.Equal(t, "hit atom/0 d=4.700 selected\nhit atom/0 d=4.700 deselected\n", out)
}

func TestPickCommandFramesByDefault(t *testing.T) {
	path := writeFile(t, "water.xyz", waterXYZ)
	out, err := run(t, "pick", path, "--x", "0", "--y", "0")
	require.NoError(t, err)
	assert.Contains(t, out, "hit atom/0")
}

func TestPickCommandErrors(t *testing.T) {
	path := writeFile(t, "water.xyz", waterXYZ)
	_, err := run(t, "pick", path, "--x", "0", "--y", "0,1")
	assert.Error(t, err)

	_, err = run(t, "pick", path, "--camera-position", "0,0", "--x", "0", "--y", "0")
	assert.ErrorContains(t, err, "camera-position")

	_, err = run(t, "pick", path, "--camera-position", "0,0,0", "--x", "0", "--y", "0")
	assert.Error(t, err)
}

func TestScriptCommand(t *testing.T) {
	path := writeFile(t, "pair.lisp", `(title "pair") (chain "N" :count 2 :step (vec3 1.1 0 0))`)
	out, err := run(t, "script", path)
	require.NoError(t, err)
	assert.Equal(t, "2\npair\nN 0 0 0\nN 1.1 0 0\n", out)

	bad := writeFile(t, "bad.lisp", `(atom "Qq" 0 0 0)`)
	_, err = run(t, "script", bad)
	assert.Error(t, err)

	out, err = run(t, "script", "--validate=false", bad)
	require.NoError(t, err)
	assert.Contains(t, out, "Qq 0 0 0")
}

func TestMetricsFile(t *testing.T) {
	path := writeFile(t, "water.xyz", waterXYZ)
	metricsPath := filepath.Join(t.TempDir(), "molview.prom")
	_, err := run(t, "--metrics-file", metricsPath, "bonds", path)
	require.NoError(t, err)

	data, err := os.ReadFile(metricsPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "molview_bonds 2")
}

func TestConfigFile(t *testing.T) {
	path := writeFile(t, "water.xyz", waterXYZ)
	cfg := writeFile(t, "molview.yaml", "bond:\n  policy: fixed\n  cutoff: 0.5\n")

	out, err := run(t, "--config", cfg, "bonds", path)
	require.NoError(t, err)
	assert.Empty(t, out)

	// Flags win over the file.
	out, err = run(t, "--config", cfg, "--cutoff", "1.0", "bonds", path)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(out, "\n"))
}

// syncBuffer is a bytes.Buffer safe for the watch goroutine and the test.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestWatchCommand(t *testing.T) {
	path := writeFile(t, "mol.xyz", waterXYZ)
	var out syncBuffer
	cmd := newRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"watch", path})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- cmd.ExecuteContext(ctx) }()

	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), `v1 "water": 3 atoms, 2 bonds`)
	}, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, os.WriteFile(path, []byte("2\nnitrogen\nN 0 0 0\nN 1.1 0 0\n"), 0o644))
	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), `"nitrogen": 2 atoms, 1 bonds`)
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop on cancel")
	}
}
