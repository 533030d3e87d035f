package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func captureOutput(t *testing.T, fn func() error) (stdout, stderr string, err error) {
	t.Helper()
	oldOut, oldErr := os.Stdout, os.Stderr
	defer func() {
		os.Stdout, os.Stderr = oldOut, oldErr
	}()

	outR, outW, _ := os.Pipe()
	errR, errW, _ := os.Pipe()
	os.Stdout, os.Stderr = outW, errW

	doneOut := make(chan struct{})
	var bufOut bytes.Buffer
	go func() { io.Copy(&bufOut, outR); close(doneOut) }()

	doneErr := make(chan struct{})
	var bufErr bytes.Buffer
	go func() { io.Copy(&bufErr, errR); close(doneErr) }()

	err = fn()
	outW.Close()
	errW.Close()
	<-doneOut
	<-doneErr
	stdout, stderr = bufOut.String(), bufErr.String()
	return
}

func TestHelp(t *testing.T) {
	out, _, err := captureOutput(t, func() error {
		return run([]string{"help", "serve"})
	})
	require.NoError(t, err)
	require.Contains(t, out, "serve FLAGS")
}

func TestRunUnknownCommand(t *testing.T) {
	err := run([]string{"bogus"})
	require.Error(t, err)
}

func TestServeRequiresConfig(t *testing.T) {
	err := run([]string{"serve"})
	require.ErrorContains(t, err, "-config is required")
}

const helloConfigYAML = `
schema:
  query: Query
types:
  Query:
    fields:
      hello:
        type: String!
        resolver:
          const: world
`

func TestLoadBlueprintMergesAndCompiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hello.yaml")
	require.NoError(t, os.WriteFile(path, []byte(helloConfigYAML), 0644))

	bp, links, extensions, err := loadBlueprint([]string{path})
	require.NoError(t, err)
	require.NotNil(t, extensions)
	require.Empty(t, links)

	field, ok := bp.Field("Query", "hello")
	require.True(t, ok)
	require.NotNil(t, field)
	require.Equal(t, "Query", bp.Schema.Query)
}

func TestLoadBlueprintUnknownFormat(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hello.txt")
	require.NoError(t, os.WriteFile(path, []byte("not a config"), 0644))

	_, _, _, err := loadBlueprint([]string{path})
	require.ErrorContains(t, err, "cannot detect format")
}
