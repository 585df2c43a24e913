package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const boardCUE = `surface: board: {
	items: [
		{id: "A", kind: "group-member"},
		{id: "B", kind: "group-member"},
		{id: "C", kind: "group-member"},
	]
}
`

// writeSurfaces writes content as board.cue into a fresh directory.
func writeSurfaces(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "board.cue"), []byte(content), 0644))
	return dir
}

// executeRoot runs the full root command and returns stdout and stderr.
func executeRoot(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}

	cmd := NewRootCommand()
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

// seededDB seeds the A, B, C board into a new database and returns its path.
func seededDB(t *testing.T) string {
	t.Helper()
	db := filepath.Join(t.TempDir(), "reorder.db")
	_, _, err := executeRoot(t, "seed", "--db", db, writeSurfaces(t, boardCUE))
	require.NoError(t, err)
	return db
}
