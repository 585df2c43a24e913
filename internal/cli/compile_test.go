package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/reorder/internal/compiler"
)

func TestCompileValidSurfaces(t *testing.T) {
	dir := writeSurfaces(t, boardCUE)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewCompileCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{dir})

	err := cmd.Execute()
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, "✓ Compiled 1 surface(s)")
	assert.Contains(t, output, "board: 3 item(s)")
	assert.NotContains(t, output, "Warnings:")
}

func TestCompileValidSurfacesJSON(t *testing.T) {
	dir := writeSurfaces(t, boardCUE)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "json"}
	cmd := NewCompileCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{dir})

	require.NoError(t, cmd.Execute())

	var resp struct {
		Status string            `json:"status"`
		Data   CompilationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	require.Len(t, resp.Data.Surfaces, 1)
	assert.Equal(t, "board", resp.Data.Surfaces[0].ID)
	assert.Len(t, resp.Data.Surfaces[0].Items, 3)
	assert.Empty(t, resp.Data.Warnings)
}

func TestCompileDescribesConstraints(t *testing.T) {
	dir := writeSurfaces(t, `surface: shelf: {
	allowed_drop_kinds: ["group-member"]
	predicate: "same-kind"
	items: [{id: "A", kind: "group-member"}]
}
`)

	buf := &bytes.Buffer{}
	cmd := NewCompileCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{dir})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "shelf: 1 item(s) (accepts group-member; predicate same-kind)")
}

func TestCompileOutputToFile(t *testing.T) {
	dir := writeSurfaces(t, boardCUE)
	outFile := filepath.Join(t.TempDir(), "surfaces.json")

	buf := &bytes.Buffer{}
	cmd := NewCompileCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{dir, "-o", outFile})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "Wrote compiled surfaces to "+outFile)

	data, err := os.ReadFile(outFile)
	require.NoError(t, err)

	var result CompilationResult
	require.NoError(t, json.Unmarshal(data, &result))
	require.Len(t, result.Surfaces, 1)
	assert.Equal(t, "board", result.Surfaces[0].ID)
}

func TestCompileNonExistentDirectory(t *testing.T) {
	buf := &bytes.Buffer{}
	cmd := NewCompileCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{filepath.Join(t.TempDir(), "missing")})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, buf.String(), ErrCodeNotFound)
}

func TestCompileEmptyDirectory(t *testing.T) {
	buf := &bytes.Buffer{}
	cmd := NewCompileCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{t.TempDir()})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, buf.String(), ErrCodeNoFiles)
}

func TestCompileInvalidSurface(t *testing.T) {
	dir := writeSurfaces(t, `surface: board: items: [
	{id: "A", kind: "group-member"},
	{id: "A", kind: "group-member"},
]
`)

	buf := &bytes.Buffer{}
	cmd := NewCompileCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{dir})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	output := buf.String()
	assert.Contains(t, output, "✗ Compilation failed")
	assert.Contains(t, output, compiler.ErrDuplicateItemID)
	assert.Contains(t, output, `duplicate item id: "A"`)
}

func TestCompileInvalidSurfaceJSON(t *testing.T) {
	dir := writeSurfaces(t, `surface: board: items: [{id: "A", kind: "folder"}]
`)

	buf := &bytes.Buffer{}
	cmd := NewCompileCommand(&RootOptions{Format: "json"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{dir})

	err := cmd.Execute()
	require.Error(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, compiler.ErrInvalidItemKind, resp.Error.Code)
}

func TestCompileNestingLoopWarning(t *testing.T) {
	dir := writeSurfaces(t, `surface: board: items: [
	{id: "G1", kind: "group-member", parent_group_id: "G2"},
	{id: "G2", kind: "group-member", parent_group_id: "G1"},
]
`)

	buf := &bytes.Buffer{}
	cmd := NewCompileCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{dir})

	require.NoError(t, cmd.Execute(), "nesting loops are warnings")
	assert.Contains(t, buf.String(), "Warnings:")
	assert.Contains(t, buf.String(), "group nesting loop")
}

func TestCompileVerboseOutput(t *testing.T) {
	dir := writeSurfaces(t, boardCUE)

	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	cmd := NewCompileCommand(&RootOptions{Format: "json", Verbose: true})
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs([]string{dir})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, errOut.String(), "Found 1 CUE file(s)")
	assert.Contains(t, errOut.String(), "Compiled surface: board")

	// Verbose lines stay out of the JSON document.
	var resp CLIResponse
	require.NoError(t, json.Unmarshal(out.Bytes(), &resp))
}

func TestCompileDefaultsToConfiguredDir(t *testing.T) {
	dir := writeSurfaces(t, boardCUE)
	cfgPath := filepath.Join(t.TempDir(), "reorder.toml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("surfaces_dir = '"+dir+"'\n"), 0644))

	stdout, _, err := executeRoot(t, "--config", cfgPath, "compile")
	require.NoError(t, err)
	assert.Contains(t, stdout, "board: 3 item(s)")
}

func TestFindCUEFiles(t *testing.T) {
	tmpDir := t.TempDir()

	subDir := filepath.Join(tmpDir, "subdir")
	require.NoError(t, os.MkdirAll(subDir, 0755))

	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "root.cue"), []byte("package test"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "notcue.txt"), []byte("not a cue file"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(subDir, "nested.cue"), []byte("package test"), 0644))

	files, err := FindCUEFiles(tmpDir)
	require.NoError(t, err)
	assert.Len(t, files, 2)
}

func TestMapFieldToErrorCode(t *testing.T) {
	tests := []struct {
		field    string
		expected string
	}{
		{"allowed_drop_kinds", compiler.ErrInvalidAllowedSet},
		{"allowed_drop_kinds[0]", compiler.ErrInvalidAllowedSet},
		{"items[2].kind", compiler.ErrInvalidItemKind},
		{"items[0].id", compiler.ErrItemIDEmpty},
		{"surface", compiler.ErrSurfaceIDEmpty},
		{"max_items", ErrCodeInvalidType},
		{"items[1].payload", ErrCodeInvalidType},
		{"unknown", ErrCodeGeneric},
	}

	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			assert.Equal(t, tt.expected, MapFieldToErrorCode(tt.field))
		})
	}
}
