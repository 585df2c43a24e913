package cli

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/reorder/internal/model"
)

func TestSeedWritesSurfaces(t *testing.T) {
	db := filepath.Join(t.TempDir(), "reorder.db")

	stdout, _, err := executeRoot(t, "seed", "--db", db, writeSurfaces(t, boardCUE))
	require.NoError(t, err)
	assert.Contains(t, stdout, "✓ Seeded 1 surface(s) into "+db)
	assert.Contains(t, stdout, "board: [A, B, C]")
}

func TestSeedJSON(t *testing.T) {
	db := filepath.Join(t.TempDir(), "reorder.db")

	stdout, _, err := executeRoot(t, "--format", "json", "seed", "--db", db, writeSurfaces(t, boardCUE))
	require.NoError(t, err)

	var resp struct {
		Status string     `json:"status"`
		Data   SeedResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, db, resp.Data.Database)
	require.Len(t, resp.Data.Surfaces, 1)
	assert.Equal(t, []string{"A", "B", "C"}, resp.Data.Surfaces[0].Order)
}

func TestSeedInvalidSurfaces(t *testing.T) {
	db := filepath.Join(t.TempDir(), "reorder.db")
	dir := writeSurfaces(t, `surface: board: items: [{id: "A", kind: "child-member", parent_group_id: "Z"}]
`)

	stdout, _, err := executeRoot(t, "seed", "--db", db, dir)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, stdout, "✗ Compilation failed")
	assert.NoFileExists(t, db, "nothing is written when compilation fails")
}

func TestListSurfaces(t *testing.T) {
	db := seededDB(t)

	stdout, _, err := executeRoot(t, "list", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, stdout, "board: 3 item(s), version 0")
}

func TestListSurfaceItems(t *testing.T) {
	db := seededDB(t)

	stdout, _, err := executeRoot(t, "--format", "json", "list", "--db", db, "--surface", "board")
	require.NoError(t, err)

	var resp struct {
		Data SurfaceListing `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, "board", resp.Data.ID)
	assert.Equal(t, []string{"A", "B", "C"}, model.IDs(resp.Data.Items))
}

func TestListUnknownSurface(t *testing.T) {
	db := seededDB(t)

	stdout, _, err := executeRoot(t, "list", "--db", db, "--surface", "shelf")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, stdout, "surface not found: shelf")
}

func TestListMissingDatabase(t *testing.T) {
	_, _, err := executeRoot(t, "list", "--db", filepath.Join(t.TempDir(), "absent.db"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestMoveReorders(t *testing.T) {
	db := seededDB(t)

	stdout, _, err := executeRoot(t, "move", "--db", db, "--surface", "board", "--drag", "A", "--onto", "C")
	require.NoError(t, err)
	assert.Contains(t, stdout, "✓ Moved A onto C")
	assert.Contains(t, stdout, "order: [B, A, C]")

	stdout, _, err = executeRoot(t, "list", "--db", db, "--surface", "board")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Surface: board (version 1)")
}

func TestMoveJSONResumesLog(t *testing.T) {
	db := seededDB(t)

	_, _, err := executeRoot(t, "move", "--db", db, "--surface", "board", "--drag", "A", "--onto", "C")
	require.NoError(t, err)

	stdout, _, err := executeRoot(t, "--format", "json", "move", "--db", db, "--surface", "board", "--drag", "C", "--onto", "B")
	require.NoError(t, err)

	var resp struct {
		Data MoveResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	result := resp.Data
	assert.Equal(t, "reordered", result.Outcome)
	assert.Equal(t, "move", result.DropEffect)
	assert.Equal(t, []string{"C", "B", "A"}, result.Order)
	assert.NotEmpty(t, result.Gesture)
	// The first move logged seqs 1-3; the second continues after them.
	assert.Equal(t, int64(6), result.Seq)
}

func TestMoveSelfDropFails(t *testing.T) {
	db := seededDB(t)

	stdout, _, err := executeRoot(t, "move", "--db", db, "--surface", "board", "--drag", "B", "--onto", "B")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, stdout, "✗ Drop of B onto B rejected: self_drop")
	assert.Contains(t, stdout, "order: [A, B, C]")
}

func TestMoveStaleTarget(t *testing.T) {
	db := seededDB(t)

	stdout, _, err := executeRoot(t, "--format", "json", "move", "--db", db, "--surface", "board", "--drag", "A", "--onto", "Z")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp struct {
		Data MoveResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, "stale", resp.Data.Outcome)
	assert.Equal(t, "target", resp.Data.Stale)
	assert.Equal(t, []string{"A", "B", "C"}, resp.Data.Order)
}

func TestMoveMalformedPayload(t *testing.T) {
	db := seededDB(t)

	stdout, _, err := executeRoot(t, "move", "--db", db, "--surface", "board", "--drag", "A", "--onto", "C", "--payload", "not-json")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, stdout, "malformed_payload")
}

func TestMoveUnknownItem(t *testing.T) {
	db := seededDB(t)

	stdout, _, err := executeRoot(t, "move", "--db", db, "--surface", "board", "--drag", "Z", "--onto", "A")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, stdout, ErrCodeEngine)
	assert.Contains(t, stdout, "UNKNOWN_ITEM")
}

func TestMoveUnknownSurface(t *testing.T) {
	db := seededDB(t)

	_, _, err := executeRoot(t, "move", "--db", db, "--surface", "shelf", "--drag", "A", "--onto", "B")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "UNKNOWN_SURFACE")
}

func TestMoveRequiresFlags(t *testing.T) {
	db := seededDB(t)

	_, _, err := executeRoot(t, "move", "--db", db, "--surface", "board", "--drag", "A")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "onto")
}
