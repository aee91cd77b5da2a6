package locator

import (
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/symfetch/symfetch/internal/peinfo"
)

func testIdentity(t *testing.T) peinfo.Identity {
	t.Helper()
	guid, err := uuid.Parse("efbeadde-0201-0403-0506-0708090a0b0c")
	require.NoError(t, err)
	return peinfo.Identity{
		ModuleBase:     "example",
		SymbolFileBase: "example",
		GUID:           guid,
		Age:            1,
	}
}

func TestDerive_LookupKey(t *testing.T) {
	rec, err := Derive(testIdentity(t), "/opt/game/example.dll")
	require.NoError(t, err)

	assert.Equal(t, "example.pdb/EFBEADDE0201040305060708090A0B0C1/example.pd_", rec.LookupKey)
}

func TestDerive_AgeInKey(t *testing.T) {
	id := testIdentity(t)
	id.Age = 0x2A

	rec, err := Derive(id, "/opt/game/example.dll")
	require.NoError(t, err)
	assert.Equal(t, "example.pdb/EFBEADDE0201040305060708090A0B0C2A/example.pd_", rec.LookupKey)
}

func TestDerive_PathsShareModuleDirectory(t *testing.T) {
	modulePath := filepath.Join("some", "nested", "dir", "example.dll")

	rec, err := Derive(testIdentity(t), modulePath)
	require.NoError(t, err)

	dir := filepath.Dir(modulePath)
	assert.Equal(t, modulePath, rec.ModulePath)
	assert.Equal(t, dir, filepath.Dir(rec.SymbolFilePath))
	assert.Equal(t, dir, filepath.Dir(rec.ArchivePath))
	assert.Equal(t, "example.pdb", filepath.Base(rec.SymbolFilePath))
	assert.Equal(t, "example.cab", filepath.Base(rec.ArchivePath))
}

func TestDerive_DistinctSymbolFileBase(t *testing.T) {
	// The record's embedded name does not have to match the module's
	// own name; both fields are honored independently.
	id := testIdentity(t)
	id.SymbolFileBase = "renamed"

	rec, err := Derive(id, "/opt/game/example.dll")
	require.NoError(t, err)

	assert.Equal(t, "renamed.pdb", filepath.Base(rec.SymbolFilePath))
	assert.Equal(t, "example.cab", filepath.Base(rec.ArchivePath))
	assert.Contains(t, rec.LookupKey, "example.pdb/")
}

func TestDerive_Idempotent(t *testing.T) {
	id := testIdentity(t)

	first, err := Derive(id, "/opt/game/example.dll")
	require.NoError(t, err)
	second, err := Derive(id, "/opt/game/example.dll")
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestDerive_EmptyModulePath(t *testing.T) {
	_, err := Derive(testIdentity(t), "")
	assert.ErrorIs(t, err, ErrPathEncoding)
}

func TestDerive_EmptyIdentity(t *testing.T) {
	_, err := Derive(peinfo.Identity{}, "/opt/game/example.dll")
	assert.ErrorIs(t, err, ErrPathEncoding)
}
