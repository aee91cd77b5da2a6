// Package locator derives symbol-server lookup keys and local file paths
// from a module's debug identity.
package locator

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/symfetch/symfetch/internal/peinfo"
)

// ErrPathEncoding means the module path or identity cannot be turned into
// usable filesystem paths.
var ErrPathEncoding = errors.New("path cannot be derived")

// Record holds everything the fetch pipeline needs to retrieve one
// module's symbol file. Derived once, read-only afterward.
type Record struct {
	// ModulePath is the module file the identity was parsed from.
	ModulePath string

	// SymbolFilePath is where the extracted symbol file will land. It
	// always shares ModulePath's parent directory.
	SymbolFilePath string

	// ArchivePath is the temporary location of the downloaded cabinet
	// archive. It always shares ModulePath's parent directory.
	ArchivePath string

	// LookupKey addresses the compressed symbol file on the
	// symbol-distribution service:
	//
	//	<base>.pdb/<32-char signature><age hex>/<base>.pd_
	LookupKey string
}

// Derive computes the lookup key and local paths for a module. It is pure
// and idempotent: identical inputs always yield an identical Record.
func Derive(id peinfo.Identity, modulePath string) (Record, error) {
	if modulePath == "" {
		return Record{}, fmt.Errorf("%w: empty module path", ErrPathEncoding)
	}
	if id.ModuleBase == "" || id.SymbolFileBase == "" {
		return Record{}, fmt.Errorf("%w: identity has no symbol file name", ErrPathEncoding)
	}

	dir := filepath.Dir(modulePath)
	return Record{
		ModulePath:     modulePath,
		SymbolFilePath: filepath.Join(dir, id.SymbolFileBase+".pdb"),
		ArchivePath:    filepath.Join(dir, id.ModuleBase+".cab"),
		LookupKey:      fmt.Sprintf("%s.pdb/%s%X/%s.pd_", id.ModuleBase, id.Signature(), id.Age, id.ModuleBase),
	}, nil
}
