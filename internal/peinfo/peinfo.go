// Package peinfo extracts the debug identity embedded in a PE module.
//
// A linked PE image carries a debug directory whose CodeView entry (the
// "RSDS" / PDB 7.0 record) names the symbol file the build produced,
// together with a 16-byte GUID and an age counter. That triple is the key
// the symbol-distribution service is addressed by, so this package is the
// first stage of every fetch: parse the module bytes, find the record,
// decode it into an Identity.
//
// Parsing is pure: it operates on an in-memory byte buffer, performs no
// I/O, and keeps no state between calls.
package peinfo

import (
	"bytes"
	"debug/pe"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/google/uuid"
)

// Sentinel errors for the distinct ways a module can fail to yield an
// identity. Callers match with errors.Is.
var (
	// ErrMalformedContainer means the bytes do not parse as a PE image.
	ErrMalformedContainer = errors.New("malformed PE container")

	// ErrNoDebugDirectory means the image parses but carries no debug
	// data directory.
	ErrNoDebugDirectory = errors.New("module has no debug directory")

	// ErrNoDebugInfo means the debug directory exists but contains no
	// CodeView PDB 7.0 record.
	ErrNoDebugInfo = errors.New("module has no CodeView debug info")

	// ErrBadDebugRecord means a CodeView record was found but could not
	// be decoded (truncated signature, unusable file name).
	ErrBadDebugRecord = errors.New("malformed CodeView debug record")
)

const (
	// Index of the debug directory in the optional header's data
	// directory table.
	dirEntryDebug = 6

	// IMAGE_DEBUG_TYPE_CODEVIEW.
	debugTypeCodeView = 2

	// debugDirEntrySize is the on-disk size of IMAGE_DEBUG_DIRECTORY.
	debugDirEntrySize = 28

	// rsdsHeaderSize covers the "RSDS" magic, the 16-byte GUID and the
	// 4-byte age that precede the symbol file name.
	rsdsHeaderSize = 24
)

// rsdsMagic marks a PDB 7.0 CodeView record.
var rsdsMagic = [4]byte{'R', 'S', 'D', 'S'}

// debugDirEntry mirrors IMAGE_DEBUG_DIRECTORY.
type debugDirEntry struct {
	Characteristics  uint32
	TimeDateStamp    uint32
	MajorVersion     uint16
	MinorVersion     uint16
	Type             uint32
	SizeOfData       uint32
	AddressOfRawData uint32
	PointerToRawData uint32
}

// Identity is the decoded debug identity of a module. It is constructed
// once by Parse and read-only afterward.
type Identity struct {
	// ModuleBase is the stem of the symbol file the record names, e.g.
	// "UnityPlayer" for a record pointing at UnityPlayer.pdb.
	ModuleBase string

	// SymbolFileBase is the stem of the referenced symbol file. By
	// convention it equals ModuleBase, but the record could name an
	// arbitrary file, so it is kept as a distinct field.
	SymbolFileBase string

	// GUID is the record's signature, normalized to RFC 4122 byte
	// order. On disk the first three groups are little-endian.
	GUID uuid.UUID

	// Age counts how many times the symbol file has been written.
	Age uint32
}

// Signature renders the GUID as the canonical 32-character uppercase hex
// token used in symbol-server lookup keys.
func (id Identity) Signature() string {
	return strings.ToUpper(hex.EncodeToString(id.GUID[:]))
}

// Parse decodes the debug identity from the raw bytes of a PE module.
func Parse(data []byte) (Identity, error) {
	f, err := pe.NewFile(bytes.NewReader(data))
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrMalformedContainer, err)
	}
	defer f.Close()

	rva, size, err := debugDirectory(f)
	if err != nil {
		return Identity{}, err
	}

	entry, err := findCodeViewEntry(f, data, rva, size)
	if err != nil {
		return Identity{}, err
	}

	return decodeRSDS(data, entry)
}

// debugDirectory returns the RVA and size of the image's debug data
// directory.
func debugDirectory(f *pe.File) (rva, size uint32, err error) {
	var (
		n    uint32
		dirs [16]pe.DataDirectory
	)
	switch oh := f.OptionalHeader.(type) {
	case *pe.OptionalHeader32:
		n = oh.NumberOfRvaAndSizes
		dirs = oh.DataDirectory
	case *pe.OptionalHeader64:
		n = oh.NumberOfRvaAndSizes
		dirs = oh.DataDirectory
	default:
		// COFF objects have no optional header and therefore no
		// data directories.
		return 0, 0, ErrNoDebugDirectory
	}

	if n <= dirEntryDebug {
		return 0, 0, ErrNoDebugDirectory
	}
	dir := dirs[dirEntryDebug]
	if dir.VirtualAddress == 0 || dir.Size == 0 {
		return 0, 0, ErrNoDebugDirectory
	}
	return dir.VirtualAddress, dir.Size, nil
}

// findCodeViewEntry walks the debug directory and returns its CodeView
// entry.
func findCodeViewEntry(f *pe.File, data []byte, rva, size uint32) (debugDirEntry, error) {
	off, err := fileOffset(f, rva)
	if err != nil {
		return debugDirEntry{}, err
	}
	if uint64(off)+uint64(size) > uint64(len(data)) {
		return debugDirEntry{}, fmt.Errorf("%w: debug directory extends past end of file", ErrMalformedContainer)
	}

	r := bytes.NewReader(data[off : off+size])
	for i := uint32(0); i+debugDirEntrySize <= size; i += debugDirEntrySize {
		var entry debugDirEntry
		if err := binary.Read(r, binary.LittleEndian, &entry); err != nil {
			return debugDirEntry{}, fmt.Errorf("%w: debug directory entry: %v", ErrMalformedContainer, err)
		}
		if entry.Type == debugTypeCodeView {
			return entry, nil
		}
	}
	return debugDirEntry{}, ErrNoDebugInfo
}

// fileOffset translates an RVA into an offset within the raw file data.
func fileOffset(f *pe.File, rva uint32) (uint32, error) {
	for _, s := range f.Sections {
		if rva >= s.VirtualAddress && rva < s.VirtualAddress+s.VirtualSize {
			return rva - s.VirtualAddress + s.Offset, nil
		}
	}
	return 0, fmt.Errorf("%w: RVA %#x not mapped by any section", ErrMalformedContainer, rva)
}

// decodeRSDS decodes a PDB 7.0 CodeView payload into an Identity.
func decodeRSDS(data []byte, entry debugDirEntry) (Identity, error) {
	start := uint64(entry.PointerToRawData)
	end := start + uint64(entry.SizeOfData)
	if end > uint64(len(data)) || start > end {
		return Identity{}, fmt.Errorf("%w: CodeView data extends past end of file", ErrMalformedContainer)
	}
	raw := data[start:end]

	if len(raw) < rsdsHeaderSize {
		return Identity{}, fmt.Errorf("%w: CodeView data truncated (%d bytes)", ErrBadDebugRecord, len(raw))
	}
	if !bytes.Equal(raw[:4], rsdsMagic[:]) {
		return Identity{}, fmt.Errorf("%w: not a PDB 7.0 record (magic %q)", ErrNoDebugInfo, raw[:4])
	}

	guid, err := guidFromRecord(raw[4:20])
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrBadDebugRecord, err)
	}
	age := binary.LittleEndian.Uint32(raw[20:24])

	base, err := symbolFileBase(raw[rsdsHeaderSize:])
	if err != nil {
		return Identity{}, err
	}

	return Identity{
		ModuleBase:     base,
		SymbolFileBase: base,
		GUID:           guid,
		Age:            age,
	}, nil
}

// guidFromRecord converts the record's mixed-endian GUID bytes (three
// little-endian groups followed by eight raw bytes) into RFC ordering.
func guidFromRecord(sig []byte) (uuid.UUID, error) {
	var b [16]byte
	b[0], b[1], b[2], b[3] = sig[3], sig[2], sig[1], sig[0]
	b[4], b[5] = sig[5], sig[4]
	b[6], b[7] = sig[7], sig[6]
	copy(b[8:], sig[8:16])
	return uuid.FromBytes(b[:])
}

// symbolFileBase decodes the record's trailing file name and reduces it
// to the stem of its file-name component. The embedded path is whatever
// the build machine used, so both separator styles are honored and
// invalid UTF-8 is replaced rather than rejected.
func symbolFileBase(raw []byte) (string, error) {
	if i := bytes.IndexByte(raw, 0); i >= 0 {
		raw = raw[:i]
	}
	name := strings.ToValidUTF8(string(raw), string(unicode.ReplacementChar))
	name = strings.TrimRightFunc(name, unicode.IsSpace)

	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	if i := strings.LastIndexByte(name, '.'); i > 0 {
		name = name[:i]
	}
	if name == "" {
		return "", fmt.Errorf("%w: record names no symbol file", ErrBadDebugRecord)
	}
	return name, nil
}
