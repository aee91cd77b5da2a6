package testutil

import "encoding/binary"

// DebugEntry is one debug directory entry for a synthetic PE image.
type DebugEntry struct {
	Type    uint32
	Payload []byte
}

// debugDirEntrySize is the on-disk size of IMAGE_DEBUG_DIRECTORY.
const debugDirEntrySize = 28

// BuildPE assembles a minimal PE64 image: DOS header, PE signature, COFF
// header, optional header, and one .rdata section holding the debug
// directory and its payloads. It carries just enough structure for
// debug/pe to accept it.
func BuildPE(entries []DebugEntry, withDebugDir bool) []byte {
	const (
		peOff      = 0x80
		optOff     = peOff + 0x18
		optSize    = 240
		sectOff    = optOff + optSize
		sectionRVA = 0x1000
		rawOff     = 0x200
	)
	le := binary.LittleEndian

	// Lay out the section: directory table first, payloads after.
	dirSize := len(entries) * debugDirEntrySize
	payloadOff := dirSize
	section := make([]byte, 0x400)
	for i, e := range entries {
		base := i * debugDirEntrySize
		le.PutUint32(section[base+12:], e.Type)
		le.PutUint32(section[base+16:], uint32(len(e.Payload)))
		le.PutUint32(section[base+20:], uint32(sectionRVA+payloadOff))
		le.PutUint32(section[base+24:], uint32(rawOff+payloadOff))
		copy(section[payloadOff:], e.Payload)
		payloadOff += len(e.Payload)
	}

	img := make([]byte, rawOff+len(section))

	// DOS header.
	img[0], img[1] = 'M', 'Z'
	le.PutUint32(img[0x3c:], peOff)

	// PE signature + COFF file header.
	copy(img[peOff:], "PE\x00\x00")
	le.PutUint16(img[peOff+4:], 0x8664) // machine: x86-64
	le.PutUint16(img[peOff+6:], 1)      // one section
	le.PutUint16(img[peOff+20:], optSize)
	le.PutUint16(img[peOff+22:], 0x2022) // executable DLL

	// Optional header (PE32+).
	le.PutUint16(img[optOff:], 0x20b)
	le.PutUint32(img[optOff+108:], 16) // NumberOfRvaAndSizes
	if withDebugDir {
		dirEntry := optOff + 112 + 6*8 // IMAGE_DIRECTORY_ENTRY_DEBUG
		le.PutUint32(img[dirEntry:], sectionRVA)
		le.PutUint32(img[dirEntry+4:], uint32(dirSize))
	}

	// Section header.
	copy(img[sectOff:], ".rdata")
	le.PutUint32(img[sectOff+8:], uint32(len(section))) // VirtualSize
	le.PutUint32(img[sectOff+12:], sectionRVA)
	le.PutUint32(img[sectOff+16:], uint32(len(section))) // SizeOfRawData
	le.PutUint32(img[sectOff+20:], rawOff)

	copy(img[rawOff:], section)
	return img
}

// RSDSPayload builds a PDB 7.0 CodeView record with the given signature
// bytes, age, and embedded symbol file path.
func RSDSPayload(sig [16]byte, age uint32, name string) []byte {
	p := make([]byte, 0, 24+len(name)+1)
	p = append(p, 'R', 'S', 'D', 'S')
	p = append(p, sig[:]...)
	p = binary.LittleEndian.AppendUint32(p, age)
	p = append(p, name...)
	p = append(p, 0)
	return p
}

// BuildModule is the common case: a PE image whose CodeView record
// carries the given signature, age, and symbol file path.
func BuildModule(sig [16]byte, age uint32, pdbPath string) []byte {
	return BuildPE([]DebugEntry{{Type: 2, Payload: RSDSPayload(sig, age, pdbPath)}}, true)
}
