package testutil

import "encoding/binary"

// BuildCab assembles a minimal single-folder, single-entry cabinet with
// the entry stored uncompressed. Enough for pipeline tests; the cab
// package's own tests cover the compressed layouts.
func BuildCab(name string, contents []byte) []byte {
	le := binary.LittleEndian

	fileEntry := make([]byte, 16, 16+len(name)+1)
	le.PutUint32(fileEntry[0:], uint32(len(contents)))
	fileEntry = append(fileEntry, name...)
	fileEntry = append(fileEntry, 0)

	const headerSize = 36
	folderOff := headerSize
	fileTableOff := folderOff + 8
	dataOff := fileTableOff + len(fileEntry)
	total := dataOff + 8 + len(contents)

	out := make([]byte, total)
	copy(out, "MSCF")
	le.PutUint32(out[8:], uint32(total))
	le.PutUint32(out[16:], uint32(fileTableOff))
	out[24], out[25] = 3, 1 // format version 1.3
	le.PutUint16(out[26:], 1)
	le.PutUint16(out[28:], 1)

	le.PutUint32(out[folderOff:], uint32(dataOff))
	le.PutUint16(out[folderOff+4:], 1) // one data block
	le.PutUint16(out[folderOff+6:], 0) // uncompressed
	copy(out[fileTableOff:], fileEntry)

	le.PutUint16(out[dataOff+4:], uint16(len(contents)))
	le.PutUint16(out[dataOff+6:], uint16(len(contents)))
	copy(out[dataOff+8:], contents)
	return out
}
