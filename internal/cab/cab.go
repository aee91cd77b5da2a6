// Package cab reads Microsoft cabinet archives, the container format the
// symbol-distribution service wraps compressed symbol files in.
//
// Only what a single downloaded archive needs is implemented: one
// cabinet, folders compressed with MSZIP or stored uncompressed.
// Multi-cabinet sets and the LZX/Quantum codecs are rejected.
package cab

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
)

// ErrArchiveCorrupt means the archive cannot be decoded: bad structure,
// unsupported compression, or a folder stream that fails to decompress.
var ErrArchiveCorrupt = errors.New("cabinet archive corrupt")

const (
	headerSize = 36
	magic      = "MSCF"

	flagPrevCabinet    = 0x0001
	flagNextCabinet    = 0x0002
	flagReservePresent = 0x0004

	compressionNone  = 0
	compressionMSZIP = 1
)

// File is one entry in a cabinet.
type File struct {
	// Name is the entry's name as stored, including any subdirectory
	// prefix.
	Name string

	// Size is the entry's uncompressed size in bytes.
	Size uint32

	folder uint16
	offset uint32
}

// folder is one CFFOLDER: a chain of data blocks sharing a compression
// state.
type folder struct {
	dataOffset  uint32
	blocks      uint16
	compression uint16
}

// Cabinet is a parsed archive. Folder streams are decompressed lazily,
// at most once each.
type Cabinet struct {
	data        []byte
	folders     []folder
	files       []File
	decoded     [][]byte
	dataReserve uint8
}

// Open reads and parses the cabinet at path.
func Open(path string) (*Cabinet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read archive: %w", err)
	}
	return Parse(data)
}

// Parse decodes the cabinet's header, folder table and file table.
func Parse(data []byte) (*Cabinet, error) {
	r := &reader{data: data}

	hdr, err := r.take(headerSize)
	if err != nil {
		return nil, fmt.Errorf("%w: header truncated", ErrArchiveCorrupt)
	}
	if string(hdr[:4]) != magic {
		return nil, fmt.Errorf("%w: bad signature %q", ErrArchiveCorrupt, hdr[:4])
	}

	le := binary.LittleEndian
	fileTableOffset := le.Uint32(hdr[16:])
	numFolders := le.Uint16(hdr[26:])
	numFiles := le.Uint16(hdr[28:])
	flags := le.Uint16(hdr[30:])

	if flags&(flagPrevCabinet|flagNextCabinet) != 0 {
		return nil, fmt.Errorf("%w: multi-cabinet sets are not supported", ErrArchiveCorrupt)
	}

	c := &Cabinet{data: data}

	var folderReserve uint8
	if flags&flagReservePresent != 0 {
		res, err := r.take(4)
		if err != nil {
			return nil, fmt.Errorf("%w: reserve header truncated", ErrArchiveCorrupt)
		}
		headerReserve := le.Uint16(res[0:])
		folderReserve = res[2]
		c.dataReserve = res[3]
		if _, err := r.take(int(headerReserve)); err != nil {
			return nil, fmt.Errorf("%w: reserve area truncated", ErrArchiveCorrupt)
		}
	}

	for i := 0; i < int(numFolders); i++ {
		fo, err := r.take(8 + int(folderReserve))
		if err != nil {
			return nil, fmt.Errorf("%w: folder table truncated", ErrArchiveCorrupt)
		}
		c.folders = append(c.folders, folder{
			dataOffset:  le.Uint32(fo[0:]),
			blocks:      le.Uint16(fo[4:]),
			compression: le.Uint16(fo[6:]),
		})
	}

	r.off = int(fileTableOffset)
	for i := 0; i < int(numFiles); i++ {
		fe, err := r.take(16)
		if err != nil {
			return nil, fmt.Errorf("%w: file table truncated", ErrArchiveCorrupt)
		}
		name, err := r.cstring()
		if err != nil {
			return nil, fmt.Errorf("%w: file name truncated", ErrArchiveCorrupt)
		}
		f := File{
			Name:   name,
			Size:   le.Uint32(fe[0:]),
			offset: le.Uint32(fe[4:]),
			folder: le.Uint16(fe[8:]),
		}
		if int(f.folder) >= len(c.folders) {
			return nil, fmt.Errorf("%w: entry %q references folder %d of %d", ErrArchiveCorrupt, f.Name, f.folder, len(c.folders))
		}
		c.files = append(c.files, f)
	}

	c.decoded = make([][]byte, len(c.folders))
	return c, nil
}

// Files returns every entry in the cabinet, across all folders.
func (c *Cabinet) Files() []File {
	return c.files
}

// ReadFile returns the decompressed contents of one entry.
func (c *Cabinet) ReadFile(f File) ([]byte, error) {
	stream, err := c.folderData(int(f.folder))
	if err != nil {
		return nil, err
	}
	end := uint64(f.offset) + uint64(f.Size)
	if end > uint64(len(stream)) {
		return nil, fmt.Errorf("%w: entry %q extends past folder stream", ErrArchiveCorrupt, f.Name)
	}
	return stream[f.offset:end], nil
}

// folderData decompresses a folder's CFDATA chain, caching the result.
func (c *Cabinet) folderData(i int) ([]byte, error) {
	if c.decoded[i] != nil {
		return c.decoded[i], nil
	}

	fo := c.folders[i]
	r := &reader{data: c.data, off: int(fo.dataOffset)}
	le := binary.LittleEndian

	var out []byte
	for b := 0; b < int(fo.blocks); b++ {
		// CFDATA: checksum, compressed size, uncompressed size.
		// The checksum is not validated; writers frequently leave
		// it zero.
		bh, err := r.take(8 + int(c.dataReserve))
		if err != nil {
			return nil, fmt.Errorf("%w: data block %d truncated", ErrArchiveCorrupt, b)
		}
		compressed := int(le.Uint16(bh[4:]))
		uncompressed := int(le.Uint16(bh[6:]))

		ab, err := r.take(compressed)
		if err != nil {
			return nil, fmt.Errorf("%w: data block %d truncated", ErrArchiveCorrupt, b)
		}

		var block []byte
		switch fo.compression & 0x000F {
		case compressionNone:
			block = ab
		case compressionMSZIP:
			block, err = mszipBlock(ab, out)
			if err != nil {
				return nil, fmt.Errorf("%w: data block %d: %v", ErrArchiveCorrupt, b, err)
			}
		default:
			return nil, fmt.Errorf("%w: unsupported compression type %#x", ErrArchiveCorrupt, fo.compression)
		}

		if len(block) != uncompressed {
			return nil, fmt.Errorf("%w: data block %d decoded to %d bytes, header says %d", ErrArchiveCorrupt, b, len(block), uncompressed)
		}
		out = append(out, block...)
	}

	c.decoded[i] = out
	return out, nil
}

// ExtractTo decompresses every entry of the archive at archivePath into
// destPath. Entries are written in table order, so with multiple entries
// the last one wins. An archive with zero entries is an error rather
// than a silent no-op.
func ExtractTo(archivePath, destPath string) error {
	c, err := Open(archivePath)
	if err != nil {
		return err
	}
	if len(c.files) == 0 {
		return fmt.Errorf("%w: archive contains no entries", ErrArchiveCorrupt)
	}
	for _, f := range c.files {
		contents, err := c.ReadFile(f)
		if err != nil {
			return err
		}
		if err := os.WriteFile(destPath, contents, 0o644); err != nil {
			return fmt.Errorf("write symbol file: %w", err)
		}
	}
	return nil
}

// reader is a bounds-checked cursor over the raw archive bytes.
type reader struct {
	data []byte
	off  int
}

func (r *reader) take(n int) ([]byte, error) {
	if n < 0 || r.off < 0 || r.off+n > len(r.data) {
		return nil, errors.New("out of bounds")
	}
	b := r.data[r.off : r.off+n]
	r.off += n
	return b, nil
}

func (r *reader) cstring() (string, error) {
	if r.off < 0 || r.off >= len(r.data) {
		return "", errors.New("out of bounds")
	}
	i := bytes.IndexByte(r.data[r.off:], 0)
	if i < 0 {
		return "", errors.New("unterminated string")
	}
	s := string(r.data[r.off : r.off+i])
	r.off += i + 1
	return s, nil
}
