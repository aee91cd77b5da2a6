package cab

import (
	"bytes"
	"compress/flate"
	"errors"
	"fmt"
	"io"
)

// mszipWindow is the DEFLATE history window. Each MSZIP block is its own
// DEFLATE stream, but the dictionary carries over from the uncompressed
// output of the blocks before it.
const mszipWindow = 32 * 1024

// mszipBlock decompresses one MSZIP CFDATA payload. history is the
// folder output decoded so far.
func mszipBlock(ab, history []byte) ([]byte, error) {
	if len(ab) < 2 || ab[0] != 'C' || ab[1] != 'K' {
		return nil, errors.New("missing MSZIP block signature")
	}

	dict := history
	if len(dict) > mszipWindow {
		dict = dict[len(dict)-mszipWindow:]
	}

	fr := flate.NewReaderDict(bytes.NewReader(ab[2:]), dict)
	block, err := io.ReadAll(fr)
	if cerr := fr.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return nil, fmt.Errorf("inflate: %w", err)
	}
	return block, nil
}
