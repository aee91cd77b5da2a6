package fetcher

import (
	"os"

	"github.com/symfetch/symfetch/internal/cab"
)

// CabExtractor unpacks cabinet archives via the cab package.
type CabExtractor struct{}

// Extract decompresses every entry of the archive into destPath.
func (CabExtractor) Extract(archivePath, destPath string) error {
	return cab.ExtractTo(archivePath, destPath)
}

// OSRemover deletes files with os.Remove.
type OSRemover struct{}

// Remove deletes the file at path.
func (OSRemover) Remove(path string) error {
	return os.Remove(path)
}
