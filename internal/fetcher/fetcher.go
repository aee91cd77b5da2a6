// Package fetcher runs the symbol-retrieval pipeline for one module:
// parse the module's debug identity, derive the lookup key and paths,
// download the compressed archive, extract the symbol file, and remove
// the archive.
//
// The I/O collaborators are taken as interfaces so the pipeline can be
// exercised without a network or real archives. Every failure names the
// stage it originated in; there is no partial-success mode and no retry.
package fetcher

import (
	"context"
	"os"

	"github.com/rs/zerolog"

	"github.com/symfetch/symfetch/internal/locator"
	"github.com/symfetch/symfetch/internal/peinfo"
)

// Pipeline stage names, reported with every error.
const (
	StageRead     = "read"
	StageParse    = "parse"
	StageDerive   = "derive"
	StageDownload = "download"
	StageExtract  = "extract"
	StageCleanup  = "cleanup"
)

// ProgressFunc receives cumulative download progress.
type ProgressFunc = func(written, total int64)

// Downloader fetches the archive addressed by a lookup key into dest.
type Downloader interface {
	Download(ctx context.Context, key, dest string, progress ProgressFunc) error
}

// Extractor unpacks the downloaded archive into the symbol file.
type Extractor interface {
	Extract(archivePath, destPath string) error
}

// Remover deletes the temporary archive.
type Remover interface {
	Remove(path string) error
}

// StageError wraps a pipeline failure with the stage it originated in.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return e.Stage + ": " + e.Err.Error()
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Config wires a Fetcher. Downloader is required; Extractor and Remover
// default to the cabinet extractor and os.Remove.
type Config struct {
	Downloader Downloader
	Extractor  Extractor
	Remover    Remover
	Logger     zerolog.Logger

	// Progress, when set, receives cumulative bytes during download.
	Progress ProgressFunc

	// OnIdentity, when set, is invoked with the parsed identity and
	// derived record before any network access happens.
	OnIdentity func(peinfo.Identity, locator.Record)

	// KeepArchive skips the cleanup stage, leaving the downloaded
	// archive next to the symbol file.
	KeepArchive bool
}

// Fetcher runs the pipeline. Safe for concurrent use across modules; it
// holds no per-run state.
type Fetcher struct {
	cfg Config
}

// New creates a Fetcher from cfg, filling in default collaborators.
func New(cfg Config) *Fetcher {
	if cfg.Extractor == nil {
		cfg.Extractor = CabExtractor{}
	}
	if cfg.Remover == nil {
		cfg.Remover = OSRemover{}
	}
	return &Fetcher{cfg: cfg}
}

// Run retrieves the symbol file for the module at modulePath. The
// returned Record is valid whenever the identity was derived, even if a
// later stage failed, so callers can report which paths were involved.
func (f *Fetcher) Run(ctx context.Context, modulePath string) (locator.Record, error) {
	log := f.cfg.Logger

	data, err := os.ReadFile(modulePath)
	if err != nil {
		return locator.Record{}, &StageError{StageRead, err}
	}

	id, err := peinfo.Parse(data)
	if err != nil {
		return locator.Record{}, &StageError{StageParse, err}
	}

	rec, err := locator.Derive(id, modulePath)
	if err != nil {
		return locator.Record{}, &StageError{StageDerive, err}
	}

	// Surface the identity before touching the network, so a failed
	// download can still be diagnosed against a known module.
	log.Info().
		Str("module", id.ModuleBase).
		Str("signature", id.Signature()).
		Uint32("age", id.Age).
		Str("key", rec.LookupKey).
		Msg("parsed module identity")
	if f.cfg.OnIdentity != nil {
		f.cfg.OnIdentity(id, rec)
	}

	if err := f.cfg.Downloader.Download(ctx, rec.LookupKey, rec.ArchivePath, f.cfg.Progress); err != nil {
		return rec, &StageError{StageDownload, err}
	}
	log.Debug().Str("archive", rec.ArchivePath).Msg("archive downloaded")

	if err := f.cfg.Extractor.Extract(rec.ArchivePath, rec.SymbolFilePath); err != nil {
		return rec, &StageError{StageExtract, err}
	}
	log.Debug().Str("symbols", rec.SymbolFilePath).Msg("symbol file extracted")

	if f.cfg.KeepArchive {
		log.Debug().Str("archive", rec.ArchivePath).Msg("keeping archive")
		return rec, nil
	}
	if err := f.cfg.Remover.Remove(rec.ArchivePath); err != nil {
		// The symbol file is already in place; the failed delete
		// still fails the run, but the caller knows the extraction
		// survived.
		log.Warn().Err(err).Str("symbols", rec.SymbolFilePath).Msg("archive cleanup failed, symbol file retained")
		return rec, &StageError{StageCleanup, err}
	}

	return rec, nil
}
