package cli

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/symfetch/symfetch/internal/cli/ui"
	"github.com/symfetch/symfetch/internal/config"
	"github.com/symfetch/symfetch/internal/fetcher"
	"github.com/symfetch/symfetch/internal/locator"
	"github.com/symfetch/symfetch/internal/logging"
	"github.com/symfetch/symfetch/internal/peinfo"
	"github.com/symfetch/symfetch/internal/symserv"
)

func runFetch(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	logCfg := logging.DefaultConfig()
	logCfg.Level = cfg.Log.Level
	logCfg.Pretty = cfg.Log.Pretty
	logger := logging.New(logCfg)

	client := symserv.New(cfg.ServerURL,
		symserv.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
		symserv.WithLogger(logging.NewWithComponent(logCfg, "symserv")),
	)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	// Show a live progress bar only when a human is watching.
	var bar *ui.ProgressBar
	progress := logProgress(logger)
	if term.IsTerminal(int(os.Stderr.Fd())) {
		bar = ui.NewProgressBar("downloading symbol archive")
		progress = bar.Update
	}

	f := fetcher.New(fetcher.Config{
		Downloader:  client,
		Logger:      logger,
		Progress:    progress,
		KeepArchive: cfg.KeepArchive,
		OnIdentity: func(id peinfo.Identity, rec locator.Record) {
			cmd.Println(ui.RenderIdentity(id, rec))
		},
	})

	rec, err := f.Run(ctx, inputPath)
	if bar != nil {
		bar.Close()
	}
	if err != nil {
		return err
	}

	cmd.Printf("Symbol file written to %s\n", rec.SymbolFilePath)
	return nil
}

// logProgress reports download progress as log lines, one per 10%.
func logProgress(logger zerolog.Logger) func(written, total int64) {
	last := int64(-10)
	return func(written, total int64) {
		if total <= 0 {
			return
		}
		pct := written * 100 / total
		if pct >= last+10 || written == total {
			last = pct
			logger.Info().
				Int64("percent", pct).
				Int64("written", written).
				Int64("total", total).
				Msg("downloading")
		}
	}
}
