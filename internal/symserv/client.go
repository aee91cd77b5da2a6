// Package symserv talks to a symbol-distribution service over HTTP. It
// turns a lookup key into a compressed archive on disk, streaming the
// body and reporting progress as bytes arrive.
package symserv

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	xerrors "github.com/symfetch/symfetch/internal/errors"
)

// Sentinel errors for download failures.
var (
	// ErrFetchFailed means the service did not hand back a usable
	// archive: non-2xx status, missing content-length, or an empty
	// body.
	ErrFetchFailed = errors.New("symbol fetch failed")

	// ErrStorageIO means the archive could not be written to disk.
	ErrStorageIO = errors.New("archive write failed")
)

// DefaultTimeout bounds a whole download when no client is supplied.
const DefaultTimeout = 5 * time.Minute

// ProgressFunc receives cumulative progress while a download streams.
// total is the content length reported by the service.
type ProgressFunc = func(written, total int64)

// Client downloads archives from one symbol-distribution service.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger attaches a logger for download diagnostics.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// New creates a client for the service rooted at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		logger:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Download fetches the archive addressed by key into dest. The
// destination file is created only after the response is known to be
// usable, so a failed fetch never clobbers an existing file. progress
// may be nil.
func (c *Client) Download(ctx context.Context, key, dest string, progress ProgressFunc) error {
	url := c.baseURL + "/" + key
	c.logger.Debug().Str("url", url).Msg("requesting archive")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	defer xerrors.DeferClose(c.logger, resp.Body, "closing response body")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: server returned %s", ErrFetchFailed, resp.Status)
	}
	if resp.ContentLength < 0 {
		return fmt.Errorf("%w: server reported no content length", ErrFetchFailed)
	}
	if resp.ContentLength == 0 {
		return fmt.Errorf("%w: server reported zero content length", ErrFetchFailed)
	}

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorageIO, err)
	}

	written, err := io.Copy(out, &progressReader{
		r:        resp.Body,
		total:    resp.ContentLength,
		progress: progress,
	})
	if err != nil {
		_ = out.Close()
		return fmt.Errorf("%w: %v", ErrStorageIO, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageIO, err)
	}

	c.logger.Debug().Int64("bytes", written).Str("dest", dest).Msg("archive downloaded")
	return nil
}

// progressReader counts bytes as they stream through and forwards the
// cumulative total to a ProgressFunc.
type progressReader struct {
	r        io.Reader
	total    int64
	written  int64
	progress ProgressFunc
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.written += int64(n)
		if p.progress != nil {
			p.progress(p.written, p.total)
		}
	}
	return n, err
}
