package errors

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

type fakeCloser struct {
	err    error
	closed bool
}

func (f *fakeCloser) Close() error {
	f.closed = true
	return f.err
}

func TestDeferClose_Success(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	c := &fakeCloser{}

	DeferClose(logger, c, "closing resource")

	if !c.closed {
		t.Error("Expected closer to be closed")
	}
	if buf.Len() != 0 {
		t.Errorf("Expected no log output on clean close, got %q", buf.String())
	}
}

func TestDeferClose_Error(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	c := &fakeCloser{err: errors.New("already closed")}

	DeferClose(logger, c, "closing resource")

	if !strings.Contains(buf.String(), "closing resource") {
		t.Errorf("Expected close error to be logged, got %q", buf.String())
	}
	if !strings.Contains(buf.String(), "already closed") {
		t.Errorf("Expected underlying error in log, got %q", buf.String())
	}
}

func TestDeferClose_NilCloser(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	// Must not panic.
	DeferClose(logger, nil, "closing resource")

	if buf.Len() != 0 {
		t.Errorf("Expected no log output for nil closer, got %q", buf.String())
	}
}
