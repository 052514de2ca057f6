package ollama

import (
	"bufio"
	"bytes"
	"io"
)

// maxLineBytes bounds a single NDJSON record. Records are small; one
// megabyte leaves generous headroom for long tool-call argument blobs.
const maxLineBytes = 1 << 20

// lineReader turns a streaming response body into a lazy, single-use
// sequence of raw text lines. Lines split across network chunks are
// reassembled, empty lines are skipped, and a trailing unterminated line is
// yielded once at end of stream so the decoder can attempt it.
type lineReader struct {
	scanner *bufio.Scanner
	closer  io.Closer
}

func newLineReader(body io.ReadCloser) *lineReader {
	sc := bufio.NewScanner(body)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	return &lineReader{scanner: sc, closer: body}
}

// Next returns the next non-empty line, or io.EOF when the stream ends.
func (r *lineReader) Next() ([]byte, error) {
	for r.scanner.Scan() {
		line := bytes.TrimSpace(r.scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		return line, nil
	}
	if err := r.scanner.Err(); err != nil {
		return nil, err
	}
	return nil, io.EOF
}

// Close releases the underlying body. Safe to call mid-read; aborting a
// stream is a cancellation path, not a failure.
func (r *lineReader) Close() error {
	return r.closer.Close()
}
