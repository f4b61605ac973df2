package ingest

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ErrRead indicates a file could not be opened or a read failed mid-stream.
// File I/O errors are not transient: a half-read document cannot be
// reconciled, so the error aborts the run instead of being retried.
var ErrRead = errors.New("failed to read document")

// ReadLines streams the non-empty, trimmed lines of the file at path to fn,
// reading through a buffer of bufferSize bytes so the file is never held in
// memory whole. The file handle is released when the stream is exhausted,
// fn returns an error, or a read fails.
//
// An error from fn is returned unchanged; read failures wrap ErrRead.
func ReadLines(path string, bufferSize int, fn func(line string) error) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: opening %s: %v", ErrRead, path, err)
	}
	defer f.Close()

	reader := bufio.NewReaderSize(f, bufferSize)
	for {
		line, err := reader.ReadString('\n')
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			if fnErr := fn(trimmed); fnErr != nil {
				return fnErr
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%w: reading %s: %v", ErrRead, path, err)
		}
	}
}

// ReadChunks groups the file's non-empty lines into chunks of at most
// chunkSize lines and passes each chunk to fn in order. The final chunk
// may be shorter. fn must not retain the slice across calls.
func ReadChunks(path string, bufferSize, chunkSize int, fn func(chunk []string) error) error {
	chunk := make([]string, 0, chunkSize)

	err := ReadLines(path, bufferSize, func(line string) error {
		chunk = append(chunk, line)
		if len(chunk) >= chunkSize {
			if err := fn(chunk); err != nil {
				return err
			}
			chunk = chunk[:0]
		}
		return nil
	})
	if err != nil {
		return err
	}

	if len(chunk) > 0 {
		return fn(chunk)
	}
	return nil
}
