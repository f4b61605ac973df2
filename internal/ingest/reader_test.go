package ingest_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/vectorium/internal/ingest"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReadLines(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []string
	}{
		{
			name:    "plain lines",
			content: "alpha\nbeta\ngamma\n",
			want:    []string{"alpha", "beta", "gamma"},
		},
		{
			name:    "no trailing newline",
			content: "alpha\nbeta",
			want:    []string{"alpha", "beta"},
		},
		{
			name:    "blank and whitespace lines skipped",
			content: "alpha\n\n   \n\tbeta\t\n",
			want:    []string{"alpha", "beta"},
		},
		{
			name:    "whitespace only",
			content: "\n  \n\t\n",
			want:    nil,
		},
		{
			name:    "empty file",
			content: "",
			want:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, "doc.txt", tt.content)

			var got []string
			err := ingest.ReadLines(path, 64*1024, func(line string) error {
				got = append(got, line)
				return nil
			})

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReadLines_MissingFile(t *testing.T) {
	err := ingest.ReadLines(filepath.Join(t.TempDir(), "nope.txt"), 64*1024, func(string) error {
		t.Fatal("callback should not run")
		return nil
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, ingest.ErrRead)
}

func TestReadLines_CallbackErrorStopsStream(t *testing.T) {
	path := writeFile(t, "doc.txt", "one\ntwo\nthree\n")
	sentinel := errors.New("stop here")

	var seen int
	err := ingest.ReadLines(path, 64*1024, func(line string) error {
		seen++
		if line == "two" {
			return sentinel
		}
		return nil
	})

	assert.ErrorIs(t, err, sentinel)
	assert.Equal(t, 2, seen)
}

func TestReadLines_SmallBuffer(t *testing.T) {
	// Lines longer than the buffer must still come through whole.
	long := ""
	for i := 0; i < 100; i++ {
		long += "abcdefghij"
	}
	path := writeFile(t, "doc.txt", long+"\nshort\n")

	var got []string
	err := ingest.ReadLines(path, 16, func(line string) error {
		got = append(got, line)
		return nil
	})

	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, long, got[0])
	assert.Equal(t, "short", got[1])
}

func TestReadChunks(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		chunkSize int
		want      [][]string
	}{
		{
			name:      "exact multiple",
			content:   "a\nb\nc\nd\n",
			chunkSize: 2,
			want:      [][]string{{"a", "b"}, {"c", "d"}},
		},
		{
			name:      "final partial chunk",
			content:   "a\nb\nc\n",
			chunkSize: 2,
			want:      [][]string{{"a", "b"}, {"c"}},
		},
		{
			name:      "single chunk",
			content:   "a\nb\nc\n",
			chunkSize: 10,
			want:      [][]string{{"a", "b", "c"}},
		},
		{
			name:      "chunk size one",
			content:   "a\nb\n",
			chunkSize: 1,
			want:      [][]string{{"a"}, {"b"}},
		},
		{
			name:      "empty file yields no chunks",
			content:   "\n\n",
			chunkSize: 2,
			want:      nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, "doc.txt", tt.content)

			var got [][]string
			err := ingest.ReadChunks(path, 64*1024, tt.chunkSize, func(chunk []string) error {
				cp := make([]string, len(chunk))
				copy(cp, chunk)
				got = append(got, cp)
				return nil
			})

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReadChunks_CallbackError(t *testing.T) {
	path := writeFile(t, "doc.txt", "a\nb\nc\nd\n")
	sentinel := errors.New("boom")

	var calls int
	err := ingest.ReadChunks(path, 64*1024, 2, func(chunk []string) error {
		calls++
		return sentinel
	})

	assert.ErrorIs(t, err, sentinel)
	assert.Equal(t, 1, calls)
}
