package ingest_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/vectorium/internal/ingest"
)

func TestIDPolicy_Valid(t *testing.T) {
	assert.True(t, ingest.IDPolicyCounter.Valid())
	assert.True(t, ingest.IDPolicyPathHash.Valid())
	assert.False(t, ingest.IDPolicy("").Valid())
	assert.False(t, ingest.IDPolicy("random").Valid())
}

func TestNewDocumentMeta(t *testing.T) {
	path := writeFile(t, "notes.txt", "hello\n")

	meta, err := ingest.NewDocumentMeta(path)
	require.NoError(t, err)

	assert.Equal(t, path, meta.Path)
	assert.Equal(t, "notes.txt", meta.Name)
	assert.WithinDuration(t, time.Now(), meta.Modified, time.Minute)
}

func TestNewDocumentMeta_MissingFile(t *testing.T) {
	_, err := ingest.NewDocumentMeta(filepath.Join(t.TempDir(), "gone.txt"))

	require.Error(t, err)
	assert.ErrorIs(t, err, ingest.ErrRead)
}

func TestBuildPoint_CounterPolicy(t *testing.T) {
	meta := ingest.DocumentMeta{
		Path:     "/data/doc.txt",
		Name:     "doc.txt",
		Modified: time.Unix(1700000000, 0),
	}
	vector := []float32{0.1, 0.2, 0.3}

	point := ingest.BuildPoint(ingest.IDPolicyCounter, "some line", vector, meta, 42, 7)

	assert.Equal(t, uint64(42), point.ID.Num)
	assert.Empty(t, point.ID.UUID)
	assert.Equal(t, vector, point.Vector)
	assert.Equal(t, "doc.txt", point.Payload.Title)
	assert.Equal(t, "some line", point.Payload.Content)
	assert.Equal(t, "some line", point.Payload.Preview)
	assert.Equal(t, int64(1700000000), point.Payload.Modified)
}

func TestBuildPoint_PathHashPolicy(t *testing.T) {
	meta := ingest.DocumentMeta{Path: "/data/doc.txt", Name: "doc.txt", Modified: time.Unix(1700000000, 0)}
	vector := []float32{0.5}

	first := ingest.BuildPoint(ingest.IDPolicyPathHash, "line", vector, meta, 1, 0)
	again := ingest.BuildPoint(ingest.IDPolicyPathHash, "line", vector, meta, 99, 0)

	require.NotEmpty(t, first.ID.UUID)
	assert.Zero(t, first.ID.Num)

	// The id depends only on path and ordinal, never the run counter.
	assert.Equal(t, first.ID.UUID, again.ID.UUID)
}

func TestBuildPoint_PathHashDistinctIDs(t *testing.T) {
	meta := ingest.DocumentMeta{Path: "/data/doc.txt", Name: "doc.txt"}
	other := ingest.DocumentMeta{Path: "/data/other.txt", Name: "other.txt"}
	vector := []float32{0.5}

	a := ingest.BuildPoint(ingest.IDPolicyPathHash, "x", vector, meta, 1, 0)
	b := ingest.BuildPoint(ingest.IDPolicyPathHash, "x", vector, meta, 2, 1)
	c := ingest.BuildPoint(ingest.IDPolicyPathHash, "x", vector, other, 3, 0)

	assert.NotEqual(t, a.ID.UUID, b.ID.UUID, "ordinals must produce distinct ids")
	assert.NotEqual(t, a.ID.UUID, c.ID.UUID, "paths must produce distinct ids")
}
