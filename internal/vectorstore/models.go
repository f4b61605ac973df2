package vectorstore

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

// Sentinel errors for vector store operations.
var (
	// ErrInvalidConfig indicates invalid configuration.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrInvalidCollectionName indicates collection name validation failure.
	ErrInvalidCollectionName = errors.New("invalid collection name")

	// ErrConnectionFailed indicates gRPC connection issues.
	ErrConnectionFailed = errors.New("failed to connect to Qdrant")

	// ErrCollectionNotFound is returned when a collection does not exist.
	ErrCollectionNotFound = errors.New("collection not found")

	// ErrInvalidPayload indicates a payload that failed validation.
	ErrInvalidPayload = errors.New("invalid point payload")

	// ErrEmptyPoints indicates an upsert with no points.
	ErrEmptyPoints = errors.New("empty or nil points")
)

// previewLimit is the maximum number of runes stored in Payload.Preview.
const previewLimit = 200

// PointID identifies a point in a collection. Exactly one of Num or UUID
// is set: Num for counter-assigned ids unique within one ingestion run,
// UUID for deterministic location-derived ids that make re-ingestion
// idempotent (upsert overwrites).
type PointID struct {
	Num  uint64
	UUID string
}

// NumID returns a numeric point id.
func NumID(n uint64) PointID {
	return PointID{Num: n}
}

// UUIDID returns a UUID point id.
func UUIDID(s string) PointID {
	return PointID{UUID: s}
}

// String renders the id for logging.
func (id PointID) String() string {
	if id.UUID != "" {
		return id.UUID
	}
	return fmt.Sprintf("%d", id.Num)
}

// Payload is the fixed, validated record stored alongside each vector.
//
// Fields are fixed at construction rather than assembled into an
// open-ended map, so malformed metadata is caught when the point is
// built instead of when it is serialized for the wire.
type Payload struct {
	// Title is the source file name.
	Title string

	// Content is the embedded text unit.
	Content string

	// Preview is Content truncated to 200 runes.
	Preview string

	// Modified is the source file's last-modified time in epoch seconds.
	Modified int64
}

// NewPayload builds a Payload from a title and content, deriving the preview.
func NewPayload(title, content string, modified int64) Payload {
	return Payload{
		Title:    title,
		Content:  content,
		Preview:  truncateRunes(content, previewLimit),
		Modified: modified,
	}
}

// Validate checks the payload for malformed metadata.
// gRPC requires valid UTF-8 strings, so invalid encodings are rejected here.
func (p Payload) Validate() error {
	if p.Title == "" {
		return fmt.Errorf("%w: title required", ErrInvalidPayload)
	}
	if !utf8.ValidString(p.Title) {
		return fmt.Errorf("%w: title is not valid UTF-8", ErrInvalidPayload)
	}
	if p.Content == "" {
		return fmt.Errorf("%w: content required", ErrInvalidPayload)
	}
	if !utf8.ValidString(p.Content) {
		return fmt.Errorf("%w: content is not valid UTF-8", ErrInvalidPayload)
	}
	if p.Modified < 0 {
		return fmt.Errorf("%w: modified must be epoch seconds, got %d", ErrInvalidPayload, p.Modified)
	}
	return nil
}

// truncateRunes returns s truncated to at most limit runes.
func truncateRunes(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit])
}

// Point is one persisted (id, vector, payload) record.
type Point struct {
	ID      PointID
	Vector  []float32
	Payload Payload
}

// SearchResult is one scored point returned by a similarity query.
type SearchResult struct {
	ID      string
	Score   float32
	Payload Payload
}

// CollectionInfo contains metadata about a vector collection.
type CollectionInfo struct {
	// Name is the collection name.
	Name string `json:"name"`

	// PointCount is the number of vectors in the collection.
	PointCount int `json:"point_count"`

	// VectorSize is the dimensionality of vectors in this collection.
	VectorSize int `json:"vector_size"`
}
