package ingest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/fyrsmithlabs/vectorium/internal/vectorstore"
)

// ErrMetadata indicates malformed document metadata, such as a file name
// that is not valid UTF-8.
var ErrMetadata = errors.New("invalid document metadata")

// IDPolicy selects how point ids are assigned. The policy is a run-level
// choice: the two policies have different idempotence guarantees and
// mixing them within one collection is a correctness hazard.
type IDPolicy string

const (
	// IDPolicyCounter assigns sequential ids from a counter threaded
	// through the run. The counter continues from the index's existing
	// point count, so successive runs write disjoint id ranges and never
	// overwrite each other's points.
	IDPolicyCounter IDPolicy = "counter"

	// IDPolicyPathHash derives a UUID from the document's path and the
	// line's ordinal within it. Re-ingesting unchanged content produces
	// identical ids, so upserts overwrite instead of accumulating.
	IDPolicyPathHash IDPolicy = "pathhash"
)

// Valid reports whether the policy is a known one.
func (p IDPolicy) Valid() bool {
	return p == IDPolicyCounter || p == IDPolicyPathHash
}

// pointNamespace is the UUIDv5 namespace for pathhash ids.
var pointNamespace = uuid.MustParse("9d2f6d97-5a31-4a6f-8a3e-3e1d22e1b6a4")

// DocumentMeta carries the per-file metadata attached to every point
// built from that file.
type DocumentMeta struct {
	// Path is the file path as discovered, used for pathhash ids.
	Path string

	// Name is the file's base name, stored as the point title.
	Name string

	// Modified is the file's last-modified time.
	Modified time.Time
}

// NewDocumentMeta stats the file at path and validates its metadata.
// Returns ErrMetadata for file names that are not valid UTF-8 and
// ErrRead if the file cannot be stat'd.
func NewDocumentMeta(path string) (DocumentMeta, error) {
	name := filepath.Base(path)
	if !utf8.ValidString(name) {
		return DocumentMeta{}, fmt.Errorf("%w: file name %q is not valid UTF-8", ErrMetadata, name)
	}

	info, err := os.Stat(path)
	if err != nil {
		return DocumentMeta{}, fmt.Errorf("%w: stat %s: %v", ErrRead, path, err)
	}

	return DocumentMeta{
		Path:     path,
		Name:     name,
		Modified: info.ModTime(),
	}, nil
}

// BuildPoint converts one embedded text unit into a vector store point.
//
// Deterministic and free of I/O: the id depends only on the policy and
// the (seq, meta, ordinal) inputs. seq is the running counter value for
// this point (1-based); ordinal is the line's 0-based position within
// its document, which keeps pathhash ids stable across runs.
func BuildPoint(policy IDPolicy, line string, vector []float32, meta DocumentMeta, seq uint64, ordinal uint64) vectorstore.Point {
	var id vectorstore.PointID
	switch policy {
	case IDPolicyPathHash:
		key := meta.Path + "#" + strconv.FormatUint(ordinal, 10)
		id = vectorstore.UUIDID(uuid.NewSHA1(pointNamespace, []byte(key)).String())
	default:
		id = vectorstore.NumID(seq)
	}

	return vectorstore.Point{
		ID:      id,
		Vector:  vector,
		Payload: vectorstore.NewPayload(meta.Name, line, meta.Modified.Unix()),
	}
}
