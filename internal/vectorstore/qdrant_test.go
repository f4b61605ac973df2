package vectorstore_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/fyrsmithlabs/vectorium/internal/vectorstore"
)

func TestValidateCollectionName(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantError bool
	}{
		{
			name:      "valid name",
			input:     "documents",
			wantError: false,
		},
		{
			name:      "valid with underscores and digits",
			input:     "knowledge_v2",
			wantError: false,
		},
		{
			name:      "empty name",
			input:     "",
			wantError: true,
		},
		{
			name:      "uppercase letters",
			input:     "Documents",
			wantError: true,
		},
		{
			name:      "hyphen",
			input:     "my-documents",
			wantError: true,
		},
		{
			name:      "path traversal attempt",
			input:     "../documents",
			wantError: true,
		},
		{
			name:      "too long",
			input:     strings.Repeat("a", 65),
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := vectorstore.ValidateCollectionName(tt.input)
			if tt.wantError {
				assert.Error(t, err)
				assert.ErrorIs(t, err, vectorstore.ErrInvalidCollectionName)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := vectorstore.Config{
		Host:       "localhost",
		Port:       6334,
		Collection: "documents",
		VectorSize: 384,
	}

	tests := []struct {
		name      string
		mutate    func(c *vectorstore.Config)
		wantError bool
	}{
		{
			name:   "valid config",
			mutate: func(c *vectorstore.Config) {},
		},
		{
			name:      "missing host",
			mutate:    func(c *vectorstore.Config) { c.Host = "" },
			wantError: true,
		},
		{
			name:      "invalid port",
			mutate:    func(c *vectorstore.Config) { c.Port = 70000 },
			wantError: true,
		},
		{
			name:      "missing collection",
			mutate:    func(c *vectorstore.Config) { c.Collection = "" },
			wantError: true,
		},
		{
			name:      "zero vector size",
			mutate:    func(c *vectorstore.Config) { c.VectorSize = 0 },
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantError {
				assert.ErrorIs(t, err, vectorstore.ErrInvalidConfig)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_ApplyDefaults(t *testing.T) {
	cfg := vectorstore.Config{Collection: "documents", VectorSize: 384}
	cfg.ApplyDefaults()

	assert.Equal(t, "localhost", cfg.Host)
	assert.Equal(t, 6334, cfg.Port)
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Equal(t, time.Second, cfg.RetryBackoff)
	assert.Equal(t, 50*1024*1024, cfg.MaxMessageSize)
}

func TestIsTransientError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "nil error",
			err:  nil,
			want: false,
		},
		{
			name: "unavailable is transient",
			err:  status.Error(codes.Unavailable, "connection refused"),
			want: true,
		},
		{
			name: "deadline exceeded is transient",
			err:  status.Error(codes.DeadlineExceeded, "timeout"),
			want: true,
		},
		{
			name: "resource exhausted is transient",
			err:  status.Error(codes.ResourceExhausted, "overloaded"),
			want: true,
		},
		{
			name: "invalid argument is permanent",
			err:  status.Error(codes.InvalidArgument, "bad vector size"),
			want: false,
		},
		{
			name: "not found is permanent",
			err:  status.Error(codes.NotFound, "no such collection"),
			want: false,
		},
		{
			name: "plain error is permanent",
			err:  errors.New("something else"),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, vectorstore.IsTransientError(tt.err))
		})
	}
}

func TestNewPayload_Preview(t *testing.T) {
	t.Run("short content kept whole", func(t *testing.T) {
		p := vectorstore.NewPayload("a.txt", "short line", 1700000000)
		assert.Equal(t, "short line", p.Preview)
	})

	t.Run("long content truncated to 200 runes", func(t *testing.T) {
		content := strings.Repeat("x", 500)
		p := vectorstore.NewPayload("a.txt", content, 1700000000)
		assert.Len(t, p.Preview, 200)
		assert.True(t, strings.HasPrefix(content, p.Preview))
	})

	t.Run("multibyte content truncated on rune boundary", func(t *testing.T) {
		content := strings.Repeat("日", 300)
		p := vectorstore.NewPayload("a.txt", content, 1700000000)
		assert.Equal(t, 200, len([]rune(p.Preview)))
	})
}

func TestPayload_Validate(t *testing.T) {
	tests := []struct {
		name      string
		payload   vectorstore.Payload
		wantError bool
	}{
		{
			name:    "valid payload",
			payload: vectorstore.NewPayload("a.txt", "content", 1700000000),
		},
		{
			name:      "missing title",
			payload:   vectorstore.NewPayload("", "content", 1700000000),
			wantError: true,
		},
		{
			name:      "missing content",
			payload:   vectorstore.NewPayload("a.txt", "", 1700000000),
			wantError: true,
		},
		{
			name:      "non-UTF8 title",
			payload:   vectorstore.NewPayload("a\xff.txt", "content", 1700000000),
			wantError: true,
		},
		{
			name:      "non-UTF8 content",
			payload:   vectorstore.NewPayload("a.txt", "bad\xffbytes", 1700000000),
			wantError: true,
		},
		{
			name:      "negative modified",
			payload:   vectorstore.NewPayload("a.txt", "content", -1),
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.payload.Validate()
			if tt.wantError {
				require.Error(t, err)
				assert.ErrorIs(t, err, vectorstore.ErrInvalidPayload)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestPointID_String(t *testing.T) {
	assert.Equal(t, "42", vectorstore.NumID(42).String())
	assert.Equal(t, "6ba7b810-9dad-11d1-80b4-00c04fd430c8",
		vectorstore.UUIDID("6ba7b810-9dad-11d1-80b4-00c04fd430c8").String())
}
