// Package artifact keeps the JSON prediction documents written after each
// maternal-health submission.
package artifact

import (
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"

	"github.com/iliyamo/maternal-health/internal/config"
)

// ErrNotFound is returned by Open for names that are not stored.
var ErrNotFound = errors.New("artifact not found")

// ErrInvalidName is returned by Open for names outside the prediction_<id>.json
// pattern.
var ErrInvalidName = errors.New("invalid artifact name")

var namePattern = regexp.MustCompile(`^prediction_[1-9][0-9]*\.json$`)

// Store persists one prediction document per record id.
type Store interface {
	// Save writes v as JSON under FileName(id) and returns where it went.
	Save(ctx context.Context, id uint64, v any) (string, error)
	// Open streams a stored document back.
	Open(ctx context.Context, name string) (io.ReadCloser, error)
}

// FileName is the artifact name for a record id.
func FileName(id uint64) string {
	return fmt.Sprintf("prediction_%d.json", id)
}

// ValidName reports whether name looks like something FileName produced.
func ValidName(name string) bool {
	return namePattern.MatchString(name)
}

// New builds the store selected by cfg.Backend.
func New(ctx context.Context, cfg config.ArtifactConfig) (Store, error) {
	switch cfg.Backend {
	case "", "file":
		return NewFileStore(cfg.Dir)
	case "s3":
		return NewS3Store(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown predictions backend %q", cfg.Backend)
	}
}
