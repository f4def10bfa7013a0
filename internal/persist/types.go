package persist

import (
	"context"
	"errors"
)

// ErrAbsent is returned by Backend.Load when nothing has been saved yet.
var ErrAbsent = errors.New("state not found")

// Backend stores the encoded state document as one opaque blob.
type Backend interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, data []byte) error
	Mode() string
	Close() error
}
