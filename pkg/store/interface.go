package store

import (
	"context"
	"errors"

	"github.com/movelearn/tutor/pkg/types"
)

var ErrInvalidName = errors.New("invalid transcript name")

// Store defines the local persistence contract of the tutor client.
type Store interface {
	// Lifecycle
	Open(ctx context.Context) error
	Close() error

	// Auth Operations
	LoadAuth(ctx context.Context) (types.AuthRecord, error)
	SaveAuth(ctx context.Context, patch types.AuthRecord) (types.AuthRecord, error)
	ClearAuth(ctx context.Context) error

	// Transcript Operations
	AppendMessage(ctx context.Context, transcript string, msg types.ChatMessage) error
	Messages(ctx context.Context, transcript string) ([]types.ChatMessage, error)
	ClearTranscript(ctx context.Context, transcript string) error
}
