package archive

import "context"

// LogStore persists one JSON document per batch key
type LogStore interface {
	// Read returns the batch content, or found=false when the batch does not exist
	Read(ctx context.Context, key string) (content []byte, found bool, err error)

	// Version returns the token needed to update an existing batch, or "" when there is none
	Version(ctx context.Context, key string) (string, error)

	// Write creates or replaces the batch; version must be the current token when updating
	Write(ctx context.Context, key string, content []byte, version string, message string) error
}
