package library

import (
	"errors"
	"fmt"

	"videothingy/vault/internal/metadata"
	"videothingy/vault/internal/storage"
)

// Failure categories surfaced to the HTTP layer. Errors returned by Service
// wrap exactly one of these; test with errors.Is.
var (
	ErrNotFound            = errors.New("not found")
	ErrValidation          = errors.New("validation failed")
	ErrProbe               = errors.New("media probe failed")
	ErrCaptioningFailed    = errors.New("captioning failed")
	ErrStorage             = errors.New("object storage failure")
	ErrUpstreamUnavailable = errors.New("metadata store unavailable")
)

// metadataErr maps a metadata store error onto the categories above.
func metadataErr(op string, err error) error {
	switch {
	case errors.Is(err, metadata.ErrNotFound):
		return fmt.Errorf("%s: %w: %w", op, ErrNotFound, err)
	case errors.Is(err, metadata.ErrUnavailable):
		return fmt.Errorf("%s: %w: %w", op, ErrUpstreamUnavailable, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func storageErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStorage, err)
}

func isObjectMissing(err error) bool {
	return errors.Is(err, storage.ErrObjectNotFound)
}

func isMetadataNotFound(err error) bool {
	return errors.Is(err, metadata.ErrNotFound)
}
