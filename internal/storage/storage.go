// Package storage publishes finished media buffers to durable,
// S3-compatible object storage. It defines the Publisher port and an
// implementation backed by aws-sdk-go-v2.
package storage

import (
	"context"
	"errors"
)

// ErrStorageUnavailable is returned for any transport, auth, or bucket
// error from the backing object store, including network timeouts.
var ErrStorageUnavailable = errors.New("object storage unavailable")

// Asset is a durably published object.
type Asset struct {
	// URL is the public URL the asset is served from.
	URL string
	// Key is the object key inside the bucket.
	Key string
}

// Publisher writes a finished buffer to object storage under a unique
// key and returns its public URL.
//
// Keys embed a fresh random identifier, so publishing identical bytes
// twice yields two distinct objects: idempotence is intentionally not
// provided. A single failed attempt is surfaced immediately; no retries
// happen here.
type Publisher interface {
	Publish(ctx context.Context, data []byte, fileName, contentType, folder string) (*Asset, error)
}
