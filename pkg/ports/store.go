package ports

import "context"

// DigestStore persists the per-tick pose digests of a run so that independent
// instances can be checked for bit-identical evaluation.
type DigestStore interface {
	// Append records the digest for the next tick of runID.
	Append(ctx context.Context, runID string, digest uint64) error

	// Load returns all digests of runID in tick order.
	// Returns domain.ErrRunNotFound if the run does not exist.
	Load(ctx context.Context, runID string) ([]uint64, error)

	// Delete removes a run.
	Delete(ctx context.Context, runID string) error
}
