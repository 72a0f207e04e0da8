package delivery

import "context"

// Ledger is the durable record preventing duplicate delivery per key.
//
// Implementations must serialize reads and writes per key: two concurrent
// pipeline runs must never both observe "not yet delivered" and both proceed.
// RecordAttempt with StatusDelivered is a one-way transition; recording
// Delivered for an already-delivered key is a no-op that returns the existing
// record unchanged.
type Ledger interface {
	// Get returns the record for a key, or ErrRecordNotFound from the
	// implementing package when no attempt has been recorded yet.
	Get(ctx context.Context, key Key) (*Record, error)

	// IsDelivered reports whether the key has completed delivery.
	IsDelivered(ctx context.Context, key Key) (bool, error)

	// RecordAttempt upserts the record for a key, setting the outcome and
	// adding retryIncrement to the retry count. A Delivered record is never
	// overwritten.
	RecordAttempt(ctx context.Context, key Key, outcome Status, retryIncrement int) (*Record, error)

	// ShouldRetry reports whether the key is still eligible for processing:
	// not yet delivered and below the attempt ceiling.
	ShouldRetry(ctx context.Context, key Key, maxAttempts int) (bool, error)
}
