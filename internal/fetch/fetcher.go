package fetch

import "context"

// Snapshot is the observed state of a product page at fetch time.
type Snapshot struct {
	Title string
	Price float64
}

// Fetcher resolves an external product reference to its current title and
// price. Implementations must bound each call with a timeout; a timed-out
// fetch is an ordinary fetch failure.
type Fetcher interface {
	Fetch(ctx context.Context, productRef string) (Snapshot, error)
}
