package aws

import (
	"context"
)

// pageFetch issues one page of a remote listing call. It receives the
// continuation token from the previous page (nil on the first call) and
// returns the page's items plus the next token, or nil when the collection
// is exhausted.
type pageFetch[T any] func(ctx context.Context, token *string) (items []T, next *string, err error)

// collectPages drains a token-paginated listing operation into a single
// slice, preserving page order and within-page order. An empty first page
// with no token yields an empty result. Any page error aborts the whole
// collection and is returned as-is.
func collectPages[T any](ctx context.Context, fetch pageFetch[T]) ([]T, error) {
	var all []T
	var nextToken *string
	for {
		items, next, err := fetch(ctx, nextToken)
		if err != nil {
			return nil, err
		}
		all = append(all, items...)
		if next == nil {
			return all, nil
		}
		nextToken = next
	}
}
