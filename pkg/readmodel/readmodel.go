// Package readmodel defines the generic read-model query contract. It is a
// pure interface boundary; implementations live with the consuming services.
package readmodel

import (
	"context"

	"github.com/avalab/restcore/pkg/retry"
)

// Reader answers projection queries against a read model. P is the
// projection (query input) type, T the materialized result type.
type Reader[P, T any] interface {
	// Query resolves the projection to a result.
	Query(ctx context.Context, projection P) (T, error)

	// QueryWithPolicy is Query with an explicit retry policy applied around
	// the underlying lookup.
	QueryWithPolicy(ctx context.Context, projection P, policy retry.Policy) (T, error)
}
