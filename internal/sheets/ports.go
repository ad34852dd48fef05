package sheets

import (
	"context"

	"expenses/internal/core"
)

// Ports for outbound snapshot export adapters.
type (
	// SnapshotWriter replaces the exported view with the given model
	// state. The transaction slice is in log order; matched holds the
	// positions that satisfy the externally computed filter.
	SnapshotWriter interface {
		WriteSnapshot(ctx context.Context, transactions []core.Transaction, matched []int) error
	}
)
