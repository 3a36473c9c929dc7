package planstore

import (
	"context"

	"budgetbot/internal/core"
)

// Ports for outbound persistence adapters.
type (
	// Store is the durable home of the single budget document.
	Store interface {
		// Read returns the persisted document, or core.ErrNoPlan when none exists.
		Read(ctx context.Context) (*core.Document, error)
		// Write replaces the persisted document.
		Write(ctx context.Context, doc *core.Document) error
		// Version returns a marker that changes whenever the document changes.
		// Zero means no document has been written yet.
		Version(ctx context.Context) (core.Version, error)
	}

	// VersionSource is the subset of Store the plan cache consults on every read.
	VersionSource interface {
		Version(ctx context.Context) (core.Version, error)
	}
)
