package audit

import (
	"context"

	"akeno/internal/types"
)

// Sink streams audit entries to an external system in addition to the
// primary store. Publish errors are reported to the caller for logging
// but never abort the command pipeline.
type Sink interface {
	Name() string
	Publish(ctx context.Context, entry types.AuditEntry) error
	Close() error
}
