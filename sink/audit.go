// Package sink adapts external write-only collaborators.
package sink

import (
	"context"
	"log/slog"
)

// AuditLog forwards audit entries to the structured log. The real portal
// routes these to its audit side-channel; the contract is write-only
// either way, so nothing here is ever read back.
type AuditLog struct {
	log *slog.Logger
}

func NewAuditLog(log *slog.Logger) *AuditLog {
	return &AuditLog{log: log}
}

func (a *AuditLog) Record(ctx context.Context, actorID, action, subject string) {
	a.log.InfoContext(ctx, "audit", "actor", actorID, "action", action, "subject", subject)
}
