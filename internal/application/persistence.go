package application

import (
	"context"
	"encoding/json"
	"strings"

	"go.uber.org/zap"

	"github.com/atvirokodosprendimai/catalog/internal/domain"
)

// Persister writes every changed snapshot to the repository and records an
// audit entry for catalog mutations. Failures are logged and never reach the
// dispatcher.
type Persister struct {
	repo   domain.CatalogRepository
	logger *zap.Logger
}

func NewPersister(repo domain.CatalogRepository, logger *zap.Logger) *Persister {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Persister{repo: repo, logger: logger}
}

func (p *Persister) Observe(ctx context.Context, c Change) {
	if !c.Changed() {
		return
	}
	ctx = context.WithoutCancel(ctx)
	kind := c.Action.Kind()

	if err := p.repo.SaveSnapshot(ctx, c.Next); err != nil {
		p.logger.Error("save snapshot", zap.String("action", kind), zap.Error(err))
		return
	}
	if !auditable(c.Action) {
		return
	}

	metadata, err := json.Marshal(c.Action)
	if err != nil {
		p.logger.Warn("encode audit metadata", zap.String("action", kind), zap.Error(err))
		metadata = []byte("{}")
	}
	if err := p.repo.CreateAuditLog(ctx, domain.AuditLog{
		Action:   kind,
		TargetID: domain.ActionTarget(c.Action),
		Metadata: string(metadata),
	}); err != nil {
		p.logger.Error("write audit log", zap.String("action", kind), zap.Error(err))
	}
}

// Selection and gesture counter changes are UI state, not catalog history.
func auditable(a domain.Action) bool {
	switch a.(type) {
	case domain.IncrementAdminClick, domain.ResetAdminClick:
		return false
	}
	return !strings.HasPrefix(a.Kind(), "selection.")
}
