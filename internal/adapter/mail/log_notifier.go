package mail

import (
	"context"

	"go.uber.org/zap"

	"github.com/rl1809/storefront-cart/internal/core/domain"
)

// LogNotifier records leads in the log when no mail provider is configured.
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) NotifyLead(ctx context.Context, lead domain.Lead) error {
	n.logger.Info("lead received",
		zap.String("lead_id", lead.ID),
		zap.String("customer", lead.Contact.Name),
		zap.Int("item_count", lead.ItemCount),
		zap.String("total", money(lead.Total)),
	)
	return nil
}
