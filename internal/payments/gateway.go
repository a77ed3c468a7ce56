package payments

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/bazarika/bazarika-backend/pkg/enums"
	"github.com/bazarika/bazarika-backend/pkg/logger"
)

// Gateway abstracts the payment provider behind charge and refund calls.
// Real bKash/Nagad integrations plug in here; the default implementation
// only logs and returns a synthetic reference.
type Gateway interface {
	Refund(ctx context.Context, method enums.PaymentMethod, txnID uuid.UUID, amountPaisa int64) (gatewayRef string, err error)
}

type loggingGateway struct {
	logg *logger.Logger
}

// NewLoggingGateway returns the stand-in gateway used until the mobile
// banking providers are wired up.
func NewLoggingGateway(logg *logger.Logger) Gateway {
	return &loggingGateway{logg: logg}
}

func (g *loggingGateway) Refund(ctx context.Context, method enums.PaymentMethod, txnID uuid.UUID, amountPaisa int64) (string, error) {
	if g.logg != nil {
		ctx = g.logg.WithFields(ctx, map[string]any{
			"method":         method,
			"transaction_id": txnID,
			"amount_paisa":   amountPaisa,
		})
		g.logg.Info(ctx, "gateway refund (stub)")
	}
	return fmt.Sprintf("stub-refund-%s", txnID), nil
}
