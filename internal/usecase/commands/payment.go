package commands

import (
	"context"
	"log/slog"

	"washbook/internal/pkg/errs"

	"github.com/google/uuid"
)

// PaymentResult is the opaque outcome reported by the payment collaborator.
type PaymentResult string

const (
	PaymentSuccess PaymentResult = "SUCCESS"
	PaymentFailure PaymentResult = "FAILURE"
	PaymentTimeout PaymentResult = "TIMEOUT"
)

var ErrUnknownPaymentResult = errs.New("unknown payment result")

// PaymentBridge translates payment outcomes into coordinator transitions.
// It never touches the ledger directly: confirm and cancel are the only two
// calls it may make.
type PaymentBridge interface {
	OnPaymentOutcome(ctx context.Context, reservationID uuid.UUID, result PaymentResult) error
}

type paymentBridgeImpl struct {
	reservations ReservationCommands
	logger       *slog.Logger
}

func NewPaymentBridge(reservations ReservationCommands, logger *slog.Logger) PaymentBridge {
	return &paymentBridgeImpl{reservations: reservations, logger: logger}
}

func (b *paymentBridgeImpl) OnPaymentOutcome(ctx context.Context, reservationID uuid.UUID, result PaymentResult) error {
	switch result {
	case PaymentSuccess:
		_, err := b.reservations.Confirm(ctx, reservationID)
		if err != nil {
			// ErrHoldExpired here is the sweeper-vs-payment race: surface it
			// so the caller starts the refund flow, never auto-reconfirm.
			b.logger.Warn("payment success could not confirm reservation",
				"reservation_id", reservationID, "error", err)
			return err
		}
		return nil

	case PaymentFailure:
		_, err := b.reservations.Cancel(ctx, reservationID)
		if err != nil {
			b.logger.Warn("payment failure could not cancel reservation",
				"reservation_id", reservationID, "error", err)
			return err
		}
		return nil

	case PaymentTimeout:
		// Leave the hold to expire naturally.
		b.logger.Info("payment timed out, leaving hold to expire",
			"reservation_id", reservationID)
		return nil

	default:
		return ErrUnknownPaymentResult
	}
}
