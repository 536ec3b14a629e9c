package services

import (
	"context"
	"fmt"

	"github.com/phentivokcs/vintagevibes/internal/barion"
	"github.com/phentivokcs/vintagevibes/internal/domain"
	applog "github.com/phentivokcs/vintagevibes/internal/log"
	"github.com/phentivokcs/vintagevibes/internal/repos"
)

type SettlementResult struct {
	OrderID       string
	OrderStatus   string
	PaymentStatus string
}

// SettlementService consumes gateway callbacks. The callback payload is
// only a pointer to a payment record; the authoritative outcome comes
// from re-querying the gateway, which defeats spoofed callbacks. The
// whole handler is idempotent: re-delivery of the same terminal state
// neither double-sells nor double-releases, and one-shot side effects
// fire only on the first terminal transition.
type SettlementService struct {
	Orders  *repos.OrderRepo
	Inv     *repos.InventoryRepo
	Gateway Gateway
	Fulfill *FulfillmentService
}

func (s *SettlementService) Settle(ctx context.Context, paymentID string) (SettlementResult, error) {
	order, err := s.Orders.ByPaymentID(paymentID)
	if err != nil {
		return SettlementResult{}, fmt.Errorf("order for payment %s: %w", paymentID, err)
	}

	state, err := s.Gateway.GetPaymentState(ctx, paymentID)
	if err != nil {
		// No guessing: leave order and inventory untouched, the gateway
		// retries callbacks and the sweeper reclaims abandoned holds.
		return SettlementResult{}, fmt.Errorf("payment state: %w", err)
	}

	items, err := s.Orders.Items(order.ID)
	if err != nil {
		return SettlementResult{}, err
	}
	txn := state.TransactionID()

	switch state.Status {
	case barion.StatePrepared:
		return s.progress(order, domain.PaymentPrepared, txn)
	case barion.StateStarted:
		return s.progress(order, domain.PaymentStarted, txn)

	case barion.StateSucceeded:
		changed, err := s.Orders.Settle(order.ID, domain.OrderProcessing, domain.PaymentSucceeded, txn)
		if err != nil {
			return SettlementResult{}, err
		}
		// Inventory finalization runs on every delivery: the ops are
		// idempotent, and a crash between order and inventory writes on
		// a previous delivery must still converge.
		for _, it := range items {
			if err := s.Inv.MarkSold(it.ProductID); err != nil {
				return SettlementResult{}, err
			}
		}
		if changed && s.Fulfill != nil {
			s.Fulfill.AfterPaymentSucceeded(order, items)
		}
		return SettlementResult{OrderID: order.ID, OrderStatus: domain.OrderProcessing, PaymentStatus: domain.PaymentSucceeded}, nil

	case barion.StateFailed, barion.StateCanceled, barion.StateExpired:
		pstatus := map[string]string{
			barion.StateFailed:   domain.PaymentFailed,
			barion.StateCanceled: domain.PaymentCancelled,
			barion.StateExpired:  domain.PaymentExpired,
		}[state.Status]

		changed, err := s.Orders.Settle(order.ID, domain.OrderCancelled, pstatus, txn)
		if err != nil {
			return SettlementResult{}, err
		}
		// Release only on the first terminal transition. A re-delivered
		// failure callback lands after the item went back on sale, and a
		// new shopper may already hold it; stripping that hold would hand
		// the item to nobody. A crash between the order write and the
		// releases leaves holds the sweeper reclaims at TTL expiry.
		if changed {
			for _, it := range items {
				if err := s.Inv.ForceRelease(it.ProductID); err != nil {
					return SettlementResult{}, err
				}
			}
		}
		return SettlementResult{OrderID: order.ID, OrderStatus: domain.OrderCancelled, PaymentStatus: pstatus}, nil

	default:
		// Unrecognized state is "no decision yet", never success or
		// failure: no inventory mutation.
		applog.BgInfo("settlement.state.unknown", map[string]any{"order_id": order.ID, "state": state.Status})
		return s.progress(order, domain.PaymentPending, txn)
	}
}

func (s *SettlementService) progress(order repos.OrderRow, paymentStatus, txn string) (SettlementResult, error) {
	if err := s.Orders.SetPaymentProgress(order.ID, paymentStatus, txn); err != nil {
		return SettlementResult{}, err
	}
	return SettlementResult{OrderID: order.ID, OrderStatus: order.Status, PaymentStatus: paymentStatus}, nil
}
