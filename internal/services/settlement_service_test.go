package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/phentivokcs/vintagevibes/internal/barion"
	"github.com/phentivokcs/vintagevibes/internal/domain"
	"github.com/phentivokcs/vintagevibes/internal/repos"
	"github.com/phentivokcs/vintagevibes/internal/services"
)

type settleEnv struct {
	db       *sqlx.DB
	gw       *fakeGateway
	orders   *repos.OrderRepo
	mailer   *countingMailer
	invoicer *countingInvoicer
	settle   *services.SettlementService
}

func newSettleEnv(t *testing.T) *settleEnv {
	t.Helper()
	db := memdb(t)
	gw := &fakeGateway{}
	orders := repos.NewOrderRepo(db)
	mailer := &countingMailer{}
	invoicer := &countingInvoicer{}
	fulfill := &services.FulfillmentService{
		Orders:            orders,
		Mailer:            mailer,
		Invoicer:          invoicer,
		SideEffectTimeout: time.Second,
	}
	return &settleEnv{
		db:       db,
		gw:       gw,
		orders:   orders,
		mailer:   mailer,
		invoicer: invoicer,
		settle: &services.SettlementService{
			Orders:  orders,
			Inv:     repos.NewInventoryRepo(db),
			Gateway: gw,
			Fulfill: fulfill,
		},
	}
}

// placeOnlineOrder runs a real online checkout so the order sits in the
// same state a live callback would find it in: prepared, with the
// inventory on hold.
func (e *settleEnv) placeOnlineOrder(t *testing.T, ids ...string) (orderID, paymentID string) {
	t.Helper()
	for _, id := range ids {
		seedProduct(t, e.db, id, 15000)
	}
	svc := newCheckoutSvc(e.db, e.gw)
	res, err := svc.Checkout(context.Background(), checkoutInput(domain.MethodBarion, ids...))
	if err != nil {
		t.Fatal(err)
	}
	return res.OrderID, res.PaymentID
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestSettleSucceededIsIdempotent(t *testing.T) {
	env := newSettleEnv(t)
	orderID, paymentID := env.placeOnlineOrder(t, "itm-1")
	env.gw.setState(barion.StateSucceeded)

	for i := 0; i < 2; i++ {
		res, err := env.settle.Settle(context.Background(), paymentID)
		if err != nil {
			t.Fatalf("delivery %d: %v", i, err)
		}
		if res.PaymentStatus != domain.PaymentSucceeded || res.OrderID != orderID {
			t.Fatalf("delivery %d: unexpected result %+v", i, res)
		}
	}

	order, err := env.orders.Get(orderID)
	if err != nil {
		t.Fatal(err)
	}
	if order.Status != domain.OrderProcessing || order.PaymentStatus != domain.PaymentSucceeded {
		t.Fatalf("unexpected order %+v", order)
	}
	if order.TransactionID != "txn-1" {
		t.Fatalf("transaction id not recorded: %+v", order)
	}
	if st := productState(t, env.db, "itm-1"); st.Status != domain.InventorySold {
		t.Fatalf("want sold, got %+v", st)
	}

	// One-shot side effects fire on the first terminal transition only.
	waitFor(t, "confirmation email", func() bool { return env.mailer.sends.Load() >= 1 })
	waitFor(t, "invoice", func() bool { return env.invoicer.calls.Load() >= 1 })
	time.Sleep(50 * time.Millisecond)
	if n := env.mailer.sends.Load(); n != 1 {
		t.Fatalf("want 1 email, got %d", n)
	}
	if n := env.invoicer.calls.Load(); n != 1 {
		t.Fatalf("want 1 invoice, got %d", n)
	}

	// The async invoice result lands back on the order.
	waitFor(t, "invoice number on order", func() bool {
		o, err := env.orders.Get(orderID)
		return err == nil && o.InvoiceNumber == "INV-2026-0001"
	})
}

func TestSettleFailureReleasesInventory(t *testing.T) {
	env := newSettleEnv(t)
	orderID, paymentID := env.placeOnlineOrder(t, "itm-1")
	env.gw.setState(barion.StateFailed)

	res, err := env.settle.Settle(context.Background(), paymentID)
	if err != nil {
		t.Fatal(err)
	}
	if res.OrderStatus != domain.OrderCancelled || res.PaymentStatus != domain.PaymentFailed {
		t.Fatalf("unexpected result %+v", res)
	}

	order, _ := env.orders.Get(orderID)
	if order.Status != domain.OrderCancelled || order.PaymentStatus != domain.PaymentFailed {
		t.Fatalf("unexpected order %+v", order)
	}
	if st := productState(t, env.db, "itm-1"); st.Status != domain.InventoryAvailable {
		t.Fatalf("failed payment must free the item: %+v", st)
	}
	// Dead orders get no confirmation email or invoice.
	time.Sleep(50 * time.Millisecond)
	if env.mailer.sends.Load() != 0 || env.invoicer.calls.Load() != 0 {
		t.Fatal("side effects must not fire for a failed payment")
	}
}

func TestRedeliveredFailureKeepsNewHold(t *testing.T) {
	env := newSettleEnv(t)
	_, paymentID := env.placeOnlineOrder(t, "itm-1")
	env.gw.setState(barion.StateFailed)
	if _, err := env.settle.Settle(context.Background(), paymentID); err != nil {
		t.Fatal(err)
	}

	// The item went back on sale and another shopper grabbed it.
	out, err := newResSvc(env.db).Reserve("itm-1", "sess-next-shopper", 0)
	if err != nil || !out.OK {
		t.Fatalf("re-reserve after release failed: %+v %v", out, err)
	}

	// Barion re-delivers the same callback. The order is already
	// terminal, so the new hold must survive.
	if _, err := env.settle.Settle(context.Background(), paymentID); err != nil {
		t.Fatal(err)
	}
	st := productState(t, env.db, "itm-1")
	if st.Status != domain.InventoryReserved || st.ReservedBy != "sess-next-shopper" {
		t.Fatalf("redelivered callback disturbed the new hold: %+v", st)
	}
}

func TestSettleExpiredCancelsOrder(t *testing.T) {
	env := newSettleEnv(t)
	orderID, paymentID := env.placeOnlineOrder(t, "itm-1")
	env.gw.setState(barion.StateExpired)

	if _, err := env.settle.Settle(context.Background(), paymentID); err != nil {
		t.Fatal(err)
	}
	order, _ := env.orders.Get(orderID)
	if order.PaymentStatus != domain.PaymentExpired || order.Status != domain.OrderCancelled {
		t.Fatalf("unexpected order %+v", order)
	}
	if st := productState(t, env.db, "itm-1"); st.Status != domain.InventoryAvailable {
		t.Fatalf("want available, got %+v", st)
	}
}

func TestSettleNonTerminalStateOnlyProgresses(t *testing.T) {
	env := newSettleEnv(t)
	orderID, paymentID := env.placeOnlineOrder(t, "itm-1")
	env.gw.setState(barion.StateStarted)

	res, err := env.settle.Settle(context.Background(), paymentID)
	if err != nil {
		t.Fatal(err)
	}
	if res.PaymentStatus != domain.PaymentStarted {
		t.Fatalf("unexpected result %+v", res)
	}
	order, _ := env.orders.Get(orderID)
	if order.PaymentStatus != domain.PaymentStarted || order.Status != domain.OrderProcessing {
		t.Fatalf("unexpected order %+v", order)
	}
	if st := productState(t, env.db, "itm-1"); st.Status != domain.InventoryReserved {
		t.Fatalf("non-terminal state must leave the hold: %+v", st)
	}
}

func TestSettleUnknownStateMutatesNothing(t *testing.T) {
	env := newSettleEnv(t)
	orderID, paymentID := env.placeOnlineOrder(t, "itm-1")
	env.gw.setState("Reserved") // not in the known state set

	if _, err := env.settle.Settle(context.Background(), paymentID); err != nil {
		t.Fatal(err)
	}
	order, _ := env.orders.Get(orderID)
	if order.Status != domain.OrderProcessing {
		t.Fatalf("unknown state must not settle the order: %+v", order)
	}
	if st := productState(t, env.db, "itm-1"); st.Status != domain.InventoryReserved {
		t.Fatalf("unknown state must not touch inventory: %+v", st)
	}
}

func TestSettleGatewayErrorLeavesEverything(t *testing.T) {
	env := newSettleEnv(t)
	orderID, paymentID := env.placeOnlineOrder(t, "itm-1")
	env.gw.stateErr = errors.New("gateway timeout")

	if _, err := env.settle.Settle(context.Background(), paymentID); err == nil {
		t.Fatal("want error when the state query fails")
	}
	order, _ := env.orders.Get(orderID)
	if order.PaymentStatus != domain.PaymentPrepared {
		t.Fatalf("payment status must be untouched: %+v", order)
	}
	if st := productState(t, env.db, "itm-1"); st.Status != domain.InventoryReserved {
		t.Fatalf("inventory must be untouched: %+v", st)
	}
}

func TestLateCallbackCannotRegressSettledOrder(t *testing.T) {
	env := newSettleEnv(t)
	orderID, paymentID := env.placeOnlineOrder(t, "itm-1")

	env.gw.setState(barion.StateSucceeded)
	if _, err := env.settle.Settle(context.Background(), paymentID); err != nil {
		t.Fatal(err)
	}

	// A delayed out-of-order delivery claims the payment just Started.
	env.gw.setState(barion.StateStarted)
	if _, err := env.settle.Settle(context.Background(), paymentID); err != nil {
		t.Fatal(err)
	}

	order, _ := env.orders.Get(orderID)
	if order.PaymentStatus != domain.PaymentSucceeded {
		t.Fatalf("terminal payment state regressed: %+v", order)
	}
	if st := productState(t, env.db, "itm-1"); st.Status != domain.InventorySold {
		t.Fatalf("sale regressed: %+v", st)
	}
}
