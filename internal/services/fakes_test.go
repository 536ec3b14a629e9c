package services_test

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"

	"github.com/phentivokcs/vintagevibes/internal/barion"
	"github.com/phentivokcs/vintagevibes/internal/billingo"
	"github.com/phentivokcs/vintagevibes/internal/packeta"
)

// fakeGateway stands in for the payment provider in checkout and
// settlement tests.
type fakeGateway struct {
	mu         sync.Mutex
	startCalls int
	startErr   error
	onStart    func(req barion.StartRequest)

	state    barion.PaymentState
	stateErr error
}

func (g *fakeGateway) StartPayment(_ context.Context, req barion.StartRequest) (barion.StartResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.startCalls++
	if g.onStart != nil {
		g.onStart(req)
	}
	if g.startErr != nil {
		return barion.StartResult{}, g.startErr
	}
	return barion.StartResult{
		PaymentID:  "pay-" + req.PaymentRequestID,
		GatewayURL: "https://secure.test.barion.com/Pay?Id=pay-" + req.PaymentRequestID,
	}, nil
}

func (g *fakeGateway) GetPaymentState(_ context.Context, paymentID string) (barion.PaymentState, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.stateErr != nil {
		return barion.PaymentState{}, g.stateErr
	}
	st := g.state
	st.PaymentID = paymentID
	return st, nil
}

func (g *fakeGateway) setState(status string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.state = barion.PaymentState{
		Status:       status,
		Transactions: []barion.StateTransaction{{TransactionID: "txn-1"}},
	}
}

type countingMailer struct{ sends atomic.Int32 }

func (m *countingMailer) Send(context.Context, string, string, string) error {
	m.sends.Add(1)
	return nil
}

type countingInvoicer struct{ calls atomic.Int32 }

func (v *countingInvoicer) CreateInvoice(context.Context, billingo.Partner, []billingo.Item, string, string) (billingo.Document, error) {
	v.calls.Add(1)
	return billingo.Document{
		ID:            json.Number("4242"),
		InvoiceNumber: "INV-2026-0001",
		PublicURL:     "https://billingo.test/doc/4242",
	}, nil
}

type fakeLabels struct {
	calls atomic.Int32

	mu   sync.Mutex
	last packeta.Packet
}

func (l *fakeLabels) CreateShipment(_ context.Context, p packeta.Packet) (packeta.Shipment, error) {
	l.calls.Add(1)
	l.mu.Lock()
	l.last = p
	l.mu.Unlock()
	return packeta.Shipment{
		PacketID:    "Z123456789",
		Barcode:     "*Z123456789*",
		TrackingURL: "https://tracking.packeta.com/hu/?id=Z123456789",
		LabelURL:    "https://labels.packeta.test/Z123456789.pdf",
	}, nil
}
