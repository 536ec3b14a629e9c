package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/phentivokcs/vintagevibes/internal/domain"
	"github.com/phentivokcs/vintagevibes/internal/repos"
	"github.com/phentivokcs/vintagevibes/internal/services"
)

func TestSweeperReclaimsInBackground(t *testing.T) {
	db := memdb(t)
	seedProduct(t, db, "itm-1", 15000)
	res := services.NewReservationService(repos.NewInventoryRepo(db), time.Minute)

	if out, _ := res.Reserve("itm-1", "sess-alpha-001", time.Millisecond); !out.OK {
		t.Fatal("reserve failed")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go services.NewSweeper(res, 10*time.Millisecond).Run(ctx)

	waitFor(t, "sweeper to reclaim the hold", func() bool {
		return productState(t, db, "itm-1").Status == domain.InventoryAvailable
	})
}

func TestSweeperStopsOnCancel(t *testing.T) {
	db := memdb(t)
	res := services.NewReservationService(repos.NewInventoryRepo(db), time.Minute)
	s := services.NewSweeper(res, 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop on cancel")
	}
}
