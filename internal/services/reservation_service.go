package services

import (
	"time"

	"github.com/phentivokcs/vintagevibes/internal/domain"
	"github.com/phentivokcs/vintagevibes/internal/repos"
)

// Reasons a reservation-manager operation can be refused. These are
// expected business conditions, reported as structured outcomes rather
// than errors.
const (
	ReasonAlreadyReserved = "already_reserved"
	ReasonSold            = "sold"
	ReasonNotHeld         = "not_held"
)

type Outcome struct {
	OK     bool   `json:"success"`
	Reason string `json:"error,omitempty"`
}

// ReservationService is the reservation manager: atomic soft holds on
// one-of-a-kind items. First reservation wins; later attempts fail
// until the hold is released or expires. All decisions happen inside
// the repo's conditional updates, never as read-then-write.
type ReservationService struct {
	Inv        *repos.InventoryRepo
	DefaultTTL time.Duration
}

func NewReservationService(inv *repos.InventoryRepo, ttl time.Duration) *ReservationService {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &ReservationService{Inv: inv, DefaultTTL: ttl}
}

// Reserve places a hold for holder. Re-reserving by the same holder is
// idempotent and refreshes the deadline to now+ttl. ttl <= 0 uses the
// service default.
func (s *ReservationService) Reserve(productID, holder string, ttl time.Duration) (Outcome, error) {
	if ttl <= 0 {
		ttl = s.DefaultTTL
	}
	now := time.Now()
	won, err := s.Inv.Reserve(productID, holder, now.Add(ttl).UnixMilli(), now.UnixMilli())
	if err != nil {
		return Outcome{}, err
	}
	if won {
		return Outcome{OK: true}, nil
	}

	// Lost the row update: classify for the caller. The status read is
	// only informational; the UPDATE above already decided the race.
	status, err := s.Inv.Status(productID)
	if err != nil {
		return Outcome{}, err
	}
	if status == domain.InventorySold {
		return Outcome{OK: false, Reason: ReasonSold}, nil
	}
	return Outcome{OK: false, Reason: ReasonAlreadyReserved}, nil
}

// Release drops holder's hold. Releasing an item held by someone else
// (or not held at all) is a silent no-op: stale clients must never
// corrupt a newer holder's state.
func (s *ReservationService) Release(productID, holder string) error {
	return s.Inv.Release(productID, holder)
}

// CompletePurchase turns holder's hold into a sale. Already-sold items
// report success so synchronous checkout retries stay idempotent.
func (s *ReservationService) CompletePurchase(productID, holder string) (Outcome, error) {
	sold, err := s.Inv.CompletePurchase(productID, holder)
	if err != nil {
		return Outcome{}, err
	}
	if sold {
		return Outcome{OK: true}, nil
	}

	status, err := s.Inv.Status(productID)
	if err != nil {
		return Outcome{}, err
	}
	if status == domain.InventorySold {
		return Outcome{OK: true}, nil
	}
	return Outcome{OK: false, Reason: ReasonNotHeld}, nil
}

// SweepExpired releases every expired hold and reports how many were
// reclaimed.
func (s *ReservationService) SweepExpired() (int64, error) {
	return s.Inv.SweepExpired(time.Now().UnixMilli())
}
