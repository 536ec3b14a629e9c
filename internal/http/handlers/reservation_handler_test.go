package handlers_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // pure-Go SQLite driver

	"github.com/phentivokcs/vintagevibes/internal/http/handlers"
	"github.com/phentivokcs/vintagevibes/internal/repos"
	"github.com/phentivokcs/vintagevibes/internal/services"
)

func newTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := repos.OpenDB(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func seedProduct(t *testing.T, db *sqlx.DB, id string, price int64) {
	t.Helper()
	if _, err := db.Exec(`INSERT INTO products(id,name,price) VALUES(?,?,?)`, id, "Test "+id, price); err != nil {
		t.Fatal(err)
	}
}

func jsonReq(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeBody(t *testing.T, resp *http.Response, into any) {
	t.Helper()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal(raw, into); err != nil {
		t.Fatalf("bad JSON %q: %v", raw, err)
	}
}

func newReservationApp(t *testing.T) (*fiber.App, *sqlx.DB) {
	t.Helper()
	db := newTestDB(t)
	h := &handlers.ReservationHandler{Res: services.NewReservationService(repos.NewInventoryRepo(db), 0)}

	app := fiber.New()
	app.Post("/api/v1/reservations", h.Reserve)
	app.Delete("/api/v1/reservations", h.Release)
	app.Post("/api/v1/reservations/sweep", h.Sweep)
	return app, db
}

func TestReserveEndpointConflict(t *testing.T) {
	app, db := newReservationApp(t)
	seedProduct(t, db, "itm-1", 15000)

	resp, err := app.Test(jsonReq("POST", "/api/v1/reservations",
		`{"productId":"itm-1","sessionId":"sess-alpha-001"}`))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("first reserve: want 200, got %d", resp.StatusCode)
	}
	var out services.Outcome
	decodeBody(t, resp, &out)
	if !out.OK {
		t.Fatalf("want success, got %+v", out)
	}

	resp, err = app.Test(jsonReq("POST", "/api/v1/reservations",
		`{"productId":"itm-1","sessionId":"sess-bravo-002"}`))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("contended reserve: want 409, got %d", resp.StatusCode)
	}
	decodeBody(t, resp, &out)
	if out.OK || out.Reason != services.ReasonAlreadyReserved {
		t.Fatalf("want already_reserved, got %+v", out)
	}
}

func TestReserveEndpointUnknownProductIs404(t *testing.T) {
	app, _ := newReservationApp(t)

	resp, err := app.Test(jsonReq("POST", "/api/v1/reservations",
		`{"productId":"itm-nope","sessionId":"sess-alpha-001"}`))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown product: want 404, got %d", resp.StatusCode)
	}
}

func TestReserveEndpointRejectsBadInput(t *testing.T) {
	app, _ := newReservationApp(t)

	cases := []string{
		`{"productId":"","sessionId":"sess-alpha-001"}`,
		`{"productId":"itm-1","sessionId":"short"}`,
		`{"productId":"itm-1; DROP TABLE products","sessionId":"sess-alpha-001"}`,
		`not json at all`,
	}
	for _, body := range cases {
		resp, err := app.Test(jsonReq("POST", "/api/v1/reservations", body))
		if err != nil {
			t.Fatal(err)
		}
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("body %q: want 400, got %d", body, resp.StatusCode)
		}
	}
}

func TestReleaseEndpointIsForgiving(t *testing.T) {
	app, db := newReservationApp(t)
	seedProduct(t, db, "itm-1", 15000)

	// Releasing a hold that does not exist still answers 200.
	resp, err := app.Test(jsonReq("DELETE", "/api/v1/reservations",
		`{"productId":"itm-1","sessionId":"sess-alpha-001"}`))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("want 200, got %d", resp.StatusCode)
	}
}

func TestSweepEndpointReportsCount(t *testing.T) {
	app, db := newReservationApp(t)
	seedProduct(t, db, "itm-1", 15000)

	// An already-expired hold, planted directly.
	if _, err := db.Exec(`
		UPDATE products SET inventory_status='reserved', reserved_by='sess-old-000001', reserved_until=1
		WHERE id='itm-1'`); err != nil {
		t.Fatal(err)
	}

	resp, err := app.Test(jsonReq("POST", "/api/v1/reservations/sweep", ``))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("want 200, got %d", resp.StatusCode)
	}
	var out struct {
		Released int64 `json:"released"`
	}
	decodeBody(t, resp, &out)
	if out.Released != 1 {
		t.Fatalf("want 1 released, got %d", out.Released)
	}
}
