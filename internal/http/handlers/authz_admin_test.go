package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/phentivokcs/vintagevibes/internal/http/handlers"
	"github.com/phentivokcs/vintagevibes/internal/repos"
	"github.com/phentivokcs/vintagevibes/internal/services"
)

func newAdminApp(t *testing.T) (*fiber.App, *repos.UserRepo) {
	t.Helper()
	db := newTestDB(t)
	userRepo := repos.NewUserRepo(db)
	authSvc := &services.AuthService{Users: userRepo}

	// A second, non-admin account next to the seeded admin.
	if _, err := db.Exec(`
		INSERT INTO users(id,email,name,password_hash,role)
		VALUES('u-alice','alice@vintagevibes.hu','Alice','x','USER')`); err != nil {
		t.Fatal(err)
	}

	admin := fiber.New()
	grp := admin.Group("/admin", handlers.RequireAdmin(authSvc))
	grp.Get("/orders", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"orders": []string{}}) })
	return admin, userRepo
}

func TestAdminGuard(t *testing.T) {
	app, userRepo := newAdminApp(t)

	// Anonymous
	resp, err := app.Test(httptest.NewRequest("GET", "/admin/orders", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("anonymous: want 401, got %d", resp.StatusCode)
	}

	// Logged-in non-admin
	if err := userRepo.BindSession("sid-user-000001", "u-alice"); err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest("GET", "/admin/orders", nil)
	req.AddCookie(&http.Cookie{Name: "sid", Value: "sid-user-000001"})
	resp, err = app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("non-admin: want 403, got %d", resp.StatusCode)
	}

	// Admin (seeded at startup)
	if err := userRepo.BindSession("sid-admin-00001", "u-admin"); err != nil {
		t.Fatal(err)
	}
	req = httptest.NewRequest("GET", "/admin/orders", nil)
	req.AddCookie(&http.Cookie{Name: "sid", Value: "sid-admin-00001"})
	resp, err = app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("admin: want 200, got %d", resp.StatusCode)
	}
}

func TestAdminGuardUnknownSession(t *testing.T) {
	app, _ := newAdminApp(t)

	req := httptest.NewRequest("GET", "/admin/orders", nil)
	req.AddCookie(&http.Cookie{Name: "sid", Value: "sid-never-bound"})
	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("unknown session: want 403, got %d", resp.StatusCode)
	}
}
