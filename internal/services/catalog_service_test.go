package services_test

import (
	"testing"

	"github.com/jmoiron/sqlx"

	"github.com/phentivokcs/vintagevibes/internal/repos"
	"github.com/phentivokcs/vintagevibes/internal/services"
)

func seedCatalogItem(t *testing.T, db *sqlx.DB, id, gender, category string) {
	t.Helper()
	_, err := db.Exec(`INSERT INTO products(id,name,price,gender,category) VALUES(?,?,?,?,?)`,
		id, "Test "+id, 15000, gender, category)
	if err != nil {
		t.Fatal(err)
	}
}

func TestCatalogListFiltersIndependently(t *testing.T) {
	db := memdb(t)
	seedCatalogItem(t, db, "itm-w-jacket", "women", "jackets")
	seedCatalogItem(t, db, "itm-m-jacket", "men", "jackets")
	seedCatalogItem(t, db, "itm-w-dress", "women", "dresses")
	svc := services.NewCatalogService(repos.NewProductRepo(db), repos.NewInventoryRepo(db))

	ids := func(gender, category string) map[string]bool {
		t.Helper()
		got, err := svc.List(gender, category, 0, 0)
		if err != nil {
			t.Fatal(err)
		}
		set := map[string]bool{}
		for _, p := range got {
			set[p.ID] = true
		}
		return set
	}

	if got := ids("women", ""); len(got) != 2 || !got["itm-w-jacket"] || !got["itm-w-dress"] {
		t.Fatalf("gender-only filter returned %v", got)
	}
	if got := ids("", "jackets"); len(got) != 2 || !got["itm-w-jacket"] || !got["itm-m-jacket"] {
		t.Fatalf("category-only filter returned %v", got)
	}
	if got := ids("women", "jackets"); len(got) != 1 || !got["itm-w-jacket"] {
		t.Fatalf("combined filter returned %v", got)
	}
	if got := ids("", ""); len(got) != 3 {
		t.Fatalf("unfiltered list returned %v", got)
	}
}
