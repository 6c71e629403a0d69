package repos_test

import (
	"testing"

	"shoplite/internal/repos"
)

func TestBoughtTogetherRanking(t *testing.T) {
	db, err := repos.OpenDB(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	repo := repos.NewOrderRepo(db)

	// seed: p-ao-thun shares one order with p-sneaker and one with p-tote.
	// add one more shared order with p-tote so it outranks p-sneaker.
	db.MustExec(`INSERT INTO orders(id) VALUES ('o-extra')`)
	db.MustExec(`INSERT INTO order_items(order_id,product_id,qty) VALUES
	  ('o-extra','p-ao-thun',1), ('o-extra','p-tote',1)`)

	rows, err := repo.BoughtTogether("p-ao-thun", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("want 2 co-occurring items, got %d", len(rows))
	}
	if rows[0].ID != "p-tote" || rows[1].ID != "p-sneaker" {
		t.Fatalf("ranking wrong: %s then %s", rows[0].ID, rows[1].ID)
	}
}

func TestBoughtTogetherTieBreakByID(t *testing.T) {
	db, err := repos.OpenDB(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })

	// both co-occur exactly once: order by id breaks the tie
	rows, err := repos.NewOrderRepo(db).BoughtTogether("p-ao-thun", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 || rows[0].ID != "p-sneaker" || rows[1].ID != "p-tote" {
		t.Fatalf("tie-break wrong: %+v", rows)
	}
}
