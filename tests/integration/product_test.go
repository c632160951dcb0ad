//go:build integration

package integration

import (
	"net/http"
	"testing"
)

func TestListProducts(t *testing.T) {
	resp := doGet(t, "/api/products")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	products := decodeJSON[[]productResponse](t, resp)
	if len(products) != 6 {
		t.Fatalf("expected 6 products, got %d", len(products))
	}
}

func TestListProducts_Fields(t *testing.T) {
	resp := doGet(t, "/api/products")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	products := decodeJSON[[]productResponse](t, resp)

	var burger *productResponse
	for i := range products {
		if products[i].ID == "x-burger" {
			burger = &products[i]
			break
		}
	}

	if burger == nil {
		t.Fatal("product x-burger not found")
	}
	if burger.Name != "X-Burger" {
		t.Errorf("name: got %q, want %q", burger.Name, "X-Burger")
	}
	if burger.Price != 18.0 {
		t.Errorf("price: got %v, want 18.0", burger.Price)
	}
	if burger.Category != "Lanches" {
		t.Errorf("category: got %q, want %q", burger.Category, "Lanches")
	}
	if !burger.Available {
		t.Error("x-burger should be available")
	}
	if len(burger.Options) != 2 {
		t.Fatalf("options: got %d, want 2", len(burger.Options))
	}
}

func TestListProducts_PromoPrice(t *testing.T) {
	resp := doGet(t, "/api/products")
	defer resp.Body.Close()

	products := decodeJSON[[]productResponse](t, resp)

	for _, p := range products {
		if p.ID != "x-bacon" {
			continue
		}
		if p.Price != 19.9 {
			t.Errorf("effective price: got %v, want 19.9", p.Price)
		}
		if p.BasePrice != 22.0 {
			t.Errorf("base price: got %v, want 22.0", p.BasePrice)
		}
		return
	}
	t.Fatal("product x-bacon not found")
}

// x-picanha uses a paused ingredient, so the menu must flag it unavailable.
func TestListProducts_PausedIngredient(t *testing.T) {
	resp := doGet(t, "/api/products")
	defer resp.Body.Close()

	products := decodeJSON[[]productResponse](t, resp)

	for _, p := range products {
		if p.ID == "x-picanha" {
			if p.Available {
				t.Error("x-picanha should be unavailable")
			}
			return
		}
	}
	t.Fatal("product x-picanha not found")
}
