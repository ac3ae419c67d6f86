package repositories

import (
	"database/sql"
	"testing"
	"time"

	"github.com/desertthunder/trackdeck/internal/shared"
)

// setupTestCache creates a FetchCache over an in-memory SQLite database
func setupTestCache(t *testing.T) (*FetchCache, *sql.DB) {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	cache, err := NewFetchCache(db)
	if err != nil {
		t.Fatalf("failed to create fetch cache: %v", err)
	}

	return cache, db
}

func TestFetchCache(t *testing.T) {
	t.Run("miss returns nil without error", func(t *testing.T) {
		cache, _ := setupTestCache(t)

		page, err := cache.Get("4uLU6hMCjMI75M1A2tKUQC")
		if err != nil {
			t.Fatalf("get failed: %v", err)
		}
		if page != nil {
			t.Errorf("expected a miss, got %+v", page)
		}
	})

	t.Run("put then get", func(t *testing.T) {
		cache, _ := setupTestCache(t)

		url := "https://open.spotify.com/track/4uLU6hMCjMI75M1A2tKUQC"
		if err := cache.Put("4uLU6hMCjMI75M1A2tKUQC", url, "<html>payload</html>"); err != nil {
			t.Fatalf("put failed: %v", err)
		}

		page, err := cache.Get("4uLU6hMCjMI75M1A2tKUQC")
		if err != nil {
			t.Fatalf("get failed: %v", err)
		}
		if page == nil {
			t.Fatal("expected a cached page")
		}
		if page.URL != url {
			t.Errorf("url = %s, want %s", page.URL, url)
		}
		if page.Body != "<html>payload</html>" {
			t.Errorf("body = %q", page.Body)
		}
		if time.Since(page.FetchedAt) > time.Minute {
			t.Errorf("fetched_at %v should be recent", page.FetchedAt)
		}
	})

	t.Run("put replaces previous payload", func(t *testing.T) {
		cache, _ := setupTestCache(t)

		if err := cache.Put("id", "url", "first"); err != nil {
			t.Fatalf("put failed: %v", err)
		}
		if err := cache.Put("id", "url", "second"); err != nil {
			t.Fatalf("put failed: %v", err)
		}

		page, err := cache.Get("id")
		if err != nil {
			t.Fatalf("get failed: %v", err)
		}
		if page.Body != "second" {
			t.Errorf("body = %q, want the replacement", page.Body)
		}

		n, err := cache.Len()
		if err != nil {
			t.Fatalf("len failed: %v", err)
		}
		if n != 1 {
			t.Errorf("len = %d, want 1", n)
		}
	})

	t.Run("delete evicts the page", func(t *testing.T) {
		cache, _ := setupTestCache(t)

		if err := cache.Put("id", "url", "payload"); err != nil {
			t.Fatalf("put failed: %v", err)
		}
		if err := cache.Delete("id"); err != nil {
			t.Fatalf("delete failed: %v", err)
		}

		page, err := cache.Get("id")
		if err != nil {
			t.Fatalf("get failed: %v", err)
		}
		if page != nil {
			t.Error("page should be gone after delete")
		}
	})

	t.Run("delete of a missing page is a no-op", func(t *testing.T) {
		cache, _ := setupTestCache(t)

		if err := cache.Delete("never-cached"); err != nil {
			t.Errorf("delete failed: %v", err)
		}
	})
}
