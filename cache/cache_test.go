package cache

import (
	"testing"
	"time"

	"github.com/SatishMiral/chrome-extension-backend/models"
)

func newTestCache(t *testing.T, maxEntries int) (*Cache, *time.Time) {
	t.Helper()
	c := New(maxEntries)
	t.Cleanup(c.Close)

	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	return c, &now
}

func TestKey_DistinguishesInputs(t *testing.T) {
	base := Key(models.FlipkartToAmazon, "https://www.flipkart.com/p/1", models.ModeSingle, false)

	others := []string{
		Key(models.AmazonToFlipkart, "https://www.flipkart.com/p/1", models.ModeSingle, false),
		Key(models.FlipkartToAmazon, "https://www.flipkart.com/p/2", models.ModeSingle, false),
		Key(models.FlipkartToAmazon, "https://www.flipkart.com/p/1", models.ModeAll, false),
		Key(models.FlipkartToAmazon, "https://www.flipkart.com/p/1", models.ModeSingle, true),
	}
	for i, k := range others {
		if k == base {
			t.Errorf("key %d collides with base key", i)
		}
	}
	if again := Key(models.FlipkartToAmazon, "https://www.flipkart.com/p/1", models.ModeSingle, false); again != base {
		t.Error("key should be deterministic")
	}
}

func TestGetSet_MaxAge(t *testing.T) {
	c, now := newTestCache(t, 10)
	res := &models.ExtractionResult{Website: "flipkart"}
	c.Set("k", res)

	if _, hit := c.Get("k", 0); hit {
		t.Error("maxAge 0 should always miss")
	}
	if got, hit := c.Get("k", 1000); !hit || got != res {
		t.Error("fresh entry should hit")
	}

	*now = now.Add(2 * time.Second)
	if _, hit := c.Get("k", 1000); hit {
		t.Error("entry older than maxAge should miss")
	}
	if _, hit := c.Get("k", 5000); !hit {
		t.Error("entry younger than maxAge should hit")
	}
	if _, hit := c.Get("missing", 5000); hit {
		t.Error("unknown key should miss")
	}
}

func TestSet_EvictsAtCapacity(t *testing.T) {
	c, _ := newTestCache(t, 2)
	c.Set("a", &models.ExtractionResult{})
	c.Set("b", &models.ExtractionResult{})
	c.Set("b", &models.ExtractionResult{}) // overwrite does not evict
	if c.Len() != 2 {
		t.Fatalf("len = %d, want 2", c.Len())
	}

	c.Set("c", &models.ExtractionResult{})
	if c.Len() != 2 {
		t.Errorf("len = %d after insert at capacity, want 2", c.Len())
	}
	if _, hit := c.Get("c", 1000); !hit {
		t.Error("newest entry should be present")
	}
}

func TestSweep_DropsOldEntries(t *testing.T) {
	c, now := newTestCache(t, 10)
	c.Set("old", &models.ExtractionResult{})
	*now = now.Add(90 * time.Minute)
	c.Set("new", &models.ExtractionResult{})

	c.sweep()

	if c.Len() != 1 {
		t.Fatalf("len = %d, want 1", c.Len())
	}
	if _, hit := c.Get("new", 1000); !hit {
		t.Error("recent entry should survive the sweep")
	}
}
