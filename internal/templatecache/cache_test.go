package templatecache

import (
	"testing"

	"github.com/ignite/fleetwatch/internal/domain"
)

func TestCache_MissThenHit(t *testing.T) {
	c := New()

	if _, ok := c.Get("fp1"); ok {
		t.Fatal("expected miss on empty cache")
	}

	cl := domain.Classification{Category: "weekly_pay", Source: domain.SourceRules, Confidence: 0.9}
	c.Put("fp1", cl)

	got, ok := c.Get("fp1")
	if !ok {
		t.Fatal("expected hit after Put")
	}
	if got.Source != domain.SourceRulesDedup {
		t.Errorf("expected dedup-suffixed source, got %q", got.Source)
	}
	if got.Category != "weekly_pay" {
		t.Errorf("expected category to survive dedup, got %q", got.Category)
	}

	stats := c.Stats()
	if stats.Hits != 1 || stats.Misses != 1 || stats.Size != 1 {
		t.Errorf("unexpected stats: %+v", stats)
	}
}

func TestCache_PutDoesNotOverwrite(t *testing.T) {
	c := New()
	c.Put("fp1", domain.Classification{Category: "first", Source: domain.SourceRules})
	c.Put("fp1", domain.Classification{Category: "second", Source: domain.SourceAI})

	got, _ := c.Get("fp1")
	if got.Category != "first" {
		t.Errorf("expected first write to win, got %q", got.Category)
	}
}

func TestCache_RepeatedHitsDoNotDoubleSuffix(t *testing.T) {
	c := New()
	c.Put("fp1", domain.Classification{Source: domain.SourceAI})

	first, _ := c.Get("fp1")
	second, _ := c.Get("fp1")

	if first.Source != domain.SourceAIDedup || second.Source != domain.SourceAIDedup {
		t.Errorf("expected stable ai_dedup source across repeated hits, got %q then %q", first.Source, second.Source)
	}
}
