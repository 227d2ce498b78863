package scope

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestNormalizeBreadcrumbDefaults(t *testing.T) {
	got := NormalizeBreadcrumb(Breadcrumb{Category: " http ", Message: " GET / "})

	if got.Category != "http" || got.Message != "GET /" {
		t.Fatalf("expected trimmed fields, got %+v", got)
	}
	if got.Level != LevelInfo {
		t.Fatalf("expected default level info, got %q", got.Level)
	}
	if got.EventID == uuid.Nil {
		t.Fatalf("expected event id assigned")
	}
	if got.Timestamp.IsZero() {
		t.Fatalf("expected timestamp assigned")
	}
}

func TestNormalizeBreadcrumbPreservesExplicitFields(t *testing.T) {
	id := uuid.New()
	ts := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	got := NormalizeBreadcrumb(Breadcrumb{
		EventID:   id,
		Level:     LevelError,
		Timestamp: ts,
	})

	if got.EventID != id || got.Level != LevelError || got.Timestamp != ts {
		t.Fatalf("expected explicit fields preserved, got %+v", got)
	}
}

func TestNormalizeBreadcrumbClonesData(t *testing.T) {
	data := map[string]any{"status": 200}
	got := NormalizeBreadcrumb(Breadcrumb{Message: "req", Data: data})

	data["status"] = 500
	if got.Data["status"] != 200 {
		t.Fatalf("expected data cloned, got %v", got.Data)
	}
}
