package scope

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Value is an arbitrary structured payload stored under an extra key.
type Value = any

// Level grades breadcrumb severity.
type Level string

const (
	LevelDebug   Level = "debug"
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Breadcrumb records one contextual step leading up to an event. The engine
// treats it as an opaque payload; only the breadcrumb filter and the bound
// client ever look inside.
type Breadcrumb struct {
	EventID   uuid.UUID
	Type      string
	Category  string
	Message   string
	Level     Level
	Data      map[string]any
	Timestamp time.Time
}

// NormalizeBreadcrumb trims identifying fields, clones Data, and fills the
// event id and timestamp when absent.
func NormalizeBreadcrumb(crumb Breadcrumb) Breadcrumb {
	normalized := crumb
	normalized.Type = strings.TrimSpace(crumb.Type)
	normalized.Category = strings.TrimSpace(crumb.Category)
	normalized.Message = strings.TrimSpace(crumb.Message)
	normalized.Data = cloneMap(crumb.Data)
	if normalized.Level == "" {
		normalized.Level = LevelInfo
	}
	if normalized.EventID == uuid.Nil {
		normalized.EventID = uuid.New()
	}
	if normalized.Timestamp.IsZero() {
		normalized.Timestamp = time.Now()
	}
	return normalized
}

// User identifies the person associated with the current scope. Layers share
// one User value after a push; SetUser replaces it wholesale, never merges.
type User struct {
	ID        string
	Username  string
	Email     string
	IPAddress string
}

func cloneMap(src map[string]any) map[string]any {
	if len(src) == 0 {
		return nil
	}
	dst := make(map[string]any, len(src))
	for key, value := range src {
		dst[key] = value
	}
	return dst
}
