package scope

import (
	"fmt"

	"github.com/benbjohnson/immutable"
)

// Scope holds the contextual data attached to the current layer: recorded
// breadcrumbs, the active user, and the tags/extra mappings. All four fields
// live in persistent containers, so cloning a Scope is a struct copy and
// mutations on a clone share unmodified substructure with the original
// instead of touching it.
//
// A Scope is modified through the setters below but never inspected by
// application code; the read accessors exist for the bound client when it
// assembles an outgoing event. The zero value is an empty scope.
type Scope struct {
	breadcrumbs *immutable.List[Breadcrumb]
	user        *User
	extra       *immutable.Map[string, Value]
	tags        *immutable.Map[string, string]
}

// Clone returns an independent copy of the scope. The copy shares all
// container structure with the receiver until one of them is mutated.
func (s Scope) Clone() Scope {
	return s
}

// Clear resets the scope to its empty state: no breadcrumbs, no user, empty
// tags and extra. The parent layer's scope is unaffected.
func (s *Scope) Clear() {
	*s = Scope{}
}

// SetUser replaces the scope's user wholesale. Passing nil removes it.
func (s *Scope) SetUser(user *User) {
	s.user = user
}

// SetTag stores value under key in the tags mapping. Non-string values are
// converted to their string representation at this boundary.
func (s *Scope) SetTag(key string, value any) {
	s.tags = s.tagMap().Set(key, stringify(value))
}

// RemoveTag deletes key from the tags mapping.
func (s *Scope) RemoveTag(key string) {
	s.tags = s.tagMap().Delete(key)
}

// SetExtra stores an arbitrary value under key in the extra mapping.
func (s *Scope) SetExtra(key string, value Value) {
	s.extra = s.extraMap().Set(key, value)
}

// RemoveExtra deletes key from the extra mapping.
func (s *Scope) RemoveExtra(key string) {
	s.extra = s.extraMap().Delete(key)
}

// recordBreadcrumb appends crumb and trims the trail from the front so at
// most limit entries remain. A non-positive limit keeps the trail unbounded.
func (s *Scope) recordBreadcrumb(crumb Breadcrumb, limit int) {
	trail := s.crumbTrail().Append(crumb)
	if limit > 0 && trail.Len() > limit {
		trail = trail.Slice(trail.Len()-limit, trail.Len())
	}
	s.breadcrumbs = trail
}

// Breadcrumbs returns the recorded trail in insertion order. Intended for
// the bound client when building an outgoing event.
func (s *Scope) Breadcrumbs() []Breadcrumb {
	trail := s.crumbTrail()
	out := make([]Breadcrumb, 0, trail.Len())
	for itr := trail.Iterator(); !itr.Done(); {
		_, crumb := itr.Next()
		out = append(out, crumb)
	}
	return out
}

// User returns a copy of the scope's user, or nil when none is set. Intended
// for the bound client when building an outgoing event.
func (s *Scope) User() *User {
	if s.user == nil {
		return nil
	}
	user := *s.user
	return &user
}

// Tags returns a copy of the tags mapping. Intended for the bound client
// when building an outgoing event.
func (s *Scope) Tags() map[string]string {
	m := s.tagMap()
	out := make(map[string]string, m.Len())
	for itr := m.Iterator(); !itr.Done(); {
		key, value, _ := itr.Next()
		out[key] = value
	}
	return out
}

// Extra returns a copy of the extra mapping. Intended for the bound client
// when building an outgoing event.
func (s *Scope) Extra() map[string]any {
	m := s.extraMap()
	out := make(map[string]any, m.Len())
	for itr := m.Iterator(); !itr.Done(); {
		key, value, _ := itr.Next()
		out[key] = value
	}
	return out
}

func (s *Scope) crumbTrail() *immutable.List[Breadcrumb] {
	if s.breadcrumbs == nil {
		return immutable.NewList[Breadcrumb]()
	}
	return s.breadcrumbs
}

func (s *Scope) tagMap() *immutable.Map[string, string] {
	if s.tags == nil {
		return immutable.NewMap[string, string](nil)
	}
	return s.tags
}

func (s *Scope) extraMap() *immutable.Map[string, Value] {
	if s.extra == nil {
		return immutable.NewMap[string, Value](nil)
	}
	return s.extra
}

func stringify(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}
