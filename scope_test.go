package scope

import (
	"testing"
	"time"
)

func TestScopeZeroValueIsEmpty(t *testing.T) {
	var s Scope
	if len(s.Tags()) != 0 || len(s.Extra()) != 0 || len(s.Breadcrumbs()) != 0 {
		t.Fatalf("expected empty scope, got tags=%v extra=%v crumbs=%v", s.Tags(), s.Extra(), s.Breadcrumbs())
	}
	if s.User() != nil {
		t.Fatalf("expected no user, got %+v", s.User())
	}
}

func TestScopeSetAndRemoveTag(t *testing.T) {
	var s Scope
	s.SetTag("env", "prod")
	s.SetTag("attempt", 3)

	tags := s.Tags()
	if tags["env"] != "prod" {
		t.Fatalf("expected env=prod, got %q", tags["env"])
	}
	if tags["attempt"] != "3" {
		t.Fatalf("expected non-string tag converted to %q, got %q", "3", tags["attempt"])
	}

	s.RemoveTag("env")
	if _, ok := s.Tags()["env"]; ok {
		t.Fatalf("expected env removed, got %v", s.Tags())
	}
	if s.Tags()["attempt"] != "3" {
		t.Fatalf("removing one tag should not affect others: %v", s.Tags())
	}
}

func TestScopeSetAndRemoveExtra(t *testing.T) {
	var s Scope
	s.SetExtra("build", 42)
	s.SetExtra("commit", "abc123")

	extra := s.Extra()
	if extra["build"] != 42 {
		t.Fatalf("expected build=42, got %v", extra["build"])
	}
	if extra["commit"] != "abc123" {
		t.Fatalf("expected commit=abc123, got %v", extra["commit"])
	}

	s.RemoveExtra("build")
	if _, ok := s.Extra()["build"]; ok {
		t.Fatalf("expected build removed, got %v", s.Extra())
	}
}

func TestScopeSetUserReplacesWholesale(t *testing.T) {
	var s Scope
	s.SetUser(&User{ID: "u-1", Email: "one@example.com"})
	s.SetUser(&User{ID: "u-2"})

	user := s.User()
	if user == nil || user.ID != "u-2" {
		t.Fatalf("expected user u-2, got %+v", user)
	}
	if user.Email != "" {
		t.Fatalf("expected no merge with previous user, got %q", user.Email)
	}

	s.SetUser(nil)
	if s.User() != nil {
		t.Fatalf("expected user removed")
	}
}

func TestScopeUserReturnsCopy(t *testing.T) {
	var s Scope
	s.SetUser(&User{ID: "u-1"})

	first := s.User()
	first.ID = "mutated"

	if got := s.User().ID; got != "u-1" {
		t.Fatalf("expected stored user untouched, got %q", got)
	}
}

func TestScopeCloneIsolation(t *testing.T) {
	var parent Scope
	parent.SetTag("env", "prod")
	parent.SetExtra("build", 42)
	parent.recordBreadcrumb(Breadcrumb{Message: "boot"}, 0)

	child := parent.Clone()
	child.SetTag("env", "staging")
	child.SetTag("region", "eu")
	child.RemoveExtra("build")
	child.recordBreadcrumb(Breadcrumb{Message: "request"}, 0)

	if parent.Tags()["env"] != "prod" {
		t.Fatalf("child mutation leaked into parent tags: %v", parent.Tags())
	}
	if _, ok := parent.Tags()["region"]; ok {
		t.Fatalf("child tag visible in parent: %v", parent.Tags())
	}
	if parent.Extra()["build"] != 42 {
		t.Fatalf("child removal leaked into parent extra: %v", parent.Extra())
	}
	if len(parent.Breadcrumbs()) != 1 {
		t.Fatalf("child breadcrumb leaked into parent: %d", len(parent.Breadcrumbs()))
	}

	if child.Tags()["env"] != "staging" || child.Tags()["region"] != "eu" {
		t.Fatalf("unexpected child tags: %v", child.Tags())
	}
	if len(child.Breadcrumbs()) != 2 {
		t.Fatalf("expected 2 child breadcrumbs, got %d", len(child.Breadcrumbs()))
	}
}

func TestScopeParentMutationInvisibleToClone(t *testing.T) {
	var parent Scope
	parent.SetTag("env", "prod")

	child := parent.Clone()
	parent.SetTag("env", "dev")
	parent.SetTag("late", "yes")

	if child.Tags()["env"] != "prod" {
		t.Fatalf("parent mutation leaked into clone: %v", child.Tags())
	}
	if _, ok := child.Tags()["late"]; ok {
		t.Fatalf("parent tag visible in clone: %v", child.Tags())
	}
}

func TestScopeClear(t *testing.T) {
	var s Scope
	s.SetTag("env", "prod")
	s.SetExtra("build", 42)
	s.SetUser(&User{ID: "u-1"})
	s.recordBreadcrumb(Breadcrumb{Message: "boot"}, 0)

	s.Clear()

	if len(s.Tags()) != 0 || len(s.Extra()) != 0 || len(s.Breadcrumbs()) != 0 || s.User() != nil {
		t.Fatalf("expected cleared scope, got tags=%v extra=%v crumbs=%d user=%+v",
			s.Tags(), s.Extra(), len(s.Breadcrumbs()), s.User())
	}
}

func TestScopeClearDoesNotAffectClone(t *testing.T) {
	var parent Scope
	parent.SetTag("env", "prod")

	child := parent.Clone()
	child.Clear()

	if parent.Tags()["env"] != "prod" {
		t.Fatalf("clearing clone wiped parent: %v", parent.Tags())
	}
}

func TestRecordBreadcrumbKeepsOrderAndTrims(t *testing.T) {
	var s Scope
	base := time.Now()
	for i, msg := range []string{"one", "two", "three", "four"} {
		s.recordBreadcrumb(Breadcrumb{Message: msg, Timestamp: base.Add(time.Duration(i) * time.Second)}, 3)
	}

	crumbs := s.Breadcrumbs()
	if len(crumbs) != 3 {
		t.Fatalf("expected trail trimmed to 3, got %d", len(crumbs))
	}
	want := []string{"two", "three", "four"}
	for i, msg := range want {
		if crumbs[i].Message != msg {
			t.Fatalf("expected crumb %d to be %q, got %q", i, msg, crumbs[i].Message)
		}
	}
}

func TestRecordBreadcrumbUnboundedWhenNoLimit(t *testing.T) {
	var s Scope
	for i := 0; i < 150; i++ {
		s.recordBreadcrumb(Breadcrumb{Message: "m"}, 0)
	}
	if got := len(s.Breadcrumbs()); got != 150 {
		t.Fatalf("expected 150 crumbs, got %d", got)
	}
}
