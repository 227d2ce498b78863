package scope

// Client is the contract the scope engine needs from a reporting client.
// The engine never constructs or transports events itself; it binds clients
// to layers, hands them back through WithClientAndScope, and consults the
// two methods below when recording breadcrumbs. Having no client bound is a
// normal state, not an error.
type Client interface {
	// Enabled reports whether the client is currently accepting data.
	// AddBreadcrumb drops crumbs while the bound client is disabled.
	Enabled() bool
	// MaxBreadcrumbs caps the scope's breadcrumb trail. Non-positive means
	// unbounded.
	MaxBreadcrumbs() int
}
