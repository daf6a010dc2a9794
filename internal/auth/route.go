package auth

// RouteMeta is the access policy a route declares at registration time.
// Both gates read it: the authentication gate to decide whether a missing
// or broken token is fatal, the authorization gate to enforce role and
// permission requirements.
//
// Roles use OR semantics (any listed role suffices); Perms use AND
// semantics (every listed permission is required, the wildcard grant
// satisfies all of them).
type RouteMeta struct {
	Public bool
	Roles  []string
	Perms  []string
}

// Protected is the zero policy: authentication required, no further
// role or permission requirements.
var Protected = RouteMeta{}

// Public marks a route that tolerates anonymous callers.
var Public = RouteMeta{Public: true}

// RequireRoles declares a protected route allowing any of the given roles.
func RequireRoles(roles ...string) RouteMeta {
	return RouteMeta{Roles: roles}
}

// RequirePerms declares a protected route requiring all given permissions.
func RequirePerms(perms ...string) RouteMeta {
	return RouteMeta{Perms: perms}
}
