// Package access implements role-based access control and resource
// ownership resolution for the request pipeline.
//
// # Roles and permissions
//
// Role and Permission are closed enumerations; every role maps to exactly
// one static permission set, fixed at compile time. Authorize checks that
// a principal holds all required permissions (AND semantics) and never
// looks at which resource is being touched.
//
// # Ownership
//
// Resolver answers the narrower question: may this principal act on this
// specific resource instance? Entitlement flows through one of three
// relationship graphs: school scope (teachers and school admins within
// their own school), parent→child (a parent acting on their own
// children), and direct ownership (a principal's own record). Documents
// and reports resolve transitively through their owning student.
//
// The resolver keeps "does not exist" (ErrNotFound, 404) strictly apart
// from "not entitled" (ErrDenied, 403) so callers cannot use error shape
// to probe for resources they have no access to.
package access
