package access

// Authorize checks role-level permissions. All required permissions must
// be present (AND semantics); this never inspects which resource is being
// touched; that is the ownership resolver's job.
//
// Returns nil when allowed, ErrUnauthenticated for a missing principal,
// or a DeniedError for inactive accounts and missing permissions.
func Authorize(p *Principal, required ...Permission) error {
	if p == nil {
		return ErrUnauthenticated
	}
	if !p.Active {
		return deny("account is deactivated")
	}
	if !p.Role.Valid() {
		return deny("unrecognized role")
	}

	for _, perm := range required {
		if !RoleHasPermission(p.Role, perm) {
			return denyf("missing required permission: %s", perm)
		}
	}
	return nil
}
