package access

import (
	"context"
	"errors"
	"fmt"
)

// ResourceKind identifies the type half of a resource reference
type ResourceKind string

const (
	ResourceStudent  ResourceKind = "student"
	ResourceParent   ResourceKind = "parent"
	ResourceDocument ResourceKind = "document"
	ResourceReport   ResourceKind = "report"
	ResourceSchool   ResourceKind = "school"
)

// Resolver decides whether a principal is entitled to act on a specific
// resource instance. Role-level permissions are checked separately by
// Authorize; the resolver only reasons about relationships: school scope,
// parent→child, and direct ownership.
//
// Every branch terminates in an explicit allow (nil) or deny; there is no
// fallthrough-allow. Unknown resources resolve to ErrNotFound, which
// callers must keep distinct from ErrDenied.
type Resolver struct {
	store EntityStore
}

// NewResolver creates an ownership resolver over the given entity store
func NewResolver(store EntityStore) *Resolver {
	return &Resolver{store: store}
}

// ResolveOwnership resolves a (resourceType, resourceId) reference against
// the principal. Returns nil on entitlement, ErrNotFound for unknown
// resources, a DeniedError otherwise.
func (r *Resolver) ResolveOwnership(ctx context.Context, p *Principal, kind ResourceKind, id string) error {
	if p == nil {
		return ErrUnauthenticated
	}
	if !p.Active {
		return deny("account is deactivated")
	}

	switch kind {
	case ResourceStudent:
		return r.resolveStudent(ctx, p, id)
	case ResourceParent:
		return r.resolveParent(ctx, p, id)
	case ResourceDocument:
		doc, err := r.store.GetDocument(ctx, id)
		if err != nil {
			return lookupError("document", err)
		}
		// A document is owned via its student.
		return r.resolveStudent(ctx, p, doc.StudentID)
	case ResourceReport:
		report, err := r.store.GetReport(ctx, id)
		if err != nil {
			return lookupError("report", err)
		}
		return r.resolveStudent(ctx, p, report.StudentID)
	case ResourceSchool:
		return r.resolveSchool(ctx, p, id)
	default:
		return denyf("unknown resource type: %s", kind)
	}
}

func (r *Resolver) resolveStudent(ctx context.Context, p *Principal, studentID string) error {
	student, err := r.store.GetStudent(ctx, studentID)
	if err != nil {
		return lookupError("student", err)
	}

	switch p.Role {
	case RoleAdmin:
		return nil
	case RoleSchoolAdmin, RoleTeacher:
		if p.SchoolID == "" {
			return deny("not associated with a school")
		}
		if student.SchoolID != p.SchoolID {
			return deny("not authorized for this school")
		}
		return nil
	case RoleParent:
		if p.ParentID == "" {
			return deny("no parent record on file")
		}
		if student.ParentID != p.ParentID {
			return deny("not your child")
		}
		return nil
	case RoleStudent:
		if studentID == p.ID {
			return nil
		}
		return deny("not your record")
	default:
		return deny("unrecognized role")
	}
}

func (r *Resolver) resolveParent(ctx context.Context, p *Principal, parentID string) error {
	parent, err := r.store.GetParent(ctx, parentID)
	if err != nil {
		return lookupError("parent", err)
	}

	switch p.Role {
	case RoleAdmin:
		return nil
	case RoleSchoolAdmin:
		if p.SchoolID == "" {
			return deny("not associated with a school")
		}
		if parent.SchoolID != p.SchoolID {
			return deny("not authorized for this school")
		}
		return nil
	case RoleParent:
		if parentID == p.ParentID {
			return nil
		}
		return deny("not your profile")
	case RoleTeacher, RoleStudent:
		return deny("insufficient role for parent records")
	default:
		return deny("unrecognized role")
	}
}

func (r *Resolver) resolveSchool(ctx context.Context, p *Principal, schoolID string) error {
	school, err := r.store.GetSchool(ctx, schoolID)
	if err != nil {
		return lookupError("school", err)
	}

	switch p.Role {
	case RoleAdmin:
		return nil
	case RoleSchoolAdmin, RoleTeacher:
		if p.SchoolID == "" {
			return deny("not associated with a school")
		}
		if school.ID != p.SchoolID {
			return deny("not authorized for this school")
		}
		return nil
	case RoleParent, RoleStudent:
		return deny("insufficient role for school resources")
	default:
		return deny("unrecognized role")
	}
}

// ResolveSchoolScope checks that the principal may act within the target
// school. An empty target means "the principal's own school", which only
// requires an affiliation to exist.
func ResolveSchoolScope(p *Principal, targetSchoolID string) error {
	if p == nil {
		return ErrUnauthenticated
	}
	if p.Role == RoleAdmin {
		return nil
	}
	if p.SchoolID == "" {
		return deny("not associated with a school")
	}
	if targetSchoolID != "" && targetSchoolID != p.SchoolID {
		return deny("not authorized for this school")
	}
	return nil
}

// lookupError maps store errors: ErrNotFound passes through untouched so
// the 404/403 distinction survives; anything else is an infrastructure
// fault and is wrapped for the pipeline's fail-closed path.
func lookupError(kind string, err error) error {
	if errors.Is(err, ErrNotFound) {
		return ErrNotFound
	}
	return fmt.Errorf("%s lookup failed: %w", kind, err)
}
