package access

// Role is the closed set of account roles. Every role maps to exactly one
// static permission set; there is no runtime grant mechanism.
type Role string

const (
	RoleAdmin       Role = "admin"
	RoleSchoolAdmin Role = "school_admin"
	RoleTeacher     Role = "teacher"
	RoleParent      Role = "parent"
	RoleStudent     Role = "student"
)

// Valid reports whether the role is one of the known roles
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleSchoolAdmin, RoleTeacher, RoleParent, RoleStudent:
		return true
	}
	return false
}

// Permission is a capability tag. Permissions carry no parameters;
// resource scoping is the ownership resolver's job.
type Permission string

const (
	PermissionManageSchools       Permission = "manage-schools"
	PermissionManageSchoolUsers   Permission = "manage-school-users"
	PermissionViewSchoolAnalytics Permission = "view-school-analytics"
	PermissionManageAssessments   Permission = "manage-assessments"
	PermissionManageOwnChildren   Permission = "manage-own-children"
	PermissionViewChildAnalytics  Permission = "view-child-analytics"
	PermissionUploadDocuments     Permission = "upload-documents"
	PermissionViewReports         Permission = "view-reports"
	PermissionViewOwnProfile      Permission = "view-own-profile"
	PermissionViewOwnResults      Permission = "view-own-results"
	PermissionViewAuditLog        Permission = "view-audit-log"
)

// rolePermissions is the static role → permission-set map. It is built
// once at init and never mutated; Permissions returns copies.
var rolePermissions = map[Role]map[Permission]struct{}{
	RoleAdmin: permSet(
		PermissionManageSchools,
		PermissionManageSchoolUsers,
		PermissionViewSchoolAnalytics,
		PermissionManageAssessments,
		PermissionViewChildAnalytics,
		PermissionUploadDocuments,
		PermissionViewReports,
		PermissionViewOwnProfile,
		PermissionViewAuditLog,
	),
	RoleSchoolAdmin: permSet(
		PermissionManageSchoolUsers,
		PermissionViewSchoolAnalytics,
		PermissionManageAssessments,
		PermissionUploadDocuments,
		PermissionViewReports,
		PermissionViewOwnProfile,
	),
	RoleTeacher: permSet(
		PermissionViewSchoolAnalytics,
		PermissionManageAssessments,
		PermissionUploadDocuments,
		PermissionViewReports,
		PermissionViewOwnProfile,
	),
	RoleParent: permSet(
		PermissionManageOwnChildren,
		PermissionViewChildAnalytics,
		PermissionUploadDocuments,
		PermissionViewReports,
		PermissionViewOwnProfile,
	),
	RoleStudent: permSet(
		PermissionViewOwnResults,
		PermissionViewOwnProfile,
	),
}

func permSet(perms ...Permission) map[Permission]struct{} {
	set := make(map[Permission]struct{}, len(perms))
	for _, p := range perms {
		set[p] = struct{}{}
	}
	return set
}

// Permissions returns the permission set for a role
func Permissions(role Role) []Permission {
	set := rolePermissions[role]
	perms := make([]Permission, 0, len(set))
	for p := range set {
		perms = append(perms, p)
	}
	return perms
}

// RoleHasPermission reports whether the role's static set contains the
// permission.
func RoleHasPermission(role Role, perm Permission) bool {
	_, ok := rolePermissions[role][perm]
	return ok
}

// Principal is the authenticated actor for one request. It is constructed
// from upstream session lookup and read-only within the pipeline.
type Principal struct {
	ID       string `json:"id"`
	Role     Role   `json:"role"`
	SchoolID string `json:"school_id,omitempty"` // set for school-affiliated roles
	ParentID string `json:"parent_id,omitempty"` // set for parent accounts
	Active   bool   `json:"active"`
}

// HasPermission reports whether the principal's role grants the permission
func (p *Principal) HasPermission(perm Permission) bool {
	if p == nil {
		return false
	}
	return RoleHasPermission(p.Role, perm)
}
