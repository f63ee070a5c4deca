package authz

const (
	RoleTenantAdmin  = "tenant-admin"
	RoleTenantViewer = "tenant-viewer"
	RoleAnonymous    = "anonymous"
)

const (
	ActionRead  = "read"
	ActionAdmin = "admin"
)

const (
	ObjectIAMSession        = "iam.session"
	ObjectOrgOrganizations  = "org.organizations"
	ObjectOrgHierarchy      = "org.hierarchy"
	ObjectOrgHierarchyRules = "org.hierarchy-rules"
)
