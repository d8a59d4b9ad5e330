package rbac

const (
	RoleLearner = "learner"
	RoleAdmin   = "admin"
)

// RolePermissions is the default policy. Users with no stored role are
// learners.
var RolePermissions = map[string][]string{
	RoleLearner: {
		"lessons:view",
		"judge:submit",
		"credits:read",
		"credits:spend",
	},
	RoleAdmin: {
		"*", // everything
	},
}
