package rbac

// Default policy. Candidates act on their own attempt; admins may do anything.
var RolePermissions = map[string][]string{
	"candidate": {
		"exam:view",
		"attempt:view-own",
		"attempt:answer",
		"attempt:navigate",
		"attempt:submit",
		"attempt:restart",
	},
	"admin": {
		"*", // everything
	},
}
