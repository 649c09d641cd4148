// internal/app/system/limits/limits.go
package limits

// Size limits shared by request validation and the RBAC services.
// Struct tags in the feature packages repeat these numbers literally.
const (
	// MaxJSONBody is the maximum size of a decoded JSON request body.
	MaxJSONBody = 1 << 20 // 1 MB

	// MaxNameLength bounds permission and role names.
	MaxNameLength = 100

	// MaxDescriptionLength bounds permission and role descriptions.
	MaxDescriptionLength = 500

	// MaxPermissionsPerRequest bounds permission_ids in a single role request.
	MaxPermissionsPerRequest = 200
)
