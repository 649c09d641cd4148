// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). They represent *app-level*
// configuration, not WAFFLE core configuration.
//
// WAFFLE's CoreConfig handles framework-level settings like:
//   - HTTP/HTTPS ports and TLS configuration
//   - Logging level and format
//   - CORS settings
//   - Request body size limits
//
// AppConfig carries what is specific to the access-control service:
// where its collections live, how callers are identified, how audit events
// are recorded and how the permission catalog is seeded.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Identity resolution. Credentials are issued by the storefront login
	// service; this service only reads them.
	SessionKey    string // Secret key shared with the login service for session cookies
	SessionName   string // Cookie name for sessions (default: shopkeep-session)
	SessionDomain string // Cookie domain (blank means current host)
	JWTSecret     string // HS256 secret for bearer tokens (blank disables bearer auth)
	JWTIssuer     string // Expected iss claim (blank skips the check)
	JWTAudience   string // Expected aud claim (blank skips the check)

	// Audit logging: "all" (db+log), "db", "log" or "off"
	AuditLogAdmin    string // catalog, role and assignment mutations
	AuditLogSecurity string // access denials and seeding

	// RBAC behavior
	SeedOnStartup  bool          // run the idempotent seed during Startup
	SeedSyncRoles  bool          // reset standard roles' permission sets to the computed plan
	SeedCatalog    string        // optional YAML path overriding the embedded catalog
	CheckTimeout   time.Duration // upper bound for a single permission check
	AdminRateLimit int           // mutating requests per minute per identity (0 disables)
}
