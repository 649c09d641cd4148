// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"time"

	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// appConfigKeys defines the configuration keys for shopkeep.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, session_name, etc.
//   - Environment variables: SHOPKEEP_MONGO_URI, SHOPKEEP_JWT_SECRET, etc.
//   - Command-line flags: --mongo_uri, --jwt_secret, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "shopkeep", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},

	// Identity
	{Name: "session_key", Default: "", Desc: "Session signing key shared with the login service"},
	{Name: "session_name", Default: "shopkeep-session", Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},
	{Name: "jwt_secret", Default: "", Desc: "HS256 secret for bearer access tokens (blank disables bearer auth)"},
	{Name: "jwt_issuer", Default: "", Desc: "Expected token issuer (blank skips the check)"},
	{Name: "jwt_audience", Default: "", Desc: "Expected token audience (blank skips the check)"},

	// Audit logging settings
	{Name: "audit_log_admin", Default: "all", Desc: "RBAC mutation logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_security", Default: "all", Desc: "Access denial logging: 'all' (db+log), 'db', 'log', or 'off'"},

	// RBAC
	{Name: "rbac_seed_on_startup", Default: true, Desc: "Seed the permission catalog and standard roles on startup"},
	{Name: "rbac_seed_sync_roles", Default: false, Desc: "Reset standard roles' permission sets to the seed plan"},
	{Name: "rbac_seed_catalog", Default: "", Desc: "Path to a YAML seed catalog (blank uses the built-in catalog)"},
	{Name: "rbac_check_timeout", Default: "2s", Desc: "Upper bound for a single permission check (e.g., 2s, 750ms)"},
	{Name: "admin_rate_limit", Default: 60, Desc: "Mutating requests per minute per identity (0 disables)"},
}

var auditModes = map[string]bool{"all": true, "db": true, "log": true, "off": true}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles:
//   - Loading from .env files
//   - Loading from config.yaml/json/toml files
//   - Reading environment variables (WAFFLE_* for core, SHOPKEEP_* for app)
//   - Parsing command-line flags
//   - Merging with precedence: flags > env > files > defaults
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "SHOPKEEP", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		SessionKey:    appValues.String("session_key"),
		SessionName:   appValues.String("session_name"),
		SessionDomain: appValues.String("session_domain"),
		JWTSecret:     appValues.String("jwt_secret"),
		JWTIssuer:     appValues.String("jwt_issuer"),
		JWTAudience:   appValues.String("jwt_audience"),

		AuditLogAdmin:    appValues.String("audit_log_admin"),
		AuditLogSecurity: appValues.String("audit_log_security"),

		SeedOnStartup:  appValues.Bool("rbac_seed_on_startup"),
		SeedSyncRoles:  appValues.Bool("rbac_seed_sync_roles"),
		SeedCatalog:    appValues.String("rbac_seed_catalog"),
		CheckTimeout:   appValues.Duration("rbac_check_timeout", 2*time.Second),
		AdminRateLimit: appValues.Int("admin_rate_limit"),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// The MongoDB URI is checked before connecting. Outside dev at least one
// way of identifying callers must be configured, otherwise every protected
// route would answer 401.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	if coreCfg.Env != "dev" && appCfg.SessionKey == "" && appCfg.JWTSecret == "" {
		return fmt.Errorf("session_key or jwt_secret must be set outside dev")
	}
	if appCfg.SessionKey != "" && len(appCfg.SessionKey) < 32 {
		return fmt.Errorf("session_key must be at least 32 characters")
	}
	for key, v := range map[string]string{
		"audit_log_admin":    appCfg.AuditLogAdmin,
		"audit_log_security": appCfg.AuditLogSecurity,
	} {
		if !auditModes[v] {
			return fmt.Errorf("%s must be one of all, db, log, off (got %q)", key, v)
		}
	}
	if appCfg.CheckTimeout <= 0 {
		return fmt.Errorf("rbac_check_timeout must be positive")
	}
	if appCfg.AdminRateLimit < 0 {
		return fmt.Errorf("admin_rate_limit must not be negative")
	}
	return nil
}
