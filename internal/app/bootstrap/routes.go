// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	auditlogfeature "github.com/dalemusser/shopkeep/internal/app/features/auditlog"
	healthfeature "github.com/dalemusser/shopkeep/internal/app/features/health"
	mefeature "github.com/dalemusser/shopkeep/internal/app/features/me"
	permissionsfeature "github.com/dalemusser/shopkeep/internal/app/features/permissions"
	rolesfeature "github.com/dalemusser/shopkeep/internal/app/features/roles"
	userrolesfeature "github.com/dalemusser/shopkeep/internal/app/features/userroles"
	"github.com/dalemusser/shopkeep/internal/app/store/audit"
	"github.com/dalemusser/shopkeep/internal/app/system/auth"
	"github.com/dalemusser/shopkeep/internal/app/system/authz"
	"github.com/dalemusser/shopkeep/internal/app/system/ratelimit"
	"github.com/dalemusser/shopkeep/internal/app/system/respond"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"github.com/unrolled/secure"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed. The router applies security headers,
// request metrics and identity resolution globally, then mounts the RBAC
// JSON API under /api/rbac plus /health and /metrics.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	// Secure cookies are enabled in production mode.
	prod := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, prod, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}
	if appCfg.JWTSecret != "" {
		verifier, err := auth.NewTokenVerifier(appCfg.JWTSecret, appCfg.JWTIssuer, appCfg.JWTAudience)
		if err != nil {
			return nil, err
		}
		sessionMgr.SetTokenVerifier(verifier)
	}

	headers := secure.New(secure.Options{
		FrameDeny:             true,
		ContentTypeNosniff:    true,
		BrowserXssFilter:      true,
		ReferrerPolicy:        "no-referrer",
		ContentSecurityPolicy: "default-src 'none'; frame-ancestors 'none'",
		SSLRedirect:           prod,
		SSLProxyHeaders:       map[string]string{"X-Forwarded-Proto": "https"},
		IsDevelopment:         coreCfg.Env == "dev",
	})

	enf := authz.New(deps.RBAC.Engine, deps.Audit, logger)
	limit := ratelimit.PerIdentity(appCfg.AdminRateLimit, ratelimit.DefaultWindow)

	r := chi.NewRouter()
	r.Use(headers.Handler)
	r.Use(deps.Metrics.Middleware)

	// Global auth middleware: loads SessionUser into context when the
	// request carries a bearer token or a session cookie.
	r.Use(sessionMgr.LoadSessionUser)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoDatabase, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// Decision and assignment counters are operational data; admins only.
	r.With(enf.RequireAdmin).Handle("/metrics", deps.Metrics.Handler())

	r.Route("/api/rbac", func(api chi.Router) {
		permissionsHandler := permissionsfeature.NewHandler(deps.RBAC.Catalog, deps.Audit, logger)
		api.Mount("/permissions", permissionsfeature.Routes(permissionsHandler, enf, limit))

		rolesHandler := rolesfeature.NewHandler(deps.RBAC.Registry, deps.Audit, logger)
		api.Mount("/roles", rolesfeature.Routes(rolesHandler, enf, limit))

		userRolesHandler := userrolesfeature.NewHandler(deps.RBAC.Ledger, deps.Audit, logger)
		api.Mount("/users", userrolesfeature.Routes(userRolesHandler, enf, limit))

		meHandler := mefeature.NewHandler(deps.RBAC.Engine, logger)
		api.Mount("/me", mefeature.Routes(meHandler, sessionMgr))

		auditHandler := auditlogfeature.NewHandler(audit.New(deps.MongoDatabase), logger)
		api.Mount("/audit", auditlogfeature.Routes(auditHandler, enf))
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respond.Errorf(w, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respond.Errorf(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	return r, nil
}
