// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"fmt"

	"github.com/dalemusser/shopkeep/internal/app/store/audit"
	"github.com/dalemusser/shopkeep/internal/app/system/auditlog"
	"github.com/dalemusser/shopkeep/internal/app/system/metrics"
	"github.com/dalemusser/shopkeep/internal/app/system/rbac"
	"github.com/dalemusser/shopkeep/internal/app/system/rbacseed"
	"github.com/dalemusser/shopkeep/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/config"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

// wireServices builds the metrics registry, audit logger and RBAC services
// over an open database. ConnectDB calls it so later hooks receive them in
// DBDeps.
func wireServices(deps DBDeps, appCfg AppConfig, logger *zap.Logger) DBDeps {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	deps.Metrics = metrics.New(reg)
	deps.Audit = auditlog.New(audit.New(deps.MongoDatabase), logger, auditlog.Config{
		RBAC:     appCfg.AuditLogAdmin,
		Security: appCfg.AuditLogSecurity,
	})
	deps.RBAC = rbac.NewService(deps.MongoDatabase, logger, deps.Metrics)
	return deps
}

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built: it
// applies timeout configuration and seeds the permission catalog.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	timeouts.Configure(timeouts.Config{Decision: appCfg.CheckTimeout})
	if n := timeouts.ConfigureFromEnv(); n > 0 {
		logger.Info("timeouts configured from environment", zap.Int("count", n))
	}

	if !appCfg.SeedOnStartup {
		logger.Info("rbac seed skipped (rbac_seed_on_startup=false)")
		return nil
	}
	if _, err := seedRBAC(ctx, appCfg, deps, logger); err != nil {
		logger.Error("rbac seed failed", zap.Error(err))
		return err
	}
	return nil
}

// seedRBAC loads the configured catalog and applies it.
func seedRBAC(ctx context.Context, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (rbacseed.Report, error) {
	var (
		cat *rbacseed.Catalog
		err error
	)
	if appCfg.SeedCatalog != "" {
		cat, err = rbacseed.LoadFile(appCfg.SeedCatalog)
	} else {
		cat, err = rbacseed.Default()
	}
	if err != nil {
		return rbacseed.Report{}, fmt.Errorf("load seed catalog: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, timeouts.Batch())
	defer cancel()

	seeder := rbacseed.New(deps.MongoDatabase, deps.RBAC.Ledger, deps.Audit, logger)
	rep, err := seeder.Run(ctx, cat, rbacseed.Options{SyncRoles: appCfg.SeedSyncRoles})
	if err != nil {
		return rep, err
	}
	logger.Info("rbac seed complete",
		zap.Int("permissions_created", rep.PermissionsCreated),
		zap.Int("roles_created", rep.RolesCreated),
		zap.Int("roles_synced", rep.RolesSynced),
		zap.Int("admins_assigned", rep.AdminsAssigned))
	return rep, nil
}
