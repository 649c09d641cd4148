package rbac

import (
	"context"

	identitystore "github.com/dalemusser/shopkeep/internal/app/store/identities"
	permissionstore "github.com/dalemusser/shopkeep/internal/app/store/permissions"
	roleassignstore "github.com/dalemusser/shopkeep/internal/app/store/roleassign"
	rolestore "github.com/dalemusser/shopkeep/internal/app/store/roles"
	"github.com/dalemusser/shopkeep/internal/app/system/metrics"
	"github.com/dalemusser/shopkeep/internal/app/system/txn"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Service bundles the RBAC components over one database.
type Service struct {
	Catalog  *Catalog
	Registry *Registry
	Ledger   *Ledger
	Engine   *Engine
}

// NewService wires the components to their Mongo stores. m may be nil.
func NewService(db *mongo.Database, log *zap.Logger, m *metrics.Metrics) *Service {
	perms := permissionstore.New(db)
	roles := rolestore.New(db)
	assignments := roleassignstore.New(db)
	ids := identitystore.New(db)

	runTx := func(ctx context.Context, fn func(ctx context.Context) error) error {
		return txn.Run(ctx, db, log, fn)
	}

	return &Service{
		Catalog:  NewCatalog(perms, roles),
		Registry: NewRegistry(roles, perms),
		Ledger:   NewLedger(assignments, roles, ids, runTx, m, log),
		Engine:   NewEngine(assignments, roles, ids, m, log),
	}
}
