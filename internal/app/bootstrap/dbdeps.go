// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"github.com/dalemusser/shopkeep/internal/app/system/auditlog"
	"github.com/dalemusser/shopkeep/internal/app/system/metrics"
	"github.com/dalemusser/shopkeep/internal/app/system/rbac"
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds database/back-end dependencies for the app.
// ConnectDB fills the Mongo handles; Startup builds the services on top.
type DBDeps struct {
	MongoClient   *mongo.Client
	MongoDatabase *mongo.Database

	Metrics *metrics.Metrics
	Audit   *auditlog.Logger
	RBAC    *rbac.Service
}
