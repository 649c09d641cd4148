package metricsstore

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Counts is the set of RBAC totals reported by the health endpoint.
type Counts struct {
	Permissions       int64
	ActiveRoles       int64
	InactiveRoles     int64
	ActiveAssignments int64
}

// Seeded reports whether the catalog holds at least one permission and
// one active role.
func (c Counts) Seeded() bool {
	return c.Permissions > 0 && c.ActiveRoles > 0
}

// FetchRBACCounts returns the high-level RBAC counts.
// Intentionally tolerant: on error it returns 0 for that counter and the
// first error seen, so callers can report partial numbers.
func FetchRBACCounts(ctx context.Context, db *mongo.Database) (Counts, error) {
	var (
		out      Counts
		firstErr error
	)
	count := func(coll string, filter bson.M, dst *int64) {
		n, err := db.Collection(coll).CountDocuments(ctx, filter)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			return
		}
		*dst = n
	}

	count("permissions", bson.M{}, &out.Permissions)
	count("roles", bson.M{"is_active": true}, &out.ActiveRoles)
	count("roles", bson.M{"is_active": false}, &out.InactiveRoles)
	count("user_role_assignments", bson.M{"is_active": true}, &out.ActiveAssignments)

	return out, firstErr
}
