// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// EnsureAll reconciles every collection's index set at startup. Each set is
// idempotent; failures are collected so one bad collection does not hide
// another.
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string
	for _, set := range indexSets() {
		if err := ensureIndexSet(ctx, db.Collection(set.collection), set.models); err != nil {
			problems = append(problems, set.collection+": "+err.Error())
		}
	}
	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Core helper: reconcile a set of desired indexes for one collection         */
/* -------------------------------------------------------------------------- */

type existingIndex struct {
	Name    string `bson:"name"`
	Key     bson.D `bson:"key"`
	Unique  *bool  `bson:"unique,omitempty"`
	Partial bson.D `bson:"partialFilterExpression,omitempty"`
}

func keySig(keys bson.D) string {
	parts := make([]string, 0, len(keys))
	for _, kv := range keys {
		parts = append(parts, fmt.Sprintf("%s:%v", kv.Key, kv.Value))
	}
	return strings.Join(parts, ", ")
}

func partialSig(filter any) string {
	if filter == nil {
		return ""
	}
	d, ok := filter.(bson.D)
	if !ok {
		return fmt.Sprintf("%v", filter)
	}
	return keySig(d)
}

func sameBoolPtr(a, b *bool) bool {
	av := false
	bv := false
	if a != nil {
		av = *a
	}
	if b != nil {
		bv = *b
	}
	return av == bv
}

// Best-effort duplicate-detector (works cross-vendors)
func isDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}
	if mongo.IsDuplicateKeyError(err) {
		return true
	}
	s := err.Error()
	return strings.Contains(s, "E11000") || strings.Contains(strings.ToLower(s), "duplicate key")
}

// Mongo/DocDB sometimes returns IndexOptionsConflict when an index with the
// same keys already exists under a different name (or options differ).
func isOptionsConflictErr(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "IndexOptionsConflict") ||
		strings.Contains(err.Error(), "IndexKeySpecsConflict")
}

func listIndexes(ctx context.Context, coll *mongo.Collection) map[string]existingIndex {
	existing := map[string]existingIndex{} // sig -> index
	cur, err := coll.Indexes().List(ctx)
	if err != nil {
		return existing
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var idx existingIndex
		if err := cur.Decode(&idx); err != nil {
			zap.L().Warn("failed to decode existing index",
				zap.String("collection", coll.Name()),
				zap.Error(err))
			continue
		}
		existing[keySig(idx.Key)] = idx
	}
	return existing
}

func ensureIndexSet(ctx context.Context, coll *mongo.Collection, models []mongo.IndexModel) error {
	var errs []string

	for _, m := range models {
		var desiredName string
		var desiredUnique *bool
		var desiredPartial string
		if m.Options != nil {
			if m.Options.Name != nil {
				desiredName = *m.Options.Name
			}
			desiredUnique = m.Options.Unique
			desiredPartial = partialSig(m.Options.PartialFilterExpression)
		}
		desiredSig := keySig(m.Keys.(bson.D))
		unique := desiredUnique != nil && *desiredUnique

		start := time.Now()
		zap.L().Info("ensuring index",
			zap.String("collection", coll.Name()),
			zap.String("name", desiredName),
			zap.String("keys", desiredSig),
			zap.Bool("unique", unique))

		ex, found := listIndexes(ctx, coll)[desiredSig]
		if found && sameBoolPtr(desiredUnique, ex.Unique) && keySig(ex.Partial) == desiredPartial &&
			(desiredName == "" || ex.Name == desiredName) {
			zap.L().Info("reusing existing index",
				zap.String("collection", coll.Name()),
				zap.String("name", ex.Name),
				zap.String("keys", desiredSig),
				zap.String("took", time.Since(start).String()))
			continue
		}

		// Same keys with a different name or options: drop and recreate.
		if found {
			if _, err := coll.Indexes().DropOne(ctx, ex.Name); err != nil {
				zap.L().Warn("drop existing index failed",
					zap.String("collection", coll.Name()),
					zap.String("name", ex.Name),
					zap.String("keys", desiredSig),
					zap.Error(err))
				errs = append(errs, fmt.Sprintf("%s(%s): drop failed: %v", coll.Name(), desiredName, err))
				continue
			}
		}

		created, err := coll.Indexes().CreateOne(ctx, m)
		if err != nil && isOptionsConflictErr(err) {
			// Raced with another instance or a differently named twin; retry once.
			if ex2, ok := listIndexes(ctx, coll)[desiredSig]; ok {
				if _, dropErr := coll.Indexes().DropOne(ctx, ex2.Name); dropErr != nil {
					zap.L().Warn("failed to drop conflicting index",
						zap.String("collection", coll.Name()),
						zap.String("name", ex2.Name),
						zap.Error(dropErr))
				}
			}
			created, err = coll.Indexes().CreateOne(ctx, m)
		}
		if err != nil {
			zap.L().Warn("index ensure failed",
				zap.String("collection", coll.Name()),
				zap.String("name", desiredName),
				zap.String("keys", desiredSig),
				zap.Bool("unique", unique),
				zap.String("took", time.Since(start).String()),
				zap.Error(err))
			if isDuplicateKeyErr(err) && unique {
				errs = append(errs, fmt.Sprintf("%s(%s): cannot create unique index (duplicates present)%s",
					coll.Name(), desiredName, duplicateHint(coll.Name(), desiredSig)))
			} else {
				errs = append(errs, fmt.Sprintf("%s(%s): %v", coll.Name(), desiredName, err))
			}
			continue
		}

		zap.L().Info("index ensured",
			zap.String("collection", coll.Name()),
			zap.String("name", desiredName),
			zap.String("created_name", created),
			zap.String("keys", desiredSig),
			zap.Bool("unique", unique),
			zap.Bool("recreated", found),
			zap.String("took", time.Since(start).String()))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

// duplicateHint returns a shell snippet that finds the offending documents.
func duplicateHint(coll, sig string) string {
	switch {
	case coll == "user_role_assignments" && strings.HasPrefix(sig, "user_id:1"):
		return ". Users with more than one active assignment:\n" +
			`db.user_role_assignments.aggregate([{ $match: { is_active: true } }, { $group: { _id: "$user_id", n: { $sum: 1 } } }, { $match: { n: { $gt: 1 } } }])`
	case coll == "permissions" && strings.HasPrefix(sig, "resource:1"):
		return ". Duplicate capabilities:\n" +
			`db.permissions.aggregate([{ $group: { _id: { r: "$resource", a: "$action" }, n: { $sum: 1 } } }, { $match: { n: { $gt: 1 } } }])`
	}
	return ""
}

/* -------------------------------------------------------------------------- */
/* Collection-specific index sets                                              */
/* -------------------------------------------------------------------------- */

type indexSet struct {
	collection string
	models     []mongo.IndexModel
}

func indexSets() []indexSet {
	return []indexSet{
		{"permissions", []mongo.IndexModel{
			// One permission per (resource, action) capability.
			{
				Keys:    bson.D{{Key: "resource", Value: 1}, {Key: "action", Value: 1}},
				Options: options.Index().SetUnique(true).SetName("uniq_permissions_resource_action"),
			},
			{
				Keys:    bson.D{{Key: "name", Value: 1}},
				Options: options.Index().SetUnique(true).SetName("uniq_permissions_name"),
			},
		}},
		{"roles", []mongo.IndexModel{
			// Role names are unique after case/diacritic folding.
			{
				Keys:    bson.D{{Key: "name_ci", Value: 1}},
				Options: options.Index().SetUnique(true).SetName("uniq_roles_nameci"),
			},
			// Active role listing sorted by name
			{
				Keys:    bson.D{{Key: "is_active", Value: 1}, {Key: "name_ci", Value: 1}},
				Options: options.Index().SetName("idx_roles_active_nameci"),
			},
			// Reverse lookup when a permission is deleted
			{
				Keys:    bson.D{{Key: "permission_ids", Value: 1}},
				Options: options.Index().SetName("idx_roles_permission_ids"),
			},
		}},
		{"user_role_assignments", []mongo.IndexModel{
			// At most one active assignment per user.
			{
				Keys: bson.D{{Key: "user_id", Value: 1}},
				Options: options.Index().
					SetUnique(true).
					SetPartialFilterExpression(bson.D{{Key: "is_active", Value: true}}).
					SetName("uniq_ura_user_active"),
			},
			// History per user, newest first
			{
				Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "assigned_at", Value: -1}},
				Options: options.Index().SetName("idx_ura_user_assignedat"),
			},
			// Who holds a role
			{
				Keys:    bson.D{{Key: "role_id", Value: 1}, {Key: "is_active", Value: 1}},
				Options: options.Index().SetName("idx_ura_role_active"),
			},
		}},
		{"audit_events", []mongo.IndexModel{
			{
				Keys:    bson.D{{Key: "timestamp", Value: -1}},
				Options: options.Index().SetName("idx_audit_timestamp"),
			},
			{
				Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "timestamp", Value: -1}},
				Options: options.Index().SetName("idx_audit_user_timestamp"),
			},
			{
				Keys:    bson.D{{Key: "actor_id", Value: 1}, {Key: "timestamp", Value: -1}},
				Options: options.Index().SetName("idx_audit_actor_timestamp"),
			},
			{
				Keys: bson.D{
					{Key: "category", Value: 1},
					{Key: "event_type", Value: 1},
					{Key: "timestamp", Value: -1},
				},
				Options: options.Index().SetName("idx_audit_category_type_timestamp"),
			},
		}},
	}
}
