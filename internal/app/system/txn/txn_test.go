package txn

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/dalemusser/shopkeep/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func TestIsNotSupported(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"unrelated", errors.New("connection reset"), false},
		{"IllegalOperation code", mongo.CommandError{Code: 20, Message: "Transaction numbers are only allowed on a replica set member or mongos"}, true},
		{"code 51", mongo.CommandError{Code: 51}, true},
		{"OperationNotSupportedInTransaction code", mongo.CommandError{Code: 263}, true},
		{"duplicate key is not a capability problem", mongo.CommandError{Code: 11000, Message: "E11000 duplicate key"}, false},
		{"wrapped replica set message", fmt.Errorf("assign: %w", errors.New("Transaction requires a Replica Set")), true},
		{"sessions not supported", errors.New("sessions are not supported by this deployment"), true},
		{"one keyword only", errors.New("transaction aborted"), false},
		{"transactions not supported", errors.New("Transactions are not supported by this storage engine"), true},
		{"in-transaction write conflict", errors.New("WriteConflict error: this operation conflicted with another transaction; please retry the session"), false},
		{"session expired inside transaction", mongo.CommandError{Code: 251, Message: "transaction 3 has been aborted on session abc"}, false},
		{"illegal operation message without code", errors.New("illegal operation on a closed cursor"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsNotSupported(tt.err); got != tt.want {
				t.Errorf("IsNotSupported(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestRun(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	coll := db.Collection("txn_probe")
	err := Run(ctx, db, zap.NewNop(), func(ctx context.Context) error {
		_, err := coll.InsertOne(ctx, bson.M{"k": "committed"})
		return err
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if n, _ := coll.CountDocuments(ctx, bson.M{"k": "committed"}); n != 1 {
		t.Errorf("committed docs = %d, want 1", n)
	}

	boom := errors.New("boom")
	err = Run(ctx, db, nil, func(ctx context.Context) error { return boom })
	if !errors.Is(err, boom) {
		t.Errorf("Run error = %v, want boom", err)
	}
}
