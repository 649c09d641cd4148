// internal/app/system/authz/authz.go
package authz

import (
	"net/http"

	"github.com/dalemusser/shopkeep/internal/app/system/auth"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserCtx returns the signed-in user's ID as a Mongo ObjectID and a found
// flag. If no user is present or the ID is malformed it returns
// NilObjectID, false, so ok=true means a usable identity.
func UserCtx(r *http.Request) (userID primitive.ObjectID, ok bool) {
	user, ok := auth.CurrentUser(r)
	if !ok {
		return primitive.NilObjectID, false
	}
	userID, err := primitive.ObjectIDFromHex(user.ID)
	if err != nil {
		return primitive.NilObjectID, false
	}
	return userID, true
}

// ActorID is the ID recorded as the author of a mutation. Requests without
// a usable identity are attributed to the system (NilObjectID).
func ActorID(r *http.Request) primitive.ObjectID {
	id, _ := UserCtx(r)
	return id
}

// RawUserID returns the identity string as the auth layer supplied it,
// without validating its format.
func RawUserID(r *http.Request) (string, bool) {
	user, ok := auth.CurrentUser(r)
	if !ok || user.ID == "" {
		return "", false
	}
	return user.ID, true
}
