package rbac

import (
	"context"

	"github.com/dalemusser/shopkeep/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// memStore is an in-memory ledger, registry and identity source for unit
// tests of the engine and ledger.
type memStore struct {
	rows       []models.UserRoleAssignment
	roles      map[primitive.ObjectID]models.RoleView
	identities map[primitive.ObjectID]models.IdentityKind

	err error // returned by every read when set

	// insertConflicts makes the next n Insert calls fail as if a
	// concurrent grant took the active slot.
	insertConflicts int
	inserts         int
}

func newMemStore() *memStore {
	return &memStore{
		roles:      map[primitive.ObjectID]models.RoleView{},
		identities: map[primitive.ObjectID]models.IdentityKind{},
	}
}

func (m *memStore) addRole(name string, active bool, perms ...models.Permission) models.RoleView {
	v := models.RoleView{
		Role:        models.Role{ID: primitive.NewObjectID(), Name: name, IsActive: active},
		Permissions: perms,
	}
	for _, p := range perms {
		v.PermissionIDs = append(v.PermissionIDs, p.ID)
	}
	m.roles[v.ID] = v
	return v
}

func (m *memStore) activate(userID, roleID primitive.ObjectID) {
	m.rows = append(m.rows, models.UserRoleAssignment{
		ID: primitive.NewObjectID(), UserID: userID, RoleID: roleID, IsActive: true,
	})
}

func perm(r models.Resource, a models.Action) models.Permission {
	return models.Permission{ID: primitive.NewObjectID(), Name: string(r) + ":" + string(a), Resource: r, Action: a}
}

func (m *memStore) ListActiveByUser(_ context.Context, userID primitive.ObjectID) ([]models.UserRoleAssignment, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []models.UserRoleAssignment
	for _, a := range m.rows {
		if a.UserID == userID && a.IsActive {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *memStore) ListByUser(_ context.Context, userID primitive.ObjectID) ([]models.UserRoleAssignment, error) {
	var out []models.UserRoleAssignment
	for i := len(m.rows) - 1; i >= 0; i-- {
		if m.rows[i].UserID == userID {
			out = append(out, m.rows[i])
		}
	}
	return out, nil
}

func (m *memStore) ListActiveViewsByIDs(_ context.Context, ids []primitive.ObjectID) ([]models.RoleView, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []models.RoleView
	for _, id := range ids {
		if v, ok := m.roles[id]; ok && v.IsActive {
			out = append(out, v)
		}
	}
	return out, nil
}

func (m *memStore) GetByID(_ context.Context, id primitive.ObjectID) (models.Role, error) {
	v, ok := m.roles[id]
	if !ok {
		return models.Role{}, errNoDocs
	}
	return v.Role, nil
}

func (m *memStore) Kind(_ context.Context, id primitive.ObjectID) (models.IdentityKind, error) {
	if m.err != nil {
		return models.IdentityNone, m.err
	}
	return m.identities[id], nil
}

func (m *memStore) IsAdministrative(_ context.Context, id primitive.ObjectID) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	k := m.identities[id]
	return k == models.IdentityAdmin || k == models.IdentityUser, nil
}

func (m *memStore) Insert(_ context.Context, a models.UserRoleAssignment) (models.UserRoleAssignment, error) {
	m.inserts++
	if m.insertConflicts > 0 {
		m.insertConflicts--
		return models.UserRoleAssignment{}, errActiveExists
	}
	a.ID = primitive.NewObjectID()
	a.IsActive = true
	m.rows = append(m.rows, a)
	return a, nil
}

func (m *memStore) DeactivateActiveByUser(_ context.Context, userID, _ primitive.ObjectID) ([]primitive.ObjectID, error) {
	var ids []primitive.ObjectID
	for i := range m.rows {
		if m.rows[i].UserID == userID && m.rows[i].IsActive {
			m.rows[i].IsActive = false
			ids = append(ids, m.rows[i].RoleID)
		}
	}
	return ids, nil
}

func (m *memStore) DeactivateByUserRole(_ context.Context, userID, roleID, _ primitive.ObjectID) (int64, error) {
	var n int64
	for i := range m.rows {
		if m.rows[i].UserID == userID && m.rows[i].RoleID == roleID && m.rows[i].IsActive {
			m.rows[i].IsActive = false
			n++
		}
	}
	return n, nil
}
