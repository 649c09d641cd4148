// Package rbac implements role-based access control over the permission
// catalog, the role registry and the user-role assignment ledger.
//
// Services take and return domain models. Store errors are translated into
// *Error values whose kind is one of ErrValidation, ErrNotFound,
// ErrDuplicate or ErrDecisionFailure.
//
// The decision engine never grants on error: a store failure or timeout
// yields a Decision with Granted=false and Err set.
package rbac
