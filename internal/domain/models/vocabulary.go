// internal/domain/models/vocabulary.go
package models

import (
	"fmt"
	"strings"
)

// Resource is a domain noun that permissions are granted on.
// The set is closed: anything outside it is rejected by ParseResource.
type Resource string

const (
	ResourceUsers             Resource = "users"
	ResourceProducts          Resource = "products"
	ResourceCategories        Resource = "categories"
	ResourceOrders            Resource = "orders"
	ResourceCoupons           Resource = "coupons"
	ResourceContent           Resource = "content"
	ResourceReports           Resource = "reports"
	ResourceCompanySettings   Resource = "company-settings"
	ResourceShippingAddresses Resource = "shipping-addresses"
	ResourceCourier           Resource = "courier"
)

// Action is a verb applied to a Resource.
type Action string

const (
	ActionCreate Action = "create"
	ActionRead   Action = "read"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
	ActionManage Action = "manage"
)

// Resources lists every known resource in catalog order.
func Resources() []Resource {
	return []Resource{
		ResourceUsers,
		ResourceProducts,
		ResourceCategories,
		ResourceOrders,
		ResourceCoupons,
		ResourceContent,
		ResourceReports,
		ResourceCompanySettings,
		ResourceShippingAddresses,
		ResourceCourier,
	}
}

// Actions lists every known action.
func Actions() []Action {
	return []Action{ActionCreate, ActionRead, ActionUpdate, ActionDelete, ActionManage}
}

// ParseResource normalizes s and returns the matching Resource.
func ParseResource(s string) (Resource, error) {
	want := Resource(strings.ToLower(strings.TrimSpace(s)))
	for _, r := range Resources() {
		if r == want {
			return r, nil
		}
	}
	return "", fmt.Errorf("unknown resource %q", s)
}

// ParseAction normalizes s and returns the matching Action.
func ParseAction(s string) (Action, error) {
	want := Action(strings.ToLower(strings.TrimSpace(s)))
	for _, a := range Actions() {
		if a == want {
			return a, nil
		}
	}
	return "", fmt.Errorf("unknown action %q", s)
}

// Valid reports whether r is exactly one of the known resources.
func (r Resource) Valid() bool {
	for _, known := range Resources() {
		if r == known {
			return true
		}
	}
	return false
}

// Valid reports whether a is exactly one of the known actions.
func (a Action) Valid() bool {
	for _, known := range Actions() {
		if a == known {
			return true
		}
	}
	return false
}

// Capability is a (resource, action) pair, the unit a route requires.
type Capability struct {
	Resource Resource `json:"resource"`
	Action   Action   `json:"action"`
}

// Cap is shorthand for building a Capability at route registration.
func Cap(r Resource, a Action) Capability {
	return Capability{Resource: r, Action: a}
}

// String renders the capability as "resource:action".
func (c Capability) String() string {
	return string(c.Resource) + ":" + string(c.Action)
}

// ParseCapability parses "resource:action".
func ParseCapability(s string) (Capability, error) {
	res, act, ok := strings.Cut(s, ":")
	if !ok {
		return Capability{}, fmt.Errorf("capability %q must look like resource:action", s)
	}
	r, err := ParseResource(res)
	if err != nil {
		return Capability{}, err
	}
	a, err := ParseAction(act)
	if err != nil {
		return Capability{}, err
	}
	return Capability{Resource: r, Action: a}, nil
}
