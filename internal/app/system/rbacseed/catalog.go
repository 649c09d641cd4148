// Package rbacseed populates the permission catalog and the standard roles
// and hands administrators their initial role.
package rbacseed

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"github.com/dalemusser/shopkeep/internal/domain/models"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// PermissionSpec is one catalog entry.
type PermissionSpec struct {
	Resource    models.Resource `yaml:"resource"`
	Action      models.Action   `yaml:"action"`
	Name        string          `yaml:"name"`
	Description string          `yaml:"description"`
}

// RoleSpec names a standard role.
type RoleSpec struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

// StandardRoles are the four roles computed from the catalog.
type StandardRoles struct {
	SuperAdmin RoleSpec `yaml:"super_admin"`
	Admin      RoleSpec `yaml:"admin"`
	Manager    RoleSpec `yaml:"manager"`
	Viewer     RoleSpec `yaml:"viewer"`
}

// AdminAssignments maps administrator emails to role names.
type AdminAssignments struct {
	DefaultRole string            `yaml:"default_role"`
	ByEmail     map[string]string `yaml:"by_email"`
}

// RoleFor returns the role name for an administrator's email.
func (a AdminAssignments) RoleFor(email string) string {
	if name, ok := a.ByEmail[strings.ToLower(strings.TrimSpace(email))]; ok {
		return name
	}
	return a.DefaultRole
}

// Catalog is the parsed seed file.
type Catalog struct {
	Permissions      []PermissionSpec `yaml:"permissions"`
	Roles            StandardRoles    `yaml:"roles"`
	AdminDenylist    []string         `yaml:"admin_denylist"`
	AdminAssignments AdminAssignments `yaml:"admin_assignments"`

	denied map[models.Capability]bool
}

// Default returns the embedded catalog.
func Default() (*Catalog, error) {
	return Parse(defaultCatalog)
}

// LoadFile parses a catalog from disk.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed catalog: %w", err)
	}
	return Parse(data)
}

// Parse decodes and checks a catalog: every resource and action must be
// known, capabilities and names must be unique, and the denylist must
// name catalog entries.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse seed catalog: %w", err)
	}

	caps := make(map[models.Capability]bool, len(c.Permissions))
	names := make(map[string]bool, len(c.Permissions))
	for i, p := range c.Permissions {
		if !p.Resource.Valid() {
			return nil, fmt.Errorf("seed catalog entry %d: unknown resource %q", i, p.Resource)
		}
		if !p.Action.Valid() {
			return nil, fmt.Errorf("seed catalog entry %d: unknown action %q", i, p.Action)
		}
		if strings.TrimSpace(p.Name) == "" {
			return nil, fmt.Errorf("seed catalog entry %d: name is required", i)
		}
		cp := models.Cap(p.Resource, p.Action)
		if caps[cp] {
			return nil, fmt.Errorf("seed catalog: duplicate capability %s", cp)
		}
		if names[p.Name] {
			return nil, fmt.Errorf("seed catalog: duplicate name %q", p.Name)
		}
		caps[cp] = true
		names[p.Name] = true
	}

	c.denied = make(map[models.Capability]bool, len(c.AdminDenylist))
	for _, s := range c.AdminDenylist {
		cp, err := models.ParseCapability(s)
		if err != nil {
			return nil, fmt.Errorf("seed catalog denylist: %w", err)
		}
		if !caps[cp] {
			return nil, fmt.Errorf("seed catalog denylist: %s is not in the catalog", cp)
		}
		c.denied[cp] = true
	}

	for _, r := range []RoleSpec{c.Roles.SuperAdmin, c.Roles.Admin, c.Roles.Manager, c.Roles.Viewer} {
		if strings.TrimSpace(r.Name) == "" {
			return nil, fmt.Errorf("seed catalog: every standard role needs a name")
		}
	}
	if c.AdminAssignments.DefaultRole == "" {
		c.AdminAssignments.DefaultRole = c.Roles.Admin.Name
	}
	byEmail := make(map[string]string, len(c.AdminAssignments.ByEmail))
	for email, role := range c.AdminAssignments.ByEmail {
		byEmail[strings.ToLower(strings.TrimSpace(email))] = role
	}
	c.AdminAssignments.ByEmail = byEmail

	return &c, nil
}

// AdminDenied reports whether the Admin role must not hold c.
func (c *Catalog) AdminDenied(cp models.Capability) bool {
	return c.denied[cp]
}
