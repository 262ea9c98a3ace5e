// Package policy holds the authorization rules for products as pure
// predicates over (actor, product) pairs. The acting user's role and
// capability set are resolved once per request by the JWT middleware
// and passed in explicitly; nothing here reads ambient state.
package policy

import "katalog/internal/models"

// Capabilities granted through roles.
const (
	CapManageProducts = "manage products"
	CapCreateProducts = "create products"
	CapEditProducts   = "edit products"
	CapDeleteProducts = "delete products"
	CapViewProducts   = "view products"
	CapManageUsers    = "manage users"
)

// Actor is the authenticated user as seen by the authorization layer.
type Actor struct {
	ID           string
	Role         string
	Capabilities map[string]bool
}

// Can reports whether the actor holds the named capability.
func (a Actor) Can(capability string) bool {
	return a.Capabilities[capability]
}

// CapabilitiesForRole resolves the capability set attached to a role.
// Administrators hold every capability; standard users may view and
// create products and edit or delete their own (the own-record check
// lives in CanModify, not here).
func CapabilitiesForRole(role string) map[string]bool {
	switch role {
	case models.RoleAdmin:
		return map[string]bool{
			CapManageProducts: true,
			CapCreateProducts: true,
			CapEditProducts:   true,
			CapDeleteProducts: true,
			CapViewProducts:   true,
			CapManageUsers:    true,
		}
	default:
		return map[string]bool{
			CapViewProducts:   true,
			CapCreateProducts: true,
			CapEditProducts:   true,
			CapDeleteProducts: true,
		}
	}
}

// NewActor builds an Actor from an authenticated user's identity and
// role, resolving the capability set once.
func NewActor(id, role string) Actor {
	return Actor{ID: id, Role: role, Capabilities: CapabilitiesForRole(role)}
}

// CanViewList reports whether the actor may list products. Any
// authenticated user may.
func CanViewList(a Actor) bool {
	return true
}

// CanView reports whether the actor may view a single product. Reads
// carry no owner restriction.
func CanView(a Actor, p models.Product) bool {
	return true
}

// CanCreate reports whether the actor may create a product.
func CanCreate(a Actor) bool {
	return a.Can(CapManageProducts) || a.Can(CapCreateProducts) || a.Role == models.RoleAdmin
}

// CanModify is the single ownership rule for write access: an
// administrator, a holder of the manage-products capability, or the
// product's owner. CanUpdate and CanDelete both reduce to it so the
// mutation boundary and the edit/delete control visibility can never
// drift apart.
func CanModify(a Actor, p models.Product) bool {
	if a.Role == models.RoleAdmin || a.Can(CapManageProducts) {
		return true
	}
	return p.UserID == a.ID
}

// CanUpdate reports whether the actor may update the product.
func CanUpdate(a Actor, p models.Product) bool {
	return CanModify(a, p)
}

// CanDelete reports whether the actor may delete the product. Owners
// may remove their own listings, same as update.
func CanDelete(a Actor, p models.Product) bool {
	return CanModify(a, p)
}
