package policy_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"katalog/internal/models"
	"katalog/internal/policy"
)

func TestCapabilitiesForRole(t *testing.T) {
	admin := policy.CapabilitiesForRole(models.RoleAdmin)
	assert.True(t, admin[policy.CapManageProducts])
	assert.True(t, admin[policy.CapManageUsers])

	user := policy.CapabilitiesForRole(models.RoleUser)
	assert.False(t, user[policy.CapManageProducts])
	assert.False(t, user[policy.CapManageUsers])
	assert.True(t, user[policy.CapViewProducts])
	assert.True(t, user[policy.CapCreateProducts])
	assert.True(t, user[policy.CapEditProducts])
	assert.True(t, user[policy.CapDeleteProducts])
}

func TestViewPredicates(t *testing.T) {
	user := policy.NewActor("user-1", models.RoleUser)
	someoneElses := models.Product{ID: "p-1", UserID: "user-2"}

	assert.True(t, policy.CanViewList(user))
	assert.True(t, policy.CanView(user, someoneElses))
}

func TestCanCreate(t *testing.T) {
	assert.True(t, policy.CanCreate(policy.NewActor("user-1", models.RoleAdmin)))
	assert.True(t, policy.CanCreate(policy.NewActor("user-2", models.RoleUser)))

	// An actor stripped of every capability may not create.
	bare := policy.Actor{ID: "user-3", Role: models.RoleUser, Capabilities: map[string]bool{}}
	assert.False(t, policy.CanCreate(bare))
}

// CanModify is the single ownership rule; all four (admin, owner)
// combinations are pinned here, and CanUpdate/CanDelete must agree
// with it so the mutation boundary and the edit/delete control
// visibility can never diverge.
func TestCanModify_AllCombinations(t *testing.T) {
	product := models.Product{ID: "p-1", UserID: "owner-1"}

	cases := []struct {
		name     string
		actor    policy.Actor
		expected bool
	}{
		{"admin owner", policy.NewActor("owner-1", models.RoleAdmin), true},
		{"admin non-owner", policy.NewActor("other", models.RoleAdmin), true},
		{"non-admin owner", policy.NewActor("owner-1", models.RoleUser), true},
		{"non-admin non-owner", policy.NewActor("other", models.RoleUser), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, policy.CanModify(tc.actor, product))
			assert.Equal(t, tc.expected, policy.CanUpdate(tc.actor, product))
			assert.Equal(t, tc.expected, policy.CanDelete(tc.actor, product))
		})
	}
}

func TestCanModify_ManageProductsCapability(t *testing.T) {
	product := models.Product{ID: "p-1", UserID: "owner-1"}

	moderator := policy.Actor{
		ID:           "mod-1",
		Role:         models.RoleUser,
		Capabilities: map[string]bool{policy.CapManageProducts: true},
	}
	assert.True(t, policy.CanModify(moderator, product))
	assert.True(t, policy.CanDelete(moderator, product))
}
