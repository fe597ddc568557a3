package services_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"github.com/tableside/tableside-app/apperrors"
	"github.com/tableside/tableside-app/auth"
	"github.com/tableside/tableside-app/models"
	"github.com/tableside/tableside-app/services"
	"github.com/tableside/tableside-app/utils"
)

func seedUserWithMemberships(t *testing.T, db *gorm.DB, restaurants ...string) (*models.User, []models.Restaurant) {
	t.Helper()
	user := models.User{Name: "Sam", Email: "sam@example.com", Password: "x", Role: auth.RoleUser}
	assert.NoError(t, db.Create(&user).Error)

	seeded := make([]models.Restaurant, 0, len(restaurants))
	for _, name := range restaurants {
		r := models.Restaurant{Name: name, Slug: name}
		assert.NoError(t, db.Create(&r).Error)
		m := models.Membership{UserID: user.ID, RestaurantID: r.ID, Role: auth.RoleStaff}
		assert.NoError(t, db.Create(&m).Error)
		seeded = append(seeded, r)
	}

	var loaded models.User
	assert.NoError(t, db.Preload("Memberships.Restaurant").First(&loaded, user.ID).Error)
	return &loaded, seeded
}

func TestActiveTenantDefaultsToFirstMembership(t *testing.T) {
	db := setupTestDB(t)
	identity := services.NewIdentityService(db)
	user, restaurants := seedUserWithMemberships(t, db, "north", "south")

	membership, err := identity.ActiveTenant(user, "sess-1")
	assert.NoError(t, err)
	assert.NotNil(t, membership)
	assert.Equal(t, restaurants[0].ID, membership.RestaurantID)
}

func TestActiveTenantNilWithoutMemberships(t *testing.T) {
	db := setupTestDB(t)
	identity := services.NewIdentityService(db)
	user, _ := seedUserWithMemberships(t, db)

	membership, err := identity.ActiveTenant(user, "sess-1")
	assert.NoError(t, err)
	assert.Nil(t, membership)
}

func TestSetActiveTenantPersistsAcrossLookups(t *testing.T) {
	db := setupTestDB(t)
	identity := services.NewIdentityService(db)
	user, restaurants := seedUserWithMemberships(t, db, "north", "south")

	assert.NoError(t, identity.OpenSession("sess-1", user.ID))
	assert.NoError(t, identity.SetActiveTenant(user, "sess-1", restaurants[1].ID))

	membership, err := identity.ActiveTenant(user, "sess-1")
	assert.NoError(t, err)
	assert.Equal(t, restaurants[1].ID, membership.RestaurantID)

	// A different session for the same user keeps its own default.
	other, err := identity.ActiveTenant(user, "sess-2")
	assert.NoError(t, err)
	assert.Equal(t, restaurants[0].ID, other.RestaurantID)
}

func TestSetActiveTenantRejectsForeignRestaurant(t *testing.T) {
	db := setupTestDB(t)
	identity := services.NewIdentityService(db)
	user, _ := seedUserWithMemberships(t, db, "north")

	stranger := models.Restaurant{Name: "elsewhere", Slug: "elsewhere"}
	assert.NoError(t, db.Create(&stranger).Error)

	err := identity.SetActiveTenant(user, "sess-1", stranger.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotAMember)
}

func TestStaleSelectionFallsBackToDefault(t *testing.T) {
	db := setupTestDB(t)
	identity := services.NewIdentityService(db)
	user, restaurants := seedUserWithMemberships(t, db, "north", "south")

	assert.NoError(t, identity.OpenSession("sess-1", user.ID))
	assert.NoError(t, identity.SetActiveTenant(user, "sess-1", restaurants[1].ID))

	// The user leaves the selected restaurant.
	assert.NoError(t, db.Where("user_id = ? AND restaurant_id = ?", user.ID, restaurants[1].ID).
		Delete(&models.Membership{}).Error)
	var reloaded models.User
	assert.NoError(t, db.Preload("Memberships.Restaurant").First(&reloaded, user.ID).Error)

	membership, err := identity.ActiveTenant(&reloaded, "sess-1")
	assert.NoError(t, err)
	assert.Equal(t, restaurants[0].ID, membership.RestaurantID)
}

func TestResolvePrincipalLoadsMemberships(t *testing.T) {
	db := setupTestDB(t)
	identity := services.NewIdentityService(db)
	user, _ := seedUserWithMemberships(t, db, "north")

	claims := &utils.CustomClaims{UserID: user.ID, Role: user.Role, SessionID: "sess-1"}
	resolved, err := identity.ResolvePrincipal(claims)
	assert.NoError(t, err)
	assert.Equal(t, user.Email, resolved.Email)
	assert.Len(t, resolved.Memberships, 1)
	assert.Equal(t, "north", resolved.Memberships[0].Restaurant.Name)
}

func TestResolvePrincipalUnknownUser(t *testing.T) {
	db := setupTestDB(t)
	identity := services.NewIdentityService(db)

	claims := &utils.CustomClaims{UserID: 9999, SessionID: "sess-x"}
	_, err := identity.ResolvePrincipal(claims)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestCreateRestaurantMakesCreatorManager(t *testing.T) {
	db := setupTestDB(t)
	identity := services.NewIdentityService(db)
	user, _ := seedUserWithMemberships(t, db)

	restaurant, err := identity.CreateRestaurant(user, "Brand New", "brand-new", "1 Main St")
	assert.NoError(t, err)
	assert.NotZero(t, restaurant.ID)

	var membership models.Membership
	assert.NoError(t, db.First(&membership, "user_id = ? AND restaurant_id = ?", user.ID, restaurant.ID).Error)
	assert.Equal(t, auth.RoleManager, membership.Role)
	assert.True(t, identity.Authorize(&models.User{
		ID: user.ID, Role: user.Role,
		Memberships: []models.Membership{membership},
	}, restaurant.ID, auth.PermManageTables))
}
