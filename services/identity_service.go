package services

import (
	"errors"
	"time"

	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"

	"github.com/tableside/tableside-app/apperrors"
	"github.com/tableside/tableside-app/auth"
	"github.com/tableside/tableside-app/models"
	"github.com/tableside/tableside-app/utils"
)

// IdentityService resolves the authenticated principal and tracks which
// restaurant a login is currently operating as. The active restaurant is
// session state, not identity state: it lives in a UserSession row keyed by
// the session id inside the JWT, so a reload resumes the same restaurant
// without re-authentication.
type IdentityService struct {
	DB    *gorm.DB
	group singleflight.Group
}

func NewIdentityService(db *gorm.DB) *IdentityService {
	return &IdentityService{DB: db}
}

// ResolvePrincipal loads the user with their memberships. Concurrent
// requests for the same session share one in-flight lookup instead of each
// hitting the database.
func (is *IdentityService) ResolvePrincipal(claims *utils.CustomClaims) (*models.User, error) {
	v, err, _ := is.group.Do(claims.SessionID, func() (interface{}, error) {
		var user models.User
		err := is.DB.Preload("Memberships.Restaurant").First(&user, claims.UserID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUnauthorized.WithMessage("account no longer exists")
		}
		if err != nil {
			return nil, err
		}
		return &user, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.User), nil
}

// OpenSession creates the durable per-login session row at login time.
func (is *IdentityService) OpenSession(sessionID string, userID uint) error {
	now := time.Now()
	session := models.UserSession{
		ID:        sessionID,
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return is.DB.Create(&session).Error
}

// ActiveTenant returns the membership the session is operating under. When
// none was explicitly selected it falls back to the user's first
// membership; nil means the user belongs to no restaurant yet and must be
// sent to the restaurant-creation flow.
func (is *IdentityService) ActiveTenant(user *models.User, sessionID string) (*models.Membership, error) {
	if len(user.Memberships) == 0 {
		return nil, nil
	}

	var session models.UserSession
	err := is.DB.First(&session, "id = ?", sessionID).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if err == nil && session.ActiveRestaurantID != nil {
		for i := range user.Memberships {
			if user.Memberships[i].RestaurantID == *session.ActiveRestaurantID {
				return &user.Memberships[i], nil
			}
		}
		// Selection points at a restaurant the user has since left; fall
		// through to the default.
	}
	return &user.Memberships[0], nil
}

// SetActiveTenant switches the session to another restaurant the user
// belongs to. The choice persists for the lifetime of the session.
func (is *IdentityService) SetActiveTenant(user *models.User, sessionID string, restaurantID uint) error {
	if !user.MemberOf(restaurantID) {
		return apperrors.ErrNotAMember
	}

	session := models.UserSession{ID: sessionID, UserID: user.ID, CreatedAt: time.Now()}
	if err := is.DB.FirstOrCreate(&session, "id = ?", sessionID).Error; err != nil {
		return err
	}
	session.ActiveRestaurantID = &restaurantID
	session.UpdatedAt = time.Now()
	if err := is.DB.Save(&session).Error; err != nil {
		return err
	}

	utils.InfoLogger.Printf("User %d switched active restaurant to %d", user.ID, restaurantID)
	return nil
}

// Authorize answers whether the principal may perform the action inside
// the given restaurant, using the role they hold there.
func (is *IdentityService) Authorize(user *models.User, restaurantID uint, perm auth.Permission) bool {
	return auth.HasPermission(user.RoleIn(restaurantID), perm)
}

// CreateRestaurant opens a new tenant and makes the creator its manager.
func (is *IdentityService) CreateRestaurant(user *models.User, name, slug, address string) (*models.Restaurant, error) {
	restaurant := models.Restaurant{Name: name, Slug: slug, Address: address}
	err := is.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&restaurant).Error; err != nil {
			return err
		}
		membership := models.Membership{
			UserID:       user.ID,
			RestaurantID: restaurant.ID,
			DisplayName:  restaurant.Name,
			Role:         auth.RoleManager,
		}
		return tx.Create(&membership).Error
	})
	if err != nil {
		return nil, err
	}

	utils.InfoLogger.Printf("Restaurant %q created by user %d", name, user.ID)
	return &restaurant, nil
}
