package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/tableside/tableside-app/auth"
	"github.com/tableside/tableside-app/models"
	"github.com/tableside/tableside-app/services"
	"github.com/tableside/tableside-app/utils"
)

type UserController struct {
	DB       *gorm.DB
	Identity *services.IdentityService
}

func NewUserController(db *gorm.DB, identity *services.IdentityService) *UserController {
	return &UserController{DB: db, Identity: identity}
}

// Register -> creates an account. Everyone starts as a plain user; staff
// roles are granted through restaurant memberships.
func (uc *UserController) Register(c *gin.Context) {
	type request struct {
		Name     string `json:"name" binding:"required"`
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required,min=8"`
	}
	var req request
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	user := models.User{
		Name:     req.Name,
		Email:    req.Email,
		Password: string(hashed),
		Role:     auth.RoleUser,
	}
	if err := uc.DB.Create(&user).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.InfoLogger.Printf("New user registered: %s", user.Email)
	utils.RespondJSON(c, http.StatusCreated, "User registered", gin.H{
		"user_id": user.ID,
	})
}

// Login -> verifies credentials, opens a session row and returns a JWT
// bound to it.
func (uc *UserController) Login(c *gin.Context) {
	var input struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var user models.User
	if err := uc.DB.Where("email = ?", input.Email).First(&user).Error; err != nil {
		utils.RespondError(c, http.StatusUnauthorized, errors.New("invalid credentials"))
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(input.Password)); err != nil {
		utils.RespondError(c, http.StatusUnauthorized, errors.New("invalid credentials"))
		return
	}

	sessionID := uuid.NewString()
	if err := uc.Identity.OpenSession(sessionID, user.ID); err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	token, err := utils.GenerateToken(user.ID, user.Role, sessionID)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.InfoLogger.Printf("Login successful for %s", user.Email)
	utils.RespondJSON(c, http.StatusOK, "Login successful", gin.H{
		"token":     token,
		"user_role": user.Role,
	})
}

// Logout -> revokes the presented token.
func (uc *UserController) Logout(c *gin.Context) {
	token := c.GetString("token")
	if token != "" {
		utils.BlacklistToken(token)
	}
	utils.RespondJSON(c, http.StatusOK, "Logged out", nil)
}

// GetProfile -> the principal plus the permission set their role grants,
// so the UI can decide which actions to show.
func (uc *UserController) GetProfile(c *gin.Context) {
	ident, err := resolveIdentityAllowNoTenant(c, uc.Identity)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}

	role := ident.User.Role
	var active interface{}
	if ident.Membership != nil {
		role = ident.User.RoleIn(ident.Membership.RestaurantID)
		active = ident.Membership
	}

	utils.RespondJSON(c, http.StatusOK, "Profile data retrieved successfully", gin.H{
		"id":                ident.User.ID,
		"name":              ident.User.Name,
		"email":             ident.User.Email,
		"role":              role,
		"permissions":       auth.PermissionsFor(role),
		"active_restaurant": active,
		"memberships":       ident.User.Memberships,
	})
}

// GetAllUsers -> staff roster for the active restaurant.
func (uc *UserController) GetAllUsers(c *gin.Context) {
	ident, err := resolveIdentity(c, uc.Identity)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}

	var memberships []models.Membership
	if err := uc.DB.Where("restaurant_id = ?", ident.Membership.RestaurantID).Find(&memberships).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of members", memberships)
}

// resolveIdentityAllowNoTenant is resolveIdentity minus the requirement of
// belonging to a restaurant; the profile endpoint works before onboarding.
func resolveIdentityAllowNoTenant(c *gin.Context, identity *services.IdentityService) (*requestIdentity, error) {
	ident, err := resolveIdentity(c, identity)
	if err == nil {
		return ident, nil
	}

	userVal, exists := c.Get("user")
	if !exists {
		return nil, err
	}
	user := userVal.(*models.User)
	if len(user.Memberships) == 0 {
		return &requestIdentity{User: user}, nil
	}
	return nil, err
}
