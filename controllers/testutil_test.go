package controllers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tableside/tableside-app/auth"
	"github.com/tableside/tableside-app/models"
	"github.com/tableside/tableside-app/router"
	"github.com/tableside/tableside-app/utils"
)

// newTestServer spins up the full router against an in-memory database
// seeded with one restaurant, one table and a small menu.
func newTestServer(t *testing.T) (*gorm.DB, *gin.Engine) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	utils.InitLogger()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	assert.NoError(t, err)

	err = db.AutoMigrate(
		&models.User{},
		&models.Membership{},
		&models.Restaurant{},
		&models.UserSession{},
		&models.Table{},
		&models.TableStatusEvent{},
		&models.MenuItem{},
		&models.Order{},
		&models.OrderItem{},
		&models.OrderStatusEvent{},
	)
	assert.NoError(t, err)

	restaurant := models.Restaurant{Name: "Testaurant", Slug: "testaurant"}
	assert.NoError(t, db.Create(&restaurant).Error)
	assert.NoError(t, db.Create(&models.Table{
		RestaurantID: restaurant.ID, Number: "5", Capacity: 4, Status: models.TableAvailable,
	}).Error)
	assert.NoError(t, db.Create(&models.MenuItem{
		RestaurantID: restaurant.ID, Name: "Burger", Price: 12.99, Available: true,
	}).Error)
	assert.NoError(t, db.Create(&models.MenuItem{
		RestaurantID: restaurant.ID, Name: "Fries", Price: 4.99, Available: true,
	}).Error)

	return db, router.SetupRouter(db)
}

// loginAs registers a fresh account over HTTP, grants it the given role in
// the seeded restaurant and returns a bearer token.
func loginAs(t *testing.T, db *gorm.DB, r *gin.Engine, email, role string) string {
	t.Helper()

	w := doJSON(r, http.MethodPost, "/register", gin.H{
		"name":     "Test " + role,
		"email":    email,
		"password": "secret-password",
	}, "")
	assert.Equal(t, http.StatusCreated, w.Code)

	var restaurant models.Restaurant
	assert.NoError(t, db.First(&restaurant, "slug = ?", "testaurant").Error)
	var user models.User
	assert.NoError(t, db.First(&user, "email = ?", email).Error)
	assert.NoError(t, db.Create(&models.Membership{
		UserID: user.ID, RestaurantID: restaurant.ID, Role: role,
	}).Error)

	w = doJSON(r, http.MethodPost, "/login", gin.H{
		"email":    email,
		"password": "secret-password",
	}, "")
	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Data.Token)
	return resp.Data.Token
}

func doJSON(r *gin.Engine, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// directUser inserts a user without going through the register endpoint,
// for tests that need a password hash but no memberships.
func directUser(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte("secret-password"), bcrypt.DefaultCost)
	assert.NoError(t, err)
	user := models.User{Name: "Loner", Email: email, Password: string(hashed), Role: auth.RoleUser}
	assert.NoError(t, db.Create(&user).Error)
	return &user
}
