package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tableside/tableside-app/auth"
	"github.com/tableside/tableside-app/models"
	"github.com/tableside/tableside-app/router"
	"github.com/tableside/tableside-app/utils"
)

// TestFullServiceFlow walks one table through a complete visit: two guests
// scan the QR code, build a shared cart, staff commit it, the kitchen
// advances the order and the table frees itself for the next party.
func TestFullServiceFlow(t *testing.T) {
	gin.SetMode(gin.TestMode)
	utils.InitLogger()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	assert.NoError(t, err)
	assert.NoError(t, db.AutoMigrate(
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
	))

	restaurant := models.Restaurant{Name: "Corner Bistro", Slug: "corner-bistro"}
	assert.NoError(t, db.Create(&restaurant).Error)
	table := models.Table{RestaurantID: restaurant.ID, Number: "5", Capacity: 4, Status: models.TableAvailable}
	assert.NoError(t, db.Create(&table).Error)
	burger := models.MenuItem{RestaurantID: restaurant.ID, Name: "Burger", Price: 12.99, Available: true}
	fries := models.MenuItem{RestaurantID: restaurant.ID, Name: "Fries", Price: 4.99, Available: true}
	assert.NoError(t, db.Create(&burger).Error)
	assert.NoError(t, db.Create(&fries).Error)

	r := router.SetupRouter(db)
	do := func(method, path string, body interface{}, token string) *httptest.ResponseRecorder {
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

	// Staff account for the kitchen side.
	w := do(http.MethodPost, "/register", gin.H{
		"name": "Pat", "email": "pat@example.com", "password": "secret-password",
	}, "")
	assert.Equal(t, http.StatusCreated, w.Code)
	var pat models.User
	assert.NoError(t, db.First(&pat, "email = ?", "pat@example.com").Error)
	assert.NoError(t, db.Create(&models.Membership{
		UserID: pat.ID, RestaurantID: restaurant.ID, Role: auth.RoleStaff,
	}).Error)

	w = do(http.MethodPost, "/login", gin.H{
		"email": "pat@example.com", "password": "secret-password",
	}, "")
	assert.Equal(t, http.StatusOK, w.Code)
	var login struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &login))
	staffToken := login.Data.Token

	// Alice and Bob scan the table's QR code.
	type scanResp struct {
		Data struct {
			Contributor struct {
				ID string `json:"id"`
			} `json:"contributor"`
		} `json:"data"`
	}
	scan := func(name string) string {
		w := do(http.MethodGet, fmt.Sprintf("/tables/%d/scan?name=%s", table.ID, name), nil, "")
		assert.Equal(t, http.StatusOK, w.Code)
		var resp scanResp
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		return resp.Data.Contributor.ID
	}
	alice := scan("Alice")
	bob := scan("Bob")

	// Alice orders a burger; the table seats itself.
	w = do(http.MethodPost, fmt.Sprintf("/tables/%d/cart/items", table.ID), gin.H{
		"contributor_id": alice, "contributor_name": "Alice",
		"menu_item_id": burger.ID, "quantity": 1, "client_ts": 1,
	}, "")
	assert.Equal(t, http.StatusOK, w.Code)

	var seated models.Table
	assert.NoError(t, db.First(&seated, table.ID).Error)
	assert.Equal(t, models.TableOccupied, seated.Status)

	// Bob adds fries twice, then thinks better of one.
	for ts := 2; ts <= 3; ts++ {
		w = do(http.MethodPost, fmt.Sprintf("/tables/%d/cart/items", table.ID), gin.H{
			"contributor_id": bob, "contributor_name": "Bob",
			"menu_item_id": fries.ID, "quantity": 1, "client_ts": ts,
		}, "")
		assert.Equal(t, http.StatusOK, w.Code)
	}
	w = do(http.MethodPost, fmt.Sprintf("/tables/%d/cart/items/remove", table.ID), gin.H{
		"contributor_id": bob, "contributor_name": "Bob",
		"menu_item_id": fries.ID, "quantity": 1, "client_ts": 4,
	}, "")
	assert.Equal(t, http.StatusOK, w.Code)

	// Staff see the merged cart: 1 burger + 1 fries.
	w = do(http.MethodGet, fmt.Sprintf("/admin/tables/%d/cart", table.ID), nil, staffToken)
	assert.Equal(t, http.StatusOK, w.Code)
	var cart struct {
		Data struct {
			SessionKey   string `json:"session_key"`
			Contributors []struct {
				ContributorName string `json:"contributor_name"`
			} `json:"contributors"`
			Total float64 `json:"total"`
		} `json:"data"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &cart))
	assert.Len(t, cart.Data.Contributors, 2)
	assert.InDelta(t, 17.98, cart.Data.Total, 0.001)

	// Staff commit the cart into one order.
	w = do(http.MethodPost, fmt.Sprintf("/admin/tables/%d/cart/commit", table.ID), nil, staffToken)
	assert.Equal(t, http.StatusCreated, w.Code)
	var committed struct {
		Data models.Order `json:"data"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &committed))
	assert.Equal(t, models.OrderPending, committed.Data.Status)
	assert.Len(t, committed.Data.Items, 2)

	// A late write against the committed session is refused.
	w = do(http.MethodPost, fmt.Sprintf("/tables/%d/cart/items", table.ID), gin.H{
		"session_key":    cart.Data.SessionKey,
		"contributor_id": bob, "contributor_name": "Bob",
		"menu_item_id": fries.ID, "quantity": 1, "client_ts": 5,
	}, "")
	assert.Equal(t, http.StatusGone, w.Code)

	// Kitchen walks the order to completion; the table frees itself.
	for _, next := range []string{models.OrderPreparing, models.OrderServed, models.OrderCompleted} {
		w = do(http.MethodPatch, fmt.Sprintf("/admin/orders/%d", committed.Data.ID),
			gin.H{"status": next}, staffToken)
		assert.Equal(t, http.StatusOK, w.Code)
	}
	var freed models.Table
	assert.NoError(t, db.First(&freed, table.ID).Error)
	assert.Equal(t, models.TableAvailable, freed.Status)

	// The next party starts from an empty cart.
	carol := scan("Carol")
	w = do(http.MethodPost, fmt.Sprintf("/tables/%d/cart/items", table.ID), gin.H{
		"contributor_id": carol, "contributor_name": "Carol",
		"menu_item_id": burger.ID, "quantity": 1, "client_ts": 1,
	}, "")
	assert.Equal(t, http.StatusOK, w.Code)
	var fresh struct {
		Data struct {
			Contributors []struct {
				ContributorName string `json:"contributor_name"`
			} `json:"contributors"`
			Total float64 `json:"total"`
		} `json:"data"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &fresh))
	assert.Len(t, fresh.Data.Contributors, 1)
	assert.Equal(t, "Carol", fresh.Data.Contributors[0].ContributorName)
	assert.InDelta(t, 12.99, fresh.Data.Total, 0.001)
}
