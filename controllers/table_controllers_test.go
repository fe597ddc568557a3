package controllers_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/tableside/tableside-app/auth"
	"github.com/tableside/tableside-app/models"
)

func TestTableEndpointsRequireAuth(t *testing.T) {
	_, r := newTestServer(t)

	w := doJSON(r, http.MethodGet, "/admin/tables", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(r, http.MethodPost, "/admin/tables", gin.H{"number": "7"}, "bogus-token")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestTableLifecycleOverHTTP(t *testing.T) {
	db, r := newTestServer(t)
	staff := loginAs(t, db, r, "staff@example.com", auth.RoleStaff)

	w := doJSON(r, http.MethodPost, "/admin/tables", gin.H{"number": "7", "capacity": 2}, staff)
	assert.Equal(t, http.StatusCreated, w.Code)

	var created struct {
		Data models.Table `json:"data"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, models.TableAvailable, created.Data.Status)

	w = doJSON(r, http.MethodPatch, fmt.Sprintf("/admin/tables/%d", created.Data.ID),
		gin.H{"status": models.TableReserved}, staff)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(r, http.MethodPatch, fmt.Sprintf("/admin/tables/%d", created.Data.ID),
		gin.H{"status": models.TableAvailable}, staff)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(r, http.MethodGet, fmt.Sprintf("/admin/tables/%d/history", created.Data.ID), nil, staff)
	assert.Equal(t, http.StatusOK, w.Code)
	var history struct {
		Data []models.TableStatusEvent `json:"data"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &history))
	assert.Len(t, history.Data, 2)

	w = doJSON(r, http.MethodDelete, fmt.Sprintf("/admin/tables/%d", created.Data.ID), nil, staff)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestPlainUserCannotMutateTables(t *testing.T) {
	db, r := newTestServer(t)
	plain := loginAs(t, db, r, "plain@example.com", auth.RoleUser)
	table := seededTable(t, db)

	w := doJSON(r, http.MethodPost, "/admin/tables", gin.H{"number": "9"}, plain)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(r, http.MethodPatch, fmt.Sprintf("/admin/tables/%d", table.ID),
		gin.H{"status": models.TableReserved}, plain)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Reads stay open to any member.
	w = doJSON(r, http.MethodGet, "/admin/tables", nil, plain)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestReservedToOccupiedByStaffButNeverBack(t *testing.T) {
	db, r := newTestServer(t)
	staff := loginAs(t, db, r, "staff@example.com", auth.RoleStaff)
	table := seededTable(t, db)

	w := doJSON(r, http.MethodPatch, fmt.Sprintf("/admin/tables/%d", table.ID),
		gin.H{"status": models.TableReserved}, staff)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(r, http.MethodPatch, fmt.Sprintf("/admin/tables/%d", table.ID),
		gin.H{"status": models.TableOccupied}, staff)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(r, http.MethodPatch, fmt.Sprintf("/admin/tables/%d", table.ID),
		gin.H{"status": models.TableReserved}, staff)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestTableQRIsAPNG(t *testing.T) {
	db, r := newTestServer(t)
	staff := loginAs(t, db, r, "staff@example.com", auth.RoleStaff)
	table := seededTable(t, db)

	w := doJSON(r, http.MethodGet, fmt.Sprintf("/admin/tables/%d/qr", table.ID), nil, staff)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.Equal(t, "\x89PNG", w.Body.String()[:4])
}

func TestMemberlessUserIsToldToOnboard(t *testing.T) {
	db, r := newTestServer(t)
	directUser(t, db, "loner@example.com")

	w := doJSON(r, http.MethodPost, "/login", gin.H{
		"email":    "loner@example.com",
		"password": "secret-password",
	}, "")
	assert.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	w = doJSON(r, http.MethodGet, "/admin/tables", nil, resp.Data.Token)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Profile still works so the client can start the onboarding flow.
	w = doJSON(r, http.MethodGet, "/admin/profile", nil, resp.Data.Token)
	assert.Equal(t, http.StatusOK, w.Code)
}
