package controllers_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tableside/tableside-app/auth"
)

func TestDashboardStatsCountTablesAndOrders(t *testing.T) {
	db, r := newTestServer(t)
	staff := loginAs(t, db, r, "staff@example.com", auth.RoleStaff)
	placeOrder(t, db, r)

	w := doJSON(r, http.MethodGet, "/admin/dashboard/stats", nil, staff)
	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data struct {
			Tables struct {
				Available int64 `json:"available"`
				Occupied  int64 `json:"occupied"`
				Total     int64 `json:"total"`
			} `json:"tables"`
			OpenOrders int64 `json:"open_orders"`
		} `json:"data"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.EqualValues(t, 1, resp.Data.Tables.Occupied)
	assert.EqualValues(t, 1, resp.Data.Tables.Total)
	assert.EqualValues(t, 1, resp.Data.OpenOrders)
}

func TestDashboardNeedsViewPermission(t *testing.T) {
	db, r := newTestServer(t)
	plain := loginAs(t, db, r, "plain@example.com", auth.RoleUser)

	w := doJSON(r, http.MethodGet, "/admin/dashboard/stats", nil, plain)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
