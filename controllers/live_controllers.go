package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/tableside/tableside-app/auth"
	"github.com/tableside/tableside-app/live"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// StaffSocket -> dashboard stream: every cart, table and order event.
// Requires an authenticated staff role (checked by the websocket auth
// middleware putting "role" on the context).
func StaffSocket(c *gin.Context) {
	roleVal, exists := c.Get("role")
	if !exists {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}
	role := roleVal.(string)
	if !auth.HasPermission(role, auth.PermViewDashboard) {
		c.AbortWithStatus(http.StatusForbidden)
		return
	}

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	live.RegisterClient(ws, role, 0)
	defer live.UnregisterClient(ws)

	// Keep reading until the peer goes away; the hub does all the writing.
	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			return
		}
	}
}

// TableSocket -> guest stream scoped to one table. Unauthenticated: the
// table id from the QR deep link is the credential, and the client only
// ever receives that table's events.
func TableSocket(c *gin.Context) {
	tableID, err := strconv.ParseUint(c.Param("table_id"), 10, 64)
	if err != nil || tableID == 0 {
		c.AbortWithStatus(http.StatusBadRequest)
		return
	}

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	live.RegisterClient(ws, "guest", uint(tableID))
	defer live.UnregisterClient(ws)

	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			return
		}
	}
}
