package live

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/tableside/tableside-app/utils"
)

// Event types pushed to connected screens.
const (
	EventCartUpdate      = "cart_update"
	EventTableUpdate     = "table_update"
	EventTableCreate     = "table_create"
	EventTableDelete     = "table_delete"
	EventOrderUpdate     = "order_update"
	EventOrderCreate     = "order_create"
	EventDashboardUpdate = "dashboard_update"
)

type Message struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

type client struct {
	conn    *websocket.Conn
	role    string
	tableID uint // 0 -> staff screen, receives every table
}

// Hub fans state changes out to customer devices (scoped to one table) and
// staff dashboards (scoped to all tables). This is the only channel through
// which screens learn about cart, table and order changes.
type Hub struct {
	clients map[*client]struct{}
	mutex   sync.Mutex
}

var hub = Hub{
	clients: make(map[*client]struct{}),
}

// RegisterClient adds a connection. tableID 0 subscribes to everything.
func RegisterClient(conn *websocket.Conn, role string, tableID uint) {
	hub.mutex.Lock()
	defer hub.mutex.Unlock()
	hub.clients[&client{conn: conn, role: role, tableID: tableID}] = struct{}{}
}

// UnregisterClient drops a connection and closes it.
func UnregisterClient(conn *websocket.Conn) {
	hub.mutex.Lock()
	defer hub.mutex.Unlock()
	for cl := range hub.clients {
		if cl.conn == conn {
			delete(hub.clients, cl)
		}
	}
	conn.Close()
}

// BroadcastToTable sends to the table's guests and every staff screen.
func BroadcastToTable(tableID uint, msg Message) {
	broadcast(msg, func(cl *client) bool {
		return cl.tableID == 0 || cl.tableID == tableID
	})
}

// BroadcastMessage sends to every connected client.
func BroadcastMessage(msg Message) {
	broadcast(msg, func(*client) bool { return true })
}

func broadcast(msg Message, want func(*client) bool) {
	hub.mutex.Lock()
	defer hub.mutex.Unlock()

	data, err := json.Marshal(msg)
	if err != nil {
		if utils.ErrorLogger != nil {
			utils.ErrorLogger.Printf("marshal broadcast message: %v", err)
		}
		return
	}

	for cl := range hub.clients {
		if !want(cl) {
			continue
		}
		if err := cl.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			// Dead connection; drop it, the reader loop will clean up too.
			delete(hub.clients, cl)
			cl.conn.Close()
		}
	}
}
