package router

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/tableside/tableside-app/auth"
	"github.com/tableside/tableside-app/controllers"
	"github.com/tableside/tableside-app/middlewares"
	"github.com/tableside/tableside-app/services"
)

// SetupRouter wires services, controllers and middleware into the full
// HTTP surface.
func SetupRouter(db *gorm.DB) *gin.Engine {
	r := gin.Default()

	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddlewares())
	r.Use(middlewares.LoggerMiddleware())
	// Registered before the route groups so gin actually applies it to them.
	r.Use(middlewares.NewRateLimiter(50, 1).RateLimit())

	identitySvc := services.NewIdentityService(db)
	tableSvc := services.NewTableService(db)
	orderSvc := services.NewOrderService(db, tableSvc)
	cartSvc := services.NewCartService(db, tableSvc, orderSvc)

	userCtrl := controllers.NewUserController(db, identitySvc)
	restaurantCtrl := controllers.NewRestaurantController(identitySvc)
	tableCtrl := controllers.NewTableController(tableSvc, identitySvc)
	cartCtrl := controllers.NewCartController(db, cartSvc, orderSvc, identitySvc)
	orderCtrl := controllers.NewOrderController(orderSvc, identitySvc)
	menuCtrl := controllers.NewMenuController(db, identitySvc)
	dashboardCtrl := controllers.NewDashboardController(db, identitySvc)

	// ----------------------------------------------------------------
	//                      PUBLIC ROUTES
	// ----------------------------------------------------------------
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	public := r.Group("/")
	public.Use(middlewares.NewStrictRateLimiter())
	{
		public.POST("/register", userCtrl.Register)
		public.POST("/login", userCtrl.Login)
	}

	// Guest-facing table session endpoints. No login: the table id from
	// the printed QR code is the entry ticket.
	r.GET("/tables/:table_id/scan", cartCtrl.ScanTable)
	r.GET("/tables/:table_id/cart", cartCtrl.GetCart)
	r.POST("/tables/:table_id/cart/items", cartCtrl.AddItem)
	r.POST("/tables/:table_id/cart/items/remove", cartCtrl.RemoveItem)
	r.POST("/tables/:table_id/cart/commit", cartCtrl.CommitCart)
	r.GET("/tables/:table_id/orders", orderCtrl.GetTableOrders)

	// Guest websocket, scoped to one table's events.
	r.GET("/ws/tables/:table_id", controllers.TableSocket)

	// Staff websocket for the live dashboard.
	wsGroup := r.Group("/ws")
	wsGroup.Use(middlewares.WebSocketAuthMiddleware(identitySvc))
	{
		wsGroup.GET("/staff", controllers.StaffSocket)
	}

	// ----------------------------------------------------------------
	//                      AUTHENTICATED ROUTES
	// ----------------------------------------------------------------
	admin := r.Group("/admin")
	admin.Use(middlewares.AuthMiddleware(identitySvc))

	admin.POST("/logout", userCtrl.Logout)
	admin.GET("/profile", userCtrl.GetProfile)
	admin.GET("/users", middlewares.RequirePermission(auth.PermManageStaff), userCtrl.GetAllUsers)

	// RESTAURANTS (tenant selection)
	admin.GET("/restaurants", restaurantCtrl.ListMyRestaurants)
	admin.POST("/restaurants", restaurantCtrl.CreateRestaurant)
	admin.PUT("/restaurants/:restaurant_id/activate", restaurantCtrl.SetActiveRestaurant)

	// TABLES
	admin.GET("/tables", tableCtrl.GetAllTables)
	admin.GET("/tables/:table_id", tableCtrl.GetTableByID)
	admin.GET("/tables/:table_id/history", tableCtrl.GetTableHistory)
	admin.GET("/tables/:table_id/qr", middlewares.RequirePermission(auth.PermManageTables), tableCtrl.GetTableQR)
	admin.POST("/tables", middlewares.RequirePermission(auth.PermManageTables), tableCtrl.CreateTable)
	admin.PATCH("/tables/:table_id", middlewares.RequirePermission(auth.PermManageTables), tableCtrl.UpdateTableStatus)
	admin.POST("/tables/:table_id/reset", middlewares.RequirePermission(auth.PermManageTables), tableCtrl.ResetTable)
	admin.DELETE("/tables/:table_id", middlewares.RequirePermission(auth.PermManageTables), tableCtrl.DeleteTable)

	// CARTS (staff view + commit)
	admin.GET("/tables/:table_id/cart", cartCtrl.GetCart)
	admin.POST("/tables/:table_id/cart/commit", middlewares.RequirePermission(auth.PermManageOrders), cartCtrl.CommitCartAsStaff)

	// ORDERS
	admin.GET("/orders", orderCtrl.GetAllOrders)
	admin.GET("/orders/:order_id", orderCtrl.GetOrderByID)
	admin.PATCH("/orders/:order_id", middlewares.RequirePermission(auth.PermManageOrders), orderCtrl.UpdateOrderStatus)

	// MENUS
	admin.GET("/menus", menuCtrl.GetAllMenus)
	admin.POST("/menus", middlewares.RequirePermission(auth.PermManageMenu), menuCtrl.CreateMenu)
	admin.PATCH("/menus/:menu_id", middlewares.RequirePermission(auth.PermManageMenu), menuCtrl.UpdateMenu)
	admin.DELETE("/menus/:menu_id", middlewares.RequirePermission(auth.PermManageMenu), menuCtrl.DeleteMenu)

	// DASHBOARD
	admin.GET("/dashboard/stats", middlewares.RequirePermission(auth.PermViewDashboard), dashboardCtrl.GetDashboardStats)

	return r
}
