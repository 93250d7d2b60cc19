package router

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/dineboard/table-order-app/controllers"
	"github.com/dineboard/table-order-app/events"
	"github.com/dineboard/table-order-app/middlewares"
	"github.com/dineboard/table-order-app/services"
)

func SetupRouter(db *gorm.DB, dispatcher *events.Dispatcher) *gin.Engine {
	r := gin.Default()

	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddlewares())
	r.Use(middlewares.LoggerMiddleware())
	r.Use(middlewares.NewRateLimiter(50, 1).RateLimit())

	menuCache := services.NewMenuCache(db)
	dispatcher.Subscribe(events.EventMenuChanged, menuCache.HandleMenuChanged)

	sessionSvc := services.NewSessionService(db, dispatcher)
	orderSvc := services.NewOrderService(db, menuCache, dispatcher)

	userCtrl := controllers.NewUserController(db)
	tableCtrl := controllers.NewTableController(db)
	menuCtrl := controllers.NewMenuController(db, dispatcher)
	customerCtrl := controllers.NewCustomerController(db)
	sessionCtrl := controllers.NewSessionController(sessionSvc)
	orderCtrl := controllers.NewOrderController(orderSvc)

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	// Credential endpoints, strictly throttled.
	public := r.Group("/")
	public.Use(middlewares.NewStrictRateLimiter())
	{
		public.POST("/register", userCtrl.Register)
		public.POST("/login", userCtrl.Login)
	}

	// -- GUEST (no auth; ownership enforced per session) --
	r.GET("/menus", menuCtrl.GetAllMenus)
	r.POST("/tables/:table_id/session", sessionCtrl.GetOrCreateSession)
	r.POST("/sessions/:session_id/orders", orderCtrl.PlaceOrder)
	r.GET("/sessions/:session_id/orders", orderCtrl.ListSessionOrders)
	r.GET("/orders/:order_id", orderCtrl.GetOrderByID)
	r.PATCH("/orders/:order_id/items", orderCtrl.UpdateOrderItem)

	// -- STAFF --
	auth := r.Group("/")
	auth.Use(middlewares.AuthMiddleware())
	{
		auth.POST("/logout", userCtrl.Logout)

		staff := auth.Group("/")
		staff.Use(middlewares.RequireRole("staff"))
		{
			staff.POST("/sessions/counter", sessionCtrl.OpenCounterSession)
			staff.PATCH("/sessions/:session_id/close", sessionCtrl.CloseSession)
			staff.POST("/sessions/:session_id/customer", sessionCtrl.MergeWithCustomer)

			staff.POST("/orders/:order_id/merge", orderCtrl.MergeOrders)
			staff.POST("/orders/:order_id/split", orderCtrl.SplitOrder)
			staff.PATCH("/orders/:order_id/status", orderCtrl.UpdateOrderStatus)
			staff.PATCH("/orders/:order_id/payment", orderCtrl.UpdatePayment)

			staff.POST("/customers", customerCtrl.CreateCustomer)
			staff.GET("/customers", customerCtrl.GetAllCustomers)
			staff.GET("/customers/:customer_id", customerCtrl.GetCustomerByID)

			staff.GET("/tables", tableCtrl.GetAllTables)
			staff.GET("/tables/:table_id", tableCtrl.GetTableByID)
		}

		cleaner := auth.Group("/")
		cleaner.Use(middlewares.RequireRole("staff", "cleaner"))
		{
			cleaner.PATCH("/tables/:table_id/clean", tableCtrl.MarkAvailable)
		}

		admin := auth.Group("/")
		admin.Use(middlewares.RequireRole())
		{
			admin.POST("/tables", tableCtrl.CreateTable)
			admin.PATCH("/tables/:table_id/activate", tableCtrl.ActivateTable)
			admin.PATCH("/tables/:table_id/deactivate", tableCtrl.DeactivateTable)
			admin.DELETE("/tables/:table_id", tableCtrl.DeleteTable)
			admin.PATCH("/menus/:menu_id", menuCtrl.UpdateMenu)
		}
	}

	return r
}
