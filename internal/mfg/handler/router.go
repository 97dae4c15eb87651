package handler

import "github.com/gin-gonic/gin"

// RegisterRoutes 注册 /api 下的全部路由
func RegisterRoutes(r gin.IRouter, h *Handlers) {
	api := r.Group("/api")

	user := api.Group("/user")
	{
		user.GET("", h.User.List)
		user.GET("/:id", h.User.Get)
		user.POST("", h.User.Create)
		user.PUT("/:id", h.User.Update)
		user.DELETE("/:id", h.User.Delete)
	}

	production := api.Group("/production")
	{
		production.GET("", h.Production.List)
		production.GET("/email/:email", h.Production.ListByUserEmail)
		production.GET("/:id", h.Production.Get)
		production.POST("", h.Production.Create)
		production.PUT("/:id", h.Production.Update)
		production.DELETE("/:id", h.Production.Delete)
	}

	inventory := api.Group("/inventory")
	{
		inventory.GET("", h.Inventory.List)
		inventory.GET("/:id", h.Inventory.Get)
		inventory.GET("/:id/transactions", h.Inventory.ListTransactions)
		inventory.POST("", h.Inventory.Add)
		inventory.PUT("/:id", h.Inventory.Update)
		inventory.DELETE("/:id", h.Inventory.Delete)
	}

	finished := api.Group("/finished-product")
	{
		finished.GET("", h.FinishedProduct.List)
		finished.GET("/:id", h.FinishedProduct.Get)
		finished.POST("", h.FinishedProduct.Create)
		finished.PUT("/:id", h.FinishedProduct.Update)
		finished.DELETE("/:id", h.FinishedProduct.Delete)
	}

	sales := api.Group("/sales-report")
	{
		sales.GET("", h.SalesReport.List)
		sales.GET("/export", h.SalesReport.Export)
		sales.GET("/product-type/:productType", h.SalesReport.ListByProductType)
		sales.GET("/:id", h.SalesReport.Get)
		sales.POST("", h.SalesReport.Create)
		sales.POST("/import", h.SalesReport.Import)
		sales.DELETE("/:id", h.SalesReport.Delete)
	}

	api.GET("/events", h.Events.Stream)
}
