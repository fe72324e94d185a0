package router

import (
	"borlette/domain"
	"borlette/internal/middleware"
	"borlette/internal/rest"

	"github.com/labstack/echo/v4"
)

func SetupAuthRoutes(api *echo.Group, handler *rest.AuthHandler, authRequired echo.MiddlewareFunc) {
	auth := api.Group("/auth")

	auth.POST("/login", handler.Login)
	auth.GET("/verify", handler.Verify, authRequired)
}

func SetupCatalogRoutes(api *echo.Group, handler *rest.CatalogHandler, authRequired echo.MiddlewareFunc) {
	api.GET("/catalog", handler.Get, authRequired)
}

func SetupTicketRoutes(api *echo.Group, handler *rest.TicketHandler, authRequired echo.MiddlewareFunc) {
	supervisors := middleware.RequireRoles(middleware.Supervisors...)

	tickets := api.Group("/tickets", authRequired)
	tickets.POST("", handler.Create, middleware.RequireRoles(domain.RoleAgent))
	tickets.GET("", handler.List)
	tickets.GET("/pending", handler.Pending)
	tickets.POST("/validate", handler.Validate, supervisors)
	tickets.GET("/:id", handler.GetByID)
	tickets.POST("/:id/paid", handler.MarkPaid, supervisors)

	api.POST("/check-winners", handler.CheckWinners, authRequired)
}

func SetupResultRoutes(api *echo.Group, handler *rest.ResultHandler, authRequired echo.MiddlewareFunc) {
	results := api.Group("/results", authRequired)
	results.GET("", handler.List)
	results.GET("/:draw/:drawTime", handler.Get)
	results.POST("", handler.Publish, middleware.RequireRoles(domain.RoleSubsystem, domain.RoleMaster))
}

func SetupUserRoutes(api *echo.Group, handler *rest.UserHandler, authRequired echo.MiddlewareFunc) {
	users := api.Group("/users", authRequired, middleware.RequireRoles(middleware.Supervisors...))

	users.GET("/agents", handler.ListAgents)
	users.POST("", handler.Create)
	users.POST("/:role/:id/deactivate", handler.Deactivate)
	users.PUT("/agents/:id/supervisor", handler.ReassignAgent,
		middleware.RequireRoles(domain.RoleSupervisor2, domain.RoleSubsystem, domain.RoleMaster))
}
