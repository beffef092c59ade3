package handler

import (
	"github.com/labstack/echo/v4"
	"github.com/spendlens/spendlens-backend/internal/middleware"
)

// RegisterRoutes sets up all API routes
func RegisterRoutes(e *echo.Echo, authMiddleware *middleware.AuthMiddleware, rateLimiter *middleware.RateLimiter, authHandler *AuthHandler, profileHandler *ProfileHandler, categoryHandler *CategoryHandler, expenseHandler *ExpenseHandler, budgetHandler *BudgetHandler, wsHandler *WebSocketHandler) {
	// API version 1
	api := e.Group("/api/v1")

	// Auth routes run behind token validation only so the callback can
	// provision first-time users
	auth := api.Group("/auth")
	auth.Use(authMiddleware.Authenticate())
	auth.POST("/callback", authHandler.HandleCallback)
	auth.GET("/me", authHandler.GetMe)

	protected := []echo.MiddlewareFunc{
		authMiddleware.Authenticate(),
		authMiddleware.RequireUser(),
		middleware.RateLimitMiddleware(rateLimiter),
	}

	// Profile routes (protected)
	profile := api.Group("/profile", protected...)
	profile.GET("", profileHandler.GetProfile)
	profile.PUT("", profileHandler.UpdateProfile)

	// Category routes (protected)
	categories := api.Group("/categories", protected...)
	categories.GET("", categoryHandler.GetCategories)
	categories.GET("/with-totals", categoryHandler.GetCategoriesWithTotals)
	categories.POST("", categoryHandler.CreateCategory)
	categories.POST("/setup-defaults", categoryHandler.SetupDefaultCategories)
	categories.GET("/:id", categoryHandler.GetCategory)
	categories.GET("/:id/subcategories", categoryHandler.GetSubcategories)
	categories.PUT("/:id", categoryHandler.UpdateCategory)
	categories.DELETE("/:id", categoryHandler.DeleteCategory)

	// Expense routes (protected). Stats routes precede /:id so "stats"
	// never parses as an expense ID.
	expenses := api.Group("/expenses", protected...)
	expenses.GET("", expenseHandler.GetExpenses)
	expenses.POST("", expenseHandler.CreateExpense)
	expenses.GET("/stats/summary", expenseHandler.GetExpenseSummary)
	expenses.GET("/stats/recent", expenseHandler.GetRecentExpenses)
	expenses.GET("/:id", expenseHandler.GetExpense)
	expenses.PUT("/:id", expenseHandler.UpdateExpense)
	expenses.DELETE("/:id", expenseHandler.DeleteExpense)

	// Budget routes (protected)
	budgets := api.Group("/budgets", protected...)
	budgets.GET("", budgetHandler.GetBudgets)
	budgets.POST("", budgetHandler.CreateBudget)
	budgets.GET("/current", budgetHandler.GetCurrentBudgets)
	budgets.GET("/stats/overview", budgetHandler.GetBudgetOverview)
	budgets.GET("/:id", budgetHandler.GetBudget)
	budgets.PUT("/:id", budgetHandler.UpdateBudget)
	budgets.DELETE("/:id", budgetHandler.DeleteBudget)

	// WebSocket endpoint authenticates via query token
	e.GET("/ws", wsHandler.HandleWS)
}
