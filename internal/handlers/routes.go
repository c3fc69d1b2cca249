package handlers

import (
	"github.com/gin-gonic/gin"

	"expensetracker/internal/middleware"
)

// Handlers bundles the handlers of every screen.
type Handlers struct {
	Auth          *AuthHandler
	Home          *HomeHandler
	Expenses      *ExpenseHandler
	Statistics    *StatisticsHandler
	Profile       *ProfileHandler
	Export        *ExportHandler
	Notifications *NotificationHandler
	Meta          *MetaHandler
}

// NewHandlers creates every handler. origins restricts the websocket
// notification stream; empty allows any origin.
func NewHandlers(origins []string) *Handlers {
	return &Handlers{
		Auth:          NewAuthHandler(),
		Home:          NewHomeHandler(),
		Expenses:      NewExpenseHandler(),
		Statistics:    NewStatisticsHandler(),
		Profile:       NewProfileHandler(),
		Export:        NewExportHandler(),
		Notifications: NewNotificationHandler(origins),
		Meta:          NewMetaHandler(),
	}
}

// RegisterRoutes mounts the API on v1.
func RegisterRoutes(v1 *gin.RouterGroup, workspaces middleware.Workspaces, h *Handlers) {
	// Static data
	v1.GET("/categories", h.Meta.Categories)
	v1.GET("/currencies", h.Profile.Currencies)
	v1.GET("/meta", h.Meta.Get)

	client := v1.Group("/")
	client.Use(middleware.Workspace(workspaces))

	auth := client.Group("/auth")
	auth.POST("/signup", h.Auth.SignUp)
	auth.POST("/signin", h.Auth.SignIn)
	auth.POST("/signout", h.Auth.SignOut)
	auth.GET("/session", h.Auth.Session)

	client.GET("/notifications", h.Notifications.List)
	client.GET("/notifications/stream", h.Notifications.Stream)

	// Signed-in routes
	signedIn := client.Group("/")
	signedIn.Use(middleware.RequireIdentity())

	signedIn.GET("/home", h.Home.Get)
	signedIn.GET("/expenses", h.Expenses.List)
	signedIn.DELETE("/expenses/:id", h.Expenses.Delete)
	signedIn.GET("/export", h.Export.Download)

	profile := signedIn.Group("/profile")
	profile.GET("", h.Profile.Get)
	profile.PUT("", h.Profile.Update)
	profile.POST("/theme", h.Profile.ToggleTheme)
	profile.PUT("/currency", h.Profile.SetCurrency)

	// Routes that need a name and a budget
	complete := signedIn.Group("/")
	complete.Use(middleware.RequireCompleteProfile())

	complete.POST("/expenses", h.Expenses.Create)
	complete.GET("/statistics", h.Statistics.Get)
}
