package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/lunch-rotation-api/internal/handler"
	"github.com/noah-isme/lunch-rotation-api/internal/middleware"
	"github.com/noah-isme/lunch-rotation-api/internal/models"
	"github.com/noah-isme/lunch-rotation-api/internal/service"
	"github.com/noah-isme/lunch-rotation-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/lunch-rotation-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/lunch-rotation-api/pkg/middleware/requestid"
)

// Options configures the HTTP surface.
type Options struct {
	APIPrefix      string
	AllowedOrigins []string
	MetricsPath    string
	Logger         *zap.Logger
	Metrics        *service.MetricsService
	Tokens         middleware.TokenValidator
}

// Handlers groups every HTTP handler the router mounts.
type Handlers struct {
	Auth       *handler.AuthHandler
	Roster     *handler.RosterHandler
	Queue      *handler.QueueHandler
	Attendance *handler.AttendanceHandler
	Events     *handler.EventHandler
	Jobs       *handler.JobHandler
	Public     *handler.PublicHandler
	Settings   *handler.SettingsHandler
	Venues     *handler.VenueHandler
	Metrics    *handler.MetricsHandler
}

// New builds the gin engine with the common middleware chain and all routes.
func New(opts Options, h Handlers) *gin.Engine {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(opts.Logger))
	r.Use(corsmiddleware.New(opts.AllowedOrigins))
	r.Use(middleware.Metrics(opts.Metrics, "/health", opts.MetricsPath))

	r.GET("/health", h.Metrics.Health)
	if opts.MetricsPath != "" {
		r.GET(opts.MetricsPath, h.Metrics.Prometheus)
	}

	api := r.Group(opts.APIPrefix)

	public := api.Group("/public")
	public.GET("/hosting/:link", h.Public.HostingDetails)
	public.POST("/hosting/:link", h.Public.ConfirmHosting)
	public.GET("/ratings/:link", h.Public.QuickRating)
	public.POST("/ratings/:link", h.Public.SubmitRating)

	secured := api.Group("")
	secured.Use(middleware.JWT(opts.Tokens))

	managers := middleware.RequireRoles(models.RoleAdmin, models.RoleSecretary)
	admins := middleware.RequireRoles(models.RoleAdmin)

	secured.GET("/auth/me", h.Auth.Me)
	secured.POST("/auth/token", admins, h.Auth.Issue)

	participants := secured.Group("/participants")
	participants.GET("", h.Roster.List)
	participants.GET("/:id", h.Roster.Get)
	participants.POST("", managers, h.Roster.Create)
	participants.POST("/guests", managers, h.Roster.AddGuest)
	participants.POST("/import", admins, h.Roster.Import)
	participants.PATCH("/:id", middleware.RBAC(string(models.RoleAdmin), string(models.RoleSecretary), "SELF"), h.Roster.Update)

	queue := secured.Group("/queue")
	queue.GET("", h.Queue.Rank)
	queue.GET("/lineup", h.Queue.Lineup)
	queue.PUT("/manual-order", managers, h.Queue.SetManualOrder)
	queue.DELETE("/manual-order", managers, h.Queue.ClearManualOrder)
	queue.POST("/swap", managers, h.Queue.Swap)

	events := secured.Group("/events")
	events.GET("", h.Events.ForDate)
	events.GET("/current", h.Events.Current)
	events.GET("/upcoming", h.Events.Upcoming)
	events.GET("/:id", h.Events.Get)
	events.POST("/:id/cancel", managers, h.Events.Cancel)
	events.PUT("/:id/venue", managers, h.Events.ConfirmVenue)
	events.GET("/:id/ratings", managers, h.Events.Ratings)
	events.GET("/:id/attendance", h.Attendance.List)
	events.PUT("/:id/attendance", managers, h.Attendance.Submit)

	jobs := secured.Group("/jobs", managers)
	jobs.POST("/run", h.Jobs.Run)
	jobs.GET("/runs/:id", h.Jobs.Status)
	jobs.GET("/notifications", h.Jobs.Log)

	settings := secured.Group("/settings")
	settings.GET("", admins, h.Settings.List)
	settings.GET("/secretary", h.Settings.Secretary)
	settings.PUT("/secretary", admins, h.Settings.SetSecretary)
	settings.POST("/secretary/transfer", managers, h.Settings.TransferSecretary)

	venues := secured.Group("/venues")
	venues.GET("", h.Venues.List)
	venues.GET("/:id", h.Venues.Get)
	venues.POST("", managers, h.Venues.Create)
	venues.PATCH("/:id", managers, h.Venues.Update)

	secured.GET("/metrics/summary", admins, h.Metrics.Snapshot)

	return r
}
