package transport

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/ds124wfegd/eventhive/config"
	"github.com/ds124wfegd/eventhive/internal/entity"
	"github.com/ds124wfegd/eventhive/internal/sandbox"
	"github.com/ds124wfegd/eventhive/internal/transport/middleware"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// NewRouter builds the sandbox API from its state and config.
func NewRouter(cfg config.ServerConfig, state *sandbox.State, tokens *sandbox.TokenIssuer, log logrus.FieldLogger) *gin.Engine {
	return InitRoutes(
		cfg,
		tokens,
		log,
		NewEventHandler(state),
		NewBookingHandler(state),
		NewUserHandler(state, tokens),
	)
}

func InitRoutes(cfg config.ServerConfig, tokens middleware.TokenVerifier, log logrus.FieldLogger,
	eventHandler *EventHandler, bookingHandler *BookingHandler, userHandler *UserHandler) *gin.Engine {

	router := gin.New()

	// Middleware
	router.Use(gin.Recovery())
	router.Use(middleware.CORS())
	router.Use(middleware.Logger(log))
	router.Use(middleware.Timeout(cfg.Timeout))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	basePath := cfg.BasePath
	if basePath == "" {
		basePath = "/"
	}
	api := router.Group(basePath)
	{
		// Auth routes
		auth := api.Group("/auth")
		{
			auth.POST("/register", userHandler.Register)
			auth.POST("/login", userHandler.Login)
		}

		protected := api.Group("")
		protected.Use(middleware.Auth(tokens))

		// Event routes
		events := protected.Group("/events")
		{
			events.GET("", eventHandler.ListEvents)
			events.GET("/:id", eventHandler.GetEvent)
			events.POST("", userHandler.RequireAdmin, eventHandler.CreateEvent)
			events.PUT("/:id", userHandler.RequireAdmin, eventHandler.UpdateEvent)
			events.DELETE("/:id", userHandler.RequireAdmin, eventHandler.DeleteEvent)
		}

		// Booking routes
		bookings := protected.Group("/bookings")
		{
			bookings.POST("", bookingHandler.CreateBooking)
			bookings.GET("", userHandler.RequireAdmin, bookingHandler.ListAllBookings)
			bookings.PUT("/:id", bookingHandler.UpdateStatus)
			bookings.DELETE("/:id", bookingHandler.DeleteBooking)
		}

		// User routes
		users := protected.Group("/users")
		{
			users.PUT("", userHandler.UpdateProfile)
			users.GET("/bookings", bookingHandler.ListOwnBookings)
		}
	}

	return router
}

func pageParam(c *gin.Context) int {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

func currentUserID(c *gin.Context) string {
	return c.GetString(middleware.ContextUserID)
}

// respondError writes the {"message": ...} body the client surfaces verbatim.
// Validation failures use the {"errors":[{"msg": ...}]} shape instead.
func respondError(c *gin.Context, err error) {
	var verr *entity.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"errors": []gin.H{{"msg": verr.Error()}}})
	case errors.Is(err, sandbox.ErrEventNotFound),
		errors.Is(err, sandbox.ErrBookingNotFound),
		errors.Is(err, sandbox.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": err.Error()})
	case errors.Is(err, sandbox.ErrAdminOnly), errors.Is(err, sandbox.ErrNotOwner):
		c.JSON(http.StatusForbidden, gin.H{"message": err.Error()})
	case errors.Is(err, sandbox.ErrNotEnoughSeats),
		errors.Is(err, sandbox.ErrEmailTaken),
		errors.Is(err, sandbox.ErrInvalidCredentials):
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
	}
}
