// Package api is the HTTP admin API of the CMS daemon.
package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/celerix-dev/celerix-cms/internal/activity"
	"github.com/celerix-dev/celerix-cms/internal/carousel"
	"github.com/celerix-dev/celerix-cms/internal/site"
	"github.com/celerix-dev/celerix-cms/pkg/schema"
	"github.com/celerix-dev/celerix-cms/pkg/sdk"
)

// UserHeader carries the acting admin's email for the activity log.
const UserHeader = "X-User-Email"

// Handler carries the dependencies shared by the admin HTTP handlers.
type Handler struct {
	Store     sdk.DocumentStore
	Activity  activity.Source
	Recorder  *activity.Recorder
	Carousels *carousel.Registry
	Clients   *site.ClientList
	// Feed holds the fetch limit and default page size of activity views.
	Feed    activity.FeedOptions
	Version string
	Logger  *slog.Logger
}

// NewRouter builds the gin engine with every admin route mounted.
func NewRouter(h *Handler) *gin.Engine {
	if h.Logger == nil {
		h.Logger = slog.Default()
	}
	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger(h.Logger), CORS())

	r.GET("/healthz", h.Health)

	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/activity", h.GetActivity)

		apiGroup.GET("/collections", h.GetCollections)
		apiGroup.GET("/collections/:collection", h.ListDocuments)
		apiGroup.POST("/collections/:collection", h.CreateDocument)
		apiGroup.GET("/collections/:collection/:id", h.GetDocument)
		apiGroup.PUT("/collections/:collection/:id", h.UpdateDocument)
		apiGroup.DELETE("/collections/:collection/:id", h.DeleteDocument)
		apiGroup.POST("/collections/:collection/:id/publish", h.PublishDocument)

		apiGroup.GET("/carousels", h.GetCarousels)
		apiGroup.GET("/carousels/:name", h.GetCarousel)
		apiGroup.POST("/carousels/:name/next", h.CarouselNext)
		apiGroup.POST("/carousels/:name/prev", h.CarouselPrev)
		apiGroup.POST("/carousels/:name/goto/:index", h.CarouselGoto)
		apiGroup.POST("/carousels/:name/pointer-enter", h.CarouselPointerEnter)
		apiGroup.POST("/carousels/:name/pointer-leave", h.CarouselPointerLeave)

		apiGroup.GET("/clients", h.GetClients)
	}

	r.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api") {
			c.JSON(http.StatusNotFound, gin.H{"error": "API route not found"})
			return
		}
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})
	return r
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "version": h.Version})
}

func (h *Handler) GetClients(c *gin.Context) {
	c.JSON(http.StatusOK, h.Clients.Clients())
}

// statusFor maps store errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, schema.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, schema.ErrInvalidDocument), errors.Is(err, schema.ErrInvalidCollection):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func fail(c *gin.Context, err error) {
	c.JSON(statusFor(err), gin.H{"error": err.Error()})
}

func queryInt(c *gin.Context, key string, fallback int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.New("invalid " + key + ": " + raw)
	}
	return n, nil
}
