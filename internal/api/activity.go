package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/celerix-dev/celerix-cms/internal/activity"
	"github.com/celerix-dev/celerix-cms/pkg/schema"
)

const maxPageSize = 100

// GetActivity mounts a fresh feed for the request, loads it and applies the
// requested filters and page.
func (h *Handler) GetActivity(c *gin.Context) {
	action, err := schema.ParseActionFilter(c.Query("action"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	collection, err := schema.ParseCollectionFilter(c.Query("collection"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	page, err := queryInt(c, "page", 1)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	opts := h.Feed
	opts.Logger = h.Logger
	pageSize, err := queryInt(c, "pageSize", 0)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if pageSize > 0 {
		opts.PageSize = min(pageSize, maxPageSize)
	}

	feed := activity.NewFeed(h.Activity, opts)
	defer feed.Close()

	feed.Load(c.Request.Context())
	feed.SetActionFilter(action)
	feed.SetCollectionFilter(collection)
	feed.SetPage(page)

	c.JSON(http.StatusOK, feed.View())
}
