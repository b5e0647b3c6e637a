package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/celerix-dev/celerix-cms/internal/activity"
	"github.com/celerix-dev/celerix-cms/pkg/schema"
)

func (h *Handler) GetCollections(c *gin.Context) {
	c.JSON(http.StatusOK, schema.Collections)
}

// collection resolves the :collection param, writing a 400 when unknown.
func collection(c *gin.Context) (schema.Collection, bool) {
	col, err := schema.ParseCollection(c.Param("collection"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return "", false
	}
	return col, true
}

func (h *Handler) ListDocuments(c *gin.Context) {
	col, ok := collection(c)
	if !ok {
		return
	}
	docs, err := h.Store.List(string(col))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, docs)
}

func (h *Handler) GetDocument(c *gin.Context) {
	col, ok := collection(c)
	if !ok {
		return
	}
	doc, err := h.Store.Get(string(col), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

// CreateDocument stores a new document. The id comes from the body's "id"
// field when present, otherwise a UUID is assigned.
func (h *Handler) CreateDocument(c *gin.Context) {
	col, ok := collection(c)
	if !ok {
		return
	}
	var doc schema.Document
	if err := c.ShouldBindJSON(&doc); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	id := doc.String("id")
	delete(doc, "id")
	if id == "" {
		id = uuid.NewString()
	}

	if _, err := h.Store.Get(string(col), id); err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "document already exists"})
		return
	} else if !errors.Is(err, schema.ErrNotFound) {
		fail(c, err)
		return
	}

	if err := h.Store.Set(string(col), id, doc); err != nil {
		fail(c, err)
		return
	}
	h.Recorder.Record(c.Request.Context(), schema.ActionCreate, col, id, activity.Title(doc), c.GetHeader(UserHeader))
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

func (h *Handler) UpdateDocument(c *gin.Context) {
	col, ok := collection(c)
	if !ok {
		return
	}
	id := c.Param("id")
	var doc schema.Document
	if err := c.ShouldBindJSON(&doc); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	delete(doc, "id")

	if _, err := h.Store.Get(string(col), id); err != nil {
		fail(c, err)
		return
	}
	if err := h.Store.Set(string(col), id, doc); err != nil {
		fail(c, err)
		return
	}
	h.Recorder.Record(c.Request.Context(), schema.ActionUpdate, col, id, activity.Title(doc), c.GetHeader(UserHeader))
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

func (h *Handler) DeleteDocument(c *gin.Context) {
	col, ok := collection(c)
	if !ok {
		return
	}
	id := c.Param("id")

	// Read first so the log can name what was deleted.
	prev, err := h.Store.Get(string(col), id)
	if err != nil {
		fail(c, err)
		return
	}
	if err := h.Store.Delete(string(col), id); err != nil {
		fail(c, err)
		return
	}
	h.Recorder.Record(c.Request.Context(), schema.ActionDelete, col, id, activity.Title(prev), c.GetHeader(UserHeader))
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

// PublishDocument marks a document published.
func (h *Handler) PublishDocument(c *gin.Context) {
	col, ok := collection(c)
	if !ok {
		return
	}
	id := c.Param("id")

	doc, err := h.Store.Get(string(col), id)
	if err != nil {
		fail(c, err)
		return
	}
	doc["published"] = true
	if err := h.Store.Set(string(col), id, doc); err != nil {
		fail(c, err)
		return
	}
	h.Recorder.Record(c.Request.Context(), schema.ActionPublish, col, id, activity.Title(doc), c.GetHeader(UserHeader))
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}
