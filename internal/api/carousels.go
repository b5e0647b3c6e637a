package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/celerix-dev/celerix-cms/internal/carousel"
	"github.com/celerix-dev/celerix-cms/pkg/schema"
)

type carouselView struct {
	Name string `json:"name"`
	carousel.Snapshot[schema.Document]
	Slides []schema.Document `json:"slides,omitempty"`
}

type carouselAction struct {
	Accepted bool         `json:"accepted"`
	Carousel carouselView `json:"carousel"`
}

func (h *Handler) GetCarousels(c *gin.Context) {
	views := make([]carouselView, 0)
	for _, name := range h.Carousels.Names() {
		car, ok := h.Carousels.Get(name)
		if !ok {
			continue
		}
		snap, err := car.Snapshot()
		if err != nil {
			continue
		}
		views = append(views, carouselView{Name: name, Snapshot: snap})
	}
	c.JSON(http.StatusOK, views)
}

// GetCarousel returns the state of one carousel with its full slide list.
func (h *Handler) GetCarousel(c *gin.Context) {
	name, car, ok := h.lookupCarousel(c)
	if !ok {
		return
	}
	view, err := viewOf(name, car, true)
	if err != nil {
		carouselFail(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handler) CarouselNext(c *gin.Context) {
	h.carouselRequest(c, func(car *carousel.Carousel[schema.Document]) (bool, error) { return car.Next() })
}

func (h *Handler) CarouselPrev(c *gin.Context) {
	h.carouselRequest(c, func(car *carousel.Carousel[schema.Document]) (bool, error) { return car.Prev() })
}

func (h *Handler) CarouselGoto(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid index: " + c.Param("index")})
		return
	}
	h.carouselRequest(c, func(car *carousel.Carousel[schema.Document]) (bool, error) { return car.Goto(index) })
}

func (h *Handler) CarouselPointerEnter(c *gin.Context) {
	h.carouselRequest(c, func(car *carousel.Carousel[schema.Document]) (bool, error) {
		return true, car.PointerEnter()
	})
}

func (h *Handler) CarouselPointerLeave(c *gin.Context) {
	h.carouselRequest(c, func(car *carousel.Carousel[schema.Document]) (bool, error) {
		return true, car.PointerLeave()
	})
}

func (h *Handler) carouselRequest(c *gin.Context, req func(*carousel.Carousel[schema.Document]) (bool, error)) {
	name, car, ok := h.lookupCarousel(c)
	if !ok {
		return
	}
	accepted, err := req(car)
	if err != nil {
		carouselFail(c, err)
		return
	}
	view, err := viewOf(name, car, false)
	if err != nil {
		carouselFail(c, err)
		return
	}
	c.JSON(http.StatusOK, carouselAction{Accepted: accepted, Carousel: view})
}

func (h *Handler) lookupCarousel(c *gin.Context) (string, *carousel.Carousel[schema.Document], bool) {
	name := c.Param("name")
	car, ok := h.Carousels.Get(name)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "carousel not found"})
		return "", nil, false
	}
	return name, car, true
}

func viewOf(name string, car *carousel.Carousel[schema.Document], withSlides bool) (carouselView, error) {
	snap, err := car.Snapshot()
	if err != nil {
		return carouselView{}, err
	}
	view := carouselView{Name: name, Snapshot: snap}
	if withSlides {
		if view.Slides, err = car.Items(); err != nil {
			return carouselView{}, err
		}
	}
	return view, nil
}

// A carousel closed under a request was removed concurrently.
func carouselFail(c *gin.Context, err error) {
	if errors.Is(err, carousel.ErrClosed) {
		c.JSON(http.StatusNotFound, gin.H{"error": "carousel not found"})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
