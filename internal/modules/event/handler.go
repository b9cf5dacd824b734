package event

import (
	"errors"

	"github.com/diy-network/core/internal/pkg/pagination"
	"github.com/diy-network/core/internal/pkg/response"
	"github.com/gin-gonic/gin"
)

type Handler struct {
	svc       *Service
	supported map[string]bool
}

func NewHandler(svc *Service, locales []string) *Handler {
	supported := make(map[string]bool, len(locales))
	for _, l := range locales {
		supported[l] = true
	}
	return &Handler{svc: svc, supported: supported}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/events")
	g.GET("", h.list)
	g.GET("/:id", h.get)
}

func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.POST("/events", h.create)
}

func (h *Handler) locale(c *gin.Context) string {
	if l := c.Query("locale"); h.supported[l] {
		return l
	}
	return h.svc.DefaultLocale()
}

func (h *Handler) list(c *gin.Context) {
	q := pagination.FromContext(c)
	events, total, err := h.svc.ListActive(c.Request.Context(), q)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	locale := h.locale(c)
	views := make([]View, 0, len(events))
	for i := range events {
		v, err := h.svc.View(&events[i], locale)
		if err != nil {
			response.InternalError(c, err)
			return
		}
		views = append(views, v)
	}
	response.Paged(c, views, pagination.Meta(total, q))
}

func (h *Handler) get(c *gin.Context) {
	ev, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if errors.Is(err, ErrNotFound) || (err == nil && !ev.IsActive) {
		response.NotFound(c)
		return
	}
	if err != nil {
		response.InternalError(c, err)
		return
	}
	v, err := h.svc.View(ev, h.locale(c))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, v)
}

func (h *Handler) create(c *gin.Context) {
	var in CreateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	ev, err := h.svc.Create(c.Request.Context(), in)
	if errors.Is(err, ErrInvalidEvent) {
		response.BadRequest(c, err.Error())
		return
	}
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Created(c, ev)
}
