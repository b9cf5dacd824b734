package subscription

import (
	"errors"
	"time"

	"github.com/diy-network/core/internal/models"
	"github.com/diy-network/core/internal/pkg/checkout"
	"github.com/diy-network/core/internal/pkg/mail"
	"github.com/diy-network/core/internal/pkg/pagination"
	"github.com/diy-network/core/internal/pkg/response"
	"github.com/gin-gonic/gin"
)

const (
	msgInvalidSubscriber = "Недійсні дані підписника."
	msgInvalidUpdate     = "Недійсні дані для оновлення статусу підписки."
	msgMailFailed        = "Не вдалося надіслати лист, спробуйте пізніше."
	msgNotFound          = "Підписника не знайдено."
)

type SubscribeDTO struct {
	Email string `json:"email" binding:"required,email,max=254"`
}

// SubscriberView is the public representation of a subscriber.
type SubscriberView struct {
	ID           string                 `json:"id"`
	Email        string                 `json:"email"`
	IsActive     bool                   `json:"is_active"`
	State        models.SubscriberState `json:"state"`
	SubscribedAt time.Time              `json:"subscribed_at"`
	CheckoutAt   *time.Time             `json:"checkout_at,omitempty"`
}

func toView(sub *models.SubscriberModel) SubscriberView {
	return SubscriberView{
		ID:           sub.ID,
		Email:        sub.Email,
		IsActive:     sub.IsActive,
		State:        sub.State(),
		SubscribedAt: sub.SubscribedAt,
		CheckoutAt:   sub.CheckoutAt,
	}
}

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

// RegisterRoutes mounts the public checkout endpoints. throttle guards the
// endpoints that send email.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, throttle gin.HandlerFunc) {
	g := rg.Group("/subscribers")
	g.POST("", throttle, h.subscribe)
	g.POST("/unsubscribe", throttle, h.requestUnsubscribe)
	for _, kind := range []string{kindSubscribe, kindUnsubscribe} {
		g.GET("/"+kind+"/:id/:hash", h.inspect)
		g.PATCH("/"+kind+"/:id/:hash", h.confirm)
	}
}

// RegisterAdminRoutes mounts the back-office endpoints on an authenticated group.
func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/subscribers")
	g.GET("", h.list)
	g.DELETE("/:id", h.deactivate)
}

func (h *Handler) subscribe(c *gin.Context) {
	var dto SubscribeDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, msgInvalidSubscriber)
		return
	}
	sub, err := h.svc.RequestSubscription(c.Request.Context(), dto.Email)
	if err != nil {
		h.fail(c, err, msgInvalidSubscriber)
		return
	}
	response.Created(c, gin.H{"id": sub.ID, "email": sub.Email})
}

func (h *Handler) requestUnsubscribe(c *gin.Context) {
	var dto SubscribeDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, msgInvalidSubscriber)
		return
	}
	if err := h.svc.RequestUnsubscription(c.Request.Context(), dto.Email); err != nil {
		h.fail(c, err, msgInvalidSubscriber)
		return
	}
	response.Accepted(c, gin.H{"email": normalizeEmail(dto.Email)})
}

func (h *Handler) inspect(c *gin.Context) {
	id, hash, ok := checkoutParams(c)
	if !ok {
		return
	}
	sub, err := h.svc.Inspect(c.Request.Context(), id, hash)
	if err != nil {
		h.fail(c, err, msgInvalidSubscriber)
		return
	}
	response.OK(c, toView(sub))
}

func (h *Handler) confirm(c *gin.Context) {
	id, hash, ok := checkoutParams(c)
	if !ok {
		return
	}
	sub, err := h.svc.Confirm(c.Request.Context(), id, hash)
	if err != nil {
		h.fail(c, err, msgInvalidUpdate)
		return
	}
	response.OK(c, toView(sub))
}

func (h *Handler) list(c *gin.Context) {
	q := pagination.FromContext(c)
	subs, total, err := h.svc.List(c.Request.Context(), q)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	views := make([]SubscriberView, 0, len(subs))
	for i := range subs {
		views = append(views, toView(&subs[i]))
	}
	response.Paged(c, views, pagination.Meta(total, q))
}

func (h *Handler) deactivate(c *gin.Context) {
	sub, err := h.svc.Deactivate(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err, msgInvalidUpdate)
		return
	}
	response.OK(c, toView(sub))
}

// checkoutParams rejects hashes that can never match, the same way an
// unknown route would.
func checkoutParams(c *gin.Context) (string, string, bool) {
	id, hash := c.Param("id"), c.Param("hash")
	if id == "" || !checkout.Valid(hash) {
		response.NotFoundMsg(c, msgNotFound)
		return "", "", false
	}
	return id, hash, true
}

// fail maps service errors to responses. Validation failures share one
// message so callers cannot tell which check failed.
func (h *Handler) fail(c *gin.Context, err error, invalidMsg string) {
	switch {
	case errors.Is(err, ErrNotFound):
		response.NotFoundMsg(c, msgNotFound)
	case errors.Is(err, ErrInvalidSubscriber),
		errors.Is(err, models.ErrNoPendingCheckout),
		errors.Is(err, models.ErrCheckoutMismatch):
		response.BadRequest(c, invalidMsg)
	case errors.Is(err, mail.ErrTransport):
		_ = c.Error(err)
		response.BadGateway(c, msgMailFailed)
	default:
		response.InternalError(c, err)
	}
}
