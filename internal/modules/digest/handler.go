package digest

import (
	"context"
	"errors"
	"time"

	"github.com/diy-network/core/internal/models"
	pkgcron "github.com/diy-network/core/internal/pkg/cron"
	"github.com/diy-network/core/internal/pkg/pagination"
	"github.com/diy-network/core/internal/pkg/response"
	"github.com/gin-gonic/gin"
)

// MailingView is the admin listing row of a mailing.
type MailingView struct {
	ID               string    `json:"id"`
	MailingAt        time.Time `json:"mailing_at"`
	SubscribersCount int       `json:"subscribers_count"`
}

func toView(m *models.MailingModel) MailingView {
	return MailingView{ID: m.ID, MailingAt: m.MailingAt, SubscribersCount: m.SubscribersCount()}
}

const msgRunInProgress = "Розсилка вже виконується."

// Runner starts one digest run. The server passes a scheduler-backed runner
// so that manual and scheduled runs share one overlap guard.
type Runner interface {
	Run(ctx context.Context) (Result, error)
}

type Handler struct {
	svc    *Service
	runner Runner
}

// NewHandler builds the admin handler. A nil runner runs svc directly.
func NewHandler(svc *Service, runner Runner) *Handler {
	if runner == nil {
		runner = svc
	}
	return &Handler{svc: svc, runner: runner}
}

// RegisterAdminRoutes mounts the mailing endpoints on an authenticated group.
func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/mailings")
	g.GET("", h.list)
	g.POST("/run", h.run)
}

func (h *Handler) list(c *gin.Context) {
	q := pagination.FromContext(c)
	mailings, total, err := h.svc.Mailings(c.Request.Context(), q)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	views := make([]MailingView, 0, len(mailings))
	for i := range mailings {
		views = append(views, toView(&mailings[i]))
	}
	response.Paged(c, views, pagination.Meta(total, q))
}

func (h *Handler) run(c *gin.Context) {
	res, err := h.runner.Run(c.Request.Context())
	if errors.Is(err, pkgcron.ErrJobRunning) {
		response.Conflict(c, msgRunInProgress)
		return
	}
	if err != nil {
		response.InternalError(c, err)
		return
	}
	out := gin.H{"status": res.Status, "recipients": res.Recipients, "items": res.Items}
	if res.Mailing != nil {
		out["mailing"] = toView(res.Mailing)
	}
	response.OK(c, out)
}
