package app

import (
	"context"

	"github.com/diy-network/core/internal/config"
	"github.com/diy-network/core/internal/modules/digest"
	pkgcron "github.com/diy-network/core/internal/pkg/cron"
	"go.uber.org/zap"
)

// JobSendDigest is the scheduler name of the digest mailing.
const JobSendDigest = "send_digest"

type digestResultKey struct{}

// digestRunner runs the digest job through the scheduler, so manual runs and
// scheduled ticks never overlap. A run already in progress yields
// pkgcron.ErrJobRunning.
type digestRunner struct {
	sched *pkgcron.Scheduler
}

func (r digestRunner) Run(ctx context.Context) (digest.Result, error) {
	var res digest.Result
	if err := r.sched.RunSync(context.WithValue(ctx, digestResultKey{}, &res), JobSendDigest); err != nil {
		return digest.Result{}, err
	}
	return res, nil
}

// registerCronJobs registers all scheduled background jobs.
func registerCronJobs(sched *pkgcron.Scheduler, run func(context.Context) (digest.Result, error), cfg *config.AppConfig, logger *zap.Logger) {
	cronLogger := logger.Named("CronService")

	sched.Register(pkgcron.Job{
		Name:        JobSendDigest,
		Description: "Send the digest of new events to active subscribers",
		Interval:    cfg.Mailing.Interval,
		Fn: func(ctx context.Context) error {
			res, err := run(ctx)
			if err != nil {
				return err
			}
			if out, ok := ctx.Value(digestResultKey{}).(*digest.Result); ok {
				*out = res
			}
			cronLogger.Info("digest run finished",
				zap.String("status", string(res.Status)),
				zap.Int("recipients", res.Recipients),
				zap.Int("items", res.Items),
			)
			return nil
		},
	})
	if cfg.Mailing.Interval <= 0 {
		cronLogger.Info("digest schedule disabled, run it with the mailing command or the admin API")
	}
}
