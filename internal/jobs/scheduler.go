// Package jobs runs the background schedule: the nightly ledger snapshot
// backup, the hourly sweep of abandoned withdraw dialogs and a morning
// summary for the admins.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"gebeyahub.et/referral-bot/internal/common"
	"gebeyahub.et/referral-bot/internal/config"
	"gebeyahub.et/referral-bot/internal/db/postgres"
	"gebeyahub.et/referral-bot/internal/features/admin"
	"gebeyahub.et/referral-bot/internal/features/withdraw"
)

// Scheduler owns the cron jobs.
type Scheduler struct {
	cron         *cron.Cron
	pool         *pgxpool.Pool
	sessions     *withdraw.SessionStore
	adminService *admin.Service
	cfg          *config.Config
	sendFunc     func(userID int64, text string)
}

// NewScheduler builds the scheduler in the configured timezone.
func NewScheduler(
	pool *pgxpool.Pool,
	sessions *withdraw.SessionStore,
	adminService *admin.Service,
	cfg *config.Config,
	sendFunc func(userID int64, text string),
) *Scheduler {
	loc, err := time.LoadLocation(cfg.AppTimezone)
	if err != nil {
		log.WithError(err).Warnf("failed to load %s, falling back to UTC+3", cfg.AppTimezone)
		loc = time.FixedZone("EAT", 3*60*60)
	}

	return &Scheduler{
		cron:         cron.New(cron.WithLocation(loc)),
		pool:         pool,
		sessions:     sessions,
		adminService: adminService,
		cfg:          cfg,
		sendFunc:     sendFunc,
	}
}

// Start registers and launches all jobs.
func (s *Scheduler) Start(ctx context.Context) {
	// nightly snapshot of users / pending purchases / withdrawals
	if _, err := s.cron.AddFunc(s.cfg.BackupCron, func() {
		log.Info("[CRON] ledger snapshot backup")
		path, err := postgres.ExportSnapshot(ctx, s.pool, s.cfg.BackupDir)
		if err != nil {
			log.WithError(err).Error("[CRON] backup failed")
			return
		}
		log.WithField("path", path).Info("[CRON] backup done")
	}); err != nil {
		log.WithError(err).WithField("spec", s.cfg.BackupCron).Error("failed to schedule the backup job")
	}

	// hourly sweep of withdraw dialogs nobody finished
	s.cron.AddFunc("@hourly", func() {
		if removed := s.sessions.Sweep(); removed > 0 {
			log.WithField("removed", removed).Info("[CRON] swept abandoned withdraw sessions")
		}
	})

	// morning summary for the admins
	s.cron.AddFunc("0 8 * * *", func() {
		stats, err := s.adminService.GetStats(ctx)
		if err != nil {
			log.WithError(err).Error("[CRON] failed to load stats for the summary")
			return
		}
		text := fmt.Sprintf(
			"🌅 Daily summary\nUsers: %d\nPending purchases: %d\nPending withdrawals: %d\nPaid out so far: %s",
			stats.TotalUsers, stats.PendingPurchases, stats.PendingWithdrawals,
			common.FormatBirr(stats.ApprovedPayoutTotal))
		for _, adminID := range s.cfg.AdminIDs {
			s.sendFunc(adminID, text)
		}
	})

	s.cron.Start()
	log.WithField("timezone", s.cfg.AppTimezone).Info("scheduler started")
}

// Stop halts the scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Info("scheduler stopped")
}
