package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"luvlang_server/models"
	"luvlang_server/services"

	"github.com/robfig/cron/v3"
)

type ProfileLister interface {
	ListAll(ctx context.Context) ([]models.Profile, error)
}

type MatchGenerator interface {
	GenerateDailyMatches(ctx context.Context, userID string) ([]models.MatchWithProfile, error)
}

type DigestSender interface {
	SendDailyDigest(p models.Profile, matches []models.MatchWithProfile) error
}

type Reconciler interface {
	Reconcile(ctx context.Context, userID string, opts services.ReconcileOptions) (*services.ReconcileReport, error)
}

type PendingUsers interface {
	Users(ctx context.Context) ([]string, error)
}

type PendingReplayer interface {
	ReplayPending(ctx context.Context, userID string) (int, error)
}

// NightlyReport counts what one nightly run did.
type NightlyReport struct {
	Profiles      int
	MatchesFor    int
	DigestsSent   int
	Reconciled    int
	Orphans       int
	Deleted       int
	PendingUsers  int
	ReplayedCount int
	Errors        int
}

// Scheduler runs the nightly maintenance jobs.
type Scheduler struct {
	Profiles  ProfileLister
	Matches   MatchGenerator
	Digest    DigestSender
	Reconcile Reconciler
	Pending   PendingUsers
	Replayer  PendingReplayer

	DeleteOrphans bool
	GracePeriod   time.Duration
	Timeout       time.Duration

	cron *cron.Cron
}

// Start registers the nightly job on spec (six fields, seconds first) and
// starts the cron loop.
func (s *Scheduler) Start(spec string) error {
	c := cron.New(cron.WithSeconds(), cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))
	if _, err := c.AddFunc(spec, s.runNightly); err != nil {
		return fmt.Errorf("failed to create cron job %q: %w", spec, err)
	}
	s.cron = c
	c.Start()
	log.Printf("⏰ Cron scheduler started (%s)", spec)
	return nil
}

// Stop halts the cron loop and waits for a running job to finish.
func (s *Scheduler) Stop() {
	if s.cron == nil {
		return
	}
	<-s.cron.Stop().Done()
	log.Println("⏰ Cron scheduler stopped")
}

func (s *Scheduler) runNightly() {
	ctx := context.Background()
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}
	report := s.RunNightly(ctx)
	log.Printf("🌙 Nightly run done: %+v", report)
}

// RunNightly replays pending writes, regenerates matches and sends digests,
// then reconciles storage. Per-user failures are counted and skipped.
func (s *Scheduler) RunNightly(ctx context.Context) NightlyReport {
	var report NightlyReport

	// Replay first so reconciliation sees the recovered references.
	if s.Pending != nil && s.Replayer != nil {
		users, err := s.Pending.Users(ctx)
		if err != nil {
			log.Printf("❌ Listing pending users failed: %v", err)
			report.Errors++
		}
		report.PendingUsers = len(users)
		for _, userID := range users {
			n, err := s.Replayer.ReplayPending(ctx, userID)
			if err != nil {
				log.Printf("⚠️ Replay for %s failed: %v", userID, err)
				report.Errors++
				continue
			}
			report.ReplayedCount += n
		}
	}

	profiles, err := s.Profiles.ListAll(ctx)
	if err != nil {
		log.Printf("❌ Listing profiles failed: %v", err)
		report.Errors++
		return report
	}
	report.Profiles = len(profiles)

	for _, p := range profiles {
		if ctx.Err() != nil {
			log.Printf("⚠️ Nightly run interrupted: %v", ctx.Err())
			report.Errors++
			return report
		}
		s.matchesFor(ctx, p, &report)
		s.reconcile(ctx, p.UserID, &report)
	}
	return report
}

func (s *Scheduler) matchesFor(ctx context.Context, p models.Profile, report *NightlyReport) {
	if s.Matches == nil {
		return
	}
	matches, err := s.Matches.GenerateDailyMatches(ctx, p.UserID)
	if err != nil {
		log.Printf("⚠️ Daily matches for %s failed: %v", p.UserID, err)
		report.Errors++
		return
	}
	report.MatchesFor++
	if s.Digest == nil || p.EmailID == "" || len(matches) == 0 {
		return
	}
	if err := s.Digest.SendDailyDigest(p, matches); err != nil {
		log.Printf("⚠️ Digest to %s failed: %v", p.UserID, err)
		report.Errors++
		return
	}
	report.DigestsSent++
}

func (s *Scheduler) reconcile(ctx context.Context, userID string, report *NightlyReport) {
	if s.Reconcile == nil {
		return
	}
	rep, err := s.Reconcile.Reconcile(ctx, userID, services.ReconcileOptions{
		DeleteOrphans: s.DeleteOrphans,
		GracePeriod:   s.GracePeriod,
	})
	if err != nil {
		log.Printf("⚠️ Reconcile for %s failed: %v", userID, err)
		report.Errors++
		return
	}
	report.Reconciled++
	report.Orphans += len(rep.Orphans)
	report.Deleted += len(rep.Deleted)
	if len(rep.Missing) > 0 {
		log.Printf("⚠️ %s references %d missing objects", userID, len(rep.Missing))
	}
}
