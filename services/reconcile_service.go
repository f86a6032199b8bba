package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"luvlang_server/models"
)

type PendingLister interface {
	Pending(ctx context.Context, userID string) ([]models.PendingWrite, error)
}

type ReconcileOptions struct {
	DeleteOrphans bool
	// GracePeriod protects objects whose profile write may still be in flight.
	GracePeriod time.Duration
}

// ReconcileReport compares a user's stored photos with their profile record.
type ReconcileReport struct {
	UserID     string   `json:"userId"`
	Objects    int      `json:"objects"`
	Referenced int      `json:"referenced"`
	Pending    int      `json:"pending"`
	Orphans    []string `json:"orphans"`
	Deleted    []string `json:"deleted"`
	Missing    []string `json:"missing"`
}

type ReconcileService struct {
	Store    ObjectStore
	Profiles interface {
		Get(ctx context.Context, userID string) (*models.Profile, error)
	}
	Pending PendingLister
	Bucket  string
	Now     func() time.Time
}

func (rs *ReconcileService) now() time.Time {
	if rs.Now != nil {
		return rs.Now()
	}
	return time.Now()
}

// Reconcile lists objects under "{userId}/" and matches them against the
// profile's photo URLs. Objects neither referenced nor queued for replay are
// orphans; profile URLs under the user's prefix with no object are missing.
func (rs *ReconcileService) Reconcile(ctx context.Context, userID string, opts ReconcileOptions) (*ReconcileReport, error) {
	report := &ReconcileReport{UserID: userID, Orphans: []string{}, Deleted: []string{}, Missing: []string{}}

	var photos []string
	profile, err := rs.Profiles.Get(ctx, userID)
	switch {
	case errors.Is(err, ErrProfileNotFound):
	case err != nil:
		return nil, fmt.Errorf("load profile %s: %w", userID, err)
	default:
		photos = profile.Photos
	}

	objects, err := rs.Store.List(ctx, rs.Bucket, userID+"/")
	if err != nil {
		return nil, fmt.Errorf("list objects for %s: %w", userID, err)
	}
	report.Objects = len(objects)

	referenced := make(map[string]bool, len(photos))
	for _, url := range photos {
		referenced[url] = true
	}
	queued := map[string]bool{}
	if rs.Pending != nil {
		writes, err := rs.Pending.Pending(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("read pending writes for %s: %w", userID, err)
		}
		for _, w := range writes {
			if w.Kind == models.MediaKindPhoto {
				queued[w.Path] = true
			}
		}
	}

	present := make(map[string]bool, len(objects))
	cutoff := rs.now().Add(-opts.GracePeriod)
	for _, obj := range objects {
		url := rs.Store.PublicURL(rs.Bucket, obj.Path)
		present[url] = true
		switch {
		case referenced[url]:
			report.Referenced++
		case queued[obj.Path]:
			report.Pending++
		default:
			report.Orphans = append(report.Orphans, obj.Path)
			if !opts.DeleteOrphans || obj.LastModified.After(cutoff) {
				continue
			}
			if err := rs.Store.Remove(ctx, rs.Bucket, obj.Path); err != nil {
				log.Printf("⚠️ Could not delete orphan %s: %v", obj.Path, err)
				continue
			}
			report.Deleted = append(report.Deleted, obj.Path)
		}
	}

	userPrefix := rs.Store.PublicURL(rs.Bucket, userID) + "/"
	for _, url := range photos {
		if strings.HasPrefix(url, userPrefix) && !present[url] {
			report.Missing = append(report.Missing, url)
		}
	}

	log.Printf("🧹 Reconciled %s: %d objects, %d referenced, %d pending, %d orphans (%d deleted), %d missing",
		userID, report.Objects, report.Referenced, report.Pending, len(report.Orphans), len(report.Deleted), len(report.Missing))
	return report, nil
}
