package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"time"

	"luvlang_server/models"
	"luvlang_server/services"
)

// probe is one named check. A non-nil error is a FAIL.
type probe struct {
	name string
	run  func(ctx context.Context) error
}

// runProbes runs every probe in order, printing one PASS/FAIL line each, and
// returns the number that failed.
func runProbes(ctx context.Context, out io.Writer, group string, probes []probe) int {
	failed := 0
	for _, p := range probes {
		start := time.Now()
		err := p.run(ctx)
		elapsed := time.Since(start).Round(time.Millisecond)
		if err != nil {
			failed++
			fmt.Fprintf(out, "FAIL  %-8s %-32s %v (%s)\n", group, p.name, err, elapsed)
			continue
		}
		fmt.Fprintf(out, "PASS  %-8s %-32s (%s)\n", group, p.name, elapsed)
	}
	return failed
}

// storageProbes write, list, resolve and remove one small object under the
// diag/ prefix of the photo bucket.
func storageProbes(store services.ObjectStore, policy models.Policy, now time.Time) []probe {
	bucket := policy.Photo.Bucket
	objectPath := services.BuildObjectPath("diag", "probe.txt", "text/plain", now, services.NewObjectSuffix())
	body := []byte("luvlang storage probe")

	return []probe{
		{"photo bucket exists", func(ctx context.Context) error {
			return requireBucket(ctx, store, bucket)
		}},
		{"voice bucket exists", func(ctx context.Context) error {
			return requireBucket(ctx, store, policy.Voice.Bucket)
		}},
		{"upload probe object", func(ctx context.Context) error {
			return store.Upload(ctx, bucket, objectPath, bytes.NewReader(body), int64(len(body)), "text/plain")
		}},
		{"second upload conflicts", func(ctx context.Context) error {
			err := store.Upload(ctx, bucket, objectPath, bytes.NewReader(body), int64(len(body)), "text/plain")
			if services.StorageKindOf(err) != services.StorageErrConflict {
				return fmt.Errorf("expected a conflict, got %v", err)
			}
			return nil
		}},
		{"list finds probe object", func(ctx context.Context) error {
			objects, err := store.List(ctx, bucket, "diag/")
			if err != nil {
				return err
			}
			if !slices.ContainsFunc(objects, func(o services.StoredObject) bool { return o.Path == objectPath }) {
				return fmt.Errorf("%s not listed", objectPath)
			}
			return nil
		}},
		{"public URL round-trips", func(context.Context) error {
			url := store.PublicURL(bucket, objectPath)
			got, ok := services.ObjectPathFromURL(store, bucket, url)
			if !ok || got != objectPath {
				return fmt.Errorf("%s resolved to %q", url, got)
			}
			return nil
		}},
		{"presign upload", func(ctx context.Context) error {
			_, err := store.PresignUpload(ctx, bucket, "diag/presign-probe.txt", "text/plain", 16, time.Minute)
			return err
		}},
		{"remove probe object", func(ctx context.Context) error {
			return store.Remove(ctx, bucket, objectPath)
		}},
	}
}

func requireBucket(ctx context.Context, store services.ObjectStore, bucket string) error {
	ok, err := store.BucketExists(ctx, bucket)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("bucket %q does not exist", bucket)
	}
	return nil
}

type profileBackend interface {
	AppendPhoto(ctx context.Context, userID, url string, max int) (*models.Profile, error)
	RemovePhoto(ctx context.Context, userID, url string) (*models.Profile, error)
	SetPrimaryPhoto(ctx context.Context, userID, url string) (*models.Profile, error)
	SetVoiceIntro(ctx context.Context, userID, url string) (*models.Profile, error)
}

// profileProbes exercise the photo list operations on a throwaway profile;
// cleanup deletes it.
func profileProbes(profiles profileBackend, cleanup func(ctx context.Context, userID string) error, userID string, maxPhotos int) []probe {
	first := "https://diag.invalid/" + userID + "/1.jpg"
	second := "https://diag.invalid/" + userID + "/2.jpg"

	return []probe{
		{"append creates profile", func(ctx context.Context) error {
			p, err := profiles.AppendPhoto(ctx, userID, first, maxPhotos)
			if err != nil {
				return err
			}
			return expectPhotos(p, first)
		}},
		{"append is idempotent", func(ctx context.Context) error {
			p, err := profiles.AppendPhoto(ctx, userID, first, maxPhotos)
			if err != nil {
				return err
			}
			return expectPhotos(p, first)
		}},
		{"set primary photo", func(ctx context.Context) error {
			if _, err := profiles.AppendPhoto(ctx, userID, second, maxPhotos); err != nil {
				return err
			}
			p, err := profiles.SetPrimaryPhoto(ctx, userID, second)
			if err != nil {
				return err
			}
			return expectPhotos(p, second, first)
		}},
		{"remove photo", func(ctx context.Context) error {
			p, err := profiles.RemovePhoto(ctx, userID, second)
			if err != nil {
				return err
			}
			return expectPhotos(p, first)
		}},
		{"remove unknown photo fails", func(ctx context.Context) error {
			_, err := profiles.RemovePhoto(ctx, userID, second)
			if !errors.Is(err, services.ErrPhotoNotFound) {
				return fmt.Errorf("expected photo not found, got %v", err)
			}
			return nil
		}},
		{"set voice intro", func(ctx context.Context) error {
			url := "https://diag.invalid/" + userID + "/intro.webm"
			p, err := profiles.SetVoiceIntro(ctx, userID, url)
			if err != nil {
				return err
			}
			if p.VoiceIntroURL != url {
				return fmt.Errorf("voice intro is %q", p.VoiceIntroURL)
			}
			return nil
		}},
		{"delete probe profile", func(ctx context.Context) error {
			return cleanup(ctx, userID)
		}},
	}
}

func expectPhotos(p *models.Profile, want ...string) error {
	if !slices.Equal(p.Photos, want) {
		return fmt.Errorf("photos are %v, want %v", p.Photos, want)
	}
	return nil
}

type planLister interface {
	ListPlans(ctx context.Context) ([]models.MembershipPlan, error)
}

type matchLister interface {
	ListMatches(ctx context.Context, userID, kind string) ([]models.MatchWithProfile, error)
}

// matchProbes only read; they never generate matches.
func matchProbes(plans planLister, matches matchLister, userID string) []probe {
	return []probe{
		{"list membership plans", func(ctx context.Context) error {
			list, err := plans.ListPlans(ctx)
			if err != nil {
				return err
			}
			if len(list) == 0 {
				return errors.New("no membership plans configured")
			}
			return nil
		}},
		{"query daily matches", func(ctx context.Context) error {
			_, err := matches.ListMatches(ctx, userID, models.MatchKindDaily)
			return err
		}},
		{"query executive matches", func(ctx context.Context) error {
			_, err := matches.ListMatches(ctx, userID, models.MatchKindExecutive)
			return err
		}},
	}
}
