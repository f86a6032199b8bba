package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"luvlang_server/models"
)

type UploadState string

const (
	StateIdle         UploadState = "idle"
	StateValidating   UploadState = "validating"
	StateUploading    UploadState = "uploading"
	StateResolvingURL UploadState = "resolving-url"
	StatePersisting   UploadState = "persisting"
	StateDone         UploadState = "done"
	StateFailed       UploadState = "failed"
)

// MediaRecordStore is the part of the profile store the orchestrator needs.
type MediaRecordStore interface {
	Get(ctx context.Context, userID string) (*models.Profile, error)
	AppendPhoto(ctx context.Context, userID, url string, max int) (*models.Profile, error)
	SetVoiceIntro(ctx context.Context, userID, url string) (*models.Profile, error)
}

// Notifier delivers a user-facing notification, best effort.
type Notifier interface {
	Notify(ctx context.Context, userID string, n models.Notification)
}

type PendingQueue interface {
	Enqueue(ctx context.Context, write models.PendingWrite) error
	Replay(ctx context.Context, userID string, apply func(context.Context, models.PendingWrite) error) (int, error)
}

// UploadRequest is one user action: a single file for one user.
type UploadRequest struct {
	UserID      string
	Kind        string // models.MediaKindPhoto (default) or models.MediaKindVoice
	FileName    string
	ContentType string
	Size        int64
	Body        io.Reader
	// Reset runs once the upload reaches a terminal state, whatever it is,
	// so the caller can release the input (temp files, form state).
	Reset func()
}

type UploadResult struct {
	State         UploadState           `json:"state"`
	FailedAt      UploadState           `json:"failedAt,omitempty"`
	Transitions   []UploadState         `json:"transitions"`
	Path          string                `json:"path,omitempty"`
	URL           string                `json:"url,omitempty"`
	Profile       *models.Profile       `json:"profile,omitempty"`
	Persisted     bool                  `json:"persisted"`
	PersistErr    error                 `json:"-"`
	Notifications []models.Notification `json:"notifications"`
}

// UploadOrchestrator sequences validate -> upload -> resolve URL -> persist.
// Runs for the same user are serialised.
type UploadOrchestrator struct {
	Store    ObjectStore
	Profiles MediaRecordStore
	Notifier Notifier
	Pending  PendingQueue
	Policy   models.Policy
	Metrics  *UploadMetrics
	Now      func() time.Time
	Suffix   func() string

	locks keyedMutex
}

type uploadRun struct {
	o      *UploadOrchestrator
	ctx    context.Context
	req    UploadRequest
	result *UploadResult
	stage  UploadState
	start  time.Time
}

func (r *uploadRun) to(state UploadState) {
	switch r.stage {
	case "", StateIdle, StateDone, StateFailed:
	default:
		if state != StateFailed {
			r.o.Metrics.observeStage(r.req.Kind, string(r.stage), "ok", time.Since(r.start))
		}
	}
	r.stage = state
	r.start = time.Now()
	r.result.Transitions = append(r.result.Transitions, state)
}

func (r *uploadRun) notify(kind, title, message string) {
	n := models.Notification{Kind: kind, Title: title, Message: message}
	r.result.Notifications = append(r.result.Notifications, n)
	if r.o.Notifier != nil {
		r.o.Notifier.Notify(r.ctx, r.req.UserID, n)
	}
}

// fail moves to the failed state from the current stage and notifies the user.
func (r *uploadRun) fail(reason, title, message string, err error) error {
	r.o.Metrics.observeStage(r.req.Kind, string(r.stage), "failed", time.Since(r.start))
	r.o.Metrics.failure(r.req.Kind, string(r.stage), reason)
	r.result.FailedAt = r.stage
	r.result.State = StateFailed
	r.to(StateFailed)
	r.notify(models.NotifyError, title, message)
	log.Printf("❌ %s upload for %s failed while %s: %v", r.req.Kind, r.req.UserID, r.result.FailedAt, err)
	return err
}

func (o *UploadOrchestrator) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

func (o *UploadOrchestrator) suffix() string {
	if o.Suffix != nil {
		return o.Suffix()
	}
	return NewObjectSuffix()
}

func (o *UploadOrchestrator) policyFor(kind string) models.MediaPolicy {
	if kind == models.MediaKindVoice {
		return o.Policy.Voice
	}
	return o.Policy.Photo
}

// Upload runs one upload to completion. The returned result is never nil; the
// error is non-nil exactly when the run ended in StateFailed. A failed profile
// write after a stored upload still ends in StateDone with Persisted=false.
func (o *UploadOrchestrator) Upload(ctx context.Context, req UploadRequest) (*UploadResult, error) {
	if req.Kind == "" {
		req.Kind = models.MediaKindPhoto
	}
	result := &UploadResult{}
	run := &uploadRun{o: o, ctx: ctx, req: req, result: result}
	run.to(StateIdle)

	defer func() {
		if closer, ok := req.Body.(io.Closer); ok {
			closer.Close()
		}
		if req.Reset != nil {
			req.Reset()
		}
		run.to(StateIdle)
	}()

	unlock := o.locks.Lock(req.UserID)
	defer unlock()
	defer o.Metrics.trackInFlight()()

	policy := o.policyFor(req.Kind)

	run.to(StateValidating)
	if v := ValidateMedia(policy, req.ContentType, req.Size); !v.OK {
		return result, run.fail(string(v.Code), v.Title, v.Reason, &ValidationError{Result: v})
	}
	if req.Kind == models.MediaKindPhoto {
		current, err := o.Profiles.Get(ctx, req.UserID)
		if err != nil && !errors.Is(err, ErrProfileNotFound) {
			return result, run.fail("profile_read", "Upload Failed", "We couldn't load your profile. Please try again.", err)
		}
		if current != nil && len(current.Photos) >= o.Policy.MaxPhotos {
			return result, run.fail("photo_limit", "Photo Limit Reached",
				fmt.Sprintf("You can have at most %d photos. Remove one to add another.", o.Policy.MaxPhotos), ErrPhotoLimitReached)
		}
	}

	run.to(StateUploading)
	objectPath := BuildObjectPath(req.UserID, req.FileName, req.ContentType, o.now(), o.suffix())
	if err := o.Store.Upload(ctx, policy.Bucket, objectPath, req.Body, req.Size, req.ContentType); err != nil {
		kind := StorageKindOf(err)
		return result, run.fail(kind.String(), "Upload Failed", UserMessage(kind), err)
	}
	result.Path = objectPath

	return o.persist(run, policy, objectPath)
}

// ConfirmRequest names an object the client PUT through a presigned URL.
type ConfirmRequest struct {
	UserID string
	Kind   string
	Path   string
}

// ConfirmUpload records an object uploaded directly to storage on the
// caller's profile. It shares the per-user lock with Upload, skips the
// uploading stage, and re-checks the stored size since the client sent it.
func (o *UploadOrchestrator) ConfirmUpload(ctx context.Context, req ConfirmRequest) (*UploadResult, error) {
	if req.Kind == "" {
		req.Kind = models.MediaKindPhoto
	}
	result := &UploadResult{}
	run := &uploadRun{o: o, ctx: ctx, req: UploadRequest{UserID: req.UserID, Kind: req.Kind}, result: result}
	run.to(StateIdle)
	defer run.to(StateIdle)

	unlock := o.locks.Lock(req.UserID)
	defer unlock()
	defer o.Metrics.trackInFlight()()

	policy := o.policyFor(req.Kind)

	run.to(StateValidating)
	if !OwnsObjectPath(req.UserID, req.Path) {
		return result, run.fail("foreign_path", "Upload Failed", "That file doesn't belong to your account.", ErrInvalidObjectPath)
	}
	obj, err := o.findObject(ctx, policy.Bucket, req.Path)
	if err != nil {
		kind := StorageKindOf(err)
		return result, run.fail(kind.String(), "Upload Failed", UserMessage(kind), err)
	}
	if obj == nil {
		return result, run.fail("object_missing", "Upload Failed", "We couldn't find your upload. Please try again.", ErrObjectNotFound)
	}
	result.Path = req.Path
	if v := ValidateSize(policy, obj.Size); !v.OK {
		o.removeUnreferenced(ctx, policy.Bucket, req.Path)
		return result, run.fail(string(v.Code), v.Title, v.Reason, &ValidationError{Result: v})
	}

	return o.persist(run, policy, req.Path)
}

func (o *UploadOrchestrator) findObject(ctx context.Context, bucket, objectPath string) (*StoredObject, error) {
	objects, err := o.Store.List(ctx, bucket, objectPath)
	if err != nil {
		return nil, err
	}
	for i := range objects {
		if objects[i].Path == objectPath {
			return &objects[i], nil
		}
	}
	return nil, nil
}

func (o *UploadOrchestrator) removeUnreferenced(ctx context.Context, bucket, objectPath string) {
	if err := o.Store.Remove(ctx, bucket, objectPath); err != nil {
		log.Printf("⚠️ Could not remove unreferenced object %s: %v", objectPath, err)
	}
}

// persist resolves the public URL of a stored object and records it on the
// profile, ending the run in StateDone or StateFailed.
func (o *UploadOrchestrator) persist(run *uploadRun, policy models.MediaPolicy, objectPath string) (*UploadResult, error) {
	ctx, req, result := run.ctx, run.req, run.result
	noun, title := "photo", "Photo Uploaded"
	if req.Kind == models.MediaKindVoice {
		noun, title = "voice intro", "Voice Intro Uploaded"
	}

	run.to(StateResolvingURL)
	url := o.Store.PublicURL(policy.Bucket, objectPath)
	if url == "" {
		return result, run.fail("no_url", "Upload Failed", "We couldn't get a link for your upload. Please try again.", errors.New("empty public url"))
	}
	result.URL = url

	run.to(StatePersisting)
	var (
		profile *models.Profile
		err     error
	)
	if req.Kind == models.MediaKindVoice {
		profile, err = o.Profiles.SetVoiceIntro(ctx, req.UserID, url)
	} else {
		profile, err = o.Profiles.AppendPhoto(ctx, req.UserID, url, o.Policy.MaxPhotos)
	}

	if errors.Is(err, ErrPhotoLimitReached) {
		// Another device filled the list since validation; the object has no owner.
		o.removeUnreferenced(ctx, policy.Bucket, objectPath)
		return result, run.fail("photo_limit", "Photo Limit Reached",
			fmt.Sprintf("You can have at most %d photos. Remove one to add another.", o.Policy.MaxPhotos), err)
	}

	if err != nil {
		result.PersistErr = err
		o.Metrics.failure(req.Kind, string(StatePersisting), "profile_write")
		o.Metrics.pending(req.Kind)
		log.Printf("⚠️ %s stored at %s but profile write failed for %s: %v", req.Kind, objectPath, req.UserID, err)
		if o.Pending != nil {
			write := models.PendingWrite{UserID: req.UserID, Kind: req.Kind, URL: url, Path: objectPath}
			if qErr := o.Pending.Enqueue(ctx, write); qErr != nil {
				log.Printf("❌ Could not queue pending write for %s: %v", req.UserID, qErr)
			}
		}
	} else {
		result.Profile = profile
		result.Persisted = true
	}

	run.to(StateDone)
	result.State = StateDone
	run.notify(models.NotifySuccess, title, fmt.Sprintf("Your %s has been added to your profile.", noun))
	if !result.Persisted {
		run.notify(models.NotifyWarning, "Sync Pending", fmt.Sprintf("Your %s was uploaded and will appear on your profile shortly.", noun))
	}
	log.Printf("✅ %s upload for %s done: %s (persisted=%v)", req.Kind, req.UserID, url, result.Persisted)
	return result, nil
}

// ReplayPending re-applies queued profile writes for a user.
func (o *UploadOrchestrator) ReplayPending(ctx context.Context, userID string) (int, error) {
	if o.Pending == nil {
		return 0, nil
	}
	unlock := o.locks.Lock(userID)
	defer unlock()

	return o.Pending.Replay(ctx, userID, func(ctx context.Context, w models.PendingWrite) error {
		switch w.Kind {
		case models.MediaKindVoice:
			_, err := o.Profiles.SetVoiceIntro(ctx, w.UserID, w.URL)
			return err
		default:
			_, err := o.Profiles.AppendPhoto(ctx, w.UserID, w.URL, o.Policy.MaxPhotos)
			if errors.Is(err, ErrPhotoLimitReached) {
				log.Printf("⚠️ Dropping pending photo %s for %s: profile is full", w.URL, w.UserID)
				return nil
			}
			return err
		}
	})
}
