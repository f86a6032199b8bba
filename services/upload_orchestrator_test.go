package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"testing"

	"luvlang_server/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingNotifier struct {
	mu   sync.Mutex
	sent []models.Notification
}

func (n *recordingNotifier) Notify(_ context.Context, _ string, note models.Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, note)
}

type trackedBody struct {
	io.Reader
	closed bool
}

func (b *trackedBody) Close() error {
	b.closed = true
	return nil
}

type orchestratorFixture struct {
	orch     *UploadOrchestrator
	store    *fakeStore
	dynamo   *fakeDynamo
	profiles *UserProfileService
	notifier *recordingNotifier
	queue    *PendingWriteQueue
}

func newOrchestratorFixture(t *testing.T) *orchestratorFixture {
	t.Helper()
	profiles, dynamo := newTestProfileService()
	client, _ := setupTestRedis(t)
	f := &orchestratorFixture{
		store:    newFakeStore(),
		dynamo:   dynamo,
		profiles: profiles,
		notifier: &recordingNotifier{},
		queue:    &PendingWriteQueue{Redis: client, MaxAttempts: 5, Now: fixedNow},
	}
	f.orch = &UploadOrchestrator{
		Store:    f.store,
		Profiles: profiles,
		Notifier: f.notifier,
		Pending:  f.queue,
		Policy:   models.DefaultPolicy(),
		Now:      fixedNow,
		Suffix:   func() string { return "a1b2c3d4" },
	}
	return f
}

func photoRequest(userID, name, contentType string, size int64) (UploadRequest, *trackedBody, *bool) {
	body := &trackedBody{Reader: bytes.NewReader([]byte("image-bytes"))}
	reset := false
	return UploadRequest{
		UserID:      userID,
		FileName:    name,
		ContentType: contentType,
		Size:        size,
		Body:        body,
		Reset:       func() { reset = true },
	}, body, &reset
}

func TestUploadOrchestrator_PhotoHappyPath(t *testing.T) {
	ctx := context.Background()
	f := newOrchestratorFixture(t)

	req, body, reset := photoRequest("u1", "Beach.JPG", "image/jpeg", 200*1024)
	result, err := f.orch.Upload(ctx, req)
	require.NoError(t, err)

	wantPath := fmt.Sprintf("u1/%d_a1b2c3d4.jpg", fixedNow().UnixMilli())
	assert.Equal(t, StateDone, result.State)
	assert.Equal(t, wantPath, result.Path)
	assert.Regexp(t, `^u1/\d+_[0-9a-f]{8}\.jpg$`, result.Path)
	assert.Equal(t, "https://cdn.test/profile-photos/"+wantPath, result.URL)
	assert.True(t, result.Persisted)
	assert.Equal(t, []UploadState{
		StateIdle, StateValidating, StateUploading, StateResolvingURL, StatePersisting, StateDone, StateIdle,
	}, result.Transitions)

	assert.True(t, f.store.has(models.ProfilePhotosBucket, wantPath))
	stored, err := f.profiles.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{result.URL}, stored.Photos)
	assert.Equal(t, result.URL, stored.PrimaryPhoto())

	require.Len(t, f.notifier.sent, 1)
	assert.Equal(t, models.NotifySuccess, f.notifier.sent[0].Kind)
	assert.Equal(t, "Photo Uploaded", f.notifier.sent[0].Title)
	assert.True(t, body.closed)
	assert.True(t, *reset)
}

func TestUploadOrchestrator_ValidationRejectsBeforeStorage(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		size        int64
		title       string
	}{
		{"png over five megabytes", "image/png", 6 * 1024 * 1024, "File Too Large"},
		{"plain text", "text/plain", 1024, "Invalid File Type"},
		{"empty file", "image/webp", 0, "Empty File"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newOrchestratorFixture(t)
			req, body, reset := photoRequest("u1", "file", tt.contentType, tt.size)

			result, err := f.orch.Upload(context.Background(), req)

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, StateFailed, result.State)
			assert.Equal(t, StateValidating, result.FailedAt)
			assert.Equal(t, 0, f.store.uploads)
			assert.Equal(t, 0, f.dynamo.count(models.ProfilesTable))
			require.Len(t, f.notifier.sent, 1)
			assert.Equal(t, models.NotifyError, f.notifier.sent[0].Kind)
			assert.Equal(t, tt.title, f.notifier.sent[0].Title)
			assert.True(t, body.closed)
			assert.True(t, *reset)
			assert.Equal(t, StateIdle, result.Transitions[len(result.Transitions)-1])
		})
	}
}

func TestUploadOrchestrator_StorageAccessDenied(t *testing.T) {
	f := newOrchestratorFixture(t)
	f.store.uploadErr = &StorageError{Kind: StorageErrAccessDenied, Op: "upload", Err: errors.New("row-level security policy")}

	req, body, reset := photoRequest("u1", "a.png", "image/png", 1024)
	result, err := f.orch.Upload(context.Background(), req)

	require.Error(t, err)
	assert.Equal(t, StateFailed, result.State)
	assert.Equal(t, StateUploading, result.FailedAt)
	assert.Empty(t, result.URL)
	require.Len(t, f.notifier.sent, 1)
	assert.Equal(t, "Upload Failed", f.notifier.sent[0].Title)
	assert.Contains(t, f.notifier.sent[0].Message, "permission")
	assert.Equal(t, 0, f.dynamo.count(models.ProfilesTable))
	assert.True(t, body.closed)
	assert.True(t, *reset)
}

func TestUploadOrchestrator_PersistFailureKeepsObjectAndQueuesReplay(t *testing.T) {
	ctx := context.Background()
	f := newOrchestratorFixture(t)
	f.dynamo.failPut[models.ProfilesTable] = errFakeDown

	req, _, reset := photoRequest("u1", "a.jpg", "image/jpeg", 1024)
	result, err := f.orch.Upload(ctx, req)

	require.NoError(t, err)
	assert.Equal(t, StateDone, result.State)
	assert.False(t, result.Persisted)
	assert.ErrorIs(t, result.PersistErr, errFakeDown)
	assert.True(t, f.store.has(models.ProfilePhotosBucket, result.Path))
	assert.Empty(t, f.store.removed)
	assert.True(t, *reset)

	require.Len(t, f.notifier.sent, 2)
	assert.Equal(t, models.NotifySuccess, f.notifier.sent[0].Kind)
	assert.Equal(t, models.NotifyWarning, f.notifier.sent[1].Kind)

	pending, err := f.queue.Pending(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, result.URL, pending[0].URL)
	assert.Equal(t, result.Path, pending[0].Path)

	delete(f.dynamo.failPut, models.ProfilesTable)
	applied, err := f.orch.ReplayPending(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, applied)

	stored, err := f.profiles.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{result.URL}, stored.Photos)

	pending, err = f.queue.Pending(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestUploadOrchestrator_PhotoLimit(t *testing.T) {
	ctx := context.Background()
	f := newOrchestratorFixture(t)

	full := &models.Profile{UserID: "u1"}
	for i := 0; i < f.orch.Policy.MaxPhotos; i++ {
		full.Photos = append(full.Photos, fmt.Sprintf("https://cdn.test/p%d.jpg", i))
	}
	require.NoError(t, f.profiles.Save(ctx, full, false))

	req, _, _ := photoRequest("u1", "a.jpg", "image/jpeg", 1024)
	result, err := f.orch.Upload(ctx, req)

	assert.ErrorIs(t, err, ErrPhotoLimitReached)
	assert.Equal(t, StateValidating, result.FailedAt)
	assert.Equal(t, 0, f.store.uploads)
	assert.Equal(t, "Photo Limit Reached", f.notifier.sent[0].Title)
}

// racingProfiles reports room during the pre-check but is full at write time.
type racingProfiles struct {
	*UserProfileService
}

func (r racingProfiles) AppendPhoto(context.Context, string, string, int) (*models.Profile, error) {
	return nil, ErrPhotoLimitReached
}

func TestUploadOrchestrator_LimitAtPersistRemovesObject(t *testing.T) {
	f := newOrchestratorFixture(t)
	f.orch.Profiles = racingProfiles{f.profiles}

	req, _, _ := photoRequest("u1", "a.jpg", "image/jpeg", 1024)
	result, err := f.orch.Upload(context.Background(), req)

	assert.ErrorIs(t, err, ErrPhotoLimitReached)
	assert.Equal(t, StatePersisting, result.FailedAt)
	assert.Equal(t, []string{result.Path}, f.store.removed)
	assert.False(t, f.store.has(models.ProfilePhotosBucket, result.Path))
}

func TestUploadOrchestrator_VoiceIntro(t *testing.T) {
	ctx := context.Background()
	f := newOrchestratorFixture(t)

	req, _, _ := photoRequest("u1", "intro", "audio/webm", 512*1024)
	req.Kind = models.MediaKindVoice
	result, err := f.orch.Upload(ctx, req)
	require.NoError(t, err)

	assert.Equal(t, fmt.Sprintf("u1/%d_a1b2c3d4.webm", fixedNow().UnixMilli()), result.Path)
	assert.True(t, f.store.has(models.VoiceRecordingsBucket, result.Path))

	stored, err := f.profiles.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, result.URL, stored.VoiceIntroURL)
	assert.Empty(t, stored.Photos)
	assert.Equal(t, "Voice Intro Uploaded", f.notifier.sent[0].Title)
}

func TestUploadOrchestrator_ConcurrentUploadsRespectLimit(t *testing.T) {
	ctx := context.Background()
	f := newOrchestratorFixture(t)
	var seq atomic.Int64
	f.orch.Suffix = func() string { return fmt.Sprintf("%08x", seq.Add(1)) }

	const attempts = 9
	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		done   int
		failed int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			req, _, _ := photoRequest("u1", "a.jpg", "image/jpeg", 1024)
			result, _ := f.orch.Upload(ctx, req)
			mu.Lock()
			defer mu.Unlock()
			if result.State == StateDone {
				done++
			} else {
				failed++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, f.orch.Policy.MaxPhotos, done)
	assert.Equal(t, attempts-f.orch.Policy.MaxPhotos, failed)

	stored, err := f.profiles.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, stored.Photos, f.orch.Policy.MaxPhotos)
}

func TestUploadOrchestrator_ConfirmDirectUpload(t *testing.T) {
	ctx := context.Background()
	f := newOrchestratorFixture(t)
	f.store.put(models.ProfilePhotosBucket, "u1/1700000000000_abcd1234.jpg", 4096, fixedNow())

	result, err := f.orch.ConfirmUpload(ctx, ConfirmRequest{UserID: "u1", Path: "u1/1700000000000_abcd1234.jpg"})
	require.NoError(t, err)

	assert.Equal(t, StateDone, result.State)
	assert.True(t, result.Persisted)
	assert.Equal(t, "https://cdn.test/profile-photos/u1/1700000000000_abcd1234.jpg", result.URL)
	assert.Equal(t, []UploadState{
		StateIdle, StateValidating, StateResolvingURL, StatePersisting, StateDone, StateIdle,
	}, result.Transitions)
	assert.Equal(t, 0, f.store.uploads)

	stored, err := f.profiles.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{result.URL}, stored.Photos)
	assert.Equal(t, "Photo Uploaded", f.notifier.sent[0].Title)

	// Confirming the same object twice leaves a single entry.
	_, err = f.orch.ConfirmUpload(ctx, ConfirmRequest{UserID: "u1", Path: "u1/1700000000000_abcd1234.jpg"})
	require.NoError(t, err)
	stored, err = f.profiles.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, stored.Photos, 1)
}

func TestUploadOrchestrator_ConfirmRejectsForeignOrMissingObject(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		wantErr error
	}{
		{"other user's prefix", "u2/1700000000000_abcd1234.jpg", ErrInvalidObjectPath},
		{"traversal", "u1/../u2/1700000000000_abcd1234.jpg", ErrInvalidObjectPath},
		{"prefix only", "u1/", ErrInvalidObjectPath},
		{"never uploaded", "u1/1700000000000_ffffffff.jpg", ErrObjectNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newOrchestratorFixture(t)
			f.store.put(models.ProfilePhotosBucket, "u2/1700000000000_abcd1234.jpg", 4096, fixedNow())

			result, err := f.orch.ConfirmUpload(context.Background(), ConfirmRequest{UserID: "u1", Path: tt.path})

			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, StateValidating, result.FailedAt)
			assert.Equal(t, 0, f.dynamo.count(models.ProfilesTable))
			assert.True(t, f.store.has(models.ProfilePhotosBucket, "u2/1700000000000_abcd1234.jpg"))
			assert.Equal(t, models.NotifyError, f.notifier.sent[0].Kind)
		})
	}
}

func TestUploadOrchestrator_ConfirmOversizedObjectIsRemoved(t *testing.T) {
	f := newOrchestratorFixture(t)
	path := "u1/1700000000000_abcd1234.jpg"
	f.store.put(models.ProfilePhotosBucket, path, 6*1024*1024, fixedNow())

	result, err := f.orch.ConfirmUpload(context.Background(), ConfirmRequest{UserID: "u1", Path: path})

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, ValidationTooLarge, verr.Result.Code)
	assert.Equal(t, StateValidating, result.FailedAt)
	assert.False(t, f.store.has(models.ProfilePhotosBucket, path))
	assert.Equal(t, 0, f.dynamo.count(models.ProfilesTable))
}

func TestUploadOrchestrator_ConfirmAtPhotoLimitRemovesObject(t *testing.T) {
	ctx := context.Background()
	f := newOrchestratorFixture(t)

	full := &models.Profile{UserID: "u1"}
	for i := 0; i < f.orch.Policy.MaxPhotos; i++ {
		full.Photos = append(full.Photos, fmt.Sprintf("https://cdn.test/p%d.jpg", i))
	}
	require.NoError(t, f.profiles.Save(ctx, full, false))
	path := "u1/1700000000000_abcd1234.jpg"
	f.store.put(models.ProfilePhotosBucket, path, 1024, fixedNow())

	result, err := f.orch.ConfirmUpload(ctx, ConfirmRequest{UserID: "u1", Path: path})

	assert.ErrorIs(t, err, ErrPhotoLimitReached)
	assert.Equal(t, StatePersisting, result.FailedAt)
	assert.False(t, f.store.has(models.ProfilePhotosBucket, path))
	stored, err := f.profiles.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, stored.Photos, f.orch.Policy.MaxPhotos)
}

func TestUploadOrchestrator_ConfirmVoiceIntro(t *testing.T) {
	ctx := context.Background()
	f := newOrchestratorFixture(t)
	path := "u1/1700000000000_abcd1234.webm"
	f.store.put(models.VoiceRecordingsBucket, path, 2048, fixedNow())

	result, err := f.orch.ConfirmUpload(ctx, ConfirmRequest{UserID: "u1", Kind: models.MediaKindVoice, Path: path})
	require.NoError(t, err)

	stored, err := f.profiles.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, result.URL, stored.VoiceIntroURL)
}
