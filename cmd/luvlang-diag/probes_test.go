package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"luvlang_server/models"
	"luvlang_server/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	mu      sync.Mutex
	buckets map[string]map[string][]byte
}

func newMemStore(buckets ...string) *memStore {
	s := &memStore{buckets: map[string]map[string][]byte{}}
	for _, b := range buckets {
		s.buckets[b] = map[string][]byte{}
	}
	return s
}

func (s *memStore) Upload(_ context.Context, bucket, objectPath string, body io.Reader, _ int64, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	objects, ok := s.buckets[bucket]
	if !ok {
		return &services.StorageError{Kind: services.StorageErrBucketMissing, Op: "upload", Err: errors.New("NoSuchBucket")}
	}
	if _, exists := objects[objectPath]; exists {
		return &services.StorageError{Kind: services.StorageErrConflict, Op: "upload", Err: errors.New("exists")}
	}
	data, _ := io.ReadAll(body)
	objects[objectPath] = data
	return nil
}

func (s *memStore) PublicURL(bucket, objectPath string) string {
	return "https://mem.test/" + bucket + "/" + objectPath
}

func (s *memStore) Remove(_ context.Context, bucket, objectPath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.buckets[bucket], objectPath)
	return nil
}

func (s *memStore) List(_ context.Context, bucket, prefix string) ([]services.StoredObject, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []services.StoredObject
	for p, data := range s.buckets[bucket] {
		if strings.HasPrefix(p, prefix) {
			out = append(out, services.StoredObject{Path: p, Size: int64(len(data))})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

func (s *memStore) BucketExists(_ context.Context, bucket string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.buckets[bucket]
	return ok, nil
}

func (s *memStore) PresignUpload(_ context.Context, bucket, objectPath, _ string, _ int64, _ time.Duration) (string, error) {
	return s.PublicURL(bucket, objectPath) + "?signed=1", nil
}

func TestStorageProbes(t *testing.T) {
	policy := models.DefaultPolicy()
	store := newMemStore(policy.Photo.Bucket, policy.Voice.Bucket)

	var out bytes.Buffer
	failed := runProbes(context.Background(), &out, "storage", storageProbes(store, policy, time.UnixMilli(42)))

	assert.Zero(t, failed, out.String())
	assert.Equal(t, 8, strings.Count(out.String(), "PASS"))
	left, _ := store.List(context.Background(), policy.Photo.Bucket, "diag/")
	assert.Empty(t, left, "probe object is removed")
}

func TestStorageProbes_MissingBucket(t *testing.T) {
	policy := models.DefaultPolicy()
	store := newMemStore(policy.Photo.Bucket)

	var out bytes.Buffer
	failed := runProbes(context.Background(), &out, "storage", storageProbes(store, policy, time.UnixMilli(42)))

	assert.Equal(t, 1, failed)
	assert.Contains(t, out.String(), `FAIL  storage  voice bucket exists`)
}

type memProfiles struct {
	profiles map[string]*models.Profile
}

func (m *memProfiles) get(userID string) *models.Profile {
	p, ok := m.profiles[userID]
	if !ok {
		p = &models.Profile{UserID: userID}
		m.profiles[userID] = p
	}
	return p
}

func (m *memProfiles) snapshot(p *models.Profile) *models.Profile {
	c := *p
	c.Photos = append([]string(nil), p.Photos...)
	return &c
}

func (m *memProfiles) AppendPhoto(_ context.Context, userID, url string, max int) (*models.Profile, error) {
	p := m.get(userID)
	if p.HasPhoto(url) {
		return m.snapshot(p), nil
	}
	if len(p.Photos) >= max {
		return nil, services.ErrPhotoLimitReached
	}
	p.Photos = append(p.Photos, url)
	return m.snapshot(p), nil
}

func (m *memProfiles) RemovePhoto(_ context.Context, userID, url string) (*models.Profile, error) {
	p := m.get(userID)
	if !p.HasPhoto(url) {
		return nil, services.ErrPhotoNotFound
	}
	var kept []string
	for _, existing := range p.Photos {
		if existing != url {
			kept = append(kept, existing)
		}
	}
	p.Photos = kept
	return m.snapshot(p), nil
}

func (m *memProfiles) SetPrimaryPhoto(_ context.Context, userID, url string) (*models.Profile, error) {
	p := m.get(userID)
	photos := []string{url}
	for _, existing := range p.Photos {
		if existing != url {
			photos = append(photos, existing)
		}
	}
	p.Photos = photos
	return m.snapshot(p), nil
}

func (m *memProfiles) SetVoiceIntro(_ context.Context, userID, url string) (*models.Profile, error) {
	p := m.get(userID)
	p.VoiceIntroURL = url
	return m.snapshot(p), nil
}

func TestProfileProbes(t *testing.T) {
	profiles := &memProfiles{profiles: map[string]*models.Profile{}}
	cleanup := func(_ context.Context, userID string) error {
		delete(profiles.profiles, userID)
		return nil
	}

	var out bytes.Buffer
	failed := runProbes(context.Background(), &out, "profiles", profileProbes(profiles, cleanup, "diag-1", 6))

	require.Zero(t, failed, out.String())
	assert.Empty(t, profiles.profiles)
}

type stubPlans []models.MembershipPlan

func (s stubPlans) ListPlans(context.Context) ([]models.MembershipPlan, error) { return s, nil }

type stubMatchLister struct{}

func (stubMatchLister) ListMatches(context.Context, string, string) ([]models.MatchWithProfile, error) {
	return nil, nil
}

func TestMatchProbes(t *testing.T) {
	var out bytes.Buffer
	failed := runProbes(context.Background(), &out, "matches", matchProbes(stubPlans(nil), stubMatchLister{}, "diag-1"))

	assert.Equal(t, 1, failed)
	assert.Contains(t, out.String(), "no membership plans configured")
}
