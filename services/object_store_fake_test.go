package services

import (
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"sync"
	"time"
)

// fakeStore is an in-memory ObjectStore.
type fakeStore struct {
	mu        sync.Mutex
	objects   map[string]map[string]StoredObject
	uploadErr error
	removeErr error
	uploads   int
	removed   []string
	lastBody  []byte
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: map[string]map[string]StoredObject{}}
}

func (f *fakeStore) put(bucket, path string, size int64, modified time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.objects[bucket] == nil {
		f.objects[bucket] = map[string]StoredObject{}
	}
	f.objects[bucket][path] = StoredObject{Path: path, Size: size, LastModified: modified}
}

func (f *fakeStore) has(bucket, path string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.objects[bucket][path]
	return ok
}

func (f *fakeStore) Upload(_ context.Context, bucket, objectPath string, body io.Reader, size int64, _ string) error {
	f.mu.Lock()
	f.uploads++
	err := f.uploadErr
	f.mu.Unlock()
	if err != nil {
		return err
	}
	data, readErr := io.ReadAll(body)
	if readErr != nil {
		return readErr
	}
	if f.has(bucket, objectPath) {
		return &StorageError{Kind: StorageErrConflict, Op: "upload", Err: errors.New("object exists")}
	}
	f.mu.Lock()
	f.lastBody = data
	f.mu.Unlock()
	f.put(bucket, objectPath, size, fixedNow())
	return nil
}

func (f *fakeStore) PublicURL(bucket, objectPath string) string {
	return joinURL("https://cdn.test", bucket, objectPath)
}

func (f *fakeStore) Remove(_ context.Context, bucket, objectPath string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.removeErr != nil {
		return f.removeErr
	}
	delete(f.objects[bucket], objectPath)
	f.removed = append(f.removed, objectPath)
	return nil
}

func (f *fakeStore) List(_ context.Context, bucket, prefix string) ([]StoredObject, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []StoredObject
	for path, obj := range f.objects[bucket] {
		if strings.HasPrefix(path, prefix) {
			out = append(out, obj)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

func (f *fakeStore) BucketExists(_ context.Context, bucket string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.objects[bucket]
	return ok, nil
}

func (f *fakeStore) PresignUpload(_ context.Context, bucket, objectPath, _ string, _ int64, _ time.Duration) (string, error) {
	return f.PublicURL(bucket, objectPath) + "?signed=1", nil
}
