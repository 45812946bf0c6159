package recordings_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/TloSmallpotato/record-noti-stats-app-ngcaug/internal/recordings"
)

func newTestCache(t *testing.T) *recordings.CountCache {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return recordings.NewCountCache(rdb, time.Minute, nil)
}

func newCachedRouter(t *testing.T, store recordings.Store) *gin.Engine {
	t.Helper()
	h := recordings.NewHandler(store, newMemStorage(), newTestCache(t), 1<<20, nil)
	r := gin.New()
	r.GET("/recordings", h.List)
	r.POST("/recordings", h.Create)
	r.GET("/recordings/count", h.Count)
	r.DELETE("/recordings/:id", h.Delete)
	r.POST("/recordings/upload", h.Upload)
	return r
}

func getCount(t *testing.T, r *gin.Engine) int {
	t.Helper()
	w := doJSON(t, r, http.MethodGet, "/recordings/count", "")
	if w.Code != http.StatusOK {
		t.Fatalf("count status = %d", w.Code)
	}
	var body struct {
		Count int `json:"count"`
	}
	decode(t, w, &body)
	return body.Count
}

func TestCountCacheHitMissInvalidate(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	if n, _, ok := cache.Get(ctx); ok {
		t.Fatalf("cold cache returned a hit: %d", n)
	}

	_, version, _ := cache.Get(ctx)
	cache.Set(ctx, version, 7)
	n, _, ok := cache.Get(ctx)
	if !ok || n != 7 {
		t.Fatalf("after Set: got (%d, %v), want (7, true)", n, ok)
	}

	cache.Invalidate(ctx)
	if n, _, ok := cache.Get(ctx); ok {
		t.Fatalf("hit after Invalidate: %d", n)
	}
}

func TestCountCacheNilIsSafe(t *testing.T) {
	var cache *recordings.CountCache
	ctx := context.Background()

	if n, version, ok := cache.Get(ctx); ok || version != "" {
		t.Fatalf("nil cache Get = (%d, %q, %v)", n, version, ok)
	}
	cache.Set(ctx, "0", 1)
	cache.Invalidate(ctx)
}

func TestCountCacheDiscardsWriteBackAfterInvalidate(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	// A count read misses and snapshots the store while holding the version
	// it observed.
	_, version, ok := cache.Get(ctx)
	if ok {
		t.Fatal("expected a miss on a cold cache")
	}

	// A write commits and invalidates before the read's write-back lands.
	cache.Invalidate(ctx)
	cache.Set(ctx, version, 0)

	// The late write-back must not be served.
	if n, _, ok := cache.Get(ctx); ok {
		t.Fatalf("stale count %d served after invalidation", n)
	}
}

func TestCountWithCacheInvalidatedOnWrite(t *testing.T) {
	store := &memStore{}
	r := newCachedRouter(t, store)

	if n := getCount(t, r); n != 0 {
		t.Fatalf("initial count = %d, want 0", n)
	}

	w := doJSON(t, r, http.MethodPost, "/recordings",
		`{"video_url":"https://x/a.mp4","duration":10,"file_size":1024}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d", w.Code)
	}
	if n := getCount(t, r); n != 1 {
		t.Fatalf("count after create = %d, want 1", n)
	}

	// Rows added behind the API's back are invisible until the TTL lapses:
	// the warm cache keeps answering.
	store.mu.Lock()
	store.rows = append(store.rows, store.rows[0])
	store.mu.Unlock()
	if n := getCount(t, r); n != 1 {
		t.Fatalf("count = %d, want cached 1", n)
	}
	store.mu.Lock()
	store.rows = store.rows[:1]
	store.mu.Unlock()

	body, contentType := multipartUpload(t, "video", "a.mp4", []byte("x"))
	req := httptest.NewRequest(http.MethodPost, "/recordings/upload", body)
	req.Header.Set("Content-Type", contentType)
	uw := httptest.NewRecorder()
	r.ServeHTTP(uw, req)
	if uw.Code != http.StatusCreated {
		t.Fatalf("upload status = %d", uw.Code)
	}
	if n := getCount(t, r); n != 2 {
		t.Fatalf("count after upload = %d, want 2", n)
	}

	store.mu.Lock()
	id := store.rows[0].ID
	store.mu.Unlock()
	dw := doJSON(t, r, http.MethodDelete, "/recordings/"+id.String(), "")
	if dw.Code != http.StatusOK {
		t.Fatalf("delete status = %d", dw.Code)
	}
	if n := getCount(t, r); n != 1 {
		t.Fatalf("count after delete = %d, want 1", n)
	}
}

// gatedStore blocks the first Count call after it has taken its snapshot,
// so a test can commit a write in the gap before the count is written back
// to the cache.
type gatedStore struct {
	*memStore
	inCount chan struct{}
	gate    chan struct{}
	once    sync.Once
}

func (s *gatedStore) Count(ctx context.Context) (int, error) {
	n, err := s.memStore.Count(ctx)
	s.once.Do(func() {
		close(s.inCount)
		<-s.gate
	})
	return n, err
}

func TestCountStalledReadDoesNotPoisonCache(t *testing.T) {
	store := &gatedStore{
		memStore: &memStore{},
		inCount:  make(chan struct{}),
		gate:     make(chan struct{}),
	}
	r := newCachedRouter(t, store)

	// A count request misses the cache and stalls between its store snapshot
	// (0 rows) and its cache write-back.
	done := make(chan struct{})
	go func() {
		defer close(done)
		req := httptest.NewRequest(http.MethodGet, "/recordings/count", nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
	}()
	<-store.inCount

	// A create commits and invalidates while the reader is stalled.
	w := doJSON(t, r, http.MethodPost, "/recordings",
		`{"video_url":"https://x/a.mp4","duration":10,"file_size":1024}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d", w.Code)
	}

	// The stalled reader resumes and writes its pre-create snapshot back.
	close(store.gate)
	<-done

	// The next count must reflect the create, not the stale write-back.
	if n := getCount(t, r); n != 1 {
		t.Fatalf("count after create = %d, want 1", n)
	}
}
