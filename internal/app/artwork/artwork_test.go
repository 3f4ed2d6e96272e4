package artwork

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/nowplaying/internal/app/notification"
	"github.com/osa030/nowplaying/internal/app/playback"
	"github.com/osa030/nowplaying/internal/app/projector"
	"github.com/osa030/nowplaying/internal/domain/track"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n0000")

func newAssetFs(t *testing.T) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "assets/bad_habit.png", pngHeader, 0o644))
	require.NoError(t, afero.WriteFile(fs, "assets/cover.jpg", []byte("jpeg"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "secret.png", pngHeader, 0o644))
	return fs
}

func TestAssetResolver(t *testing.T) {
	r := NewAssetResolver(newAssetFs(t), "assets")

	tests := []struct {
		name        string
		ref         *track.ArtworkRef
		contentType string
		wantErr     error
	}{
		{name: "extension probed", ref: track.LocalAsset("bad_habit"), contentType: "image/png"},
		{name: "explicit extension", ref: track.LocalAsset("cover.jpg"), contentType: "image/jpeg"},
		{name: "missing asset", ref: track.LocalAsset("missing"), wantErr: ErrNotFound},
		{name: "path traversal", ref: track.LocalAsset("../secret")},
		{name: "hidden file", ref: track.LocalAsset(".env")},
		{name: "remote ref", ref: track.Remote("https://example.com/a.png")},
		{name: "nil ref", ref: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img, err := r.Resolve(context.Background(), tt.ref)
			if tt.contentType == "" {
				require.Error(t, err)
				if tt.wantErr != nil {
					assert.ErrorIs(t, err, tt.wantErr)
				}
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.contentType, img.ContentType)
			assert.Equal(t, tt.ref, img.Ref)
			assert.False(t, img.Placeholder)
			assert.NotEmpty(t, img.Data)
		})
	}
}

func TestRemoteResolver(t *testing.T) {
	var hits atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		switch r.URL.Path {
		case "/cover.png":
			w.Header().Set("Content-Type", "image/png")
			_, _ = w.Write(pngHeader)
		case "/sniffed":
			w.Header()["Content-Type"] = nil
			_, _ = w.Write(pngHeader)
		case "/page":
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte("<html></html>"))
		case "/broken":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	r, err := NewRemoteResolver(RemoteConfig{CacheSize: 2, Timeout: time.Second})
	require.NoError(t, err)

	img, err := r.Resolve(context.Background(), track.Remote(server.URL+"/cover.png"))
	require.NoError(t, err)
	assert.Equal(t, "image/png", img.ContentType)
	assert.Equal(t, pngHeader, img.Data)

	_, err = r.Resolve(context.Background(), track.Remote(server.URL+"/cover.png"))
	require.NoError(t, err)
	assert.Equal(t, int64(1), hits.Load(), "second fetch should hit the cache")
	assert.Equal(t, 1, r.Cached())

	img, err = r.Resolve(context.Background(), track.Remote(server.URL+"/sniffed"))
	require.NoError(t, err)
	assert.Equal(t, "image/png", img.ContentType)

	_, err = r.Resolve(context.Background(), track.Remote(server.URL+"/missing"))
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = r.Resolve(context.Background(), track.Remote(server.URL+"/broken"))
	assert.Error(t, err)

	_, err = r.Resolve(context.Background(), track.Remote(server.URL+"/page"))
	assert.Error(t, err)

	_, err = r.Resolve(context.Background(), track.LocalAsset("cover"))
	assert.Error(t, err)

	assert.Equal(t, 2, r.Cached())
}

func TestRouter(t *testing.T) {
	local := NewAssetResolver(newAssetFs(t), "assets")
	failing := resolverFunc(func(ctx context.Context, ref *track.ArtworkRef) (Image, error) {
		return Image{}, errors.New("offline")
	})
	router := NewRouter(local, failing)

	img, err := router.Resolve(context.Background(), nil)
	require.NoError(t, err)
	assert.True(t, img.Placeholder)
	assert.Equal(t, "image/svg+xml", img.ContentType)

	img, err = router.Resolve(context.Background(), track.LocalAsset("bad_habit"))
	require.NoError(t, err)
	assert.False(t, img.Placeholder)

	img, err = router.Resolve(context.Background(), track.LocalAsset("missing"))
	require.NoError(t, err)
	assert.True(t, img.Placeholder)

	img, err = router.Resolve(context.Background(), track.Remote("https://example.com/x.png"))
	require.NoError(t, err)
	assert.True(t, img.Placeholder)

	img, err = NewRouter(nil, nil).Resolve(context.Background(), track.LocalAsset("bad_habit"))
	require.NoError(t, err)
	assert.True(t, img.Placeholder)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = router.Resolve(ctx, track.Remote("https://example.com/x.png"))
	assert.ErrorIs(t, err, context.Canceled)
}

type resolverFunc func(ctx context.Context, ref *track.ArtworkRef) (Image, error)

func (f resolverFunc) Resolve(ctx context.Context, ref *track.ArtworkRef) (Image, error) {
	return f(ctx, ref)
}

// gatedResolver blocks resolution of refs named "slow" until released or canceled.
type gatedResolver struct {
	release  chan struct{}
	started  chan struct{}
	canceled atomic.Bool
}

func (g *gatedResolver) Resolve(ctx context.Context, ref *track.ArtworkRef) (Image, error) {
	if ref != nil && ref.Value == "slow" {
		close(g.started)
		select {
		case <-g.release:
		case <-ctx.Done():
			g.canceled.Store(true)
			return Image{}, ctx.Err()
		}
	}
	if ref == nil {
		return Placeholder(), nil
	}
	return Image{Ref: ref, ContentType: "image/png", Data: []byte(ref.Value)}, nil
}

func TestLoader_LatestRequestWins(t *testing.T) {
	g := &gatedResolver{release: make(chan struct{}), started: make(chan struct{})}
	loader := NewLoader(g)
	defer loader.Close()

	var mu sync.Mutex
	var loaded []string
	loader.Subscribe(func(img Image) {
		mu.Lock()
		defer mu.Unlock()
		loaded = append(loaded, string(img.Data))
	})

	img, version := loader.Current()
	assert.True(t, img.Placeholder)
	assert.Zero(t, version)

	loader.HandleRequest(projector.ArtworkRequest{Ref: track.LocalAsset("slow")})
	<-g.started
	loader.HandleRequest(projector.ArtworkRequest{Ref: track.LocalAsset("fast")})
	loader.Wait()

	assert.True(t, g.canceled.Load(), "stale request should be canceled")
	img, version = loader.Current()
	assert.Equal(t, "fast", string(img.Data))
	assert.Equal(t, uint64(1), version)

	loader.HandleRequest(projector.ArtworkRequest{Ref: nil})
	loader.Wait()
	img, version = loader.Current()
	assert.True(t, img.Placeholder)
	assert.Equal(t, uint64(2), version)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(loaded) == 2
	}, time.Second, time.Millisecond)
	mu.Lock()
	assert.Equal(t, "fast", loaded[0])
	mu.Unlock()
}

func TestLoader_CloseStopsRequests(t *testing.T) {
	loader := NewLoader(NewRouter(nil, nil))
	loader.Close()
	loader.Close()

	loader.HandleRequest(projector.ArtworkRequest{Ref: track.LocalAsset("a")})
	loader.Wait()

	_, version := loader.Current()
	assert.Zero(t, version)
}

func TestLoader_ServeHTTP(t *testing.T) {
	loader := NewLoader(NewRouter(NewAssetResolver(newAssetFs(t), "assets"), nil))
	defer loader.Close()

	get := func(etag string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/artwork", nil)
		if etag != "" {
			req.Header.Set("If-None-Match", etag)
		}
		rec := httptest.NewRecorder()
		loader.ServeHTTP(rec, req)
		return rec
	}

	rec := get("")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/svg+xml", rec.Header().Get("Content-Type"))
	assert.Equal(t, "true", rec.Header().Get("X-Artwork-Placeholder"))
	assert.Equal(t, `"0"`, rec.Header().Get("ETag"))

	assert.Equal(t, http.StatusNotModified, get(`"0"`).Code)

	loader.HandleRequest(projector.ArtworkRequest{Ref: track.LocalAsset("bad_habit")})
	loader.Wait()

	rec = get(`"0"`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Equal(t, `"1"`, rec.Header().Get("ETag"))
	assert.Equal(t, pngHeader, rec.Body.Bytes())
	assert.Empty(t, rec.Header().Get("X-Artwork-Placeholder"))

	post := httptest.NewRecorder()
	loader.ServeHTTP(post, httptest.NewRequest(http.MethodPost, "/artwork", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, post.Code)
}

func TestLoader_FollowsProjector(t *testing.T) {
	loader := NewLoader(NewRouter(NewAssetResolver(newAssetFs(t), "assets"), nil))
	defer loader.Close()

	proj := projector.New(&stubService{}, projector.Config{})
	defer proj.Close()
	proj.SubscribeArtwork(loader.HandleRequest)

	bad := track.New("Bad Habit", "Steve Lacy", 232*time.Second, track.LocalAsset("bad_habit"))
	proj.Apply(stateFor(&bad, 0))
	loader.Wait()

	img, _ := loader.Current()
	assert.Equal(t, pngHeader, img.Data)
}

type stubService struct{}

func (stubService) Toggle() {}
func (stubService) SkipNext() {}
func (stubService) SkipPrevious() {}
func (stubService) Seek(time.Duration) {}
func (stubService) ToggleRepeatMode() {}
func (stubService) Unsubscribe(notification.SubscriptionID) {}
func (stubService) Subscribe(func(playback.PlaybackState)) notification.SubscriptionID {
	return "stub"
}

func stateFor(t *track.Track, index int) playback.PlaybackState {
	return playback.PlaybackState{Track: t, Index: index, Duration: t.Duration}
}
