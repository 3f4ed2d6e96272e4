package artwork

import (
	"context"
	"net/http"
	"strconv"
	"sync"

	"github.com/dustin/go-humanize"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/nowplaying/internal/app/notification"
	"github.com/osa030/nowplaying/internal/app/projector"
	"github.com/osa030/nowplaying/internal/domain/track"
)

// Loader follows artwork requests and keeps the most recently requested
// image. A new request cancels any resolution still in flight, so a slow
// image for a previous track never replaces a newer one.
type Loader struct {
	resolver Resolver

	mu      sync.Mutex
	cancel  context.CancelFunc
	gen     uint64 // Incremented per request; stale results are dropped
	current Image
	version uint64
	closed  bool
	wg      sync.WaitGroup

	dispatcher   notification.Dispatcher
	notification *notification.Manager[Image]
}

// NewLoader creates a loader that starts with the placeholder.
func NewLoader(resolver Resolver) *Loader {
	dispatcher := notification.NewSerial()
	return &Loader{
		resolver:     resolver,
		current:      Placeholder(),
		dispatcher:   dispatcher,
		notification: notification.NewManager[Image](dispatcher),
	}
}

// Subscribe registers an observer for loaded images.
// Observers run on the loader's delivery goroutine, in load order.
func (l *Loader) Subscribe(observer func(Image)) notification.SubscriptionID {
	return l.notification.Subscribe(observer)
}

// Unsubscribe removes an observer.
func (l *Loader) Unsubscribe(id notification.SubscriptionID) {
	l.notification.Unsubscribe(id)
}

// HandleRequest starts resolving req, canceling the previous request.
// It never blocks on resolution and may be used as a projector observer.
func (l *Loader) HandleRequest(req projector.ArtworkRequest) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return
	}
	if l.cancel != nil {
		l.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	l.cancel = cancel
	l.gen++
	gen := l.gen

	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		defer cancel()
		l.resolve(ctx, gen, req.Ref)
	}()
}

func (l *Loader) resolve(ctx context.Context, gen uint64, ref *track.ArtworkRef) {
	img, err := l.resolver.Resolve(ctx, ref)
	if err != nil {
		zlog.Debug().Msgf("artwork request dropped: ref=%s error=%v", ref, err)
		return
	}

	l.mu.Lock()
	if gen != l.gen || l.closed {
		l.mu.Unlock()
		zlog.Debug().Msgf("stale artwork discarded: ref=%s", ref)
		return
	}
	l.current = img
	l.version++
	l.notification.Publish(img)
	l.mu.Unlock()

	zlog.Info().Msgf("artwork loaded: ref=%s type=%s size=%s placeholder=%t",
		ref, img.ContentType, humanize.Bytes(uint64(len(img.Data))), img.Placeholder)
}

// Current returns the current image and its version. The version
// increases every time a new image is loaded.
func (l *Loader) Current() (Image, uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.current, l.version
}

// Wait blocks until no resolution is in flight.
func (l *Loader) Wait() {
	l.wg.Wait()
}

// Close cancels in-flight work and waits for it to finish.
func (l *Loader) Close() {
	l.mu.Lock()
	l.closed = true
	if l.cancel != nil {
		l.cancel()
	}
	l.mu.Unlock()

	l.wg.Wait()
	l.dispatcher.Close()
	l.notification.Close()
}

// ServeHTTP serves the current image. The version is used as ETag.
func (l *Loader) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	img, version := l.Current()
	etag := `"` + strconv.FormatUint(version, 10) + `"`
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "no-cache")
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("Content-Type", img.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(img.Data)))
	if img.Placeholder {
		w.Header().Set("X-Artwork-Placeholder", "true")
	}
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodGet {
		_, _ = w.Write(img.Data)
	}
}
