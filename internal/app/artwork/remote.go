package artwork

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	lru "github.com/hashicorp/golang-lru/v2"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/nowplaying/internal/domain/track"
)

// maxImageBytes bounds a single remote artwork download.
const maxImageBytes = 10 << 20

// RemoteConfig represents remote artwork fetch configuration.
type RemoteConfig struct {
	CacheSize int           // Number of images kept; values below 1 select 32
	Timeout   time.Duration // Per-request timeout; zero selects 5s
}

// RemoteResolver downloads artwork over HTTP and caches it by URL.
type RemoteResolver struct {
	httpClient *http.Client
	cache      *lru.Cache[string, Image]
}

// NewRemoteResolver creates a new remote resolver.
func NewRemoteResolver(cfg RemoteConfig) (*RemoteResolver, error) {
	if cfg.CacheSize < 1 {
		cfg.CacheSize = 32
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	cache, err := lru.New[string, Image](cfg.CacheSize)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create artwork cache")
	}
	return &RemoteResolver{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		cache:      cache,
	}, nil
}

// Resolve fetches the image at ref's URL, serving repeats from the cache.
func (r *RemoteResolver) Resolve(ctx context.Context, ref *track.ArtworkRef) (Image, error) {
	if ref == nil || ref.Kind != track.ArtworkRemote {
		return Image{}, errors.Newf("remote resolver cannot load %s", ref)
	}
	if img, ok := r.cache.Get(ref.Value); ok {
		zlog.Debug().Msgf("using cached artwork: %s", ref.Value)
		return img, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref.Value, nil)
	if err != nil {
		return Image{}, errors.Wrap(err, "failed to create request")
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return Image{}, errors.Wrap(err, "failed to send request")
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return Image{}, errors.Wrapf(ErrNotFound, "remote artwork %s", ref.Value)
	}
	if resp.StatusCode != http.StatusOK {
		return Image{}, errors.Newf("unexpected status code: %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes+1))
	if err != nil {
		return Image{}, errors.Wrap(err, "failed to read response body")
	}
	if len(data) > maxImageBytes {
		return Image{}, errors.Newf("artwork exceeds %d bytes", maxImageBytes)
	}

	ct := resp.Header.Get("Content-Type")
	if ct == "" {
		ct = http.DetectContentType(data)
	}
	if !strings.HasPrefix(ct, "image/") {
		return Image{}, errors.Newf("unhandled content type %s", ct)
	}

	img := Image{Ref: ref, ContentType: ct, Data: data}
	r.cache.Add(ref.Value, img)
	return img, nil
}

// Cached returns the number of cached images.
func (r *RemoteResolver) Cached() int {
	return r.cache.Len()
}
