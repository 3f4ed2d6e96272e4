// Package lastfm provides a client for the Last.fm API.
package lastfm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	lru "github.com/hashicorp/golang-lru/v2"
	zlog "github.com/rs/zerolog/log"
)

// ErrNoArtwork is returned when Last.fm knows no album image for a track.
var ErrNoArtwork = errors.New("no artwork on last.fm")

// imageSizes lists Last.fm image sizes from largest to smallest.
var imageSizes = []string{"mega", "extralarge", "large", "medium", "small"}

// Client is a Last.fm API client.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client

	// Artwork URLs by artist and title. Misses are cached as "".
	artworkCache *lru.Cache[string, string]
}

// Config represents Last.fm client configuration.
type Config struct {
	APIKey    string
	CacheSize int
}

// getInfoResponse represents the response from track.getInfo API.
type getInfoResponse struct {
	Track struct {
		Album struct {
			Image []struct {
				URL  string `json:"#text"`
				Size string `json:"size"`
			} `json:"image"`
		} `json:"album"`
	} `json:"track"`
}

// apiError represents an error response from Last.fm API.
type apiError struct {
	Error   int    `json:"error"`
	Message string `json:"message"`
}

// New creates a new Last.fm client.
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("last.fm API key is required")
	}
	if cfg.CacheSize < 1 {
		cfg.CacheSize = 256
	}
	cache, err := lru.New[string, string](cfg.CacheSize)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create artwork cache")
	}

	return &Client{
		apiKey:       cfg.APIKey,
		baseURL:      "https://ws.audioscrobbler.com/2.0/",
		httpClient:   &http.Client{Timeout: 10 * time.Second},
		artworkCache: cache,
	}, nil
}

// GetAlbumArtURL returns the URL of the largest album image Last.fm has for
// a track. Only the first credited artist is sent.
// Reference: https://www.last.fm/api/show/track.getInfo
func (c *Client) GetAlbumArtURL(ctx context.Context, trackName, artistName string) (string, error) {
	if trackName == "" || artistName == "" {
		return "", errors.New("track name and artist name are required")
	}
	artistName, _, _ = strings.Cut(artistName, ",")
	artistName = strings.TrimSpace(artistName)

	cacheKey := strings.ToLower(artistName + "\x00" + trackName)
	if u, ok := c.artworkCache.Get(cacheKey); ok {
		zlog.Debug().Msgf("using cached artwork for track: %s - %s", artistName, trackName)
		if u == "" {
			return "", ErrNoArtwork
		}
		return u, nil
	}

	params := url.Values{}
	params.Set("method", "track.getInfo")
	params.Set("api_key", c.apiKey)
	params.Set("artist", artistName)
	params.Set("track", trackName)
	params.Set("format", "json")
	params.Set("autocorrect", "1")

	var response getInfoResponse
	if err := c.get(ctx, params, &response); err != nil {
		return "", err
	}

	images := make(map[string]string, len(response.Track.Album.Image))
	for _, img := range response.Track.Album.Image {
		if img.URL != "" {
			images[img.Size] = img.URL
		}
	}
	var artURL string
	for _, size := range imageSizes {
		if u, ok := images[size]; ok {
			artURL = u
			break
		}
	}

	c.artworkCache.Add(cacheKey, artURL)
	if artURL == "" {
		return "", ErrNoArtwork
	}
	zlog.Debug().Msgf("cached artwork for track: %s - %s", artistName, trackName)
	return artURL, nil
}

// get calls the API and decodes a successful response into out.
func (c *Client) get(ctx context.Context, params url.Values, out any) error {
	reqURL := c.baseURL + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return errors.Wrap(err, "failed to create request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "failed to send request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, "failed to read response body")
	}

	// Check for Last.fm API errors
	var apiErr apiError
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error != 0 {
		return errors.Errorf("last.fm API error %d: %s", apiErr.Error, apiErr.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return errors.Errorf("last.fm API returned status %d", resp.StatusCode)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return errors.Wrap(err, "failed to parse response")
	}
	return nil
}
