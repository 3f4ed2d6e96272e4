package source

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/nowplaying/internal/app/filter"
	"github.com/osa030/nowplaying/internal/domain/track"
	"github.com/osa030/nowplaying/internal/infra/config"
)

type mockSpotify struct {
	tracks []track.Track
	err    error
	calls  int
}

func (m *mockSpotify) GetPlaylistTracks(ctx context.Context, playlistURL string) ([]track.Track, error) {
	m.calls++
	return m.tracks, m.err
}

func (m *mockSpotify) CheckPlaylistExists(ctx context.Context, playlistURL string) error {
	return m.err
}

type fixedProvider struct {
	tracks []track.Track
	err    error
}

func (p *fixedProvider) Tracks(ctx context.Context) ([]track.Track, error) { return p.tracks, p.err }
func (p *fixedProvider) Name() string { return "fixed" }

func demoSettings() map[string]any {
	return map[string]any{
		"tracks": []any{
			map[string]any{"title": "Bad Habit", "artist": "Steve Lacy", "duration_sec": 232, "asset": "mock_album_artwork_bad_habit"},
			map[string]any{"title": "Black Friday (pretty like the sun)", "artist": "Lost Frequencies, Tom Odell, Poppy Baskcomb", "duration_sec": 311},
			map[string]any{"title": "Late", "artist": "Someone", "duration_sec": 12.5, "artwork_url": "https://example.com/late.jpg"},
		},
	}
}

func TestStaticProvider(t *testing.T) {
	p, err := NewStaticProvider(demoSettings())
	require.NoError(t, err)
	assert.Equal(t, "static", p.Name())

	tracks, err := p.Tracks(context.Background())
	require.NoError(t, err)
	require.Len(t, tracks, 3)

	assert.Equal(t, track.New("Bad Habit", "Steve Lacy", 232*time.Second, track.LocalAsset("mock_album_artwork_bad_habit")), tracks[0])
	assert.Nil(t, tracks[1].Artwork)
	assert.Equal(t, 311*time.Second, tracks[1].Duration)
	assert.Equal(t, 12500*time.Millisecond, tracks[2].Duration)
	assert.Equal(t, track.Remote("https://example.com/late.jpg"), tracks[2].Artwork)

	// Callers get their own copy.
	tracks[0].Title = "changed"
	again, err := p.Tracks(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bad Habit", again[0].Title)
}

func TestNewStaticProvider_Invalid(t *testing.T) {
	tests := []struct {
		name     string
		settings map[string]any
	}{
		{name: "no tracks", settings: map[string]any{}},
		{name: "empty tracks", settings: map[string]any{"tracks": []any{}}},
		{name: "missing title", settings: map[string]any{"tracks": []any{map[string]any{"artist": "x"}}}},
		{name: "negative duration", settings: map[string]any{"tracks": []any{map[string]any{"title": "x", "duration_sec": -1}}}},
		{name: "bad artwork url", settings: map[string]any{"tracks": []any{map[string]any{"title": "x", "artwork_url": "not a url"}}}},
		{
			name: "asset and url",
			settings: map[string]any{"tracks": []any{map[string]any{
				"title": "x", "asset": "a", "artwork_url": "https://example.com/a.jpg",
			}}},
		},
		{name: "wrong type", settings: map[string]any{"tracks": "Bad Habit"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewStaticProvider(tt.settings)
			assert.Error(t, err)
		})
	}
}

func TestPlaylistProvider(t *testing.T) {
	sp := &mockSpotify{tracks: []track.Track{
		track.New("A", "x", time.Minute, nil),
		track.New("B", "x", time.Minute, nil),
		track.New("C", "x", time.Minute, nil),
	}}

	p, err := NewPlaylistProvider(sp, map[string]any{"playlist_url": "spotify:playlist:abc", "limit": 2})
	require.NoError(t, err)
	assert.Equal(t, "spotify_playlist", p.Name())

	tracks, err := p.Tracks(context.Background())
	require.NoError(t, err)
	require.Len(t, tracks, 2)
	assert.Equal(t, "A", tracks[0].Title)

	_, err = p.Tracks(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sp.calls, "playlist should be fetched once")
}

func TestPlaylistProvider_Errors(t *testing.T) {
	_, err := NewPlaylistProvider(nil, map[string]any{"playlist_url": "x"})
	assert.Error(t, err)

	_, err = NewPlaylistProvider(&mockSpotify{}, map[string]any{})
	assert.Error(t, err)

	p, err := NewPlaylistProvider(&mockSpotify{err: errors.New("boom")}, map[string]any{"playlist_url": "x"})
	require.NoError(t, err)
	_, err = p.Tracks(context.Background())
	assert.Error(t, err)
}

func TestProviderChain_Select(t *testing.T) {
	good := []track.Track{track.New("Keep", "x", time.Minute, nil)}
	broken := []track.Track{track.New("Broken", "x", 0, nil)}

	chain := filter.NewChain()
	chain.Add(filter.NewDurationLimitFilter())

	tests := []struct {
		name      string
		providers []ProviderWithMetadata
		wantName  string
		wantErr   bool
	}{
		{
			name: "first provider wins",
			providers: []ProviderWithMetadata{
				{Provider: &fixedProvider{tracks: good}, DisplayName: "first"},
				{Provider: &fixedProvider{tracks: good}, DisplayName: "second"},
			},
			wantName: "first",
		},
		{
			name: "falls through errors",
			providers: []ProviderWithMetadata{
				{Provider: &fixedProvider{err: errors.New("offline")}, DisplayName: "first"},
				{Provider: &fixedProvider{tracks: good}, DisplayName: "second"},
			},
			wantName: "second",
		},
		{
			name: "falls through fully filtered queues",
			providers: []ProviderWithMetadata{
				{Provider: &fixedProvider{tracks: broken}, DisplayName: "first"},
				{Provider: &fixedProvider{tracks: good}, DisplayName: "second"},
			},
			wantName: "second",
		},
		{
			name: "nothing playable",
			providers: []ProviderWithMetadata{
				{Provider: &fixedProvider{}, DisplayName: "empty"},
				{Provider: &fixedProvider{tracks: broken}, DisplayName: "broken"},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sel, err := NewProviderChain(tt.providers, chain).Select(context.Background())
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrNoTracks)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, sel.DisplayName)
			assert.Equal(t, good, sel.Tracks)
		})
	}
}

func TestProviderChain_NilFilter(t *testing.T) {
	broken := []track.Track{track.New("Broken", "x", 0, nil)}
	c := NewProviderChain([]ProviderWithMetadata{{Provider: &fixedProvider{tracks: broken}, DisplayName: "raw"}}, nil)

	sel, err := c.Select(context.Background())
	require.NoError(t, err)
	assert.Equal(t, broken, sel.Tracks)
	assert.Equal(t, "provider_chain", c.Name())
	assert.Len(t, c.Providers(), 1)
}

func TestNewProviderChainFromConfig(t *testing.T) {
	t.Run("static and playlist", func(t *testing.T) {
		cfg := &config.Config{Queue: config.QueueConfig{Providers: []config.ProviderConfig{
			{Type: "spotify_playlist", DisplayName: "Mix", Settings: map[string]any{"playlist_url": "spotify:playlist:abc"}},
			{Type: "static", DisplayName: "Demo", Settings: demoSettings()},
		}}}

		sp := &mockSpotify{err: errors.New("503 unavailable")}
		c, err := NewProviderChainFromConfig(cfg, sp, nil)
		require.NoError(t, err)
		require.Len(t, c.Providers(), 2)

		sel, err := c.Select(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "Demo", sel.DisplayName)
		assert.Len(t, sel.Tracks, 3)
	})

	t.Run("errors", func(t *testing.T) {
		tests := []struct {
			name      string
			providers []config.ProviderConfig
		}{
			{name: "no providers"},
			{name: "unknown type", providers: []config.ProviderConfig{{Type: "lastfm", DisplayName: "x", Settings: map[string]any{}}}},
			{name: "playlist without client", providers: []config.ProviderConfig{{Type: "spotify_playlist", DisplayName: "x", Settings: map[string]any{"playlist_url": "x"}}}},
			{name: "invalid static", providers: []config.ProviderConfig{{Type: "static", DisplayName: "x", Settings: map[string]any{}}}},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				cfg := &config.Config{Queue: config.QueueConfig{Providers: tt.providers}}
				_, err := NewProviderChainFromConfig(cfg, nil, nil)
				assert.Error(t, err)
			})
		}
	})
}

type checkingSpotify struct {
	mockSpotify
	missing map[string]bool
	checked []string
}

func (m *checkingSpotify) CheckPlaylistExists(ctx context.Context, playlistURL string) error {
	m.checked = append(m.checked, playlistURL)
	if m.missing[playlistURL] {
		return errors.New("404 not found")
	}
	return nil
}

func TestValidatePlaylists(t *testing.T) {
	cfg := &config.Config{Queue: config.QueueConfig{Providers: []config.ProviderConfig{
		{Type: "spotify_playlist", DisplayName: "Mix", Settings: map[string]any{"playlist_url": "spotify:playlist:abc"}},
		{Type: "static", DisplayName: "Demo", Settings: demoSettings()},
		{Type: "spotify_playlist", DisplayName: "Gone", Settings: map[string]any{"playlist_url": "spotify:playlist:gone"}},
	}}}

	sp := &checkingSpotify{missing: map[string]bool{}}
	require.NoError(t, ValidatePlaylists(context.Background(), cfg, sp))
	assert.Equal(t, []string{"spotify:playlist:abc", "spotify:playlist:gone"}, sp.checked)

	sp = &checkingSpotify{missing: map[string]bool{"spotify:playlist:gone": true}}
	err := ValidatePlaylists(context.Background(), cfg, sp)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Gone")
	assert.NotContains(t, err.Error(), "Mix")

	assert.NoError(t, ValidatePlaylists(context.Background(), cfg, nil))
}

type mockLookup struct {
	urls  map[string]string
	calls []string
}

func (m *mockLookup) GetAlbumArtURL(ctx context.Context, trackName, artistName string) (string, error) {
	m.calls = append(m.calls, trackName)
	if u, ok := m.urls[trackName]; ok {
		return u, nil
	}
	return "", errors.New("not found")
}

func TestFillMissingArtwork(t *testing.T) {
	tracks := []track.Track{
		track.New("Bad Habit", "Steve Lacy", 232*time.Second, track.LocalAsset("bad_habit")),
		track.New("Black Friday (pretty like the sun)", "Lost Frequencies", 311*time.Second, nil),
		track.New("Unknown", "Nobody", time.Minute, nil),
		track.New("No Artist", "", time.Minute, nil),
	}
	lookup := &mockLookup{urls: map[string]string{
		"Black Friday (pretty like the sun)": "https://img.example/bf.png",
	}}

	got := FillMissingArtwork(context.Background(), tracks, lookup)

	require.Len(t, got, 4)
	assert.Equal(t, track.LocalAsset("bad_habit"), got[0].Artwork)
	assert.Equal(t, track.Remote("https://img.example/bf.png"), got[1].Artwork)
	assert.Nil(t, got[2].Artwork)
	assert.Nil(t, got[3].Artwork)
	assert.Equal(t, []string{"Black Friday (pretty like the sun)", "Unknown"}, lookup.calls)

	// The input is left untouched.
	assert.Nil(t, tracks[1].Artwork)

	assert.Equal(t, tracks, FillMissingArtwork(context.Background(), tracks, nil))
}
