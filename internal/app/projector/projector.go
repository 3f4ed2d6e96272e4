package projector

import (
	"sync"
	"time"

	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/nowplaying/internal/app/notification"
	"github.com/osa030/nowplaying/internal/app/playback"
	"github.com/osa030/nowplaying/internal/domain/track"
)

// PlaybackService is the engine surface the projector drives and observes.
type PlaybackService interface {
	Toggle()
	SkipNext()
	SkipPrevious()
	Seek(to time.Duration)
	ToggleRepeatMode()
	Subscribe(observer func(playback.PlaybackState)) notification.SubscriptionID
	Unsubscribe(id notification.SubscriptionID)
}

// Config holds projector configuration.
type Config struct {
	// Dispatcher delivers views and artwork requests. Nil delivers inline on
	// the goroutine that applied the snapshot.
	Dispatcher notification.Dispatcher
}

// Projector maintains the view state for one playback service.
type Projector struct {
	mu sync.Mutex

	service      PlaybackService
	subscription notification.SubscriptionID

	liked     bool
	lastState playback.PlaybackState
	view      ViewState

	// Artwork change tracking
	artworkSent  bool
	artworkIndex int
	artworkTrack *track.Track

	views   *notification.Manager[ViewState]
	artwork *notification.Manager[ArtworkRequest]
}

// New creates a projector and subscribes it to service.
func New(service PlaybackService, config Config) *Projector {
	p := &Projector{
		service:   service,
		lastState: playback.PlaybackState{Index: -1},
		view:      EmptyViewState,
		views:     notification.NewManager[ViewState](config.Dispatcher),
		artwork:   notification.NewManager[ArtworkRequest](config.Dispatcher),
	}
	p.subscription = service.Subscribe(p.Apply)
	return p
}

// SubscribeViews registers an observer for view updates.
func (p *Projector) SubscribeViews(observer func(ViewState)) notification.SubscriptionID {
	return p.views.Subscribe(observer)
}

// SubscribeArtwork registers an observer for artwork requests.
func (p *Projector) SubscribeArtwork(observer func(ArtworkRequest)) notification.SubscriptionID {
	return p.artwork.Subscribe(observer)
}

// Unsubscribe removes a view or artwork observer.
func (p *Projector) Unsubscribe(id notification.SubscriptionID) {
	p.views.Unsubscribe(id)
	p.artwork.Unsubscribe(id)
}

// State returns the last derived view.
func (p *Projector) State() ViewState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.view
}

// PlayPauseTapped toggles playback.
func (p *Projector) PlayPauseTapped() {
	p.service.Toggle()
}

// NextTapped skips forward.
func (p *Projector) NextTapped() {
	p.service.SkipNext()
}

// PrevTapped skips backward.
func (p *Projector) PrevTapped() {
	p.service.SkipPrevious()
}

// RepeatTapped cycles the repeat mode.
func (p *Projector) RepeatTapped() {
	p.service.ToggleRepeatMode()
}

// Seek moves to fraction (0..1) of the current track.
func (p *Projector) Seek(fraction float64) {
	fraction = max(0, min(fraction, 1))

	p.mu.Lock()
	duration := p.lastState.Duration
	p.mu.Unlock()

	p.service.Seek(time.Duration(fraction * float64(duration)))
}

// LikeTapped flips the liked flag. The flag is not tied to a track.
func (p *Projector) LikeTapped() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.liked = !p.liked
	zlog.Debug().Msgf("projector: liked=%t", p.liked)
	p.emitLocked()
}

// Apply consumes an engine snapshot.
func (p *Projector) Apply(s playback.PlaybackState) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.lastState = s
	if p.trackChangedLocked(s) {
		var ref *track.ArtworkRef
		if s.Track != nil {
			ref = s.Track.Artwork
		}
		p.artworkSent = true
		p.artworkIndex = s.Index
		p.artworkTrack = s.Track
		zlog.Debug().Msgf("projector: artwork requested: index=%d ref=%s", s.Index, ref)
		p.artwork.Publish(ArtworkRequest{Ref: ref})
	}
	p.emitLocked()
}

// Close detaches from the playback service and drops all observers.
func (p *Projector) Close() {
	p.service.Unsubscribe(p.subscription)
	p.views.Close()
	p.artwork.Close()
}

// trackChangedLocked reports whether s has a different current track than
// the last artwork request was made for.
// Must be called with lock held.
func (p *Projector) trackChangedLocked(s playback.PlaybackState) bool {
	if !p.artworkSent {
		return true
	}
	if s.Index != p.artworkIndex {
		return true
	}
	if s.Track == nil || p.artworkTrack == nil {
		return s.Track != p.artworkTrack
	}
	return !s.Track.Equal(*p.artworkTrack)
}

// emitLocked publishes the derived view when it differs from the last one.
// Must be called with lock held.
func (p *Projector) emitLocked() {
	next := Derive(p.lastState, p.liked)
	if next == p.view {
		return
	}
	p.view = next
	p.views.Publish(next)
}
