package connect

import (
	"context"
	"math"
	"sync"

	"connectrpc.com/connect"
	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/osa030/nowplaying/internal/app/notification"
	"github.com/osa030/nowplaying/internal/app/projector"
)

// Player is the view-level surface the service drives.
type Player interface {
	PlayPauseTapped()
	NextTapped()
	PrevTapped()
	LikeTapped()
	RepeatTapped()
	Seek(fraction float64)
	State() projector.ViewState
	SubscribeViews(observer func(projector.ViewState)) notification.SubscriptionID
	Unsubscribe(id notification.SubscriptionID)
}

// PlayerService implements the PlayerService RPC.
type PlayerService struct {
	player Player

	done      chan struct{}
	closeOnce sync.Once
}

// NewPlayerService creates a new PlayerService.
func NewPlayerService(player Player) *PlayerService {
	return &PlayerService{
		player: player,
		done:   make(chan struct{}),
	}
}

// Close ends all open Watch streams.
func (s *PlayerService) Close() {
	s.closeOnce.Do(func() { close(s.done) })
}

// State returns the current view state.
func (s *PlayerService) State(
	ctx context.Context,
	req *connect.Request[emptypb.Empty],
) (*connect.Response[structpb.Struct], error) {
	return connect.NewResponse(ViewToStruct(s.player.State())), nil
}

// PlayPause toggles playback.
func (s *PlayerService) PlayPause(
	ctx context.Context,
	req *connect.Request[emptypb.Empty],
) (*connect.Response[emptypb.Empty], error) {
	s.player.PlayPauseTapped()
	return connect.NewResponse(&emptypb.Empty{}), nil
}

// Next skips to the next track.
func (s *PlayerService) Next(
	ctx context.Context,
	req *connect.Request[emptypb.Empty],
) (*connect.Response[emptypb.Empty], error) {
	s.player.NextTapped()
	return connect.NewResponse(&emptypb.Empty{}), nil
}

// Previous restarts the track or skips back.
func (s *PlayerService) Previous(
	ctx context.Context,
	req *connect.Request[emptypb.Empty],
) (*connect.Response[emptypb.Empty], error) {
	s.player.PrevTapped()
	return connect.NewResponse(&emptypb.Empty{}), nil
}

// Like toggles the liked flag.
func (s *PlayerService) Like(
	ctx context.Context,
	req *connect.Request[emptypb.Empty],
) (*connect.Response[emptypb.Empty], error) {
	s.player.LikeTapped()
	return connect.NewResponse(&emptypb.Empty{}), nil
}

// Repeat cycles the repeat mode.
func (s *PlayerService) Repeat(
	ctx context.Context,
	req *connect.Request[emptypb.Empty],
) (*connect.Response[emptypb.Empty], error) {
	s.player.RepeatTapped()
	return connect.NewResponse(&emptypb.Empty{}), nil
}

// Seek moves to a fraction of the current track. Out-of-range fractions are
// clamped; NaN and infinities are rejected.
func (s *PlayerService) Seek(
	ctx context.Context,
	req *connect.Request[wrapperspb.DoubleValue],
) (*connect.Response[emptypb.Empty], error) {
	fraction := req.Msg.GetValue()
	if math.IsNaN(fraction) || math.IsInf(fraction, 0) {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.Newf("invalid seek fraction: %v", fraction))
	}
	s.player.Seek(fraction)
	return connect.NewResponse(&emptypb.Empty{}), nil
}

// Watch streams view states, starting with the current one. A slow client
// skips intermediate states and always receives the latest.
func (s *PlayerService) Watch(
	ctx context.Context,
	req *connect.Request[emptypb.Empty],
	stream *connect.ServerStream[structpb.Struct],
) error {
	latest := newLatestView()
	subscriptionID := s.player.SubscribeViews(latest.set)
	defer s.player.Unsubscribe(subscriptionID)

	// Subscribe first so no update between the two is lost.
	if err := stream.Send(ViewToStruct(s.player.State())); err != nil {
		return err
	}
	zlog.Debug().Msgf("watch stream opened: subscription=%s", subscriptionID)

	for {
		select {
		case <-ctx.Done():
			zlog.Debug().Msgf("watch stream closed by client: subscription=%s", subscriptionID)
			return nil
		case <-s.done:
			return nil
		case <-latest.ready:
			if err := stream.Send(ViewToStruct(latest.get())); err != nil {
				return err
			}
		}
	}
}

// latestView holds the newest view for one stream.
type latestView struct {
	mu    sync.Mutex
	value projector.ViewState
	ready chan struct{}
}

func newLatestView() *latestView {
	return &latestView{ready: make(chan struct{}, 1)}
}

func (l *latestView) set(v projector.ViewState) {
	l.mu.Lock()
	l.value = v
	l.mu.Unlock()

	select {
	case l.ready <- struct{}{}:
	default:
	}
}

func (l *latestView) get() projector.ViewState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.value
}
