package connect

import (
	"context"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/osa030/nowplaying/internal/app/projector"
)

func empty() *connect.Request[emptypb.Empty] {
	return connect.NewRequest(&emptypb.Empty{})
}

// State returns the current view state.
func (c *PlayerServiceClient) State(ctx context.Context) (projector.ViewState, error) {
	resp, err := c.state.CallUnary(ctx, empty())
	if err != nil {
		return projector.ViewState{}, err
	}
	return ViewFromStruct(resp.Msg), nil
}

// PlayPause toggles playback.
func (c *PlayerServiceClient) PlayPause(ctx context.Context) error {
	_, err := c.playPause.CallUnary(ctx, empty())
	return err
}

// Next skips to the next track.
func (c *PlayerServiceClient) Next(ctx context.Context) error {
	_, err := c.next.CallUnary(ctx, empty())
	return err
}

// Previous restarts the track or skips back.
func (c *PlayerServiceClient) Previous(ctx context.Context) error {
	_, err := c.previous.CallUnary(ctx, empty())
	return err
}

// Like toggles the liked flag.
func (c *PlayerServiceClient) Like(ctx context.Context) error {
	_, err := c.like.CallUnary(ctx, empty())
	return err
}

// Repeat cycles the repeat mode.
func (c *PlayerServiceClient) Repeat(ctx context.Context) error {
	_, err := c.repeat.CallUnary(ctx, empty())
	return err
}

// Seek moves to fraction (0..1) of the current track.
func (c *PlayerServiceClient) Seek(ctx context.Context, fraction float64) error {
	_, err := c.seek.CallUnary(ctx, connect.NewRequest(wrapperspb.Double(fraction)))
	return err
}

// Watch calls fn for every streamed view state until ctx is done or the
// server ends the stream.
func (c *PlayerServiceClient) Watch(ctx context.Context, fn func(projector.ViewState)) error {
	stream, err := c.watch.CallServerStream(ctx, empty())
	if err != nil {
		return err
	}
	defer stream.Close()

	for stream.Receive() {
		fn(ViewFromStruct(stream.Msg()))
	}
	if err := stream.Err(); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}
