// Package connect provides the Connect RPC remote control for the player.
package connect

import (
	"net/http"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// PlayerServiceName is the fully-qualified name of the PlayerService service.
const PlayerServiceName = "nowplaying.v1.PlayerService"

// Procedure paths of the PlayerService RPCs.
const (
	PlayerServiceStateProcedure     = "/" + PlayerServiceName + "/State"
	PlayerServicePlayPauseProcedure = "/" + PlayerServiceName + "/PlayPause"
	PlayerServiceNextProcedure      = "/" + PlayerServiceName + "/Next"
	PlayerServicePreviousProcedure  = "/" + PlayerServiceName + "/Previous"
	PlayerServiceLikeProcedure      = "/" + PlayerServiceName + "/Like"
	PlayerServiceRepeatProcedure    = "/" + PlayerServiceName + "/Repeat"
	PlayerServiceSeekProcedure      = "/" + PlayerServiceName + "/Seek"
	PlayerServiceWatchProcedure     = "/" + PlayerServiceName + "/Watch"
)

// NewPlayerServiceHandler builds an HTTP handler for every PlayerService
// procedure. It returns the path to mount the handler on.
func NewPlayerServiceHandler(svc *PlayerService, opts ...connect.HandlerOption) (string, http.Handler) {
	mux := http.NewServeMux()
	mux.Handle(PlayerServiceStateProcedure, connect.NewUnaryHandler(PlayerServiceStateProcedure, svc.State, opts...))
	mux.Handle(PlayerServicePlayPauseProcedure, connect.NewUnaryHandler(PlayerServicePlayPauseProcedure, svc.PlayPause, opts...))
	mux.Handle(PlayerServiceNextProcedure, connect.NewUnaryHandler(PlayerServiceNextProcedure, svc.Next, opts...))
	mux.Handle(PlayerServicePreviousProcedure, connect.NewUnaryHandler(PlayerServicePreviousProcedure, svc.Previous, opts...))
	mux.Handle(PlayerServiceLikeProcedure, connect.NewUnaryHandler(PlayerServiceLikeProcedure, svc.Like, opts...))
	mux.Handle(PlayerServiceRepeatProcedure, connect.NewUnaryHandler(PlayerServiceRepeatProcedure, svc.Repeat, opts...))
	mux.Handle(PlayerServiceSeekProcedure, connect.NewUnaryHandler(PlayerServiceSeekProcedure, svc.Seek, opts...))
	mux.Handle(PlayerServiceWatchProcedure, connect.NewServerStreamHandler(PlayerServiceWatchProcedure, svc.Watch, opts...))
	return "/" + PlayerServiceName + "/", mux
}

// PlayerServiceClient is a client for the PlayerService.
type PlayerServiceClient struct {
	state     *connect.Client[emptypb.Empty, structpb.Struct]
	playPause *connect.Client[emptypb.Empty, emptypb.Empty]
	next      *connect.Client[emptypb.Empty, emptypb.Empty]
	previous  *connect.Client[emptypb.Empty, emptypb.Empty]
	like      *connect.Client[emptypb.Empty, emptypb.Empty]
	repeat    *connect.Client[emptypb.Empty, emptypb.Empty]
	seek      *connect.Client[wrapperspb.DoubleValue, emptypb.Empty]
	watch     *connect.Client[emptypb.Empty, structpb.Struct]
}

// NewPlayerServiceClient creates a client for the service at baseURL.
func NewPlayerServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *PlayerServiceClient {
	return &PlayerServiceClient{
		state:     connect.NewClient[emptypb.Empty, structpb.Struct](httpClient, baseURL+PlayerServiceStateProcedure, opts...),
		playPause: connect.NewClient[emptypb.Empty, emptypb.Empty](httpClient, baseURL+PlayerServicePlayPauseProcedure, opts...),
		next:      connect.NewClient[emptypb.Empty, emptypb.Empty](httpClient, baseURL+PlayerServiceNextProcedure, opts...),
		previous:  connect.NewClient[emptypb.Empty, emptypb.Empty](httpClient, baseURL+PlayerServicePreviousProcedure, opts...),
		like:      connect.NewClient[emptypb.Empty, emptypb.Empty](httpClient, baseURL+PlayerServiceLikeProcedure, opts...),
		repeat:    connect.NewClient[emptypb.Empty, emptypb.Empty](httpClient, baseURL+PlayerServiceRepeatProcedure, opts...),
		seek:      connect.NewClient[wrapperspb.DoubleValue, emptypb.Empty](httpClient, baseURL+PlayerServiceSeekProcedure, opts...),
		watch:     connect.NewClient[emptypb.Empty, structpb.Struct](httpClient, baseURL+PlayerServiceWatchProcedure, opts...),
	}
}
