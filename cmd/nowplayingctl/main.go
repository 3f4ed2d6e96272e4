// Package main provides the remote control CLI for the player daemon.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"connectrpc.com/connect"
	"github.com/alecthomas/kingpin/v2"
	"github.com/joho/godotenv"

	apiconnect "github.com/osa030/nowplaying/internal/api/connect"
	"github.com/osa030/nowplaying/internal/app/projector"
)

var (
	app    = kingpin.New("nowplayingctl", "Remote control for the now-playing player")
	server = app.Flag("server", "Server address").Default("http://localhost:8080").String()
	token  = app.Flag("token", "Control token").Envar("NOWPLAYING_TOKEN").String()

	stateCmd     = app.Command("state", "Show the current view state")
	playPauseCmd = app.Command("play-pause", "Toggle playback")
	nextCmd      = app.Command("next", "Skip to the next track")
	prevCmd      = app.Command("prev", "Restart the track or skip back")
	likeCmd      = app.Command("like", "Toggle the liked flag")
	repeatCmd    = app.Command("repeat", "Cycle the repeat mode")

	seekCmd      = app.Command("seek", "Seek within the current track")
	seekFraction = seekCmd.Arg("fraction", "Position as a fraction of the track (0..1)").Required().Float64()

	watchCmd = app.Command("watch", "Stream view state updates")
)

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	var opts []connect.ClientOption
	if *token != "" {
		opts = append(opts, connect.WithInterceptors(apiconnect.NewTokenSender(*token)))
	}
	client := apiconnect.NewPlayerServiceClient(http.DefaultClient, *server, opts...)

	ctx := context.Background()

	var err error
	switch command {
	case stateCmd.FullCommand():
		err = showState(ctx, client)
	case playPauseCmd.FullCommand():
		err = client.PlayPause(ctx)
	case nextCmd.FullCommand():
		err = client.Next(ctx)
	case prevCmd.FullCommand():
		err = client.Previous(ctx)
	case likeCmd.FullCommand():
		err = client.Like(ctx)
	case repeatCmd.FullCommand():
		err = client.Repeat(ctx)
	case seekCmd.FullCommand():
		err = client.Seek(ctx, *seekFraction)
	case watchCmd.FullCommand():
		err = watch(ctx, client)
	}
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

func showState(ctx context.Context, client *apiconnect.PlayerServiceClient) error {
	view, err := client.State(ctx)
	if err != nil {
		return err
	}
	printView(view)
	return nil
}

func watch(ctx context.Context, client *apiconnect.PlayerServiceClient) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Println("Watching... (Press Ctrl+C to stop)")
	return client.Watch(ctx, printView)
}

func printView(v projector.ViewState) {
	if v.Title == "" {
		fmt.Println("(nothing playing)")
		return
	}

	status := "paused"
	if v.IsPlaying {
		status = "playing"
	}
	liked := ""
	if v.IsLiked {
		liked = " ♥"
	}
	fmt.Printf("%s - %s%s\n", v.Title, v.Subtitle, liked)
	fmt.Printf("  %s / %s (%.0f%%) [%s, repeat %s]\n",
		v.ElapsedText, v.DurationText, v.Progress*100, status, v.RepeatMode)
}
