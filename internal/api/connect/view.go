package connect

import (
	"time"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/osa030/nowplaying/internal/app/playback"
	"github.com/osa030/nowplaying/internal/app/projector"
)

// Wire field names of a view state.
const (
	fieldTitle        = "title"
	fieldSubtitle     = "subtitle"
	fieldProgress     = "progress"
	fieldElapsedText  = "elapsed_text"
	fieldDurationText = "duration_text"
	fieldIsPlaying    = "is_playing"
	fieldRepeatMode   = "repeat_mode"
	fieldIsLiked      = "is_liked"
	fieldCurrentTime  = "current_time_sec"
	fieldDuration     = "duration_sec"
)

// ViewToStruct encodes a view state for the wire.
func ViewToStruct(v projector.ViewState) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		fieldTitle:        structpb.NewStringValue(v.Title),
		fieldSubtitle:     structpb.NewStringValue(v.Subtitle),
		fieldProgress:     structpb.NewNumberValue(v.Progress),
		fieldElapsedText:  structpb.NewStringValue(v.ElapsedText),
		fieldDurationText: structpb.NewStringValue(v.DurationText),
		fieldIsPlaying:    structpb.NewBoolValue(v.IsPlaying),
		fieldRepeatMode:   structpb.NewStringValue(v.RepeatMode.String()),
		fieldIsLiked:      structpb.NewBoolValue(v.IsLiked),
		fieldCurrentTime:  structpb.NewNumberValue(v.CurrentTime.Seconds()),
		fieldDuration:     structpb.NewNumberValue(v.Duration.Seconds()),
	}}
}

// ViewFromStruct decodes a wire view state. Missing or mistyped fields are
// left at their zero value; an unknown repeat mode decodes as off.
func ViewFromStruct(s *structpb.Struct) projector.ViewState {
	f := s.GetFields()
	mode, _ := playback.ParseRepeatMode(f[fieldRepeatMode].GetStringValue())
	return projector.ViewState{
		Title:        f[fieldTitle].GetStringValue(),
		Subtitle:     f[fieldSubtitle].GetStringValue(),
		Progress:     f[fieldProgress].GetNumberValue(),
		ElapsedText:  f[fieldElapsedText].GetStringValue(),
		DurationText: f[fieldDurationText].GetStringValue(),
		IsPlaying:    f[fieldIsPlaying].GetBoolValue(),
		RepeatMode:   mode,
		IsLiked:      f[fieldIsLiked].GetBoolValue(),
		CurrentTime:  seconds(f[fieldCurrentTime].GetNumberValue()),
		Duration:     seconds(f[fieldDuration].GetNumberValue()),
	}
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
