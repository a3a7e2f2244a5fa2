package encoding

import (
	"fmt"
	"strconv"
	"time"

	ffmpeg "github.com/u2takey/ffmpeg-go"

	"jigsawreveal/internal/timeline"
)

// Settings are the output parameters of one encode.
type Settings struct {
	FPS         int
	VideoCodec  string
	AudioCodec  string
	Preset      string
	PixelFormat string
}

func seconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', 3, 64)
}

// compile builds the ffmpeg argument list for plan. Layers are overlaid on a
// black canvas in plan order, so the first layer is bottom-most.
func compile(plan timeline.Plan, src sources, output string, s Settings) []string {
	base := ffmpeg.Input(
		fmt.Sprintf("color=c=black:s=%dx%d:r=%d:d=%s", plan.Size.Width, plan.Size.Height, s.FPS, seconds(plan.Duration)),
		ffmpeg.KwArgs{"f": "lavfi"},
	)
	video := base.Video()
	for i, l := range plan.Layers {
		overlay := layerStream(l, src.layers[i], s.FPS)
		video = ffmpeg.Filter([]*ffmpeg.Stream{video, overlay}, "overlay", ffmpeg.Args{}, ffmpeg.KwArgs{
			"x":          l.Position.X,
			"y":          l.Position.Y,
			"eof_action": "pass",
		})
	}
	video = video.Filter("format", ffmpeg.Args{}, ffmpeg.KwArgs{"pix_fmts": s.PixelFormat})

	streams := []*ffmpeg.Stream{video}
	kwargs := ffmpeg.KwArgs{
		"c:v":     s.VideoCodec,
		"preset":  s.Preset,
		"pix_fmt": s.PixelFormat,
		"r":       s.FPS,
		"t":       seconds(plan.Duration),
	}
	if audio := mixStream(plan.Sounds, src.sounds); audio != nil {
		streams = append(streams, audio)
		kwargs["c:a"] = s.AudioCodec
		kwargs["ac"] = max(plan.Channels(), 1)
	}

	return ffmpeg.Output(streams, output, kwargs).
		GlobalArgs("-hide_banner", "-loglevel", "error", "-nostats", "-progress", "pipe:1").
		OverWriteOutput().
		GetArgs()
}

// layerStream decodes one layer, scales it to its size, applies its fades
// relative to the layer start, and shifts it to its absolute start time.
func layerStream(l timeline.Layer, path string, fps int) *ffmpeg.Stream {
	in := ffmpeg.KwArgs{"t": seconds(l.Duration)}
	switch {
	case l.Kind == timeline.KindStill:
		in["loop"] = 1
		in["framerate"] = fps
	case l.Kind == timeline.KindAnimation && l.Loop:
		in["ignore_loop"] = 0
	}
	v := ffmpeg.Input(path, in).Video().
		Filter("scale", ffmpeg.Args{}, ffmpeg.KwArgs{"w": l.Size.Width, "h": l.Size.Height}).
		Filter("format", ffmpeg.Args{}, ffmpeg.KwArgs{"pix_fmts": "rgba"})
	if l.FadeIn > 0 {
		v = v.Filter("fade", ffmpeg.Args{}, ffmpeg.KwArgs{"t": "in", "st": "0", "d": seconds(l.FadeIn), "alpha": 1})
	}
	if l.FadeOut > 0 {
		v = v.Filter("fade", ffmpeg.Args{}, ffmpeg.KwArgs{"t": "out", "st": seconds(l.Duration - l.FadeOut), "d": seconds(l.FadeOut), "alpha": 1})
	}
	return v.Filter("setpts", ffmpeg.Args{}, ffmpeg.KwArgs{"expr": "PTS-STARTPTS+" + seconds(l.Start) + "/TB"})
}

// mixStream trims, fades, scales and delays every sound, then sums them.
// It returns nil when the plan is silent.
func mixStream(sounds []timeline.Sound, paths []string) *ffmpeg.Stream {
	var streams []*ffmpeg.Stream
	for i, s := range sounds {
		if s.Duration <= 0 {
			continue
		}
		in := ffmpeg.KwArgs{}
		if s.Loop {
			in["stream_loop"] = -1
		}
		a := ffmpeg.Input(paths[i], in).Audio().
			Filter("atrim", ffmpeg.Args{}, ffmpeg.KwArgs{"start": seconds(s.Offset), "duration": seconds(s.Duration)}).
			Filter("asetpts", ffmpeg.Args{}, ffmpeg.KwArgs{"expr": "PTS-STARTPTS"})
		if s.FadeOut > 0 {
			a = a.Filter("afade", ffmpeg.Args{}, ffmpeg.KwArgs{"t": "out", "st": seconds(s.Duration - s.FadeOut), "d": seconds(s.FadeOut)})
		}
		if s.Gain != 1 {
			a = a.Filter("volume", ffmpeg.Args{}, ffmpeg.KwArgs{"volume": strconv.FormatFloat(s.Gain, 'f', -1, 64)})
		}
		if s.Start > 0 {
			a = a.Filter("adelay", ffmpeg.Args{}, ffmpeg.KwArgs{"delays": strconv.FormatInt(s.Start.Milliseconds(), 10), "all": 1})
		}
		streams = append(streams, a)
	}
	switch len(streams) {
	case 0:
		return nil
	case 1:
		return streams[0]
	}
	return ffmpeg.Filter(streams, "amix", ffmpeg.Args{}, ffmpeg.KwArgs{
		"inputs":    len(streams),
		"duration":  "longest",
		"normalize": 0,
	})
}
