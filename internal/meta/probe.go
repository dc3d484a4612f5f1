// Package meta extracts and writes audio metadata: container/stream
// properties via ffprobe, tag values via github.com/dhowden/tag, and tag
// writes via ffmpeg.
package meta

import (
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"

	"github.com/brandonscript/auto-m4b/internal/bookerr"
)

// standardBitrates are the common encoder steps probe() quantizes to
// for display.
var standardBitrates = []int{32000, 48000, 64000, 96000, 128000, 160000, 192000, 256000, 320000}

// ProbeResult holds the measurements a probe operation returns.
type ProbeResult struct {
	StandardBitrateBPS int
	ActualBitrateBPS   int
	SampleRateHz       int
	IsVBR              bool
}

// ffprobeInfo mirrors ffprobe's JSON output shape: the fields this
// package reads, plus an IntOrString custom unmarshaler for values
// ffprobe sometimes emits as quoted strings instead of numbers.
type ffprobeInfo struct {
	Streams []ffprobeStream `json:"streams"`
	Format  *ffprobeFormat  `json:"format"`
}

// IntOrString unmarshals a JSON value that may be either a number or a
// numeric string, defaulting to zero for "N/A" or unparsable strings.
type IntOrString struct {
	Value int
}

func (i *IntOrString) UnmarshalJSON(data []byte) error {
	var intVal int
	if err := json.Unmarshal(data, &intVal); err == nil {
		i.Value = intVal
		return nil
	}
	var strVal string
	if err := json.Unmarshal(data, &strVal); err != nil {
		return err
	}
	if strVal == "" || strVal == "N/A" {
		i.Value = 0
		return nil
	}
	parsed, err := strconv.Atoi(strVal)
	if err != nil {
		i.Value = 0
		return nil
	}
	i.Value = parsed
	return nil
}

type ffprobeStream struct {
	Index         int         `json:"index"`
	CodecName     string      `json:"codec_name"`
	CodecType     string      `json:"codec_type"`
	SampleRate    IntOrString `json:"sample_rate"`
	Channels      int         `json:"channels"`
	BitsPerSample IntOrString `json:"bits_per_sample"`
	Duration      string      `json:"duration"`
	BitRate       IntOrString `json:"bit_rate"`
}

type ffprobeFormat struct {
	Filename   string            `json:"filename"`
	FormatName string            `json:"format_name"`
	Duration   string            `json:"duration"`
	Size       string            `json:"size"`
	BitRate    IntOrString       `json:"bit_rate"`
	Tags       map[string]string `json:"tags"`
}

// runFFprobe shells out to ffprobe: same flags, same JSON shape, same
// "not found" sentinel every caller in this package relies on.
func runFFprobe(bin, path string) (*ffprobeInfo, error) {
	if _, err := exec.LookPath(bin); err != nil {
		return nil, fmt.Errorf("%w: %s", bookerr.ErrNotFound, bin)
	}

	cmd := exec.Command(bin,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	)
	output, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return nil, &bookerr.BadFileError{Path: path, Err: fmt.Errorf("ffprobe: %s", string(exitErr.Stderr))}
		}
		return nil, &bookerr.BadFileError{Path: path, Err: err}
	}

	var info ffprobeInfo
	if err := json.Unmarshal(output, &info); err != nil {
		return nil, &bookerr.BadFileError{Path: path, Err: fmt.Errorf("parse ffprobe output: %w", err)}
	}
	return &info, nil
}

// Probe runs ffprobe against path and returns its audio properties. It
// never panics on corrupt input — decode or parse failures come back
// as a BadFileError.
func Probe(ffprobeBin, path string) (ProbeResult, error) {
	info, err := runFFprobe(ffprobeBin, path)
	if err != nil {
		return ProbeResult{}, err
	}

	var audio *ffprobeStream
	for i := range info.Streams {
		if info.Streams[i].CodecType == "audio" {
			audio = &info.Streams[i]
			break
		}
	}
	if audio == nil {
		return ProbeResult{}, &bookerr.BadFileError{Path: path, Err: fmt.Errorf("no audio stream found")}
	}

	actual := audio.BitRate.Value
	if actual == 0 && info.Format != nil {
		actual = info.Format.BitRate.Value
	}

	isVBR := isVBRCodec(audio.CodecName)

	return ProbeResult{
		StandardBitrateBPS: quantizeBitrate(actual),
		ActualBitrateBPS:   actual,
		SampleRateHz:       audio.SampleRate.Value,
		IsVBR:              isVBR,
	}, nil
}

// isVBRCodec is a coarse heuristic: lossy codecs without a fixed
// container-declared rate are treated as VBR-capable; this only affects
// display, not conversion behavior.
func isVBRCodec(codec string) bool {
	switch codec {
	case "mp3", "aac", "vorbis", "opus":
		return true
	default:
		return false
	}
}

// quantizeBitrate rounds bps to the nearest of the common encoder steps
// in standardBitrates, for display purposes — the raw measurement is
// preserved separately as ActualBitrateBPS.
func quantizeBitrate(bps int) int {
	if bps <= 0 {
		return 0
	}
	best := standardBitrates[0]
	bestDelta := abs(bps - best)
	for _, b := range standardBitrates[1:] {
		if d := abs(bps - b); d < bestDelta {
			best, bestDelta = b, d
		}
	}
	return best
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
