package edit

import (
	"context"
	"fmt"
	"math"

	"github.com/alnah/go-mediakit/internal/ffmpeg"
)

// ReplaceAudio writes output with the video stream of video and the audio
// stream of audio. Video is copied; audio is encoded to AAC.
func (e *Editor) ReplaceAudio(ctx context.Context, video, audio, output string) (string, error) {
	if err := e.checkOutput(output); err != nil {
		return "", err
	}

	inv := ffmpeg.Invocation{
		Inputs: []ffmpeg.Input{ffmpeg.InputFile(video), ffmpeg.InputFile(audio)},
		Output: ffmpeg.FilePath(output),
		OutputOptions: []string{
			"-c:v", "copy",
			"-c:a", "aac",
			"-strict", "experimental",
			"-map", "0:v:0",
			"-map", "1:a:0",
		},
		Overwrite: e.overwrite,
	}
	if err := e.runner.Run(ctx, inv, ffmpeg.Handlers{}); err != nil {
		return "", fmt.Errorf("replace audio of %s: %w", video, err)
	}
	e.logger.Debug("audio replaced", "video", video, "audio", audio, "output", output)
	return output, nil
}

// DelayAudio shifts the audio of input by delay seconds relative to its
// video: positive plays audio later, negative earlier. Both streams are
// copied.
func (e *Editor) DelayAudio(ctx context.Context, input, output string, delay float64) (string, error) {
	if math.IsNaN(delay) || math.IsInf(delay, 0) {
		return "", fmt.Errorf("%w: %v", ErrInvalidDelay, delay)
	}
	if err := e.checkOutput(output); err != nil {
		return "", err
	}

	inv := ffmpeg.Invocation{
		Inputs: []ffmpeg.Input{
			ffmpeg.InputFile(input),
			ffmpeg.InputFile(input, "-itsoffset", secs(delay)),
		},
		Output: ffmpeg.FilePath(output),
		OutputOptions: []string{
			"-map", "0:v:0",
			"-map", "1:a:0",
			"-c:v", "copy",
			"-c:a", "copy",
		},
		Overwrite: e.overwrite,
	}
	if err := e.runner.Run(ctx, inv, ffmpeg.Handlers{}); err != nil {
		return "", fmt.Errorf("delay audio of %s: %w", input, err)
	}
	e.logger.Debug("audio delayed", "input", input, "delay", delay, "output", output)
	return output, nil
}
