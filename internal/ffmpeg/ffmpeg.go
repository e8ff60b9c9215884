// Package ffmpeg wraps the ffprobe binary used to read media durations.
package ffmpeg

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strconv"
)

// FFProbeOutput defines the structure for ffprobe JSON output relevant to duration.
// We only care about the format.duration field.
type FFProbeOutput struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// Prober runs ffprobe. BinPath defaults to "ffprobe" on $PATH.
type Prober struct {
	BinPath string
}

func NewProber(binPath string) *Prober {
	if binPath == "" {
		binPath = "ffprobe"
	}
	return &Prober{BinPath: binPath}
}

// ProbeDuration returns the duration in seconds of the media held in data.
// The buffer is piped to ffprobe first; containers that need seeking (mp4
// with a trailing moov atom) are retried from a temporary file.
func (p *Prober) ProbeDuration(ctx context.Context, data []byte) (float64, error) {
	if len(data) == 0 {
		return 0, fmt.Errorf("cannot probe empty input")
	}

	cmd := exec.CommandContext(ctx, p.BinPath,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-i", "pipe:0",
	)
	cmd.Stdin = bytes.NewReader(data)

	duration, pipeErr := p.run(cmd)
	if pipeErr == nil {
		return duration, nil
	}

	tmp, err := os.CreateTemp("", "probe-*")
	if err != nil {
		return 0, fmt.Errorf("%v (temp file fallback unavailable: %w)", pipeErr, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return 0, fmt.Errorf("failed to write probe input: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return 0, fmt.Errorf("failed to write probe input: %w", err)
	}

	return p.ProbeFile(ctx, tmp.Name())
}

// ProbeFile returns the duration in seconds of the media file at filePath.
func (p *Prober) ProbeFile(ctx context.Context, filePath string) (float64, error) {
	// ffprobe -v quiet -print_format json -show_format <input_file>
	cmd := exec.CommandContext(ctx, p.BinPath,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		filePath,
	)
	return p.run(cmd)
}

func (p *Prober) run(cmd *exec.Cmd) (float64, error) {
	var out bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return 0, fmt.Errorf("ffprobe failed: %v\nStderr: %s", err, stderr.String())
	}

	return ParseDuration(out.Bytes())
}

// ParseDuration extracts format.duration (seconds) from ffprobe's JSON output.
func ParseDuration(output []byte) (float64, error) {
	var ffprobeOutput FFProbeOutput
	if err := json.Unmarshal(output, &ffprobeOutput); err != nil {
		return 0, fmt.Errorf("error unmarshalling ffprobe output: %v\nOutput: %s", err, string(output))
	}

	if ffprobeOutput.Format.Duration == "" || ffprobeOutput.Format.Duration == "N/A" {
		return 0, fmt.Errorf("could not retrieve duration from ffprobe output\nOutput: %s", string(output))
	}

	duration, err := strconv.ParseFloat(ffprobeOutput.Format.Duration, 64)
	if err != nil {
		return 0, fmt.Errorf("error parsing duration string '%s': %v", ffprobeOutput.Format.Duration, err)
	}

	return duration, nil
}
