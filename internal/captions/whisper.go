// Package captions runs the external speech-to-text process that turns a
// video into a WebVTT subtitle track.
package captions

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
)

const (
	DefaultBinary = "whisper"
	// DefaultModel is whisper's fastest, least accurate model.
	DefaultModel = "tiny"
)

// Whisper invokes the whisper CLI.
type Whisper struct {
	BinPath string
	Model   string
	logger  logrus.FieldLogger
}

func NewWhisper(binPath, model string, logger logrus.FieldLogger) *Whisper {
	if binPath == "" {
		binPath = DefaultBinary
	}
	if model == "" {
		model = DefaultModel
	}
	return &Whisper{BinPath: binPath, Model: model, logger: logger}
}

// Transcribe runs whisper on inputPath writing a .vtt file into outputDir and
// returns the path of the produced track. It blocks until the process exits.
func (w *Whisper) Transcribe(ctx context.Context, inputPath, outputDir string) (string, error) {
	cmd := exec.CommandContext(ctx, w.BinPath,
		inputPath,
		"--model", w.Model,
		"--output_format", "vtt",
		"--output_dir", outputDir,
	)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	w.logger.WithFields(logrus.Fields{"input": inputPath, "model": w.Model}).Info("Starting whisper transcription")
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("whisper failed: %v\nStderr: %s", err, stderr.String())
	}

	return findTrack(inputPath, outputDir)
}

// findTrack locates whisper's output: <outputDir>/<input base name>.vtt, or
// the only .vtt file present.
func findTrack(inputPath, outputDir string) (string, error) {
	base := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
	expected := filepath.Join(outputDir, base+".vtt")
	if _, err := os.Stat(expected); err == nil {
		return expected, nil
	}

	matches, err := filepath.Glob(filepath.Join(outputDir, "*.vtt"))
	if err != nil {
		return "", err
	}
	if len(matches) != 1 {
		return "", fmt.Errorf("whisper produced %d vtt files in %s, expected %s", len(matches), outputDir, filepath.Base(expected))
	}
	return matches[0], nil
}
