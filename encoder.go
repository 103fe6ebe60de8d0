package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	log "github.com/sirupsen/logrus"
)

const (
	clipWidth  = 640 // Width of every encoded clip.
	clipHeight = 480 // Height of every encoded clip.

	encoderMencoder = "mencoder"
	encoderOpenCV   = "opencv"
)

type (
	// An encoder turns the stills listed in a manifest into a single clip.
	encoder interface {
		Encode(ctx context.Context, job encodeJob) error
	}

	// Everything an encoder needs to produce one clip.
	encodeJob struct {
		ManifestPath string // Text file listing one still per line, in frame order.
		Width        int    // Frame width of the clip.
		Height       int    // Frame height of the clip.
		FPS          int    // Frames per second of the clip.
		OutputPath   string // Path of the clip to write.
	}

	// Shells out to mencoder, reading the stills through its mf:// list syntax.
	mencoderEncoder struct {
		bin string // Path or name of the mencoder binary.
	}
)

// Returns the encoder registered under name.
func newEncoder(name string, bin string) (encoder, error) {
	switch name {
	case encoderMencoder:
		return &mencoderEncoder{bin: bin}, nil
	case encoderOpenCV:
		return &opencvEncoder{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", errUnknownEncoder, name)
	}
}

// Builds the mencoder argument list for a job.
func (e *mencoderEncoder) args(job encodeJob) []string {
	return []string{
		"mf://@" + job.ManifestPath,
		"-mf", fmt.Sprintf("w=%d:h=%d:fps=%d:type=jpg", job.Width, job.Height, job.FPS),
		"-ovc", "lavc",
		"-lavcopts", "vcodec=mpeg4",
		"-oac", "copy",
		"-of", "avi",
		"-o", job.OutputPath,
		"-really-quiet",
	}
}

// Runs mencoder for the job and waits for it to exit. A non-zero exit is
// reported together with whatever mencoder wrote to stderr.
func (e *mencoderEncoder) Encode(ctx context.Context, job encodeJob) error {
	cmd := exec.CommandContext(ctx, e.bin, e.args(job)...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	log.WithFields(log.Fields{"bin": e.bin, "args": cmd.Args[1:]}).Debug("Running encoder")

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			msg := strings.TrimSpace(stderr.String())
			if msg == "" {
				return fmt.Errorf("%s exited with status %d", e.bin, exitErr.ExitCode())
			}
			return fmt.Errorf("%s exited with status %d: %s", e.bin, exitErr.ExitCode(), msg)
		}
		return err
	}

	return nil
}
