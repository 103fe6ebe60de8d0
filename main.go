// Package main batches timestamped surveillance camera stills into one video
// clip per camera and day. Each camera is a subdirectory of the input
// directory; its clips are written to the matching subdirectory of the output
// directory and the stills are removed once their clip is encoded. Images from
// the current day are left alone because the camera is still adding to them.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
)

type (
	// Encodes the stills of a set of cameras into daily clips.
	compressor struct {
		params  compressorParams // Holds the command line flags.
		encoder encoder          // Produces the clip for each day.
		now     func() time.Time // Clock used to decide which day is still in progress.
	}

	// Contains parameters for the compressor.
	compressorParams struct {
		Cameras     []string // Camera labels, each a subdirectory of InputDir and OutputDir.
		InputDir    string   // The input directory containing one directory per camera.
		OutputDir   string   // The output directory for the encoded clips.
		FPS         int      // Frames per second of the clips.
		Workers     int      // The number of clips encoded at once, zero for no limit.
		Encoder     string   // Name of the encoder backend.
		EncoderBin  string   // Path to the mencoder binary.
		DryRun      bool     // If true, nothing is encoded or removed.
		Debug       bool     // Enables debug mode.
		FailOnError bool     // If true, any failed clip makes the process exit non-zero.
	}

	// One camera's stills for one day.
	clipJob struct {
		Camera    string   // Camera label.
		Date      string   // Capture date as YYYY-MM-DD.
		OutputDir string   // The camera's output directory.
		Files     []string // Full paths of the stills.
	}

	// Outcome of a clip, or of a camera that couldn't be scanned when Date is empty.
	clipResult struct {
		Camera string // Camera label.
		Date   string // Capture date, empty for camera-level failures.
		Files  int    // Number of stills in the clip.
		Output string // Path of the clip.
		Err    error  // Nil when the clip was encoded and its stills removed.
	}
)

var (
	errMissingCamera  = errors.New("please specify at least one camera")
	errMissingDir     = errors.New("directory not found")
	errInvalidFPS     = errors.New("fps must be positive")
	errUnknownEncoder = errors.New("unknown encoder")
	errListCameraDir  = errors.New("failed to list camera directory")
	errEncodeFailed   = errors.New("encoder failed")
	errRemoveSource   = errors.New("failed to remove source image")
	errReadFrame      = errors.New("failed to read frame")
	errOpenWriter     = errors.New("failed to open video writer")
	errEmptyManifest  = errors.New("manifest lists no frames")
	errWriteManifest  = errors.New("failed to write manifest")
	errCreateOutput   = errors.New("failed to create output directory")
)

// Entry point of the program.
// Loads an optional .env file.
// Parses the command line arguments.
// Encodes a clip for every complete day of every camera.
// Prints a summary when done.
func main() {
	os.Exit(run(os.Args[1:]))
}

// Runs the program with the given command line arguments and returns the
// exit status: 2 for invalid arguments, 1 when a clip failed and
// --fail-on-error is set, 0 otherwise.
func run(args []string) int {
	// Start the timer.
	start := time.Now()

	log.SetOutput(os.Stdout)
	log.SetLevel(log.InfoLevel)

	// A missing .env file is fine, flags and the environment still apply.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.WithFields(log.Fields{"error": err}).Warn("Error loading .env file")
	}

	// Parse the command line arguments.
	params, err := parseFlags(args)
	if errors.Is(err, pflag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "surveillance-compressor: %v\n", err)
		return 2
	}

	// Change logging level if debugging.
	if params.Debug {
		log.SetLevel(log.DebugLevel)
	}

	enc, err := newEncoder(params.Encoder, params.EncoderBin)
	if err != nil {
		fmt.Fprintf(os.Stderr, "surveillance-compressor: %v\n", err)
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := newCompressor(params, enc)
	results := c.compress(ctx)

	failed := reportResults(results)

	log.WithFields(log.Fields{
		"clips":      len(results) - failed,
		"failed":     failed,
		"time_taken": time.Since(start),
	}).Info("Done.")

	if failed > 0 && params.FailOnError {
		return 1
	}
	return 0
}

// newCompressor initializes a new compressor with the provided
// compressorParams and encoder, using the wall clock.
func newCompressor(params compressorParams, enc encoder) *compressor {
	return &compressor{
		params:  params,
		encoder: enc,
		now:     time.Now,
	}
}

// Logs every failed result and returns how many there were.
func reportResults(results []clipResult) int {
	failed := 0
	for _, result := range results {
		if result.Err == nil {
			continue
		}
		failed++
		fields := log.Fields{"camera": result.Camera, "error": result.Err}
		if result.Date != "" {
			fields["date"] = result.Date
			fields["files"] = result.Files
		}
		log.WithFields(fields).Error("Error building clip")
	}
	return failed
}
