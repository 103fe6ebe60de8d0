package main

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"

	"github.com/spf13/pflag"
)

// Environment variables that override the flag defaults.
const (
	envFPS        = "SURVEILLANCE_FPS"
	envInputDir   = "SURVEILLANCE_INPUT_DIR"
	envOutputDir  = "SURVEILLANCE_OUTPUT_DIR"
	envWorkers    = "SURVEILLANCE_WORKERS"
	envEncoder    = "SURVEILLANCE_ENCODER"
	envEncoderBin = "SURVEILLANCE_ENCODER_BIN"
)

// Parses the command line arguments (without the program name) into
// compressorParams. Defaults come from the environment when set.
// Returns an error if a camera is missing or a directory doesn't exist.
func parseFlags(args []string) (compressorParams, error) {
	var params compressorParams

	fs := pflag.NewFlagSet("surveillance-compressor", pflag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Convert surveillance photos to a movie clip\n\n")
		fmt.Fprintf(os.Stderr, "Usage: surveillance-compressor [options] CAMERA...\n\n")
		fs.PrintDefaults()
	}

	// Set command line flags.
	fs.IntVarP(&params.FPS, "fps", "f", getEnvAsInt(envFPS, 5), "frames per second")
	fs.StringVarP(&params.InputDir, "input-dir", "i", getEnv(envInputDir, "."), "input directory")
	fs.StringVarP(&params.OutputDir, "output-dir", "o", getEnv(envOutputDir, "."), "output directory")
	fs.IntVarP(&params.Workers, "workers", "w", getEnvAsInt(envWorkers, runtime.NumCPU()), "clips encoded at once, 0 for no limit")
	fs.StringVar(&params.Encoder, "encoder", getEnv(envEncoder, encoderMencoder), "encoder backend: mencoder or opencv")
	fs.StringVar(&params.EncoderBin, "encoder-bin", getEnv(envEncoderBin, "mencoder"), "path to the mencoder binary")
	fs.BoolVar(&params.DryRun, "dry-run", false, "if true, no clips are encoded and no images removed")
	fs.BoolVar(&params.Debug, "debug", false, "if true, enables debug mode")
	fs.BoolVar(&params.FailOnError, "fail-on-error", false, "exit non-zero if any clip fails")

	// Parse the command line flags.
	if err := fs.Parse(args); err != nil {
		return params, err
	}

	params.Cameras = fs.Args()
	if len(params.Cameras) == 0 {
		return params, fmt.Errorf("%w", errMissingCamera)
	}

	if params.FPS <= 0 {
		return params, fmt.Errorf("%w: %d", errInvalidFPS, params.FPS)
	}

	var err error
	if params.InputDir, err = checkDir(params.InputDir); err != nil {
		return params, err
	}
	if params.OutputDir, err = checkDir(params.OutputDir); err != nil {
		return params, err
	}

	return params, nil
}

// Makes sure dir exists and returns its absolute path.
func checkDir(dir string) (string, error) {
	if _, err := os.Stat(dir); err != nil {
		return "", fmt.Errorf("%w: '%s' does not exist", errMissingDir, dir)
	}
	return filepath.Abs(dir)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
