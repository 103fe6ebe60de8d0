package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	log "github.com/sirupsen/logrus"
)

// Prefix of the temporary manifest handed to the encoder.
const manifestPattern = "surveillance-manifest_*.txt"

// Encodes one camera's stills for one day into {OutputDir}/{Date}.avi and
// removes the stills once the clip is written. When the encoder fails the
// stills are left in place. The manifest is removed in every case.
func (c *compressor) buildClip(ctx context.Context, job clipJob) error {
	outputPath := filepath.Join(job.OutputDir, job.Date+".avi")

	// Return early if DryRun is true.
	if c.params.DryRun {
		log.WithFields(log.Fields{
			"type":   "DRY RUN",
			"camera": job.Camera,
			"date":   job.Date,
			"files":  len(job.Files),
			"output": outputPath,
		}).Info("Skip encoding clip")
		return nil
	}

	manifest, err := writeManifest(job.Files)
	if err != nil {
		return fmt.Errorf("%w: %w", errWriteManifest, err)
	}
	defer func() {
		if err := os.Remove(manifest); err != nil && !os.IsNotExist(err) {
			log.WithFields(log.Fields{"error": err, "manifest": manifest}).Error("Error removing manifest")
		}
	}()

	// Create the camera's output directory.
	if err := os.MkdirAll(job.OutputDir, os.ModePerm); err != nil {
		return fmt.Errorf("%w: %w", errCreateOutput, err)
	}

	log.WithFields(log.Fields{
		"camera": job.Camera,
		"date":   job.Date,
		"files":  len(job.Files),
		"output": outputPath,
	}).Info("Encoding clip")

	err = c.encoder.Encode(ctx, encodeJob{
		ManifestPath: manifest,
		Width:        clipWidth,
		Height:       clipHeight,
		FPS:          c.params.FPS,
		OutputPath:   outputPath,
	})
	if err != nil {
		return fmt.Errorf("%w: %w", errEncodeFailed, err)
	}

	return removeFiles(job.Files)
}

// Writes paths, sorted lexically, one per line into a new temporary file and
// returns its name.
func writeManifest(paths []string) (string, error) {
	sorted := make([]string, len(paths))
	copy(sorted, paths)
	sort.Strings(sorted)

	f, err := os.CreateTemp("", manifestPattern)
	if err != nil {
		return "", err
	}

	_, err = f.WriteString(strings.Join(sorted, "\n") + "\n")
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(f.Name())
		return "", err
	}

	log.WithFields(log.Fields{"manifest": f.Name(), "lines": len(sorted)}).Debug("Manifest written")

	return f.Name(), nil
}

// Removes every file in paths, attempting all of them even after a failure.
func removeFiles(paths []string) error {
	var errs []error
	for _, path := range paths {
		if err := os.Remove(path); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", errRemoveSource, errors.Join(errs...))
	}

	return nil
}
