package main

import (
	"bufio"
	"context"
	"fmt"
	"image"
	"os"

	log "github.com/sirupsen/logrus"
	"gocv.io/x/gocv"
)

// MPEG-4 part 2 fourcc understood by OpenCV's ffmpeg backend.
const opencvCodec = "FMP4"

// Encodes in-process through OpenCV instead of an external binary.
type opencvEncoder struct{}

// Reads every still listed in the manifest, scales it to the job's frame
// size and appends it to an AVI clip. Stills that can't be decoded fail the
// job, and so does a writer that can't be opened or closed: the caller removes
// the stills as soon as this returns nil.
func (e *opencvEncoder) Encode(ctx context.Context, job encodeJob) (err error) {
	frames, err := readManifest(job.ManifestPath)
	if err != nil {
		return err
	}
	if len(frames) == 0 {
		return fmt.Errorf("%w: %s", errEmptyManifest, job.ManifestPath)
	}

	writer, err := gocv.VideoWriterFile(job.OutputPath, opencvCodec, float64(job.FPS), job.Width, job.Height, true)
	if err != nil {
		return err
	}

	// VideoWriterFile doesn't report a writer that failed to open, and Write
	// on such a writer silently drops frames.
	if !writer.IsOpened() {
		if closeErr := writer.Close(); closeErr != nil {
			log.WithFields(log.Fields{"error": closeErr, "output": job.OutputPath}).Error("Error closing video writer")
		}
		return fmt.Errorf("%w: %s", errOpenWriter, job.OutputPath)
	}
	defer func() {
		if closeErr := writer.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	size := image.Point{X: job.Width, Y: job.Height}
	for _, frame := range frames {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := e.writeFrame(writer, frame, size); err != nil {
			return err
		}
	}

	return nil
}

// Decodes one still, resizes it when needed and writes it to the clip.
func (e *opencvEncoder) writeFrame(writer *gocv.VideoWriter, path string, size image.Point) error {
	img := gocv.IMRead(path, gocv.IMReadColor)
	defer func() {
		if err := img.Close(); err != nil {
			log.WithFields(log.Fields{"error": err, "path": path}).Error("Error closing frame")
		}
	}()

	if img.Empty() {
		return fmt.Errorf("%w: %s", errReadFrame, path)
	}

	if img.Cols() == size.X && img.Rows() == size.Y {
		return writer.Write(img)
	}

	resized := gocv.NewMat()
	defer func() {
		if err := resized.Close(); err != nil {
			log.WithFields(log.Fields{"error": err, "path": path}).Error("Error closing resized frame")
		}
	}()
	gocv.Resize(img, &resized, size, 0, 0, gocv.InterpolationLinear)

	return writer.Write(resized)
}

// Returns the non-empty lines of a manifest in file order. Lines are kept
// verbatim since paths may begin or end with spaces.
func readManifest(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if line := scanner.Text(); line != "" {
			lines = append(lines, line)
		}
	}

	return lines, scanner.Err()
}
