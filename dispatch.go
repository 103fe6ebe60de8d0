package main

import (
	"context"
	"path/filepath"
	"sort"
	"sync"

	log "github.com/sirupsen/logrus"
)

// Date layout shared by bucket keys and clip names.
const dateLayout = "2006-01-02"

// Groups every camera's stills and encodes all complete days. Cameras are
// scanned concurrently and their clips are handed to the worker pool. The
// returned results hold one entry per clip attempted plus one per camera
// whose directory could not be read.
func (c *compressor) compress(ctx context.Context) []clipResult {
	const bufferSize = 100

	// Evaluated once so a run crossing midnight excludes the same day everywhere.
	today := c.now().Format(dateLayout)

	jobsChan := make(chan clipJob, bufferSize)
	resultsChan := make(chan clipResult, bufferSize)

	var workers sync.WaitGroup
	c.startWorkers(ctx, &workers, jobsChan, resultsChan)

	var cameras sync.WaitGroup
	for _, camera := range c.params.Cameras {
		cameras.Add(1)
		go func(camera string) {
			defer cameras.Done()
			if err := c.dispatchCamera(camera, today, jobsChan); err != nil {
				resultsChan <- clipResult{Camera: camera, Err: err}
			}
		}(camera)
	}

	go func() {
		cameras.Wait()
		close(jobsChan)
		workers.Wait()
		close(resultsChan)
	}()

	var results []clipResult
	for result := range resultsChan {
		results = append(results, result)
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Camera != results[j].Camera {
			return results[i].Camera < results[j].Camera
		}
		return results[i].Date < results[j].Date
	})

	return results
}

// Buckets one camera's stills and queues a clip for every day except today.
func (c *compressor) dispatchCamera(camera string, today string, jobsChan chan<- clipJob) error {
	inPath := filepath.Join(c.params.InputDir, camera)
	outPath := filepath.Join(c.params.OutputDir, camera)

	buckets, err := groupFilesByDate(inPath)
	if err != nil {
		return err
	}

	for date, files := range buckets {
		if date == today {
			log.WithFields(log.Fields{"camera": camera, "date": date, "files": len(files)}).Debug("Skipping today's images")
			continue
		}
		jobsChan <- clipJob{Camera: camera, Date: date, OutputDir: outPath, Files: files}
	}

	return nil
}

// Starts the workers that build clips from jobsChan. With Workers set to
// zero or less every job gets its own goroutine.
func (c *compressor) startWorkers(ctx context.Context, wg *sync.WaitGroup, jobsChan <-chan clipJob, resultsChan chan<- clipResult) {
	process := func(job clipJob) {
		err := c.buildClip(ctx, job)
		if err == nil && !c.params.DryRun {
			log.WithFields(log.Fields{"camera": job.Camera, "date": job.Date}).Info("Clip done")
		}
		resultsChan <- clipResult{
			Camera: job.Camera,
			Date:   job.Date,
			Files:  len(job.Files),
			Output: filepath.Join(job.OutputDir, job.Date+".avi"),
			Err:    err,
		}
	}

	if c.params.Workers <= 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobsChan {
				wg.Add(1)
				go func(job clipJob) {
					defer wg.Done()
					process(job)
				}(job)
			}
		}()
		return
	}

	for i := 0; i < c.params.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobsChan {
				process(job)
			}
		}()
	}
}
