package main

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

// Records every job and writes a placeholder clip unless told to fail.
type fakeEncoder struct {
	mu        sync.Mutex
	jobs      []encodeJob
	manifests map[string][]string // Manifest lines keyed by output path.
	fail      map[string]error    // Errors keyed by clip filename.
}

func newFakeEncoder() *fakeEncoder {
	return &fakeEncoder{
		manifests: make(map[string][]string),
		fail:      make(map[string]error),
	}
}

func (f *fakeEncoder) Encode(ctx context.Context, job encodeJob) error {
	lines, err := readManifest(job.ManifestPath)
	if err != nil {
		return err
	}

	f.mu.Lock()
	f.jobs = append(f.jobs, job)
	f.manifests[job.OutputPath] = lines
	failErr := f.fail[filepath.Base(job.OutputPath)]
	f.mu.Unlock()

	if failErr != nil {
		return failErr
	}
	return os.WriteFile(job.OutputPath, []byte("clip"), 0o644)
}

// Creates empty files with the given names in dir.
func touch(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Returns a clock fixed at noon local time on the given date.
func fixedClock(t *testing.T, date string) func() time.Time {
	t.Helper()
	day, err := time.ParseInLocation(dateLayout, date, time.Local)
	if err != nil {
		t.Fatalf("parse %s: %v", date, err)
	}
	noon := day.Add(12 * time.Hour)
	return func() time.Time { return noon }
}

// Lists manifests left behind in the temp directory.
func leftoverManifests(t *testing.T) []string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(os.TempDir(), manifestPattern))
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	return matches
}
