package main

import (
	"fmt"
	"os"
	"path/filepath"
)

// Lists the immediate entries of dir and buckets every camera still by its
// capture date. Entries that don't look like camera stills are skipped.
func groupFilesByDate(dir string) (map[string][]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errListCameraDir, err)
	}

	buckets := make(map[string][]string)
	for _, entry := range entries {
		date, ok := parseCaptureDate(entry.Name())
		if !ok {
			continue
		}
		buckets[date] = append(buckets[date], filepath.Join(dir, entry.Name()))
	}

	return buckets, nil
}
