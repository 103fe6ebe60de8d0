package main

import (
	"fmt"
	"regexp"
)

// Matches camera stills like image24-06-01_10-00-00-01.jpg.
// Groups: year, month, day, hour, minute, second, frame.
var imageFilenameRegex = regexp.MustCompile(`^image(\d{2})-(\d{2})-(\d{2})_(\d{2})-(\d{2})-(\d{2})-(\d{2})\.jpg$`)

// Returns the capture date encoded in a camera still's filename as YYYY-MM-DD.
// The second return value is false for any name that does not follow the
// camera's naming pattern.
func parseCaptureDate(name string) (string, bool) {
	m := imageFilenameRegex.FindStringSubmatch(name)
	if m == nil {
		return "", false
	}

	return fmt.Sprintf("20%s-%s-%s", m[1], m[2], m[3]), true
}
