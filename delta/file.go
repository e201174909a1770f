// Package delta is the client for the remote sync endpoint that publishes
// delta files: it lists the files produced since a watermark and downloads
// them to a transient local copy.
package delta

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/teranos/deltaconsumer/errors"
)

// IDPlaceholder is substituted with the file id in the download path template.
const IDPlaceholder = ":id"

// File describes one delta file in the remote catalog.
type File struct {
	ID      string
	Created time.Time
	Name    string
}

// DownloadURL returns the download location of f given the sync base URL
// and a path template such as "/files/:id/download".
func (f File) DownloadURL(baseURL, pathTemplate string) string {
	return strings.TrimSuffix(baseURL, "/") + strings.ReplaceAll(pathTemplate, IDPlaceholder, f.ID)
}

// TempPath returns where the transient copy of f lives inside dir. The id
// must have passed ValidateID.
func (f File) TempPath(dir string) string {
	return filepath.Join(dir, f.ID+".json")
}

// ValidateID rejects ids that cannot name a file of their own inside the
// temp directory: empty, "." or "..", or containing a path separator.
func (f File) ValidateID() error {
	switch {
	case f.ID == "":
		return errors.New("empty delta file id")
	case f.ID == "." || f.ID == "..":
		return errors.Newf("invalid delta file id %q", f.ID)
	case strings.ContainsAny(f.ID, `/\`) || strings.ContainsRune(f.ID, 0):
		return errors.Newf("delta file id %q contains a path separator", f.ID)
	}
	return nil
}

func (f File) String() string {
	if f.Name == "" {
		return f.ID
	}
	return f.Name + " (" + f.ID + ")"
}
