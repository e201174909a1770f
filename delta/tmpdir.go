package delta

import (
	"github.com/shirou/gopsutil/v3/disk"

	"github.com/teranos/deltaconsumer/errors"
)

// MinTmpFree is the free space below which the temp directory is reported
// as low. Delta files are usually a few MB.
const MinTmpFree = 64 << 20

// TmpUsage is the disk usage of the filesystem holding the temp directory.
type TmpUsage struct {
	Path  string
	Free  uint64
	Total uint64
}

// Low reports whether free space is below MinTmpFree.
func (u TmpUsage) Low() bool {
	return u.Free < MinTmpFree
}

// TmpDirUsage reports free space where downloaded delta files are kept.
func TmpDirUsage(dir string) (TmpUsage, error) {
	stat, err := disk.Usage(dir)
	if err != nil {
		return TmpUsage{}, errors.WithHint(errors.Wrapf(err, "failed to stat temp dir %s", dir),
			"check ingest.tmp_dir")
	}
	return TmpUsage{Path: stat.Path, Free: stat.Free, Total: stat.Total}, nil
}
