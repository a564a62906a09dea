package job

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

// UploadSweepJob removes orphaned upload temp files left behind by
// crashed or aborted uploads. Live uploads are safe as long as maxAge
// exceeds any plausible transfer time.
type UploadSweepJob struct {
	root       string
	tempPrefix string
	maxAge     time.Duration
}

func NewUploadSweepJob(root, tempPrefix string, maxAge time.Duration) *UploadSweepJob {
	return &UploadSweepJob{root: root, tempPrefix: tempPrefix, maxAge: maxAge}
}

func (j *UploadSweepJob) Name() string {
	return "upload_sweep"
}

func (j *UploadSweepJob) Run(ctx context.Context) error {
	maxAge := j.maxAge
	if maxAge <= 0 {
		maxAge = 2 * time.Hour
	}
	cutoff := time.Now().Add(-maxAge)
	removed := 0
	err := filepath.WalkDir(j.root, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if os.IsNotExist(walkErr) {
				return nil
			}
			return walkErr
		}
		if d.IsDir() || !strings.HasPrefix(d.Name(), j.tempPrefix) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		if info.ModTime().After(cutoff) {
			return nil
		}
		if err := os.Remove(p); err == nil {
			removed++
		}
		return nil
	})
	if removed > 0 {
		logutil.GetLogger(ctx).Info("swept orphan uploads", zap.Int("removed", removed))
	}
	return err
}
