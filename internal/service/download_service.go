package service

import (
	"archive/zip"
	"context"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	appErr "github.com/xxxsen/fshare/internal/pkg/errors"
	"github.com/xxxsen/fshare/internal/pkg/mimeutil"
	"github.com/xxxsen/fshare/internal/sandbox"
)

const copyBufferSize = 32 * 1024

// DownloadInfo describes a servable file for response headers.
type DownloadInfo struct {
	Name        string
	Size        int64
	ContentType string
	IsDirectory bool
}

// DownloadService streams single files and on-the-fly zip archives.
// Confinement and symlink checks run again at serve time; a share record
// is never trusted to still point at servable content.
type DownloadService struct {
	resolver *sandbox.Resolver
	detector mimeutil.Detector
}

func NewDownloadService(resolver *sandbox.Resolver, detector mimeutil.Detector) *DownloadService {
	return &DownloadService{resolver: resolver, detector: detector}
}

// Stat verifies the path is servable: inside the storage root, existing,
// and not a symbolic link.
func (s *DownloadService) Stat(abs string) (*DownloadInfo, error) {
	info, err := s.check(abs)
	if err != nil {
		return nil, err
	}
	out := &DownloadInfo{
		Name:        info.Name(),
		IsDirectory: info.IsDir(),
	}
	if !info.IsDir() {
		out.Size = info.Size()
		out.ContentType = s.detector.Detect(abs)
	}
	return out, nil
}

// StreamFile copies the file to w in fixed-size chunks. Once the copy has
// started, a failure (including the client going away) just aborts the
// transfer.
func (s *DownloadService) StreamFile(ctx context.Context, abs string, w io.Writer) error {
	info, err := s.check(abs)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return appErr.ErrInvalid
	}
	file, err := os.Open(abs)
	if err != nil {
		logutil.GetLogger(ctx).Error("open download failed", zap.String("name", info.Name()), zap.Error(err))
		return err
	}
	defer func() { _ = file.Close() }()
	buf := make([]byte, copyBufferSize)
	if _, err := io.CopyBuffer(w, file, buf); err != nil {
		logutil.GetLogger(ctx).Error("stream download failed", zap.String("name", info.Name()), zap.Error(err))
		return err
	}
	return nil
}

// StreamArchive writes the given paths into a zip archive directly on w,
// entry by entry. Directories are included recursively; symlinks are
// skipped everywhere; entry names are storage-root-relative so absolute
// paths never show up inside the archive.
func (s *DownloadService) StreamArchive(ctx context.Context, paths []string, w io.Writer) error {
	if len(paths) == 0 {
		return appErr.ErrInvalid
	}
	infos := make([]os.FileInfo, 0, len(paths))
	for _, abs := range paths {
		info, err := s.check(abs)
		if err != nil {
			return err
		}
		infos = append(infos, info)
	}
	zw := zip.NewWriter(w)
	buf := make([]byte, copyBufferSize)
	for i, abs := range paths {
		if infos[i].IsDir() {
			if err := s.archiveDir(ctx, zw, abs, buf); err != nil {
				_ = zw.Close()
				return err
			}
			continue
		}
		if err := s.archiveFile(ctx, zw, abs, infos[i], buf); err != nil {
			_ = zw.Close()
			return err
		}
	}
	return zw.Close()
}

func (s *DownloadService) archiveDir(ctx context.Context, zw *zip.Writer, root string, buf []byte) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() || d.Type()&os.ModeSymlink != 0 {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		return s.archiveFile(ctx, zw, p, info, buf)
	})
}

func (s *DownloadService) archiveFile(ctx context.Context, zw *zip.Writer, abs string, info os.FileInfo, buf []byte) error {
	name, err := s.resolver.Rel(abs)
	if err != nil {
		return err
	}
	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}
	header.Name = name
	header.Method = zip.Deflate
	entry, err := zw.CreateHeader(header)
	if err != nil {
		return err
	}
	file, err := os.Open(abs)
	if err != nil {
		logutil.GetLogger(ctx).Error("open archive member failed", zap.String("entry", name), zap.Error(err))
		return err
	}
	defer func() { _ = file.Close() }()
	if _, err := io.CopyBuffer(entry, file, buf); err != nil {
		logutil.GetLogger(ctx).Error("write archive member failed", zap.String("entry", name), zap.Error(err))
		return err
	}
	return nil
}

func (s *DownloadService) check(abs string) (os.FileInfo, error) {
	abs = filepath.Clean(abs)
	if !s.resolver.Within(abs) {
		return nil, appErr.ErrForbidden
	}
	info, err := os.Lstat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, appErr.ErrNotFound
		}
		return nil, err
	}
	if info.Mode()&os.ModeSymlink != 0 {
		return nil, appErr.ErrForbidden
	}
	return info, nil
}
