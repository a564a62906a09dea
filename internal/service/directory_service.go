package service

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/fshare/internal/model"
	appErr "github.com/xxxsen/fshare/internal/pkg/errors"
	"github.com/xxxsen/fshare/internal/sandbox"
)

// UploadTempPrefix marks in-flight uploads; the sweep job prunes stale ones.
const UploadTempPrefix = ".upload-"

// DirectoryService performs list/create/save/delete operations inside one
// user's sandbox. All paths go through the resolver first.
type DirectoryService struct {
	resolver *sandbox.Resolver
}

func NewDirectoryService(resolver *sandbox.Resolver) *DirectoryService {
	return &DirectoryService{resolver: resolver}
}

func (s *DirectoryService) List(ctx context.Context, ownerID, rel string) ([]model.FileEntry, error) {
	abs, _, err := s.resolver.Provision(ownerID, rel)
	if err != nil {
		return nil, err
	}
	children, err := os.ReadDir(abs)
	if err != nil {
		logutil.GetLogger(ctx).Error("list directory failed", zap.String("owner", ownerID), zap.Error(err))
		return nil, err
	}
	entries := make([]model.FileEntry, 0, len(children))
	for _, child := range children {
		if child.Type()&os.ModeSymlink != 0 {
			continue
		}
		if strings.HasPrefix(child.Name(), UploadTempPrefix) {
			continue
		}
		info, err := child.Info()
		if err != nil {
			continue
		}
		entries = append(entries, entryFromInfo(info))
	}
	return entries, nil
}

func (s *DirectoryService) Mkdir(ctx context.Context, ownerID, rel string) (*model.FileEntry, error) {
	abs, _, err := s.resolver.Provision(ownerID, rel)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, err
	}
	entry := entryFromInfo(info)
	return &entry, nil
}

// Save writes the uploaded stream into the target directory under the
// upload's claimed filename, overwriting an existing file of the same
// name. The write goes through a temp file in the same directory so a
// failed upload never leaves a half-written target behind.
func (s *DirectoryService) Save(ctx context.Context, ownerID, rel, filename string, src io.Reader) (*model.FileEntry, error) {
	name, err := storedFilename(filename)
	if err != nil {
		return nil, err
	}
	dir, _, err := s.resolver.Provision(ownerID, rel)
	if err != nil {
		return nil, err
	}
	tmp, err := os.CreateTemp(dir, UploadTempPrefix+"*")
	if err != nil {
		logutil.GetLogger(ctx).Error("create upload temp failed", zap.String("owner", ownerID), zap.Error(err))
		return nil, err
	}
	tmpName := tmp.Name()
	if _, err := io.Copy(tmp, src); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		logutil.GetLogger(ctx).Error("write upload failed",
			zap.String("owner", ownerID),
			zap.String("filename", name),
			zap.Error(err),
		)
		return nil, err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return nil, err
	}
	target := filepath.Join(dir, name)
	if err := os.Rename(tmpName, target); err != nil {
		_ = os.Remove(tmpName)
		logutil.GetLogger(ctx).Error("finalize upload failed", zap.String("target", name), zap.Error(err))
		return nil, err
	}
	info, err := os.Stat(target)
	if err != nil {
		return nil, err
	}
	entry := entryFromInfo(info)
	return &entry, nil
}

// Delete removes the path recursively and returns a snapshot taken before
// removal. A missing path is a not-found error, not a no-op.
func (s *DirectoryService) Delete(ctx context.Context, ownerID, rel string) (*model.FileEntry, error) {
	abs, _, err := s.resolver.Resolve(ownerID, rel)
	if err != nil {
		return nil, err
	}
	info, err := os.Lstat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, appErr.ErrNotFound
		}
		return nil, err
	}
	entry := entryFromInfo(info)
	if err := os.RemoveAll(abs); err != nil {
		logutil.GetLogger(ctx).Error("delete failed", zap.String("owner", ownerID), zap.Error(err))
		return nil, err
	}
	return &entry, nil
}

func storedFilename(claimed string) (string, error) {
	name := strings.TrimSpace(claimed)
	if name == "" || name == "." || name == ".." {
		return "", appErr.ErrInvalid
	}
	if strings.ContainsAny(name, "/\\") || strings.Contains(name, "\x00") {
		return "", appErr.ErrInvalid
	}
	if filepath.Base(name) != name {
		return "", appErr.ErrInvalid
	}
	return name, nil
}

func entryFromInfo(info os.FileInfo) model.FileEntry {
	entry := model.FileEntry{
		Filename:    info.Name(),
		IsDirectory: info.IsDir(),
	}
	if !info.IsDir() {
		entry.Extension = strings.TrimPrefix(filepath.Ext(info.Name()), ".")
		entry.Size = info.Size()
	}
	return entry
}
