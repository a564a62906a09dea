package service

import (
	"archive/zip"
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	appErr "github.com/xxxsen/fshare/internal/pkg/errors"
	"github.com/xxxsen/fshare/internal/pkg/mimeutil"
	"github.com/xxxsen/fshare/internal/sandbox"
)

func newTestDownloadService(t *testing.T) (*DownloadService, *sandbox.Resolver) {
	t.Helper()
	resolver, err := sandbox.NewResolver(t.TempDir())
	require.NoError(t, err)
	return NewDownloadService(resolver, mimeutil.NewDetector()), resolver
}

func writeSandboxFile(t *testing.T, resolver *sandbox.Resolver, owner, rel string, data []byte) string {
	t.Helper()
	abs := filepath.Join(resolver.UserRoot(owner), filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(abs), 0o755))
	require.NoError(t, os.WriteFile(abs, data, 0o644))
	return abs
}

func TestDownloadServiceStat(t *testing.T) {
	downloads, resolver := newTestDownloadService(t)
	abs := writeSandboxFile(t, resolver, "user-1", "docs/report.pdf", []byte("%PDF-1.4 test"))

	info, err := downloads.Stat(abs)
	require.NoError(t, err)
	require.Equal(t, "report.pdf", info.Name)
	require.Equal(t, int64(13), info.Size)
	require.False(t, info.IsDirectory)
	require.NotEmpty(t, info.ContentType)
}

func TestDownloadServiceStatRejectsOutsideRoot(t *testing.T) {
	downloads, _ := newTestDownloadService(t)
	outside := filepath.Join(t.TempDir(), "other.txt")
	require.NoError(t, os.WriteFile(outside, []byte("x"), 0o644))

	_, err := downloads.Stat(outside)
	require.ErrorIs(t, err, appErr.ErrForbidden)
}

func TestDownloadServiceStatRejectsSymlink(t *testing.T) {
	downloads, resolver := newTestDownloadService(t)
	target := writeSandboxFile(t, resolver, "user-1", "real.txt", []byte("data"))
	link := filepath.Join(resolver.UserRoot("user-1"), "link.txt")
	require.NoError(t, os.Symlink(target, link))

	_, err := downloads.Stat(link)
	require.ErrorIs(t, err, appErr.ErrForbidden)
}

func TestDownloadServiceStatMissing(t *testing.T) {
	downloads, resolver := newTestDownloadService(t)
	_, err := downloads.Stat(filepath.Join(resolver.Root(), "user-1", "gone.txt"))
	require.ErrorIs(t, err, appErr.ErrNotFound)
}

func TestDownloadServiceStreamFile(t *testing.T) {
	downloads, resolver := newTestDownloadService(t)
	payload := bytes.Repeat([]byte("abc"), 40000)
	abs := writeSandboxFile(t, resolver, "user-1", "big.bin", payload)

	var out bytes.Buffer
	require.NoError(t, downloads.StreamFile(context.Background(), abs, &out))
	require.Equal(t, payload, out.Bytes())
}

func TestDownloadServiceStreamArchive(t *testing.T) {
	downloads, resolver := newTestDownloadService(t)
	first := writeSandboxFile(t, resolver, "user-1", "docs/report.pdf", []byte("report-data"))
	second := writeSandboxFile(t, resolver, "user-1", "notes.txt", []byte("notes-data"))

	var out bytes.Buffer
	require.NoError(t, downloads.StreamArchive(context.Background(), []string{first, second}, &out))

	reader, err := zip.NewReader(bytes.NewReader(out.Bytes()), int64(out.Len()))
	require.NoError(t, err)
	require.Len(t, reader.File, 2)
	names := []string{reader.File[0].Name, reader.File[1].Name}
	require.ElementsMatch(t, []string{"user-1/docs/report.pdf", "user-1/notes.txt"}, names)

	content, err := reader.Open("user-1/docs/report.pdf")
	require.NoError(t, err)
	var buf bytes.Buffer
	_, err = buf.ReadFrom(content)
	require.NoError(t, err)
	require.NoError(t, content.Close())
	require.Equal(t, "report-data", buf.String())
}

func TestDownloadServiceStreamArchiveRecursesDirectories(t *testing.T) {
	downloads, resolver := newTestDownloadService(t)
	writeSandboxFile(t, resolver, "user-1", "docs/a.txt", []byte("a"))
	writeSandboxFile(t, resolver, "user-1", "docs/sub/b.txt", []byte("b"))
	link := filepath.Join(resolver.UserRoot("user-1"), "docs", "link.txt")
	require.NoError(t, os.Symlink(filepath.Join(resolver.UserRoot("user-1"), "docs", "a.txt"), link))

	var out bytes.Buffer
	dir := filepath.Join(resolver.UserRoot("user-1"), "docs")
	require.NoError(t, downloads.StreamArchive(context.Background(), []string{dir}, &out))

	reader, err := zip.NewReader(bytes.NewReader(out.Bytes()), int64(out.Len()))
	require.NoError(t, err)
	names := make([]string, 0, len(reader.File))
	for _, f := range reader.File {
		names = append(names, f.Name)
	}
	require.ElementsMatch(t, []string{"user-1/docs/a.txt", "user-1/docs/sub/b.txt"}, names)
}

func TestDownloadServiceStreamArchiveFailsBeforeWriting(t *testing.T) {
	downloads, resolver := newTestDownloadService(t)
	existing := writeSandboxFile(t, resolver, "user-1", "ok.txt", []byte("ok"))
	missing := filepath.Join(resolver.UserRoot("user-1"), "gone.txt")

	var out bytes.Buffer
	err := downloads.StreamArchive(context.Background(), []string{existing, missing}, &out)
	require.ErrorIs(t, err, appErr.ErrNotFound)
	require.Zero(t, out.Len())
}
