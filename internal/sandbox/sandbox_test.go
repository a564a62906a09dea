package sandbox

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	appErr "github.com/xxxsen/fshare/internal/pkg/errors"
)

func newTestResolver(t *testing.T) *Resolver {
	t.Helper()
	root := t.TempDir()
	resolver, err := NewResolver(root)
	require.NoError(t, err)
	return resolver
}

func TestResolveRejectsEscapes(t *testing.T) {
	resolver := newTestResolver(t)

	tests := []struct {
		name string
		rel  string
	}{
		{name: "plain parent", rel: ".."},
		{name: "parent prefix", rel: "../other"},
		{name: "nested parent", rel: "docs/../../other"},
		{name: "deep parent chain", rel: "a/b/../../../../etc/passwd"},
		{name: "windows parent", rel: `..\other`},
		{name: "absolute", rel: "/etc/passwd"},
		{name: "backslash absolute", rel: `\etc\passwd`},
		{name: "nul byte", rel: "a\x00b"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := resolver.Resolve("user-1", tt.rel)
			require.ErrorIs(t, err, appErr.ErrInvalidPath)
		})
	}
}

func TestResolveRejectsEmbeddedRoot(t *testing.T) {
	resolver := newTestResolver(t)
	_, _, err := resolver.Resolve("user-1", "x"+resolver.Root()+"/y")
	require.ErrorIs(t, err, appErr.ErrInvalidPath)
}

func TestResolveNeverEscapesSandbox(t *testing.T) {
	resolver := newTestResolver(t)
	inputs := []string{"", ".", "a", "a/b", "a//b", "a/./b", "docs/report.pdf"}
	userRoot := resolver.UserRoot("user-1")
	for _, rel := range inputs {
		abs, _, err := resolver.Resolve("user-1", rel)
		require.NoError(t, err, rel)
		require.True(t, abs == userRoot || strings.HasPrefix(abs, userRoot+string(filepath.Separator)), rel)
	}
}

func TestResolveCleansInput(t *testing.T) {
	resolver := newTestResolver(t)
	abs, cleaned, err := resolver.Resolve("user-1", "a//b/./c")
	require.NoError(t, err)
	require.Equal(t, "a/b/c", cleaned)
	require.Equal(t, filepath.Join(resolver.UserRoot("user-1"), "a", "b", "c"), abs)
}

func TestResolveHasNoSideEffects(t *testing.T) {
	resolver := newTestResolver(t)
	abs, _, err := resolver.Resolve("user-1", "newdir/sub")
	require.NoError(t, err)
	_, statErr := os.Stat(abs)
	require.True(t, os.IsNotExist(statErr))
}

func TestProvisionCreatesDirectories(t *testing.T) {
	resolver := newTestResolver(t)
	abs, _, err := resolver.Provision("user-1", "docs/2024")
	require.NoError(t, err)
	info, err := os.Stat(abs)
	require.NoError(t, err)
	require.True(t, info.IsDir())
}

func TestProvisionFailsFastOnBadInput(t *testing.T) {
	resolver := newTestResolver(t)
	_, _, err := resolver.Provision("user-1", "../escape")
	require.ErrorIs(t, err, appErr.ErrInvalidPath)
	entries, readErr := os.ReadDir(resolver.Root())
	require.NoError(t, readErr)
	require.Empty(t, entries)
}

func TestWithinAndRel(t *testing.T) {
	resolver := newTestResolver(t)
	abs, _, err := resolver.Provision("user-1", "docs")
	require.NoError(t, err)
	require.True(t, resolver.Within(abs))
	require.False(t, resolver.Within(filepath.Dir(resolver.Root())))

	rel, err := resolver.Rel(abs)
	require.NoError(t, err)
	require.Equal(t, "user-1/docs", rel)

	_, err = resolver.Rel(filepath.Dir(resolver.Root()))
	require.ErrorIs(t, err, appErr.ErrForbidden)
}
