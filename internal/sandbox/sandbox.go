package sandbox

import (
	"os"
	"path"
	"path/filepath"
	"strings"

	appErr "github.com/xxxsen/fshare/internal/pkg/errors"
)

// Resolver confines user-supplied relative paths to one user's subtree
// under the storage root. Every other component goes through it before
// touching the filesystem.
type Resolver struct {
	root string
}

func NewResolver(root string) (*Resolver, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	return &Resolver{root: filepath.Clean(abs)}, nil
}

func (r *Resolver) Root() string {
	return r.root
}

func (r *Resolver) UserRoot(ownerID string) string {
	return filepath.Join(r.root, ownerID)
}

// Clean normalizes a user path like "", ".", "/a/b", "a//b" into a
// slash-based relative path without a leading slash ("" means the
// sandbox root).
func Clean(p string) string {
	p = strings.TrimSpace(p)
	if p == "" || p == "." || p == "/" {
		return ""
	}
	p = strings.ReplaceAll(p, "\\", "/")
	p = path.Clean("/" + p)
	p = strings.TrimPrefix(p, "/")
	if p == "." {
		return ""
	}
	return p
}

// Resolve maps rel into ownerID's sandbox and returns the absolute path
// plus the cleaned relative form. It fails before any filesystem access:
// parent-directory segments, absolute inputs, NUL bytes and inputs that
// already embed the storage-root string are rejected outright, and the
// joined result must stay a descendant of the owner's sandbox.
func (r *Resolver) Resolve(ownerID, rel string) (string, string, error) {
	if ownerID == "" {
		return "", "", appErr.ErrInvalidPath
	}
	if strings.Contains(rel, "\x00") {
		return "", "", appErr.ErrInvalidPath
	}
	if strings.Contains(rel, r.root) {
		return "", "", appErr.ErrInvalidPath
	}
	trimmed := strings.TrimSpace(rel)
	if strings.HasPrefix(trimmed, "/") || strings.HasPrefix(trimmed, "\\") || filepath.IsAbs(trimmed) {
		return "", "", appErr.ErrInvalidPath
	}
	for _, seg := range strings.Split(strings.ReplaceAll(trimmed, "\\", "/"), "/") {
		if seg == ".." {
			return "", "", appErr.ErrInvalidPath
		}
	}
	cleaned := Clean(rel)
	userRoot := r.UserRoot(ownerID)
	abs := userRoot
	if cleaned != "" {
		abs = filepath.Join(userRoot, filepath.FromSlash(cleaned))
	}
	abs = filepath.Clean(abs)
	if abs != userRoot && !strings.HasPrefix(abs, userRoot+string(filepath.Separator)) {
		return "", "", appErr.ErrForbidden
	}
	return abs, cleaned, nil
}

// Provision resolves rel and creates the directory (with missing parents)
// when it does not exist yet.
func (r *Resolver) Provision(ownerID, rel string) (string, string, error) {
	abs, cleaned, err := r.Resolve(ownerID, rel)
	if err != nil {
		return "", "", err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return "", "", err
	}
	return abs, cleaned, nil
}

// Within reports whether abs is the storage root or a descendant of it.
func (r *Resolver) Within(abs string) bool {
	abs = filepath.Clean(abs)
	return abs == r.root || strings.HasPrefix(abs, r.root+string(filepath.Separator))
}

// Rel returns the slash-form path of abs relative to the storage root,
// used for archive entry names so absolute paths never leak.
func (r *Resolver) Rel(abs string) (string, error) {
	rel, err := filepath.Rel(r.root, filepath.Clean(abs))
	if err != nil {
		return "", err
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", appErr.ErrForbidden
	}
	return filepath.ToSlash(rel), nil
}
