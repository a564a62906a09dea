package service

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/fshare/internal/model"
	appErr "github.com/xxxsen/fshare/internal/pkg/errors"
	"github.com/xxxsen/fshare/internal/pkg/password"
	"github.com/xxxsen/fshare/internal/pkg/timeutil"
	"github.com/xxxsen/fshare/internal/repo"
	"github.com/xxxsen/fshare/internal/sandbox"
)

const shareCacheSize = 1024

// ShareService owns the share-record lifecycle: creation with per-type
// validation, lookup by share URI, and translation of authorized requests
// into servable sandbox paths. Records are immutable once created, so
// lookups go through an LRU cache.
type ShareService struct {
	shares   *repo.ShareRepo
	users    *repo.UserRepo
	resolver *sandbox.Resolver
	gate     shareGate
	cache    *lru.Cache[string, *model.Share]
}

func NewShareService(shares *repo.ShareRepo, users *repo.UserRepo, resolver *sandbox.Resolver) *ShareService {
	cache, _ := lru.New[string, *model.Share](shareCacheSize)
	return &ShareService{shares: shares, users: users, resolver: resolver, cache: cache}
}

type ShareCreateInput struct {
	ShareType  string
	Paths      []string
	Password   string
	Recipients []string
}

// Create validates the request against the per-type invariants and
// persists a single record. Nothing is written when any check fails.
func (s *ShareService) Create(ctx context.Context, ownerID string, input ShareCreateInput) (*model.Share, error) {
	shareType, err := parseShareType(input.ShareType)
	if err != nil {
		return nil, err
	}
	files, err := s.resolvePaths(ownerID, input.Paths)
	if err != nil {
		return nil, err
	}
	if input.Password != "" && shareType != model.ShareTypeWebsite {
		return nil, appErr.ErrInvalid
	}
	if len(input.Recipients) > 0 && shareType != model.ShareTypeInternal {
		return nil, appErr.ErrInvalid
	}
	share := &model.Share{
		ID:        newID(),
		OwnerID:   ownerID,
		ShareType: shareType,
		Files:     files,
	}
	switch shareType {
	case model.ShareTypeInternal:
		if len(input.Recipients) == 0 {
			return nil, appErr.ErrInvalid
		}
		recipients, err := s.resolveRecipients(ctx, input.Recipients)
		if err != nil {
			return nil, err
		}
		share.Recipients = recipients
	case model.ShareTypeDirectLink:
		if len(files) != 1 {
			return nil, appErr.ErrInvalid
		}
	case model.ShareTypeWebsite:
		if input.Password != "" {
			hash, err := password.Hash(input.Password)
			if err != nil {
				return nil, err
			}
			share.PasswordHash = hash
		}
	}
	now := timeutil.NowUnix()
	share.Ctime = now
	share.Mtime = now
	if err := s.shares.Create(ctx, share); err != nil {
		return nil, err
	}
	logutil.GetLogger(ctx).Info("share created",
		zap.String("share_id", share.ID),
		zap.String("owner", ownerID),
		zap.String("type", share.ShareType),
		zap.Int("files", len(share.Files)),
	)
	return share, nil
}

// Find returns the share addressed by its URI (the generated id).
func (s *ShareService) Find(ctx context.Context, shareURI string) (*model.Share, error) {
	if shareURI == "" {
		return nil, appErr.ErrNotFound
	}
	if share, ok := s.cache.Get(shareURI); ok {
		return share, nil
	}
	share, err := s.shares.GetByID(ctx, shareURI)
	if err != nil {
		return nil, err
	}
	s.cache.Add(shareURI, share)
	return share, nil
}

func (s *ShareService) ListOwn(ctx context.Context, ownerID string) ([]model.Share, error) {
	return s.shares.ListByOwner(ctx, ownerID)
}

// ListEntries returns the file listing of a share after the gate admits
// the request. A shared file deleted since creation surfaces as a
// missing-entry error here, not at share time.
func (s *ShareService) ListEntries(ctx context.Context, shareURI, identity, plain string) ([]model.FileEntry, error) {
	share, err := s.Find(ctx, shareURI)
	if err != nil {
		return nil, err
	}
	if err := s.gate.authorizeList(share, identity, plain); err != nil {
		return nil, err
	}
	entries := make([]model.FileEntry, 0, len(share.Files))
	for _, rel := range share.Files {
		abs := s.memberAbs(share, rel)
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
		entry := entryFromInfo(info)
		entry.ID = sharedFileID(share.ID, rel)
		entries = append(entries, entry)
	}
	return entries, nil
}

// ResolveDownload authorizes the request and maps the requested file ids
// to absolute paths. No ids means every file in the share.
func (s *ShareService) ResolveDownload(ctx context.Context, shareURI, identity, plain string, fileIDs []string) ([]string, error) {
	share, err := s.Find(ctx, shareURI)
	if err != nil {
		return nil, err
	}
	if err := s.gate.authorizeDownload(share, identity, plain); err != nil {
		return nil, err
	}
	if len(fileIDs) == 0 {
		paths := make([]string, 0, len(share.Files))
		for _, rel := range share.Files {
			paths = append(paths, s.memberAbs(share, rel))
		}
		return paths, nil
	}
	byID := make(map[string]string, len(share.Files))
	for _, rel := range share.Files {
		byID[sharedFileID(share.ID, rel)] = rel
	}
	paths := make([]string, 0, len(fileIDs))
	seen := make(map[string]struct{}, len(fileIDs))
	for _, id := range fileIDs {
		rel, ok := byID[id]
		if !ok {
			return nil, appErr.ErrNotFound
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		paths = append(paths, s.memberAbs(share, rel))
	}
	return paths, nil
}

// DirectFile returns the single file bound to a direct-link share. Any
// other share type is invisible on the direct-link path.
func (s *ShareService) DirectFile(ctx context.Context, shareURI string) (string, error) {
	share, err := s.Find(ctx, shareURI)
	if err != nil {
		return "", err
	}
	if share.ShareType != model.ShareTypeDirectLink || len(share.Files) != 1 {
		return "", appErr.ErrNotFound
	}
	return s.memberAbs(share, share.Files[0]), nil
}

func (s *ShareService) memberAbs(share *model.Share, rel string) string {
	return filepath.Join(s.resolver.UserRoot(share.OwnerID), filepath.FromSlash(rel))
}

func (s *ShareService) resolvePaths(ownerID string, paths []string) ([]string, error) {
	if len(paths) == 0 {
		return nil, appErr.ErrInvalid
	}
	files := make([]string, 0, len(paths))
	seen := make(map[string]struct{}, len(paths))
	for _, raw := range paths {
		abs, cleaned, err := s.resolver.Resolve(ownerID, raw)
		if err != nil {
			return nil, err
		}
		if cleaned == "" {
			return nil, appErr.ErrInvalid
		}
		if _, dup := seen[cleaned]; dup {
			continue
		}
		seen[cleaned] = struct{}{}
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
		files = append(files, cleaned)
	}
	return files, nil
}

func (s *ShareService) resolveRecipients(ctx context.Context, usernames []string) ([]string, error) {
	unique := make([]string, 0, len(usernames))
	seen := make(map[string]struct{}, len(usernames))
	for _, name := range usernames {
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, appErr.ErrInvalid
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		unique = append(unique, name)
	}
	users, err := s.users.ListByUsernames(ctx, unique)
	if err != nil {
		return nil, err
	}
	if len(users) != len(unique) {
		return nil, appErr.ErrInvalid
	}
	ids := make([]string, 0, len(users))
	for _, user := range users {
		ids = append(ids, user.ID)
	}
	return ids, nil
}

func parseShareType(raw string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case model.ShareTypeInternal:
		return model.ShareTypeInternal, nil
	case model.ShareTypeWebsite:
		return model.ShareTypeWebsite, nil
	case model.ShareTypeDirectLink:
		return model.ShareTypeDirectLink, nil
	default:
		return "", appErr.ErrInvalid
	}
}
