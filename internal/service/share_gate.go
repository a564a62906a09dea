package service

import (
	"github.com/xxxsen/fshare/internal/model"
	appErr "github.com/xxxsen/fshare/internal/pkg/errors"
	"github.com/xxxsen/fshare/internal/pkg/password"
)

// shareGate decides, per share type, whether a request may list or
// download a share's contents. identity is the authenticated user id or
// "" for anonymous callers; plain is the password supplied with the
// request.
type shareGate struct{}

func (shareGate) authorizeList(share *model.Share, identity, plain string) error {
	switch share.ShareType {
	case model.ShareTypeInternal:
		return nil
	case model.ShareTypeWebsite:
		return checkSharePassword(share, plain)
	case model.ShareTypeDirectLink:
		// direct links never expose a listing, only the one bound file
		return appErr.ErrNotFound
	default:
		return appErr.ErrNotFound
	}
}

func (shareGate) authorizeDownload(share *model.Share, identity, plain string) error {
	switch share.ShareType {
	case model.ShareTypeInternal:
		if identity == "" {
			return appErr.ErrUnauthorized
		}
		if !share.IsRecipient(identity) {
			return appErr.ErrForbidden
		}
		return nil
	case model.ShareTypeWebsite:
		return checkSharePassword(share, plain)
	case model.ShareTypeDirectLink:
		return nil
	default:
		return appErr.ErrNotFound
	}
}

func checkSharePassword(share *model.Share, plain string) error {
	if !share.HasPassword() {
		return nil
	}
	if plain == "" {
		return appErr.ErrUnauthorized
	}
	if err := password.Compare(share.PasswordHash, plain); err != nil {
		return appErr.ErrUnauthorized
	}
	return nil
}
