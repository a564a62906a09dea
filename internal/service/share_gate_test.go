package service

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/fshare/internal/model"
	appErr "github.com/xxxsen/fshare/internal/pkg/errors"
	"github.com/xxxsen/fshare/internal/pkg/password"
)

func TestShareGateInternal(t *testing.T) {
	gate := shareGate{}
	share := &model.Share{ShareType: model.ShareTypeInternal, Recipients: []string{"user-b"}}

	require.NoError(t, gate.authorizeList(share, "", ""))
	require.NoError(t, gate.authorizeDownload(share, "user-b", ""))
	require.ErrorIs(t, gate.authorizeDownload(share, "user-c", ""), appErr.ErrForbidden)
	require.ErrorIs(t, gate.authorizeDownload(share, "", ""), appErr.ErrUnauthorized)
}

func TestShareGateWebsite(t *testing.T) {
	gate := shareGate{}
	hash, err := password.Hash("hunter2")
	require.NoError(t, err)
	share := &model.Share{ShareType: model.ShareTypeWebsite, PasswordHash: hash}

	require.ErrorIs(t, gate.authorizeList(share, "", "wrong"), appErr.ErrUnauthorized)
	require.ErrorIs(t, gate.authorizeList(share, "", ""), appErr.ErrUnauthorized)
	require.NoError(t, gate.authorizeList(share, "", "hunter2"))
	require.NoError(t, gate.authorizeDownload(share, "", "hunter2"))
	require.ErrorIs(t, gate.authorizeDownload(share, "", "wrong"), appErr.ErrUnauthorized)
}

func TestShareGateWebsiteWithoutPassword(t *testing.T) {
	gate := shareGate{}
	share := &model.Share{ShareType: model.ShareTypeWebsite}

	require.NoError(t, gate.authorizeList(share, "", ""))
	require.NoError(t, gate.authorizeDownload(share, "", ""))
}

func TestShareGateDirectLink(t *testing.T) {
	gate := shareGate{}
	share := &model.Share{ShareType: model.ShareTypeDirectLink, Files: []string{"docs/report.pdf"}}

	require.ErrorIs(t, gate.authorizeList(share, "", ""), appErr.ErrNotFound)
	require.NoError(t, gate.authorizeDownload(share, "", ""))
}

func TestSharedFileIDDisambiguatesBasenames(t *testing.T) {
	first := sharedFileID("share-1", "a/report.pdf")
	second := sharedFileID("share-1", "b/report.pdf")
	require.NotEqual(t, first, second)
	require.Equal(t, first, sharedFileID("share-1", "a/report.pdf"))
	require.Len(t, first, 16)
}
