package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/xxxsen/fshare/internal/pkg/errcode"
	"github.com/xxxsen/fshare/internal/pkg/response"
	"github.com/xxxsen/fshare/internal/service"
)

type ShareHandler struct {
	shares    *service.ShareService
	downloads *service.DownloadService
}

func NewShareHandler(shares *service.ShareService, downloads *service.DownloadService) *ShareHandler {
	return &ShareHandler{shares: shares, downloads: downloads}
}

type createShareRequest struct {
	ShareType  string   `json:"share_type"`
	Paths      []string `json:"paths"`
	Password   string   `json:"password"`
	Recipients []string `json:"recipients"`
}

func (h *ShareHandler) Create(c *gin.Context) {
	var req createShareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	share, err := h.shares.Create(c.Request.Context(), getUserID(c), service.ShareCreateInput{
		ShareType:  req.ShareType,
		Paths:      req.Paths,
		Password:   req.Password,
		Recipients: req.Recipients,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"share_uri": share.ID, "share": share})
}

func (h *ShareHandler) ListMine(c *gin.Context) {
	items, err := h.shares.ListOwn(c.Request.Context(), getUserID(c))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"items": items})
}

// Get lists a share's files. Direct-link shares always answer not-found
// here; website shares may require the password query parameter.
func (h *ShareHandler) Get(c *gin.Context) {
	entries, err := h.shares.ListEntries(c.Request.Context(), c.Param("share"), getUserID(c), c.Query("password"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"items": entries})
}

// Download streams the requested share members: one regular file as a
// plain attachment, everything else as archive.zip.
func (h *ShareHandler) Download(c *gin.Context) {
	paths, err := h.shares.ResolveDownload(c.Request.Context(), c.Param("share"), getUserID(c), c.Query("password"), c.QueryArray("file"))
	if err != nil {
		handleError(c, err)
		return
	}
	serveTargets(c, h.downloads, paths)
}

// Direct serves the single file bound to a direct-link share.
func (h *ShareHandler) Direct(c *gin.Context) {
	abs, err := h.shares.DirectFile(c.Request.Context(), c.Param("share"))
	if err != nil {
		handleError(c, err)
		return
	}
	serveTargets(c, h.downloads, []string{abs})
}
