package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/xxxsen/fshare/internal/pkg/errcode"
	"github.com/xxxsen/fshare/internal/pkg/response"
	"github.com/xxxsen/fshare/internal/sandbox"
	"github.com/xxxsen/fshare/internal/service"
)

// FileHandler serves the personal-directory surface: listing, directory
// creation, upload, delete and authenticated direct fetch, all confined
// to the caller's own sandbox.
type FileHandler struct {
	dirs        *service.DirectoryService
	downloads   *service.DownloadService
	resolver    *sandbox.Resolver
	uploadLimit int64
}

func NewFileHandler(dirs *service.DirectoryService, downloads *service.DownloadService, resolver *sandbox.Resolver, uploadLimit int64) *FileHandler {
	return &FileHandler{dirs: dirs, downloads: downloads, resolver: resolver, uploadLimit: uploadLimit}
}

func (h *FileHandler) List(c *gin.Context) {
	entries, err := h.dirs.List(c.Request.Context(), getUserID(c), pathParam(c, "path"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"items": entries})
}

func (h *FileHandler) Mkdir(c *gin.Context) {
	entry, err := h.dirs.Mkdir(c.Request.Context(), getUserID(c), pathParam(c, "path"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, entry)
}

func (h *FileHandler) Upload(c *gin.Context) {
	if h.uploadLimit > 0 && c.Request.ContentLength > h.uploadLimit {
		response.Error(c, errcode.ErrInvalidFile, "file exceeds "+formatUploadLimit(h.uploadLimit))
		return
	}
	file, err := c.FormFile("file")
	if err != nil {
		response.Error(c, errcode.ErrInvalidFile, "file is required")
		return
	}
	opened, err := file.Open()
	if err != nil {
		response.Error(c, errcode.ErrInvalidFile, "failed to open file")
		return
	}
	defer func() { _ = opened.Close() }()

	entry, err := h.dirs.Save(c.Request.Context(), getUserID(c), pathParam(c, "path"), file.Filename, opened)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, entry)
}

func (h *FileHandler) Delete(c *gin.Context) {
	entry, err := h.dirs.Delete(c.Request.Context(), getUserID(c), pathParam(c, "path"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, entry)
}

// Fetch streams one file from the caller's own sandbox.
func (h *FileHandler) Fetch(c *gin.Context) {
	abs, _, err := h.resolver.Resolve(getUserID(c), pathParam(c, "path"))
	if err != nil {
		handleError(c, err)
		return
	}
	serveTargets(c, h.downloads, []string{abs})
}
