package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/fshare/internal/pkg/errcode"
	appErr "github.com/xxxsen/fshare/internal/pkg/errors"
	"github.com/xxxsen/fshare/internal/pkg/response"
	"github.com/xxxsen/fshare/internal/service"
)

func getUserID(c *gin.Context) string {
	value, _ := c.Get("user_id")
	userID, _ := value.(string)
	return userID
}

// pathParam unwraps a gin catch-all parameter, which always carries a
// leading slash, into a sandbox-relative path.
func pathParam(c *gin.Context, name string) string {
	return strings.TrimPrefix(c.Param(name), "/")
}

func handleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	logutil.GetLogger(c.Request.Context()).Warn("request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.String("user_id", getUserID(c)),
		zap.Error(err),
	)
	switch {
	case appErr.IsNotFound(err):
		response.Error(c, errcode.ErrNotFound, "not found")
	case err == appErr.ErrUnauthorized:
		response.Error(c, errcode.ErrUnauthorized, "unauthorized")
	case err == appErr.ErrForbidden:
		response.Error(c, errcode.ErrForbidden, "forbidden")
	case err == appErr.ErrInvalidPath:
		response.Error(c, errcode.ErrInvalidPath, "invalid path")
	case err == appErr.ErrInvalid:
		response.Error(c, errcode.ErrInvalid, "invalid request")
	case err == appErr.ErrConflict:
		response.Error(c, errcode.ErrConflict, "conflict")
	default:
		response.Error(c, errcode.ErrInternal, "internal error")
	}
}

// serveTargets picks the response shape for a download: exactly one
// regular file streams as an attachment with sniffed content type and
// exact length, anything else goes out as a streamed archive.zip.
func serveTargets(c *gin.Context, downloads *service.DownloadService, paths []string) {
	infos := make([]*service.DownloadInfo, 0, len(paths))
	for _, path := range paths {
		info, err := downloads.Stat(path)
		if err != nil {
			handleError(c, err)
			return
		}
		infos = append(infos, info)
	}
	if len(paths) == 1 {
		info := infos[0]
		if !info.IsDirectory {
			c.Header("Content-Type", info.ContentType)
			c.Header("Content-Length", strconv.FormatInt(info.Size, 10))
			c.Header("Content-Disposition", `attachment; filename="`+info.Name+`"`)
			c.Status(http.StatusOK)
			_ = downloads.StreamFile(c.Request.Context(), paths[0], c.Writer)
			return
		}
	}
	c.Header("Content-Type", "application/zip")
	c.Header("Content-Disposition", `attachment; filename="archive.zip"`)
	c.Status(http.StatusOK)
	if err := downloads.StreamArchive(c.Request.Context(), paths, c.Writer); err != nil {
		// headers are gone already; the aborted copy is the signal
		logutil.GetLogger(c.Request.Context()).Error("archive stream aborted", zap.Error(err))
	}
}
