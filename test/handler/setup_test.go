package handler_test

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/xxxsen/common/webapi"

	"github.com/xxxsen/fshare/internal/handler"
	"github.com/xxxsen/fshare/internal/middleware"
	"github.com/xxxsen/fshare/internal/pkg/jwt"
	"github.com/xxxsen/fshare/internal/pkg/mimeutil"
	"github.com/xxxsen/fshare/internal/repo"
	"github.com/xxxsen/fshare/internal/sandbox"
	"github.com/xxxsen/fshare/internal/service"
	"github.com/xxxsen/fshare/test/testutil"
)

var testJWTSecret = []byte("test-secret")

func newTestID() string {
	buf := make([]byte, 16)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}

func setupRouter(t *testing.T) (http.Handler, *repo.UserRepo, *sandbox.Resolver, func()) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	conn, cleanup := testutil.OpenTestDB(t)
	userRepo := repo.NewUserRepo(conn)
	shareRepo := repo.NewShareRepo(conn)

	resolver, err := sandbox.NewResolver(t.TempDir())
	require.NoError(t, err)

	directoryService := service.NewDirectoryService(resolver)
	shareService := service.NewShareService(shareRepo, userRepo, resolver)
	downloadService := service.NewDownloadService(resolver, mimeutil.NewDetector())

	deps := handler.RouterDeps{
		Files:     handler.NewFileHandler(directoryService, downloadService, resolver, 20*1024*1024),
		Shares:    handler.NewShareHandler(shareService, downloadService),
		JWTSecret: testJWTSecret,
	}

	engine, err := webapi.NewEngine(
		"/",
		"",
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.CORS(nil),
		),
	)
	require.NoError(t, err)

	return engine, userRepo, resolver, cleanup
}

func bearerToken(t *testing.T, userID, username string) string {
	t.Helper()
	token, err := jwt.GenerateToken(userID, username, testJWTSecret, time.Hour)
	require.NoError(t, err)
	return "Bearer " + token
}
