package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/xxxsen/fshare/internal/middleware"
)

type RouterDeps struct {
	Files       *FileHandler
	Shares      *ShareHandler
	JWTSecret   []byte
	ShareWindow time.Duration
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	authGroup := api.Group("")
	authGroup.Use(middleware.JWTAuth(deps.JWTSecret))
	authGroup.GET("/file/p/*path", deps.Files.List)
	authGroup.PUT("/file/p/*path", deps.Files.Mkdir)
	authGroup.POST("/file/p/*path", deps.Files.Upload)
	authGroup.DELETE("/file/p/*path", deps.Files.Delete)
	authGroup.GET("/file/f/*path", deps.Files.Fetch)

	authGroup.POST("/file/s", middleware.RateLimit(deps.ShareWindow), deps.Shares.Create)
	authGroup.GET("/file/s", deps.Shares.ListMine)

	shareGroup := api.Group("")
	shareGroup.Use(middleware.JWTOptional(deps.JWTSecret))
	shareGroup.GET("/file/s/:share", deps.Shares.Get)
	shareGroup.GET("/file/s/:share/download", deps.Shares.Download)
	shareGroup.GET("/file/d/:share", deps.Shares.Direct)
}
