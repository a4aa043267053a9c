package handlers

import (
	"net/http"

	"github.com/AbdelzaherMuhammed/hypervel/internal/conf"
	"github.com/AbdelzaherMuhammed/hypervel/internal/server/resp"
	"github.com/AbdelzaherMuhammed/hypervel/internal/server/router"
	"github.com/gin-gonic/gin"
)

func init() {
	router.NewGroupRouter("/health").
		AddRoute(
			router.NewRoute("", http.MethodGet).
				Handle(health),
		)
}

func health(c *gin.Context) {
	resp.Success(c, "ok", gin.H{
		"name":    conf.APP_NAME,
		"version": conf.Version,
	})
}
