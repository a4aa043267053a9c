package server

import (
	"fmt"
	"net/http"

	"github.com/AbdelzaherMuhammed/hypervel/internal/conf"
	_ "github.com/AbdelzaherMuhammed/hypervel/internal/server/handlers"
	"github.com/AbdelzaherMuhammed/hypervel/internal/server/middleware"
	"github.com/AbdelzaherMuhammed/hypervel/internal/server/resp"
	"github.com/AbdelzaherMuhammed/hypervel/internal/server/router"
	"github.com/AbdelzaherMuhammed/hypervel/internal/utils/log"
	"github.com/gin-gonic/gin"
)

var httpSrv http.Server

func Start() error {
	if conf.IsDebug() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	r := NewEngine()

	httpSrv.Addr = fmt.Sprintf("%s:%d", conf.AppConfig.Server.Host, conf.AppConfig.Server.Port)
	httpSrv.Handler = r
	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Errorf("http server listen and serve error: %v", err)
		}
	}()
	return nil
}

// NewEngine builds the gin engine with the full middleware chain and all
// registered route groups. Split out so tests can run requests against it
// without binding a port.
func NewEngine() *gin.Engine {
	r := gin.New()
	r.Use(gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		log.Errorf("panic recovered: %v", recovered)
		resp.Error(c, http.StatusInternalServerError, resp.CodeInternal, resp.ErrInternalServer)
	}))

	if conf.IsDebug() {
		r.Use(middleware.Logger())
	}
	r.Use(middleware.Cors())

	if err := router.RegisterAll(r); err != nil {
		log.Errorf("route registration error: %v", err)
	}
	return r
}

func Close() error {
	return httpSrv.Close()
}
