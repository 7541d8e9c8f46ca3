package server

import (
	"net/http"

	"app/internal/config"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

func Start(cfg config.Config, h Handlers) error {
	e := echo.New()
	e.HideBanner = true
	e.Debug = cfg.GoEnv == "development"

	e.Use(echomw.Logger())
	e.Use(echomw.Recover())

	//フロントからのみ。カートトークンはカスタムヘッダなのでExposeする。
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:  []string{cfg.FEURL},
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:  []string{echo.HeaderContentType, echo.HeaderAuthorization, "X-Cart-Token"},
		ExposeHeaders: []string{"X-Cart-Token"},
	}))

	RegisterRoutes(e, cfg, h)

	addr := cfg.Port
	if addr != "" && addr[0] != ':' {
		addr = ":" + addr
	}

	return e.Start(addr)
}
