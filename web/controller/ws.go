package controller

import (
	"net/http"

	"raffle-panel/config"
	"raffle-panel/logger"
	"raffle-panel/web/hub"
	"raffle-panel/web/middleware"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return middleware.OriginAllowed(config.GetAllowedOrigins(), r.Header.Get("Origin"))
	},
}

type WSController struct {
	hub *hub.Hub
}

func NewWSController(g *gin.RouterGroup, h *hub.Hub) *WSController {
	a := &WSController{hub: h}
	a.initRouter(g)
	return a
}

func (a *WSController) initRouter(g *gin.RouterGroup) {
	g.GET("/ws", a.serveWS)
}

func (a *WSController) serveWS(c *gin.Context) {
	conn, err := wsUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warning("websocket upgrade failed:", err)
		return
	}
	a.hub.Serve(conn)
}
