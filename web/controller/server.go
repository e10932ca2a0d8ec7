package controller

import (
	"strconv"
	"sync"
	"time"

	"raffle-panel/logger"
	"raffle-panel/web/global"
	"raffle-panel/web/service"

	"github.com/gin-gonic/gin"
)

type ServerController struct {
	serverService service.ServerService

	clientCount func() int64

	// The cron refresh and the HTTP handlers share the cache.
	mu                sync.Mutex
	lastStatus        *service.Status
	lastGetStatusTime time.Time
}

func NewServerController(g *gin.RouterGroup, clientCount func() int64) *ServerController {
	a := &ServerController{
		clientCount:       clientCount,
		lastGetStatusTime: time.Now(),
	}
	a.initRouter(g)
	a.startTask()
	return a
}

func (a *ServerController) initRouter(g *gin.RouterGroup) {
	server := g.Group("/server")

	server.GET("/status", a.status)
	server.POST("/logs/:count", a.getLogs)
}

func (a *ServerController) refreshStatus() {
	a.mu.Lock()
	last := a.lastStatus
	a.mu.Unlock()

	status := a.serverService.GetStatus(last)
	if status != nil {
		status.Clients = a.clientCount()
	}

	a.mu.Lock()
	a.lastStatus = status
	a.mu.Unlock()
}

func (a *ServerController) startTask() {
	webServer := global.GetWebServer()
	c := webServer.GetCron()
	c.AddFunc("@every 2s", func() {
		now := time.Now()
		a.mu.Lock()
		idle := now.Sub(a.lastGetStatusTime) > time.Minute*3
		a.mu.Unlock()
		// Stop sampling once nobody has asked for a while.
		if idle {
			return
		}
		a.refreshStatus()
	})
}

func (a *ServerController) status(c *gin.Context) {
	a.mu.Lock()
	a.lastGetStatusTime = time.Now()
	cached := a.lastStatus
	a.mu.Unlock()

	if cached == nil {
		a.refreshStatus()
		a.mu.Lock()
		cached = a.lastStatus
		a.mu.Unlock()
	}
	jsonObj(c, cached, nil)
}

func (a *ServerController) getLogs(c *gin.Context) {
	count, err := strconv.Atoi(c.Param("count"))
	if err != nil || count <= 0 {
		count = 50
	}
	level := c.PostForm("level")
	jsonObj(c, logger.GetLogs(count, level), nil)
}
