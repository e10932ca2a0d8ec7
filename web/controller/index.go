package controller

import (
	"raffle-panel/config"

	"github.com/gin-gonic/gin"
)

type IndexController struct{}

func NewIndexController(g *gin.RouterGroup) *IndexController {
	a := &IndexController{}
	a.initRouter(g)
	return a
}

func (a *IndexController) initRouter(g *gin.RouterGroup) {
	g.GET("/", a.index)
	g.GET("/agent", a.agent)
	g.GET("/display", a.display)
}

func (a *IndexController) index(c *gin.Context) {
	html(c, "index.html", I18nWeb(c, "pages.index.title"), gin.H{
		"policy": config.GetPolicy(),
	})
}

func (a *IndexController) agent(c *gin.Context) {
	html(c, "agent.html", I18nWeb(c, "pages.agent.title"), gin.H{
		"policy": config.GetPolicy(),
	})
}

func (a *IndexController) display(c *gin.Context) {
	html(c, "display.html", I18nWeb(c, "pages.display.title"), gin.H{
		"policy": config.GetPolicy(),
	})
}
