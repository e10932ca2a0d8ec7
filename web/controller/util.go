package controller

import (
	"net/http"

	"raffle-panel/logger"
	"raffle-panel/web/entity"
	"raffle-panel/web/locale"

	"github.com/gin-gonic/gin"
)

func I18nWeb(c *gin.Context, key string, params ...string) string {
	return locale.I18nWeb(c, key, params...)
}

func jsonMsg(c *gin.Context, msg string, err error) {
	jsonMsgObj(c, msg, nil, err)
}

func jsonObj(c *gin.Context, obj any, err error) {
	jsonMsgObj(c, "", obj, err)
}

func jsonMsgObj(c *gin.Context, msg string, obj any, err error) {
	m := entity.Msg{
		Obj: obj,
	}
	if err == nil {
		m.Success = true
		if msg != "" {
			m.Msg = msg
		}
	} else {
		m.Success = false
		m.Msg = msg + " failed: " + err.Error()
		logger.Warning(msg+" failed:", err)
	}
	c.JSON(http.StatusOK, m)
}

func html(c *gin.Context, name string, title string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	data["title"] = title
	data["request_uri"] = c.Request.RequestURI
	data["base_path"] = c.GetString("base_path")
	c.HTML(http.StatusOK, name, data)
}
