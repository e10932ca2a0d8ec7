package controller

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"raffle-panel/database"
	"raffle-panel/database/model"
	"raffle-panel/util/common"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
)

// APIController is the CRUD surface the organizer uses to prepare an event:
// load items and participants ahead of time and export results afterwards.
// Live mutations go through the websocket hub, not through here.
type APIController struct{}

func NewAPIController(g *gin.RouterGroup) *APIController {
	a := &APIController{}
	a.initRouter(g)
	return a
}

func (a *APIController) initRouter(g *gin.RouterGroup) {
	api := g.Group("/api")

	api.GET("/items", a.getItems)
	api.POST("/items", a.addItem)
	api.DELETE("/items", a.delItem)

	api.GET("/participants", a.getParticipants)
	api.POST("/participants", a.addParticipants)
	api.DELETE("/participants", a.delParticipant)

	api.GET("/export", a.exportResults)
}

func (a *APIController) getItems(c *gin.Context) {
	items, err := database.ListItems()
	jsonObj(c, items, err)
}

func (a *APIController) addItem(c *gin.Context) {
	item := &model.Item{}
	if err := c.ShouldBindJSON(item); err != nil {
		jsonMsg(c, "add item", err)
		return
	}
	if item.Name == "" {
		jsonMsg(c, "add item", common.NewError("name is required"))
		return
	}
	if err := database.AddItem(item); err != nil {
		jsonMsg(c, "add item", err)
		return
	}
	jsonObj(c, item, nil)
}

func (a *APIController) delItem(c *gin.Context) {
	id, err := strconv.Atoi(c.Query("id"))
	if err != nil {
		jsonMsg(c, "delete item", common.NewError("id is required"))
		return
	}
	jsonMsg(c, "delete item", database.DelItem(id))
}

func (a *APIController) getParticipants(c *gin.Context) {
	participants, err := database.ListParticipants()
	jsonObj(c, participants, err)
}

// addParticipants accepts either one participant or an array, so a whole
// roster can be imported in a single request.
func (a *APIController) addParticipants(c *gin.Context) {
	raw, err := c.GetRawData()
	if err != nil {
		jsonMsg(c, "add participants", err)
		return
	}

	var batch []*model.Participant
	if err := json.Unmarshal(raw, &batch); err == nil {
		for _, participant := range batch {
			if participant.Name == "" {
				jsonMsg(c, "add participants", common.NewError("name is required"))
				return
			}
		}
		if err := database.AddParticipants(batch); err != nil {
			jsonMsg(c, "add participants", err)
			return
		}
		jsonObj(c, map[string]int{"count": len(batch)}, nil)
		return
	}

	participant := &model.Participant{}
	if err := json.Unmarshal(raw, participant); err != nil {
		jsonMsg(c, "add participant", err)
		return
	}
	if participant.Name == "" {
		jsonMsg(c, "add participant", common.NewError("name is required"))
		return
	}
	if err := database.AddParticipant(participant); err != nil {
		jsonMsg(c, "add participant", err)
		return
	}
	jsonObj(c, participant, nil)
}

func (a *APIController) delParticipant(c *gin.Context) {
	id, err := strconv.Atoi(c.Query("id"))
	if err != nil {
		jsonMsg(c, "delete participant", common.NewError("id is required"))
		return
	}
	jsonMsg(c, "delete participant", database.DelParticipant(id))
}

func (a *APIController) exportResults(c *gin.Context) {
	items, err := database.RaffledItems()
	if err != nil {
		jsonMsg(c, "export results", err)
		return
	}

	filename := fmt.Sprintf("raffle-results-%d.csv", time.Now().UnixMilli())
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Status(http.StatusOK)

	w := csv.NewWriter(c.Writer)
	w.Write([]string{"Order", "Item Name", "Winner Name", "Winner ID", "Raffled At"})
	for _, item := range items {
		winnerName, winnerId := "", ""
		if item.Winner != nil {
			winnerName = item.Winner.Name
			if item.Winner.Identifier != nil {
				winnerId = *item.Winner.Identifier
			}
		}
		raffledAt := ""
		if item.RaffledAt != nil {
			raffledAt = item.RaffledAt.Format("2006-01-02 15:04:05")
		}
		w.Write([]string{strconv.Itoa(item.Order), item.Name, winnerName, winnerId, raffledAt})
	}
	w.Flush()
}
