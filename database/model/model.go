package model

import "time"

type RaffleStatus string

const (
	StatusWaiting   RaffleStatus = "waiting"
	StatusRaffling  RaffleStatus = "raffling"
	StatusCompleted RaffleStatus = "completed"
)

// Item is a prize, sequenced by Order. WinnerId and RaffledAt are set
// together or not at all.
type Item struct {
	Id        int          `json:"id" gorm:"primaryKey;autoIncrement"`
	Name      string       `json:"name" gorm:"type:varchar(255);not null"`
	ImageUrl  *string      `json:"imageUrl" gorm:"type:text"`
	Order     int          `json:"order" gorm:"column:item_order;uniqueIndex;not null"`
	WinnerId  *int         `json:"winnerId" gorm:"index"`
	RaffledAt *time.Time   `json:"raffledAt"`
	Winner    *Participant `json:"winner" gorm:"foreignKey:WinnerId"`
}

type Participant struct {
	Id         int     `json:"id" gorm:"primaryKey;autoIncrement"`
	Name       string  `json:"name" gorm:"type:varchar(255);not null"`
	Identifier *string `json:"identifier" gorm:"type:varchar(255)"`
	HasWon     bool    `json:"hasWon" gorm:"not null;default:false"`
}

// RaffleState is a singleton row: at most one exists at any time.
type RaffleState struct {
	Id            int          `json:"id" gorm:"primaryKey;autoIncrement"`
	CurrentItemId *int         `json:"currentItemId" gorm:"index"`
	Status        RaffleStatus `json:"status" gorm:"type:varchar(32);not null;default:waiting"`
}
