package database

import (
	"raffle-panel/database/model"

	"gorm.io/gorm"
)

// SeedData is the shape of the JSON file accepted by the seed subcommand.
type SeedData struct {
	Items        []*model.Item        `json:"items"`
	Participants []*model.Participant `json:"participants"`
}

// ResetAll wipes every raffle table. Winner references are cleared before
// the participants go away so the delete order never trips over a foreign
// key.
func ResetAll() error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.Item{}).Where("1 = 1").Updates(map[string]any{
			"winner_id":  nil,
			"raffled_at": nil,
		}).Error; err != nil {
			return err
		}
		if err := tx.Where("1 = 1").Delete(&model.RaffleState{}).Error; err != nil {
			return err
		}
		if err := tx.Where("1 = 1").Delete(&model.Participant{}).Error; err != nil {
			return err
		}
		if err := tx.Where("1 = 1").Delete(&model.Item{}).Error; err != nil {
			return err
		}
		return nil
	})
}

// Seed replaces the database contents with the given data. Items keep their
// given order when set, otherwise they are numbered in file order.
func Seed(data *SeedData) error {
	if err := ResetAll(); err != nil {
		return err
	}
	return db.Transaction(func(tx *gorm.DB) error {
		nextOrder := 1
		for _, item := range data.Items {
			if item.Order == 0 {
				item.Order = nextOrder
			}
			if item.Order >= nextOrder {
				nextOrder = item.Order + 1
			}
			if err := tx.Create(item).Error; err != nil {
				return err
			}
		}
		for _, participant := range data.Participants {
			if err := tx.Create(participant).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
