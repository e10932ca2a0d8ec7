package database

import (
	"raffle-panel/database/model"

	"gorm.io/gorm"
)

// ListItems returns every item in raffle order, winners joined.
func ListItems() ([]*model.Item, error) {
	var items []*model.Item
	err := db.Preload("Winner").Order("item_order asc").Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// AddItem inserts an item. When no order is given the item goes to the end
// of the sequence; the max lookup and the insert share one transaction.
func AddItem(item *model.Item) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if item.Order == 0 {
			var last model.Item
			err := tx.Order("item_order desc").First(&last).Error
			if err != nil && !IsNotFound(err) {
				return err
			}
			item.Order = last.Order + 1
		}
		return tx.Create(item).Error
	})
}

func DelItem(id int) error {
	return db.Delete(&model.Item{}, id).Error
}

func ListParticipants() ([]*model.Participant, error) {
	var participants []*model.Participant
	err := db.Order("name asc").Find(&participants).Error
	if err != nil {
		return nil, err
	}
	return participants, nil
}

func AddParticipant(participant *model.Participant) error {
	return db.Create(participant).Error
}

// AddParticipants inserts a batch atomically: either the whole roster lands
// or none of it does.
func AddParticipants(participants []*model.Participant) error {
	return db.Transaction(func(tx *gorm.DB) error {
		for _, participant := range participants {
			if err := tx.Create(participant).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func DelParticipant(id int) error {
	return db.Delete(&model.Participant{}, id).Error
}

// RaffledItems returns items that already have a winner, in raffle order.
func RaffledItems() ([]*model.Item, error) {
	var items []*model.Item
	err := db.Preload("Winner").Where("winner_id is not null").
		Order("item_order asc").Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}
