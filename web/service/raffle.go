package service

import (
	"errors"
	"sync"
	"time"

	"raffle-panel/config"
	"raffle-panel/database"
	"raffle-panel/database/model"
	"raffle-panel/logger"
	"raffle-panel/util/common"

	"gorm.io/gorm"
)

var (
	ErrNoCurrentItem          = errors.New("no item to raffle")
	ErrAlreadyRaffled         = errors.New("item already raffled")
	ErrNoEligibleParticipants = errors.New("no eligible participants remaining")
	ErrRaffleNotInitialized   = errors.New("raffle not initialized")
	ErrItemNotFound           = errors.New("item not found")
)

type Progress struct {
	Current int `json:"current"`
	Total   int `json:"total"`
}

// Snapshot is the full raffle state pushed to every connected client. It is
// always rebuilt from the store inside the same transaction that mutated it.
type Snapshot struct {
	CurrentItem           *model.Item        `json:"currentItem"`
	History               []*model.Item      `json:"history"`
	Status                model.RaffleStatus `json:"status"`
	RemainingParticipants *int               `json:"remainingParticipants,omitempty"`
	Progress              Progress           `json:"progress"`
}

// RaffleService owns all mutation of raffle state. A single mutex serializes
// operations across connections; each operation runs in one transaction, so
// concurrent commands can never interleave their reads and writes.
type RaffleService struct {
	mu     sync.Mutex
	policy config.Policy
}

func NewRaffleService(policy config.Policy) *RaffleService {
	return &RaffleService{policy: policy}
}

func (s *RaffleService) Policy() config.Policy {
	return s.policy
}

// Init makes sure the singleton state row exists before any client connects.
func (s *RaffleService) Init() error {
	_, err := s.GetSnapshot()
	return err
}

// ensureState finds the singleton state row, creating one pointed at the
// first item in raffle order when none exists yet.
func (s *RaffleService) ensureState(tx *gorm.DB) (*model.RaffleState, error) {
	state := &model.RaffleState{}
	err := tx.First(state).Error
	if err == nil {
		return state, nil
	}
	if !database.IsNotFound(err) {
		return nil, err
	}

	state = &model.RaffleState{Status: model.StatusWaiting}
	var first model.Item
	err = tx.Order("item_order asc").First(&first).Error
	if err == nil {
		state.CurrentItemId = &first.Id
	} else if !database.IsNotFound(err) {
		return nil, err
	}
	if err := tx.Create(state).Error; err != nil {
		return nil, err
	}
	logger.Infof("raffle state initialized, current item: %v", state.CurrentItemId)
	return state, nil
}

func (s *RaffleService) buildSnapshot(tx *gorm.DB, state *model.RaffleState) (*Snapshot, error) {
	snapshot := &Snapshot{
		History: []*model.Item{},
		Status:  state.Status,
	}

	if state.CurrentItemId != nil {
		var current model.Item
		err := tx.Preload("Winner").First(&current, *state.CurrentItemId).Error
		if err == nil {
			snapshot.CurrentItem = &current
		} else if !database.IsNotFound(err) {
			return nil, err
		}
	}

	err := tx.Preload("Winner").Where("winner_id is not null").
		Order("raffled_at desc").Find(&snapshot.History).Error
	if err != nil {
		return nil, err
	}

	var total, raffled int64
	if err := tx.Model(&model.Item{}).Count(&total).Error; err != nil {
		return nil, err
	}
	if err := tx.Model(&model.Item{}).Where("winner_id is not null").Count(&raffled).Error; err != nil {
		return nil, err
	}
	snapshot.Progress = Progress{Current: int(raffled), Total: int(total)}

	if s.policy == config.PolicyPool {
		var remaining int64
		err := tx.Model(&model.Participant{}).Where("has_won = ?", false).Count(&remaining).Error
		if err != nil {
			return nil, err
		}
		n := int(remaining)
		snapshot.RemainingParticipants = &n
	}

	return snapshot, nil
}

// GetSnapshot reads the current state, lazily creating the state row.
func (s *RaffleService) GetSnapshot() (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var snapshot *Snapshot
	err := database.GetDB().Transaction(func(tx *gorm.DB) error {
		state, err := s.ensureState(tx)
		if err != nil {
			return err
		}
		snapshot, err = s.buildSnapshot(tx, state)
		return err
	})
	if err != nil {
		return nil, err
	}
	return snapshot, nil
}

// Draw picks a uniform random winner among participants that have not won
// yet and assigns it to the current item.
func (s *RaffleService) Draw() (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var snapshot *Snapshot
	err := database.GetDB().Transaction(func(tx *gorm.DB) error {
		state, err := s.ensureState(tx)
		if err != nil {
			return err
		}
		if state.CurrentItemId == nil {
			return ErrNoCurrentItem
		}

		var current model.Item
		if err := tx.First(&current, *state.CurrentItemId).Error; err != nil {
			if database.IsNotFound(err) {
				return ErrNoCurrentItem
			}
			return err
		}
		if current.WinnerId != nil {
			return ErrAlreadyRaffled
		}

		var eligible []*model.Participant
		if err := tx.Where("has_won = ?", false).Find(&eligible).Error; err != nil {
			return err
		}
		if len(eligible) == 0 {
			return ErrNoEligibleParticipants
		}

		winner := eligible[common.RandomInt(len(eligible))]
		now := time.Now()

		err = tx.Model(&current).Updates(map[string]any{
			"winner_id":  winner.Id,
			"raffled_at": now,
		}).Error
		if err != nil {
			return err
		}
		err = tx.Model(winner).Update("has_won", true).Error
		if err != nil {
			return err
		}
		err = tx.Model(state).Update("status", model.StatusRaffling).Error
		if err != nil {
			return err
		}
		state.Status = model.StatusRaffling

		logger.Infof("item %q raffled, winner: %q", current.Name, winner.Name)
		snapshot, err = s.buildSnapshot(tx, state)
		return err
	})
	if err != nil {
		return nil, err
	}
	return snapshot, nil
}

// RecordWinner creates an item and its winner in one step, appending the
// item to the end of the sequence and making it current. There is no
// pre-existing roster in this mode; the participant is born already won.
func (s *RaffleService) RecordWinner(itemName, winnerName string) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var snapshot *Snapshot
	err := database.GetDB().Transaction(func(tx *gorm.DB) error {
		var last model.Item
		err := tx.Order("item_order desc").First(&last).Error
		if err != nil && !database.IsNotFound(err) {
			return err
		}
		nextOrder := last.Order + 1

		winner := &model.Participant{Name: winnerName, HasWon: true}
		if err := tx.Create(winner).Error; err != nil {
			return err
		}

		now := time.Now()
		item := &model.Item{
			Name:      itemName,
			Order:     nextOrder,
			WinnerId:  &winner.Id,
			RaffledAt: &now,
		}
		if err := tx.Create(item).Error; err != nil {
			return err
		}

		state, err := s.ensureState(tx)
		if err != nil {
			return err
		}
		if err := tx.Model(state).Update("current_item_id", item.Id).Error; err != nil {
			return err
		}
		state.CurrentItemId = &item.Id

		logger.Infof("winner recorded: %q -> %q (order %d)", itemName, winnerName, nextOrder)
		snapshot, err = s.buildSnapshot(tx, state)
		return err
	})
	if err != nil {
		return nil, err
	}
	return snapshot, nil
}

// UpdateWinner renames an item and, when it has one, its winner. It never
// changes who won.
func (s *RaffleService) UpdateWinner(itemId int, itemName, winnerName string) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var snapshot *Snapshot
	err := database.GetDB().Transaction(func(tx *gorm.DB) error {
		var item model.Item
		if err := tx.First(&item, itemId).Error; err != nil {
			if database.IsNotFound(err) {
				return ErrItemNotFound
			}
			return err
		}

		if err := tx.Model(&item).Update("name", itemName).Error; err != nil {
			return err
		}
		if item.WinnerId != nil {
			err := tx.Model(&model.Participant{}).Where("id = ?", *item.WinnerId).
				Update("name", winnerName).Error
			if err != nil {
				return err
			}
		}

		state, err := s.ensureState(tx)
		if err != nil {
			return err
		}
		snapshot, err = s.buildSnapshot(tx, state)
		return err
	})
	if err != nil {
		return nil, err
	}
	return snapshot, nil
}

// Next moves the raffle to the item with the smallest order after the
// current one. Past the last item the two policies diverge: the pool policy
// marks the raffle completed, the adhoc policy clears the current item so
// the agent can record a fresh entry.
func (s *RaffleService) Next() (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.move(true)
}

// Prev moves back to the item with the largest order before the current
// one. At the first item it is a no-op that still returns a snapshot.
func (s *RaffleService) Prev() (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.move(false)
}

func (s *RaffleService) move(forward bool) (*Snapshot, error) {
	var snapshot *Snapshot
	err := database.GetDB().Transaction(func(tx *gorm.DB) error {
		state := &model.RaffleState{}
		if err := tx.First(state).Error; err != nil {
			if database.IsNotFound(err) {
				return ErrRaffleNotInitialized
			}
			return err
		}

		currentOrder := 0
		hasCurrent := false
		if state.CurrentItemId != nil {
			var current model.Item
			err := tx.First(&current, *state.CurrentItemId).Error
			if err == nil {
				currentOrder = current.Order
				hasCurrent = true
			} else if !database.IsNotFound(err) {
				return err
			}
		}

		var target model.Item
		var err error
		if forward {
			err = tx.Where("item_order > ?", currentOrder).
				Order("item_order asc").First(&target).Error
		} else {
			query := tx.Order("item_order desc")
			if hasCurrent {
				query = query.Where("item_order < ?", currentOrder)
			}
			// Without a current item every order counts as "before",
			// so stepping back lands on the last item.
			err = query.First(&target).Error
		}

		if err != nil {
			if !database.IsNotFound(err) {
				return err
			}
			if forward {
				if s.policy == config.PolicyPool {
					// Walked off the end: the raffle is done.
					if err := tx.Model(state).Update("status", model.StatusCompleted).Error; err != nil {
						return err
					}
					state.Status = model.StatusCompleted
				} else {
					if err := tx.Model(state).Update("current_item_id", nil).Error; err != nil {
						return err
					}
					state.CurrentItemId = nil
				}
			}
			// Backward past the first item: leave everything untouched.
			snapshot, err = s.buildSnapshot(tx, state)
			return err
		}

		updates := map[string]any{"current_item_id": target.Id}
		if !forward || s.policy == config.PolicyPool {
			updates["status"] = model.StatusWaiting
		}
		if err := tx.Model(state).Updates(updates).Error; err != nil {
			return err
		}
		state.CurrentItemId = &target.Id
		if _, ok := updates["status"]; ok {
			state.Status = model.StatusWaiting
		}

		snapshot, err = s.buildSnapshot(tx, state)
		return err
	})
	if err != nil {
		return nil, err
	}
	return snapshot, nil
}

// Reset returns the raffle to its starting state. The pool policy keeps
// items and participants and only clears win marks; the adhoc policy deletes
// both outright since they were created during the event. Either way the
// state row is rebuilt pointing at the first item.
func (s *RaffleService) Reset() (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var snapshot *Snapshot
	err := database.GetDB().Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&model.RaffleState{}).Error; err != nil {
			return err
		}

		if s.policy == config.PolicyPool {
			err := tx.Model(&model.Item{}).Where("1 = 1").Updates(map[string]any{
				"winner_id":  nil,
				"raffled_at": nil,
			}).Error
			if err != nil {
				return err
			}
			err = tx.Model(&model.Participant{}).Where("1 = 1").
				Update("has_won", false).Error
			if err != nil {
				return err
			}
		} else {
			if err := tx.Where("1 = 1").Delete(&model.Item{}).Error; err != nil {
				return err
			}
			if err := tx.Where("1 = 1").Delete(&model.Participant{}).Error; err != nil {
				return err
			}
		}

		state, err := s.ensureState(tx)
		if err != nil {
			return err
		}

		logger.Info("raffle reset")
		snapshot, err = s.buildSnapshot(tx, state)
		return err
	})
	if err != nil {
		return nil, err
	}
	return snapshot, nil
}
