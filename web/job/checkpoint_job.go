package job

import (
	"raffle-panel/database"
	"raffle-panel/logger"
)

// CheckpointJob periodically flushes the sqlite WAL so the database file on
// disk stays current during a long event.
type CheckpointJob struct{}

func NewCheckpointJob() *CheckpointJob {
	return &CheckpointJob{}
}

func (j *CheckpointJob) Run() {
	if err := database.Checkpoint(); err != nil {
		logger.Warning("wal checkpoint failed:", err)
	}
}
