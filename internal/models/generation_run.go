package models

import "time"

const (
	RunSucceeded = "succeeded"
	RunFailed    = "failed"
	RunCancelled = "cancelled"
)

// GenerationRun is one row of the generate audit log.
type GenerationRun struct {
	ID           uint   `gorm:"primaryKey"`
	RunID        string `gorm:"size:64;not null;uniqueIndex"`
	Provider     string `gorm:"size:64;not null"`
	Model        string `gorm:"size:128"`
	Mode         string `gorm:"size:16"`
	Count        int    `gorm:"not null;default:1"`
	Outcome      string `gorm:"size:16;not null;index"`
	ErrorCode    string `gorm:"size:32"`
	ErrorMessage string `gorm:"type:text"`
	SessionID    string `gorm:"size:64;index"`
	AttemptsJSON string `gorm:"type:text"`
	DurationMs   int64
	CreatedAt    time.Time `gorm:"index"`
}
