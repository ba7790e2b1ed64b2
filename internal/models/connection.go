package models

import "time"

// Connection is a tracked relationship owned by exactly one user. Every read
// and write is scoped by the owning user id; there is no cross-user
// visibility.
type Connection struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"index;not null" json:"-"`
	Name      string    `gorm:"column:connection_name;not null;size:100" json:"connection_name"`
	CreatedAt time.Time `json:"created_at"`

	// LastContactedAt is NULL until the first "mark reached out"; the ranking
	// query falls back to CreatedAt in that case.
	LastContactedAt       *time.Time `json:"last_contacted_at"`
	ReminderFrequencyDays int        `gorm:"not null" json:"reminder_frequency_days"`
	Notes                 string     `gorm:"type:text;not null;default:''" json:"notes"`
	Type                  string     `gorm:"column:connection_type;size:50;not null;default:'acquaintance'" json:"connection_type"`
	KnowFrom              string     `gorm:"size:255;not null;default:''" json:"know_from"`
	ReachOutPriority      int        `gorm:"not null;default:0" json:"reach_out_priority"`
}
