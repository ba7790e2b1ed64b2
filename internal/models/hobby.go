package models

// Hobby is a deduplicated tag shared across users. Rows are created lazily on
// first use and never deleted; orphaned hobbies are tolerated.
type Hobby struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"uniqueIndex;not null;size:25" json:"name"`
}
