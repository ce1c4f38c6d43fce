package domain

import "time"

// Todo is a single task owned by exactly one user.
type Todo struct {
	ID          string    `gorm:"type:varchar(36);primaryKey"`
	Title       string    `gorm:"not null"`
	Description *string   `gorm:"type:text"`
	Completed   bool      `gorm:"not null;default:false"`
	CreatedAt   time.Time `gorm:"not null;index:idx_todos_user_created,priority:2,sort:desc"`
	UserID      string    `gorm:"type:varchar(36);not null;index:idx_todos_user_created,priority:1"`
	User        *User     `gorm:"constraint:OnDelete:CASCADE"`
}

// TodoDetails carries the fields replaced by a full update. A nil
// Description leaves the stored description alone unless ClearDescription
// is set.
type TodoDetails struct {
	Title            string
	Description      *string
	ClearDescription bool
}
