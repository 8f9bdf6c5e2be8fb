package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type Enrollment struct {
	ID            snowflake.ID `gorm:"primaryKey" json:"id"`
	UserID        snowflake.ID `gorm:"not null;index" json:"user_id"`
	CourseID      snowflake.ID `gorm:"not null;index" json:"course_id"`
	SourceEventID snowflake.ID `json:"source_event_id,omitempty"`
	EnrolledAt    time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"enrolled_at"`
	CreatedAt     time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}
