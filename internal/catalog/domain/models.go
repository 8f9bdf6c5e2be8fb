package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type Course struct {
	ID                   snowflake.ID `gorm:"primaryKey" json:"id"`
	Title                string       `gorm:"not null" json:"title"`
	Slug                 string       `gorm:"not null;uniqueIndex" json:"slug"`
	PriceAmount          int64        `gorm:"not null;default:0" json:"price_amount"`
	Currency             string       `gorm:"not null;default:'usd'" json:"currency"`
	AccessType           string       `gorm:"not null;default:'lifetime'" json:"access_type"`
	CommissionPercentage int64        `gorm:"not null;default:0" json:"commission_percentage"`
	ProviderPriceID      string       `json:"provider_price_id,omitempty"`
	CreatedAt            time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt            time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}
