package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// QuoteSubmission archives a draft quote handed to the downstream workflow.
type QuoteSubmission struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	DraftID     string          `gorm:"column:draft_id;not null;uniqueIndex:quote_submissions_draft_id_key"`
	OptionNames pq.StringArray  `gorm:"column:option_names;type:text[];not null"`
	OptionCount int             `gorm:"column:option_count;not null"`
	LowestTotal decimal.Decimal `gorm:"column:lowest_total;type:numeric(14,2);not null"`
	CargoTeu    float64         `gorm:"column:cargo_teu;not null"`
	Payload     []byte          `gorm:"column:payload;type:jsonb;not null"`
	Totals      []byte          `gorm:"column:totals;type:jsonb;not null"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
}

// TableName pins the table name.
func (QuoteSubmission) TableName() string {
	return "quote_submissions"
}
