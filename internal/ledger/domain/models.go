package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

type TransactionType string

const (
	TransactionTypeInvoiceAdjustment TransactionType = "invoice_adjustment"
)

type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusCompleted TransactionStatus = "completed"
)

// Transaction is an append-only monetary record tied to a company and,
// optionally, an invoice. Rows are never updated.
type Transaction struct {
	ID           snowflake.ID      `gorm:"primaryKey" json:"transaction_id"`
	CompanyID    snowflake.ID      `gorm:"not null;index" json:"company_id"`
	InvoiceID    *snowflake.ID     `gorm:"index" json:"invoice_id,omitempty"`
	Amount       int64             `gorm:"not null" json:"amount"`
	Type         TransactionType   `gorm:"type:text;not null;index" json:"type"`
	Status       TransactionStatus `gorm:"type:text;not null" json:"status"`
	Description  string            `gorm:"type:text" json:"description"`
	BalanceAfter int64             `gorm:"not null" json:"balance_after"`
	Metadata     datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'" json:"metadata"`
	CreatedAt    time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (Transaction) TableName() string { return "transactions" }
