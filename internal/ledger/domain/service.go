package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Service interface {
	// AppendTx inserts entry inside the caller's transaction. The ID and
	// CreatedAt are assigned here.
	AppendTx(ctx context.Context, tx *gorm.DB, entry Transaction) (Transaction, error)
	ListForInvoice(ctx context.Context, invoiceID snowflake.ID) ([]Transaction, error)
}
