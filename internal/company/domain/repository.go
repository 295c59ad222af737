package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	// FindByID returns nil, nil when the company does not exist.
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Company, error)
}
