package repo

import (
	"context"

	"gorm.io/gorm"
)

// Base is embedded by every domain repository. It holds the GORM handle and
// the context binding boilerplate so repositories only write queries.
type Base struct {
	db *gorm.DB
}

// NewBase wraps a GORM connection, which may be a transaction handle.
func NewBase(db *gorm.DB) Base {
	return Base{db: db}
}

// DB returns the connection bound to ctx, or the raw connection for nil ctx.
func (b Base) DB(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return b.db
	}
	return b.db.WithContext(ctx)
}
