package models

import (
	"time"

	"github.com/google/uuid"
)

// User holds the minimal identity the ledger needs: movement attribution
// and dashboard activity rankings. Authentication lives upstream.
type User struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Email     string    `gorm:"column:email;uniqueIndex;not null"`
	FirstName string    `gorm:"column:first_name;not null"`
	LastName  string    `gorm:"column:last_name;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
