package model

import (
	"time"

	"github.com/google/uuid"
)

// Cliente is the customer registry entry. VIP customers may receive the
// manager-applied percentage discount at sale creation.
type Cliente struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Tenant   string    `gorm:"type:varchar(50);index;not null"`
	Nombre   string    `gorm:"index;not null"`
	Telefono *string   `gorm:"type:varchar(30)"`
	Email    *string
	VIP      bool `gorm:"not null;default:false;column:vip"`
	Activo   bool `gorm:"not null;default:true"`

	CreatedAt time.Time
	UpdatedAt time.Time
}
