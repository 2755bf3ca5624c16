package model

import (
	"time"

	"github.com/google/uuid"
)

// Roles. Only supervisor and administrador may request non-automatic status
// transitions or apply VIP discounts.
const (
	RolVendedor      = "vendedor"
	RolSupervisor    = "supervisor"
	RolAdministrador = "administrador"
)

// Usuario is a system operator. Rol: "vendedor" | "supervisor" | "administrador".
type Usuario struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Tenant       string    `gorm:"type:varchar(50);index;not null"`
	Username     string    `gorm:"uniqueIndex;not null"`
	Nombre       string    `gorm:"not null"`
	Email        *string
	PasswordHash string `gorm:"not null"`
	Rol          string `gorm:"type:varchar(20);not null"`
	Activo       bool   `gorm:"not null;default:true"`

	CreatedAt time.Time
	UpdatedAt time.Time
}
