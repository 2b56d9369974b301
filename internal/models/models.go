package models

import (
	"fmt"
	"time"
)

// Роли пользователей.
const (
	RoleAdmin    = "admin"
	RoleLandlord = "landlord"
	RoleManager  = "manager"
	RoleTenant   = "tenant"
)

type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Email        string `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Name         string `gorm:"size:255" json:"name"`
	PasswordHash []byte `gorm:"size:255" json:"-"`
	Role         string `gorm:"size:32;not null" json:"role"` // admin|landlord|manager|tenant
	Verified     bool   `gorm:"default:false" json:"verified"`
}

type Property struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	OwnerID uint   `gorm:"index;not null" json:"owner_id"`
	Address string `gorm:"size:512;not null" json:"address"`
}

type Unit struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	PropertyID uint   `gorm:"index;not null" json:"property_id"`
	UnitNumber string `gorm:"size:64;not null" json:"unit_number"`
}

type LeaseTemplate struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Name    string `gorm:"size:255;not null" json:"name"`
	Content string `gorm:"type:text" json:"content"`
}

// Actor — аутентифицированный пользователь запроса (из session JWT).
type Actor struct {
	UserID uint
	Email  string
	Name   string
	Role   string
}

// FormatAmount — сумма в центах → "1250.00".
func FormatAmount(cents int64) string {
	return fmt.Sprintf("%d.%02d", cents/100, cents%100)
}
