package models

import "time"

// AuditEvent — append-only журнал действий; никогда не изменяется.
type AuditEvent struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`

	UserID     uint   `gorm:"index" json:"user_id"`
	Email      string `gorm:"size:255" json:"email"`
	Action     string `gorm:"size:255;not null" json:"action"`
	ObjectType string `gorm:"size:64;index" json:"object_type"` // lease|charge|signature|user|payment
	ObjectID   uint   `gorm:"index" json:"object_id"`
	IPAddress  string `gorm:"size:64" json:"ip_address"`
	UserAgent  string `gorm:"size:512" json:"user_agent"`
}

// Origin — сетевое происхождение запроса, попадает в журнал.
type Origin struct {
	IP        string
	UserAgent string
}
