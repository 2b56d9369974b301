package models

import (
	"time"

	"gorm.io/datatypes"
)

// Lease — корневой агрегат: договор аренды между landlord и арендаторами.
//
// Инварианты:
//   - ApprovalToken непуст только пока договор в состоянии Invited;
//     при Approve/Decline очищается (decline — терминальное состояние).
//   - TemplateSnapshot, DocumentPath, DocumentHash неизменяемы после установки.
//   - ExecutedAt устанавливается ровно один раз, когда собран полный кворум подписей.
type Lease struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	UnitID     uint `gorm:"index;not null" json:"unit_id"`
	LandlordID uint `gorm:"index;not null" json:"landlord_id"`
	TemplateID uint `gorm:"index" json:"template_id"`

	StartDate        time.Time `gorm:"not null" json:"start_date"`
	EndDate          time.Time `gorm:"not null" json:"end_date"`
	RentAmount       int64     `gorm:"not null" json:"rent_amount"` // в центах
	DueDay           int       `gorm:"not null;default:1" json:"due_day"`
	PaymentFrequency string    `gorm:"size:32;default:monthly" json:"payment_frequency"`

	Approved             bool       `gorm:"default:false" json:"approved"`
	ApprovalDate         *time.Time `json:"approval_date,omitempty"`
	ApprovalToken        *string    `gorm:"size:1024" json:"-"`
	ApprovalTokenExpires *time.Time `json:"-"`

	TemplateSnapshot string `gorm:"type:text" json:"template_snapshot,omitempty"`
	DocumentPath     string `gorm:"size:512" json:"document_path,omitempty"`
	DocumentHash     string `gorm:"size:64" json:"document_hash,omitempty"`

	ExecutedAt *time.Time `json:"executed_at,omitempty"`

	Tenants []LeaseTenant `json:"tenants,omitempty"`
}

// LeaseTenant — связь договор↔арендатор; ровно один primary на договор.
type LeaseTenant struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	LeaseID   uint `gorm:"uniqueIndex:lease_tenant;not null" json:"lease_id"`
	TenantID  uint `gorm:"uniqueIndex:lease_tenant;not null" json:"tenant_id"`
	IsPrimary bool `gorm:"default:false" json:"is_primary"`
}

// Charge — одно платёжное обязательство по договору.
// Уникальность (lease_id, due_date, description) — ключ идемпотентности
// генератора платежей; вставка дубликата даёт gorm.ErrDuplicatedKey.
type Charge struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	LeaseID     uint      `gorm:"uniqueIndex:charge_obligation;not null" json:"lease_id"`
	DueDate     time.Time `gorm:"uniqueIndex:charge_obligation;not null" json:"due_date"`
	Description string    `gorm:"uniqueIndex:charge_obligation;size:255;not null" json:"description"`

	Amount int64      `gorm:"not null" json:"amount"` // в центах
	Paid   bool       `gorm:"default:false" json:"paid"`
	PaidAt *time.Time `json:"paid_at,omitempty"`
}

// ChargeDescriptionRent — фиксированное описание периодической аренды.
const ChargeDescriptionRent = "Monthly Rent"

// Signature — подпись одной стороны по договору; по одной на (lease, signer).
type Signature struct {
	ID uint `gorm:"primaryKey" json:"id"`

	LeaseID     uint           `gorm:"uniqueIndex:lease_signer;not null" json:"lease_id"`
	SignerID    uint           `gorm:"uniqueIndex:lease_signer;not null" json:"signer_id"`
	Role        string         `gorm:"size:32;not null" json:"role"` // tenant|landlord
	ArtifactRef string         `gorm:"size:512;not null" json:"artifact_ref"`
	Placement   datatypes.JSON `gorm:"type:jsonb" json:"placement"`
	Hash        string         `gorm:"size:64;not null" json:"hash"` // sha256(artifact+placement)
	SignedAt    time.Time      `gorm:"not null" json:"signed_at"`
}
