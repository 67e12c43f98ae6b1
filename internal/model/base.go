package model

import (
	"time"

	"gorm.io/gorm"
)

// BaseModel handles the sequential ID and standard audit trails.
// Sequential IDs give ledger rows a stable creation order for tie-breaking.
type BaseModel struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"` // Soft Delete support

	// Audit User Tracking
	CreatedBy string `json:"created_by,omitempty"`
	UpdatedBy string `json:"updated_by,omitempty"`
}

// Stamp sets both audit fields, used on insert.
func (base *BaseModel) Stamp(actor string) {
	base.CreatedBy = actor
	base.UpdatedBy = actor
}

// DateOnly truncates t to midnight UTC. Business dates (sale_date,
// payment_date, transaction date) are always stored in this form so that
// range filters and ordering compare consistently across drivers.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Migrate creates or updates every table owned by the ledger.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&Supplier{},
		&Item{},
		&Customer{},
		&Sale{},
		&SaleItem{},
		&Payment{},
		&SupplierTransaction{},
		&User{},
	)
}
