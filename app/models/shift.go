package models

import "time"

// Shift is a cashier work session. EndAt is nil while the shift is open.
type Shift struct {
	ID                uint       `gorm:"primaryKey" json:"id"`
	UserID            uint       `gorm:"not null" json:"user_id"`
	OutletID          *uint      `json:"outlet_id,omitempty"`
	StartAt           time.Time  `json:"start_at"`
	EndAt             *time.Time `json:"end_at,omitempty"`
	StartingCashCents int64      `gorm:"not null" json:"starting_cash_cents"`
	EndingCashCents   *int64     `json:"ending_cash_cents,omitempty"`
	Note              string     `json:"note"`
}

// IsOpen reports whether the shift has not been closed yet.
func (s *Shift) IsOpen() bool {
	return s.EndAt == nil
}
