// Package crm holds the conversion store model: order and subscription
// records written by the operational CRM.
package crm

import "time"

// Order is one CRM order record. The tracking identifier columns are
// best-effort copies of the tracker's values and may hold NULL or the
// literal string "null" from legacy writers; Country carries the full
// English country name from the billing address, not an ISO code.
type Order struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"`
	CreatedAt time.Time `gorm:"index;not null"`

	// VisitorID is shared with the tracker when the visitor cookie survived
	// to checkout; empty otherwise.
	VisitorID string `gorm:"index;size:64"`

	Network  string `gorm:"index"`
	Campaign string `gorm:"index"`
	Adset    string
	Creative string

	Country string

	IsTrial    bool `gorm:"index"`
	IsApproved bool `gorm:"index"`
}
