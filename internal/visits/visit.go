// Package visits holds the tracker store model: one row per landed visit.
package visits

import "time"

// Visit is a single landed visit recorded by the tracker. The four tracking
// identifier columns mirror the CRM order columns of the same names.
type Visit struct {
	ID         uint      `gorm:"primaryKey;autoIncrement"`
	VisitorID  string    `gorm:"index;size:64;not null"`
	OccurredAt time.Time `gorm:"index;not null"`

	Network  string `gorm:"index"`
	Campaign string `gorm:"index"`
	Adset    string
	Creative string

	CountryCode string `gorm:"size:2"`
	DeviceType  string
	Browser     string
	LandingPage string
	Language    string `gorm:"size:16"`

	CreatedAt time.Time
}
