package model

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// Issue is a persisted civic report. Column names follow the existing
// "issues" table the mobile client writes to.
type Issue struct {
	ID           int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	Title        string         `gorm:"not null;size:255" json:"title"`
	Category     string         `gorm:"not null;size:100;index" json:"category"`
	Priority     string         `gorm:"not null;size:10;default:'Medium'" json:"priority"`
	Description  string         `gorm:"type:text" json:"description"`
	Img          *string        `gorm:"column:img;type:text" json:"img"`
	Latitude     float64        `gorm:"not null" json:"latitude"`
	Longitude    float64        `gorm:"not null" json:"longitude"`
	City         *string        `gorm:"size:255" json:"city"`
	District     *string        `gorm:"size:255" json:"district"`
	Region       *string        `gorm:"size:255" json:"region"`
	PostalCode   *string        `gorm:"column:postalcode;size:32" json:"postalcode"`
	Country      *string        `gorm:"size:255" json:"country"`
	ReporterID   *string        `gorm:"size:64;index" json:"reporter_id,omitempty"`
	Verification datatypes.JSON `gorm:"type:jsonb" json:"verification,omitempty"`
	CreatedAt    time.Time      `gorm:"index" json:"created_at"`
}

func (Issue) TableName() string {
	return "issues"
}

// VerificationAudit records the gateway verdict that let a report through
type VerificationAudit struct {
	Related   bool      `json:"related"`
	Raw       string    `json:"raw"`
	CheckedAt time.Time `json:"checked_at"`
}

// AuditJSON encodes an audit for the verification column
func AuditJSON(audit VerificationAudit) datatypes.JSON {
	payload, err := json.Marshal(audit)
	if err != nil {
		return nil
	}
	return datatypes.JSON(payload)
}
