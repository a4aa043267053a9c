package model

const (
	VendorStatusActive   = "active"
	VendorStatusInactive = "inactive"
)

type Vendor struct {
	ID          int             `json:"id" gorm:"primaryKey"`
	Name        string          `json:"name" gorm:"not null"`
	APIKey      string          `json:"api_key" gorm:"uniqueIndex;not null"`
	Status      string          `json:"status" gorm:"default:active;index"`
	Permissions map[string]bool `json:"permissions" gorm:"serializer:json"`
}

func (v *Vendor) IsActive() bool {
	return v.Status == VendorStatusActive
}
