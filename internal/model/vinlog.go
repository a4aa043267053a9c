package model

// Link status of a VIN log row.
//
//	0: unlinked, identifiers unresolved
//	1: linked to a concrete trim
//	2: linked with the default trim for the model
const (
	VinLinkNone        = 0
	VinLinkTrim        = 1
	VinLinkDefaultTrim = 2
)

// VinLog is append-only: a new resolution writes a new row, existing rows
// are never updated in place.
type VinLog struct {
	ID              int64  `json:"id" gorm:"primaryKey"`
	Vin             string `json:"vin" gorm:"size:17;index;not null"`
	TrimVin         string `json:"trim_vin" gorm:"size:10;index;not null"`
	MakeID          *int   `json:"make_id"`
	ModelID         *int   `json:"model_id"`
	YearID          *int   `json:"year_id"`
	TrimID          *int   `json:"trim_id"`
	LinkStatus      int    `json:"link_status" gorm:"default:0"`
	Source          string `json:"source"`
	VendorID        int    `json:"vendor_id" gorm:"index"`
	ConfidenceLevel int    `json:"confidence_level"`
	CreatedAt       int64  `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt       int64  `json:"updated_at" gorm:"autoUpdateTime"`
}
