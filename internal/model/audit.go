package model

// APICallLog records one authorized API call, written out of band of the
// response path.
type APICallLog struct {
	ID              int64  `json:"id" gorm:"primaryKey"`
	VendorID        int    `json:"vendor_id" gorm:"index"`
	Endpoint        string `json:"endpoint" gorm:"index"`
	RequestPayload  string `json:"request_payload"`
	ResponsePayload string `json:"response_payload"`
	ClientIP        string `json:"client_ip"`
	UserAgent       string `json:"user_agent"`
	DurationMs      int    `json:"duration_ms"`
	CreatedAt       int64  `json:"created_at" gorm:"autoCreateTime"`
}

// AuthAttempt records a denied authentication, keyed by whatever the
// caller presented.
type AuthAttempt struct {
	ID        int64  `json:"id" gorm:"primaryKey"`
	APIKey    string `json:"api_key"`
	Endpoint  string `json:"endpoint"`
	ClientIP  string `json:"client_ip"`
	Reason    string `json:"reason"`
	CreatedAt int64  `json:"created_at" gorm:"autoCreateTime"`
}
