package model

// Lookup tables joined against VinLog rows during resolution.

type CarMake struct {
	ID   int    `json:"id" gorm:"primaryKey"`
	Name string `json:"name" gorm:"not null"`
}

type CarModel struct {
	ID     int    `json:"id" gorm:"primaryKey"`
	MakeID int    `json:"make_id" gorm:"index"`
	Name   string `json:"name" gorm:"not null"`
}

type CarYear struct {
	ID   int `json:"id" gorm:"primaryKey"`
	Year int `json:"year" gorm:"not null"`
}

type CarTrim struct {
	ID        int     `json:"id" gorm:"primaryKey"`
	ModelID   int     `json:"model_id" gorm:"index"`
	Name      string  `json:"name" gorm:"not null"`
	BasePrice float64 `json:"base_price"`
}
