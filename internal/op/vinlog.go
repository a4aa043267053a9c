package op

import (
	"context"
	"time"

	"github.com/AbdelzaherMuhammed/hypervel/internal/async"
	"github.com/AbdelzaherMuhammed/hypervel/internal/db"
	"github.com/AbdelzaherMuhammed/hypervel/internal/model"
	"github.com/AbdelzaherMuhammed/hypervel/internal/utils/log"
)

// VinCandidate is one historical row joined with its lookup names. It
// only lives for the duration of a resolution.
type VinCandidate struct {
	ID         int64    `json:"id"`
	Vin        string   `json:"vin"`
	MakeID     *int     `json:"make_id"`
	ModelID    *int     `json:"model_id"`
	YearID     *int     `json:"year_id"`
	TrimID     *int     `json:"trim_id"`
	LinkStatus int      `json:"link_status"`
	MakeName   *string  `json:"make_name"`
	ModelName  *string  `json:"model_name"`
	YearValue  *int     `json:"year_value"`
	TrimName   *string  `json:"trim_name"`
	BasePrice  *float64 `json:"base_price"`
}

// VinLogScan fetches up to limit historical records sharing the given VIN
// prefix, most recent first, joined with manufacturer/model/year/trim
// names.
func VinLogScan(ctx context.Context, prefix string, limit int) ([]VinCandidate, error) {
	var rows []VinCandidate
	err := vinPool.Do(ctx, func() error {
		return db.GetDB().WithContext(ctx).
			Table("vin_logs").
			Select("vin_logs.id, vin_logs.vin, vin_logs.make_id, vin_logs.model_id, vin_logs.year_id, vin_logs.trim_id, vin_logs.link_status, " +
				"car_makes.name AS make_name, car_models.name AS model_name, car_years.year AS year_value, " +
				"car_trims.name AS trim_name, car_trims.base_price AS base_price").
			Joins("LEFT JOIN car_makes ON car_makes.id = vin_logs.make_id").
			Joins("LEFT JOIN car_models ON car_models.id = vin_logs.model_id").
			Joins("LEFT JOIN car_years ON car_years.id = vin_logs.year_id").
			Joins("LEFT JOIN car_trims ON car_trims.id = vin_logs.trim_id").
			Where("vin_logs.vin LIKE ?", prefix+"%").
			Order("vin_logs.id DESC").
			Limit(limit).
			Scan(&rows).Error
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// VinLogCreate appends a new resolution record. Rows are never updated in
// place; every resolution that discovers or confirms a match writes a new
// one.
func VinLogCreate(ctx context.Context, row *model.VinLog) error {
	return vinPool.Do(ctx, func() error {
		return db.GetDB().WithContext(ctx).Create(row).Error
	})
}

// VinLogPersistAsync is the fire-and-forget variant used on the response
// path.
func VinLogPersistAsync(row model.VinLog) {
	async.Submit(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := VinLogCreate(ctx, &row); err != nil {
			log.Errorf("failed to persist vin log for %s: %v", row.Vin, err)
		}
	})
}
