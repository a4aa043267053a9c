package vin

import (
	"context"

	"github.com/AbdelzaherMuhammed/hypervel/internal/model"
	"github.com/AbdelzaherMuhammed/hypervel/internal/op"
	"github.com/AbdelzaherMuhammed/hypervel/internal/utils/log"
	"golang.org/x/sync/errgroup"
)

const (
	MsgDataExists = "Data exists!"
	MsgPartial    = "Could not get the full response for this VIN!"

	// Trim name used when a row is linked with the model's default trim
	// and no concrete trim name is available.
	DefaultTrimName = "Default..."

	// Appended to the vendor name in persisted rows so their origin is
	// traceable.
	sourceSuffix = "_api"
)

type Data struct {
	Manufacturer *string `json:"manufacturer"`
	Model        *string `json:"model"`
	Year         *int    `json:"year"`
	Trim         *string `json:"trim"`
}

type Result struct {
	Data    Data
	Full    bool
	Message string
}

type Resolver struct {
	threshold int
	scanLimit int
	fallback  *Fallback
}

func NewResolver(threshold, scanLimit int, fallback *Fallback) *Resolver {
	if threshold <= 0 {
		threshold = 10
	}
	// The threshold slices the query VIN; cap it at the VIN length.
	if threshold > 17 {
		threshold = 17
	}
	if scanLimit <= 0 {
		scanLimit = 1000
	}
	return &Resolver{threshold: threshold, scanLimit: scanLimit, fallback: fallback}
}

// Resolve runs the matching algorithm for an already-validated VIN. The
// historical scan and the fallback preparation run concurrently and are
// joined before the outcome is classified. Persistence of new or matched
// rows never blocks the response path.
func (r *Resolver) Resolve(ctx context.Context, vinStr string, vendor model.Vendor) (Result, error) {
	var candidates []op.VinCandidate

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		candidates, err = op.VinLogScan(gctx, vinStr[:r.threshold], r.scanLimit)
		return err
	})
	g.Go(func() error {
		// Best-effort: a misconfigured fallback must not fail the scan.
		if err := r.fallback.Prepare(gctx); err != nil {
			log.Warnf("fallback preparation failed: %v", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	best, run, found := PickBest(vinStr, candidates, r.threshold)
	if !found {
		return r.resolveViaFallback(ctx, vinStr, vendor), nil
	}
	return r.classify(best, run, vinStr, vendor), nil
}

func (r *Resolver) classify(best op.VinCandidate, run int, vinStr string, vendor model.Vendor) Result {
	row := model.VinLog{
		Vin:             vinStr,
		TrimVin:         trimVin(vinStr),
		MakeID:          best.MakeID,
		ModelID:         best.ModelID,
		YearID:          best.YearID,
		TrimID:          best.TrimID,
		LinkStatus:      best.LinkStatus,
		Source:          sourceOf(vendor),
		VendorID:        vendor.ID,
		ConfidenceLevel: run,
	}
	op.VinLogPersistAsync(row)

	hasIDs := best.MakeID != nil && best.ModelID != nil && best.YearID != nil
	if best.LinkStatus == model.VinLinkNone || !hasIDs {
		data := Data{
			Manufacturer: best.MakeName,
			Model:        best.ModelName,
			Year:         best.YearValue,
			Trim:         best.TrimName,
		}
		if data.Trim == nil && best.LinkStatus == model.VinLinkDefaultTrim {
			data.Trim = strPtr(DefaultTrimName)
		}
		return Result{Data: data, Message: MsgPartial}
	}

	trim := best.TrimName
	if trim == nil && best.LinkStatus == model.VinLinkDefaultTrim {
		trim = strPtr(DefaultTrimName)
	}
	return Result{
		Data: Data{
			Manufacturer: best.MakeName,
			Model:        best.ModelName,
			Year:         best.YearValue,
			Trim:         trim,
		},
		Full:    true,
		Message: MsgDataExists,
	}
}

func (r *Resolver) resolveViaFallback(ctx context.Context, vinStr string, vendor model.Vendor) Result {
	result, err := r.fallback.Lookup(ctx, vinStr)
	if err != nil {
		log.Warnf("fallback lookup failed for %s: %v", vinStr, err)
		// Persist an unlinked row so future queries sharing the prefix
		// have something to match against.
		op.VinLogPersistAsync(model.VinLog{
			Vin:        vinStr,
			TrimVin:    trimVin(vinStr),
			LinkStatus: model.VinLinkNone,
			Source:     sourceOf(vendor),
			VendorID:   vendor.ID,
		})
		return Result{Message: MsgPartial}
	}

	op.VinLogPersistAsync(model.VinLog{
		Vin:             vinStr,
		TrimVin:         trimVin(vinStr),
		LinkStatus:      model.VinLinkNone,
		Source:          sourceOf(vendor),
		VendorID:        vendor.ID,
		ConfidenceLevel: 1,
	})

	data := Data{Year: result.Year}
	if result.Make != "" {
		data.Manufacturer = strPtr(result.Make)
	}
	if result.Model != "" {
		data.Model = strPtr(result.Model)
	}
	if result.Trim != "" {
		data.Trim = strPtr(result.Trim)
	}
	if data.Manufacturer != nil && data.Model != nil && data.Year != nil && data.Trim != nil {
		return Result{Data: data, Full: true, Message: MsgDataExists}
	}
	return Result{Data: data, Message: MsgPartial}
}

func trimVin(vinStr string) string {
	if len(vinStr) < 10 {
		return vinStr
	}
	return vinStr[:10]
}

func sourceOf(vendor model.Vendor) string {
	return vendor.Name + sourceSuffix
}

func strPtr(s string) *string {
	return &s
}
