package export

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/gocarina/gocsv"
	"gonum.org/v1/gonum/floats/scalar"

	"github.com/litescript/ls-armillary/internal/ephem"
)

// LongitudeRow is one sample of a tabulated ephemeris. The columns are the
// ones ephem.LoadTable reads back.
type LongitudeRow struct {
	JD        float64 `csv:"jd"`
	Body      string  `csv:"body"`
	Longitude float64 `csv:"longitude"`
	Source    string  `csv:"source"`
}

// SampleLongitudes evaluates p for each body every stepDays from startJD up
// to and including endJD. Bodies the provider cannot serve are skipped; a
// cancelled context stops the run.
func SampleLongitudes(ctx context.Context, p ephem.Provider, bodies []ephem.Body, startJD, endJD, stepDays float64) ([]*LongitudeRow, error) {
	if stepDays <= 0 {
		return nil, fmt.Errorf("sample longitudes: step %.4f must be positive", stepDays)
	}
	if endJD < startJD {
		return nil, fmt.Errorf("sample longitudes: end %.4f before start %.4f", endJD, startJD)
	}

	n := int((endJD-startJD)/stepDays+1e-9) + 1
	var rows []*LongitudeRow
	for _, body := range bodies {
		if !p.Available(body) {
			continue
		}
		for i := 0; i < n; i++ {
			jd := startJD + float64(i)*stepDays
			lon, err := p.Longitude(ctx, body, jd)
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return rows, ctxErr
				}
				if errors.Is(err, ephem.ErrUnavailable) {
					continue
				}
				return rows, fmt.Errorf("sample %s at JD %.4f: %w", body, jd, err)
			}
			rows = append(rows, &LongitudeRow{
				JD:        jd,
				Body:      body.String(),
				Longitude: scalar.Round(lon.Deg(), 6),
				Source:    lon.Source,
			})
		}
	}
	return rows, nil
}

// WriteLongitudeCSV writes sampled longitudes as CSV with a header row.
func WriteLongitudeCSV(w io.Writer, rows []*LongitudeRow) error {
	if err := gocsv.Marshal(rows, w); err != nil {
		return fmt.Errorf("write longitude csv: %w", err)
	}
	return nil
}
