// Package zerocurve turns par yield quotes into zero curves and exports them as CSV tables,
// PNG charts, XLSX workbooks and DOCX reports.
package zerocurve

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/aerissecure/zerocurve/curve"
)

var ErrDuplicateDate = errors.New("curve date requested twice")

// DefaultWorkers bounds the per-date fan-out when Exporter.Workers is unset.
const DefaultWorkers = 4

// Exporter builds the curves for a batch of dates and packages them. The zero value is
// usable: it exports workbooks from xlsx.DefaultTemplate and logs nothing.
type Exporter struct {
	Template []byte // xlsx template; nil uses the built-in one
	Logger   *zap.Logger
	Workers  int

	ChartWidth  int
	ChartHeight int
}

func (e *Exporter) logger() *zap.Logger {
	if e.Logger == nil {
		return zap.NewNop()
	}
	return e.Logger
}

func (e *Exporter) workers() int {
	if e.Workers > 0 {
		return e.Workers
	}
	return DefaultWorkers
}

func datePart(t time.Time, sep string) string {
	return fmt.Sprintf("%d%s%d%s%d", t.Year(), sep, int(t.Month()), sep, t.Day())
}

// FileStem names a batch: curve_2024-4-1 for one date, curve_2024.4.1-2024.4.5 for a range
// spanning the earliest and latest date. It returns "" for no dates.
func FileStem(dates []time.Time) string {
	switch len(dates) {
	case 0:
		return ""
	case 1:
		return "curve_" + datePart(dates[0], "-")
	}
	sorted := append([]time.Time(nil), dates...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Before(sorted[j]) })
	return "curve_" + datePart(sorted[0], ".") + "-" + datePart(sorted[len(sorted)-1], ".")
}

func curveDates(curves []*curve.Curve) []time.Time {
	out := make([]time.Time, len(curves))
	for i, c := range curves {
		out[i] = c.Date
	}
	return out
}

// Build converts and densifies every date concurrently and returns the curves in ascending
// date order. Any failing date fails the batch.
func (e *Exporter) Build(ctx context.Context, dates []curve.CurveDate) ([]*curve.Curve, error) {
	if len(dates) == 0 {
		return nil, curve.ErrEmptyBatch
	}
	sorted := append([]curve.CurveDate(nil), dates...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })
	for i := 1; i < len(sorted); i++ {
		if sorted[i].Date.Equal(sorted[i-1].Date) {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateDate, sorted[i].Date.Format(curve.DateLayout))
		}
	}

	out := make([]*curve.Curve, len(sorted))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers())
	for i, cd := range sorted {
		i, cd := i, cd
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			c, err := curve.Build(cd)
			if err != nil {
				return err
			}
			out[i] = c
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	e.logger().Debug("built curves", zap.Int("dates", len(out)), zap.Strings("names", curveNames(out)))
	return out, nil
}

func curveNames(curves []*curve.Curve) []string {
	out := make([]string, len(curves))
	for i, c := range curves {
		out[i] = c.Name()
	}
	return out
}

// CSV exports one table per date: a bare .csv for a single date, otherwise a .zip with one
// entry per date.
func (e *Exporter) CSV(ctx context.Context, dates []curve.CurveDate) (Artifact, error) {
	curves, err := e.Build(ctx, dates)
	if err != nil {
		return Artifact{}, err
	}

	files := make([]Artifact, len(curves))
	for i, c := range curves {
		var buf bytes.Buffer
		if err := WriteTable(&buf, c.Series); err != nil {
			return Artifact{}, fmt.Errorf("csv %s: %w", c.Name(), err)
		}
		files[i] = Artifact{
			Name:        FileStem([]time.Time{c.Date}) + ".csv",
			ContentType: ContentTypeCSV,
			Data:        buf.Bytes(),
		}
	}
	return e.bundle(FileStem(curveDates(curves)), files)
}

// Charts exports one PNG per date, zipped when there is more than one.
func (e *Exporter) Charts(ctx context.Context, dates []curve.CurveDate) (Artifact, error) {
	curves, err := e.Build(ctx, dates)
	if err != nil {
		return Artifact{}, err
	}
	pngs, err := e.renderCharts(ctx, curves)
	if err != nil {
		return Artifact{}, err
	}

	files := make([]Artifact, len(curves))
	for i, c := range curves {
		files[i] = Artifact{
			Name:        FileStem([]time.Time{c.Date}) + ".png",
			ContentType: ContentTypePNG,
			Data:        pngs[i],
		}
	}
	return e.bundle(FileStem(curveDates(curves)), files)
}

func (e *Exporter) renderCharts(ctx context.Context, curves []*curve.Curve) ([][]byte, error) {
	out := make([][]byte, len(curves))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers())
	for i, c := range curves {
		i, c := i, c
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			png, err := RenderChart(c.Series, WithChartSize(e.ChartWidth, e.ChartHeight))
			if err != nil {
				return fmt.Errorf("chart %s: %w", c.Name(), err)
			}
			out[i] = png
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// bundle returns a single file unchanged and zips several under stem.zip.
func (e *Exporter) bundle(stem string, files []Artifact) (Artifact, error) {
	if len(files) == 1 {
		e.logger().Debug("exported", zap.String("name", files[0].Name), zap.Int("bytes", len(files[0].Data)))
		return files[0], nil
	}
	data, err := zipFiles(files)
	if err != nil {
		return Artifact{}, err
	}
	a := Artifact{Name: stem + ".zip", ContentType: ContentTypeZip, Data: data}
	e.logger().Debug("exported", zap.String("name", a.Name), zap.Int("entries", len(files)), zap.Int("bytes", len(data)))
	return a, nil
}

func zipFiles(files []Artifact) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, f := range files {
		w, err := zw.CreateHeader(&zip.FileHeader{Name: f.Name, Method: zip.Deflate})
		if err != nil {
			return nil, fmt.Errorf("zip %s: %w", f.Name, err)
		}
		if _, err := w.Write(f.Data); err != nil {
			return nil, fmt.Errorf("zip %s: %w", f.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
