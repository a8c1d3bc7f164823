package zerocurve

import (
	"bytes"
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/aerissecure/zerocurve/curve"
	"github.com/aerissecure/zerocurve/xlsx"
)

// Workbook exports all dates as one workbook with a sheet per date.
func (e *Exporter) Workbook(ctx context.Context, dates []curve.CurveDate) (Artifact, error) {
	curves, err := e.Build(ctx, dates)
	if err != nil {
		return Artifact{}, err
	}

	tmpl := e.Template
	if tmpl == nil {
		if tmpl, err = xlsx.DefaultTemplate(); err != nil {
			return Artifact{}, err
		}
	}
	b, err := xlsx.NewBuilder(tmpl, xlsx.WithLogger(e.logger()))
	if err != nil {
		return Artifact{}, err
	}
	for _, c := range curves {
		if err := b.AddSheet(c); err != nil {
			return Artifact{}, fmt.Errorf("workbook: %w", err)
		}
	}

	var buf bytes.Buffer
	if err := b.Stream(&buf); err != nil {
		return Artifact{}, fmt.Errorf("workbook: %w", err)
	}
	a := Artifact{
		Name:        FileStem(curveDates(curves)) + ".xlsx",
		ContentType: ContentTypeXLSX,
		Data:        buf.Bytes(),
	}
	e.logger().Debug("exported", zap.String("name", a.Name), zap.Int("sheets", len(curves)), zap.Int("bytes", len(a.Data)))
	return a, nil
}
