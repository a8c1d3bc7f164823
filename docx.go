package zerocurve

import (
	"bytes"
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/aerissecure/zerocurve/curve"
	"github.com/aerissecure/zerocurve/docx"
)

// Report exports all dates as one document with a knot table and chart per date.
func (e *Exporter) Report(ctx context.Context, dates []curve.CurveDate) (Artifact, error) {
	curves, err := e.Build(ctx, dates)
	if err != nil {
		return Artifact{}, err
	}
	pngs, err := e.renderCharts(ctx, curves)
	if err != nil {
		return Artifact{}, err
	}

	sections := make([]docx.Section, len(curves))
	for i, c := range curves {
		sections[i] = docx.Section{Curve: c, Chart: pngs[i]}
	}
	var buf bytes.Buffer
	if err := docx.WriteReport(&buf, sections); err != nil {
		return Artifact{}, fmt.Errorf("report: %w", err)
	}
	a := Artifact{
		Name:        FileStem(curveDates(curves)) + ".docx",
		ContentType: ContentTypeDOCX,
		Data:        buf.Bytes(),
	}
	e.logger().Debug("exported", zap.String("name", a.Name), zap.Int("sections", len(curves)), zap.Int("bytes", len(a.Data)))
	return a, nil
}
