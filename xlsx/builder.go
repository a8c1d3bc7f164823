// Package xlsx builds curve workbooks from a template and reads them back for inspection.
package xlsx

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/aerissecure/zerocurve/curve"
)

var (
	ErrDuplicateSheet = errors.New("sheet already added for date")
	ErrBuilderUsed    = errors.New("builder already streamed")
)

// SeriesSpec is one scatter series given by sheet-qualified cell ranges.
type SeriesSpec struct {
	Title string
	XRef  string
	YRef  string
}

// ChartSpec describes one embedded chart object.
type ChartSpec struct {
	Title  string
	Anchor Anchor
	Series []SeriesSpec
}

// SheetSpec is everything the builder writes into one worksheet.
type SheetSpec struct {
	Name string
	Date time.Time
	Par  [curve.KnotCount]float64 // fraction of one
	Zero [curve.KnotCount]float64 // monthly effective, knot level only
	Mini ChartSpec
	Full ChartSpec
}

// Builder accumulates one sheet descriptor per curve date and writes the workbook in
// Stream. Descriptors are append-only until Stream. A Builder serves a single export and
// is not safe for concurrent use.
type Builder struct {
	template []byte
	layout   Layout
	log      *zap.Logger

	sheets   []SheetSpec
	names    map[string]bool
	streamed bool
}

type Option func(*Builder)

func WithLayout(l Layout) Option { return func(b *Builder) { b.layout = l } }

func WithLogger(l *zap.Logger) Option {
	return func(b *Builder) {
		if l != nil {
			b.log = l
		}
	}
}

// NewBuilder returns a builder over template bytes, usually from LoadTemplate or
// DefaultTemplate.
func NewBuilder(template []byte, opts ...Option) (*Builder, error) {
	b := &Builder{
		template: template,
		layout:   DefaultLayout,
		log:      zap.NewNop(),
		names:    map[string]bool{},
	}
	for _, opt := range opts {
		opt(b)
	}
	if err := b.layout.Validate(); err != nil {
		return nil, err
	}
	if len(template) == 0 {
		return nil, &TemplateError{Msg: "empty template"}
	}
	return b, nil
}

// AddSheet appends the descriptor for c. Knot values come straight from the rate
// conversion, not from the dense series.
func (b *Builder) AddSheet(c *curve.Curve) error {
	if b.streamed {
		return ErrBuilderUsed
	}
	name := c.Name()
	if b.names[name] {
		return fmt.Errorf("%w %s", ErrDuplicateSheet, name)
	}
	if len(c.Points) != curve.KnotCount {
		return fmt.Errorf("sheet %s: got %d knot points, want %d", name, len(c.Points), curve.KnotCount)
	}

	l := b.layout
	spec := SheetSpec{Name: name, Date: c.Date}
	for i, zp := range c.Points {
		spec.Par[i] = zp.Par
		spec.Zero[i] = zp.ZeroRate
	}
	spec.Mini = ChartSpec{
		Title:  "Par Yields",
		Anchor: l.MiniChart,
		Series: []SeriesSpec{{
			Title: "Par",
			XRef:  rangeRef(name, l.KnotMonthCol, l.KnotFirstRow, l.KnotLastRow()),
			YRef:  rangeRef(name, l.ParCol, l.KnotFirstRow, l.KnotLastRow()),
		}},
	}
	spec.Full = ChartSpec{
		Title:  "Zero Rates by Future Monthly Period",
		Anchor: l.FullChart,
		Series: []SeriesSpec{{
			Title: "Zero",
			XRef:  rangeRef(name, l.DenseMonthCol, l.DenseFirstRow, l.DenseLastRow),
			YRef:  rangeRef(name, l.DenseZeroCol, l.DenseFirstRow, l.DenseLastRow),
		}},
	}

	b.names[name] = true
	b.sheets = append(b.sheets, spec)
	b.log.Debug("sheet added", zap.String("sheet", name), zap.Int("sheets", len(b.sheets)))
	return nil
}

// Sheets returns a copy of the descriptors ordered by date ascending.
func (b *Builder) Sheets() []SheetSpec {
	out := make([]SheetSpec, len(b.sheets))
	copy(out, b.sheets)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// Stream materializes every descriptor into the template and writes the workbook to w.
// The template's active sheet takes the first date; each later date gets a copy of the
// sheet before it. The template workbook is closed before Stream returns.
func (b *Builder) Stream(w io.Writer) (err error) {
	if b.streamed {
		return ErrBuilderUsed
	}
	b.streamed = true

	specs := b.Sheets()
	if len(specs) == 0 {
		return curve.ErrEmptyBatch
	}

	wb, err := openTemplate(b.template)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := wb.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("close workbook: %w", cerr)
		}
	}()

	idx, err := activeSheet(wb)
	if err != nil {
		return err
	}
	td, err := readTemplateDrawing(b.template, wb.Sheets()[idx].Name())
	if err != nil {
		return err
	}

	sheets, err := duplicateSheets(wb, idx, specs)
	if err != nil {
		return err
	}
	for i, spec := range specs {
		if err := populate(wb, sheets[i], b.layout, spec, i == 0, td); err != nil {
			return err
		}
		b.log.Debug("sheet written", zap.String("sheet", spec.Name), zap.Bool("template_drawing", td != nil))
	}

	if err := wb.Save(w); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	b.log.Info("workbook streamed", zap.Int("sheets", len(specs)))
	return nil
}
