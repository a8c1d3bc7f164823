package xlsx

import (
	"bytes"
	"encoding/xml"
	"errors"
	"image"
	"image/color"
	pngenc "image/png"
	"io"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/unidoc/unioffice"
	"github.com/unidoc/unioffice/common"
	"github.com/unidoc/unioffice/schema/soo/sml"
	"github.com/unidoc/unioffice/spreadsheet"

	"github.com/aerissecure/zerocurve/curve"
)

var april = map[int][]string{
	1: {"5.06", "4.72", "4.51", "4.34", "4.33", "4.33", "4.58", "4.47"},
	3: {"5.03", "4.68", "4.48", "4.34", "4.36", "4.36", "4.61", "4.51"},
	5: {"5.05", "4.73", "4.54", "4.38", "4.39", "4.39", "4.65", "4.54"},
}

func testCurve(t *testing.T, day int) *curve.Curve {
	t.Helper()
	cd := curve.CurveDate{Date: time.Date(2024, 4, day, 0, 0, 0, 0, time.UTC), Yields: curve.ParYields{}}
	for i, k := range curve.Knots {
		cd.Yields[k.Name] = decimal.RequireFromString(april[day][i])
	}
	c, err := curve.Build(cd)
	require.NoError(t, err)
	return c
}

func defaultBuilder(t *testing.T) *Builder {
	t.Helper()
	tmpl, err := DefaultTemplate()
	require.NoError(t, err)
	b, err := NewBuilder(tmpl)
	require.NoError(t, err)
	return b
}

func readBack(t *testing.T, data []byte) WorkbookModel {
	t.Helper()
	m, err := ParseWorkbookModel(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	return m
}

func TestDefaultTemplate(t *testing.T) {
	tmpl, err := DefaultTemplate()
	require.NoError(t, err)

	m := readBack(t, tmpl)
	require.Len(t, m.Sheets, 1)
	s := m.Sheets[0]
	assert.Equal(t, "Curve", s.Name)

	v, ok := s.Number("B19")
	require.True(t, ok)
	assert.Equal(t, 12.0, v)
	v, ok = s.Number("B26")
	require.True(t, ok)
	assert.Equal(t, 360.0, v)

	v, ok = s.Number("J3")
	require.True(t, ok)
	assert.Equal(t, 12.0, v)
	v, ok = s.Number("J351")
	require.True(t, ok)
	assert.Equal(t, 360.0, v)

	lnDF, ok := s.Cell("O200")
	require.True(t, ok)
	assert.Contains(t, lnDF.Formula, "MATCH(J200,$B$19:$B$26,1)")
	zero, ok := s.Cell("L3")
	require.True(t, ok)
	assert.Equal(t, "(1+M3)^12-1", zero.Formula)
}

func TestBuilderDescriptors(t *testing.T) {
	b := defaultBuilder(t)
	for _, d := range []int{5, 1, 3} {
		require.NoError(t, b.AddSheet(testCurve(t, d)))
	}

	specs := b.Sheets()
	require.Len(t, specs, 3)
	assert.Equal(t, "2024-04-01", specs[0].Name)
	assert.Equal(t, "2024-04-03", specs[1].Name)
	assert.Equal(t, "2024-04-05", specs[2].Name)

	first := specs[0]
	assert.Equal(t, 0.0506, first.Par[0])
	assert.Equal(t, testCurve(t, 1).Points[0].ZeroRate, first.Zero[0])

	require.Len(t, first.Mini.Series, 1)
	assert.Equal(t, "'2024-04-01'!$B$19:$B$26", first.Mini.Series[0].XRef)
	assert.Equal(t, "'2024-04-01'!$C$19:$C$26", first.Mini.Series[0].YRef)
	require.Len(t, first.Full.Series, 1)
	assert.Equal(t, "'2024-04-01'!$J$3:$J$351", first.Full.Series[0].XRef)
	assert.Equal(t, "'2024-04-01'!$L$3:$L$351", first.Full.Series[0].YRef)
}

func TestBuilderStream(t *testing.T) {
	b := defaultBuilder(t)
	curves := map[string]*curve.Curve{}
	for _, d := range []int{3, 1, 5} {
		c := testCurve(t, d)
		curves[c.Name()] = c
		require.NoError(t, b.AddSheet(c))
	}

	var buf bytes.Buffer
	require.NoError(t, b.Stream(&buf))

	m := readBack(t, buf.Bytes())
	require.Equal(t, []string{"2024-04-01", "2024-04-03", "2024-04-05"}, m.Names())

	for _, s := range m.Sheets {
		c := curves[s.Name]
		assert.False(t, s.GridLines, s.Name)
		for i, zp := range c.Points {
			par, ok := s.Number(cellRef("C", 19+i))
			require.True(t, ok, "%s C%d", s.Name, 19+i)
			assert.InDelta(t, zp.Par, par, 1e-15)

			zero, ok := s.Number(cellRef("E", 19+i))
			require.True(t, ok, "%s E%d", s.Name, 19+i)
			assert.InDelta(t, zp.ZeroRate, zero, 1e-15)
		}
		// Template content survives the copy.
		months, ok := s.Number("J351")
		require.True(t, ok)
		assert.Equal(t, 360.0, months)
	}

	c1, _ := m.Sheets[0].Number("C19")
	c2, _ := m.Sheets[1].Number("C19")
	c3, _ := m.Sheets[2].Number("C19")
	assert.InDeltaSlice(t, []float64{0.0506, 0.0503, 0.0505}, []float64{c1, c2, c3}, 1e-15)
}

// streamedChart is one chart part of a streamed workbook.
type streamedChart struct {
	Part     string
	Title    string
	Formulas []string
}

// streamedDrawing is what a sheet's <drawing> element resolves to.
type streamedDrawing struct {
	Part   string
	Charts map[string]streamedChart // by title
	Images int
}

// chartText collects the title runs and the cell formulas of a chart part.
func chartText(t *testing.T, data []byte) (string, []string) {
	t.Helper()
	var (
		title    strings.Builder
		formulas []string
		inside   string
	)
	dec := xml.NewDecoder(bytes.NewReader(data))
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		switch el := tok.(type) {
		case xml.StartElement:
			inside = el.Name.Local
		case xml.EndElement:
			inside = ""
		case xml.CharData:
			switch inside {
			case "t":
				title.Write(el)
			case "f":
				formulas = append(formulas, string(el))
			}
		}
	}
	return title.String(), formulas
}

func streamedDrawings(t *testing.T, data []byte, sheets []string) map[string]streamedDrawing {
	t.Helper()
	p, err := openPackage(data)
	require.NoError(t, err)

	out := map[string]streamedDrawing{}
	for _, name := range sheets {
		sheet, err := p.sheetPart(name)
		require.NoError(t, err)
		part, err := p.drawingPart(sheet)
		require.NoError(t, err)
		require.NotEmpty(t, part, "sheet %s has no drawing", name)

		d := streamedDrawing{Part: part, Charts: map[string]streamedChart{}}
		rels, err := p.rels(part)
		require.NoError(t, err)
		for _, r := range rels {
			switch {
			case relTyped(r, "image"):
				d.Images++
			case relTyped(r, "chart"):
				cp := resolveTarget(part, r.Target)
				raw, err := p.read(cp)
				require.NoError(t, err)
				title, formulas := chartText(t, raw)
				d.Charts[title] = streamedChart{Part: cp, Title: title, Formulas: formulas}
			}
		}
		out[name] = d
	}
	return out
}

func TestBuilderStreamCharts(t *testing.T) {
	b := defaultBuilder(t)
	for _, d := range []int{1, 3, 5} {
		require.NoError(t, b.AddSheet(testCurve(t, d)))
	}
	var buf bytes.Buffer
	require.NoError(t, b.Stream(&buf))

	names := []string{"2024-04-01", "2024-04-03", "2024-04-05"}
	drawings := streamedDrawings(t, buf.Bytes(), names)

	seen := map[string]bool{}
	for _, name := range names {
		d := drawings[name]
		assert.False(t, seen[d.Part], "drawing %s shared", d.Part)
		seen[d.Part] = true

		require.Len(t, d.Charts, 2, name)
		mini := d.Charts["Par Yields"]
		assert.Equal(t, []string{
			rangeRef(name, "B", 19, 26),
			rangeRef(name, "C", 19, 26),
		}, mini.Formulas)
		full := d.Charts["Zero Rates by Future Monthly Period"]
		assert.Equal(t, []string{
			rangeRef(name, "J", 3, 351),
			rangeRef(name, "L", 3, 351),
		}, full.Formulas)
		assert.Zero(t, d.Images)
	}
}

// templateWithObjects adds a chart and a picture to the default template's sheet.
func templateWithObjects(t *testing.T) []byte {
	t.Helper()
	tmpl, err := DefaultTemplate()
	require.NoError(t, err)
	wb, err := spreadsheet.Read(bytes.NewReader(tmpl), int64(len(tmpl)))
	require.NoError(t, err)
	defer wb.Close()

	dwng := wb.AddDrawing()
	addScatterChart(dwng, ChartSpec{
		Title:  "TEMPLATE CHART",
		Anchor: Anchor{Col: 0, Row: 30, Width: 6, Height: 10},
		Series: []SeriesSpec{{
			Title: "Months",
			XRef:  "'Curve'!$B$19:$B$26",
			YRef:  "'Curve'!$B$19:$B$26",
		}},
	})

	pix := image.NewRGBA(image.Rect(0, 0, 2, 2))
	pix.Set(0, 0, color.Black)
	var png bytes.Buffer
	require.NoError(t, pngenc.Encode(&png, pix))
	img, err := common.ImageFromBytes(png.Bytes())
	require.NoError(t, err)
	iref, err := wb.AddImage(img)
	require.NoError(t, err)
	anc := dwng.AddImage(iref, spreadsheet.AnchorTypeTwoCell)
	anc.MoveTo(8, 30)

	wb.Sheets()[0].SetDrawing(dwng)

	var buf bytes.Buffer
	require.NoError(t, wb.Save(&buf))
	return buf.Bytes()
}

func TestBuilderKeepsTemplateObjects(t *testing.T) {
	b, err := NewBuilder(templateWithObjects(t))
	require.NoError(t, err)
	require.NoError(t, b.AddSheet(testCurve(t, 1)))
	require.NoError(t, b.AddSheet(testCurve(t, 3)))

	var buf bytes.Buffer
	require.NoError(t, b.Stream(&buf))

	names := []string{"2024-04-01", "2024-04-03"}
	drawings := streamedDrawings(t, buf.Bytes(), names)

	drawingParts := map[string]bool{}
	chartParts := map[string]bool{}
	for _, name := range names {
		d := drawings[name]
		assert.False(t, drawingParts[d.Part], "drawing %s shared", d.Part)
		drawingParts[d.Part] = true

		require.Len(t, d.Charts, 3, name)
		tc, ok := d.Charts["TEMPLATE CHART"]
		require.True(t, ok, "template chart missing on %s", name)
		assert.Equal(t, []string{"'Curve'!$B$19:$B$26", "'Curve'!$B$19:$B$26"}, tc.Formulas)
		assert.Contains(t, d.Charts, "Par Yields")
		assert.Contains(t, d.Charts, "Zero Rates by Future Monthly Period")
		assert.Equal(t, 1, d.Images, name)

		for _, c := range d.Charts {
			assert.False(t, chartParts[c.Part], "chart %s shared", c.Part)
			chartParts[c.Part] = true
		}
	}

	m := readBack(t, buf.Bytes())
	c, _ := m.Sheets[1].Number("C19")
	assert.InDelta(t, 0.0503, c, 1e-15)
}

func TestBuilderSingleSheet(t *testing.T) {
	b := defaultBuilder(t)
	require.NoError(t, b.AddSheet(testCurve(t, 1)))

	var buf bytes.Buffer
	require.NoError(t, b.Stream(&buf))
	m := readBack(t, buf.Bytes())
	assert.Equal(t, []string{"2024-04-01"}, m.Names())
}

func TestBuilderEmpty(t *testing.T) {
	b := defaultBuilder(t)
	var buf bytes.Buffer
	err := b.Stream(&buf)
	assert.ErrorIs(t, err, curve.ErrEmptyBatch)
	assert.Zero(t, buf.Len())
}

func TestBuilderRejectsReuse(t *testing.T) {
	b := defaultBuilder(t)
	c := testCurve(t, 1)
	require.NoError(t, b.AddSheet(c))
	assert.ErrorIs(t, b.AddSheet(c), ErrDuplicateSheet)

	var buf bytes.Buffer
	require.NoError(t, b.Stream(&buf))
	assert.ErrorIs(t, b.Stream(&buf), ErrBuilderUsed)
	assert.ErrorIs(t, b.AddSheet(testCurve(t, 3)), ErrBuilderUsed)
}

func templateWithActiveTab(t *testing.T, tab uint32) []byte {
	t.Helper()
	wb := spreadsheet.New()
	defer wb.Close()
	wb.AddSheet().SetName("Curve")
	x := wb.X()
	if x.BookViews == nil {
		x.BookViews = sml.NewCT_BookViews()
	}
	if len(x.BookViews.WorkbookView) == 0 {
		x.BookViews.WorkbookView = append(x.BookViews.WorkbookView, sml.NewCT_BookView())
	}
	x.BookViews.WorkbookView[0].ActiveTabAttr = unioffice.Uint32(tab)

	var buf bytes.Buffer
	require.NoError(t, wb.Save(&buf))
	return buf.Bytes()
}

func TestTemplateErrors(t *testing.T) {
	_, err := LoadTemplate(filepath.Join(t.TempDir(), "missing.xlsx"))
	assert.ErrorIs(t, err, ErrTemplate)

	_, err = NewBuilder(nil)
	assert.ErrorIs(t, err, ErrTemplate)

	tests := []struct {
		name     string
		template []byte
		msg      string
	}{
		{"not a zip", []byte("not a zip"), "unreadable"},
		{"active tab past last sheet", templateWithActiveTab(t, 3), "active sheet 3 does not exist"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := NewBuilder(tt.template)
			require.NoError(t, err)
			require.NoError(t, b.AddSheet(testCurve(t, 1)))

			var buf bytes.Buffer
			err = b.Stream(&buf)
			assert.ErrorIs(t, err, ErrTemplate)
			var te *TemplateError
			require.True(t, errors.As(err, &te))
			assert.Contains(t, te.Error(), tt.msg)
			assert.Zero(t, buf.Len())
		})
	}
}

func TestLayoutValidate(t *testing.T) {
	require.NoError(t, DefaultLayout.Validate())

	l := DefaultLayout
	l.DenseLastRow = 350
	assert.Error(t, l.Validate())

	l = DefaultLayout
	l.ParCol = "1"
	assert.Error(t, l.Validate())

	_, err := NewBuilder([]byte("x"), WithLayout(l))
	assert.Error(t, err)
}

func TestRenderPreviewHTML(t *testing.T) {
	b := defaultBuilder(t)
	require.NoError(t, b.AddSheet(testCurve(t, 1)))
	require.NoError(t, b.AddSheet(testCurve(t, 5)))
	var buf bytes.Buffer
	require.NoError(t, b.Stream(&buf))

	DebugHTML = true
	defer func() { DebugHTML = false }()
	out := RenderPreviewHTML(readBack(t, buf.Bytes()))

	assert.Equal(t, 2, strings.Count(out, "<table"))
	assert.Contains(t, out, `data-name="2024-04-01"`)
	assert.Contains(t, out, `data-name="2024-04-05"`)
	assert.Contains(t, out, `data-ref="C19"`)
	assert.Contains(t, out, "nogrid")
}
