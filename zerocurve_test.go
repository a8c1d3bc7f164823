package zerocurve

import (
	"archive/zip"
	"bytes"
	"context"
	"image/png"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/aerissecure/zerocurve/curve"
	"github.com/aerissecure/zerocurve/docx"
	"github.com/aerissecure/zerocurve/xlsx"
)

var april = map[int][]string{
	1: {"5.06", "4.72", "4.51", "4.34", "4.33", "4.33", "4.58", "4.47"},
	3: {"5.03", "4.68", "4.48", "4.34", "4.36", "4.36", "4.61", "4.51"},
	5: {"5.05", "4.73", "4.54", "4.38", "4.39", "4.39", "4.65", "4.54"},
}

func day(d int) time.Time { return time.Date(2024, 4, d, 0, 0, 0, 0, time.UTC) }

func quotes(days ...int) []curve.CurveDate {
	out := make([]curve.CurveDate, 0, len(days))
	for _, d := range days {
		cd := curve.CurveDate{Date: day(d), Yields: curve.ParYields{}}
		for i, k := range curve.Knots {
			cd.Yields[k.Name] = decimal.RequireFromString(april[d][i])
		}
		out = append(out, cd)
	}
	return out
}

func buildOne(t *testing.T, d int) *curve.Curve {
	t.Helper()
	c, err := curve.Build(quotes(d)[0])
	require.NoError(t, err)
	return c
}

// unzip returns the entry names in archive order and their contents.
func unzip(t *testing.T, data []byte) ([]string, map[string][]byte) {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	out := map[string][]byte{}
	var names []string
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		var buf bytes.Buffer
		_, err = buf.ReadFrom(rc)
		require.NoError(t, err)
		rc.Close()
		out[f.Name] = buf.Bytes()
		names = append(names, f.Name)
	}
	return names, out
}

func TestFileStem(t *testing.T) {
	tests := []struct {
		name  string
		dates []time.Time
		want  string
	}{
		{"none", nil, ""},
		{"single", []time.Time{day(1)}, "curve_2024-4-1"},
		{"range", []time.Time{day(1), day(3), day(5)}, "curve_2024.4.1-2024.4.5"},
		{"unsorted", []time.Time{day(5), day(1), day(3)}, "curve_2024.4.1-2024.4.5"},
		{"two digit", []time.Time{time.Date(2023, 12, 29, 0, 0, 0, 0, time.UTC)}, "curve_2023-12-29"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FileStem(tt.dates))
		})
	}
}

func TestTableRoundTrip(t *testing.T) {
	c := buildOne(t, 1)

	var buf bytes.Buffer
	require.NoError(t, WriteTable(&buf, c.Series))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, curve.SeriesLen+1)
	assert.Equal(t, "Months,Par,Zero,,DF,ln(DF)", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "12,0.0506,"), lines[1])
	assert.True(t, strings.HasPrefix(lines[2], "13,,"), lines[2])
	assert.True(t, strings.HasPrefix(lines[curve.SeriesLen], "360,0.0447,"), lines[curve.SeriesLen])

	rows, err := ReadTable(&buf)
	require.NoError(t, err)
	assert.Equal(t, c.Series.Rows(), rows)
}

func TestReadTableErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"bad header", "Months,Par,Zero,Rate,DF,ln(DF)\n"},
		{"short record", "Months,Par,Zero,,DF,ln(DF)\n12,0.05,0.05\n"},
		{"bad months", "Months,Par,Zero,,DF,ln(DF)\ntwelve,,1,1,1,1\n"},
		{"bad df", "Months,Par,Zero,,DF,ln(DF)\n12,,1,1,x,1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadTable(strings.NewReader(tt.input))
			assert.Error(t, err)
		})
	}
}

func TestRenderChart(t *testing.T) {
	c := buildOne(t, 1)

	data, err := RenderChart(c.Series)
	require.NoError(t, err)
	cfg, err := png.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, DefaultChartWidth, cfg.Width)
	assert.Equal(t, DefaultChartHeight, cfg.Height)

	again, err := RenderChart(c.Series)
	require.NoError(t, err)
	assert.Equal(t, data, again)

	small, err := RenderChart(c.Series, WithChartSize(320, 0))
	require.NoError(t, err)
	cfg, err = png.DecodeConfig(bytes.NewReader(small))
	require.NoError(t, err)
	assert.Equal(t, 320, cfg.Width)
	assert.Equal(t, DefaultChartHeight, cfg.Height)

	_, err = RenderChart(nil)
	assert.Error(t, err)
}

func TestExporterCSV(t *testing.T) {
	e := &Exporter{Logger: zaptest.NewLogger(t), Workers: 2}

	single, err := e.CSV(context.Background(), quotes(1))
	require.NoError(t, err)
	assert.Equal(t, "curve_2024-4-1.csv", single.Name)
	assert.Equal(t, ContentTypeCSV, single.ContentType)

	batch, err := e.CSV(context.Background(), quotes(5, 1, 3))
	require.NoError(t, err)
	assert.Equal(t, "curve_2024.4.1-2024.4.5.zip", batch.Name)
	assert.Equal(t, ContentTypeZip, batch.ContentType)

	names, files := unzip(t, batch.Data)
	assert.Equal(t, []string{"curve_2024-4-1.csv", "curve_2024-4-3.csv", "curve_2024-4-5.csv"}, names)
	assert.Equal(t, single.Data, files["curve_2024-4-1.csv"])
}

func TestExporterCharts(t *testing.T) {
	e := &Exporter{ChartWidth: 400, ChartHeight: 300}

	single, err := e.Charts(context.Background(), quotes(3))
	require.NoError(t, err)
	assert.Equal(t, "curve_2024-4-3.png", single.Name)
	cfg, err := png.DecodeConfig(bytes.NewReader(single.Data))
	require.NoError(t, err)
	assert.Equal(t, 400, cfg.Width)

	batch, err := e.Charts(context.Background(), quotes(1, 3))
	require.NoError(t, err)
	assert.Equal(t, "curve_2024.4.1-2024.4.3.zip", batch.Name)
	names, files := unzip(t, batch.Data)
	assert.Equal(t, []string{"curve_2024-4-1.png", "curve_2024-4-3.png"}, names)
	assert.Equal(t, single.Data, files["curve_2024-4-3.png"])
}

func TestExporterWorkbook(t *testing.T) {
	e := &Exporter{Logger: zaptest.NewLogger(t)}

	a, err := e.Workbook(context.Background(), quotes(3, 5, 1))
	require.NoError(t, err)
	assert.Equal(t, "curve_2024.4.1-2024.4.5.xlsx", a.Name)
	assert.Equal(t, ContentTypeXLSX, a.ContentType)

	m, err := xlsx.ParseWorkbookModel(bytes.NewReader(a.Data), int64(len(a.Data)))
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-04-01", "2024-04-03", "2024-04-05"}, m.Names())

	one, err := e.Workbook(context.Background(), quotes(1))
	require.NoError(t, err)
	assert.Equal(t, "curve_2024-4-1.xlsx", one.Name)
}

func TestExporterReport(t *testing.T) {
	e := &Exporter{ChartWidth: 320, ChartHeight: 240}

	a, err := e.Report(context.Background(), quotes(5, 1))
	require.NoError(t, err)
	assert.Equal(t, "curve_2024.4.1-2024.4.5.docx", a.Name)

	m, err := docx.ParseReport(bytes.NewReader(a.Data), int64(len(a.Data)))
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-04-01", "2024-04-05"}, m.Headings())
	assert.Equal(t, 2, m.Drawings())
}

func TestExporterErrors(t *testing.T) {
	e := &Exporter{}
	ctx := context.Background()

	for name, export := range map[string]func(context.Context, []curve.CurveDate) (Artifact, error){
		"csv":      e.CSV,
		"charts":   e.Charts,
		"workbook": e.Workbook,
		"report":   e.Report,
	} {
		t.Run(name, func(t *testing.T) {
			a, err := export(ctx, nil)
			assert.ErrorIs(t, err, curve.ErrEmptyBatch)
			assert.Empty(t, a.Data)

			_, err = export(ctx, quotes(1, 1))
			assert.ErrorIs(t, err, ErrDuplicateDate)

			bad := quotes(1, 3)
			delete(bad[1].Yields, "ten_year")
			a, err = export(ctx, bad)
			assert.ErrorIs(t, err, curve.ErrMissingQuote)
			assert.Empty(t, a.Data)
		})
	}
}

func TestExporterCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := (&Exporter{}).CSV(ctx, quotes(1, 3, 5))
	assert.ErrorIs(t, err, context.Canceled)
}
