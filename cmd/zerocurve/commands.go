package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/aerissecure/zerocurve"
	"github.com/aerissecure/zerocurve/curve"
	"github.com/aerissecure/zerocurve/docx"
	"github.com/aerissecure/zerocurve/quotes"
	"github.com/aerissecure/zerocurve/xlsx"
)

var (
	quotesPath string
	dateArgs   []string
	format     string
	outDir     string
	dense      bool
	bootstrap  bool
	previewOut string
)

func init() {
	for _, c := range []*cobra.Command{ratesCmd, exportCmd} {
		c.Flags().StringVarP(&quotesPath, "quotes", "q", "", "Treasury par yield CSV")
		c.Flags().StringSliceVarP(&dateArgs, "date", "d", nil, "curve date (YYYY-MM-DD or MM/DD/YYYY), repeatable; default all")
		_ = c.MarkFlagRequired("quotes")
	}
	ratesCmd.Flags().BoolVar(&dense, "dense", false, "print the monthly table as CSV instead of the knots")
	ratesCmd.Flags().BoolVar(&bootstrap, "bootstrap", false, "print coupon-bootstrapped zero rates next to the closed form")

	exportCmd.Flags().StringVarP(&format, "format", "f", "xlsx", "csv, xlsx, png or docx")
	exportCmd.Flags().StringVarP(&outDir, "out", "o", "", "output directory (default from config)")

	previewCmd.Flags().StringVarP(&previewOut, "out", "o", "", "write HTML here instead of stdout")
}

func loadDates() ([]curve.CurveDate, error) {
	f, err := os.Open(quotesPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	all, err := quotes.ParseTreasuryCSV(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", quotesPath, err)
	}
	var want []time.Time
	for _, s := range dateArgs {
		d, err := quotes.ParseDate(s)
		if err != nil {
			return nil, err
		}
		want = append(want, d)
	}
	return quotes.Select(all, want)
}

var ratesCmd = &cobra.Command{
	Use:   "rates",
	Short: "Print knot zero rates for the selected dates",
	RunE: func(cmd *cobra.Command, args []string) error {
		dates, err := loadDates()
		if err != nil {
			return err
		}
		e := &zerocurve.Exporter{Logger: logger, Workers: cfg.Workers}
		curves, err := e.Build(cmd.Context(), dates)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if dense {
			for _, c := range curves {
				fmt.Fprintf(out, "# %s\n", c.Name())
				if err := zerocurve.WriteTable(out, c.Series); err != nil {
					return err
				}
			}
			return nil
		}

		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		header := "DATE\tMATURITY\tMONTHS\tPAR %\tZERO (MONTHLY)\tZERO (ANNUAL)"
		if bootstrap {
			header += "\tBOOTSTRAP (MONTHLY)"
		}
		fmt.Fprintln(tw, header)
		byDate := make(map[time.Time]curve.CurveDate, len(dates))
		for _, cd := range dates {
			byDate[cd.Date] = cd
		}
		for _, c := range curves {
			var boot []curve.ZeroPoint
			if bootstrap {
				if boot, err = curve.BootstrapZeroRates(byDate[c.Date]); err != nil {
					return err
				}
			}
			for j, zp := range c.Points {
				row, _ := c.Series.At(zp.Knot.Months)
				cols := []string{
					c.Name(),
					zp.Knot.Name,
					strconv.Itoa(zp.Knot.Months),
					strconv.FormatFloat(zp.Par*100, 'f', 2, 64),
					strconv.FormatFloat(zp.ZeroRate, 'f', 8, 64),
					strconv.FormatFloat(row.Zero, 'f', 6, 64),
				}
				if boot != nil {
					cols = append(cols, strconv.FormatFloat(boot[j].ZeroRate, 'f', 8, 64))
				}
				fmt.Fprintln(tw, strings.Join(cols, "\t"))
			}
		}
		return tw.Flush()
	},
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export curves as csv, xlsx, png or docx",
	RunE: func(cmd *cobra.Command, args []string) error {
		dates, err := loadDates()
		if err != nil {
			return err
		}
		e := &zerocurve.Exporter{
			Logger:      logger,
			Workers:     cfg.Workers,
			ChartWidth:  cfg.Chart.Width,
			ChartHeight: cfg.Chart.Height,
		}
		if cfg.Template != "" {
			if e.Template, err = xlsx.LoadTemplate(cfg.Template); err != nil {
				return err
			}
		}

		var a zerocurve.Artifact
		switch strings.ToLower(format) {
		case "csv":
			a, err = e.CSV(cmd.Context(), dates)
		case "xlsx":
			a, err = e.Workbook(cmd.Context(), dates)
		case "png":
			a, err = e.Charts(cmd.Context(), dates)
		case "docx":
			a, err = e.Report(cmd.Context(), dates)
		default:
			return fmt.Errorf("unknown format %q", format)
		}
		if err != nil {
			return err
		}

		dir := outDir
		if dir == "" {
			dir = cfg.OutputDir
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
		path := filepath.Join(dir, a.Name)
		if err := os.WriteFile(path, a.Data, 0o644); err != nil {
			return err
		}
		logger.Info("wrote export", zap.String("path", path), zap.Int("dates", len(dates)), zap.Int("bytes", len(a.Data)))
		fmt.Fprintln(cmd.OutOrStdout(), path)
		return nil
	},
}

var previewCmd = &cobra.Command{
	Use:   "preview <file.xlsx|file.docx>",
	Short: "Render an exported workbook or report as HTML",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()
		info, err := f.Stat()
		if err != nil {
			return err
		}

		var html string
		switch strings.ToLower(filepath.Ext(args[0])) {
		case ".xlsx":
			m, err := xlsx.ParseWorkbookModel(f, info.Size())
			if err != nil {
				return err
			}
			html = xlsx.RenderPreviewHTML(m)
		case ".docx":
			if html, err = docx.ReportToHTML(f, info.Size()); err != nil {
				return err
			}
		default:
			return fmt.Errorf("cannot preview %s", args[0])
		}

		if previewOut == "" {
			_, err = fmt.Fprint(cmd.OutOrStdout(), html)
			return err
		}
		return os.WriteFile(previewOut, []byte(html), 0o644)
	},
}
