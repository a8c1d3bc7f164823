package xlsx

import (
	"encoding/xml"
	"fmt"

	"github.com/unidoc/unioffice"
	"github.com/unidoc/unioffice/common"
	"github.com/unidoc/unioffice/schema/soo/dml"
	crt "github.com/unidoc/unioffice/schema/soo/dml/chart"
	sd "github.com/unidoc/unioffice/schema/soo/dml/spreadsheetDrawing"
	"github.com/unidoc/unioffice/schema/soo/sml"
	"github.com/unidoc/unioffice/spreadsheet"
)

// duplicateSheets lays out one worksheet per descriptor before anything is written: the active
// template sheet is renamed for the first date and every later sheet is a copy of the one
// before it. Copying pristine sheets keeps chart drawings from being duplicated.
func duplicateSheets(wb *spreadsheet.Workbook, idx int, specs []SheetSpec) ([]spreadsheet.Sheet, error) {
	first := wb.Sheets()[idx]
	first.SetName(specs[0].Name)

	out := []spreadsheet.Sheet{first}
	prev := idx
	for _, spec := range specs[1:] {
		s, err := wb.CopySheet(prev, spec.Name)
		if err != nil {
			return nil, fmt.Errorf("copy sheet for %s: %w", spec.Name, err)
		}
		out = append(out, s)
		prev = len(wb.Sheets()) - 1
	}
	return out, nil
}

// populate writes one descriptor into its sheet. The sheet gets a drawing of its own that
// holds copies of the template's anchored objects followed by the mini and full charts, so
// copies never share a drawing part with the template sheet.
func populate(wb *spreadsheet.Workbook, s spreadsheet.Sheet, l Layout, spec SheetSpec, selected bool, td *templateDrawing) error {
	hideGridlines(s, selected)

	for i, v := range spec.Par {
		s.Cell(cellRef(l.ParCol, l.KnotFirstRow+i)).SetNumber(v)
	}
	for i, v := range spec.Zero {
		s.Cell(cellRef(l.ZeroCol, l.KnotFirstRow+i)).SetNumber(v)
	}

	dwng := wb.AddDrawing()
	if err := copyTemplateObjects(wb, dwng, td); err != nil {
		return fmt.Errorf("sheet %s: %w", spec.Name, err)
	}
	addScatterChart(dwng, spec.Mini)
	addScatterChart(dwng, spec.Full)
	s.SetDrawing(dwng)
	return nil
}

// copyTemplateObjects re-creates every anchor of the template drawing in dwng. Charts and
// pictures get fresh parts in the output workbook and their anchors are pointed at them;
// anchors without related parts are copied as they are.
func copyTemplateObjects(wb *spreadsheet.Workbook, dwng spreadsheet.Drawing, td *templateDrawing) error {
	if td == nil {
		return nil
	}
	src := sd.NewWsDr()
	if err := xml.Unmarshal(td.xml, src); err != nil {
		return &TemplateError{Msg: "drawing", Err: err}
	}

	for _, anc := range src.EG_Anchor {
		choice := anchorChoice(anc)
		if ref := chartRef(choice); ref != nil {
			data, ok := td.charts[ref.IdAttr]
			if !ok {
				return &TemplateError{Msg: "chart " + ref.IdAttr + " has no part"}
			}
			cs := crt.NewChartSpace()
			if err := xml.Unmarshal(data, cs); err != nil {
				return &TemplateError{Msg: "chart " + ref.IdAttr, Err: err}
			}
			// Parts the chart points at are not carried over.
			cs.ExternalData = nil
			cs.UserShapes = nil

			chrt, _ := dwng.AddChart(spreadsheet.AnchorTypeTwoCell)
			*chrt.X() = *cs
			ref.IdAttr = chartRef(anchorChoice(lastAnchor(dwng))).IdAttr
			replaceLastAnchor(dwng, anc)
			continue
		}
		if blip := pictureBlip(choice); blip != nil {
			data, ok := td.images[*blip.EmbedAttr]
			if !ok {
				return &TemplateError{Msg: "picture " + *blip.EmbedAttr + " has no part"}
			}
			img, err := common.ImageFromBytes(data)
			if err != nil {
				return &TemplateError{Msg: "picture " + *blip.EmbedAttr, Err: err}
			}
			iref, err := wb.AddImage(img)
			if err != nil {
				return fmt.Errorf("add template picture: %w", err)
			}
			dwng.AddImage(iref, spreadsheet.AnchorTypeTwoCell)
			embed := *pictureBlip(anchorChoice(lastAnchor(dwng))).EmbedAttr
			blip.EmbedAttr = &embed
			replaceLastAnchor(dwng, anc)
			continue
		}
		dwng.X().EG_Anchor = append(dwng.X().EG_Anchor, anc)
	}
	return nil
}

func anchorChoice(anc *sd.EG_Anchor) *sd.EG_ObjectChoicesChoice {
	switch {
	case anc == nil:
		return nil
	case anc.TwoCellAnchor != nil:
		return anc.TwoCellAnchor.Choice
	case anc.OneCellAnchor != nil:
		return anc.OneCellAnchor.Choice
	case anc.AbsoluteAnchor != nil:
		return anc.AbsoluteAnchor.Choice
	}
	return nil
}

// chartRef returns the chart reference of a graphic frame anchor.
func chartRef(choice *sd.EG_ObjectChoicesChoice) *crt.Chart {
	if choice == nil || choice.GraphicFrame == nil || choice.GraphicFrame.Graphic == nil ||
		choice.GraphicFrame.Graphic.GraphicData == nil {
		return nil
	}
	for _, a := range choice.GraphicFrame.Graphic.GraphicData.Any {
		if c, ok := a.(*crt.Chart); ok {
			return c
		}
	}
	return nil
}

// pictureBlip returns the embedded image reference of a picture anchor.
func pictureBlip(choice *sd.EG_ObjectChoicesChoice) *dml.CT_Blip {
	if choice == nil || choice.Pic == nil || choice.Pic.BlipFill == nil {
		return nil
	}
	b := choice.Pic.BlipFill.Blip
	if b == nil || b.EmbedAttr == nil {
		return nil
	}
	return b
}

func lastAnchor(dwng spreadsheet.Drawing) *sd.EG_Anchor {
	anchors := dwng.X().EG_Anchor
	return anchors[len(anchors)-1]
}

func replaceLastAnchor(dwng spreadsheet.Drawing, anc *sd.EG_Anchor) {
	anchors := dwng.X().EG_Anchor
	anchors[len(anchors)-1] = anc
}

func addScatterChart(dwng spreadsheet.Drawing, cs ChartSpec) {
	chrt, anc := dwng.AddChart(spreadsheet.AnchorTypeTwoCell)
	anc.MoveTo(cs.Anchor.Col, cs.Anchor.Row)
	anc.SetWidthCells(cs.Anchor.Width)
	anc.SetHeightCells(cs.Anchor.Height)

	sc := chrt.AddScatterChart()
	for _, ss := range cs.Series {
		series := sc.AddSeries()
		series.SetText(ss.Title)
		series.CategoryAxis().SetNumberReference(ss.XRef)
		series.Values().SetReference(ss.YRef)
	}

	x := chrt.AddValueAxis()
	y := chrt.AddValueAxis()
	sc.AddAxis(x)
	sc.AddAxis(y)
	x.SetCrosses(y)
	y.SetCrosses(x)

	chrt.AddTitle().SetText(cs.Title)
	chrt.AddLegend()
}

// hideGridlines turns gridlines off on every view of the sheet. Only the first sheet
// keeps its tab selected so copies do not open grouped.
func hideGridlines(s spreadsheet.Sheet, selected bool) {
	x := s.X()
	if x.SheetViews == nil {
		x.SheetViews = sml.NewCT_SheetViews()
	}
	if len(x.SheetViews.SheetView) == 0 {
		x.SheetViews.SheetView = append(x.SheetViews.SheetView, sml.NewCT_SheetView())
	}
	for _, sv := range x.SheetViews.SheetView {
		sv.ShowGridLinesAttr = unioffice.Bool(false)
		if !selected {
			sv.TabSelectedAttr = nil
		}
	}
}

// gridlinesShown reports whether any view of the sheet shows gridlines. Excel's default
// is on when the attribute is absent.
func gridlinesShown(s spreadsheet.Sheet) bool {
	x := s.X()
	if x.SheetViews == nil || len(x.SheetViews.SheetView) == 0 {
		return true
	}
	for _, sv := range x.SheetViews.SheetView {
		if sv.ShowGridLinesAttr == nil || *sv.ShowGridLinesAttr {
			return true
		}
	}
	return false
}
