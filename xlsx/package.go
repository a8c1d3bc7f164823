package xlsx

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"path"
	"strings"
)

type relationship struct {
	ID     string `xml:"Id,attr"`
	Type   string `xml:"Type,attr"`
	Target string `xml:"Target,attr"`
	Mode   string `xml:"TargetMode,attr"`
}

// opcPackage reads parts of a saved workbook by name.
type opcPackage struct {
	files map[string]*zip.File
}

func openPackage(data []byte) (*opcPackage, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}
	p := &opcPackage{files: make(map[string]*zip.File, len(zr.File))}
	for _, f := range zr.File {
		p.files[f.Name] = f
	}
	return p, nil
}

func (p *opcPackage) read(part string) ([]byte, error) {
	f, ok := p.files[part]
	if !ok {
		return nil, fmt.Errorf("missing part %s", part)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// rels returns the relationships of part in document order. A part without a rels file
// has none.
func (p *opcPackage) rels(part string) ([]relationship, error) {
	name := "_rels/.rels"
	if part != "" {
		name = path.Join(path.Dir(part), "_rels", path.Base(part)+".rels")
	}
	if _, ok := p.files[name]; !ok {
		return nil, nil
	}
	data, err := p.read(name)
	if err != nil {
		return nil, err
	}
	var doc struct {
		Rels []relationship `xml:"Relationship"`
	}
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return doc.Rels, nil
}

func (p *opcPackage) rel(part, id string) (relationship, error) {
	rels, err := p.rels(part)
	if err != nil {
		return relationship{}, err
	}
	for _, r := range rels {
		if r.ID == id {
			return r, nil
		}
	}
	return relationship{}, fmt.Errorf("%s: no relationship %s", part, id)
}

// resolveTarget turns a relationship target into a part name relative to the package root.
func resolveTarget(source, target string) string {
	if strings.HasPrefix(target, "/") {
		return strings.TrimPrefix(target, "/")
	}
	return path.Join(path.Dir(source), target)
}

func relTyped(r relationship, kind string) bool { return strings.HasSuffix(r.Type, "/"+kind) }

// sheetPart finds the worksheet part of the sheet called name.
func (p *opcPackage) sheetPart(name string) (string, error) {
	root, err := p.rels("")
	if err != nil {
		return "", err
	}
	book := ""
	for _, r := range root {
		if relTyped(r, "officeDocument") {
			book = resolveTarget("", r.Target)
		}
	}
	if book == "" {
		return "", fmt.Errorf("no workbook part")
	}
	data, err := p.read(book)
	if err != nil {
		return "", err
	}
	var wb struct {
		Sheets []struct {
			Name string `xml:"name,attr"`
			RID  string `xml:"http://schemas.openxmlformats.org/officeDocument/2006/relationships id,attr"`
		} `xml:"sheets>sheet"`
	}
	if err := xml.Unmarshal(data, &wb); err != nil {
		return "", fmt.Errorf("%s: %w", book, err)
	}
	for _, s := range wb.Sheets {
		if s.Name != name {
			continue
		}
		r, err := p.rel(book, s.RID)
		if err != nil {
			return "", err
		}
		return resolveTarget(book, r.Target), nil
	}
	return "", fmt.Errorf("no sheet named %q", name)
}

// drawingPart returns the drawing referenced by the worksheet's <drawing> element, or ""
// when the sheet has none.
func (p *opcPackage) drawingPart(sheet string) (string, error) {
	data, err := p.read(sheet)
	if err != nil {
		return "", err
	}
	var ws struct {
		Drawing *struct {
			RID string `xml:"http://schemas.openxmlformats.org/officeDocument/2006/relationships id,attr"`
		} `xml:"drawing"`
	}
	if err := xml.Unmarshal(data, &ws); err != nil {
		return "", fmt.Errorf("%s: %w", sheet, err)
	}
	if ws.Drawing == nil || ws.Drawing.RID == "" {
		return "", nil
	}
	r, err := p.rel(sheet, ws.Drawing.RID)
	if err != nil {
		return "", err
	}
	return resolveTarget(sheet, r.Target), nil
}

// templateDrawing is the raw drawing of the template's active sheet, with the chart and
// image parts its anchors point at keyed by relationship id. Each output sheet decodes
// its own copy.
type templateDrawing struct {
	xml    []byte
	charts map[string][]byte
	images map[string][]byte
}

// readTemplateDrawing loads the drawing of the sheet called name. It returns nil when the
// sheet has no drawing.
func readTemplateDrawing(template []byte, name string) (*templateDrawing, error) {
	p, err := openPackage(template)
	if err != nil {
		return nil, &TemplateError{Msg: "unreadable", Err: err}
	}
	sheet, err := p.sheetPart(name)
	if err != nil {
		return nil, &TemplateError{Msg: "sheet " + name, Err: err}
	}
	part, err := p.drawingPart(sheet)
	if err != nil {
		return nil, &TemplateError{Msg: "drawing of " + name, Err: err}
	}
	if part == "" {
		return nil, nil
	}

	td := &templateDrawing{charts: map[string][]byte{}, images: map[string][]byte{}}
	if td.xml, err = p.read(part); err != nil {
		return nil, &TemplateError{Msg: "drawing of " + name, Err: err}
	}
	rels, err := p.rels(part)
	if err != nil {
		return nil, &TemplateError{Msg: "drawing of " + name, Err: err}
	}
	for _, r := range rels {
		if r.Mode == "External" {
			continue
		}
		var dst map[string][]byte
		switch {
		case relTyped(r, "chart"):
			dst = td.charts
		case relTyped(r, "image"):
			dst = td.images
		default:
			continue
		}
		data, err := p.read(resolveTarget(part, r.Target))
		if err != nil {
			return nil, &TemplateError{Msg: "drawing of " + name, Err: err}
		}
		dst[r.ID] = data
	}
	return td, nil
}
