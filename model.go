package zerocurve

import "fmt"

// Content types of the produced artifacts.
const (
	ContentTypeCSV  = "text/csv"
	ContentTypeZip  = "application/zip"
	ContentTypePNG  = "image/png"
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	ContentTypeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

// Artifact is one exported file held in memory.
type Artifact struct {
	Name        string // file name, e.g. "curve_2024-4-1.csv"
	ContentType string
	Data        []byte
}

func (a Artifact) String() string {
	return fmt.Sprintf("Name: %s, ContentType: %s, Bytes: %d", a.Name, a.ContentType, len(a.Data))
}
