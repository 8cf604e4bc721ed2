package render

const (
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	ContentTypePDF  = "application/pdf"
)

// Document is a rendered export ready to be stored or streamed.
type Document struct {
	Name        string
	ContentType string
	Data        []byte
}
