package export

import "fmt"

// Format names an export encoding.
type Format string

const (
	FormatCSV Format = "csv"
	FormatPDF Format = "pdf"
)

// Valid reports whether f is a supported format.
func (f Format) Valid() bool {
	return f == FormatCSV || f == FormatPDF
}

// ContentType returns the MIME type served for f.
func ContentType(f Format) string {
	switch f {
	case FormatCSV:
		return "text/csv"
	case FormatPDF:
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}

// Dataset defines tabular export content.
type Dataset struct {
	Headers []string
	Rows    []map[string]string
	// Notes are printed under the table in formats that support free text.
	Notes []string
}

// Document is a rendered export ready to be served.
type Document struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Render encodes data in the requested format. basename is used for the file name.
func Render(format Format, data Dataset, title, basename string) (*Document, error) {
	switch format {
	case FormatCSV:
		body, err := NewCSVExporter().Render(data)
		if err != nil {
			return nil, err
		}
		return &Document{Filename: basename + ".csv", ContentType: ContentType(FormatCSV), Data: body}, nil
	case FormatPDF:
		body, err := NewPDFExporter().Render(data, title)
		if err != nil {
			return nil, err
		}
		return &Document{Filename: basename + ".pdf", ContentType: ContentType(FormatPDF), Data: body}, nil
	default:
		return nil, fmt.Errorf("unsupported export format %q", format)
	}
}
