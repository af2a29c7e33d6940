package port

import "io"

// Spreadsheet renders a header and rows as a workbook.
type Spreadsheet interface {
	Write(w io.Writer, sheet string, header []string, rows [][]any) error
}
