package export

import (
	"bytes"
	"fmt"
	"html/template"
)

const htmlReportTemplate = `<!DOCTYPE html>
<html lang="es">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body{font-family:Arial,Helvetica,sans-serif;font-size:12px;color:#111827}
h1{font-size:18px;text-align:center}
table{width:100%;border-collapse:collapse}
th,td{border:1px solid #D1D5DB;padding:4px 6px;text-align:left}
th{background:#F3F4F6}
</style>
</head>
<body>
<h1>{{.Title}}</h1>
{{range .Notes}}<p>{{.}}</p>
{{end}}<table>
<thead><tr>{{range .Headers}}<th>{{.}}</th>{{end}}</tr></thead>
<tbody>
{{range .Rows}}<tr>{{range .}}<td>{{.}}</td>{{end}}</tr>
{{end}}</tbody>
</table>
</body>
</html>
`

var htmlReport = template.Must(template.New("report").Parse(htmlReportTemplate))

// HTMLExporter renders datasets into a self-contained HTML document for an external PDF converter.
type HTMLExporter struct {
	tmpl *template.Template
}

// NewHTMLExporter builds an HTML exporter.
func NewHTMLExporter() *HTMLExporter {
	return &HTMLExporter{tmpl: htmlReport}
}

type htmlView struct {
	Title   string
	Notes   []string
	Headers []string
	Rows    [][]string
}

// Render produces an escaped HTML document with the dataset as a table.
func (e *HTMLExporter) Render(data Dataset, title string) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("html requires at least one header")
	}
	view := htmlView{Title: title, Notes: data.Notes, Headers: data.Headers, Rows: make([][]string, 0, len(data.Rows))}
	for _, row := range data.Rows {
		record := make([]string, len(data.Headers))
		for i, header := range data.Headers {
			record[i] = row[header]
		}
		view.Rows = append(view.Rows, record)
	}

	buf := &bytes.Buffer{}
	if err := e.tmpl.Execute(buf, view); err != nil {
		return nil, fmt.Errorf("render html: %w", err)
	}
	return buf.Bytes(), nil
}
