package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDataset() Dataset {
	return Dataset{
		Headers: []string{"Materia", "Promedio"},
		Rows: []map[string]string{
			{"Materia": "Matemáticas", "Promedio": "85.0"},
			{"Materia": "<script>", "Promedio": "Sin calificar"},
		},
		Notes: []string{"Promedio general: 85.0"},
	}
}

func TestCSVExporterRender(t *testing.T) {
	out, err := NewCSVExporter().Render(sampleDataset())
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Materia,Promedio", lines[0])
	assert.Equal(t, "Matemáticas,85.0", lines[1])
}

func TestCSVExporterWithBOM(t *testing.T) {
	out, err := NewCSVExporter(WithBOM()).Render(sampleDataset())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte{0xEF, 0xBB, 0xBF}))
	assert.Contains(t, string(out), "Matemáticas,85.0")
}

func TestCSVExporterRequiresHeaders(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{})
	assert.Error(t, err)
}

func TestHTMLExporterEscapesValues(t *testing.T) {
	out, err := NewHTMLExporter().Render(sampleDataset(), "Reporte")
	require.NoError(t, err)
	html := string(out)
	assert.Contains(t, html, "<th>Materia</th>")
	assert.Contains(t, html, "<td>Matemáticas</td>")
	assert.Contains(t, html, "&lt;script&gt;")
	assert.Contains(t, html, "<p>Promedio general: 85.0</p>")
}

func TestPDFExporterRender(t *testing.T) {
	out, err := NewPDFExporter().Render(sampleDataset(), "Reporte")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}
