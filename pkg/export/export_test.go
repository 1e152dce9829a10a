package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleDataset() Dataset {
	return Dataset{
		Headers: []string{"date", "unique_sessions", "finished"},
		Rows: []map[string]string{
			{"date": "2024-01-01", "unique_sessions": "3", "finished": "1"},
			{"date": "2024-01-02", "unique_sessions": "5"},
		},
	}
}

func TestCSVExporterRender(t *testing.T) {
	out, err := NewCSVExporter().Render(sampleDataset())
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "date,unique_sessions,finished", lines[0])
	assert.Equal(t, "2024-01-02,5,", lines[2])
}

func TestCSVExporterRequiresHeaders(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{})
	assert.Error(t, err)
}

func TestXLSXExporterRender(t *testing.T) {
	out, err := NewXLSXExporter().Render(sampleDataset(), "Daily stats")
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer f.Close() //nolint:errcheck

	rows, err := f.GetRows("Daily stats")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"date", "unique_sessions", "finished"}, rows[0])
	assert.Equal(t, "3", rows[1][1])
}

func TestSheetNameIsTruncated(t *testing.T) {
	assert.Equal(t, defaultSheet, sheetName(""))
	assert.Len(t, []rune(sheetName(strings.Repeat("x", 40))), maxSheetChars)
}

func TestPDFExporterRenderDocument(t *testing.T) {
	doc := Document{
		Title:   "Student Report",
		Summary: []string{"Student: u1", "Test: Mock 1"},
		Sections: []Section{
			{Heading: "Overall", Table: sampleDataset()},
			{Heading: "Empty"},
		},
	}
	out, err := NewPDFExporter().RenderDocument(doc)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}
