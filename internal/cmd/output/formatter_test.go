package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicworks/visitlink/pkg/tables"
)

func sampleDataset() *tables.Dataset {
	ds := tables.New("matched", []string{"Patient Account Number", "DOS"})
	ds.Append(tables.Row{"Patient Account Number": "A1", "DOS": "09/23/2025"})
	return ds
}

func TestParseFormat(t *testing.T) {
	for _, valid := range []string{"table", "CSV", "json", "yaml", ""} {
		_, err := ParseFormat(valid)
		assert.NoError(t, err, valid)
	}

	_, err := ParseFormat("xml")
	assert.Error(t, err)
}

func TestCSVFormatterDataset(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewFormatter(FormatCSV).Format(&buf, sampleDataset()))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "Patient Account Number,DOS", lines[0])
	assert.Equal(t, "A1,09/23/2025", lines[1])
}

func TestJSONFormatterDataset(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewFormatter(FormatJSON).Format(&buf, sampleDataset()))

	out := buf.String()
	assert.Contains(t, out, `"name": "matched"`)
	assert.Contains(t, out, `"Patient Account Number"`)
	assert.Contains(t, out, `"A1"`)
}

func TestYAMLFormatter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewFormatter(FormatYAML).Format(&buf, map[string]int{"matched": 3}))
	assert.Contains(t, buf.String(), "matched: 3")
}

func TestTableFormatterDataset(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewFormatter(FormatTable).Format(&buf, sampleDataset()))

	out := buf.String()
	assert.Contains(t, out, "A1")
	assert.Contains(t, out, "09/23/2025")
}

func TestTableFormatterStructSlice(t *testing.T) {
	type stat struct {
		Name  string `json:"flag_name"`
		Count int    `json:"count"`
	}

	var buf bytes.Buffer
	require.NoError(t, NewFormatter(FormatTable).Format(&buf, []stat{{"billed_but_not_allowed", 2}}))

	out := buf.String()
	assert.Contains(t, out, "billed_but_not_allowed")
	assert.Contains(t, out, "2")
}

func TestDetectFormatExplicitWins(t *testing.T) {
	assert.Equal(t, FormatYAML, DetectFormat("YAML"))
	assert.Equal(t, FormatJSON, DetectFormat("json"))
}
