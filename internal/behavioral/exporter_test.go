package behavioral

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrison/trialscope/internal/models"
)

func sampleSummary() *CrossDaySummary {
	a := session(day(2025, 6, 2), "1")
	a.CorrectLeft = 7
	b := session(day(2025, 5, 30), "2")
	b.QW = models.Int(1)
	return Aggregate([]models.SessionMetrics{a, b})
}

func TestCSVExporter(t *testing.T) {
	out, err := (&CSVExporter{}).Export(sampleSummary())
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "day_index,day,date,box"))
	assert.True(t, strings.HasPrefix(lines[1], "0,Day 1,2025-05-30,2"))
	assert.True(t, strings.HasPrefix(lines[2], "1,Day 2,2025-06-02,1"))
}

func TestJSONExporter(t *testing.T) {
	out, err := (&JSONExporter{Pretty: true}).Export(sampleSummary())
	require.NoError(t, err)

	var decoded struct {
		Animal  string `json:"animal"`
		Entries []struct {
			DayIndex    int    `json:"day_index"`
			Box         string `json:"box"`
			CorrectLeft int    `json:"correct_left"`
		} `json:"entries"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, "925145", decoded.Animal)
	require.Len(t, decoded.Entries, 2)
	assert.Equal(t, 1, decoded.Entries[1].DayIndex)
	assert.Equal(t, 7, decoded.Entries[1].CorrectLeft)
}

func TestMarkdownAndHTMLExporters(t *testing.T) {
	summary := sampleSummary()
	summary.Subtitle = "Tone-spout mapping: 5KHz → left spout, 10KHz → right spout"

	md, err := (&MarkdownExporter{}).Export(summary)
	require.NoError(t, err)
	assert.Contains(t, md, "# Cross-day Summary: Animal 925145")
	assert.Contains(t, md, "| day_index | day | date | box |")
	assert.Contains(t, md, summary.Subtitle)

	html, err := (&HTMLExporter{}).Export(summary)
	require.NoError(t, err)
	assert.Contains(t, html, "<table>")
	assert.Contains(t, html, "<th>day_index</th>")
	assert.Contains(t, html, "<title>Cross-day Summary 925145</title>")
}

func TestExporters_RejectNil(t *testing.T) {
	for _, format := range []string{"json", "csv", "md", "html"} {
		_, err := ExportToString(nil, format, nil)
		assert.Error(t, err, format)
	}
}

func TestNewExporter_UnsupportedFormat(t *testing.T) {
	_, err := NewExporter("xlsx", nil)
	assert.ErrorContains(t, err, "unsupported format")
}

func TestExportToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "summary.csv")
	require.NoError(t, ExportToFile(sampleSummary(), path, "csv", nil))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "2025-05-30")

	assert.Error(t, ExportToFile(sampleSummary(), "", "csv", nil))
}

func TestRenderSession(t *testing.T) {
	meta := models.SessionMeta{Animal: "925145", Box: "1", Date: day(2025, 5, 25)}
	report := Analyze(meta, mustProtocol(t, "AdaptSensorimotor"), []models.TrialRecord{
		{TrialNumber: 1, Block: models.BlockSound, LeftSpout: true, Reward: true, Stimulus: "5KHz"},
	}, Options{Subtitle: "Tone-spout mapping: (not found for this animal)"})

	md, err := RenderSession(report, "markdown")
	require.NoError(t, err)
	assert.Contains(t, md, "Animal: 925145 | Date: 2025-05-25 | Box 1")
	assert.Contains(t, md, "(not found for this animal)")
	assert.Contains(t, md, "## Blocks")

	js, err := RenderSession(report, "json")
	require.NoError(t, err)
	assert.True(t, json.Valid([]byte(js)))

	page, err := RenderSession(report, "html")
	require.NoError(t, err)
	assert.Contains(t, page, "<h2>Summary</h2>")

	_, err = RenderSession(report, "csv")
	assert.Error(t, err)
}
