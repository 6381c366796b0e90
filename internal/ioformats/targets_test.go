package ioformats

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"knowfounders/internal/models"
)

func TestReadCSV(t *testing.T) {
	in := "name,URL,user_agent\nacme,https://kf.test/startups/acme,Twitterbot/1.0\nblank,,\nhome,https://kf.test/\n"
	ts, err := ReadCSV(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, []Target{
		{URL: "https://kf.test/startups/acme", UserAgent: "Twitterbot/1.0"},
		{URL: "https://kf.test/"},
	}, ts)
}

func TestReadCSVRequiresURLColumn(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("link\nhttps://kf.test\n"))
	assert.Error(t, err)
}

func TestReadNDJSON(t *testing.T) {
	in := `{"url":"https://kf.test/a","user_agent":"GPTBot"}

https://kf.test/b
{"other":1}
`
	ts, err := ReadNDJSON(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, ts, 3)
	assert.Equal(t, Target{URL: "https://kf.test/a", UserAgent: "GPTBot"}, ts[0])
	assert.Equal(t, "https://kf.test/b", ts[1].URL)
	assert.Equal(t, `{"other":1}`, ts[2].URL)
}

func TestReadTargetsByExtension(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "targets.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("url\nhttps://kf.test/\n"), 0o644))
	ts, err := ReadTargets(csvPath)
	require.NoError(t, err)
	assert.Equal(t, []Target{{URL: "https://kf.test/"}}, ts)

	txtPath := filepath.Join(dir, "targets.txt")
	require.NoError(t, os.WriteFile(txtPath, []byte("https://kf.test/explore\n"), 0o644))
	ts, err = ReadTargets(txtPath)
	require.NoError(t, err)
	assert.Equal(t, "https://kf.test/explore", ts[0].URL)
}

func TestWriteNDJSON(t *testing.T) {
	var buf bytes.Buffer
	results := []models.AuditResult{
		{SourceURL: "https://kf.test/", Report: models.AuditReport{OverallScore: 100}},
		{SourceURL: "https://kf.test/explore", Report: models.AuditReport{OverallScore: 80}},
	}
	require.NoError(t, WriteNDJSON(&buf, results))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"sourceUrl":"https://kf.test/"`)
	assert.Contains(t, lines[1], `"overallScore":80`)
}
