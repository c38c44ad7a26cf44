package history

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ludo-technologies/sanity/domain"
	"github.com/ludo-technologies/sanity/internal/logging"
)

func sampleSummaries(date time.Time) []domain.PackageSummary {
	return []domain.PackageSummary{
		domain.NewPackageSummary(date, "", 0.8123456, 0.5, [domain.NumSeverities]int{3, 2, 1, 0, 1}, 1200),
		domain.NewPackageSummary(date, "com.acme", 0.75, 0.3333333, [domain.NumSeverities]int{1, 0, 1, 0, 0}, 800),
		domain.NewPackageSummary(date, "com.acme.util", 1, 0, [domain.NumSeverities]int{2, 2, 0, 0, 1}, 400),
	}
}

func TestStore_RoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "reports", "history.csv")
	store := NewStore(path, logging.Discard())
	date := time.Date(2024, 5, 17, 9, 41, 33, 500, time.Local)
	want := sampleSummaries(date)

	require.NoError(t, store.Write(want))
	got, err := store.Read()
	require.NoError(t, err)

	require.Len(t, got, len(want))
	for i := range want {
		assert.True(t, got[i].RunDate.Equal(time.Date(2024, 5, 17, 9, 41, 0, 0, time.Local)), "row %d date %v", i, got[i].RunDate)
		assert.Equal(t, want[i].PackageName, got[i].PackageName)
		assert.InDelta(t, want[i].LineCoverage, got[i].LineCoverage, 1e-4)
		assert.InDelta(t, want[i].BranchCoverage, got[i].BranchCoverage, 1e-4)
		assert.Equal(t, want[i].Counts, got[i].Counts)
		assert.Equal(t, want[i].LineCount, got[i].LineCount)
	}
}

func TestStore_HeaderWrittenOnce(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "history.csv")
	store := NewStore(path, logging.Discard())
	date := time.Date(2024, 1, 2, 3, 4, 0, 0, time.Local)

	require.NoError(t, store.Write(sampleSummaries(date)))
	require.NoError(t, store.Write(sampleSummaries(date.Add(time.Hour))))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)

	assert.Equal(t, 1, strings.Count(content, Header))
	assert.True(t, strings.HasPrefix(content, Header+"\r\n"))
	assert.Equal(t, 7, strings.Count(content, "\r\n"))
	assert.Contains(t, content, "2024/01/02-03:04,com.acme,0.75,0.3333333,1,0,1,0,0,800\r\n")
}

func TestStore_CorruptionTolerance(t *testing.T) {
	t.Parallel()

	date := time.Date(2023, 12, 31, 23, 59, 0, 0, time.Local)
	good := sampleSummaries(date)
	var buf strings.Builder
	buf.WriteString(Header + "\r\n")
	buf.WriteString(FormatRecord(good[0]) + "\r\n")
	buf.WriteString("BAD DATE,x,0.0,0.0,1.0\r\n")
	buf.WriteString(FormatRecord(good[1]) + "\r\n")
	buf.WriteString("2023/12/31-23:59,com.acme,abc,0.5,1,2,3,4,5,6\r\n")
	buf.WriteString(FormatRecord(good[2]) + "\r\n")
	buf.WriteString("2023/12/31-23:59,com.acme.tr")

	path := filepath.Join(t.TempDir(), "history.csv")
	require.NoError(t, os.WriteFile(path, []byte(buf.String()), 0o644))

	var logs bytes.Buffer
	store := NewStore(path, logging.New(&logs, logging.LevelWarn))
	got, err := store.Read()
	require.NoError(t, err)

	require.Len(t, got, 3)
	for i := range good {
		assert.Equal(t, good[i].PackageName, got[i].PackageName)
	}
	assert.Equal(t, 3, strings.Count(logs.String(), "MALFORMED_HISTORY_RECORD"))
	assert.Contains(t, logs.String(), "history.csv:3:")
	assert.Contains(t, logs.String(), "history.csv:7:")
}

func TestStore_AppendAfterTruncatedLine(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "history.csv")
	require.NoError(t, os.WriteFile(path, []byte(Header+"\r\n2024/01/01-00:00,a,0."), 0o644))

	store := NewStore(path, logging.Discard())
	date := time.Date(2024, 2, 1, 12, 0, 0, 0, time.Local)
	require.NoError(t, store.Write(sampleSummaries(date)[:1]))

	got, err := store.Read()
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got[0].IsRoot())
}

func TestStore_MissingFileIsEmpty(t *testing.T) {
	t.Parallel()

	got, err := NewStore(filepath.Join(t.TempDir(), "none.csv"), nil).Read()
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestMergeAndForPackage(t *testing.T) {
	t.Parallel()

	day1 := time.Date(2024, 3, 1, 10, 0, 0, 0, time.Local)
	day2 := day1.Add(24 * time.Hour)
	history := append(sampleSummaries(day2), sampleSummaries(day1)...)
	rerun := []domain.PackageSummary{
		domain.NewPackageSummary(day2, "com.acme", 0.9, 0.9, [domain.NumSeverities]int{}, 810),
	}

	merged := Merge(history, rerun)
	require.Len(t, merged, 6)
	assert.True(t, merged[0].RunDate.Equal(day1))
	assert.Equal(t, "", merged[0].PackageName)
	assert.True(t, merged[5].RunDate.Equal(day2))

	series := ForPackage(merged, "com.acme")
	require.Len(t, series, 2)
	assert.Equal(t, 800, series[0].LineCount)
	assert.Equal(t, 810, series[1].LineCount)

	assert.Equal(t, []string{"", "com.acme", "com.acme.util"}, Packages(merged))
}

func TestStore_OversizedLineSkipped(t *testing.T) {
	t.Parallel()

	date := time.Date(2024, 6, 1, 8, 0, 0, 0, time.Local)
	good := sampleSummaries(date)
	var buf strings.Builder
	buf.WriteString(Header + "\r\n")
	buf.WriteString(FormatRecord(good[0]) + "\r\n")
	buf.WriteString(strings.Repeat("X", 70*1024) + "\r\n")
	buf.WriteString(FormatRecord(good[1]) + "\r\n")

	path := filepath.Join(t.TempDir(), "history.csv")
	require.NoError(t, os.WriteFile(path, []byte(buf.String()), 0o644))

	var logs bytes.Buffer
	got, err := NewStore(path, logging.New(&logs, logging.LevelWarn)).Read()
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Equal(t, good[0].PackageName, got[0].PackageName)
	assert.Equal(t, good[1].PackageName, got[1].PackageName)
	assert.Contains(t, logs.String(), "history.csv:3:")
}

func TestStore_ForeignZoneRoundTrip(t *testing.T) {
	t.Parallel()

	_, offset := time.Now().In(time.Local).Zone()
	foreign := time.FixedZone("foreign", offset+3*3600)
	date := time.Date(2026, 5, 1, 12, 30, 0, 0, foreign)

	path := filepath.Join(t.TempDir(), "history.csv")
	store := NewStore(path, logging.Discard())
	current := sampleSummaries(date)
	require.NoError(t, store.Write(current))

	got, err := store.Read()
	require.NoError(t, err)
	require.Len(t, got, len(current))
	for i := range got {
		assert.True(t, got[i].RunDate.Equal(date), "row %d read back as %v", i, got[i].RunDate)
	}

	// the re-read rows are the same run, so merging must not duplicate them
	assert.Len(t, Merge(got, current), len(current))
}

func TestStore_UnreadableLedger(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	blocker := filepath.Join(dir, "file.txt")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	_, err := NewStore(filepath.Join(blocker, "history.csv"), nil).Read()
	require.Error(t, err)
	assert.True(t, domain.IsCode(err, domain.ErrCodeOutputError), "got %v", err)
	assert.False(t, domain.IsCode(err, domain.ErrCodeFileNotFound))
}
