// Package history persists per-run package summaries in an append-only CSV
// ledger and reads it back tolerantly.
package history

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/ludo-technologies/sanity/domain"
	"github.com/ludo-technologies/sanity/internal/logging"
)

// Header is the first line of every ledger.
const Header = "Run date,Package name,Line coverage,Branch coverage,Info diags,Low diags,Moderate diags,Significant diags,High diags,Line count"

// DateLayout renders run dates with minute resolution.
const DateLayout = "2006/01/02-15:04"

const (
	lineEnd    = "\r\n"
	numColumns = 4 + domain.NumSeverities + 1
)

// Store is one ledger file. Concurrent runs against the same file are not
// supported.
type Store struct {
	Path string
	log  *logging.Logger
}

// NewStore creates a store for path.
func NewStore(path string, log *logging.Logger) *Store {
	if log == nil {
		log = logging.Discard()
	}
	return &Store{Path: path, log: log}
}

// Write appends one row per summary, writing the header first if the file
// is new or empty.
func (s *Store) Write(summaries []domain.PackageSummary) (err error) {
	if dir := filepath.Dir(s.Path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return domain.NewOutputError("cannot create history directory", err)
		}
	}
	f, err := os.OpenFile(s.Path, os.O_APPEND|os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return domain.NewOutputError(fmt.Sprintf("cannot open history %s", s.Path), err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = domain.NewOutputError(fmt.Sprintf("cannot close history %s", s.Path), cerr)
		}
	}()

	info, err := f.Stat()
	if err != nil {
		return domain.NewOutputError(fmt.Sprintf("cannot stat history %s", s.Path), err)
	}

	w := bufio.NewWriter(f)
	if info.Size() == 0 {
		w.WriteString(Header + lineEnd)
	} else if !endsWithNewline(f, info.Size()) {
		// a previous run died mid-line; start ours on a fresh one
		w.WriteString(lineEnd)
	}
	for _, summary := range summaries {
		w.WriteString(FormatRecord(summary) + lineEnd)
	}
	if err := w.Flush(); err != nil {
		return domain.NewOutputError(fmt.Sprintf("cannot write history %s", s.Path), err)
	}
	return nil
}

func endsWithNewline(f *os.File, size int64) bool {
	last := make([]byte, 1)
	if _, err := f.ReadAt(last, size-1); err != nil {
		return true
	}
	return last[0] == '\n'
}

// openOrEmpty opens a file for reading, returning (nil, nil) if it does not exist.
func openOrEmpty(path string) (*os.File, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	return f, err
}

// Read returns every well-formed row of the ledger. Malformed rows are
// logged with their line number and skipped. A missing file is an empty
// history.
func (s *Store) Read() ([]domain.PackageSummary, error) {
	f, err := openOrEmpty(s.Path)
	if err != nil {
		return nil, domain.NewOutputError(fmt.Sprintf("cannot open history %s", s.Path), err)
	}
	if f == nil {
		return []domain.PackageSummary{}, nil
	}
	defer f.Close()

	return s.parse(f)
}

func (s *Store) parse(r io.Reader) ([]domain.PackageSummary, error) {
	summaries := []domain.PackageSummary{}
	reader := bufio.NewReader(r)
	lineNo := 0
	for {
		raw, err := reader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return summaries, domain.NewMalformedHistoryRecordError(s.Path, lineNo+1, err)
		}
		if raw == "" && err != nil {
			break
		}
		lineNo++
		line := strings.TrimRight(raw, "\r\n")
		if strings.TrimSpace(line) != "" && line != Header {
			if summary, perr := ParseRecord(line); perr != nil {
				s.log.Warnf("%v", domain.NewMalformedHistoryRecordError(s.Path, lineNo, perr))
			} else {
				summaries = append(summaries, summary)
			}
		}
		if err != nil {
			break
		}
	}
	return summaries, nil
}

// FormatRecord renders one ledger row without its line terminator.
func FormatRecord(s domain.PackageSummary) string {
	fields := make([]string, 0, numColumns)
	fields = append(fields,
		s.RunDate.In(time.Local).Format(DateLayout),
		s.PackageName,
		strconv.FormatFloat(s.LineCoverage, 'f', -1, 64),
		strconv.FormatFloat(s.BranchCoverage, 'f', -1, 64),
	)
	for _, c := range s.Counts {
		fields = append(fields, strconv.Itoa(c))
	}
	fields = append(fields, strconv.Itoa(s.LineCount))
	return strings.Join(fields, ",")
}

// ParseRecord parses one ledger row. Dates are stored and read in the local
// zone.
func ParseRecord(line string) (domain.PackageSummary, error) {
	fields := strings.Split(line, ",")
	if len(fields) != numColumns {
		return domain.PackageSummary{}, fmt.Errorf("expected %d columns, got %d", numColumns, len(fields))
	}
	date, err := time.ParseInLocation(DateLayout, strings.TrimSpace(fields[0]), time.Local)
	if err != nil {
		return domain.PackageSummary{}, fmt.Errorf("run date: %w", err)
	}
	lineCov, err := strconv.ParseFloat(strings.TrimSpace(fields[2]), 64)
	if err != nil {
		return domain.PackageSummary{}, fmt.Errorf("line coverage: %w", err)
	}
	branchCov, err := strconv.ParseFloat(strings.TrimSpace(fields[3]), 64)
	if err != nil {
		return domain.PackageSummary{}, fmt.Errorf("branch coverage: %w", err)
	}
	var counts [domain.NumSeverities]int
	for i := range counts {
		if counts[i], err = strconv.Atoi(strings.TrimSpace(fields[4+i])); err != nil {
			return domain.PackageSummary{}, fmt.Errorf("%s count: %w", domain.Severity(i), err)
		}
	}
	lineCount, err := strconv.Atoi(strings.TrimSpace(fields[numColumns-1]))
	if err != nil {
		return domain.PackageSummary{}, fmt.Errorf("line count: %w", err)
	}
	return domain.NewPackageSummary(date, fields[1], lineCov, branchCov, counts, lineCount), nil
}

// Merge appends current to history, ordered by run date then package. A
// current row replaces a historic one with the same date and package.
func Merge(history, current []domain.PackageSummary) []domain.PackageSummary {
	type key struct {
		date time.Time
		pkg  string
	}
	replaced := make(map[key]bool, len(current))
	for _, s := range current {
		replaced[key{s.RunDate.UTC(), s.PackageName}] = true
	}
	merged := make([]domain.PackageSummary, 0, len(history)+len(current))
	for _, s := range history {
		if !replaced[key{s.RunDate.UTC(), s.PackageName}] {
			merged = append(merged, s)
		}
	}
	merged = append(merged, current...)
	sort.SliceStable(merged, func(i, j int) bool {
		if !merged[i].RunDate.Equal(merged[j].RunDate) {
			return merged[i].RunDate.Before(merged[j].RunDate)
		}
		return merged[i].PackageName < merged[j].PackageName
	})
	return merged
}

// ForPackage returns the trend series of one package in ledger order.
func ForPackage(history []domain.PackageSummary, pkg string) []domain.PackageSummary {
	out := []domain.PackageSummary{}
	for _, s := range history {
		if s.PackageName == pkg {
			out = append(out, s)
		}
	}
	return out
}

// Packages returns the distinct package names in the ledger, sorted.
func Packages(history []domain.PackageSummary) []string {
	seen := make(map[string]bool)
	var out []string
	for _, s := range history {
		if !seen[s.PackageName] {
			seen[s.PackageName] = true
			out = append(out, s.PackageName)
		}
	}
	sort.Strings(out)
	return out
}
