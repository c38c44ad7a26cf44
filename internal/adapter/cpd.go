package adapter

import (
	"encoding/xml"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/ludo-technologies/sanity/domain"
)

// DuplicateCodeRule is the rule name of every CPD finding.
const DuplicateCodeRule = "DuplicateCode"

type cpdReport struct {
	XMLName      xml.Name         `xml:"pmd-cpd"`
	Duplications []cpdDuplication `xml:"duplication"`
}

type cpdDuplication struct {
	Lines  int       `xml:"lines,attr"`
	Tokens int       `xml:"tokens,attr"`
	Files  []cpdFile `xml:"file"`
}

type cpdFile struct {
	Path      string `xml:"path,attr"`
	Line      int    `xml:"line,attr"`
	EndLine   int    `xml:"endline,attr"`
	Column    int    `xml:"column,attr"`
	EndColumn int    `xml:"endcolumn,attr"`
}

func (f cpdFile) span(lines int) (int, int) {
	start := max(f.Line, 1)
	end := f.EndLine
	if end <= 0 {
		end = start + max(lines, 1) - 1
	}
	return start, end
}

// CPD reads PMD copy/paste detector reports. Each duplication yields one
// diagnostic per participating file.
type CPD struct{}

func (CPD) Source() domain.Source { return domain.SourcePMDCPD }

func (c CPD) Load(r io.Reader, t *Target) error {
	var report cpdReport
	if err := xml.NewDecoder(r).Decode(&report); err != nil {
		return domain.NewAdapterError(c.Source(), "", err)
	}

	for _, dup := range report.Duplications {
		for i, f := range dup.Files {
			start, end := f.span(dup.Lines)
			d := domain.NewDiagnostic(t.IDs, c.Source())
			d.SetRuleName(DuplicateCodeRule)
			d.SetMessage(duplicationMessage(dup, i))
			d.SetLines(start, end)
			if f.Column > 0 {
				d.SetStartColumn(f.Column)
				d.SetEndColumn(f.EndColumn)
			}
			t.emit(d, f.Path)
		}
	}
	return nil
}

func duplicationMessage(dup cpdDuplication, self int) string {
	var others []string
	for i, f := range dup.Files {
		if i == self {
			continue
		}
		start, end := f.span(dup.Lines)
		others = append(others, fmt.Sprintf("%s:%d-%d", filepath.Base(f.Path), start, end))
	}
	msg := fmt.Sprintf("%d duplicated lines (%d tokens)", dup.Lines, dup.Tokens)
	if len(others) == 0 {
		return msg
	}
	return msg + " also found in " + strings.Join(others, ", ")
}
