package adapter

import (
	"encoding/xml"
	"io"
	"strings"

	"github.com/ludo-technologies/sanity/domain"
)

type pmdReport struct {
	XMLName xml.Name   `xml:"pmd"`
	Files   []pmdFile  `xml:"file"`
	Errors  []pmdError `xml:"error"`
}

type pmdFile struct {
	Name       string         `xml:"name,attr"`
	Violations []pmdViolation `xml:"violation"`
}

type pmdViolation struct {
	BeginLine   int    `xml:"beginline,attr"`
	EndLine     int    `xml:"endline,attr"`
	BeginColumn int    `xml:"begincolumn,attr"`
	EndColumn   int    `xml:"endcolumn,attr"`
	Rule        string `xml:"rule,attr"`
	RuleSet     string `xml:"ruleset,attr"`
	Priority    int    `xml:"priority,attr"`
	Message     string `xml:",chardata"`
}

type pmdError struct {
	Filename string `xml:"filename,attr"`
	Msg      string `xml:"msg,attr"`
}

// PMD reads PMD XML reports.
type PMD struct{}

func (PMD) Source() domain.Source { return domain.SourcePMD }

func (p PMD) Load(r io.Reader, t *Target) error {
	var report pmdReport
	if err := xml.NewDecoder(r).Decode(&report); err != nil {
		return domain.NewAdapterError(p.Source(), "", err)
	}

	// Processing errors are PMD failing on a file, not findings.
	for _, e := range report.Errors {
		t.log().Warnf("%s could not analyze %s: %s", p.Source(), e.Filename, e.Msg)
	}

	for _, file := range report.Files {
		for _, v := range file.Violations {
			d := domain.NewDiagnostic(t.IDs, p.Source())
			d.SetRuleName(v.Rule)
			d.SetMessage(strings.TrimSpace(v.Message))
			d.SetLines(max(v.BeginLine, 1), v.EndLine)
			if v.BeginColumn > 0 {
				d.SetStartColumn(v.BeginColumn)
				d.SetEndColumn(v.EndColumn)
			}
			t.emit(d, file.Name)
		}
	}
	return nil
}
