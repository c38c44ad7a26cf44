package adapter

import (
	"encoding/xml"
	"io"
	"regexp"

	"github.com/ludo-technologies/sanity/domain"
)

type checkstyleReport struct {
	XMLName xml.Name         `xml:"checkstyle"`
	Files   []checkstyleFile `xml:"file"`
}

type checkstyleFile struct {
	Name   string            `xml:"name,attr"`
	Errors []checkstyleError `xml:"error"`
}

type checkstyleError struct {
	Line     int    `xml:"line,attr"`
	Column   int    `xml:"column,attr"`
	Severity string `xml:"severity,attr"`
	Message  string `xml:"message,attr"`
	Source   string `xml:"source,attr"`
}

// Checkstyle reads Checkstyle XML reports.
type Checkstyle struct {
	spurious []*regexp.Regexp
}

// NewCheckstyle creates the adapter. Findings at line 0 whose message matches
// one of spurious are Checkstyle failing on a file rather than a finding in it,
// and are dropped.
func NewCheckstyle(spurious []string) (*Checkstyle, error) {
	res, err := compilePatterns(spurious)
	if err != nil {
		return nil, domain.NewConfigError("checkstyle", err)
	}
	return &Checkstyle{spurious: res}, nil
}

func (c *Checkstyle) Source() domain.Source { return domain.SourceCheckstyle }

func (c *Checkstyle) Load(r io.Reader, t *Target) error {
	var report checkstyleReport
	if err := xml.NewDecoder(r).Decode(&report); err != nil {
		return domain.NewAdapterError(c.Source(), "", err)
	}

	for _, file := range report.Files {
		for _, e := range file.Errors {
			line := e.Line
			if line <= 0 {
				if c.isSpurious(e.Message) {
					t.log().Debugf("%s: dropping %q in %s", c.Source(), e.Message, file.Name)
					continue
				}
				line = 1
			}
			d := domain.NewDiagnostic(t.IDs, c.Source())
			d.SetRuleName(e.Source)
			d.SetMessage(e.Message)
			d.SetLines(line, line)
			if e.Column > 0 {
				d.SetStartColumn(e.Column)
			}
			t.emit(d, file.Name)
		}
	}
	return nil
}

func (c *Checkstyle) isSpurious(message string) bool {
	for _, re := range c.spurious {
		if re.MatchString(message) {
			return true
		}
	}
	return false
}
