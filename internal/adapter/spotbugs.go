package adapter

import (
	"encoding/xml"
	"io"
	"strings"

	"github.com/ludo-technologies/sanity/domain"
)

type spotbugsReport struct {
	XMLName xml.Name              `xml:"BugCollection"`
	Bugs    []spotbugsBugInstance `xml:"BugInstance"`
}

type spotbugsBugInstance struct {
	Type         string               `xml:"type,attr"`
	Priority     int                  `xml:"priority,attr"`
	Category     string               `xml:"category,attr"`
	ShortMessage string               `xml:"ShortMessage"`
	LongMessage  string               `xml:"LongMessage"`
	Class        spotbugsClass        `xml:"Class"`
	SourceLines  []spotbugsSourceLine `xml:"SourceLine"`
}

type spotbugsClass struct {
	ClassName  string              `xml:"classname,attr"`
	SourceLine *spotbugsSourceLine `xml:"SourceLine"`
}

type spotbugsSourceLine struct {
	ClassName  string `xml:"classname,attr"`
	Start      int    `xml:"start,attr"`
	End        int    `xml:"end,attr"`
	SourcePath string `xml:"sourcepath,attr"`
	SourceFile string `xml:"sourcefile,attr"`
	Primary    bool   `xml:"primary,attr"`
}

// primaryLine picks the bug's own SourceLine (the one flagged primary, else
// the first) and falls back to the class's.
func (b spotbugsBugInstance) primaryLine() spotbugsSourceLine {
	for _, sl := range b.SourceLines {
		if sl.Primary {
			return sl
		}
	}
	if len(b.SourceLines) > 0 {
		return b.SourceLines[0]
	}
	if b.Class.SourceLine != nil {
		return *b.Class.SourceLine
	}
	return spotbugsSourceLine{ClassName: b.Class.ClassName}
}

func (b spotbugsBugInstance) message() string {
	switch {
	case strings.TrimSpace(b.LongMessage) != "":
		return strings.TrimSpace(b.LongMessage)
	case strings.TrimSpace(b.ShortMessage) != "":
		return strings.TrimSpace(b.ShortMessage)
	}
	return b.Type
}

// SpotBugs reads SpotBugs (and FindBugs) XML reports.
type SpotBugs struct{}

func (SpotBugs) Source() domain.Source { return domain.SourceSpotBugs }

func (s SpotBugs) Load(r io.Reader, t *Target) error {
	var report spotbugsReport
	if err := xml.NewDecoder(r).Decode(&report); err != nil {
		return domain.NewAdapterError(s.Source(), "", err)
	}

	for _, bug := range report.Bugs {
		sl := bug.primaryLine()
		path := sl.SourcePath
		if path == "" {
			className := sl.ClassName
			if className == "" {
				className = bug.Class.ClassName
			}
			path = classSourcePath(className)
		}

		d := domain.NewDiagnostic(t.IDs, s.Source())
		d.SetRuleName(bug.Type)
		d.SetMessage(bug.message())
		d.SetLines(max(sl.Start, 1), sl.End)
		t.emit(d, path)
	}
	return nil
}

// classSourcePath guesses the source file of a class: com.acme.Foo$Bar is
// expected in com/acme/Foo.java.
func classSourcePath(className string) string {
	if i := strings.IndexByte(className, '$'); i >= 0 {
		className = className[:i]
	}
	if className == "" {
		return ""
	}
	return strings.ReplaceAll(className, ".", "/") + ".java"
}
