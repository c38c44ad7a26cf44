package adapter

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/ludo-technologies/sanity/domain"
)

// Sonar generic issue import format, as written by gosec --fmt=sonarqube.
type sonarReport struct {
	Issues []*sonarIssue `json:"issues"`
}

type sonarIssue struct {
	EngineID        string         `json:"engineId"`
	RuleID          string         `json:"ruleId"`
	PrimaryLocation *sonarLocation `json:"primaryLocation"`
	Type            string         `json:"type"`
	Severity        string         `json:"severity"`
}

type sonarLocation struct {
	Message   string          `json:"message"`
	FilePath  string          `json:"filePath"`
	TextRange *sonarTextRange `json:"textRange"`
}

type sonarTextRange struct {
	StartLine   int `json:"startLine"`
	EndLine     int `json:"endLine,omitempty"`
	StartColumn int `json:"startColumn,omitempty"`
	EndColumn   int `json:"endColumn,omitempty"`
}

// Sonar reads gosec results in the Sonar generic issue format.
type Sonar struct{}

func (Sonar) Source() domain.Source { return domain.SourceGosec }

func (s Sonar) Load(r io.Reader, t *Target) error {
	var report sonarReport
	dec := json.NewDecoder(r)
	if err := dec.Decode(&report); err != nil {
		return domain.NewAdapterError(s.Source(), "", err)
	}

	for i, issue := range report.Issues {
		if issue == nil || issue.PrimaryLocation == nil {
			return domain.NewAdapterError(s.Source(), "", fmt.Errorf("issue %d has no primary location", i))
		}
		loc := issue.PrimaryLocation

		d := domain.NewDiagnostic(t.IDs, s.Source())
		d.SetRuleName(issue.RuleID)
		d.SetMessage(loc.Message)
		if tr := loc.TextRange; tr != nil {
			d.SetLines(max(tr.StartLine, 1), tr.EndLine)
			if tr.StartColumn > 0 {
				d.SetStartColumn(tr.StartColumn)
				d.SetEndColumn(tr.EndColumn)
			}
		} else {
			d.SetLines(1, 1)
		}
		t.emit(d, loc.FilePath)
	}
	return nil
}
