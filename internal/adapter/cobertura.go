package adapter

import (
	"encoding/xml"
	"io"
	"path/filepath"
	"regexp"
	"strconv"

	"github.com/ludo-technologies/sanity/domain"
)

type coberturaReport struct {
	XMLName  xml.Name           `xml:"coverage"`
	Sources  []string           `xml:"sources>source"`
	Packages []coberturaPackage `xml:"packages>package"`
}

type coberturaPackage struct {
	Name    string           `xml:"name,attr"`
	Classes []coberturaClass `xml:"classes>class"`
}

type coberturaClass struct {
	Name     string          `xml:"name,attr"`
	Filename string          `xml:"filename,attr"`
	Lines    []coberturaLine `xml:"lines>line"`
}

type coberturaLine struct {
	Number            int    `xml:"number,attr"`
	Hits              int64  `xml:"hits,attr"`
	Branch            bool   `xml:"branch,attr"`
	ConditionCoverage string `xml:"condition-coverage,attr"`
}

var conditionCoverageRe = regexp.MustCompile(`\((\d+)/(\d+)\)`)

// parseConditionCoverage reads the "(covered/total)" part of values like
// "50% (1/2)".
func parseConditionCoverage(s string) (covered, total int, ok bool) {
	m := conditionCoverageRe.FindStringSubmatch(s)
	if m == nil {
		return 0, 0, false
	}
	c, err1 := strconv.ParseInt(m[1], 10, 64)
	n, err2 := strconv.ParseInt(m[2], 10, 64)
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	return toInt(c), toInt(n), true
}

// Cobertura reads Cobertura XML coverage reports. Only class-level line
// records are used; method-level lines duplicate them.
type Cobertura struct{}

func (Cobertura) Source() domain.Source { return domain.SourceCobertura }

func (c Cobertura) Load(r io.Reader, t *Target) error {
	var report coberturaReport
	if err := xml.NewDecoder(r).Decode(&report); err != nil {
		return domain.NewAdapterError(c.Source(), "", err)
	}

	for _, pkg := range report.Packages {
		for _, class := range pkg.Classes {
			className, ok := c.resolve(class, report.Sources, t)
			if !ok {
				continue
			}
			cc := t.Coverage.Class(className)
			for _, line := range class.Lines {
				if line.Number <= 0 {
					continue
				}
				hits := toInt(line.Hits)
				if covered, total, ok := parseConditionCoverage(line.ConditionCoverage); ok && line.Branch {
					cc.AddBranchCoverage(line.Number, hits, covered, total)
					continue
				}
				cc.AddLineCoverage(line.Number, hits, line.Branch)
			}
		}
	}
	return nil
}

// resolve tries the class's file name as reported and then under every
// declared source root.
func (c Cobertura) resolve(class coberturaClass, sources []string, t *Target) (string, bool) {
	candidates := []string{class.Filename}
	for _, src := range sources {
		if src != "" && class.Filename != "" && !filepath.IsAbs(class.Filename) {
			candidates = append(candidates, filepath.Join(src, class.Filename))
		}
	}
	for _, candidate := range candidates {
		if className, _, err := t.Resolver.Resolve(candidate); err == nil {
			return className, true
		}
	}
	t.log().Warnf("%s: skipping class %s, %s is not part of the sources", c.Source(), class.Name, class.Filename)
	return "", false
}
