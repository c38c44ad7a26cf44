package domain

import (
	"fmt"
	"strings"
)

// Source identifies the tool a diagnostic or coverage record came from.
type Source string

const (
	SourceCheckstyle Source = "Checkstyle"
	SourcePMD        Source = "PMD"
	SourcePMDCPD     Source = "PMDCPD"
	SourceSpotBugs   Source = "SpotBugs"
	SourceGosec      Source = "Gosec"
	SourceCobertura  Source = "Cobertura"
	SourceGoCover    Source = "GoCover"

	// SourceAll is the query sentinel matching every tool.
	SourceAll Source = "ALL"
)

// KnownSources lists every supported tool in a stable order.
func KnownSources() []Source {
	return []Source{
		SourceCheckstyle,
		SourcePMD,
		SourcePMDCPD,
		SourceSpotBugs,
		SourceGosec,
		SourceCobertura,
		SourceGoCover,
	}
}

// IsCoverage reports whether the tool produces coverage rather than diagnostics.
func (s Source) IsCoverage() bool {
	return s == SourceCobertura || s == SourceGoCover
}

func (s Source) String() string {
	return string(s)
}

// ParseSource resolves a tool name case-insensitively. A few common aliases
// are accepted.
func ParseSource(name string) (Source, error) {
	name = strings.TrimSpace(name)
	switch strings.ToLower(name) {
	case "cpd", "pmd-cpd", "pmd_cpd":
		return SourcePMDCPD, nil
	case "findbugs", "spotbugs":
		return SourceSpotBugs, nil
	case "gocover", "go-cover", "coverprofile":
		return SourceGoCover, nil
	case "all":
		return SourceAll, nil
	}
	for _, s := range KnownSources() {
		if strings.EqualFold(string(s), name) {
			return s, nil
		}
	}
	return "", fmt.Errorf("unknown tool %q", name)
}
