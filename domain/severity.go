package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Severity is the ordered importance bucket assigned to a diagnostic.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityLow
	SeverityModerate
	SeveritySignificant
	SeverityHigh
)

// SeverityAll is the query sentinel matching every severity.
const SeverityAll Severity = -1

// NumSeverities is the number of real severity buckets.
const NumSeverities = 5

// Severities lists the buckets from lowest to highest.
func Severities() []Severity {
	return []Severity{SeverityInfo, SeverityLow, SeverityModerate, SeveritySignificant, SeverityHigh}
}

func (s Severity) String() string {
	switch s {
	case SeverityAll:
		return "ALL"
	case SeverityInfo:
		return "INFO"
	case SeverityLow:
		return "LOW"
	case SeverityModerate:
		return "MODERATE"
	case SeveritySignificant:
		return "SIGNIFICANT"
	case SeverityHigh:
		return "HIGH"
	}
	return "UNKNOWN"
}

// IsValid reports whether s is one of the five real buckets.
func (s Severity) IsValid() bool {
	return s >= SeverityInfo && s <= SeverityHigh
}

// MarshalText renders the severity name for json/yaml output.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// ParseSeverity accepts either a bucket name or its integer value 0-4.
func ParseSeverity(value string) (Severity, error) {
	value = strings.TrimSpace(value)
	if n, err := strconv.Atoi(value); err == nil {
		sev := Severity(n)
		if !sev.IsValid() {
			return SeverityInfo, fmt.Errorf("severity %d out of range 0-4", n)
		}
		return sev, nil
	}
	for _, sev := range Severities() {
		if strings.EqualFold(sev.String(), value) {
			return sev, nil
		}
	}
	return SeverityInfo, fmt.Errorf("unknown severity %q", value)
}
