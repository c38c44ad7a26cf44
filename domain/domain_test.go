package domain

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

// Error tests

func TestDomainError_Error(t *testing.T) {
	// Without cause
	err := DomainError{
		Code:    "TEST_ERROR",
		Message: "Test message",
	}
	expected := "[TEST_ERROR] Test message"
	if err.Error() != expected {
		t.Errorf("Expected '%s', got '%s'", expected, err.Error())
	}

	// With cause
	cause := errors.New("underlying error")
	errWithCause := DomainError{
		Code:    "TEST_ERROR",
		Message: "Test message",
		Cause:   cause,
	}
	expectedWithCause := "[TEST_ERROR] Test message: underlying error"
	if errWithCause.Error() != expectedWithCause {
		t.Errorf("Expected '%s', got '%s'", expectedWithCause, errWithCause.Error())
	}
}

func TestDomainError_Unwrap(t *testing.T) {
	cause := errors.New("underlying error")
	err := DomainError{
		Code:    "TEST_ERROR",
		Message: "Test message",
		Cause:   cause,
	}

	unwrapped := err.Unwrap()
	if unwrapped != cause {
		t.Error("Unwrap should return the cause")
	}

	// Without cause
	errNoCause := DomainError{
		Code:    "TEST_ERROR",
		Message: "Test message",
	}
	if errNoCause.Unwrap() != nil {
		t.Error("Unwrap should return nil when no cause")
	}
}

func TestNewDomainError(t *testing.T) {
	cause := errors.New("cause")
	err := NewDomainError("CODE", "message", cause)

	domainErr, ok := err.(DomainError)
	if !ok {
		t.Fatal("Should return DomainError type")
	}
	if domainErr.Code != "CODE" {
		t.Errorf("Expected code 'CODE', got '%s'", domainErr.Code)
	}
	if domainErr.Message != "message" {
		t.Errorf("Expected message 'message', got '%s'", domainErr.Message)
	}
	if domainErr.Cause != cause {
		t.Error("Cause should be set")
	}
}

func TestNewInvalidInputError(t *testing.T) {
	cause := errors.New("invalid")
	err := NewInvalidInputError("bad input", cause)

	domainErr := err.(DomainError)
	if domainErr.Code != ErrCodeInvalidInput {
		t.Errorf("Expected code '%s', got '%s'", ErrCodeInvalidInput, domainErr.Code)
	}
}

func TestNewFileNotFoundError(t *testing.T) {
	err := NewFileNotFoundError("/path/to/file", nil)

	domainErr := err.(DomainError)
	if domainErr.Code != ErrCodeFileNotFound {
		t.Errorf("Expected code '%s', got '%s'", ErrCodeFileNotFound, domainErr.Code)
	}
	if domainErr.Message != "file not found: /path/to/file" {
		t.Errorf("Unexpected message: %s", domainErr.Message)
	}
}

func TestNewToolExecutionError(t *testing.T) {
	cause := errors.New("exec: \"pmd\": executable file not found in $PATH")
	err := NewToolExecutionError("pmd", cause)

	domainErr := err.(DomainError)
	if domainErr.Code != ErrCodeToolExecution {
		t.Errorf("Expected code '%s', got '%s'", ErrCodeToolExecution, domainErr.Code)
	}
	if !errors.Is(err, cause) {
		t.Error("Cause should be reachable through errors.Is")
	}
}

func TestNewMalformedHistoryRecordError(t *testing.T) {
	err := NewMalformedHistoryRecordError("history.csv", 7, errors.New("bad date"))

	domainErr := err.(DomainError)
	if domainErr.Code != ErrCodeMalformedHistory {
		t.Errorf("Expected code '%s', got '%s'", ErrCodeMalformedHistory, domainErr.Code)
	}
	if domainErr.Message != "history.csv:7: malformed history record" {
		t.Errorf("Unexpected message: %s", domainErr.Message)
	}
}

func TestNewConfigError(t *testing.T) {
	err := NewConfigError("invalid config", nil)

	domainErr := err.(DomainError)
	if domainErr.Code != ErrCodeConfigError {
		t.Errorf("Expected code '%s', got '%s'", ErrCodeConfigError, domainErr.Code)
	}
}

func TestNewOutputError(t *testing.T) {
	err := NewOutputError("write failed", nil)

	domainErr := err.(DomainError)
	if domainErr.Code != ErrCodeOutputError {
		t.Errorf("Expected code '%s', got '%s'", ErrCodeOutputError, domainErr.Code)
	}
}

func TestNewUnsupportedFormatError(t *testing.T) {
	err := NewUnsupportedFormatError("xml")

	domainErr := err.(DomainError)
	if domainErr.Code != ErrCodeUnsupportedFormat {
		t.Errorf("Expected code '%s', got '%s'", ErrCodeUnsupportedFormat, domainErr.Code)
	}
	if domainErr.Message != "unsupported format: xml" {
		t.Errorf("Unexpected message: %s", domainErr.Message)
	}
}

func TestIsCode(t *testing.T) {
	err := fmt.Errorf("reading results: %w", NewAdapterError(SourcePMD, "pmd.xml", errors.New("EOF")))

	if !IsCode(err, ErrCodeAdapterError) {
		t.Error("IsCode should see a wrapped DomainError")
	}
	if IsCode(err, ErrCodeConfigError) {
		t.Error("IsCode should not match a different code")
	}
	if IsCode(errors.New("plain"), ErrCodeAdapterError) {
		t.Error("IsCode should be false for non-domain errors")
	}
}

// Output format tests

func TestParseOutputFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    OutputFormat
		wantErr bool
	}{
		{"text", OutputFormatText, false},
		{"json", OutputFormatJSON, false},
		{"yaml", OutputFormatYAML, false},
		{"", OutputFormatText, false},
		{"html", "", true},
	}
	for _, tt := range tests {
		got, err := ParseOutputFormat(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseOutputFormat(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseOutputFormat(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

// Severity and source tests

func TestParseSeverity(t *testing.T) {
	tests := []struct {
		in      string
		want    Severity
		wantErr bool
	}{
		{"0", SeverityInfo, false},
		{"4", SeverityHigh, false},
		{"moderate", SeverityModerate, false},
		{" SIGNIFICANT ", SeveritySignificant, false},
		{"5", SeverityInfo, true},
		{"-1", SeverityInfo, true},
		{"urgent", SeverityInfo, true},
	}
	for _, tt := range tests {
		got, err := ParseSeverity(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseSeverity(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseSeverity(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestSeverity_Ordering(t *testing.T) {
	sevs := Severities()
	if len(sevs) != NumSeverities {
		t.Fatalf("Expected %d severities, got %d", NumSeverities, len(sevs))
	}
	for i := 1; i < len(sevs); i++ {
		if sevs[i-1] >= sevs[i] {
			t.Errorf("%v should be lower than %v", sevs[i-1], sevs[i])
		}
	}
	if SeverityAll.IsValid() {
		t.Error("SeverityAll is a query sentinel, not a bucket")
	}
}

func TestParseSource(t *testing.T) {
	tests := map[string]Source{
		"checkstyle":   SourceCheckstyle,
		"PMD":          SourcePMD,
		"cpd":          SourcePMDCPD,
		"findbugs":     SourceSpotBugs,
		"gosec":        SourceGosec,
		"Cobertura":    SourceCobertura,
		"coverprofile": SourceGoCover,
		"all":          SourceAll,
	}
	for in, want := range tests {
		got, err := ParseSource(in)
		if err != nil {
			t.Errorf("ParseSource(%q) unexpected error: %v", in, err)
			continue
		}
		if got != want {
			t.Errorf("ParseSource(%q) = %q, want %q", in, got, want)
		}
	}

	if _, err := ParseSource("jslint"); err == nil {
		t.Error("Expected error for unknown tool")
	}
}

func TestSource_IsCoverage(t *testing.T) {
	for _, s := range KnownSources() {
		want := s == SourceCobertura || s == SourceGoCover
		if s.IsCoverage() != want {
			t.Errorf("%s.IsCoverage() = %v, want %v", s, s.IsCoverage(), want)
		}
	}
}

// Summary tests

func TestNewPackageSummary_TruncatesToMinute(t *testing.T) {
	date := time.Date(2024, 3, 5, 14, 7, 42, 123, time.UTC)
	s := NewPackageSummary(date, "com.acme", 0.5, 0.25, [NumSeverities]int{1, 2, 3, 4, 5}, 120)

	want := time.Date(2024, 3, 5, 14, 7, 0, 0, time.UTC)
	if !s.RunDate.Equal(want) {
		t.Errorf("Expected %v, got %v", want, s.RunDate)
	}
	if s.Count(SeverityAll) != 15 {
		t.Errorf("Expected total 15, got %d", s.Count(SeverityAll))
	}
	if s.Count(SeverityHigh) != 5 {
		t.Errorf("Expected 5 high, got %d", s.Count(SeverityHigh))
	}
	if s.IsRoot() {
		t.Error("Named package should not be the root rollup")
	}
}

func TestWorkUnitError(t *testing.T) {
	cause := NewMissingMandatoryInputError("no source files found")
	err := error(&WorkUnitError{Unit: "collect sources", Err: cause})

	if !IsCode(err, ErrCodeMissingMandatoryInput) {
		t.Error("WorkUnitError should unwrap to its cause")
	}
	var wue *WorkUnitError
	if !errors.As(err, &wue) || wue.Unit != "collect sources" {
		t.Errorf("Expected unit 'collect sources', got %v", err)
	}
}
