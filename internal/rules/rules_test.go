package rules

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ludo-technologies/sanity/domain"
	"github.com/ludo-technologies/sanity/internal/logging"
)

func writeRules(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const propertiesFixture = `
Checkstyle.com.puppycrawl.tools.checkstyle.checks.whitespace.WhitespaceAroundCheck.severity=1
Checkstyle.com.puppycrawl.tools.checkstyle.checks.whitespace.WhitespaceAroundCheck.category=style/whitespace
PMD.EmptyCatchBlock.severity=4
PMD.EmptyCatchBlock.category=bugs, error-handling
PMD.EmptyCatchBlock.excludes=com\\.acme\\.generated\\..*
PMD.SystemPrintln.severity=2
PMD.SystemPrintln.includes=com\\.acme\\.core\\..*
`

func TestLoad_Properties(t *testing.T) {
	t.Parallel()

	table, err := Load(writeRules(t, "rules.properties", propertiesFixture), logging.Discard())
	require.NoError(t, err)
	defer table.Close()

	assert.Equal(t, 3, table.Len())

	r, ok := table.Lookup(domain.SourceCheckstyle, "com.puppycrawl.tools.checkstyle.checks.whitespace.WhitespaceAroundCheck")
	require.True(t, ok, "dotted rule names must survive loading")
	assert.Equal(t, domain.SeverityLow, r.Severity)
	assert.Equal(t, []string{"style/whitespace"}, r.Categories)

	r, ok = table.Lookup(domain.SourcePMD, "emptycatchblock")
	require.True(t, ok, "rule names match case-insensitively")
	assert.Equal(t, domain.SeverityHigh, r.Severity)
	assert.Equal(t, []string{"bugs", "error-handling"}, r.Categories)
}

func TestTable_ExcludeAtInsertion(t *testing.T) {
	t.Parallel()

	table, err := Load(writeRules(t, "rules.properties", propertiesFixture), logging.Discard())
	require.NoError(t, err)
	defer table.Close()

	seq := &domain.IDSequence{}
	set := domain.NewDiagnosticSet(table)
	inputs := []struct{ rule, class string }{
		{"EmptyCatchBlock", "com.acme.core.Service"},
		{"EmptyCatchBlock", "com.acme.generated.Parser"},
		{"SystemPrintln", "com.acme.core.Main"},
		{"SystemPrintln", "com.acme.tools.Cli"},
		{"UnknownRule", "com.acme.tools.Cli"},
	}
	for _, in := range inputs {
		d := domain.NewDiagnostic(seq, domain.SourcePMD)
		d.SetRuleName(in.rule)
		d.SetClassName(in.class)
		table.Classify(d)
		set.Add(d)
	}

	assert.Equal(t, 3, set.Size())
	var kept []string
	for _, d := range set.Diagnostics() {
		kept = append(kept, d.RuleName()+"@"+d.ClassName())
	}
	assert.Equal(t, []string{
		"EmptyCatchBlock@com.acme.core.Service",
		"SystemPrintln@com.acme.core.Main",
		"UnknownRule@com.acme.tools.Cli",
	}, kept)
}

func TestTable_ClassifyMissingRule(t *testing.T) {
	t.Parallel()

	var logs bytes.Buffer
	table, err := NewTable(nil, logging.New(&logs, logging.LevelWarn))
	require.NoError(t, err)
	defer table.Close()

	seq := &domain.IDSequence{}
	for i := 0; i < 3; i++ {
		d := domain.NewDiagnostic(seq, domain.SourceSpotBugs)
		d.SetRuleName("NP_NULL_ON_SOME_PATH")
		d.SetSeverity(domain.SeverityHigh)
		d.SetCategories([]string{"stale"})
		table.Classify(d)

		assert.Equal(t, domain.SeverityInfo, d.Severity())
		assert.Empty(t, d.Categories())
	}
	assert.Equal(t, 1, strings.Count(logs.String(), "Warning: no rule configured for SpotBugs.NP_NULL_ON_SOME_PATH"))
}

func TestLoad_TypedFirstMatchWins(t *testing.T) {
	t.Parallel()

	path := writeRules(t, "rules.yaml", `
rules:
  - source: pmd
    rule: Unused*
    severity: moderate
    categories: [maintainability/unused]
  - source: "*"
    rule: "*"
    severity: 1
`)
	table, err := Load(path, logging.Discard())
	require.NoError(t, err)
	defer table.Close()

	seq := &domain.IDSequence{}
	d := domain.NewDiagnostic(seq, domain.SourcePMD)
	d.SetRuleName("UnusedPrivateField")
	table.Classify(d)
	assert.Equal(t, domain.SeverityModerate, d.Severity())
	assert.Equal(t, []string{"maintainability/unused"}, d.Categories())

	d = domain.NewDiagnostic(seq, domain.SourceCheckstyle)
	d.SetRuleName("LineLength")
	table.Classify(d)
	assert.Equal(t, domain.SeverityLow, d.Severity())
}

func TestLoad_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name, file, content string
	}{
		{"bad severity", "r.properties", "PMD.X.severity=9\n"},
		{"bad attribute", "r.properties", "PMD.X.colour=red\n"},
		{"short key", "r.properties", "PMD.severity=1\n"},
		{"bad regexp", "r.yaml", "rules:\n  - source: pmd\n    rule: x\n    excludes: ['(']\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeRules(t, tt.file, tt.content), logging.Discard())
			require.Error(t, err)
			assert.True(t, domain.IsCode(err, domain.ErrCodeConfigError))
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), logging.Discard())
	assert.Error(t, err)
}

func TestLoad_EmptyPath(t *testing.T) {
	t.Parallel()

	table, err := Load("", logging.Discard())
	require.NoError(t, err)
	assert.Equal(t, 0, table.Len())
	assert.True(t, table.Accepts(domain.SourcePMD, "Anything", "a.B"))
}
