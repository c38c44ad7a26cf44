// Package testutil provides fixtures for testing sanity components
package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// Project is a throwaway source tree with tool result files
type Project struct {
	Root string
}

// NewProject creates an empty project under t.TempDir()
func NewProject(t *testing.T) *Project {
	t.Helper()
	return &Project{Root: t.TempDir()}
}

// Path returns the absolute path of a slash separated project path
func (p *Project) Path(rel string) string {
	return filepath.Join(p.Root, filepath.FromSlash(rel))
}

// WriteFile writes content to a project path, creating directories
func (p *Project) WriteFile(t *testing.T, rel, content string) string {
	t.Helper()
	return WriteFile(t, p.Root, rel, content)
}

// WriteFile writes content below dir, creating directories
func WriteFile(t *testing.T, dir, rel, content string) string {
	t.Helper()
	path := filepath.Join(dir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("Failed to create directory for %s: %v", rel, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write %s: %v", rel, err)
	}
	return path
}

// Source roots and result files of the Maven fixture
const (
	JavaSourceRoot  = "src/main/java"
	CheckstyleFile  = "target/checkstyle-result.xml"
	PMDFile         = "target/pmd.xml"
	CoberturaFile   = "target/site/cobertura/coverage.xml"
	FooSource       = "src/main/java/com/acme/Foo.java"
	BarSource       = "src/main/java/com/acme/util/Bar.java"
	FooClass        = "com.acme.Foo"
	BarClass        = "com.acme.util.Bar"
	FooPackage      = "com.acme"
	BarPackage      = "com.acme.util"
	FooLineCount    = 10
	BarLineCount    = 6
	CheckstyleCount = 3
	PMDCount        = 1
)

const fooJava = `package com.acme;

public class Foo {
    private int count;

    public int next() {
        count = count + 1;
        return count;
    }
}
`

const barJava = `package com.acme.util;

public final class Bar {
    private Bar() {
    }
}
`

// CheckstyleXML reports two findings in Foo and one in Bar. The file names
// are relative to the source root, the way the Maven plugin writes them.
const CheckstyleXML = `<?xml version="1.0" encoding="UTF-8"?>
<checkstyle version="10.12.0">
  <file name="com/acme/Foo.java">
    <error line="4" column="5" severity="warning" message="Missing a Javadoc comment."
           source="com.puppycrawl.tools.checkstyle.checks.javadoc.JavadocVariableCheck"/>
    <error line="7" column="15" severity="error" message="Inner assignments should be avoided."
           source="com.puppycrawl.tools.checkstyle.checks.coding.InnerAssignmentCheck"/>
  </file>
  <file name="com/acme/util/Bar.java">
    <error line="3" severity="warning" message="Missing a Javadoc comment."
           source="com.puppycrawl.tools.checkstyle.checks.javadoc.MissingJavadocTypeCheck"/>
  </file>
</checkstyle>
`

// PMDXML reports one finding in Foo
const PMDXML = `<?xml version="1.0" encoding="UTF-8"?>
<pmd version="6.55.0">
  <file name="src/main/java/com/acme/Foo.java">
    <violation beginline="6" endline="9" begincolumn="5" endcolumn="5" rule="MethodNamingConventions"
               ruleset="Code Style" package="com.acme" class="Foo" priority="3">
      The method name 'next' is fine but the rule still fires
    </violation>
  </file>
</pmd>
`

// CoberturaXML covers Foo: 4 instrumented lines, 3 covered, one branch line
// with half of its conditions taken.
const CoberturaXML = `<?xml version="1.0"?>
<coverage line-rate="0.75" branch-rate="0.5" version="1.9">
  <sources>
    <source>src/main/java</source>
  </sources>
  <packages>
    <package name="com.acme">
      <classes>
        <class name="com.acme.Foo" filename="com/acme/Foo.java">
          <lines>
            <line number="3" hits="1" branch="false"/>
            <line number="7" hits="2" branch="true" condition-coverage="50% (1/2)"/>
            <line number="8" hits="2" branch="false"/>
            <line number="9" hits="0" branch="false"/>
          </lines>
        </class>
      </classes>
    </package>
  </packages>
</coverage>
`

// JavaProject lays out a Maven-style project with two classes in two
// packages and the Checkstyle, PMD and Cobertura results for them.
func JavaProject(t *testing.T) *Project {
	t.Helper()
	p := NewProject(t)
	p.WriteFile(t, FooSource, fooJava)
	p.WriteFile(t, BarSource, barJava)
	p.WriteFile(t, CheckstyleFile, CheckstyleXML)
	p.WriteFile(t, PMDFile, PMDXML)
	p.WriteFile(t, CoberturaFile, CoberturaXML)
	return p
}

// ConfigYAML returns a sanity.yaml for the Java fixture. The tools only read
// the result files.
func ConfigYAML() string {
	return `sources:
  paths:
    - src/main/java
  extensions: [".java"]
tools:
  - source: checkstyle
    result_file: ` + CheckstyleFile + `
    mandatory: true
  - source: pmd
    result_file: ` + PMDFile + `
  - source: cobertura
    result_file: ` + CoberturaFile + `
history:
  enabled: true
  file: .sanity/history.csv
`
}

// AssertNoError fails the test if err is not nil
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil
func AssertError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("Expected error but got nil")
	}
}

// AssertEqual fails the test if expected != actual
func AssertEqual(t *testing.T, expected, actual any) {
	t.Helper()
	if expected != actual {
		t.Errorf("Expected %v, got %v", expected, actual)
	}
}

// AssertTrue fails the test if condition is false
func AssertTrue(t *testing.T, condition bool, msg string) {
	t.Helper()
	if !condition {
		t.Error(msg)
	}
}
