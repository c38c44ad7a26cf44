package adapter

import (
	"io"

	"golang.org/x/tools/cover"

	"github.com/ludo-technologies/sanity/domain"
)

// GoCover reads Go cover profiles (go test -coverprofile). File names are
// import paths and are resolved against the inventory by suffix.
type GoCover struct{}

func (GoCover) Source() domain.Source { return domain.SourceGoCover }

func (g GoCover) Load(r io.Reader, t *Target) error {
	profiles, err := cover.ParseProfilesFromReader(r)
	if err != nil {
		return domain.NewAdapterError(g.Source(), "", err)
	}

	for _, p := range profiles {
		className, _, ok := t.resolve(g.Source(), p.FileName)
		if !ok {
			continue
		}
		cc := t.Coverage.Class(className)

		// A line spanned by several blocks is covered if any of them ran.
		hits := make(map[int]int)
		for _, b := range p.Blocks {
			if b.NumStmt == 0 {
				continue
			}
			for line := b.StartLine; line <= b.EndLine; line++ {
				hits[line] = max(hits[line], b.Count)
			}
		}
		for line, count := range hits {
			cc.AddLineCoverage(line, count, false)
		}
	}
	return nil
}
