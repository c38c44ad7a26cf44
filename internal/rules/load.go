package rules

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobwas/glob"
	"github.com/spf13/viper"

	"github.com/ludo-technologies/sanity/domain"
	"github.com/ludo-technologies/sanity/internal/logging"
)

// Load reads a rule file. ".properties" files use the
// <Source>.<rule>.<attribute> key layout; yaml, json and toml files use the
// typed File layout.
func Load(path string, log *logging.Logger) (*Table, error) {
	if path == "" {
		return Empty(log), nil
	}
	var (
		specs []Spec
		err   error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".properties", ".props", ".prop":
		specs, err = loadProperties(path)
	default:
		specs, err = loadTyped(path)
	}
	if err != nil {
		return nil, domain.NewConfigError(fmt.Sprintf("cannot load rules from %s", path), err)
	}
	table, err := NewTable(specs, log)
	if err != nil {
		return nil, domain.NewConfigError(fmt.Sprintf("invalid rules in %s", path), err)
	}
	return table, nil
}

func loadTyped(path string) ([]Spec, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}
	var file File
	if err := v.Unmarshal(&file); err != nil {
		return nil, err
	}
	return file.Rules, nil
}

// loadProperties reads the flat key layout. Rule names may contain dots, so
// the first segment is the source, the last the attribute and everything in
// between the rule name.
func loadProperties(path string) ([]Spec, error) {
	// "::" keeps viper from nesting the dotted keys.
	v := viper.NewWithOptions(viper.KeyDelimiter("::"))
	v.SetConfigFile(path)
	v.SetConfigType("properties")
	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	byRule := make(map[string]*Spec)
	for _, key := range v.AllKeys() {
		flat := strings.ReplaceAll(key, "::", ".")
		first := strings.IndexByte(flat, '.')
		last := strings.LastIndexByte(flat, '.')
		if first < 0 || first == last {
			return nil, fmt.Errorf("key %q is not <source>.<rule>.<attribute>", flat)
		}
		source, rule, attr := flat[:first], flat[first+1:last], flat[last+1:]
		if s, err := domain.ParseSource(source); err == nil {
			source = string(s)
		}

		id := source + "." + rule
		spec, ok := byRule[id]
		if !ok {
			spec = &Spec{Source: glob.QuoteMeta(source), Rule: glob.QuoteMeta(rule)}
			byRule[id] = spec
		}
		value := v.GetString(key)
		switch attr {
		case "severity":
			spec.Severity = value
		case "category", "categories":
			spec.Categories = splitList(value)
		case "includes":
			spec.Includes = splitList(value)
		case "excludes":
			spec.Excludes = splitList(value)
		default:
			return nil, fmt.Errorf("key %q: unknown attribute %q", flat, attr)
		}
	}

	ids := make([]string, 0, len(byRule))
	for id := range byRule {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	specs := make([]Spec, 0, len(ids))
	for _, id := range ids {
		specs = append(specs, *byRule[id])
	}
	return specs, nil
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
