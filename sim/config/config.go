// Package config loads the YAML run configuration and expands list-valued
// parameters into distinct simulation runs.
//
// A configuration file holds named sections; each section is a flat map of
// parameters. Any parameter may be given as a list of values, in which case
// the section describes the cartesian product of all list-valued parameters:
// with a = [1, 2, 3] and b = [5, 6] the section expands to six runs. For a
// stable numbering, parameters contribute their factors in sorted-name
// order, and the run number selects index (run / prevSizes) % len for each
// list parameter.
package config

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// outputParam is the parameter naming the per-run output file template.
const outputParam = "output"

// Config is one loaded configuration section with its run expansion.
type Config struct {
	path    string
	section string
	params  map[string]any

	runCount int
	// parMap maps each list-valued parameter to its value index per run.
	parMap map[string][]int
}

// Load reads the configuration file and selects one section.
func Load(path, section string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read config %s: %w", path, err)
	}
	var sections map[string]map[string]any
	if err := yaml.Unmarshal(data, &sections); err != nil {
		return nil, fmt.Errorf("unable to parse config %s: %w", path, err)
	}
	params, ok := sections[section]
	if !ok {
		return nil, fmt.Errorf("config %s does not contain section %q", path, section)
	}
	c := &Config{
		path:    path,
		section: section,
		params:  params,
	}
	c.mapParameters()
	return c, nil
}

// mapParameters computes, for every list-valued parameter, the index of the
// value it takes in each run of the cartesian product.
func (c *Config) mapParameters() {
	count := 1
	for _, name := range c.sortedParams() {
		if values, ok := c.params[name].([]any); ok {
			count *= len(values)
		}
	}

	parMap := make(map[string][]int)
	prevSize := 1
	for _, name := range c.sortedParams() {
		values, ok := c.params[name].([]any)
		if !ok {
			continue
		}
		indices := make([]int, count)
		for run := 0; run < count; run++ {
			indices[run] = run / prevSize % len(values)
		}
		parMap[name] = indices
		prevSize *= len(values)
	}

	c.runCount = count
	c.parMap = parMap
}

func (c *Config) sortedParams() []string {
	names := make([]string, 0, len(c.params))
	for name := range c.params {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Section returns the loaded section name.
func (c *Config) Section() string { return c.section }

// RunCount returns the total number of runs the section expands to.
func (c *Config) RunCount() int { return c.runCount }

// Run selects one run of the cartesian product.
func (c *Config) Run(number int) (*Run, error) {
	if number < 0 || number >= c.runCount {
		return nil, fmt.Errorf("run number %d does not exist (section %q has %d runs)",
			number, c.section, c.runCount)
	}
	return &Run{cfg: c, number: number}, nil
}

// Params returns a textual name: value summary of the list-valued
// parameters as resolved for the given run, for verbose run listings.
func (c *Config) Params(number int) (string, error) {
	if number < 0 || number >= c.runCount {
		return "", fmt.Errorf("run number %d does not exist (section %q has %d runs)",
			number, c.section, c.runCount)
	}
	var sb strings.Builder
	for _, name := range c.sortedParams() {
		indices, ok := c.parMap[name]
		if !ok {
			continue
		}
		values := c.params[name].([]any)
		fmt.Fprintf(&sb, "%s: %v ", name, values[indices[number]])
	}
	return strings.TrimRight(sb.String(), " "), nil
}

// Run resolves parameter values for one specific run number.
type Run struct {
	cfg    *Config
	number int
}

// Number returns the run index within the section.
func (r *Run) Number() int { return r.number }

// Section returns the section this run belongs to.
func (r *Run) Section() string { return r.cfg.section }

// Has reports whether the parameter is present in the section.
func (r *Run) Has(name string) bool {
	_, ok := r.cfg.params[name]
	return ok
}

// value resolves a parameter for this run: list-valued parameters yield the
// element selected by the run number, scalars yield themselves.
func (r *Run) value(name string) (any, error) {
	raw, ok := r.cfg.params[name]
	if !ok {
		return nil, fmt.Errorf("parameter %q not found in section %q", name, r.cfg.section)
	}
	if indices, ok := r.cfg.parMap[name]; ok {
		return raw.([]any)[indices[r.number]], nil
	}
	return raw, nil
}

// Float resolves a numeric parameter.
func (r *Run) Float(name string) (float64, error) {
	v, err := r.value(name)
	if err != nil {
		return 0, err
	}
	f, ok := toFloat(v)
	if !ok {
		return 0, fmt.Errorf("parameter %q is not numeric (got %T)", name, v)
	}
	return f, nil
}

// Int resolves an integer parameter.
func (r *Run) Int(name string) (int, error) {
	f, err := r.Float(name)
	if err != nil {
		return 0, err
	}
	return int(f), nil
}

// Position is one node placement in meters.
type Position struct {
	X, Y float64
}

// Positions resolves a topology parameter: a list of [x, y] pairs.
func (r *Run) Positions(name string) ([]Position, error) {
	v, err := r.value(name)
	if err != nil {
		return nil, err
	}
	list, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("parameter %q is not a list of positions", name)
	}
	positions := make([]Position, 0, len(list))
	for i, item := range list {
		pair, ok := item.([]any)
		if !ok || len(pair) != 2 {
			return nil, fmt.Errorf("parameter %q: element %d is not an [x, y] pair", name, i)
		}
		x, okx := toFloat(pair[0])
		y, oky := toFloat(pair[1])
		if !okx || !oky {
			return nil, fmt.Errorf("parameter %q: element %d has non-numeric coordinates", name, i)
		}
		positions = append(positions, Position{X: x, Y: y})
	}
	return positions, nil
}

// DistSpec is a run-resolved random-variate specification: the distribution
// name plus its numeric parameters.
type DistSpec struct {
	Name   string
	Params map[string]float64
}

// Dist resolves a distribution parameter, given in the configuration as a
// mapping like {distribution: exp, lambda: 10}.
func (r *Run) Dist(name string) (DistSpec, error) {
	v, err := r.value(name)
	if err != nil {
		return DistSpec{}, err
	}
	m, ok := v.(map[string]any)
	if !ok {
		return DistSpec{}, fmt.Errorf("parameter %q is not a distribution mapping", name)
	}
	distName, ok := m["distribution"].(string)
	if !ok {
		return DistSpec{}, fmt.Errorf("parameter %q is missing the distribution name", name)
	}
	spec := DistSpec{Name: distName, Params: make(map[string]float64)}
	for k, raw := range m {
		if k == "distribution" {
			continue
		}
		f, ok := toFloat(raw)
		if !ok {
			return DistSpec{}, fmt.Errorf("parameter %q: distribution field %q is not numeric", name, k)
		}
		spec.Params[k] = f
	}
	return spec, nil
}

// OutputFile computes the per-run output file name. Without an output
// parameter the name defaults to <section>_<run>.csv. Otherwise the
// configured template is expanded: {param} substitutes the run-resolved
// value of a parameter ({param.sub} reaches into mapping parameters, e.g.
// {size.lambda}); when the resolved value is itself a list, its run index is
// substituted instead.
func (r *Run) OutputFile() (string, error) {
	raw, ok := r.cfg.params[outputParam]
	if !ok {
		return fmt.Sprintf("%s_%d.csv", r.cfg.section, r.number), nil
	}
	template, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("parameter %q is not a string", outputParam)
	}
	return r.expandTemplate(template)
}

func (r *Run) expandTemplate(template string) (string, error) {
	var out strings.Builder
	var varName strings.Builder
	inVar := false
	for _, ch := range template {
		switch ch {
		case '{':
			if inVar {
				return "", fmt.Errorf("invalid syntax for output template %q", template)
			}
			inVar = true
			varName.Reset()
		case '}':
			if !inVar {
				return "", fmt.Errorf("invalid syntax for output template %q", template)
			}
			substituted, err := r.resolveTemplateVar(varName.String())
			if err != nil {
				return "", err
			}
			out.WriteString(substituted)
			inVar = false
		default:
			if inVar {
				varName.WriteRune(ch)
			} else {
				out.WriteRune(ch)
			}
		}
	}
	if inVar {
		return "", fmt.Errorf("invalid syntax for output template %q", template)
	}
	return out.String(), nil
}

// resolveTemplateVar resolves one {a.b.c} reference against this run.
func (r *Run) resolveTemplateVar(name string) (string, error) {
	parts := strings.Split(name, ".")
	root := parts[0]
	raw, ok := r.cfg.params[root]
	if !ok {
		return "", fmt.Errorf("output template references unknown parameter %q", root)
	}
	var obj any
	if indices, isList := r.cfg.parMap[root]; isList {
		index := indices[r.number]
		obj = raw.([]any)[index]
		// a list element that is itself a list substitutes its index
		if _, nested := obj.([]any); nested {
			obj = index
		}
	} else {
		obj = raw
		if _, isRawList := obj.([]any); isRawList {
			obj = 0
		}
	}
	for _, part := range parts[1:] {
		m, ok := obj.(map[string]any)
		if !ok {
			return "", fmt.Errorf("output template: %q does not resolve to a mapping", name)
		}
		obj, ok = m[part]
		if !ok {
			return "", fmt.Errorf("output template: %q has no field %q", name, part)
		}
	}
	return fmt.Sprint(obj), nil
}

// toFloat widens any YAML numeric scalar to float64.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}
