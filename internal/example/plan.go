package example

import (
	"fmt"
	"path/filepath"
	"sort"
)

// Plan is the ordered set of examples a run will execute. Order is the
// discovery order and is never rearranged.
type Plan struct {
	targets []*Target
	byName  map[string]*Target
	order   []string
}

// BuildPlan creates a plan from discovered targets. Returns an error on
// duplicate names, which would make report entries ambiguous.
func BuildPlan(targets []*Target) (*Plan, error) {
	p := &Plan{
		targets: targets,
		byName:  make(map[string]*Target, len(targets)),
		order:   make([]string, 0, len(targets)),
	}
	for _, t := range targets {
		if _, dup := p.byName[t.Name]; dup {
			return nil, fmt.Errorf("duplicate example name %q", t.Name)
		}
		p.byName[t.Name] = t
		p.order = append(p.order, t.Name)
	}
	return p, nil
}

// Order returns example names in execution order.
func (p *Plan) Order() []string {
	return p.order
}

// Target returns the target for a name, or nil.
func (p *Plan) Target(name string) *Target {
	return p.byName[name]
}

// Targets returns all targets in execution order.
func (p *Plan) Targets() []*Target {
	return p.targets
}

// Len returns the number of examples in the plan.
func (p *Plan) Len() int {
	return len(p.targets)
}

// Distributed returns how many examples in the plan use the distributed
// launcher.
func (p *Plan) Distributed() int {
	n := 0
	for _, t := range p.targets {
		if t.Distributed {
			n++
		}
	}
	return n
}

// FilterGlob returns the subset of targets whose names match the glob
// pattern, preserving order. An empty pattern keeps everything.
func FilterGlob(targets []*Target, pattern string) ([]*Target, error) {
	if pattern == "" {
		return targets, nil
	}
	var kept []*Target
	for _, t := range targets {
		ok, err := filepath.Match(pattern, t.Name)
		if err != nil {
			return nil, &ConfigError{Msg: fmt.Sprintf("bad filter %q", pattern), Err: err}
		}
		if ok {
			kept = append(kept, t)
		}
	}
	return kept, nil
}

// FilterNames returns the subset of targets whose names are in keep,
// preserving order, plus the names in keep that matched nothing (examples
// that existed in a previous run but are gone from the directory now).
func FilterNames(targets []*Target, keep map[string]bool) (kept []*Target, missing []string) {
	found := make(map[string]bool, len(keep))
	for _, t := range targets {
		if keep[t.Name] {
			kept = append(kept, t)
			found[t.Name] = true
		}
	}
	for name := range keep {
		if !found[name] {
			missing = append(missing, name)
		}
	}
	sort.Strings(missing)
	return kept, missing
}
