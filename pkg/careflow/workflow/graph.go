package workflow

import (
	"fmt"

	"care-triage-be/internal/entity"
	"care-triage-be/pkg/careflow/stage"
)

// RouteCondition inspects the merged record after a stage completes.
type RouteCondition func(record *entity.CaseRecord) bool

type route struct {
	after    string
	when     RouteCondition
	terminal string
}

// Graph is an ordered list of stages plus optional alternate terminals.
// Stages run strictly in order; a route lets a stage hand the run over to
// a terminal stage, after which the run ends.
type Graph struct {
	stages    []stage.Stage
	terminals map[string]stage.Stage
	routes    []route
}

func NewGraph(stages ...stage.Stage) (*Graph, error) {
	g := &Graph{terminals: make(map[string]stage.Stage)}
	for _, s := range stages {
		if err := g.Append(s); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// NewDefaultGraph builds ExtractSymptoms -> ClassifySeverity -> PlanAction
// -> GenerateSummaries with a dormant emergency_exit terminal that no
// route reaches.
func NewDefaultGraph(symptoms, severity, action, summary stage.Stage) (*Graph, error) {
	g, err := NewGraph(symptoms, severity, action, summary)
	if err != nil {
		return nil, err
	}
	if err := g.AddTerminal(stage.NewEmergencyExitStage(nil)); err != nil {
		return nil, err
	}
	return g, nil
}

func (g *Graph) Append(s stage.Stage) error {
	if err := g.checkName(s.Name()); err != nil {
		return err
	}
	g.stages = append(g.stages, s)
	return nil
}

// InsertBefore places s immediately before the stage named target.
func (g *Graph) InsertBefore(target string, s stage.Stage) error {
	return g.insert(target, 0, s)
}

// InsertAfter places s immediately after the stage named target.
func (g *Graph) InsertAfter(target string, s stage.Stage) error {
	return g.insert(target, 1, s)
}

func (g *Graph) insert(target string, offset int, s stage.Stage) error {
	if err := g.checkName(s.Name()); err != nil {
		return err
	}
	idx := g.indexOf(target)
	if idx < 0 {
		return fmt.Errorf("workflow graph: unknown stage %q", target)
	}
	idx += offset
	g.stages = append(g.stages, nil)
	copy(g.stages[idx+1:], g.stages[idx:])
	g.stages[idx] = s
	return nil
}

func (g *Graph) AddTerminal(s stage.Stage) error {
	if err := g.checkName(s.Name()); err != nil {
		return err
	}
	g.terminals[s.Name()] = s
	return nil
}

// AddRoute sends the run to terminal when when(record) holds after the
// stage named after. Routes are checked in registration order.
func (g *Graph) AddRoute(after string, when RouteCondition, terminal string) error {
	if g.indexOf(after) < 0 {
		return fmt.Errorf("workflow graph: unknown stage %q", after)
	}
	if _, ok := g.terminals[terminal]; !ok {
		return fmt.Errorf("workflow graph: unknown terminal %q", terminal)
	}
	if when == nil {
		return fmt.Errorf("workflow graph: nil route condition after %q", after)
	}
	g.routes = append(g.routes, route{after: after, when: when, terminal: terminal})
	return nil
}

func (g *Graph) Stages() []stage.Stage {
	out := make([]stage.Stage, len(g.stages))
	copy(out, g.stages)
	return out
}

func (g *Graph) StageNames() []string {
	names := make([]string, len(g.stages))
	for i, s := range g.stages {
		names[i] = s.Name()
	}
	return names
}

func (g *Graph) Terminal(name string) (stage.Stage, bool) {
	s, ok := g.terminals[name]
	return s, ok
}

func (g *Graph) next(after string, record *entity.CaseRecord) (stage.Stage, bool) {
	for _, r := range g.routes {
		if r.after == after && r.when(record) {
			return g.terminals[r.terminal], true
		}
	}
	return nil, false
}

func (g *Graph) indexOf(name string) int {
	for i, s := range g.stages {
		if s.Name() == name {
			return i
		}
	}
	return -1
}

func (g *Graph) checkName(name string) error {
	if name == "" {
		return fmt.Errorf("workflow graph: stage name is empty")
	}
	if g.indexOf(name) >= 0 {
		return fmt.Errorf("workflow graph: duplicate stage %q", name)
	}
	if _, ok := g.terminals[name]; ok {
		return fmt.Errorf("workflow graph: duplicate stage %q", name)
	}
	return nil
}
