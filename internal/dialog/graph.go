// Package dialog implements the incident report conversation: a static step
// graph whose branch functions pick the next step from the collected
// answers, and an Engine applying inbound input to a session.
package dialog

import (
	"errors"
	"fmt"

	"github.com/looplab/fsm"

	"github.com/iLeonidze/OXPAHA28-bot/internal/config"
	"github.com/iLeonidze/OXPAHA28-bot/internal/core/domain"
)

// Step identifiers. StepSubmit is the terminal pseudo-step reached by the
// confirm step's send action.
const (
	StepStart              domain.StepID = "start"
	StepSelectStreet       domain.StepID = "select_street"
	StepSelectHouse        domain.StepID = "select_house_number"
	StepSelectArea         domain.StepID = "select_problem_area"
	StepSelectSection      domain.StepID = "select_section_number"
	StepSelectFloor        domain.StepID = "select_floor_number"
	StepSelectFlat         domain.StepID = "select_flat_number"
	StepSelectStoreroom    domain.StepID = "select_storeroom_number"
	StepSelectParking      domain.StepID = "select_parking_number"
	StepSpecifyDescription domain.StepID = "specify_description"
	StepConfirm            domain.StepID = "confirm"
	StepUploadPhoto        domain.StepID = "upload_photo"
	StepAddDescription     domain.StepID = "add_description"
	StepShareLocation      domain.StepID = "share_location"
	StepSubmit             domain.StepID = "submit"
)

// InputKind selects the validation rule of a step.
type InputKind string

const (
	InputChoice   InputKind = "choice"
	InputNumber   InputKind = "number"
	InputText     InputKind = "text"
	InputMedia    InputKind = "media"
	InputLocation InputKind = "location"
	InputConfirm  InputKind = "confirm"
)

// Action is a button of the confirm step.
type Action struct {
	Label  string
	Match  []string
	Target domain.StepID
}

// StepDefinition is one node of the step graph.
type StepDefinition struct {
	ID     domain.StepID
	Kind   InputKind
	Field  domain.FieldKey
	Prompt string

	// Options lists the accepted values of a choice step.
	Options []string
	// Range bounds a number step, inclusive.
	Range config.Range
	// Actions are the confirm step's buttons.
	Actions []Action

	// Next declares every step Branch may return.
	Next []domain.StepID
	// Branch picks the successor from the answers after this step's answer
	// was recorded. It must be pure.
	Branch func(domain.Answers) domain.StepID

	// Detour steps are entered from the confirm step and return to the
	// step they were entered from instead of branching.
	Detour bool
}

// Graph is the static step graph. It is immutable after NewGraph and safe
// for concurrent use.
type Graph struct {
	initial domain.StepID
	steps   map[domain.StepID]*StepDefinition
	order   []domain.StepID

	// machines holds one edge table per step, pinned at that step.
	machines map[domain.StepID]*fsm.FSM
}

// GraphError reports a malformed step graph.
type GraphError struct {
	Step   domain.StepID
	Reason string
}

func (e *GraphError) Error() string {
	return fmt.Sprintf("step %s: %s", e.Step, e.Reason)
}

// NewGraph compiles steps and validates the result.
func NewGraph(initial domain.StepID, steps []*StepDefinition) (*Graph, error) {
	g := &Graph{
		initial:  initial,
		steps:    make(map[domain.StepID]*StepDefinition, len(steps)),
		machines: make(map[domain.StepID]*fsm.FSM, len(steps)),
	}

	for _, def := range steps {
		if _, dup := g.steps[def.ID]; dup {
			return nil, &GraphError{Step: def.ID, Reason: "defined twice"}
		}
		g.steps[def.ID] = def
		g.order = append(g.order, def.ID)
	}

	if err := g.Validate(); err != nil {
		return nil, err
	}

	for _, def := range steps {
		events := make(fsm.Events, 0, len(def.Next))
		for _, succ := range def.Next {
			events = append(events, fsm.EventDesc{
				Name: edgeEvent(succ),
				Src:  []string{string(def.ID)},
				Dst:  string(succ),
			})
		}
		g.machines[def.ID] = fsm.NewFSM(string(def.ID), events, fsm.Callbacks{})
	}

	return g, nil
}

func edgeEvent(to domain.StepID) string {
	return "to_" + string(to)
}

// Validate checks that every declared edge targets a defined step, that
// every step is reachable from the initial step, and that branch edges
// form no cycle.
func (g *Graph) Validate() error {
	var errs []error

	if _, ok := g.steps[g.initial]; !ok {
		errs = append(errs, &GraphError{Step: g.initial, Reason: "initial step is not defined"})
	}

	for _, id := range g.order {
		def := g.steps[id]
		for _, succ := range def.Next {
			if succ == StepSubmit {
				continue
			}
			if _, ok := g.steps[succ]; !ok {
				errs = append(errs, &GraphError{Step: id, Reason: fmt.Sprintf("successor %s is not defined", succ)})
			}
		}

		switch {
		case def.Detour:
			if len(def.Next) != 0 || def.Branch != nil {
				errs = append(errs, &GraphError{Step: id, Reason: "detour step must not branch"})
			}
			if def.Field == "" {
				errs = append(errs, &GraphError{Step: id, Reason: "detour step has no field"})
			}
		case def.Kind == InputConfirm:
			for _, a := range def.Actions {
				if !contains(def.Next, a.Target) {
					errs = append(errs, &GraphError{Step: id, Reason: fmt.Sprintf("action %q targets undeclared %s", a.Label, a.Target)})
				}
			}
		default:
			if def.Branch == nil || len(def.Next) == 0 {
				errs = append(errs, &GraphError{Step: id, Reason: "step has no branch"})
			}
			if def.Field == "" {
				errs = append(errs, &GraphError{Step: id, Reason: "step has no field"})
			}
		}

		if def.Kind == InputNumber && def.Range.Min > def.Range.Max {
			errs = append(errs, &GraphError{Step: id, Reason: "range min exceeds max"})
		}
		if def.Kind == InputChoice && len(def.Options) == 0 {
			errs = append(errs, &GraphError{Step: id, Reason: "choice step has no options"})
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	if cycle := g.findCycle(); cycle != "" {
		return &GraphError{Step: cycle, Reason: "branch edges form a cycle"}
	}

	reached := g.reachable()
	for _, id := range g.order {
		if !reached[id] {
			errs = append(errs, &GraphError{Step: id, Reason: "unreachable from the initial step"})
		}
	}
	return errors.Join(errs...)
}

// findCycle returns a step on a cycle of declared edges, or "".
func (g *Graph) findCycle() domain.StepID {
	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[domain.StepID]int, len(g.steps))

	var visit func(domain.StepID) domain.StepID
	visit = func(id domain.StepID) domain.StepID {
		switch state[id] {
		case visiting:
			return id
		case done:
			return ""
		}
		state[id] = visiting
		if def, ok := g.steps[id]; ok {
			for _, succ := range def.Next {
				if found := visit(succ); found != "" {
					return found
				}
			}
		}
		state[id] = done
		return ""
	}

	for _, id := range g.order {
		if found := visit(id); found != "" {
			return found
		}
	}
	return ""
}

func (g *Graph) reachable() map[domain.StepID]bool {
	seen := map[domain.StepID]bool{g.initial: true}
	queue := []domain.StepID{g.initial}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		def, ok := g.steps[id]
		if !ok {
			continue
		}
		for _, succ := range def.Next {
			if !seen[succ] {
				seen[succ] = true
				queue = append(queue, succ)
			}
		}
	}
	return seen
}

// Initial returns the initial step.
func (g *Graph) Initial() domain.StepID {
	return g.initial
}

// Step returns the definition of id.
func (g *Graph) Step(id domain.StepID) (*StepDefinition, bool) {
	def, ok := g.steps[id]
	return def, ok
}

// Steps returns the step ids in definition order.
func (g *Graph) Steps() []domain.StepID {
	return append([]domain.StepID(nil), g.order...)
}

// CanTransition reports whether from declares an edge to to.
func (g *Graph) CanTransition(from, to domain.StepID) bool {
	m, ok := g.machines[from]
	if !ok {
		return false
	}
	return m.Can(edgeEvent(to))
}

// Path returns the steps visited from the initial step by following branch
// functions over answers, stopping at the first step whose field is unset,
// at a confirm step, or at a step that cannot branch.
func (g *Graph) Path(answers domain.Answers) []domain.StepID {
	var path []domain.StepID
	id := g.initial
	for i := 0; i <= len(g.steps); i++ {
		def, ok := g.steps[id]
		if !ok {
			break
		}
		path = append(path, id)
		if def.Kind == InputConfirm || def.Branch == nil || !answers.Has(def.Field) {
			break
		}
		next := def.Branch(answers)
		if !g.CanTransition(id, next) {
			break
		}
		id = next
	}
	return path
}

// Prune removes answers to steps that are not on the current path. Fields
// written by detour steps are kept.
func (g *Graph) Prune(answers domain.Answers) {
	keep := make(map[domain.FieldKey]bool)
	for _, id := range g.Path(answers) {
		if f := g.steps[id].Field; f != "" {
			keep[f] = true
		}
	}
	for _, id := range g.order {
		if def := g.steps[id]; def.Detour {
			keep[def.Field] = true
		}
	}
	for key := range answers {
		if !keep[key] {
			delete(answers, key)
		}
	}
}

func contains(ids []domain.StepID, id domain.StepID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
