package services

// ============================================================================
// EVALUATION PIPELINE - READ MODEL
// Projects caller-supplied step state onto the fixed linear pipeline.
// Deliberately not a transition-enforcing FSM: the dashboard allows
// revisiting completed steps, so legality lives with the caller.
// ============================================================================

// PipelineStep is one phase of the deal evaluation pipeline.
type PipelineStep string

const (
	StepVehicleCondition PipelineStep = "vehicle_condition"
	StepPrice            PipelineStep = "price"
	StepFinancing        PipelineStep = "financing"
	StepRisk             PipelineStep = "risk"
	StepFinal            PipelineStep = "final"
)

// PipelineSteps is the fixed evaluation order. Index position drives the
// progress display.
var PipelineSteps = []PipelineStep{
	StepVehicleCondition,
	StepPrice,
	StepFinancing,
	StepRisk,
	StepFinal,
}

// StepNotFound is returned by StepIndex for unrecognized steps. Callers must
// guard on it instead of indexing.
const StepNotFound = -1

// StepIndex returns the position of step in the fixed pipeline order, or
// StepNotFound.
func StepIndex(step PipelineStep) int {
	for i, s := range PipelineSteps {
		if s == step {
			return i
		}
	}
	return StepNotFound
}

// StepState is the projection of one step for the stepper display.
// Completed and Current are not mutually exclusive: a revisited step is both.
type StepState struct {
	Step      PipelineStep `json:"step"`
	Completed bool         `json:"completed"`
	Current   bool         `json:"current"`
}

// ProjectSteps maps currentStep plus an unordered (possibly duplicated)
// completed list onto per-step flags for every step in the pipeline.
func ProjectSteps(currentStep PipelineStep, completedSteps []PipelineStep) []StepState {
	completed := make(map[PipelineStep]bool, len(completedSteps))
	for _, s := range completedSteps {
		completed[s] = true
	}

	states := make([]StepState, len(PipelineSteps))
	for i, s := range PipelineSteps {
		states[i] = StepState{
			Step:      s,
			Completed: completed[s],
			Current:   s == currentStep,
		}
	}
	return states
}

// ActionSet is the final-report checklist of completed action indexes.
// Treated as immutable: toggling always produces a fresh set so re-renders
// never alias a mutated map.
type ActionSet map[int]bool

// ToggleAction returns a copy of set with idx added if absent or removed if
// present. The input set is never modified.
func ToggleAction(set ActionSet, idx int) ActionSet {
	next := make(ActionSet, len(set)+1)
	for k := range set {
		if set[k] {
			next[k] = true
		}
	}
	if next[idx] {
		delete(next, idx)
	} else {
		next[idx] = true
	}
	return next
}

// ActionIndexes returns the sorted slice form used for storage and JSON.
func ActionIndexes(set ActionSet) []int {
	out := make([]int, 0, len(set))
	for k := range set {
		if set[k] {
			out = append(out, k)
		}
	}
	// insertion sort; checklists are tiny
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j] < out[j-1]; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

// ActionSetFromIndexes rebuilds the set from its stored slice form.
func ActionSetFromIndexes(indexes []int) ActionSet {
	set := make(ActionSet, len(indexes))
	for _, i := range indexes {
		set[i] = true
	}
	return set
}
