package services

import "testing"

func TestStepIndex_Order(t *testing.T) {
	cases := []struct {
		step PipelineStep
		want int
	}{
		{StepVehicleCondition, 0},
		{StepPrice, 1},
		{StepFinancing, 2},
		{StepRisk, 3},
		{StepFinal, 4},
	}

	for _, c := range cases {
		if got := StepIndex(c.step); got != c.want {
			t.Errorf("StepIndex(%s) = %d, want %d", c.step, got, c.want)
		}
	}
}

func TestStepIndex_Unknown(t *testing.T) {
	if got := StepIndex("inspection"); got != StepNotFound {
		t.Errorf("expected StepNotFound for unknown step, got %d", got)
	}
}

func TestProjectSteps_CompletedAndCurrent(t *testing.T) {
	// Duplicates in the completed list are tolerated, and a revisited step
	// can be both completed and current.
	states := ProjectSteps(StepPrice, []PipelineStep{
		StepVehicleCondition, StepPrice, StepPrice,
	})

	if len(states) != len(PipelineSteps) {
		t.Fatalf("expected %d states, got %d", len(PipelineSteps), len(states))
	}

	if !states[0].Completed || states[0].Current {
		t.Errorf("vehicle_condition: want completed, not current; got %+v", states[0])
	}
	if !states[1].Completed || !states[1].Current {
		t.Errorf("price: want completed AND current; got %+v", states[1])
	}
	if states[2].Completed || states[2].Current {
		t.Errorf("financing: want neither flag; got %+v", states[2])
	}
}

func TestProjectSteps_UnknownCurrentStep(t *testing.T) {
	states := ProjectSteps("bogus", nil)
	for _, s := range states {
		if s.Current {
			t.Errorf("no step should be current for an unknown step, got %+v", s)
		}
	}
}

func TestToggleAction_Immutable(t *testing.T) {
	original := ActionSetFromIndexes([]int{0, 2})

	added := ToggleAction(original, 1)
	if !added[1] {
		t.Errorf("expected index 1 added")
	}
	if original[1] {
		t.Errorf("original set was mutated by toggle")
	}

	removed := ToggleAction(added, 2)
	if removed[2] {
		t.Errorf("expected index 2 removed")
	}
	if !added[2] {
		t.Errorf("intermediate set was mutated by toggle")
	}
}

func TestActionIndexes_Sorted(t *testing.T) {
	set := ActionSetFromIndexes([]int{5, 1, 3})
	got := ActionIndexes(set)

	want := []int{1, 3, 5}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}
