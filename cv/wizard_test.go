package cv

import (
	"reflect"
	"testing"
)

func TestWizard_JumpToRoundTrip(t *testing.T) {
	wizard, err := NewWizard(DefaultTotalSteps)
	if err != nil {
		t.Fatalf("new wizard: %v", err)
	}
	for step := 1; step <= wizard.TotalSteps(); step++ {
		if err := wizard.JumpTo(step); err != nil {
			t.Fatalf("jump to %d: %v", step, err)
		}
		if got := wizard.CurrentStep(); got != step {
			t.Fatalf("expected step %d, got %d", step, got)
		}
	}
}

func TestWizard_JumpToOutOfRange(t *testing.T) {
	wizard, _ := NewWizard(3)
	if err := wizard.JumpTo(2); err != nil {
		t.Fatalf("jump: %v", err)
	}
	for _, step := range []int{0, -1, 4, 100} {
		if err := wizard.JumpTo(step); !IsKind(err, KindOutOfRange) {
			t.Fatalf("step %d: expected out_of_range, got %v", step, err)
		}
	}
	if got := wizard.CurrentStep(); got != 2 {
		t.Fatalf("failed jumps must not move the wizard, got %d", got)
	}
}

func TestWizard_AdvanceClamps(t *testing.T) {
	for k := 0; k < 4; k++ {
		wizard, _ := NewWizard(DefaultTotalSteps)
		for i := 0; i < DefaultTotalSteps+k; i++ {
			wizard.Advance()
		}
		if got := wizard.CurrentStep(); got != DefaultTotalSteps {
			t.Fatalf("k=%d: expected %d, got %d", k, DefaultTotalSteps, got)
		}
		if !wizard.IsLastStep() || wizard.IsFirstStep() {
			t.Fatalf("k=%d: expected last step", k)
		}
		if wizard.Advance() {
			t.Fatalf("advance on last step must report no move")
		}
	}
}

func TestWizard_RetreatClamps(t *testing.T) {
	wizard, _ := NewWizard(4)
	if wizard.Retreat() {
		t.Fatalf("retreat on first step must report no move")
	}
	wizard.Advance()
	wizard.Advance()
	for i := 0; i < 10; i++ {
		wizard.Retreat()
	}
	if got := wizard.CurrentStep(); got != 1 || !wizard.IsFirstStep() {
		t.Fatalf("expected step 1, got %d", got)
	}
}

func TestWizard_ActiveStateIdempotent(t *testing.T) {
	wizard, _ := NewWizard(DefaultTotalSteps)
	wizard.Advance()
	wizard.Advance()

	first := wizard.ActiveState()
	second := wizard.ActiveState()
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("projection not idempotent: %+v vs %+v", first, second)
	}

	if first.Current != 3 || first.Name != "experience" {
		t.Fatalf("unexpected state: %+v", first)
	}
	active := 0
	for _, step := range first.Steps {
		if step.Active {
			active++
			if step.Number != 3 {
				t.Fatalf("wrong active step %d", step.Number)
			}
		}
		if step.Completed != (step.Number < 3) {
			t.Fatalf("step %d completed=%v", step.Number, step.Completed)
		}
	}
	if active != 1 {
		t.Fatalf("expected exactly one active step, got %d", active)
	}
	if !first.CanAdvance || !first.CanRetreat {
		t.Fatalf("expected both directions available: %+v", first)
	}
}

func TestWizard_ObserversOnlySeeTransitions(t *testing.T) {
	var seen []int
	wizard, _ := NewWizard(2, WithStepObserver(StepObserverFunc(func(state StepState) {
		seen = append(seen, state.Current)
	})))

	wizard.Retreat()
	wizard.Advance()
	wizard.Advance()
	_ = wizard.JumpTo(1)
	_ = wizard.JumpTo(9)

	want := []int{2, 1}
	if !reflect.DeepEqual(seen, want) {
		t.Fatalf("expected %v, got %v", want, seen)
	}
}

func TestWizard_StepNames(t *testing.T) {
	wizard, _ := NewWizard(3, WithStepNames("a", ""))
	state := wizard.ActiveState()
	got := []string{state.Steps[0].Name, state.Steps[1].Name, state.Steps[2].Name}
	want := []string{"a", "step-2", "step-3"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestNewWizard_RejectsEmptyFlow(t *testing.T) {
	if _, err := NewWizard(0); !IsKind(err, KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
