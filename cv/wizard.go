package cv

import (
	"fmt"
	"sync"
)

// DefaultTotalSteps is the number of steps in the standard CV flow.
const DefaultTotalSteps = 5

// DefaultStepNames names the panes of the standard CV flow.
var DefaultStepNames = []string{"personal", "education", "experience", "skills", "preview"}

// StepIndicator describes one step in the progress bar.
type StepIndicator struct {
	Number    int    `json:"number"`
	Name      string `json:"name"`
	Active    bool   `json:"active"`
	Completed bool   `json:"completed"`
}

// StepState is the projection of the wizard position used to sync a view.
type StepState struct {
	Current    int             `json:"current"`
	Total      int             `json:"total"`
	Name       string          `json:"name"`
	Steps      []StepIndicator `json:"steps"`
	CanAdvance bool            `json:"can_advance"`
	CanRetreat bool            `json:"can_retreat"`
}

// StepObserver receives the active-step projection after every transition.
type StepObserver interface {
	OnStepChange(state StepState)
}

// StepObserverFunc adapts a function to a StepObserver.
type StepObserverFunc func(state StepState)

func (f StepObserverFunc) OnStepChange(state StepState) {
	if f != nil {
		f(state)
	}
}

// WizardOption configures a Wizard.
type WizardOption func(*Wizard)

// WithStepNames sets pane names. Missing names fall back to "step-N".
func WithStepNames(names ...string) WizardOption {
	return func(w *Wizard) {
		w.names = append([]string(nil), names...)
	}
}

// WithStepObserver registers an observer at construction.
func WithStepObserver(observer StepObserver) WizardOption {
	return func(w *Wizard) {
		if observer != nil {
			w.observers = append(w.observers, observer)
		}
	}
}

// Wizard owns the step position. Advance and Retreat clamp at the bounds;
// only JumpTo reports out of range targets.
type Wizard struct {
	mu        sync.Mutex
	total     int
	current   int
	names     []string
	observers []StepObserver
}

// NewWizard creates a wizard positioned at step 1.
func NewWizard(totalSteps int, opts ...WizardOption) (*Wizard, error) {
	if totalSteps < 1 {
		return nil, NewError(KindValidation, fmt.Sprintf("total steps must be positive, got %d", totalSteps), nil)
	}
	w := &Wizard{total: totalSteps, current: 1}
	if totalSteps == DefaultTotalSteps {
		w.names = DefaultStepNames
	}
	for _, opt := range opts {
		if opt != nil {
			opt(w)
		}
	}
	return w, nil
}

// Subscribe registers an observer.
func (w *Wizard) Subscribe(observer StepObserver) {
	if observer == nil {
		return
	}
	w.mu.Lock()
	w.observers = append(w.observers, observer)
	w.mu.Unlock()
}

// Advance moves to the next step. It reports false when already on the last step.
func (w *Wizard) Advance() bool {
	return w.move(func(current int) int { return current + 1 })
}

// Retreat moves to the previous step. It reports false when already on the first step.
func (w *Wizard) Retreat() bool {
	return w.move(func(current int) int { return current - 1 })
}

// JumpTo moves directly to step.
func (w *Wizard) JumpTo(step int) error {
	w.mu.Lock()
	if step < 1 || step > w.total {
		total := w.total
		w.mu.Unlock()
		return outOfRange(step, total)
	}
	w.current = step
	state, observers := w.stateLocked(), w.observersLocked()
	w.mu.Unlock()

	publish(observers, state)
	return nil
}

func (w *Wizard) move(next func(int) int) bool {
	w.mu.Lock()
	target := next(w.current)
	if target < 1 || target > w.total {
		w.mu.Unlock()
		return false
	}
	w.current = target
	state, observers := w.stateLocked(), w.observersLocked()
	w.mu.Unlock()

	publish(observers, state)
	return true
}

// CurrentStep returns the active step number.
func (w *Wizard) CurrentStep() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.current
}

// TotalSteps returns the configured step count.
func (w *Wizard) TotalSteps() int {
	return w.total
}

func (w *Wizard) IsFirstStep() bool {
	return w.CurrentStep() == 1
}

func (w *Wizard) IsLastStep() bool {
	return w.CurrentStep() == w.total
}

// ActiveState projects the current position. The result depends only on the
// current step and the configuration.
func (w *Wizard) ActiveState() StepState {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stateLocked()
}

func (w *Wizard) stateLocked() StepState {
	steps := make([]StepIndicator, w.total)
	for i := range steps {
		number := i + 1
		steps[i] = StepIndicator{
			Number:    number,
			Name:      w.nameLocked(number),
			Active:    number == w.current,
			Completed: number < w.current,
		}
	}
	return StepState{
		Current:    w.current,
		Total:      w.total,
		Name:       w.nameLocked(w.current),
		Steps:      steps,
		CanAdvance: w.current < w.total,
		CanRetreat: w.current > 1,
	}
}

func (w *Wizard) nameLocked(step int) string {
	if step-1 < len(w.names) && w.names[step-1] != "" {
		return w.names[step-1]
	}
	return fmt.Sprintf("step-%d", step)
}

func (w *Wizard) observersLocked() []StepObserver {
	if len(w.observers) == 0 {
		return nil
	}
	return append([]StepObserver(nil), w.observers...)
}

func publish(observers []StepObserver, state StepState) {
	for _, observer := range observers {
		observer.OnStepChange(state)
	}
}
