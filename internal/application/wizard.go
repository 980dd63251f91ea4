package application

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/dresscode/internal/domain/entity"
	repo "github.com/oksasatya/dresscode/internal/domain/repository"
	"github.com/oksasatya/dresscode/pkg/helpers"
	"github.com/oksasatya/dresscode/pkg/metrics"
)

var (
	ErrInvalidTransition = errors.New("invalid wizard transition")
	ErrSessionNotFound   = errors.New("wizard session not found")
	ErrTooManySessions   = errors.New("too many open wizard sessions")
)

type WizardState string

const (
	StateWelcome    WizardState = "welcome"
	StateInProgress WizardState = "in_progress"
	StateSubmitted  WizardState = "submitted"
)

const msgSaveFailed = "error saving registration, try again"

// AddressLookup is the slice of AddressService the wizard needs.
type AddressLookup interface {
	Lookup(ctx context.Context, raw string) LookupResult
}

// RegistrationNotifier is told about every persisted registration.
type RegistrationNotifier interface {
	NotifyRegistered(ctx context.Context, u *entity.User) error
}

// StepOutcome reports what a wizard action did. Errors are keyed by field;
// Messages carry step-wide or submission-wide failures.
type StepOutcome struct {
	Advanced    bool              `json:"advanced"`
	State       WizardState       `json:"state"`
	Step        int               `json:"step"`
	Errors      map[string]string `json:"errors,omitempty"`
	Messages    []string          `json:"messages,omitempty"`
	Suggestions []string          `json:"suggestions,omitempty"`
	User        *entity.Profile   `json:"user,omitempty"`
}

type AddressOutcome struct {
	RequestID uint64       `json:"requestId"`
	Stale     bool         `json:"stale"`
	Applied   bool         `json:"applied"`
	Result    LookupResult `json:"result"`
}

type UsernameCheck struct {
	entity.ValidationResult
	Suggestions []string `json:"suggestions,omitempty"`
}

type WizardSnapshot struct {
	State      WizardState    `json:"state"`
	Step       int            `json:"step"`
	TotalSteps int            `json:"totalSteps"`
	Data       map[string]any `json:"data"`
}

type WizardDeps struct {
	Users    repo.UserRepository
	Address  AddressLookup
	Notifier RegistrationNotifier
	Logger   *logrus.Logger
	Metrics  *metrics.Metrics
	Now      func() time.Time
	// Suggester overrides the random source of username suggestions.
	Suggester *entity.Suggester
}

// Wizard is one registration session. It is safe for concurrent use; every
// action runs under the session lock except the network part of an address
// lookup, so a newer lookup can supersede an older one.
type Wizard struct {
	users     repo.UserRepository
	address   AddressLookup
	notifier  RegistrationNotifier
	logger    *logrus.Logger
	metrics   *metrics.Metrics
	now       func() time.Time
	suggester entity.Suggester

	mu    sync.Mutex
	state WizardState
	step  int
	data  map[string]any

	lookupSeq    uint64
	lookupCancel context.CancelFunc
}

func NewWizard(d WizardDeps) *Wizard {
	w := &Wizard{
		users:    d.Users,
		address:  d.Address,
		notifier: d.Notifier,
		logger:   d.Logger,
		metrics:  d.Metrics,
		now:      d.Now,
		state:    StateWelcome,
		step:     1,
		data:     map[string]any{},
	}
	if w.logger == nil {
		w.logger = helpers.NopLogger()
	}
	if w.now == nil {
		w.now = time.Now
	}
	if d.Suggester != nil {
		w.suggester = *d.Suggester
	} else {
		w.suggester = entity.Suggester{Now: w.now}
	}
	return w
}

func (w *Wizard) outcome() StepOutcome {
	return StepOutcome{State: w.state, Step: w.step}
}

// Start leaves the welcome screen for step 1.
func (w *Wizard) Start() (StepOutcome, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != StateWelcome {
		return w.outcome(), ErrInvalidTransition
	}
	w.state = StateInProgress
	w.step = 1
	w.metrics.ObserveTransition(0, "start", "ok")
	out := w.outcome()
	out.Advanced = true
	return out, nil
}

// Next validates the current step against values and, when it passes,
// merges values into the accumulator and moves forward. On the last step it
// validates without moving; use Submit to finish.
func (w *Wizard) Next(ctx context.Context, values Values) (StepOutcome, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != StateInProgress {
		return w.outcome(), ErrInvalidTransition
	}

	out, got, err := w.validateStep(ctx, values)
	if err != nil {
		w.metrics.ObserveTransition(w.step, "next", "error")
		return out, err
	}
	if len(out.Errors) > 0 || len(out.Messages) > 0 {
		w.metrics.ObserveTransition(w.step, "next", "rejected")
		return out, nil
	}

	w.merge(got)
	w.metrics.ObserveTransition(w.step, "next", "ok")
	if w.step < TotalSteps {
		w.step++
		out.Advanced = true
	}
	out.Step = w.step
	return out, nil
}

// Back merges whatever in values coerces and steps back one step.
func (w *Wizard) Back(values Values) (StepOutcome, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != StateInProgress || w.step <= 1 {
		return w.outcome(), ErrInvalidTransition
	}
	got, _ := collect(stepAt(w.step), values)
	w.merge(got)
	w.metrics.ObserveTransition(w.step, "back", "ok")
	w.step--
	out := w.outcome()
	out.Advanced = true
	return out, nil
}

// Submit runs the last step's checks, assembles the record, validates it as a
// whole and saves it. Any failure leaves the wizard on the last step with its
// data intact.
func (w *Wizard) Submit(ctx context.Context, values Values) (StepOutcome, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != StateInProgress || w.step != TotalSteps {
		return w.outcome(), ErrInvalidTransition
	}

	out, got, err := w.validateStep(ctx, values)
	if err != nil {
		w.metrics.ObserveTransition(w.step, "submit", "error")
		return out, err
	}
	w.merge(got)
	if len(out.Errors) > 0 || len(out.Messages) > 0 {
		w.metrics.ObserveTransition(w.step, "submit", "rejected")
		return out, nil
	}

	now := w.now()
	u := entity.NewUser(assemble(w.data, now))
	if msgs := u.ValidateAllAt(now); len(msgs) > 0 {
		out.Messages = msgs
		w.metrics.ObserveTransition(w.step, "submit", "rejected")
		return out, nil
	}

	if err := w.users.Save(ctx, u); err != nil {
		var verr *entity.ValidationError
		switch {
		case errors.As(err, &verr):
			out.Messages = verr.Messages
		case errors.Is(err, repo.ErrUsernameTaken):
			out.Messages = []string{"this username is already taken"}
			if existing, lerr := w.users.List(ctx); lerr == nil {
				out.Suggestions = w.suggester.Suggest(existing, u.Username)
			}
		case errors.Is(err, repo.ErrEmailTaken):
			out.Messages = []string{"this email is already registered"}
		default:
			w.logger.WithError(err).WithField("username", u.Username).Error("registration save failed")
			w.metrics.ObserveTransition(w.step, "submit", "error")
			out.Messages = []string{msgSaveFailed}
			return out, fmt.Errorf("save user: %w", err)
		}
		w.metrics.ObserveTransition(w.step, "submit", "rejected")
		return out, nil
	}

	w.metrics.ObserveTransition(w.step, "submit", "ok")
	w.metrics.IncrementRegistrations()
	w.logger.WithFields(logrus.Fields{"user_id": u.ID, "username": u.Username}).Info("registration completed")
	if w.notifier != nil {
		if err := w.notifier.NotifyRegistered(ctx, u); err != nil {
			w.logger.WithError(err).WithField("user_id", u.ID).Warn("registration notification failed")
		}
	}

	w.state = StateSubmitted
	w.data = map[string]any{}
	w.invalidateLookups()
	profile := u.ProfileAt(now)
	out = w.outcome()
	out.Advanced = true
	out.User = &profile
	return out, nil
}

// Dismiss closes the confirmation and returns to the welcome screen.
func (w *Wizard) Dismiss() (StepOutcome, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != StateSubmitted {
		return w.outcome(), ErrInvalidTransition
	}
	w.resetLocked()
	w.metrics.ObserveTransition(0, "dismiss", "ok")
	return w.outcome(), nil
}

// Reset abandons the session from any state.
func (w *Wizard) Reset() StepOutcome {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.resetLocked()
	w.metrics.ObserveTransition(0, "reset", "ok")
	return w.outcome()
}

func (w *Wizard) resetLocked() {
	w.state = StateWelcome
	w.step = 1
	w.data = map[string]any{}
	w.invalidateLookups()
}

func (w *Wizard) invalidateLookups() {
	w.lookupSeq++
	if w.lookupCancel != nil {
		w.lookupCancel()
		w.lookupCancel = nil
	}
}

// LookupAddress resolves raw and, when this is still the newest lookup of
// the session, fills the address fields of the accumulator. Each call cancels
// the lookup it supersedes.
func (w *Wizard) LookupAddress(ctx context.Context, raw string) (AddressOutcome, error) {
	w.mu.Lock()
	if w.state != StateInProgress {
		w.mu.Unlock()
		return AddressOutcome{}, ErrInvalidTransition
	}
	w.invalidateLookups()
	id := w.lookupSeq
	lctx, cancel := context.WithCancel(ctx)
	w.lookupCancel = cancel
	w.mu.Unlock()

	res := w.address.Lookup(lctx, raw)

	w.mu.Lock()
	defer w.mu.Unlock()
	out := AddressOutcome{RequestID: id, Result: res}
	if id != w.lookupSeq || w.state != StateInProgress {
		out.Stale = true
		cancel()
		return out, nil
	}
	w.lookupCancel = nil
	cancel()
	if res.OK() {
		a := res.Address
		w.data[FieldPostalCode] = a.PostalCode
		w.data[FieldStreet] = a.Street
		w.data[FieldNeighborhood] = a.Neighborhood
		w.data[FieldCity] = a.City
		w.data[FieldState] = a.State
		if stringValue(w.data, FieldComplement) == "" && a.Complement != "" {
			w.data[FieldComplement] = a.Complement
		}
		out.Applied = true
	}
	return out, nil
}

// CheckUsername is the on-blur username check; conflicts carry suggestions.
func (w *Wizard) CheckUsername(ctx context.Context, name string) (UsernameCheck, error) {
	existing, err := w.users.List(ctx)
	if err != nil {
		return UsernameCheck{}, fmt.Errorf("list users: %w", err)
	}
	r := entity.ValidateUsernameUnique(existing, name, "")
	check := UsernameCheck{ValidationResult: r}
	if r.Conflict {
		check.Suggestions = w.suggester.Suggest(existing, name)
	}
	return check, nil
}

// CheckEmail is the on-blur email check: shape first, then uniqueness.
func (w *Wizard) CheckEmail(ctx context.Context, email string) (entity.ValidationResult, error) {
	if r := entity.ValidateEmail(email); !r.Valid {
		return r, nil
	}
	existing, err := w.users.List(ctx)
	if err != nil {
		return entity.ValidationResult{}, fmt.Errorf("list users: %w", err)
	}
	return entity.ValidateEmailUnique(existing, email, ""), nil
}

// Snapshot returns the session state with credentials redacted.
func (w *Wizard) Snapshot() WizardSnapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	data := make(map[string]any, len(w.data))
	for k, v := range w.data {
		switch k {
		case FieldPassword, FieldConfirmPassword:
			continue
		}
		if l, ok := v.([]string); ok {
			v = append([]string(nil), l...)
		}
		data[k] = v
	}
	return WizardSnapshot{State: w.state, Step: w.step, TotalSteps: TotalSteps, Data: data}
}

// validateStep checks values for the current step against the accumulator
// overlaid with values. It never mutates the wizard.
func (w *Wizard) validateStep(ctx context.Context, values Values) (StepOutcome, map[string]any, error) {
	step := stepAt(w.step)
	got, errs := collect(step, values)

	view := make(map[string]any, len(w.data)+len(got))
	for k, v := range w.data {
		view[k] = v
	}
	for k, v := range got {
		view[k] = v
	}

	checkFields(step, view, w.now(), errs)
	check := stepCheck{errs: errs}
	if err := w.checkSemantics(ctx, step.Number, view, &check); err != nil {
		return w.outcome(), got, err
	}

	out := w.outcome()
	if len(check.errs) > 0 {
		out.Errors = check.errs
	}
	out.Messages = check.messages
	out.Suggestions = check.suggestions
	return out, got, nil
}

// merge overwrites accumulator keys with the step's values.
func (w *Wizard) merge(got map[string]any) {
	for k, v := range got {
		w.data[k] = v
	}
}
