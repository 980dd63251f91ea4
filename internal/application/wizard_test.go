package application

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"

	"github.com/oksasatya/dresscode/internal/domain/entity"
	"github.com/oksasatya/dresscode/internal/domain/repository"
	"github.com/oksasatya/dresscode/internal/infrastructure/localstore"
	"github.com/oksasatya/dresscode/pkg/metrics"
)

var wizardNow = time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)

func fixedNow() time.Time { return wizardNow }

func fastHash(p string) (string, error) { return "hashed:" + p, nil }

type recordingNotifier struct {
	mu    sync.Mutex
	users []*entity.User
	err   error
}

func (n *recordingNotifier) NotifyRegistered(_ context.Context, u *entity.User) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.users = append(n.users, u)
	return n.err
}

// failingStore accepts reads but refuses every write.
type failingStore struct {
	*localstore.MemoryStore
}

func (failingStore) Put(context.Context, string, []byte) error { return errors.New("disk full") }

type WizardSuite struct {
	suite.Suite
	ctx      context.Context
	gateway  *fakeGateway
	repo     *localstore.UserRepository
	notifier *recordingNotifier
	metrics  *metrics.Metrics
	wizard   *Wizard
}

func TestWizardSuite(t *testing.T) {
	suite.Run(t, new(WizardSuite))
}

func (s *WizardSuite) SetupTest() {
	s.ctx = context.Background()
	s.gateway = paulistaGateway()
	s.repo = s.newRepo(localstore.NewMemoryStore())
	s.notifier = &recordingNotifier{}
	s.metrics = metrics.New(prometheus.NewRegistry())
	s.wizard = s.newWizard(s.repo)
}

func (s *WizardSuite) newRepo(store repository.BlobStore) *localstore.UserRepository {
	r, err := localstore.NewUserRepository(s.ctx, store,
		localstore.WithClock(fixedNow), localstore.WithPasswordHasher(fastHash))
	s.Require().NoError(err)
	return r
}

func (s *WizardSuite) newWizard(r *localstore.UserRepository) *Wizard {
	return NewWizard(WizardDeps{
		Users:    r,
		Address:  NewAddressService(s.gateway, time.Second, nil, nil),
		Notifier: s.notifier,
		Metrics:  s.metrics,
		Now:      fixedNow,
	})
}

func identity(username string) Values {
	return Values{
		FieldUsername:        username,
		FieldEmail:           username + "@email.com",
		FieldPassword:        "segredo123",
		FieldConfirmPassword: "segredo123",
	}
}

func personal() Values {
	return Values{FieldFullName: "Ana Silva", FieldBirthDate: "1995-03-15", FieldPhone: "(11) 99999-9999"}
}

func style() Values {
	return Values{FieldStyles: []any{"casual", "boho"}, FieldFavoriteBrands: []any{"Zara", "Farm"}}
}

// advanceTo walks a fresh wizard to step n with valid data.
func (s *WizardSuite) advanceTo(n int) {
	_, err := s.wizard.Start()
	s.Require().NoError(err)
	for step := 1; step < n; step++ {
		var v Values
		switch step {
		case 1:
			v = identity("abc123")
		case 2:
			v = personal()
		case 3:
			res, err := s.wizard.LookupAddress(s.ctx, "01310-100")
			s.Require().NoError(err)
			s.Require().True(res.Applied)
			v = Values{FieldPostalCode: "01310-100", FieldNumber: "1000"}
		case 4:
			v = style()
		case 5:
			v = Values{FieldWebsite: "https://ana.dev"}
		}
		out, err := s.wizard.Next(s.ctx, v)
		s.Require().NoError(err)
		s.Require().True(out.Advanced, "step %d: %v %v", step, out.Errors, out.Messages)
	}
	s.Require().Equal(n, s.wizard.Snapshot().Step)
}

func (s *WizardSuite) TestActionsBeforeStart() {
	_, err := s.wizard.Next(s.ctx, identity("abc123"))
	s.ErrorIs(err, ErrInvalidTransition)
	_, err = s.wizard.Submit(s.ctx, nil)
	s.ErrorIs(err, ErrInvalidTransition)
	_, err = s.wizard.LookupAddress(s.ctx, "01310100")
	s.ErrorIs(err, ErrInvalidTransition)

	out, err := s.wizard.Start()
	s.Require().NoError(err)
	s.Equal(StateInProgress, out.State)
	s.Equal(1, out.Step)

	_, err = s.wizard.Start()
	s.ErrorIs(err, ErrInvalidTransition)
}

func (s *WizardSuite) TestShortUsernameBlocksThenCorrectedAdvances() {
	s.advanceTo(1)

	out, err := s.wizard.Next(s.ctx, identity("ab"))
	s.Require().NoError(err)
	s.False(out.Advanced)
	s.Equal(1, out.Step)
	s.Equal("username must be 3-20 characters (letters, numbers and underscore only)", out.Errors[FieldUsername])
	s.Empty(s.wizard.Snapshot().Data, "rejected steps are not merged")

	out, err = s.wizard.Next(s.ctx, identity("abc123"))
	s.Require().NoError(err)
	s.True(out.Advanced)
	s.Equal(2, out.Step)
	s.Equal("abc123", s.wizard.Snapshot().Data[FieldUsername])
}

func (s *WizardSuite) TestIdentityChecks() {
	existing := entity.NewUser(entity.UserInput{
		Username: "ana", Email: "ana@email.com", Password: "segredo123", FullName: "Ana Silva",
		BirthDate: "1995-03-15", Address: entity.Address{PostalCode: "01310-100"}, AcceptedTerms: true,
	})
	s.Require().NoError(s.repo.Save(s.ctx, existing))
	s.advanceTo(1)

	s.Run("username conflict carries suggestions", func() {
		out, err := s.wizard.Next(s.ctx, identity("ANA"))
		s.Require().NoError(err)
		s.False(out.Advanced)
		s.Equal("this username is already taken", out.Errors[FieldUsername])
		s.Len(out.Suggestions, entity.SuggestionCount)
		all, _ := s.repo.List(s.ctx)
		for _, sug := range out.Suggestions {
			s.True(entity.ValidateUsernameUnique(all, sug, "").Valid, sug)
		}
	})

	s.Run("email conflict", func() {
		v := identity("fresh")
		v[FieldEmail] = "ANA@email.com"
		out, err := s.wizard.Next(s.ctx, v)
		s.Require().NoError(err)
		s.Equal("this email is already registered", out.Errors[FieldEmail])
		s.Empty(out.Suggestions)
	})

	s.Run("password confirmation", func() {
		v := identity("fresh")
		v[FieldConfirmPassword] = "outra123"
		out, err := s.wizard.Next(s.ctx, v)
		s.Require().NoError(err)
		s.Equal("passwords do not match", out.Errors[FieldConfirmPassword])
	})

	s.Run("missing and uncoercible fields", func() {
		out, err := s.wizard.Next(s.ctx, Values{FieldUsername: 42})
		s.Require().NoError(err)
		s.Equal("invalid value", out.Errors[FieldUsername])
		s.Equal("field is required", out.Errors[FieldEmail])
		s.Equal("field is required", out.Errors[FieldPassword])
	})
}

func (s *WizardSuite) TestPersonalChecks() {
	s.advanceTo(2)

	out, err := s.wizard.Next(s.ctx, Values{FieldFullName: "Ana", FieldBirthDate: "2015-01-01", FieldPhone: "1234"})
	s.Require().NoError(err)
	s.False(out.Advanced)
	s.Equal("enter first and last name", out.Errors[FieldFullName])
	s.Equal("user must be at least 13 years old", out.Errors[FieldBirthDate])
	s.Equal("incomplete phone number", out.Errors[FieldPhone])
}

func (s *WizardSuite) TestAddressStepNeedsLookup() {
	s.advanceTo(3)

	out, err := s.wizard.Next(s.ctx, Values{FieldPostalCode: "01310-100", FieldNumber: "1000"})
	s.Require().NoError(err)
	s.False(out.Advanced)
	s.Equal("postal code invalid or not found", out.Errors[FieldPostalCode])

	out, err = s.wizard.Next(s.ctx, Values{FieldPostalCode: "00000000", FieldNumber: "1000"})
	s.Require().NoError(err)
	s.Equal("invalid postal code", out.Errors[FieldPostalCode])

	res, err := s.wizard.LookupAddress(s.ctx, "01310100")
	s.Require().NoError(err)
	s.True(res.Applied)
	s.False(res.Stale)
	data := s.wizard.Snapshot().Data
	s.Equal("Avenida Paulista", data[FieldStreet])
	s.Equal("São Paulo", data[FieldCity])
	s.Equal("SP", data[FieldState])
	s.Equal("de 612 a 1510 - lado par", data[FieldComplement])

	out, err = s.wizard.Next(s.ctx, Values{FieldPostalCode: "01310-100"})
	s.Require().NoError(err)
	s.Equal("field is required", out.Errors[FieldNumber])

	out, err = s.wizard.Next(s.ctx, Values{FieldPostalCode: "01310-100", FieldNumber: "1000", FieldComplement: "apto 12"})
	s.Require().NoError(err)
	s.True(out.Advanced)
	s.Equal("apto 12", s.wizard.Snapshot().Data[FieldComplement])
}

func (s *WizardSuite) TestFailedLookupDoesNotFillAddress() {
	s.advanceTo(3)
	res, err := s.wizard.LookupAddress(s.ctx, "12345678")
	s.Require().NoError(err)
	s.False(res.Applied)
	s.Equal(LookupNotFound, res.Result.Status)
	s.NotContains(s.wizard.Snapshot().Data, FieldStreet)
}

func (s *WizardSuite) TestStaleLookupIsDiscarded() {
	s.advanceTo(3)
	s.gateway.mu.Lock()
	s.gateway.block = make(chan struct{})
	s.gateway.mu.Unlock()

	first := make(chan AddressOutcome, 1)
	go func() {
		out, _ := s.wizard.LookupAddress(s.ctx, "01310100")
		first <- out
	}()
	s.Require().Eventually(func() bool { return s.gateway.Calls() == 1 }, time.Second, time.Millisecond)

	second := make(chan AddressOutcome, 1)
	go func() {
		out, _ := s.wizard.LookupAddress(s.ctx, "22070900")
		second <- out
	}()

	r1 := <-first
	s.True(r1.Stale)
	s.False(r1.Applied)

	s.gateway.mu.Lock()
	close(s.gateway.block)
	s.gateway.mu.Unlock()

	r2 := <-second
	s.False(r2.Stale)
	s.True(r2.Applied)
	s.Greater(r2.RequestID, r1.RequestID)
	s.Equal("Rio de Janeiro", s.wizard.Snapshot().Data[FieldCity])
}

func (s *WizardSuite) TestStyleAndSocialChecks() {
	s.advanceTo(4)

	out, err := s.wizard.Next(s.ctx, Values{FieldFavoriteBrands: []any{"a", "b", "c", "d", "e", "f"}})
	s.Require().NoError(err)
	s.False(out.Advanced)
	s.Equal("maximum of 5 brands allowed (6 selected)", out.Errors[FieldFavoriteBrands])
	s.NotEmpty(out.Messages)

	out, err = s.wizard.Next(s.ctx, Values{FieldFavoriteColor: "purple"})
	s.Require().NoError(err)
	s.Contains(out.Errors, FieldFavoriteColor)

	out, err = s.wizard.Next(s.ctx, Values{FieldFavoriteBrands: "Zara, Farm , ,Nike"})
	s.Require().NoError(err)
	s.True(out.Advanced)
	s.Equal([]string{"Zara", "Farm", "Nike"}, s.wizard.Snapshot().Data[FieldFavoriteBrands])

	out, err = s.wizard.Next(s.ctx, Values{FieldWebsite: "ana.dev"})
	s.Require().NoError(err)
	s.Equal("URL must start with http:// or https://", out.Errors[FieldWebsite])
}

func (s *WizardSuite) TestTermsBlockThenSubmit() {
	s.advanceTo(6)

	out, err := s.wizard.Submit(s.ctx, Values{FieldAcceptTerms: false, FieldNewsletter: true})
	s.Require().NoError(err)
	s.False(out.Advanced)
	s.Equal(StateInProgress, out.State)
	s.Equal(6, out.Step)
	s.Contains(out.Messages, "you must accept the terms of use")
	s.Equal("abc123", s.wizard.Snapshot().Data[FieldUsername], "data survives a rejected submit")

	out, err = s.wizard.Submit(s.ctx, Values{FieldAcceptTerms: true})
	s.Require().NoError(err)
	s.True(out.Advanced)
	s.Equal(StateSubmitted, out.State)
	s.Require().NotNil(out.User)
	s.Equal("abc123", out.User.Username)
	s.Equal(30, out.User.Age)
	s.Equal("São Paulo", out.User.Address.City)
	s.Equal("1000", out.User.Address.Number)
	s.True(out.User.Privacy.PublicProfile)
	s.True(out.User.Newsletter, "values from the rejected attempt were kept")

	saved, err := s.repo.FindByUsername(s.ctx, "abc123")
	s.Require().NoError(err)
	s.Equal("hashed:segredo123", saved.PasswordHash)
	s.Equal([]string{"Zara", "Farm"}, saved.FavoriteBrands)
	s.Equal("https://ana.dev", saved.Social.Website)
	s.Empty(s.wizard.Snapshot().Data)

	s.Len(s.notifier.users, 1)
	s.Equal(1.0, testutil.ToFloat64(s.metrics.Registrations))
}

func (s *WizardSuite) TestSubmitOnlyOnLastStep() {
	s.advanceTo(5)
	_, err := s.wizard.Submit(s.ctx, Values{FieldAcceptTerms: true})
	s.ErrorIs(err, ErrInvalidTransition)
}

func (s *WizardSuite) TestSubmitSaveFailureKeepsState() {
	s.wizard = s.newWizard(s.newRepo(failingStore{localstore.NewMemoryStore()}))
	s.advanceTo(6)

	out, err := s.wizard.Submit(s.ctx, Values{FieldAcceptTerms: true})
	s.Error(err)
	s.Equal([]string{msgSaveFailed}, out.Messages)
	snap := s.wizard.Snapshot()
	s.Equal(StateInProgress, snap.State)
	s.Equal(6, snap.Step)
	s.Equal("abc123", snap.Data[FieldUsername])
	s.Empty(s.notifier.users)
}

func (s *WizardSuite) TestNotifierFailureDoesNotFailSubmit() {
	s.notifier.err = errors.New("queue down")
	s.advanceTo(6)
	out, err := s.wizard.Submit(s.ctx, Values{FieldAcceptTerms: true})
	s.Require().NoError(err)
	s.Equal(StateSubmitted, out.State)
}

func (s *WizardSuite) TestBackMergesWithoutValidation() {
	s.advanceTo(2)

	out, err := s.wizard.Back(Values{FieldFullName: "Ana", FieldPhone: 123})
	s.Require().NoError(err)
	s.True(out.Advanced)
	s.Equal(1, out.Step)
	data := s.wizard.Snapshot().Data
	s.Equal("Ana", data[FieldFullName])
	s.NotContains(data, FieldPhone)

	_, err = s.wizard.Back(nil)
	s.ErrorIs(err, ErrInvalidTransition)
}

func (s *WizardSuite) TestDismissAndReset() {
	_, err := s.wizard.Dismiss()
	s.ErrorIs(err, ErrInvalidTransition)

	s.advanceTo(6)
	_, err = s.wizard.Submit(s.ctx, Values{FieldAcceptTerms: true})
	s.Require().NoError(err)

	out, err := s.wizard.Dismiss()
	s.Require().NoError(err)
	s.Equal(StateWelcome, out.State)
	s.Equal(1, out.Step)

	s.advanceTo(3)
	out = s.wizard.Reset()
	s.Equal(StateWelcome, out.State)
	s.Equal(1, out.Step)
	s.Empty(s.wizard.Snapshot().Data)
}

func (s *WizardSuite) TestSnapshotRedactsPasswords() {
	s.advanceTo(2)
	data := s.wizard.Snapshot().Data
	s.NotContains(data, FieldPassword)
	s.NotContains(data, FieldConfirmPassword)
	s.Equal("abc123@email.com", data[FieldEmail])
}

func (s *WizardSuite) TestOnBlurChecks() {
	s.Require().NoError(s.repo.Save(s.ctx, entity.NewUser(entity.UserInput{
		Username: "ana", Email: "ana@email.com", Password: "segredo123", FullName: "Ana Silva",
		BirthDate: "1995-03-15", Address: entity.Address{PostalCode: "01310-100"}, AcceptedTerms: true,
	})))

	u, err := s.wizard.CheckUsername(s.ctx, "Ana")
	s.Require().NoError(err)
	s.False(u.Valid)
	s.True(u.Conflict)
	s.Len(u.Suggestions, 3)

	u, err = s.wizard.CheckUsername(s.ctx, "novo_user")
	s.Require().NoError(err)
	s.True(u.Valid)
	s.Empty(u.Suggestions)

	e, err := s.wizard.CheckEmail(s.ctx, "ANA@email.com")
	s.Require().NoError(err)
	s.False(e.Valid)
	s.Equal("this email is already registered", e.Message)

	e, err = s.wizard.CheckEmail(s.ctx, "not-an-email")
	s.Require().NoError(err)
	s.Equal("invalid email format", e.Message)

	e, err = s.wizard.CheckEmail(s.ctx, "novo@email.com")
	s.Require().NoError(err)
	s.True(e.Valid)
}

func (s *WizardSuite) TestTransitionMetrics() {
	s.advanceTo(1)
	_, _ = s.wizard.Next(s.ctx, identity("ab"))
	_, _ = s.wizard.Next(s.ctx, identity("abc123"))

	s.Equal(1.0, testutil.ToFloat64(s.metrics.WizardTransitions.WithLabelValues("1", "next", "rejected")))
	s.Equal(1.0, testutil.ToFloat64(s.metrics.WizardTransitions.WithLabelValues("1", "next", "ok")))
}

func TestStepsSchema(t *testing.T) {
	s := Steps()
	if len(s) != TotalSteps {
		t.Fatalf("want %d steps, got %d", TotalSteps, len(s))
	}
	s[0].Fields[0].Name = "mutated"
	if Steps()[0].Fields[0].Name != FieldUsername {
		t.Fatal("Steps must return a copy")
	}
}
