package localstore

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/dresscode/internal/domain/entity"
	"github.com/oksasatya/dresscode/internal/domain/repository"
	"github.com/oksasatya/dresscode/pkg/helpers"
	"github.com/oksasatya/dresscode/pkg/metrics"
)

const (
	DefaultKey      = "dresscode_users"
	DefaultCacheTTL = 5 * time.Minute
	notInformed     = "Not informed"
)

// cacheEntry is the decoded collection plus its read-time expiry.
type cacheEntry struct {
	users       []*entity.User
	refreshedAt time.Time
	expiresAt   time.Time
}

func (c *cacheEntry) live(now time.Time) bool {
	return c != nil && now.Before(c.expiresAt)
}

// UserRepository stores the whole user collection as one JSON blob under a
// fixed key. Writers in other processes are not detected until the cache expires.
type UserRepository struct {
	store   repository.BlobStore
	key     string
	ttl     time.Duration
	now     func() time.Time
	hash    func(string) (string, error)
	seed    bool
	logger  *logrus.Logger
	metrics *metrics.Metrics

	mu    sync.Mutex
	cache *cacheEntry
}

type Option func(*UserRepository)

func WithKey(key string) Option                 { return func(r *UserRepository) { r.key = key } }
func WithCacheTTL(ttl time.Duration) Option     { return func(r *UserRepository) { r.ttl = ttl } }
func WithClock(now func() time.Time) Option     { return func(r *UserRepository) { r.now = now } }
func WithSeedExamples(enabled bool) Option      { return func(r *UserRepository) { r.seed = enabled } }
func WithLogger(l *logrus.Logger) Option        { return func(r *UserRepository) { r.logger = l } }
func WithMetrics(m *metrics.Metrics) Option     { return func(r *UserRepository) { r.metrics = m } }
func WithPasswordHasher(h func(string) (string, error)) Option {
	return func(r *UserRepository) { r.hash = h }
}

// NewUserRepository builds the repository and, when seeding is enabled and the
// store is empty, saves the example users.
func NewUserRepository(ctx context.Context, store repository.BlobStore, opts ...Option) (*UserRepository, error) {
	r := &UserRepository{
		store: store,
		key:   DefaultKey,
		ttl:   DefaultCacheTTL,
		now:   time.Now,
		hash:  helpers.HashPassword,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = helpers.NopLogger()
	}
	if r.seed {
		if _, err := r.SeedExamples(ctx); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// SeedExamples saves ExampleUsers when the store holds no users.
func (r *UserRepository) SeedExamples(ctx context.Context) (int, error) {
	users, err := r.List(ctx)
	if err != nil {
		return 0, err
	}
	if len(users) > 0 {
		return 0, nil
	}
	n := 0
	for _, in := range ExampleUsers() {
		if err := r.Save(ctx, entity.NewUser(in)); err != nil {
			return n, fmt.Errorf("seed %s: %w", in.Username, err)
		}
		n++
	}
	r.logger.WithField("count", n).Info("example users seeded")
	return n, nil
}

func (r *UserRepository) List(ctx context.Context) ([]*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	users, err := r.load(ctx)
	r.metrics.ObserveRepository("list", err)
	if err != nil {
		return nil, err
	}
	return cloneAll(users), nil
}

// load returns the cached collection or reads it from the store. Callers hold r.mu.
func (r *UserRepository) load(ctx context.Context) ([]*entity.User, error) {
	now := r.now()
	if r.cache.live(now) {
		return r.cache.users, nil
	}
	raw, err := r.store.Get(ctx, r.key)
	if errors.Is(err, repository.ErrBlobNotFound) {
		r.refresh(nil, now)
		return nil, nil
	}
	if err != nil {
		r.logger.WithError(err).WithField("key", r.key).Error("read user blob failed")
		return nil, err
	}
	users, err := decodeUsers(raw)
	if err != nil {
		r.logger.WithError(err).WithField("key", r.key).Error("decode user blob failed")
		return nil, err
	}
	r.refresh(users, now)
	return users, nil
}

func (r *UserRepository) refresh(users []*entity.User, now time.Time) {
	r.cache = &cacheEntry{users: users, refreshedAt: now, expiresAt: now.Add(r.ttl)}
}

// persist writes users and, only on success, makes them the cached snapshot.
func (r *UserRepository) persist(ctx context.Context, users []*entity.User) error {
	raw, err := json.Marshal(users)
	if err != nil {
		return err
	}
	if err := r.store.Put(ctx, r.key, raw); err != nil {
		r.logger.WithError(err).WithField("key", r.key).Error("write user blob failed")
		return err
	}
	r.refresh(users, r.now())
	return nil
}

// Save inserts or overwrites u by id. New plaintext passwords are hashed
// before the collection lock is taken and cleared before anything is written;
// u receives the stored hash on success.
func (r *UserRepository) Save(ctx context.Context, u *entity.User) (err error) {
	defer func() { r.metrics.ObserveRepository("save", err) }()

	if msgs := u.ValidateAllAt(r.now()); len(msgs) > 0 {
		return &entity.ValidationError{Messages: msgs}
	}

	stored := u.Clone()
	if stored.Password != "" {
		h, herr := r.hash(stored.Password)
		if herr != nil {
			return fmt.Errorf("hash password: %w", herr)
		}
		stored.PasswordHash = h
		stored.Password = ""
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	users, err := r.load(ctx)
	if err != nil {
		return err
	}

	idx := -1
	for i, other := range users {
		if other.ID == u.ID {
			idx = i
			continue
		}
		if strings.EqualFold(other.Username, u.Username) {
			return repository.ErrUsernameTaken
		}
		if strings.EqualFold(other.Email, u.Email) {
			return repository.ErrEmailTaken
		}
	}

	next := make([]*entity.User, 0, len(users)+1)
	next = append(next, users...)
	if idx >= 0 {
		next[idx] = stored
	} else {
		next = append(next, stored)
	}
	if err := r.persist(ctx, next); err != nil {
		return err
	}

	u.PasswordHash = stored.PasswordHash
	u.Password = ""
	r.logger.WithFields(logrus.Fields{"user_id": u.ID, "username": u.Username, "insert": idx < 0}).Debug("user saved")
	return nil
}

func (r *UserRepository) Remove(ctx context.Context, id string) (err error) {
	defer func() { r.metrics.ObserveRepository("remove", err) }()

	r.mu.Lock()
	defer r.mu.Unlock()

	users, err := r.load(ctx)
	if err != nil {
		return err
	}
	next := make([]*entity.User, 0, len(users))
	for _, u := range users {
		if u.ID != id {
			next = append(next, u)
		}
	}
	if len(next) == len(users) {
		return repository.ErrNotFound
	}
	return r.persist(ctx, next)
}

func (r *UserRepository) find(ctx context.Context, match func(*entity.User) bool) (*entity.User, error) {
	users, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		if match(u) {
			return u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*entity.User, error) {
	return r.find(ctx, func(u *entity.User) bool { return u.ID == id })
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*entity.User, error) {
	return r.find(ctx, func(u *entity.User) bool { return strings.EqualFold(u.Username, username) })
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.find(ctx, func(u *entity.User) bool { return strings.EqualFold(u.Email, email) })
}

func (r *UserRepository) Search(ctx context.Context, c repository.Criteria) ([]*entity.User, error) {
	users, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	now := r.now()
	out := make([]*entity.User, 0, len(users))
	for _, u := range users {
		if matches(u, c, now) {
			out = append(out, u)
		}
	}
	return out, nil
}

func matches(u *entity.User, c repository.Criteria, now time.Time) bool {
	if c.City != "" && !strings.Contains(strings.ToLower(u.Address.City), strings.ToLower(c.City)) {
		return false
	}
	if c.State != "" && !strings.EqualFold(u.Address.State, c.State) {
		return false
	}
	if len(c.Styles) > 0 && !overlaps(u.Styles, c.Styles) {
		return false
	}
	if len(c.Brands) > 0 && !overlaps(u.FavoriteBrands, c.Brands) {
		return false
	}
	if c.MinAge > 0 || c.MaxAge > 0 {
		age := u.AgeAt(now)
		if c.MinAge > 0 && age < c.MinAge {
			return false
		}
		if c.MaxAge > 0 && age > c.MaxAge {
			return false
		}
	}
	if c.PublicOnly && !u.Privacy.PublicProfile {
		return false
	}
	return true
}

func overlaps(have, want []string) bool {
	for _, w := range want {
		for _, h := range have {
			if strings.EqualFold(h, w) {
				return true
			}
		}
	}
	return false
}

func (r *UserRepository) Statistics(ctx context.Context) (repository.Statistics, error) {
	users, err := r.List(ctx)
	if err != nil {
		return repository.Statistics{}, err
	}
	return computeStatistics(users, r.now()), nil
}

func computeStatistics(users []*entity.User, now time.Time) repository.Statistics {
	st := repository.Statistics{
		TotalUsers:           len(users),
		StateDistribution:    map[string]int{},
		RegistrationsByMonth: map[string]int{},
	}
	styles := map[string]int{}
	brands := map[string]int{}
	ageSum, ageN := 0, 0

	for _, u := range users {
		if u.Privacy.PublicProfile {
			st.PublicUsers++
		} else {
			st.PrivateUsers++
		}
		if age := u.AgeAt(now); age > 0 {
			ageSum += age
			ageN++
		}
		for _, s := range u.Styles {
			styles[s]++
		}
		for _, b := range u.FavoriteBrands {
			brands[b]++
		}
		state := strings.TrimSpace(u.Address.State)
		if state == "" {
			state = notInformed
		}
		st.StateDistribution[state]++
		if !u.CreatedAt.IsZero() {
			st.RegistrationsByMonth[u.CreatedAt.Format("2006-01")]++
		}
	}
	if ageN > 0 {
		st.AverageAge = int(math.Round(float64(ageSum) / float64(ageN)))
	}
	st.PopularStyles = ranked(styles)
	st.PopularBrands = ranked(brands)
	return st
}

func ranked(freq map[string]int) []repository.Count {
	out := make([]repository.Count, 0, len(freq))
	for name, n := range freq {
		out = append(out, repository.Count{Name: name, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// Export projects every user: full profiles when includePrivate, public ones otherwise.
func (r *UserRepository) Export(ctx context.Context, includePrivate bool) (repository.ExportDocument, error) {
	users, err := r.List(ctx)
	if err != nil {
		return repository.ExportDocument{}, err
	}
	now := r.now()
	doc := repository.ExportDocument{
		Timestamp:  now.UTC(),
		TotalUsers: len(users),
		Statistics: computeStatistics(users, now),
	}
	if includePrivate {
		out := make([]entity.Profile, 0, len(users))
		for _, u := range users {
			out = append(out, u.ProfileAt(now))
		}
		doc.Users = out
	} else {
		out := make([]entity.PublicProfile, 0, len(users))
		for _, u := range users {
			out = append(out, u.PublicProfileAt(now))
		}
		doc.Users = out
	}
	return doc, nil
}

// Import saves each entry of {"users": [...]} individually. Per-entry failures
// are collected; only an unreadable document fails the whole call.
func (r *UserRepository) Import(ctx context.Context, data []byte, replace bool) (repository.ImportResult, error) {
	var doc struct {
		Users []json.RawMessage `json:"users"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return repository.ImportResult{}, fmt.Errorf("%w: %v", repository.ErrMalformedImport, err)
	}
	if doc.Users == nil {
		return repository.ImportResult{}, fmt.Errorf("%w: missing users array", repository.ErrMalformedImport)
	}

	if replace {
		if err := r.Clear(ctx); err != nil {
			return repository.ImportResult{}, err
		}
	}

	res := repository.ImportResult{Total: len(doc.Users), Errors: []string{}}
	for i, raw := range doc.Users {
		var in entity.UserInput
		if err := json.Unmarshal(raw, &in); err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("user %d: %v", i+1, err))
			continue
		}
		if err := r.Save(ctx, entity.NewUser(in)); err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("user %d: %v", i+1, err))
			continue
		}
		res.Imported++
	}
	r.logger.WithFields(logrus.Fields{"total": res.Total, "imported": res.Imported, "replace": replace}).Info("users imported")
	return res, nil
}

func (r *UserRepository) Clear(ctx context.Context) (err error) {
	defer func() { r.metrics.ObserveRepository("clear", err) }()

	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.store.Delete(ctx, r.key); err != nil {
		r.logger.WithError(err).WithField("key", r.key).Error("delete user blob failed")
		return err
	}
	r.cache = nil
	return nil
}

func (r *UserRepository) StorageInfo(ctx context.Context) (repository.StorageInfo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	info := repository.StorageInfo{Key: r.key}
	if r.cache.live(r.now()) {
		info.CacheLive = true
		info.LastRefresh = r.cache.refreshedAt
		info.CacheExpiresAt = r.cache.expiresAt
	}

	raw, err := r.store.Get(ctx, r.key)
	switch {
	case errors.Is(err, repository.ErrBlobNotFound):
		return info, nil
	case err != nil:
		return info, err
	}
	info.SizeKB = math.Round(float64(len(raw))/1024*100) / 100
	users, err := decodeUsers(raw)
	if err != nil {
		return info, err
	}
	info.TotalUsers = len(users)
	return info, nil
}

func (r *UserRepository) InvalidateCache() {
	r.mu.Lock()
	r.cache = nil
	r.mu.Unlock()
}

func decodeUsers(raw []byte) ([]*entity.User, error) {
	var in []entity.UserInput
	if err := json.Unmarshal(raw, &in); err != nil {
		return nil, err
	}
	users := make([]*entity.User, 0, len(in))
	for _, i := range in {
		users = append(users, entity.NewUser(i))
	}
	return users, nil
}

func cloneAll(users []*entity.User) []*entity.User {
	out := make([]*entity.User, len(users))
	for i, u := range users {
		out[i] = u.Clone()
	}
	return out
}

var _ repository.UserRepository = (*UserRepository)(nil)
