package application

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode"
	"unicode/utf8"

	json "github.com/goccy/go-json"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/oksasatya/dresscode/internal/domain/entity"
	repo "github.com/oksasatya/dresscode/internal/domain/repository"
	"github.com/oksasatya/dresscode/pkg/helpers"
	"github.com/oksasatya/dresscode/pkg/metrics"
)

type LookupStatus string

const (
	LookupOK       LookupStatus = "ok"
	LookupInvalid  LookupStatus = "invalid"
	LookupNotFound LookupStatus = "not_found"
	LookupFailed   LookupStatus = "failed"
)

type LookupSource string

const (
	SourceCache LookupSource = "cache"
	SourceAPI   LookupSource = "api"
)

// User-facing lookup messages.
const (
	MsgPostalNotFound     = "postal code not found, check that it is correct"
	MsgPostalConnection   = "connection error, check your internet and try again"
	MsgPostalTimeout      = "postal code lookup timed out, try again in a few seconds"
	MsgPostalUnavailable  = "postal code service temporarily unavailable"
	MsgPostalLookupFailed = "error looking up postal code, try again"
)

// ProbePostalCode is a known code used to check the remote service.
const ProbePostalCode = "01310100"

type LookupResult struct {
	Status  LookupStatus          `json:"status"`
	Source  LookupSource          `json:"source,omitempty"`
	Code    string                `json:"code"`
	Address *entity.PostalAddress `json:"address,omitempty"`
	Message string                `json:"message"`
}

func (r LookupResult) OK() bool { return r.Status == LookupOK }

type BatchLookupResult struct {
	Input  string       `json:"input"`
	Result LookupResult `json:"result"`
}

type CacheStats struct {
	Entries     int      `json:"entries"`
	Codes       []string `json:"codes"`
	ApproxBytes int      `json:"approxBytes"`
}

var connectors = map[string]struct{}{
	"de": {}, "da": {}, "do": {}, "das": {}, "dos": {},
	"e": {}, "em": {}, "na": {}, "no": {}, "com": {}, "por": {},
}

// AddressService resolves postal codes through a gateway and keeps every
// normalized answer for the life of the process.
type AddressService struct {
	Gateway repo.PostalCodeGateway
	Timeout time.Duration
	Logger  *logrus.Logger
	Metrics *metrics.Metrics

	mu     sync.RWMutex
	cache  map[string]entity.PostalAddress
	flight singleflight.Group
	lower  cases.Caser
	upper  cases.Caser
}

func NewAddressService(gateway repo.PostalCodeGateway, timeout time.Duration, logger *logrus.Logger, m *metrics.Metrics) *AddressService {
	if logger == nil {
		logger = helpers.NopLogger()
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &AddressService{
		Gateway: gateway,
		Timeout: timeout,
		Logger:  logger,
		Metrics: m,
		cache:   make(map[string]entity.PostalAddress),
		lower:   cases.Lower(language.BrazilianPortuguese),
		upper:   cases.Upper(language.BrazilianPortuguese),
	}
}

// Lookup validates raw, then answers from cache or the gateway.
// Format failures never reach the network.
func (s *AddressService) Lookup(ctx context.Context, raw string) LookupResult {
	code := entity.CleanPostalCode(raw)
	if v := entity.ValidatePostalCode(code); !v.Valid {
		s.Metrics.ObserveLookup("none", string(LookupInvalid))
		return LookupResult{Status: LookupInvalid, Code: code, Message: v.Message}
	}

	if addr, ok := s.cached(code); ok {
		s.Metrics.ObserveLookup(string(SourceCache), string(LookupOK))
		return found(code, SourceCache, addr)
	}

	ch := s.flight.DoChan(code, func() (any, error) {
		if addr, ok := s.cached(code); ok {
			return addr, nil
		}
		// Shared by every waiter, so one caller giving up must not cancel it.
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.Timeout)
		defer cancel()
		start := time.Now()
		raw, err := s.Gateway.Lookup(fctx, code)
		s.Metrics.ObserveLookupDuration(start)
		if err != nil {
			return nil, err
		}
		addr := s.normalize(*raw)
		s.mu.Lock()
		s.cache[code] = addr
		s.mu.Unlock()
		return addr, nil
	})

	select {
	case <-ctx.Done():
		s.Metrics.ObserveLookup(string(SourceAPI), "cancelled")
		return LookupResult{Status: LookupFailed, Code: code, Message: MsgPostalLookupFailed}
	case res := <-ch:
		if res.Err != nil {
			status, msg := classifyLookupError(res.Err)
			s.Logger.WithError(res.Err).WithField("postal_code", code).Warn("postal code lookup failed")
			s.Metrics.ObserveLookup(string(SourceAPI), string(status))
			return LookupResult{Status: status, Code: code, Message: msg}
		}
		s.Metrics.ObserveLookup(string(SourceAPI), string(LookupOK))
		return found(code, SourceAPI, res.Val.(entity.PostalAddress))
	}
}

func found(code string, src LookupSource, addr entity.PostalAddress) LookupResult {
	return LookupResult{
		Status:  LookupOK,
		Source:  src,
		Code:    code,
		Address: &addr,
		Message: fmt.Sprintf("postal code found: %s, %s", addr.City, addr.State),
	}
}

func classifyLookupError(err error) (LookupStatus, string) {
	switch {
	case errors.Is(err, repo.ErrPostalCodeNotFound):
		return LookupNotFound, MsgPostalNotFound
	case errors.Is(err, repo.ErrPostalConnection):
		return LookupFailed, MsgPostalConnection
	case errors.Is(err, repo.ErrPostalLookupTimeout), errors.Is(err, context.DeadlineExceeded):
		return LookupFailed, MsgPostalTimeout
	case errors.Is(err, repo.ErrPostalServiceUnavailable):
		return LookupFailed, MsgPostalUnavailable
	default:
		return LookupFailed, MsgPostalLookupFailed
	}
}

func (s *AddressService) cached(code string) (entity.PostalAddress, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	addr, ok := s.cache[code]
	return addr, ok
}

// LookupMany resolves codes concurrently; results keep the input order.
func (s *AddressService) LookupMany(ctx context.Context, codes []string) []BatchLookupResult {
	out := make([]BatchLookupResult, len(codes))
	var wg sync.WaitGroup
	for i, c := range codes {
		wg.Add(1)
		go func(i int, c string) {
			defer wg.Done()
			out[i] = BatchLookupResult{Input: c, Result: s.Lookup(ctx, c)}
		}(i, c)
	}
	wg.Wait()
	return out
}

func (s *AddressService) CacheStats() CacheStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stats := CacheStats{Entries: len(s.cache), Codes: make([]string, 0, len(s.cache))}
	for code := range s.cache {
		stats.Codes = append(stats.Codes, code)
	}
	sort.Strings(stats.Codes)
	if b, err := json.Marshal(s.cache); err == nil {
		stats.ApproxBytes = len(b)
	}
	return stats
}

// ClearCache drops one code, or everything when code is empty.
func (s *AddressService) ClearCache(code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if code == "" {
		s.cache = make(map[string]entity.PostalAddress)
		s.Logger.Debug("postal code cache cleared")
		return
	}
	delete(s.cache, entity.CleanPostalCode(code))
}

func (s *AddressService) States() []entity.State {
	return entity.BrazilianStates()
}

// Available probes the remote service with a known code.
func (s *AddressService) Available(ctx context.Context) bool {
	return s.Lookup(ctx, ProbePostalCode).OK()
}

func (s *AddressService) normalize(a entity.PostalAddress) entity.PostalAddress {
	return entity.PostalAddress{
		PostalCode:   formatPostalCode(a.PostalCode),
		Street:       s.titleCase(a.Street),
		Complement:   a.Complement,
		Neighborhood: s.titleCase(a.Neighborhood),
		City:         s.titleCase(a.City),
		State:        s.upper.String(a.State),
		IBGE:         a.IBGE,
		GIA:          a.GIA,
		DDD:          a.DDD,
		SIAFI:        a.SIAFI,
	}
}

func formatPostalCode(code string) string {
	clean := entity.CleanPostalCode(code)
	if len(clean) != 8 {
		return clean
	}
	return clean[:5] + "-" + clean[5:]
}

// titleCase capitalizes each word except connectors, which stay lowercase
// unless they open the text.
func (s *AddressService) titleCase(text string) string {
	if text == "" {
		return ""
	}
	words := strings.Split(s.lower.String(text), " ")
	for i, w := range words {
		if _, ok := connectors[w]; ok && i > 0 {
			continue
		}
		words[i] = capitalize(w)
	}
	return strings.Join(words, " ")
}

func capitalize(w string) string {
	r, size := utf8.DecodeRuneInString(w)
	if r == utf8.RuneError {
		return w
	}
	return string(unicode.ToUpper(r)) + w[size:]
}
