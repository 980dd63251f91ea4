package viacep

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/oksasatya/dresscode/internal/domain/entity"
	"github.com/oksasatya/dresscode/internal/domain/repository"
	"github.com/oksasatya/dresscode/pkg/helpers"
)

const (
	DefaultBaseURL = "https://viacep.com.br/ws"
	DefaultTimeout = 5 * time.Second
)

// payload is the ViaCEP response body. Erro arrives as true or "true".
type payload struct {
	CEP         string   `json:"cep"`
	Logradouro  string   `json:"logradouro"`
	Complemento string   `json:"complemento"`
	Bairro      string   `json:"bairro"`
	Localidade  string   `json:"localidade"`
	UF          string   `json:"uf"`
	IBGE        string   `json:"ibge"`
	GIA         string   `json:"gia"`
	DDD         string   `json:"ddd"`
	SIAFI       string   `json:"siafi"`
	Erro        flexBool `json:"erro"`
}

type flexBool bool

func (b *flexBool) UnmarshalJSON(data []byte) error {
	s := strings.Trim(strings.TrimSpace(string(data)), `"`)
	*b = flexBool(strings.EqualFold(s, "true"))
	return nil
}

type Client struct {
	baseURL string
	http    *http.Client
	cb      *gobreaker.CircuitBreaker
	logger  *logrus.Logger
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option { return func(c *Client) { c.http = h } }
func WithLogger(l *logrus.Logger) Option    { return func(c *Client) { c.logger = l } }

func NewClient(baseURL string, timeout time.Duration, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
	for _, o := range opts {
		o(c)
	}
	if c.logger == nil {
		c.logger = helpers.NopLogger()
	}

	c.cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "viacep",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		// a missing code is a healthy answer, and so is a caller walking away
		IsSuccessful: func(err error) bool {
			return err == nil ||
				errors.Is(err, repository.ErrPostalCodeNotFound) ||
				errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.logger.WithFields(logrus.Fields{"breaker": name, "from": from.String(), "to": to.String()}).
				Warn("circuit breaker state changed")
		},
	})
	return c
}

func (c *Client) Lookup(ctx context.Context, code string) (*entity.PostalAddress, error) {
	res, err := c.cb.Execute(func() (any, error) {
		return c.fetch(ctx, code)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %v", repository.ErrPostalServiceUnavailable, err)
	}
	if err != nil {
		return nil, err
	}
	return res.(*entity.PostalAddress), nil
}

func (c *Client) fetch(ctx context.Context, code string) (*entity.PostalAddress, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/"+code+"/json/", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, classify(ctx, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: http status %d", repository.ErrPostalServiceUnavailable, resp.StatusCode)
	}

	var p payload
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return nil, fmt.Errorf("decode viacep response: %w", err)
	}
	if p.Erro {
		return nil, repository.ErrPostalCodeNotFound
	}
	return &entity.PostalAddress{
		PostalCode:   p.CEP,
		Street:       p.Logradouro,
		Complement:   p.Complemento,
		Neighborhood: p.Bairro,
		City:         p.Localidade,
		State:        p.UF,
		IBGE:         p.IBGE,
		GIA:          p.GIA,
		DDD:          p.DDD,
		SIAFI:        p.SIAFI,
	}, nil
}

func classify(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.Canceled) {
		return ctx.Err()
	}
	var nerr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &nerr) && nerr.Timeout()) {
		return fmt.Errorf("%w: %v", repository.ErrPostalLookupTimeout, err)
	}
	return fmt.Errorf("%w: %v", repository.ErrPostalConnection, err)
}

var _ repository.PostalCodeGateway = (*Client)(nil)
