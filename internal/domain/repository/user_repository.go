package repository

import (
	"context"
	"errors"
	"time"

	"github.com/oksasatya/dresscode/internal/domain/entity"
)

var (
	ErrNotFound        = errors.New("user not found")
	ErrUsernameTaken   = errors.New("username already taken")
	ErrEmailTaken      = errors.New("email already registered")
	ErrMalformedImport = errors.New("malformed import document")
)

// Criteria filters compose conjunctively; zero values disable a filter.
type Criteria struct {
	City       string   `form:"city" json:"city"`
	State      string   `form:"state" json:"state"`
	Styles     []string `form:"styles" json:"styles"`
	Brands     []string `form:"brands" json:"brands"`
	MinAge     int      `form:"minAge" json:"minAge"`
	MaxAge     int      `form:"maxAge" json:"maxAge"`
	PublicOnly bool     `form:"publicOnly" json:"publicOnly"`
}

// Count is one row of a frequency table, ordered by Count desc then Name.
type Count struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

type Statistics struct {
	TotalUsers           int            `json:"totalUsers"`
	PublicUsers          int            `json:"publicUsers"`
	PrivateUsers         int            `json:"privateUsers"`
	AverageAge           int            `json:"averageAge"`
	PopularStyles        []Count        `json:"popularStyles"`
	PopularBrands        []Count        `json:"popularBrands"`
	StateDistribution    map[string]int `json:"stateDistribution"`
	RegistrationsByMonth map[string]int `json:"registrationsByMonth"`
}

// ExportDocument is the export wire format; Users holds entity.Profile or
// entity.PublicProfile values depending on the export flag.
type ExportDocument struct {
	Timestamp  time.Time  `json:"timestamp"`
	TotalUsers int        `json:"totalUsers"`
	Users      any        `json:"users"`
	Statistics Statistics `json:"statistics"`
}

type ImportDocument struct {
	Users []entity.UserInput `json:"users"`
}

type ImportResult struct {
	Total    int      `json:"total"`
	Imported int      `json:"imported"`
	Errors   []string `json:"errors"`
}

type StorageInfo struct {
	Key            string    `json:"key"`
	SizeKB         float64   `json:"sizeKB"`
	TotalUsers     int       `json:"totalUsers"`
	CacheLive      bool      `json:"cacheLive"`
	LastRefresh    time.Time `json:"lastRefresh,omitempty"`
	CacheExpiresAt time.Time `json:"cacheExpiresAt,omitempty"`
}

// UserRepository persists the user collection and enforces uniqueness.
type UserRepository interface {
	List(ctx context.Context) ([]*entity.User, error)
	Save(ctx context.Context, u *entity.User) error
	FindByID(ctx context.Context, id string) (*entity.User, error)
	FindByUsername(ctx context.Context, username string) (*entity.User, error)
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
	Remove(ctx context.Context, id string) error
	Search(ctx context.Context, c Criteria) ([]*entity.User, error)
	Statistics(ctx context.Context) (Statistics, error)
	Export(ctx context.Context, includePrivate bool) (ExportDocument, error)
	Import(ctx context.Context, data []byte, replace bool) (ImportResult, error)
	Clear(ctx context.Context) error
	StorageInfo(ctx context.Context) (StorageInfo, error)
	InvalidateCache()
}
