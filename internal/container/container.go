package container

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/dresscode/config"
	"github.com/oksasatya/dresscode/internal/application"
	repo "github.com/oksasatya/dresscode/internal/domain/repository"
	"github.com/oksasatya/dresscode/pkg/helpers"
	"github.com/oksasatya/dresscode/pkg/metrics"
)

// app-level container to share constructed components across packages
// Router can auto-wire modules from these singletons.

var (
	cfg         *config.Config
	logger      *logrus.Logger
	pgPool      *pgxpool.Pool
	redisClient *redis.Client

	registry *prometheus.Registry
	appMet   *metrics.Metrics

	rabbitPub *helpers.RabbitPublisher
	jwtMgr    *helpers.JWTManager

	userRepo       repo.UserRepository
	addressSvc     *application.AddressService
	wizardSessions *application.WizardSessions
	userSvc        *application.UserService
)

func SetConfig(c *config.Config) { cfg = c }
func GetConfig() *config.Config  { return cfg }
func SetLogger(l *logrus.Logger) { logger = l }
func GetLogger() *logrus.Logger {
	if logger != nil {
		return logger
	}
	return helpers.NopLogger()
}
func SetJWT(m *helpers.JWTManager) { jwtMgr = m }

// GetJWT returns the admin token manager; nil leaves operator routes closed.
func GetJWT() *helpers.JWTManager { return jwtMgr }

func SetPGPool(p *pgxpool.Pool) { pgPool = p }
func GetPGPool() *pgxpool.Pool  { return pgPool }
func SetRedis(r *redis.Client)  { redisClient = r }

// GetRedis returns nil when Redis is not configured; the rate limiter then
// passes every request through.
func GetRedis() redis.Cmdable {
	if redisClient == nil {
		return nil
	}
	return redisClient
}

func SetMetrics(reg *prometheus.Registry, m *metrics.Metrics) { registry, appMet = reg, m }
func GetRegistry() *prometheus.Registry                       { return registry }
func GetMetrics() *metrics.Metrics                            { return appMet }

func SetRabbitPub(p *helpers.RabbitPublisher) { rabbitPub = p }
func GetRabbitPub() *helpers.RabbitPublisher  { return rabbitPub }

func SetUserRepo(r repo.UserRepository) { userRepo = r }
func GetUserRepo() repo.UserRepository  { return userRepo }

func SetAddressService(s *application.AddressService) { addressSvc = s }
func GetAddressService() *application.AddressService  { return addressSvc }

func SetWizardSessions(s *application.WizardSessions) { wizardSessions = s }
func GetWizardSessions() *application.WizardSessions  { return wizardSessions }

func SetUserService(s *application.UserService) { userSvc = s }
func GetUserService() *application.UserService  { return userSvc }
