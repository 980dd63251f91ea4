package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/oksasatya/dresscode/config"
	"github.com/oksasatya/dresscode/pkg/helpers"
)

// admin_token prints a bearer token for the /api/users operator endpoints,
// signed with ADMIN_JWT_SECRET.
func main() {
	subject := flag.String("sub", "operator", "token subject")
	ttl := flag.Duration("ttl", 0, "token lifetime (defaults to ADMIN_TOKEN_TTL)")
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-admin-token", cfg.Env)
	logger.SetOutput(os.Stderr)

	life := cfg.AdminTokenTTL
	if *ttl > 0 {
		life = *ttl
	}
	token, exp, err := helpers.NewJWTManager(cfg.AdminJWTSecret, life, cfg.AppName).GenerateToken(*subject, helpers.RoleAdmin)
	if err != nil {
		logger.Fatalf("failed to issue admin token: %v", err)
	}
	logger.WithField("expires_at", exp.Format(time.RFC3339)).Info("admin token issued")
	fmt.Println(token)
}
