package main

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/joho/godotenv"

	"github.com/ecomclone/user-service/config"
	"github.com/ecomclone/user-service/internal/domain/entity"
	"github.com/ecomclone/user-service/internal/domain/repository"
	pginfra "github.com/ecomclone/user-service/internal/infrastructure/postgres"
	"github.com/ecomclone/user-service/pkg/helpers"
	"github.com/ecomclone/user-service/pkg/validation"
)

// Seeds a demo account for local development. Safe to run repeatedly:
// a duplicate insert is reported by the unique email index and skipped.
func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pginfra.NewPool(ctx, cfg.PostgresDSN(), cfg.DBMaxConns, cfg.DBMinConns, cfg.DBMaxConnLife)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	repo := pginfra.NewUserRepository(pool)
	hasher := helpers.NewHasher(cfg.BcryptCost)

	hash, err := hasher.Hash("Secret123")
	if err != nil {
		log.Fatalf("hash password: %v", err)
	}

	u := &entity.User{
		Email:        validation.NormalizeEmail("demo@example.com"),
		Username:     "demo",
		PasswordHash: hash,
	}
	if err := repo.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			log.Println("demo user already exists, skipping seed")
			return
		}
		log.Fatalf("seed user: %v", err)
	}
	log.Printf("seeded demo user %s (%s)", u.Username, u.Email)
}
