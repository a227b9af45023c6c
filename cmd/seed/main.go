package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"

	"github.com/libertyblog/api/config"
	"github.com/libertyblog/api/pkg/helpers"
)

// Seeds a verified admin account so a fresh deployment has a staff user
// able to list accounts and moderate blogs.
func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := sql.Open("pgx", cfg.PostgresDSN())
	if err != nil {
		log.Fatalf("failed to open db: %v", err)
	}
	defer func() { _ = db.Close() }()

	email := envOr("SEED_ADMIN_EMAIL", "admin@libertyblog.dev")
	password := envOr("SEED_ADMIN_PASSWORD", "ChangeMe!2024")
	hash, err := helpers.HashPassword(password)
	if err != nil {
		log.Fatalf("failed to hash password: %v", err)
	}

	var id string
	err = db.QueryRow(`
		INSERT INTO users (email, password, first_name, last_name,
		                   is_verified, is_active, is_staff, is_superuser)
		VALUES ($1, $2, 'Site', 'Admin', true, true, true, true)
		ON CONFLICT (email) DO UPDATE SET
			is_verified = true, is_active = true,
			is_staff = true, is_superuser = true,
			updated_at = now()
		RETURNING id
	`, email, hash).Scan(&id)
	if err != nil {
		log.Fatalf("failed to seed admin: %v", err)
	}

	if _, err := db.Exec(`
		INSERT INTO user_profiles (user_id) VALUES ($1)
		ON CONFLICT (user_id) DO NOTHING
	`, id); err != nil {
		log.Fatalf("failed to seed admin profile: %v", err)
	}

	fmt.Printf("seeded admin: id=%s email=%s\n", id, email)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
