package main

import (
	"context"
	"flag"
	"os"
	"time"

	"go-pos-ledger/internal/config"
	"go-pos-ledger/internal/logging"
	"go-pos-ledger/internal/model"
	"go-pos-ledger/internal/repository"
	"go-pos-ledger/pkg/database"
)

func main() {
	username := flag.String("user", "", "username to reset (defaults to ADMIN_USERNAME)")
	password := flag.String("password", "", "new password (defaults to ADMIN_PASSWORD)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logging.New("text", "error").Error("failed to load config", "error", err)
		os.Exit(1)
	}
	log := logging.New(cfg.LogFormat, cfg.LogLevel)

	if *username == "" {
		*username = cfg.AdminUsername
	}
	if *password == "" {
		*password = cfg.AdminPassword
	}

	db, err := database.Open(cfg.DBDriver, cfg.DSN(), logging.NewGormLogger(log, false))
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	users := repository.NewUserRepo(db)
	user, err := users.FindByUsername(ctx, *username)
	if err != nil {
		log.Error("user not found", "username", *username, "error", err)
		os.Exit(1)
	}

	var scratch model.User
	if err := scratch.SetPassword(*password); err != nil {
		log.Error("failed to hash password", "error", err)
		os.Exit(1)
	}
	if err := users.UpdatePassword(ctx, user.ID, scratch.Password); err != nil {
		log.Error("failed to update password", "error", err)
		os.Exit(1)
	}
	// Clearing the session version logs out every existing token.
	if err := users.UpdateSession(ctx, user.ID, "", time.Now()); err != nil {
		log.Warn("failed to reset session", "error", err)
	}

	log.Info("password reset", "username", user.Username)
}
