// Command seed fills the configured database with demo content.
//
// It reads the same configuration as the server (.env, then environment) and
// registers the admin account first, so run it against an empty database:
//
//	go run ./cmd/seed -admin-email me@example.com -admin-password changeme1 -posts 5
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"github.com/sakif/portfolio-blog/internal/auth"
	"github.com/sakif/portfolio-blog/internal/config"
	sqliteRepo "github.com/sakif/portfolio-blog/internal/repository/sqlite"
	"github.com/sakif/portfolio-blog/internal/seed"
	"github.com/sakif/portfolio-blog/internal/service"
)

func main() {
	var opts seed.Options
	flag.StringVar(&opts.AdminEmail, "admin-email", "admin@example.com", "email of the admin account (user #1)")
	flag.StringVar(&opts.AdminName, "admin-name", "Admin", "display name of the admin account")
	flag.StringVar(&opts.AdminPassword, "admin-password", "", "password of the admin account (required)")
	flag.IntVar(&opts.Readers, "readers", 3, "number of reader accounts to register")
	flag.IntVar(&opts.Posts, "posts", 5, "number of posts to publish")
	flag.IntVar(&opts.CommentsPerPost, "comments", 2, "comments per post")
	flag.Int64Var(&opts.RandSeed, "seed", 0, "random seed for reproducible content (0 = random)")
	flag.Parse()

	cfg, err := config.Load(".env")
	if err != nil {
		slog.Error("loading configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))

	if opts.AdminPassword == "" {
		logger.Error("-admin-password is required")
		os.Exit(2)
	}

	db, err := sqliteRepo.Open(cfg.DatabaseURL)
	if err != nil {
		logger.Error("opening database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer db.Close()

	tokens, err := auth.NewSessionTokens(cfg.SecretKey, cfg.SessionTTL)
	if err != nil {
		logger.Error("creating session tokens", slog.String("error", err.Error()))
		os.Exit(1)
	}

	authService := service.NewAuthService(db, tokens, auth.NewPasswordService(), auth.NopRevoker{}, logger)
	blogService := service.NewBlogService(db, db, logger)

	if _, err := seed.New(authService, blogService, logger).Run(context.Background(), opts); err != nil {
		logger.Error("seeding failed", slog.String("error", err.Error()))
		db.Close()
		os.Exit(1)
	}
}
