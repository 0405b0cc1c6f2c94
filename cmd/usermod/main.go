// Command usermod changes a user's role. It is the only way to create an
// admin, since registration refuses that role.
//
//	usermod -email alice@example.com -role admin
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/dom/techxchange/internal/config"
	"github.com/dom/techxchange/internal/domain"
	"github.com/dom/techxchange/internal/logger"
	"github.com/dom/techxchange/internal/repository/postgres"
	"github.com/dom/techxchange/internal/service"
	"github.com/rs/zerolog/log"
	gormlogger "gorm.io/gorm/logger"
)

func main() {
	email := flag.String("email", "", "email of the user to modify")
	roleName := flag.String("role", "", "new role: buyer, seller or admin")
	flag.Parse()

	if *email == "" || *roleName == "" {
		fmt.Fprintln(os.Stderr, "usage: usermod -email <email> -role <buyer|seller|admin>")
		os.Exit(2)
	}

	role, err := domain.ParseRole(*roleName)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	logger.Init(cfg.LogLevel, true)

	db, err := postgres.NewConnection(cfg.DatabaseURL, gormlogger.Silent)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}

	services := service.NewServices(postgres.NewRepositories(db), cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	user, err := services.Auth.SetRole(ctx, *email, role)
	if err != nil {
		log.Fatal().Err(err).Str("email", *email).Msg("failed to update role")
	}

	log.Info().
		Str("user_id", user.ID.String()).
		Str("email", user.Email).
		Str("role", user.Role.String()).
		Msg("role updated")
}
