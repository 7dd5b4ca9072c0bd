package main

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/asplabs/typerace/internal/game"
	"github.com/asplabs/typerace/internal/httpserver"
	"github.com/asplabs/typerace/internal/results"
	"github.com/asplabs/typerace/internal/service"
	"github.com/asplabs/typerace/internal/store"
	"github.com/asplabs/typerace/internal/texts"
)

func main() {
	_ = godotenv.Load()
	if lvl, err := zerolog.ParseLevel(getEnv("LOG_LEVEL", "info")); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	if err := texts.Init(); err != nil {
		log.Fatal().Err(err).Msg("failed to load text corpus")
	}

	db, err := openDB(getEnv("DB_PATH", "./data/typerace.db"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	if err := migrate(db); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	mem := store.NewMemoryStore(playerTTL())
	res := results.NewStore(db)
	svc := service.New(mem, res)
	srv := httpserver.New(svc, res)
	port := getEnv("PORT", "6167")
	log.Info().Str("port", port).Msg("starting typerace server")
	if err := srv.Start(":" + port); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

// playerTTL reads PLAYER_TTL_SECONDS, falling back to the 30s default.
func playerTTL() time.Duration {
	if v := os.Getenv("PLAYER_TTL_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return time.Duration(n) * time.Second
		}
	}
	return game.DefaultTTL
}

func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
