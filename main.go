package main

import (
	"flag"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"leaguebot/internal/bot"
	"leaguebot/internal/store"
)

func main() {

	configFile := flag.String("config", "config.yaml", "path to the configuration file")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if *debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	// Configuration
	cfg, err := bot.LoadConfig(*configFile)
	if err != nil {
		log.Fatal().Msgf("Could not load configuration: %v", err)
	}

	// Guild store
	guildStore := store.NewBoltStore(cfg.Database)
	if err := guildStore.Open(); err != nil {
		log.Fatal().Msgf("Could not open guild store: %v", err)
	}
	defer guildStore.Close()

	// Create bot
	leaguebot, err := bot.CreateBot(cfg, guildStore)
	if err != nil {
		log.Fatal().Msgf("Could not create discord bot: %v", err)
	}

	// Run bot
	if err := leaguebot.Run(); err != nil {
		log.Fatal().Msgf("Bot stopped with an error: %v", err)
	}
}
