package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"

	"qrchat/internal"
	"qrchat/moderation"
	"qrchat/repositories"
	"qrchat/services"
)

const usage = `qrchat - chat over QR codes, no server required

Usage: qrchat <command> [flags]

Commands:
  new       start a conversation
  join      add (or re-activate) a participant
  say       append a message
  leave     record a participant leaving
  show      print participants and entries
  list      list stored conversations
  encode    write the wire-format buffer to a file
  decode    read a wire-format buffer, optionally store it
  render    render a conversation as a QR PNG
  scan      read a QR PNG back into the store
  search    full-text search across stored messages
  capacity  estimate remaining message capacity
`

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run wires configuration, storage, and the service once, then
// dispatches to the subcommand. Deferred cleanup runs before main
// sees the error, so the database always closes properly.
func run(args []string) error {
	if len(args) == 0 {
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("missing command")
	}

	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := internal.GetLoggerFromString(config.LogLevel)

	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.WARNING))
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		log.Debug("closing BadgerDB")
		_ = db.Close()
	}()

	moderator, err := buildModerator(config)
	if err != nil {
		return err
	}

	app := &app{
		config:  config,
		log:     log,
		store:   repositories.NewConversationRepository(db, log),
		service: services.NewConversationService(log, moderator),
	}
	return app.dispatch(args[0], args[1:])
}

// buildModerator reads the optional censored-words file; no file
// means messages pass through untouched.
func buildModerator(config internal.Config) (*moderation.Moderator, error) {
	if config.CensoredWords == "" {
		return nil, nil
	}
	raw, err := os.ReadFile(config.CensoredWords)
	if err != nil {
		return nil, fmt.Errorf("censored words file: %w", err)
	}
	var words []string
	for _, line := range strings.Split(string(raw), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			words = append(words, line)
		}
	}
	replacement := '*'
	if config.CensoredChar != "" {
		replacement = []rune(config.CensoredChar)[0]
	}
	return moderation.NewModerator(words, replacement)
}
