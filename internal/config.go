package internal

import "time"

// Config is the shared environment configuration for the qrchat
// binaries. Values come from the environment (optionally via .env).
type Config struct {
	BadgerFilepath string        `env:"BADGER_FILEPATH,default=qrchat-db"`
	BlugeFilepath  string        `env:"BLUGE_FILEPATH,default=qrchat-index"`
	LogLevel       string        `env:"LOG_LEVEL,default=info"`
	QRLevel        string        `env:"QR_LEVEL,default=l"`
	QRSize         int           `env:"QR_SIZE,default=512"`
	AvgMsgLength   int           `env:"AVG_MSG_LENGTH,default=40"`
	CensoredWords  string        `env:"CENSORED_WORDS"`
	CensoredChar   string        `env:"CENSORED_CHARACTER,default=*"`
	DebugPort      int           `env:"DEBUG_PORT,default=8090"`
	StatsInterval  time.Duration `env:"STATS_INTERVAL,default=5s"`
}
