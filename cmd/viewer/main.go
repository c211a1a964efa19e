package main

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/shirou/gopsutil/process"

	"qrchat/codec"
	"qrchat/domain"
	"qrchat/internal"
)

// viewer serves a read-only HTML view of the local conversation
// store, decoding each buffer for display. It opens Badger with the
// lock guard bypassed so it can run next to the CLI.
func main() {
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		log.Fatalf("Config error: %v", err)
	}

	opts := badger.DefaultOptions(config.BadgerFilepath).
		WithReadOnly(true).
		WithBypassLockGuard(true).
		WithLoggingLevel(badger.WARNING)
	db, err := badger.Open(opts)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	fmt.Printf("Viewer started at http://localhost:%d/inspect\n", config.DebugPort)
	errChan := internal.StartDebugServer(db, config.DebugPort, "/inspect", ConversationMapper, processStats)
	log.Fatal(<-errChan)
}

// ConversationMapper decodes a stored buffer into a display row. A
// buffer that no longer decodes still gets a row so corruption is
// visible instead of silent.
func ConversationMapper(key string, val []byte) internal.InspectRow {
	row := internal.DefaultMapper(key, val)
	c, err := codec.Decode(val)
	if err != nil {
		row.Detail = fmt.Sprintf("decode failed: %v", err)
		return row
	}

	var names []string
	for _, p := range c.Participants {
		name := p.Name
		if p.Active {
			name += "*"
		}
		names = append(names, name)
	}
	row.Participants = strings.Join(names, ", ")
	row.Mode = c.Mode.String()
	row.Encoding = c.Encoding.String()
	row.Entries = len(c.Entries)

	row.Detail = "(no messages)"
	for i := len(c.Entries) - 1; i >= 0; i-- {
		if msg, ok := c.Entries[i].(domain.ChatMessage); ok {
			row.Detail = msg.Text
			break
		}
	}
	return row
}

// processStats reports the viewer's own resource usage in the
// dashboard header.
func processStats() map[string]any {
	stats := map[string]any{
		"time": time.Now().Format(time.RFC822),
	}
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return stats
	}
	if mem, err := p.MemoryInfo(); err == nil {
		stats["rss_mb"] = mem.RSS / (1 << 20)
	}
	if cpu, err := p.CPUPercent(); err == nil {
		stats["cpu_pct"] = fmt.Sprintf("%.1f", cpu)
	}
	return stats
}
