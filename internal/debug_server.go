package internal

import (
	"embed"
	"fmt"
	"html/template"
	"net/http"

	"github.com/dgraph-io/badger/v4"
)

//go:embed inspect.html
var templatesFS embed.FS

// InspectRow is one stored conversation as rendered by the viewer.
type InspectRow struct {
	Key          string
	Participants string
	Mode         string
	Encoding     string
	Entries      int
	Size         int
	Detail       string
}

// RowMapper turns a raw store entry into a display row; the viewer
// stays ignorant of the wire format itself.
type RowMapper func(key string, val []byte) InspectRow

// StatsProvider supplies the dashboard header values.
type StatsProvider func() map[string]any

type pageData struct {
	Prefix string
	Items  []InspectRow
	Stats  map[string]any
}

// StartDebugServer serves a read-only HTML view of the conversation
// store. It runs in the background; errors binding the port are
// reported on the returned channel.
func StartDebugServer(db *badger.DB, port int, endpoint string, mapper RowMapper, statsProvider StatsProvider) <-chan error {
	mux := http.NewServeMux()
	tmpl := template.Must(template.ParseFS(templatesFS, "inspect.html"))

	if mapper == nil {
		mapper = DefaultMapper
	}

	mux.HandleFunc(endpoint, func(w http.ResponseWriter, r *http.Request) {
		prefix := r.URL.Query().Get("prefix")
		if prefix == "" {
			prefix = "conv:"
		}
		data := pageData{Prefix: prefix, Stats: map[string]any{}}
		if statsProvider != nil {
			data.Stats = statsProvider()
		}
		_ = db.View(func(txn *badger.Txn) error {
			it := txn.NewIterator(badger.DefaultIteratorOptions)
			defer it.Close()
			for it.Seek([]byte(prefix)); it.ValidForPrefix([]byte(prefix)); it.Next() {
				item := it.Item()
				_ = item.Value(func(val []byte) error {
					data.Items = append(data.Items, mapper(string(item.Key()), val))
					return nil
				})
			}
			return nil
		})
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_ = tmpl.Execute(w, data)
	})

	errChan := make(chan error, 1)
	go func() {
		errChan <- http.ListenAndServe(fmt.Sprintf("0.0.0.0:%d", port), mux)
	}()
	return errChan
}

// DefaultMapper shows only what can be known without decoding.
func DefaultMapper(key string, val []byte) InspectRow {
	return InspectRow{
		Key:    key,
		Mode:   "?",
		Size:   len(val),
		Detail: fmt.Sprintf("%d raw bytes", len(val)),
	}
}
