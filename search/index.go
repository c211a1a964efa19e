// Package search maintains a local full-text index over decoded chat
// messages so a participant can find old exchanges without scrolling
// a QR-sized history by hand.
package search

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/blugelabs/bluge"

	"qrchat/domain"
)

type Index struct {
	writer *bluge.Writer
	log    *slog.Logger
}

// Hit is one matched message.
type Hit struct {
	Conversation string
	Speaker      string
	Text         string
}

func NewIndex(path string, log *slog.Logger) (*Index, error) {
	writer, err := bluge.OpenWriter(bluge.DefaultConfig(path))
	if err != nil {
		return nil, fmt.Errorf("opening search index: %w", err)
	}
	return &Index{writer: writer, log: log}, nil
}

func (i *Index) Close() error {
	return i.writer.Close()
}

// IndexConversation (re)indexes every chat message of a decoded
// conversation. Document IDs are "{conversation}:{entry}" so
// re-indexing after new messages arrive updates in place.
func (i *Index) IndexConversation(id string, c *domain.Conversation) error {
	batch := bluge.NewBatch()
	indexed := 0
	for n, e := range c.Entries {
		msg, ok := e.(domain.ChatMessage)
		if !ok {
			continue
		}
		speaker := ""
		if msg.Speaker < len(c.Participants) {
			speaker = c.Participants[msg.Speaker].Name
		}
		doc := bluge.NewDocument(id + ":" + strconv.Itoa(n))
		doc.AddField(bluge.NewKeywordField("conversation", id).StoreValue())
		doc.AddField(bluge.NewKeywordField("speaker", speaker).StoreValue())
		doc.AddField(bluge.NewTextField("text", msg.Text).StoreValue())
		batch.Update(doc.ID(), doc)
		indexed++
	}
	if err := i.writer.Batch(batch); err != nil {
		return fmt.Errorf("indexing conversation %s: %w", id, err)
	}
	i.log.Debug("conversation indexed", "conversation", id, "messages", indexed)
	return nil
}

// Search matches terms against message text and returns up to limit
// hits with their stored fields.
func (i *Index) Search(ctx context.Context, terms string, limit int) ([]Hit, error) {
	reader, err := i.writer.Reader()
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	query := bluge.NewMatchQuery(terms).SetField("text")
	request := bluge.NewTopNSearch(limit, query)
	iter, err := reader.Search(ctx, request)
	if err != nil {
		return nil, err
	}

	var hits []Hit
	for {
		match, err := iter.Next()
		if err != nil {
			return nil, err
		}
		if match == nil {
			break
		}
		var hit Hit
		err = match.VisitStoredFields(func(field string, value []byte) bool {
			switch field {
			case "conversation":
				hit.Conversation = string(value)
			case "speaker":
				hit.Speaker = string(value)
			case "text":
				hit.Text = string(value)
			}
			return true
		})
		if err != nil {
			return nil, err
		}
		hits = append(hits, hit)
	}
	return hits, nil
}
