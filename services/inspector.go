package services

import (
	"github.com/abadojack/whatlanggo"
	"github.com/samber/lo"

	"qrchat/codec"
	"qrchat/domain"
)

// ConversationStats summarizes a conversation for display: how big it
// is on the wire, how well its text suits the packed encoding, and
// roughly what the participants are speaking.
type ConversationStats struct {
	Participants      int
	ActiveCount       int
	Messages          int
	Events            int
	EncodedBytes      int
	SixBitCoverage    float64
	SelectedEncoding  domain.TextEncoding
	Language          string
	RemainingMessages int
}

// Inspector derives read-only stats; it never mutates a conversation.
type Inspector struct {
	service *ConversationService
}

func NewInspector(service *ConversationService) *Inspector {
	return &Inspector{service: service}
}

// Stats folds over the log once. Language detection runs on the
// concatenated message text; avgMsgLen feeds the remaining-capacity
// estimate against the maxBytes budget.
func (i *Inspector) Stats(c *domain.Conversation, avgMsgLen, maxBytes int) (ConversationStats, error) {
	messages := lo.FilterMap(c.Entries, func(e domain.Entry, _ int) (domain.ChatMessage, bool) {
		msg, ok := e.(domain.ChatMessage)
		return msg, ok
	})
	texts := lo.Map(messages, func(m domain.ChatMessage, _ int) string { return m.Text })

	size, err := codec.EncodedSize(c)
	if err != nil {
		return ConversationStats{}, err
	}

	stats := ConversationStats{
		Participants:      len(c.Participants),
		ActiveCount:       lo.CountBy(c.Participants, func(p domain.Participant) bool { return p.Active }),
		Messages:          len(messages),
		Events:            len(c.Entries) - len(messages),
		EncodedBytes:      size,
		SelectedEncoding:  selectEncoding(c.Entries),
		RemainingMessages: i.service.RemainingCapacity(c, avgMsgLen, maxBytes),
	}

	all := ""
	for _, t := range texts {
		all += t + "\n"
	}
	if all != "" {
		stats.SixBitCoverage = codec.SixBitCoverage(all)
		info := whatlanggo.Detect(all)
		stats.Language = info.Lang.Iso6391()
	}
	return stats, nil
}
