//go:generate go run go.uber.org/mock/mockgen -source=conversation.go -destination=../mocks/mock_conversation_repository.go -package=mocks
package repositories

import (
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"qrchat/errors"
)

const keyPrefix = "conv:"

type IConversationRepository interface {
	Save(id uuid.UUID, buf []byte) error
	Load(id uuid.UUID) ([]byte, error)
	List() ([]StoredConversation, error)
	Delete(id uuid.UUID) error
}

// StoredConversation is a directory entry for the local store: the
// conversation's ID and the size of its encoded buffer.
type StoredConversation struct {
	ID   uuid.UUID
	Size int
}

// ConversationRepository keeps encoded conversations in BadgerDB
// under "conv:{uuid}" keys. The value is the wire-format buffer
// itself: whatever a QR code would carry is exactly what lands on
// disk, so the store never defines a second serialization.
type ConversationRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewConversationRepository(db *badger.DB, log *slog.Logger) ConversationRepository {
	return ConversationRepository{db: db, log: log}
}

func (r ConversationRepository) Save(id uuid.UUID, buf []byte) error {
	return r.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key(id), buf)
	})
}

func (r ConversationRepository) Load(id uuid.UUID) ([]byte, error) {
	var buf []byte
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key(id))
		if err != nil {
			return err
		}
		buf, err = item.ValueCopy(nil)
		return err
	})
	if err == badger.ErrKeyNotFound {
		return nil, fmt.Errorf("%s: %w", id, errors.ErrConversationNotFound)
	}
	return buf, err
}

// List walks the conv: prefix and reports every stored conversation.
func (r ConversationRepository) List() ([]StoredConversation, error) {
	var out []StoredConversation
	err := r.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(keyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			id, err := uuid.Parse(string(item.Key()[len(prefix):]))
			if err != nil {
				r.log.Warn("skipping malformed store key", "key", string(item.Key()))
				continue
			}
			out = append(out, StoredConversation{ID: id, Size: int(item.ValueSize())})
		}
		return nil
	})
	return out, err
}

func (r ConversationRepository) Delete(id uuid.UUID) error {
	return r.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(key(id))
	})
}

func key(id uuid.UUID) []byte {
	return []byte(keyPrefix + id.String())
}
