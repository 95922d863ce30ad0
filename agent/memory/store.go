package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	contractx "github.com/tanpawarit/Chative-Travel-Booking-Agent/agent/contract"
	"github.com/uptrace/bun"
)

// StoredNote is a transcript note with its optional embedding.
type StoredNote struct {
	bun.BaseModel `bun:"table:notes,alias:n"`

	ID        string           `bun:"id,pk"`
	UserID    string           `bun:"user_id,notnull"`
	SessionID string           `bun:"session_id,notnull"`
	Domain    contractx.Domain `bun:"domain"`
	Text      string           `bun:"text,notnull"`
	Embedding []float32        `bun:"embedding"`
	CreatedAt time.Time        `bun:"created_at,notnull"`
}

type NoteStore interface {
	Add(ctx context.Context, note StoredNote) error
	// Recent returns up to limit notes of a user, newest first.
	Recent(ctx context.Context, userID string, limit int) ([]StoredNote, error)
}

type SQLNoteStore struct {
	db *bun.DB
}

var _ NoteStore = (*SQLNoteStore)(nil)

func NewSQLNoteStore(db *bun.DB) (*SQLNoteStore, error) {
	if db == nil {
		return nil, errors.New("bun db is required")
	}
	return &SQLNoteStore{db: db}, nil
}

func (s *SQLNoteStore) CreateTables(ctx context.Context) error {
	if _, err := s.db.NewCreateTable().Model((*StoredNote)(nil)).IfNotExists().Exec(ctx); err != nil {
		return fmt.Errorf("create notes table: %w", err)
	}
	if _, err := s.db.NewCreateIndex().
		Model((*StoredNote)(nil)).
		Index("notes_user_created_idx").
		IfNotExists().
		Column("user_id", "created_at").
		Exec(ctx); err != nil {
		return fmt.Errorf("create notes index: %w", err)
	}
	return nil
}

func (s *SQLNoteStore) Add(ctx context.Context, note StoredNote) error {
	if note.ID == "" {
		note.ID = uuid.NewString()
	}
	if _, err := s.db.NewInsert().Model(&note).Exec(ctx); err != nil {
		return contractx.Transient("insert note", err)
	}
	return nil
}

func (s *SQLNoteStore) Recent(ctx context.Context, userID string, limit int) ([]StoredNote, error) {
	var rows []StoredNote
	q := s.db.NewSelect().Model(&rows).Where("n.user_id = ?", userID).OrderExpr("n.created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, contractx.Transient("select notes", err)
	}
	return rows, nil
}

type MemoryNoteStore struct {
	mu    sync.RWMutex
	notes map[string][]StoredNote
}

var _ NoteStore = (*MemoryNoteStore)(nil)

func NewMemoryNoteStore() *MemoryNoteStore {
	return &MemoryNoteStore{notes: make(map[string][]StoredNote)}
}

func (m *MemoryNoteStore) Add(_ context.Context, note StoredNote) error {
	if note.ID == "" {
		note.ID = uuid.NewString()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notes[note.UserID] = append(m.notes[note.UserID], note)
	return nil
}

func (m *MemoryNoteStore) Recent(_ context.Context, userID string, limit int) ([]StoredNote, error) {
	m.mu.RLock()
	src := m.notes[userID]
	out := make([]StoredNote, len(src))
	copy(out, src)
	m.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
