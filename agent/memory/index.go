// Package memory ranks earlier transcript notes of a user against a new
// message. Notes are embedded when an Embedder is configured and ranked by
// cosine similarity; otherwise ranking falls back to shared-word overlap.
package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/Chative-Travel-Booking-Agent/agent/contract"
	"github.com/tanpawarit/Chative-Travel-Booking-Agent/agent/policy"
)

const defaultScanLimit = 500

type Index struct {
	store     NoteStore
	embedder  Embedder
	scanLimit int
	now       func() time.Time
}

var _ contractx.HistoryRetriever = (*Index)(nil)

type Option func(*Index)

// WithEmbedder enables vector ranking.
func WithEmbedder(e Embedder) Option {
	return func(i *Index) {
		i.embedder = e
	}
}

// WithScanLimit bounds how many recent notes are ranked per search.
func WithScanLimit(n int) Option {
	return func(i *Index) {
		if n > 0 {
			i.scanLimit = n
		}
	}
}

func NewIndex(store NoteStore, opts ...Option) (*Index, error) {
	if store == nil {
		return nil, errors.New("note store is required")
	}
	idx := &Index{store: store, scanLimit: defaultScanLimit, now: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(idx)
		}
	}
	return idx, nil
}

func (i *Index) Remember(ctx context.Context, note contractx.Note) error {
	text := strings.TrimSpace(note.Text)
	if text == "" {
		return nil
	}
	if note.CreatedAt.IsZero() {
		note.CreatedAt = i.now()
	}

	row := StoredNote{
		UserID:    note.UserID,
		SessionID: note.SessionID,
		Domain:    note.Domain,
		Text:      text,
		CreatedAt: note.CreatedAt.UTC(),
	}
	if i.embedder != nil {
		vecs, err := i.embedder.Embed(ctx, []string{text})
		switch {
		case err != nil:
			log.Warn().Err(err).Str("user_id", note.UserID).Msg("embed note failed, storing without vector")
		case len(vecs) == 1:
			row.Embedding = vecs[0]
		}
	}
	return i.store.Add(ctx, row)
}

// SimilaritySearch returns at most k note texts of userID, best match first.
func (i *Index) SimilaritySearch(ctx context.Context, userID string, query string, k int) ([]string, error) {
	if k <= 0 {
		return nil, nil
	}
	notes, err := i.store.Recent(ctx, userID, i.scanLimit)
	if err != nil {
		return nil, contractx.Transient("load notes", err)
	}
	if len(notes) == 0 {
		return nil, nil
	}

	if i.embedder != nil {
		ranked, err := i.rankByVector(ctx, query, notes, k)
		if err == nil && ranked != nil {
			return ranked, nil
		}
		if err != nil {
			log.Warn().Err(err).Str("user_id", userID).Msg("vector search failed, using lexical ranking")
		}
	}
	return rankLexical(query, notes, k), nil
}

// rankByVector returns nil, nil when no note carries an embedding.
func (i *Index) rankByVector(ctx context.Context, query string, notes []StoredNote, k int) ([]string, error) {
	var (
		candidates [][]float32
		texts      []string
	)
	for _, n := range notes {
		if len(n.Embedding) == 0 {
			continue
		}
		candidates = append(candidates, n.Embedding)
		texts = append(texts, n.Text)
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	vecs, err := i.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	if len(vecs) != 1 {
		return nil, errors.New("embedder returned no query vector")
	}

	matches := topN(vecs[0], candidates, k)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, texts[m.Index])
	}
	return out, nil
}

// rankLexical scores notes by distinct query words they contain. Notes arrive
// newest first, so ties favour recent notes.
func rankLexical(query string, notes []StoredNote, k int) []string {
	words := make(map[string]bool)
	for _, w := range policy.Tokenize(query) {
		if len(w) >= 2 {
			words[w] = true
		}
	}

	type scored struct {
		text  string
		score int
	}
	all := make([]scored, 0, len(notes))
	for _, n := range notes {
		seen := make(map[string]bool)
		score := 0
		for _, w := range policy.Tokenize(n.Text) {
			if words[w] && !seen[w] {
				seen[w] = true
				score++
			}
		}
		all = append(all, scored{text: n.Text, score: score})
	}
	sort.SliceStable(all, func(a, b int) bool {
		return all[a].score > all[b].score
	})

	if k > len(all) {
		k = len(all)
	}
	out := make([]string, 0, k)
	for _, s := range all[:k] {
		out = append(out, s.text)
	}
	return out
}
