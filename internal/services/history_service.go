// Package services – HistoryService
//
// HistoryService keeps one append-only JSON array of chat entries per
// customer in a storage.Bucket under "chat_history/<email>.json". Appends are
// read-modify-write of the whole object; in-process appends are serialised.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/tbourn/go-support-agent/internal/domain"
	"github.com/tbourn/go-support-agent/internal/storage"
)

const historyPrefix = "chat_history/"

// HistoryKey returns the bucket key of a customer's chat log.
func HistoryKey(email string) string {
	return historyPrefix + email + ".json"
}

// HistoryService reads and appends customer chat logs.
type HistoryService struct {
	Bucket storage.Bucket

	mu sync.Mutex
}

// NewHistoryService returns a HistoryService over b.
func NewHistoryService(b storage.Bucket) *HistoryService {
	return &HistoryService{Bucket: b}
}

// Append adds entry to the end of the log of entry.Email.
func (s *HistoryService) Append(ctx context.Context, entry domain.ChatEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.load(ctx, entry.Email)
	if err != nil {
		return err
	}
	entries = append(entries, entry)

	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("%w: encode chat history: %w", ErrStore, err)
	}
	if err := s.Bucket.Put(ctx, HistoryKey(entry.Email), data); err != nil {
		return fmt.Errorf("%w: write chat history: %w", ErrStore, err)
	}
	return nil
}

// List returns the log of email in append order, or an empty slice when the
// customer has none. A positive limit keeps only the last limit entries.
func (s *HistoryService) List(ctx context.Context, email string, limit int) ([]domain.ChatEntry, error) {
	if email == "" {
		return nil, fmt.Errorf("%w: email is required", ErrValidation)
	}
	entries, err := s.load(ctx, email)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}
	return entries, nil
}

func (s *HistoryService) load(ctx context.Context, email string) ([]domain.ChatEntry, error) {
	data, err := s.Bucket.Get(ctx, HistoryKey(email))
	if errors.Is(err, storage.ErrObjectNotFound) {
		return []domain.ChatEntry{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read chat history: %w", ErrStore, err)
	}
	entries := []domain.ChatEntry{}
	if len(data) == 0 {
		return entries, nil
	}
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("%w: decode chat history: %w", ErrStore, err)
	}
	return entries, nil
}
