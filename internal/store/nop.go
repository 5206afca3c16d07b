package store

import (
	"context"

	"github.com/amishk599/screener/internal/model"
)

// NopStore is a no-op store used when persistence is disabled. Nothing is
// remembered between calls.
type NopStore struct{}

func NewNopStore() *NopStore { return &NopStore{} }

func (s *NopStore) AddEntry(context.Context, model.HistoryEntry) error { return nil }
func (s *NopStore) Entries(context.Context, int) ([]model.HistoryEntry, error) {
	return nil, nil
}
func (s *NopStore) Entry(_ context.Context, id string) (model.HistoryEntry, error) {
	return model.HistoryEntry{}, ErrNotFound
}
func (s *NopStore) DeleteEntry(context.Context, string) error { return ErrNotFound }
func (s *NopStore) ClearHistory(context.Context) error        { return nil }

func (s *NopStore) Append(context.Context, string, model.ConsultantMessage) error { return nil }
func (s *NopStore) Messages(context.Context, string) ([]model.ConsultantMessage, error) {
	return nil, nil
}
func (s *NopStore) ClearTranscript(context.Context, string) error { return nil }
func (s *NopStore) Close() error                                  { return nil }
