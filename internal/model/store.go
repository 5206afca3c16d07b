package model

import "context"

// HistoryStore keeps the most recent screening runs.
type HistoryStore interface {
	AddEntry(ctx context.Context, entry HistoryEntry) error
	Entries(ctx context.Context, limit int) ([]HistoryEntry, error)
	Entry(ctx context.Context, id string) (HistoryEntry, error)
	DeleteEntry(ctx context.Context, id string) error
	ClearHistory(ctx context.Context) error
}

// TranscriptStore persists consultant conversations. Messages are only ever
// appended; a whole session may be cleared.
type TranscriptStore interface {
	Append(ctx context.Context, session string, msg ConsultantMessage) error
	Messages(ctx context.Context, session string) ([]ConsultantMessage, error)
	ClearTranscript(ctx context.Context, session string) error
}
