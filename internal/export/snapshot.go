// Package export builds the downloadable session snapshot artifact. The
// export is one-way: a fire-and-forget document with no reload path.
package export

import (
	"encoding/json"
	"io"
	"time"

	"github.com/quillchat/session-platform/internal/model"
)

// Metrics carries the advisory figures recorded on one message.
type Metrics struct {
	Tokens         int     `json:"tokens"`
	ProcessingTime int64   `json:"processingTime"`
	Confidence     float64 `json:"confidence"`
}

// Entry is one exported message.
type Entry struct {
	Role      string  `json:"role"`
	Content   string  `json:"content"`
	Timestamp string  `json:"timestamp"`
	Metrics   Metrics `json:"metrics"`
}

// Document is the exported snapshot.
type Document struct {
	DisplayName string  `json:"display_name"`
	ExportedAt  string  `json:"exported_at"`
	Messages    []Entry `json:"messages"`
}

// BuildDocument produces the export document for a session snapshot.
// Messages keep their sequence order; role and content are preserved
// verbatim.
func BuildDocument(displayName string, info model.SessionInfo, exportedAt time.Time) *Document {
	entries := make([]Entry, len(info.Messages))
	for i, msg := range info.Messages {
		entry := Entry{
			Role:      string(msg.Role),
			Content:   msg.Content,
			Timestamp: msg.CreatedAt.UTC().Format(time.RFC3339),
		}
		if msg.Tokens != nil {
			entry.Metrics.Tokens = *msg.Tokens
		}
		if msg.ProcessingMs != nil {
			entry.Metrics.ProcessingTime = *msg.ProcessingMs
		}
		if msg.Confidence != nil {
			entry.Metrics.Confidence = *msg.Confidence
		}
		entries[i] = entry
	}

	return &Document{
		DisplayName: displayName,
		ExportedAt:  exportedAt.UTC().Format(time.RFC3339),
		Messages:    entries,
	}
}

// Write serializes the document as indented JSON.
func (d *Document) Write(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(d)
}
