package chatx

import "time"

// TranscriptEntry is one displayed chat message. Entries are created only
// on the inbound dispatch path, after the backend relays the message back;
// there is no optimistic local echo.
type TranscriptEntry struct {
	SenderEmail string
	SenderName  string
	Text        string
	Timestamp   time.Time
	IsSelf      bool
}

// NewTranscriptEntry derives a transcript entry from a message envelope.
// IsSelf compares the sender against the local identity at receipt time.
func NewTranscriptEntry(env Envelope, local Identity) TranscriptEntry {
	return TranscriptEntry{
		SenderEmail: env.Email,
		SenderName:  env.Name,
		Text:        env.Text,
		Timestamp:   time.UnixMilli(env.Timestamp),
		IsSelf:      env.Email != "" && env.Email == local.Email,
	}
}

// Transcript is the append-only list of displayed messages.
type Transcript struct {
	entries []TranscriptEntry
}

// Append adds an entry to the transcript.
func (t *Transcript) Append(e TranscriptEntry) {
	t.entries = append(t.entries, e)
}

// Entries returns the transcript contents in arrival order.
func (t *Transcript) Entries() []TranscriptEntry {
	return t.entries
}
