package chatx

import (
	"context"
	"fmt"
	"strings"
)

// PresenceEntry is one online member as reported by the backend.
type PresenceEntry struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// NoMatchPlaceholder is the single row rendered when a filter matches nobody.
const NoMatchPlaceholder = "no matching members"

// View is the rendering surface the coordination layer drives. The CLI (or
// any other frontend) implements it; renders are full-replace, so a stale
// render is simply overwritten by the next one.
type View interface {
	// ShowPresence replaces the rendered member list.
	ShowPresence(rows []string)
	// SetSearchQuery mirrors a remote search query into the local search field.
	SetSearchQuery(query string)
	// PrefillComposer places an addressing token into the message input.
	PrefillComposer(token string)
	// SearchFocused reports whether the search field is the active input
	// target right now.
	SearchFocused() bool
}

// PresenceDirectory keeps a live, filtered view of online members.
type PresenceDirectory struct {
	client *Client
	view   View
}

// NewPresenceDirectory creates a directory backed by the given client.
func NewPresenceDirectory(client *Client, view View) *PresenceDirectory {
	return &PresenceDirectory{client: client, view: view}
}

// FilterPresence returns the entries whose email contains filter,
// case-insensitively. An empty filter keeps everything.
func FilterPresence(entries []PresenceEntry, filter string) []PresenceEntry {
	if filter == "" {
		return entries
	}
	needle := strings.ToLower(filter)
	var matched []PresenceEntry
	for _, e := range entries {
		if strings.Contains(strings.ToLower(e.Email), needle) {
			matched = append(matched, e)
		}
	}
	return matched
}

// Render replaces the member list with the filtered entries. An empty result
// renders the placeholder row rather than an empty list.
func (d *PresenceDirectory) Render(entries []PresenceEntry, filter string) {
	matched := FilterPresence(entries, filter)
	if len(matched) == 0 {
		d.view.ShowPresence([]string{NoMatchPlaceholder})
		return
	}

	rows := make([]string, 0, len(matched))
	for _, e := range matched {
		rows = append(rows, FormatEntry(e))
	}
	d.view.ShowPresence(rows)
}

// FormatEntry renders one member row.
func FormatEntry(e PresenceEntry) string {
	if e.Name == "" {
		return e.Email
	}
	return fmt.Sprintf("%s <%s>", e.Name, e.Email)
}

// Refresh re-fetches the presence list and re-renders it through the filter.
// A failed fetch renders the placeholder; presence is always full-replace.
func (d *PresenceDirectory) Refresh(ctx context.Context, filter string) {
	d.Render(d.client.FetchOnline(ctx), filter)
}

// Select pre-fills the composer input with an addressing token for the
// entry. It changes neither the entry nor the active filter.
func (d *PresenceDirectory) Select(e PresenceEntry) {
	d.view.PrefillComposer("@" + e.Email + " ")
}
