package domain

// VisibleHistory returns the part of history a viewer may see.
//
// Admins and system callers (nil viewer) get everything. A sales viewer gets
// every entry from their most recent assignment onward, plus all notes from
// any point in the lead's life. Notes stay visible across assignees on purpose.
func VisibleHistory(history []HistoryEntry, viewer *Actor) []HistoryEntry {
	if viewer == nil || viewer.IsAdmin() {
		return append([]HistoryEntry(nil), history...)
	}

	from := len(history)
	for i := len(history) - 1; i >= 0; i-- {
		if assignee, ok := history[i].AssignedTo(); ok && assignee == viewer.UserID {
			from = i
			break
		}
	}

	visible := make([]HistoryEntry, 0, len(history))
	for i, entry := range history {
		if entry.Action == ActionNoteAdded || i >= from {
			visible = append(visible, entry)
		}
	}
	return visible
}

// ForViewer returns a copy of the lead with history filtered for viewer.
func (l *Lead) ForViewer(viewer *Actor) *Lead {
	cp := *l
	cp.History = VisibleHistory(l.History, viewer)
	return &cp
}
