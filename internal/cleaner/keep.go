package cleaner

import (
	"strconv"
	"strings"
)

// KeepList is the set of chat IDs and usernames that are excluded from every
// destructive operation.  Immutable for the run.
type KeepList struct {
	ids   map[int64]struct{}
	names map[string]struct{}
}

// ParseKeepList builds a KeepList from mixed entries: a numeric entry is a
// chat ID, anything else is a username.  The "@" prefix is optional, username
// matching is case-insensitive.
func ParseKeepList(entries []string) KeepList {
	kl := KeepList{
		ids:   make(map[int64]struct{}, len(entries)),
		names: make(map[string]struct{}, len(entries)),
	}
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if id, err := strconv.ParseInt(entry, 10, 64); err == nil {
			kl.ids[id] = struct{}{}
			continue
		}
		kl.names[normalise(entry)] = struct{}{}
	}
	return kl
}

func normalise(name string) string {
	return strings.ToLower(strings.TrimPrefix(name, "@"))
}

func (kl KeepList) HasID(id int64) bool {
	_, ok := kl.ids[id]
	return ok
}

func (kl KeepList) HasName(name string) bool {
	_, ok := kl.names[normalise(name)]
	return ok
}

// Len returns the number of entries in the list.
func (kl KeepList) Len() int {
	return len(kl.ids) + len(kl.names)
}
