package ir

// Node kinds in a Snapshot.
const (
	KindLocation = "location"
	KindSection  = "section"
)

// LevelEntry is the level of one location or section at snapshot time.
// Path is the slash-joined location ancestry, with the section name last for
// sections.
type LevelEntry struct {
	Kind  string `json:"kind"`
	Path  string `json:"path"`
	Level string `json:"level"`
}

// Snapshot is the level of every node in tree order.
type Snapshot []LevelEntry

// canonical converts the snapshot to the generic form MarshalCanonical accepts.
func (s Snapshot) canonical() map[string]any {
	entries := make([]any, len(s))
	for i, e := range s {
		entries[i] = map[string]any{
			"kind":  e.Kind,
			"path":  e.Path,
			"level": e.Level,
		}
	}
	return map[string]any{
		"version": SnapshotVersion,
		"entries": entries,
	}
}

// MarshalCanonical renders the snapshot as canonical JSON.
func (s Snapshot) MarshalCanonical() ([]byte, error) {
	return MarshalCanonical(s.canonical())
}
