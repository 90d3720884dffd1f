package index

// Table is an append-only string-interning table. Intern is idempotent: the
// same string always maps to the same index, and indices are dense starting
// at 0. Not safe for concurrent use.
type Table struct {
	values []string
	lookup map[string]int
}

func NewTable() *Table {
	return &Table{lookup: make(map[string]int)}
}

// Intern returns the index for s, appending it on first sight.
func (t *Table) Intern(s string) int {
	if idx, ok := t.lookup[s]; ok {
		return idx
	}
	idx := len(t.values)
	t.values = append(t.values, s)
	t.lookup[s] = idx
	return idx
}

// Index returns the index for s without interning it.
func (t *Table) Index(s string) (int, bool) {
	idx, ok := t.lookup[s]
	return idx, ok
}

// At returns the string at idx.
func (t *Table) At(idx int) (string, bool) {
	if idx < 0 || idx >= len(t.values) {
		return "", false
	}
	return t.values[idx], true
}

func (t *Table) Len() int {
	return len(t.values)
}

// Values returns a copy of the table in interning order.
func (t *Table) Values() []string {
	out := make([]string, len(t.values))
	copy(out, t.values)
	return out
}
