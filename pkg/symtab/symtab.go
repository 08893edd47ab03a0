package symtab

// Local is a variable discovered by the parser. Offset is its distance in
// bytes below the frame base.
type Local struct {
	Name   string
	Offset int
}

// Table maps local names to frame offsets in a single flat frame. Names are
// declared on first use and never removed.
type Table struct {
	wordSize int
	locals   []*Local
	byName   map[string]*Local
}

func NewTable(wordSize int) *Table {
	if wordSize <= 0 {
		wordSize = 8
	}
	return &Table{wordSize: wordSize, byName: make(map[string]*Local)}
}

func (t *Table) Lookup(name string) (*Local, bool) {
	l, ok := t.byName[name]
	return l, ok
}

// Resolve returns the local for name, declaring it at the next free offset
// when it has not been seen before.
func (t *Table) Resolve(name string) *Local {
	if l, ok := t.byName[name]; ok {
		return l
	}
	l := &Local{Name: name, Offset: t.nextOffset()}
	t.locals = append(t.locals, l)
	t.byName[name] = l
	return l
}

func (t *Table) nextOffset() int {
	if len(t.locals) == 0 {
		return t.wordSize
	}
	return t.locals[len(t.locals)-1].Offset + t.wordSize
}

// Len is the number of distinct locals.
func (t *Table) Len() int { return len(t.locals) }

// Locals returns the locals in declaration order.
func (t *Table) Locals() []Local {
	out := make([]Local, len(t.locals))
	for i, l := range t.locals {
		out[i] = *l
	}
	return out
}
