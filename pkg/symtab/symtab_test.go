package symtab

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestTable(t *testing.T) {
	t.Run("FirstUseOrder", func(t *testing.T) {
		tab := NewTable(8)
		a := tab.Resolve("a")
		b := tab.Resolve("b")
		foo := tab.Resolve("foo")

		if a.Offset != 8 {
			t.Errorf("a offset: expected 8, got %d", a.Offset)
		}
		if b.Offset != 16 {
			t.Errorf("b offset: expected 16, got %d", b.Offset)
		}
		if foo.Offset != 24 {
			t.Errorf("foo offset: expected 24, got %d", foo.Offset)
		}
		if tab.Len() != 3 {
			t.Errorf("len: expected 3, got %d", tab.Len())
		}
	})

	t.Run("StableOffsets", func(t *testing.T) {
		tab := NewTable(8)
		first := tab.Resolve("a")
		tab.Resolve("b")
		again := tab.Resolve("a")
		if first != again {
			t.Errorf("resolving 'a' twice returned different locals")
		}
		if again.Offset != 8 {
			t.Errorf("a offset: expected 8, got %d", again.Offset)
		}
		if tab.Len() != 2 {
			t.Errorf("len: expected 2, got %d", tab.Len())
		}
	})

	t.Run("Lookup", func(t *testing.T) {
		tab := NewTable(4)
		if _, ok := tab.Lookup("x"); ok {
			t.Errorf("lookup of unknown name succeeded")
		}
		tab.Resolve("x")
		l, ok := tab.Lookup("x")
		if !ok || l.Offset != 4 {
			t.Errorf("lookup x: expected offset 4, got %+v (found=%v)", l, ok)
		}
	})

	t.Run("Locals", func(t *testing.T) {
		tab := NewTable(8)
		tab.Resolve("z")
		tab.Resolve("y")
		tab.Resolve("z")
		want := []Local{{Name: "z", Offset: 8}, {Name: "y", Offset: 16}}
		if diff := cmp.Diff(want, tab.Locals()); diff != "" {
			t.Errorf("locals mismatch (-want +got):\n%s", diff)
		}
	})
}
