package blocklist

import "testing"

func TestListInitIsEmpty(t *testing.T) {
	var l List
	l.Init()

	if !l.Empty() {
		t.Fatal("freshly initialized list should be empty")
	}

	if l.Sentinel().Next != l.Sentinel() || l.Sentinel().Prev != l.Sentinel() {
		t.Fatal("sentinel must be its own neighbor when empty")
	}
}

func TestListAppendOrder(t *testing.T) {
	var l List

	l.Init()

	a := &Block{Size: 8, Status: Allocated}
	b := &Block{Size: 16, Status: Free}
	c := &Block{Size: 32, Status: Allocated}

	l.Append(a)
	l.Append(b)
	l.Append(c)

	var order []*Block

	l.Iterate(func(blk *Block) bool {
		order = append(order, blk)
		return true
	})

	if len(order) != 3 || order[0] != a || order[1] != b || order[2] != c {
		t.Fatalf("unexpected insertion order: %v", order)
	}

	if l.Last() != c {
		t.Fatal("Last() should return the most recently appended block")
	}
}

func TestListUnlink(t *testing.T) {
	var l List

	l.Init()

	a := &Block{Size: 8}
	b := &Block{Size: 16}
	c := &Block{Size: 32}

	l.Append(a)
	l.Append(b)
	l.Append(c)

	l.Unlink(b)

	var order []*Block

	l.Iterate(func(blk *Block) bool {
		order = append(order, blk)
		return true
	})

	if len(order) != 2 || order[0] != a || order[1] != c {
		t.Fatalf("expected [a, c] after unlinking b, got %v", order)
	}

	if b.Prev != nil || b.Next != nil {
		t.Fatal("unlinked block must have its links cleared")
	}
}

func TestListInsertAfter(t *testing.T) {
	var l List

	l.Init()

	a := &Block{Size: 8}
	c := &Block{Size: 32}

	l.Append(a)
	l.Append(c)

	b := &Block{Size: 16}
	l.InsertAfter(a, b)

	var order []*Block

	l.Iterate(func(blk *Block) bool {
		order = append(order, blk)
		return true
	})

	if len(order) != 3 || order[0] != a || order[1] != b || order[2] != c {
		t.Fatalf("expected [a, b, c], got %v", order)
	}
}

func TestIterateStopsEarly(t *testing.T) {
	var l List

	l.Init()

	for i := 0; i < 5; i++ {
		l.Append(&Block{Size: uintptr(i)})
	}

	visited := 0

	l.Iterate(func(blk *Block) bool {
		visited++
		return visited < 2
	})

	if visited != 2 {
		t.Fatalf("expected iteration to stop after 2 visits, got %d", visited)
	}
}
