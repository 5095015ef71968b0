package blocklist

// List is a single circular doubly-linked list with a sentinel head. The
// sentinel never carries a payload: it exists purely so every real block
// has a non-nil Prev/Next, even the first and last ones.
type List struct {
	sentinel Block
}

// Init (re)initializes the list to the empty state: the sentinel is its
// own neighbor. Safe to call again to reset bookkeeping between test
// scenarios.
func (l *List) Init() {
	l.sentinel.Size = 0
	l.sentinel.Status = Allocated
	l.sentinel.Prev = &l.sentinel
	l.sentinel.Next = &l.sentinel
}

// Sentinel returns the list's permanent head node.
func (l *List) Sentinel() *Block {
	return &l.sentinel
}

// Empty reports whether the list holds no real blocks.
func (l *List) Empty() bool {
	return l.sentinel.Next == &l.sentinel
}

// Append inserts b at the tail of the list, i.e. immediately before the
// sentinel. Heap blocks must always be appended in address order so the
// list-order invariant (list order == physical order) holds.
func (l *List) Append(b *Block) {
	l.InsertAfter(l.sentinel.Prev, b)
}

// InsertAfter links b into the list immediately following after. Used by
// split to insert a trailing free block right after the block it was
// carved from, regardless of where that block sits in the list.
func (l *List) InsertAfter(after, b *Block) {
	next := after.Next
	b.Prev = after
	b.Next = next
	after.Next = b
	next.Prev = b
}

// Unlink removes b from the list. The memory backing b is not touched;
// callers decide separately whether to keep it (heap) or release it
// (mapped).
func (l *List) Unlink(b *Block) {
	b.Prev.Next = b.Next
	b.Next.Prev = b.Prev
	b.Prev = nil
	b.Next = nil
}

// Iterate walks the list in insertion order starting at the head,
// invoking fn for each real block. It stops early if fn returns false.
func (l *List) Iterate(fn func(*Block) bool) {
	for node := l.sentinel.Next; node != &l.sentinel; node = node.Next {
		if !fn(node) {
			return
		}
	}
}

// Last returns the tail block, or nil if the list is empty.
func (l *List) Last() *Block {
	if l.Empty() {
		return nil
	}

	return l.sentinel.Prev
}
