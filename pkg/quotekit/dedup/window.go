package dedup

// Window is a fixed-size ring buffer of normalized texts. Once full, each
// Push evicts the oldest entry.
type Window struct {
	buf  []string
	next int
	full bool
}

// NewWindow creates a window holding at most size texts.
func NewWindow(size int) *Window {
	if size < 1 {
		size = 1
	}
	return &Window{buf: make([]string, size)}
}

// Push appends text, evicting the oldest entry when the window is full.
func (w *Window) Push(text string) {
	w.buf[w.next] = text
	w.next++
	if w.next == len(w.buf) {
		w.next = 0
		w.full = true
	}
}

// Len returns the number of texts held.
func (w *Window) Len() int {
	if w.full {
		return len(w.buf)
	}
	return w.next
}

// Cap returns the window size.
func (w *Window) Cap() int { return len(w.buf) }

// Each calls fn for every text from newest to oldest until fn returns
// false. Recent texts are the likeliest near duplicates.
func (w *Window) Each(fn func(string) bool) {
	n := w.Len()
	for i := 0; i < n; i++ {
		idx := (w.next - 1 - i + len(w.buf)) % len(w.buf)
		if !fn(w.buf[idx]) {
			return
		}
	}
}
