package shell

import (
	"strconv"
	"strings"
)

// DefaultWindowWidth is the number of trailing items shown when no window has
// been remembered yet.
const DefaultWindowWidth = 5

// Window is the half-open range [Start, End) of a collection being displayed.
type Window struct {
	Start int
	End   int
}

func (w Window) Width() int { return w.End - w.Start }

func (w Window) Empty() bool { return w.End <= w.Start }

// Paginator remembers the last valid window over one collection and computes
// the next one from a selector.
type Paginator struct {
	last Window
	has  bool
}

// Last returns the remembered window, if any.
func (p *Paginator) Last() (Window, bool) {
	return p.last, p.has
}

// Reset forgets the remembered window so the next empty selector shows the
// default width again.
func (p *Paginator) Reset() {
	p.last = Window{}
	p.has = false
}

// Apply computes the window for selector over a collection of the given
// length. Selectors are "", a count, "all", "a-b", "next" and "previous".
// Windows that fall entirely outside the collection are returned empty and
// are not remembered.
func (p *Paginator) Apply(selector string, length int) (Window, error) {
	selector = strings.TrimSpace(selector)
	var raw Window

	switch {
	case selector == "":
		raw = lastN(p.width(), length)
	case selector == "all":
		raw = Window{Start: 0, End: length}
	case selector == "next":
		prev := p.previous(length)
		raw = Window{Start: prev.Start + prev.Width(), End: prev.End + prev.Width()}
	case selector == "previous":
		prev := p.previous(length)
		raw = Window{Start: prev.Start - prev.Width(), End: prev.End - prev.Width()}
	case strings.Contains(selector, "-"):
		a, b, ok := parseRange(selector)
		if !ok {
			return Window{}, usagef("Use a range like 3-7, a number, all, next or previous: %s", selector)
		}
		raw = Window{Start: a - 1, End: b}
	default:
		k, err := strconv.Atoi(selector)
		if err != nil || k < 0 {
			return Window{}, usagef("Use a number, a range like 3-7, all, next or previous: %s", selector)
		}
		raw = lastN(k, length)
	}

	w := clampWindow(raw, length)
	if w.End > 0 && w.Start < length {
		p.last = w
		p.has = true
	}
	return w, nil
}

func (p *Paginator) width() int {
	if p.has && p.last.Width() > 0 {
		return p.last.Width()
	}
	return DefaultWindowWidth
}

func (p *Paginator) previous(length int) Window {
	if p.has {
		return p.last
	}
	return clampWindow(lastN(DefaultWindowWidth, length), length)
}

func lastN(n, length int) Window {
	return Window{Start: max(length-n, 0), End: length}
}

func clampWindow(w Window, length int) Window {
	start := clamp(w.Start, 0, length)
	end := clamp(max(w.End, start), start, length)
	return Window{Start: start, End: end}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func parseRange(s string) (int, int, bool) {
	left, right, ok := strings.Cut(s, "-")
	if !ok {
		return 0, 0, false
	}
	a, err := strconv.Atoi(strings.TrimSpace(left))
	if err != nil {
		return 0, 0, false
	}
	b, err := strconv.Atoi(strings.TrimSpace(right))
	if err != nil || b < a {
		return 0, 0, false
	}
	return a, b, true
}
