// Package collision implements the label collision index: an axis-aligned
// rectangle store consulted before every label is drawn. Accepted rectangles
// are irrevocable for the remainder of a single tile render.
package collision

// Epsilon inflates every stored and tested rectangle by this amount on each
// side, so that labels rendered with sub-pixel rounding differences don't
// pass collision checks against themselves.
const Epsilon = 0.001

// Rect is an axis-aligned bounding rectangle in tile pixel space.
type Rect struct {
	MinX, MinY, MaxX, MaxY float64
}

func (r Rect) inflated() Rect {
	return Rect{
		MinX: r.MinX - Epsilon,
		MinY: r.MinY - Epsilon,
		MaxX: r.MaxX + Epsilon,
		MaxY: r.MaxY + Epsilon,
	}
}

func (r Rect) intersects(o Rect) bool {
	return r.MinX < o.MaxX && r.MaxX > o.MinX && r.MinY < o.MaxY && r.MaxY > o.MinY
}

// entry pairs a stored rect with an opaque owner tag used by
// CollidesWithExclusion to let a label ignore its own previously-accepted
// pieces (e.g. a multi-segment line label checking against itself).
type entry struct {
	rect  Rect
	owner int
}

// Index is a linear-scan collision index. Zero value is ready to use.
type Index struct {
	entries []entry
}

// New returns an empty collision index.
func New() *Index {
	return &Index{}
}

// Collides reports whether rect overlaps any previously accepted rectangle.
func (idx *Index) Collides(rect Rect) bool {
	inflated := rect.inflated()

	for _, e := range idx.entries {
		if inflated.intersects(e.rect) {
			return true
		}
	}

	return false
}

// CollidesWithExclusion reports whether rect overlaps any accepted rectangle
// not tagged with owner. This lets a multi-piece label (several glyph
// clusters, or several rect tests for one placement attempt) check against
// everything else already on the tile while ignoring its own earlier pieces.
func (idx *Index) CollidesWithExclusion(rect Rect, owner int) bool {
	inflated := rect.inflated()

	for _, e := range idx.entries {
		if e.owner == owner {
			continue
		}

		if inflated.intersects(e.rect) {
			return true
		}
	}

	return false
}

// Add accepts rect into the index. Once added, a rectangle can never be
// removed: acceptance is irrevocable for the lifetime of the index.
func (idx *Index) Add(rect Rect) {
	idx.entries = append(idx.entries, entry{rect: rect.inflated(), owner: -1})
}

// AddWithOwner is like Add but tags the rect with an owner id so later
// CollidesWithExclusion calls for the same owner can skip it.
func (idx *Index) AddWithOwner(rect Rect, owner int) {
	idx.entries = append(idx.entries, entry{rect: rect.inflated(), owner: owner})
}

// Len returns the number of accepted rectangles.
func (idx *Index) Len() int {
	return len(idx.entries)
}
