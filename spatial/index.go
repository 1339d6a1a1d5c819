// Package spatial implements the uniform-grid spatial index movers use to
// find nearby movers for avoidance each tick. Grounded in the teacher's
// effects_spatial_index.go (map-bucket upsert/remove-per-entity index), but
// generalized away from incremental per-entity upsert into the flat
// count/prefix-sum/scatter rebuild spec.md calls for: movers move every
// tick, so a from-scratch rebuild each tick is both simpler and, for dense
// scenes, faster than maintaining per-entity bucket membership.
package spatial

// DefaultScanCap bounds how many buckets QueryNeighbors will visit before
// giving up, protecting a tick's budget against a pathological query radius.
const DefaultScanCap = 256

// DefaultNeighborCap bounds how many results QueryNeighbors returns.
const DefaultNeighborCap = 16

// Point is a mover's sub-cell position: X and Y are continuous, Z is the
// discrete floor the mover occupies. The index never buckets across
// z-levels — movers on different floors never contend for avoidance space.
type Point struct {
	X, Y float64
	Z    int
}

// Index is a uniform grid over world space, rebuilt from scratch every tick
// via a two-pass flat array (count, then prefix-sum, then scatter) instead
// of a map of buckets, so rebuilding never pays map allocation/hashing cost
// proportional to entity count.
type Index struct {
	cellSize         float64
	cols, rows, depth int
	minX, minY       float64
	starts           []int32 // len = cols*rows*depth + 1, prefix sums
	items            []int32 // scattered ids, len = len(points)
	positions        []Point // scattered positions, same order/index as items

	ScanCap, NeighborCap int
}

// NewIndex allocates an index covering [minX, minX+width) x [minY,
// minY+height) across `depth` z-levels, bucketed at cellSize world units.
func NewIndex(minX, minY, width, height float64, depth int, cellSize float64) *Index {
	if cellSize <= 0 {
		cellSize = 1
	}
	if depth <= 0 {
		depth = 1
	}
	cols := int(width/cellSize) + 1
	rows := int(height/cellSize) + 1
	if cols <= 0 {
		cols = 1
	}
	if rows <= 0 {
		rows = 1
	}
	return &Index{
		cellSize:    cellSize,
		cols:        cols,
		rows:        rows,
		depth:       depth,
		minX:        minX,
		minY:        minY,
		ScanCap:     DefaultScanCap,
		NeighborCap: DefaultNeighborCap,
	}
}

func (idx *Index) bucketCoords(p Point) (bx, by, bz int) {
	bx = int((p.X - idx.minX) / idx.cellSize)
	by = int((p.Y - idx.minY) / idx.cellSize)
	bz = p.Z
	if bx < 0 {
		bx = 0
	} else if bx >= idx.cols {
		bx = idx.cols - 1
	}
	if by < 0 {
		by = 0
	} else if by >= idx.rows {
		by = idx.rows - 1
	}
	if bz < 0 {
		bz = 0
	} else if bz >= idx.depth {
		bz = idx.depth - 1
	}
	return
}

func (idx *Index) bucketIndex(bx, by, bz int) int {
	return (bz*idx.rows+by)*idx.cols + bx
}

func (idx *Index) bucketCount() int {
	return idx.cols * idx.rows * idx.depth
}

// Rebuild replaces the index contents with the given set of positions in a
// single count/prefix-sum/scatter pass: positions[i] is the location of
// entity id ids[i] (ids need not be contiguous or sorted).
func (idx *Index) Rebuild(positions []Point, ids []int32) {
	n := idx.bucketCount()
	counts := make([]int32, n+1)

	bucketOf := make([]int32, len(positions))
	for i, p := range positions {
		bx, by, bz := idx.bucketCoords(p)
		b := int32(idx.bucketIndex(bx, by, bz))
		bucketOf[i] = b
		counts[b+1]++
	}
	for i := 0; i < n; i++ {
		counts[i+1] += counts[i]
	}

	cursor := make([]int32, n)
	copy(cursor, counts[:n])

	items := make([]int32, len(positions))
	scattered := make([]Point, len(positions))
	for i, b := range bucketOf {
		slot := cursor[b]
		cursor[b]++
		var id int32
		if ids != nil {
			id = ids[i]
		} else {
			id = int32(i)
		}
		items[slot] = id
		scattered[slot] = positions[i]
	}

	idx.starts = counts
	idx.items = items
	idx.positions = scattered
}

// QueryNeighbors appends up to idx.NeighborCap entity ids found within
// radius world units of p into out and returns it, scanning at most
// idx.ScanCap buckets. A bucket's cells can lie diagonally outside the
// true circle, so every candidate is checked against dist² <= radius² before
// being appended. While neither cap bites, the result matches a naive scan
// over every entity. Buckets are visited row by row from the corner at
// (-span, -span), so when ScanCap cuts the scan short the buckets nearest p
// may not have been visited.
func (idx *Index) QueryNeighbors(p Point, radius float64, out []int32) []int32 {
	if idx.starts == nil {
		return out
	}
	bx, by, bz := idx.bucketCoords(p)
	span := int(radius/idx.cellSize) + 1
	r2 := radius * radius

	scanned := 0
	for dy := -span; dy <= span; dy++ {
		y := by + dy
		if y < 0 || y >= idx.rows {
			continue
		}
		for dx := -span; dx <= span; dx++ {
			x := bx + dx
			if x < 0 || x >= idx.cols {
				continue
			}
			if scanned >= idx.ScanCap {
				return out
			}
			scanned++

			b := idx.bucketIndex(x, y, bz)
			start, end := idx.starts[b], idx.starts[b+1]
			for i := start; i < end; i++ {
				other := idx.positions[i]
				ddx, ddy := p.X-other.X, p.Y-other.Y
				if ddx*ddx+ddy*ddy > r2 {
					continue
				}
				if len(out) >= idx.NeighborCap {
					return out
				}
				out = append(out, idx.items[i])
			}
		}
	}
	return out
}
