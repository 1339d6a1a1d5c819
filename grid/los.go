package grid

// LineOfSight reports whether a straight line from (x0, y0) to (x1, y1) on
// floor z crosses only walkable-on cells, walked with integer Bresenham
// stepping and the same corner-cut prevention A*'s diagonal moves use: a
// diagonal step is only allowed when both of its cardinal neighbors are
// also walkable, so the line never clips a wall corner.
func LineOfSight(w *World, x0, y0, x1, y1, z int) bool {
	if !w.IsWalkableAt(x0, y0, z) || !w.IsWalkableAt(x1, y1, z) {
		return false
	}
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy

	x, y := x0, y0
	for {
		if x == x1 && y == y1 {
			return true
		}
		e2 := 2 * err
		stepX, stepY := false, false
		if e2 >= dy {
			err += dy
			x += sx
			stepX = true
		}
		if e2 <= dx {
			err += dx
			y += sy
			stepY = true
		}
		if stepX && stepY {
			if !w.IsWalkableAt(x-sx, y, z) || !w.IsWalkableAt(x, y-sy, z) {
				return false
			}
		}
		if !w.IsWalkableAt(x, y, z) {
			return false
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
