package grid

import "strings"

// NewWorldFromASCII builds a single- or multi-floor world from a textual
// layout, grounded in the original NikkiKoole/navkit demo harness
// (pathing/demo.c) that authored test maps the same way: '#' walls, ladder
// glyphs, everything else walkable. Floors are separated by a line of the
// form "floor:N"; lines before the first marker belong to floor 0.
//
// Glyphs:
//
//	'#' wall
//	'L' generic ladder (kind resolved by PlaceLadder from context)
//	'<' ladder, up-only
//	'>' ladder, down-only
//	'X' ladder, both directions
//	anything else: walkable ground
func NewWorldFromASCII(s string, chunkW, chunkH int) *World {
	floors := splitFloors(s)

	width, height := 0, 0
	for _, floor := range floors {
		for _, line := range floor {
			if len(line) > width {
				width = len(line)
			}
		}
		if len(floor) > height {
			height = len(floor)
		}
	}
	depth := len(floors)
	if depth == 0 {
		depth = 1
	}

	w := NewWorld(width, height, depth, chunkW, chunkH)
	for z, floor := range floors {
		for y, line := range floor {
			for x, r := range line {
				var kind Kind
				switch r {
				case '#':
					kind = KindWall
				case 'L':
					w.PlaceLadder(x, y, z)
					continue
				case '<':
					kind = KindLadderUp
				case '>':
					kind = KindLadderDown
				case 'X':
					kind = KindLadderBoth
				default:
					kind = KindGround
				}
				w.SetCell(x, y, z, kind)
			}
		}
	}
	return w
}

func splitFloors(s string) [][]string {
	lines := strings.Split(s, "\n")
	floors := [][]string{{}}
	current := 0
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "floor:") {
			floors = append(floors, []string{})
			current = len(floors) - 1
			continue
		}
		if trimmed == "" && len(floors[current]) == 0 {
			continue
		}
		floors[current] = append(floors[current], line)
	}
	// Trailing blank lines are not rows of the floor they follow.
	for i, f := range floors {
		for len(f) > 0 && strings.TrimSpace(f[len(f)-1]) == "" {
			f = f[:len(f)-1]
		}
		floors[i] = f
	}
	// Drop a trailing empty floor produced by a final blank line.
	for len(floors) > 1 && len(floors[len(floors)-1]) == 0 {
		floors = floors[:len(floors)-1]
	}
	return floors
}

// ToASCII serializes the grid back to the textual form NewWorldFromASCII
// accepts, defaulting walkable ground to '.'. Re-parsing the output
// reproduces walls and the three ladder kinds exactly; bedrock and trees
// come back as walls, and every other kind (ramps included) comes back as
// ground.
func (w *World) ToASCII() string {
	var b strings.Builder
	for z := 0; z < w.depth; z++ {
		if z > 0 {
			b.WriteString("floor:")
			b.WriteString(itoa(z))
			b.WriteByte('\n')
		}
		for y := 0; y < w.height; y++ {
			for x := 0; x < w.width; x++ {
				b.WriteByte(glyphFor(w.At(x, y, z)))
			}
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func glyphFor(k Kind) byte {
	switch k {
	case KindWall, KindBedrock, KindTree:
		return '#'
	case KindLadderUp:
		return '<'
	case KindLadderDown:
		return '>'
	case KindLadderBoth:
		return 'X'
	default:
		return '.'
	}
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
