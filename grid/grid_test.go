package grid

import "testing"

func TestPredicatesTable(t *testing.T) {
	if !IsWalkableOn(KindGround) {
		t.Fatalf("ground should be walkable")
	}
	if IsWalkableOn(KindWall) {
		t.Fatalf("wall should not be walkable")
	}
	if !IsSolid(KindWall) {
		t.Fatalf("wall should be solid")
	}
	if IsSolid(KindGround) {
		t.Fatalf("ground should not be solid")
	}
	if MoveCost(KindWall) != CostInf {
		t.Fatalf("wall move cost should be CostInf, got %d", MoveCost(KindWall))
	}
	if MoveCost(KindGround) != CostStraight {
		t.Fatalf("ground move cost should be CostStraight, got %d", MoveCost(KindGround))
	}
}

func TestLadderRoundTrip(t *testing.T) {
	w := NewWorld(4, 4, 3, 16, 16)
	before := w.At(1, 1, 1)

	w.PlaceLadder(1, 1, 0)
	w.PlaceLadder(1, 1, 1)
	w.PlaceLadder(1, 1, 2)

	if got := w.At(1, 1, 0); got != KindLadderUp {
		t.Fatalf("bottom of shaft should be up-only, got %v", got)
	}
	if got := w.At(1, 1, 1); got != KindLadderBoth {
		t.Fatalf("middle of shaft should be both-ways, got %v", got)
	}
	if got := w.At(1, 1, 2); got != KindLadderDown {
		t.Fatalf("top of shaft should be down-only, got %v", got)
	}

	w.EraseLadder(1, 1, 0)
	w.EraseLadder(1, 1, 1)
	w.EraseLadder(1, 1, 2)

	if got := w.At(1, 1, 1); got != before {
		t.Fatalf("erasing the full shaft should restore prior kind, got %v want %v", got, before)
	}
}

func TestLadderShaftSplitsOnGap(t *testing.T) {
	w := NewWorld(2, 1, 4, 16, 16)
	w.PlaceLadder(0, 0, 0)
	w.PlaceLadder(0, 0, 1)
	// gap at z=2
	w.PlaceLadder(0, 0, 3)

	if got := w.At(0, 0, 0); got != KindLadderUp {
		t.Fatalf("lower shaft bottom should be up-only, got %v", got)
	}
	if got := w.At(0, 0, 1); got != KindLadderDown {
		t.Fatalf("lower shaft top should be down-only, got %v", got)
	}
	if got := w.At(0, 0, 3); got != KindLadderBoth {
		t.Fatalf("single-cell upper shaft should be both-ways, got %v", got)
	}
}

func TestASCIIRoundTrip(t *testing.T) {
	src := "####\n#..#\n#.L#\n####\n"
	w := NewWorldFromASCII(src, 16, 16)

	if w.At(2, 2, 0) != KindLadderBoth {
		t.Fatalf("expected ladder at (2,2), got %v", w.At(2, 2, 0))
	}
	if w.At(0, 0, 0) != KindWall {
		t.Fatalf("expected wall at (0,0), got %v", w.At(0, 0, 0))
	}

	out := w.ToASCII()
	w2 := NewWorldFromASCII(out, 16, 16)
	if w2.Width() != w.Width() || w2.Height() != w.Height() {
		t.Fatalf("round-tripped grid dimensions mismatch")
	}
	for y := 0; y < w.Height(); y++ {
		for x := 0; x < w.Width(); x++ {
			if w.At(x, y, 0) != w2.At(x, y, 0) {
				t.Fatalf("cell (%d,%d) mismatch after round trip: %v vs %v", x, y, w.At(x, y, 0), w2.At(x, y, 0))
			}
		}
	}
}

// TestPlaceRampAutoBreaksTiesLexicographically covers the documented
// tie-break rule for KindRampAuto: when more than one cardinal neighbor on
// z+1 is walkable, the smallest (dx, dy) offset wins. North{0,-1} and
// West{-1,0} both walkable here; West{-1,0} sorts first.
func TestPlaceRampAutoBreaksTiesLexicographically(t *testing.T) {
	w := NewWorld(8, 8, 2, 16, 16)
	w.PlaceRamp(4, 4, 0, KindRampAuto)
	if w.At(4, 4, 0) != KindRampWest {
		t.Fatalf("expected West to win the North/West tie, got %v", w.At(4, 4, 0))
	}
}

func TestMarkChunkDirty(t *testing.T) {
	w := NewWorld(32, 32, 1, 16, 16)
	w.ClearDirty()
	if w.NeedsRebuild {
		t.Fatalf("expected rebuild flag cleared")
	}
	w.MarkChunkDirty(20, 5, 0)
	cx, cy := 20/16, 5/16
	if !w.ChunkDirty(cx, cy, 0) {
		t.Fatalf("expected chunk (%d,%d) dirty", cx, cy)
	}
	if !w.NeedsRebuild {
		t.Fatalf("expected global rebuild flag set")
	}
}
