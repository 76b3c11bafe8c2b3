package lob

import "testing"

func TestBar_TickComparisons(t *testing.T) {
	b := NewBar(100, 10)

	if !b.Same(100) {
		t.Error("Same(100) should hold for a bar at 100")
	}
	if b.Same(100.5) {
		t.Error("Same(100.5) should not hold for a bar at 100")
	}
	if !b.Higher(99) {
		t.Error("Higher(99) should hold for a bar at 100")
	}
	if b.Higher(100) {
		t.Error("Higher(100) should not hold for a bar at its own price")
	}
	if !b.Lower(101) {
		t.Error("Lower(101) should hold for a bar at 100")
	}
	if !b.HigherEqual(100) {
		t.Error("HigherEqual(100) should hold (Same)")
	}
	if !b.LowerEqual(100) {
		t.Error("LowerEqual(100) should hold (Same)")
	}
}

func TestBar_ExecuteAgainst_FullFill(t *testing.T) {
	b := NewBar(100, 10)
	remaining, outstanding, status := b.ExecuteAgainst(15)
	if status != Remove {
		t.Errorf("status = %v, want Remove", status)
	}
	if remaining.Volume() != 0 {
		t.Errorf("remaining volume = %v, want 0", remaining.Volume())
	}
	if outstanding != 5 {
		t.Errorf("outstanding = %v, want 5", outstanding)
	}
}

func TestBar_ExecuteAgainst_PartialFill(t *testing.T) {
	b := NewBar(100, 10)
	remaining, outstanding, status := b.ExecuteAgainst(4)
	if status != Keep {
		t.Errorf("status = %v, want Keep", status)
	}
	if remaining.Volume() != 6 {
		t.Errorf("remaining volume = %v, want 6", remaining.Volume())
	}
	if outstanding != 0 {
		t.Errorf("outstanding = %v, want 0", outstanding)
	}
}

func TestBar_ExecuteAgainst_ExactFillRemoves(t *testing.T) {
	b := NewBar(100, 10)
	remaining, outstanding, status := b.ExecuteAgainst(10)
	if status != Remove {
		t.Errorf("status = %v, want Remove", status)
	}
	if remaining.Volume() != 0 || outstanding != 0 {
		t.Errorf("remaining=%v outstanding=%v, want 0, 0", remaining.Volume(), outstanding)
	}
}

func TestBar_AddVolumeBy(t *testing.T) {
	b := NewBar(100, 10)
	b2 := b.AddVolumeBy(-3)
	if b2.Volume() != 7 {
		t.Errorf("AddVolumeBy(-3).Volume() = %v, want 7", b2.Volume())
	}
	if b.Volume() != 10 {
		t.Error("AddVolumeBy should not mutate the receiver")
	}
}

func TestBar_IsEmpty(t *testing.T) {
	resetTickSizeForTest()
	defer resetTickSizeForTest()

	zero := NewBar(0, 0)
	if !zero.IsEmpty() {
		t.Error("zero bar should be IsEmpty")
	}
	nonZero := NewBar(100, 10)
	if nonZero.IsEmpty() {
		t.Error("bar with price and volume should not be IsEmpty")
	}
}
