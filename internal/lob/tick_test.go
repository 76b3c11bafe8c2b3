package lob

import (
	"errors"
	"math"
	"testing"

	"github.com/efreitasn/microhedger/internal/domain"
)

func TestSetTickSize_InvalidArgument(t *testing.T) {
	resetTickSizeForTest()
	defer resetTickSizeForTest()

	if err := SetTickSize(0); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("SetTickSize(0) error = %v, want ErrInvalidArgument", err)
	}
	if err := SetTickSize(-1); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("SetTickSize(-1) error = %v, want ErrInvalidArgument", err)
	}
}

func TestSetTickSize_SecondWriteFails(t *testing.T) {
	resetTickSizeForTest()
	defer resetTickSizeForTest()

	if err := SetTickSize(0.01); err != nil {
		t.Fatalf("first SetTickSize: %v", err)
	}
	if err := SetTickSize(0.02); !errors.Is(err, domain.ErrIllegalState) {
		t.Errorf("second SetTickSize error = %v, want ErrIllegalState", err)
	}
	if got := TickSize(); got != 0.01 {
		t.Errorf("TickSize() = %v, want 0.01 (unchanged by failed re-set)", got)
	}
}

func TestSnap_UnsetTickSizeIsIdentity(t *testing.T) {
	resetTickSizeForTest()
	defer resetTickSizeForTest()

	if got := snap(1.23456); got != 1.23456 {
		t.Errorf("snap() with no tick configured = %v, want identity", got)
	}
}

func TestSnap_RoundsToTickGrid(t *testing.T) {
	resetTickSizeForTest()
	defer resetTickSizeForTest()

	if err := SetTickSize(0.01); err != nil {
		t.Fatalf("SetTickSize: %v", err)
	}
	got := snap(1.004)
	if math.Abs(got-1.00) > MachineEpsilon*10 {
		t.Errorf("snap(1.004) = %v, want ~1.00", got)
	}
	got = snap(1.006)
	if math.Abs(got-1.01) > MachineEpsilon*10 {
		t.Errorf("snap(1.006) = %v, want ~1.01", got)
	}
}
