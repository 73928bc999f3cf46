package rgbd

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestLatchCompleteRequiresBothModalities(t *testing.T) {
	l := NewCalibrationLatch()
	if l.Complete() {
		t.Fatal("empty latch reports complete")
	}

	l.Record(ModalityColor, Intrinsics{Fx: 520, Fy: 521, Cx: 320, Cy: 240, Width: 640, Height: 480})
	if l.Complete() {
		t.Fatal("latch complete with only color recorded")
	}

	l.Record(ModalityDepth, Intrinsics{Fx: 570, Fy: 571, Cx: 314, Cy: 235, Width: 640, Height: 480})
	if !l.Complete() {
		t.Fatal("latch not complete with both recorded")
	}

	in, ok := l.Get(ModalityDepth)
	if !ok || in.Fx != 570 {
		t.Fatalf("Get(depth) = %+v, %v", in, ok)
	}
}

func TestLatchLastWriteWins(t *testing.T) {
	l := NewCalibrationLatch()
	l.Record(ModalityColor, Intrinsics{Fx: 1})
	l.Record(ModalityDepth, Intrinsics{Fx: 2})
	l.Record(ModalityColor, Intrinsics{Fx: 3})

	in, ok := l.Get(ModalityColor)
	if !ok || in.Fx != 3 {
		t.Fatalf("Get(color) = %+v after overwrite, want Fx=3", in)
	}
	// received never reverts
	if !l.Complete() {
		t.Fatal("latch lost completeness after overwrite")
	}
}

func TestLatchWaitCancellation(t *testing.T) {
	l := NewCalibrationLatch()
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := l.Wait(ctx, nil)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Wait on empty latch: got %v, want deadline exceeded", err)
	}
}

func TestLatchWaitRunsTickHook(t *testing.T) {
	l := NewCalibrationLatch()
	ticks := 0
	// The hook stands in for a transport service function: the first
	// tick delivers both camera info messages.
	tick := func() {
		ticks++
		l.Record(ModalityColor, Intrinsics{Fx: 1})
		l.Record(ModalityDepth, Intrinsics{Fx: 2})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := l.Wait(ctx, tick); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if ticks != 1 {
		t.Fatalf("tick hook ran %d times, want 1 (completeness checked after each tick)", ticks)
	}
}

func TestLatchWaitReturnsOnceComplete(t *testing.T) {
	l := NewCalibrationLatch()
	go func() {
		l.Record(ModalityColor, Intrinsics{Fx: 1})
		l.Record(ModalityDepth, Intrinsics{Fx: 2})
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := l.Wait(ctx, nil); err != nil {
		t.Fatalf("Wait: %v", err)
	}
}
