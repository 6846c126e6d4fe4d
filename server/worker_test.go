package server

import (
	"io"
	"testing"
	"time"

	"github.com/MabaKalox/animation-lang/pkg/bytecode"
)

// blitForever is the tightest possible animation: BLIT; JMP 0.
var blitForever = bytecode.FromBytes([]byte{0xE4, 0x40, 0x00, 0x00})

func newTestWorker(t *testing.T, renderer Renderer) *Worker {
	t.Helper()
	if renderer == nil {
		renderer = RendererFunc(func(bytecode.Frame) error { return nil })
	}
	w := NewWorker(4, 1000, bytecode.Options{DumpWriter: io.Discard}, renderer)
	t.Cleanup(w.Stop)
	return w
}

// waitFor polls the worker status until cond holds or the deadline passes.
func waitFor(t *testing.T, w *Worker, cond func(WorkerStatus) bool) WorkerStatus {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for {
		st := w.Status()
		if cond(st) {
			return st
		}
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting, last status %+v", st)
		}
		time.Sleep(time.Millisecond)
	}
}

func TestWorkerIdleUntilSwap(t *testing.T) {
	w := newTestWorker(t, nil)
	st := w.Status()
	if st.State != "idle" || st.Program != "" || st.Frames != 0 {
		t.Errorf("status = %+v, want idle", st)
	}
}

func TestWorkerRendersFrames(t *testing.T) {
	got := make(chan bytecode.Frame, 16)
	w := newTestWorker(t, RendererFunc(func(f bytecode.Frame) error {
		select {
		case got <- f:
		default:
		}
		return nil
	}))

	w.Swap("steady", blitForever)
	st := waitFor(t, w, func(st WorkerStatus) bool { return st.Frames >= 3 })
	if st.Program != "steady" || st.State != "running" {
		t.Errorf("status = %+v", st)
	}
	digest := blitForever.Digest()
	if len(st.Digest) != len(digest)*2 {
		t.Errorf("digest = %q", st.Digest)
	}

	select {
	case frame := <-got:
		if len(frame) != 4 {
			t.Errorf("frame length = %d, want 4", len(frame))
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no frame delivered")
	}
}

func TestWorkerRestartsHaltedProgram(t *testing.T) {
	w := newTestWorker(t, nil)
	// A single BLIT: the program halts after one frame and gets restarted,
	// so the frame count keeps growing.
	w.Swap("oneshot", bytecode.FromBytes([]byte{0xE4}))
	waitFor(t, w, func(st WorkerStatus) bool { return st.Frames >= 3 })
}

func TestWorkerFault(t *testing.T) {
	w := newTestWorker(t, nil)
	// POP 1 on an empty stack faults immediately.
	w.Swap("broken", bytecode.FromBytes([]byte{0x01}))
	st := waitFor(t, w, func(st WorkerStatus) bool { return st.State == "faulted" })
	if st.Frames != 0 {
		t.Errorf("frames = %d, want 0", st.Frames)
	}
}

func TestWorkerSwapResetsCounters(t *testing.T) {
	w := newTestWorker(t, nil)
	w.Swap("first", blitForever)
	waitFor(t, w, func(st WorkerStatus) bool { return st.Frames >= 2 })

	w.Swap("second", blitForever)
	st := w.Status()
	if st.Program != "second" {
		t.Errorf("program = %q, want %q", st.Program, "second")
	}
	if st.Frames > 2 {
		t.Errorf("frames = %d, want reset near zero", st.Frames)
	}
}

func TestWorkerStopUnblocksCallers(t *testing.T) {
	w := NewWorker(4, 1000, bytecode.Options{DumpWriter: io.Discard},
		RendererFunc(func(bytecode.Frame) error { return nil }))
	w.Stop()
	// Both must return instead of hanging on a dead goroutine.
	w.Swap("late", blitForever)
	if st := w.Status(); st.State != "stopped" {
		t.Errorf("status after stop = %+v", st)
	}
}
