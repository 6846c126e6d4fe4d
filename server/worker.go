package server

import (
	"encoding/hex"
	"time"

	"github.com/tliron/commonlog"

	"github.com/MabaKalox/animation-lang/pkg/bytecode"
)

// Renderer consumes frames as the worker produces them.
type Renderer interface {
	Render(frame bytecode.Frame) error
}

// RendererFunc adapts a function to the Renderer interface.
type RendererFunc func(frame bytecode.Frame) error

func (f RendererFunc) Render(frame bytecode.Frame) error { return f(frame) }

// swapRequest carries a new program into the worker goroutine.
type swapRequest struct {
	name string
	prog bytecode.Program
	done chan struct{}
}

// WorkerStatus is a snapshot of the worker for the status endpoint.
type WorkerStatus struct {
	Program string `json:"program"`
	Digest  string `json:"digest,omitempty"`
	State   string `json:"state"`
	Frames  uint64 `json:"frames"`
}

// Worker drives one strip: it owns the VM for the active program,
// pulls a frame per tick and hands it to the renderer. All VM access
// happens on the worker goroutine; Swap and Status communicate with it
// through channels.
type Worker struct {
	stripLen int
	period   time.Duration
	vmOpts   bytecode.Options
	renderer Renderer
	log      commonlog.Logger

	swaps  chan swapRequest
	status chan chan WorkerStatus
	quit   chan struct{}
	done   chan struct{}
}

// NewWorker creates a worker rendering at fps to the given renderer and
// starts its goroutine. No program runs until the first Swap.
func NewWorker(stripLen int, fps uint32, vmOpts bytecode.Options, renderer Renderer) *Worker {
	w := &Worker{
		stripLen: stripLen,
		period:   time.Second / time.Duration(fps),
		vmOpts:   vmOpts,
		renderer: renderer,
		log:      commonlog.GetLogger("worker"),
		swaps:    make(chan swapRequest),
		status:   make(chan chan WorkerStatus),
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	go w.loop()
	return w
}

// Swap replaces the running program. The old VM is discarded; the new
// program starts from a fresh machine and a black strip. Swap returns
// once the worker has taken the program.
func (w *Worker) Swap(name string, prog bytecode.Program) {
	req := swapRequest{name: name, prog: prog, done: make(chan struct{})}
	select {
	case w.swaps <- req:
		<-req.done
	case <-w.quit:
	}
}

// Status reports what the worker is doing.
func (w *Worker) Status() WorkerStatus {
	reply := make(chan WorkerStatus, 1)
	select {
	case w.status <- reply:
		return <-reply
	case <-w.quit:
		return WorkerStatus{State: "stopped"}
	}
}

// Stop shuts the worker down and waits for its goroutine to exit.
func (w *Worker) Stop() {
	close(w.quit)
	<-w.done
}

func (w *Worker) loop() {
	defer close(w.done)

	ticker := time.NewTicker(w.period)
	defer ticker.Stop()

	var (
		vm      *bytecode.VM
		name    string
		digest  string
		prog    bytecode.Program
		state   = "idle"
		frames  uint64
		haveVM  bool
	)

	newVM := func() {
		m, err := bytecode.New(prog, w.stripLen, w.vmOpts)
		if err != nil {
			w.log.Errorf("cannot start program %q: %s", name, err.Error())
			state = "idle"
			haveVM = false
			return
		}
		vm = m
		haveVM = true
		state = "running"
	}

	for {
		select {
		case req := <-w.swaps:
			name = req.name
			prog = req.prog
			d := prog.Digest()
			digest = hex.EncodeToString(d[:])
			frames = 0
			newVM()
			w.log.Infof("program %q loaded (%d bytes)", name, prog.Len())
			close(req.done)

		case reply := <-w.status:
			reply <- WorkerStatus{Program: name, Digest: digest, State: state, Frames: frames}

		case <-ticker.C:
			if !haveVM {
				continue
			}
			frame, err := vm.Next()
			switch {
			case err != nil:
				w.log.Errorf("program %q faulted: %s", name, err.Error())
				state = "faulted"
				haveVM = false
			case frame == nil:
				// The program halted; restart it so finite animations
				// repeat.
				newVM()
			default:
				frames++
				if err := w.renderer.Render(frame); err != nil {
					w.log.Errorf("render failed: %s", err.Error())
				}
			}

		case <-w.quit:
			return
		}
	}
}
