// alvm - the animation VM controller.
//
// Runs compiled or source animation programs against a simulated LED
// strip rendered in the terminal, either directly from a file or as a
// long-running controller accepting uploads over HTTP.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"github.com/MabaKalox/animation-lang/compiler"
	"github.com/MabaKalox/animation-lang/config"
	"github.com/MabaKalox/animation-lang/pkg/bytecode"
	"github.com/MabaKalox/animation-lang/server"
)

func main() {
	configPath := flag.String("config", "", "Path to animation-lang.toml")
	listen := flag.String("listen", "", "Listen address override (host:port)")
	length := flag.Uint("length", 0, "Strip length override")
	fps := flag.Uint("fps", 0, "Frame rate override")
	frames := flag.Uint64("frames", 0, "Stop after this many frames (0 = run until halt)")
	seed := flag.Int64("seed", 0, "Seed the random source for reproducible runs (0 = system entropy)")
	serve := flag.Bool("serve", false, "Start the controller HTTP server")
	verbosity := flag.Int("verbose", 0, "Log verbosity (higher is chattier)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: alvm [options] [program]\n\n")
		fmt.Fprintf(os.Stderr, "Runs animation programs on a terminal-simulated LED strip.\n")
		fmt.Fprintf(os.Stderr, "A .anim argument is compiled first; anything else is loaded as raw bytecode.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  alvm rainbow.anim                  # Compile and run locally\n")
		fmt.Fprintf(os.Stderr, "  alvm -frames 100 -seed 7 wave.anim # Reproducible bounded run\n")
		fmt.Fprintf(os.Stderr, "  alvm -serve -config strip.toml     # Controller accepting uploads\n")
	}
	flag.Parse()

	commonlog.Configure(*verbosity, nil)

	cfg := config.Default()
	if *configPath != "" {
		c, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		cfg = c
	}
	if *listen != "" {
		cfg.Server.Listen = *listen
	}
	if *length > 0 {
		cfg.Strip.Length = uint32(*length)
	}
	if *fps > 0 {
		cfg.Strip.FPS = uint32(*fps)
	}

	vmOpts := bytecode.Options{
		MaxInstructions: cfg.Limits.MaxInstructions,
		MaxPerFrame:     cfg.Limits.MaxPerFrame,
	}
	if *seed != 0 {
		vmOpts.Rand = bytecode.SeededRandom(*seed)
	}

	switch {
	case *serve:
		runServer(cfg, vmOpts, flag.Args())
	case flag.NArg() == 1:
		runLocal(cfg, vmOpts, flag.Arg(0), *frames)
	default:
		flag.Usage()
		os.Exit(2)
	}
}

// loadProgram reads a program from disk, compiling .anim sources and
// treating everything else as raw bytecode.
func loadProgram(path string) (bytecode.Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return bytecode.Program{}, err
	}
	if strings.EqualFold(filepath.Ext(path), ".anim") {
		return compiler.Compile(string(data))
	}
	return bytecode.FromBytes(data), nil
}

// runLocal drives a single program straight to the terminal.
func runLocal(cfg *config.Config, vmOpts bytecode.Options, path string, maxFrames uint64) {
	prog, err := loadProgram(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
		os.Exit(1)
	}

	vm, err := bytecode.New(prog, int(cfg.Strip.Length), vmOpts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	renderer := newTerminalRenderer()
	defer renderer.Close()

	period := time.Second / time.Duration(cfg.Strip.FPS)
	var rendered uint64
	for maxFrames == 0 || rendered < maxFrames {
		frame, err := vm.Next()
		if err != nil {
			renderer.Close()
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if frame == nil {
			return // program halted
		}
		if err := renderer.Render(frame); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		rendered++
		time.Sleep(period)
	}
}

// runServer starts the worker and HTTP front end; an optional program
// argument seeds the strip before the first upload.
func runServer(cfg *config.Config, vmOpts bytecode.Options, args []string) {
	renderer := newTerminalRenderer()
	defer renderer.Close()

	worker := server.NewWorker(int(cfg.Strip.Length), cfg.Strip.FPS, vmOpts, renderer)
	defer worker.Stop()

	var store *server.Store
	if cfg.Store.Path != "" {
		st, err := server.OpenStore(cfg.Store.Path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer st.Close()
		store = st
	}

	if len(args) == 1 {
		prog, err := loadProgram(args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", args[0], err)
			os.Exit(1)
		}
		name := strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
		worker.Swap(name, prog)
	}

	srv := server.New(worker, store)
	if err := srv.ListenAndServe(cfg.Server.Listen); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
