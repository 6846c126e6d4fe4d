// alc - the animation language compiler CLI.
//
// Compiles a source file to bytecode and writes it to disk, prints a
// disassembly, or sends it to a running controller as a CBOR envelope.
package main

import (
	"bytes"
	"flag"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/MabaKalox/animation-lang/compiler"
	"github.com/MabaKalox/animation-lang/pkg/bytecode"
	"github.com/MabaKalox/animation-lang/pkg/wire"
)

func main() {
	output := flag.String("o", "", "Write compiled bytecode to this file")
	disasm := flag.Bool("d", false, "Print a disassembly of the compiled program")
	send := flag.String("send", "", "Send the program to a controller (host:port)")
	name := flag.String("name", "", "Program name for the envelope (defaults to the source file name)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: alc [options] <source.anim>\n\n")
		fmt.Fprintf(os.Stderr, "Compiles an animation program to bytecode.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  alc -d rainbow.anim               # Compile and show the bytecode\n")
		fmt.Fprintf(os.Stderr, "  alc -o rainbow.bin rainbow.anim   # Compile to a file\n")
		fmt.Fprintf(os.Stderr, "  alc -send 10.0.0.5:8755 wave.anim # Compile and run on a controller\n")
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	srcPath := flag.Arg(0)

	source, err := os.ReadFile(srcPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	prog, err := compiler.Compile(string(source))
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", srcPath, err)
		os.Exit(1)
	}

	if *disasm {
		fmt.Print(bytecode.Disassemble(prog))
	}

	if *output != "" {
		if err := os.WriteFile(*output, prog.Bytes(), 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Wrote %d bytes to %s\n", prog.Len(), *output)
	}

	if *send != "" {
		progName := *name
		if progName == "" {
			progName = strings.TrimSuffix(filepath.Base(srcPath), filepath.Ext(srcPath))
		}
		if err := sendProgram(*send, progName, prog); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Sent %q (%d bytes) to %s\n", progName, prog.Len(), *send)
	}

	if !*disasm && *output == "" && *send == "" {
		fmt.Printf("%s: OK (%d bytes)\n", srcPath, prog.Len())
	}
}

// sendProgram posts the compiled program to a controller's run endpoint.
func sendProgram(addr, name string, prog bytecode.Program) error {
	payload, err := wire.Marshal(wire.NewEnvelope(name, prog))
	if err != nil {
		return err
	}
	url := fmt.Sprintf("http://%s/v1/program", addr)
	resp, err := http.Post(url, "application/cbor", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("controller replied %s", resp.Status)
	}
	return nil
}
