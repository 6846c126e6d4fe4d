// Package bytecode defines the compact instruction format for LED strip
// animation programs and the virtual machine that executes them.
//
// Every instruction starts with a single byte whose high nibble selects
// the operation family and whose low nibble carries an immediate argument.
// This keeps straight-line pixel code close to one byte per operation:
//
//   - POP/PEEK carry a count or offset in the immediate
//   - PUSHB/PUSHI carry a literal count, with the literal bytes following
//     (PUSHI words are big-endian)
//   - JMP/JZ/JNZ are followed by a big-endian 16-bit absolute address,
//     which caps programs at 65,536 bytes
//   - UNARY/BINARY/USER/SPECIAL carry an operation selector
//
// Execution is pull-driven. The VM runs until the program executes BLIT,
// then suspends and hands the caller a snapshot of the strip; the next
// call to Next resumes after the BLIT. A program that runs off the end
// halts; runtime errors (underflow, division by zero, out-of-range pixel
// writes, unknown opcodes) are terminal faults.
//
// The Assembler builds programs from the compiler or by hand, batching
// adjacent literals and resolving forward jumps.
package bytecode
