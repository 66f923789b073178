// Package pipeline wires the lexer, parser, and three analyses together
// into the single batch operation §6 describes, and collects the run
// statistics the CLI reports at Info level.
package pipeline

import (
	"fmt"
	"os"

	"github.com/jamlift/asm86lift/internal/asm"
	"github.com/jamlift/asm86lift/internal/emit"
	"github.com/jamlift/asm86lift/internal/funcdiscovery"
	"github.com/jamlift/asm86lift/internal/ioeffect"
	"github.com/jamlift/asm86lift/internal/lexer"
	"github.com/jamlift/asm86lift/internal/liveness"
	"github.com/jamlift/asm86lift/internal/log"
	"github.com/jamlift/asm86lift/internal/parser"
	"github.com/jamlift/asm86lift/internal/writeanalysis"
)

// Stats summarises one run for the closing log line.
type Stats struct {
	Instructions    int
	DiscoveredEntry int
	UnknownMnemonic int
	GarbageOperand  int
}

// Result is everything a caller (the CLI's run and debug commands) needs
// after a successful run.
type Result struct {
	Program       *asm.Program
	WriteAnalysis *writeanalysis.Result
	FuncDiscovery *funcdiscovery.Result
	Liveness      *liveness.Result
	Output        string
	Stats         Stats
}

// Run reads src, executes constant extraction, the three fixpoint analyses
// and emission, and returns a Result holding the fully annotated pseudo-C
// text (Output) alongside the analysis results it was rendered from.
func Run(src []byte) *Result {
	tokens := lexer.Lex(src)
	prog := parser.Parse(tokens)

	wr := writeanalysis.Run(prog)
	fd := funcdiscovery.Run(prog, wr)
	lv := liveness.Run(prog, wr, fd)

	output := emit.Emit(prog, wr, fd, lv)

	stats := Stats{
		Instructions:    prog.Len(),
		DiscoveredEntry: len(fd.Entries),
		UnknownMnemonic: ioeffect.UnknownMnemonicCount(),
		GarbageOperand:  countGarbage(prog),
	}
	log.Info(log.Pipeline, "run complete",
		"instructions", stats.Instructions,
		"entries", stats.DiscoveredEntry,
		"unknown_mnemonics", stats.UnknownMnemonic,
		"garbage_operands", stats.GarbageOperand,
	)

	return &Result{
		Program:       prog,
		WriteAnalysis: wr,
		FuncDiscovery: fd,
		Liveness:      lv,
		Output:        output,
		Stats:         stats,
	}
}

// RunFile reads inputPath, runs the pipeline, and writes outputPath.
// Fatal I/O errors (§7) are surfaced as a wrapped error, never a panic.
func RunFile(inputPath, outputPath string) (*Result, error) {
	src, err := os.ReadFile(inputPath)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", inputPath, err)
	}

	result := Run(src)

	if err := os.WriteFile(outputPath, []byte(result.Output), 0o644); err != nil {
		return nil, fmt.Errorf("write %s: %w", outputPath, err)
	}
	return result, nil
}

func countGarbage(prog *asm.Program) int {
	n := 0
	for i := range prog.Instructions {
		in := &prog.Instructions[i]
		for _, o := range in.Operands {
			if o.Kind == asm.OperandGarbage {
				n++
			}
		}
	}
	return n
}
