// asm86lift lifts a historic 8086 assembly source file into an annotated
// pseudo-C transcription exposing the results of a whole-program static
// analysis (write summaries, discovered function entries, and liveness).
package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"
	"github.com/xlab/treeprint"

	"github.com/jamlift/asm86lift/internal/log"
	"github.com/jamlift/asm86lift/internal/pipeline"
	"github.com/jamlift/asm86lift/internal/writeanalysis"
)

const (
	defaultInput  = "input.asm"
	defaultOutput = "output.c"
)

func main() {
	var (
		inputPath  string
		outputPath string
		logLevel   string
	)

	runFunc := func(cmd *cobra.Command, args []string) error {
		log.Init(logLevel)
		_, err := pipeline.RunFile(inputPath, outputPath)
		return err
	}

	rootCmd := &cobra.Command{
		Use:   "asm86lift",
		Short: "Lift 8086 assembly into an annotated pseudo-C transcription",
		RunE:  runFunc,
	}
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&inputPath, "input", defaultInput, "input assembly file")
	rootCmd.PersistentFlags().StringVar(&outputPath, "output", defaultOutput, "output pseudo-C file")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Read input.asm and write output.c (the default action)",
		RunE:  runFunc,
	}

	debugCmd := &cobra.Command{
		Use:   "debug",
		Short: "Print discovered function ownership and per-index analysis state",
		RunE: func(cmd *cobra.Command, args []string) error {
			log.Init("debug")
			return runDebug(inputPath)
		},
	}

	rootCmd.AddCommand(runCmd, debugCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runDebug(inputPath string) error {
	src, err := os.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("read %s: %w", inputPath, err)
	}
	result := pipeline.Run(src)

	tree := treeprint.New()
	tree.SetValue("functions")
	for _, e := range result.FuncDiscovery.SortedEntries() {
		branch := tree.AddBranch(fmt.Sprintf("entry %d (functionReturns=%v)", e, result.Liveness.FunctionReturns(e).Sorted()))
		for _, owned := range result.FuncDiscovery.Owned(e) {
			branch.AddNode(fmt.Sprintf("index %d, labels=%v", owned, result.Program.LabelsAt(owned)))
		}
	}
	fmt.Println(tree.String())

	rl, err := readline.NewEx(&readline.Config{
		Prompt:      "asm86lift> ",
		HistoryFile: "/tmp/asm86lift_debug_history.txt",
	})
	if err != nil {
		return fmt.Errorf("start debug console: %w", err)
	}
	defer rl.Close()

	fmt.Println("Interactive debug console. Type an instruction index to inspect")
	fmt.Println("its live-before set and write summary, 'list' for the function")
	fmt.Println("tree again, or 'exit' to quit.")

	for {
		line, err := rl.Readline()
		if err != nil {
			break
		}
		line = strings.TrimSpace(line)
		switch {
		case line == "":
			continue
		case line == "exit" || line == "quit":
			return nil
		case line == "list":
			fmt.Println(tree.String())
		case line == "help":
			fmt.Println("commands: <index>, list, help, exit")
		default:
			idx, err := strconv.Atoi(line)
			if err != nil || idx < 0 || idx >= result.Program.Len() {
				fmt.Printf("no such instruction index %q\n", line)
				continue
			}
			printInstructionState(result, idx)
		}
	}
	return nil
}

// printInstructionState renders one instruction's already-computed liveness
// and write-summary state, the debug console's per-index inspection view.
func printInstructionState(result *pipeline.Result, idx int) {
	in := result.Program.At(idx)
	fmt.Printf("index %d: %s\n", idx, in.Mnemonic)
	if labels := result.Program.LabelsAt(idx); len(labels) > 0 {
		fmt.Printf("  labels: %v\n", labels)
	}
	fmt.Printf("  live before: %v\n", result.Liveness.LiveBefore(idx).Sorted())
	fmt.Printf("  write summary: %s\n", describeSummary(result.WriteAnalysis.At(idx)))
}

// describeSummary is the debug console's rendering of a write summary,
// mirroring the pseudo-C annotation format without depending on the emit
// package's unexported helpers.
func describeSummary(s *writeanalysis.Summary) string {
	if !s.DoesReturn() {
		return "no return"
	}
	if len(s.Writes) == 0 {
		return "none"
	}
	parts := make([]string, 0, len(s.Writes))
	for reg, v := range s.Writes {
		switch v.Kind {
		case writeanalysis.KindReg:
			parts = append(parts, fmt.Sprintf("%s=%s", reg, v.Reg))
		case writeanalysis.KindStack:
			parts = append(parts, fmt.Sprintf("%s=[sp+%d]", reg, v.StackIdx))
		default:
			parts = append(parts, reg.String())
		}
	}
	return strings.Join(parts, ", ")
}
