package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jamlift/asm86lift/internal/asm"
	"github.com/jamlift/asm86lift/internal/writeanalysis"
)

func TestDescribeSummaryShapes(t *testing.T) {
	t.Run("no return", func(t *testing.T) {
		assert.Equal(t, "no return", describeSummary(writeanalysis.NoReturn()))
	})
	t.Run("register copy", func(t *testing.T) {
		s := &writeanalysis.Summary{
			Writes:    map[asm.Reg]writeanalysis.Value{asm.AX: writeanalysis.RegValue(asm.BX)},
			ReturnsAt: map[int]struct{}{0: {}},
			SP:        writeanalysis.ConcreteSP(0),
		}
		assert.Equal(t, "ax=bx", describeSummary(s))
	})
	t.Run("stack slot", func(t *testing.T) {
		s := &writeanalysis.Summary{
			Writes:    map[asm.Reg]writeanalysis.Value{asm.AX: writeanalysis.StackValue(0, 2)},
			ReturnsAt: map[int]struct{}{0: {}},
			SP:        writeanalysis.ConcreteSP(0),
		}
		assert.Equal(t, "ax=[sp+0]", describeSummary(s))
	})
	t.Run("any clobber", func(t *testing.T) {
		s := &writeanalysis.Summary{
			Writes:    map[asm.Reg]writeanalysis.Value{asm.AX: writeanalysis.AnyValue},
			ReturnsAt: map[int]struct{}{0: {}},
			SP:        writeanalysis.AnySP,
		}
		assert.Equal(t, "ax", describeSummary(s))
	})
}
