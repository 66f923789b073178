// Package ioeffect centralises the platform knowledge every analysis in
// this tree needs: a pure function from an instruction to the (uses,
// defines) register sets it reads and writes (§4.2). The table here is
// normative — every one of the flag effects it encodes is load-bearing for
// the write and liveness fixpoints downstream.
package ioeffect

import (
	"github.com/jamlift/asm86lift/internal/asm"
	"github.com/jamlift/asm86lift/internal/log"
)

var byteRegisters = asm.NewRegSet(asm.AL, asm.CL, asm.DL, asm.BL, asm.AH, asm.CH, asm.DH, asm.BH)

func isByteRegister(o asm.Operand) bool {
	return o.Kind == asm.OperandRegister && byteRegisters.Has(o.Reg)
}

func regOf(o asm.Operand) (asm.Reg, bool) {
	if o.Kind == asm.OperandRegister {
		return o.Reg, true
	}
	return asm.RegNone, false
}

// registersIn collects every register an operand reads to produce its
// value: itself if it is a bare register, or the base/index registers an
// effective-address computation reads if it is a memory operand (§3's
// MemShape classification when present, falling back to a walk of the raw
// address expression for operands the structured post-pass never
// classified). Used wherever an operand is read, including a memory
// destination's address computation.
func registersIn(o asm.Operand) asm.RegSet {
	out := asm.RegSet{}
	collectRegisters(o, out)
	return out
}

// destUses is registersIn restricted to the address-computation case: a
// plain register destination is written, not read, so it contributes
// nothing here, while a memory destination's base/index registers are read
// to compute where to write.
func destUses(o asm.Operand) asm.RegSet {
	if o.Kind != asm.OperandMemory {
		return asm.RegSet{}
	}
	return registersIn(o)
}

func collectRegisters(o asm.Operand, out asm.RegSet) {
	switch o.Kind {
	case asm.OperandRegister:
		out.Add(o.Reg)
	case asm.OperandMemory:
		if o.Mem != nil {
			if o.Mem.Base != nil {
				out.Add(*o.Mem.Base)
			}
			if o.Mem.Index != nil {
				out.Add(*o.Mem.Index)
			}
			if o.Mem.Disp != nil {
				collectRegisters(*o.Mem.Disp, out)
			}
			return
		}
		if o.Inner != nil {
			collectRegisters(*o.Inner, out)
		}
	case asm.OperandBinary:
		if o.Left != nil {
			collectRegisters(*o.Left, out)
		}
		if o.Right != nil {
			collectRegisters(*o.Right, out)
		}
	case asm.OperandUnary:
		if o.Inner != nil {
			collectRegisters(*o.Inner, out)
		}
	}
}

// warnedMnemonics dedupes the "unknown mnemonic" diagnostic (§7: "log
// once").
var warnedMnemonics = map[string]bool{}

// UnknownMnemonicCount reports how many distinct mnemonics have fallen
// through to the empty-IO default so far, for the pipeline's closing stats
// line.
func UnknownMnemonicCount() int { return len(warnedMnemonics) }

// IO returns the (uses, defines) register sets an instruction's execution
// reads from and writes to, per the table in §4.2. It never mutates its
// argument.
func IO(in *asm.Instruction) (uses, defines asm.RegSet) {
	uses, defines = asm.RegSet{}, asm.RegSet{}

	switch in.Mnemonic {
	case "mov":
		return movIO(in)
	case "add", "sub", "and", "or", "xor", "adc", "sbb":
		return arithmeticLogic(in)
	case "cmp", "test":
		return comparisons(in)
	case "not":
		op := in.Op(0)
		uses.AddAll(registersIn(op))
		if r, ok := regOf(op); ok {
			defines.Add(r)
		}
		return uses, defines
	case "neg":
		op := in.Op(0)
		uses.AddAll(registersIn(op))
		if r, ok := regOf(op); ok {
			defines.Add(r)
		}
		defines.Add(asm.Flags)
		return uses, defines
	case "inc", "dec":
		op := in.Op(0)
		uses.AddAll(registersIn(op))
		if r, ok := regOf(op); ok {
			defines.Add(r)
		}
		defines.AddAll(asm.NewRegSet(asm.OF, asm.SF, asm.ZF, asm.AF, asm.PF))
		return uses, defines
	case "mul", "div":
		return mulDiv(in)
	case "aam":
		uses.Add(asm.AL)
		defines.AddAll(asm.NewRegSet(asm.AL, asm.AH, asm.Flags))
		return uses, defines
	case "lahf":
		uses.AddAll(asm.NewRegSet(asm.SF, asm.ZF, asm.AF, asm.PF, asm.CF))
		defines.Add(asm.AH)
		return uses, defines
	case "sahf":
		uses.Add(asm.AH)
		defines.AddAll(asm.NewRegSet(asm.SF, asm.ZF, asm.AF, asm.PF, asm.CF))
		return uses, defines
	case "lodb":
		uses.Add(asm.SI)
		defines.Add(asm.AL)
		return uses, defines
	case "lodw":
		uses.Add(asm.SI)
		defines.Add(asm.AX)
		return uses, defines
	case "stob":
		uses.AddAll(asm.NewRegSet(asm.AL, asm.DI))
		return uses, defines
	case "stow":
		uses.AddAll(asm.NewRegSet(asm.AX, asm.DI))
		return uses, defines
	case "movb", "movw":
		uses.AddAll(asm.NewRegSet(asm.SI, asm.DI))
		return uses, defines
	case "cmpb":
		uses.AddAll(asm.NewRegSet(asm.SI, asm.DI))
		defines.Add(asm.Flags)
		return uses, defines
	case "scab":
		uses.AddAll(asm.NewRegSet(asm.AL, asm.DI))
		defines.Add(asm.Flags)
		return uses, defines
	case "rcl", "rcr":
		op := in.Op(0)
		uses.AddAll(registersIn(op))
		if r, ok := regOf(op); ok {
			defines.Add(r)
		}
		uses.Add(asm.CF)
		defines.AddAll(asm.NewRegSet(asm.CF, asm.OF))
		return uses, defines
	case "rol", "ror":
		op := in.Op(0)
		uses.AddAll(registersIn(op))
		if r, ok := regOf(op); ok {
			defines.Add(r)
		}
		defines.AddAll(asm.NewRegSet(asm.CF, asm.OF))
		return uses, defines
	case "shl", "shr":
		op := in.Op(0)
		uses.AddAll(registersIn(op))
		if r, ok := regOf(op); ok {
			defines.Add(r)
		}
		uses.AddAll(registersIn(in.Op(1)))
		defines.Add(asm.Flags)
		return uses, defines
	case "push":
		uses.Add(asm.SP)
		uses.AddAll(registersIn(in.Op(0)))
		defines.Add(asm.SP)
		return uses, defines
	case "pop":
		uses.Add(asm.SP)
		defines.Add(asm.SP)
		op := in.Op(0)
		uses.AddAll(destUses(op))
		if r, ok := regOf(op); ok {
			defines.Add(r)
		}
		return uses, defines
	case "ret":
		uses.Add(asm.SP)
		defines.Add(asm.SP)
		return uses, defines
	case "jmp", "call", "int":
		// Control handled specially by function discovery / write analysis;
		// no register IO reported here.
		return uses, defines
	case "db", "dw", "ds", "dm", "equ", "org", "align", "put":
		return uses, defines
	}

	if flags, ok := condJumpFlags[in.Mnemonic]; ok {
		uses.AddAll(flags)
		return uses, defines
	}
	if in.Mnemonic == "jcxz" {
		uses.Add(asm.CX)
		return uses, defines
	}

	if !warnedMnemonics[in.Mnemonic] {
		warnedMnemonics[in.Mnemonic] = true
		log.Warn(log.WriteAnalysis, "unknown mnemonic, treating as empty IO", "mnemonic", in.Mnemonic, "index", in.Index)
	}
	return uses, defines
}

// movIO reports mov's (uses,defines): read the source operand's register (if
// any), write the destination's. Not part of the mnemonic table in §4.2's
// prose, but both write analysis and liveness need it for the generic
// fallback path, so it is treated the same way as any other data-touching
// mnemonic here.
func movIO(in *asm.Instruction) (uses, defines asm.RegSet) {
	uses, defines = asm.RegSet{}, asm.RegSet{}
	dst, src := in.Op(0), in.Op(1)
	if in.Kind == asm.KindDataMove {
		if in.Dst != nil {
			dst = *in.Dst
		}
		if in.Src != nil {
			src = *in.Src
		}
	}
	uses.AddAll(destUses(dst))
	uses.AddAll(registersIn(src))
	if r, ok := regOf(dst); ok {
		defines.Add(r)
	}
	return uses, defines
}

// arithmeticLogic implements add/sub/and/or/xor/adc/sbb, including the
// `and a,a`/`or a,a` and `xor r,r` special cases.
func arithmeticLogic(in *asm.Instruction) (uses, defines asm.RegSet) {
	uses, defines = asm.RegSet{}, asm.RegSet{}
	dst, src := in.Op(0), in.Op(1)

	sameRegister := dst.Kind == asm.OperandRegister && src.Kind == asm.OperandRegister && dst.Reg == src.Reg

	switch {
	case (in.Mnemonic == "and" || in.Mnemonic == "or") && sameRegister:
		uses.Add(dst.Reg)
		defines.Add(asm.Flags)
		return uses, defines
	case in.Mnemonic == "xor" && sameRegister:
		defines.Add(dst.Reg)
		defines.Add(asm.Flags)
		return uses, defines
	}

	uses.AddAll(registersIn(dst))
	uses.AddAll(registersIn(src))
	if r, ok := regOf(dst); ok {
		defines.Add(r)
	}
	if in.Mnemonic == "adc" || in.Mnemonic == "sbb" {
		uses.Add(asm.CF)
	}
	defines.Add(asm.Flags)
	return uses, defines
}

func comparisons(in *asm.Instruction) (uses, defines asm.RegSet) {
	uses, defines = asm.RegSet{}, asm.RegSet{}
	uses.AddAll(registersIn(in.Op(0)))
	uses.AddAll(registersIn(in.Op(1)))
	defines.Add(asm.Flags)
	return uses, defines
}

func mulDiv(in *asm.Instruction) (uses, defines asm.RegSet) {
	uses, defines = asm.RegSet{}, asm.RegSet{}
	operand := in.Op(0)
	wide := !isByteRegister(operand) // memory or 16-bit register operand: assume word-sized

	uses.AddAll(registersIn(operand))

	if in.Mnemonic == "mul" {
		if wide {
			uses.Add(asm.AX)
			defines.AddAll(asm.NewRegSet(asm.AX, asm.DX))
		} else {
			uses.Add(asm.AL)
			defines.Add(asm.AX)
		}
	} else { // div
		if wide {
			uses.AddAll(asm.NewRegSet(asm.DX, asm.AX))
			defines.AddAll(asm.NewRegSet(asm.AX, asm.DX))
		} else {
			uses.Add(asm.AX)
			defines.AddAll(asm.NewRegSet(asm.AL, asm.AH))
		}
	}
	defines.Add(asm.Flags)
	return uses, defines
}

// condJumpFlags gives the exact flag bits each conditional jump's condition
// tests (§4.2). jcxz is handled separately since it tests cx, not flags.
var condJumpFlags = map[string]asm.RegSet{
	"jz":  asm.NewRegSet(asm.ZF),
	"je":  asm.NewRegSet(asm.ZF),
	"jnz": asm.NewRegSet(asm.ZF),
	"jne": asm.NewRegSet(asm.ZF),

	"js":  asm.NewRegSet(asm.SF),
	"jns": asm.NewRegSet(asm.SF),

	"jo":  asm.NewRegSet(asm.OF),
	"jno": asm.NewRegSet(asm.OF),

	"jp":   asm.NewRegSet(asm.PF),
	"jpe":  asm.NewRegSet(asm.PF),
	"jnp":  asm.NewRegSet(asm.PF),
	"jpo":  asm.NewRegSet(asm.PF),

	"jc":   asm.NewRegSet(asm.CF),
	"jb":   asm.NewRegSet(asm.CF),
	"jnae": asm.NewRegSet(asm.CF),
	"jnc":  asm.NewRegSet(asm.CF),
	"jnb":  asm.NewRegSet(asm.CF),
	"jae":  asm.NewRegSet(asm.CF),

	"jbe": asm.NewRegSet(asm.CF, asm.ZF),
	"jna": asm.NewRegSet(asm.CF, asm.ZF),
	"ja":   asm.NewRegSet(asm.CF, asm.ZF),
	"jnbe": asm.NewRegSet(asm.CF, asm.ZF),

	"jl":   asm.NewRegSet(asm.SF, asm.OF),
	"jnge": asm.NewRegSet(asm.SF, asm.OF),
	"jge":  asm.NewRegSet(asm.SF, asm.OF),
	"jnl":  asm.NewRegSet(asm.SF, asm.OF),

	"jle":  asm.NewRegSet(asm.SF, asm.OF, asm.ZF),
	"jng":  asm.NewRegSet(asm.SF, asm.OF, asm.ZF),
	"jg":   asm.NewRegSet(asm.SF, asm.OF, asm.ZF),
	"jnle": asm.NewRegSet(asm.SF, asm.OF, asm.ZF),
}

// IsUnconditionalControl reports whether the mnemonic is jmp/call/int,
// which report empty IO here because control transfer is modelled by the
// write, function-discovery and liveness passes directly rather than
// through register def/use.
func IsUnconditionalControl(mnemonic string) bool {
	switch mnemonic {
	case "jmp", "call", "int":
		return true
	}
	return false
}

// IsConditionalJump reports whether mnemonic is a recognised conditional
// jump (including jcxz).
func IsConditionalJump(mnemonic string) bool {
	if mnemonic == "jcxz" {
		return true
	}
	_, ok := condJumpFlags[mnemonic]
	return ok
}
