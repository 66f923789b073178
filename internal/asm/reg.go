package asm

import "strings"

// Reg identifies one of the machine's named registers or one of the two
// synthetic flag-grouping pseudo-registers, or one of their sub-fields.
type Reg int

const (
	RegNone Reg = iota

	AL
	CL
	DL
	BL
	AH
	CH
	DH
	BH

	AX
	CX
	DX
	BX
	SP
	BP
	SI
	DI

	HFlags
	Flags

	SF
	ZF
	AF
	PF
	CF
	OF
	DF
	IFFlag
	TF

	numRegs
)

var regNames = [numRegs]string{
	RegNone: "",
	AL:      "al", CL: "cl", DL: "dl", BL: "bl",
	AH: "ah", CH: "ch", DH: "dh", BH: "bh",
	AX: "ax", CX: "cx", DX: "dx", BX: "bx",
	SP: "sp", BP: "bp", SI: "si", DI: "di",
	HFlags: "hflags", Flags: "flags",
	SF: "sf", ZF: "zf", AF: "af", PF: "pf", CF: "cf", OF: "of", DF: "df", IFFlag: "if", TF: "tf",
}

var regByName map[string]Reg

func init() {
	regByName = make(map[string]Reg, numRegs)
	for r, name := range regNames {
		if name != "" {
			regByName[name] = Reg(r)
		}
	}
}

// String returns the register's canonical lowercase name.
func (r Reg) String() string {
	if r <= RegNone || r >= numRegs {
		return "?"
	}
	return regNames[r]
}

// LookupReg resolves an identifier (case-insensitive) to a register, if it
// names one. GPRs, the pointer/index registers and the two flag
// pseudo-registers and their bits are all recognised.
func LookupReg(ident string) (Reg, bool) {
	r, ok := regByName[strings.ToLower(ident)]
	return r, ok
}

// gprCoverings names the four covering GPR pairs (§3, §4.1): the
// only registers for which a whole 16-bit register is *exactly* the union
// of two named parts. Flags/hflags decompose into bits too, but are never
// treated as "coverings" for the purposes of liveness closure.
var gprCoverings = map[Reg][2]Reg{
	AX: {AH, AL},
	BX: {BH, BL},
	CX: {CH, CL},
	DX: {DH, DL},
}

// flagBits lists the condition-code sub-fields both flags pseudo-registers
// decompose into.
var flagBits = []Reg{SF, ZF, AF, PF, CF, OF, DF, IFFlag, TF}

// subRegisters gives the immediate sub-fields of a register, empty if the
// register has none.
var subRegisters map[Reg][]Reg

func init() {
	subRegisters = make(map[Reg][]Reg, numRegs)
	for whole, parts := range gprCoverings {
		subRegisters[whole] = []Reg{parts[0], parts[1]}
	}
	subRegisters[Flags] = append([]Reg{}, flagBits...)
	subRegisters[HFlags] = append([]Reg{}, flagBits...)
}

// superRegisters is the reverse of subRegisters, derived once at startup as
// §3 specifies: "Super-register reverse-lookup is derived from the
// sub-register map at startup."
var superRegisters map[Reg][]Reg

func init() {
	superRegisters = make(map[Reg][]Reg, numRegs)
	for whole, parts := range subRegisters {
		for _, p := range parts {
			superRegisters[p] = append(superRegisters[p], whole)
		}
	}
}

// SubRegisters returns the immediate sub-fields of r, or nil if r has none.
func SubRegisters(r Reg) []Reg { return subRegisters[r] }

// SuperRegisters returns every register of which r is a named part.
func SuperRegisters(r Reg) []Reg { return superRegisters[r] }

// Covering reports whether whole is a GPR whose declared parts (hi, lo)
// exactly union to it — the four GPR pairs, per §3/§4.1.
func Covering(whole Reg) (hi, lo Reg, ok bool) {
	parts, ok := gprCoverings[whole]
	if !ok {
		return RegNone, RegNone, false
	}
	return parts[0], parts[1], true
}

// CoveringOf reports the GPR (if any) for which part is one of the two
// declared halves.
func CoveringOf(part Reg) (whole Reg, other Reg, ok bool) {
	for whole, parts := range gprCoverings {
		if parts[0] == part {
			return whole, parts[1], true
		}
		if parts[1] == part {
			return whole, parts[0], true
		}
	}
	return RegNone, RegNone, false
}
