package parser

import "github.com/jamlift/asm86lift/internal/asm"

// extractConstants hoists "NAME EQU value" pairs out of the raw line
// stream (§4.6). What remains becomes the instruction stream at its final
// indices; index-to-label side tables are built over those final indices,
// so all other label/instruction ordering is preserved exactly.
func extractConstants(lines []rawLine) ([]asm.Instruction, []asm.Constant, map[int][]string) {
	var instructions []asm.Instruction
	var constants []asm.Constant
	indexLabels := map[int][]string{}

	for _, line := range lines {
		if line.isDirect && line.in != nil && line.in.Mnemonic == "equ" && len(line.labels) == 1 {
			name := line.labels[0]
			instrComment := concatComments(line.in.LeadingComments, line.in.TrailingComment)
			comment := joinNonEmpty(line.labelComment, instrComment)
			constants = append(constants, asm.Constant{
				Name:    name,
				Value:   line.in.Op(0),
				Comment: comment,
			})
			continue
		}

		if line.in == nil {
			// Bare label line with no attached instruction: attach to the
			// next surviving instruction index.
			indexLabels[len(instructions)] = append(indexLabels[len(instructions)], line.labels...)
			continue
		}

		idx := len(instructions)
		if len(line.labels) > 0 {
			indexLabels[idx] = append(indexLabels[idx], line.labels...)
		}
		in := *line.in
		in.Index = idx
		instructions = append(instructions, in)
	}

	return instructions, constants, indexLabels
}

func joinNonEmpty(parts ...string) string {
	out := ""
	for _, p := range parts {
		if p == "" {
			continue
		}
		if out != "" {
			out += " "
		}
		out += p
	}
	return out
}

func concatComments(leading []string, trailing string) string {
	out := ""
	for _, c := range leading {
		if out != "" {
			out += " "
		}
		out += c
	}
	if trailing != "" {
		if out != "" {
			out += " "
		}
		out += trailing
	}
	return out
}
