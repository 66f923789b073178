// Package parser turns a lexer.Token stream into an asm.Program: label and
// instruction line recognition, a left-associative operand expression
// grammar, a structured-instruction post-pass, and constant extraction
// (§4.6, "NAME EQU value" hoisting).
package parser

import (
	"strconv"
	"strings"

	"github.com/jamlift/asm86lift/internal/asm"
	"github.com/jamlift/asm86lift/internal/lexer"
	"github.com/jamlift/asm86lift/internal/log"
)

// rawLine is either a bare label, a label with a storage directive, or an
// instruction, before constant extraction and structured recognition run.
type rawLine struct {
	labels       []string
	labelComment string // comments attached to the label token itself, colonless label+directive lines only
	isDirect     bool   // label immediately followed by EQU|DB|DW|DS|DM
	in           *asm.Instruction
}

// Parse builds a Program from a token stream: line recognition, constant
// extraction, then the structured-instruction post-pass.
func Parse(tokens []lexer.Token) *asm.Program {
	p := &parser{toks: tokens}
	lines := p.parseLines()
	instructions, constants, indexLabels := extractConstants(lines)

	prog := &asm.Program{
		Instructions: instructions,
		Constants:    constants,
		IndexLabels:  indexLabels,
		LabelIndex:   map[string]int{},
	}
	for idx, names := range indexLabels {
		for _, name := range names {
			prog.LabelIndex[name] = idx
		}
	}

	for i := range prog.Instructions {
		recognizeStructured(&prog.Instructions[i])
	}
	return prog
}

// directiveMnemonics are the storage/declaration mnemonics that make a
// preceding label+directive line a "label with directive" shape (§6) rather
// than a plain instruction with a label attached.
var directiveMnemonics = map[string]bool{
	"equ": true, "db": true, "dw": true, "ds": true, "dm": true,
}

type parser struct {
	toks []lexer.Token
	pos  int
}

func (p *parser) cur() lexer.Token {
	if p.pos >= len(p.toks) {
		return lexer.Token{Kind: lexer.TokEOF}
	}
	return p.toks[p.pos]
}

func (p *parser) advance() lexer.Token {
	t := p.cur()
	if p.pos < len(p.toks) {
		p.pos++
	}
	return t
}

func (p *parser) skipNewlines() {
	for p.cur().Kind == lexer.TokNewline {
		p.advance()
	}
}

// parseLines recognises the three line shapes of §6 across the whole token
// stream, in order.
func (p *parser) parseLines() []rawLine {
	var lines []rawLine
	p.skipNewlines()
	for p.cur().Kind != lexer.TokEOF {
		var pendingLabels []string
		for p.cur().Kind == lexer.TokIdent && p.pos+1 < len(p.toks) && p.toks[p.pos+1].Kind == lexer.TokPunct && p.toks[p.pos+1].Text == ":" {
			pendingLabels = append(pendingLabels, p.cur().Text)
			p.advance() // ident
			p.advance() // ':'
		}

		if p.cur().Kind == lexer.TokNewline || p.cur().Kind == lexer.TokEOF {
			if len(pendingLabels) > 0 {
				lines = append(lines, rawLine{labels: pendingLabels})
			}
			p.skipNewlines()
			continue
		}

		// "IDENT EQU|DB|DW|DS|DM ..." — a label with no colon, immediately
		// followed by a storage directive (§6): the label is emitted
		// without consuming the directive.
		if p.cur().Kind == lexer.TokIdent && p.pos+1 < len(p.toks) &&
			p.toks[p.pos+1].Kind == lexer.TokIdent && directiveMnemonics[strings.ToLower(p.toks[p.pos+1].Text)] {
			labelTok := p.advance()
			pendingLabels = append(pendingLabels, labelTok.Text)
			in := p.parseInstruction()
			lines = append(lines, rawLine{
				labels:       pendingLabels,
				labelComment: concatComments(labelTok.LeadingComments, labelTok.TrailingComment),
				isDirect:     true,
				in:           in,
			})
			p.skipNewlines()
			continue
		}

		in := p.parseInstruction()
		isDirect := directiveMnemonics[in.Mnemonic]
		lines = append(lines, rawLine{labels: pendingLabels, isDirect: isDirect, in: in})
		p.skipNewlines()
	}
	return lines
}

func (p *parser) parseInstruction() *asm.Instruction {
	tok := p.advance()
	in := &asm.Instruction{
		Mnemonic:        strings.ToLower(tok.Text),
		LeadingComments: tok.LeadingComments,
		TrailingComment: tok.TrailingComment,
	}
	for p.cur().Kind != lexer.TokNewline && p.cur().Kind != lexer.TokEOF {
		op := p.parseOperand()
		in.Operands = append(in.Operands, op)
		if p.cur().Kind == lexer.TokPunct && p.cur().Text == "," {
			p.advance()
			continue
		}
		break
	}
	return in
}

// parseOperand implements the left-associative +/- grammar over primaries.
func (p *parser) parseOperand() asm.Operand {
	left := p.parsePrimary()
	for p.cur().Kind == lexer.TokPunct && (p.cur().Text == "+" || p.cur().Text == "-") {
		op := p.advance().Text[0]
		right := p.parsePrimary()
		l, r := left, right
		left = asm.Operand{Kind: asm.OperandBinary, BinOp: op, Left: &l, Right: &r}
	}
	return left
}

func (p *parser) parsePrimary() asm.Operand {
	tok := p.cur()
	switch {
	case tok.Kind == lexer.TokPunct && tok.Text == "[":
		p.advance()
		inner := p.parseOperand()
		if p.cur().Kind == lexer.TokPunct && p.cur().Text == "]" {
			p.advance()
		} else {
			return asm.Garbage("unterminated memory operand")
		}
		return asm.Operand{Kind: asm.OperandMemory, Inner: &inner}

	case tok.Kind == lexer.TokPunct && (tok.Text == "+" || tok.Text == "-"):
		op := p.advance().Text[0]
		inner := p.parsePrimary()
		return asm.Operand{Kind: asm.OperandUnary, UnOp: op, Inner: &inner}

	case tok.Kind == lexer.TokIdent:
		p.advance()
		if r, ok := asm.LookupReg(tok.Text); ok {
			return asm.Operand{Kind: asm.OperandRegister, Reg: r}
		}
		return asm.Operand{Kind: asm.OperandSymbol, Text: tok.Text}

	case tok.Kind == lexer.TokNumber:
		p.advance()
		base := 10
		if tok.Hex {
			base = 16
		}
		n, err := strconv.ParseInt(tok.Text, base, 64)
		if err != nil {
			return asm.Garbage("malformed number: " + tok.Text)
		}
		return asm.Operand{Kind: asm.OperandNumber, Number: n, Hex: tok.Hex}

	case tok.Kind == lexer.TokString:
		p.advance()
		return asm.Operand{Kind: asm.OperandString, Text: tok.Text}

	case tok.Kind == lexer.TokDollar:
		p.advance()
		return asm.Operand{Kind: asm.OperandProgramCounter}

	default:
		p.advance()
		log.Warn(log.Parser, "unrecognised operand syntax", "token", tok.Text)
		return asm.Garbage("unrecognised token: " + tok.Text)
	}
}
