// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package asm

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"
	"go.starlark.net/starlark"
	"go.starlark.net/syntax"

	"github.com/ezrec/cvm/cpu"
	"github.com/ezrec/cvm/isa"
	"github.com/ezrec/cvm/memory"
)

// Macro represents a macro definition in the assembly language.
type Macro struct {
	LineNo int      // Line number of the macro definition.
	Args   []string // Arguments for the macro.
	Lines  []string // Lines of macro text to expand.
}

// Predefined system equates
var sysEquate = map[string]string{
	"LINENO": "0",
}

// Assembler is a single pass macro assembler for the virtual CPU.
type Assembler struct {
	Verbose bool     // If set, verbosely logs the assembler actions.
	Opcode  []Opcode // List of generated opcodes.

	predefine  map[string]string   // Predefines
	Label      map[string]uint64   // Map of labels to addresses.
	Equate     map[string]string   // Map of equates.
	Macro      map[string](*Macro) // Map of macros.
	expansions int                 // Macro expansions so far.
}

// Predefine defines a new equate or redefines an existing equate, applied
// at the start of every Parse.
func (asm *Assembler) Predefine(equ string, value string) {
	if asm.predefine == nil {
		asm.predefine = map[string]string{equ: value}
	} else {
		asm.predefine[equ] = value
	}
}

var (
	reChar     = regexp.MustCompile(`'\\?[^']'`)
	reParen    = regexp.MustCompile(`\$\([^\$]*\)`)
	reRegister = regexp.MustCompile(`^r[0-9]+$`)
	reLabel    = regexp.MustCompile(`^[A-Za-z_.][A-Za-z0-9_.]*$`)
)

// opMap maps mnemonics to opcodes.
var opMap = func() map[string]isa.Opcode {
	ops := map[string]isa.Opcode{}
	for op := isa.OP_HALT; op < isa.OP_LIMIT; op++ {
		ops[op.String()] = op
	}
	return ops
}()

// valueOf returns the value of a simple word, as two's complement.
func (asm *Assembler) valueOf(word string) (value uint64, err error) {
	if len(word) == 0 {
		err = ErrParseNumber(word)
		return
	}

	invert := false
	if word[0] == '~' {
		invert = true
		word = word[1:]
	}
	if len(word) > 0 && word[0] == '\'' {
		// Character quotes should have been expanded into
		// values in parseLine()
		err = ErrParseCharacter(strings.Trim(word, "'"))
		return
	}

	v64, err := strconv.ParseInt(word, 0, 64)
	if err == nil {
		value = uint64(v64)
	} else {
		value, err = strconv.ParseUint(word, 0, 64)
		if err != nil {
			err = ErrParseNumber(word)
			return
		}
	}

	if invert {
		value = ^value
	}

	return
}

// valueOrLabel returns a value, or the label it refers to.
func (asm *Assembler) valueOrLabel(word string) (value uint64, label string, err error) {
	value, err = asm.valueOf(word)
	if err == nil {
		return
	}

	var pe ErrParseNumber
	if errors.As(err, &pe) && reLabel.MatchString(word) && !reRegister.MatchString(word) {
		label = word
		err = nil
	}

	return
}

// operandOf parses an operand. Memory operands may name a label, which is
// returned for linking.
func (asm *Assembler) operandOf(word string) (op cpu.Operand, label string, err error) {
	indirect := false
	if strings.HasPrefix(word, "[") && strings.HasSuffix(word, "]") {
		indirect = true
		word = word[1 : len(word)-1]
	}

	if reRegister.MatchString(word) {
		var index uint64
		index, err = strconv.ParseUint(word[1:], 10, 64)
		if err != nil || index > uint64(cpu.OPERAND_INDEX_MASK) {
			err = ErrRegisterInvalid
			return
		}
		op = cpu.MakeOperand(index, true, indirect)
		return
	}

	address, label, err := asm.valueOrLabel(word)
	if err != nil {
		return
	}
	if address > uint64(cpu.OPERAND_INDEX_MASK) {
		err = ErrOperandRange
		return
	}

	op = cpu.MakeOperand(address, false, indirect)
	return
}

// parenEval does compile-time $(...) evaluations
func (asm *Assembler) parenEval(expr string) (value uint64, err error) {
	thread := starlark.Thread{}
	opts := syntax.FileOptions{}
	pred := starlark.StringDict{}
	for key, str := range asm.Equate {
		var value64 uint64
		value64, err = asm.valueOf(str)
		if err != nil {
			// Ignore non-integer equates. They may be registers
			// or something else.
			continue
		}
		pred[key] = starlark.MakeInt64(int64(value64))
	}
	err = nil

	prog := "rc=" + expr + "\n"
	dict, err := starlark.ExecFileOptions(&opts, &thread, "expr", prog, pred)
	if err != nil {
		return
	}
	st_rc, ok := dict["rc"]
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	st_int, ok := st_rc.(starlark.Int)
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	st_int64, ok := st_int.Int64()
	if ok {
		value = uint64(st_int64)
		return
	}
	value, ok = st_int.Uint64()
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	return
}

// substitute replaces a word, or the inside of a bracketed word, with its
// equate.
func (asm *Assembler) substitute(word string) string {
	if equate, ok := asm.Equate[word]; ok {
		return equate
	}

	if strings.HasPrefix(word, "[") && strings.HasSuffix(word, "]") {
		if equate, ok := asm.Equate[word[1:len(word)-1]]; ok {
			return "[" + equate + "]"
		}
	}

	return word
}

// parseLine parses a single line as an opcode.
func (asm *Assembler) parseLine(line string, lineno int) (words []string, err error) {
	// Set line number.
	asm.Equate["LINENO"] = fmt.Sprintf("%v", lineno)

	// Do 'x' evaluations
	line = reChar.ReplaceAllStringFunc(line, func(word string) string {
		str := word[1 : len(word)-1]
		if str[0] == '\\' {
			str = str[1:]
			switch str {
			case "\\":
				str = "\\"
			case "n":
				str = "\n"
			case "r":
				str = "\r"
			case "t":
				str = "\t"
			case "0":
				str = "\000"
			case "e":
				str = "\033"
			default:
				return word
			}
		} else if len(str) != 1 {
			return word
		}
		return fmt.Sprintf("%v", str[0])
	})

	// Do $() evaluations
	line = reParen.ReplaceAllStringFunc(line, func(str string) string {
		value, _err := asm.parenEval(str[2 : len(str)-1])
		if _err != nil {
			err = _err
		}
		return fmt.Sprintf("%#v", value)
	})
	if err != nil {
		return
	}

	words = strings.Fields(strings.ReplaceAll(line, ",", " "))

	if len(words) == 0 {
		return
	}

	// .equ CONST VALUE
	if words[0] == ".equ" {
		if len(words) != 3 {
			err = ErrEquateSyntax
			return
		}
		_, ok := asm.Equate[words[1]]
		if ok {
			err = ErrEquateDuplicate
			return
		}
		asm.Equate[words[1]] = asm.substitute(words[2])
		words = words[:0]
		return
	}

	for n, word := range words {
		words[n] = asm.substitute(word)
	}

	for strings.HasSuffix(words[0], ":") {
		label := words[0][:len(words[0])-1]
		if !reLabel.MatchString(label) {
			err = ErrLabelInvalid
			return
		}
		_, ok := asm.Label[label]
		if ok {
			err = ErrLabelDuplicate
			return
		}

		if asm.Label == nil {
			asm.Label = make(map[string]uint64, 16)
		}
		asm.Label[label] = asm.currentPc()
		words = words[1:]
		if len(words) == 0 {
			return
		}
	}

	// .macro processing
	macro, ok := asm.Macro[words[0]]
	if ok {
		name := words[0]

		args := words[1:]
		if len(args) != len(macro.Args) {
			err = ErrMacroSyntax
			return
		}
		// Turn args into equs
		old_equate := maps.Clone(asm.Equate)
		for n, arg := range macro.Args {
			asm.Equate[arg] = words[1+n]
		}
		defer func() { asm.Equate = old_equate }()

		asm.expansions++
		prefix := fmt.Sprintf("%v_%v_", name, asm.expansions)

		for n, line := range macro.Lines {
			lineno := macro.LineNo + n

			line = strings.ReplaceAll(line, "@", prefix)
			words, err = asm.parseLine(line, lineno)
			if err != nil {
				err = &ErrMacro{Macro: name, Line: lineno, Err: err}
				err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
				return
			}

			err = asm.parseWords(words, lineno)
			if err != nil {
				err = &ErrMacro{Macro: name, Line: lineno, Err: err}
				err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
				return
			}
		}

		words = nil
		return
	}

	return
}

// currentPc gets the address of the next byte to assemble.
func (asm *Assembler) currentPc() uint64 {
	if len(asm.Opcode) == 0 {
		return 0
	}

	last := &asm.Opcode[len(asm.Opcode)-1]

	return last.Pc + last.Size()
}

// Parse parses an input stream into a Program containing opcodes.
func (asm *Assembler) Parse(input io.Reader) (prog *Program, err error) {

	scanner := bufio.NewScanner(input)

	var line string
	var lineno int
	var macro *Macro

	defer func() {
		if err != nil {
			err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
		}
	}()

	clear(asm.Label)
	asm.Opcode = asm.Opcode[:0]
	if asm.Macro == nil {
		asm.Macro = make(map[string](*Macro))
	}
	clear(asm.Macro)
	asm.expansions = 0
	asm.Equate = maps.Clone(sysEquate)
	for attr, val := range asm.predefine {
		asm.Equate[attr] = val
	}

	for scanner.Scan() {
		text := scanner.Text()
		lineno += 1

		if asm.Verbose {
			log.Printf("%v: %v", lineno, text)
		}

		text_comment := strings.Split(text, ";")
		line = strings.TrimSpace(text_comment[0])
		words := strings.Fields(line)

		// .macro NAME arg...
		if len(words) > 0 && words[0] == ".macro" {
			if macro != nil {
				err = ErrMacroNesting
				return
			}
			if len(words) < 2 {
				err = ErrMacroSyntax
				return
			}
			_, ok := asm.Macro[words[1]]
			if ok {
				err = ErrMacroDuplicate
				return
			}
			macro = &Macro{
				LineNo: lineno + 1,
			}
			if len(words) > 2 {
				macro.Args = words[2:]
			}
			asm.Macro[words[1]] = macro
			continue
		}

		if len(words) > 0 && words[0] == ".endm" {
			if macro == nil {
				err = ErrMacroLonelyEndm
				return
			}
			macro = nil
			continue
		}

		if macro != nil {
			macro.Lines = append(macro.Lines, line)
			continue
		}

		words, err = asm.parseLine(line, lineno)
		if err != nil {
			return
		}

		err = asm.parseWords(words, lineno)
		if err != nil {
			return
		}
	}

	err = scanner.Err()
	if err != nil {
		return
	}

	if macro != nil {
		err = ErrMacroLonely
		return
	}

	// Final linking of labels.
	for n := range asm.Opcode {
		op := &asm.Opcode[n]
		err = asm.link(op)
		if err != nil {
			lineno = op.LineNo
			line = strings.Join(op.Words, " ")
			return
		}
	}

	prog = &Program{
		Opcodes: slices.Clone(asm.Opcode),
	}

	return
}

// link patches the label references of an opcode.
func (asm *Assembler) link(op *Opcode) (err error) {
	for _, ln := range op.Links {
		address, ok := asm.Label[ln.Label]
		if !ok {
			err = ErrLabelMissing(ln.Label)
			return
		}

		switch {
		case ln.Code < 0:
			cell := memory.MakeCell(ln.Width, address)
			for n := range int(ln.Width) {
				op.Data[ln.Field+n] = uint8(cell.Uint64() >> (8 * n))
			}
		case ln.Field < 0:
			code := &op.Codes[ln.Code]
			code.Immediate = address
			if code.Op.Form().Immediate() {
				code.Immediate &= code.Width.Mask()
			}
		default:
			if address > uint64(cpu.OPERAND_INDEX_MASK) {
				err = ErrOperandRange
				return
			}
			code := &op.Codes[ln.Code]
			prior := code.Operands[ln.Field]
			code.Operands[ln.Field] = cpu.MakeOperand(address, false, prior.Indirect())
		}
	}

	return
}

// sizeLimit returns the largest program image, from the MEMORY_SIZE equate
// when it is defined.
func (asm *Assembler) sizeLimit() uint64 {
	size, err := asm.valueOf(asm.Equate["MEMORY_SIZE"])
	if err != nil {
		return uint64(1) << cpu.DEFAULT_MEMORY_EXPONENT
	}

	return size
}

// mnemonicOf splits a mnemonic into its opcode and width.
func mnemonicOf(word string) (op isa.Opcode, width memory.Width, err error) {
	name, suffix, sized := strings.Cut(word, ".")

	op, ok := opMap[name]
	if !ok {
		err = ErrInstructionInvalid
		return
	}

	width = memory.W8
	if !op.Sized() {
		width = memory.W1
	}

	if sized {
		if !op.Sized() {
			err = ErrWidthInvalid
			return
		}
		var w int
		w, err = strconv.Atoi(suffix)
		if err != nil || !memory.Width(w).Valid() {
			err = ErrWidthInvalid
			return
		}
		width = memory.Width(w)
	}

	return
}

// dataWidths maps data directives to their cell width.
var dataWidths = map[string]memory.Width{
	".data.1": memory.W1,
	".data.2": memory.W2,
	".data.4": memory.W4,
	".data.8": memory.W8,
}

// parseDirective evaluates a data layout directive.
func (asm *Assembler) parseDirective(words []string, opcode *Opcode) (err error) {
	if width, ok := dataWidths[words[0]]; ok {
		if len(words) < 2 {
			err = ErrOpcodeValueMissing
			return
		}
		for _, word := range words[1:] {
			var value uint64
			var label string
			value, label, err = asm.valueOrLabel(word)
			if err != nil {
				return
			}
			if len(label) != 0 {
				opcode.Links = append(opcode.Links, Link{Label: label, Code: -1, Field: len(opcode.Data), Width: width})
			}
			cell := memory.MakeCell(width, value)
			for n := range int(width) {
				opcode.Data = append(opcode.Data, uint8(cell.Uint64()>>(8*n)))
			}
		}
		return
	}

	switch words[0] {
	case ".zero", ".org":
		if len(words) < 2 {
			err = ErrOpcodeValueMissing
			return
		}
		if len(words) > 2 {
			err = ErrOpcodeExtraArgs
			return
		}
		var value uint64
		value, err = asm.valueOf(words[1])
		if err != nil {
			return
		}
		count := value
		if words[0] == ".org" {
			pc := asm.currentPc()
			if value < pc {
				err = ErrOrgBackward
				return
			}
			count = value - pc
		}
		if count > asm.sizeLimit()-min(asm.currentPc(), asm.sizeLimit()) {
			err = ErrProgramSize
			return
		}
		opcode.Data = make([]byte, count)
	default:
		err = ErrInstructionInvalid
	}

	return
}

// parseWords evaluates the words in a line of assembly text.
func (asm *Assembler) parseWords(words []string, lineno int) (err error) {
	// no-op
	if len(words) == 0 {
		return
	}

	opcode := Opcode{LineNo: lineno, Pc: asm.currentPc(), Words: words}

	defer func() {
		if err != nil || (len(opcode.Codes) == 0 && len(opcode.Data) == 0) {
			return
		}
		asm.Opcode = append(asm.Opcode, opcode)
	}()

	if strings.HasPrefix(words[0], ".") {
		err = asm.parseDirective(words, &opcode)
		return
	}

	op, width, err := mnemonicOf(words[0])
	if err != nil {
		return
	}

	form := op.Form()
	args := words[1:]

	need := form.Operands()
	if form.Immediate() || form.Target() {
		need++
	}
	if len(args) < need {
		err = ErrOpcodeMissing
		return
	}
	if len(args) > need {
		err = ErrOpcodeExtraArgs
		return
	}

	var operands []cpu.Operand
	for n := range form.Operands() {
		var operand cpu.Operand
		var label string
		operand, label, err = asm.operandOf(args[n])
		if err != nil {
			return
		}
		if len(label) != 0 {
			opcode.Links = append(opcode.Links, Link{Label: label, Code: 0, Field: n})
		}
		operands = append(operands, operand)
	}

	var code isa.Code
	switch {
	case form.Immediate(), form.Target():
		var value uint64
		var label string
		value, label, err = asm.valueOrLabel(args[len(args)-1])
		if err != nil {
			return
		}
		if len(label) != 0 {
			opcode.Links = append(opcode.Links, Link{Label: label, Code: 0, Field: -1})
		}
		if form.Immediate() {
			code = isa.MakeCodeLdi(width, operands[0], value)
		} else {
			code = isa.MakeCodeJump(op, width, value, operands...)
		}
	default:
		code = isa.MakeCode(op, width, operands...)
	}

	opcode.Codes = append(opcode.Codes, code)

	return
}
