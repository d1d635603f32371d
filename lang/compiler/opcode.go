package compiler

import (
	"encoding/binary"
	"fmt"
)

// Version is the version of the bytecode format. It changes whenever the
// instruction set or its encoding changes, so that compiled programs cached
// by the caller can be discarded.
const Version = 2

// An Opcode is a bytecode instruction. Opcodes >= OpcodeArgMin are followed
// by an unsigned argument encoded as a varint.
type Opcode uint8

// The comment of each opcode shows the operand stack before and after the
// instruction, e.g. "x DUP x x". An argument is shown as OP<kind>, where
// kind names the table it indexes, if any.
//
//nolint:revive
const (
	NOP Opcode = iota // - NOP -

	DUP  //   x DUP x x
	DUP2 // x y DUP2 x y x y
	POP  //   x POP -
	EXCH // x y EXCH y x

	// comparisons, in the same order as the token.EQEQ..token.LE tokens
	EQL // x y EQL bool
	NEQ
	LT
	GT
	GE
	LE

	// arithmetic, in the same order as the token.PLUS..token.DOTDOT tokens
	PLUS // x y PLUS z
	MINUS
	STAR
	SLASH
	SLASHSLASH
	PERCENT
	STARSTAR
	DOTDOT

	UPLUS  // x UPLUS x
	UMINUS // x UMINUS -x
	NOT    // x NOT bool

	NIL   // - NIL nil
	TRUE  // - TRUE true
	FALSE // - FALSE false

	ITERPUSH //      iterable ITERPUSH -  (pushes on the iterator stack)
	ITERPOP  //             - ITERPOP  -  (pops the iterator stack)
	RETURN   //         value RETURN   -
	SETINDEX //   coll key new SETINDEX -
	INDEX    //      coll key INDEX    elem
	SETMAP   // map key value SETMAP   -  (map literals only)

	// opcodes with an argument

	JMP     //    - JMP<addr>     -
	CJMP    // cond CJMP<addr>    -
	ITERJMP //    - ITERJMP<addr> elem, or jumps if the top iterator is exhausted

	CONSTANT     //              - CONSTANT<constant>     value
	MAKETUPLE    //      x1 ... xn MAKETUPLE<n>           tuple
	MAKEARRAY    //      x1 ... xn MAKEARRAY<n>           array
	MAKEFUNC     // freevars tuple MAKEFUNC<func>         fn
	MAKEMAP      //              - MAKEMAP<size hint>     map
	SETLOCAL     //          value SETLOCAL<local>        -
	LOCAL        //              - LOCAL<local>           value
	FREE         //              - FREE<freevar>          cell
	FREECELL     //              - FREECELL<freevar>      value
	SETFREECELL  //          value SETFREECELL<freevar>   -
	LOCALCELL    //              - LOCALCELL<local>       value
	SETLOCALCELL //          value SETLOCALCELL<local>    -
	INITCELL     //          value INITCELL<local>        -  (in a new cell)
	UNIVERSAL    //              - UNIVERSAL<name>        value
	ATTR         //              x ATTR<name>             x.name
	CALL         //  fn x1 ... xn CALL<n>                 result

	OpcodeArgMin = JMP
	OpcodeMax    = CALL
)

// variable marks the opcodes whose stack effect depends on their argument.
const variable = 0x7f

type opInfo struct {
	name   string
	effect int8 // effect on the operand stack size
}

var opcodes = [...]opInfo{
	NOP:  {"nop", 0},
	DUP:  {"dup", +1},
	DUP2: {"dup2", +2},
	POP:  {"pop", -1},
	EXCH: {"exch", 0},

	EQL: {"eql", -1},
	NEQ: {"neq", -1},
	LT:  {"lt", -1},
	GT:  {"gt", -1},
	GE:  {"ge", -1},
	LE:  {"le", -1},

	PLUS:       {"plus", -1},
	MINUS:      {"minus", -1},
	STAR:       {"star", -1},
	SLASH:      {"slash", -1},
	SLASHSLASH: {"slashslash", -1},
	PERCENT:    {"percent", -1},
	STARSTAR:   {"starstar", -1},
	DOTDOT:     {"dotdot", -1},

	UPLUS:  {"uplus", 0},
	UMINUS: {"uminus", 0},
	NOT:    {"not", 0},

	NIL:   {"nil", +1},
	TRUE:  {"true", +1},
	FALSE: {"false", +1},

	ITERPUSH: {"iterpush", -1},
	ITERPOP:  {"iterpop", 0},
	RETURN:   {"return", -1},
	SETINDEX: {"setindex", -3},
	INDEX:    {"index", -1},
	SETMAP:   {"setmap", -3},

	JMP:     {"jmp", 0},
	CJMP:    {"cjmp", -1},
	ITERJMP: {"iterjmp", variable},

	CONSTANT:     {"constant", +1},
	MAKETUPLE:    {"maketuple", variable},
	MAKEARRAY:    {"makearray", variable},
	MAKEFUNC:     {"makefunc", 0},
	MAKEMAP:      {"makemap", +1},
	SETLOCAL:     {"setlocal", -1},
	LOCAL:        {"local", +1},
	FREE:         {"free", +1},
	FREECELL:     {"freecell", +1},
	SETFREECELL:  {"setfreecell", -1},
	LOCALCELL:    {"localcell", +1},
	SETLOCALCELL: {"setlocalcell", -1},
	INITCELL:     {"initcell", -1},
	UNIVERSAL:    {"universal", +1},
	ATTR:         {"attr", 0},
	CALL:         {"call", variable},
}

var opcodesByName = func() map[string]Opcode {
	m := make(map[string]Opcode, len(opcodes))
	for op, info := range opcodes {
		m[info.name] = Opcode(op)
	}
	return m
}()

func (op Opcode) String() string {
	if op <= OpcodeMax && opcodes[op].name != "" {
		return opcodes[op].name
	}
	return fmt.Sprintf("illegal op (%d)", op)
}

// stackEffect returns the change in the size of the operand stack caused by
// the execution of op with argument arg. For ITERJMP, it is the effect when
// the iterator is exhausted, the caller accounts for the element pushed
// otherwise.
func (op Opcode) stackEffect(arg uint32) int {
	se := opcodes[op].effect
	if se != variable {
		return int(se)
	}
	switch op {
	case CALL:
		return -int(arg)
	case MAKEARRAY, MAKETUPLE:
		return 1 - int(arg)
	case ITERJMP:
		return 0
	}
	panic(fmt.Sprintf("unexpected variable stack effect for %s", op))
}

// jumpArgSize is the fixed size of the encoded argument of jumps, so that
// their target can be patched once known.
const jumpArgSize = 4

func isJump(op Opcode) bool { return op >= JMP && op <= ITERJMP }

// argSize returns the number of bytes used to encode the argument of op.
func argSize(op Opcode, arg uint32) int {
	switch {
	case op < OpcodeArgMin:
		return 0
	case isJump(op):
		return jumpArgSize
	}
	n := 1
	for ; arg >= 0x80; arg >>= 7 {
		n++
	}
	return n
}

// encodedSize returns the number of bytes used to encode the instruction.
func encodedSize(op Opcode, arg uint32) int { return 1 + argSize(op, arg) }

// encodeInsn appends the encoded instruction to code. The argument of a jump
// is padded with NOP bytes to its fixed size.
func encodeInsn(code []byte, op Opcode, arg uint32) []byte {
	code = append(code, byte(op))
	if op < OpcodeArgMin {
		return code
	}
	start := len(code)
	code = binary.AppendUvarint(code, uint64(arg))
	if isJump(op) {
		for len(code)-start < jumpArgSize {
			code = append(code, byte(NOP))
		}
	}
	return code
}
