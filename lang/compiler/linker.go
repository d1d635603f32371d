package compiler

import (
	"fmt"

	"github.com/mna/srcfn/lang/token"
)

type insn struct {
	op  Opcode
	arg uint32
	pos token.Pos
}

func (in *insn) stackeffect() int { return in.op.stackEffect(in.arg) }

// A block is a sequence of instructions with a single entry point. The
// blocks of a function form its control-flow graph.
type block struct {
	insns []insn

	// A block that ends with RETURN has no successor. One that ends with CJMP
	// or ITERJMP continues at cjmp if the jump is taken, at jmp otherwise.
	// Any other block continues at jmp.
	jmp, cjmp *block

	stack int    // depth of the operand stack on entry, -1 if unknown
	index int    // position in code order, -1 if not placed yet
	addr  uint32 // address of the first instruction
}

func newBlock() *block {
	return &block{stack: -1, index: -1}
}

// resolve skips the empty blocks that only lead to their successor.
func resolve(b *block) *block {
	for b.insns == nil {
		b = b.jmp
	}
	return b
}

// linker places the reachable blocks of a function in code order, computes
// their address and the maximum depth of the operand stack, and generates
// the code.
type linker struct {
	name     string
	blocks   []*block
	pc       uint32
	maxStack int
	err      error
}

func (l *linker) fail(format string, args ...any) {
	if l.err == nil {
		l.err = fmt.Errorf("function %s: "+format, append([]any{l.name}, args...)...)
	}
}

func (l *linker) layout(entry *block) {
	l.enter(entry, 0)
	l.place(entry)
}

// enter records the stack depth on entry to b, which must be the same from
// all of its predecessors.
func (l *linker) enter(b *block, depth int) {
	switch {
	case b.stack < 0:
		b.stack = depth
	case b.stack != depth:
		l.fail("block %d: stack depth mismatch: %d vs %d", b.index, b.stack, depth)
	}
}

// place assigns the next position to b, then places its successors: the
// jmp successor immediately after it so that it falls through, if possible.
func (l *linker) place(b *block) {
	if b.index >= 0 {
		return
	}
	b.index = len(l.blocks)
	b.addr = l.pc
	l.blocks = append(l.blocks, b)

	var (
		depth   = b.stack
		pushed  int     // element pushed by ITERJMP when not jumping
		condArg *uint32 // argument of the conditional jump to patch
	)
	for i := range b.insns {
		in := &b.insns[i]
		switch in.op {
		case ITERJMP:
			pushed = 1
			fallthrough
		case CJMP:
			condArg = &in.arg
		}
		l.pc += uint32(encodedSize(in.op, in.arg))

		depth += in.stackeffect()
		if depth < 0 {
			l.fail("stack underflow at pc %d", l.pc)
		}
		l.maxStack = max(l.maxStack, depth+pushed)
	}

	if b.jmp != nil {
		b.jmp = resolve(b.jmp)
		l.enter(b.jmp, depth+pushed)
		if b.jmp.index < 0 {
			l.place(b.jmp)
		} else {
			// backward jump
			l.pc += uint32(encodedSize(JMP, 0))
		}
	}
	if b.cjmp != nil {
		b.cjmp = resolve(b.cjmp)
		l.enter(b.cjmp, depth)
		l.place(b.cjmp)
		if condArg != nil {
			*condArg = b.cjmp.addr
		}
	}
}

// generate encodes the placed blocks in fn.Code, with the table of the
// positions of the instructions.
func (l *linker) generate(fn *Funcode) {
	code := make([]byte, 0, l.pc)
	for _, b := range l.blocks {
		for _, in := range b.insns {
			if !in.pos.Unknown() {
				fn.pcpos = append(fn.pcpos, pcPos{pc: uint32(len(code)), pos: in.pos})
			}
			code = encodeInsn(code, in.op, in.arg)
		}
		if b.jmp != nil && b.jmp.index != b.index+1 {
			code = encodeInsn(code, JMP, b.jmp.addr)
		}
	}
	if uint32(len(code)) != l.pc {
		l.fail("code length %d, expected %d", len(code), l.pc)
	}
	fn.Code = code
}

// emit appends an instruction without argument to the current block.
func (c *funcCompiler) emit(op Opcode) {
	if op >= OpcodeArgMin {
		panic("missing argument for opcode " + op.String())
	}
	c.add(insn{op: op})
}

// emit1 appends an instruction with an argument to the current block.
func (c *funcCompiler) emit1(op Opcode, arg uint32) {
	if op < OpcodeArgMin {
		panic("unexpected argument for opcode " + op.String())
	}
	c.add(insn{op: op, arg: arg})
}

func (c *funcCompiler) add(in insn) {
	in.pos, c.pos = c.pos, token.NoPos
	c.block.insns = append(c.block.insns, in)
}

// at records pos for the next instruction, which can fail at runtime.
func (c *funcCompiler) at(pos token.Pos) { c.pos = pos }

// jump ends the current block with a jump to b.
func (c *funcCompiler) jump(b *block) {
	if b == c.block {
		panic("self-jump")
	}
	c.block.jmp = b
	c.block = nil
}

// condjump ends the current block with the conditional jump op (CJMP or
// ITERJMP) to t, continuing at f otherwise.
func (c *funcCompiler) condjump(op Opcode, t, f *block) {
	if op != CJMP && op != ITERJMP {
		panic("not a conditional jump: " + op.String())
	}
	c.emit1(op, 0) // patched by the linker
	c.block.cjmp = t
	c.jump(f)
}

// deadCode starts a new block that is unreachable, after a jump or a
// return.
func (c *funcCompiler) deadCode() { c.block = newBlock() }
