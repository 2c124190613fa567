// Copyright 2024 The go-ember Authors
// This file is part of the go-ember library.
//
// The go-ember library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ember library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ember library. If not, see <http://www.gnu.org/licenses/>.

package vm

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/embervm/go-ember/common"
	"github.com/embervm/go-ember/log"
	"github.com/holiman/uint256"
)

// maxProgramSize bounds the estimated size of a compiled program. Code whose
// estimate exceeds it is rejected permanently.
const maxProgramSize = 8 << 20

// programSizeFactor is the per-bytecode-byte estimate of compiled program
// growth used by maxCodeSize.
const programSizeFactor = 32

var errProgramTooLarge = errors.New("compiled program exceeds size bound")

// maxCodeSize estimates the upper bound of the compiled size of a contract.
// The bound doubles as the interpreted-gas threshold that triggers background
// compilation: once a contract has burned as much gas in the interpreter as
// its compilation is estimated to cost, compiling it pays off.
func maxCodeSize(offset uint64, codeSize int) uint64 {
	return offset + programSizeFactor*uint64(codeSize)
}

// instruction is one pre-decoded element of a compiled program. Push
// immediates are extracted at compile time, jump destinations resolve through
// the program's destination index instead of the raw byte offsets.
type instruction struct {
	op        OpCode
	operation *operation
	pc        uint64      // byte offset in the original code, for PC
	pushVal   uint256.Int // decoded immediate of PUSH1..PUSH32
}

// program is contract code compiled for one chain revision: the instruction
// stream with immediates decoded and jump destinations resolved. It is
// immutable and safe for concurrent execution.
type program struct {
	rev     Revision
	icode   *Intercode
	instrs  []instruction
	jumpMap map[uint64]int // JUMPDEST byte offset -> instruction index
}

// compileProgram translates intercode into a program at the given revision.
func compileProgram(rev Revision, icode *Intercode) *program {
	var (
		code  = icode.Code()
		table = instructionSetForRevision(rev)
		p     = &program{
			rev:     rev,
			icode:   icode,
			jumpMap: make(map[uint64]int),
		}
	)
	for pc := uint64(0); pc < uint64(len(code)); {
		op := OpCode(code[pc])
		instr := instruction{
			op:        op,
			operation: table[op],
			pc:        pc,
		}
		if op == JUMPDEST && icode.ValidJumpdest(pc) {
			p.jumpMap[pc] = len(p.instrs)
		}
		size := uint64(1)
		if op >= PUSH1 && op <= PUSH32 {
			numbits := uint64(op - PUSH1 + 1)
			start := min(uint64(len(code)), pc+1)
			end := min(uint64(len(code)), start+numbits)
			instr.pushVal.SetBytes(common.RightPadBytes(code[start:end], int(numbits)))
			size += numbits
		}
		p.instrs = append(p.instrs, instr)
		pc += size
	}
	return p
}

// compileEntrypoint runs the code-generation pipeline over an intercode and
// returns the executable entrypoint. It fails permanently when the estimated
// program size exceeds maxProgramSize.
func compileEntrypoint(rev Revision, icode *Intercode, config CompilerConfig) (Entrypoint, error) {
	if maxCodeSize(config.MaxCodeSizeOffset, icode.Size()) > maxProgramSize {
		return nil, errProgramTooLarge
	}
	p := compileProgram(rev, icode)
	if config.AsmLogPath != "" {
		dumpProgram(config.AsmLogPath, p)
	}
	return func(ctx *Context, stack *Stack) {
		ret, err := p.execute(ctx, stack)
		ctx.setError(ret, err)
	}, nil
}

// lookupJumpdest resolves a dynamic jump target to an instruction index.
func (p *program) lookupJumpdest(pos *uint256.Int) (int, bool) {
	if !pos.IsUint64() {
		return 0, false
	}
	idx, ok := p.jumpMap[pos.Uint64()]
	return idx, ok
}

// execute runs the program to completion. Gas accounting, stack validation
// and the operation implementations are shared with the interpreter, so both
// tiers produce bit-identical results; the difference is that opcode decoding
// and jump resolution were already paid for at compile time.
func (p *program) execute(ctx *Context, stack *Stack) (ret []byte, err error) {
	if len(p.instrs) == 0 {
		return nil, nil
	}

	in := newInterpreter(p.rev)
	in.readOnly = ctx.Msg.Static

	var (
		mem   = ctx.Memory
		scope = &ScopeContext{
			Memory: mem,
			Stack:  stack,
			Ctx:    ctx,
			icode:  p.icode,
		}
		idx int
		res []byte
	)
	for {
		if idx >= len(p.instrs) {
			// Ran off the end of the code, which is an implicit STOP.
			return nil, nil
		}
		instr := &p.instrs[idx]
		operation := instr.operation
		if operation == nil {
			return nil, &ErrInvalidOpCode{opcode: instr.op}
		}
		if sLen := stack.len(); sLen < operation.minStack {
			return nil, ErrStackUnderflow{stackLen: sLen, required: operation.minStack}
		} else if sLen > operation.maxStack {
			return nil, ErrStackOverflow{stackLen: sLen, limit: operation.maxStack}
		}
		if in.readOnly && p.rev >= Byzantium {
			if operation.writes || (instr.op == CALL && stack.Back(2).Sign() != 0) {
				return nil, ErrWriteProtection
			}
		}
		if !ctx.UseGas(operation.constantGas) {
			return nil, ErrOutOfGas
		}
		var memorySize uint64
		if operation.memorySize != nil {
			memSize, overflow := operation.memorySize(stack)
			if overflow {
				return nil, ErrGasUintOverflow
			}
			if memorySize, overflow = safeMul(toWordSize(memSize), 32); overflow {
				return nil, ErrGasUintOverflow
			}
		}
		if operation.dynamicGas != nil {
			var dynamicCost uint64
			dynamicCost, err = operation.dynamicGas(in, scope, stack, mem, memorySize)
			if err != nil || !ctx.UseGas(dynamicCost) {
				return nil, ErrOutOfGas
			}
		}
		if memorySize > 0 {
			mem.Resize(memorySize)
		}

		switch {
		case instr.op.IsPush():
			stack.push(&instr.pushVal)
			idx++
		case instr.op == JUMP:
			pos := stack.pop()
			tgt, ok := p.lookupJumpdest(&pos)
			if !ok {
				return nil, ErrInvalidJump
			}
			idx = tgt
		case instr.op == JUMPI:
			pos, cond := stack.pop(), stack.pop()
			if !cond.IsZero() {
				tgt, ok := p.lookupJumpdest(&pos)
				if !ok {
					return nil, ErrInvalidJump
				}
				idx = tgt
			} else {
				idx++
			}
		case instr.op == PC:
			stack.push(new(uint256.Int).SetUint64(instr.pc))
			idx++
		default:
			pcCopy := instr.pc
			res, err = operation.execute(&pcCopy, in, scope)
			if operation.returns {
				in.returnData = res
			}
			switch {
			case err != nil:
				return nil, err
			case operation.reverts:
				return res, ErrExecutionReverted
			case operation.halts:
				return res, nil
			default:
				idx++
			}
		}
	}
}

// dump writes a human readable listing of the program, one instruction per
// line, for offline inspection of compiler output.
func (p *program) dump(w io.Writer) {
	fmt.Fprintf(w, "; revision %v, %d instructions, %d jumpdests\n", p.rev, len(p.instrs), len(p.jumpMap))
	for _, instr := range p.instrs {
		if instr.op.IsPush() && instr.op != PUSH0 {
			fmt.Fprintf(w, "%05x: %v 0x%x\n", instr.pc, instr.op, instr.pushVal.Bytes())
			continue
		}
		fmt.Fprintf(w, "%05x: %v\n", instr.pc, instr.op)
	}
}

// dumpProgram appends a compiled program listing to the asm log file.
func dumpProgram(path string, p *program) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		log.Warn("Failed to open asm log", "path", path, "err", err)
		return
	}
	defer f.Close()
	p.dump(f)
}
