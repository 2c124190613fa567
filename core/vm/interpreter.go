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
	"github.com/embervm/go-ember/common"
	"github.com/embervm/go-ember/crypto"
)

// ScopeContext contains the things that are per-call, such as stack and
// memory, but not transients like pc and gas.
type ScopeContext struct {
	Memory *Memory
	Stack  *Stack
	Ctx    *Context

	icode *Intercode // jump-destination index of the running code
}

func newKeccakState() crypto.KeccakState {
	return crypto.NewKeccakState()
}

// Interpreter executes intercode one opcode at a time through the jump table
// of its revision. An interpreter is cheap to construct and serves a single
// call at a time.
type Interpreter struct {
	table *JumpTable
	rev   Revision

	hasher    crypto.KeccakState // Keccak256 hasher instance shared across opcodes
	hasherBuf common.Hash        // Keccak256 hasher result array shared across opcodes

	readOnly    bool   // Whether to throw on stateful modifications
	returnData  []byte // Last CALL's return data for subsequent reuse
	callGasTemp uint64 // Gas forwarded to the next call, set by the gas functions
}

// newInterpreter returns an interpreter for the given revision.
func newInterpreter(rev Revision) *Interpreter {
	return &Interpreter{
		table: instructionSetForRevision(rev),
		rev:   rev,
	}
}

// Run loops and evaluates the contract's code with the given input data and
// records the outcome into the context. The stack must be empty on entry and
// is left in an unspecified state; callers return it to the pool afterwards.
func (in *Interpreter) Run(ctx *Context, icode *Intercode, stack *Stack) {
	ret, err := in.run(ctx, icode, stack)
	ctx.setError(ret, err)
}

// run is the interpreter loop proper. Any error returned is a
// revert-and-consume-all-gas condition except for ErrExecutionReverted which
// means revert-and-keep-gas-left.
func (in *Interpreter) run(ctx *Context, icode *Intercode, stack *Stack) (ret []byte, err error) {
	// Don't bother with the execution if there's no code.
	if len(ctx.Code) == 0 {
		return nil, nil
	}

	in.readOnly = ctx.Msg.Static
	in.returnData = nil

	var (
		op          OpCode       // current opcode
		mem         = ctx.Memory // bound memory
		callContext = &ScopeContext{
			Memory: mem,
			Stack:  stack,
			Ctx:    ctx,
			icode:  icode,
		}
		// For optimisation reason we're using uint64 as the program counter.
		// It's theoretically possible to go above 2^64. The YP defines the PC
		// to be uint256. Practically much less so feasible.
		pc  = uint64(0) // program counter
		res []byte      // result of the opcode execution function
	)

	// The Interpreter main run loop (contextual). This loop runs until either an
	// explicit STOP, RETURN or SELFDESTRUCT is executed, or an error occurred
	// during the execution of one of the operations.
	for {
		// Get the operation from the jump table and validate the stack to ensure there are
		// enough stack items available to perform the operation.
		op = ctx.GetOp(pc)
		operation := in.table[op]
		if operation == nil {
			return nil, &ErrInvalidOpCode{opcode: op}
		}
		// Validate stack
		if sLen := stack.len(); sLen < operation.minStack {
			return nil, ErrStackUnderflow{stackLen: sLen, required: operation.minStack}
		} else if sLen > operation.maxStack {
			return nil, ErrStackOverflow{stackLen: sLen, limit: operation.maxStack}
		}
		// If the operation is valid, enforce write restrictions
		if in.readOnly && in.rev >= Byzantium {
			// If the interpreter is operating in readonly mode, make sure no
			// state-modifying operation is performed. The 3rd stack item
			// for a call operation is the value. Transferring value from one
			// account to the others means the state is modified and should also
			// return with an error.
			if operation.writes || (op == CALL && stack.Back(2).Sign() != 0) {
				return nil, ErrWriteProtection
			}
		}
		// Static portion of gas
		if !ctx.UseGas(operation.constantGas) {
			return nil, ErrOutOfGas
		}

		var memorySize uint64
		// calculate the new memory size and expand the memory to fit
		// the operation
		// Memory check needs to be done prior to evaluating the dynamic gas portion,
		// to detect calculation overflows
		if operation.memorySize != nil {
			memSize, overflow := operation.memorySize(stack)
			if overflow {
				return nil, ErrGasUintOverflow
			}
			// memory is expanded in words of 32 bytes. Gas
			// is also calculated in words.
			if memorySize, overflow = safeMul(toWordSize(memSize), 32); overflow {
				return nil, ErrGasUintOverflow
			}
		}
		// Dynamic portion of gas
		// consume the gas and return an error if not enough gas is available.
		if operation.dynamicGas != nil {
			var dynamicCost uint64
			dynamicCost, err = operation.dynamicGas(in, callContext, stack, mem, memorySize)
			if err != nil || !ctx.UseGas(dynamicCost) {
				return nil, ErrOutOfGas
			}
		}
		if memorySize > 0 {
			mem.Resize(memorySize)
		}

		// execute the operation
		res, err = operation.execute(&pc, in, callContext)

		// if the operation returns data, save it to the return data buffer
		// for RETURNDATASIZE and RETURNDATACOPY.
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
		case !operation.jumps:
			pc++
		}
	}
}
