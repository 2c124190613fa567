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
	"github.com/holiman/uint256"
)

// CallKind distinguishes the flavors of message calls.
type CallKind int

const (
	CallKindCall CallKind = iota
	CallKindDelegateCall
	CallKindCallCode
	CallKindStaticCall
	CallKindCreate
	CallKindCreate2
)

// Status is the EVM-level outcome of an execution. Failures at this level
// are data, not errors: they propagate through the Result.
type Status byte

const (
	StatusSuccess Status = iota
	StatusRevert
	StatusOutOfGas
	StatusInvalidInstruction
	StatusInvalidJump
	StatusStackUnderflow
	StatusStackOverflow
	StatusStaticViolation
	StatusFailure
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusRevert:
		return "revert"
	case StatusOutOfGas:
		return "out of gas"
	case StatusInvalidInstruction:
		return "invalid instruction"
	case StatusInvalidJump:
		return "invalid jump"
	case StatusStackUnderflow:
		return "stack underflow"
	case StatusStackOverflow:
		return "stack overflow"
	case StatusStaticViolation:
		return "static mode violation"
	default:
		return "failure"
	}
}

// Message describes a single contract call: who calls what, with which input
// and how much gas.
type Message struct {
	Kind      CallKind
	Static    bool
	Depth     int
	Gas       uint64
	Recipient common.Address
	Sender    common.Address
	Input     []byte
	Value     uint256.Int
}

// ChainParams carries the per-call chain parameters the interpreter exposes
// to contract code.
type ChainParams struct {
	ChainID uint256.Int
}

// TxContext contains information about the current transaction and block,
// supplied by the host once per call.
type TxContext struct {
	GasPrice    uint256.Int
	Origin      common.Address
	Coinbase    common.Address
	BlockNumber int64
	Timestamp   int64
	GasLimit    uint64
	PrevRandao  common.Hash
	BaseFee     uint256.Int
	BlobBaseFee uint256.Int
}

// Result summarizes the outcome of a contract execution.
type Result struct {
	Status         Status
	GasLeft        uint64
	GasRefund      int64
	Output         []byte
	CreatedAddress common.Address
}

// Context is the per-call mutable state threaded through the interpreter and
// through native entrypoints. One context exists per call; it lives on the
// calling goroutine only and is destroyed on return. Host callbacks invoked
// re-entrantly during the call observe it through Host.SetRuntimeContext.
type Context struct {
	GasRemaining uint64
	GasRefund    int64
	Memory       *Memory
	Host         Host
	Msg          *Message
	Params       ChainParams
	Code         []byte // the executing bytecode

	Status         Status
	Output         []byte
	CreatedAddress common.Address
}

// newContext assembles a call context around a pooled memory buffer.
func newContext(mem *Memory, params ChainParams, host Host, msg *Message, code []byte) *Context {
	return &Context{
		GasRemaining: msg.Gas,
		Memory:       mem,
		Host:         host,
		Msg:          msg,
		Params:       params,
		Code:         code,
	}
}

// UseGas attempts the use gas and subtracts it and returns true on success.
func (ctx *Context) UseGas(gas uint64) bool {
	if ctx.GasRemaining < gas {
		return false
	}
	ctx.GasRemaining -= gas
	return true
}

// GetOp returns the n'th element in the context's code as an OpCode, or STOP
// past the end.
func (ctx *Context) GetOp(n uint64) OpCode {
	if n < uint64(len(ctx.Code)) {
		return OpCode(ctx.Code[n])
	}
	return STOP
}

// result snapshots the context into a Result. The refund counter is only
// meaningful on success; reverts and failures forfeit it.
func (ctx *Context) result() Result {
	r := Result{
		Status:         ctx.Status,
		GasLeft:        ctx.GasRemaining,
		Output:         ctx.Output,
		CreatedAddress: ctx.CreatedAddress,
	}
	if ctx.Status == StatusSuccess {
		r.GasRefund = ctx.GasRefund
	}
	return r
}

// setError records a terminal interpreter error into the context, consuming
// the remaining gas for everything except a revert.
func (ctx *Context) setError(output []byte, err error) {
	if err == nil {
		ctx.Status = StatusSuccess
		ctx.Output = output
		return
	}
	if err == ErrExecutionReverted {
		ctx.Status = StatusRevert
		ctx.Output = output
		return
	}
	ctx.GasRemaining = 0
	ctx.Output = nil
	switch err.(type) {
	case *ErrInvalidOpCode:
		ctx.Status = StatusInvalidInstruction
		return
	case ErrStackUnderflow:
		ctx.Status = StatusStackUnderflow
		return
	case ErrStackOverflow:
		ctx.Status = StatusStackOverflow
		return
	}
	switch err {
	case ErrOutOfGas, ErrGasUintOverflow:
		ctx.Status = StatusOutOfGas
	case ErrInvalidJump:
		ctx.Status = StatusInvalidJump
	case ErrWriteProtection:
		ctx.Status = StatusStaticViolation
	default:
		ctx.Status = StatusFailure
	}
}
