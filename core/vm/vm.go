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

// Package vm implements a tiered virtual machine for EVM bytecode: a jump
// table interpreter as the first tier and background-compiled programs as the
// second, mediated by a weight-bounded concurrent code cache.
package vm

import (
	"sync/atomic"

	"github.com/embervm/go-ember/common"
)

// Stats is a snapshot of the VM's execution counters.
type Stats struct {
	BytecodeExecutions  uint64 // runs of raw, unanalyzed bytecode
	IntercodeExecutions uint64 // interpreter runs over analyzed code
	NativeExecutions    uint64 // runs through compiled entrypoints
}

type vmStats struct {
	executeBytecode  atomic.Uint64
	executeIntercode atomic.Uint64
	executeNative    atomic.Uint64
}

// VM executes contracts, choosing per call between the interpreter and the
// compiled tier, and feeding the compiler service with contracts worth
// compiling. A VM is safe for concurrent use by multiple goroutines.
type VM struct {
	config   Config
	compiler *Compiler

	stacks   *stackPool
	memories *memoryPool
	stats    vmStats
}

// NewVM creates a VM. With async compilation enabled in the config the
// returned VM owns running compile workers; callers hand the VM's lifetime
// over to Stop.
func NewVM(config Config) *VM {
	config = config.withDefaults()
	return &VM{
		config:   config,
		compiler: NewCompiler(config.Compiler, config.EnableAsyncCompile),
		stacks:   newStackPool(config.MaxStackCache),
		memories: newMemoryPool(config.MaxMemoryCache),
	}
}

// Stop shuts down the background compile workers.
func (vm *VM) Stop() {
	vm.compiler.Stop()
}

// Compiler returns the VM's compiler service.
func (vm *VM) Compiler() *Compiler {
	return vm.compiler
}

// Stats returns a snapshot of the execution counters.
func (vm *VM) Stats() Stats {
	return Stats{
		BytecodeExecutions:  vm.stats.executeBytecode.Load(),
		IntercodeExecutions: vm.stats.executeIntercode.Load(),
		NativeExecutions:    vm.stats.executeNative.Load(),
	}
}

// Execute runs the contract held by vcode under the given revision, host and
// message. It selects the compiled tier when valid nativecode for the
// revision's chain id is available and the interpreter otherwise, and decides
// whether the contract has earned a background compile.
//
// The call's runtime context is installed on the host for the duration of
// the execution and the previous one restored on return; a deferred host
// failure surfaces as the returned error.
func (vm *VM) Execute(rev Revision, chainParams ChainParams, host Host, msg *Message, codeHash common.Hash, vcode *Varcode) (Result, error) {
	mem := vm.memories.get()
	defer vm.memories.put(mem)

	ctx := newContext(mem, chainParams, host, msg, vcode.Intercode().Code())

	prev := host.SetRuntimeContext(ctx)
	res := vm.executeVarcode(rev, ctx, codeHash, vcode)
	host.SetRuntimeContext(prev)

	if err := host.RethrowOnActiveException(); err != nil {
		return Result{}, err
	}
	return res, nil
}

// ExecuteBytecode analyzes code on the fly and runs it through the
// interpreter only. The varcode cache is not consulted or updated. Intended
// for contract creation and tests.
func (vm *VM) ExecuteBytecode(rev Revision, chainParams ChainParams, host Host, msg *Message, code []byte) (Result, error) {
	vm.stats.executeBytecode.Add(1)

	mem := vm.memories.get()
	defer vm.memories.put(mem)

	icode := AnalyzeCode(code)
	ctx := newContext(mem, chainParams, host, msg, icode.Code())

	prev := host.SetRuntimeContext(ctx)
	res := vm.runInterpreter(rev, ctx, icode)
	host.SetRuntimeContext(prev)

	if err := host.RethrowOnActiveException(); err != nil {
		return Result{}, err
	}
	return res, nil
}

// ExecuteIntercode runs pre-analyzed code through the interpreter only,
// without touching the varcode cache.
func (vm *VM) ExecuteIntercode(rev Revision, chainParams ChainParams, host Host, msg *Message, icode *Intercode) (Result, error) {
	mem := vm.memories.get()
	defer vm.memories.put(mem)

	ctx := newContext(mem, chainParams, host, msg, icode.Code())

	prev := host.SetRuntimeContext(ctx)
	res := vm.executeIntercode(rev, ctx, icode)
	host.SetRuntimeContext(prev)

	if err := host.RethrowOnActiveException(); err != nil {
		return Result{}, err
	}
	return res, nil
}

// executeVarcode applies the tiering policy to one call.
func (vm *VM) executeVarcode(rev Revision, ctx *Context, codeHash common.Hash, vcode *Varcode) Result {
	var (
		icode  = vcode.Intercode()
		ncode  = vcode.Nativecode()
		msgGas = ctx.GasRemaining
	)
	if ncode != nil {
		// The bytecode is compiled.
		if ncode.ChainID() != ChainIDForRevision(rev) {
			// Revision change. The bytecode was compiled pre revision
			// change, so start async compilation immediately for the new
			// revision. Execute with interpreter in the meantime.
			vm.compiler.AsyncCompile(rev, codeHash, icode)
			return vm.executeIntercode(rev, ctx, icode)
		}
		entry := ncode.Entrypoint()
		if entry == nil {
			// Compilation has failed in this revision, so just execute
			// with interpreter.
			return vm.executeIntercode(rev, ctx, icode)
		}
		// Bytecode has been successfully compiled for the right revision.
		return vm.executeEntrypoint(ctx, entry)
	}
	if !vm.compiler.IsVarcodeCacheWarm() {
		// If cache is not warm then start async compilation immediately,
		// and execute with interpreter in the meantime.
		vm.compiler.AsyncCompile(rev, codeHash, icode)
		return vm.executeIntercode(rev, ctx, icode)
	}
	// Execute with interpreter. We will start async compilation when the
	// accumulated execution gas spent by interpreter on the bytecode becomes
	// sufficiently high.
	res := vm.executeIntercode(rev, ctx, icode)
	bound := maxCodeSize(vm.config.Compiler.MaxCodeSizeOffset, icode.Size())
	gasUsed := msgGas - res.GasLeft
	// Execution gas is counted again for re-executions; the counter is never
	// reset.
	if vcode.AddIntercodeGas(gasUsed) >= bound {
		vm.compiler.AsyncCompile(rev, codeHash, icode)
	}
	return res
}

// executeIntercode runs one call through the interpreter tier.
func (vm *VM) executeIntercode(rev Revision, ctx *Context, icode *Intercode) Result {
	vm.stats.executeIntercode.Add(1)
	return vm.runInterpreter(rev, ctx, icode)
}

func (vm *VM) runInterpreter(rev Revision, ctx *Context, icode *Intercode) Result {
	stack := vm.stacks.get()
	defer vm.stacks.put(stack)

	newInterpreter(rev).Run(ctx, icode, stack)
	return ctx.result()
}

// executeEntrypoint runs one call through a compiled entrypoint.
func (vm *VM) executeEntrypoint(ctx *Context, entry Entrypoint) Result {
	vm.stats.executeNative.Add(1)

	stack := vm.stacks.get()
	defer vm.stacks.put(stack)

	entry(ctx, stack)
	return ctx.result()
}
