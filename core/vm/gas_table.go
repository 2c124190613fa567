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
	"github.com/embervm/go-ember/params"
)

// memoryGasCost calculates the quadratic gas for memory expansion. It does so
// only for the memory region that is expanded, not the total memory.
func memoryGasCost(mem *Memory, newMemSize uint64) (uint64, error) {
	if newMemSize == 0 {
		return 0, nil
	}
	// The maximum that will fit in a uint64 is max_word_count - 1. Anything above
	// that will result in an overflow. Additionally, a newMemSize which results in
	// a newMemSizeWords larger than 0xFFFFFFFF will cause the square operation to
	// overflow. The constant 0x1FFFFFFFE0 is the highest number that can be used
	// without overflowing the gas calculation.
	if newMemSize > 0x1FFFFFFFE0 {
		return 0, ErrGasUintOverflow
	}
	newMemSizeWords := toWordSize(newMemSize)
	newMemSize = newMemSizeWords * 32

	if newMemSize > uint64(mem.Len()) {
		square := newMemSizeWords * newMemSizeWords
		linCoef := newMemSizeWords * params.MemoryGas
		quadCoef := square / params.QuadCoeffDiv
		newTotalFee := linCoef + quadCoef

		fee := newTotalFee - mem.lastGasCost
		mem.lastGasCost = newTotalFee

		return fee, nil
	}
	return 0, nil
}

// pureMemoryGascost is used by several operations, which aside from their
// static cost have a dynamic cost which is solely based on the memory
// expansion
func pureMemoryGascost(in *Interpreter, scope *ScopeContext, stack *Stack, mem *Memory, memorySize uint64) (uint64, error) {
	return memoryGasCost(mem, memorySize)
}

var (
	gasMLoad    = pureMemoryGascost
	gasMStore8  = pureMemoryGascost
	gasMStore   = pureMemoryGascost
	gasReturn   = pureMemoryGascost
	gasRevert   = pureMemoryGascost
	gasCreate   = pureMemoryGascost
)

// memoryCopierGas creates the gas functions for the following opcodes, and
// takes the stack position of the operand which determines the size of the
// data to copy as argument:
// CALLDATACOPY (stack position 2)
// CODECOPY (stack position 2)
// MCOPY (stack position 2)
// EXTCODECOPY (stack position 3)
// RETURNDATACOPY (stack position 2)
func memoryCopierGas(stackpos int) gasFunc {
	return func(in *Interpreter, scope *ScopeContext, stack *Stack, mem *Memory, memorySize uint64) (uint64, error) {
		// Gas for expanding the memory
		gas, err := memoryGasCost(mem, memorySize)
		if err != nil {
			return 0, err
		}
		// And gas for copying data, charged per word at param.CopyGas
		words, overflow := stack.Back(stackpos).Uint64WithOverflow()
		if overflow {
			return 0, ErrGasUintOverflow
		}
		if words, overflow = safeMul(toWordSize(words), params.CopyGas); overflow {
			return 0, ErrGasUintOverflow
		}
		if gas, overflow = safeAdd(gas, words); overflow {
			return 0, ErrGasUintOverflow
		}
		return gas, nil
	}
}

var (
	gasCallDataCopy   = memoryCopierGas(2)
	gasCodeCopy       = memoryCopierGas(2)
	gasMcopy          = memoryCopierGas(2)
	gasExtCodeCopy    = memoryCopierGas(3)
	gasReturnDataCopy = memoryCopierGas(2)
)

func gasKeccak256(in *Interpreter, scope *ScopeContext, stack *Stack, mem *Memory, memorySize uint64) (uint64, error) {
	gas, err := memoryGasCost(mem, memorySize)
	if err != nil {
		return 0, err
	}
	wordGas, overflow := stack.Back(1).Uint64WithOverflow()
	if overflow {
		return 0, ErrGasUintOverflow
	}
	if wordGas, overflow = safeMul(toWordSize(wordGas), params.Keccak256WordGas); overflow {
		return 0, ErrGasUintOverflow
	}
	if gas, overflow = safeAdd(gas, wordGas); overflow {
		return 0, ErrGasUintOverflow
	}
	return gas, nil
}

func makeGasLog(n uint64) gasFunc {
	return func(in *Interpreter, scope *ScopeContext, stack *Stack, mem *Memory, memorySize uint64) (uint64, error) {
		requestedSize, overflow := stack.Back(1).Uint64WithOverflow()
		if overflow {
			return 0, ErrGasUintOverflow
		}
		gas, err := memoryGasCost(mem, memorySize)
		if err != nil {
			return 0, err
		}
		if gas, overflow = safeAdd(gas, params.LogGas); overflow {
			return 0, ErrGasUintOverflow
		}
		if gas, overflow = safeAdd(gas, n*params.LogTopicGas); overflow {
			return 0, ErrGasUintOverflow
		}
		var memorySizeGas uint64
		if memorySizeGas, overflow = safeMul(requestedSize, params.LogDataGas); overflow {
			return 0, ErrGasUintOverflow
		}
		if gas, overflow = safeAdd(gas, memorySizeGas); overflow {
			return 0, ErrGasUintOverflow
		}
		return gas, nil
	}
}

func makeGasExp(byteGas uint64) gasFunc {
	return func(in *Interpreter, scope *ScopeContext, stack *Stack, mem *Memory, memorySize uint64) (uint64, error) {
		expByteLen := uint64((stack.data[stack.len()-2].BitLen() + 7) / 8)

		var (
			gas      = expByteLen * byteGas // no overflow check required. Max is 256 * ExpByte gas
			overflow bool
		)
		if gas, overflow = safeAdd(gas, params.ExpGas); overflow {
			return 0, ErrGasUintOverflow
		}
		return gas, nil
	}
}

var (
	gasExpFrontier = makeGasExp(params.ExpByteFrontier)
	gasExpEIP158   = makeGasExp(params.ExpByteEIP158)
)

// gasSLoadEIP2929 calculates dynamic gas for SLOAD according to EIP-2929.
// For cold slots it charges the full cold cost, for warm ones the warm read
// cost; the operation carries no constant gas.
func gasSLoadEIP2929(in *Interpreter, scope *ScopeContext, stack *Stack, mem *Memory, memorySize uint64) (uint64, error) {
	loc := stack.peek()
	slot := common.Hash(loc.Bytes32())
	if scope.Ctx.Host.AccessStorage(scope.Ctx.Msg.Recipient, slot) == ColdAccess {
		return params.ColdSloadCostEIP2929, nil
	}
	return params.WarmStorageReadCostEIP2929, nil
}

// gasAccountAccessEIP2929 builds the dynamic gas function for account-touching
// opcodes (BALANCE, EXTCODESIZE, EXTCODEHASH) under EIP-2929.
func gasAccountAccessEIP2929(in *Interpreter, scope *ScopeContext, stack *Stack, mem *Memory, memorySize uint64) (uint64, error) {
	addr := common.Address(stack.peek().Bytes20())
	if scope.Ctx.Host.AccessAccount(addr) == ColdAccess {
		return params.ColdAccountAccessCostEIP2929, nil
	}
	return params.WarmStorageReadCostEIP2929, nil
}

// gasExtCodeCopyEIP2929 adds the account access cost on top of the copy cost.
func gasExtCodeCopyEIP2929(in *Interpreter, scope *ScopeContext, stack *Stack, mem *Memory, memorySize uint64) (uint64, error) {
	gas, err := gasExtCodeCopy(in, scope, stack, mem, memorySize)
	if err != nil {
		return 0, err
	}
	addr := common.Address(stack.peek().Bytes20())
	var overflow bool
	if scope.Ctx.Host.AccessAccount(addr) == ColdAccess {
		if gas, overflow = safeAdd(gas, params.ColdAccountAccessCostEIP2929); overflow {
			return 0, ErrGasUintOverflow
		}
	} else {
		if gas, overflow = safeAdd(gas, params.WarmStorageReadCostEIP2929); overflow {
			return 0, ErrGasUintOverflow
		}
	}
	return gas, nil
}

func gasCreate2(in *Interpreter, scope *ScopeContext, stack *Stack, mem *Memory, memorySize uint64) (uint64, error) {
	gas, err := memoryGasCost(mem, memorySize)
	if err != nil {
		return 0, err
	}
	wordGas, overflow := stack.Back(2).Uint64WithOverflow()
	if overflow {
		return 0, ErrGasUintOverflow
	}
	if wordGas, overflow = safeMul(toWordSize(wordGas), params.Keccak256WordGas); overflow {
		return 0, ErrGasUintOverflow
	}
	if gas, overflow = safeAdd(gas, wordGas); overflow {
		return 0, ErrGasUintOverflow
	}
	return gas, nil
}

// gasCreateEIP3860 meters the initcode of CREATE by word (EIP-3860).
func gasCreateEIP3860(in *Interpreter, scope *ScopeContext, stack *Stack, mem *Memory, memorySize uint64) (uint64, error) {
	gas, err := memoryGasCost(mem, memorySize)
	if err != nil {
		return 0, err
	}
	size, overflow := stack.Back(2).Uint64WithOverflow()
	if overflow || size > params.MaxInitCodeSize {
		return 0, ErrGasUintOverflow
	}
	// Since size <= params.MaxInitCodeSize, these multiplication cannot overflow
	moreGas := params.InitCodeWordGas * ((size + 31) / 32)
	if gas, overflow = safeAdd(gas, moreGas); overflow {
		return 0, ErrGasUintOverflow
	}
	return gas, nil
}

// gasCreate2EIP3860 meters the initcode of CREATE2 by word, replacing the
// plain keccak word cost (EIP-3860).
func gasCreate2EIP3860(in *Interpreter, scope *ScopeContext, stack *Stack, mem *Memory, memorySize uint64) (uint64, error) {
	gas, err := memoryGasCost(mem, memorySize)
	if err != nil {
		return 0, err
	}
	size, overflow := stack.Back(2).Uint64WithOverflow()
	if overflow || size > params.MaxInitCodeSize {
		return 0, ErrGasUintOverflow
	}
	// Since size <= params.MaxInitCodeSize, these multiplication cannot overflow
	moreGas := (params.InitCodeWordGas + params.Keccak256WordGas) * ((size + 31) / 32)
	if gas, overflow = safeAdd(gas, moreGas); overflow {
		return 0, ErrGasUintOverflow
	}
	return gas, nil
}

// makeCallGas builds the dynamic gas function of the CALL family. withValue
// marks variants whose third stack slot holds a transferred value,
// newAccountCheck adds the new-account surcharge for value sent to an empty
// account, and accessList selects EIP-2929 accounting.
func makeCallGas(withValue, newAccountCheck, accessList bool) gasFunc {
	return func(in *Interpreter, scope *ScopeContext, stack *Stack, mem *Memory, memorySize uint64) (uint64, error) {
		var (
			gas      uint64
			overflow bool
			ctx      = scope.Ctx
			addr     = common.Address(stack.Back(1).Bytes20())
		)
		if accessList {
			if ctx.Host.AccessAccount(addr) == ColdAccess {
				gas = params.ColdAccountAccessCostEIP2929
			} else {
				gas = params.WarmStorageReadCostEIP2929
			}
		}
		transfersValue := withValue && !stack.Back(2).IsZero()
		if transfersValue {
			gas += params.CallValueTransferGas
			if newAccountCheck && !ctx.Host.AccountExists(addr) {
				gas += params.CallNewAccountGas
			}
		}
		memoryGas, err := memoryGasCost(mem, memorySize)
		if err != nil {
			return 0, err
		}
		if gas, overflow = safeAdd(gas, memoryGas); overflow {
			return 0, ErrGasUintOverflow
		}
		// Apply the 63/64 rule to the gas that may be forwarded.
		if gas > ctx.GasRemaining {
			return 0, ErrOutOfGas
		}
		avail := ctx.GasRemaining - gas
		allowed := avail - avail/64
		requested := stack.Back(0)
		if !requested.IsUint64() || requested.Uint64() > allowed {
			in.callGasTemp = allowed
		} else {
			in.callGasTemp = requested.Uint64()
		}
		if gas, overflow = safeAdd(gas, in.callGasTemp); overflow {
			return 0, ErrGasUintOverflow
		}
		return gas, nil
	}
}

var (
	gasCall               = makeCallGas(true, true, false)
	gasCallEIP2929        = makeCallGas(true, true, true)
	gasCallCode           = makeCallGas(true, false, false)
	gasCallCodeEIP2929    = makeCallGas(true, false, true)
	gasDelegateCall       = makeCallGas(false, false, false)
	gasDelegateCallEIP2929 = makeCallGas(false, false, true)
	gasStaticCall         = makeCallGas(false, false, false)
	gasStaticCallEIP2929  = makeCallGas(false, false, true)
)

// makeGasSelfdestruct builds the SELFDESTRUCT gas function: free before
// Tangerine (eip150), then a flat cost plus, from Spurious Dragon (eip158),
// the new-account surcharge when value is moved to a fresh beneficiary, and
// the cold account access cost under EIP-2929 (accessList).
func makeGasSelfdestruct(eip150, eip158, accessList bool) gasFunc {
	return func(in *Interpreter, scope *ScopeContext, stack *Stack, mem *Memory, memorySize uint64) (uint64, error) {
		var (
			gas  uint64
			ctx  = scope.Ctx
			addr = common.Address(stack.Back(0).Bytes20())
		)
		if eip150 {
			gas = params.SelfdestructGasEIP150
			if eip158 {
				// if empty and transfers value
				if !ctx.Host.AccountExists(addr) && ctx.Host.GetBalance(ctx.Msg.Recipient).Sign() != 0 {
					gas += params.CreateBySelfdestructGas
				}
			}
		}
		if accessList && ctx.Host.AccessAccount(addr) == ColdAccess {
			gas += params.ColdAccountAccessCostEIP2929
		}
		return gas, nil
	}
}

var (
	gasSelfdestructFrontier = makeGasSelfdestruct(false, false, false)
	gasSelfdestructEIP150   = makeGasSelfdestruct(true, false, false)
	gasSelfdestructEIP158   = makeGasSelfdestruct(true, true, false)
	gasSelfdestructEIP2929  = makeGasSelfdestruct(true, true, true)
)
