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
	"github.com/holiman/uint256"
)

func opAdd(pc *uint64, in *Interpreter, scope *ScopeContext) ([]byte, error) {
	x, y := scope.Stack.pop(), scope.Stack.peek()
	y.Add(&x, y)
	return nil, nil
}

func opSub(pc *uint64, in *Interpreter, scope *ScopeContext) ([]byte, error) {
	x, y := scope.Stack.pop(), scope.Stack.peek()
	y.Sub(&x, y)
	return nil, nil
}

func opMul(pc *uint64, in *Interpreter, scope *ScopeContext) ([]byte, error) {
	x, y := scope.Stack.pop(), scope.Stack.peek()
	y.Mul(&x, y)
	return nil, nil
}

func opDiv(pc *uint64, in *Interpreter, scope *ScopeContext) ([]byte, error) {
	x, y := scope.Stack.pop(), scope.Stack.peek()
	y.Div(&x, y)
	return nil, nil
}

func opSdiv(pc *uint64, in *Interpreter, scope *ScopeContext) ([]byte, error) {
	x, y := scope.Stack.pop(), scope.Stack.peek()
	y.SDiv(&x, y)
	return nil, nil
}

func opMod(pc *uint64, in *Interpreter, scope *ScopeContext) ([]byte, error) {
	x, y := scope.Stack.pop(), scope.Stack.peek()
	y.Mod(&x, y)
	return nil, nil
}

func opSmod(pc *uint64, in *Interpreter, scope *ScopeContext) ([]byte, error) {
	x, y := scope.Stack.pop(), scope.Stack.peek()
	y.SMod(&x, y)
	return nil, nil
}

func opExp(pc *uint64, in *Interpreter, scope *ScopeContext) ([]byte, error) {
	base, exponent := scope.Stack.pop(), scope.Stack.peek()
	exponent.Exp(&base, exponent)
	return nil, nil
}

func opSignExtend(pc *uint64, in *Interpreter, scope *ScopeContext) ([]byte, error) {
	back, num := scope.Stack.pop(), scope.Stack.peek()
	num.ExtendSign(num, &back)
	return nil, nil
}

func opNot(pc *uint64, in *Interpreter, scope *ScopeContext) ([]byte, error) {
	x := scope.Stack.peek()
	x.Not(x)
	return nil, nil
}

func opLt(pc *uint64, in *Interpreter, scope *ScopeContext) ([]byte, error) {
	x, y := scope.Stack.pop(), scope.Stack.peek()
	if x.Lt(y) {
		y.SetOne()
	} else {
		y.Clear()
	}
	return nil, nil
}

func opGt(pc *uint64, in *Interpreter, scope *ScopeContext) ([]byte, error) {
	x, y := scope.Stack.pop(), scope.Stack.peek()
	if x.Gt(y) {
		y.SetOne()
	} else {
		y.Clear()
	}
	return nil, nil
}

func opSlt(pc *uint64, in *Interpreter, scope *ScopeContext) ([]byte, error) {
	x, y := scope.Stack.pop(), scope.Stack.peek()
	if x.Slt(y) {
		y.SetOne()
	} else {
		y.Clear()
	}
	return nil, nil
}

func opSgt(pc *uint64, in *Interpreter, scope *ScopeContext) ([]byte, error) {
	x, y := scope.Stack.pop(), scope.Stack.peek()
	if x.Sgt(y) {
		y.SetOne()
	} else {
		y.Clear()
	}
	return nil, nil
}

func opEq(pc *uint64, in *Interpreter, scope *ScopeContext) ([]byte, error) {
	x, y := scope.Stack.pop(), scope.Stack.peek()
	if x.Eq(y) {
		y.SetOne()
	} else {
		y.Clear()
	}
	return nil, nil
}

func opIszero(pc *uint64, in *Interpreter, scope *ScopeContext) ([]byte, error) {
	x := scope.Stack.peek()
	if x.IsZero() {
		x.SetOne()
	} else {
		x.Clear()
	}
	return nil, nil
}

func opAnd(pc *uint64, in *Interpreter, scope *ScopeContext) ([]byte, error) {
	x, y := scope.Stack.pop(), scope.Stack.peek()
	y.And(&x, y)
	return nil, nil
}

func opOr(pc *uint64, in *Interpreter, scope *ScopeContext) ([]byte, error) {
	x, y := scope.Stack.pop(), scope.Stack.peek()
	y.Or(&x, y)
	return nil, nil
}

func opXor(pc *uint64, in *Interpreter, scope *ScopeContext) ([]byte, error) {
	x, y := scope.Stack.pop(), scope.Stack.peek()
	y.Xor(&x, y)
	return nil, nil
}

func opByte(pc *uint64, in *Interpreter, scope *ScopeContext) ([]byte, error) {
	th, val := scope.Stack.pop(), scope.Stack.peek()
	val.Byte(&th)
	return nil, nil
}

func opAddmod(pc *uint64, in *Interpreter, scope *ScopeContext) ([]byte, error) {
	x, y, z := scope.Stack.pop(), scope.Stack.pop(), scope.Stack.peek()
	z.AddMod(&x, &y, z)
	return nil, nil
}

func opMulmod(pc *uint64, in *Interpreter, scope *ScopeContext) ([]byte, error) {
	x, y, z := scope.Stack.pop(), scope.Stack.pop(), scope.Stack.peek()
	z.MulMod(&x, &y, z)
	return nil, nil
}

// opSHL implements Shift Left
// The SHL instruction (shift left) pops 2 values from the stack, first arg1 and then arg2,
// and pushes on the stack arg2 shifted to the left by arg1 number of bits.
func opSHL(pc *uint64, in *Interpreter, scope *ScopeContext) ([]byte, error) {
	shift, value := scope.Stack.pop(), scope.Stack.peek()
	if shift.LtUint64(256) {
		value.Lsh(value, uint(shift.Uint64()))
	} else {
		value.Clear()
	}
	return nil, nil
}

// opSHR implements Logical Shift Right
// The SHR instruction (logical shift right) pops 2 values from the stack, first arg1 and then arg2,
// and pushes on the stack arg2 shifted to the right by arg1 number of bits with zero fill.
func opSHR(pc *uint64, in *Interpreter, scope *ScopeContext) ([]byte, error) {
	shift, value := scope.Stack.pop(), scope.Stack.peek()
	if shift.LtUint64(256) {
		value.Rsh(value, uint(shift.Uint64()))
	} else {
		value.Clear()
	}
	return nil, nil
}

// opSAR implements Arithmetic Shift Right
// The SAR instruction (arithmetic shift right) pops 2 values from the stack, first arg1 and then arg2,
// and pushes on the stack arg2 shifted to the right by arg1 number of bits with sign extension.
func opSAR(pc *uint64, in *Interpreter, scope *ScopeContext) ([]byte, error) {
	shift, value := scope.Stack.pop(), scope.Stack.peek()
	if shift.GtUint64(256) {
		if value.Sign() >= 0 {
			value.Clear()
		} else {
			// Max negative shift: all bits set
			value.SetAllOne()
		}
		return nil, nil
	}
	n := uint(shift.Uint64())
	value.SRsh(value, n)
	return nil, nil
}

func opKeccak256(pc *uint64, in *Interpreter, scope *ScopeContext) ([]byte, error) {
	offset, size := scope.Stack.pop(), scope.Stack.peek()
	data := scope.Memory.GetPtr(offset.Uint64(), size.Uint64())

	if in.hasher == nil {
		in.hasher = newKeccakState()
	} else {
		in.hasher.Reset()
	}
	in.hasher.Write(data)
	in.hasher.Read(in.hasherBuf[:])

	size.SetBytes(in.hasherBuf[:])
	return nil, nil
}

func opAddress(pc *uint64, in *Interpreter, scope *ScopeContext) ([]byte, error) {
	scope.Stack.push(new(uint256.Int).SetBytes(scope.Ctx.Msg.Recipient.Bytes()))
	return nil, nil
}

func opBalance(pc *uint64, in *Interpreter, scope *ScopeContext) ([]byte, error) {
	slot := scope.Stack.peek()
	address := common.Address(slot.Bytes20())
	slot.Set(scope.Ctx.Host.GetBalance(address))
	return nil, nil
}

func opOrigin(pc *uint64, in *Interpreter, scope *ScopeContext) ([]byte, error) {
	txCtx := scope.Ctx.Host.GetTxContext()
	scope.Stack.push(new(uint256.Int).SetBytes(txCtx.Origin.Bytes()))
	return nil, nil
}

func opCaller(pc *uint64, in *Interpreter, scope *ScopeContext) ([]byte, error) {
	scope.Stack.push(new(uint256.Int).SetBytes(scope.Ctx.Msg.Sender.Bytes()))
	return nil, nil
}

func opCallValue(pc *uint64, in *Interpreter, scope *ScopeContext) ([]byte, error) {
	scope.Stack.push(new(uint256.Int).Set(&scope.Ctx.Msg.Value))
	return nil, nil
}

func opCallDataLoad(pc *uint64, in *Interpreter, scope *ScopeContext) ([]byte, error) {
	x := scope.Stack.peek()
	if offset, overflow := x.Uint64WithOverflow(); !overflow {
		data := getData(scope.Ctx.Msg.Input, offset, 32)
		x.SetBytes(data)
	} else {
		x.Clear()
	}
	return nil, nil
}

func opCallDataSize(pc *uint64, in *Interpreter, scope *ScopeContext) ([]byte, error) {
	scope.Stack.push(new(uint256.Int).SetUint64(uint64(len(scope.Ctx.Msg.Input))))
	return nil, nil
}

func opCallDataCopy(pc *uint64, in *Interpreter, scope *ScopeContext) ([]byte, error) {
	var (
		memOffset  = scope.Stack.pop()
		dataOffset = scope.Stack.pop()
		length     = scope.Stack.pop()
	)
	dataOffset64, overflow := dataOffset.Uint64WithOverflow()
	if overflow {
		dataOffset64 = 0xffffffffffffffff
	}
	// These values are checked for overflow during gas cost calculation
	memOffset64 := memOffset.Uint64()
	length64 := length.Uint64()
	scope.Memory.Set(memOffset64, length64, getData(scope.Ctx.Msg.Input, dataOffset64, length64))
	return nil, nil
}

func opReturnDataSize(pc *uint64, in *Interpreter, scope *ScopeContext) ([]byte, error) {
	scope.Stack.push(new(uint256.Int).SetUint64(uint64(len(in.returnData))))
	return nil, nil
}

func opReturnDataCopy(pc *uint64, in *Interpreter, scope *ScopeContext) ([]byte, error) {
	var (
		memOffset  = scope.Stack.pop()
		dataOffset = scope.Stack.pop()
		length     = scope.Stack.pop()
	)
	offset64, overflow := dataOffset.Uint64WithOverflow()
	if overflow {
		return nil, ErrReturnDataOutOfBounds
	}
	// we can reuse dataOffset now (aliasing it for clarity)
	var end = dataOffset
	end.Add(&dataOffset, &length)
	end64, overflow := end.Uint64WithOverflow()
	if overflow || uint64(len(in.returnData)) < end64 {
		return nil, ErrReturnDataOutOfBounds
	}
	scope.Memory.Set(memOffset.Uint64(), length.Uint64(), in.returnData[offset64:end64])
	return nil, nil
}

func opExtCodeSize(pc *uint64, in *Interpreter, scope *ScopeContext) ([]byte, error) {
	slot := scope.Stack.peek()
	slot.SetUint64(uint64(scope.Ctx.Host.GetCodeSize(common.Address(slot.Bytes20()))))
	return nil, nil
}

func opCodeSize(pc *uint64, in *Interpreter, scope *ScopeContext) ([]byte, error) {
	scope.Stack.push(new(uint256.Int).SetUint64(uint64(len(scope.Ctx.Code))))
	return nil, nil
}

func opCodeCopy(pc *uint64, in *Interpreter, scope *ScopeContext) ([]byte, error) {
	var (
		memOffset  = scope.Stack.pop()
		codeOffset = scope.Stack.pop()
		length     = scope.Stack.pop()
	)
	uint64CodeOffset, overflow := codeOffset.Uint64WithOverflow()
	if overflow {
		uint64CodeOffset = 0xffffffffffffffff
	}
	codeCopy := getData(scope.Ctx.Code, uint64CodeOffset, length.Uint64())
	scope.Memory.Set(memOffset.Uint64(), length.Uint64(), codeCopy)
	return nil, nil
}

func opExtCodeCopy(pc *uint64, in *Interpreter, scope *ScopeContext) ([]byte, error) {
	var (
		stack      = scope.Stack
		a          = stack.pop()
		memOffset  = stack.pop()
		codeOffset = stack.pop()
		length     = stack.pop()
	)
	uint64CodeOffset, overflow := codeOffset.Uint64WithOverflow()
	if overflow {
		uint64CodeOffset = 0xffffffffffffffff
	}
	addr := common.Address(a.Bytes20())
	if length64 := length.Uint64(); length64 > 0 {
		// Anything past the account's code stays zero padded.
		buf := make([]byte, length64)
		if uint64CodeOffset <= uint64(int(^uint(0)>>1)) {
			scope.Ctx.Host.CopyCode(addr, int(uint64CodeOffset), buf)
		}
		scope.Memory.Set(memOffset.Uint64(), length64, buf)
	}
	return nil, nil
}

// opExtCodeHash returns the code hash of a specified account.
func opExtCodeHash(pc *uint64, in *Interpreter, scope *ScopeContext) ([]byte, error) {
	slot := scope.Stack.peek()
	address := common.Address(slot.Bytes20())
	hash := scope.Ctx.Host.GetCodeHash(address)
	slot.SetBytes(hash.Bytes())
	return nil, nil
}

func opGasprice(pc *uint64, in *Interpreter, scope *ScopeContext) ([]byte, error) {
	txCtx := scope.Ctx.Host.GetTxContext()
	scope.Stack.push(new(uint256.Int).Set(&txCtx.GasPrice))
	return nil, nil
}

func opBlockhash(pc *uint64, in *Interpreter, scope *ScopeContext) ([]byte, error) {
	num := scope.Stack.peek()
	num64, overflow := num.Uint64WithOverflow()
	if overflow || num64 > uint64(int64(^uint64(0)>>1)) {
		num.Clear()
		return nil, nil
	}
	hash := scope.Ctx.Host.GetBlockHash(int64(num64))
	num.SetBytes(hash.Bytes())
	return nil, nil
}

func opCoinbase(pc *uint64, in *Interpreter, scope *ScopeContext) ([]byte, error) {
	txCtx := scope.Ctx.Host.GetTxContext()
	scope.Stack.push(new(uint256.Int).SetBytes(txCtx.Coinbase.Bytes()))
	return nil, nil
}

func opTimestamp(pc *uint64, in *Interpreter, scope *ScopeContext) ([]byte, error) {
	txCtx := scope.Ctx.Host.GetTxContext()
	scope.Stack.push(new(uint256.Int).SetUint64(uint64(txCtx.Timestamp)))
	return nil, nil
}

func opNumber(pc *uint64, in *Interpreter, scope *ScopeContext) ([]byte, error) {
	txCtx := scope.Ctx.Host.GetTxContext()
	scope.Stack.push(new(uint256.Int).SetUint64(uint64(txCtx.BlockNumber)))
	return nil, nil
}

func opDifficulty(pc *uint64, in *Interpreter, scope *ScopeContext) ([]byte, error) {
	txCtx := scope.Ctx.Host.GetTxContext()
	scope.Stack.push(new(uint256.Int).SetBytes(txCtx.PrevRandao.Bytes()))
	return nil, nil
}

// opRandom pushes the block's post-merge randomness beacon (EIP-4399).
func opRandom(pc *uint64, in *Interpreter, scope *ScopeContext) ([]byte, error) {
	txCtx := scope.Ctx.Host.GetTxContext()
	scope.Stack.push(new(uint256.Int).SetBytes(txCtx.PrevRandao.Bytes()))
	return nil, nil
}

func opGasLimit(pc *uint64, in *Interpreter, scope *ScopeContext) ([]byte, error) {
	txCtx := scope.Ctx.Host.GetTxContext()
	scope.Stack.push(new(uint256.Int).SetUint64(txCtx.GasLimit))
	return nil, nil
}

func opChainID(pc *uint64, in *Interpreter, scope *ScopeContext) ([]byte, error) {
	scope.Stack.push(new(uint256.Int).Set(&scope.Ctx.Params.ChainID))
	return nil, nil
}

func opSelfBalance(pc *uint64, in *Interpreter, scope *ScopeContext) ([]byte, error) {
	scope.Stack.push(new(uint256.Int).Set(scope.Ctx.Host.GetBalance(scope.Ctx.Msg.Recipient)))
	return nil, nil
}

// opBaseFee implements BASEFEE opcode
func opBaseFee(pc *uint64, in *Interpreter, scope *ScopeContext) ([]byte, error) {
	txCtx := scope.Ctx.Host.GetTxContext()
	scope.Stack.push(new(uint256.Int).Set(&txCtx.BaseFee))
	return nil, nil
}

// opBlobHash implements the BLOBHASH opcode
func opBlobHash(pc *uint64, in *Interpreter, scope *ScopeContext) ([]byte, error) {
	index := scope.Stack.peek()
	if index.LtUint64(uint64(int(^uint(0)>>1))) {
		hash := scope.Ctx.Host.GetBlobHash(int(index.Uint64()))
		index.SetBytes(hash.Bytes())
	} else {
		index.Clear()
	}
	return nil, nil
}

// opBlobBaseFee implements the BLOBBASEFEE opcode
func opBlobBaseFee(pc *uint64, in *Interpreter, scope *ScopeContext) ([]byte, error) {
	txCtx := scope.Ctx.Host.GetTxContext()
	scope.Stack.push(new(uint256.Int).Set(&txCtx.BlobBaseFee))
	return nil, nil
}

func opPop(pc *uint64, in *Interpreter, scope *ScopeContext) ([]byte, error) {
	scope.Stack.pop()
	return nil, nil
}

func opMload(pc *uint64, in *Interpreter, scope *ScopeContext) ([]byte, error) {
	v := scope.Stack.peek()
	offset := v.Uint64()
	v.SetBytes(scope.Memory.GetPtr(offset, 32))
	return nil, nil
}

func opMstore(pc *uint64, in *Interpreter, scope *ScopeContext) ([]byte, error) {
	mStart, val := scope.Stack.pop(), scope.Stack.pop()
	scope.Memory.Set32(mStart.Uint64(), &val)
	return nil, nil
}

func opMstore8(pc *uint64, in *Interpreter, scope *ScopeContext) ([]byte, error) {
	off, val := scope.Stack.pop(), scope.Stack.pop()
	scope.Memory.store[off.Uint64()] = byte(val.Uint64())
	return nil, nil
}

func opSload(pc *uint64, in *Interpreter, scope *ScopeContext) ([]byte, error) {
	loc := scope.Stack.peek()
	hash := common.Hash(loc.Bytes32())
	val := scope.Ctx.Host.GetStorage(scope.Ctx.Msg.Recipient, hash)
	loc.SetBytes(val.Bytes())
	return nil, nil
}

func opSstore(pc *uint64, in *Interpreter, scope *ScopeContext) ([]byte, error) {
	var (
		ctx   = scope.Ctx
		loc   = scope.Stack.pop()
		val   = scope.Stack.pop()
		key   = common.Hash(loc.Bytes32())
		value = common.Hash(val.Bytes32())
	)
	if in.rev >= Istanbul {
		// EIP-2200 net gas metering with the EIP-2929/3529 adjustments.
		if ctx.GasRemaining <= params.SstoreSentryGasEIP2200 {
			return nil, ErrOutOfGas
		}
		var cost uint64
		if in.rev >= Berlin {
			if ctx.Host.AccessStorage(ctx.Msg.Recipient, key) == ColdAccess {
				cost = params.ColdSloadCostEIP2929
			}
		}
		status := ctx.Host.SetStorage(ctx.Msg.Recipient, key, value)
		gas, refund := sstoreGasEIP2200(in.rev, status)
		cost += gas
		if !ctx.UseGas(cost) {
			return nil, ErrOutOfGas
		}
		ctx.GasRefund += refund
		return nil, nil
	}
	// Legacy schedule, charged off the current value prior to the write.
	current := ctx.Host.GetStorage(ctx.Msg.Recipient, key)
	zero := common.Hash{}
	var cost uint64
	switch {
	case current == zero && value != zero:
		cost = params.SstoreSetGas
	case current != zero && value == zero:
		cost = params.SstoreClearGas
	default:
		cost = params.SstoreResetGas
	}
	if !ctx.UseGas(cost) {
		return nil, ErrOutOfGas
	}
	if current != zero && value == zero {
		ctx.GasRefund += int64(params.SstoreRefundGas)
	}
	ctx.Host.SetStorage(ctx.Msg.Recipient, key, value)
	return nil, nil
}

// sstoreGasEIP2200 maps the storage status reported by the host to the net
// gas metering cost and refund of the given revision.
func sstoreGasEIP2200(rev Revision, status StorageStatus) (uint64, int64) {
	var (
		warm  = params.SloadGasEIP1884
		reset = params.SstoreResetGasEIP2200
		set   = params.SstoreSetGasEIP2200
		clear = int64(params.SstoreClearsScheduleRefundEIP2200)
	)
	if rev >= Berlin {
		warm = params.WarmStorageReadCostEIP2929
		reset = params.SstoreResetGasEIP2200 - params.ColdSloadCostEIP2929
	}
	if rev >= London {
		clear = int64(params.SstoreClearsScheduleRefundEIP3529)
	}
	switch status {
	case StorageAdded:
		return set, 0
	case StorageDeleted:
		return reset, clear
	case StorageModified:
		return reset, 0
	case StorageDeletedAdded:
		return warm, -clear
	case StorageModifiedDeleted:
		return warm, clear
	case StorageDeletedRestored:
		return warm, -clear + int64(reset) - int64(warm)
	case StorageAddedDeleted:
		return warm, int64(set) - int64(warm)
	case StorageModifiedRestored:
		return warm, int64(reset) - int64(warm)
	default: // StorageAssigned
		return warm, 0
	}
}

func opTload(pc *uint64, in *Interpreter, scope *ScopeContext) ([]byte, error) {
	loc := scope.Stack.peek()
	hash := common.Hash(loc.Bytes32())
	val := scope.Ctx.Host.GetTransientStorage(scope.Ctx.Msg.Recipient, hash)
	loc.SetBytes(val.Bytes())
	return nil, nil
}

func opTstore(pc *uint64, in *Interpreter, scope *ScopeContext) ([]byte, error) {
	var (
		loc   = scope.Stack.pop()
		val   = scope.Stack.pop()
		key   = common.Hash(loc.Bytes32())
		value = common.Hash(val.Bytes32())
	)
	scope.Ctx.Host.SetTransientStorage(scope.Ctx.Msg.Recipient, key, value)
	return nil, nil
}

// opMcopy implements the MCOPY memory copy instruction (EIP-5656)
func opMcopy(pc *uint64, in *Interpreter, scope *ScopeContext) ([]byte, error) {
	var (
		dst    = scope.Stack.pop()
		src    = scope.Stack.pop()
		length = scope.Stack.pop()
	)
	// These values are checked for overflow during memory expansion calculation
	scope.Memory.Copy(dst.Uint64(), src.Uint64(), length.Uint64())
	return nil, nil
}

func opJump(pc *uint64, in *Interpreter, scope *ScopeContext) ([]byte, error) {
	pos := scope.Stack.pop()
	if !pos.IsUint64() || !scope.icode.ValidJumpdest(pos.Uint64()) {
		return nil, ErrInvalidJump
	}
	*pc = pos.Uint64()
	return nil, nil
}

func opJumpi(pc *uint64, in *Interpreter, scope *ScopeContext) ([]byte, error) {
	pos, cond := scope.Stack.pop(), scope.Stack.pop()
	if !cond.IsZero() {
		if !pos.IsUint64() || !scope.icode.ValidJumpdest(pos.Uint64()) {
			return nil, ErrInvalidJump
		}
		*pc = pos.Uint64()
	} else {
		*pc++
	}
	return nil, nil
}

func opJumpdest(pc *uint64, in *Interpreter, scope *ScopeContext) ([]byte, error) {
	return nil, nil
}

func opPc(pc *uint64, in *Interpreter, scope *ScopeContext) ([]byte, error) {
	scope.Stack.push(new(uint256.Int).SetUint64(*pc))
	return nil, nil
}

func opMsize(pc *uint64, in *Interpreter, scope *ScopeContext) ([]byte, error) {
	scope.Stack.push(new(uint256.Int).SetUint64(uint64(scope.Memory.Len())))
	return nil, nil
}

func opGas(pc *uint64, in *Interpreter, scope *ScopeContext) ([]byte, error) {
	scope.Stack.push(new(uint256.Int).SetUint64(scope.Ctx.GasRemaining))
	return nil, nil
}

func opCreate(pc *uint64, in *Interpreter, scope *ScopeContext) ([]byte, error) {
	var (
		ctx    = scope.Ctx
		value  = scope.Stack.pop()
		offset = scope.Stack.pop()
		size   = scope.Stack.pop()
		input  = scope.Memory.GetCopy(offset.Uint64(), size.Uint64())
		gas    = ctx.GasRemaining
	)
	if in.rev >= TangerineWhistle {
		gas -= gas / 64
	}
	// reuse size int for stackvalue
	stackvalue := size

	ctx.UseGas(gas)
	res := ctx.Host.Call(CallParams{
		Kind:      CallKindCreate,
		Depth:     ctx.Msg.Depth + 1,
		Gas:       gas,
		Sender:    ctx.Msg.Recipient,
		Input:     input,
		Value:     value,
	})
	if res.Success {
		stackvalue.SetBytes(res.CreatedAddress.Bytes())
		in.returnData = nil
	} else {
		stackvalue.Clear()
		in.returnData = res.Output
	}
	scope.Stack.push(&stackvalue)
	ctx.GasRemaining += res.GasLeft
	ctx.GasRefund += res.GasRefund
	return nil, nil
}

func opCreate2(pc *uint64, in *Interpreter, scope *ScopeContext) ([]byte, error) {
	var (
		ctx      = scope.Ctx
		endowment = scope.Stack.pop()
		offset   = scope.Stack.pop()
		size     = scope.Stack.pop()
		salt     = scope.Stack.pop()
		input    = scope.Memory.GetCopy(offset.Uint64(), size.Uint64())
		gas      = ctx.GasRemaining
	)
	// Apply EIP150
	gas -= gas / 64
	ctx.UseGas(gas)
	// reuse size int for stackvalue
	stackvalue := size
	res := ctx.Host.Call(CallParams{
		Kind:      CallKindCreate2,
		Depth:     ctx.Msg.Depth + 1,
		Gas:       gas,
		Sender:    ctx.Msg.Recipient,
		Input:     input,
		Value:     endowment,
		Salt:      common.Hash(salt.Bytes32()),
	})
	if res.Success {
		stackvalue.SetBytes(res.CreatedAddress.Bytes())
		in.returnData = nil
	} else {
		stackvalue.Clear()
		in.returnData = res.Output
	}
	scope.Stack.push(&stackvalue)
	ctx.GasRemaining += res.GasLeft
	ctx.GasRefund += res.GasRefund
	return nil, nil
}

func opCall(pc *uint64, in *Interpreter, scope *ScopeContext) ([]byte, error) {
	var (
		ctx   = scope.Ctx
		stack = scope.Stack
	)
	// Pop gas. The actual gas in interpreter.callGasTemp.
	// We can use this as a temporary value
	temp := stack.pop()
	gas := in.callGasTemp
	// Pop other call parameters.
	addr, value, inOffset, inSize, retOffset, retSize := stack.pop(), stack.pop(), stack.pop(), stack.pop(), stack.pop(), stack.pop()
	toAddr := common.Address(addr.Bytes20())
	// Get the arguments from the memory.
	args := scope.Memory.GetPtr(inOffset.Uint64(), inSize.Uint64())

	if !value.IsZero() {
		gas += params.CallStipend
	}
	res := ctx.Host.Call(CallParams{
		Kind:      CallKindCall,
		Static:    in.readOnly,
		Depth:     ctx.Msg.Depth + 1,
		Gas:       gas,
		Recipient: toAddr,
		Sender:    ctx.Msg.Recipient,
		Input:     args,
		Value:     value,
	})
	if res.Success {
		temp.SetOne()
	} else {
		temp.Clear()
	}
	stack.push(&temp)
	if len(res.Output) > 0 {
		scope.Memory.Set(retOffset.Uint64(), min(retSize.Uint64(), uint64(len(res.Output))), res.Output)
	}
	ctx.GasRemaining += res.GasLeft
	ctx.GasRefund += res.GasRefund
	in.returnData = res.Output
	return nil, nil
}

func opCallCode(pc *uint64, in *Interpreter, scope *ScopeContext) ([]byte, error) {
	var (
		ctx   = scope.Ctx
		stack = scope.Stack
	)
	temp := stack.pop()
	gas := in.callGasTemp
	addr, value, inOffset, inSize, retOffset, retSize := stack.pop(), stack.pop(), stack.pop(), stack.pop(), stack.pop(), stack.pop()
	toAddr := common.Address(addr.Bytes20())
	args := scope.Memory.GetPtr(inOffset.Uint64(), inSize.Uint64())

	if !value.IsZero() {
		gas += params.CallStipend
	}
	res := ctx.Host.Call(CallParams{
		Kind:        CallKindCallCode,
		Static:      in.readOnly,
		Depth:       ctx.Msg.Depth + 1,
		Gas:         gas,
		Recipient:   ctx.Msg.Recipient,
		Sender:      ctx.Msg.Recipient,
		Input:       args,
		Value:       value,
		CodeAddress: toAddr,
	})
	if res.Success {
		temp.SetOne()
	} else {
		temp.Clear()
	}
	stack.push(&temp)
	if len(res.Output) > 0 {
		scope.Memory.Set(retOffset.Uint64(), min(retSize.Uint64(), uint64(len(res.Output))), res.Output)
	}
	ctx.GasRemaining += res.GasLeft
	ctx.GasRefund += res.GasRefund
	in.returnData = res.Output
	return nil, nil
}

func opDelegateCall(pc *uint64, in *Interpreter, scope *ScopeContext) ([]byte, error) {
	var (
		ctx   = scope.Ctx
		stack = scope.Stack
	)
	temp := stack.pop()
	gas := in.callGasTemp
	addr, inOffset, inSize, retOffset, retSize := stack.pop(), stack.pop(), stack.pop(), stack.pop(), stack.pop()
	toAddr := common.Address(addr.Bytes20())
	args := scope.Memory.GetPtr(inOffset.Uint64(), inSize.Uint64())

	res := ctx.Host.Call(CallParams{
		Kind:        CallKindDelegateCall,
		Static:      in.readOnly,
		Depth:       ctx.Msg.Depth + 1,
		Gas:         gas,
		Recipient:   ctx.Msg.Recipient,
		Sender:      ctx.Msg.Sender,
		Input:       args,
		Value:       ctx.Msg.Value,
		CodeAddress: toAddr,
	})
	if res.Success {
		temp.SetOne()
	} else {
		temp.Clear()
	}
	stack.push(&temp)
	if len(res.Output) > 0 {
		scope.Memory.Set(retOffset.Uint64(), min(retSize.Uint64(), uint64(len(res.Output))), res.Output)
	}
	ctx.GasRemaining += res.GasLeft
	ctx.GasRefund += res.GasRefund
	in.returnData = res.Output
	return nil, nil
}

func opStaticCall(pc *uint64, in *Interpreter, scope *ScopeContext) ([]byte, error) {
	var (
		ctx   = scope.Ctx
		stack = scope.Stack
	)
	temp := stack.pop()
	gas := in.callGasTemp
	addr, inOffset, inSize, retOffset, retSize := stack.pop(), stack.pop(), stack.pop(), stack.pop(), stack.pop()
	toAddr := common.Address(addr.Bytes20())
	args := scope.Memory.GetPtr(inOffset.Uint64(), inSize.Uint64())

	res := ctx.Host.Call(CallParams{
		Kind:      CallKindStaticCall,
		Static:    true,
		Depth:     ctx.Msg.Depth + 1,
		Gas:       gas,
		Recipient: toAddr,
		Sender:    ctx.Msg.Recipient,
		Input:     args,
	})
	if res.Success {
		temp.SetOne()
	} else {
		temp.Clear()
	}
	stack.push(&temp)
	if len(res.Output) > 0 {
		scope.Memory.Set(retOffset.Uint64(), min(retSize.Uint64(), uint64(len(res.Output))), res.Output)
	}
	ctx.GasRemaining += res.GasLeft
	ctx.GasRefund += res.GasRefund
	in.returnData = res.Output
	return nil, nil
}

func opReturn(pc *uint64, in *Interpreter, scope *ScopeContext) ([]byte, error) {
	offset, size := scope.Stack.pop(), scope.Stack.pop()
	ret := scope.Memory.GetCopy(offset.Uint64(), size.Uint64())
	return ret, nil
}

func opRevert(pc *uint64, in *Interpreter, scope *ScopeContext) ([]byte, error) {
	offset, size := scope.Stack.pop(), scope.Stack.pop()
	ret := scope.Memory.GetCopy(offset.Uint64(), size.Uint64())
	return ret, nil
}

func opStop(pc *uint64, in *Interpreter, scope *ScopeContext) ([]byte, error) {
	return nil, nil
}

func opSelfdestruct(pc *uint64, in *Interpreter, scope *ScopeContext) ([]byte, error) {
	beneficiary := scope.Stack.pop()
	first := scope.Ctx.Host.SelfDestruct(scope.Ctx.Msg.Recipient, common.Address(beneficiary.Bytes20()))
	if first && in.rev < London {
		scope.Ctx.GasRefund += int64(params.SelfdestructRefundGas)
	}
	return nil, nil
}

// make log instruction function
func makeLog(size int) executionFunc {
	return func(pc *uint64, in *Interpreter, scope *ScopeContext) ([]byte, error) {
		topics := make([]common.Hash, size)
		stack := scope.Stack
		mStart, mSize := stack.pop(), stack.pop()
		for i := 0; i < size; i++ {
			addr := stack.pop()
			topics[i] = common.Hash(addr.Bytes32())
		}
		d := scope.Memory.GetCopy(mStart.Uint64(), mSize.Uint64())
		scope.Ctx.Host.EmitLog(scope.Ctx.Msg.Recipient, topics, d)
		return nil, nil
	}
}

// opPush0 implements the PUSH0 opcode (EIP-3855)
func opPush0(pc *uint64, in *Interpreter, scope *ScopeContext) ([]byte, error) {
	scope.Stack.push(new(uint256.Int))
	return nil, nil
}

// opPush1 is a specialized version of pushN
func opPush1(pc *uint64, in *Interpreter, scope *ScopeContext) ([]byte, error) {
	var (
		codeLen = uint64(len(scope.Ctx.Code))
		integer = new(uint256.Int)
	)
	*pc += 1
	if *pc < codeLen {
		scope.Stack.push(integer.SetUint64(uint64(scope.Ctx.Code[*pc])))
	} else {
		scope.Stack.push(integer.Clear())
	}
	return nil, nil
}

// make push instruction function
func makePush(size uint64, pushByteSize int) executionFunc {
	return func(pc *uint64, in *Interpreter, scope *ScopeContext) ([]byte, error) {
		var (
			codeLen = len(scope.Ctx.Code)
			start   = min(codeLen, int(*pc+1))
			end     = min(codeLen, start+pushByteSize)
		)
		scope.Stack.push(new(uint256.Int).SetBytes(
			common.RightPadBytes(scope.Ctx.Code[start:end], pushByteSize)))
		*pc += size
		return nil, nil
	}
}

// make dup instruction function
func makeDup(size int64) executionFunc {
	return func(pc *uint64, in *Interpreter, scope *ScopeContext) ([]byte, error) {
		scope.Stack.dup(int(size))
		return nil, nil
	}
}

// make swap instruction function
func makeSwap(size int64) executionFunc {
	// switch n + 1 otherwise n would be swapped with n
	size++
	return func(pc *uint64, in *Interpreter, scope *ScopeContext) ([]byte, error) {
		scope.Stack.swap(int(size))
		return nil, nil
	}
}
