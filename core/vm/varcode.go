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
	"math"
	"sync/atomic"
)

// Varcode is the per-contract cache record: the analyzed intercode, the
// optional compiled nativecode and the gas spent interpreting the contract
// so far. The nativecode slot never regresses to empty once set; the only
// permitted second write replaces code compiled for a different chain id
// after a revision change.
type Varcode struct {
	icode    *Intercode
	ncode    atomic.Pointer[Nativecode]
	interGas atomic.Uint64 // gas spent in the interpreter, saturating
}

// NewVarcode creates a varcode wrapping the given intercode with an empty
// nativecode slot.
func NewVarcode(icode *Intercode) *Varcode {
	return &Varcode{icode: icode}
}

// Intercode returns the analyzed bytecode. Never nil.
func (vc *Varcode) Intercode() *Intercode {
	return vc.icode
}

// Nativecode returns the compiled code, or nil if no compilation has been
// published yet. The load synchronizes with PublishNativecode, so a non-nil
// result is always fully constructed.
func (vc *Varcode) Nativecode() *Nativecode {
	return vc.ncode.Load()
}

// PublishNativecode installs nc into the nativecode slot. The first publish
// for a chain id wins; later results for the same chain id are dropped so a
// successful compile is never replaced by a failure sentinel. Code compiled
// for a different chain id is overwritten, which is the revision-change path.
func (vc *Varcode) PublishNativecode(nc *Nativecode) {
	for {
		old := vc.ncode.Load()
		if old != nil && old.chainID == nc.chainID {
			return
		}
		if vc.ncode.CompareAndSwap(old, nc) {
			return
		}
	}
}

// AddIntercodeGas adds gas to the accumulated interpreted-gas counter and
// returns the new total. The counter saturates instead of wrapping and is
// never reset, so re-executions keep counting toward the compile trigger.
func (vc *Varcode) AddIntercodeGas(gas uint64) uint64 {
	for {
		old := vc.interGas.Load()
		sum := old + gas
		if sum < old {
			sum = math.MaxUint64
		}
		if vc.interGas.CompareAndSwap(old, sum) {
			return sum
		}
	}
}

// IntercodeGas returns the accumulated interpreted gas.
func (vc *Varcode) IntercodeGas() uint64 {
	return vc.interGas.Load()
}

// CacheWeight implements lru.Weighted. The weight of a varcode against the
// cache budget is its bytecode size, with a floor of one so empty contracts
// still cost an entry.
func (vc *Varcode) CacheWeight() uint32 {
	size := vc.icode.Size()
	if size < 1 {
		return 1
	}
	if size > math.MaxUint32 {
		return math.MaxUint32
	}
	return uint32(size)
}
