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

	"github.com/embervm/go-ember/common"
	"github.com/embervm/go-ember/crypto"
	"github.com/holiman/uint256"
)

// errStubHostFailure stands in for a failure recorded by the host during a
// callback, surfaced through RethrowOnActiveException.
var errStubHostFailure = errors.New("stub host failure")

// testHost is a self-contained host for exercising the interpreter and the
// compiled tier without a surrounding chain. Nested calls answer with a
// canned result.
type testHost struct {
	storage   map[common.Address]map[common.Hash]common.Hash
	original  map[common.Address]map[common.Hash]common.Hash
	transient map[common.Address]map[common.Hash]common.Hash
	balances  map[common.Address]*uint256.Int
	code      map[common.Address][]byte

	accessedAccounts map[common.Address]struct{}
	accessedSlots    map[common.Address]map[common.Hash]struct{}

	txCtx      TxContext
	calls      []CallParams
	callResult CallResult
	destructed map[common.Address]struct{}
	logs       int

	ctxDepth   int
	pendingErr error
}

func newTestHost() *testHost {
	return &testHost{
		storage:          make(map[common.Address]map[common.Hash]common.Hash),
		original:         make(map[common.Address]map[common.Hash]common.Hash),
		transient:        make(map[common.Address]map[common.Hash]common.Hash),
		balances:         make(map[common.Address]*uint256.Int),
		code:             make(map[common.Address][]byte),
		accessedAccounts: make(map[common.Address]struct{}),
		accessedSlots:    make(map[common.Address]map[common.Hash]struct{}),
		destructed:       make(map[common.Address]struct{}),
	}
}

func (h *testHost) AccountExists(addr common.Address) bool {
	if b, ok := h.balances[addr]; ok && b.Sign() != 0 {
		return true
	}
	return len(h.code[addr]) > 0
}

func (h *testHost) GetStorage(addr common.Address, key common.Hash) common.Hash {
	return h.storage[addr][key]
}

func (h *testHost) SetStorage(addr common.Address, key, value common.Hash) StorageStatus {
	slots := h.storage[addr]
	if slots == nil {
		slots = make(map[common.Hash]common.Hash)
		h.storage[addr] = slots
	}
	orig := h.original[addr]
	if orig == nil {
		orig = make(map[common.Hash]common.Hash)
		h.original[addr] = orig
	}
	current := slots[key]
	original, ok := orig[key]
	if !ok {
		original = current
		orig[key] = original
	}
	slots[key] = value

	zero := common.Hash{}
	switch {
	case current == value:
		return StorageAssigned
	case original == current && original == zero:
		return StorageAdded
	case original == current && value == zero:
		return StorageDeleted
	case original == current:
		return StorageModified
	case original != zero && current == zero && value == original:
		return StorageDeletedRestored
	case original != zero && current == zero:
		return StorageDeletedAdded
	case original != zero && value == zero:
		return StorageModifiedDeleted
	case original != zero && value == original:
		return StorageModifiedRestored
	case original == zero && value == zero:
		return StorageAddedDeleted
	default:
		return StorageAssigned
	}
}

func (h *testHost) GetTransientStorage(addr common.Address, key common.Hash) common.Hash {
	return h.transient[addr][key]
}

func (h *testHost) SetTransientStorage(addr common.Address, key, value common.Hash) {
	slots := h.transient[addr]
	if slots == nil {
		slots = make(map[common.Hash]common.Hash)
		h.transient[addr] = slots
	}
	slots[key] = value
}

func (h *testHost) GetBalance(addr common.Address) *uint256.Int {
	if b, ok := h.balances[addr]; ok {
		return new(uint256.Int).Set(b)
	}
	return new(uint256.Int)
}

func (h *testHost) GetCodeSize(addr common.Address) int {
	return len(h.code[addr])
}

func (h *testHost) GetCodeHash(addr common.Address) common.Hash {
	if code, ok := h.code[addr]; ok {
		return crypto.Keccak256Hash(code)
	}
	return common.Hash{}
}

func (h *testHost) CopyCode(addr common.Address, offset int, buf []byte) int {
	code := h.code[addr]
	if offset >= len(code) {
		return 0
	}
	return copy(buf, code[offset:])
}

func (h *testHost) SelfDestruct(addr, beneficiary common.Address) bool {
	if _, ok := h.destructed[addr]; ok {
		return false
	}
	h.destructed[addr] = struct{}{}
	return true
}

func (h *testHost) Call(p CallParams) CallResult {
	h.calls = append(h.calls, p)
	return h.callResult
}

func (h *testHost) EmitLog(addr common.Address, topics []common.Hash, data []byte) {
	h.logs++
}

func (h *testHost) AccessAccount(addr common.Address) AccessStatus {
	if _, ok := h.accessedAccounts[addr]; ok {
		return WarmAccess
	}
	h.accessedAccounts[addr] = struct{}{}
	return ColdAccess
}

func (h *testHost) AccessStorage(addr common.Address, key common.Hash) AccessStatus {
	slots := h.accessedSlots[addr]
	if slots == nil {
		slots = make(map[common.Hash]struct{})
		h.accessedSlots[addr] = slots
	}
	if _, ok := slots[key]; ok {
		return WarmAccess
	}
	slots[key] = struct{}{}
	return ColdAccess
}

func (h *testHost) GetTxContext() TxContext {
	return h.txCtx
}

func (h *testHost) GetBlockHash(number int64) common.Hash {
	return crypto.Keccak256Hash(uint256.NewInt(uint64(number)).Bytes())
}

func (h *testHost) GetBlobHash(index int) common.Hash {
	return common.Hash{}
}

func (h *testHost) SetRuntimeContext(ctx *Context) *Context {
	if ctx != nil {
		h.ctxDepth++
	} else {
		h.ctxDepth--
	}
	return nil
}

func (h *testHost) RethrowOnActiveException() error {
	err := h.pendingErr
	h.pendingErr = nil
	return err
}

// reset clears the per-transaction access and storage journal so consecutive
// runs observe identical cold/warm and original-value state.
func (h *testHost) reset() {
	h.original = make(map[common.Address]map[common.Hash]common.Hash)
	h.transient = make(map[common.Address]map[common.Hash]common.Hash)
	h.accessedAccounts = make(map[common.Address]struct{})
	h.accessedSlots = make(map[common.Address]map[common.Hash]struct{})
	h.storage = make(map[common.Address]map[common.Hash]common.Hash)
	h.destructed = make(map[common.Address]struct{})
	h.calls = nil
	h.logs = 0
}

// testMessage builds a default call message with the given gas.
func testMessage(gas uint64) *Message {
	return &Message{
		Gas:       gas,
		Recipient: common.HexToAddress("0xc0de"),
		Sender:    common.HexToAddress("0xca11e4"),
	}
}

// testChainParams is the chain parameter block used across the tests.
func testChainParams() ChainParams {
	var p ChainParams
	p.ChainID.SetUint64(1)
	return p
}
