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

// AccessStatus indicates whether an account or storage slot access within
// the current transaction is cold or warm.
type AccessStatus bool

const (
	ColdAccess AccessStatus = false
	WarmAccess AccessStatus = true
)

// StorageStatus describes the effect of a storage write on the slot in the
// context of the current transaction, as needed for SSTORE gas and refunds.
type StorageStatus int

const (
	StorageAssigned StorageStatus = iota
	StorageAdded
	StorageDeleted
	StorageModified
	StorageDeletedAdded
	StorageModifiedDeleted
	StorageDeletedRestored
	StorageAddedDeleted
	StorageModifiedRestored
)

// CallParams is the parameter block handed to the host for nested calls and
// contract creations.
type CallParams struct {
	Kind        CallKind
	Static      bool
	Depth       int
	Gas         uint64
	Recipient   common.Address
	Sender      common.Address
	Input       []byte
	Value       uint256.Int
	Salt        common.Hash    // CREATE2 only
	CodeAddress common.Address // CALLCODE/DELEGATECALL code source
}

// CallResult is the host's answer to a nested call.
type CallResult struct {
	Success        bool // false if the nested frame reverted or failed
	Output         []byte
	GasLeft        uint64
	GasRefund      int64
	CreatedAddress common.Address
}

// Host is the capability set the VM invokes during execution. It is the
// embedding chain's view of accounts, storage and logs; the execution core
// itself keeps no persistent state.
//
// Host-side failures raised from inside a native frame cannot unwind through
// it, so hosts record such failures in per-goroutine state and report them
// through RethrowOnActiveException, which the VM polls after every call.
type Host interface {
	// AccountExists reports whether the given account exists in the state.
	AccountExists(addr common.Address) bool

	// GetStorage loads the given storage slot.
	GetStorage(addr common.Address, key common.Hash) common.Hash

	// SetStorage writes the given storage slot and classifies the effect of
	// the write for gas metering.
	SetStorage(addr common.Address, key, value common.Hash) StorageStatus

	// GetTransientStorage loads a transient storage slot (EIP-1153).
	GetTransientStorage(addr common.Address, key common.Hash) common.Hash

	// SetTransientStorage writes a transient storage slot (EIP-1153).
	SetTransientStorage(addr common.Address, key, value common.Hash)

	// GetBalance returns the balance of the given account.
	GetBalance(addr common.Address) *uint256.Int

	// GetCodeSize returns the code size of the given account.
	GetCodeSize(addr common.Address) int

	// GetCodeHash returns the code hash of the given account, or the zero
	// hash for empty accounts.
	GetCodeHash(addr common.Address) common.Hash

	// CopyCode copies the account's code starting at offset into buf and
	// returns the number of bytes copied.
	CopyCode(addr common.Address, offset int, buf []byte) int

	// SelfDestruct marks the account for destruction, sending its balance
	// to the beneficiary. It returns true if the account was not already
	// marked in this transaction.
	SelfDestruct(addr, beneficiary common.Address) bool

	// Call executes a nested message call or contract creation.
	Call(params CallParams) CallResult

	// EmitLog adds a log entry.
	EmitLog(addr common.Address, topics []common.Hash, data []byte)

	// AccessAccount records an account access and reports whether it was
	// cold or warm (EIP-2929).
	AccessAccount(addr common.Address) AccessStatus

	// AccessStorage records a storage slot access and reports whether it
	// was cold or warm (EIP-2929).
	AccessStorage(addr common.Address, key common.Hash) AccessStatus

	// GetTxContext returns the transaction and block context.
	GetTxContext() TxContext

	// GetBlockHash returns the hash of the given block number, or the zero
	// hash if out of range.
	GetBlockHash(number int64) common.Hash

	// GetBlobHash returns the versioned hash of the i'th transaction blob,
	// or the zero hash if out of range (EIP-4844).
	GetBlobHash(index int) common.Hash

	// SetRuntimeContext installs ctx as the current runtime context for
	// callbacks invoked re-entrantly on this goroutine and returns the
	// previously installed one. Nested calls form a stack: the VM restores
	// the previous context on every return path.
	SetRuntimeContext(ctx *Context) *Context

	// RethrowOnActiveException returns the deferred host-side failure of
	// the current call, if any, and clears it.
	RethrowOnActiveException() error
}
