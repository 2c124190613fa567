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

package runtime

import (
	"github.com/embervm/go-ember/common"
	"github.com/embervm/go-ember/core/vm"
	"github.com/embervm/go-ember/crypto"
	"github.com/embervm/go-ember/params"
	"github.com/holiman/uint256"
)

// Log is a log record emitted during execution.
type Log struct {
	Address common.Address
	Topics  []common.Hash
	Data    []byte
}

type account struct {
	balance  uint256.Int
	code     []byte
	storage  map[common.Hash]common.Hash
	original map[common.Hash]common.Hash // committed values at transaction start
	dead     bool                        // marked by SELFDESTRUCT
}

func (a *account) copy() *account {
	cpy := &account{
		balance:  a.balance,
		code:     a.code,
		storage:  make(map[common.Hash]common.Hash, len(a.storage)),
		original: a.original,
		dead:     a.dead,
	}
	for k, v := range a.storage {
		cpy.storage[k] = v
	}
	return cpy
}

// Env is an in-memory implementation of the host interface backing the
// standalone runtime. It keeps accounts, storage, transient storage and the
// EIP-2929 access sets, and executes nested calls recursively through its VM.
type Env struct {
	evm   *vm.VM
	rev   vm.Revision
	chain vm.ChainParams
	txCtx vm.TxContext

	accounts  map[common.Address]*account
	transient map[common.Address]map[common.Hash]common.Hash
	logs      []Log
	nonce     uint64 // creation counter for CREATE address derivation

	accessedAccounts map[common.Address]struct{}
	accessedSlots    map[common.Address]map[common.Hash]struct{}

	// Per-goroutine runtime context chain for re-entrant host callbacks. The
	// runtime env is single-threaded per transaction, so a plain field holds
	// the top of the stack.
	rtCtx *vm.Context

	// A host-side failure recorded during a call, surfaced to the VM through
	// RethrowOnActiveException.
	pendingErr error
}

// NewEnv creates an empty state environment executing at the given revision.
func NewEnv(evm *vm.VM, rev vm.Revision, chain vm.ChainParams, txCtx vm.TxContext) *Env {
	return &Env{
		evm:              evm,
		rev:              rev,
		chain:            chain,
		txCtx:            txCtx,
		accounts:         make(map[common.Address]*account),
		transient:        make(map[common.Address]map[common.Hash]common.Hash),
		accessedAccounts: make(map[common.Address]struct{}),
		accessedSlots:    make(map[common.Address]map[common.Hash]struct{}),
	}
}

func (env *Env) account(addr common.Address) *account {
	acc := env.accounts[addr]
	if acc == nil {
		acc = &account{
			storage:  make(map[common.Hash]common.Hash),
			original: make(map[common.Hash]common.Hash),
		}
		env.accounts[addr] = acc
	}
	return acc
}

// CreateAccount installs an account with the given balance and code.
func (env *Env) CreateAccount(addr common.Address, balance *uint256.Int, code []byte) {
	acc := env.account(addr)
	if balance != nil {
		acc.balance = *balance
	}
	acc.code = code
}

// SetState writes a committed storage slot, as if persisted by an earlier
// transaction.
func (env *Env) SetState(addr common.Address, key, value common.Hash) {
	acc := env.account(addr)
	acc.storage[key] = value
	acc.original[key] = value
}

// Logs returns the log records emitted so far.
func (env *Env) Logs() []Log {
	return env.logs
}

// snapshot captures the mutable state for revert-on-failure of nested calls.
func (env *Env) snapshot() map[common.Address]*account {
	cpy := make(map[common.Address]*account, len(env.accounts))
	for addr, acc := range env.accounts {
		cpy[addr] = acc.copy()
	}
	return cpy
}

func (env *Env) revertTo(snap map[common.Address]*account, nlogs int) {
	env.accounts = snap
	env.logs = env.logs[:nlogs]
}

// AccountExists reports whether the account is non-empty.
func (env *Env) AccountExists(addr common.Address) bool {
	acc := env.accounts[addr]
	if acc == nil || acc.dead {
		return false
	}
	return acc.balance.Sign() != 0 || len(acc.code) > 0
}

func (env *Env) GetStorage(addr common.Address, key common.Hash) common.Hash {
	if acc := env.accounts[addr]; acc != nil {
		return acc.storage[key]
	}
	return common.Hash{}
}

func (env *Env) SetStorage(addr common.Address, key, value common.Hash) vm.StorageStatus {
	acc := env.account(addr)
	current := acc.storage[key]
	original, ok := acc.original[key]
	if !ok {
		original = current
		acc.original[key] = original
	}
	acc.storage[key] = value
	return classifyStorage(original, current, value)
}

// classifyStorage maps an (original, current, new) triple to the storage
// status the gas schedule is keyed on.
func classifyStorage(original, current, value common.Hash) vm.StorageStatus {
	var (
		zero = common.Hash{}
	)
	if current == value {
		return vm.StorageAssigned
	}
	if original == current {
		if original == zero {
			return vm.StorageAdded
		}
		if value == zero {
			return vm.StorageDeleted
		}
		return vm.StorageModified
	}
	// Dirty slot.
	if original != zero {
		if current == zero {
			if value == original {
				return vm.StorageDeletedRestored
			}
			return vm.StorageDeletedAdded
		}
		if value == zero {
			return vm.StorageModifiedDeleted
		}
		if value == original {
			return vm.StorageModifiedRestored
		}
		return vm.StorageAssigned
	}
	if value == zero {
		return vm.StorageAddedDeleted
	}
	return vm.StorageAssigned
}

func (env *Env) GetTransientStorage(addr common.Address, key common.Hash) common.Hash {
	if slots := env.transient[addr]; slots != nil {
		return slots[key]
	}
	return common.Hash{}
}

func (env *Env) SetTransientStorage(addr common.Address, key, value common.Hash) {
	slots := env.transient[addr]
	if slots == nil {
		slots = make(map[common.Hash]common.Hash)
		env.transient[addr] = slots
	}
	slots[key] = value
}

func (env *Env) GetBalance(addr common.Address) *uint256.Int {
	if acc := env.accounts[addr]; acc != nil {
		return new(uint256.Int).Set(&acc.balance)
	}
	return new(uint256.Int)
}

func (env *Env) GetCodeSize(addr common.Address) int {
	if acc := env.accounts[addr]; acc != nil {
		return len(acc.code)
	}
	return 0
}

func (env *Env) GetCodeHash(addr common.Address) common.Hash {
	acc := env.accounts[addr]
	if acc == nil || (acc.balance.IsZero() && len(acc.code) == 0) {
		return common.Hash{}
	}
	return crypto.Keccak256Hash(acc.code)
}

func (env *Env) CopyCode(addr common.Address, offset int, buf []byte) int {
	acc := env.accounts[addr]
	if acc == nil || offset >= len(acc.code) {
		return 0
	}
	return copy(buf, acc.code[offset:])
}

func (env *Env) SelfDestruct(addr, beneficiary common.Address) bool {
	acc := env.account(addr)
	ben := env.account(beneficiary)
	ben.balance.Add(&ben.balance, &acc.balance)
	acc.balance.Clear()
	if acc.dead {
		return false
	}
	acc.dead = true
	return true
}

func (env *Env) EmitLog(addr common.Address, topics []common.Hash, data []byte) {
	env.logs = append(env.logs, Log{Address: addr, Topics: topics, Data: data})
}

func (env *Env) AccessAccount(addr common.Address) vm.AccessStatus {
	if _, ok := env.accessedAccounts[addr]; ok {
		return vm.WarmAccess
	}
	env.accessedAccounts[addr] = struct{}{}
	return vm.ColdAccess
}

func (env *Env) AccessStorage(addr common.Address, key common.Hash) vm.AccessStatus {
	slots := env.accessedSlots[addr]
	if slots == nil {
		slots = make(map[common.Hash]struct{})
		env.accessedSlots[addr] = slots
	}
	if _, ok := slots[key]; ok {
		return vm.WarmAccess
	}
	slots[key] = struct{}{}
	return vm.ColdAccess
}

func (env *Env) GetTxContext() vm.TxContext {
	return env.txCtx
}

func (env *Env) GetBlockHash(number int64) common.Hash {
	if number < 0 || number >= env.txCtx.BlockNumber || env.txCtx.BlockNumber-number > 256 {
		return common.Hash{}
	}
	return crypto.Keccak256Hash(uint256.NewInt(uint64(number)).Bytes())
}

func (env *Env) GetBlobHash(index int) common.Hash {
	return common.Hash{}
}

func (env *Env) SetRuntimeContext(ctx *vm.Context) *vm.Context {
	prev := env.rtCtx
	env.rtCtx = ctx
	return prev
}

func (env *Env) RethrowOnActiveException() error {
	err := env.pendingErr
	env.pendingErr = nil
	return err
}

// Call executes a nested call or create by recursing into the VM over the
// in-memory state. Failed frames revert their state changes and logs.
func (env *Env) Call(p vm.CallParams) vm.CallResult {
	if uint64(p.Depth) > params.CallCreateDepth {
		return vm.CallResult{GasLeft: p.Gas}
	}
	switch p.Kind {
	case vm.CallKindCreate, vm.CallKindCreate2:
		return env.create(p)
	default:
		return env.call(p)
	}
}

func (env *Env) call(p vm.CallParams) vm.CallResult {
	var (
		snap  = env.snapshot()
		nlogs = len(env.logs)
	)
	// Value moves only for plain calls; callcode, delegatecall and
	// staticcall carry it as context without a transfer.
	if p.Kind == vm.CallKindCall && !p.Value.IsZero() {
		sender := env.account(p.Sender)
		if sender.balance.Lt(&p.Value) {
			return vm.CallResult{GasLeft: p.Gas}
		}
		recipient := env.account(p.Recipient)
		sender.balance.Sub(&sender.balance, &p.Value)
		recipient.balance.Add(&recipient.balance, &p.Value)
	}
	codeAddr := p.Recipient
	if p.Kind == vm.CallKindDelegateCall || p.Kind == vm.CallKindCallCode {
		codeAddr = p.CodeAddress
	}
	var code []byte
	if acc := env.accounts[codeAddr]; acc != nil {
		code = acc.code
	}
	msg := &vm.Message{
		Kind:      p.Kind,
		Static:    p.Static,
		Depth:     p.Depth,
		Gas:       p.Gas,
		Recipient: p.Recipient,
		Sender:    p.Sender,
		Input:     p.Input,
		Value:     p.Value,
	}
	res, err := env.evm.ExecuteBytecode(env.rev, env.chain, env, msg, code)
	if err != nil {
		env.revertTo(snap, nlogs)
		env.pendingErr = err
		return vm.CallResult{}
	}
	if res.Status != vm.StatusSuccess {
		env.revertTo(snap, nlogs)
	}
	return vm.CallResult{
		Success:   res.Status == vm.StatusSuccess,
		Output:    res.Output,
		GasLeft:   res.GasLeft,
		GasRefund: res.GasRefund,
	}
}

func (env *Env) create(p vm.CallParams) vm.CallResult {
	var (
		snap  = env.snapshot()
		nlogs = len(env.logs)
	)
	sender := env.account(p.Sender)
	if sender.balance.Lt(&p.Value) {
		return vm.CallResult{GasLeft: p.Gas}
	}
	var addr common.Address
	if p.Kind == vm.CallKindCreate2 {
		initHash := crypto.Keccak256(p.Input)
		addr = common.BytesToAddress(crypto.Keccak256([]byte{0xff}, p.Sender.Bytes(), p.Salt.Bytes(), initHash)[12:])
	} else {
		env.nonce++
		addr = common.BytesToAddress(crypto.Keccak256(p.Sender.Bytes(), uint256.NewInt(env.nonce).Bytes())[12:])
	}
	if acc := env.accounts[addr]; acc != nil && len(acc.code) > 0 {
		return vm.CallResult{GasLeft: p.Gas}
	}
	sender.balance.Sub(&sender.balance, &p.Value)
	created := env.account(addr)
	created.balance.Add(&created.balance, &p.Value)

	msg := &vm.Message{
		Kind:      p.Kind,
		Depth:     p.Depth,
		Gas:       p.Gas,
		Recipient: addr,
		Sender:    p.Sender,
		Value:     p.Value,
	}
	res, err := env.evm.ExecuteBytecode(env.rev, env.chain, env, msg, p.Input)
	if err != nil {
		env.revertTo(snap, nlogs)
		env.pendingErr = err
		return vm.CallResult{}
	}
	if res.Status != vm.StatusSuccess {
		env.revertTo(snap, nlogs)
		return vm.CallResult{
			Output:  res.Output,
			GasLeft: res.GasLeft,
		}
	}
	// Charge the code deposit and install the returned code.
	depositGas := uint64(len(res.Output)) * params.CreateDataGas
	if len(res.Output) > params.MaxCodeSize || depositGas > res.GasLeft {
		env.revertTo(snap, nlogs)
		return vm.CallResult{}
	}
	created.code = res.Output
	return vm.CallResult{
		Success:        true,
		GasLeft:        res.GasLeft - depositGas,
		GasRefund:      res.GasRefund,
		CreatedAddress: addr,
	}
}
