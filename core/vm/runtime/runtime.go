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

// Package runtime provides a basic execution model for executing EVM code
// against an in-memory state, without a surrounding blockchain.
package runtime

import (
	"github.com/embervm/go-ember/common"
	"github.com/embervm/go-ember/core/vm"
	"github.com/embervm/go-ember/crypto"
	"github.com/holiman/uint256"
)

// Config is a basic type specifying certain configuration flags for running
// the EVM.
type Config struct {
	Revision    vm.Revision
	ChainID     uint64
	Origin      common.Address
	Coinbase    common.Address
	BlockNumber int64
	Time        int64
	GasLimit    uint64
	GasPrice    uint256.Int
	Value       uint256.Int
	BaseFee     uint256.Int
	PrevRandao  common.Hash

	EVMConfig vm.Config

	// VM optionally reuses an existing machine instead of creating a fresh
	// one per run, keeping its code cache and compile workers warm.
	VM *vm.VM
}

// setDefaults sets the zeroed fields to some sensible defaults.
func setDefaults(cfg *Config) {
	if cfg.Revision == 0 {
		cfg.Revision = vm.LatestRevision
	}
	if cfg.ChainID == 0 {
		cfg.ChainID = 1
	}
	if cfg.GasLimit == 0 {
		cfg.GasLimit = 10_000_000
	}
	if cfg.BlockNumber == 0 {
		cfg.BlockNumber = 1
	}
}

func newEnv(cfg *Config, machine *vm.VM) *Env {
	txCtx := vm.TxContext{
		GasPrice:    cfg.GasPrice,
		Origin:      cfg.Origin,
		Coinbase:    cfg.Coinbase,
		BlockNumber: cfg.BlockNumber,
		Timestamp:   cfg.Time,
		GasLimit:    cfg.GasLimit,
		PrevRandao:  cfg.PrevRandao,
		BaseFee:     cfg.BaseFee,
	}
	var chain vm.ChainParams
	chain.ChainID.SetUint64(cfg.ChainID)
	return NewEnv(machine, cfg.Revision, chain, txCtx)
}

// Execute executes the code using the input as call data during the
// execution. It returns the EVM's result, the emitted logs and an error if
// one occurred.
//
// Execute sets up an in-memory, temporary environment for the execution of
// the given code. It makes sure that it's restored to its original state
// afterwards.
func Execute(code, input []byte, cfg *Config) (*vm.Result, *Env, error) {
	if cfg == nil {
		cfg = new(Config)
	}
	setDefaults(cfg)

	machine := cfg.VM
	if machine == nil {
		machine = vm.NewVM(cfg.EVMConfig)
		defer machine.Stop()
	}
	var (
		env     = newEnv(cfg, machine)
		address = common.HexToAddress("0x0c0ffee0c0ffee0c0ffee0c0ffee0c0ffee00000")
		sender  = cfg.Origin
	)
	env.CreateAccount(sender, uint256.NewInt(0).Not(uint256.NewInt(0)), nil)
	env.CreateAccount(address, nil, code)

	msg := &vm.Message{
		Gas:       cfg.GasLimit,
		Recipient: address,
		Sender:    sender,
		Input:     input,
		Value:     cfg.Value,
	}
	var chain vm.ChainParams
	chain.ChainID.SetUint64(cfg.ChainID)

	codeHash := crypto.Keccak256Hash(code)
	vcode := machine.Compiler().GetOrInsertVarcode(codeHash, vm.AnalyzeCode(code))

	res, err := machine.Execute(cfg.Revision, chain, env, msg, codeHash, vcode)
	if err != nil {
		return nil, env, err
	}
	return &res, env, nil
}
