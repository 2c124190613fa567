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
	"bytes"
	"testing"

	"github.com/embervm/go-ember/common"
	"github.com/embervm/go-ember/core/vm"
	"github.com/stretchr/testify/require"
)

func TestExecute(t *testing.T) {
	// PUSH1 10, PUSH1 0, MSTORE, PUSH1 32, PUSH1 0, RETURN
	code := common.Hex2Bytes("600a600052602060" + "00" + "f3")
	res, _, err := Execute(code, nil, nil)
	require.NoError(t, err)
	require.Equal(t, vm.StatusSuccess, res.Status)

	want := make([]byte, 32)
	want[31] = 10
	if !bytes.Equal(res.Output, want) {
		t.Fatalf("output %x, want %x", res.Output, want)
	}
}

func TestExecuteNestedCall(t *testing.T) {
	var (
		cfg    = &Config{Revision: vm.Cancun}
		callee = common.HexToAddress("0xbb")
	)
	setDefaults(cfg)
	machine := vm.NewVM(cfg.EVMConfig)
	defer machine.Stop()
	cfg.VM = machine

	// Caller: CALL 0xbb with 32 byte return area, then return it.
	caller := common.Hex2Bytes("6020600060006000600060bb61fffff150" + "60206000f3")
	// Callee: return 7 as a 32 byte word.
	calleeCode := common.Hex2Bytes("6007600052" + "60206000f3")

	res, env, err := executeWithAccount(caller, cfg, callee, calleeCode)
	require.NoError(t, err)
	require.Equal(t, vm.StatusSuccess, res.Status)

	want := make([]byte, 32)
	want[31] = 7
	require.Equal(t, want, res.Output, "callee result must propagate to the caller")
	require.Empty(t, env.Logs())
}

func TestExecuteNestedRevertRestoresState(t *testing.T) {
	var (
		cfg    = &Config{Revision: vm.Cancun}
		callee = common.HexToAddress("0xbb")
	)
	setDefaults(cfg)
	machine := vm.NewVM(cfg.EVMConfig)
	defer machine.Stop()
	cfg.VM = machine

	// Caller: CALL 0xbb, store the success flag and return it.
	caller := common.Hex2Bytes("6000600060006000600060bb61fffff1" + "600052" + "60206000f3")
	// Callee: SSTORE(0, 1), then REVERT.
	calleeCode := common.Hex2Bytes("600160005560006000fd")

	res, env, err := executeWithAccount(caller, cfg, callee, calleeCode)
	require.NoError(t, err)
	require.Equal(t, vm.StatusSuccess, res.Status)

	// The nested frame failed: success flag is zero and the write is gone.
	require.Equal(t, make([]byte, 32), res.Output)
	require.Equal(t, common.Hash{}, env.GetStorage(callee, common.Hash{}),
		"reverted nested write must not persist")
}

func TestExecuteEmitsLogs(t *testing.T) {
	// MSTORE(0, 42), LOG1 with topic 0xaa over mem[0:8].
	code := common.Hex2Bytes("602a600052" + "60aa60086000a1" + "00")
	res, env, err := Execute(code, nil, nil)
	require.NoError(t, err)
	require.Equal(t, vm.StatusSuccess, res.Status)

	logs := env.Logs()
	require.Len(t, logs, 1)
	require.Equal(t, common.HexToHash("0xaa"), logs[0].Topics[0])
	require.Len(t, logs[0].Data, 8)
}

// executeWithAccount runs code as in Execute with one extra account installed
// up front.
func executeWithAccount(code []byte, cfg *Config, addr common.Address, accountCode []byte) (*vm.Result, *Env, error) {
	// Pre-install the account through a prepared environment by seeding the
	// state before execution: Execute builds its own env, so run the VM
	// directly here.
	machine := cfg.VM
	env := newEnv(cfg, machine)
	env.CreateAccount(cfg.Origin, nil, nil)
	env.CreateAccount(addr, nil, accountCode)

	address := common.HexToAddress("0x0c0ffee0c0ffee0c0ffee0c0ffee0c0ffee00000")
	env.CreateAccount(address, nil, code)

	msg := &vm.Message{
		Gas:       cfg.GasLimit,
		Recipient: address,
		Sender:    cfg.Origin,
		Input:     nil,
	}
	var chain vm.ChainParams
	chain.ChainID.SetUint64(cfg.ChainID)

	res, err := machine.ExecuteBytecode(cfg.Revision, chain, env, msg, code)
	if err != nil {
		return nil, env, err
	}
	return &res, env, nil
}
