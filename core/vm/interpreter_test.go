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
	"bytes"
	"testing"

	"github.com/embervm/go-ember/common"
)

// runBytecode executes raw code through the interpreter with a fresh VM.
func runBytecode(t *testing.T, rev Revision, host *testHost, msg *Message, code []byte) Result {
	t.Helper()
	machine := NewVM(Config{})
	defer machine.Stop()
	res, err := machine.ExecuteBytecode(rev, testChainParams(), host, msg, code)
	if err != nil {
		t.Fatalf("execution failed: %v", err)
	}
	return res
}

func TestInterpreterReturn(t *testing.T) {
	// PUSH1 1, PUSH1 0, MSTORE, PUSH1 1, PUSH1 31, RETURN
	code := common.Hex2Bytes("6001600052600160" + "1f" + "f3")
	res := runBytecode(t, Cancun, newTestHost(), testMessage(100000), code)

	if res.Status != StatusSuccess {
		t.Fatalf("status %v, want success", res.Status)
	}
	if !bytes.Equal(res.Output, []byte{0x01}) {
		t.Fatalf("output %x, want 01", res.Output)
	}
	// 4 pushes, MSTORE with one word of memory expansion.
	if used := uint64(100000) - res.GasLeft; used != 18 {
		t.Fatalf("gas used %d, want 18", used)
	}
}

func TestInterpreterRevert(t *testing.T) {
	// PUSH1 1, PUSH1 0, MSTORE, PUSH1 1, PUSH1 31, REVERT
	code := common.Hex2Bytes("6001600052600160" + "1f" + "fd")
	res := runBytecode(t, Cancun, newTestHost(), testMessage(100000), code)

	if res.Status != StatusRevert {
		t.Fatalf("status %v, want revert", res.Status)
	}
	if !bytes.Equal(res.Output, []byte{0x01}) {
		t.Fatalf("revert output %x, want 01", res.Output)
	}
	if res.GasLeft == 0 {
		t.Fatal("revert must keep the remaining gas")
	}
	if res.GasRefund != 0 {
		t.Fatal("revert must forfeit the refund counter")
	}
}

func TestInterpreterOutOfGas(t *testing.T) {
	code := common.Hex2Bytes("60016000526001601ff3")
	res := runBytecode(t, Cancun, newTestHost(), testMessage(5), code)

	if res.Status != StatusOutOfGas {
		t.Fatalf("status %v, want out of gas", res.Status)
	}
	if res.GasLeft != 0 {
		t.Fatalf("gas left %d after out of gas, want 0", res.GasLeft)
	}
}

func TestInterpreterInvalidOpcode(t *testing.T) {
	res := runBytecode(t, Cancun, newTestHost(), testMessage(100000), []byte{byte(INVALID)})
	if res.Status != StatusInvalidInstruction {
		t.Fatalf("status %v, want invalid instruction", res.Status)
	}
}

func TestInterpreterStackUnderflow(t *testing.T) {
	res := runBytecode(t, Cancun, newTestHost(), testMessage(100000), []byte{byte(ADD)})
	if res.Status != StatusStackUnderflow {
		t.Fatalf("status %v, want stack underflow", res.Status)
	}
}

func TestInterpreterInvalidJump(t *testing.T) {
	// PUSH1 5, JUMP: target 5 is no JUMPDEST.
	res := runBytecode(t, Cancun, newTestHost(), testMessage(100000), common.Hex2Bytes("600556"))
	if res.Status != StatusInvalidJump {
		t.Fatalf("status %v, want invalid jump", res.Status)
	}
}

func TestInterpreterJumpOverInvalid(t *testing.T) {
	// PUSH1 1, PUSH1 6, JUMPI, INVALID, JUMPDEST, PUSH1 1, PUSH1 0, MSTORE,
	// PUSH1 32, PUSH1 0, RETURN
	code := common.Hex2Bytes("60016006" + "57" + "fe" + "5b" + "6001600052" + "60206000f3")
	res := runBytecode(t, Cancun, newTestHost(), testMessage(100000), code)

	if res.Status != StatusSuccess {
		t.Fatalf("status %v, want success", res.Status)
	}
	want := make([]byte, 32)
	want[31] = 1
	if !bytes.Equal(res.Output, want) {
		t.Fatalf("output %x, want %x", res.Output, want)
	}
}

func TestInterpreterJumpIntoPushData(t *testing.T) {
	// PUSH1 4, JUMP, PUSH1 0x5b: the JUMPDEST byte is push data.
	res := runBytecode(t, Cancun, newTestHost(), testMessage(100000), common.Hex2Bytes("60045660" + "5b"))
	if res.Status != StatusInvalidJump {
		t.Fatalf("status %v, want invalid jump", res.Status)
	}
}

func TestInterpreterStaticViolation(t *testing.T) {
	msg := testMessage(100000)
	msg.Static = true
	// PUSH1 1, PUSH1 0, SSTORE
	res := runBytecode(t, Cancun, newTestHost(), msg, common.Hex2Bytes("6001600055"))

	if res.Status != StatusStaticViolation {
		t.Fatalf("status %v, want static violation", res.Status)
	}
}

func TestInterpreterKeccak256(t *testing.T) {
	// PUSH1 0, PUSH1 0, KECCAK256, PUSH1 0, MSTORE, PUSH1 32, PUSH1 0, RETURN
	code := common.Hex2Bytes("6000600020600052" + "60206000f3")
	res := runBytecode(t, Cancun, newTestHost(), testMessage(100000), code)

	if res.Status != StatusSuccess {
		t.Fatalf("status %v, want success", res.Status)
	}
	want := common.FromHex("c5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470")
	if !bytes.Equal(res.Output, want) {
		t.Fatalf("empty keccak %x, want %x", res.Output, want)
	}
}

func TestInterpreterSstoreRefund(t *testing.T) {
	var (
		host = newTestHost()
		msg  = testMessage(100000)
		key  = common.Hash{}
		one  = common.HexToHash("0x01")
	)
	// Slot holds a committed non-zero value.
	host.storage[msg.Recipient] = map[common.Hash]common.Hash{key: one}

	// PUSH1 0, PUSH1 0, SSTORE: clears the slot.
	res := runBytecode(t, Cancun, host, msg, common.Hex2Bytes("6000600055"))
	if res.Status != StatusSuccess {
		t.Fatalf("status %v, want success", res.Status)
	}
	if res.GasRefund != 4800 {
		t.Fatalf("refund %d, want 4800 (EIP-3529 clears schedule)", res.GasRefund)
	}
	// 2 pushes + cold slot access + reset.
	if used := uint64(100000) - res.GasLeft; used != 3+3+2100+2900 {
		t.Fatalf("gas used %d, want %d", used, 3+3+2100+2900)
	}
}

func TestInterpreterCallRoutesThroughHost(t *testing.T) {
	host := newTestHost()
	host.callResult = CallResult{Success: true, Output: []byte{0xaa}}

	// PUSH1 1 (retSize), PUSH1 0 (retOffset), PUSH1 0 (inSize), PUSH1 0
	// (inOffset), PUSH1 0 (value), PUSH1 0xaa (addr), PUSH2 0xffff (gas),
	// CALL, POP, PUSH1 1, PUSH1 0, RETURN
	code := common.Hex2Bytes("60016000600060006000" + "60aa" + "61ffff" + "f1" + "50" + "60016000f3")
	res := runBytecode(t, Cancun, host, testMessage(100000), code)

	if res.Status != StatusSuccess {
		t.Fatalf("status %v, want success", res.Status)
	}
	if !bytes.Equal(res.Output, []byte{0xaa}) {
		t.Fatalf("output %x, want aa (callee output copied to memory)", res.Output)
	}
	if len(host.calls) != 1 {
		t.Fatalf("host saw %d calls, want 1", len(host.calls))
	}
	call := host.calls[0]
	if call.Kind != CallKindCall || call.Recipient != common.HexToAddress("0xaa") {
		t.Fatalf("unexpected call params: %+v", call)
	}
	if call.Depth != 1 {
		t.Fatalf("nested call depth %d, want 1", call.Depth)
	}
}

func TestInterpreterRuntimeContextRestored(t *testing.T) {
	host := newTestHost()
	code := common.Hex2Bytes("6001600052600160" + "1f" + "f3")
	runBytecode(t, Cancun, host, testMessage(100000), code)

	if host.ctxDepth != 0 {
		t.Fatalf("runtime context depth %d after return, want 0", host.ctxDepth)
	}
}

func TestInterpreterRethrowsDeferredError(t *testing.T) {
	host := newTestHost()
	host.pendingErr = errStubHostFailure

	machine := NewVM(Config{})
	defer machine.Stop()
	_, err := machine.ExecuteBytecode(Cancun, testChainParams(), host, testMessage(100000), common.Hex2Bytes("00"))
	if err != errStubHostFailure {
		t.Fatalf("deferred host error not rethrown: %v", err)
	}
	// The error is cleared once surfaced.
	if host.pendingErr != nil {
		t.Fatal("pending error not cleared by rethrow")
	}
}
