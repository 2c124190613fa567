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
	"testing"

	"github.com/embervm/go-ember/common"
	"github.com/embervm/go-ember/crypto"
	"github.com/stretchr/testify/require"
)

// tierEquivalenceTests are programs executed through both tiers; results must
// be bit-identical.
var tierEquivalenceTests = []struct {
	name string
	code string
	gas  uint64
}{
	{"return one", "6001600052600160" + "1f" + "f3", 100000},
	{"revert with data", "6001600052600160" + "1f" + "fd", 100000},
	{"stop", "00", 100000},
	{"empty code", "", 100000},
	{"implicit stop", "6001", 100000},
	{"add chain", "600a600a01600a600a01600a600a0101" + "600052" + "60206000f3", 100000},
	{"loop sum", // sum 10..1 via a backwards JUMPI loop
		"6000" + // PUSH1 0    running sum
			"600a" + // PUSH1 10   loop counter
			"5b" + // JUMPDEST (pc=4)
			"80" + "15" + // DUP1 ISZERO
			"6015" + // PUSH1 21 (exit dest)
			"57" + // JUMPI
			"80" + "91" + "01" + "90" + // DUP1 SWAP2 ADD SWAP1: sum += i
			"6001" + "90" + "03" + // PUSH1 1 SWAP1 SUB: i -= 1
			"6004" + "56" + // PUSH1 4 JUMP
			"5b" + // JUMPDEST (pc=21)
			"50" + // POP
			"600052" + "60206000f3",
		100000},
	{"out of gas", "6001600052600160" + "1f" + "f3", 8},
	{"invalid opcode", "fe", 100000},
	{"stack underflow", "01", 100000},
	{"invalid jump", "600556", 100000},
	{"jump into push data", "60045660" + "5b", 100000},
	{"sstore sload roundtrip", "602a600055600054600052" + "60206000f3", 100000},
	{"transient storage", "602a60005d60005c600052" + "60206000f3", 100000},
	{"keccak empty", "6000600020600052" + "60206000f3", 100000},
	{"mcopy", "602a600052602060006020" + "5e" + "60206020f3", 100000},
	{"pc and gas", "585a0158600052" + "60206000f3", 100000},
	{"log two topics", "602a600052" + "60aa60bb60086000a2" + "00", 100000},
	{"selfbalance", "47600052" + "60206000f3", 100000},
	{"chainid", "46600052" + "60206000f3", 100000},
	{"push32", "7f0102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f20600052" + "60206000f3", 100000},
	{"truncated push", "7f0102", 100000},
}

func TestTierEquivalence(t *testing.T) {
	for _, tt := range tierEquivalenceTests {
		t.Run(tt.name, func(t *testing.T) {
			var (
				code  = common.Hex2Bytes(tt.code)
				icode = AnalyzeCode(code)
				hash  = crypto.Keccak256Hash(code)
			)
			machine := NewVM(Config{})
			defer machine.Stop()

			interpreted, err := machine.ExecuteIntercode(Cancun, testChainParams(), newTestHost(), testMessage(tt.gas), icode)
			require.NoError(t, err)

			// Compile and execute through the native tier.
			ncode := machine.Compiler().Compile(Cancun, icode)
			require.NotNil(t, ncode.Entrypoint(), "compilation must succeed")

			vcode := NewVarcode(icode)
			vcode.PublishNativecode(ncode)
			compiled, err := machine.Execute(Cancun, testChainParams(), newTestHost(), testMessage(tt.gas), hash, vcode)
			require.NoError(t, err)

			require.Equal(t, interpreted.Status, compiled.Status, "status differs between tiers")
			require.Equal(t, interpreted.GasLeft, compiled.GasLeft, "gas left differs between tiers")
			require.Equal(t, interpreted.GasRefund, compiled.GasRefund, "refund differs between tiers")
			require.Equal(t, interpreted.Output, compiled.Output, "output differs between tiers")
			require.Equal(t, interpreted.CreatedAddress, compiled.CreatedAddress)

			stats := machine.Stats()
			require.EqualValues(t, 1, stats.NativeExecutions, "second run must use the compiled tier")
		})
	}
}

func TestProgramJumpResolution(t *testing.T) {
	code := common.Hex2Bytes("6004565b00")
	p := compileProgram(Cancun, AnalyzeCode(code))

	if len(p.jumpMap) != 1 {
		t.Fatalf("jump map has %d destinations, want 1", len(p.jumpMap))
	}
	if idx, ok := p.jumpMap[3]; !ok || p.instrs[idx].op != JUMPDEST {
		t.Fatalf("destination 3 not resolved to a JUMPDEST instruction")
	}
}

func TestProgramRejectsOversizedCode(t *testing.T) {
	big := make([]byte, maxProgramSize/programSizeFactor+1)
	_, err := compileEntrypoint(Cancun, AnalyzeCode(big), CompilerConfig{})
	if err == nil {
		t.Fatal("oversized code must be rejected")
	}
}

func TestCompileRejectionInstallsSentinel(t *testing.T) {
	machine := NewVM(Config{})
	defer machine.Stop()

	big := make([]byte, maxProgramSize/programSizeFactor+1)
	ncode := machine.Compiler().Compile(Cancun, AnalyzeCode(big))
	if ncode == nil {
		t.Fatal("rejected compile must still produce a nativecode sentinel")
	}
	if ncode.Entrypoint() != nil {
		t.Fatal("rejected compile must carry a nil entrypoint")
	}
	if ncode.ChainID() != ChainIDForRevision(Cancun) {
		t.Fatalf("sentinel chain id %d, want %d", ncode.ChainID(), ChainIDForRevision(Cancun))
	}
}
