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
	"time"

	"github.com/embervm/go-ember/common"
	"github.com/embervm/go-ember/crypto"
	"github.com/stretchr/testify/require"
)

// returnOneCode stores 1 and returns its lowest byte.
var returnOneCode = common.Hex2Bytes("6001600052600160" + "1f" + "f3")

func testVM(t *testing.T, compiler CompilerConfig, async bool) *VM {
	t.Helper()
	machine := NewVM(Config{EnableAsyncCompile: async, Compiler: compiler})
	t.Cleanup(machine.Stop)
	return machine
}

// quickCompiler is a compiler config small enough for single-test scenarios.
func quickCompiler(warmThreshold int) CompilerConfig {
	return CompilerConfig{
		Workers:           1,
		QueueSize:         16,
		MaxCacheWeight:    1 << 20,
		CacheUpdatePeriod: time.Millisecond,
		WarmThreshold:     warmThreshold,
	}
}

// TestExecuteColdCacheCompilesEagerly covers the cold-cache tier decision: a
// fresh contract runs interpreted and is queued for compilation right away.
func TestExecuteColdCacheCompilesEagerly(t *testing.T) {
	machine := testVM(t, quickCompiler(1<<20), true) // cache never warm

	var (
		icode = AnalyzeCode(returnOneCode)
		hash  = crypto.Keccak256Hash(returnOneCode)
		vcode = NewVarcode(icode)
	)
	res, err := machine.Execute(Cancun, testChainParams(), newTestHost(), testMessage(100000), hash, vcode)
	require.NoError(t, err)
	require.Equal(t, StatusSuccess, res.Status)
	require.Equal(t, []byte{0x01}, res.Output)

	stats := machine.Stats()
	require.EqualValues(t, 1, stats.IntercodeExecutions, "cold call must interpret")
	require.EqualValues(t, 0, stats.NativeExecutions)

	// The compile request must have been enqueued; once the worker finishes,
	// the cache holds working nativecode for the hash.
	machine.Compiler().DebugWaitForEmptyQueue()
	cached, ok := machine.Compiler().FindVarcode(hash)
	require.True(t, ok, "worker must publish a varcode for the executed hash")
	require.NotNil(t, cached.Nativecode())
	require.NotNil(t, cached.Nativecode().Entrypoint())
}

// TestExecuteNativeTier covers the hot path: pre-populated nativecode for the
// matching chain id routes execution through the compiled tier and yields an
// identical result.
func TestExecuteNativeTier(t *testing.T) {
	machine := testVM(t, quickCompiler(1<<20), false)

	icode := AnalyzeCode(returnOneCode)
	hash := crypto.Keccak256Hash(returnOneCode)

	interpreted, err := machine.ExecuteIntercode(Cancun, testChainParams(), newTestHost(), testMessage(100000), icode)
	require.NoError(t, err)

	vcode := NewVarcode(icode)
	vcode.PublishNativecode(machine.Compiler().Compile(Cancun, icode))

	compiled, err := machine.Execute(Cancun, testChainParams(), newTestHost(), testMessage(100000), hash, vcode)
	require.NoError(t, err)

	require.EqualValues(t, 1, machine.Stats().NativeExecutions, "call must route native")
	require.Equal(t, interpreted.Status, compiled.Status)
	require.Equal(t, interpreted.GasLeft, compiled.GasLeft)
	require.True(t, bytes.Equal(interpreted.Output, compiled.Output))
}

// TestExecuteRevisionChange covers the stale-chain case: nativecode compiled
// for an older revision falls back to the interpreter and requeues exactly
// one recompile for the new revision.
func TestExecuteRevisionChange(t *testing.T) {
	machine := testVM(t, quickCompiler(1<<20), false) // no workers: the queue holds the request

	var (
		icode = AnalyzeCode(returnOneCode)
		hash  = crypto.Keccak256Hash(returnOneCode)
		vcode = NewVarcode(icode)
	)
	require.NotEqual(t, ChainIDForRevision(Berlin), ChainIDForRevision(Cancun))
	vcode.PublishNativecode(machine.Compiler().Compile(Berlin, icode))

	res, err := machine.Execute(Cancun, testChainParams(), newTestHost(), testMessage(100000), hash, vcode)
	require.NoError(t, err)
	require.Equal(t, StatusSuccess, res.Status)
	require.EqualValues(t, 0, machine.Stats().NativeExecutions, "stale nativecode must not run")
	require.EqualValues(t, 1, machine.Stats().IntercodeExecutions)

	// Exactly one request is in flight for the hash: a duplicate is refused.
	require.False(t, machine.Compiler().AsyncCompile(Cancun, hash, icode),
		"the revision-change recompile must already be queued")
}

// TestExecuteFailedCompileNotRetried covers the permanent-failure case: a nil
// entrypoint sentinel forces the interpreter without enqueuing new requests.
func TestExecuteFailedCompileNotRetried(t *testing.T) {
	machine := testVM(t, quickCompiler(1<<20), false)

	var (
		icode = AnalyzeCode(returnOneCode)
		hash  = crypto.Keccak256Hash(returnOneCode)
		vcode = NewVarcode(icode)
	)
	vcode.PublishNativecode(NewNativecode(nil, ChainIDForRevision(Cancun)))

	for i := 0; i < 3; i++ {
		res, err := machine.Execute(Cancun, testChainParams(), newTestHost(), testMessage(100000), hash, vcode)
		require.NoError(t, err)
		require.Equal(t, StatusSuccess, res.Status)
	}
	require.EqualValues(t, 3, machine.Stats().IntercodeExecutions)

	// Nothing was enqueued for the hash: a fresh request is accepted.
	require.True(t, machine.Compiler().AsyncCompile(Cancun, hash, icode),
		"failed compiles must not be re-enqueued by the tiering policy")
}

// TestExecuteTieringTrigger covers the warm-cache path: interpreted gas
// accumulates on the varcode until it crosses the compile bound, which
// enqueues the compile; afterwards the contract runs native.
func TestExecuteTieringTrigger(t *testing.T) {
	machine := testVM(t, quickCompiler(1), true) // warm after one entry

	var (
		icode = AnalyzeCode(returnOneCode)
		hash  = crypto.Keccak256Hash(returnOneCode)
		vcode = machine.Compiler().GetOrInsertVarcode(hash, icode)
		bound = maxCodeSize(0, icode.Size())
		host  = newTestHost()
	)
	require.True(t, machine.Compiler().IsVarcodeCacheWarm(), "cache with one entry must be warm at threshold 1")

	runs := 0
	for vcode.IntercodeGas() < bound {
		res, err := machine.Execute(Cancun, testChainParams(), host, testMessage(100000), hash, vcode)
		require.NoError(t, err)
		require.Equal(t, StatusSuccess, res.Status)
		runs++
		require.Less(t, runs, 1000, "compile threshold never crossed")
	}
	// The crossing run enqueued the compile. Wait for the worker and verify
	// the next call goes native.
	machine.Compiler().DebugWaitForEmptyQueue()
	require.NotNil(t, vcode.Nativecode(), "worker must publish into the cached varcode")
	require.NotNil(t, vcode.Nativecode().Entrypoint())

	before := machine.Stats().NativeExecutions
	_, err := machine.Execute(Cancun, testChainParams(), host, testMessage(100000), hash, vcode)
	require.NoError(t, err)
	require.Equal(t, before+1, machine.Stats().NativeExecutions)
}

// TestExecuteBytecodeBypassesCache checks that the ancillary entry points
// never touch the varcode cache.
func TestExecuteBytecodeBypassesCache(t *testing.T) {
	machine := testVM(t, quickCompiler(1), true)

	res, err := machine.ExecuteBytecode(Cancun, testChainParams(), newTestHost(), testMessage(100000), returnOneCode)
	require.NoError(t, err)
	require.Equal(t, StatusSuccess, res.Status)

	res, err = machine.ExecuteIntercode(Cancun, testChainParams(), newTestHost(), testMessage(100000), AnalyzeCode(returnOneCode))
	require.NoError(t, err)
	require.Equal(t, StatusSuccess, res.Status)

	machine.Compiler().DebugWaitForEmptyQueue()
	require.Equal(t, 0, machine.Compiler().Cache().Len(), "ancillary entry points must not populate the cache")

	stats := machine.Stats()
	require.EqualValues(t, 1, stats.BytecodeExecutions)
	require.EqualValues(t, 1, stats.IntercodeExecutions)
}
