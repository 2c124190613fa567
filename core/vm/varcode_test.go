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
	"testing"
)

func nopEntrypoint(ctx *Context, stack *Stack) {}

func TestVarcodePublishOnce(t *testing.T) {
	vc := NewVarcode(AnalyzeCode([]byte{byte(STOP)}))
	if vc.Nativecode() != nil {
		t.Fatal("fresh varcode must have an empty slot")
	}
	first := NewNativecode(nopEntrypoint, ChainIDForRevision(Cancun))
	vc.PublishNativecode(first)
	if vc.Nativecode() != first {
		t.Fatal("first publish not installed")
	}
	// A second publish for the same chain is dropped, even if it carries a
	// different artifact.
	second := NewNativecode(nopEntrypoint, ChainIDForRevision(Cancun))
	vc.PublishNativecode(second)
	if vc.Nativecode() != first {
		t.Fatal("second publish for the same chain replaced the first")
	}
}

func TestVarcodeNoRegressToFailure(t *testing.T) {
	vc := NewVarcode(AnalyzeCode([]byte{byte(STOP)}))
	vc.PublishNativecode(NewNativecode(nopEntrypoint, ChainIDForRevision(Cancun)))

	// A late failure sentinel for the same chain must not clobber the
	// working entrypoint.
	vc.PublishNativecode(NewNativecode(nil, ChainIDForRevision(Cancun)))
	if vc.Nativecode().Entrypoint() == nil {
		t.Fatal("failure sentinel regressed a successful compile")
	}
}

func TestVarcodeRevisionChangeOverwrites(t *testing.T) {
	vc := NewVarcode(AnalyzeCode([]byte{byte(STOP)}))
	old := NewNativecode(nopEntrypoint, ChainIDForRevision(London))
	vc.PublishNativecode(old)

	replacement := NewNativecode(nopEntrypoint, ChainIDForRevision(Cancun))
	vc.PublishNativecode(replacement)
	if vc.Nativecode() != replacement {
		t.Fatal("revision change must replace stale nativecode")
	}
}

func TestVarcodeGasCounter(t *testing.T) {
	vc := NewVarcode(AnalyzeCode([]byte{byte(STOP)}))
	if got := vc.AddIntercodeGas(100); got != 100 {
		t.Fatalf("counter %d, want 100", got)
	}
	if got := vc.AddIntercodeGas(50); got != 150 {
		t.Fatalf("counter %d, want 150", got)
	}
	// The counter saturates instead of wrapping.
	if got := vc.AddIntercodeGas(math.MaxUint64); got != math.MaxUint64 {
		t.Fatalf("counter %d, want saturation at MaxUint64", got)
	}
	if got := vc.AddIntercodeGas(1); got != math.MaxUint64 {
		t.Fatalf("counter %d, want to stay saturated", got)
	}
}

func TestVarcodeCacheWeight(t *testing.T) {
	if w := NewVarcode(AnalyzeCode(nil)).CacheWeight(); w != 1 {
		t.Fatalf("empty code weight %d, want floor of 1", w)
	}
	if w := NewVarcode(AnalyzeCode(make([]byte, 1000))).CacheWeight(); w != 1000 {
		t.Fatalf("weight %d, want 1000", w)
	}
}

func TestChainIDForRevision(t *testing.T) {
	if ChainIDForRevision(Petersburg) != ChainIDForRevision(Constantinople) {
		t.Fatal("Petersburg must share Constantinople's chain id")
	}
	seen := make(map[ChainID]Revision)
	for rev := Frontier; rev <= LatestRevision; rev++ {
		if rev == Petersburg {
			continue
		}
		id := ChainIDForRevision(rev)
		if prev, ok := seen[id]; ok {
			t.Fatalf("revisions %v and %v unexpectedly share chain id %d", prev, rev, id)
		}
		seen[id] = rev
	}
}
