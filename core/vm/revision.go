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

import "fmt"

// Revision identifies a set of opcode semantics. Revisions are totally
// ordered; later revisions include the semantics changes of all earlier ones.
type Revision int

const (
	Frontier Revision = iota
	Homestead
	TangerineWhistle
	SpuriousDragon
	Byzantium
	Constantinople
	Petersburg
	Istanbul
	Berlin
	London
	Paris
	Shanghai
	Cancun

	// LatestRevision is the most recent supported revision.
	LatestRevision = Cancun
)

var revisionToString = map[Revision]string{
	Frontier:         "Frontier",
	Homestead:        "Homestead",
	TangerineWhistle: "TangerineWhistle",
	SpuriousDragon:   "SpuriousDragon",
	Byzantium:        "Byzantium",
	Constantinople:   "Constantinople",
	Petersburg:       "Petersburg",
	Istanbul:         "Istanbul",
	Berlin:           "Berlin",
	London:           "London",
	Paris:            "Paris",
	Shanghai:         "Shanghai",
	Cancun:           "Cancun",
}

func (r Revision) String() string {
	if s, ok := revisionToString[r]; ok {
		return s
	}
	return fmt.Sprintf("revision %d not defined", int(r))
}

// ChainID identifies a set of compiled-code semantics. Two revisions that
// share opcode semantics map to the same chain id and can share native code.
type ChainID uint32

// ChainIDForRevision maps a revision to the chain id its native code is
// compiled against. The mapping is many-to-one: Petersburg rolled back the
// only Constantinople change that affected execution semantics on this code
// path, so both revisions run the same instruction set and share compiled
// artifacts. All other revisions alter gas schedules or add opcodes and get
// their own id.
func ChainIDForRevision(rev Revision) ChainID {
	if rev == Petersburg {
		return ChainID(Constantinople)
	}
	return ChainID(rev)
}
