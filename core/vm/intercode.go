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

// Intercode is the analyzed, immutable form of a contract's bytecode: the
// raw opcodes plus the jump-destination bitmap extracted up front so the
// interpreter and the compiler never re-scan the code. Intercode is shared
// by reference between the cache, in-flight executions and queued compile
// requests; none of them may mutate it.
type Intercode struct {
	code      []byte
	jumpdests bitvec
}

// AnalyzeCode analyzes the given raw bytecode and returns its intercode
// form. The input slice is not retained; callers may reuse it.
func AnalyzeCode(code []byte) *Intercode {
	c := make([]byte, len(code))
	copy(c, code)
	return &Intercode{
		code:      c,
		jumpdests: codeBitmap(c),
	}
}

// Code returns the raw bytecode. Callers must not modify the contents of the
// returned slice.
func (ic *Intercode) Code() []byte {
	return ic.code
}

// Size returns the bytecode length in bytes.
func (ic *Intercode) Size() int {
	return len(ic.code)
}

// GetOp returns the n'th element in the bytecode as an OpCode, or STOP past
// the end of the code.
func (ic *Intercode) GetOp(n uint64) OpCode {
	if n < uint64(len(ic.code)) {
		return OpCode(ic.code[n])
	}
	return STOP
}

// ValidJumpdest reports whether dest is on a JUMPDEST byte that is not part
// of PUSH data.
func (ic *Intercode) ValidJumpdest(dest uint64) bool {
	if dest >= uint64(len(ic.code)) {
		return false
	}
	if OpCode(ic.code[dest]) != JUMPDEST {
		return false
	}
	return ic.jumpdests.codeSegment(dest)
}
