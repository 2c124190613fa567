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

// Entrypoint executes compiled contract code against a runtime context and
// a pre-allocated operand stack, leaving the outcome in the context's Status
// and Output fields. The
// entrypoint must produce results identical to interpreting the contract's
// intercode at the revision it was compiled for.
type Entrypoint func(ctx *Context, stack *Stack)

// Nativecode is the compiled artifact of a contract, bound to the chain id
// of the revision it was generated for. A nil entrypoint records a permanent
// compile failure so known-bad code is never re-submitted. Nativecode is
// immutable after publication.
type Nativecode struct {
	entry   Entrypoint
	chainID ChainID
}

// NewNativecode wraps a compiled entrypoint. entry may be nil to record a
// failed compilation for the given chain id.
func NewNativecode(entry Entrypoint, chainID ChainID) *Nativecode {
	return &Nativecode{entry: entry, chainID: chainID}
}

// Entrypoint returns the compiled entry function, or nil if compilation
// failed permanently.
func (nc *Nativecode) Entrypoint() Entrypoint {
	return nc.entry
}

// ChainID returns the chain id the code was compiled against.
func (nc *Nativecode) ChainID() ChainID {
	return nc.chainID
}
