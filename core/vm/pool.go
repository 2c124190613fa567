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

// stackPool is a bounded free-list of operand stacks. Executions acquire a
// stack once per call; releases above the cap let the buffer go to the
// garbage collector instead of growing the pool without bound.
type stackPool struct {
	free chan *Stack
}

func newStackPool(cap int) *stackPool {
	return &stackPool{free: make(chan *Stack, cap)}
}

func (p *stackPool) get() *Stack {
	select {
	case s := <-p.free:
		return s
	default:
		return newstack()
	}
}

func (p *stackPool) put(s *Stack) {
	s.reset()
	select {
	case p.free <- s:
	default:
	}
}

// memoryPool is the bounded free-list of call memories, mirroring stackPool.
type memoryPool struct {
	free chan *Memory
}

func newMemoryPool(cap int) *memoryPool {
	return &memoryPool{free: make(chan *Memory, cap)}
}

func (p *memoryPool) get() *Memory {
	select {
	case m := <-p.free:
		return m
	default:
		return NewMemory()
	}
}

func (p *memoryPool) put(m *Memory) {
	m.reset()
	select {
	case p.free <- m:
	default:
	}
}
