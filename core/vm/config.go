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
	"runtime"
	"time"
)

// CompilerConfig are the configuration options for the compiler service and
// its code-generation backend.
type CompilerConfig struct {
	Workers           int           // Number of compile worker goroutines (0 = half the CPUs)
	QueueSize         int           // Capacity of the compile request queue
	MaxCacheWeight    uint64        // Weight budget of the varcode cache, in bytecode bytes
	CacheUpdatePeriod time.Duration // Minimum interval between recency bumps of a cache entry
	WarmThreshold     int           // Cache population at or above which it counts as warm
	MaxCodeSizeOffset uint64        // Additive headroom of the compiled-size estimate
	AsmLogPath        string        // Dump compiled programs to this file when set
}

// Config are the configuration options for the VM.
type Config struct {
	EnableAsyncCompile bool // Spawn background compile workers
	Compiler           CompilerConfig

	MaxStackCache  int // Operand stacks retained in the stack pool
	MaxMemoryCache int // Call memories retained in the memory pool
}

// DefaultConfig enables background compilation with a cache sized for a
// mainnet-like contract working set.
var DefaultConfig = Config{
	EnableAsyncCompile: true,
	Compiler: CompilerConfig{
		QueueSize:         1024,
		MaxCacheWeight:    256 << 20,
		CacheUpdatePeriod: 10 * time.Millisecond,
		WarmThreshold:     4096,
	},
	MaxStackCache:  64,
	MaxMemoryCache: 64,
}

// withDefaults fills the zero fields of a config.
func (config Config) withDefaults() Config {
	if config.Compiler.Workers <= 0 {
		config.Compiler.Workers = max(1, runtime.NumCPU()/2)
	}
	if config.Compiler.QueueSize <= 0 {
		config.Compiler.QueueSize = DefaultConfig.Compiler.QueueSize
	}
	if config.Compiler.MaxCacheWeight == 0 {
		config.Compiler.MaxCacheWeight = DefaultConfig.Compiler.MaxCacheWeight
	}
	if config.Compiler.CacheUpdatePeriod == 0 {
		config.Compiler.CacheUpdatePeriod = DefaultConfig.Compiler.CacheUpdatePeriod
	}
	if config.Compiler.WarmThreshold == 0 {
		config.Compiler.WarmThreshold = DefaultConfig.Compiler.WarmThreshold
	}
	if config.MaxStackCache <= 0 {
		config.MaxStackCache = DefaultConfig.MaxStackCache
	}
	if config.MaxMemoryCache <= 0 {
		config.MaxMemoryCache = DefaultConfig.MaxMemoryCache
	}
	return config
}
