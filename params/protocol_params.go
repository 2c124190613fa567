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

// Package params holds the protocol gas schedule constants.
package params

const (
	GasQuickStep   uint64 = 2
	GasFastestStep uint64 = 3
	GasFastStep    uint64 = 5
	GasMidStep     uint64 = 8
	GasSlowStep    uint64 = 10
	GasExtStep     uint64 = 20

	MaximumExtraDataSize uint64 = 32   // Maximum size extra data may be after Genesis.
	CallValueTransferGas uint64 = 9000 // Paid for CALL when the value transfer is non-zero.
	CallNewAccountGas    uint64 = 25000
	CallStipend          uint64 = 2300 // Free gas given at beginning of call.

	Keccak256Gas     uint64 = 30 // Once per KECCAK256 operation.
	Keccak256WordGas uint64 = 6  // Once per word of the KECCAK256 operation's data.

	SloadGas          uint64 = 50  // Frontier SLOAD cost.
	SloadGasEIP150    uint64 = 200 // Tangerine Whistle SLOAD cost.
	SloadGasEIP1884   uint64 = 800 // Istanbul SLOAD cost.
	SstoreSetGas      uint64 = 20000
	SstoreResetGas    uint64 = 5000
	SstoreClearGas    uint64 = 5000
	SstoreRefundGas   uint64 = 15000
	SstoreClearsScheduleRefundEIP3529 uint64 = 4800 // London clears refund (EIP-3529).

	JumpdestGas   uint64 = 1
	CreateDataGas uint64 = 200
	CallCreateDepth uint64 = 1024 // Maximum depth of call/create stack.

	ExpGas       uint64 = 10
	ExpByteFrontier uint64 = 10 // was set to 10 in Frontier
	ExpByteEIP158   uint64 = 50 // was raised to 50 during Eip158 (Spurious Dragon)

	LogGas      uint64 = 375 // Per LOG* operation.
	LogDataGas  uint64 = 8   // Per byte in a LOG* operation's data.
	LogTopicGas uint64 = 375 // Multiplied by the * of the LOG*, per LOG transaction.

	CopyGas     uint64 = 3
	MemoryGas   uint64 = 3 // Times the address of the (highest referenced byte in memory + 1).
	QuadCoeffDiv uint64 = 512 // Divisor for the quadratic particle of the memory cost equation.

	BalanceGasFrontier   uint64 = 20  // The cost of a BALANCE operation
	BalanceGasEIP150     uint64 = 400 // The cost of a BALANCE operation after Tangerine
	BalanceGasEIP1884    uint64 = 700 // The cost of a BALANCE operation after EIP 1884 (part of Istanbul)
	ExtcodeSizeGasFrontier uint64 = 20  // Cost of EXTCODESIZE before EIP 150 (Tangerine)
	ExtcodeSizeGasEIP150   uint64 = 700 // Cost of EXTCODESIZE after EIP 150 (Tangerine)
	ExtcodeCopyBaseFrontier uint64 = 20
	ExtcodeCopyBaseEIP150   uint64 = 700
	ExtcodeHashGasConstantinople uint64 = 400 // Cost of EXTCODEHASH (introduced in Constantinople)
	ExtcodeHashGasEIP1884        uint64 = 700 // Cost of EXTCODEHASH after EIP 1884 (part in Istanbul)
	SelfdestructGasEIP150        uint64 = 5000 // Cost of SELFDESTRUCT post EIP 150 (Tangerine)
	SelfdestructRefundGas        uint64 = 24000 // Refunded following a selfdestruct operation.
	CreateBySelfdestructGas      uint64 = 25000 // Surcharge when SELFDESTRUCT funds a fresh account.

	CallGasFrontier uint64 = 40  // Once per CALL operation & message call transaction.
	CallGasEIP150   uint64 = 700 // Static portion of gas for CALL-derivates after EIP 150 (Tangerine)

	CreateGas  uint64 = 32000 // Once per CREATE operation & contract-creation transaction.
	Create2Gas uint64 = 32000 // Once per CREATE2 operation

	TxAccessListAddressGas    uint64 = 2400 // Per address specified in EIP 2930 access list
	TxAccessListStorageKeyGas uint64 = 1900 // Per storage key specified in EIP 2930 access list

	// EIP-2929 gas schedule (Berlin).
	ColdAccountAccessCostEIP2929 uint64 = 2600 // COLD_ACCOUNT_ACCESS_COST
	ColdSloadCostEIP2929         uint64 = 2100 // COLD_SLOAD_COST
	WarmStorageReadCostEIP2929   uint64 = 100  // WARM_STORAGE_READ_COST

	// EIP-2200 gas schedule (Istanbul).
	SstoreSentryGasEIP2200 uint64 = 2300  // Minimum gas required to be present for an SSTORE call, not consumed
	SstoreSetGasEIP2200    uint64 = 20000 // Once per SSTORE operation from clean zero to non-zero
	SstoreResetGasEIP2200  uint64 = 5000  // Once per SSTORE operation from clean non-zero to something else
	SstoreClearsScheduleRefundEIP2200 uint64 = 15000 // Once per SSTORE operation for clearing an originally existing storage slot

	// EIP-1153 transient storage (Cancun).
	TloadGas  uint64 = 100
	TstoreGas uint64 = 100

	BlobHashGas    uint64 = 3 // Cost of BLOBHASH opcode
	InitCodeWordGas uint64 = 2 // Once per word of the init code when creating a contract.

	MaxCodeSize     = 24576           // Maximum bytecode to permit for a contract
	MaxInitCodeSize = 2 * MaxCodeSize // Maximum initcode to permit in a creation transaction and create instructions
)
