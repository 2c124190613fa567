// Copyright 2024 The go-ember Authors
// This file is part of go-ember.
//
// go-ember is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// go-ember is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with go-ember. If not, see <http://www.gnu.org/licenses/>.

// ember is a command line utility that executes EVM bytecode through the
// tiered virtual machine.
package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/embervm/go-ember/common"
	"github.com/embervm/go-ember/core/vm"
	"github.com/embervm/go-ember/core/vm/runtime"
	"github.com/embervm/go-ember/crypto"
	"github.com/embervm/go-ember/log"
	"github.com/holiman/uint256"
	"github.com/urfave/cli/v2"
)

var (
	codeFlag = &cli.StringFlag{
		Name:  "code",
		Usage: "EVM bytecode to execute, as a hex string",
	}
	codeFileFlag = &cli.StringFlag{
		Name:  "codefile",
		Usage: "File containing EVM bytecode as hex",
	}
	inputFlag = &cli.StringFlag{
		Name:  "input",
		Usage: "Call data, as a hex string",
	}
	gasFlag = &cli.Uint64Flag{
		Name:  "gas",
		Usage: "Gas limit for the call",
		Value: 10_000_000,
	}
	priceFlag = &cli.Uint64Flag{
		Name:  "price",
		Usage: "Gas price of the transaction",
	}
	valueFlag = &cli.Uint64Flag{
		Name:  "value",
		Usage: "Value transferred with the call",
	}
	revisionFlag = &cli.StringFlag{
		Name:  "revision",
		Usage: "Protocol revision to execute under (e.g. cancun, london)",
		Value: "cancun",
	}
	compileFlag = &cli.BoolFlag{
		Name:  "compile",
		Usage: "Compile the code synchronously and run the compiled tier",
	}
	benchFlag = &cli.BoolFlag{
		Name:  "bench",
		Usage: "Run the code once interpreted and once compiled, reporting both timings",
	}
	statsFlag = &cli.BoolFlag{
		Name:  "stats",
		Usage: "Print tier execution counters after the run",
	}
	asmLogFlag = &cli.StringFlag{
		Name:  "asmlog",
		Usage: "Append compiled program listings to this file",
	}
)

var app = &cli.App{
	Name:  "ember",
	Usage: "executes EVM bytecode through the tiered virtual machine",
	Flags: []cli.Flag{
		codeFlag,
		codeFileFlag,
		inputFlag,
		gasFlag,
		priceFlag,
		valueFlag,
		revisionFlag,
		compileFlag,
		benchFlag,
		statsFlag,
		asmLogFlag,
	},
	Action: run,
}

func main() {
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func parseRevision(name string) (vm.Revision, error) {
	for rev := vm.Frontier; rev <= vm.LatestRevision; rev++ {
		if strings.EqualFold(rev.String(), name) {
			return rev, nil
		}
	}
	return 0, fmt.Errorf("unknown revision %q", name)
}

func loadCode(ctx *cli.Context) ([]byte, error) {
	if ctx.IsSet(codeFlag.Name) {
		return common.FromHex(strings.TrimSpace(ctx.String(codeFlag.Name))), nil
	}
	if ctx.IsSet(codeFileFlag.Name) {
		data, err := os.ReadFile(ctx.String(codeFileFlag.Name))
		if err != nil {
			return nil, err
		}
		return common.FromHex(strings.TrimSpace(string(data))), nil
	}
	return nil, fmt.Errorf("either --%s or --%s must be given", codeFlag.Name, codeFileFlag.Name)
}

func run(ctx *cli.Context) error {
	code, err := loadCode(ctx)
	if err != nil {
		return err
	}
	rev, err := parseRevision(ctx.String(revisionFlag.Name))
	if err != nil {
		return err
	}
	cfg := &runtime.Config{
		Revision: rev,
		GasLimit: ctx.Uint64(gasFlag.Name),
		GasPrice: *uint256.NewInt(ctx.Uint64(priceFlag.Name)),
		Value:    *uint256.NewInt(ctx.Uint64(valueFlag.Name)),
		EVMConfig: vm.Config{
			EnableAsyncCompile: false,
			Compiler: vm.CompilerConfig{
				AsmLogPath: ctx.String(asmLogFlag.Name),
			},
		},
	}
	machine := vm.NewVM(cfg.EVMConfig)
	defer machine.Stop()
	cfg.VM = machine

	input := common.FromHex(strings.TrimSpace(ctx.String(inputFlag.Name)))

	if ctx.Bool(compileFlag.Name) || ctx.Bool(benchFlag.Name) {
		// Estimate the compile cost up front with one synchronous compile,
		// then install the artifact so Execute routes through the compiled
		// tier.
		icode := vm.AnalyzeCode(code)
		start := time.Now()
		ncode := machine.Compiler().Compile(rev, icode)
		log.Info("Compiled contract", "size", icode.Size(), "elapsed", time.Since(start))
		if ncode.Entrypoint() == nil {
			return fmt.Errorf("contract was rejected by the compiler")
		}
		if ctx.Bool(benchFlag.Name) {
			start = time.Now()
			res, _, err := runtime.Execute(code, input, cfg)
			if err != nil {
				return err
			}
			log.Info("Interpreted run", "status", res.Status, "gasUsed", cfg.GasLimit-res.GasLeft, "elapsed", time.Since(start))
		}
		hash := crypto.Keccak256Hash(code)
		vcode := machine.Compiler().GetOrInsertVarcode(hash, icode)
		vcode.PublishNativecode(ncode)
	}

	start := time.Now()
	res, env, err := runtime.Execute(code, input, cfg)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	fmt.Printf("status:   %v\n", res.Status)
	fmt.Printf("gas used: %d\n", cfg.GasLimit-res.GasLeft)
	if res.GasRefund != 0 {
		fmt.Printf("refund:   %d\n", res.GasRefund)
	}
	fmt.Printf("output:   0x%x\n", res.Output)
	fmt.Printf("elapsed:  %v\n", elapsed)
	for i, l := range env.Logs() {
		fmt.Printf("log %d:    addr=%v topics=%v data=0x%x\n", i, l.Address, l.Topics, l.Data)
	}
	if ctx.Bool(statsFlag.Name) {
		stats := machine.Stats()
		fmt.Printf("executions: bytecode=%d intercode=%d native=%d\n",
			stats.BytecodeExecutions, stats.IntercodeExecutions, stats.NativeExecutions)
	}
	return nil
}
