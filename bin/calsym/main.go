package main

import (
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"

	"calsym"
	"calsym/calib"
)

type command struct {
	name string
	run  func(*calsym.Resolver, []string) error
}

var (
	commands = []command{
		{
			name: "symbols",
			run:  listSymbols,
		},
		{
			name: "resolve",
			run:  resolveQuery,
		},
		{
			name: "address",
			run:  resolveAddress,
		},
		{
			name: "leaves",
			run:  printLeaves,
		},
		{
			name: "calibrations",
			run:  listCalibrations,
		},
		{
			name: "classify",
			run:  classifySymbol,
		},
		{
			name: "errors",
			run:  printBuildErrors,
		},
	}
)

func main() {
	policyPath := ""
	flag.StringVar(&policyPath, "policy", "", "axis policy yaml file")

	flag.Parse()
	args := flag.Args()

	if len(args) != 1 {
		fmt.Println("USAGE: calsym [-policy <yaml>] <elf file>")
		return
	}

	policy := calib.DefaultPolicy()
	if policyPath != "" {
		var err error
		policy, err = calib.LoadPolicy(policyPath)
		if err != nil {
			panic(err)
		}
	}

	resolver, err := calsym.Open(args[0], policy)
	if err != nil {
		panic(err)
	}

	fmt.Printf(
		"loaded %s (%d symbols, %d defects)\n",
		args[0],
		len(resolver.AllSymbols()),
		len(resolver.BuildErrors()))

	rl, err := readline.New("calsym > ")
	if err != nil {
		panic(err)
	}
	defer rl.Close()

	lastLine := ""
	for {
		line, err := rl.Readline()
		if err != nil {
			if err == io.EOF || err == readline.ErrInterrupt {
				break
			}
			panic(err)
		}

		line = strings.TrimSpace(line)
		if line == "" {
			line = lastLine
		}
		lastLine = line

		if line == "" {
			continue
		}

		args := strings.Split(line, " ")
		if args[0] == "" {
			fmt.Println("invalid command: (empty string)")
		}

		found := false
		for _, cmd := range commands {
			if strings.HasPrefix(cmd.name, args[0]) {
				found = true
				err := cmd.run(resolver, args[1:])
				if err != nil {
					panic(err)
				}
			}
		}

		if !found {
			fmt.Println("invalid command:", args[0])
		}
	}
}
