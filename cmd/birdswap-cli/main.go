package main

import (
	"fmt"
	"io"
	"os"
	"strings"
)

var rpcEndpoint = defaultRPCEndpoint() // RPC_URL or --rpc override the localhost default
var rpcAuthToken = os.Getenv("BIRDSWAP_RPC_TOKEN")

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	args, err := applyGlobalFlags(args)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	if len(args) < 1 {
		fmt.Fprintln(stderr, usage())
		return 1
	}

	switch args[0] {
	case "ask":
		return runAskCommand(args[1:], stdout, stderr)
	case "deposit":
		return runDeposit(args[1:], stdout, stderr)
	case "moonbirds":
		return runMoonbirdsCommand(args[1:], stdout, stderr)
	case "bank":
		return runBankCommand(args[1:], stdout, stderr)
	case "admin":
		return runAdminCommand(args[1:], stdout, stderr)
	case "stats":
		return runStats(args[1:], stdout, stderr)
	case "config":
		return runSimpleQuery("birdswap_config", args[1:], stdout, stderr)
	case "addresses":
		return runSimpleQuery("birdswap_addresses", args[1:], stdout, stderr)
	case "events":
		return runEvents(args[1:], stdout, stderr)
	case "help", "-h", "--help":
		fmt.Fprintln(stdout, usage())
		return 0
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n", args[0])
		fmt.Fprintln(stderr, usage())
		return 1
	}
}

func defaultRPCEndpoint() string {
	if v := strings.TrimSpace(os.Getenv("RPC_URL")); v != "" {
		return v
	}
	return "http://localhost:8645"
}

func applyGlobalFlags(args []string) ([]string, error) {
	out := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--rpc" {
			if i+1 >= len(args) {
				return nil, fmt.Errorf("missing value for --rpc")
			}
			rpcEndpoint = args[i+1]
			i++
			continue
		}
		if strings.HasPrefix(arg, "--rpc=") {
			rpcEndpoint = strings.TrimPrefix(arg, "--rpc=")
			continue
		}
		out = append(out, arg)
	}
	return out, nil
}

func usage() string {
	return strings.TrimSpace(`Usage:
  birdswap-cli [--rpc URL] <command> [flags]

Commands:
  ask        Create, reprice, cancel, fill or inspect asks
  deposit    Escrow a bird with the marketplace
  moonbirds  Mint, nest, transfer and query birds
  bank       Credit, approve, transfer and query balances
  admin      Owner-only marketplace settings
  stats      Marketplace swap count and volume
  config     Show the marketplace configuration
  addresses  Show the marketplace and collection accounts
  events     List recent committed events

Write commands read the bearer token from BIRDSWAP_RPC_TOKEN.`)
}
