package main

import (
	"fmt"
	"io"
	"strings"
)

func runBankCommand(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(stderr, bankUsage())
		return 1
	}
	switch args[0] {
	case "credit":
		return runBankMove("bank_credit", "to", args[1:], stdout, stderr)
	case "transfer":
		return runBankMove("bank_transfer", "to", args[1:], stdout, stderr)
	case "approve":
		return runBankMove("bank_approve", "spender", args[1:], stdout, stderr)
	case "balance":
		return runBankBalance(args[1:], stdout, stderr)
	case "allowance":
		return runBankAllowance(args[1:], stdout, stderr)
	default:
		fmt.Fprintf(stderr, "Unknown bank subcommand: %s\n", args[0])
		fmt.Fprintln(stderr, bankUsage())
		return 1
	}
}

// runBankMove handles the write calls that take an asset, a counterparty and
// an amount.
func runBankMove(method, counterparty string, args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet(method, stderr, bankUsage)
	caller := callerFlag(fs)
	asset := fs.String("asset", "", "asset address; empty for native")
	other := fs.String(counterparty, "", counterparty+" address")
	amount := fs.String("amount", "", "amount in base units")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if err := requireValue("caller", *caller); err != nil {
		return printError(stderr, err.Error())
	}
	if err := requireValue(counterparty, *other); err != nil {
		return printError(stderr, err.Error())
	}
	value, err := normalizeAmount(*amount)
	if err != nil {
		return printError(stderr, fmt.Sprintf("invalid --amount: %v", err))
	}
	params := map[string]interface{}{
		"caller":     *caller,
		counterparty: *other,
		"amount":     value,
	}
	setIfPresent(params, "asset", *asset)
	return invoke(method, params, true, stdout, stderr)
}

func runBankBalance(args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet("bank balance", stderr, bankUsage)
	asset := fs.String("asset", "", "asset address; empty for native")
	owner := fs.String("owner", "", "account to query")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if err := requireValue("owner", *owner); err != nil {
		return printError(stderr, err.Error())
	}
	params := map[string]interface{}{"owner": *owner}
	setIfPresent(params, "asset", *asset)
	return invoke("bank_balance", params, false, stdout, stderr)
}

func runBankAllowance(args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet("bank allowance", stderr, bankUsage)
	asset := fs.String("asset", "", "asset address")
	owner := fs.String("owner", "", "account granting the allowance")
	spender := fs.String("spender", "", "account allowed to spend")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	for name, value := range map[string]string{"asset": *asset, "owner": *owner, "spender": *spender} {
		if err := requireValue(name, value); err != nil {
			return printError(stderr, err.Error())
		}
	}
	return invoke("bank_allowance", map[string]interface{}{
		"asset":   *asset,
		"owner":   *owner,
		"spender": *spender,
	}, false, stdout, stderr)
}

func bankUsage() string {
	return strings.TrimSpace(`Usage:
  birdswap-cli bank <command> [flags]

Commands:
  credit     Owner-only mint of an asset (--to --amount [--asset])
  transfer   Move funds (--to --amount [--asset])
  approve    Allow a spender to pull an asset (--spender --amount --asset)
  balance    Show a balance (--owner [--asset])
  allowance  Show an allowance (--asset --owner --spender)`)
}
