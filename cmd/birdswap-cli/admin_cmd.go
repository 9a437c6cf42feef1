package main

import (
	"fmt"
	"io"
	"strings"
)

func runAdminCommand(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(stderr, adminUsage())
		return 1
	}
	switch args[0] {
	case "fee":
		return runAdminFee(args[1:], stdout, stderr)
	case "payout":
		return runAdminAddress("birdswap_setMarketplaceFeePayoutAddress", args[1:], stdout, stderr)
	case "transfer-ownership":
		return runAdminAddress("birdswap_transferOwnership", args[1:], stdout, stderr)
	case "upgrade":
		return runAdminUpgrade(args[1:], stdout, stderr)
	default:
		fmt.Fprintf(stderr, "Unknown admin subcommand: %s\n", args[0])
		fmt.Fprintln(stderr, adminUsage())
		return 1
	}
}

func runAdminFee(args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet("admin fee", stderr, adminUsage)
	caller := callerFlag(fs)
	bps := fs.Int("bps", -1, "marketplace fee in basis points")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if err := requireValue("caller", *caller); err != nil {
		return printError(stderr, err.Error())
	}
	if *bps < 0 || *bps > 10_000 {
		return printError(stderr, "--bps must be between 0 and 10000")
	}
	return invoke("birdswap_setMarketplaceFeeBps", map[string]interface{}{
		"caller": *caller,
		"bps":    *bps,
	}, true, stdout, stderr)
}

func runAdminAddress(method string, args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet(method, stderr, adminUsage)
	caller := callerFlag(fs)
	address := fs.String("address", "", "new address")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if err := requireValue("caller", *caller); err != nil {
		return printError(stderr, err.Error())
	}
	if err := requireValue("address", *address); err != nil {
		return printError(stderr, err.Error())
	}
	return invoke(method, map[string]interface{}{
		"caller":  *caller,
		"address": *address,
	}, true, stdout, stderr)
}

func runAdminUpgrade(args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet("admin upgrade", stderr, adminUsage)
	caller := callerFlag(fs)
	version := fs.Uint("version", 0, "target schema version")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if err := requireValue("caller", *caller); err != nil {
		return printError(stderr, err.Error())
	}
	if *version == 0 {
		return printError(stderr, "--version is required")
	}
	return invoke("birdswap_upgradeTo", map[string]interface{}{
		"caller":  *caller,
		"version": *version,
	}, true, stdout, stderr)
}

// runStats prints the swap count, and the volume for one currency when
// --currency is given.
func runStats(args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet("stats", stderr, usage)
	currency := fs.String("currency", "", "asset address, or native")
	volume := fs.Bool("volume", false, "show the settled volume instead of the swap count")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if !*volume {
		return invoke("birdswap_totalSwap", nil, false, stdout, stderr)
	}
	params := map[string]interface{}{}
	if c := strings.TrimSpace(*currency); c != "" && !strings.EqualFold(c, "native") {
		params["currency"] = c
	}
	return invoke("birdswap_totalVolume", params, false, stdout, stderr)
}

func runSimpleQuery(method string, args []string, stdout, stderr io.Writer) int {
	if len(args) > 0 {
		return printError(stderr, fmt.Sprintf("unexpected argument %q", args[0]))
	}
	return invoke(method, nil, false, stdout, stderr)
}

func runEvents(args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet("events", stderr, usage)
	limit := fs.Int("limit", 50, "number of recent events")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	return invoke("birdswap_events", map[string]interface{}{"limit": *limit}, false, stdout, stderr)
}

func adminUsage() string {
	return strings.TrimSpace(`Usage:
  birdswap-cli admin <command> [flags]

Commands:
  fee                 Set the marketplace fee (--bps)
  payout              Set the fee payout address (--address)
  transfer-ownership  Hand the marketplace to a new owner (--address)
  upgrade             Upgrade the state schema (--version)`)
}
