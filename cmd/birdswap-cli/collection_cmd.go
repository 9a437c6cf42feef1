package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

func runMoonbirdsCommand(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(stderr, moonbirdsUsage())
		return 1
	}
	switch args[0] {
	case "mint":
		return runMint(args[1:], stdout, stderr)
	case "nest":
		return runNest(args[1:], stdout, stderr)
	case "transfer":
		return runTokenTransfer(args[1:], stdout, stderr)
	case "approve":
		return runTokenApprove(args[1:], stdout, stderr)
	case "royalty":
		return runDefaultRoyalty(args[1:], stdout, stderr)
	case "owner":
		return runAskTokenRead("moonbirds_ownerOf", args[1:], stdout, stderr)
	case "nested":
		return runAskTokenRead("moonbirds_isNested", args[1:], stdout, stderr)
	default:
		fmt.Fprintf(stderr, "Unknown moonbirds subcommand: %s\n", args[0])
		fmt.Fprintln(stderr, moonbirdsUsage())
		return 1
	}
}

func runMint(args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet("moonbirds mint", stderr, moonbirdsUsage)
	caller := callerFlag(fs)
	to := fs.String("to", "", "recipient of the minted birds")
	count := fs.Uint64("count", 1, "number of birds to mint")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if err := requireValue("caller", *caller); err != nil {
		return printError(stderr, err.Error())
	}
	if err := requireValue("to", *to); err != nil {
		return printError(stderr, err.Error())
	}
	if *count == 0 {
		return printError(stderr, "--count must be positive")
	}
	return invoke("moonbirds_mintUnclaimed", map[string]interface{}{
		"caller": *caller,
		"to":     *to,
		"count":  *count,
	}, true, stdout, stderr)
}

func runNest(args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet("moonbirds nest", stderr, moonbirdsUsage)
	caller := callerFlag(fs)
	tokens := fs.String("tokens", "", "comma separated token ids to toggle")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if err := requireValue("caller", *caller); err != nil {
		return printError(stderr, err.Error())
	}
	ids, err := parseTokenList(*tokens)
	if err != nil {
		return printError(stderr, err.Error())
	}
	return invoke("moonbirds_toggleNesting", map[string]interface{}{
		"caller":   *caller,
		"tokenIds": ids,
	}, true, stdout, stderr)
}

func runTokenTransfer(args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet("moonbirds transfer", stderr, moonbirdsUsage)
	caller := callerFlag(fs)
	token := fs.String("token", "", "token id")
	from := fs.String("from", "", "current owner; defaults to the caller")
	to := fs.String("to", "", "recipient")
	nesting := fs.Bool("while-nesting", false, "use the nesting-aware transfer")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if err := requireValue("caller", *caller); err != nil {
		return printError(stderr, err.Error())
	}
	if err := requireValue("to", *to); err != nil {
		return printError(stderr, err.Error())
	}
	tokenID, err := parseTokenID(*token)
	if err != nil {
		return printError(stderr, err.Error())
	}
	sender := *from
	if strings.TrimSpace(sender) == "" {
		sender = *caller
	}
	method := "moonbirds_transferFrom"
	if *nesting {
		method = "moonbirds_safeTransferWhileNesting"
	}
	return invoke(method, map[string]interface{}{
		"caller":  *caller,
		"from":    sender,
		"to":      *to,
		"tokenId": tokenID,
	}, true, stdout, stderr)
}

func runTokenApprove(args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet("moonbirds approve", stderr, moonbirdsUsage)
	caller := callerFlag(fs)
	token := fs.String("token", "", "token id")
	to := fs.String("to", "", "approved operator")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if err := requireValue("caller", *caller); err != nil {
		return printError(stderr, err.Error())
	}
	tokenID, err := parseTokenID(*token)
	if err != nil {
		return printError(stderr, err.Error())
	}
	params := map[string]interface{}{"caller": *caller, "tokenId": tokenID}
	setIfPresent(params, "to", *to)
	return invoke("moonbirds_approve", params, true, stdout, stderr)
}

func runDefaultRoyalty(args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet("moonbirds royalty", stderr, moonbirdsUsage)
	caller := callerFlag(fs)
	receiver := fs.String("receiver", "", "royalty receiver")
	bps := fs.Uint("bps", 0, "royalty in basis points")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if err := requireValue("caller", *caller); err != nil {
		return printError(stderr, err.Error())
	}
	if *bps > 10_000 {
		return printError(stderr, "--bps must not exceed 10000")
	}
	params := map[string]interface{}{"caller": *caller, "bps": *bps}
	setIfPresent(params, "address", *receiver)
	return invoke("moonbirds_setDefaultRoyalty", params, true, stdout, stderr)
}

func parseTokenList(value string) ([]uint64, error) {
	parts := strings.Split(value, ",")
	ids := make([]uint64, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseUint(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid token id %q", part)
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("--tokens is required")
	}
	return ids, nil
}

func moonbirdsUsage() string {
	return strings.TrimSpace(`Usage:
  birdswap-cli moonbirds <command> [flags]

Commands:
  mint      Mint unclaimed birds (--to [--count])
  nest      Toggle nesting (--tokens 1,2,3)
  transfer  Transfer a bird (--token --to [--from --while-nesting])
  approve   Approve an operator for one bird (--token [--to])
  royalty   Set the default royalty (--receiver --bps)
  owner     Show the owner of a bird (--token)
  nested    Report whether a bird is nesting (--token)`)
}
