package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
)

func runAskCommand(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(stderr, askUsage())
		return 1
	}
	switch args[0] {
	case "create":
		return runAskCreate(args[1:], stdout, stderr)
	case "set-price":
		return runAskSetPrice(args[1:], stdout, stderr)
	case "cancel":
		return runAskTokenWrite("birdswap_cancelAsk", args[1:], stdout, stderr)
	case "withdraw":
		return runAskTokenWrite("birdswap_withdrawBird", args[1:], stdout, stderr)
	case "fill":
		return runAskFill(args[1:], stdout, stderr)
	case "get":
		return runAskTokenRead("birdswap_askForMoonbird", args[1:], stdout, stderr)
	case "depositor":
		return runAskTokenRead("birdswap_moonbirdTransferredFromOwner", args[1:], stdout, stderr)
	case "escrowed":
		return runAskTokenRead("birdswap_isMoonbirdEscrowed", args[1:], stdout, stderr)
	default:
		fmt.Fprintf(stderr, "Unknown ask subcommand: %s\n", args[0])
		fmt.Fprintln(stderr, askUsage())
		return 1
	}
}

func runAskCreate(args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet("ask create", stderr, askUsage)
	caller := callerFlag(fs)
	token := fs.String("token", "", "token id")
	price := fs.String("price", "", "ask price in base units")
	buyer := fs.String("buyer", "", "the only account allowed to fill")
	currency := fs.String("currency", "", "ERC-20 style asset; empty for native")
	recipient := fs.String("recipient", "", "seller funds recipient; defaults to the caller")
	royalty := fs.Uint("royalty-bps", 0, "royalty fee in basis points")
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
	amount, err := normalizeAmount(*price)
	if err != nil {
		return printError(stderr, fmt.Sprintf("invalid --price: %v", err))
	}
	if err := requireValue("buyer", *buyer); err != nil {
		return printError(stderr, err.Error())
	}
	params := map[string]interface{}{
		"caller":        *caller,
		"tokenId":       tokenID,
		"askPrice":      amount,
		"buyer":         *buyer,
		"royaltyFeeBps": *royalty,
	}
	setIfPresent(params, "askCurrency", *currency)
	setIfPresent(params, "sellerFundsRecipient", *recipient)
	return invoke("birdswap_createAsk", params, true, stdout, stderr)
}

func runAskSetPrice(args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet("ask set-price", stderr, askUsage)
	caller := callerFlag(fs)
	token := fs.String("token", "", "token id")
	price := fs.String("price", "", "new ask price")
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
	amount, err := normalizeAmount(*price)
	if err != nil {
		return printError(stderr, fmt.Sprintf("invalid --price: %v", err))
	}
	return invoke("birdswap_setAskPrice", map[string]interface{}{
		"caller":   *caller,
		"tokenId":  tokenID,
		"askPrice": amount,
	}, true, stdout, stderr)
}

func runAskFill(args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet("ask fill", stderr, askUsage)
	caller := callerFlag(fs)
	token := fs.String("token", "", "token id")
	value := fs.String("value", "0", "native value attached to the fill")
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
	amount, err := normalizeAmount(*value)
	if err != nil {
		return printError(stderr, fmt.Sprintf("invalid --value: %v", err))
	}
	return invoke("birdswap_fillAsk", map[string]interface{}{
		"caller":  *caller,
		"tokenId": tokenID,
		"value":   amount,
	}, true, stdout, stderr)
}

func runAskTokenWrite(method string, args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet(method, stderr, askUsage)
	caller := callerFlag(fs)
	token := fs.String("token", "", "token id")
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
	return invoke(method, map[string]interface{}{"caller": *caller, "tokenId": tokenID}, true, stdout, stderr)
}

func runAskTokenRead(method string, args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet(method, stderr, askUsage)
	token := fs.String("token", "", "token id")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	tokenID, err := parseTokenID(*token)
	if err != nil {
		return printError(stderr, err.Error())
	}
	return invoke(method, map[string]interface{}{"tokenId": tokenID}, false, stdout, stderr)
}

// runDeposit escrows a bird by transferring it to the marketplace account.
func runDeposit(args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet("deposit", stderr, usage)
	caller := callerFlag(fs)
	token := fs.String("token", "", "token id")
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
	result, rpcErr, err := rpcCall("birdswap_addresses", nil, false)
	if err != nil {
		return handleRPCCallError(stderr, err)
	}
	if rpcErr != nil {
		return handleRPCError(stderr, rpcErr)
	}
	var addrs struct {
		Marketplace string `json:"marketplace"`
	}
	if err := json.Unmarshal(result, &addrs); err != nil || addrs.Marketplace == "" {
		return printError(stderr, "could not resolve the marketplace address")
	}
	return invoke("moonbirds_safeTransferWhileNesting", map[string]interface{}{
		"caller":  *caller,
		"from":    *caller,
		"to":      addrs.Marketplace,
		"tokenId": tokenID,
	}, true, stdout, stderr)
}

func parseTokenID(value string) (uint64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, fmt.Errorf("--token is required")
	}
	id, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid --token %q", value)
	}
	return id, nil
}

func setIfPresent(params map[string]interface{}, key, value string) {
	if v := strings.TrimSpace(value); v != "" {
		params[key] = v
	}
}

func askUsage() string {
	return strings.TrimSpace(`Usage:
  birdswap-cli ask <command> [flags]

Commands:
  create     Offer a bird to one buyer (--token --price --buyer [--currency --recipient --royalty-bps])
  set-price  Reprice an ask (--token --price)
  cancel     Cancel an ask and return the bird (--token)
  withdraw   Withdraw an unlisted bird from escrow (--token)
  fill       Buy a listed bird (--token [--value])
  get        Show the ask for a bird (--token)
  depositor  Show who escrowed a bird (--token)
  escrowed   Report whether a bird is in escrow (--token)

Write commands take --caller or BIRDSWAP_CALLER.`)
}
