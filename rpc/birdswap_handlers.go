package rpc

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"birdswap/native/birdswap"
)

func (s *Server) routes() map[string]method {
	write := func(h handlerFunc) method { return method{write: true, handle: h} }
	read := func(h handlerFunc) method { return method{handle: h} }
	return map[string]method{
		"birdswap_createAsk":                      write(s.handleCreateAsk),
		"birdswap_setAskPrice":                    write(s.handleSetAskPrice),
		"birdswap_cancelAsk":                      write(s.handleCancelAsk),
		"birdswap_withdrawBird":                   write(s.handleWithdrawBird),
		"birdswap_fillAsk":                        write(s.handleFillAsk),
		"birdswap_setMarketplaceFeeBps":           write(s.handleSetMarketplaceFeeBps),
		"birdswap_setMarketplaceFeePayoutAddress": write(s.handleSetPayout),
		"birdswap_transferOwnership":              write(s.handleTransferOwnership),
		"birdswap_upgradeTo":                      write(s.handleUpgradeTo),
		"birdswap_askForMoonbird":                 read(s.handleAskForMoonbird),
		"birdswap_moonbirdTransferredFromOwner":   read(s.handleTransferredFromOwner),
		"birdswap_isMoonbirdEscrowed":             read(s.handleIsEscrowed),
		"birdswap_totalSwap":                      read(s.handleTotalSwap),
		"birdswap_totalVolume":                    read(s.handleTotalVolume),
		"birdswap_config":                         read(s.handleConfig),
		"birdswap_addresses":                      read(s.handleAddresses),
		"birdswap_events":                         read(s.handleEvents),
		"moonbirds_mintUnclaimed":                 write(s.handleMintUnclaimed),
		"moonbirds_toggleNesting":                 write(s.handleToggleNesting),
		"moonbirds_safeTransferWhileNesting":      write(s.handleSafeTransferWhileNesting),
		"moonbirds_transferFrom":                  write(s.handleTransferFrom),
		"moonbirds_approve":                       write(s.handleApproveToken),
		"moonbirds_setDefaultRoyalty":             write(s.handleSetDefaultRoyalty),
		"moonbirds_ownerOf":                       read(s.handleOwnerOf),
		"moonbirds_isNested":                      read(s.handleIsNested),
		"bank_credit":                             write(s.handleCredit),
		"bank_approve":                            write(s.handleBankApprove),
		"bank_transfer":                           write(s.handleBankTransfer),
		"bank_balance":                            read(s.handleBalance),
		"bank_allowance":                          read(s.handleAllowance),
	}
}

func (s *Server) handleCreateAsk(_ context.Context, p *callParams) (interface{}, error) {
	caller, err := p.caller()
	if err != nil {
		return nil, err
	}
	id, err := p.tokenID()
	if err != nil {
		return nil, err
	}
	buyer, err := parseAddress("buyer", p.Buyer, true)
	if err != nil {
		return nil, err
	}
	price, err := parseAmount("askPrice", p.AskPrice, true)
	if err != nil {
		return nil, err
	}
	var royalty uint16
	if p.RoyaltyFeeBps != nil {
		if royalty, err = bps("royaltyFeeBps", p.RoyaltyFeeBps); err != nil {
			return nil, err
		}
	}
	currency, err := parseAddress("askCurrency", p.AskCurrency, false)
	if err != nil {
		return nil, err
	}
	recipient, err := parseAddress("sellerFundsRecipient", p.SellerFundsRecipient, false)
	if err != nil {
		return nil, err
	}
	if recipient == (common.Address{}) {
		recipient = caller
	}
	ask, err := s.node.CreateAsk(caller, birdswap.CreateAskParams{
		TokenID:              id,
		Buyer:                buyer,
		AskPrice:             price,
		RoyaltyFeeBps:        royalty,
		AskCurrency:          currency,
		SellerFundsRecipient: recipient,
	})
	if err != nil {
		return nil, err
	}
	return askResult(ask), nil
}

func (s *Server) handleSetAskPrice(_ context.Context, p *callParams) (interface{}, error) {
	caller, err := p.caller()
	if err != nil {
		return nil, err
	}
	id, err := p.tokenID()
	if err != nil {
		return nil, err
	}
	price, err := parseAmount("askPrice", p.AskPrice, true)
	if err != nil {
		return nil, err
	}
	if err := s.node.SetAskPrice(caller, id, price); err != nil {
		return nil, err
	}
	return OKResult{OK: true}, nil
}

func (s *Server) handleCancelAsk(_ context.Context, p *callParams) (interface{}, error) {
	caller, err := p.caller()
	if err != nil {
		return nil, err
	}
	id, err := p.tokenID()
	if err != nil {
		return nil, err
	}
	if err := s.node.CancelAsk(caller, id); err != nil {
		return nil, err
	}
	return OKResult{OK: true}, nil
}

func (s *Server) handleWithdrawBird(_ context.Context, p *callParams) (interface{}, error) {
	caller, err := p.caller()
	if err != nil {
		return nil, err
	}
	id, err := p.tokenID()
	if err != nil {
		return nil, err
	}
	if err := s.node.WithdrawBird(caller, id); err != nil {
		return nil, err
	}
	return OKResult{OK: true}, nil
}

func (s *Server) handleFillAsk(_ context.Context, p *callParams) (interface{}, error) {
	caller, err := p.caller()
	if err != nil {
		return nil, err
	}
	id, err := p.tokenID()
	if err != nil {
		return nil, err
	}
	value, err := parseAmount("value", p.Value, false)
	if err != nil {
		return nil, err
	}
	settled, err := s.node.FillAsk(caller, id, value)
	if err != nil {
		return nil, err
	}
	return settlementResult(settled), nil
}

func (s *Server) handleSetMarketplaceFeeBps(_ context.Context, p *callParams) (interface{}, error) {
	caller, err := p.caller()
	if err != nil {
		return nil, err
	}
	value, err := bps("bps", p.Bps)
	if err != nil {
		return nil, err
	}
	if err := s.node.SetMarketplaceFeeBps(caller, value); err != nil {
		return nil, err
	}
	return OKResult{OK: true}, nil
}

func (s *Server) handleSetPayout(_ context.Context, p *callParams) (interface{}, error) {
	caller, err := p.caller()
	if err != nil {
		return nil, err
	}
	payout, err := parseAddress("address", p.Address, true)
	if err != nil {
		return nil, err
	}
	if err := s.node.SetMarketplaceFeePayoutAddress(caller, payout); err != nil {
		return nil, err
	}
	return OKResult{OK: true}, nil
}

func (s *Server) handleTransferOwnership(_ context.Context, p *callParams) (interface{}, error) {
	caller, err := p.caller()
	if err != nil {
		return nil, err
	}
	owner, err := parseAddress("address", p.Address, true)
	if err != nil {
		return nil, err
	}
	if err := s.node.TransferOwnership(caller, owner); err != nil {
		return nil, err
	}
	return OKResult{OK: true}, nil
}

func (s *Server) handleUpgradeTo(_ context.Context, p *callParams) (interface{}, error) {
	caller, err := p.caller()
	if err != nil {
		return nil, err
	}
	if p.Version == nil {
		return nil, invalidParam("version is required")
	}
	if err := s.node.UpgradeTo(caller, *p.Version); err != nil {
		return nil, err
	}
	return OKResult{OK: true}, nil
}

func (s *Server) handleAskForMoonbird(_ context.Context, p *callParams) (interface{}, error) {
	id, err := p.tokenID()
	if err != nil {
		return nil, err
	}
	ask, err := s.node.AskForMoonbird(id)
	if err != nil {
		return nil, err
	}
	return askResult(ask), nil
}

func (s *Server) handleTransferredFromOwner(_ context.Context, p *callParams) (interface{}, error) {
	id, err := p.tokenID()
	if err != nil {
		return nil, err
	}
	depositor, err := s.node.MoonbirdTransferredFromOwner(id)
	if err != nil {
		return nil, err
	}
	return depositor.Hex(), nil
}

func (s *Server) handleIsEscrowed(_ context.Context, p *callParams) (interface{}, error) {
	id, err := p.tokenID()
	if err != nil {
		return nil, err
	}
	return s.node.IsMoonbirdEscrowed(id)
}

func (s *Server) handleTotalSwap(context.Context, *callParams) (interface{}, error) {
	return s.node.TotalSwap()
}

func (s *Server) handleTotalVolume(_ context.Context, p *callParams) (interface{}, error) {
	currency, err := parseAddress("currency", p.Currency, false)
	if err != nil {
		return nil, err
	}
	volume, err := s.node.TotalVolume(currency)
	if err != nil {
		return nil, err
	}
	return amountString(volume), nil
}

func (s *Server) handleConfig(context.Context, *callParams) (interface{}, error) {
	cfg, err := s.node.MarketplaceConfig()
	if err != nil {
		return nil, err
	}
	version, err := s.node.Version()
	if err != nil {
		return nil, err
	}
	return ConfigResult{
		Owner:                       cfg.Owner.Hex(),
		Collateral:                  cfg.Collateral.Hex(),
		MarketplaceFeeBps:           cfg.MarketplaceFeeBps,
		MarketplaceFeePayoutAddress: cfg.MarketplaceFeePayoutAddress.Hex(),
		AlternateCurrency:           addressString(cfg.AlternateCurrency),
		Version:                     version,
	}, nil
}

func (s *Server) handleAddresses(context.Context, *callParams) (interface{}, error) {
	return addressesResult(s.node.Addresses()), nil
}

func (s *Server) handleEvents(_ context.Context, p *callParams) (interface{}, error) {
	if p.Limit < 0 {
		return nil, invalidParam("limit must not be negative")
	}
	return s.node.Events(p.Limit), nil
}
