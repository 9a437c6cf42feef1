package rpc

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
)

func (s *Server) handleMintUnclaimed(_ context.Context, p *callParams) (interface{}, error) {
	caller, err := p.caller()
	if err != nil {
		return nil, err
	}
	to, err := parseAddress("to", p.To, true)
	if err != nil {
		return nil, err
	}
	if p.Count == nil || *p.Count == 0 {
		return nil, invalidParam("count must be positive")
	}
	return s.node.MintUnclaimed(caller, to, *p.Count)
}

func (s *Server) handleToggleNesting(_ context.Context, p *callParams) (interface{}, error) {
	caller, err := p.caller()
	if err != nil {
		return nil, err
	}
	ids := p.TokenIDs
	if len(ids) == 0 && p.TokenID != nil {
		ids = []uint64{*p.TokenID}
	}
	if len(ids) == 0 {
		return nil, invalidParam("tokenIds is required")
	}
	if err := s.node.ToggleNesting(caller, ids); err != nil {
		return nil, err
	}
	return OKResult{OK: true}, nil
}

func (s *Server) handleSafeTransferWhileNesting(_ context.Context, p *callParams) (interface{}, error) {
	caller, err := p.caller()
	if err != nil {
		return nil, err
	}
	id, err := p.tokenID()
	if err != nil {
		return nil, err
	}
	from, err := parseAddress("from", p.From, false)
	if err != nil {
		return nil, err
	}
	if from == (common.Address{}) {
		from = caller
	}
	to, err := parseAddress("to", p.To, true)
	if err != nil {
		return nil, err
	}
	if err := s.node.SafeTransferWhileNesting(caller, from, to, id); err != nil {
		return nil, err
	}
	return OKResult{OK: true}, nil
}

func (s *Server) handleTransferFrom(_ context.Context, p *callParams) (interface{}, error) {
	caller, err := p.caller()
	if err != nil {
		return nil, err
	}
	id, err := p.tokenID()
	if err != nil {
		return nil, err
	}
	from, err := parseAddress("from", p.From, true)
	if err != nil {
		return nil, err
	}
	to, err := parseAddress("to", p.To, true)
	if err != nil {
		return nil, err
	}
	if err := s.node.TransferFrom(caller, from, to, id); err != nil {
		return nil, err
	}
	return OKResult{OK: true}, nil
}

func (s *Server) handleApproveToken(_ context.Context, p *callParams) (interface{}, error) {
	caller, err := p.caller()
	if err != nil {
		return nil, err
	}
	id, err := p.tokenID()
	if err != nil {
		return nil, err
	}
	to, err := parseAddress("to", p.To, false)
	if err != nil {
		return nil, err
	}
	if err := s.node.ApproveToken(caller, to, id); err != nil {
		return nil, err
	}
	return OKResult{OK: true}, nil
}

func (s *Server) handleSetDefaultRoyalty(_ context.Context, p *callParams) (interface{}, error) {
	caller, err := p.caller()
	if err != nil {
		return nil, err
	}
	receiver, err := parseAddress("address", p.Address, true)
	if err != nil {
		return nil, err
	}
	value, err := bps("bps", p.Bps)
	if err != nil {
		return nil, err
	}
	if err := s.node.SetDefaultRoyalty(caller, receiver, value); err != nil {
		return nil, err
	}
	return OKResult{OK: true}, nil
}

func (s *Server) handleOwnerOf(_ context.Context, p *callParams) (interface{}, error) {
	id, err := p.tokenID()
	if err != nil {
		return nil, err
	}
	owner, err := s.node.OwnerOf(id)
	if err != nil {
		return nil, err
	}
	return owner.Hex(), nil
}

func (s *Server) handleIsNested(_ context.Context, p *callParams) (interface{}, error) {
	id, err := p.tokenID()
	if err != nil {
		return nil, err
	}
	return s.node.IsNested(id)
}
