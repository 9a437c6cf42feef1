package rpc

import "context"

func (s *Server) handleCredit(_ context.Context, p *callParams) (interface{}, error) {
	caller, err := p.caller()
	if err != nil {
		return nil, err
	}
	asset, err := parseAddress("asset", p.Asset, false)
	if err != nil {
		return nil, err
	}
	to, err := parseAddress("to", p.To, true)
	if err != nil {
		return nil, err
	}
	amount, err := parseAmount("amount", p.Amount, true)
	if err != nil {
		return nil, err
	}
	if err := s.node.Credit(caller, asset, to, amount); err != nil {
		return nil, err
	}
	return OKResult{OK: true}, nil
}

func (s *Server) handleBankApprove(_ context.Context, p *callParams) (interface{}, error) {
	caller, err := p.caller()
	if err != nil {
		return nil, err
	}
	asset, err := parseAddress("asset", p.Asset, true)
	if err != nil {
		return nil, err
	}
	spender, err := parseAddress("spender", p.Spender, true)
	if err != nil {
		return nil, err
	}
	amount, err := parseAmount("amount", p.Amount, true)
	if err != nil {
		return nil, err
	}
	if err := s.node.Approve(caller, asset, spender, amount); err != nil {
		return nil, err
	}
	return OKResult{OK: true}, nil
}

func (s *Server) handleBankTransfer(_ context.Context, p *callParams) (interface{}, error) {
	caller, err := p.caller()
	if err != nil {
		return nil, err
	}
	asset, err := parseAddress("asset", p.Asset, false)
	if err != nil {
		return nil, err
	}
	to, err := parseAddress("to", p.To, true)
	if err != nil {
		return nil, err
	}
	amount, err := parseAmount("amount", p.Amount, true)
	if err != nil {
		return nil, err
	}
	if err := s.node.Transfer(caller, asset, to, amount); err != nil {
		return nil, err
	}
	return OKResult{OK: true}, nil
}

func (s *Server) handleBalance(_ context.Context, p *callParams) (interface{}, error) {
	asset, err := parseAddress("asset", p.Asset, false)
	if err != nil {
		return nil, err
	}
	owner, err := parseAddress("owner", p.Owner, true)
	if err != nil {
		return nil, err
	}
	balance, err := s.node.Balance(asset, owner)
	if err != nil {
		return nil, err
	}
	return amountString(balance), nil
}

func (s *Server) handleAllowance(_ context.Context, p *callParams) (interface{}, error) {
	asset, err := parseAddress("asset", p.Asset, true)
	if err != nil {
		return nil, err
	}
	owner, err := parseAddress("owner", p.Owner, true)
	if err != nil {
		return nil, err
	}
	spender, err := parseAddress("spender", p.Spender, true)
	if err != nil {
		return nil, err
	}
	allowance, err := s.node.Allowance(asset, owner, spender)
	if err != nil {
		return nil, err
	}
	return amountString(allowance), nil
}
