package birdswap

import (
	"encoding/binary"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

var (
	askPrefix      = []byte("birdswap/ask/")
	custodyPrefix  = []byte("birdswap/custody/")
	askNonceKey    = []byte("birdswap/ask-nonce")
	totalSwapKey   = []byte("birdswap/total-swap")
	configKey      = []byte("birdswap/config")
	totalVolumeKey = []byte("birdswap/total-volume")
)

func tokenScopedKey(prefix []byte, tokenID uint64) []byte {
	key := make([]byte, len(prefix)+8)
	copy(key, prefix)
	binary.BigEndian.PutUint64(key[len(prefix):], tokenID)
	return key
}

func askKey(tokenID uint64) []byte     { return tokenScopedKey(askPrefix, tokenID) }
func custodyKey(tokenID uint64) []byte { return tokenScopedKey(custodyPrefix, tokenID) }

type volumeEntry struct {
	Currency common.Address
	Amount   *big.Int
}

type volumeRecord struct {
	Entries []volumeEntry
}

func (e *Engine) loadAsk(tokenID uint64) (*Ask, error) {
	var ask Ask
	ok, err := e.state.KVGet(askKey(tokenID), &ask)
	if err != nil {
		return nil, err
	}
	if !ok {
		return emptyAsk(), nil
	}
	if ask.AskPrice == nil {
		ask.AskPrice = big.NewInt(0)
	}
	return &ask, nil
}

func (e *Engine) storeAsk(tokenID uint64, ask *Ask) error {
	return e.state.KVPut(askKey(tokenID), ask)
}

func (e *Engine) clearAsk(tokenID uint64) error {
	return e.state.KVDelete(askKey(tokenID))
}

func (e *Engine) nextNonce() (uint64, error) {
	var nonce uint64
	if _, err := e.state.KVGet(askNonceKey, &nonce); err != nil {
		return 0, err
	}
	nonce++
	if err := e.state.KVPut(askNonceKey, nonce); err != nil {
		return 0, err
	}
	return nonce, nil
}

// askUID derives the ask identifier. The nonce makes every override unique
// even when all other terms repeat.
func askUID(tokenID uint64, seller, buyer common.Address, price *big.Int, royaltyBps uint16, currency common.Address, nonce uint64) common.Hash {
	var id, bps, n [8]byte
	binary.BigEndian.PutUint64(id[:], tokenID)
	binary.BigEndian.PutUint64(bps[:], uint64(royaltyBps))
	binary.BigEndian.PutUint64(n[:], nonce)
	return ethcrypto.Keccak256Hash(
		id[:],
		seller.Bytes(),
		buyer.Bytes(),
		common.BigToHash(price).Bytes(),
		bps[:],
		currency.Bytes(),
		n[:],
	)
}

func (e *Engine) incrementTotalSwap() (uint64, error) {
	var total uint64
	if _, err := e.state.KVGet(totalSwapKey, &total); err != nil {
		return 0, err
	}
	total++
	return total, e.state.KVPut(totalSwapKey, total)
}

func (e *Engine) addVolume(currency common.Address, amount *big.Int) error {
	var rec volumeRecord
	if _, err := e.state.KVGet(totalVolumeKey, &rec); err != nil {
		return err
	}
	for i := range rec.Entries {
		if rec.Entries[i].Currency == currency {
			rec.Entries[i].Amount = new(big.Int).Add(rec.Entries[i].Amount, amount)
			return e.state.KVPut(totalVolumeKey, &rec)
		}
	}
	rec.Entries = append(rec.Entries, volumeEntry{Currency: currency, Amount: new(big.Int).Set(amount)})
	return e.state.KVPut(totalVolumeKey, &rec)
}

// AskForMoonbird returns the current ask for the token. Tokens without an ask
// return a zero-valued Ask.
func (e *Engine) AskForMoonbird(tokenID uint64) (*Ask, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	return e.loadAsk(tokenID)
}

// TotalSwap returns the number of successful fills.
func (e *Engine) TotalSwap() (uint64, error) {
	if err := e.ready(); err != nil {
		return 0, err
	}
	var total uint64
	if _, err := e.state.KVGet(totalSwapKey, &total); err != nil {
		return 0, err
	}
	return total, nil
}

// TotalVolume returns the cumulative settled price in currency. It is only
// tracked from schema version 2 onwards.
func (e *Engine) TotalVolume(currency common.Address) (*big.Int, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	version, err := e.schemaVersion()
	if err != nil {
		return nil, err
	}
	if version < 2 {
		return nil, ErrVolumeUnavailable
	}
	var rec volumeRecord
	if _, err := e.state.KVGet(totalVolumeKey, &rec); err != nil {
		return nil, err
	}
	for _, entry := range rec.Entries {
		if entry.Currency == currency {
			return new(big.Int).Set(entry.Amount), nil
		}
	}
	return big.NewInt(0), nil
}
