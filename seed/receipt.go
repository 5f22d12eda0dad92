package seed

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/chainparty/seeder/seed/contracts/deployer"
)

// Receipt is the mined result of a submitted transaction. Depending on the
// submission path the provider reports logs in one of two shapes: raw logs
// (low-level send) or a decoded-events mapping whose entries nest the raw
// topics/data (contract-bound send). Exactly one of Logs and Events is set.
type Receipt struct {
	TxHash common.Hash
	Status uint64
	Logs   []*types.Log
	Events map[string]DecodedEvent
}

// DecodedEvent is one entry of the decoded-events receipt shape.
type DecodedEvent struct {
	LogIndex uint64
	Raw      RawLog
}

// RawLog is the undecoded topics/data pair nested inside a decoded event.
type RawLog struct {
	Topics []common.Hash
	Data   []byte
}

// CanonicalLogs flattens both receipt shapes into one log list in
// transaction-log order. Decoded events are ordered by their log index,
// which is deterministic per receipt.
func (r *Receipt) CanonicalLogs() []*types.Log {
	if r.Events == nil {
		return r.Logs
	}
	events := make([]DecodedEvent, 0, len(r.Events))
	for _, ev := range r.Events {
		events = append(events, ev)
	}
	sort.Slice(events, func(i, j int) bool { return events[i].LogIndex < events[j].LogIndex })

	logs := make([]*types.Log, len(events))
	for i, ev := range events {
		logs[i] = &types.Log{
			Topics: ev.Raw.Topics,
			Data:   ev.Raw.Data,
			Index:  uint(ev.LogIndex),
		}
	}
	return logs
}

// Successful reports whether the transaction executed without reverting.
func (r *Receipt) Successful() bool { return r.Status == 1 }

// ExtractPartyAddress recovers the deployed party contract address from the
// factory's NewParty event. The first matching log wins. A receipt without
// the event is a hard failure: the caller must never proceed on a guessed or
// zero address.
func ExtractPartyAddress(r *Receipt) (common.Address, error) {
	for _, log := range r.CanonicalLogs() {
		var deployed, sender common.Address
		if err := deployer.EventNewParty.DecodeArgs(log, &deployed, &sender); err == nil {
			return deployed, nil
		}
	}
	return common.Address{}, ErrPartyAddressNotFound
}

// Wire shapes. Node RPC receipts carry hex-quantity fields; web3-style
// contract-bound receipts carry plain numbers and a boolean status. Both are
// accepted.

type receiptWire struct {
	TransactionHash common.Hash                 `json:"transactionHash"`
	Status          flexUint64                  `json:"status"`
	Logs            []*types.Log                `json:"logs"`
	Events          map[string]decodedEventWire `json:"events"`
}

type decodedEventWire struct {
	LogIndex flexUint64 `json:"logIndex"`
	Raw      rawLogWire `json:"raw"`
}

type rawLogWire struct {
	Topics []common.Hash `json:"topics"`
	Data   hexutil.Bytes `json:"data"`
}

func (r *Receipt) UnmarshalJSON(data []byte) error {
	var wire receiptWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return fmt.Errorf("decode receipt: %w", err)
	}
	r.TxHash = wire.TransactionHash
	r.Status = uint64(wire.Status)
	r.Logs = wire.Logs
	r.Events = nil
	if wire.Events != nil {
		r.Logs = nil
		r.Events = make(map[string]DecodedEvent, len(wire.Events))
		for name, ev := range wire.Events {
			r.Events[name] = DecodedEvent{
				LogIndex: uint64(ev.LogIndex),
				Raw:      RawLog{Topics: ev.Raw.Topics, Data: ev.Raw.Data},
			}
		}
	}
	return nil
}

// flexUint64 decodes a JSON quantity given as a hex string ("0x1"), a plain
// number (1), or a boolean (web3 status fields).
type flexUint64 uint64

func (f *flexUint64) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("true")):
		*f = 1
	case bytes.Equal(data, []byte("false")), bytes.Equal(data, []byte("null")):
		*f = 0
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		n, err := hexutil.DecodeUint64(s)
		if err != nil {
			return fmt.Errorf("decode quantity %q: %w", s, err)
		}
		*f = flexUint64(n)
	default:
		var n uint64
		if err := json.Unmarshal(data, &n); err != nil {
			return err
		}
		*f = flexUint64(n)
	}
	return nil
}
