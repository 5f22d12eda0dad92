package seed_test

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/lmittmann/w3"

	"github.com/chainparty/seeder/seed"
)

// Mirrors of the contract ABI used to decode what the code under test
// submits.
var (
	testFuncDeploy = w3.MustNewFunc(
		"deploy(string,uint256,uint256,uint256)", "",
	)
	testFuncDeposit  = w3.MustNewFunc("deposit()", "uint256")
	testFuncRegister = w3.MustNewFunc("register()", "")
	newPartyTopic    = crypto.Keccak256Hash([]byte("NewParty(address,address)"))
)

func addrTopic(addr common.Address) common.Hash {
	return common.BytesToHash(common.LeftPadBytes(addr.Bytes(), 32))
}

func newPartyLog(deployed, sender common.Address, index uint) *types.Log {
	return &types.Log{
		Topics: []common.Hash{newPartyTopic, addrTopic(deployed), addrTopic(sender)},
		Index:  index,
	}
}

// fakeAccount signs deterministically and, when wired to a fakeChain,
// submits transactions to it.
type fakeAccount struct {
	addr    common.Address
	chain   *fakeChain
	signErr error
	sendErr error

	mu   sync.Mutex
	sent []seed.TxCall
}

func (a *fakeAccount) Address() common.Address { return a.addr }

func (a *fakeAccount) SignMessage(_ context.Context, msg []byte) ([]byte, error) {
	if a.signErr != nil {
		return nil, a.signErr
	}
	sig := crypto.Keccak256(a.addr.Bytes(), msg)
	return append(append(sig, sig...), sig...)[:65], nil
}

func (a *fakeAccount) SendTx(ctx context.Context, call seed.TxCall) (common.Hash, error) {
	if a.sendErr != nil {
		return common.Hash{}, a.sendErr
	}
	a.mu.Lock()
	a.sent = append(a.sent, call)
	a.mu.Unlock()
	if a.chain != nil {
		return a.chain.submit(a.addr, call)
	}
	return crypto.Keccak256Hash(a.addr.Bytes(), call.Data), nil
}

func (a *fakeAccount) sentCalls() []seed.TxCall {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]seed.TxCall(nil), a.sent...)
}

// fakeChain is an in-memory chain: a party factory at factoryAddr plus the
// party contracts it deploys. It implements seed.Backend.
type fakeChain struct {
	factoryAddr common.Address
	// Report deployment receipts in the decoded-events shape instead of
	// raw logs.
	decodedEventReceipts bool

	mu       sync.Mutex
	txSeq    int
	receipts map[common.Hash]*seed.Receipt
	deployed map[string]common.Address // pending party id -> deployed address
	deposits map[common.Address]*big.Int
	rsvps    map[common.Address][]common.Address
}

func newFakeChain() *fakeChain {
	return &fakeChain{
		factoryAddr: common.HexToAddress("0x00000000000000000000000000000000000fac70"),
		receipts:    map[common.Hash]*seed.Receipt{},
		deployed:    map[string]common.Address{},
		deposits:    map[common.Address]*big.Int{},
		rsvps:       map[common.Address][]common.Address{},
	}
}

func (c *fakeChain) submit(from common.Address, call seed.TxCall) (common.Hash, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.txSeq++
	txHash := crypto.Keccak256Hash([]byte(fmt.Sprintf("tx-%d", c.txSeq)))

	if call.To == nil {
		return common.Hash{}, fmt.Errorf("unexpected contract creation")
	}

	switch {
	case *call.To == c.factoryAddr:
		c.receipts[txHash] = c.execDeploy(from, call, txHash)
	default:
		c.receipts[txHash] = c.execRegister(from, call, txHash)
	}
	return txHash, nil
}

func (c *fakeChain) execDeploy(from common.Address, call seed.TxCall, txHash common.Hash) *seed.Receipt {
	var (
		pendingID           string
		deposit, limit, fee big.Int
	)
	if err := testFuncDeploy.DecodeArgs(call.Data, &pendingID, &deposit, &limit, &fee); err != nil {
		return &seed.Receipt{TxHash: txHash, Status: 0}
	}
	// A pending party id is single-use: the second deployment reverts.
	if _, used := c.deployed[pendingID]; used {
		return &seed.Receipt{TxHash: txHash, Status: 0}
	}

	addr := common.BigToAddress(big.NewInt(int64(0xb0b0 + len(c.deployed))))
	c.deployed[pendingID] = addr
	c.deposits[addr] = new(big.Int).Set(&deposit)

	log := newPartyLog(addr, from, 0)
	receipt := &seed.Receipt{TxHash: txHash, Status: 1}
	if c.decodedEventReceipts {
		receipt.Events = map[string]seed.DecodedEvent{
			"NewParty": {LogIndex: 0, Raw: seed.RawLog{Topics: log.Topics, Data: log.Data}},
		}
	} else {
		receipt.Logs = []*types.Log{log}
	}
	return receipt
}

func (c *fakeChain) execRegister(from common.Address, call seed.TxCall, txHash common.Hash) *seed.Receipt {
	required, ok := c.deposits[*call.To]
	if !ok {
		return &seed.Receipt{TxHash: txHash, Status: 0}
	}
	selector, err := testFuncRegister.EncodeArgs()
	if err != nil || len(call.Data) < 4 || string(call.Data[:4]) != string(selector[:4]) {
		return &seed.Receipt{TxHash: txHash, Status: 0}
	}
	if call.Value == nil || call.Value.Cmp(required) != 0 {
		return &seed.Receipt{TxHash: txHash, Status: 0}
	}
	c.rsvps[*call.To] = append(c.rsvps[*call.To], from)
	return &seed.Receipt{TxHash: txHash, Status: 1}
}

func (c *fakeChain) WaitForReceipt(_ context.Context, txHash common.Hash) (*seed.Receipt, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	receipt, ok := c.receipts[txHash]
	if !ok {
		return nil, fmt.Errorf("no receipt for %s", txHash.Hex())
	}
	return receipt, nil
}

func (c *fakeChain) CallContract(_ context.Context, to common.Address, data []byte) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	deposit, ok := c.deposits[to]
	if !ok {
		return nil, fmt.Errorf("no contract at %s", to.Hex())
	}
	selector, err := testFuncDeposit.EncodeArgs()
	if err != nil {
		return nil, err
	}
	if len(data) < 4 || string(data[:4]) != string(selector[:4]) {
		return nil, fmt.Errorf("unexpected call data")
	}
	return common.LeftPadBytes(deposit.Bytes(), 32), nil
}

// fakeAPI is an httptest GraphQL endpoint speaking the party API's schema
// subset: login challenges, pending parties and user profiles.
type fakeAPI struct {
	mu           sync.Mutex
	pendingSeq   int
	pendingIDs   []string
	profiles     map[string]string // address -> username
	profileOwner string            // address credited with profile updates
	updateCalls  int
	authHeaders  []string
	failWith     string // non-empty: every request errors with this message
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{profiles: map[string]string{}}
}

type gqlRequest struct {
	Query     string                     `json:"query"`
	Variables map[string]json.RawMessage `json:"variables"`
}

func (f *fakeAPI) server() *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(f.handle))
}

func (f *fakeAPI) handle(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var req gqlRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		gqlError(w, "bad request")
		return
	}
	f.authHeaders = append(f.authHeaders, r.Header.Get("Authorization"))

	if f.failWith != "" {
		gqlError(w, f.failWith)
		return
	}

	switch {
	case strings.Contains(req.Query, "createLoginChallenge"):
		var address string
		_ = json.Unmarshal(req.Variables["address"], &address)
		gqlData(w, map[string]any{
			"createLoginChallenge": map[string]string{"str": "Sign this: " + address},
		})

	case strings.Contains(req.Query, "createPendingParty"):
		f.pendingSeq++
		id := fmt.Sprintf("pp-%d", f.pendingSeq)
		f.pendingIDs = append(f.pendingIDs, id)
		gqlData(w, map[string]any{"id": id})

	case strings.Contains(req.Query, "userProfile("):
		var address string
		_ = json.Unmarshal(req.Variables["address"], &address)
		gqlData(w, map[string]any{
			"profile": map[string]string{"address": address, "username": f.profiles[address]},
		})

	case strings.Contains(req.Query, "updateUserProfile"):
		f.updateCalls++
		var profile struct {
			Username string `json:"username"`
		}
		_ = json.Unmarshal(req.Variables["profile"], &profile)
		if f.profileOwner != "" {
			f.profiles[f.profileOwner] = profile.Username
		}
		gqlData(w, map[string]any{
			"profile": map[string]string{"username": profile.Username, "realName": "Admin"},
		})

	default:
		gqlError(w, "unknown operation")
	}
}

func gqlData(w http.ResponseWriter, data map[string]any) {
	_ = json.NewEncoder(w).Encode(map[string]any{"data": data})
}

func gqlError(w http.ResponseWriter, msg string) {
	_ = json.NewEncoder(w).Encode(map[string]any{
		"errors": []map[string]string{{"message": msg}},
	})
}
