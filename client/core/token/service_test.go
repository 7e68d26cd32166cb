package token

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"math/big"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tokenflow/v1/client/core/artifact"
	"github.com/tokenflow/v1/client/core/wallet"
)

const testKeyHex = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"

const deployABI = `[
  {"type":"constructor","stateMutability":"nonpayable",
   "inputs":[{"name":"initialSupply","type":"uint256"}]},
  {"name":"balanceOf","type":"function","stateMutability":"view",
   "inputs":[{"name":"account","type":"address"}],
   "outputs":[{"name":"","type":"uint256"}]},
  {"name":"transfer","type":"function","stateMutability":"nonpayable",
   "inputs":[{"name":"to","type":"address"},{"name":"value","type":"uint256"}],
   "outputs":[{"name":"","type":"bool"}]}
]`

// mockChain 内存链后端: 维护代币余额表,模拟出块延迟
type mockChain struct {
	t       *testing.T
	abi     abi.ABI
	chainID *big.Int

	balances map[common.Address]*big.Int
	pending  int // 每笔交易回执前返回NotFound的次数

	sends         int
	contractCalls int
	receiptPolls  map[common.Hash]int
	txs           map[common.Hash]*types.Transaction
	mined         map[common.Hash]*types.Receipt
}

func newMockChain(t *testing.T, abiJSON string, chainID int64) *mockChain {
	parsed, err := abi.JSON(strings.NewReader(abiJSON))
	require.NoError(t, err)
	return &mockChain{
		t:            t,
		abi:          parsed,
		chainID:      big.NewInt(chainID),
		balances:     make(map[common.Address]*big.Int),
		receiptPolls: make(map[common.Hash]int),
		txs:          make(map[common.Hash]*types.Transaction),
		mined:        make(map[common.Hash]*types.Receipt),
	}
}

func (m *mockChain) balance(addr common.Address) *big.Int {
	if b, ok := m.balances[addr]; ok {
		return b
	}
	return big.NewInt(0)
}

func (m *mockChain) ChainID(context.Context) (*big.Int, error) { return m.chainID, nil }

func (m *mockChain) BalanceAt(context.Context, common.Address) (*big.Int, error) {
	return big.NewInt(0), nil
}

func (m *mockChain) PendingNonceAt(context.Context, common.Address) (uint64, error) {
	return uint64(m.sends), nil
}

func (m *mockChain) SuggestGasPrice(context.Context) (*big.Int, error) {
	return big.NewInt(1_000_000_000), nil
}

func (m *mockChain) EstimateGas(context.Context, ethereum.CallMsg) (uint64, error) {
	return 100_000, nil
}

func (m *mockChain) CallContract(_ context.Context, msg ethereum.CallMsg) ([]byte, error) {
	m.contractCalls++

	method, err := m.abi.MethodById(msg.Data[:4])
	require.NoError(m.t, err)
	require.Equal(m.t, "balanceOf", method.Name)

	args, err := method.Inputs.Unpack(msg.Data[4:])
	require.NoError(m.t, err)
	account := args[0].(common.Address)

	return method.Outputs.Pack(m.balance(account))
}

func (m *mockChain) SendTransaction(_ context.Context, tx *types.Transaction) error {
	m.sends++
	m.txs[tx.Hash()] = tx

	signer := types.LatestSignerForChainID(m.chainID)
	from, err := types.Sender(signer, tx)
	require.NoError(m.t, err)

	receipt := &types.Receipt{
		Status:      types.ReceiptStatusSuccessful,
		TxHash:      tx.Hash(),
		GasUsed:     50_000,
		BlockNumber: big.NewInt(int64(m.sends)),
	}

	if tx.To() == nil {
		// 合约创建: 发行初始供应量给部署者
		receipt.ContractAddress = common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3")
		ctorArgs, err := m.abi.Constructor.Inputs.Unpack(tx.Data()[len(tx.Data())-32:])
		require.NoError(m.t, err)
		m.balances[from] = new(big.Int).Set(ctorArgs[0].(*big.Int))
	} else {
		method, err := m.abi.MethodById(tx.Data()[:4])
		require.NoError(m.t, err)
		require.Equal(m.t, "transfer", method.Name)

		args, err := method.Inputs.Unpack(tx.Data()[4:])
		require.NoError(m.t, err)
		to := args[0].(common.Address)
		value := args[1].(*big.Int)

		require.True(m.t, m.balance(from).Cmp(value) >= 0, "insufficient mock balance")
		m.balances[from] = new(big.Int).Sub(m.balance(from), value)
		m.balances[to] = new(big.Int).Add(m.balance(to), value)
	}

	m.mined[tx.Hash()] = receipt
	return nil
}

func (m *mockChain) TransactionReceipt(_ context.Context, txHash common.Hash) (*types.Receipt, error) {
	receipt, ok := m.mined[txHash]
	if !ok {
		return nil, ethereum.NotFound
	}
	m.receiptPolls[txHash]++
	if m.receiptPolls[txHash] <= m.pending {
		return nil, ethereum.NotFound
	}
	return receipt, nil
}

func (m *mockChain) Close() {}

func newTestService(t *testing.T, chain *mockChain) (*Service, *wallet.PrivateKeySigner) {
	signer, err := wallet.NewPrivateKeySigner(testKeyHex)
	require.NoError(t, err)
	return NewService(chain, signer, Options{ReceiptInterval: time.Millisecond}), signer
}

func testRecord(address string, chainID string) *artifact.Record {
	rec := &artifact.Record{
		ContractName: "Token",
		ABI:          json.RawMessage(deployABI),
		Networks:     map[string]artifact.NetworkEntry{},
	}
	if address != "" {
		rec.Networks[chainID] = artifact.NetworkEntry{Address: address}
	}
	return rec
}

func TestInteractFailsWithoutDeployment(t *testing.T) {
	chain := newMockChain(t, deployABI, 1337)
	svc, _ := newTestService(t, chain)

	// 记录里只有另一条链的部署
	rec := testRecord("0x5FbDB2315678afecb367f032d93F642f64180aa3", "11155111")

	_, err := svc.Interact(context.Background(), &InteractRequest{
		Record:    rec,
		Recipient: common.HexToAddress("0x01"),
		Amount:    big.NewInt(100),
	})

	require.ErrorIs(t, err, artifact.ErrNoDeployment)
	assert.Contains(t, err.Error(), "1337")

	// 失败发生在任何合约调用之前
	assert.Zero(t, chain.contractCalls)
	assert.Zero(t, chain.sends)
}

func TestInteractFlow(t *testing.T) {
	chain := newMockChain(t, deployABI, 1337)
	svc, signer := newTestService(t, chain)

	contractAddr := "0x5FbDB2315678afecb367f032d93F642f64180aa3"
	chain.balances[signer.Address()] = big.NewInt(10000)

	rec := testRecord(contractAddr, "1337")
	recipient := common.HexToAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8")

	res, err := svc.Interact(context.Background(), &InteractRequest{
		Record:    rec,
		Recipient: recipient,
		Amount:    big.NewInt(100),
	})
	require.NoError(t, err)

	assert.Equal(t, "10000", res.BalanceBefore.String())
	assert.Equal(t, "9900", res.BalanceAfter.String())
	assert.Equal(t, common.HexToAddress(contractAddr), res.ContractAddress)
	require.NotNil(t, res.Receipt)
	assert.Equal(t, types.ReceiptStatusSuccessful, res.Receipt.Status)

	// 收款方到账
	assert.Equal(t, "100", chain.balance(recipient).String())
}

func TestInteractSubmitsTransferOnce(t *testing.T) {
	chain := newMockChain(t, deployABI, 1337)
	chain.pending = 5 // 回执延迟5轮
	svc, signer := newTestService(t, chain)

	chain.balances[signer.Address()] = big.NewInt(10000)
	rec := testRecord("0x5FbDB2315678afecb367f032d93F642f64180aa3", "1337")

	_, err := svc.Interact(context.Background(), &InteractRequest{
		Record:    rec,
		Recipient: common.HexToAddress("0x01"),
		Amount:    big.NewInt(100),
	})
	require.NoError(t, err)

	// 回执迟到不会触发重发
	assert.Equal(t, 1, chain.sends)
}

func TestInteractReportOutput(t *testing.T) {
	chain := newMockChain(t, deployABI, 1337)
	svc, signer := newTestService(t, chain)

	chain.balances[signer.Address()] = big.NewInt(10000)
	rec := testRecord("0x5FbDB2315678afecb367f032d93F642f64180aa3", "1337")

	res, err := svc.Interact(context.Background(), &InteractRequest{
		Record:    rec,
		Recipient: common.HexToAddress("0x01"),
		Amount:    big.NewInt(100),
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteReport(&buf, res))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	assert.Equal(t, "Balance before: 10000", lines[0])
	assert.Equal(t, "Balance after: 9900", lines[len(lines)-1])
	assert.Contains(t, buf.String(), res.TxHash.Hex())
}

func TestDeploy(t *testing.T) {
	chain := newMockChain(t, deployABI, 1337)
	svc, signer := newTestService(t, chain)

	art := &artifact.Artifact{
		ContractName: "Token",
		ABI:          json.RawMessage(deployABI),
		Bytecode:     "0x60806040523480156100105760006000fd5b50",
	}

	res, err := svc.Deploy(context.Background(), &DeployRequest{
		Artifact:      art,
		InitialSupply: big.NewInt(1_000_000),
	})
	require.NoError(t, err)

	assert.Equal(t, int64(1337), res.ChainID.Int64())
	assert.NotEqual(t, common.Address{}, res.ContractAddress)
	assert.Equal(t, 1, chain.sends)

	// 初始供应量归部署者
	assert.Equal(t, "1000000", chain.balance(signer.Address()).String())
}

func TestDeployRequiresInitialSupply(t *testing.T) {
	chain := newMockChain(t, deployABI, 1337)
	svc, _ := newTestService(t, chain)

	art := &artifact.Artifact{
		ContractName: "Token",
		ABI:          json.RawMessage(deployABI),
		Bytecode:     "0x6080",
	}

	_, err := svc.Deploy(context.Background(), &DeployRequest{Artifact: art})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "initial supply")
	assert.Zero(t, chain.sends)
}

func TestTransferRejectsNonPositiveAmount(t *testing.T) {
	chain := newMockChain(t, deployABI, 1337)
	svc, _ := newTestService(t, chain)

	rec := testRecord("0x5FbDB2315678afecb367f032d93F642f64180aa3", "1337")
	tok, _, err := svc.Bind(context.Background(), rec)
	require.NoError(t, err)

	for _, amount := range []*big.Int{nil, big.NewInt(0), big.NewInt(-5)} {
		_, _, err := tok.Transfer(context.Background(), common.HexToAddress("0x01"), amount)
		require.Error(t, err)
	}
	assert.Zero(t, chain.sends)
}

func TestBindRejectsNonTokenABI(t *testing.T) {
	chain := newMockChain(t, deployABI, 1337)
	svc, _ := newTestService(t, chain)

	rec := &artifact.Record{
		ABI: json.RawMessage(`[{"name":"ping","type":"function","inputs":[],"outputs":[]}]`),
		Networks: map[string]artifact.NetworkEntry{
			"1337": {Address: "0x5FbDB2315678afecb367f032d93F642f64180aa3"},
		},
	}

	_, _, err := svc.Bind(context.Background(), rec)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "balanceOf")
}

func TestBindAddressUsesBuiltinABI(t *testing.T) {
	chain := newMockChain(t, BuiltinABI, 1337)
	svc, _ := newTestService(t, chain)

	addr := common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3")
	tok, err := svc.BindAddress(addr)
	require.NoError(t, err)

	holder := common.HexToAddress("0x02")
	chain.balances[holder] = big.NewInt(42)

	balance, err := tok.BalanceOf(context.Background(), holder)
	require.NoError(t, err)
	assert.Equal(t, "42", balance.String())
}

func TestInteractNilRequest(t *testing.T) {
	chain := newMockChain(t, deployABI, 1337)
	svc, _ := newTestService(t, chain)

	_, err := svc.Interact(context.Background(), nil)
	require.Error(t, err)
	require.False(t, errors.Is(err, artifact.ErrNoDeployment))
}
