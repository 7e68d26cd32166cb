package transport

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
)

// EthBackend 基于ethclient的Backend实现
type EthBackend struct {
	endpoint string
	client   *ethclient.Client
}

// Dial 连接JSON-RPC端点
func Dial(ctx context.Context, endpoint string) (*EthBackend, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("rpc endpoint is empty")
	}

	client, err := ethclient.DialContext(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", endpoint, err)
	}

	return &EthBackend{
		endpoint: endpoint,
		client:   client,
	}, nil
}

// Endpoint 返回已连接的端点地址
func (b *EthBackend) Endpoint() string {
	return b.endpoint
}

func (b *EthBackend) ChainID(ctx context.Context) (*big.Int, error) {
	chainID, err := b.client.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("query chain id: %w", err)
	}
	return chainID, nil
}

func (b *EthBackend) BalanceAt(ctx context.Context, account common.Address) (*big.Int, error) {
	balance, err := b.client.BalanceAt(ctx, account, nil)
	if err != nil {
		return nil, fmt.Errorf("query balance: %w", err)
	}
	return balance, nil
}

func (b *EthBackend) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	nonce, err := b.client.PendingNonceAt(ctx, account)
	if err != nil {
		return 0, fmt.Errorf("query nonce: %w", err)
	}
	return nonce, nil
}

func (b *EthBackend) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	price, err := b.client.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("query gas price: %w", err)
	}
	return price, nil
}

func (b *EthBackend) EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error) {
	gas, err := b.client.EstimateGas(ctx, msg)
	if err != nil {
		return 0, fmt.Errorf("estimate gas: %w", err)
	}
	return gas, nil
}

func (b *EthBackend) CallContract(ctx context.Context, msg ethereum.CallMsg) ([]byte, error) {
	out, err := b.client.CallContract(ctx, msg, nil)
	if err != nil {
		return nil, fmt.Errorf("call contract: %w", err)
	}
	return out, nil
}

func (b *EthBackend) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	if err := b.client.SendTransaction(ctx, tx); err != nil {
		return fmt.Errorf("send transaction: %w", err)
	}
	return nil
}

func (b *EthBackend) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	return b.client.TransactionReceipt(ctx, txHash)
}

func (b *EthBackend) Close() {
	b.client.Close()
}

// WaitReceipt 轮询等待交易回执
//
// 交易只提交一次,这里只查询,不重发。间隔固定,不退避,
// 节点不出块时一直等到ctx取消为止。
func WaitReceipt(ctx context.Context, backend Backend, txHash common.Hash, interval time.Duration) (*types.Receipt, error) {
	if interval <= 0 {
		interval = 2 * time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		receipt, err := backend.TransactionReceipt(ctx, txHash)
		if err == nil {
			return receipt, nil
		}
		if !errors.Is(err, ethereum.NotFound) {
			return nil, fmt.Errorf("query receipt: %w", err)
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("wait receipt %s: %w", txHash.Hex(), ctx.Err())
		case <-ticker.C:
		}
	}
}
