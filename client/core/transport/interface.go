// Package transport 封装链节点访问
//
// 所有链上读写都走一个JSON-RPC端点,协议细节完全委托给go-ethereum的ethclient。
// Backend接口抽象出本工具用到的调用子集,便于在测试中替换为内存实现。
package transport

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Backend 链节点访问接口
type Backend interface {
	// ChainID 已连接端点上报的链ID(部署记录按它归档)
	ChainID(ctx context.Context) (*big.Int, error)

	// BalanceAt 原生币余额(最新区块)
	BalanceAt(ctx context.Context, account common.Address) (*big.Int, error)

	// PendingNonceAt 待定nonce
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)

	// SuggestGasPrice 建议Gas价格
	SuggestGasPrice(ctx context.Context) (*big.Int, error)

	// EstimateGas 估算Gas
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)

	// CallContract 只读合约调用(最新区块)
	CallContract(ctx context.Context, msg ethereum.CallMsg) ([]byte, error)

	// SendTransaction 广播已签名交易
	SendTransaction(ctx context.Context, tx *types.Transaction) error

	// TransactionReceipt 查询交易回执,未出块时返回ethereum.NotFound
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)

	// Close 释放连接
	Close()
}
