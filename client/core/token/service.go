// Package token 代币合约业务服务
//
// 提供教程流程的两个动作: 部署代币合约、执行转账交互
// (查余额 → 转账 → 等回执 → 再查余额)。链访问走transport.Backend,
// 签名走wallet.Signer,部署记录由调用方(CLI层)持久化。
package token

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/tokenflow/v1/client/core/artifact"
	"github.com/tokenflow/v1/client/core/transport"
	"github.com/tokenflow/v1/client/core/wallet"
)

// Options 服务配置
type Options struct {
	ReceiptInterval time.Duration // 回执轮询间隔
	GasLimit        uint64        // 固定Gas限制,0表示调用EstimateGas
}

// Service 代币业务服务
type Service struct {
	backend transport.Backend
	signer  wallet.Signer
	opts    Options
}

// NewService 创建代币业务服务
func NewService(backend transport.Backend, signer wallet.Signer, opts Options) *Service {
	if opts.ReceiptInterval == 0 {
		opts.ReceiptInterval = 2 * time.Second
	}
	return &Service{
		backend: backend,
		signer:  signer,
		opts:    opts,
	}
}

// ========== 合约部署 ==========

// DeployRequest 合约部署请求
type DeployRequest struct {
	Artifact      *artifact.Artifact // 编译产物(ABI + 创建字节码)
	InitialSupply *big.Int           // 构造参数(构造函数无参时忽略)
}

// DeployResult 合约部署结果
type DeployResult struct {
	ChainID         *big.Int       `json:"chain_id"`
	ContractAddress common.Address `json:"contract_address"`
	TxHash          common.Hash    `json:"tx_hash"`
	GasUsed         uint64         `json:"gas_used"`
	BlockNumber     uint64         `json:"block_number"`
}

// Deploy 部署合约并等待上链
//
// 完整流程:
//  1. 组装创建字节码(字节码 + ABI编码的构造参数)
//  2. 构建创建交易(nonce/gas价格/gas估算)
//  3. 签名、广播
//  4. 轮询回执,从回执取合约地址
//
// 任何一步失败直接返回错误,不重试。
func (s *Service) Deploy(ctx context.Context, req *DeployRequest) (*DeployResult, error) {
	if req == nil || req.Artifact == nil {
		return nil, fmt.Errorf("deploy request is nil")
	}

	parsed, err := req.Artifact.ParsedABI()
	if err != nil {
		return nil, err
	}

	chainID, err := s.backend.ChainID(ctx)
	if err != nil {
		return nil, err
	}

	// 1. 创建字节码
	data := common.FromHex(req.Artifact.Bytecode)
	if len(parsed.Constructor.Inputs) > 0 {
		if req.InitialSupply == nil {
			return nil, fmt.Errorf("constructor requires initial supply")
		}
		ctorArgs, err := parsed.Pack("", req.InitialSupply)
		if err != nil {
			return nil, fmt.Errorf("pack constructor args: %w", err)
		}
		data = append(data, ctorArgs...)
	}

	// 2. 构建并签名交易
	from := s.signer.Address()
	tx, err := s.buildTx(ctx, from, nil, data)
	if err != nil {
		return nil, err
	}
	signed, err := s.signer.SignTx(tx, chainID)
	if err != nil {
		return nil, err
	}

	// 3. 广播
	if err := s.backend.SendTransaction(ctx, signed); err != nil {
		return nil, err
	}

	// 4. 等待回执
	receipt, err := transport.WaitReceipt(ctx, s.backend, signed.Hash(), s.opts.ReceiptInterval)
	if err != nil {
		return nil, err
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return nil, fmt.Errorf("deploy transaction %s reverted", signed.Hash().Hex())
	}

	return &DeployResult{
		ChainID:         chainID,
		ContractAddress: receipt.ContractAddress,
		TxHash:          signed.Hash(),
		GasUsed:         receipt.GasUsed,
		BlockNumber:     receipt.BlockNumber.Uint64(),
	}, nil
}

// ========== 合约绑定 ==========

// Token 已部署代币合约的可调用句柄(ABI + 地址)
type Token struct {
	svc     *Service
	abi     abi.ABI
	address common.Address
}

// Bind 从部署记录构建合约句柄
//
// 按当前链ID解析networks表,查不到时返回artifact.ErrNoDeployment,
// 不会发起任何合约调用。
func (s *Service) Bind(ctx context.Context, rec *artifact.Record) (*Token, *big.Int, error) {
	chainID, err := s.backend.ChainID(ctx)
	if err != nil {
		return nil, nil, err
	}

	entry, err := rec.Network(chainID)
	if err != nil {
		return nil, chainID, err
	}
	if !common.IsHexAddress(entry.Address) {
		return nil, chainID, fmt.Errorf("deployment record for network %s has invalid address %q", chainID, entry.Address)
	}

	parsed, err := rec.ParsedABI()
	if err != nil {
		return nil, chainID, err
	}
	for _, method := range []string{"balanceOf", "transfer"} {
		if _, ok := parsed.Methods[method]; !ok {
			return nil, chainID, fmt.Errorf("abi missing %s method", method)
		}
	}

	return &Token{
		svc:     s,
		abi:     parsed,
		address: common.HexToAddress(entry.Address),
	}, chainID, nil
}

// BindAddress 用内置ABI绑定任意地址(interact之外的余额查询用)
func (s *Service) BindAddress(address common.Address) (*Token, error) {
	parsed, err := abi.JSON(strings.NewReader(BuiltinABI))
	if err != nil {
		return nil, fmt.Errorf("parse builtin abi: %w", err)
	}
	return &Token{svc: s, abi: parsed, address: address}, nil
}

// Address 合约地址
func (t *Token) Address() common.Address {
	return t.address
}

// BalanceOf 查询代币余额(只读调用,实时快照,不缓存)
func (t *Token) BalanceOf(ctx context.Context, account common.Address) (*big.Int, error) {
	data, err := t.abi.Pack("balanceOf", account)
	if err != nil {
		return nil, fmt.Errorf("pack balanceOf: %w", err)
	}

	ret, err := t.svc.backend.CallContract(ctx, ethereum.CallMsg{
		To:   &t.address,
		Data: data,
	})
	if err != nil {
		return nil, err
	}

	out, err := t.abi.Unpack("balanceOf", ret)
	if err != nil {
		return nil, fmt.Errorf("unpack balanceOf: %w", err)
	}
	balance, ok := out[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected balanceOf return type %T", out[0])
	}
	return balance, nil
}

// Transfer 提交转账并等待回执
//
// 交易只广播一次;等待回执期间不重发(运行两次就转两次)。
func (t *Token) Transfer(ctx context.Context, to common.Address, amount *big.Int) (*types.Transaction, *types.Receipt, error) {
	if amount == nil || amount.Sign() <= 0 {
		return nil, nil, fmt.Errorf("transfer amount must be positive")
	}

	data, err := t.abi.Pack("transfer", to, amount)
	if err != nil {
		return nil, nil, fmt.Errorf("pack transfer: %w", err)
	}

	chainID, err := t.svc.backend.ChainID(ctx)
	if err != nil {
		return nil, nil, err
	}

	from := t.svc.signer.Address()
	tx, err := t.svc.buildTx(ctx, from, &t.address, data)
	if err != nil {
		return nil, nil, err
	}
	signed, err := t.svc.signer.SignTx(tx, chainID)
	if err != nil {
		return nil, nil, err
	}

	if err := t.svc.backend.SendTransaction(ctx, signed); err != nil {
		return nil, nil, err
	}

	receipt, err := transport.WaitReceipt(ctx, t.svc.backend, signed.Hash(), t.svc.opts.ReceiptInterval)
	if err != nil {
		return signed, nil, err
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return signed, receipt, fmt.Errorf("transfer transaction %s reverted", signed.Hash().Hex())
	}

	return signed, receipt, nil
}

// ========== 交互流程 ==========

// InteractRequest 教程交互流程请求
type InteractRequest struct {
	Record    *artifact.Record // 部署记录
	Recipient common.Address   // 收款地址
	Amount    *big.Int         // 转账金额(代币最小单位)
}

// InteractResult 教程交互流程结果
type InteractResult struct {
	ChainID         *big.Int       `json:"chain_id"`
	ContractAddress common.Address `json:"contract_address"`
	BalanceBefore   *big.Int       `json:"balance_before"`
	BalanceAfter    *big.Int       `json:"balance_after"`
	TxHash          common.Hash    `json:"tx_hash"`
	Receipt         *types.Receipt `json:"receipt"`
}

// Interact 执行教程交互流程
//
// 顺序: 解析部署记录(缺失则失败,不触链) → 查余额 → 转账 →
// 等回执 → 再查余额。线性阻塞调用序列,除存在性检查外无分支。
func (s *Service) Interact(ctx context.Context, req *InteractRequest) (*InteractResult, error) {
	if req == nil || req.Record == nil {
		return nil, fmt.Errorf("interact request is nil")
	}

	tok, chainID, err := s.Bind(ctx, req.Record)
	if err != nil {
		return nil, err
	}

	from := s.signer.Address()

	before, err := tok.BalanceOf(ctx, from)
	if err != nil {
		return nil, err
	}

	tx, receipt, err := tok.Transfer(ctx, req.Recipient, req.Amount)
	if err != nil {
		return nil, err
	}

	after, err := tok.BalanceOf(ctx, from)
	if err != nil {
		return nil, err
	}

	return &InteractResult{
		ChainID:         chainID,
		ContractAddress: tok.Address(),
		BalanceBefore:   before,
		BalanceAfter:    after,
		TxHash:          tx.Hash(),
		Receipt:         receipt,
	}, nil
}

// ========== 辅助方法 ==========

// buildTx 组装未签名交易(nonce/gas价格/gas限额)
func (s *Service) buildTx(ctx context.Context, from common.Address, to *common.Address, data []byte) (*types.Transaction, error) {
	nonce, err := s.backend.PendingNonceAt(ctx, from)
	if err != nil {
		return nil, err
	}

	gasPrice, err := s.backend.SuggestGasPrice(ctx)
	if err != nil {
		return nil, err
	}

	gasLimit := s.opts.GasLimit
	if gasLimit == 0 {
		gasLimit, err = s.backend.EstimateGas(ctx, ethereum.CallMsg{
			From: from,
			To:   to,
			Data: data,
		})
		if err != nil {
			return nil, err
		}
	}

	return types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		GasPrice: gasPrice,
		Gas:      gasLimit,
		To:       to,
		Value:    big.NewInt(0),
		Data:     data,
	}), nil
}
