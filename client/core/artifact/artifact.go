// Package artifact 管理合约编译产物与部署记录
//
// 部署记录是一个JSON文件: 合约名 + ABI + 创建字节码 + 按链ID索引的networks表。
// deploy命令写入networks表,interact命令按当前链ID读取。
package artifact

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// ErrNoDeployment 当前网络没有部署记录
//
// interact在发起任何合约调用前检查该错误(唯一被显式建模的错误)
var ErrNoDeployment = errors.New("no deployment found for network")

// Artifact 合约编译产物(外部编译器输出,本工具只消费)
type Artifact struct {
	ContractName string          `json:"contractName"`
	ABI          json.RawMessage `json:"abi"`
	Bytecode     string          `json:"bytecode"` // 0x前缀的创建字节码
}

// NetworkEntry 单个网络的部署条目
type NetworkEntry struct {
	Address         string    `json:"address"`
	TransactionHash string    `json:"transactionHash"`
	DeployedAt      time.Time `json:"deployedAt"`
}

// Record 部署记录 = 编译产物 + networks表
type Record struct {
	ContractName string                  `json:"contractName"`
	ABI          json.RawMessage         `json:"abi"`
	Bytecode     string                  `json:"bytecode,omitempty"`
	Networks     map[string]NetworkEntry `json:"networks"`
}

// LoadArtifact 读取编译产物文件
func LoadArtifact(path string) (*Artifact, error) {
	//nolint:gosec // G304: path 为用户指定的产物文件
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read artifact: %w", err)
	}

	var art Artifact
	if err := json.Unmarshal(data, &art); err != nil {
		return nil, fmt.Errorf("unmarshal artifact: %w", err)
	}

	if len(art.ABI) == 0 {
		return nil, fmt.Errorf("artifact %s: missing abi", path)
	}
	if strings.TrimPrefix(art.Bytecode, "0x") == "" {
		return nil, fmt.Errorf("artifact %s: missing bytecode", path)
	}

	// 提前解析一次,拒绝坏ABI
	if _, err := art.ParsedABI(); err != nil {
		return nil, fmt.Errorf("artifact %s: %w", path, err)
	}

	return &art, nil
}

// ParsedABI 解析ABI为可调用描述
func (a *Artifact) ParsedABI() (abi.ABI, error) {
	parsed, err := abi.JSON(strings.NewReader(string(a.ABI)))
	if err != nil {
		return abi.ABI{}, fmt.Errorf("parse abi: %w", err)
	}
	return parsed, nil
}

// LoadRecord 读取部署记录文件
func LoadRecord(path string) (*Record, error) {
	//nolint:gosec // G304: path 来自profile配置
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read deployment record: %w", err)
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal deployment record: %w", err)
	}

	if rec.Networks == nil {
		rec.Networks = make(map[string]NetworkEntry)
	}

	return &rec, nil
}

// NewRecord 从编译产物创建空部署记录
func NewRecord(art *Artifact) *Record {
	return &Record{
		ContractName: art.ContractName,
		ABI:          art.ABI,
		Bytecode:     art.Bytecode,
		Networks:     make(map[string]NetworkEntry),
	}
}

// Save 持久化部署记录
func (r *Record) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("create record dir: %w", err)
	}

	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal deployment record: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("write deployment record: %w", err)
	}
	return nil
}

// Network 按链ID查找部署条目
//
// 查不到返回包装过的ErrNoDeployment,错误信息包含链ID
func (r *Record) Network(chainID *big.Int) (NetworkEntry, error) {
	entry, ok := r.Networks[chainID.String()]
	if !ok {
		return NetworkEntry{}, fmt.Errorf("%w %s", ErrNoDeployment, chainID.String())
	}
	return entry, nil
}

// SetNetwork 写入(或覆盖)链ID对应的部署条目
func (r *Record) SetNetwork(chainID *big.Int, entry NetworkEntry) {
	if r.Networks == nil {
		r.Networks = make(map[string]NetworkEntry)
	}
	r.Networks[chainID.String()] = entry
}

// ParsedABI 解析记录中的ABI
func (r *Record) ParsedABI() (abi.ABI, error) {
	parsed, err := abi.JSON(strings.NewReader(string(r.ABI)))
	if err != nil {
		return abi.ABI{}, fmt.Errorf("parse abi: %w", err)
	}
	return parsed, nil
}
