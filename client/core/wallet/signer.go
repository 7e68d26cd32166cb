// Package wallet provides account and signing functionality for the tfc client.
package wallet

import (
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Signer 签名器接口 - 统一的签名抽象
// 支持多种签名方式：环境变量私钥/Keystore/助记词
type Signer interface {
	// Address 签名地址
	Address() common.Address

	// SignTx 按链ID签名交易(EIP-155)
	SignTx(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error)

	// Unlock 解锁签名器(如需密码)
	// duration: 解锁时长,0表示永久解锁(直到调用Lock)
	Unlock(password string, duration time.Duration) error

	// Lock 锁定签名器
	Lock()

	// IsLocked 检查是否已锁定
	IsLocked() bool

	// Type 返回签名器类型(privatekey/keystore/mnemonic)
	Type() SignerType
}

// SignerType 签名器类型
type SignerType string

const (
	SignerTypePrivateKey SignerType = "privatekey" // 明文私钥(环境变量)
	SignerTypeKeystore   SignerType = "keystore"   // 加密Keystore文件
	SignerTypeMnemonic   SignerType = "mnemonic"   // BIP39助记词
)

// ErrLocked 签名器未解锁
var ErrLocked = fmt.Errorf("signer is locked")

// Account 账户信息
type Account struct {
	Address        string    `json:"address"`
	DerivationPath string    `json:"derivation_path,omitempty"` // 助记词钱包派生路径
	CreatedAt      time.Time `json:"created_at"`
	Label          string    `json:"label,omitempty"` // 用户标签
}
