package wallet

import (
	"crypto/ecdsa"
	"crypto/rand"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/tyler-smith/go-bip39"
)

// MnemonicStrength 助记词强度
type MnemonicStrength int

const (
	// Mnemonic12Words 12个助记词 (128 bits 熵)
	Mnemonic12Words MnemonicStrength = 128
	// Mnemonic15Words 15个助记词 (160 bits 熵)
	Mnemonic15Words MnemonicStrength = 160
	// Mnemonic18Words 18个助记词 (192 bits 熵)
	Mnemonic18Words MnemonicStrength = 192
	// Mnemonic21Words 21个助记词 (224 bits 熵)
	Mnemonic21Words MnemonicStrength = 224
	// Mnemonic24Words 24个助记词 (256 bits 熵)
	Mnemonic24Words MnemonicStrength = 256
)

// DefaultDerivationPath 默认派生路径 m/44'/60'/0'/0/<index>
const DefaultDerivationPath = "m/44'/60'/0'/0"

// GenerateMnemonic 生成助记词
// strength: 熵的位数，支持 128(12词), 160(15词), 192(18词), 224(21词), 256(24词)
func GenerateMnemonic(strength MnemonicStrength) (string, error) {
	switch strength {
	case Mnemonic12Words, Mnemonic15Words, Mnemonic18Words, Mnemonic21Words, Mnemonic24Words:
		// 有效强度
	default:
		return "", fmt.Errorf("invalid mnemonic strength: %d, must be 128, 160, 192, 224, or 256", strength)
	}

	entropy := make([]byte, int(strength)/8)
	if _, err := rand.Read(entropy); err != nil {
		return "", fmt.Errorf("generate entropy: %w", err)
	}

	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return "", fmt.Errorf("generate mnemonic: %w", err)
	}
	return mnemonic, nil
}

// ValidateMnemonic 验证助记词(BIP39字典与校验和)
func ValidateMnemonic(mnemonic string) error {
	normalized := strings.Join(strings.Fields(strings.ToLower(mnemonic)), " ")
	if !bip39.IsMnemonicValid(normalized) {
		return fmt.Errorf("invalid mnemonic")
	}
	return nil
}

// DeriveKey 从助记词派生私钥
//
// 路径固定为 m/44'/60'/0'/0/<index> (BIP44, EVM币种号60)
func DeriveKey(mnemonic, passphrase string, index uint32) (*ecdsa.PrivateKey, error) {
	normalized := strings.Join(strings.Fields(strings.ToLower(mnemonic)), " ")
	if err := ValidateMnemonic(normalized); err != nil {
		return nil, err
	}

	seed := bip39.NewSeed(normalized, passphrase)

	master, err := hdkeychain.NewMaster(seed, &chaincfg.MainNetParams)
	if err != nil {
		return nil, fmt.Errorf("derive master key: %w", err)
	}

	// m/44'/60'/0'/0/<index>
	path := []uint32{
		hdkeychain.HardenedKeyStart + 44,
		hdkeychain.HardenedKeyStart + 60,
		hdkeychain.HardenedKeyStart + 0,
		0,
		index,
	}

	key := master
	for _, step := range path {
		key, err = key.Derive(step)
		if err != nil {
			return nil, fmt.Errorf("derive path step %d: %w", step, err)
		}
	}

	privKey, err := key.ECPrivKey()
	if err != nil {
		return nil, fmt.Errorf("extract private key: %w", err)
	}

	return privKey.ToECDSA(), nil
}

// NewMnemonicSigner 从助记词创建签名器
//
// 派生出的私钥直接持于内存,语义与PrivateKeySigner一致
func NewMnemonicSigner(mnemonic, passphrase string, index uint32) (*PrivateKeySigner, error) {
	key, err := DeriveKey(mnemonic, passphrase, index)
	if err != nil {
		return nil, err
	}
	return newPrivateKeySignerFromKey(key), nil
}
