package wallet

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/ecdsa"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
	"golang.org/x/crypto/pbkdf2"
)

// KeystoreV1 Keystore文件格式(v1.0.0)
type KeystoreV1 struct {
	Version string   `json:"version"` // "1.0.0"
	ID      string   `json:"id"`      // UUID
	Address string   `json:"address"` // 0x...
	Crypto  CryptoV1 `json:"crypto"`

	// 元数据
	CreatedAt string `json:"created_at"`
	Label     string `json:"label,omitempty"`
}

// CryptoV1 加密参数
type CryptoV1 struct {
	Cipher       string       `json:"cipher"`     // "aes-256-gcm"
	Ciphertext   string       `json:"ciphertext"` // hex编码
	CipherParams CipherParams `json:"cipherparams"`
	KDF          string       `json:"kdf"` // "pbkdf2"
	KDFParams    KDFParams    `json:"kdfparams"`
	MAC          string       `json:"mac"` // hex编码的MAC
}

// CipherParams 密码参数
type CipherParams struct {
	Nonce string `json:"nonce"` // hex编码的GCM nonce
}

// KDFParams 密钥派生参数
type KDFParams struct {
	DKLen int    `json:"dklen"` // 派生密钥长度(32)
	Salt  string `json:"salt"`  // hex编码的盐值
	C     int    `json:"c"`     // 迭代次数
	PRF   string `json:"prf"`   // "hmac-sha256"
}

const (
	keystoreVersion = "1.0.0"
	kdfIterations   = 262144
	kdfKeyLen       = 32
)

// EncryptKey 用密码加密私钥,生成Keystore
func EncryptKey(key *ecdsa.PrivateKey, password, label string) (*KeystoreV1, error) {
	if password == "" {
		return nil, fmt.Errorf("password is empty")
	}

	salt := make([]byte, 32)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}

	derived := pbkdf2.Key([]byte(password), salt, kdfIterations, kdfKeyLen, sha256.New)

	block, err := aes.NewCipher(derived)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create gcm: %w", err)
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}

	plaintext := crypto.FromECDSA(key)
	ciphertext := gcm.Seal(nil, nonce, plaintext, nil)

	return &KeystoreV1{
		Version: keystoreVersion,
		ID:      uuid.NewString(),
		Address: crypto.PubkeyToAddress(key.PublicKey).Hex(),
		Crypto: CryptoV1{
			Cipher:     "aes-256-gcm",
			Ciphertext: hex.EncodeToString(ciphertext),
			CipherParams: CipherParams{
				Nonce: hex.EncodeToString(nonce),
			},
			KDF: "pbkdf2",
			KDFParams: KDFParams{
				DKLen: kdfKeyLen,
				Salt:  hex.EncodeToString(salt),
				C:     kdfIterations,
				PRF:   "hmac-sha256",
			},
			MAC: computeMAC(derived, ciphertext),
		},
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
		Label:     label,
	}, nil
}

// DecryptKey 用密码解密Keystore,恢复私钥
func DecryptKey(ks *KeystoreV1, password string) (*ecdsa.PrivateKey, error) {
	if ks.Crypto.KDF != "pbkdf2" {
		return nil, fmt.Errorf("unsupported kdf: %s", ks.Crypto.KDF)
	}
	if ks.Crypto.Cipher != "aes-256-gcm" {
		return nil, fmt.Errorf("unsupported cipher: %s", ks.Crypto.Cipher)
	}

	salt, err := hex.DecodeString(ks.Crypto.KDFParams.Salt)
	if err != nil {
		return nil, fmt.Errorf("decode salt: %w", err)
	}
	ciphertext, err := hex.DecodeString(ks.Crypto.Ciphertext)
	if err != nil {
		return nil, fmt.Errorf("decode ciphertext: %w", err)
	}
	nonce, err := hex.DecodeString(ks.Crypto.CipherParams.Nonce)
	if err != nil {
		return nil, fmt.Errorf("decode nonce: %w", err)
	}

	derived := pbkdf2.Key([]byte(password), salt, ks.Crypto.KDFParams.C, ks.Crypto.KDFParams.DKLen, sha256.New)

	// 先验MAC,给出明确的密码错误而不是GCM解密失败
	if subtle.ConstantTimeCompare([]byte(computeMAC(derived, ciphertext)), []byte(ks.Crypto.MAC)) != 1 {
		return nil, fmt.Errorf("invalid password or corrupted keystore")
	}

	block, err := aes.NewCipher(derived)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create gcm: %w", err)
	}

	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("decrypt keystore: %w", err)
	}

	key, err := crypto.ToECDSA(plaintext)
	if err != nil {
		return nil, fmt.Errorf("restore private key: %w", err)
	}
	return key, nil
}

// computeMAC MAC = sha256(derivedKey[16:32] || ciphertext)
func computeMAC(derived, ciphertext []byte) string {
	h := sha256.New()
	h.Write(derived[16:32])
	h.Write(ciphertext)
	return hex.EncodeToString(h.Sum(nil))
}

// SaveKeystore 保存Keystore文件到目录
//
// 文件名: UTC--<时间戳>--<地址>.json
func SaveKeystore(dir string, ks *KeystoreV1) (string, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("create keystore dir: %w", err)
	}

	name := fmt.Sprintf("UTC--%s--%s.json",
		time.Now().UTC().Format("2006-01-02T15-04-05.000000000Z"),
		strings.TrimPrefix(strings.ToLower(ks.Address), "0x"))
	path := filepath.Join(dir, name)

	data, err := json.MarshalIndent(ks, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal keystore: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return "", fmt.Errorf("write keystore: %w", err)
	}
	return path, nil
}

// LoadKeystore 读取单个Keystore文件
func LoadKeystore(path string) (*KeystoreV1, error) {
	//nolint:gosec // G304: path 来自keystore目录
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read keystore: %w", err)
	}

	var ks KeystoreV1
	if err := json.Unmarshal(data, &ks); err != nil {
		return nil, fmt.Errorf("unmarshal keystore: %w", err)
	}
	return &ks, nil
}

// FindKeystore 在目录中按地址查找Keystore
func FindKeystore(dir, address string) (*KeystoreV1, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read keystore dir: %w", err)
	}

	want := strings.ToLower(strings.TrimPrefix(address, "0x"))
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		ks, err := LoadKeystore(filepath.Join(dir, entry.Name()))
		if err != nil {
			continue
		}
		if strings.ToLower(strings.TrimPrefix(ks.Address, "0x")) == want {
			return ks, nil
		}
	}
	return nil, fmt.Errorf("keystore not found for address %s", address)
}

// ListKeystores 列出目录中所有Keystore
func ListKeystores(dir string) ([]*KeystoreV1, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read keystore dir: %w", err)
	}

	var result []*KeystoreV1
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		ks, err := LoadKeystore(filepath.Join(dir, entry.Name()))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to load keystore %s: %v\n", entry.Name(), err)
			continue
		}
		result = append(result, ks)
	}
	return result, nil
}

// KeystoreSigner Keystore签名器实现
type KeystoreSigner struct {
	keystore *KeystoreV1
	address  common.Address

	mu          sync.RWMutex
	privateKey  *ecdsa.PrivateKey // 解锁后的私钥(内存中)
	unlockUntil time.Time
}

// NewKeystoreSigner 创建Keystore签名器(创建后处于锁定状态)
func NewKeystoreSigner(ks *KeystoreV1) (*KeystoreSigner, error) {
	if !common.IsHexAddress(ks.Address) {
		return nil, fmt.Errorf("invalid keystore address: %s", ks.Address)
	}
	return &KeystoreSigner{
		keystore: ks,
		address:  common.HexToAddress(ks.Address),
	}, nil
}

func (s *KeystoreSigner) Address() common.Address {
	return s.address
}

func (s *KeystoreSigner) SignTx(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error) {
	s.mu.RLock()
	key := s.privateKey
	expired := !s.unlockUntil.IsZero() && time.Now().After(s.unlockUntil)
	s.mu.RUnlock()

	if key == nil || expired {
		return nil, ErrLocked
	}

	signed, err := types.SignTx(tx, types.LatestSignerForChainID(chainID), key)
	if err != nil {
		return nil, fmt.Errorf("sign transaction: %w", err)
	}
	return signed, nil
}

func (s *KeystoreSigner) Unlock(password string, duration time.Duration) error {
	key, err := DecryptKey(s.keystore, password)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.privateKey = key
	if duration > 0 {
		s.unlockUntil = time.Now().Add(duration)
	} else {
		s.unlockUntil = time.Time{}
	}
	return nil
}

func (s *KeystoreSigner) Lock() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.privateKey = nil
	s.unlockUntil = time.Time{}
}

func (s *KeystoreSigner) IsLocked() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.privateKey == nil {
		return true
	}
	return !s.unlockUntil.IsZero() && time.Now().After(s.unlockUntil)
}

func (s *KeystoreSigner) Type() SignerType { return SignerTypeKeystore }
