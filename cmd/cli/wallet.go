package main

import (
	"crypto/ecdsa"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/spf13/cobra"

	"github.com/tokenflow/v1/client/core/wallet"
)

var (
	walletPassword string
	walletLabel    string
	walletMnemonic bool
	walletWords    int
	walletIndex    uint32
)

// walletCmd 账户相关命令
var walletCmd = &cobra.Command{
	Use:   "wallet",
	Short: "账户管理",
	Long:  "创建、导入和查询账户(keystore保存在Profile配置的目录)",
}

// walletNewCmd 创建新账户
var walletNewCmd = &cobra.Command{
	Use:   "new",
	Short: "创建新账户",
	Long: `创建新账户并保存到keystore。

支持两种模式:
1. 随机私钥模式(默认): 生成随机私钥
2. 助记词模式(--mnemonic): 生成BIP39助记词钱包

示例:
  tfc wallet new                        # 随机私钥
  tfc wallet new --mnemonic             # 12词助记词
  tfc wallet new --mnemonic --words 24  # 24词助记词`,
	RunE: func(cmd *cobra.Command, args []string) error {
		profile, err := getProfile()
		if err != nil {
			return err
		}

		// 提示输入密码
		if walletPassword == "" {
			walletPassword, err = promptPassword("请输入密码")
			if err != nil {
				return err
			}
		}

		var privKey *ecdsa.PrivateKey
		result := map[string]interface{}{}

		if walletMnemonic {
			mnemonic, err := wallet.GenerateMnemonic(wallet.MnemonicStrength(walletWords * 32 / 3))
			if err != nil {
				return err
			}

			privKey, err = wallet.DeriveKey(mnemonic, "", 0)
			if err != nil {
				return err
			}

			formatter.PrintWarning("请抄写并妥善保管助记词,它只显示这一次:")
			formatter.PrintWarning(mnemonic)
			result["derivation_path"] = fmt.Sprintf("%s/0", wallet.DefaultDerivationPath)
		} else {
			privKey, err = crypto.GenerateKey()
			if err != nil {
				return fmt.Errorf("生成私钥: %w", err)
			}
		}

		ks, err := wallet.EncryptKey(privKey, walletPassword, walletLabel)
		if err != nil {
			return err
		}

		path, err := wallet.SaveKeystore(profile.KeystorePath, ks)
		if err != nil {
			return err
		}

		formatter.PrintSuccess(fmt.Sprintf("账户已创建: %s", ks.Address))
		result["address"] = ks.Address
		result["keystore"] = path
		return formatter.Print(result)
	},
}

// walletImportCmd 导入账户
var walletImportCmd = &cobra.Command{
	Use:   "import <private-key|mnemonic>",
	Short: "导入账户",
	Long: `导入已有账户并保存到keystore。

参数既可以是十六进制私钥,也可以是BIP39助记词(--mnemonic模式,
用--index选择派生地址)。

示例:
  tfc wallet import 0xac09...ff80
  tfc wallet import "abandon abandon ... about" --mnemonic --index 2`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		profile, err := getProfile()
		if err != nil {
			return err
		}

		if walletPassword == "" {
			walletPassword, err = promptPassword("请输入密码")
			if err != nil {
				return err
			}
		}

		var privKey *ecdsa.PrivateKey
		if walletMnemonic {
			privKey, err = wallet.DeriveKey(args[0], "", walletIndex)
			if err != nil {
				return err
			}
		} else {
			privKey, err = crypto.HexToECDSA(strings.TrimPrefix(args[0], "0x"))
			if err != nil {
				return fmt.Errorf("解析私钥: %w", err)
			}
		}

		ks, err := wallet.EncryptKey(privKey, walletPassword, walletLabel)
		if err != nil {
			return err
		}

		path, err := wallet.SaveKeystore(profile.KeystorePath, ks)
		if err != nil {
			return err
		}

		formatter.PrintSuccess(fmt.Sprintf("账户已导入: %s", ks.Address))
		return formatter.Print(map[string]interface{}{
			"address":  ks.Address,
			"keystore": path,
		})
	},
}

// walletListCmd 列出账户
var walletListCmd = &cobra.Command{
	Use:   "list",
	Short: "列出账户",
	RunE: func(cmd *cobra.Command, args []string) error {
		profile, err := getProfile()
		if err != nil {
			return err
		}

		keystores, err := wallet.ListKeystores(profile.KeystorePath)
		if err != nil {
			return err
		}

		var result []map[string]interface{}
		for _, ks := range keystores {
			result = append(result, map[string]interface{}{
				"address":    ks.Address,
				"label":      ks.Label,
				"created_at": ks.CreatedAt,
			})
		}
		return formatter.Print(result)
	},
}

func init() {
	for _, c := range []*cobra.Command{walletNewCmd, walletImportCmd} {
		c.Flags().StringVar(&walletPassword, "password", "", "Keystore密码 (不指定则交互输入)")
		c.Flags().StringVar(&walletLabel, "label", "", "账户标签")
		c.Flags().BoolVar(&walletMnemonic, "mnemonic", false, "助记词模式")
	}
	walletNewCmd.Flags().IntVar(&walletWords, "words", 12, "助记词数量: 12/15/18/21/24")
	walletImportCmd.Flags().Uint32Var(&walletIndex, "index", 0, "助记词派生地址索引")

	walletCmd.AddCommand(walletNewCmd)
	walletCmd.AddCommand(walletImportCmd)
	walletCmd.AddCommand(walletListCmd)
}
