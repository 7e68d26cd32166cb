package main

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"github.com/tokenflow/v1/client/core/artifact"
	"github.com/tokenflow/v1/client/core/token"
)

var (
	balanceNative     bool
	balanceContract   string
	balanceRecordFile string
	balanceAccount    string
)

// balanceCmd 余额查询
var balanceCmd = &cobra.Command{
	Use:   "balance [address]",
	Short: "查询余额",
	Long: `查询代币余额(默认)或原生币余额(--native)。

不指定地址时查询签名账户自己的余额。代币合约默认取部署记录中
当前网络的地址,也可用--contract直接指定任意标准代币合约。

示例:
  tfc balance                                  # 自己的代币余额
  tfc balance 0x7099...79C8                    # 指定地址的代币余额
  tfc balance --native                         # 原生币余额
  tfc balance --contract 0x5FbD...0aa3         # 指定合约`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		backend, profile, err := getBackend(ctx)
		if err != nil {
			return err
		}
		defer backend.Close()

		// 查询对象: 参数地址或签名账户
		var account common.Address
		if len(args) > 0 {
			if !common.IsHexAddress(args[0]) {
				return fmt.Errorf("无效的地址: %q", args[0])
			}
			account = common.HexToAddress(args[0])
		} else {
			signer, err := getSigner(profile, balanceAccount)
			if err != nil {
				return err
			}
			account = signer.Address()
		}

		if balanceNative {
			balance, err := backend.BalanceAt(ctx, account)
			if err != nil {
				return err
			}
			return formatter.Print(map[string]interface{}{
				"address": account.Hex(),
				"balance": balance.String(),
				"kind":    "native",
			})
		}

		svc := token.NewService(backend, nil, token.Options{
			ReceiptInterval: time.Duration(profile.ReceiptInterval),
		})

		var tok *token.Token
		if balanceContract != "" {
			if !common.IsHexAddress(balanceContract) {
				return fmt.Errorf("无效的合约地址: %q", balanceContract)
			}
			tok, err = svc.BindAddress(common.HexToAddress(balanceContract))
			if err != nil {
				return err
			}
		} else {
			recordPath := balanceRecordFile
			if recordPath == "" {
				recordPath = profile.RecordPath
			}
			rec, err := artifact.LoadRecord(recordPath)
			if err != nil {
				return fmt.Errorf("读取部署记录(先运行 tfc deploy 或指定--contract): %w", err)
			}
			tok, _, err = svc.Bind(ctx, rec)
			if err != nil {
				return err
			}
		}

		balance, err := tok.BalanceOf(ctx, account)
		if err != nil {
			return err
		}

		return formatter.Print(map[string]interface{}{
			"address":  account.Hex(),
			"contract": tok.Address().Hex(),
			"balance":  balance.String(),
			"kind":     "token",
		})
	},
}

func init() {
	balanceCmd.Flags().BoolVar(&balanceNative, "native", false, "查询原生币余额")
	balanceCmd.Flags().StringVar(&balanceContract, "contract", "", "代币合约地址 (默认取部署记录)")
	balanceCmd.Flags().StringVar(&balanceRecordFile, "record", "", "部署记录文件 (默认取Profile配置)")
	balanceCmd.Flags().StringVar(&balanceAccount, "account", "", "Keystore账户地址")
}
