package main

import (
	"context"
	"fmt"
	"math/big"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tokenflow/v1/client/core/artifact"
	"github.com/tokenflow/v1/client/core/token"
)

var (
	interactTo         string
	interactAmount     uint64
	interactRecordFile string
	interactGasLimit   uint64
	interactAccount    string
)

// interactCmd 教程交互流程
//
// 教程流程第二步: 对deploy产出的合约执行
// 查余额 → 转账 → 等回执 → 再查余额
var interactCmd = &cobra.Command{
	Use:   "interact",
	Short: "执行转账交互流程",
	Long: `对当前网络上已部署的代币合约执行教程交互流程:

1. 按当前链ID解析部署记录(缺失则直接失败,错误信息包含链ID)
2. 查询发送方代币余额并打印
3. 提交transfer交易并等待回执
4. 再次查询余额并打印

注意: 流程没有幂等保护,运行两次就转账两次。

示例:
  tfc interact --to 0x7099...79C8                # 默认转100
  tfc interact --to 0x7099...79C8 --amount 2500`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !common.IsHexAddress(interactTo) {
			return fmt.Errorf("无效的收款地址: %q", interactTo)
		}

		ctx := context.Background()

		backend, profile, err := getBackend(ctx)
		if err != nil {
			return err
		}
		defer backend.Close()

		recordPath := interactRecordFile
		if recordPath == "" {
			recordPath = profile.RecordPath
		}
		rec, err := artifact.LoadRecord(recordPath)
		if err != nil {
			return fmt.Errorf("读取部署记录(先运行 tfc deploy): %w", err)
		}

		signer, err := getSigner(profile, interactAccount)
		if err != nil {
			return err
		}

		gasLimit := interactGasLimit
		if gasLimit == 0 {
			gasLimit = profile.DefaultGasLimit
		}

		svc := token.NewService(backend, signer, token.Options{
			ReceiptInterval: time.Duration(profile.ReceiptInterval),
			GasLimit:        gasLimit,
		})

		result, err := svc.Interact(ctx, &token.InteractRequest{
			Record:    rec,
			Recipient: common.HexToAddress(interactTo),
			Amount:    new(big.Int).SetUint64(interactAmount),
		})
		if err != nil {
			return err
		}

		logger.Info("transfer confirmed",
			zap.String("tx", result.TxHash.Hex()),
			zap.String("before", result.BalanceBefore.String()),
			zap.String("after", result.BalanceAfter.String()))

		// 教程格式输出: 转账前余额、回执、转账后余额
		return token.WriteReport(os.Stdout, result)
	},
}

func init() {
	interactCmd.Flags().StringVar(&interactTo, "to", "", "收款地址 (必填)")
	interactCmd.Flags().Uint64Var(&interactAmount, "amount", 100, "转账金额(最小单位)")
	interactCmd.Flags().StringVar(&interactRecordFile, "record", "", "部署记录文件 (默认取Profile配置)")
	interactCmd.Flags().Uint64Var(&interactGasLimit, "gas-limit", 0, "Gas限制 (0表示自动估算)")
	interactCmd.Flags().StringVar(&interactAccount, "account", "", "Keystore账户地址")
	_ = interactCmd.MarkFlagRequired("to")
}
