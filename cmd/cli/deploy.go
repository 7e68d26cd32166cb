package main

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tokenflow/v1/client/core/artifact"
	"github.com/tokenflow/v1/client/core/token"
	"github.com/tokenflow/v1/client/pkg/ux/ui"
)

var (
	deployArtifactFile  string
	deployRecordFile    string
	deployInitialSupply uint64
	deployGasLimit      uint64
	deployAccount       string
)

// deployCmd 部署代币合约
//
// 教程流程第一步: 把编译产物发布到当前网络,部署地址按链ID写入部署记录
var deployCmd = &cobra.Command{
	Use:   "deploy",
	Short: "部署代币合约",
	Long: `把代币合约部署到当前Profile指向的网络。

读取外部编译器输出的产物文件(ABI + 创建字节码),构建创建交易,
等待上链后把合约地址按链ID写入部署记录文件。同一网络重复部署
会覆盖旧地址。

示例:
  tfc deploy                                   # 默认产物文件
  tfc deploy --artifact build/Token.json       # 指定产物文件
  tfc deploy --supply 5000000                  # 指定初始供应量`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// 读取编译产物
		art, err := artifact.LoadArtifact(deployArtifactFile)
		if err != nil {
			return fmt.Errorf("读取编译产物: %w", err)
		}

		ctx := context.Background()

		backend, profile, err := getBackend(ctx)
		if err != nil {
			return err
		}
		defer backend.Close()

		signer, err := getSigner(profile, deployAccount)
		if err != nil {
			return err
		}

		gasLimit := deployGasLimit
		if gasLimit == 0 {
			gasLimit = profile.DefaultGasLimit
		}

		svc := token.NewService(backend, signer, token.Options{
			ReceiptInterval: time.Duration(profile.ReceiptInterval),
			GasLimit:        gasLimit,
		})

		spinner, err := ui.StartSpinner(fmt.Sprintf("部署 %s 合约...", art.ContractName))
		if err != nil {
			return err
		}

		result, err := svc.Deploy(ctx, &token.DeployRequest{
			Artifact:      art,
			InitialSupply: new(big.Int).SetUint64(deployInitialSupply),
		})
		if err != nil {
			spinner.Fail("部署失败")
			return err
		}
		spinner.Success(fmt.Sprintf("合约已部署: %s", result.ContractAddress.Hex()))

		logger.Info("contract deployed",
			zap.String("address", result.ContractAddress.Hex()),
			zap.String("tx", result.TxHash.Hex()),
			zap.String("chain_id", result.ChainID.String()))

		// 更新部署记录: 已有记录则追加/覆盖当前网络条目
		recordPath := deployRecordFile
		if recordPath == "" {
			recordPath = profile.RecordPath
		}

		rec, err := artifact.LoadRecord(recordPath)
		if err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("读取部署记录: %w", err)
			}
			rec = artifact.NewRecord(art)
		}
		rec.SetNetwork(result.ChainID, artifact.NetworkEntry{
			Address:         result.ContractAddress.Hex(),
			TransactionHash: result.TxHash.Hex(),
			DeployedAt:      time.Now().UTC(),
		})
		if err := rec.Save(recordPath); err != nil {
			return fmt.Errorf("保存部署记录: %w", err)
		}

		formatter.PrintSuccess(fmt.Sprintf("部署记录已更新: %s", recordPath))

		return formatter.Print(map[string]interface{}{
			"contract_address": result.ContractAddress.Hex(),
			"tx_hash":          result.TxHash.Hex(),
			"chain_id":         result.ChainID.String(),
			"gas_used":         result.GasUsed,
			"block_number":     result.BlockNumber,
			"record":           recordPath,
		})
	},
}

func init() {
	deployCmd.Flags().StringVar(&deployArtifactFile, "artifact", "contracts/token/Token.json", "编译产物文件(ABI+字节码)")
	deployCmd.Flags().StringVar(&deployRecordFile, "record", "", "部署记录文件 (默认取Profile配置)")
	deployCmd.Flags().Uint64Var(&deployInitialSupply, "supply", 1_000_000, "初始供应量(最小单位)")
	deployCmd.Flags().Uint64Var(&deployGasLimit, "gas-limit", 0, "Gas限制 (0表示自动估算)")
	deployCmd.Flags().StringVar(&deployAccount, "account", "", "Keystore账户地址")
}
