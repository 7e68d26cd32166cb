package main

import (
	"context"
	"fmt"
	"os"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/tokenflow/v1/client/core/config"
	"github.com/tokenflow/v1/client/core/output"
	"github.com/tokenflow/v1/client/core/transport"
	"github.com/tokenflow/v1/client/core/wallet"
	clientlog "github.com/tokenflow/v1/client/pkg/log"
)

// 环境变量(进程启动时读取一次,优先于profile配置)
const (
	envRPCURL     = "TFC_RPC_URL"     // JSON-RPC端点
	envPrivateKey = "TFC_PRIVATE_KEY" // 明文私钥(脚本/CI场景)
	envMnemonic   = "TFC_MNEMONIC"    // BIP39助记词
)

// GlobalFlags 全局标志
type GlobalFlags struct {
	Profile      string // Profile名称
	ConfigDir    string // 配置目录
	OutputFormat string // 输出格式
	Silent       bool   // 静默模式
	Verbose      bool   // 详细模式
	LogFile      string // 日志文件(启用lumberjack旋转)
}

var (
	globalFlags GlobalFlags
	profileMgr  *config.ProfileManager
	formatter   *output.Formatter
	logger      *zap.Logger
)

// rootCmd 根命令
var rootCmd = &cobra.Command{
	Use:   "tfc",
	Short: "代币合约部署与交互客户端",
	Long: `tfc - 面向EVM兼容测试网的代币合约客户端

提供教程中的完整流程:
- 把代币合约部署到配置的网络,部署地址按链ID记录
- 对已部署合约执行转账交互(查余额、转账、等回执、再查余额)
- 查询代币余额与原生币余额
- 管理网络Profile和账户Keystore

配置来源: ~/.tfc 下的Profile文件,外加环境变量覆盖
(TFC_RPC_URL / TFC_PRIVATE_KEY / TFC_MNEMONIC,支持.env文件)。`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// 加载.env(不存在时静默跳过)
		_ = godotenv.Load()

		// 初始化配置管理器
		var err error
		profileMgr, err = config.NewProfileManager(globalFlags.ConfigDir)
		if err != nil {
			return fmt.Errorf("初始化配置: %w", err)
		}

		// 初始化输出格式化器
		format := output.Format(globalFlags.OutputFormat)
		formatter = output.NewFormatter(format, os.Stdout)
		formatter.SetSilent(globalFlags.Silent)

		// 初始化日志器
		logCfg := clientlog.DefaultConfig()
		logCfg.File = globalFlags.LogFile
		logCfg.Console = globalFlags.Verbose
		if globalFlags.Verbose {
			logCfg.Level = "debug"
		}
		logger, err = clientlog.New(logCfg)
		if err != nil {
			return fmt.Errorf("初始化日志: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// Execute 执行根命令
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	// 全局标志
	rootCmd.PersistentFlags().StringVar(&globalFlags.Profile, "profile", "", "使用指定的Profile (默认使用当前Profile)")
	rootCmd.PersistentFlags().StringVar(&globalFlags.ConfigDir, "config-dir", "", "配置目录 (默认: ~/.tfc)")
	rootCmd.PersistentFlags().StringVarP(&globalFlags.OutputFormat, "output", "o", "pretty", "输出格式: json|pretty|table|text")
	rootCmd.PersistentFlags().BoolVar(&globalFlags.Silent, "silent", false, "静默模式 (仅输出结果)")
	rootCmd.PersistentFlags().BoolVarP(&globalFlags.Verbose, "verbose", "v", false, "详细输出")
	rootCmd.PersistentFlags().StringVar(&globalFlags.LogFile, "log-file", "", "日志文件路径 (启用旋转文件日志)")

	// 添加子命令
	rootCmd.AddCommand(deployCmd)
	rootCmd.AddCommand(interactCmd)
	rootCmd.AddCommand(balanceCmd)
	rootCmd.AddCommand(profileCmd)
	rootCmd.AddCommand(walletCmd)
}

// getProfile 获取生效的profile
func getProfile() (*config.Profile, error) {
	if globalFlags.Profile != "" {
		return profileMgr.GetProfile(globalFlags.Profile)
	}
	return profileMgr.GetCurrentProfile()
}

// getBackend 连接链节点
//
// 端点解析顺序: TFC_RPC_URL环境变量 > profile端点表
func getBackend(ctx context.Context) (*transport.EthBackend, *config.Profile, error) {
	profile, err := getProfile()
	if err != nil {
		return nil, nil, fmt.Errorf("获取Profile: %w", err)
	}

	endpoint := os.Getenv(envRPCURL)
	if endpoint == "" {
		endpoint, err = profile.PrimaryRPC()
		if err != nil {
			return nil, nil, err
		}
	}

	backend, err := transport.Dial(ctx, endpoint)
	if err != nil {
		return nil, nil, fmt.Errorf("连接节点: %w", err)
	}

	logger.Debug("connected to node",
		zap.String("endpoint", endpoint),
		zap.String("profile", profile.Name))

	return backend, profile, nil
}

// getSigner 获取签名器
//
// 解析顺序: TFC_PRIVATE_KEY > TFC_MNEMONIC > keystore(需要--account与密码)
func getSigner(profile *config.Profile, account string) (wallet.Signer, error) {
	if hexKey := os.Getenv(envPrivateKey); hexKey != "" {
		return wallet.NewPrivateKeySigner(hexKey)
	}

	if mnemonic := os.Getenv(envMnemonic); mnemonic != "" {
		return wallet.NewMnemonicSigner(mnemonic, "", 0)
	}

	if account == "" {
		return nil, fmt.Errorf("未指定账户: 设置%s/%s环境变量或使用--account", envPrivateKey, envMnemonic)
	}

	ks, err := wallet.FindKeystore(profile.KeystorePath, account)
	if err != nil {
		return nil, err
	}

	signer, err := wallet.NewKeystoreSigner(ks)
	if err != nil {
		return nil, err
	}

	password, err := promptPassword("请输入Keystore密码")
	if err != nil {
		return nil, err
	}
	if err := signer.Unlock(password, 10*time.Minute); err != nil {
		return nil, err
	}

	return signer, nil
}

// promptPassword 从终端读取密码(不回显)
func promptPassword(prompt string) (string, error) {
	fmt.Fprintf(os.Stderr, "%s: ", prompt)
	password, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("读取密码: %w", err)
	}
	return string(password), nil
}
