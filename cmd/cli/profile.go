package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tokenflow/v1/client/core/config"
)

var (
	profileChainID uint64
	profileRPC     string
)

// profileCmd Profile管理命令
var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Profile管理",
	Long:  "管理网络Profile,支持多环境切换(local/sepolia/...)",
}

// profileListCmd 列出所有profiles
var profileListCmd = &cobra.Command{
	Use:   "list",
	Short: "列出所有profiles",
	RunE: func(cmd *cobra.Command, args []string) error {
		currentProfile, _ := profileMgr.GetCurrentProfile()

		var result []map[string]interface{}
		for _, name := range profileMgr.ListProfiles() {
			profile, err := profileMgr.GetProfile(name)
			if err != nil {
				continue
			}

			isCurrent := currentProfile != nil && currentProfile.Name == name

			result = append(result, map[string]interface{}{
				"name":     name,
				"chain_id": profile.ChainID,
				"current":  isCurrent,
			})
		}

		return formatter.Print(result)
	},
}

// profileShowCmd 显示profile详情
var profileShowCmd = &cobra.Command{
	Use:   "show [name]",
	Short: "显示profile详情",
	Long:  "显示指定profile的详细配置(不指定则显示当前profile)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var profile *config.Profile
		var err error

		if len(args) > 0 {
			profile, err = profileMgr.GetProfile(args[0])
		} else {
			profile, err = profileMgr.GetCurrentProfile()
		}

		if err != nil {
			return err
		}

		return formatter.Print(profile)
	},
}

// profileUseCmd 切换当前profile
var profileUseCmd = &cobra.Command{
	Use:   "use <name>",
	Short: "切换当前profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := profileMgr.SwitchProfile(args[0]); err != nil {
			return err
		}
		formatter.PrintSuccess(fmt.Sprintf("已切换到profile: %s", args[0]))
		return nil
	},
}

// profileAddCmd 新建profile
var profileAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "新建profile",
	Long: `新建网络profile。

示例:
  tfc profile add holesky --chain-id 17000 --rpc https://rpc.holesky.io`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if profileRPC == "" {
			return fmt.Errorf("必须指定--rpc")
		}

		profile := &config.Profile{
			Name:    args[0],
			ChainID: profileChainID,
			Endpoints: []config.EndpointConfig{
				{Name: args[0] + "-primary", Priority: 1, RPC: profileRPC},
			},
		}

		if err := profileMgr.SaveProfile(profile); err != nil {
			return err
		}
		formatter.PrintSuccess(fmt.Sprintf("已创建profile: %s", args[0]))
		return formatter.Print(profile)
	},
}

// profileDeleteCmd 删除profile
var profileDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "删除profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := profileMgr.DeleteProfile(args[0]); err != nil {
			return err
		}
		formatter.PrintSuccess(fmt.Sprintf("已删除profile: %s", args[0]))
		return nil
	},
}

func init() {
	profileAddCmd.Flags().Uint64Var(&profileChainID, "chain-id", 0, "链ID")
	profileAddCmd.Flags().StringVar(&profileRPC, "rpc", "", "JSON-RPC端点")

	profileCmd.AddCommand(profileListCmd)
	profileCmd.AddCommand(profileShowCmd)
	profileCmd.AddCommand(profileUseCmd)
	profileCmd.AddCommand(profileAddCmd)
	profileCmd.AddCommand(profileDeleteCmd)
}
