package cmd

import (
	contextPkg "context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yeisme/dropvault/pkg/configs"
	ctxPkg "github.com/yeisme/dropvault/pkg/context"
	"github.com/yeisme/dropvault/pkg/internal/service"
	"github.com/yeisme/dropvault/pkg/internal/storage"
)

var (
	vaultCmd = &cobra.Command{
		Use:   "vault",
		Short: "File vault related commands",
	}

	// 手动执行一轮过期回收.
	vaultCleanupCmd = &cobra.Command{
		Use:   "cleanup",
		Short: "remove expired files and abandoned upload sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, ctx, err := vaultService()
			if err != nil {
				return err
			}

			resp, err := svc.CleanupExpired(ctx)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "removed %d files, freed %d bytes\n", resp.RemovedFiles, resp.FreedBytes)

			return nil
		},
	}

	// 清空仓库，无论文件是否过期.
	vaultPurgeCmd = &cobra.Command{
		Use:   "purge",
		Short: "delete all stored files regardless of expiry",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, ctx, err := vaultService()
			if err != nil {
				return err
			}

			resp, err := svc.PurgeAll(ctx)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "removed %d files, freed %d bytes\n", resp.RemovedFiles, resp.FreedBytes)

			return nil
		},
	}
)

// vaultService 初始化配置与存储，返回可用的文件服务.
func vaultService() (*service.FileService, contextPkg.Context, error) {
	if err := configs.InitConfig(configPath); err != nil {
		return nil, nil, fmt.Errorf("init config: %w", err)
	}

	ctx := contextPkg.Background()

	manager, err := storage.Init(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("init storage: %w", err)
	}

	ctx = ctxPkg.WithStorageManager(ctx, manager)

	if err := service.Migrate(ctx, manager.GetDBClient()); err != nil {
		return nil, nil, fmt.Errorf("migrate: %w", err)
	}

	return service.NewFileService(ctx), ctx, nil
}

// registerVaultCommands 注册仓库维护命令.
func registerVaultCommands() {
	rootCmd.AddCommand(vaultCmd)

	vaultCmd.AddCommand(vaultCleanupCmd)
	vaultCmd.AddCommand(vaultPurgeCmd)
}
