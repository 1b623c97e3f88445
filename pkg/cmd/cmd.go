// Package cmd contains the command line applications for the project.
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/yeisme/dropvault/pkg/api"
	"github.com/yeisme/dropvault/pkg/app"
)

var (
	// configPath 配置文件路径，空值时按默认搜索路径与环境变量加载.
	configPath string

	// debug 控制 config debug 子命令是否输出 viper 内部状态.
	debug bool

	rootCmd = &cobra.Command{
		Use:   "dropvault",
		Short: "An expiring file storage and sharing service",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	// serve 启动 HTTP 服务，阻塞直到进程退出.
	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "start the dropvault HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app.NewApp(configPath)
			defer func() {
				_ = a.Shutdown()
			}()

			api.RegisterGroup(a.Engine)

			return a.Run()
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to the config file")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug output")

	rootCmd.AddCommand(serveCmd)

	registerConfigsCommands()
	registerDBCommands()
	registerKVCommands()
	registerMQCommands()
	registerVaultCommands()
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
