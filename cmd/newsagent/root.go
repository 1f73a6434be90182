package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/LJTian/NewsDigest/internal/agent"
	"github.com/LJTian/NewsDigest/internal/config"
	"github.com/LJTian/NewsDigest/internal/logging"
	"github.com/gofrs/flock"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const lockFileName = "newsagent.lock"

var errRunInProgress = errors.New("another newsagent run is in progress")

// cliFlags 命令行参数，非空时覆盖环境变量
type cliFlags struct {
	configPath string
	stateDir   string
	logLevel   string
}

func (f *cliFlags) load() (*config.Config, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return nil, err
	}
	if f.stateDir != "" {
		cfg.StateDir = f.stateDir
	}
	if f.logLevel != "" {
		cfg.LogLevel = f.logLevel
	}
	logging.Setup(cfg.LogLevel, nil)
	logConfig(cfg)
	return cfg, nil
}

func newRootCommand() *cobra.Command {
	flags := &cliFlags{}

	rootCmd := &cobra.Command{
		Use:           "newsagent",
		Short:         "Collect RSS news and email one digest per day",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOnce(cmd, flags)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "Settings YAML file (default $NEWSDIGEST_CONFIG)")
	rootCmd.PersistentFlags().StringVar(&flags.stateDir, "state-dir", "", "Directory for state files (default $STATE_DIR)")
	rootCmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "Log level (default $LOG_LEVEL)")

	rootCmd.AddCommand(newPreviewCommand(flags))
	rootCmd.AddCommand(newStatusCommand(flags))

	return rootCmd
}

// runOnce 执行一次完整的摘要流程，并打印一行结果
func runOnce(cmd *cobra.Command, flags *cliFlags) error {
	cfg, err := flags.load()
	if err != nil {
		return err
	}

	// 同一状态目录同一时间只允许一个进程写入
	if err := os.MkdirAll(cfg.StateDir, 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	lock := flock.New(filepath.Join(cfg.StateDir, lockFileName))
	ok, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errRunInProgress
	}
	defer func() { _ = lock.Unlock() }()

	rt, err := agent.Build(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = rt.Close() }()

	outcome, err := rt.Gate.Run(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), outcome.String())
	return nil
}

// logConfig 在日志初始化之后输出配置摘要，遵循 --log-level
func logConfig(cfg *config.Config) {
	log.WithFields(log.Fields{
		"feeds": len(cfg.Pipeline.Feeds),
		"store": cfg.StoreBackend,
		"tz":    cfg.Timezone,
		"mode":  cfg.Pipeline.Selection.Mode,
	}).Debug("config loaded")
}
