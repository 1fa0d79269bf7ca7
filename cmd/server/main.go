// cmd/server/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Corphon/PoetryKGQA/internal/app"
	"github.com/Corphon/PoetryKGQA/internal/config"
	"github.com/Corphon/PoetryKGQA/internal/kg"
	"github.com/Corphon/PoetryKGQA/internal/mcp"
	"github.com/Corphon/PoetryKGQA/internal/utils"
)

const version = "1.0.0"

var (
	// 全局参数
	debug      bool
	corpusFile string
	port       string
	fallback   bool
	timeout    time.Duration

	cfg *config.Config
)

// rootCmd 根命令
var rootCmd = &cobra.Command{
	Use:   "poetryqa",
	Short: "古诗词知识图谱问答服务",
	Long: `poetryqa 基于诗词知识图谱回答中文问题：
作者、朝代、内容、译文、赏析，以及某位诗人或某个朝代的作品。
图谱没有答案时可选地转交 DeepSeek 兜底（AI_FALLBACK_ENABLED=true）。`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("加载配置失败: %w", err)
		}

		applyFlagOverrides(cmd, cfg)

		// serve 之外的命令使用标准输出返回结果
		return app.InitLogging(cfg, cmd.Name() == serveCmd.Name())
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = utils.GetLogger().Sync()
	},
}

// applyFlagOverrides 显式给出的命令行参数覆盖环境变量
func applyFlagOverrides(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("debug") {
		cfg.DebugMode = debug
	}
	if flags.Changed("corpus") {
		cfg.CorpusFile = corpusFile
	}
	if flags.Changed("fallback") {
		cfg.AI.FallbackEnabled = fallback
	}
	if flags.Changed("timeout") {
		cfg.AI.Timeout = timeout
	}
}

// serveCmd 启动HTTP服务
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "启动 HTTP / WebSocket 问答服务",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("port") {
			cfg.Port = port
		}

		a, err := app.New(cfg)
		if err != nil {
			return err
		}
		return a.Run()
	},
}

// askCmd 回答单个问题并输出 JSON
var askCmd = &cobra.Command{
	Use:   "ask [question...]",
	Short: "回答一个问题，输出 AnswerResult JSON",
	Example: `  poetryqa ask 静夜思的作者是谁
  poetryqa ask 李白的诗`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := app.New(cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()

		answer := a.Service().Query(ctx, strings.Join(args, " "))
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		return enc.Encode(answer)
	},
}

// mcpCmd 以 MCP stdio 方式提供问答工具
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "在标准输入输出上运行 MCP 服务（ask_poetry / list_intents / suggest_titles）",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := app.New(cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		return mcp.Run(a.Service(), version)
	},
}

// importCmd 把语料写入 Neo4j
var importCmd = &cobra.Command{
	Use:   "import",
	Short: "把 Turtle / YAML 语料导入 Neo4j（需要 NEO4J_URI）",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.Graph.Neo4jURI == "" {
			return fmt.Errorf("导入需要设置 NEO4J_URI")
		}

		store := kg.NewMemoryStore()
		if _, err := kg.LoadFile(cfg.CorpusFile, store); err != nil {
			return fmt.Errorf("加载诗词语料失败: %w", err)
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()

		poems, err := store.Poems(ctx)
		if err != nil {
			return err
		}

		neo, err := kg.NewNeo4jStore(cfg.Graph.Neo4jURI, cfg.Graph.Neo4jUser, cfg.Graph.Neo4jPassword, cfg.Graph.Neo4jDatabase)
		if err != nil {
			return err
		}
		defer neo.Close()

		n, err := neo.Seed(ctx, poems)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "已导入 %d 首诗词到 %s\n", n, cfg.Graph.Neo4jURI)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "输出调试日志（覆盖 DEBUG_MODE）")
	rootCmd.PersistentFlags().StringVar(&corpusFile, "corpus", "", "语料文件 .ttl / .yaml（覆盖 CORPUS_FILE）")
	rootCmd.PersistentFlags().BoolVar(&fallback, "fallback", false, "启用AI兜底（覆盖 AI_FALLBACK_ENABLED）")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", time.Minute, "AI兜底请求超时（覆盖 AI_TIMEOUT），同时限制 ask / import 的总时长")

	serveCmd.Flags().StringVarP(&port, "port", "p", "", "监听端口（覆盖 PORT）")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(importCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
