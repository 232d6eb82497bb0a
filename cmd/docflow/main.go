// =============================================================================
// DocFlow 命令行入口
// =============================================================================
// 批量提交文档到 Azure Document Intelligence 并输出结果
//
// 使用方法:
//
//	docflow analyze --url https://a/x.pdf --url https://a/y.pdf
//	docflow analyze --config docflow.yaml --file scan.png --format markdown
//	docflow version                         # 显示版本信息
//	docflow help                            # 显示帮助
// =============================================================================

package main

import (
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/BaSui01/docflow/config"
)

// =============================================================================
// 📦 版本信息（构建时注入）
// =============================================================================

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// 退出码
const (
	exitOK          = 0
	exitFatal       = 1
	exitItemsFailed = 2
)

// =============================================================================
// 🎯 主函数
// =============================================================================

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		printUsage(stderr)
		return exitFatal
	}

	switch args[0] {
	case "analyze":
		return runAnalyze(args[1:], stdout, stderr)
	case "version":
		printVersion(stdout)
		return exitOK
	case "help", "-h", "--help":
		printUsage(stdout)
		return exitOK
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n", args[0])
		printUsage(stderr)
		return exitFatal
	}
}

// =============================================================================
// 📋 版本和帮助
// =============================================================================

func printVersion(w io.Writer) {
	fmt.Fprintf(w, "DocFlow %s\n", Version)
	fmt.Fprintf(w, "  Build Time: %s\n", BuildTime)
	fmt.Fprintf(w, "  Git Commit: %s\n", GitCommit)
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, `DocFlow - batch client for Azure Document Intelligence

Usage:
  docflow <command> [options]

Commands:
  analyze   Analyze a batch of documents
  version   Show version information
  help      Show this help message

Options for 'analyze':
  --config <path>     Path to configuration file (YAML)
  --model <id>        Model ID (default from config, prebuilt-layout)
  --url <url>         Remote document URL, repeatable or comma-separated
  --file <path>       Local document path, repeatable or comma-separated
  --features <list>   Comma-separated analysis features
  --format <fmt>      Output content format: text or markdown
  --max-rps <n>       In-flight operations allowed per credential
  --output <path>     Write results to a file instead of stdout

Credentials:
  DOCFLOW_ENDPOINTS and DOCFLOW_API_KEYS (comma-separated, paired by
  position) override the credentials section of the config file.

Exit codes:
  0  every document succeeded
  1  configuration or batch-level failure
  2  at least one document failed

Examples:
  docflow analyze --url https://example.com/invoice.pdf
  docflow analyze --config /etc/docflow/config.yaml --file a.pdf,b.png --output out.json
  docflow version`)
}

// =============================================================================
// 🔧 日志初始化
// =============================================================================

func initLogger(cfg config.LogConfig) *zap.Logger {
	// 解析日志级别
	var level zapcore.Level
	switch cfg.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	// 配置编码器
	var encoderConfig zapcore.EncoderConfig
	encoding := "json"
	if cfg.Format == "console" {
		encoderConfig = zap.NewDevelopmentEncoderConfig()
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoding = "console"
	} else {
		encoderConfig = zap.NewProductionEncoderConfig()
		encoderConfig.TimeKey = "timestamp"
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	outputs := cfg.OutputPaths
	if len(outputs) == 0 {
		outputs = []string{"stderr"}
	}

	zapConfig := zap.Config{
		Level:             zap.NewAtomicLevelAt(level),
		Development:       cfg.Format == "console",
		Encoding:          encoding,
		EncoderConfig:     encoderConfig,
		OutputPaths:       outputs,
		ErrorOutputPaths:  []string{"stderr"},
		DisableCaller:     !cfg.EnableCaller,
		DisableStacktrace: !cfg.EnableStacktrace,
	}

	logger, err := zapConfig.Build()
	if err != nil {
		// 回退到基本 logger
		logger, _ = zap.NewProduction()
	}

	return logger
}
