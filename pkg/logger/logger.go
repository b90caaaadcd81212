package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"berkeleyfind/backend/config"
)

// ServiceName 写入每条日志的 service 字段，便于在集中日志中筛选
const ServiceName = "berkeleyfind"

// NewLogger 按 log.format 构建日志器
//
//   - json：线上格式，ISO8601 时间戳，仅 Error 及以上附带堆栈
//   - console：本地开发用的彩色输出
func NewLogger(cfg *config.LogConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("log.level 取值 %q 无法识别: %w", cfg.Level, err)
	}

	var zapCfg zap.Config
	switch cfg.Format {
	case "json", "":
		zapCfg = zap.NewProductionConfig()
		zapCfg.EncoderConfig.TimeKey = "ts"
		zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		// 引导流程的 Warn 日志量很小，不做采样
		zapCfg.Sampling = nil
	case "console":
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	default:
		return nil, fmt.Errorf("log.format 仅支持 json 或 console，收到 %q", cfg.Format)
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	l, err := zapCfg.Build(zap.AddStacktrace(zapcore.ErrorLevel))
	if err != nil {
		return nil, fmt.Errorf("构建 zap 日志器: %w", err)
	}
	return l.With(zap.String("service", ServiceName)), nil
}
