package logger

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var Log *zap.Logger

// Config 日志配置
type Config struct {
	Level  string // debug/info/warn/error
	Format string // console/json
}

func init() {
	Log = newLogger(Config{Level: "debug", Format: "console"})
}

// Init 按配置重建全局 logger，未调用时使用默认彩色 console 输出
func Init(c Config) {
	Log = newLogger(c)
}

func newLogger(c Config) *zap.Logger {
	encCfg := zapcore.EncoderConfig{
		TimeKey:       "ts",
		LevelKey:      "level",
		NameKey:       "logger",
		CallerKey:     "caller",
		MessageKey:    "msg",
		StacktraceKey: "stack",
		LineEnding:    zapcore.DefaultLineEnding,
		EncodeTime:    zapcore.ISO8601TimeEncoder,
		EncodeLevel:   zapcore.CapitalColorLevelEncoder,
		EncodeCaller:  zapcore.ShortCallerEncoder,
	}

	var enc zapcore.Encoder
	if strings.EqualFold(c.Format, "json") {
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		enc = zapcore.NewJSONEncoder(encCfg)
	} else {
		enc = zapcore.NewConsoleEncoder(encCfg)
	}

	lvl := zapcore.DebugLevel
	if c.Level != "" {
		if err := lvl.Set(c.Level); err != nil {
			lvl = zapcore.InfoLevel
		}
	}

	core := zapcore.NewCore(enc, zapcore.AddSync(os.Stdout), lvl)
	return zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1))
}

// Named 返回带名字的子 logger，调用方自己持有
func Named(name string) *zap.Logger { return Log.WithOptions(zap.AddCallerSkip(-1)).Named(name) }

// 快捷方法
func Info(msg string, fields ...zap.Field) { Log.Info(msg, fields...) }
func Infof(format string, args ...interface{}) {
	Log.Info(fmt.Sprintf(format, args...))
}
func Warn(msg string, fields ...zap.Field)  { Log.Warn(msg, fields...) }
func Error(msg string, fields ...zap.Field) { Log.Error(msg, fields...) }

func Errorf(format string, args ...interface{}) {
	Log.Error(fmt.Sprintf(format, args...))
}

func Debug(msg string, fields ...zap.Field) { Log.Debug(msg, fields...) }

// Sync 刷盘，退出前调用
func Sync() { _ = Log.Sync() }
