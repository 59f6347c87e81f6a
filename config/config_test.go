package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSafeErrorMessage(t *testing.T) {
	fallback := "operation failed"
	testErr := errors.New("internal database error")

	// nil err 返回 fallback
	assert.Equal(t, fallback, SafeErrorMessage(nil, fallback))

	// release 模式不暴露错误详情
	GlobalConfig = &Config{Server: ServerConfig{Mode: "release"}}
	defer func() { GlobalConfig = nil }()
	assert.Equal(t, fallback, SafeErrorMessage(testErr, fallback))

	GlobalConfig = &Config{Server: ServerConfig{Mode: "debug"}}
	assert.Equal(t, "internal database error", SafeErrorMessage(testErr, fallback))

	// 未初始化视为开发环境
	GlobalConfig = nil
	assert.Equal(t, "internal database error", SafeErrorMessage(testErr, fallback))
}

func TestLoadConfig_Defaults(t *testing.T) {
	defer func() { GlobalConfig = nil }()

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Port)
	assert.Equal(t, 3000.0, cfg.Report.Budget)
	assert.Equal(t, 30, cfg.Report.WindowDays)
	assert.Equal(t, 10, cfg.Report.RecentLimit)
	assert.Equal(t, 5, cfg.Report.DashboardRecent)
	assert.Equal(t, 24*time.Hour, cfg.JWT.ExpireTime)
	assert.Same(t, cfg, GlobalConfig)
}

func TestLoadConfig_FileAndEnvOverride(t *testing.T) {
	defer func() { GlobalConfig = nil }()

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "report:\n  budget: 1500\n  window_days: 7\nserver:\n  mode: release\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	t.Setenv("TRACKER_JWT_EXPIRE_HOURS", "2")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 1500.0, cfg.Report.Budget)
	assert.Equal(t, 7, cfg.Report.WindowDays)
	assert.Equal(t, "release", cfg.Server.Mode)
	assert.Equal(t, 2*time.Hour, cfg.JWT.ExpireTime)
	assert.True(t, IsRelease())
}
