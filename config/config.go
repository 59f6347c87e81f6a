package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DefaultConfigYAML 内置默认配置
//
//go:embed default.yaml
var DefaultConfigYAML []byte

// Config 应用配置
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Email    EmailConfig    `mapstructure:"email"`
	Log      LogConfig      `mapstructure:"log"`
	Report   ReportConfig   `mapstructure:"report"`
	Reminder ReminderConfig `mapstructure:"reminder"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port    string `mapstructure:"port"`
	Mode    string `mapstructure:"mode"`
	BaseURL string `mapstructure:"base_url"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Host         string `mapstructure:"host"`
	Port         string `mapstructure:"port"`
	Username     string `mapstructure:"username"`
	Password     string `mapstructure:"password"`
	DBName       string `mapstructure:"dbname"`
	Charset      string `mapstructure:"charset"`
	AutoMigrate  bool   `mapstructure:"auto_migrate"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
}

// JWTConfig JWT配置
type JWTConfig struct {
	Secret      string        `mapstructure:"secret"`
	ExpireHours int           `mapstructure:"expire_hours"`
	ExpireTime  time.Duration `mapstructure:"-"`
}

// EmailConfig 邮件配置
type EmailConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug/info/warn/error
	Format string `mapstructure:"format"` // json/text
}

// ReportConfig 统计口径配置，作为参数显式传入聚合函数
type ReportConfig struct {
	Budget          float64 `mapstructure:"budget"`           // 默认预算，用户未设置个人预算时使用
	WindowDays      int     `mapstructure:"window_days"`      // 默认统计窗口（天）
	RecentLimit     int     `mapstructure:"recent_limit"`     // 报表最近交易条数
	DashboardRecent int     `mapstructure:"dashboard_recent"` // 首页最近消费/群组条数
	PDFFont         string  `mapstructure:"pdf_font"`         // PDF 导出使用的 UTF-8 TTF 字体路径，为空时使用内置 Helvetica
}

// ReminderConfig 群组欠款提醒配置
type ReminderConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule"` // cron 表达式
}

var (
	// GlobalConfig 全局配置实例
	GlobalConfig *Config
)

// LoadConfig 加载配置
// 优先级: 环境变量(.env 同样生效) > 外部配置文件 > 嵌入的默认配置
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	if err := v.ReadConfig(bytes.NewReader(DefaultConfigYAML)); err != nil {
		return nil, fmt.Errorf("read embedded config: %w", err)
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.MergeInConfig(); err != nil {
			log.Printf("warning: cannot read config file %s: %v", configPath, err)
		} else {
			log.Printf("merged config file: %s", configPath)
		}
	} else {
		externalViper := viper.New()
		externalViper.SetConfigName("config")
		externalViper.SetConfigType("yaml")
		externalViper.AddConfigPath(".")
		externalViper.AddConfigPath("./config")
		externalViper.AddConfigPath("/etc/expensetracker")
		externalViper.AddConfigPath("$HOME/.expensetracker")

		if err := externalViper.ReadInConfig(); err == nil {
			if err := v.MergeConfigMap(externalViper.AllSettings()); err != nil {
				log.Printf("warning: merge external config failed: %v", err)
			} else {
				log.Printf("merged config file: %s", externalViper.ConfigFileUsed())
			}
		}
	}

	// .env 不存在时忽略，只把其中的值注入进程环境
	_ = godotenv.Load()

	v.SetEnvPrefix("TRACKER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.applyDefaults()

	GlobalConfig = &cfg
	return &cfg, nil
}

func (cfg *Config) applyDefaults() {
	if cfg.JWT.ExpireHours <= 0 {
		cfg.JWT.ExpireHours = 24
	}
	cfg.JWT.ExpireTime = time.Duration(cfg.JWT.ExpireHours) * time.Hour

	if cfg.Report.WindowDays <= 0 {
		cfg.Report.WindowDays = 30
	}
	if cfg.Report.RecentLimit <= 0 {
		cfg.Report.RecentLimit = 10
	}
	if cfg.Report.DashboardRecent <= 0 {
		cfg.Report.DashboardRecent = 5
	}
	if cfg.Reminder.Schedule == "" {
		cfg.Reminder.Schedule = "0 9 * * *"
	}
}

// IsRelease 是否生产模式
func IsRelease() bool {
	return GlobalConfig != nil && GlobalConfig.Server.Mode == "release"
}

// SafeErrorMessage 生产环境下不向客户端暴露内部错误详情
func SafeErrorMessage(err error, fallback string) string {
	if err == nil {
		return fallback
	}
	if IsRelease() {
		return fallback
	}
	return err.Error()
}

// Summary 返回可打印的配置摘要（隐藏敏感信息）
func (cfg *Config) Summary() map[string]interface{} {
	return map[string]interface{}{
		"server":   cfg.Server.Port,
		"mode":     cfg.Server.Mode,
		"database": fmt.Sprintf("%s@%s:%s/%s", cfg.Database.Username, cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName),
		"email":    cfg.Email.Enabled,
		"reminder": cfg.Reminder.Enabled,
		"budget":   cfg.Report.Budget,
	}
}
