package main

import (
	"flag"
	"fmt"
	"log"
	"strings"

	"expensetracker/config"
	"expensetracker/database"
	"expensetracker/logger"
	"expensetracker/middleware"
	"expensetracker/router"
	"expensetracker/service"
)

// @title 记账系统 API
// @version 1.0
// @description 个人记账：消费、收入、区间报表与群组分摊
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

const version = "v1.0.0"

var (
	configFile  string
	port        string
	showVersion bool
)

func init() {
	flag.StringVar(&configFile, "config", "", "外部配置文件路径（可选）")
	flag.StringVar(&configFile, "c", "", "外部配置文件路径（简写）")
	flag.StringVar(&port, "port", "", "监听端口，如: 8080 或 :8080")
	flag.StringVar(&port, "p", "", "监听端口（简写）")
	flag.BoolVar(&showVersion, "version", false, "显示版本信息")
	flag.BoolVar(&showVersion, "v", false, "显示版本信息（简写）")
}

func main() {
	flag.Parse()

	if showVersion {
		log.Println("记账系统 " + version)
		return
	}

	// 加载配置（内置配置 + 可选的外部配置覆盖）
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}

	// 命令行参数覆盖端口配置
	if port != "" {
		// 自动添加冒号前缀
		if !strings.HasPrefix(port, ":") {
			port = ":" + port
		}
		cfg.Server.Port = port
	}

	logger.Init(cfg.Log)
	logger.Log.WithFields(cfg.Summary()).Info("config loaded")

	if err := run(cfg); err != nil {
		logger.Log.WithError(err).Fatal("服务异常退出")
	}
}

// run 启动服务；返回前停止定时任务
func run(cfg *config.Config) error {
	// 初始化数据库
	if err := database.Init(cfg); err != nil {
		return fmt.Errorf("数据库初始化失败: %w", err)
	}

	// 初始化 JWT
	middleware.InitJWT(cfg)

	ledger := service.NewLedger(database.DB, service.SettingsFrom(cfg.Report))

	stop, err := startReminders(cfg, ledger)
	if err != nil {
		return err
	}
	defer stop()

	// 设置路由
	r := router.SetupRouter(cfg, ledger)

	logger.Log.WithFields(map[string]interface{}{
		"addr":    cfg.Server.Port,
		"swagger": cfg.Server.BaseURL + "/swagger/index.html",
		"version": version,
	}).Info("server started")

	if err := r.Run(cfg.Server.Port); err != nil {
		return fmt.Errorf("服务器启动失败: %w", err)
	}
	return nil
}

// startReminders 按配置启动群组欠款提醒，返回的 stop 总是可调用
func startReminders(cfg *config.Config, ledger *service.Ledger) (func(), error) {
	noop := func() {}
	if !cfg.Reminder.Enabled {
		return noop, nil
	}
	mailer := service.NewEmailService(&cfg.Email)
	if !mailer.Enabled() {
		logger.Log.Warn("reminder enabled but email is disabled, skipping schedule")
		return noop, nil
	}
	c, err := service.NewReminderJob(ledger, mailer, logger.Log).Schedule(cfg.Reminder.Schedule)
	if err != nil {
		return noop, fmt.Errorf("提醒任务配置错误: %w", err)
	}
	return func() { <-c.Stop().Done() }, nil
}
