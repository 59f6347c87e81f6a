package database

import (
	"fmt"

	"expensetracker/config"
	"expensetracker/logger"
	"expensetracker/models"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

var DB *gorm.DB

// DSN 构建 MySQL 连接字符串，extra 为附加参数（如 multiStatements=true）
func DSN(cfg config.DatabaseConfig, extra ...string) string {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=%s&parseTime=True&loc=Local",
		cfg.Username,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.DBName,
		cfg.Charset,
	)
	for _, e := range extra {
		dsn += "&" + e
	}
	return dsn
}

// Init 初始化数据库连接
func Init(cfg *config.Config) error {
	db, err := Open(cfg)
	if err != nil {
		return err
	}
	DB = db
	logger.Log.Info("database initialized")
	return nil
}

// Open 打开连接并按配置迁移、初始化默认数据
func Open(cfg *config.Config) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(DSN(cfg.Database)), &gorm.Config{
		Logger: logger.NewGormLogger(logger.Log),
	})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if cfg.Database.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	}
	if cfg.Database.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	}

	if cfg.Database.AutoMigrate {
		if err := AutoMigrate(db); err != nil {
			return nil, err
		}
	}

	if err := SeedCategories(db); err != nil {
		return nil, err
	}
	return db, nil
}

// AutoMigrate 按模型结构迁移表
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.Expense{},
		&models.Income{},
		&models.GroupExpense{},
		&models.GroupMember{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

// SeedCategories 初始化默认消费类别（仅当表为空时）
func SeedCategories(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.Category{}).Count(&count).Error; err != nil {
		return fmt.Errorf("count categories: %w", err)
	}
	if count > 0 {
		return nil
	}

	var cats []models.Category
	for _, name := range models.DefaultCategories() {
		cats = append(cats, models.Category{Name: name})
	}
	if err := db.Create(&cats).Error; err != nil {
		return fmt.Errorf("seed categories: %w", err)
	}
	logger.Log.WithField("count", len(cats)).Info("default categories created")
	return nil
}
