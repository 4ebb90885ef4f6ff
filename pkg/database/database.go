package database

import (
	"fmt"
	"log"

	"github.com/byounghoonpark/PBH-Quiz/internal/config"
	"github.com/byounghoonpark/PBH-Quiz/internal/model"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func InitDB(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=%t&loc=Local",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.DBName,
		cfg.Charset,
		cfg.ParseTime,
	)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Info),
		// 唯一键冲突需要翻译成 gorm.ErrDuplicatedKey（并发开始应试时使用）
		TranslateError: true,
	})

	if err != nil {
		return nil, err
	}

	log.Println("Database connection established")

	err = db.AutoMigrate(
		&model.Grade{},
		&model.User{},
		&model.Quiz{},
		&model.Question{},
		&model.Choice{},
		&model.QuizSession{},
	)

	if err != nil {
		return nil, err
	}

	log.Println("Database migration completed")

	// 默认学年 (1학년 ~ 6학년)
	var count int64
	db.Model(&model.Grade{}).Count(&count)
	if count == 0 {
		defaultGrades := []string{"1학년", "2학년", "3학년", "4학년", "5학년", "6학년"}
		for _, name := range defaultGrades {
			db.Create(&model.Grade{Name: name})
		}
	}

	return db, nil
}
