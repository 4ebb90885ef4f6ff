// 演示数据初始化脚本
//
// 创建一个管理员账号和一份示例测验（3 道题，每题 4 个选项），
// 用于本地开发和前端联调。重复执行不会产生重复数据。
//
// 用法: go run scripts/seed_demo.go
package main

import (
	"log"

	"github.com/byounghoonpark/PBH-Quiz/internal/config"
	"github.com/byounghoonpark/PBH-Quiz/internal/model"
	"github.com/byounghoonpark/PBH-Quiz/pkg/database"
	"github.com/byounghoonpark/PBH-Quiz/pkg/logger"

	"golang.org/x/crypto/bcrypt"
)

func main() {
	cfg, err := config.LoadConfig("configs")
	if err != nil {
		log.Fatalf("无法读取配置文件: %v", err)
	}

	logger.InitLogger(cfg)

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		log.Fatalf("数据库连接失败: %v", err)
	}

	// 管理员账号
	var admin model.User
	if err := db.Where("email = ?", "admin@example.com").First(&admin).Error; err != nil {
		hashed, err := bcrypt.GenerateFromPassword([]byte("admin1234"), bcrypt.DefaultCost)
		if err != nil {
			log.Fatalf("密码哈希失败: %v", err)
		}
		admin = model.User{
			Name:     "관리자",
			Email:    "admin@example.com",
			Password: string(hashed),
			Role:     model.Admin,
		}
		if err := db.Create(&admin).Error; err != nil {
			log.Fatalf("创建管理员失败: %v", err)
		}
		log.Println("管理员账号已创建: admin@example.com / admin1234")
	}

	// 示例测验
	var count int64
	db.Model(&model.Quiz{}).Where("title = ?", "산수 기초 퀴즈").Count(&count)
	if count > 0 {
		log.Println("示例测验已存在，跳过")
		return
	}

	var grade model.Grade
	if err := db.Order("id asc").First(&grade).Error; err != nil {
		log.Fatalf("没有可用的学年，请先执行迁移: %v", err)
	}

	quiz := model.Quiz{
		Title:            "산수 기초 퀴즈",
		Description:      "덧셈과 뺄셈 기초 문제",
		NumQuestions:     3,
		ShuffleQuestions: true,
		ShuffleChoices:   true,
		GradeID:          &grade.ID,
		CreatedByID:      admin.ID,
		Questions: []model.Question{
			{
				Text: "3 + 4 = ?",
				Choices: []model.Choice{
					{Text: "6"}, {Text: "7", IsCorrect: true}, {Text: "8"}, {Text: "9"},
				},
			},
			{
				Text: "10 - 6 = ?",
				Choices: []model.Choice{
					{Text: "3"}, {Text: "4", IsCorrect: true}, {Text: "5"}, {Text: "6"},
				},
			},
			{
				Text: "5 + 5 = ?",
				Choices: []model.Choice{
					{Text: "10", IsCorrect: true}, {Text: "11"}, {Text: "9"}, {Text: "12"},
				},
			},
		},
	}

	if err := db.Create(&quiz).Error; err != nil {
		log.Fatalf("创建示例测验失败: %v", err)
	}
	log.Printf("示例测验已创建 (id=%d)", quiz.ID)
}
