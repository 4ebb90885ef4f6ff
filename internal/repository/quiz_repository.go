package repository

import (
	"errors"

	"github.com/byounghoonpark/PBH-Quiz/internal/model"
	"github.com/byounghoonpark/PBH-Quiz/internal/util"

	"gorm.io/gorm"
)

type QuizRepository struct {
	DB *gorm.DB
}

func NewQuizRepository(db *gorm.DB) *QuizRepository {
	return &QuizRepository{DB: db}
}

// CreateWithQuestions 在一个事务内写入测验及其嵌套的题目/选项。
func (r *QuizRepository) CreateWithQuestions(quiz *model.Quiz) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		return tx.Create(quiz).Error
	})
}

func (r *QuizRepository) FindByID(id uint) (*model.Quiz, error) {
	var quiz model.Quiz
	err := r.DB.First(&quiz, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrQuizNotFound
	}
	if err != nil {
		return nil, err
	}
	return &quiz, nil
}

func (r *QuizRepository) FindByIDWithQuestions(id uint) (*model.Quiz, error) {
	var quiz model.Quiz
	err := r.DB.Preload("Questions", func(db *gorm.DB) *gorm.DB {
		return db.Order("questions.id asc")
	}).Preload("Questions.Choices", func(db *gorm.DB) *gorm.DB {
		return db.Order("choices.id asc")
	}).First(&quiz, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrQuizNotFound
	}
	if err != nil {
		return nil, err
	}
	return &quiz, nil
}

func (r *QuizRepository) Update(quiz *model.Quiz) error {
	return r.DB.Save(quiz).Error
}

func (r *QuizRepository) Delete(id uint) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		var questionIDs []uint
		if err := tx.Model(&model.Question{}).Where("quiz_id = ?", id).Pluck("id", &questionIDs).Error; err != nil {
			return err
		}
		if len(questionIDs) > 0 {
			if err := tx.Where("question_id IN ?", questionIDs).Delete(&model.Choice{}).Error; err != nil {
				return err
			}
			if err := tx.Where("quiz_id = ?", id).Delete(&model.Question{}).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&model.Quiz{}, id).Error
	})
}

func (r *QuizRepository) List(page, pageSize int) ([]model.Quiz, int64, error) {
	var total int64
	if err := r.DB.Model(&model.Quiz{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var quizzes []model.Quiz
	offset := (page - 1) * pageSize
	err := r.DB.Order("created_at desc").Offset(offset).Limit(pageSize).Find(&quizzes).Error
	return quizzes, total, err
}

// VisibleForGrade 返回对指定学年可见的测验：无学年限制或学年一致。
func (r *QuizRepository) VisibleForGrade(gradeID uint, page, pageSize int) ([]model.Quiz, int64, error) {
	query := r.DB.Model(&model.Quiz{}).Where("grade_id IS NULL OR grade_id = ?", gradeID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var quizzes []model.Quiz
	offset := (page - 1) * pageSize
	err := query.Order("created_at desc").Offset(offset).Limit(pageSize).Find(&quizzes).Error
	return quizzes, total, err
}

func (r *QuizRepository) Questions(quizID uint) ([]model.Question, error) {
	var questions []model.Question
	err := r.DB.Where("quiz_id = ?", quizID).Order("id asc").Find(&questions).Error
	return questions, err
}

// QuestionsByIDs 按主键集合取题目，顺序不保证，由调用方按 question_order 重排。
func (r *QuizRepository) QuestionsByIDs(ids []uint) ([]model.Question, error) {
	var questions []model.Question
	err := r.DB.Where("id IN ?", ids).Find(&questions).Error
	return questions, err
}

func (r *QuizRepository) Choices(questionID uint) ([]model.Choice, error) {
	var choices []model.Choice
	err := r.DB.Where("question_id = ?", questionID).Order("id asc").Find(&choices).Error
	return choices, err
}

func (r *QuizRepository) ChoicesByIDs(ids []uint) ([]model.Choice, error) {
	var choices []model.Choice
	err := r.DB.Where("id IN ?", ids).Find(&choices).Error
	return choices, err
}

// CorrectChoice 返回题目的唯一正确选项；题目或选项不存在时返回 ErrChoiceNotFound。
func (r *QuizRepository) CorrectChoice(questionID uint) (*model.Choice, error) {
	var choice model.Choice
	err := r.DB.Where("question_id = ? AND is_correct = ?", questionID, true).First(&choice).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrChoiceNotFound
	}
	if err != nil {
		return nil, err
	}
	return &choice, nil
}
