package service

import (
	"fmt"

	"github.com/byounghoonpark/PBH-Quiz/internal/model"
	"github.com/byounghoonpark/PBH-Quiz/internal/repository"
	"github.com/byounghoonpark/PBH-Quiz/internal/util"
)

const minChoicesPerQuestion = 3

type QuizService struct {
	Quizzes *repository.QuizRepository
	Grades  *repository.GradeRepository
}

func NewQuizService(quizzes *repository.QuizRepository, grades *repository.GradeRepository) *QuizService {
	return &QuizService{Quizzes: quizzes, Grades: grades}
}

type ChoiceInput struct {
	Text      string `json:"text" binding:"required"`
	IsCorrect bool   `json:"isCorrect"`
}

type QuestionInput struct {
	Text    string        `json:"text" binding:"required"`
	Choices []ChoiceInput `json:"choices" binding:"required"`
}

type QuizInput struct {
	Title            string          `json:"title" binding:"required"`
	Description      string          `json:"description"`
	NumQuestions     int             `json:"numQuestions" binding:"required,min=1"`
	ShuffleQuestions *bool           `json:"shuffleQuestions"`
	ShuffleChoices   *bool           `json:"shuffleChoices"`
	GradeID          *uint           `json:"gradeId"`
	Questions        []QuestionInput `json:"questions" binding:"required"`
}

// ValidateQuestions 发布校验：每道题至少 minChoicesPerQuestion 个选项，
// 且恰好一个正确选项。计分依赖唯一正确选项，这里是唯一的守门处。
func ValidateQuestions(questions []QuestionInput) error {
	if len(questions) == 0 {
		return fmt.Errorf("%w: quiz must contain at least one question", util.ErrInvalidInput)
	}
	for i, q := range questions {
		if len(q.Choices) < minChoicesPerQuestion {
			return fmt.Errorf("%w: question %d needs at least %d choices", util.ErrInvalidInput, i+1, minChoicesPerQuestion)
		}
		correct := 0
		for _, c := range q.Choices {
			if c.IsCorrect {
				correct++
			}
		}
		if correct != 1 {
			return fmt.Errorf("%w: question %d must have exactly one correct choice, got %d", util.ErrInvalidInput, i+1, correct)
		}
	}
	return nil
}

// Create 创建测验及嵌套题目/选项。num_questions 允许大于题目数，
// 开始应试时会取较小值。
func (s *QuizService) Create(input *QuizInput, createdBy uint) (*model.Quiz, error) {
	if err := ValidateQuestions(input.Questions); err != nil {
		return nil, err
	}
	if input.GradeID != nil {
		if _, err := s.Grades.FindByID(*input.GradeID); err != nil {
			return nil, err
		}
	}

	quiz := &model.Quiz{
		Title:            input.Title,
		Description:      input.Description,
		NumQuestions:     input.NumQuestions,
		ShuffleQuestions: boolOr(input.ShuffleQuestions, true),
		ShuffleChoices:   boolOr(input.ShuffleChoices, true),
		GradeID:          input.GradeID,
		CreatedByID:      createdBy,
	}
	for _, qi := range input.Questions {
		question := model.Question{Text: qi.Text}
		for _, ci := range qi.Choices {
			question.Choices = append(question.Choices, model.Choice{Text: ci.Text, IsCorrect: ci.IsCorrect})
		}
		quiz.Questions = append(quiz.Questions, question)
	}

	if err := s.Quizzes.CreateWithQuestions(quiz); err != nil {
		return nil, err
	}
	return quiz, nil
}

// Get 管理端详情，题目/选项按 id 升序，包含 is_correct。
func (s *QuizService) Get(id uint) (*model.Quiz, error) {
	return s.Quizzes.FindByIDWithQuestions(id)
}

func (s *QuizService) List(page, pageSize int) ([]model.Quiz, int64, error) {
	return s.Quizzes.List(page, pageSize)
}

type QuizUpdateInput struct {
	Title            *string `json:"title"`
	Description      *string `json:"description"`
	NumQuestions     *int    `json:"numQuestions"`
	ShuffleQuestions *bool   `json:"shuffleQuestions"`
	ShuffleChoices   *bool   `json:"shuffleChoices"`
	GradeID          *uint   `json:"gradeId"`
}

// Update 只更新测验元信息；题目变更走删除重建。
func (s *QuizService) Update(id uint, input *QuizUpdateInput) (*model.Quiz, error) {
	quiz, err := s.Quizzes.FindByID(id)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		quiz.Title = *input.Title
	}
	if input.Description != nil {
		quiz.Description = *input.Description
	}
	if input.NumQuestions != nil {
		if *input.NumQuestions < 1 {
			return nil, fmt.Errorf("%w: numQuestions must be positive", util.ErrInvalidInput)
		}
		quiz.NumQuestions = *input.NumQuestions
	}
	if input.ShuffleQuestions != nil {
		quiz.ShuffleQuestions = *input.ShuffleQuestions
	}
	if input.ShuffleChoices != nil {
		quiz.ShuffleChoices = *input.ShuffleChoices
	}
	if input.GradeID != nil {
		if _, err := s.Grades.FindByID(*input.GradeID); err != nil {
			return nil, err
		}
		quiz.GradeID = input.GradeID
	}

	if err := s.Quizzes.Update(quiz); err != nil {
		return nil, err
	}
	return quiz, nil
}

func (s *QuizService) Delete(id uint) error {
	if _, err := s.Quizzes.FindByID(id); err != nil {
		return err
	}
	return s.Quizzes.Delete(id)
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}
