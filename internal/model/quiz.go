package model

// swagger:model Quiz
type Quiz struct {
	BaseModel
	Title            string     `gorm:"size:255;not null" json:"title"`
	Description      string     `gorm:"type:text" json:"description"`
	NumQuestions     int        `gorm:"not null" json:"numQuestions"` // 应试时出题数量 N
	ShuffleQuestions bool       `gorm:"default:true" json:"shuffleQuestions"`
	ShuffleChoices   bool       `gorm:"default:true" json:"shuffleChoices"`
	GradeID          *uint      `gorm:"type:bigint unsigned" json:"gradeId,omitempty"` // nil = open to all grades
	Grade            *Grade     `gorm:"foreignKey:GradeID" json:"grade,omitempty"`
	CreatedByID      uint       `gorm:"index;type:bigint unsigned" json:"createdById"`
	Questions        []Question `gorm:"foreignKey:QuizID" json:"questions,omitempty"`
}

func (Quiz) TableName() string {
	return "quizzes"
}

// swagger:model Question
type Question struct {
	BaseModel
	QuizID  uint     `gorm:"index;type:bigint unsigned" json:"quizId"`
	Text    string   `gorm:"type:text;not null" json:"text"`
	Choices []Choice `gorm:"foreignKey:QuestionID" json:"choices,omitempty"`
}

func (Question) TableName() string {
	return "questions"
}

// Choice 选项。每道题恰好一个 is_correct=true，由发布校验保证。
// swagger:model Choice
type Choice struct {
	BaseModel
	QuestionID uint   `gorm:"index;type:bigint unsigned" json:"questionId"`
	Text       string `gorm:"size:255;not null" json:"text"`
	IsCorrect  bool   `gorm:"default:false" json:"isCorrect"`
}

func (Choice) TableName() string {
	return "choices"
}
