package model

import "time"

// QuizSession 一次应试记录。question_order / choice_order 在创建时固定，
// 之后不再重算；answers 仅在提交前可写。
//
// OpenQuizID mirrors QuizID while the session is open and is set to NULL at
// submission. The unique index on (user_id, open_quiz_id) makes MySQL enforce
// at most one open session per (user, quiz) — NULL rows are exempt, so any
// number of submitted sessions may coexist.
// swagger:model QuizSession
type QuizSession struct {
	BaseModel

	UserID uint `gorm:"uniqueIndex:uq_user_open_quiz;type:bigint unsigned" json:"userId"`
	QuizID uint `gorm:"index;type:bigint unsigned" json:"quizId"`

	OpenQuizID *uint `gorm:"uniqueIndex:uq_user_open_quiz;type:bigint unsigned" json:"-"`

	QuestionOrder []uint          `gorm:"serializer:json;type:json" json:"questionOrder"`
	ChoiceOrder   map[uint][]uint `gorm:"serializer:json;type:json" json:"choiceOrder"`
	Answers       map[uint]uint   `gorm:"serializer:json;type:json" json:"answers"`

	IsSubmitted bool       `gorm:"default:false" json:"isSubmitted"`
	Score       *int       `json:"score"`
	StartedAt   time.Time  `json:"startedAt"`
	SubmittedAt *time.Time `json:"submittedAt"`
}

func (QuizSession) TableName() string {
	return "quiz_sessions"
}
