package repository

import (
	"errors"
	"time"

	"github.com/byounghoonpark/PBH-Quiz/internal/model"
	"github.com/byounghoonpark/PBH-Quiz/internal/util"

	"gorm.io/gorm"
)

type SessionRepository struct {
	DB *gorm.DB
}

func NewSessionRepository(db *gorm.DB) *SessionRepository {
	return &SessionRepository{DB: db}
}

// Create 插入新会话。(user_id, open_quiz_id) 唯一索引保证同一测验最多一个
// 未提交会话；并发冲突翻译为 ErrDuplicateSession，由调用方改读已有会话。
func (r *SessionRepository) Create(session *model.QuizSession) error {
	if err := r.DB.Create(session).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return util.ErrDuplicateSession
		}
		return err
	}
	return nil
}

func (r *SessionRepository) FindOpen(userID, quizID uint) (*model.QuizSession, error) {
	var session model.QuizSession
	err := r.DB.Where("user_id = ? AND quiz_id = ? AND is_submitted = ?", userID, quizID, false).
		First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// FindByIDForUser 只在会话属于该用户时返回，否则一律 ErrSessionNotFound，
// 不向非所有者泄露会话是否存在。
func (r *SessionRepository) FindByIDForUser(id, userID uint) (*model.QuizSession, error) {
	var session model.QuizSession
	err := r.DB.Where("id = ? AND user_id = ?", id, userID).First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// UpdateAnswers 仅持久化 answers 字段。
func (r *SessionRepository) UpdateAnswers(session *model.QuizSession) error {
	return r.DB.Model(session).Update("answers", session.Answers).Error
}

// Submit 原子提交：score / is_submitted / submitted_at 一条 UPDATE 落库，
// 同时清空 open_quiz_id 释放唯一索引。WHERE is_submitted=0 保证并发双提交
// 恰有一个胜者；败者得到 ErrAlreadySubmitted，不会二次计分。
func (r *SessionRepository) Submit(id uint, score int, submittedAt time.Time) error {
	result := r.DB.Model(&model.QuizSession{}).
		Where("id = ? AND is_submitted = ?", id, false).
		Updates(map[string]interface{}{
			"score":        score,
			"is_submitted": true,
			"submitted_at": submittedAt,
			"open_quiz_id": nil,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return util.ErrAlreadySubmitted
	}
	return nil
}

// ListByQuiz 管理端：某测验的全部会话，按会话 id 升序。
func (r *SessionRepository) ListByQuiz(quizID uint, page, pageSize int) ([]model.QuizSession, int64, error) {
	query := r.DB.Model(&model.QuizSession{}).Where("quiz_id = ?", quizID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var sessions []model.QuizSession
	offset := (page - 1) * pageSize
	err := query.Order("id asc").Offset(offset).Limit(pageSize).Find(&sessions).Error
	return sessions, total, err
}

// StatusByUser 返回 quiz_id → is_submitted；同一测验存在多个会话时
// 以最近一次为准。
func (r *SessionRepository) StatusByUser(userID uint) (map[uint]bool, error) {
	var sessions []model.QuizSession
	err := r.DB.Select("quiz_id", "is_submitted").
		Where("user_id = ?", userID).Order("id asc").Find(&sessions).Error
	if err != nil {
		return nil, err
	}

	status := make(map[uint]bool, len(sessions))
	for _, s := range sessions {
		status[s.QuizID] = s.IsSubmitted
	}
	return status, nil
}
