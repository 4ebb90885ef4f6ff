package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/byounghoonpark/PBH-Quiz/internal/model"
	"github.com/byounghoonpark/PBH-Quiz/internal/util"

	"github.com/go-redis/redis/v8"
)

// SessionStore 会话持久层。实现方必须保证：
//   - Create 对同一 (user, quiz) 的第二个未提交会话返回 ErrDuplicateSession；
//   - Submit 的三字段更新是单条原子写，重复提交返回 ErrAlreadySubmitted。
type SessionStore interface {
	Create(session *model.QuizSession) error
	FindOpen(userID, quizID uint) (*model.QuizSession, error)
	FindByIDForUser(id, userID uint) (*model.QuizSession, error)
	UpdateAnswers(session *model.QuizSession) error
	Submit(id uint, score int, submittedAt time.Time) error
	ListByQuiz(quizID uint, page, pageSize int) ([]model.QuizSession, int64, error)
	StatusByUser(userID uint) (map[uint]bool, error)
}

// QuizCatalog 测验目录的只读视图。
type QuizCatalog interface {
	FindByID(id uint) (*model.Quiz, error)
	Questions(quizID uint) ([]model.Question, error)
	QuestionsByIDs(ids []uint) ([]model.Question, error)
	Choices(questionID uint) ([]model.Choice, error)
	ChoicesByIDs(ids []uint) ([]model.Choice, error)
	CorrectChoice(questionID uint) (*model.Choice, error)
	VisibleForGrade(gradeID uint, page, pageSize int) ([]model.Quiz, int64, error)
}

type UserDirectory interface {
	FindByID(id uint) (*model.User, error)
}

const listCacheTTL = 60 * time.Second

// SessionService 应试会话生命周期：开始（固定随机排列）、暂存答案、
// 提交计分，以及按创建时顺序回放的展示视图。
type SessionService struct {
	Sessions SessionStore
	Catalog  QuizCatalog
	Users    UserDirectory
	Redis    *redis.Client // 可为 nil（测试或未配置缓存时）

	mu  sync.Mutex
	rng *rand.Rand
}

// NewSessionService 构造服务。rng 可注入固定种子保证测试可重现；
// 传 nil 时使用时间种子。
func NewSessionService(sessions SessionStore, catalog QuizCatalog, users UserDirectory, rdb *redis.Client, rng *rand.Rand) *SessionService {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &SessionService{
		Sessions: sessions,
		Catalog:  catalog,
		Users:    users,
		Redis:    rdb,
		rng:      rng,
	}
}

func (s *SessionService) perm(n int) []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Perm(n)
}

// Start 开始应试。已有未提交会话时原样返回其 id，不重新洗牌；
// 否则生成固定的题目/选项排列并创建会话。
func (s *SessionService) Start(userID, quizID uint) (sessionID uint, created bool, err error) {
	user, err := s.Users.FindByID(userID)
	if err != nil {
		return 0, false, err
	}
	if user.GradeID == nil {
		return 0, false, util.ErrProfileIncomplete
	}

	quiz, err := s.Catalog.FindByID(quizID)
	if err != nil {
		return 0, false, err
	}
	if quiz.GradeID != nil && *quiz.GradeID != *user.GradeID {
		return 0, false, util.ErrQuizNotEligible
	}

	existing, err := s.Sessions.FindOpen(userID, quizID)
	if err == nil {
		return existing.ID, false, nil
	}
	if !errors.Is(err, util.ErrSessionNotFound) {
		return 0, false, err
	}

	questions, err := s.Catalog.Questions(quizID)
	if err != nil {
		return 0, false, err
	}
	if quiz.ShuffleQuestions {
		perm := s.perm(len(questions))
		shuffled := make([]model.Question, len(questions))
		for i, j := range perm {
			shuffled[i] = questions[j]
		}
		questions = shuffled
	}
	if quiz.NumQuestions > 0 && len(questions) > quiz.NumQuestions {
		questions = questions[:quiz.NumQuestions]
	}

	questionOrder := make([]uint, len(questions))
	choiceOrder := make(map[uint][]uint, len(questions))
	for i, q := range questions {
		questionOrder[i] = q.ID

		choices, err := s.Catalog.Choices(q.ID)
		if err != nil {
			return 0, false, err
		}
		// 选项永远保留完整集合，只排列不截取
		ids := make([]uint, len(choices))
		if quiz.ShuffleChoices {
			perm := s.perm(len(choices))
			for pos, j := range perm {
				ids[pos] = choices[j].ID
			}
		} else {
			for pos, c := range choices {
				ids[pos] = c.ID
			}
		}
		choiceOrder[q.ID] = ids
	}

	openQuiz := quizID
	session := &model.QuizSession{
		UserID:        userID,
		QuizID:        quizID,
		OpenQuizID:    &openQuiz,
		QuestionOrder: questionOrder,
		ChoiceOrder:   choiceOrder,
		Answers:       map[uint]uint{},
		StartedAt:     time.Now(),
	}

	if err := s.Sessions.Create(session); err != nil {
		if errors.Is(err, util.ErrDuplicateSession) {
			// 并发开始时败者改读胜者的会话
			winner, ferr := s.Sessions.FindOpen(userID, quizID)
			if ferr == nil {
				return winner.ID, false, nil
			}
		}
		return 0, false, err
	}

	s.invalidateStatusCache(userID)
	return session.ID, true, nil
}

// SaveAnswer 暂存单题答案。question_id/choice_id 不与会话记录的排列做
// 交叉校验（保持源系统行为）；未知 id 在提交时计零分。
func (s *SessionService) SaveAnswer(sessionID, userID, questionID, choiceID uint) error {
	if questionID == 0 || choiceID == 0 {
		return util.ErrInvalidInput
	}

	session, err := s.Sessions.FindByIDForUser(sessionID, userID)
	if err != nil {
		return err
	}
	if session.IsSubmitted {
		return util.ErrAlreadySubmitted
	}

	if session.Answers == nil {
		session.Answers = map[uint]uint{}
	}
	session.Answers[questionID] = choiceID
	return s.Sessions.UpdateAnswers(session)
}

// Submit 提交并计分。score = 已作答且命中唯一正确选项的题目数；
// 无法解析的题目跳过不计。计分恰好执行一次，由存储层的条件更新保证。
func (s *SessionService) Submit(sessionID, userID uint) (*model.QuizSession, error) {
	session, err := s.Sessions.FindByIDForUser(sessionID, userID)
	if err != nil {
		return nil, err
	}
	if session.IsSubmitted {
		return nil, util.ErrAlreadySubmitted
	}

	score := 0
	for questionID, choiceID := range session.Answers {
		correct, err := s.Catalog.CorrectChoice(questionID)
		if err != nil {
			if errors.Is(err, util.ErrChoiceNotFound) || errors.Is(err, util.ErrQuestionNotFound) {
				continue
			}
			return nil, err
		}
		if correct.ID == choiceID {
			score++
		}
	}

	now := time.Now()
	if err := s.Sessions.Submit(session.ID, score, now); err != nil {
		return nil, err
	}

	session.Score = &score
	session.IsSubmitted = true
	session.SubmittedAt = &now
	session.OpenQuizID = nil

	s.invalidateStatusCache(userID)
	return session, nil
}

type ChoiceView struct {
	ID   uint   `json:"id"`
	Text string `json:"text"`
}

// QuestionView 面向应试者的题目视图，永不携带 is_correct。
type QuestionView struct {
	ID      uint         `json:"id"`
	Text    string       `json:"text"`
	Choices []ChoiceView `json:"choices"`
}

type SessionDetail struct {
	ID          uint           `json:"id"`
	QuizID      uint           `json:"quizId"`
	IsSubmitted bool           `json:"isSubmitted"`
	Score       *int           `json:"score"`
	StartedAt   time.Time      `json:"startedAt"`
	SubmittedAt *time.Time     `json:"submittedAt"`
	Answers     map[uint]uint  `json:"answers"`
	Questions   []QuestionView `json:"questions"`
}

// Detail 会话详情：题目与选项严格按创建时记录的排列重排后返回。
func (s *SessionService) Detail(sessionID, userID uint) (*SessionDetail, error) {
	session, err := s.Sessions.FindByIDForUser(sessionID, userID)
	if err != nil {
		return nil, err
	}

	questions, err := s.orderedQuestions(session)
	if err != nil {
		return nil, err
	}

	return &SessionDetail{
		ID:          session.ID,
		QuizID:      session.QuizID,
		IsSubmitted: session.IsSubmitted,
		Score:       session.Score,
		StartedAt:   session.StartedAt,
		SubmittedAt: session.SubmittedAt,
		Answers:     session.Answers,
		Questions:   questions,
	}, nil
}

// Questions 分页返回会话题目；分页作用在重排后的序列上。
func (s *SessionService) Questions(sessionID, userID uint, page, pageSize int) ([]QuestionView, int64, error) {
	session, err := s.Sessions.FindByIDForUser(sessionID, userID)
	if err != nil {
		return nil, 0, err
	}

	questions, err := s.orderedQuestions(session)
	if err != nil {
		return nil, 0, err
	}

	start, end := util.PageSlice(len(questions), page, pageSize)
	return questions[start:end], int64(len(questions)), nil
}

// orderedQuestions 把 question_order / choice_order 解析回实体并按记录的
// 位置重排。目录可能以任意顺序返回实体，排序键是排列中的下标而不是主键；
// 已从目录消失的 id 直接跳过。
func (s *SessionService) orderedQuestions(session *model.QuizSession) ([]QuestionView, error) {
	entities, err := s.Catalog.QuestionsByIDs(session.QuestionOrder)
	if err != nil {
		return nil, err
	}
	byID := make(map[uint]model.Question, len(entities))
	for _, q := range entities {
		byID[q.ID] = q
	}

	views := make([]QuestionView, 0, len(session.QuestionOrder))
	for _, questionID := range session.QuestionOrder {
		q, ok := byID[questionID]
		if !ok {
			continue
		}

		choiceIDs := session.ChoiceOrder[questionID]
		choices, err := s.Catalog.ChoicesByIDs(choiceIDs)
		if err != nil {
			return nil, err
		}
		choiceByID := make(map[uint]model.Choice, len(choices))
		for _, c := range choices {
			choiceByID[c.ID] = c
		}

		choiceViews := make([]ChoiceView, 0, len(choiceIDs))
		for _, choiceID := range choiceIDs {
			c, ok := choiceByID[choiceID]
			if !ok {
				continue
			}
			choiceViews = append(choiceViews, ChoiceView{ID: c.ID, Text: c.Text})
		}

		views = append(views, QuestionView{ID: q.ID, Text: q.Text, Choices: choiceViews})
	}
	return views, nil
}

// QuizStatus 我的测验列表行：是否已提交过该测验。
type QuizStatus struct {
	ID          uint   `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	IsSubmitted bool   `json:"isSubmitted"`
}

type cachedStatusPage struct {
	List  []QuizStatus `json:"list"`
	Total int64        `json:"total"`
}

// MyStatus 对用户可见的测验及其提交状态。无学年的用户得到空列表。
func (s *SessionService) MyStatus(userID uint, page, pageSize int) ([]QuizStatus, int64, error) {
	user, err := s.Users.FindByID(userID)
	if err != nil {
		return nil, 0, err
	}
	if user.GradeID == nil {
		return []QuizStatus{}, 0, nil
	}

	key := statusCacheKey(userID, page, pageSize)
	var cached cachedStatusPage
	if s.cacheGet(key, &cached) {
		return cached.List, cached.Total, nil
	}

	quizzes, total, err := s.Catalog.VisibleForGrade(*user.GradeID, page, pageSize)
	if err != nil {
		return nil, 0, err
	}

	statusMap, err := s.Sessions.StatusByUser(userID)
	if err != nil {
		return nil, 0, err
	}

	list := make([]QuizStatus, len(quizzes))
	for i, q := range quizzes {
		list[i] = QuizStatus{
			ID:          q.ID,
			Title:       q.Title,
			Description: q.Description,
			IsSubmitted: statusMap[q.ID],
		}
	}

	s.cacheSet(key, cachedStatusPage{List: list, Total: total})
	return list, total, nil
}

type cachedSessionPage struct {
	List  []model.QuizSession `json:"list"`
	Total int64               `json:"total"`
}

// SessionsByQuiz 管理端：某测验全部用户的会话（含原始 answers 与 score），
// 按会话 id 升序。角色校验在路由层完成。
func (s *SessionService) SessionsByQuiz(quizID uint, page, pageSize int) ([]model.QuizSession, int64, error) {
	key := adminCacheKey(quizID, page, pageSize)
	var cached cachedSessionPage
	if s.cacheGet(key, &cached) {
		return cached.List, cached.Total, nil
	}

	sessions, total, err := s.Sessions.ListByQuiz(quizID, page, pageSize)
	if err != nil {
		return nil, 0, err
	}

	s.cacheSet(key, cachedSessionPage{List: sessions, Total: total})
	return sessions, total, nil
}

func statusCacheKey(userID uint, page, pageSize int) string {
	return fmt.Sprintf("quiz:status:%d:%d:%d", userID, page, pageSize)
}

func adminCacheKey(quizID uint, page, pageSize int) string {
	return fmt.Sprintf("quiz:sessions:%d:%d:%d", quizID, page, pageSize)
}

func (s *SessionService) cacheGet(key string, dest interface{}) bool {
	if s.Redis == nil {
		return false
	}
	raw, err := s.Redis.Get(context.Background(), key).Bytes()
	if err != nil {
		return false
	}
	return json.Unmarshal(raw, dest) == nil
}

func (s *SessionService) cacheSet(key string, value interface{}) {
	if s.Redis == nil {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	s.Redis.Set(context.Background(), key, raw, listCacheTTL)
}

// invalidateStatusCache 只清第一页常用项，其余依赖 TTL 过期。
func (s *SessionService) invalidateStatusCache(userID uint) {
	if s.Redis == nil {
		return
	}
	s.Redis.Del(context.Background(), statusCacheKey(userID, 1, util.DefaultPageSize))
}
