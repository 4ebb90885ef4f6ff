package service

import (
	"errors"
	"math/rand"
	"sort"
	"testing"
	"time"

	"github.com/byounghoonpark/PBH-Quiz/internal/model"
	"github.com/byounghoonpark/PBH-Quiz/internal/util"
)

type fakeSessionStore struct {
	sessions map[uint]*model.QuizSession
	nextID   uint

	submitCalls int
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{sessions: map[uint]*model.QuizSession{}, nextID: 1}
}

func (s *fakeSessionStore) Create(session *model.QuizSession) error {
	for _, existing := range s.sessions {
		if existing.UserID == session.UserID && existing.QuizID == session.QuizID && !existing.IsSubmitted {
			return util.ErrDuplicateSession
		}
	}
	session.ID = s.nextID
	s.nextID++
	s.sessions[session.ID] = session
	return nil
}

func (s *fakeSessionStore) FindOpen(userID, quizID uint) (*model.QuizSession, error) {
	for _, session := range s.sessions {
		if session.UserID == userID && session.QuizID == quizID && !session.IsSubmitted {
			return session, nil
		}
	}
	return nil, util.ErrSessionNotFound
}

func (s *fakeSessionStore) FindByIDForUser(id, userID uint) (*model.QuizSession, error) {
	session, ok := s.sessions[id]
	if !ok || session.UserID != userID {
		return nil, util.ErrSessionNotFound
	}
	return session, nil
}

func (s *fakeSessionStore) UpdateAnswers(session *model.QuizSession) error {
	stored, ok := s.sessions[session.ID]
	if !ok {
		return util.ErrSessionNotFound
	}
	stored.Answers = session.Answers
	return nil
}

func (s *fakeSessionStore) Submit(id uint, score int, submittedAt time.Time) error {
	s.submitCalls++
	session, ok := s.sessions[id]
	if !ok || session.IsSubmitted {
		return util.ErrAlreadySubmitted
	}
	session.Score = &score
	session.IsSubmitted = true
	session.SubmittedAt = &submittedAt
	session.OpenQuizID = nil
	return nil
}

func (s *fakeSessionStore) ListByQuiz(quizID uint, page, pageSize int) ([]model.QuizSession, int64, error) {
	var matched []model.QuizSession
	for _, session := range s.sessions {
		if session.QuizID == quizID {
			matched = append(matched, *session)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })
	start, end := util.PageSlice(len(matched), page, pageSize)
	return matched[start:end], int64(len(matched)), nil
}

func (s *fakeSessionStore) StatusByUser(userID uint) (map[uint]bool, error) {
	ids := make([]uint, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	status := map[uint]bool{}
	for _, id := range ids {
		session := s.sessions[id]
		if session.UserID == userID {
			status[session.QuizID] = session.IsSubmitted
		}
	}
	return status, nil
}

type fakeCatalog struct {
	quizzes   map[uint]*model.Quiz
	questions map[uint][]model.Question // quiz id → questions
	choices   map[uint][]model.Choice   // question id → choices
}

func (c *fakeCatalog) FindByID(id uint) (*model.Quiz, error) {
	quiz, ok := c.quizzes[id]
	if !ok {
		return nil, util.ErrQuizNotFound
	}
	return quiz, nil
}

func (c *fakeCatalog) Questions(quizID uint) ([]model.Question, error) {
	return c.questions[quizID], nil
}

func (c *fakeCatalog) QuestionsByIDs(ids []uint) ([]model.Question, error) {
	want := map[uint]bool{}
	for _, id := range ids {
		want[id] = true
	}
	var out []model.Question
	for _, qs := range c.questions {
		for _, q := range qs {
			if want[q.ID] {
				out = append(out, q)
			}
		}
	}
	// 模拟数据库按主键序返回，与会话记录的排列无关
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (c *fakeCatalog) Choices(questionID uint) ([]model.Choice, error) {
	return c.choices[questionID], nil
}

func (c *fakeCatalog) ChoicesByIDs(ids []uint) ([]model.Choice, error) {
	want := map[uint]bool{}
	for _, id := range ids {
		want[id] = true
	}
	var out []model.Choice
	for _, cs := range c.choices {
		for _, ch := range cs {
			if want[ch.ID] {
				out = append(out, ch)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (c *fakeCatalog) CorrectChoice(questionID uint) (*model.Choice, error) {
	for _, ch := range c.choices[questionID] {
		if ch.IsCorrect {
			copied := ch
			return &copied, nil
		}
	}
	return nil, util.ErrChoiceNotFound
}

func (c *fakeCatalog) VisibleForGrade(gradeID uint, page, pageSize int) ([]model.Quiz, int64, error) {
	var visible []model.Quiz
	for _, quiz := range c.quizzes {
		if quiz.GradeID == nil || *quiz.GradeID == gradeID {
			visible = append(visible, *quiz)
		}
	}
	sort.Slice(visible, func(i, j int) bool { return visible[i].ID < visible[j].ID })
	start, end := util.PageSlice(len(visible), page, pageSize)
	return visible[start:end], int64(len(visible)), nil
}

type fakeUsers struct {
	users map[uint]*model.User
}

func (u *fakeUsers) FindByID(id uint) (*model.User, error) {
	user, ok := u.users[id]
	if !ok {
		return nil, util.ErrUserNotFound
	}
	return user, nil
}

func uintPtr(v uint) *uint { return &v }

// fixture：学年 1 的测验，3 道题 × 3 个选项，每题第一个选项正确。
// 题目 id 11/12/13，选项 id = 题目 id*10 + 序号。
func newFixture() (*fakeSessionStore, *fakeCatalog, *fakeUsers) {
	quiz := &model.Quiz{
		BaseModel:        model.BaseModel{ID: 1},
		Title:            "산수 기초",
		NumQuestions:     3,
		ShuffleQuestions: true,
		ShuffleChoices:   true,
		GradeID:          uintPtr(1),
	}

	catalog := &fakeCatalog{
		quizzes:   map[uint]*model.Quiz{1: quiz},
		questions: map[uint][]model.Question{1: {}},
		choices:   map[uint][]model.Choice{},
	}
	for _, qid := range []uint{11, 12, 13} {
		catalog.questions[1] = append(catalog.questions[1], model.Question{
			BaseModel: model.BaseModel{ID: qid},
			QuizID:    1,
		})
		for i := uint(1); i <= 3; i++ {
			catalog.choices[qid] = append(catalog.choices[qid], model.Choice{
				BaseModel:  model.BaseModel{ID: qid*10 + i},
				QuestionID: qid,
				IsCorrect:  i == 1,
			})
		}
	}

	users := &fakeUsers{users: map[uint]*model.User{
		100: {BaseModel: model.BaseModel{ID: 100}, Role: model.Student, GradeID: uintPtr(1)},
		101: {BaseModel: model.BaseModel{ID: 101}, Role: model.Student}, // 未设置学年
	}}

	return newFakeSessionStore(), catalog, users
}

func newTestService(store SessionStore, catalog QuizCatalog, users UserDirectory) *SessionService {
	return NewSessionService(store, catalog, users, nil, rand.New(rand.NewSource(42)))
}

func TestStartCreatesSessionWithFullChoicePermutation(t *testing.T) {
	store, catalog, users := newFixture()
	svc := newTestService(store, catalog, users)

	id, created, err := svc.Start(100, 1)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !created {
		t.Fatal("expected a newly created session")
	}

	session := store.sessions[id]
	if len(session.QuestionOrder) != 3 {
		t.Fatalf("question order length = %d, want 3", len(session.QuestionOrder))
	}
	seen := map[uint]bool{}
	for _, qid := range session.QuestionOrder {
		if qid < 11 || qid > 13 {
			t.Fatalf("unexpected question id %d in order", qid)
		}
		if seen[qid] {
			t.Fatalf("question %d appears twice", qid)
		}
		seen[qid] = true

		// 每题的选项排列必须是完整集合的置换
		ids := session.ChoiceOrder[qid]
		if len(ids) != 3 {
			t.Fatalf("choice order for %d has %d entries, want 3", qid, len(ids))
		}
		got := append([]uint(nil), ids...)
		sort.Slice(got, func(i, j int) bool { return got[i] < got[j] })
		for i, cid := range got {
			if want := qid*10 + uint(i+1); cid != want {
				t.Fatalf("choice order for %d = %v, not a permutation", qid, ids)
			}
		}
	}
	if len(session.Answers) != 0 {
		t.Fatalf("new session should start with empty answers, got %v", session.Answers)
	}
	if session.OpenQuizID == nil || *session.OpenQuizID != 1 {
		t.Fatal("open session must carry its quiz id for uniqueness")
	}
}

func TestStartReturnsExistingOpenSession(t *testing.T) {
	store, catalog, users := newFixture()
	svc := newTestService(store, catalog, users)

	first, created, err := svc.Start(100, 1)
	if err != nil || !created {
		t.Fatalf("first Start: id=%d created=%v err=%v", first, created, err)
	}
	orderBefore := append([]uint(nil), store.sessions[first].QuestionOrder...)

	second, created, err := svc.Start(100, 1)
	if err != nil {
		t.Fatalf("second Start: %v", err)
	}
	if created {
		t.Fatal("second start must not create a new session")
	}
	if second != first {
		t.Fatalf("second start returned session %d, want %d", second, first)
	}
	// 排列不得被重新洗牌
	for i, qid := range store.sessions[first].QuestionOrder {
		if qid != orderBefore[i] {
			t.Fatal("question order changed on repeated start")
		}
	}
}

func TestStartTruncatesToNumQuestions(t *testing.T) {
	store, catalog, users := newFixture()
	catalog.quizzes[1].NumQuestions = 2
	svc := newTestService(store, catalog, users)

	id, _, err := svc.Start(100, 1)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	session := store.sessions[id]
	if len(session.QuestionOrder) != 2 {
		t.Fatalf("question order length = %d, want 2", len(session.QuestionOrder))
	}
	if len(session.ChoiceOrder) != 2 {
		t.Fatalf("choice order has %d entries, want 2", len(session.ChoiceOrder))
	}
	// 被截掉的题目不应留下选项排列
	for qid := range session.ChoiceOrder {
		found := false
		for _, kept := range session.QuestionOrder {
			if kept == qid {
				found = true
			}
		}
		if !found {
			t.Fatalf("choice order contains dropped question %d", qid)
		}
	}
}

// 洗牌全关时走目录原序：开始 → 答一对一错 → 提交得 1 分。
func TestNoShuffleEndToEnd(t *testing.T) {
	store, catalog, users := newFixture()
	catalog.quizzes[1].ShuffleQuestions = false
	catalog.quizzes[1].ShuffleChoices = false
	catalog.quizzes[1].NumQuestions = 2

	svc := newTestService(store, catalog, users)
	id, created, err := svc.Start(100, 1)
	if err != nil || !created {
		t.Fatalf("Start: id=%d created=%v err=%v", id, created, err)
	}

	session := store.sessions[id]
	if len(session.QuestionOrder) != 2 || session.QuestionOrder[0] != 11 || session.QuestionOrder[1] != 12 {
		t.Fatalf("question order = %v, want catalog order [11 12]", session.QuestionOrder)
	}
	for _, qid := range session.QuestionOrder {
		ids := session.ChoiceOrder[qid]
		for i, cid := range ids {
			if want := qid*10 + uint(i+1); cid != want {
				t.Fatalf("choice order for %d = %v, want identity order", qid, ids)
			}
		}
	}

	if err := svc.SaveAnswer(id, 100, 11, 111); err != nil {
		t.Fatal(err)
	}
	if err := svc.SaveAnswer(id, 100, 12, 122); err != nil {
		t.Fatal(err)
	}

	submitted, err := svc.Submit(id, 100)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if submitted.Score == nil || *submitted.Score != 1 {
		t.Fatalf("score = %v, want 1", submitted.Score)
	}
}

func TestStartDeterministicWithSeed(t *testing.T) {
	runOnce := func() []uint {
		store, catalog, users := newFixture()
		svc := newTestService(store, catalog, users)
		id, _, err := svc.Start(100, 1)
		if err != nil {
			t.Fatalf("Start: %v", err)
		}
		return store.sessions[id].QuestionOrder
	}

	a, b := runOnce(), runOnce()
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("same seed produced different orders: %v vs %v", a, b)
		}
	}
}

func TestStartGuards(t *testing.T) {
	store, catalog, users := newFixture()
	svc := newTestService(store, catalog, users)

	if _, _, err := svc.Start(101, 1); !errors.Is(err, util.ErrProfileIncomplete) {
		t.Fatalf("user without grade: got %v, want ErrProfileIncomplete", err)
	}
	if _, _, err := svc.Start(100, 999); !errors.Is(err, util.ErrQuizNotFound) {
		t.Fatalf("missing quiz: got %v, want ErrQuizNotFound", err)
	}

	catalog.quizzes[1].GradeID = uintPtr(2)
	if _, _, err := svc.Start(100, 1); !errors.Is(err, util.ErrQuizNotEligible) {
		t.Fatalf("grade mismatch: got %v, want ErrQuizNotEligible", err)
	}

	// 不限学年的测验对所有已设学年的用户开放
	catalog.quizzes[1].GradeID = nil
	if _, _, err := svc.Start(100, 1); err != nil {
		t.Fatalf("open quiz should be eligible: %v", err)
	}
}

func TestStartLostRaceReturnsWinner(t *testing.T) {
	store, catalog, users := newFixture()

	// 胜者的会话已在库里，但 FindOpen 之后才可见：让 Create 直接报唯一冲突
	winner := &model.QuizSession{
		BaseModel: model.BaseModel{ID: 7},
		UserID:    100, QuizID: 1,
		OpenQuizID:    uintPtr(1),
		QuestionOrder: []uint{11, 12, 13},
		StartedAt:     time.Now(),
	}

	raced := &racingStore{fakeSessionStore: store, winner: winner}
	svc := newTestService(raced, catalog, users)

	id, created, err := svc.Start(100, 1)
	if err != nil {
		t.Fatalf("Start after losing race: %v", err)
	}
	if created {
		t.Fatal("loser must not report a created session")
	}
	if id != winner.ID {
		t.Fatalf("got session %d, want winner %d", id, winner.ID)
	}
}

// racingStore 第一次 FindOpen 返回未找到，Create 报冲突，之后才暴露胜者。
type racingStore struct {
	*fakeSessionStore
	winner   *model.QuizSession
	revealed bool
}

func (s *racingStore) FindOpen(userID, quizID uint) (*model.QuizSession, error) {
	if !s.revealed {
		s.revealed = true
		return nil, util.ErrSessionNotFound
	}
	return s.winner, nil
}

func (s *racingStore) Create(session *model.QuizSession) error {
	return util.ErrDuplicateSession
}

func TestSaveAnswerUpsertsWithoutValidation(t *testing.T) {
	store, catalog, users := newFixture()
	svc := newTestService(store, catalog, users)
	id, _, _ := svc.Start(100, 1)

	if err := svc.SaveAnswer(id, 100, 11, 112); err != nil {
		t.Fatalf("SaveAnswer: %v", err)
	}
	if err := svc.SaveAnswer(id, 100, 11, 111); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	if got := store.sessions[id].Answers[11]; got != 111 {
		t.Fatalf("answer for 11 = %d, want last write 111", got)
	}

	// 不做交叉校验：未知题目/选项照存，提交时计零分
	if err := svc.SaveAnswer(id, 100, 9999, 8888); err != nil {
		t.Fatalf("unknown ids should be accepted: %v", err)
	}

	if err := svc.SaveAnswer(id, 100, 0, 111); !errors.Is(err, util.ErrInvalidInput) {
		t.Fatalf("zero question id: got %v, want ErrInvalidInput", err)
	}
	if err := svc.SaveAnswer(id+100, 100, 11, 111); !errors.Is(err, util.ErrSessionNotFound) {
		t.Fatalf("missing session: got %v, want ErrSessionNotFound", err)
	}
	if err := svc.SaveAnswer(id, 999, 11, 111); !errors.Is(err, util.ErrSessionNotFound) {
		t.Fatalf("foreign session must look missing: got %v", err)
	}
}

func TestSubmitScoresOnce(t *testing.T) {
	store, catalog, users := newFixture()
	svc := newTestService(store, catalog, users)
	id, _, _ := svc.Start(100, 1)

	// 两对一错
	if err := svc.SaveAnswer(id, 100, 11, 111); err != nil {
		t.Fatal(err)
	}
	if err := svc.SaveAnswer(id, 100, 12, 121); err != nil {
		t.Fatal(err)
	}
	if err := svc.SaveAnswer(id, 100, 13, 132); err != nil {
		t.Fatal(err)
	}
	if err := svc.SaveAnswer(id, 100, 13, 0); err == nil {
		t.Fatal("zero choice id must be rejected")
	}

	session, err := svc.Submit(id, 100)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if session.Score == nil || *session.Score != 2 {
		t.Fatalf("score = %v, want 2", session.Score)
	}
	if !session.IsSubmitted || session.SubmittedAt == nil {
		t.Fatal("submit must set is_submitted and submitted_at together")
	}

	if _, err := svc.Submit(id, 100); !errors.Is(err, util.ErrAlreadySubmitted) {
		t.Fatalf("double submit: got %v, want ErrAlreadySubmitted", err)
	}
	if store.submitCalls != 1 {
		t.Fatalf("store.Submit called %d times, want 1 (scoring must not repeat)", store.submitCalls)
	}

	if err := svc.SaveAnswer(id, 100, 11, 112); !errors.Is(err, util.ErrAlreadySubmitted) {
		t.Fatalf("answer after submit: got %v, want ErrAlreadySubmitted", err)
	}
}

func TestSubmitSkipsUnresolvableAnswers(t *testing.T) {
	store, catalog, users := newFixture()
	svc := newTestService(store, catalog, users)
	id, _, _ := svc.Start(100, 1)

	if err := svc.SaveAnswer(id, 100, 9999, 8888); err != nil {
		t.Fatal(err)
	}
	if err := svc.SaveAnswer(id, 100, 11, 111); err != nil {
		t.Fatal(err)
	}

	session, err := svc.Submit(id, 100)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if *session.Score != 1 {
		t.Fatalf("score = %d, want 1 (unknown question ignored)", *session.Score)
	}
}

func TestSubmitEmptyAnswersScoresZero(t *testing.T) {
	store, catalog, users := newFixture()
	svc := newTestService(store, catalog, users)
	id, _, _ := svc.Start(100, 1)

	session, err := svc.Submit(id, 100)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if session.Score == nil || *session.Score != 0 {
		t.Fatalf("score = %v, want 0", session.Score)
	}
}

func TestDetailReplaysRecordedOrder(t *testing.T) {
	store, catalog, users := newFixture()
	svc := newTestService(store, catalog, users)
	id, _, _ := svc.Start(100, 1)

	session := store.sessions[id]
	detail, err := svc.Detail(id, 100)
	if err != nil {
		t.Fatalf("Detail: %v", err)
	}
	if len(detail.Questions) != len(session.QuestionOrder) {
		t.Fatalf("detail has %d questions, want %d", len(detail.Questions), len(session.QuestionOrder))
	}
	for i, view := range detail.Questions {
		if view.ID != session.QuestionOrder[i] {
			t.Fatalf("question %d: got id %d, want recorded %d", i, view.ID, session.QuestionOrder[i])
		}
		wantChoices := session.ChoiceOrder[view.ID]
		if len(view.Choices) != len(wantChoices) {
			t.Fatalf("question %d: %d choices, want %d", view.ID, len(view.Choices), len(wantChoices))
		}
		for j, cv := range view.Choices {
			if cv.ID != wantChoices[j] {
				t.Fatalf("question %d choice %d: got %d, want recorded %d", view.ID, j, cv.ID, wantChoices[j])
			}
		}
	}

	if _, err := svc.Detail(id, 999); !errors.Is(err, util.ErrSessionNotFound) {
		t.Fatalf("foreign detail: got %v, want ErrSessionNotFound", err)
	}
}

func TestQuestionsPaginatesOrderedSequence(t *testing.T) {
	store, catalog, users := newFixture()
	svc := newTestService(store, catalog, users)
	id, _, _ := svc.Start(100, 1)
	session := store.sessions[id]

	page1, total, err := svc.Questions(id, 100, 1, 2)
	if err != nil {
		t.Fatalf("Questions: %v", err)
	}
	if total != 3 || len(page1) != 2 {
		t.Fatalf("page 1: len=%d total=%d, want 2/3", len(page1), total)
	}
	page2, _, err := svc.Questions(id, 100, 2, 2)
	if err != nil {
		t.Fatalf("Questions page 2: %v", err)
	}
	if len(page2) != 1 {
		t.Fatalf("page 2: len=%d, want 1", len(page2))
	}
	if page1[0].ID != session.QuestionOrder[0] || page2[0].ID != session.QuestionOrder[2] {
		t.Fatal("pagination must walk the recorded order")
	}
}

func TestMyStatusFlagsSubmittedQuizzes(t *testing.T) {
	store, catalog, users := newFixture()
	catalog.quizzes[2] = &model.Quiz{
		BaseModel:    model.BaseModel{ID: 2},
		Title:        "공개 퀴즈",
		NumQuestions: 1,
	}
	svc := newTestService(store, catalog, users)

	id, _, _ := svc.Start(100, 1)
	if _, err := svc.Submit(id, 100); err != nil {
		t.Fatal(err)
	}

	list, total, err := svc.MyStatus(100, 1, util.DefaultPageSize)
	if err != nil {
		t.Fatalf("MyStatus: %v", err)
	}
	if total != 2 || len(list) != 2 {
		t.Fatalf("len=%d total=%d, want 2/2", len(list), total)
	}
	byQuiz := map[uint]bool{}
	for _, row := range list {
		byQuiz[row.ID] = row.IsSubmitted
	}
	if !byQuiz[1] {
		t.Fatal("quiz 1 should be flagged submitted")
	}
	if byQuiz[2] {
		t.Fatal("quiz 2 was never attempted")
	}
}

func TestMyStatusWithoutGradeIsEmpty(t *testing.T) {
	store, catalog, users := newFixture()
	svc := newTestService(store, catalog, users)

	list, total, err := svc.MyStatus(101, 1, util.DefaultPageSize)
	if err != nil {
		t.Fatalf("MyStatus: %v", err)
	}
	if total != 0 || len(list) != 0 {
		t.Fatalf("user without grade: len=%d total=%d, want empty", len(list), total)
	}
}

func TestSessionsByQuizOrderedByID(t *testing.T) {
	store, catalog, users := newFixture()
	users.users[102] = &model.User{BaseModel: model.BaseModel{ID: 102}, Role: model.Student, GradeID: uintPtr(1)}
	svc := newTestService(store, catalog, users)

	first, _, _ := svc.Start(100, 1)
	second, _, _ := svc.Start(102, 1)

	sessions, total, err := svc.SessionsByQuiz(1, 1, util.DefaultPageSize)
	if err != nil {
		t.Fatalf("SessionsByQuiz: %v", err)
	}
	if total != 2 {
		t.Fatalf("total = %d, want 2", total)
	}
	if sessions[0].ID != first || sessions[1].ID != second {
		t.Fatalf("order = [%d %d], want [%d %d]", sessions[0].ID, sessions[1].ID, first, second)
	}
}
