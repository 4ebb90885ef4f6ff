package controller

import (
	"errors"

	"github.com/byounghoonpark/PBH-Quiz/internal/service"
	"github.com/byounghoonpark/PBH-Quiz/internal/util"

	"github.com/gin-gonic/gin"
)

type SessionController struct {
	SessionService *service.SessionService
}

func NewSessionController(sessionService *service.SessionService) *SessionController {
	return &SessionController{SessionService: sessionService}
}

// Start godoc
// @Summary 开始应试
// @Description 已有未提交会话时返回其 id（200）；否则创建新会话并固定题目/选项排列（201）
// @Tags 应试
// @Produce  json
// @Security BearerAuth
// @Param   quiz_id path int true "测验 ID"
// @Success 200 {object} util.Response{data=object} "已有会话"
// @Success 201 {object} util.Response{data=object} "新建会话"
// @Failure 400 {object} util.Response "未设置学年或学年不符"
// @Failure 404 {object} util.Response "测验不存在"
// @Router /api/quizzes/{quiz_id}/start [post]
func (c *SessionController) Start(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	quizID := util.MustParseUint(ctx.Param("quiz_id"))
	if quizID == 0 {
		util.BadRequest(ctx, "invalid quiz id")
		return
	}

	sessionID, created, err := c.SessionService.Start(claims.UserID, quizID)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrQuizNotFound):
			util.NotFound(ctx)
		case errors.Is(err, util.ErrProfileIncomplete):
			util.BadRequest(ctx, "학년이 설정되지 않았습니다") // 需先设置学年
		case errors.Is(err, util.ErrQuizNotEligible):
			util.BadRequest(ctx, "해당 학년의 퀴즈가 아닙니다")
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}

	if created {
		util.Created(ctx, gin.H{"session_id": sessionID})
		return
	}
	util.Success(ctx, gin.H{"session_id": sessionID})
}

// SaveAnswerRequest 暂存答案请求
// swagger:model SaveAnswerRequest
type SaveAnswerRequest struct {
	QuestionID uint `json:"question_id" binding:"required"`
	ChoiceID   uint `json:"choice_id" binding:"required"`
}

// SaveAnswer godoc
// @Summary 暂存单题答案
// @Description 同题重复保存为覆盖；不校验题目/选项是否属于本会话
// @Tags 应试
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   session_id path int true "会话 ID"
// @Param   body body SaveAnswerRequest true "答案"
// @Success 200 {object} util.Response{data=object}
// @Failure 400 {object} util.Response "参数错误或已提交"
// @Failure 404 {object} util.Response "会话不存在"
// @Router /api/sessions/{session_id}/answers [patch]
func (c *SessionController) SaveAnswer(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	sessionID := util.MustParseUint(ctx.Param("session_id"))

	var req SaveAnswerRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	err := c.SessionService.SaveAnswer(sessionID, claims.UserID, req.QuestionID, req.ChoiceID)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrSessionNotFound):
			util.NotFound(ctx)
		case errors.Is(err, util.ErrAlreadySubmitted):
			util.BadRequest(ctx, "이미 제출된 세션입니다")
		case errors.Is(err, util.ErrInvalidInput):
			util.BadRequest(ctx, err.Error())
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, gin.H{"status": "saved"})
}

// Submit godoc
// @Summary 提交并计分
// @Description 一次性计分并写入 score/is_submitted/submitted_at；重复提交报错
// @Tags 应试
// @Produce  json
// @Security BearerAuth
// @Param   session_id path int true "会话 ID"
// @Success 200 {object} util.Response{data=object}
// @Failure 400 {object} util.Response "已提交"
// @Failure 404 {object} util.Response "会话不存在"
// @Router /api/sessions/{session_id}/submit [post]
func (c *SessionController) Submit(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	sessionID := util.MustParseUint(ctx.Param("session_id"))

	session, err := c.SessionService.Submit(sessionID, claims.UserID)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrSessionNotFound):
			util.NotFound(ctx)
		case errors.Is(err, util.ErrAlreadySubmitted):
			util.BadRequest(ctx, "이미 제출된 세션입니다")
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, gin.H{
		"session_id":   session.ID,
		"score":        session.Score,
		"submitted_at": session.SubmittedAt,
	})
}

// Detail godoc
// @Summary 会话详情
// @Description 题目与选项按应试者自己的随机排列返回，不含正确答案标记
// @Tags 应试
// @Produce  json
// @Security BearerAuth
// @Param   session_id path int true "会话 ID"
// @Success 200 {object} util.Response{data=service.SessionDetail}
// @Failure 404 {object} util.Response "会话不存在"
// @Router /api/sessions/{session_id} [get]
func (c *SessionController) Detail(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	sessionID := util.MustParseUint(ctx.Param("session_id"))

	detail, err := c.SessionService.Detail(sessionID, claims.UserID)
	if err != nil {
		if errors.Is(err, util.ErrSessionNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, detail)
}

// Questions godoc
// @Summary 会话题目（分页）
// @Description 分页作用在记录的排列之上，顺序跨请求稳定
// @Tags 应试
// @Produce  json
// @Security BearerAuth
// @Param   session_id path int true "会话 ID"
// @Param   page query int false "页码"
// @Param   page_size query int false "每页数量"
// @Success 200 {object} util.Response{data=util.PageResponse}
// @Failure 404 {object} util.Response "会话不存在"
// @Router /api/sessions/{session_id}/questions [get]
func (c *SessionController) Questions(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	sessionID := util.MustParseUint(ctx.Param("session_id"))
	page, pageSize := util.PageParams(ctx)

	questions, total, err := c.SessionService.Questions(sessionID, claims.UserID, page, pageSize)
	if err != nil {
		if errors.Is(err, util.ErrSessionNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, util.PageResponse{
		List:     questions,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	})
}

// MyList godoc
// @Summary 我的测验列表
// @Description 对当前用户可见的测验及是否已提交；未设学年时为空列表
// @Tags 应试
// @Produce  json
// @Security BearerAuth
// @Param   page query int false "页码"
// @Param   page_size query int false "每页数量"
// @Success 200 {object} util.Response{data=util.PageResponse}
// @Router /api/my_list [get]
func (c *SessionController) MyList(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	page, pageSize := util.PageParams(ctx)

	list, total, err := c.SessionService.MyStatus(claims.UserID, page, pageSize)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, util.PageResponse{
		List:     list,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	})
}

// SessionsByQuiz godoc
// @Summary 某测验的全部会话（管理端）
// @Description 含原始 answers 与 score，按会话 id 升序
// @Tags 管理
// @Produce  json
// @Security BearerAuth
// @Param   quiz_id path int true "测验 ID"
// @Param   page query int false "页码"
// @Param   page_size query int false "每页数量"
// @Success 200 {object} util.Response{data=util.PageResponse}
// @Failure 403 {object} util.Response "非管理员"
// @Router /api/admin/quizzes/{quiz_id}/sessions [get]
func (c *SessionController) SessionsByQuiz(ctx *gin.Context) {
	quizID := util.MustParseUint(ctx.Param("quiz_id"))
	page, pageSize := util.PageParams(ctx)

	sessions, total, err := c.SessionService.SessionsByQuiz(quizID, page, pageSize)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, util.PageResponse{
		List:     sessions,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	})
}
