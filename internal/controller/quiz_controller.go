package controller

import (
	"errors"

	"github.com/byounghoonpark/PBH-Quiz/internal/service"
	"github.com/byounghoonpark/PBH-Quiz/internal/util"

	"github.com/gin-gonic/gin"
)

type QuizController struct {
	QuizService *service.QuizService
}

func NewQuizController(quizService *service.QuizService) *QuizController {
	return &QuizController{QuizService: quizService}
}

// Create godoc
// @Summary 创建测验
// @Description 连同题目/选项一并创建；每题至少 3 个选项且恰好一个正确
// @Tags 管理
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   body body service.QuizInput true "测验内容"
// @Success 201 {object} util.Response{data=model.Quiz}
// @Failure 400 {object} util.Response "校验失败"
// @Failure 403 {object} util.Response "非管理员"
// @Router /api/admin/quizzes [post]
func (c *QuizController) Create(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)

	var input service.QuizInput
	if err := ctx.ShouldBindJSON(&input); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	quiz, err := c.QuizService.Create(&input, claims.UserID)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrInvalidInput):
			util.BadRequest(ctx, err.Error())
		case errors.Is(err, util.ErrGradeNotFound):
			util.BadRequest(ctx, "学年不存在")
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Created(ctx, quiz)
}

// List godoc
// @Summary 测验列表（管理端）
// @Tags 管理
// @Produce  json
// @Security BearerAuth
// @Param   page query int false "页码"
// @Param   page_size query int false "每页数量"
// @Success 200 {object} util.Response{data=util.PageResponse}
// @Router /api/admin/quizzes [get]
func (c *QuizController) List(ctx *gin.Context) {
	page, pageSize := util.PageParams(ctx)

	quizzes, total, err := c.QuizService.List(page, pageSize)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, util.PageResponse{
		List:     quizzes,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	})
}

// Get godoc
// @Summary 测验详情（管理端）
// @Description 含题目与选项（含 is_correct），按 id 升序
// @Tags 管理
// @Produce  json
// @Security BearerAuth
// @Param   quiz_id path int true "测验 ID"
// @Success 200 {object} util.Response{data=model.Quiz}
// @Failure 404 {object} util.Response "测验不存在"
// @Router /api/admin/quizzes/{quiz_id} [get]
func (c *QuizController) Get(ctx *gin.Context) {
	quizID := util.MustParseUint(ctx.Param("quiz_id"))

	quiz, err := c.QuizService.Get(quizID)
	if err != nil {
		if errors.Is(err, util.ErrQuizNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, quiz)
}

// Update godoc
// @Summary 更新测验元信息
// @Description 只更新标题/描述/出题数/洗牌开关/学年；题目调整走删除重建
// @Tags 管理
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   quiz_id path int true "测验 ID"
// @Param   body body service.QuizUpdateInput true "更新内容"
// @Success 200 {object} util.Response{data=model.Quiz}
// @Failure 404 {object} util.Response "测验不存在"
// @Router /api/admin/quizzes/{quiz_id} [put]
func (c *QuizController) Update(ctx *gin.Context) {
	quizID := util.MustParseUint(ctx.Param("quiz_id"))

	var input service.QuizUpdateInput
	if err := ctx.ShouldBindJSON(&input); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	quiz, err := c.QuizService.Update(quizID, &input)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrQuizNotFound):
			util.NotFound(ctx)
		case errors.Is(err, util.ErrInvalidInput):
			util.BadRequest(ctx, err.Error())
		case errors.Is(err, util.ErrGradeNotFound):
			util.BadRequest(ctx, "学年不存在")
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, quiz)
}

// Delete godoc
// @Summary 删除测验
// @Description 级联删除题目与选项
// @Tags 管理
// @Produce  json
// @Security BearerAuth
// @Param   quiz_id path int true "测验 ID"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response "测验不存在"
// @Router /api/admin/quizzes/{quiz_id} [delete]
func (c *QuizController) Delete(ctx *gin.Context) {
	quizID := util.MustParseUint(ctx.Param("quiz_id"))

	if err := c.QuizService.Delete(quizID); err != nil {
		if errors.Is(err, util.ErrQuizNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, gin.H{"status": "deleted"})
}
