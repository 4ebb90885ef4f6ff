package service

import (
	"time"

	"github.com/byounghoonpark/PBH-Quiz/internal/model"
	"github.com/byounghoonpark/PBH-Quiz/internal/repository"
	"github.com/byounghoonpark/PBH-Quiz/internal/util"

	"golang.org/x/crypto/bcrypt"
)

type AuthService struct {
	Users  *repository.UserRepository
	Grades *repository.GradeRepository

	jwtSecret string
	jwtExpire time.Duration
}

func NewAuthService(users *repository.UserRepository, grades *repository.GradeRepository, jwtSecret string, jwtExpire time.Duration) *AuthService {
	return &AuthService{
		Users:     users,
		Grades:    grades,
		jwtSecret: jwtSecret,
		jwtExpire: jwtExpire,
	}
}

type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	GradeID  *uint  `json:"gradeId"`
}

// Register 创建学生账号。学年可以先不填，之后通过资料接口补齐；
// 未补齐前无法开始任何测验。
func (s *AuthService) Register(req *RegisterRequest) (*model.User, error) {
	if req.GradeID != nil {
		if _, err := s.Grades.FindByID(*req.GradeID); err != nil {
			return nil, err
		}
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Name:     req.Name,
		Email:    req.Email,
		Password: string(hashed),
		Role:     model.Student,
		GradeID:  req.GradeID,
	}
	if err := s.Users.Create(user); err != nil {
		return nil, err
	}
	return user, nil
}

// Login 校验凭据并签发 JWT。邮箱不存在与密码错误返回同一个错误，
// 不区分两种失败。
func (s *AuthService) Login(email, password string) (string, *model.User, error) {
	user, err := s.Users.FindByEmail(email)
	if err != nil {
		return "", nil, util.ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return "", nil, util.ErrInvalidCredentials
	}

	token, err := util.GenerateJWT(user, s.jwtSecret, s.jwtExpire)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

func (s *AuthService) CurrentUser(userID uint) (*model.User, error) {
	return s.Users.FindByID(userID)
}

// UpdateGrade 设置当前用户的学年；gradeID 必须存在。
func (s *AuthService) UpdateGrade(userID, gradeID uint) (*model.User, error) {
	if _, err := s.Grades.FindByID(gradeID); err != nil {
		return nil, err
	}
	if err := s.Users.UpdateGrade(userID, &gradeID); err != nil {
		return nil, err
	}
	return s.Users.FindByID(userID)
}

func (s *AuthService) ListGrades() ([]model.Grade, error) {
	return s.Grades.List()
}
