package model

type UserRole string

const (
	Student UserRole = "student"
	Admin   UserRole = "admin"
)

// Grade 学年 (school grade). Quizzes may be restricted to one grade;
// users carry at most one.
// swagger:model Grade
type Grade struct {
	BaseModel
	Name string `gorm:"size:20;unique;not null" json:"name"`
}

func (Grade) TableName() string {
	return "grades"
}

// swagger:model User
type User struct {
	BaseModel
	Name     string   `gorm:"size:100;not null" json:"name"`
	Email    string   `gorm:"size:100;unique;not null" json:"email"`
	Password string   `gorm:"size:100;not null" json:"-"`
	Role     UserRole `gorm:"type:enum('student','admin');default:'student'" json:"role"`
	GradeID  *uint    `gorm:"type:bigint unsigned" json:"gradeId,omitempty"`
	Grade    *Grade   `gorm:"foreignKey:GradeID" json:"grade,omitempty"`
}

func (User) TableName() string {
	return "users"
}
