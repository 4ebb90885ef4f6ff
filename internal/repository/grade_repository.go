package repository

import (
	"errors"

	"github.com/byounghoonpark/PBH-Quiz/internal/model"
	"github.com/byounghoonpark/PBH-Quiz/internal/util"

	"gorm.io/gorm"
)

type GradeRepository struct {
	DB *gorm.DB
}

func NewGradeRepository(db *gorm.DB) *GradeRepository {
	return &GradeRepository{DB: db}
}

func (r *GradeRepository) List() ([]model.Grade, error) {
	var grades []model.Grade
	err := r.DB.Order("id asc").Find(&grades).Error
	return grades, err
}

func (r *GradeRepository) FindByID(id uint) (*model.Grade, error) {
	var grade model.Grade
	err := r.DB.First(&grade, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrGradeNotFound
	}
	if err != nil {
		return nil, err
	}
	return &grade, nil
}
