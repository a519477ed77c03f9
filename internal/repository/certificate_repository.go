package repository

import (
	"coder_edu_progress/internal/model"
	"coder_edu_progress/internal/util"
	"context"
	"errors"

	"gorm.io/gorm"
)

type CertificateRepository struct {
	DB *gorm.DB
}

func NewCertificateRepository(db *gorm.DB) *CertificateRepository {
	return &CertificateRepository{DB: db}
}

func (r *CertificateRepository) FindByUserAndCourse(ctx context.Context, userID, courseID uint) (*model.Certificate, error) {
	var cert model.Certificate
	err := r.DB.WithContext(ctx).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		First(&cert).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrCertificateNotFound
	}
	if err != nil {
		return nil, err
	}
	return &cert, nil
}

func (r *CertificateRepository) FindByNumber(ctx context.Context, number string) (*model.Certificate, error) {
	var cert model.Certificate
	err := r.DB.WithContext(ctx).Where("certificate_number = ?", number).First(&cert).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrCertificateNotFound
	}
	if err != nil {
		return nil, err
	}
	return &cert, nil
}

func (r *CertificateRepository) ListByUser(ctx context.Context, userID uint) ([]model.Certificate, error) {
	var certs []model.Certificate
	err := r.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("completed_at desc").
		Find(&certs).Error
	if err != nil {
		return nil, err
	}
	return certs, nil
}

// Create 插入证书。违反唯一约束时区分两种冲突：
// 该用户已有本课程证书返回 ErrCertificateExists，否则视为编号碰撞返回 ErrCertificateNumberTaken。
func (r *CertificateRepository) Create(ctx context.Context, cert *model.Certificate) error {
	err := r.DB.WithContext(ctx).Create(cert).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		return err
	}

	if _, findErr := r.FindByUserAndCourse(ctx, cert.UserID, cert.CourseID); findErr == nil {
		return util.ErrCertificateExists
	} else if !errors.Is(findErr, util.ErrCertificateNotFound) {
		return findErr
	}
	return util.ErrCertificateNumberTaken
}
