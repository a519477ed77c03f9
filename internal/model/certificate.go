package model

import "time"

// Certificate 每个 (用户, 课程) 只签发一次，创建后不再修改
type Certificate struct {
	BaseModel
	UserID            uint      `gorm:"uniqueIndex:idx_certificate_user_course;type:bigint unsigned;not null" json:"userId"`
	CourseID          uint      `gorm:"uniqueIndex:idx_certificate_user_course;type:bigint unsigned;not null" json:"courseId"`
	CertificateNumber string    `gorm:"size:64;uniqueIndex;not null" json:"certificateNumber"`
	CompletedAt       time.Time `json:"completedAt"`
	Grade             *int      `json:"grade,omitempty"`
}

func (Certificate) TableName() string {
	return "certificates"
}
