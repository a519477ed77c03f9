package util

import "errors"

// 输入错误：评分前同步拒绝，直接返回给调用方
var (
	ErrInvalidID           = errors.New("invalid identifier")
	ErrQuizNotFound        = errors.New("quiz not found")
	ErrLessonNotFound      = errors.New("lesson not found")
	ErrCourseNotFound      = errors.New("course not found")
	ErrCertificateNotFound = errors.New("certificate not found")
	ErrAnswerCountMismatch = errors.New("answer count does not match question count")
	ErrExerciseNotFound    = errors.New("exercise not found")
	ErrExerciseNotPractice = errors.New("exercise does not require a submission")
)

// 持久化冲突：在仓储/服务内部消化，不向外暴露
var (
	ErrCertificateNumberTaken = errors.New("certificate number already in use")
	ErrCertificateExists      = errors.New("certificate already issued for course")
)

// ErrAggregateComputation 标记成就规则数据错误（如阈值为 0），只记录日志
var ErrAggregateComputation = errors.New("malformed achievement requirement")
