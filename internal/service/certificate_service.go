package service

import (
	"coder_edu_progress/internal/model"
	"coder_edu_progress/internal/util"
	"coder_edu_progress/pkg/logger"
	"coder_edu_progress/pkg/monitoring"
	"coder_edu_progress/pkg/tracing"
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

type CertificateStore interface {
	FindByUserAndCourse(ctx context.Context, userID, courseID uint) (*model.Certificate, error)
	FindByNumber(ctx context.Context, number string) (*model.Certificate, error)
	ListByUser(ctx context.Context, userID uint) ([]model.Certificate, error)
	Create(ctx context.Context, cert *model.Certificate) error
}

type CourseReader interface {
	FindCourse(ctx context.Context, courseID uint) (*model.Course, error)
	CountLessons(ctx context.Context, courseID uint) (int, error)
}

type CourseProgressReader interface {
	CountCompletedInCourse(ctx context.Context, userID, courseID uint) (int, error)
}

type GradeReader interface {
	PassedPercentagesForCourse(ctx context.Context, userID, courseID uint) ([]int, error)
}

const defaultCertificateAttempts = 5

type CertificateService struct {
	Certs       CertificateStore
	Courses     CourseReader
	Progress    CourseProgressReader
	Grades      GradeReader
	Notifier    Notifier
	MaxAttempts int

	newNumber func(time.Time) string
	now       func() time.Time
}

func NewCertificateService(
	certs CertificateStore,
	courses CourseReader,
	progress CourseProgressReader,
	grades GradeReader,
	notifier Notifier,
	maxAttempts int,
) *CertificateService {
	if maxAttempts <= 0 {
		maxAttempts = defaultCertificateAttempts
	}
	return &CertificateService{
		Certs:       certs,
		Courses:     courses,
		Progress:    progress,
		Grades:      grades,
		Notifier:    notifier,
		MaxAttempts: maxAttempts,
		newNumber:   GenerateCertificateNumber,
		now:         time.Now,
	}
}

// GenerateCertificateNumber 由纳秒时间戳和随机后缀组成，例如 CERT-LZ3K9Q0W8H2A-1F0C9A7B
func GenerateCertificateNumber(at time.Time) string {
	stamp := strings.ToUpper(strconv.FormatInt(at.UnixNano(), 36))
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("CERT-%s-%s", stamp, suffix)
}

// CheckAndIssue 在用户完成课程全部课时后签发证书。
// 尚不满足条件时返回 (nil, nil)；已有证书时原样返回。
func (s *CertificateService) CheckAndIssue(ctx context.Context, userID, courseID uint) (*model.Certificate, error) {
	ctx, span := tracing.Start(ctx, "certificates.check_and_issue", map[string]uint{
		"user.id":   userID,
		"course.id": courseID,
	})
	defer span.End()

	existing, err := s.Certs.FindByUserAndCourse(ctx, userID, courseID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, util.ErrCertificateNotFound) {
		return nil, err
	}

	course, err := s.Courses.FindCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if !course.IsPublished {
		return nil, nil
	}

	total, err := s.Courses.CountLessons(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if total == 0 {
		return nil, nil
	}

	completed, err := s.Progress.CountCompletedInCourse(ctx, userID, courseID)
	if err != nil {
		return nil, err
	}
	if completed < total {
		return nil, nil
	}

	grade, err := s.grade(ctx, userID, courseID)
	if err != nil {
		return nil, err
	}

	cert, err := s.insert(ctx, userID, courseID, grade)
	if err != nil {
		return nil, tracing.Fail(span, err)
	}
	span.SetAttributes(attribute.String("certificate.number", cert.CertificateNumber))
	return cert, nil
}

// grade 取课程内所有通过测验百分比的四舍五入平均值，没有通过记录时为 nil
func (s *CertificateService) grade(ctx context.Context, userID, courseID uint) (*int, error) {
	percentages, err := s.Grades.PassedPercentagesForCourse(ctx, userID, courseID)
	if err != nil {
		return nil, err
	}
	if len(percentages) == 0 {
		return nil, nil
	}

	sum := 0
	for _, p := range percentages {
		sum += p
	}
	avg := int(math.Round(float64(sum) / float64(len(percentages))))
	return &avg, nil
}

func (s *CertificateService) insert(ctx context.Context, userID, courseID uint, grade *int) (*model.Certificate, error) {
	completedAt := s.now()

	for attempt := 1; attempt <= s.MaxAttempts; attempt++ {
		cert := &model.Certificate{
			UserID:            userID,
			CourseID:          courseID,
			CertificateNumber: s.newNumber(completedAt),
			CompletedAt:       completedAt,
			Grade:             grade,
		}

		err := s.Certs.Create(ctx, cert)
		switch {
		case err == nil:
			monitoring.CertificatesIssued.Inc()
			logger.Log.Info("certificate issued",
				zap.Uint("user_id", userID),
				zap.Uint("course_id", courseID),
				zap.String("number", cert.CertificateNumber),
			)
			s.notifyIssued(ctx, cert)
			return cert, nil
		case errors.Is(err, util.ErrCertificateExists):
			// 并发签发已有胜者，返回已存在的证书
			return s.Certs.FindByUserAndCourse(ctx, userID, courseID)
		case errors.Is(err, util.ErrCertificateNumberTaken):
			logger.Log.Warn("certificate number collision, retrying",
				zap.String("number", cert.CertificateNumber),
				zap.Int("attempt", attempt),
			)
		default:
			return nil, err
		}
	}

	return nil, fmt.Errorf("%w: gave up after %d attempts", util.ErrCertificateNumberTaken, s.MaxAttempts)
}

func (s *CertificateService) notifyIssued(ctx context.Context, cert *model.Certificate) {
	if s.Notifier == nil {
		return
	}
	data := map[string]interface{}{
		"certificateId":     cert.ID,
		"courseId":          cert.CourseID,
		"certificateNumber": cert.CertificateNumber,
	}
	if cert.Grade != nil {
		data["grade"] = *cert.Grade
	}

	n := &model.Notification{
		UserID:  cert.UserID,
		Type:    model.NotificationCertificateIssued,
		Title:   "获得课程证书",
		Message: fmt.Sprintf("你已完成课程全部课时，证书编号 %s", cert.CertificateNumber),
		Data:    data,
	}
	if err := s.Notifier.Notify(ctx, n); err != nil {
		monitoring.SideEffectFailures.WithLabelValues("certificate_notification").Inc()
		logger.Log.Error("certificate notification failed",
			zap.Uint("user_id", cert.UserID),
			zap.String("number", cert.CertificateNumber),
			zap.Error(err),
		)
	}
}

func (s *CertificateService) ListForUser(ctx context.Context, userID uint) ([]model.Certificate, error) {
	return s.Certs.ListByUser(ctx, userID)
}

func (s *CertificateService) FindByNumber(ctx context.Context, number string) (*model.Certificate, error) {
	number = strings.TrimSpace(number)
	if number == "" {
		return nil, util.ErrCertificateNotFound
	}
	return s.Certs.FindByNumber(ctx, number)
}
