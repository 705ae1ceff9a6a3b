package service

import (
	"certilearn_backend/internal/model"
	"certilearn_backend/internal/repository"
	"certilearn_backend/internal/util"
	"certilearn_backend/pkg/logger"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type CertificateService struct {
	CertRepo       *repository.CertificateRepository
	EnrollmentRepo *repository.EnrollmentRepository
	CourseRepo     *repository.CourseRepository
}

func NewCertificateService(certRepo *repository.CertificateRepository, enrollmentRepo *repository.EnrollmentRepository, courseRepo *repository.CourseRepository) *CertificateService {
	return &CertificateService{CertRepo: certRepo, EnrollmentRepo: enrollmentRepo, CourseRepo: courseRepo}
}

// 证书查询的结果分支。未满足条件不是错误，调用方必须先看 status 再决定渲染
const (
	CertStatusIssued              = "issued"
	CertStatusPaymentRequired     = "payment_required"
	CertStatusPendingVerification = "pending_verification"
	CertStatusCourseIncomplete    = "course_incomplete"
)

type CertificateStatus struct {
	Status      string             `json:"status"`
	Certificate *model.Certificate `json:"certificate,omitempty"`
}

// Status 查询证书。支付未完成/核验中/课程未完成都返回对应分支而不是错误；
// 只有真实的存取失败才返回 error。
func (s *CertificateService) Status(userID uint, courseSlug string) (*CertificateStatus, error) {
	course, err := s.CourseRepo.FindBySlug(courseSlug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrCourseNotFound
		}
		return nil, err
	}
	enrollment, err := s.EnrollmentRepo.FindByUserAndCourse(userID, course.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrEnrollmentNotFound
		}
		return nil, err
	}

	// 先按支付状态分支，证书缺失不代表出错
	switch {
	case enrollment.PaymentStatus.Pending():
		return &CertificateStatus{Status: CertStatusPendingVerification}, nil
	case enrollment.PaymentStatus != model.PaymentFullyPaid:
		return &CertificateStatus{Status: CertStatusPaymentRequired}, nil
	}

	if !enrollment.AllModulesCompleted() || !enrollment.CapstoneCompleted {
		return &CertificateStatus{Status: CertStatusCourseIncomplete}, nil
	}

	cert, err := s.CertRepo.FindByEnrollment(enrollment.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// 条件齐备但证书还未生成，补发一次
			cert, err = s.IssueForEnrollment(enrollment)
			if err != nil {
				return nil, err
			}
			return &CertificateStatus{Status: CertStatusIssued, Certificate: cert}, nil
		}
		return nil, err
	}

	return &CertificateStatus{Status: CertStatusIssued, Certificate: cert}, nil
}

// IssueForEnrollment 签发证书，按报名唯一，重复调用返回已有证书
func (s *CertificateService) IssueForEnrollment(enrollment *model.Enrollment) (*model.Certificate, error) {
	if !enrollment.CertificateEligible() {
		return nil, util.ErrCertificateNotEligible
	}

	if existing, err := s.CertRepo.FindByEnrollment(enrollment.ID); err == nil {
		return existing, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	cert := &model.Certificate{
		EnrollmentID: enrollment.ID,
		UserID:       enrollment.UserID,
		CourseID:     enrollment.CourseID,
		SerialNo:     fmt.Sprintf("CERT-%d-%s", enrollment.CourseID, model.GenerateUUID()[:8]),
		IssuedAt:     time.Now(),
	}

	if err := s.CertRepo.Create(cert); err != nil {
		return nil, err
	}

	logger.Log.Info("certificate issued",
		zap.Uint("enrollmentId", enrollment.ID),
		zap.String("serialNo", cert.SerialNo))

	return cert, nil
}

func (s *CertificateService) ListMine(userID uint) ([]model.Certificate, error) {
	return s.CertRepo.ListByUser(userID)
}
