package service

import (
	"certilearn_backend/internal/model"
	"certilearn_backend/internal/repository"
	"certilearn_backend/internal/util"
	"certilearn_backend/pkg/logger"
	"certilearn_backend/pkg/monitoring"
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type PaymentService struct {
	PaymentRepo    *repository.PaymentRepository
	EnrollmentRepo *repository.EnrollmentRepository
	CourseRepo     *repository.CourseRepository
	Storage        *StorageService
	CertSvc        *CertificateService
}

func NewPaymentService(paymentRepo *repository.PaymentRepository, enrollmentRepo *repository.EnrollmentRepository, courseRepo *repository.CourseRepository, storage *StorageService, certSvc *CertificateService) *PaymentService {
	return &PaymentService{
		PaymentRepo:    paymentRepo,
		EnrollmentRepo: enrollmentRepo,
		CourseRepo:     courseRepo,
		Storage:        storage,
		CertSvc:        certSvc,
	}
}

type ProofRequest struct {
	AccountHolderName string `form:"accountHolderName" json:"accountHolderName"`
	BankName          string `form:"bankName" json:"bankName"`
	IFSCCode          string `form:"ifscCode" json:"ifscCode"`
	AccountNumber     string `form:"accountNumber" json:"accountNumber"`
	TransactionID     string `form:"transactionId" json:"transactionId"`
	Amount            int    `form:"amount" json:"amount"`
}

// ValidateProofRequest 凭证字段校验：五个必填项全部非空，截图可选。
// 校验失败时不应发起任何网络/落库动作。
func ValidateProofRequest(req ProofRequest) error {
	missing := func(field string) error {
		return fmt.Errorf("%s is required", field)
	}
	if strings.TrimSpace(req.AccountHolderName) == "" {
		return missing("accountHolderName")
	}
	if strings.TrimSpace(req.BankName) == "" {
		return missing("bankName")
	}
	if strings.TrimSpace(req.IFSCCode) == "" {
		return missing("ifscCode")
	}
	if strings.TrimSpace(req.AccountNumber) == "" {
		return missing("accountNumber")
	}
	if strings.TrimSpace(req.TransactionID) == "" {
		return missing("transactionId")
	}
	return nil
}

// allowedTransition 部分支付只能从未支付发起，全额支付可以从未支付或已部分支付发起；
// 待核验状态下不允许再次提交
func allowedTransition(current model.PaymentStatus, kind model.PaymentKind) (model.PaymentStatus, bool) {
	if current.Pending() || current == model.PaymentFullyPaid {
		return "", false
	}
	switch kind {
	case model.PaymentKindPartial:
		if current == model.PaymentUnpaid {
			return model.PaymentPartialPending, true
		}
	case model.PaymentKindFull:
		if current == model.PaymentUnpaid || current == model.PaymentPartialPaid {
			return model.PaymentFullPending, true
		}
	}
	return "", false
}

// SubmitProof 提交转账凭证。成功后状态进入待核验；失败不改动任何本地状态。
func (s *PaymentService) SubmitProof(ctx context.Context, userID uint, courseSlug string, kind model.PaymentKind, req ProofRequest, screenshot *multipart.FileHeader) (*model.PaymentProof, error) {
	if err := ValidateProofRequest(req); err != nil {
		return nil, err
	}

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

	newStatus, ok := allowedTransition(enrollment.PaymentStatus, kind)
	if !ok {
		return nil, util.ErrPaymentStateConflict
	}

	screenshotURL := ""
	if screenshot != nil {
		url, err := s.uploadScreenshot(ctx, enrollment.ID, screenshot)
		if err != nil {
			return nil, err
		}
		screenshotURL = url
	}

	proof := &model.PaymentProof{
		EnrollmentID:      enrollment.ID,
		Kind:              kind,
		AccountHolderName: req.AccountHolderName,
		BankName:          req.BankName,
		IFSCCode:          req.IFSCCode,
		AccountNumber:     req.AccountNumber,
		TransactionID:     req.TransactionID,
		Amount:            req.Amount,
		ScreenshotURL:     screenshotURL,
		Status:            model.ProofPending,
		PriorStatus:       enrollment.PaymentStatus,
	}

	if err := s.PaymentRepo.CreateProofWithStatus(proof, enrollment, newStatus); err != nil {
		return nil, err
	}

	monitoring.PaymentProofCounter.WithLabelValues(string(kind), "submitted").Inc()

	_ = s.EnrollmentRepo.CreateActivity(&model.ActivityLog{
		UserID:       userID,
		EnrollmentID: enrollment.ID,
		Activity:     "payment_proof_submitted",
		Content:      "转账凭证提交: " + req.TransactionID,
	})

	return proof, nil
}

func (s *PaymentService) uploadScreenshot(ctx context.Context, enrollmentID uint, file *multipart.FileHeader) (string, error) {
	ext := strings.ToLower(filepath.Ext(file.Filename))
	allowed := false
	for _, e := range util.AllowedScreenshotExtensions {
		if e == ext {
			allowed = true
			break
		}
	}
	if !allowed {
		return "", fmt.Errorf("unsupported screenshot type: %s", ext)
	}

	src, err := file.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	filename := fmt.Sprintf("payments/%d/%s%s", enrollmentID, time.Now().Format("20060102150405"), ext)
	return s.Storage.Upload(ctx, filename, src, file.Size, file.Header.Get("Content-Type"))
}

// VerifyProof 管理员核验通过。部分支付进入 PARTIAL_PAID 并扣减剩余金额，
// 全额支付进入 FULLY_PAID 并清零；满足证书条件时顺带签发证书。
func (s *PaymentService) VerifyProof(adminID uint, proofID string) (*model.PaymentProof, error) {
	proof, err := s.PaymentRepo.FindProofByID(proofID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrProofNotPending
		}
		return nil, err
	}
	if proof.Status != model.ProofPending {
		return nil, util.ErrProofNotPending
	}

	enrollment, err := s.EnrollmentRepo.FindByID(proof.EnrollmentID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	proof.Status = model.ProofVerified
	proof.ReviewedBy = &adminID
	proof.ReviewedAt = &now

	switch proof.Kind {
	case model.PaymentKindPartial:
		enrollment.PaymentStatus = model.PaymentPartialPaid
		enrollment.AmountRemaining -= proof.Amount
		if enrollment.AmountRemaining < 0 {
			enrollment.AmountRemaining = 0
		}
	case model.PaymentKindFull:
		enrollment.PaymentStatus = model.PaymentFullyPaid
		enrollment.AmountRemaining = 0
	}

	if err := s.PaymentRepo.ReviewProof(proof, enrollment); err != nil {
		return nil, err
	}

	monitoring.PaymentProofCounter.WithLabelValues(string(proof.Kind), "verified").Inc()

	if enrollment.CertificateEligible() {
		if _, err := s.CertSvc.IssueForEnrollment(enrollment); err != nil {
			logger.Log.Error("certificate issue failed after payment verification",
				zap.Uint("enrollmentId", enrollment.ID), zap.Error(err))
		}
	}

	return proof, nil
}

// RejectProof 管理员驳回：凭证标记 rejected，报名状态回退到提交前的状态。
// UI 侧没有主动触发入口，学生端通过重新拉取观察到回退。
func (s *PaymentService) RejectProof(adminID uint, proofID, reason string) (*model.PaymentProof, error) {
	proof, err := s.PaymentRepo.FindProofByID(proofID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrProofNotPending
		}
		return nil, err
	}
	if proof.Status != model.ProofPending {
		return nil, util.ErrProofNotPending
	}

	enrollment, err := s.EnrollmentRepo.FindByID(proof.EnrollmentID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	proof.Status = model.ProofRejected
	proof.ReviewedBy = &adminID
	proof.ReviewedAt = &now
	proof.RejectReason = reason

	enrollment.PaymentStatus = proof.PriorStatus

	if err := s.PaymentRepo.ReviewProof(proof, enrollment); err != nil {
		return nil, err
	}

	monitoring.PaymentProofCounter.WithLabelValues(string(proof.Kind), "rejected").Inc()

	return proof, nil
}

func (s *PaymentService) ListPending(page, limit int) ([]model.PaymentProof, int64, error) {
	return s.PaymentRepo.ListPending(page, limit)
}

// ListMine 学生查看自己某门课的凭证提交历史
func (s *PaymentService) ListMine(userID uint, courseSlug string) ([]model.PaymentProof, error) {
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
	return s.PaymentRepo.ListByEnrollment(enrollment.ID)
}
