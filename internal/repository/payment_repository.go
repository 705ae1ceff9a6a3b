package repository

import (
	"certilearn_backend/internal/model"

	"gorm.io/gorm"
)

type PaymentRepository struct {
	DB *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{DB: db}
}

// CreateProofWithStatus 凭证落库和报名状态翻转在同一事务里，
// 避免出现凭证已存在但状态未进入待核验的中间态
func (r *PaymentRepository) CreateProofWithStatus(proof *model.PaymentProof, enrollment *model.Enrollment, newStatus model.PaymentStatus) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(proof).Error; err != nil {
			return err
		}
		return tx.Model(enrollment).Update("payment_status", newStatus).Error
	})
}

func (r *PaymentRepository) FindProofByID(id string) (*model.PaymentProof, error) {
	var proof model.PaymentProof
	if err := r.DB.Where("id = ?", id).First(&proof).Error; err != nil {
		return nil, err
	}
	return &proof, nil
}

func (r *PaymentRepository) ListPending(page, limit int) ([]model.PaymentProof, int64, error) {
	var proofs []model.PaymentProof
	var total int64

	q := r.DB.Model(&model.PaymentProof{}).Where("status = ?", model.ProofPending)
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := q.Offset((page - 1) * limit).Limit(limit).
		Order("created_at ASC").Find(&proofs).Error
	return proofs, total, err
}

func (r *PaymentRepository) ListByEnrollment(enrollmentID uint) ([]model.PaymentProof, error) {
	var proofs []model.PaymentProof
	err := r.DB.Where("enrollment_id = ?", enrollmentID).
		Order("created_at DESC").Find(&proofs).Error
	return proofs, err
}

// ReviewProof 核验/驳回的状态落库走同一事务
func (r *PaymentRepository) ReviewProof(proof *model.PaymentProof, enrollment *model.Enrollment) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(proof).Error; err != nil {
			return err
		}
		return tx.Model(enrollment).Updates(map[string]interface{}{
			"payment_status":   enrollment.PaymentStatus,
			"amount_remaining": enrollment.AmountRemaining,
		}).Error
	})
}
