package model

import "time"

type PaymentKind string

const (
	PaymentKindPartial PaymentKind = "partial"
	PaymentKindFull    PaymentKind = "full"
)

type ProofStatus string

const (
	ProofPending  ProofStatus = "pending"
	ProofVerified ProofStatus = "verified"
	ProofRejected ProofStatus = "rejected"
)

// PaymentProof 学生提交的转账凭证，只追加不修改；
// PriorStatus 记录提交前的支付状态，驳回时按它回退。
type PaymentProof struct {
	UUIDBase
	EnrollmentID      uint          `gorm:"index;type:bigint unsigned" json:"enrollmentId"`
	Kind              PaymentKind   `gorm:"size:20;not null" json:"kind"`
	AccountHolderName string        `gorm:"size:100;not null" json:"accountHolderName"`
	BankName          string        `gorm:"size:100;not null" json:"bankName"`
	IFSCCode          string        `gorm:"size:20;not null" json:"ifscCode"`
	AccountNumber     string        `gorm:"size:30;not null" json:"accountNumber"`
	TransactionID     string        `gorm:"size:100;not null" json:"transactionId"`
	Amount            int           `gorm:"default:0" json:"amount"`
	ScreenshotURL     string        `gorm:"size:255" json:"screenshotUrl,omitempty"`
	Status            ProofStatus   `gorm:"size:20;default:'pending'" json:"status"`
	PriorStatus       PaymentStatus `gorm:"size:50" json:"-"`
	ReviewedBy        *uint         `gorm:"type:bigint unsigned" json:"reviewedBy,omitempty"`
	ReviewedAt        *time.Time    `json:"reviewedAt,omitempty"`
	RejectReason      string        `gorm:"size:255" json:"rejectReason,omitempty"`
}

func (PaymentProof) TableName() string {
	return "payment_proofs"
}
