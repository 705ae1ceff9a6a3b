package model

import (
	"sort"
	"time"
)

type PaymentStatus string

const (
	PaymentUnpaid         PaymentStatus = "UNPAID"
	PaymentPartialPending PaymentStatus = "PARTIAL_PAYMENT_VERIFICATION_PENDING"
	PaymentPartialPaid    PaymentStatus = "PARTIAL_PAID"
	PaymentFullPending    PaymentStatus = "FULLY_PAYMENT_VERIFICATION_PENDING"
	PaymentFullyPaid      PaymentStatus = "FULLY_PAID"
)

// Pending 判断当前是否处于等待人工核验的状态
func (s PaymentStatus) Pending() bool {
	return s == PaymentPartialPending || s == PaymentFullPending
}

// EnrollmentStage 由报名记录推导出的阶段，不落库
type EnrollmentStage string

const (
	StageInProgress        EnrollmentStage = "IN_PROGRESS"
	StageCapstoneAvailable EnrollmentStage = "CAPSTONE_AVAILABLE"
	StageCapstoneSubmitted EnrollmentStage = "CAPSTONE_SUBMITTED"
	StagePaymentDue        EnrollmentStage = "PAYMENT_DUE"
	StagePaymentPending    EnrollmentStage = "PAYMENT_PENDING"
	StageCertified         EnrollmentStage = "CERTIFIED"
)

// swagger:model Enrollment
type Enrollment struct {
	BaseModel
	UserID            uint               `gorm:"index;type:bigint unsigned;uniqueIndex:uniq_user_course" json:"userId"`
	CourseID          uint               `gorm:"index;type:bigint unsigned;uniqueIndex:uniq_user_course" json:"courseId"`
	PaymentStatus     PaymentStatus      `gorm:"size:50;default:'UNPAID'" json:"paymentStatus"`
	AmountRemaining   int                `gorm:"default:0" json:"amountRemaining"`
	CapstoneSubmitted bool               `gorm:"default:false" json:"capstoneSubmitted"`
	CapstoneCompleted bool               `gorm:"default:false" json:"capstoneCompleted"`
	Modules           []EnrollmentModule `gorm:"foreignKey:EnrollmentID" json:"modules,omitempty"`
}

func (Enrollment) TableName() string {
	return "enrollments"
}

// EnrollmentModule 单个模块的学习进度
type EnrollmentModule struct {
	BaseModel
	EnrollmentID uint       `gorm:"index;type:bigint unsigned;uniqueIndex:uniq_enrollment_module" json:"enrollmentId"`
	ModuleID     uint       `gorm:"index;type:bigint unsigned;uniqueIndex:uniq_enrollment_module" json:"moduleId"`
	Order        int        `gorm:"default:0" json:"order"`
	Completed    bool       `gorm:"default:false" json:"completed"`
	AccessedAt   *time.Time `json:"accessedAt,omitempty"`
	CompletedAt  *time.Time `json:"completedAt,omitempty"`
}

func (EnrollmentModule) TableName() string {
	return "enrollment_modules"
}

// ModuleState 对外暴露的模块状态，锁定关系在这里推导而不是存库
type ModuleState struct {
	ModuleID  uint `json:"moduleId"`
	Order     int  `json:"order"`
	Locked    bool `json:"isLocked"`
	Completed bool `json:"isCompleted"`
}

// ModuleStates 按顺序推导每个模块的锁定/完成状态。
// 第 i 个模块在第 i-1 个完成前保持锁定，首个模块永不锁定。
func (e *Enrollment) ModuleStates() []ModuleState {
	mods := make([]EnrollmentModule, len(e.Modules))
	copy(mods, e.Modules)
	sort.Slice(mods, func(i, j int) bool { return mods[i].Order < mods[j].Order })

	states := make([]ModuleState, len(mods))
	for i, m := range mods {
		locked := i > 0 && !mods[i-1].Completed
		states[i] = ModuleState{
			ModuleID:  m.ModuleID,
			Order:     m.Order,
			Locked:    locked,
			Completed: m.Completed,
		}
	}
	return states
}

func (e *Enrollment) AllModulesCompleted() bool {
	if len(e.Modules) == 0 {
		return false
	}
	for _, m := range e.Modules {
		if !m.Completed {
			return false
		}
	}
	return true
}

// CapstoneLocked 毕业设计在全部模块完成前保持锁定
func (e *Enrollment) CapstoneLocked() bool {
	return !e.AllModulesCompleted()
}

// Stage 推导当前报名阶段。阶段是只读的派生属性，服务端为唯一事实来源。
func (e *Enrollment) Stage() EnrollmentStage {
	if !e.AllModulesCompleted() {
		return StageInProgress
	}
	if !e.CapstoneSubmitted {
		return StageCapstoneAvailable
	}
	if !e.CapstoneCompleted {
		return StageCapstoneSubmitted
	}
	switch {
	case e.PaymentStatus == PaymentFullyPaid:
		return StageCertified
	case e.PaymentStatus.Pending():
		return StagePaymentPending
	default:
		return StagePaymentDue
	}
}

// CertificateEligible 证书资格：全部模块完成 + 毕业设计通过 + 全额支付核验完成
func (e *Enrollment) CertificateEligible() bool {
	return e.AllModulesCompleted() && e.CapstoneCompleted && e.PaymentStatus == PaymentFullyPaid
}
