package model

import "time"

// Certificate 由全额支付核验动作触发签发，客户端不可自行创建
type Certificate struct {
	UUIDBase
	EnrollmentID uint      `gorm:"uniqueIndex;type:bigint unsigned" json:"enrollmentId"`
	UserID       uint      `gorm:"index;type:bigint unsigned" json:"userId"`
	CourseID     uint      `gorm:"index;type:bigint unsigned" json:"courseId"`
	SerialNo     string    `gorm:"size:64;uniqueIndex;not null" json:"serialNo"`
	IssuedAt     time.Time `json:"issuedAt"`
	URL          string    `gorm:"size:255" json:"url,omitempty"`
}

func (Certificate) TableName() string {
	return "certificates"
}
