package model

// ActivityLog 学习与支付相关的行为流水
type ActivityLog struct {
	BaseModel
	UserID       uint   `gorm:"index;type:bigint unsigned" json:"userId"`
	EnrollmentID uint   `gorm:"index;type:bigint unsigned" json:"enrollmentId"`
	Activity     string `gorm:"size:50;not null" json:"activity"`
	Content      string `gorm:"size:255" json:"content"`
	Duration     int    `gorm:"default:0" json:"duration"`
	Score        int    `gorm:"default:0" json:"score"`
}

func (ActivityLog) TableName() string {
	return "activity_logs"
}
