package repository

import (
	"certilearn_backend/internal/model"

	"gorm.io/gorm"
)

type EnrollmentRepository struct {
	DB *gorm.DB
}

func NewEnrollmentRepository(db *gorm.DB) *EnrollmentRepository {
	return &EnrollmentRepository{DB: db}
}

// CreateWithModules 报名时为课程每个模块生成进度记录
func (r *EnrollmentRepository) CreateWithModules(enrollment *model.Enrollment, modules []model.CourseModule) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(enrollment).Error; err != nil {
			return err
		}
		for _, m := range modules {
			em := model.EnrollmentModule{
				EnrollmentID: enrollment.ID,
				ModuleID:     m.ID,
				Order:        m.Order,
			}
			if err := tx.Create(&em).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *EnrollmentRepository) FindByID(id uint) (*model.Enrollment, error) {
	var e model.Enrollment
	err := r.DB.Preload("Modules", func(db *gorm.DB) *gorm.DB {
		return db.Order("enrollment_modules.order ASC")
	}).First(&e, id).Error
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *EnrollmentRepository) FindByUserAndCourse(userID, courseID uint) (*model.Enrollment, error) {
	var e model.Enrollment
	err := r.DB.Preload("Modules", func(db *gorm.DB) *gorm.DB {
		return db.Order("enrollment_modules.order ASC")
	}).Where("user_id = ? AND course_id = ?", userID, courseID).First(&e).Error
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *EnrollmentRepository) ListByUser(userID uint) ([]model.Enrollment, error) {
	var list []model.Enrollment
	err := r.DB.Preload("Modules", func(db *gorm.DB) *gorm.DB {
		return db.Order("enrollment_modules.order ASC")
	}).Where("user_id = ?", userID).Order("created_at DESC").Find(&list).Error
	return list, err
}

func (r *EnrollmentRepository) ListByCourse(courseID uint, page, limit int) ([]model.Enrollment, int64, error) {
	var list []model.Enrollment
	var total int64

	q := r.DB.Model(&model.Enrollment{}).Where("course_id = ?", courseID)
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := r.DB.Preload("Modules").Where("course_id = ?", courseID).
		Offset((page - 1) * limit).Limit(limit).
		Order("created_at DESC").Find(&list).Error
	return list, total, err
}

func (r *EnrollmentRepository) Save(e *model.Enrollment) error {
	return r.DB.Save(e).Error
}

func (r *EnrollmentRepository) FindModule(enrollmentID, moduleID uint) (*model.EnrollmentModule, error) {
	var em model.EnrollmentModule
	err := r.DB.Where("enrollment_id = ? AND module_id = ?", enrollmentID, moduleID).First(&em).Error
	if err != nil {
		return nil, err
	}
	return &em, nil
}

func (r *EnrollmentRepository) SaveModule(em *model.EnrollmentModule) error {
	return r.DB.Save(em).Error
}

func (r *EnrollmentRepository) CreateActivity(log *model.ActivityLog) error {
	return r.DB.Create(log).Error
}
