package service

import (
	"certilearn_backend/internal/model"
	"certilearn_backend/internal/repository"
	"certilearn_backend/internal/util"
	"certilearn_backend/pkg/logger"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type EnrollmentService struct {
	EnrollmentRepo *repository.EnrollmentRepository
	CourseRepo     *repository.CourseRepository
}

func NewEnrollmentService(enrollmentRepo *repository.EnrollmentRepository, courseRepo *repository.CourseRepository) *EnrollmentService {
	return &EnrollmentService{EnrollmentRepo: enrollmentRepo, CourseRepo: courseRepo}
}

type CapstoneState struct {
	IsLocked    bool `json:"isLocked"`
	IsSubmitted bool `json:"isSubmitted"`
	IsCompleted bool `json:"isCompleted"`
}

// EnrollmentDetail 前端读取的报名快照，stage 与模块锁定关系均为派生值
type EnrollmentDetail struct {
	EnrollmentID        uint                  `json:"enrollmentId"`
	CourseID            uint                  `json:"courseId"`
	CourseTitle         string                `json:"courseTitle"`
	Stage               model.EnrollmentStage `json:"stage"`
	Modules             []model.ModuleState   `json:"modules"`
	Capstone            CapstoneState         `json:"capstone"`
	PaymentStatus       model.PaymentStatus   `json:"paymentStatus"`
	AmountRemaining     int                   `json:"amountRemaining"`
	CertificateEligible bool                  `json:"certificateEligible"`
}

func (s *EnrollmentService) Enroll(userID uint, courseSlug string) (*model.Enrollment, error) {
	course, err := s.CourseRepo.FindBySlug(courseSlug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrCourseNotFound
		}
		return nil, err
	}

	if _, err := s.EnrollmentRepo.FindByUserAndCourse(userID, course.ID); err == nil {
		return nil, util.ErrAlreadyEnrolled
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	enrollment := &model.Enrollment{
		UserID:          userID,
		CourseID:        course.ID,
		PaymentStatus:   model.PaymentUnpaid,
		AmountRemaining: course.Price,
	}

	if err := s.EnrollmentRepo.CreateWithModules(enrollment, course.Modules); err != nil {
		return nil, err
	}

	logger.Log.Info("enrollment created",
		zap.Uint("userId", userID),
		zap.Uint("courseId", course.ID),
		zap.Uint("enrollmentId", enrollment.ID))

	return s.EnrollmentRepo.FindByID(enrollment.ID)
}

func (s *EnrollmentService) GetDetail(userID uint, courseSlug string) (*EnrollmentDetail, error) {
	course, enrollment, err := s.findEnrollment(userID, courseSlug)
	if err != nil {
		return nil, err
	}
	return s.buildDetail(course, enrollment), nil
}

func (s *EnrollmentService) buildDetail(course *model.Course, e *model.Enrollment) *EnrollmentDetail {
	return &EnrollmentDetail{
		EnrollmentID: e.ID,
		CourseID:     course.ID,
		CourseTitle:  course.Title,
		Stage:        e.Stage(),
		Modules:      e.ModuleStates(),
		Capstone: CapstoneState{
			IsLocked:    e.CapstoneLocked(),
			IsSubmitted: e.CapstoneSubmitted,
			IsCompleted: e.CapstoneCompleted,
		},
		PaymentStatus:       e.PaymentStatus,
		AmountRemaining:     e.AmountRemaining,
		CertificateEligible: e.CertificateEligible(),
	}
}

func (s *EnrollmentService) findEnrollment(userID uint, courseSlug string) (*model.Course, *model.Enrollment, error) {
	course, err := s.CourseRepo.FindBySlug(courseSlug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, util.ErrCourseNotFound
		}
		return nil, nil, err
	}
	enrollment, err := s.EnrollmentRepo.FindByUserAndCourse(userID, course.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, util.ErrEnrollmentNotFound
		}
		return nil, nil, err
	}
	return course, enrollment, nil
}

// MarkModuleAccessed 记录模块访问。按 (enrollment, module) 幂等：
// 重试不会产生重复状态，已访问过直接返回当前状态。
func (s *EnrollmentService) MarkModuleAccessed(userID uint, courseSlug string, moduleID uint) (*model.EnrollmentModule, error) {
	_, enrollment, err := s.findEnrollment(userID, courseSlug)
	if err != nil {
		return nil, err
	}

	em, err := s.EnrollmentRepo.FindModule(enrollment.ID, moduleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrModuleNotFound
		}
		return nil, err
	}

	if s.moduleLocked(enrollment, moduleID) {
		return nil, util.ErrModuleLocked
	}

	if em.AccessedAt != nil {
		return em, nil
	}

	now := time.Now()
	em.AccessedAt = &now
	if err := s.EnrollmentRepo.SaveModule(em); err != nil {
		return nil, err
	}

	_ = s.EnrollmentRepo.CreateActivity(&model.ActivityLog{
		UserID:       userID,
		EnrollmentID: enrollment.ID,
		Activity:     "module_accessed",
		Content:      "模块首次访问",
	})

	return em, nil
}

func (s *EnrollmentService) moduleLocked(e *model.Enrollment, moduleID uint) bool {
	for _, st := range e.ModuleStates() {
		if st.ModuleID == moduleID {
			return st.Locked
		}
	}
	return true
}

// CompleteModule 标记模块完成。锁定中的模块不可完成；重复调用幂等。
func (s *EnrollmentService) CompleteModule(enrollmentID, moduleID uint) (*model.EnrollmentModule, error) {
	enrollment, err := s.EnrollmentRepo.FindByID(enrollmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrEnrollmentNotFound
		}
		return nil, err
	}

	em, err := s.EnrollmentRepo.FindModule(enrollmentID, moduleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrModuleNotFound
		}
		return nil, err
	}

	if em.Completed {
		return em, nil
	}

	if s.moduleLocked(enrollment, moduleID) {
		return nil, util.ErrModuleLocked
	}

	now := time.Now()
	em.Completed = true
	em.CompletedAt = &now
	if err := s.EnrollmentRepo.SaveModule(em); err != nil {
		return nil, err
	}

	_ = s.EnrollmentRepo.CreateActivity(&model.ActivityLog{
		UserID:       enrollment.UserID,
		EnrollmentID: enrollment.ID,
		Activity:     "module_completed",
	})

	return em, nil
}

type CapstoneSubmitRequest struct {
	Content string `json:"content" binding:"required"`
}

// SubmitCapstone 毕业设计提交。前置条件：全部模块已完成；
// 内容本身对状态机不透明，原样记录。
func (s *EnrollmentService) SubmitCapstone(userID uint, courseSlug string, req CapstoneSubmitRequest) (*EnrollmentDetail, error) {
	course, enrollment, err := s.findEnrollment(userID, courseSlug)
	if err != nil {
		return nil, err
	}

	if enrollment.CapstoneLocked() {
		return nil, util.ErrCapstoneLocked
	}
	if enrollment.CapstoneSubmitted {
		return nil, util.ErrCapstoneAlreadySent
	}

	enrollment.CapstoneSubmitted = true
	if err := s.EnrollmentRepo.Save(enrollment); err != nil {
		return nil, err
	}

	_ = s.EnrollmentRepo.CreateActivity(&model.ActivityLog{
		UserID:       userID,
		EnrollmentID: enrollment.ID,
		Activity:     "capstone_submitted",
		Content:      req.Content,
	})

	return s.buildDetail(course, enrollment), nil
}

// GradeCapstone 管理端评审毕业设计，评分逻辑在外部完成，这里只落结果
func (s *EnrollmentService) GradeCapstone(enrollmentID uint, completed bool) (*model.Enrollment, error) {
	enrollment, err := s.EnrollmentRepo.FindByID(enrollmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrEnrollmentNotFound
		}
		return nil, err
	}

	if !enrollment.CapstoneSubmitted {
		return nil, util.ErrCapstoneLocked
	}

	enrollment.CapstoneCompleted = completed
	if err := s.EnrollmentRepo.Save(enrollment); err != nil {
		return nil, err
	}

	logger.Log.Info("capstone graded",
		zap.Uint("enrollmentId", enrollmentID),
		zap.Bool("completed", completed))

	return enrollment, nil
}

// ListByCourse 管理端按课程分页查看报名
func (s *EnrollmentService) ListByCourse(courseID uint, page, limit int) ([]model.Enrollment, int64, error) {
	return s.EnrollmentRepo.ListByCourse(courseID, page, limit)
}

// ListMine 课程一次性批量取回，查询层错误原样上抛
func (s *EnrollmentService) ListMine(userID uint) ([]EnrollmentDetail, error) {
	enrollments, err := s.EnrollmentRepo.ListByUser(userID)
	if err != nil {
		return nil, err
	}
	if len(enrollments) == 0 {
		return []EnrollmentDetail{}, nil
	}

	ids := make([]uint, 0, len(enrollments))
	for i := range enrollments {
		ids = append(ids, enrollments[i].CourseID)
	}
	courses, err := s.CourseRepo.ListByIDs(ids)
	if err != nil {
		return nil, err
	}

	return s.assembleDetails(enrollments, courses), nil
}

// assembleDetails 按课程映射拼装报名快照。
// 课程已被删除的报名是数据不一致，跳过并告警，不中断整个列表。
func (s *EnrollmentService) assembleDetails(enrollments []model.Enrollment, courses []model.Course) []EnrollmentDetail {
	byID := make(map[uint]*model.Course, len(courses))
	for i := range courses {
		byID[courses[i].ID] = &courses[i]
	}

	details := make([]EnrollmentDetail, 0, len(enrollments))
	for i := range enrollments {
		course, ok := byID[enrollments[i].CourseID]
		if !ok {
			logger.Log.Warn("enrollment references missing course",
				zap.Uint("enrollmentId", enrollments[i].ID),
				zap.Uint("courseId", enrollments[i].CourseID))
			continue
		}
		details = append(details, *s.buildDetail(course, &enrollments[i]))
	}
	return details
}
