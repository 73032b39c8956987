package usecase

import (
	"context"
	"errors"

	"hospital-management-api/internal/converter"
	"hospital-management-api/internal/delivery/dto"
	"hospital-management-api/internal/delivery/http/middleware"
	"hospital-management-api/internal/domain/entity"
	"hospital-management-api/internal/domain/repository"
	"hospital-management-api/internal/service"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	ErrDoctorNotFound          = errors.New("doctor not found")
	ErrDoctorHasAppointments   = errors.New("doctor has existing appointments")
	ErrNegativeConsultationFee = errors.New("consultation fee cannot be negative")
)

type DoctorUsecase interface {
	CreateDoctor(ctx context.Context, req *dto.CreateDoctorRequest) (*dto.DoctorResponse, error)
	GetDoctor(ctx context.Context, id uuid.UUID) (*dto.DoctorResponse, error)
	GetAllDoctors(ctx context.Context) (*dto.DoctorListResponse, error)
	GetDoctorsBySpecialization(ctx context.Context, specialization string) (*dto.DoctorListResponse, error)
	SearchDoctors(ctx context.Context, term string) (*dto.DoctorListResponse, error)
	UpdateDoctor(ctx context.Context, id uuid.UUID, req *dto.UpdateDoctorRequest) (*dto.DoctorResponse, error)
	DeleteDoctor(ctx context.Context, id uuid.UUID) error
}

type doctorUsecase struct {
	db           *gorm.DB
	log          *logrus.Logger
	doctorRepo   repository.DoctorRepository
	auditService service.AuditService
	statsCache   service.StatsCache
}

func NewDoctorUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	doctorRepo repository.DoctorRepository,
	auditService service.AuditService,
	statsCache service.StatsCache,
) DoctorUsecase {
	return &doctorUsecase{
		db:           db,
		log:          log,
		doctorRepo:   doctorRepo,
		auditService: auditService,
		statsCache:   statsCache,
	}
}

func (u *doctorUsecase) CreateDoctor(ctx context.Context, req *dto.CreateDoctorRequest) (*dto.DoctorResponse, error) {
	if req.ConsultationFee.IsNegative() {
		return nil, ErrNegativeConsultationFee
	}

	db := u.db.WithContext(ctx)
	doctor := &entity.Doctor{
		Name:            req.Name,
		Specialization:  req.Specialization,
		Phone:           req.Phone,
		Email:           req.Email,
		ExperienceYears: req.ExperienceYears,
		Qualification:   req.Qualification,
		ConsultationFee: req.ConsultationFee,
		AvailableDays:   req.AvailableDays,
		AvailableTime:   req.AvailableTime,
	}

	if err := u.doctorRepo.Create(db, doctor); err != nil {
		u.log.Errorf("Failed to create doctor: %+v", err)
		return nil, err
	}

	u.auditMutation(ctx, func(userID *uuid.UUID) error {
		return u.auditService.LogCreate(ctx, db, userID, entity.AuditActionDoctorCreate, "doctor", doctor.ID.String(), converter.DoctorToResponse(doctor))
	})
	u.statsCache.Invalidate(ctx)

	u.log.Infof("Doctor created: id=%s, name=%s, specialization=%s", doctor.ID, doctor.Name, doctor.Specialization)
	return converter.DoctorToResponse(doctor), nil
}

func (u *doctorUsecase) GetDoctor(ctx context.Context, id uuid.UUID) (*dto.DoctorResponse, error) {
	doctor, err := u.doctorRepo.FindByID(u.db.WithContext(ctx), id)
	if err != nil {
		u.log.Warnf("Failed to find doctor %s: %+v", id, err)
		return nil, err
	}
	if doctor == nil {
		return nil, ErrDoctorNotFound
	}

	return converter.DoctorToResponse(doctor), nil
}

func (u *doctorUsecase) GetAllDoctors(ctx context.Context) (*dto.DoctorListResponse, error) {
	doctors, err := u.doctorRepo.FindAll(u.db.WithContext(ctx))
	if err != nil {
		u.log.Warnf("Failed to find doctors: %+v", err)
		return nil, err
	}

	return &dto.DoctorListResponse{
		Doctors: converter.DoctorsToResponses(doctors),
		Total:   len(doctors),
	}, nil
}

// GetDoctorsBySpecialization returns doctors with an exact specialization
// match, ordered by name.
func (u *doctorUsecase) GetDoctorsBySpecialization(ctx context.Context, specialization string) (*dto.DoctorListResponse, error) {
	doctors, err := u.doctorRepo.FindBySpecialization(u.db.WithContext(ctx), specialization)
	if err != nil {
		u.log.Warnf("Failed to find doctors by specialization %q: %+v", specialization, err)
		return nil, err
	}

	return &dto.DoctorListResponse{
		Doctors: converter.DoctorsToResponses(doctors),
		Total:   len(doctors),
	}, nil
}

// SearchDoctors matches the term against doctor names and specializations.
// An empty term returns the full list.
func (u *doctorUsecase) SearchDoctors(ctx context.Context, term string) (*dto.DoctorListResponse, error) {
	if term == "" {
		return u.GetAllDoctors(ctx)
	}

	doctors, err := u.doctorRepo.Search(u.db.WithContext(ctx), term)
	if err != nil {
		u.log.Warnf("Failed to search doctors with term %q: %+v", term, err)
		return nil, err
	}

	return &dto.DoctorListResponse{
		Doctors: converter.DoctorsToResponses(doctors),
		Total:   len(doctors),
	}, nil
}

// UpdateDoctor applies the non-empty fields of the request to the record.
func (u *doctorUsecase) UpdateDoctor(ctx context.Context, id uuid.UUID, req *dto.UpdateDoctorRequest) (*dto.DoctorResponse, error) {
	if req.ConsultationFee != nil && req.ConsultationFee.IsNegative() {
		return nil, ErrNegativeConsultationFee
	}

	db := u.db.WithContext(ctx)
	doctor, err := u.doctorRepo.FindByID(db, id)
	if err != nil {
		u.log.Warnf("Failed to find doctor %s: %+v", id, err)
		return nil, err
	}
	if doctor == nil {
		return nil, ErrDoctorNotFound
	}

	oldValue := converter.DoctorToResponse(doctor)

	if req.Name != "" {
		doctor.Name = req.Name
	}
	if req.Specialization != "" {
		doctor.Specialization = req.Specialization
	}
	if req.Phone != "" {
		doctor.Phone = req.Phone
	}
	if req.Email != "" {
		doctor.Email = req.Email
	}
	if req.ExperienceYears != nil {
		doctor.ExperienceYears = *req.ExperienceYears
	}
	if req.Qualification != "" {
		doctor.Qualification = req.Qualification
	}
	if req.ConsultationFee != nil {
		doctor.ConsultationFee = *req.ConsultationFee
	}
	if req.AvailableDays != "" {
		doctor.AvailableDays = req.AvailableDays
	}
	if req.AvailableTime != "" {
		doctor.AvailableTime = req.AvailableTime
	}

	if err := u.doctorRepo.Update(db, doctor); err != nil {
		u.log.Errorf("Failed to update doctor %s: %+v", id, err)
		return nil, err
	}

	u.auditMutation(ctx, func(userID *uuid.UUID) error {
		return u.auditService.LogUpdate(ctx, db, userID, entity.AuditActionDoctorUpdate, "doctor", doctor.ID.String(), oldValue, converter.DoctorToResponse(doctor))
	})

	return converter.DoctorToResponse(doctor), nil
}

// DeleteDoctor removes a doctor. Deletion is restricted: a doctor that still
// has appointments (any status) cannot be deleted.
func (u *doctorUsecase) DeleteDoctor(ctx context.Context, id uuid.UUID) error {
	db := u.db.WithContext(ctx)

	doctor, err := u.doctorRepo.FindByID(db, id)
	if err != nil {
		u.log.Warnf("Failed to find doctor %s: %+v", id, err)
		return err
	}
	if doctor == nil {
		return ErrDoctorNotFound
	}

	rows, err := u.doctorRepo.Delete(db, id)
	if err != nil {
		if isForeignKeyError(err, "fk_appointments_doctor") {
			return ErrDoctorHasAppointments
		}
		u.log.Errorf("Failed to delete doctor %s: %+v", id, err)
		return err
	}
	if rows == 0 {
		return ErrDoctorNotFound
	}

	u.auditMutation(ctx, func(userID *uuid.UUID) error {
		return u.auditService.LogDelete(ctx, db, userID, entity.AuditActionDoctorDelete, "doctor", id.String(), converter.DoctorToResponse(doctor))
	})
	u.statsCache.Invalidate(ctx)

	u.log.Infof("Doctor deleted: id=%s", id)
	return nil
}

func (u *doctorUsecase) auditMutation(ctx context.Context, write func(userID *uuid.UUID) error) {
	var actor *uuid.UUID
	if userID, ok := middleware.GetUserIDFromContext(ctx); ok {
		actor = &userID
	}
	_ = write(actor)
}
