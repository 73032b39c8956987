package usecase

import (
	"context"
	"errors"
	"time"

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
	ErrPatientNotFound        = errors.New("patient not found")
	ErrPatientHasAppointments = errors.New("patient has existing appointments")
	ErrInvalidBloodGroup      = errors.New("invalid blood group")
)

type PatientUsecase interface {
	CreatePatient(ctx context.Context, req *dto.CreatePatientRequest) (*dto.PatientResponse, error)
	GetPatient(ctx context.Context, id uuid.UUID) (*dto.PatientResponse, error)
	GetAllPatients(ctx context.Context) (*dto.PatientListResponse, error)
	SearchPatients(ctx context.Context, term string) (*dto.PatientListResponse, error)
	UpdatePatient(ctx context.Context, id uuid.UUID, req *dto.UpdatePatientRequest) (*dto.PatientResponse, error)
	DeletePatient(ctx context.Context, id uuid.UUID) error
}

type patientUsecase struct {
	db           *gorm.DB
	log          *logrus.Logger
	patientRepo  repository.PatientRepository
	auditService service.AuditService
	statsCache   service.StatsCache
}

func NewPatientUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	patientRepo repository.PatientRepository,
	auditService service.AuditService,
	statsCache service.StatsCache,
) PatientUsecase {
	return &patientUsecase{
		db:           db,
		log:          log,
		patientRepo:  patientRepo,
		auditService: auditService,
		statsCache:   statsCache,
	}
}

// CreatePatient registers a new patient. The admission date defaults to today
// when the request omits it.
func (u *patientUsecase) CreatePatient(ctx context.Context, req *dto.CreatePatientRequest) (*dto.PatientResponse, error) {
	if req.BloodGroup != "" && !entity.IsValidBloodGroup(req.BloodGroup) {
		return nil, ErrInvalidBloodGroup
	}

	admissionDate := time.Now().UTC().Truncate(24 * time.Hour)
	if req.AdmissionDate != "" {
		parsed, err := time.Parse("2006-01-02", req.AdmissionDate)
		if err != nil {
			return nil, ErrInvalidDateFormat
		}
		admissionDate = parsed
	}

	db := u.db.WithContext(ctx)
	patient := &entity.Patient{
		Name:             req.Name,
		Age:              *req.Age,
		Gender:           req.Gender,
		Phone:            req.Phone,
		Email:            req.Email,
		Address:          req.Address,
		Disease:          req.Disease,
		BloodGroup:       req.BloodGroup,
		EmergencyContact: req.EmergencyContact,
		AdmissionDate:    admissionDate,
	}

	if err := u.patientRepo.Create(db, patient); err != nil {
		u.log.Errorf("Failed to create patient: %+v", err)
		return nil, err
	}

	u.auditMutation(ctx, func(userID *uuid.UUID) error {
		return u.auditService.LogCreate(ctx, db, userID, entity.AuditActionPatientCreate, "patient", patient.ID.String(), converter.PatientToResponse(patient))
	})
	u.statsCache.Invalidate(ctx)

	u.log.Infof("Patient created: id=%s, name=%s", patient.ID, patient.Name)
	return converter.PatientToResponse(patient), nil
}

func (u *patientUsecase) GetPatient(ctx context.Context, id uuid.UUID) (*dto.PatientResponse, error) {
	patient, err := u.patientRepo.FindByID(u.db.WithContext(ctx), id)
	if err != nil {
		u.log.Warnf("Failed to find patient %s: %+v", id, err)
		return nil, err
	}
	if patient == nil {
		return nil, ErrPatientNotFound
	}

	return converter.PatientToResponse(patient), nil
}

func (u *patientUsecase) GetAllPatients(ctx context.Context) (*dto.PatientListResponse, error) {
	patients, err := u.patientRepo.FindAll(u.db.WithContext(ctx))
	if err != nil {
		u.log.Warnf("Failed to find patients: %+v", err)
		return nil, err
	}

	return &dto.PatientListResponse{
		Patients: converter.PatientsToResponses(patients),
		Total:    len(patients),
	}, nil
}

// SearchPatients matches the term against patient names and phone numbers.
// An empty term returns the full list.
func (u *patientUsecase) SearchPatients(ctx context.Context, term string) (*dto.PatientListResponse, error) {
	if term == "" {
		return u.GetAllPatients(ctx)
	}

	patients, err := u.patientRepo.Search(u.db.WithContext(ctx), term)
	if err != nil {
		u.log.Warnf("Failed to search patients with term %q: %+v", term, err)
		return nil, err
	}

	return &dto.PatientListResponse{
		Patients: converter.PatientsToResponses(patients),
		Total:    len(patients),
	}, nil
}

// UpdatePatient applies the non-empty fields of the request to the record.
func (u *patientUsecase) UpdatePatient(ctx context.Context, id uuid.UUID, req *dto.UpdatePatientRequest) (*dto.PatientResponse, error) {
	if req.BloodGroup != "" && !entity.IsValidBloodGroup(req.BloodGroup) {
		return nil, ErrInvalidBloodGroup
	}

	db := u.db.WithContext(ctx)
	patient, err := u.patientRepo.FindByID(db, id)
	if err != nil {
		u.log.Warnf("Failed to find patient %s: %+v", id, err)
		return nil, err
	}
	if patient == nil {
		return nil, ErrPatientNotFound
	}

	oldValue := converter.PatientToResponse(patient)

	if req.Name != "" {
		patient.Name = req.Name
	}
	if req.Age != nil {
		patient.Age = *req.Age
	}
	if req.Gender != "" {
		patient.Gender = req.Gender
	}
	if req.Phone != "" {
		patient.Phone = req.Phone
	}
	if req.Email != "" {
		patient.Email = req.Email
	}
	if req.Address != "" {
		patient.Address = req.Address
	}
	if req.Disease != "" {
		patient.Disease = req.Disease
	}
	if req.BloodGroup != "" {
		patient.BloodGroup = req.BloodGroup
	}
	if req.EmergencyContact != "" {
		patient.EmergencyContact = req.EmergencyContact
	}
	if req.AdmissionDate != "" {
		parsed, err := time.Parse("2006-01-02", req.AdmissionDate)
		if err != nil {
			return nil, ErrInvalidDateFormat
		}
		patient.AdmissionDate = parsed
	}

	if err := u.patientRepo.Update(db, patient); err != nil {
		u.log.Errorf("Failed to update patient %s: %+v", id, err)
		return nil, err
	}

	u.auditMutation(ctx, func(userID *uuid.UUID) error {
		return u.auditService.LogUpdate(ctx, db, userID, entity.AuditActionPatientUpdate, "patient", patient.ID.String(), oldValue, converter.PatientToResponse(patient))
	})

	return converter.PatientToResponse(patient), nil
}

// DeletePatient removes a patient. Deletion is restricted: a patient that
// still has appointments (any status) cannot be deleted.
func (u *patientUsecase) DeletePatient(ctx context.Context, id uuid.UUID) error {
	db := u.db.WithContext(ctx)

	patient, err := u.patientRepo.FindByID(db, id)
	if err != nil {
		u.log.Warnf("Failed to find patient %s: %+v", id, err)
		return err
	}
	if patient == nil {
		return ErrPatientNotFound
	}

	rows, err := u.patientRepo.Delete(db, id)
	if err != nil {
		if isForeignKeyError(err, "fk_appointments_patient") {
			return ErrPatientHasAppointments
		}
		u.log.Errorf("Failed to delete patient %s: %+v", id, err)
		return err
	}
	if rows == 0 {
		return ErrPatientNotFound
	}

	u.auditMutation(ctx, func(userID *uuid.UUID) error {
		return u.auditService.LogDelete(ctx, db, userID, entity.AuditActionPatientDelete, "patient", id.String(), converter.PatientToResponse(patient))
	})
	u.statsCache.Invalidate(ctx)

	u.log.Infof("Patient deleted: id=%s", id)
	return nil
}

func (u *patientUsecase) auditMutation(ctx context.Context, write func(userID *uuid.UUID) error) {
	var actor *uuid.UUID
	if userID, ok := middleware.GetUserIDFromContext(ctx); ok {
		actor = &userID
	}
	_ = write(actor)
}
