package usecase

import (
	"context"
	"testing"

	"hospital-management-api/internal/delivery/dto"
	"hospital-management-api/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func setupPatientUsecase() (*MockPatientRepository, PatientUsecase) {
	patientRepo := &MockPatientRepository{}
	uc := NewPatientUsecase(testDB(), testLogger(), patientRepo, fakeAuditService{}, fakeStatsCache{})
	return patientRepo, uc
}

func intPtr(v int) *int { return &v }

func TestCreatePatient_Success(t *testing.T) {
	patientRepo, uc := setupPatientUsecase()

	patientRepo.On("Create", mock.Anything, mock.AnythingOfType("*entity.Patient")).Run(func(args mock.Arguments) {
		args.Get(1).(*entity.Patient).ID = uuid.New()
	}).Return(nil)

	result, err := uc.CreatePatient(context.Background(), &dto.CreatePatientRequest{
		Name:       "Jane Doe",
		Age:        intPtr(34),
		Gender:     "Female",
		Phone:      "555-0134",
		BloodGroup: "O+",
	})

	assert.NoError(t, err)
	assert.Equal(t, "Jane Doe", result.Name)
	assert.Equal(t, 34, result.Age)
	assert.NotEmpty(t, result.AdmissionDate) // defaults to today
	patientRepo.AssertExpectations(t)
}

func TestCreatePatient_InvalidBloodGroup(t *testing.T) {
	patientRepo, uc := setupPatientUsecase()

	_, err := uc.CreatePatient(context.Background(), &dto.CreatePatientRequest{
		Name:       "Jane Doe",
		Age:        intPtr(34),
		Gender:     "Female",
		Phone:      "555-0134",
		BloodGroup: "X+",
	})

	assert.ErrorIs(t, err, ErrInvalidBloodGroup)
	patientRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreatePatient_InvalidAdmissionDate(t *testing.T) {
	_, uc := setupPatientUsecase()

	_, err := uc.CreatePatient(context.Background(), &dto.CreatePatientRequest{
		Name:          "Jane Doe",
		Age:           intPtr(34),
		Gender:        "Female",
		Phone:         "555-0134",
		AdmissionDate: "29/08/2026",
	})

	assert.ErrorIs(t, err, ErrInvalidDateFormat)
}

func TestGetPatient_NotFound(t *testing.T) {
	patientRepo, uc := setupPatientUsecase()
	patientID := uuid.New()

	patientRepo.On("FindByID", mock.Anything, patientID).Return(nil, nil)

	_, err := uc.GetPatient(context.Background(), patientID)

	assert.ErrorIs(t, err, ErrPatientNotFound)
}

func TestUpdatePatient_AppliesOnlyProvidedFields(t *testing.T) {
	patientRepo, uc := setupPatientUsecase()
	patientID := uuid.New()

	patientRepo.On("FindByID", mock.Anything, patientID).Return(&entity.Patient{
		ID:     patientID,
		Name:   "Jane Doe",
		Age:    34,
		Gender: "Female",
		Phone:  "555-0134",
	}, nil)
	patientRepo.On("Update", mock.Anything, mock.AnythingOfType("*entity.Patient")).Return(nil)

	result, err := uc.UpdatePatient(context.Background(), patientID, &dto.UpdatePatientRequest{
		Phone: "555-0200",
	})

	assert.NoError(t, err)
	assert.Equal(t, "555-0200", result.Phone)
	assert.Equal(t, "Jane Doe", result.Name)
	assert.Equal(t, 34, result.Age)
}

func TestDeletePatient_WithAppointmentsIsRestricted(t *testing.T) {
	patientRepo, uc := setupPatientUsecase()
	patientID := uuid.New()

	patientRepo.On("FindByID", mock.Anything, patientID).Return(&entity.Patient{ID: patientID}, nil)
	patientRepo.On("Delete", mock.Anything, patientID).Return(int64(0), &pgconn.PgError{
		Code:           "23503",
		ConstraintName: "fk_appointments_patient",
	})

	err := uc.DeletePatient(context.Background(), patientID)

	assert.ErrorIs(t, err, ErrPatientHasAppointments)
}

func TestDeletePatient_Success(t *testing.T) {
	patientRepo, uc := setupPatientUsecase()
	patientID := uuid.New()

	patientRepo.On("FindByID", mock.Anything, patientID).Return(&entity.Patient{ID: patientID}, nil)
	patientRepo.On("Delete", mock.Anything, patientID).Return(int64(1), nil)

	err := uc.DeletePatient(context.Background(), patientID)

	assert.NoError(t, err)
	patientRepo.AssertExpectations(t)
}

func TestSearchPatients_EmptyTermReturnsAll(t *testing.T) {
	patientRepo, uc := setupPatientUsecase()

	patientRepo.On("FindAll", mock.Anything).Return([]entity.Patient{
		{ID: uuid.New(), Name: "Jane Doe"},
		{ID: uuid.New(), Name: "John Smith"},
	}, nil)

	result, err := uc.SearchPatients(context.Background(), "")

	assert.NoError(t, err)
	assert.Equal(t, 2, result.Total)
	patientRepo.AssertNotCalled(t, "Search", mock.Anything, mock.Anything)
}
