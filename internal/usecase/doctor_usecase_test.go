package usecase

import (
	"context"
	"testing"

	"hospital-management-api/internal/delivery/dto"
	"hospital-management-api/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func setupDoctorUsecase() (*MockDoctorRepository, DoctorUsecase) {
	doctorRepo := &MockDoctorRepository{}
	uc := NewDoctorUsecase(testDB(), testLogger(), doctorRepo, fakeAuditService{}, fakeStatsCache{})
	return doctorRepo, uc
}

func TestCreateDoctor_Success(t *testing.T) {
	doctorRepo, uc := setupDoctorUsecase()

	doctorRepo.On("Create", mock.Anything, mock.AnythingOfType("*entity.Doctor")).Run(func(args mock.Arguments) {
		args.Get(1).(*entity.Doctor).ID = uuid.New()
	}).Return(nil)

	result, err := uc.CreateDoctor(context.Background(), &dto.CreateDoctorRequest{
		Name:            "Dr. Adams",
		Specialization:  "Cardiology",
		Phone:           "555-0101",
		ConsultationFee: decimal.NewFromInt(150),
	})

	assert.NoError(t, err)
	assert.Equal(t, "Dr. Adams", result.Name)
	assert.True(t, result.ConsultationFee.Equal(decimal.NewFromInt(150)))
	doctorRepo.AssertExpectations(t)
}

func TestCreateDoctor_NegativeFee(t *testing.T) {
	doctorRepo, uc := setupDoctorUsecase()

	_, err := uc.CreateDoctor(context.Background(), &dto.CreateDoctorRequest{
		Name:            "Dr. Adams",
		Specialization:  "Cardiology",
		Phone:           "555-0101",
		ConsultationFee: decimal.NewFromInt(-10),
	})

	assert.ErrorIs(t, err, ErrNegativeConsultationFee)
	doctorRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestGetDoctor_NotFound(t *testing.T) {
	doctorRepo, uc := setupDoctorUsecase()
	doctorID := uuid.New()

	doctorRepo.On("FindByID", mock.Anything, doctorID).Return(nil, nil)

	_, err := uc.GetDoctor(context.Background(), doctorID)

	assert.ErrorIs(t, err, ErrDoctorNotFound)
}

func TestUpdateDoctor_NegativeFee(t *testing.T) {
	doctorRepo, uc := setupDoctorUsecase()
	fee := decimal.NewFromInt(-5)

	_, err := uc.UpdateDoctor(context.Background(), uuid.New(), &dto.UpdateDoctorRequest{
		ConsultationFee: &fee,
	})

	assert.ErrorIs(t, err, ErrNegativeConsultationFee)
	doctorRepo.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
}

func TestDeleteDoctor_WithAppointmentsIsRestricted(t *testing.T) {
	doctorRepo, uc := setupDoctorUsecase()
	doctorID := uuid.New()

	doctorRepo.On("FindByID", mock.Anything, doctorID).Return(&entity.Doctor{ID: doctorID}, nil)
	doctorRepo.On("Delete", mock.Anything, doctorID).Return(int64(0), &pgconn.PgError{
		Code:           "23503",
		ConstraintName: "fk_appointments_doctor",
	})

	err := uc.DeleteDoctor(context.Background(), doctorID)

	assert.ErrorIs(t, err, ErrDoctorHasAppointments)
}

func TestGetDoctorsBySpecialization(t *testing.T) {
	doctorRepo, uc := setupDoctorUsecase()

	doctorRepo.On("FindBySpecialization", mock.Anything, "Cardiology").Return([]entity.Doctor{
		{ID: uuid.New(), Name: "Dr. Adams", Specialization: "Cardiology"},
	}, nil)

	result, err := uc.GetDoctorsBySpecialization(context.Background(), "Cardiology")

	assert.NoError(t, err)
	assert.Equal(t, 1, result.Total)
	assert.Equal(t, "Cardiology", result.Doctors[0].Specialization)
}
