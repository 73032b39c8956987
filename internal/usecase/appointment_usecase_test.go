package usecase

import (
	"context"
	"testing"
	"time"

	"hospital-management-api/internal/delivery/dto"
	"hospital-management-api/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type appointmentTestDeps struct {
	appointmentRepo *MockAppointmentRepository
	patientRepo     *MockPatientRepository
	doctorRepo      *MockDoctorRepository
	usecase         AppointmentUsecase
}

func setupAppointmentUsecase() *appointmentTestDeps {
	deps := &appointmentTestDeps{
		appointmentRepo: &MockAppointmentRepository{},
		patientRepo:     &MockPatientRepository{},
		doctorRepo:      &MockDoctorRepository{},
	}
	deps.usecase = NewAppointmentUsecase(
		testDB(),
		testLogger(),
		deps.appointmentRepo,
		deps.patientRepo,
		deps.doctorRepo,
		fakeAuditService{},
		fakeStatsCache{},
	)
	return deps
}

func futureDate() string {
	return time.Now().UTC().AddDate(0, 1, 0).Format("2006-01-02")
}

func TestBookAppointment_Success(t *testing.T) {
	deps := setupAppointmentUsecase()
	patientID := uuid.New()
	doctorID := uuid.New()
	appointmentID := uuid.New()
	date := futureDate()

	deps.patientRepo.On("FindByID", mock.Anything, patientID).Return(&entity.Patient{ID: patientID, Name: "John Smith"}, nil)
	deps.doctorRepo.On("FindByID", mock.Anything, doctorID).Return(&entity.Doctor{ID: doctorID, Name: "Dr. Adams"}, nil)
	deps.appointmentRepo.On("CountSlot", mock.Anything, doctorID, mock.Anything, "10:30", uuid.Nil).Return(int64(0), nil)
	deps.appointmentRepo.On("Create", mock.Anything, mock.AnythingOfType("*entity.Appointment")).Run(func(args mock.Arguments) {
		args.Get(1).(*entity.Appointment).ID = appointmentID
	}).Return(nil)
	deps.appointmentRepo.On("FindByID", mock.Anything, appointmentID).Return(&entity.Appointment{
		ID:              appointmentID,
		PatientID:       patientID,
		DoctorID:        doctorID,
		AppointmentTime: "10:30:00",
		Status:          entity.AppointmentStatusScheduled,
		Patient:         entity.Patient{ID: patientID, Name: "John Smith"},
		Doctor:          entity.Doctor{ID: doctorID, Name: "Dr. Adams", Specialization: "Cardiology"},
	}, nil)

	result, err := deps.usecase.BookAppointment(context.Background(), &dto.CreateAppointmentRequest{
		PatientID:       patientID,
		DoctorID:        doctorID,
		AppointmentDate: date,
		AppointmentTime: "10:30",
	})

	assert.NoError(t, err)
	assert.Equal(t, appointmentID, result.ID)
	assert.Equal(t, "John Smith", result.PatientName)
	assert.Equal(t, "Dr. Adams", result.DoctorName)
	assert.Equal(t, string(entity.AppointmentStatusScheduled), result.Status)
	deps.appointmentRepo.AssertExpectations(t)
}

func TestBookAppointment_SlotTaken(t *testing.T) {
	deps := setupAppointmentUsecase()
	patientID := uuid.New()
	doctorID := uuid.New()

	deps.patientRepo.On("FindByID", mock.Anything, patientID).Return(&entity.Patient{ID: patientID}, nil)
	deps.doctorRepo.On("FindByID", mock.Anything, doctorID).Return(&entity.Doctor{ID: doctorID}, nil)
	deps.appointmentRepo.On("CountSlot", mock.Anything, doctorID, mock.Anything, "10:30", uuid.Nil).Return(int64(1), nil)

	_, err := deps.usecase.BookAppointment(context.Background(), &dto.CreateAppointmentRequest{
		PatientID:       patientID,
		DoctorID:        doctorID,
		AppointmentDate: futureDate(),
		AppointmentTime: "10:30",
	})

	assert.ErrorIs(t, err, ErrSlotTaken)
	deps.appointmentRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestBookAppointment_ConcurrentInsertLosesRace(t *testing.T) {
	deps := setupAppointmentUsecase()
	patientID := uuid.New()
	doctorID := uuid.New()

	deps.patientRepo.On("FindByID", mock.Anything, patientID).Return(&entity.Patient{ID: patientID}, nil)
	deps.doctorRepo.On("FindByID", mock.Anything, doctorID).Return(&entity.Doctor{ID: doctorID}, nil)
	// The optimistic check sees a free slot, but another booking commits first
	deps.appointmentRepo.On("CountSlot", mock.Anything, doctorID, mock.Anything, "10:30", uuid.Nil).Return(int64(0), nil)
	deps.appointmentRepo.On("Create", mock.Anything, mock.Anything).Return(&pgconn.PgError{
		Code:           "23505",
		ConstraintName: "uq_appointments_slot",
	})

	_, err := deps.usecase.BookAppointment(context.Background(), &dto.CreateAppointmentRequest{
		PatientID:       patientID,
		DoctorID:        doctorID,
		AppointmentDate: futureDate(),
		AppointmentTime: "10:30",
	})

	assert.ErrorIs(t, err, ErrSlotTaken)
}

func TestBookAppointment_PatientNotFound(t *testing.T) {
	deps := setupAppointmentUsecase()
	patientID := uuid.New()

	deps.patientRepo.On("FindByID", mock.Anything, patientID).Return(nil, nil)

	_, err := deps.usecase.BookAppointment(context.Background(), &dto.CreateAppointmentRequest{
		PatientID:       patientID,
		DoctorID:        uuid.New(),
		AppointmentDate: futureDate(),
		AppointmentTime: "10:30",
	})

	assert.ErrorIs(t, err, ErrPatientNotFound)
}

func TestBookAppointment_DoctorNotFound(t *testing.T) {
	deps := setupAppointmentUsecase()
	patientID := uuid.New()
	doctorID := uuid.New()

	deps.patientRepo.On("FindByID", mock.Anything, patientID).Return(&entity.Patient{ID: patientID}, nil)
	deps.doctorRepo.On("FindByID", mock.Anything, doctorID).Return(nil, nil)

	_, err := deps.usecase.BookAppointment(context.Background(), &dto.CreateAppointmentRequest{
		PatientID:       patientID,
		DoctorID:        doctorID,
		AppointmentDate: futureDate(),
		AppointmentTime: "10:30",
	})

	assert.ErrorIs(t, err, ErrDoctorNotFound)
}

func TestBookAppointment_PastSlot(t *testing.T) {
	deps := setupAppointmentUsecase()
	patientID := uuid.New()
	doctorID := uuid.New()

	deps.patientRepo.On("FindByID", mock.Anything, patientID).Return(&entity.Patient{ID: patientID}, nil)
	deps.doctorRepo.On("FindByID", mock.Anything, doctorID).Return(&entity.Doctor{ID: doctorID}, nil)

	_, err := deps.usecase.BookAppointment(context.Background(), &dto.CreateAppointmentRequest{
		PatientID:       patientID,
		DoctorID:        doctorID,
		AppointmentDate: "2020-01-15",
		AppointmentTime: "10:30",
	})

	assert.ErrorIs(t, err, ErrAppointmentInPast)
	deps.appointmentRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestBookAppointment_InvalidFormats(t *testing.T) {
	deps := setupAppointmentUsecase()
	patientID := uuid.New()
	doctorID := uuid.New()

	deps.patientRepo.On("FindByID", mock.Anything, patientID).Return(&entity.Patient{ID: patientID}, nil)
	deps.doctorRepo.On("FindByID", mock.Anything, doctorID).Return(&entity.Doctor{ID: doctorID}, nil)

	_, err := deps.usecase.BookAppointment(context.Background(), &dto.CreateAppointmentRequest{
		PatientID:       patientID,
		DoctorID:        doctorID,
		AppointmentDate: "15-01-2030",
		AppointmentTime: "10:30",
	})
	assert.ErrorIs(t, err, ErrInvalidDateFormat)

	_, err = deps.usecase.BookAppointment(context.Background(), &dto.CreateAppointmentRequest{
		PatientID:       patientID,
		DoctorID:        doctorID,
		AppointmentDate: futureDate(),
		AppointmentTime: "10.30",
	})
	assert.ErrorIs(t, err, ErrInvalidTimeFormat)
}

func TestCancelAppointment_Success(t *testing.T) {
	deps := setupAppointmentUsecase()
	appointmentID := uuid.New()

	deps.appointmentRepo.On("FindByID", mock.Anything, appointmentID).Return(&entity.Appointment{
		ID:     appointmentID,
		Status: entity.AppointmentStatusScheduled,
	}, nil)
	deps.appointmentRepo.On("UpdateStatus", mock.Anything, appointmentID, entity.AppointmentStatusCancelled).Return(int64(1), nil)

	err := deps.usecase.CancelAppointment(context.Background(), appointmentID)

	assert.NoError(t, err)
	deps.appointmentRepo.AssertExpectations(t)
}

func TestCancelAppointment_AlreadyCancelled(t *testing.T) {
	deps := setupAppointmentUsecase()
	appointmentID := uuid.New()

	deps.appointmentRepo.On("FindByID", mock.Anything, appointmentID).Return(&entity.Appointment{
		ID:     appointmentID,
		Status: entity.AppointmentStatusCancelled,
	}, nil)

	err := deps.usecase.CancelAppointment(context.Background(), appointmentID)

	assert.NoError(t, err)
	deps.appointmentRepo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestCancelAppointment_NotFound(t *testing.T) {
	deps := setupAppointmentUsecase()
	appointmentID := uuid.New()

	deps.appointmentRepo.On("FindByID", mock.Anything, appointmentID).Return(nil, nil)

	err := deps.usecase.CancelAppointment(context.Background(), appointmentID)

	assert.ErrorIs(t, err, ErrAppointmentNotFound)
}

func TestRescheduleAppointment_SameSlotIsNoop(t *testing.T) {
	deps := setupAppointmentUsecase()
	appointmentID := uuid.New()
	doctorID := uuid.New()
	date := futureDate()
	day, _ := time.Parse("2006-01-02", date)

	// Stored time carries seconds, the request does not
	deps.appointmentRepo.On("FindByID", mock.Anything, appointmentID).Return(&entity.Appointment{
		ID:              appointmentID,
		DoctorID:        doctorID,
		AppointmentDate: day,
		AppointmentTime: "10:30:00",
		Status:          entity.AppointmentStatusScheduled,
	}, nil)

	result, err := deps.usecase.RescheduleAppointment(context.Background(), appointmentID, &dto.RescheduleAppointmentRequest{
		AppointmentDate: date,
		AppointmentTime: "10:30",
	})

	assert.NoError(t, err)
	assert.Equal(t, appointmentID, result.ID)
	deps.appointmentRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	deps.appointmentRepo.AssertNotCalled(t, "CountSlot", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRescheduleAppointment_TargetSlotTaken(t *testing.T) {
	deps := setupAppointmentUsecase()
	appointmentID := uuid.New()
	doctorID := uuid.New()
	day, _ := time.Parse("2006-01-02", futureDate())

	deps.appointmentRepo.On("FindByID", mock.Anything, appointmentID).Return(&entity.Appointment{
		ID:              appointmentID,
		DoctorID:        doctorID,
		AppointmentDate: day,
		AppointmentTime: "09:00:00",
		Status:          entity.AppointmentStatusScheduled,
	}, nil)
	deps.appointmentRepo.On("CountSlot", mock.Anything, doctorID, mock.Anything, "14:00", appointmentID).Return(int64(1), nil)

	_, err := deps.usecase.RescheduleAppointment(context.Background(), appointmentID, &dto.RescheduleAppointmentRequest{
		AppointmentDate: day.Format("2006-01-02"),
		AppointmentTime: "14:00",
	})

	assert.ErrorIs(t, err, ErrSlotTaken)
	deps.appointmentRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestUpdateAppointment_ReopenCancelledLosesRace(t *testing.T) {
	deps := setupAppointmentUsecase()
	appointmentID := uuid.New()
	patientID := uuid.New()
	doctorID := uuid.New()
	day, _ := time.Parse("2006-01-02", futureDate())

	// Reopening a cancelled appointment in place skips the pre-check, but the
	// unique index re-arms on the status flip and rejects the conflict.
	deps.appointmentRepo.On("FindByID", mock.Anything, appointmentID).Return(&entity.Appointment{
		ID:              appointmentID,
		PatientID:       patientID,
		DoctorID:        doctorID,
		AppointmentDate: day,
		AppointmentTime: "09:00:00",
		Status:          entity.AppointmentStatusCancelled,
	}, nil)
	deps.appointmentRepo.On("Update", mock.Anything, mock.Anything).Return(&pgconn.PgError{
		Code:           "23505",
		ConstraintName: "uq_appointments_slot",
	})

	_, err := deps.usecase.UpdateAppointment(context.Background(), appointmentID, &dto.UpdateAppointmentRequest{
		PatientID:       patientID,
		DoctorID:        doctorID,
		AppointmentDate: day.Format("2006-01-02"),
		AppointmentTime: "09:00",
		Status:          string(entity.AppointmentStatusScheduled),
	})

	assert.ErrorIs(t, err, ErrSlotTaken)
}

func TestDeleteAppointment_NotFound(t *testing.T) {
	deps := setupAppointmentUsecase()
	appointmentID := uuid.New()

	deps.appointmentRepo.On("FindByID", mock.Anything, appointmentID).Return(nil, nil)

	err := deps.usecase.DeleteAppointment(context.Background(), appointmentID)

	assert.ErrorIs(t, err, ErrAppointmentNotFound)
}

func TestCheckAvailability(t *testing.T) {
	deps := setupAppointmentUsecase()
	doctorID := uuid.New()
	date := futureDate()

	deps.appointmentRepo.On("CountSlot", mock.Anything, doctorID, mock.Anything, "10:30", uuid.Nil).Return(int64(0), nil).Once()

	result, err := deps.usecase.CheckAvailability(context.Background(), doctorID, date, "10:30")
	assert.NoError(t, err)
	assert.True(t, result.Available)
	assert.Equal(t, date, result.AppointmentDate)

	deps.appointmentRepo.On("CountSlot", mock.Anything, doctorID, mock.Anything, "10:30", uuid.Nil).Return(int64(1), nil).Once()

	result, err = deps.usecase.CheckAvailability(context.Background(), doctorID, date, "10:30")
	assert.NoError(t, err)
	assert.False(t, result.Available)
}

func TestSlotInPast(t *testing.T) {
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	today := time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC)

	assert.True(t, slotInPast(today, "11:59", now))
	assert.False(t, slotInPast(today, "12:01", now))
	assert.True(t, slotInPast(today.AddDate(0, 0, -1), "23:59", now))
	assert.False(t, slotInPast(today.AddDate(0, 0, 1), "00:00", now))
}
