package usecase

import (
	"context"
	"io"
	"time"

	"hospital-management-api/internal/delivery/dto"
	"hospital-management-api/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"
)

// testDB returns a *gorm.DB that supports WithContext without a live
// connection. The repositories behind it are mocked, so no SQL is issued.
func testDB() *gorm.DB {
	return &gorm.DB{Config: &gorm.Config{}, Statement: &gorm.Statement{}}
}

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// MockPatientRepository is a mock implementation of repository.PatientRepository
type MockPatientRepository struct {
	mock.Mock
}

func (m *MockPatientRepository) Create(db *gorm.DB, patient *entity.Patient) error {
	args := m.Called(db, patient)
	return args.Error(0)
}

func (m *MockPatientRepository) FindByID(db *gorm.DB, id uuid.UUID) (*entity.Patient, error) {
	args := m.Called(db, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Patient), args.Error(1)
}

func (m *MockPatientRepository) FindAll(db *gorm.DB) ([]entity.Patient, error) {
	args := m.Called(db)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Patient), args.Error(1)
}

func (m *MockPatientRepository) Search(db *gorm.DB, term string) ([]entity.Patient, error) {
	args := m.Called(db, term)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Patient), args.Error(1)
}

func (m *MockPatientRepository) Update(db *gorm.DB, patient *entity.Patient) error {
	args := m.Called(db, patient)
	return args.Error(0)
}

func (m *MockPatientRepository) Delete(db *gorm.DB, id uuid.UUID) (int64, error) {
	args := m.Called(db, id)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPatientRepository) Count(db *gorm.DB) (int64, error) {
	args := m.Called(db)
	return args.Get(0).(int64), args.Error(1)
}

// MockDoctorRepository is a mock implementation of repository.DoctorRepository
type MockDoctorRepository struct {
	mock.Mock
}

func (m *MockDoctorRepository) Create(db *gorm.DB, doctor *entity.Doctor) error {
	args := m.Called(db, doctor)
	return args.Error(0)
}

func (m *MockDoctorRepository) FindByID(db *gorm.DB, id uuid.UUID) (*entity.Doctor, error) {
	args := m.Called(db, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Doctor), args.Error(1)
}

func (m *MockDoctorRepository) FindAll(db *gorm.DB) ([]entity.Doctor, error) {
	args := m.Called(db)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Doctor), args.Error(1)
}

func (m *MockDoctorRepository) Search(db *gorm.DB, term string) ([]entity.Doctor, error) {
	args := m.Called(db, term)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Doctor), args.Error(1)
}

func (m *MockDoctorRepository) FindBySpecialization(db *gorm.DB, specialization string) ([]entity.Doctor, error) {
	args := m.Called(db, specialization)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Doctor), args.Error(1)
}

func (m *MockDoctorRepository) Update(db *gorm.DB, doctor *entity.Doctor) error {
	args := m.Called(db, doctor)
	return args.Error(0)
}

func (m *MockDoctorRepository) Delete(db *gorm.DB, id uuid.UUID) (int64, error) {
	args := m.Called(db, id)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockDoctorRepository) Count(db *gorm.DB) (int64, error) {
	args := m.Called(db)
	return args.Get(0).(int64), args.Error(1)
}

// MockAppointmentRepository is a mock implementation of repository.AppointmentRepository
type MockAppointmentRepository struct {
	mock.Mock
}

func (m *MockAppointmentRepository) Create(db *gorm.DB, appointment *entity.Appointment) error {
	args := m.Called(db, appointment)
	return args.Error(0)
}

func (m *MockAppointmentRepository) FindByID(db *gorm.DB, id uuid.UUID) (*entity.Appointment, error) {
	args := m.Called(db, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Appointment), args.Error(1)
}

func (m *MockAppointmentRepository) FindAll(db *gorm.DB) ([]entity.Appointment, error) {
	args := m.Called(db)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Appointment), args.Error(1)
}

func (m *MockAppointmentRepository) FindByPatientID(db *gorm.DB, patientID uuid.UUID) ([]entity.Appointment, error) {
	args := m.Called(db, patientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Appointment), args.Error(1)
}

func (m *MockAppointmentRepository) FindByDoctorID(db *gorm.DB, doctorID uuid.UUID) ([]entity.Appointment, error) {
	args := m.Called(db, doctorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Appointment), args.Error(1)
}

func (m *MockAppointmentRepository) FindByDate(db *gorm.DB, date time.Time) ([]entity.Appointment, error) {
	args := m.Called(db, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Appointment), args.Error(1)
}

func (m *MockAppointmentRepository) Update(db *gorm.DB, appointment *entity.Appointment) error {
	args := m.Called(db, appointment)
	return args.Error(0)
}

func (m *MockAppointmentRepository) UpdateStatus(db *gorm.DB, id uuid.UUID, status entity.AppointmentStatus) (int64, error) {
	args := m.Called(db, id, status)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockAppointmentRepository) Delete(db *gorm.DB, id uuid.UUID) (int64, error) {
	args := m.Called(db, id)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockAppointmentRepository) CountSlot(db *gorm.DB, doctorID uuid.UUID, date time.Time, timeOfDay string, excludeID uuid.UUID) (int64, error) {
	args := m.Called(db, doctorID, date, timeOfDay, excludeID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockAppointmentRepository) CountByDate(db *gorm.DB, date time.Time) (int64, error) {
	args := m.Called(db, date)
	return args.Get(0).(int64), args.Error(1)
}

// MockAuditLogRepository is a mock implementation of repository.AuditLogRepository
type MockAuditLogRepository struct {
	mock.Mock
}

func (m *MockAuditLogRepository) Create(db *gorm.DB, auditLog *entity.AuditLog) error {
	args := m.Called(db, auditLog)
	return args.Error(0)
}

func (m *MockAuditLogRepository) FindAll(db *gorm.DB, limit, offset int) ([]entity.AuditLog, int64, error) {
	args := m.Called(db, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]entity.AuditLog), args.Get(1).(int64), args.Error(2)
}

// fakeAuditService discards audit writes
type fakeAuditService struct{}

func (fakeAuditService) LogCreate(ctx context.Context, db *gorm.DB, userID *uuid.UUID, action string, entityName string, entityID string, newValue interface{}) error {
	return nil
}

func (fakeAuditService) LogUpdate(ctx context.Context, db *gorm.DB, userID *uuid.UUID, action string, entityName string, entityID string, oldValue, newValue interface{}) error {
	return nil
}

func (fakeAuditService) LogDelete(ctx context.Context, db *gorm.DB, userID *uuid.UUID, action string, entityName string, entityID string, oldValue interface{}) error {
	return nil
}

// fakeStatsCache always misses
type fakeStatsCache struct{}

func (fakeStatsCache) Get(ctx context.Context) (*dto.DashboardStatsResponse, bool) { return nil, false }
func (fakeStatsCache) Set(ctx context.Context, stats *dto.DashboardStatsResponse) {}
func (fakeStatsCache) Invalidate(ctx context.Context)                             {}
