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
	ErrAppointmentNotFound = errors.New("appointment not found")
	ErrSlotTaken           = errors.New("doctor is already booked for this date and time")
	ErrAppointmentInPast   = errors.New("appointment cannot be scheduled in the past")
	ErrInvalidDateFormat   = errors.New("invalid date format, expected YYYY-MM-DD")
	ErrInvalidTimeFormat   = errors.New("invalid time format, expected HH:MM")
)

// slotConstraint is the name fragment of the partial unique index guarding
// (doctor_id, appointment_date, appointment_time) over non-cancelled rows.
const slotConstraint = "uq_appointments_slot"

type AppointmentUsecase interface {
	BookAppointment(ctx context.Context, req *dto.CreateAppointmentRequest) (*dto.AppointmentResponse, error)
	GetAppointment(ctx context.Context, id uuid.UUID) (*dto.AppointmentResponse, error)
	GetAllAppointments(ctx context.Context) (*dto.AppointmentListResponse, error)
	GetAppointmentsByPatient(ctx context.Context, patientID uuid.UUID) (*dto.AppointmentListResponse, error)
	GetAppointmentsByDoctor(ctx context.Context, doctorID uuid.UUID) (*dto.AppointmentListResponse, error)
	GetAppointmentsByDate(ctx context.Context, date string) (*dto.AppointmentListResponse, error)
	RescheduleAppointment(ctx context.Context, id uuid.UUID, req *dto.RescheduleAppointmentRequest) (*dto.AppointmentResponse, error)
	UpdateAppointment(ctx context.Context, id uuid.UUID, req *dto.UpdateAppointmentRequest) (*dto.AppointmentResponse, error)
	CancelAppointment(ctx context.Context, id uuid.UUID) error
	DeleteAppointment(ctx context.Context, id uuid.UUID) error
	CheckAvailability(ctx context.Context, doctorID uuid.UUID, date string, timeOfDay string) (*dto.AvailabilityResponse, error)
}

type appointmentUsecase struct {
	db              *gorm.DB
	log             *logrus.Logger
	appointmentRepo repository.AppointmentRepository
	patientRepo     repository.PatientRepository
	doctorRepo      repository.DoctorRepository
	auditService    service.AuditService
	statsCache      service.StatsCache
}

func NewAppointmentUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	appointmentRepo repository.AppointmentRepository,
	patientRepo repository.PatientRepository,
	doctorRepo repository.DoctorRepository,
	auditService service.AuditService,
	statsCache service.StatsCache,
) AppointmentUsecase {
	return &appointmentUsecase{
		db:              db,
		log:             log,
		appointmentRepo: appointmentRepo,
		patientRepo:     patientRepo,
		doctorRepo:      doctorRepo,
		auditService:    auditService,
		statsCache:      statsCache,
	}
}

// BookAppointment books a slot for a patient with a doctor.
//
// Flow:
// 1. Validate patient and doctor exist
// 2. Parse and validate the slot (not in the past)
// 3. Optimistic availability check (fast feedback, not authoritative)
// 4. Insert; the partial unique index rejects a concurrent double-booking,
//    which surfaces as a unique violation mapped back to ErrSlotTaken
func (u *appointmentUsecase) BookAppointment(ctx context.Context, req *dto.CreateAppointmentRequest) (*dto.AppointmentResponse, error) {
	db := u.db.WithContext(ctx)

	// Step 1: Validate patient and doctor exist
	patient, err := u.patientRepo.FindByID(db, req.PatientID)
	if err != nil {
		u.log.Warnf("Failed to find patient %s: %+v", req.PatientID, err)
		return nil, err
	}
	if patient == nil {
		return nil, ErrPatientNotFound
	}

	doctor, err := u.doctorRepo.FindByID(db, req.DoctorID)
	if err != nil {
		u.log.Warnf("Failed to find doctor %s: %+v", req.DoctorID, err)
		return nil, err
	}
	if doctor == nil {
		return nil, ErrDoctorNotFound
	}

	// Step 2: Parse and validate the slot
	date, timeOfDay, err := parseSlot(req.AppointmentDate, req.AppointmentTime)
	if err != nil {
		return nil, err
	}
	if slotInPast(date, timeOfDay, time.Now().UTC()) {
		return nil, ErrAppointmentInPast
	}

	// Step 3: Optimistic availability check. This gives a clean error on the
	// common path but cannot be trusted under concurrency.
	count, err := u.appointmentRepo.CountSlot(db, req.DoctorID, date, timeOfDay, uuid.Nil)
	if err != nil {
		u.log.Warnf("Failed to check slot availability: %+v", err)
		return nil, err
	}
	if count > 0 {
		return nil, ErrSlotTaken
	}

	// Step 4: Insert. Two requests can both pass the check above; the unique
	// index guarantees only one of them wins the slot.
	appointment := &entity.Appointment{
		PatientID:       req.PatientID,
		DoctorID:        req.DoctorID,
		AppointmentDate: date,
		AppointmentTime: timeOfDay,
		Status:          entity.AppointmentStatusScheduled,
		Notes:           req.Notes,
	}

	if err := u.appointmentRepo.Create(db, appointment); err != nil {
		if isDuplicateKeyError(err, slotConstraint) {
			return nil, ErrSlotTaken
		}
		u.log.Errorf("Failed to create appointment: %+v", err)
		return nil, err
	}

	u.audit(ctx, func(userID *uuid.UUID) error {
		return u.auditService.LogCreate(ctx, db, userID, entity.AuditActionAppointmentBook, "appointment", appointment.ID.String(), converter.AppointmentToResponse(appointment))
	})
	u.statsCache.Invalidate(ctx)

	u.log.Infof("Appointment booked: id=%s, doctor=%s, slot=%s %s", appointment.ID, req.DoctorID, req.AppointmentDate, timeOfDay)
	return u.reload(db, appointment)
}

func (u *appointmentUsecase) GetAppointment(ctx context.Context, id uuid.UUID) (*dto.AppointmentResponse, error) {
	appointment, err := u.appointmentRepo.FindByID(u.db.WithContext(ctx), id)
	if err != nil {
		u.log.Warnf("Failed to find appointment %s: %+v", id, err)
		return nil, err
	}
	if appointment == nil {
		return nil, ErrAppointmentNotFound
	}

	return converter.AppointmentToResponse(appointment), nil
}

func (u *appointmentUsecase) GetAllAppointments(ctx context.Context) (*dto.AppointmentListResponse, error) {
	appointments, err := u.appointmentRepo.FindAll(u.db.WithContext(ctx))
	if err != nil {
		u.log.Warnf("Failed to find appointments: %+v", err)
		return nil, err
	}

	return &dto.AppointmentListResponse{
		Appointments: converter.AppointmentsToResponses(appointments),
		Total:        len(appointments),
	}, nil
}

func (u *appointmentUsecase) GetAppointmentsByPatient(ctx context.Context, patientID uuid.UUID) (*dto.AppointmentListResponse, error) {
	appointments, err := u.appointmentRepo.FindByPatientID(u.db.WithContext(ctx), patientID)
	if err != nil {
		u.log.Warnf("Failed to find appointments for patient %s: %+v", patientID, err)
		return nil, err
	}

	return &dto.AppointmentListResponse{
		Appointments: converter.AppointmentsToResponses(appointments),
		Total:        len(appointments),
	}, nil
}

func (u *appointmentUsecase) GetAppointmentsByDoctor(ctx context.Context, doctorID uuid.UUID) (*dto.AppointmentListResponse, error) {
	appointments, err := u.appointmentRepo.FindByDoctorID(u.db.WithContext(ctx), doctorID)
	if err != nil {
		u.log.Warnf("Failed to find appointments for doctor %s: %+v", doctorID, err)
		return nil, err
	}

	return &dto.AppointmentListResponse{
		Appointments: converter.AppointmentsToResponses(appointments),
		Total:        len(appointments),
	}, nil
}

func (u *appointmentUsecase) GetAppointmentsByDate(ctx context.Context, date string) (*dto.AppointmentListResponse, error) {
	day, err := time.Parse("2006-01-02", date)
	if err != nil {
		return nil, ErrInvalidDateFormat
	}

	appointments, err := u.appointmentRepo.FindByDate(u.db.WithContext(ctx), day)
	if err != nil {
		u.log.Warnf("Failed to find appointments for date %s: %+v", date, err)
		return nil, err
	}

	return &dto.AppointmentListResponse{
		Appointments: converter.AppointmentsToResponses(appointments),
		Total:        len(appointments),
	}, nil
}

// RescheduleAppointment moves an appointment to a new slot. Rescheduling to
// the slot the appointment already holds is a no-op and always succeeds.
func (u *appointmentUsecase) RescheduleAppointment(ctx context.Context, id uuid.UUID, req *dto.RescheduleAppointmentRequest) (*dto.AppointmentResponse, error) {
	db := u.db.WithContext(ctx)

	appointment, err := u.appointmentRepo.FindByID(db, id)
	if err != nil {
		u.log.Warnf("Failed to find appointment %s: %+v", id, err)
		return nil, err
	}
	if appointment == nil {
		return nil, ErrAppointmentNotFound
	}

	date, timeOfDay, err := parseSlot(req.AppointmentDate, req.AppointmentTime)
	if err != nil {
		return nil, err
	}

	// Keeping the same slot never conflicts with itself
	if appointment.SameSlot(appointment.DoctorID, date, timeOfDay) {
		return converter.AppointmentToResponse(appointment), nil
	}

	if slotInPast(date, timeOfDay, time.Now().UTC()) {
		return nil, ErrAppointmentInPast
	}

	count, err := u.appointmentRepo.CountSlot(db, appointment.DoctorID, date, timeOfDay, appointment.ID)
	if err != nil {
		u.log.Warnf("Failed to check slot availability: %+v", err)
		return nil, err
	}
	if count > 0 {
		return nil, ErrSlotTaken
	}

	oldValue := converter.AppointmentToResponse(appointment)
	appointment.AppointmentDate = date
	appointment.AppointmentTime = timeOfDay

	if err := u.appointmentRepo.Update(db, appointment); err != nil {
		if isDuplicateKeyError(err, slotConstraint) {
			return nil, ErrSlotTaken
		}
		u.log.Errorf("Failed to reschedule appointment %s: %+v", id, err)
		return nil, err
	}

	u.audit(ctx, func(userID *uuid.UUID) error {
		return u.auditService.LogUpdate(ctx, db, userID, entity.AuditActionAppointmentUpdate, "appointment", appointment.ID.String(), oldValue, converter.AppointmentToResponse(appointment))
	})

	u.log.Infof("Appointment rescheduled: id=%s, slot=%s %s", id, req.AppointmentDate, timeOfDay)
	return u.reload(db, appointment)
}

// UpdateAppointment replaces every mutable field of an appointment. The slot
// is re-validated only when it actually changes; setting a Cancelled
// appointment back to an active status re-arms the unique index, so a
// conflicting reopen is rejected at write time.
func (u *appointmentUsecase) UpdateAppointment(ctx context.Context, id uuid.UUID, req *dto.UpdateAppointmentRequest) (*dto.AppointmentResponse, error) {
	db := u.db.WithContext(ctx)

	appointment, err := u.appointmentRepo.FindByID(db, id)
	if err != nil {
		u.log.Warnf("Failed to find appointment %s: %+v", id, err)
		return nil, err
	}
	if appointment == nil {
		return nil, ErrAppointmentNotFound
	}

	date, timeOfDay, err := parseSlot(req.AppointmentDate, req.AppointmentTime)
	if err != nil {
		return nil, err
	}

	if req.PatientID != appointment.PatientID {
		patient, err := u.patientRepo.FindByID(db, req.PatientID)
		if err != nil {
			u.log.Warnf("Failed to find patient %s: %+v", req.PatientID, err)
			return nil, err
		}
		if patient == nil {
			return nil, ErrPatientNotFound
		}
	}

	if req.DoctorID != appointment.DoctorID {
		doctor, err := u.doctorRepo.FindByID(db, req.DoctorID)
		if err != nil {
			u.log.Warnf("Failed to find doctor %s: %+v", req.DoctorID, err)
			return nil, err
		}
		if doctor == nil {
			return nil, ErrDoctorNotFound
		}
	}

	newStatus := entity.AppointmentStatus(req.Status)
	slotChanged := !appointment.SameSlot(req.DoctorID, date, timeOfDay)

	if slotChanged && newStatus != entity.AppointmentStatusCancelled {
		if slotInPast(date, timeOfDay, time.Now().UTC()) {
			return nil, ErrAppointmentInPast
		}

		count, err := u.appointmentRepo.CountSlot(db, req.DoctorID, date, timeOfDay, appointment.ID)
		if err != nil {
			u.log.Warnf("Failed to check slot availability: %+v", err)
			return nil, err
		}
		if count > 0 {
			return nil, ErrSlotTaken
		}
	}

	oldValue := converter.AppointmentToResponse(appointment)
	appointment.PatientID = req.PatientID
	appointment.DoctorID = req.DoctorID
	appointment.AppointmentDate = date
	appointment.AppointmentTime = timeOfDay
	appointment.Status = newStatus
	appointment.Notes = req.Notes

	if err := u.appointmentRepo.Update(db, appointment); err != nil {
		if isDuplicateKeyError(err, slotConstraint) {
			return nil, ErrSlotTaken
		}
		u.log.Errorf("Failed to update appointment %s: %+v", id, err)
		return nil, err
	}

	u.audit(ctx, func(userID *uuid.UUID) error {
		return u.auditService.LogUpdate(ctx, db, userID, entity.AuditActionAppointmentUpdate, "appointment", appointment.ID.String(), oldValue, converter.AppointmentToResponse(appointment))
	})
	u.statsCache.Invalidate(ctx)

	return u.reload(db, appointment)
}

// CancelAppointment marks the appointment cancelled and frees its slot.
// Cancelling an already-cancelled appointment succeeds and changes nothing.
func (u *appointmentUsecase) CancelAppointment(ctx context.Context, id uuid.UUID) error {
	db := u.db.WithContext(ctx)

	appointment, err := u.appointmentRepo.FindByID(db, id)
	if err != nil {
		u.log.Warnf("Failed to find appointment %s: %+v", id, err)
		return err
	}
	if appointment == nil {
		return ErrAppointmentNotFound
	}

	// Idempotent: cancelling twice is not an error
	if appointment.IsCancelled() {
		return nil
	}

	if _, err := u.appointmentRepo.UpdateStatus(db, id, entity.AppointmentStatusCancelled); err != nil {
		u.log.Errorf("Failed to cancel appointment %s: %+v", id, err)
		return err
	}

	oldValue := converter.AppointmentToResponse(appointment)
	appointment.Cancel()
	u.audit(ctx, func(userID *uuid.UUID) error {
		return u.auditService.LogUpdate(ctx, db, userID, entity.AuditActionAppointmentCancel, "appointment", id.String(), oldValue, converter.AppointmentToResponse(appointment))
	})
	u.statsCache.Invalidate(ctx)

	u.log.Infof("Appointment cancelled: id=%s", id)
	return nil
}

// DeleteAppointment removes the record entirely. Cancel is the normal path;
// delete exists for administrative cleanup.
func (u *appointmentUsecase) DeleteAppointment(ctx context.Context, id uuid.UUID) error {
	db := u.db.WithContext(ctx)

	appointment, err := u.appointmentRepo.FindByID(db, id)
	if err != nil {
		u.log.Warnf("Failed to find appointment %s: %+v", id, err)
		return err
	}
	if appointment == nil {
		return ErrAppointmentNotFound
	}

	rows, err := u.appointmentRepo.Delete(db, id)
	if err != nil {
		u.log.Errorf("Failed to delete appointment %s: %+v", id, err)
		return err
	}
	if rows == 0 {
		return ErrAppointmentNotFound
	}

	u.audit(ctx, func(userID *uuid.UUID) error {
		return u.auditService.LogDelete(ctx, db, userID, entity.AuditActionAppointmentDelete, "appointment", id.String(), converter.AppointmentToResponse(appointment))
	})
	u.statsCache.Invalidate(ctx)

	u.log.Infof("Appointment deleted: id=%s", id)
	return nil
}

// CheckAvailability reports whether a doctor's slot is currently free. The
// answer is advisory: the booking insert is the only authoritative check.
func (u *appointmentUsecase) CheckAvailability(ctx context.Context, doctorID uuid.UUID, date string, timeOfDay string) (*dto.AvailabilityResponse, error) {
	day, clock, err := parseSlot(date, timeOfDay)
	if err != nil {
		return nil, err
	}

	count, err := u.appointmentRepo.CountSlot(u.db.WithContext(ctx), doctorID, day, clock, uuid.Nil)
	if err != nil {
		u.log.Warnf("Failed to check availability for doctor %s: %+v", doctorID, err)
		return nil, err
	}

	return &dto.AvailabilityResponse{
		DoctorID:        doctorID,
		AppointmentDate: day.Format("2006-01-02"),
		AppointmentTime: clock,
		Available:       count == 0,
	}, nil
}

// reload fetches the appointment with its patient/doctor associations for the
// response. A reload failure falls back to the bare record.
func (u *appointmentUsecase) reload(db *gorm.DB, appointment *entity.Appointment) (*dto.AppointmentResponse, error) {
	full, err := u.appointmentRepo.FindByID(db, appointment.ID)
	if err != nil || full == nil {
		u.log.Warnf("Failed to reload appointment %s: %+v", appointment.ID, err)
		return converter.AppointmentToResponse(appointment), nil
	}
	return converter.AppointmentToResponse(full), nil
}

// audit writes an audit entry attributed to the authenticated user, if any.
// Audit failures never abort the operation.
func (u *appointmentUsecase) audit(ctx context.Context, write func(userID *uuid.UUID) error) {
	var actor *uuid.UUID
	if userID, ok := middleware.GetUserIDFromContext(ctx); ok {
		actor = &userID
	}
	_ = write(actor)
}

// parseSlot parses the request date and time into the stored forms.
func parseSlot(dateStr, timeStr string) (time.Time, string, error) {
	date, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		return time.Time{}, "", ErrInvalidDateFormat
	}

	clock, err := time.Parse("15:04", timeStr)
	if err != nil {
		return time.Time{}, "", ErrInvalidTimeFormat
	}

	return date, clock.Format("15:04"), nil
}

// slotInPast reports whether the slot's date+time is before now.
func slotInPast(date time.Time, timeOfDay string, now time.Time) bool {
	clock, err := time.Parse("15:04", entity.NormalizeClockTime(timeOfDay))
	if err != nil {
		return false
	}

	slot := time.Date(date.Year(), date.Month(), date.Day(), clock.Hour(), clock.Minute(), 0, 0, time.UTC)
	return slot.Before(now)
}
