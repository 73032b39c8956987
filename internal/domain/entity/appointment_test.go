package entity

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestIsValidAppointmentStatus(t *testing.T) {
	assert.True(t, IsValidAppointmentStatus("Scheduled"))
	assert.True(t, IsValidAppointmentStatus("Completed"))
	assert.True(t, IsValidAppointmentStatus("Cancelled"))
	assert.True(t, IsValidAppointmentStatus("NoShow"))
	assert.False(t, IsValidAppointmentStatus("scheduled"))
	assert.False(t, IsValidAppointmentStatus("Pending"))
	assert.False(t, IsValidAppointmentStatus(""))
}

func TestNormalizeClockTime(t *testing.T) {
	assert.Equal(t, "10:30", NormalizeClockTime("10:30:00"))
	assert.Equal(t, "10:30", NormalizeClockTime("10:30"))
	assert.Equal(t, "09:00", NormalizeClockTime("09:00:45"))
}

func TestSameSlot(t *testing.T) {
	doctorID := uuid.New()
	date := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

	a := &Appointment{
		DoctorID:        doctorID,
		AppointmentDate: date,
		AppointmentTime: "10:30:00", // as returned by a TIME column
	}

	assert.True(t, a.SameSlot(doctorID, date, "10:30"))
	assert.False(t, a.SameSlot(doctorID, date, "10:31"))
	assert.False(t, a.SameSlot(doctorID, date.AddDate(0, 0, 1), "10:30"))
	assert.False(t, a.SameSlot(uuid.New(), date, "10:30"))
}

func TestCancel(t *testing.T) {
	a := &Appointment{Status: AppointmentStatusScheduled}
	assert.True(t, a.IsScheduled())
	assert.False(t, a.IsCancelled())

	a.Cancel()
	assert.True(t, a.IsCancelled())
	assert.False(t, a.IsScheduled())
}

func TestIsValidBloodGroup(t *testing.T) {
	for _, bg := range BloodGroups {
		assert.True(t, IsValidBloodGroup(bg))
	}
	assert.False(t, IsValidBloodGroup("AB"))
	assert.False(t, IsValidBloodGroup("o+"))
	assert.False(t, IsValidBloodGroup(""))
}
