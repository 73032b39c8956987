package usecase

import (
	"context"
	"time"

	"hospital-management-api/internal/delivery/dto"
	"hospital-management-api/internal/domain/repository"
	"hospital-management-api/internal/service"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type DashboardUsecase interface {
	GetStats(ctx context.Context) (*dto.DashboardStatsResponse, error)
}

type dashboardUsecase struct {
	db              *gorm.DB
	log             *logrus.Logger
	patientRepo     repository.PatientRepository
	doctorRepo      repository.DoctorRepository
	appointmentRepo repository.AppointmentRepository
	statsCache      service.StatsCache
}

func NewDashboardUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	patientRepo repository.PatientRepository,
	doctorRepo repository.DoctorRepository,
	appointmentRepo repository.AppointmentRepository,
	statsCache service.StatsCache,
) DashboardUsecase {
	return &dashboardUsecase{
		db:              db,
		log:             log,
		patientRepo:     patientRepo,
		doctorRepo:      doctorRepo,
		appointmentRepo: appointmentRepo,
		statsCache:      statsCache,
	}
}

// GetStats returns the dashboard counters, served from the Redis cache when
// fresh. Today's appointment count excludes cancelled appointments.
func (u *dashboardUsecase) GetStats(ctx context.Context) (*dto.DashboardStatsResponse, error) {
	if stats, ok := u.statsCache.Get(ctx); ok {
		return stats, nil
	}

	db := u.db.WithContext(ctx)

	totalPatients, err := u.patientRepo.Count(db)
	if err != nil {
		u.log.Warnf("Failed to count patients: %+v", err)
		return nil, err
	}

	totalDoctors, err := u.doctorRepo.Count(db)
	if err != nil {
		u.log.Warnf("Failed to count doctors: %+v", err)
		return nil, err
	}

	today := time.Now().UTC().Truncate(24 * time.Hour)
	todayAppointments, err := u.appointmentRepo.CountByDate(db, today)
	if err != nil {
		u.log.Warnf("Failed to count today's appointments: %+v", err)
		return nil, err
	}

	stats := &dto.DashboardStatsResponse{
		TotalPatients:     totalPatients,
		TotalDoctors:      totalDoctors,
		TodayAppointments: todayAppointments,
	}

	u.statsCache.Set(ctx, stats)
	return stats, nil
}
