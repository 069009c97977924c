package usecases

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/abgtour/planttour/internal/core/domain"
	"github.com/abgtour/planttour/internal/core/ports"
)

// ErrCalibrationUnavailable is returned when no store is configured.
var ErrCalibrationUnavailable = errors.New("calibration store not configured")

// CalibrationService stores the per-device heading calibration offset.
type CalibrationService struct {
	store ports.CacheService
}

// NewCalibrationService creates a new CalibrationService.
func NewCalibrationService(store ports.CacheService) *CalibrationService {
	return &CalibrationService{store: store}
}

func calibrationKey(device string) string { return "calibration:" + device }

// Get returns the offset in degrees, or 0 when the device never calibrated.
func (s *CalibrationService) Get(ctx context.Context, device string) (float64, error) {
	if device == "" {
		return 0, fmt.Errorf("device id must not be empty")
	}
	if s.store == nil {
		return 0, ErrCalibrationUnavailable
	}

	data, err := s.store.Get(ctx, calibrationKey(device))
	if errors.Is(err, domain.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get calibration: %w", err)
	}

	v, err := strconv.ParseFloat(string(data), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, nil
	}
	return v, nil
}

// Set stores an offset, normalised to [-180, 180), and returns it.
func (s *CalibrationService) Set(ctx context.Context, device string, degrees float64) (float64, error) {
	if device == "" {
		return 0, fmt.Errorf("device id must not be empty")
	}
	if math.IsNaN(degrees) || math.IsInf(degrees, 0) {
		return 0, fmt.Errorf("calibration offset must be a finite number")
	}
	if s.store == nil {
		return 0, ErrCalibrationUnavailable
	}

	v := NormalizeDegrees(degrees)
	if err := s.store.Set(ctx, calibrationKey(device), []byte(strconv.FormatFloat(v, 'f', -1, 64)), 0); err != nil {
		return 0, fmt.Errorf("set calibration: %w", err)
	}
	return v, nil
}

// NormalizeDegrees maps any angle onto [-180, 180).
func NormalizeDegrees(d float64) float64 {
	v := math.Mod(d+180, 360)
	if v < 0 {
		v += 360
	}
	return v - 180
}
