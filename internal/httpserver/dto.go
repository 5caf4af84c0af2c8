package httpserver

import (
	"github.com/Skotchmaster/triketime/internal/models"
	"github.com/Skotchmaster/triketime/internal/service"
)

type shiftDTO struct {
	ID        uint    `json:"id"`
	StartTime string  `json:"start_time"`
	EndTime   *string `json:"end_time"`
	Activity  *string `json:"activity"`
}

type activityDTO struct {
	ID        uint    `json:"id"`
	Activity  string  `json:"activity"`
	ShiftID   *uint   `json:"shift_id"`
	StartTime string  `json:"start_time"`
	EndTime   *string `json:"end_time"`
}

func toShiftDTO(s *models.Shift) *shiftDTO {
	if s == nil {
		return nil
	}
	out := &shiftDTO{
		ID:        s.ID,
		StartTime: service.FormatTimestamp(s.StartTime),
		Activity:  s.Activity,
	}
	if s.EndTime != nil {
		end := service.FormatTimestamp(*s.EndTime)
		out.EndTime = &end
	}
	return out
}

func toShiftDTOs(shifts []models.Shift) []*shiftDTO {
	out := make([]*shiftDTO, 0, len(shifts))
	for i := range shifts {
		out = append(out, toShiftDTO(&shifts[i]))
	}
	return out
}

func toActivityDTO(a *models.Activity) *activityDTO {
	if a == nil {
		return nil
	}
	out := &activityDTO{
		ID:        a.ID,
		Activity:  a.Tag,
		ShiftID:   a.ShiftID,
		StartTime: service.FormatTimestamp(a.StartTime),
	}
	if a.EndTime != nil {
		end := service.FormatTimestamp(*a.EndTime)
		out.EndTime = &end
	}
	return out
}
