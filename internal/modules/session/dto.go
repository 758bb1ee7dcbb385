package session

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

var timePattern = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

// CreateSessionDTO is the request body for creating a session.
type CreateSessionDTO struct {
	Topic        string `json:"topic" binding:"required"`
	Date         string `json:"date" binding:"required"`
	ActivityType string `json:"activity_type"`
	Facilitator  string `json:"facilitator"`
	Responsible  string `json:"responsible"`
	Role         string `json:"role"`
	Content      string `json:"content"`
	StartTime    string `json:"start_time" binding:"required"`
	EndTime      string `json:"end_time" binding:"required"`
}

// UpdateSessionDTO is a merge-patch body; absent fields stay untouched.
type UpdateSessionDTO struct {
	Topic        *string `json:"topic"`
	Date         *string `json:"date"`
	ActivityType *string `json:"activity_type"`
	Facilitator  *string `json:"facilitator"`
	Responsible  *string `json:"responsible"`
	Role         *string `json:"role"`
	Content      *string `json:"content"`
	StartTime    *string `json:"start_time"`
	EndTime      *string `json:"end_time"`
	TokenActive  *bool   `json:"token_active"`
}

func (d *CreateSessionDTO) validate() error {
	if strings.TrimSpace(d.Topic) == "" {
		return errors.New("topic must not be blank")
	}
	if err := validateDate(d.Date); err != nil {
		return err
	}
	return validateTimeRange(d.StartTime, d.EndTime)
}

func (d *CreateSessionDTO) toInput() CreateInput {
	return CreateInput{
		Topic:        strings.TrimSpace(d.Topic),
		Date:         d.Date,
		ActivityType: strings.TrimSpace(d.ActivityType),
		Facilitator:  strings.TrimSpace(d.Facilitator),
		Responsible:  strings.TrimSpace(d.Responsible),
		Role:         strings.TrimSpace(d.Role),
		Content:      strings.TrimSpace(d.Content),
		StartTime:    d.StartTime,
		EndTime:      d.EndTime,
	}
}

func (d *UpdateSessionDTO) validate(current *WithCount) error {
	if d.Topic != nil && strings.TrimSpace(*d.Topic) == "" {
		return errors.New("topic must not be blank")
	}
	if d.Date != nil {
		if err := validateDate(*d.Date); err != nil {
			return err
		}
	}
	if d.StartTime != nil || d.EndTime != nil {
		start := current.StartTime
		end := current.EndTime
		if d.StartTime != nil {
			start = *d.StartTime
		}
		if d.EndTime != nil {
			end = *d.EndTime
		}
		return validateTimeRange(start, end)
	}
	return nil
}

func (d *UpdateSessionDTO) toPatch() UpdateInput {
	return UpdateInput{
		Topic:        d.Topic,
		Date:         d.Date,
		ActivityType: d.ActivityType,
		Facilitator:  d.Facilitator,
		Responsible:  d.Responsible,
		Role:         d.Role,
		Content:      d.Content,
		StartTime:    d.StartTime,
		EndTime:      d.EndTime,
		TokenActive:  d.TokenActive,
	}
}

func validateDate(s string) error {
	if _, err := time.Parse("2006-01-02", s); err != nil {
		return fmt.Errorf("date %q is not a valid YYYY-MM-DD date", s)
	}
	return nil
}

func validateTimeRange(start, end string) error {
	if !timePattern.MatchString(start) {
		return fmt.Errorf("start_time %q is not a valid HH:MM time", start)
	}
	if !timePattern.MatchString(end) {
		return fmt.Errorf("end_time %q is not a valid HH:MM time", end)
	}
	if end <= start {
		return fmt.Errorf("end_time %s must be after start_time %s", end, start)
	}
	return nil
}
