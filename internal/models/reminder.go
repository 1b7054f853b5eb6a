package models

import (
	"fmt"
	"strconv"
	"strings"
)

// ReminderMethod is how a reminder is delivered.
type ReminderMethod string

const (
	ReminderEmail ReminderMethod = "email"
	ReminderPopup ReminderMethod = "popup"
	ReminderSMS   ReminderMethod = "sms"
)

// Valid reports whether m is one of the supported methods.
func (m ReminderMethod) Valid() bool {
	switch m {
	case ReminderEmail, ReminderPopup, ReminderSMS:
		return true
	}
	return false
}

// Reminder is a notification override sent Minutes before the event starts.
type Reminder struct {
	Method  ReminderMethod
	Minutes int
}

// Validate checks the method and lead time.
func (r Reminder) Validate() error {
	if !r.Method.Valid() {
		return fmt.Errorf("%w: method %q is not one of email, popup or sms", ErrInvalidReminder, r.Method)
	}
	if r.Minutes < 0 {
		return fmt.Errorf("%w: minutes must not be negative, got %d", ErrInvalidReminder, r.Minutes)
	}
	return nil
}

func (r Reminder) String() string {
	return fmt.Sprintf("%s:%d", r.Method, r.Minutes)
}

// ParseReminders parses the "method:minutes,method:minutes" format, e.g. "email:15,popup:30".
// A blank input yields no reminders. Any malformed pair fails the whole input.
func ParseReminders(s string) ([]Reminder, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}

	var reminders []Reminder
	for _, pair := range strings.Split(s, ",") {
		pair = strings.TrimSpace(pair)
		parts := strings.Split(pair, ":")
		if len(parts) != 2 {
			return nil, fmt.Errorf("%w: %q, use 'method:minutes' (e.g. 'email:15')", ErrInvalidReminder, pair)
		}

		minutes, err := strconv.Atoi(strings.TrimSpace(parts[1]))
		if err != nil {
			return nil, fmt.Errorf("%w: minutes in %q must be a number", ErrInvalidReminder, pair)
		}

		r := Reminder{Method: ReminderMethod(strings.TrimSpace(parts[0])), Minutes: minutes}
		if err := r.Validate(); err != nil {
			return nil, err
		}
		reminders = append(reminders, r)
	}
	return reminders, nil
}
