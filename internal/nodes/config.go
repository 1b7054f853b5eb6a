package nodes

import (
	"fmt"
	"strings"

	"flowcal/internal/models"
)

// Field values in the node configs may reference flow variables as ${name}.

// CreateConfig configures the create node.
type CreateConfig struct {
	Summary        string `json:"summary"`
	Description    string `json:"description"`
	Location       string `json:"location"`
	StartTime      string `json:"startTime"`
	EndTime        string `json:"endTime"`
	Reminders      string `json:"reminders"`
	ResultVariable string `json:"resultVariable"`
}

// Validate checks the static create settings.
func (c CreateConfig) Validate() error {
	return requireResultVariable(c.ResultVariable)
}

// UpdateConfig configures the update node. Empty fields keep the event's current value.
type UpdateConfig struct {
	EventID        string `json:"eventId"`
	Summary        string `json:"summary"`
	Description    string `json:"description"`
	Location       string `json:"location"`
	StartTime      string `json:"startTime"`
	EndTime        string `json:"endTime"`
	Reminders      string `json:"reminders"`
	SendUpdates    string `json:"sendUpdates"`
	ResultVariable string `json:"resultVariable"`
}

// Validate checks the static update settings.
func (c UpdateConfig) Validate() error {
	if _, err := models.ParseNotifyPolicy(c.SendUpdates); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return requireResultVariable(c.ResultVariable)
}

// DeleteConfig configures the delete node.
type DeleteConfig struct {
	EventID        string `json:"eventId"`
	SendUpdates    string `json:"sendUpdates"`
	ResultVariable string `json:"resultVariable"`
}

// Validate checks the static delete settings.
func (c DeleteConfig) Validate() error {
	if _, err := models.ParseNotifyPolicy(c.SendUpdates); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return requireResultVariable(c.ResultVariable)
}

// ListMode selects which events the list node fetches.
type ListMode string

const (
	ModeUpcoming  ListMode = "UPCOMING"
	ModeTimeRange ListMode = "TIME_RANGE"
	ModeSearch    ListMode = "SEARCH"
	ModeAll       ListMode = "ALL"
)

// ParseListMode is case-insensitive. Empty means ModeUpcoming.
func ParseListMode(s string) (ListMode, error) {
	switch m := ListMode(strings.ToUpper(strings.TrimSpace(s))); m {
	case "":
		return ModeUpcoming, nil
	case ModeUpcoming, ModeTimeRange, ModeSearch, ModeAll:
		return m, nil
	}
	return "", fmt.Errorf("%w: unknown list mode %q", ErrInvalidConfig, s)
}

// Output formats of the list node.
const (
	FormatJSON = "json"
	FormatICS  = "ics"
)

// ListConfig configures the list node.
type ListConfig struct {
	Mode           string `json:"mode"`
	SearchQuery    string `json:"searchQuery"`
	StartTime      string `json:"startTime"`
	EndTime        string `json:"endTime"`
	MaxResults     string `json:"maxResults"`
	ResultVariable string `json:"resultVariable"`
	Format         string `json:"format"`
}

// Validate checks the list mode and result variable.
func (c ListConfig) Validate() error {
	if _, err := ParseListMode(c.Mode); err != nil {
		return err
	}
	switch c.Format {
	case "", FormatJSON, FormatICS:
	default:
		return fmt.Errorf("%w: unknown output format %q", ErrInvalidConfig, c.Format)
	}
	return requireResultVariable(c.ResultVariable)
}

func requireResultVariable(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: result variable is required", ErrInvalidConfig)
	}
	return nil
}
