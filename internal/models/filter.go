package models

import (
	"fmt"
	"time"
)

// NotifyPolicy controls who is notified about an update or deletion.
type NotifyPolicy string

const (
	NotifyAll          NotifyPolicy = "all"
	NotifyExternalOnly NotifyPolicy = "externalOnly"
	NotifyNone         NotifyPolicy = "none"
)

// ParseNotifyPolicy maps a config value to a policy. Empty means NotifyAll.
func ParseNotifyPolicy(s string) (NotifyPolicy, error) {
	switch p := NotifyPolicy(s); p {
	case "":
		return NotifyAll, nil
	case NotifyAll, NotifyExternalOnly, NotifyNone:
		return p, nil
	}
	return "", fmt.Errorf("unknown send-updates policy %q (use all, externalOnly or none)", s)
}

// ListFilter narrows an event listing. Zero values mean "no constraint".
type ListFilter struct {
	TimeMin          time.Time
	TimeMax          time.Time
	Query            string
	MaxResults       int64
	OrderByStartTime bool
}
