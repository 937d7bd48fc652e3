package datastore

import (
	"encoding/json"
	"net/url"
	"time"
)

// TargetType distinguishes fixed-coordinate targets from solar system bodies.
type TargetType string

const (
	TargetSidereal    TargetType = "SIDEREAL"
	TargetNonSidereal TargetType = "NON_SIDEREAL"
)

// DefaultEpoch is the coordinate epoch assigned to broker-created targets.
const DefaultEpoch = 2000.0

// Target is an astronomical object of interest.
type Target struct {
	ID       uint         `gorm:"primaryKey" json:"id"`
	Name     string       `gorm:"size:100;uniqueIndex;not null" json:"name"`
	Type     TargetType   `gorm:"size:20;not null;default:SIDEREAL" json:"type"`
	RA       float64      `gorm:"column:ra" json:"ra"`
	Dec      float64      `gorm:"column:dec" json:"dec"`
	Epoch    float64      `json:"epoch"`
	Created  time.Time    `gorm:"autoCreateTime" json:"created"`
	Modified time.Time    `gorm:"autoUpdateTime" json:"modified"`
	Aliases  []TargetName `gorm:"foreignKey:TargetID;constraint:OnDelete:CASCADE" json:"aliases,omitempty"`
}

// TargetName is an alternative designation of a target.
type TargetName struct {
	ID       uint      `gorm:"primaryKey" json:"id"`
	TargetID uint      `gorm:"index;not null" json:"target_id"`
	Name     string    `gorm:"size:100;not null" json:"name"`
	Created  time.Time `gorm:"autoCreateTime" json:"created"`
	Modified time.Time `gorm:"autoUpdateTime" json:"modified"` // last modified, refreshed on every save
}

// TargetList groups targets under a name.
type TargetList struct {
	ID       uint      `gorm:"primaryKey" json:"id"`
	Name     string    `gorm:"size:200;uniqueIndex;not null" json:"name"`
	Targets  []Target  `gorm:"many2many:target_list_targets" json:"targets,omitempty"`
	Created  time.Time `gorm:"autoCreateTime" json:"created"`
	Modified time.Time `gorm:"autoUpdateTime" json:"modified"` // last modified, refreshed on every save
}

// BrokerQuery is a saved broker search. Parameters hold the submitted form
// values as JSON so a query can be re-run later.
type BrokerQuery struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	Name       string     `gorm:"size:500;uniqueIndex;not null" json:"name"`
	Broker     string     `gorm:"size:50;not null" json:"broker"`
	Parameters string     `gorm:"type:text" json:"parameters"`
	LastRun    *time.Time `json:"last_run"`
	Created    time.Time  `gorm:"autoCreateTime" json:"created"`
	Modified   time.Time  `gorm:"autoUpdateTime" json:"modified"`
}

// SetValues stores form values as the query parameters.
func (q *BrokerQuery) SetValues(v url.Values) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	q.Parameters = string(data)
	return nil
}

// Values decodes the stored query parameters.
func (q *BrokerQuery) Values() (url.Values, error) {
	v := url.Values{}
	if q.Parameters == "" {
		return v, nil
	}
	if err := json.Unmarshal([]byte(q.Parameters), &v); err != nil {
		return nil, err
	}
	return v, nil
}

// allModels lists every table managed by AutoMigrate.
func allModels() []any {
	return []any{&Target{}, &TargetName{}, &TargetList{}, &BrokerQuery{}}
}
