package alerce

import (
	"github.com/tphakala/tom-alerce/internal/astrotime"
	"github.com/tphakala/tom-alerce/internal/broker"
	"github.com/tphakala/tom-alerce/internal/datastore"
)

// ToGenericAlert normalizes an alert. A zero or out-of-range lastmjd leaves
// Timestamp nil.
func ToGenericAlert(a *Alert, objectURL func(oid string) string) broker.GenericAlert {
	g := broker.GenericAlert{
		URL:   objectURL(a.OID),
		ID:    a.OID,
		Name:  a.OID,
		RA:    a.MeanRA,
		Dec:   a.MeanDec,
		Mag:   a.GRMaxCorr,
		Score: a.Probability,
	}
	if a.LastMJD != 0 && astrotime.ValidMJD(a.LastMJD) {
		ts := astrotime.TimeFromMJD(a.LastMJD)
		g.Timestamp = &ts
	}
	return g
}

// NewTarget maps an alert onto an unsaved sidereal target.
func NewTarget(a *Alert) *datastore.Target {
	return &datastore.Target{
		Name:  a.OID,
		Type:  datastore.TargetSidereal,
		RA:    a.MeanRA,
		Dec:   a.MeanDec,
		Epoch: datastore.DefaultEpoch,
	}
}
