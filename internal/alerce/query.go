package alerce

import (
	"net/url"
	"strconv"
	"time"

	"github.com/tphakala/tom-alerce/internal/astrotime"
)

const (
	defaultPageSize = 20
	defaultMaxPages = 1
	orderModeDesc   = "DESC"
)

// QueryParameters are the validated search form values. Zero means the field
// was left empty.
type QueryParameters struct {
	NobsGT                 int     `form:"nobs__gt" validate:"gte=0"`
	NobsLT                 int     `form:"nobs__lt" validate:"gte=0"`
	LCClassifierClass      string  `form:"lc_classifier_class" validate:"max=64"`
	StampClassifierClass   string  `form:"stamp_classifier_class" validate:"max=64"`
	LCClassifierVersion    string  `form:"lc_classifier_version"`
	StampClassifierVersion string  `form:"stamp_classifier_version"`
	Probability            float64 `form:"probability" validate:"gte=0,lte=1"`
	RA                     float64 `form:"ra" validate:"gte=0,lte=360"`
	Dec                    float64 `form:"dec" validate:"gte=-90,lte=90"`
	SR                     float64 `form:"sr" validate:"gte=0"`
	MJDGT                  float64 `form:"mjd__gt" validate:"gte=0"`
	MJDLT                  float64 `form:"mjd__lt" validate:"gte=0"`
	RelativeMJDGT          float64 `form:"relative_mjd__gt" validate:"gte=0"`
	SortBy                 string  `form:"sort_by" validate:"omitempty,oneof=ndet lastmjd probability"`
	MaxPages               int     `form:"max_pages" validate:"omitempty,oneof=1 5 10 15"`
	Records                int     `form:"records" validate:"omitempty,oneof=20 100 500"`
}

// pageLimit is the number of pages a search may fetch.
func (p QueryParameters) pageLimit() int {
	if p.MaxPages <= 0 {
		return defaultMaxPages
	}
	return p.MaxPages
}

// Payload is the query string of one objects request.
type Payload struct {
	Page      int
	PageSize  int
	OrderBy   string
	OrderMode string
	Count     bool

	NDet []int

	Classifier        string
	ClassifierVersion string
	Class             string
	Probability       *float64

	RA     *float64
	Dec    *float64
	Radius *float64

	FirstMJD []float64
}

// BuildPayload assembles the objects query for one page. It is a pure
// function of its inputs; now anchors relative_mjd__gt.
//
// Two quirks of the search form are kept on purpose: a stamp classifier
// class overrides a light-curve class, and probability is only sent when a
// detection-count or class filter is also set.
func BuildPayload(params QueryParameters, page int, now time.Time) Payload {
	if page < 1 {
		page = 1
	}
	pageSize := params.Records
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}

	p := Payload{
		Page:      page,
		PageSize:  pageSize,
		OrderBy:   params.SortBy,
		OrderMode: orderModeDesc,
		Count:     true,
	}

	classFilters := params.NobsGT != 0 || params.NobsLT != 0 ||
		params.LCClassifierClass != "" || params.StampClassifierClass != ""

	if classFilters {
		if params.NobsGT != 0 || params.NobsLT != 0 {
			p.NDet = []int{}
			if params.NobsGT != 0 {
				p.NDet = append(p.NDet, params.NobsGT)
			}
			if params.NobsLT != 0 {
				if len(p.NDet) == 0 {
					p.NDet = append(p.NDet, 1)
				}
				p.NDet = append(p.NDet, params.NobsLT)
			}
		}
		if params.LCClassifierClass != "" {
			p.Classifier = ClassifierLightCurve
			p.ClassifierVersion = params.LCClassifierVersion
			p.Class = params.LCClassifierClass
		}
		if params.StampClassifierClass != "" {
			p.Classifier = ClassifierStamp
			p.ClassifierVersion = params.StampClassifierVersion
			p.Class = params.StampClassifierClass
		}
		if params.Probability != 0 {
			p.Probability = ptr(params.Probability)
		}
	}

	if params.RA != 0 && params.Dec != 0 && params.SR != 0 {
		p.RA = ptr(params.RA)
		p.Dec = ptr(params.Dec)
		p.Radius = ptr(params.SR)
	}

	if params.MJDGT != 0 || params.MJDLT != 0 || params.RelativeMJDGT != 0 {
		p.FirstMJD = []float64{}
		switch {
		case params.MJDGT != 0:
			p.FirstMJD = append(p.FirstMJD, params.MJDGT)
		case params.RelativeMJDGT != 0:
			p.FirstMJD = append(p.FirstMJD, astrotime.RelativeMJD(now.UTC(), params.RelativeMJDGT))
		}
		if params.MJDLT != 0 {
			if len(p.FirstMJD) == 0 {
				p.FirstMJD = append(p.FirstMJD, 0)
			}
			p.FirstMJD = append(p.FirstMJD, params.MJDLT)
		}
	}

	return p
}

// Values encodes the payload as query parameters. Array filters repeat the
// key once per element.
func (p Payload) Values() url.Values {
	v := url.Values{}
	v.Set("page", strconv.Itoa(p.Page))
	v.Set("page_size", strconv.Itoa(p.PageSize))
	if p.OrderBy != "" {
		v.Set("order_by", p.OrderBy)
	}
	if p.Count {
		v.Set("count", "true")
	}
	v.Set("order_mode", p.OrderMode)

	for _, n := range p.NDet {
		v.Add("ndet", strconv.Itoa(n))
	}
	if p.Classifier != "" {
		v.Set("classifier", p.Classifier)
		v.Set("classifier_version", p.ClassifierVersion)
		v.Set("class", p.Class)
	}
	if p.Probability != nil {
		v.Set("probability", formatFloat(*p.Probability))
	}
	if p.RA != nil {
		v.Set("ra", formatFloat(*p.RA))
		v.Set("dec", formatFloat(*p.Dec))
		v.Set("radius", formatFloat(*p.Radius))
	}
	for _, mjd := range p.FirstMJD {
		v.Add("firstmjd", formatFloat(mjd))
	}
	return v
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func ptr[T any](v T) *T {
	return &v
}
