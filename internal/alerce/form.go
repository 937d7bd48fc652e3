package alerce

import (
	"fmt"
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/tphakala/tom-alerce/internal/broker"
	"github.com/tphakala/tom-alerce/internal/errors"
)

// Form field names.
const (
	FieldNobsGT                 = "nobs__gt"
	FieldNobsLT                 = "nobs__lt"
	FieldLCClassifierClass      = "lc_classifier_class"
	FieldStampClassifierClass   = "stamp_classifier_class"
	FieldLCClassifierVersion    = "lc_classifier_version"
	FieldStampClassifierVersion = "stamp_classifier_version"
	FieldProbability            = "probability"
	FieldRA                     = "ra"
	FieldDec                    = "dec"
	FieldSR                     = "sr"
	FieldMJDGT                  = "mjd__gt"
	FieldMJDLT                  = "mjd__lt"
	FieldRelativeMJDGT          = "relative_mjd__gt"
	FieldSortBy                 = "sort_by"
	FieldMaxPages               = "max_pages"
	FieldRecords                = "records"
)

var (
	sortChoices = []broker.Choice{
		{Value: "ndet", Label: "Number Of Epochs"},
		{Value: "lastmjd", Label: "Last Detection"},
		{Value: "probability", Label: "Class Probability"},
	}
	pagesChoices   = numericChoices(1, 5, 10, 15)
	recordsChoices = numericChoices(20, 100, 500)
)

func numericChoices(values ...int) []broker.Choice {
	choices := make([]broker.Choice, 0, len(values))
	for _, v := range values {
		s := strconv.Itoa(v)
		choices = append(choices, broker.Choice{Value: s, Label: s})
	}
	return choices
}

// ClassChoices returns the selectable classes of one classifier version,
// preceded by an empty "no selection" choice.
func ClassChoices(metadata []ClassifierInfo, classifier, version string) []broker.Choice {
	choices := []broker.Choice{{Value: "", Label: ""}}
	for _, c := range metadata {
		if c.ClassifierName != classifier || c.ClassifierVersion != version {
			continue
		}
		for _, class := range c.Classes {
			choices = append(choices, broker.Choice{Value: class, Label: class})
		}
	}
	return choices
}

// BuildQueryForm describes the ALeRCE search form. It performs no I/O:
// classifier metadata comes from Client.FetchClassifiers.
func BuildQueryForm(metadata []ClassifierInfo, lcVersion, stampVersion string) *broker.Form {
	return &broker.Form{
		Broker: BrokerName,
		Fieldsets: []broker.Fieldset{
			{
				Name: "Number of Epochs",
				Fields: []broker.Field{
					{Name: FieldNobsGT, Label: "Detections Lower", Type: broker.FieldInteger, Placeholder: "Min number of epochs"},
					{Name: FieldNobsLT, Label: "Detections Upper", Type: broker.FieldInteger, Placeholder: "Max number of epochs"},
				},
			},
			{
				Name: "Classification Filters",
				Fields: []broker.Field{
					{
						Name: FieldLCClassifierClass, Label: "Light Curve Classifier Class", Type: broker.FieldChoice,
						Choices: ClassChoices(metadata, ClassifierLightCurve, lcVersion),
					},
					{
						Name: FieldStampClassifierClass, Label: "Stamp Classifier Class", Type: broker.FieldChoice,
						Choices: ClassChoices(metadata, ClassifierStamp, stampVersion),
					},
					{Name: FieldProbability, Label: "Class minimum probability", Type: broker.FieldFloat},
					{Name: FieldLCClassifierVersion, Label: "Lc classifier version", Type: broker.FieldText, Initial: lcVersion, Disabled: true},
					{Name: FieldStampClassifierVersion, Label: "Stamp classifier version", Type: broker.FieldText, Initial: stampVersion, Disabled: true},
				},
			},
			{
				Name: "Location Filters",
				Fields: []broker.Field{
					{Name: FieldRA, Label: "RA", Type: broker.FieldFloat, Placeholder: "RA (Degrees)"},
					{Name: FieldDec, Label: "Dec", Type: broker.FieldFloat, Placeholder: "Dec (Degrees)"},
					{Name: FieldSR, Label: "Search Radius", Type: broker.FieldFloat, Placeholder: "SR (Degrees)"},
				},
			},
			{
				Name: "Time Filters",
				Fields: []broker.Field{
					{Name: FieldRelativeMJDGT, Label: "Relative date of object discovery.", Type: broker.FieldFloat, Placeholder: "Hours"},
					{Name: FieldMJDGT, Label: "Min date of first detection", Type: broker.FieldFloat, Placeholder: "Date (MJD)"},
					{Name: FieldMJDLT, Label: "Max date of first detection", Type: broker.FieldFloat, Placeholder: "Date (MJD)"},
				},
			},
			{
				Name: "General Parameters",
				Fields: []broker.Field{
					{Name: FieldSortBy, Label: "Sort By", Type: broker.FieldChoice, Choices: sortChoices},
					{Name: FieldRecords, Label: "Records per page", Type: broker.FieldChoice, Choices: recordsChoices},
					{Name: FieldMaxPages, Label: "Max Number of Pages", Type: broker.FieldChoice, Choices: pagesChoices},
				},
			},
		},
	}
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		// report form names instead of Go field names
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name, _, _ := strings.Cut(fld.Tag.Get("form"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// ParseQuery converts submitted form values into QueryParameters. Unknown
// keys are ignored, empty values mean "not set" and the disabled version
// fields always take the configured versions.
func ParseQuery(values url.Values, lcVersion, stampVersion string) (QueryParameters, error) {
	p := QueryParameters{
		LCClassifierVersion:    lcVersion,
		StampClassifierVersion: stampVersion,
		LCClassifierClass:      strings.TrimSpace(values.Get(FieldLCClassifierClass)),
		StampClassifierClass:   strings.TrimSpace(values.Get(FieldStampClassifierClass)),
		SortBy:                 strings.TrimSpace(values.Get(FieldSortBy)),
	}

	var fieldErrs []string
	parseInt := func(field string, dst *int) {
		s := strings.TrimSpace(values.Get(field))
		if s == "" {
			return
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			fieldErrs = append(fieldErrs, fmt.Sprintf("%s: enter a whole number", field))
			return
		}
		*dst = n
	}
	parseFloat := func(field string, dst *float64) {
		s := strings.TrimSpace(values.Get(field))
		if s == "" {
			return
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			fieldErrs = append(fieldErrs, fmt.Sprintf("%s: enter a number", field))
			return
		}
		*dst = f
	}

	parseInt(FieldNobsGT, &p.NobsGT)
	parseInt(FieldNobsLT, &p.NobsLT)
	parseInt(FieldMaxPages, &p.MaxPages)
	parseInt(FieldRecords, &p.Records)
	parseFloat(FieldProbability, &p.Probability)
	parseFloat(FieldRA, &p.RA)
	parseFloat(FieldDec, &p.Dec)
	parseFloat(FieldSR, &p.SR)
	parseFloat(FieldMJDGT, &p.MJDGT)
	parseFloat(FieldMJDLT, &p.MJDLT)
	parseFloat(FieldRelativeMJDGT, &p.RelativeMJDGT)

	if len(fieldErrs) == 0 {
		if err := getValidator().Struct(p); err != nil {
			var verrs validator.ValidationErrors
			if !errors.As(err, &verrs) {
				return QueryParameters{}, err
			}
			for _, fe := range verrs {
				fieldErrs = append(fieldErrs, describeFieldError(fe))
			}
		}
	}

	if len(fieldErrs) > 0 {
		return QueryParameters{}, errors.Newf("invalid query: %s", strings.Join(fieldErrs, "; ")).
			Component("alerce").
			Category(errors.CategoryValidation).
			Context("fields", fieldErrs).
			Build()
	}
	return p, nil
}

func describeFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "oneof":
		return fmt.Sprintf("%s: must be one of %s", fe.Field(), fe.Param())
	case "gte":
		return fmt.Sprintf("%s: must be at least %s", fe.Field(), fe.Param())
	case "lte":
		return fmt.Sprintf("%s: must be at most %s", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s: must be at most %s characters", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s: failed %s validation", fe.Field(), fe.Tag())
	}
}
