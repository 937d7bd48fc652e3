package broker

// Field types understood by form renderers.
const (
	FieldInteger = "integer"
	FieldFloat   = "float"
	FieldChoice  = "choice"
	FieldText    = "text"
)

// Form is a renderer-neutral description of a broker query form.
type Form struct {
	Broker    string     `json:"broker"`
	Fieldsets []Fieldset `json:"fieldsets"`
}

// Fieldset groups related fields under a heading.
type Fieldset struct {
	Name   string  `json:"name"`
	Fields []Field `json:"fields"`
}

// Field is one query input.
type Field struct {
	Name        string   `json:"name"`
	Label       string   `json:"label"`
	Type        string   `json:"type"`
	Choices     []Choice `json:"choices,omitempty"`
	Initial     string   `json:"initial,omitempty"`
	Disabled    bool     `json:"disabled,omitempty"`
	Placeholder string   `json:"placeholder,omitempty"`
}

// Choice is a selectable option. An empty Value means "no selection".
type Choice struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Field returns the named field, searching every fieldset.
func (f *Form) Field(name string) (Field, bool) {
	for _, fs := range f.Fieldsets {
		for _, field := range fs.Fields {
			if field.Name == name {
				return field, true
			}
		}
	}
	return Field{}, false
}

// FieldNames lists every field name in display order.
func (f *Form) FieldNames() []string {
	var names []string
	for _, fs := range f.Fieldsets {
		for _, field := range fs.Fields {
			names = append(names, field.Name)
		}
	}
	return names
}
