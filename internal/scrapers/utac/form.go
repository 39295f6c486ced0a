package utac

import (
	"net/url"
	"sort"
	"utac-backend/pkg/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

const (
	formSelector   = "form#aspnetForm"
	criteriaMarker = "critereValueInput"
	modeMarker     = "ddlCritereField"
	submitLabel    = "Rechercher"

	eventTargetField   = "__EVENTTARGET"
	eventArgumentField = "__EVENTARGUMENT"
)

// FormState is the hidden field state of one fetched page. It is never
// mutated, Payload returns a fresh copy to build the next request from.
type FormState struct {
	fields map[string]string
}

func NewFormState(fields map[string]string) FormState {
	copied := make(map[string]string, len(fields))
	for k, v := range fields {
		copied[k] = v
	}
	return FormState{fields: copied}
}

func (s FormState) Get(name string) (string, bool) {
	v, ok := s.fields[name]
	return v, ok
}

func (s FormState) Len() int {
	return len(s.fields)
}

func (s FormState) Names() []string {
	names := make([]string, 0, len(s.fields))
	for name := range s.fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Payload returns the hidden state with the overrides applied on top.
func (s FormState) Payload(overrides map[string]string) url.Values {
	out := make(url.Values, len(s.fields)+len(overrides))
	for k, v := range s.fields {
		out.Set(k, v)
	}
	for k, v := range overrides {
		out.Set(k, v)
	}
	return out
}

// Controls are the names of the search form's inputs. The names are
// generated by the site and change between deployments, only the markers
// they contain are stable.
type Controls struct {
	CriteriaField string
	ModeField     string
	// SubmitField is empty when the page has no submit button, the search
	// still works without it.
	SubmitField string
	SubmitValue string
}

func findForm(doc *goquery.Document) (*goquery.Selection, error) {
	form := doc.Find(formSelector).First()
	if form.Length() == 0 {
		return nil, ErrFormNotFound
	}
	return form, nil
}

// ExtractFormState captures every named hidden input of the search form.
func ExtractFormState(doc *goquery.Document) (FormState, error) {
	form, err := findForm(doc)
	if err != nil {
		return FormState{}, err
	}

	fields := map[string]string{}
	form.Find("input[type=hidden]").Each(func(_ int, input *goquery.Selection) {
		name := input.AttrOr("name", "")
		if name == "" {
			return
		}
		fields[name] = input.AttrOr("value", "")
	})
	return FormState{fields: fields}, nil
}

// FindControls locates the criteria field, the criteria kind selector and
// the optional submit button of the search form.
func FindControls(doc *goquery.Document) (Controls, error) {
	form, err := findForm(doc)
	if err != nil {
		return Controls{}, err
	}

	criteria, ok := htmlutil.FindByAttributeSubstring(form, "input[type=text]", "name", criteriaMarker)
	if !ok {
		return Controls{}, ErrControlsNotFound
	}
	mode, ok := htmlutil.FindByAttributeSubstring(form, "select", "name", modeMarker)
	if !ok {
		return Controls{}, ErrControlsNotFound
	}

	controls := Controls{
		CriteriaField: criteria.AttrOr("name", ""),
		ModeField:     mode.AttrOr("name", ""),
	}
	submit, ok := htmlutil.FindByAttribute(form, "input[type=submit]", "value", submitLabel)
	if ok {
		controls.SubmitField = submit.AttrOr("name", "")
		controls.SubmitValue = submit.AttrOr("value", submitLabel)
	}
	return controls, nil
}

// Criteria targets the criteria field of the controls with a value.
func (c Controls) Criteria(mode Mode, value string) SearchCriteria {
	return SearchCriteria{
		FieldName: c.CriteriaField,
		Value:     value,
		Mode:      mode,
	}
}

// SearchPayload is the postback of a normal search submit.
func SearchPayload(state FormState, controls Controls, criteria SearchCriteria) url.Values {
	overrides := map[string]string{
		criteria.FieldName: criteria.Value,
		controls.ModeField: criteria.Mode.Label(),
		eventTargetField:   "",
		eventArgumentField: "",
	}
	if controls.SubmitField != "" {
		overrides[controls.SubmitField] = controls.SubmitValue
	}
	return state.Payload(overrides)
}

// PostbackPayload is the postback of a control initiated submit, like a
// click on a pagination link.
func PostbackPayload(state FormState, link PostbackLink) url.Values {
	return state.Payload(map[string]string{
		eventTargetField:   link.Target,
		eventArgumentField: link.Argument,
	})
}
