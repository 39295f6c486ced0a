package utac

import (
	"fmt"
	"strings"
)

// Mode selects which criteria kind the search form is submitted with.
type Mode int

const (
	MODE_IDENTIFIER Mode = iota
	MODE_REGION
)

// Label is the value of the criteria kind selector for the mode.
func (m Mode) Label() string {
	switch m {
	case MODE_IDENTIFIER:
		return "Agrement"
	case MODE_REGION:
		return "Departement"
	}
	panic(fmt.Sprintf("unknown search mode %d", m))
}

func (m Mode) String() string {
	switch m {
	case MODE_IDENTIFIER:
		return "identifier"
	case MODE_REGION:
		return "region"
	}
	return "unknown"
}

type SearchCriteria struct {
	FieldName string
	Value     string
	Mode      Mode
}

// CenterRecord is one inspection center as listed by the site.
type CenterRecord struct {
	AgreementNumber string `json:"agreement_number"`
	RaisonSociale   string `json:"raison_sociale"`
	Enseigne        string `json:"enseigne"`
	Adresse         string `json:"adresse"`
	Ville           string `json:"ville"`
	CodePostal      string `json:"code_postal"`
	Telephone       string `json:"telephone"`
	Option          string `json:"option"`
	SiteInternet    string `json:"site_internet"`
	// RegionCode is only set when records are aggregated by a crawl.
	RegionCode string `json:"region_code,omitempty"`
	// Source is where an identifier search found the record.
	Source string `json:"source,omitempty"`
}

// Identified reports if the record carries any of the fields that make an
// identifier search result usable.
func (r CenterRecord) Identified() bool {
	for _, field := range []string{r.RaisonSociale, r.Enseigne, r.Adresse, r.Ville, r.Telephone} {
		if strings.TrimSpace(field) != "" {
			return true
		}
	}
	return false
}

// RegionResult is every record found for one region code.
type RegionResult struct {
	RegionCode   string         `json:"region_code"`
	TotalCenters int            `json:"total_centers"`
	Centers      []CenterRecord `json:"centers"`
	// Pagination describes how walking the result pages ended.
	Pagination Outcome `json:"-"`
}
