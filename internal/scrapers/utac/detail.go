package utac

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"utac-backend/pkg/htmlutil"
	"utac-backend/pkg/textutil"

	"github.com/PuerkitoBio/goquery"
)

const report_scraper_detail = "scraper.detail"

// detailLink is a "Voir le détail" link of a results page, either a plain
// href or a postback.
type detailLink struct {
	href     string
	postback PostbackLink
	isPost   bool
}

func findDetailLink(doc *goquery.Document) (detailLink, bool) {
	var out detailLink
	found := false
	doc.Find("table a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		if !strings.Contains(textutil.NormalizeName(a.Text()), "detail") {
			return true
		}
		href := strings.TrimSpace(a.AttrOr("href", ""))
		if strings.HasPrefix(href, "javascript:") {
			link, ok := ParsePostbackLink(href)
			if !ok {
				return true
			}
			out = detailLink{postback: link, isPost: true}
		} else {
			out = detailLink{href: href}
		}
		found = true
		return false
	})
	return out, found
}

var detailFields = []struct {
	keyword string
	set     func(r *CenterRecord, v string)
}{
	{keyword: "raison sociale", set: func(r *CenterRecord, v string) { r.RaisonSociale = v }},
	{keyword: "enseigne", set: func(r *CenterRecord, v string) { r.Enseigne = v }},
	{keyword: "adresse", set: func(r *CenterRecord, v string) { r.Adresse = v }},
	{keyword: "ville", set: func(r *CenterRecord, v string) { r.Ville = v }},
	{keyword: "tel", set: func(r *CenterRecord, v string) { r.Telephone = v }},
	{keyword: "option", set: func(r *CenterRecord, v string) { r.Option = v }},
	{keyword: "site internet", set: func(r *CenterRecord, v string) { r.SiteInternet = v }},
}

// applyDetailLine fills the field named by a "label: value" line.
func applyDetailLine(record *CenterRecord, line string) {
	label, value, ok := strings.Cut(line, ":")
	if !ok {
		return
	}
	label = textutil.NormalizeName(label)
	value = strings.TrimSpace(value)
	if value == "" {
		return
	}
	for _, f := range detailFields {
		if strings.Contains(label, f.keyword) {
			f.set(record, value)
			return
		}
	}
}

// parseDetailPage reads "label: value" pairs, first from the lines of the
// page text and then, if that gave nothing, from individual elements.
func parseDetailPage(doc *goquery.Document, identifier string) CenterRecord {
	record := CenterRecord{AgreementNumber: identifier}

	body := doc.Find("body")
	if body.Length() == 0 {
		body = doc.Selection
	}
	for _, line := range strings.Split(body.Text(), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			applyDetailLine(&record, line)
		}
	}
	if record.Identified() {
		return withPostalCode(record)
	}

	doc.Find("label,span,div,td").Each(func(_ int, sel *goquery.Selection) {
		applyDetailLine(&record, htmlutil.CleanText(sel.Text()))
	})
	return withPostalCode(record)
}

// followDetail loads the detail page a results page links to.
func (s *Scraper) followDetail(ctx context.Context, results *goquery.Document, identifier string) (CenterRecord, bool, error) {
	link, ok := findDetailLink(results)
	if !ok {
		return CenterRecord{}, false, nil
	}

	var (
		page   *goquery.Document
		source string
		err    error
	)
	if link.isPost {
		state, stateErr := ExtractFormState(results)
		if stateErr != nil {
			s.tel.ReportWarning(report_scraper_detail, stateErr, link.postback.Target)
			return CenterRecord{}, false, nil
		}
		source = s.searchUrl
		page, err = post(ctx, s.transport, s.searchUrl, PostbackPayload(state, link.postback))
	} else {
		source, err = resolveUrl(s.searchUrl, link.href)
		if err != nil {
			s.tel.ReportWarning(report_scraper_detail, err, link.href)
			return CenterRecord{}, false, nil
		}
		page, err = get(ctx, s.transport, source)
	}
	if err != nil {
		return CenterRecord{}, false, fmt.Errorf("load detail page: %w", err)
	}

	record := parseDetailPage(page, identifier)
	record.Source = source
	return record, record.Identified(), nil
}

func resolveUrl(base, ref string) (string, error) {
	baseUrl, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	refUrl, err := url.Parse(ref)
	if err != nil {
		return "", err
	}
	return baseUrl.ResolveReference(refUrl).String(), nil
}
