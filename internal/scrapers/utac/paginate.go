package utac

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"utac-backend/internal/components/assert"
	"utac-backend/internal/components/telemetry"
	"utac-backend/pkg/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

const DefaultMaxPageTransitions = 50

const report_navigator_postback = "navigator.postback"

// Termination is the reason a walk over result pages stopped.
type Termination int

const (
	TERMINATION_NO_NEXT Termination = iota
	TERMINATION_BOUND_EXCEEDED
	TERMINATION_TRANSPORT_FAILURE
	// TERMINATION_MALFORMED_POSTBACK means a next page link was found but
	// the page had no form to replay it with.
	TERMINATION_MALFORMED_POSTBACK
)

func (t Termination) String() string {
	switch t {
	case TERMINATION_NO_NEXT:
		return "no-next"
	case TERMINATION_BOUND_EXCEEDED:
		return "bound-exceeded"
	case TERMINATION_TRANSPORT_FAILURE:
		return "transport-failure"
	case TERMINATION_MALFORMED_POSTBACK:
		return "malformed-postback"
	}
	return "unknown"
}

// Outcome summarizes a walk. Pages counts fetched pages including the first
// one, Err is set for the failure terminations.
type Outcome struct {
	Pages       int
	Transitions int
	Reason      Termination
	Err         error
}

// PostbackLink is the target and argument of a `__doPostBack` call.
type PostbackLink struct {
	Target   string
	Argument string
}

var postbackRegex = regexp.MustCompile(`__doPostBack\('([^']+)','([^']+)'\)`)

// ParsePostbackLink extracts the postback parameters of a javascript href.
func ParsePostbackLink(href string) (PostbackLink, bool) {
	groups := postbackRegex.FindStringSubmatch(href)
	if groups == nil {
		return PostbackLink{}, false
	}
	return PostbackLink{Target: groups[1], Argument: groups[2]}, true
}

// CurrentPage is the first number on the page that is not a link, pagers
// render the current page as a plain span. It defaults to 1.
func CurrentPage(doc *goquery.Document) int {
	current := 1
	doc.Find("span").EachWithBreak(func(_ int, span *goquery.Selection) bool {
		text := htmlutil.NodeText(span.Nodes[0])
		if !allDigits(text) {
			return true
		}
		parent := span.Nodes[0].Parent
		if parent == nil || parent.Data == "a" {
			return true
		}
		n, err := strconv.Atoi(text)
		if err != nil {
			return true
		}
		current = n
		return false
	})
	return current
}

// FindNextPage returns the postback of the link to the page right after the
// current one. The argument has to be exactly `Page$<n>`, so `Page$12` is
// never taken for `Page$1`.
func FindNextPage(doc *goquery.Document) (PostbackLink, bool) {
	next := fmt.Sprintf("Page$%d", CurrentPage(doc)+1)

	var found PostbackLink
	ok := false
	doc.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href := a.AttrOr("href", "")
		if !strings.Contains(href, "__doPostBack") || !strings.Contains(href, "Page$") {
			return true
		}
		link, parsed := ParsePostbackLink(href)
		if !parsed || link.Argument != next {
			return true
		}
		found = link
		ok = true
		return false
	})
	return found, ok
}

// Navigator follows the pagination of a result set, one page at a time.
type Navigator struct {
	transport      Transport
	searchUrl      string
	maxTransitions int
	tel            telemetry.API
}

func NewNavigator(transport Transport, searchUrl string, maxTransitions int, tel telemetry.API) Navigator {
	assert.NotNil(transport)
	assert.NotEmptyStr(searchUrl)
	assert.NotNil(tel)
	if maxTransitions <= 0 {
		maxTransitions = DefaultMaxPageTransitions
	}
	return Navigator{
		transport:      transport,
		searchUrl:      searchUrl,
		maxTransitions: maxTransitions,
		tel:            tel,
	}
}

// Walk calls visit on first and on every following page. Each postback is
// built from the hidden state of the page before it, so pages are fetched
// strictly in order. Pages visited before a failure are kept by the caller.
func (n Navigator) Walk(ctx context.Context, first *goquery.Document, visit func(page int, doc *goquery.Document)) Outcome {
	doc := first
	page := CurrentPage(first)
	out := Outcome{Pages: 1}
	visit(page, doc)

	for {
		link, ok := FindNextPage(doc)
		if !ok {
			out.Reason = TERMINATION_NO_NEXT
			return out
		}
		if out.Transitions >= n.maxTransitions {
			n.tel.ReportWarning(report_navigator_postback, "page bound reached", n.maxTransitions)
			out.Reason = TERMINATION_BOUND_EXCEEDED
			return out
		}

		state, err := ExtractFormState(doc)
		if err != nil {
			n.tel.ReportBroken(report_navigator_postback, err, link.Argument)
			out.Reason = TERMINATION_MALFORMED_POSTBACK
			out.Err = err
			return out
		}

		n.tel.ReportDebug("follow page", link.Argument)
		next, err := post(ctx, n.transport, n.searchUrl, PostbackPayload(state, link))
		if err != nil {
			n.tel.ReportBroken(report_navigator_postback, err, link.Argument)
			out.Reason = TERMINATION_TRANSPORT_FAILURE
			out.Err = err
			return out
		}

		out.Transitions++
		out.Pages++
		page++
		doc = next
		visit(page, doc)
	}
}
