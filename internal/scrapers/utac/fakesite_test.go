package utac

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

const (
	fakeCriteriaField = "ctl00$m$g_5e1a9c2f_4b7e$ctl00$critereValueInput"
	fakeModeField     = "ctl00$m$g_5e1a9c2f_4b7e$ctl00$ddlCritereField"
	fakeSubmitField   = "ctl00$m$g_5e1a9c2f_4b7e$ctl00$btnSearch"
	fakeGridTarget    = "ctl00$m$g_5e1a9c2f_4b7e$ctl00$gvResultats"
	fakeSessionCookie = "ASP.NET_SessionId"
)

func readFixture(t testing.TB, name string) string {
	t.Helper()
	contents, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return string(contents)
}

type fakeCenter struct {
	name      string
	agreement string
	city      string
}

func (c fakeCenter) row() string {
	return fmt.Sprintf(
		`<tr><td>%s</td><td>%s</td><td style="display:none">AUTOSUR</td><td>1 RUE DU STADE</td><td>%s</td><td style="display:none">01 02 03 04 05</td><td>VL</td><td style="display:none"></td><td><a href="#">Voir le détail</a></td></tr>`,
		c.name, c.agreement, c.city,
	)
}

// regionCenters builds count centers of a two digit region plus a few rows
// of other regions, the way the site mixes in neighboring results.
func regionCenters(region string, count int) []fakeCenter {
	var centers []fakeCenter
	for i := 0; i < count; i++ {
		centers = append(centers, fakeCenter{
			name:      fmt.Sprintf("CENTRE %s-%02d", region, i),
			agreement: fmt.Sprintf("S%sA%03d", region, i),
			city:      fmt.Sprintf("VILLE %s%d00", region, i%10),
		})
		if i%10 == 4 {
			centers = append(centers, fakeCenter{
				name:      "CENTRE VOISIN",
				agreement: "S057Z999",
				city:      "METZ 57000",
			})
		}
	}
	return centers
}

func renderPager(current, total int) string {
	if total <= 1 {
		return ""
	}
	var pager strings.Builder
	pager.WriteString(`<tr class="pager"><td colspan="9"><table><tr>`)
	for p := 1; p <= total; p++ {
		if p == current {
			pager.WriteString(fmt.Sprintf("<td><span>%d</span></td>", p))
			continue
		}
		pager.WriteString(fmt.Sprintf(
			`<td><a href="javascript:__doPostBack('%s','Page$%d')">%d</a></td>`,
			fakeGridTarget, p, p,
		))
	}
	pager.WriteString(`</tr></table></td></tr>`)
	return pager.String()
}

func viewstateFor(page int) string {
	return fmt.Sprintf("/wEPDwUKLTM2-page-%d", page)
}

func renderResultsPage(centers []fakeCenter, current, total int) string {
	var rows strings.Builder
	for _, c := range centers {
		rows.WriteString(c.row())
	}
	return fmt.Sprintf(`<html><body>
<form name="aspnetForm" method="post" action="Retrouver_un_CT.aspx" id="aspnetForm">
<input type="hidden" name="__EVENTTARGET" value="" />
<input type="hidden" name="__EVENTARGUMENT" value="" />
<input type="hidden" name="__VIEWSTATE" value="%s" />
<input type="hidden" name="__EVENTVALIDATION" value="/wEdAAXk9lVQ" />
<span class="count">Résultats</span>
<table class="resultats">
<tr><th>Raison sociale</th><th>N° d'agrément</th><th>Enseigne</th><th>Adresse</th><th>Ville</th><th>Tél.</th><th>Option</th><th>Site internet</th><th></th></tr>
%s
%s
</table>
</form></body></html>`, viewstateFor(current), rows.String(), renderPager(current, total))
}

// fakeSite imitates the postback protocol of the search page. Every postback
// must carry the hidden state of the page it was made from.
type fakeSite struct {
	t *testing.T

	mutex    sync.Mutex
	requests int
	posts    []map[string]string

	// pages of results for each searched region, keyed by region code
	regions map[string][][]fakeCenter
	// identifier search responses, keyed by identifier
	identifiers map[string]string
	// detail pages keyed by path
	details map[string]string

	searchPage string
	// failPage makes the postback to this page answer with a 500
	failPage int
	// failSearch makes the search submit of this region answer with a 503
	failSearch string
	// lastRegion is the region of the latest search, the real site keeps it
	// in the viewstate
	lastRegion string
}

func newFakeSite(t *testing.T) *fakeSite {
	return &fakeSite{
		t:           t,
		regions:     map[string][][]fakeCenter{},
		identifiers: map[string]string{},
		details:     map[string]string{},
		searchPage:  readFixture(t, "search_page.html"),
	}
}

func (f *fakeSite) addRegion(region string, perPage int, centers []fakeCenter) {
	var pages [][]fakeCenter
	for len(centers) > 0 {
		n := min(perPage, len(centers))
		pages = append(pages, centers[:n])
		centers = centers[n:]
	}
	f.regions[region] = pages
}

func (f *fakeSite) Requests() int {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return f.requests
}

func (f *fakeSite) Posts() []map[string]string {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return f.posts
}

func (f *fakeSite) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mutex.Lock()
	f.requests++
	f.mutex.Unlock()

	if detail, ok := f.details[r.URL.Path]; ok {
		fmt.Fprint(w, detail)
		return
	}

	if r.Method == http.MethodGet {
		http.SetCookie(w, &http.Cookie{Name: fakeSessionCookie, Value: "abc123"})
		fmt.Fprint(w, f.searchPage)
		return
	}

	_, err := r.Cookie(fakeSessionCookie)
	if err != nil {
		http.Error(w, "no session", http.StatusForbidden)
		return
	}
	err = r.ParseForm()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	form := map[string]string{}
	for k := range r.PostForm {
		form[k] = r.PostForm.Get(k)
	}
	f.mutex.Lock()
	f.posts = append(f.posts, form)
	f.mutex.Unlock()

	if form["__EVENTTARGET"] == "" {
		f.serveSearch(w, form)
		return
	}
	f.servePostback(w, form)
}

func (f *fakeSite) serveSearch(w http.ResponseWriter, form map[string]string) {
	if form["__VIEWSTATE"] != "/wEPDwUKLTM2NjI3NzE3Ng9kFgJmD2QWAgIBD2QWBA==" {
		http.Error(w, "stale viewstate", http.StatusInternalServerError)
		return
	}

	value := form[fakeCriteriaField]
	switch form[fakeModeField] {
	case "Agrement":
		page, ok := f.identifiers[value]
		if !ok {
			page = readFixture(f.t, "no_results.html")
		}
		fmt.Fprint(w, page)
	case "Departement":
		if value == f.failSearch {
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}
		f.mutex.Lock()
		f.lastRegion = value
		f.mutex.Unlock()
		pages := f.regions[value]
		if len(pages) == 0 {
			fmt.Fprint(w, renderResultsPage(nil, 1, 1))
			return
		}
		fmt.Fprint(w, renderResultsPage(pages[0], 1, len(pages)))
	default:
		http.Error(w, "unknown criteria", http.StatusBadRequest)
	}
}

func (f *fakeSite) servePostback(w http.ResponseWriter, form map[string]string) {
	arg := strings.TrimPrefix(form["__EVENTARGUMENT"], "Page$")
	page, err := strconv.Atoi(arg)
	if err != nil || form["__EVENTTARGET"] != fakeGridTarget {
		http.Error(w, "bad postback", http.StatusBadRequest)
		return
	}
	if form["__VIEWSTATE"] != viewstateFor(page-1) {
		http.Error(w, "viewstate not from the previous page", http.StatusInternalServerError)
		return
	}
	if page == f.failPage {
		http.Error(w, "boom", http.StatusInternalServerError)
		return
	}

	f.mutex.Lock()
	pages := f.regions[f.lastRegion]
	f.mutex.Unlock()
	if page < 1 || page > len(pages) {
		http.Error(w, "no such page", http.StatusNotFound)
		return
	}
	fmt.Fprint(w, renderResultsPage(pages[page-1], page, len(pages)))
}

func startFakeSite(t *testing.T, site *fakeSite) string {
	server := httptest.NewTLSServer(site)
	t.Cleanup(server.Close)
	return server.URL + "/vehicule_leger/Pages/Retrouver_un_CT.aspx"
}

func newBlockingServer(t *testing.T, handler http.Handler) string {
	server := httptest.NewTLSServer(handler)
	t.Cleanup(server.Close)
	return server.URL
}
