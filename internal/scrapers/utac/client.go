package utac

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"
	"utac-backend/internal/components/assert"
	"utac-backend/internal/components/telemetry"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"
)

const (
	DefaultSearchUrl = "https://www.utac-otc.com/vehicule_leger/Pages/Retrouver_un_CT.aspx"
	DefaultTimeout   = time.Second * 10
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"
)

const report_session_fetch = "session.fetch"

// Transport fetches and parses one page of the site.
//
// note: fault injection point
type Transport interface {
	Fetch(ctx context.Context, method, endpoint string, payload url.Values) (*goquery.Document, error)
}

type SessionOptions struct {
	// Timeout applies to each request, it defaults to DefaultTimeout.
	Timeout   time.Duration
	UserAgent string
	// Limiter is shared between sessions to put a ceiling on the request
	// rate of a whole crawl, nil means no limit.
	Limiter          *rate.Limiter
	CloudflareBypass bool
}

// Session is one browser-like HTTP client, cookies persist across requests.
// The site's certificate is not verified.
type Session struct {
	http *resty.Client
	tel  telemetry.API
}

func NewSession(opts SessionOptions, tel telemetry.API) (*Session, error) {
	assert.NotNil(tel)
	tel = telemetry.NewScopedAPI("utac_session", tel)

	if opts.Timeout == 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}

	httpClient := resty.New()
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	httpClient.SetCookieJar(jar)
	httpClient.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	if opts.CloudflareBypass {
		inner := httpClient.GetClient().Transport
		httpClient.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(inner)
		// the bypass swaps in its own tls config, which verifies certificates
		if transport, ok := inner.(*http.Transport); ok {
			relaxCertificates(transport)
		}
	}

	httpClient.SetHeader("user-agent", opts.UserAgent)
	httpClient.SetHeader("accept-language", "fr-FR,fr;q=0.9,en;q=0.8")
	httpClient.SetTimeout(opts.Timeout)

	if opts.Limiter != nil {
		limiter := opts.Limiter
		httpClient.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
			return limiter.Wait(req.Context())
		})
	}

	telemetry.InstrumentResty(httpClient, tel)

	return &Session{
		http: httpClient,
		tel:  tel,
	}, nil
}

// Fetch issues a GET, or a form encoded POST when method is POST, and
// parses the response. Every failure is a *TransportError.
func (s *Session) Fetch(ctx context.Context, method, endpoint string, payload url.Values) (*goquery.Document, error) {
	req := s.http.R().SetContext(ctx)
	if payload != nil {
		req.SetFormDataFromValues(payload)
	}

	res, err := req.Execute(method, endpoint)
	if err != nil {
		s.tel.ReportBroken(report_session_fetch, fmt.Errorf("fetch: %w", err), method, endpoint)
		return nil, &TransportError{Method: method, Url: endpoint, Err: err}
	}
	if res.StatusCode() < 200 || res.StatusCode() >= 300 {
		err := &TransportError{
			Method: method,
			Url:    endpoint,
			Status: res.StatusCode(),
			Err:    fmt.Errorf("unexpected status: %s", res.Status()),
		}
		s.tel.ReportBroken(report_session_fetch, err)
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
	if err != nil {
		s.tel.ReportBroken(report_session_fetch, fmt.Errorf("parse: %w", err), endpoint)
		return nil, &TransportError{Method: method, Url: endpoint, Status: res.StatusCode(), Err: err}
	}
	return doc, nil
}

func relaxCertificates(transport *http.Transport) {
	if transport.TLSClientConfig == nil {
		transport.TLSClientConfig = &tls.Config{}
	}
	transport.TLSClientConfig.InsecureSkipVerify = true
}

var _ Transport = (*Session)(nil)

func get(ctx context.Context, t Transport, endpoint string) (*goquery.Document, error) {
	return t.Fetch(ctx, http.MethodGet, endpoint, nil)
}

func post(ctx context.Context, t Transport, endpoint string, payload url.Values) (*goquery.Document, error) {
	return t.Fetch(ctx, http.MethodPost, endpoint, payload)
}
