// Package erms replays the search form of the Gujarat electoral roll portal.
//
// The portal is an ASP.NET WebForms page, a search is three round trips on
// one server-side session:
//
//  1. GET the page to obtain a session cookie and view-state tokens.
//  2. Post back the assembly dropdown, which makes the server render a captcha.
//  3. Post back the search button with the names and the captcha answer.
package erms

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"electorsearch/internal/components/assert"
	"electorsearch/internal/components/telemetry"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/time/rate"
)

const DefaultBaseUrl = "https://erms.gujarat.gov.in"

const searchPath = "/Search/SearchElectorDB"

const (
	report_client_bootstrap = "client.bootstrap"
	report_client_dropdown  = "client.dropdown"
	report_client_search    = "client.search"
)

var tracer = otel.Tracer("electorsearch/erms")

var browserHeaders = map[string]string{
	"User-Agent":                "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/142.0.0.0 Safari/537.36",
	"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8",
	"Accept-Language":           "en-GB,en;q=0.9",
	"Upgrade-Insecure-Requests": "1",
}

type Options struct {
	// defaults to DefaultBaseUrl
	BaseUrl string
	// per request timeout, defaults to 30 seconds
	Timeout time.Duration
	// Limiter is shared by every search made with the client, it can be nil.
	Limiter *rate.Limiter
	// Output receives every http exchange, it can be nil.
	Output telemetry.ExchangeOutput
}

// Client performs searches, it is safe for concurrent use. The underlying
// http client keeps no cookie jar, every search threads its own session
// cookie explicitly so no state leaks between searches.
type Client struct {
	http *resty.Client
	tel  telemetry.API
}

func NewClient(opts Options, tel telemetry.API) (*Client, error) {
	assert.NotNil(tel)
	tel = telemetry.NewScopedAPI("erms", tel)

	baseUrl := opts.BaseUrl
	if baseUrl == "" {
		baseUrl = DefaultBaseUrl
	}
	parsedBaseUrl, err := url.Parse(baseUrl)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = time.Second * 30
	}

	httpClient := resty.New()
	httpClient.SetBaseURL(strings.TrimSuffix(baseUrl, "/"))
	httpClient.SetCookieJar(nil)
	httpClient.SetHeaders(browserHeaders)
	httpClient.SetRedirectPolicy(resty.DomainCheckRedirectPolicy(parsedBaseUrl.Hostname()))
	httpClient.SetTimeout(timeout)

	telemetry.InstrumentResty(httpClient, tel, opts.Output)

	// registered after instrumentation so a cancelled wait still ends the request span
	if opts.Limiter != nil {
		limiter := opts.Limiter
		httpClient.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
			return limiter.Wait(req.Context())
		})
	}

	return &Client{
		http: httpClient,
		tel:  tel,
	}, nil
}

// Search runs the three stages for one combination. It does not retry, the
// first failing stage aborts the search with a *ProtocolError or *NetworkError.
func (c *Client) Search(ctx context.Context, combo Combination) (SearchResultPage, error) {
	ctx, span := tracer.Start(ctx, "client:Search")
	defer span.End()
	span.SetAttributes(
		attribute.String("assembly", combo.Assembly),
		attribute.String("name", combo.Name),
		attribute.String("relative_name", combo.RelativeName),
	)

	tokens, err := c.bootstrap(ctx)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return SearchResultPage{}, err
	}
	tokens, prompt, err := c.selectAssembly(ctx, tokens, combo.Assembly)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return SearchResultPage{}, err
	}
	page, err := c.submitSearch(ctx, tokens, combo, prompt)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return SearchResultPage{}, err
	}

	span.SetAttributes(attribute.Int("records", len(page.Records)))
	return page, nil
}

func (c *Client) bootstrap(ctx context.Context) (SessionTokens, error) {
	ctx, span := tracer.Start(ctx, "client:bootstrap")
	defer span.End()

	res, err := c.http.R().
		SetContext(ctx).
		Get(searchPath)
	doc, err := c.document(StageBootstrap, res, err)
	if err != nil {
		c.tel.ReportBroken(report_client_bootstrap, err)
		span.SetStatus(codes.Error, err.Error())
		return SessionTokens{}, err
	}

	tokens, err := parseTokens(StageBootstrap, doc, mergeCookies("", res.Cookies()))
	if err != nil {
		c.tel.ReportBroken(report_client_bootstrap, err)
		span.SetStatus(codes.Error, err.Error())
		return SessionTokens{}, err
	}
	if tokens.Cookie == "" {
		c.tel.ReportWarning(report_client_bootstrap, "portal did not assign a session cookie")
	}
	return tokens, nil
}

// selectAssembly posts back the assembly dropdown, the server answers with
// fresh tokens and a new captcha prompt.
func (c *Client) selectAssembly(ctx context.Context, tokens SessionTokens, assembly string) (SessionTokens, string, error) {
	ctx, span := tracer.Start(ctx, "client:selectAssembly")
	defer span.End()

	res, err := c.postback(ctx, tokens, postbackForm{
		eventTarget: "DrpAC",
		assembly:    assembly,
	})
	doc, err := c.document(StageDropdown, res, err)
	if err != nil {
		c.tel.ReportBroken(report_client_dropdown, err, assembly)
		span.SetStatus(codes.Error, err.Error())
		return SessionTokens{}, "", err
	}

	next, err := parseTokens(StageDropdown, doc, mergeCookies(tokens.Cookie, res.Cookies()))
	if err != nil {
		c.tel.ReportBroken(report_client_dropdown, err, assembly)
		span.SetStatus(codes.Error, err.Error())
		return SessionTokens{}, "", err
	}
	prompt, err := parseCaptchaPrompt(doc)
	if err != nil {
		c.tel.ReportBroken(report_client_dropdown, err, assembly)
		span.SetStatus(codes.Error, err.Error())
		return SessionTokens{}, "", err
	}
	return next, prompt, nil
}

func (c *Client) submitSearch(ctx context.Context, tokens SessionTokens, combo Combination, prompt string) (SearchResultPage, error) {
	ctx, span := tracer.Start(ctx, "client:submitSearch")
	defer span.End()

	answer, err := SolveCaptcha(prompt)
	if err != nil {
		err = &ProtocolError{Stage: StageSearch, Reason: fmt.Sprintf("solve captcha: %s", err.Error())}
		c.tel.ReportBroken(report_client_search, err, prompt)
		span.SetStatus(codes.Error, err.Error())
		return SearchResultPage{}, err
	}

	res, err := c.postback(ctx, tokens, postbackForm{
		eventTarget:  "btnSearch",
		assembly:     combo.Assembly,
		name:         combo.Name,
		relativeName: combo.RelativeName,
		captcha:      strconv.Itoa(answer),
	})
	doc, err := c.document(StageSearch, res, err)
	if err != nil {
		c.tel.ReportBroken(report_client_search, err, combo.Assembly)
		span.SetStatus(codes.Error, err.Error())
		return SearchResultPage{}, err
	}

	page, skipped := parseResultPage(doc)
	if skipped > 0 {
		c.tel.ReportDebug("skipped partial rows in results grid", skipped)
	}
	c.tel.ReportDebug(
		"search finished",
		combo.Assembly, combo.Name, combo.RelativeName,
		len(page.Records), page.Meta.Message,
	)
	return page, nil
}

type postbackForm struct {
	eventTarget  string
	assembly     string
	name         string
	relativeName string
	captcha      string
}

func (c *Client) postback(ctx context.Context, tokens SessionTokens, form postbackForm) (*resty.Response, error) {
	req := c.http.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"__LASTFOCUS":          "",
			"__EVENTTARGET":        form.eventTarget,
			"__EVENTARGUMENT":      "",
			"__VIEWSTATE":          tokens.ViewState,
			"__VIEWSTATEGENERATOR": tokens.ViewStateGenerator,
			"__EVENTVALIDATION":    tokens.EventValidation,
			"DrpAC":                form.assembly,
			"txtSearch":            form.name,
			"txtSearchRelative":    form.relativeName,
			"txtCaptcha":           form.captcha,
		})
	if tokens.Cookie != "" {
		req.SetHeader("Cookie", tokens.Cookie)
	}
	return req.Post(searchPath)
}

// document turns the outcome of a request into a parsed page.
func (c *Client) document(stage Stage, res *resty.Response, err error) (*goquery.Document, error) {
	if err != nil {
		return nil, &NetworkError{Stage: stage, Err: err}
	}
	if res.IsError() {
		return nil, &NetworkError{Stage: stage, Err: fmt.Errorf("unexpected status %s", res.Status())}
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
	if err != nil {
		return nil, &ProtocolError{Stage: stage, Reason: fmt.Sprintf("parse html: %s", err.Error())}
	}
	return doc, nil
}

// mergeCookies adds the cookies set by a response to a Cookie header value,
// a cookie set again replaces its previous value.
func mergeCookies(header string, set []*http.Cookie) string {
	type pair struct{ name, value string }
	var pairs []pair
	for _, part := range strings.Split(header, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, value, _ := strings.Cut(part, "=")
		pairs = append(pairs, pair{name: name, value: value})
	}

outer:
	for _, cookie := range set {
		for i := range pairs {
			if pairs[i].name == cookie.Name {
				pairs[i].value = cookie.Value
				continue outer
			}
		}
		pairs = append(pairs, pair{name: cookie.Name, value: cookie.Value})
	}

	parts := make([]string, len(pairs))
	for i, p := range pairs {
		parts[i] = p.name + "=" + p.value
	}
	return strings.Join(parts, "; ")
}
