package probes

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/doeshing/socprobe/internal/domain"
	"github.com/doeshing/socprobe/internal/ports"
)

// Login form selectors of the dashboard sign-in page.
const (
	loginUserSelector     = "input[type='text']"
	loginPasswordSelector = "input[type='password']"
	loginSubmitSelector   = "button[type='submit']"
)

// RenderRequest describes one page load. When Username and Password are
// both set the renderer signs in through the login form after loading.
type RenderRequest struct {
	URL      string
	Username string
	Password string
}

func (r RenderRequest) wantsLogin() bool {
	return r.Username != "" && r.Password != ""
}

// RenderedPage is what a browser saw after loading a URL. URL, Title and
// HTML describe the landing page. LoginURL and LoginErr are only set when a
// login was requested.
type RenderedPage struct {
	URL      string
	Title    string
	HTML     string
	LoadTime time.Duration
	LoginURL string
	LoginErr error
}

// PageRenderer loads a URL in a real browser.
type PageRenderer interface {
	Render(ctx context.Context, req RenderRequest) (RenderedPage, error)
}

// ChromeRenderer drives a local Chrome or Chromium through the DevTools
// protocol.
type ChromeRenderer struct {
	ExecPath         string
	Headless         bool
	IgnoreCertErrors bool
}

// Render implements PageRenderer. A failed login is reported in
// RenderedPage.LoginErr; only a failed page load is returned as an error.
func (r *ChromeRenderer) Render(ctx context.Context, req RenderRequest) (RenderedPage, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.NoSandbox,
		chromedp.DisableGPU,
		chromedp.WindowSize(1920, 1080),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if r.IgnoreCertErrors {
		opts = append(opts, chromedp.Flag("ignore-certificate-errors", true))
	}
	if !r.Headless {
		opts = append(opts, chromedp.Flag("headless", false))
	}
	if r.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(r.ExecPath))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	var page RenderedPage
	start := time.Now()
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(req.URL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Location(&page.URL),
		chromedp.Title(&page.Title),
		chromedp.OuterHTML("html", &page.HTML, chromedp.ByQuery),
	)
	if err != nil {
		return RenderedPage{}, fmt.Errorf("browser: %w", err)
	}
	page.LoadTime = time.Since(start)

	if req.wantsLogin() {
		page.LoginErr = chromedp.Run(browserCtx,
			chromedp.WaitVisible(loginUserSelector, chromedp.ByQuery),
			chromedp.SendKeys(loginUserSelector, req.Username, chromedp.ByQuery),
			chromedp.SendKeys(loginPasswordSelector, req.Password, chromedp.ByQuery),
			chromedp.Click(loginSubmitSelector, chromedp.ByQuery),
			chromedp.WaitNotPresent(loginPasswordSelector, chromedp.ByQuery),
			chromedp.Location(&page.LoginURL),
		)
	}
	return page, nil
}

// BrowserProbe loads the dashboard in a browser. The component is healthy
// when the page body becomes ready within Timeout. With Login set it also
// signs in with the endpoint credentials and reports the outcome as a
// finding.
type BrowserProbe struct {
	Renderer        PageRenderer
	Endpoint        domain.Endpoint
	Login           bool
	Timeout         time.Duration
	MaxResponseTime time.Duration
	MinPageSize     int
}

// Component implements ports.Probe.
func (p *BrowserProbe) Component() domain.Component {
	return domain.ComponentDashboard
}

// Probe implements ports.Probe.
func (p *BrowserProbe) Probe(ctx context.Context) (domain.Observation, error) {
	if p.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}

	req := RenderRequest{URL: p.Endpoint.URL}
	if p.Login && p.Endpoint.HasCredentials() {
		req.Username = p.Endpoint.Username
		req.Password = p.Endpoint.Password
	}

	page, err := p.Renderer.Render(ctx, req)
	if err != nil {
		if ctx.Err() != nil {
			return domain.Observation{}, fmt.Errorf("dashboard did not load within %s", p.Timeout)
		}
		return domain.Observation{}, err
	}

	obs := domain.Observation{
		OK:     true,
		Detail: fmt.Sprintf("rendered in %.2fs", page.LoadTime.Seconds()),
	}
	if check, enabled := responseTimeCheck(page.LoadTime, p.MaxResponseTime); enabled {
		obs.Checks = append(obs.Checks, check)
	}
	obs.Checks = append(obs.Checks, finalURLCheck(page.URL))
	obs.Checks = append(obs.Checks, inspectPage(page.HTML, p.MinPageSize)...)
	if p.Login {
		obs.Checks = append(obs.Checks, loginCheck(page, req.wantsLogin()))
	}
	return obs, nil
}

// finalURLCheck inspects where the browser ended up after redirects.
func finalURLCheck(location string) domain.HealthCheck {
	const name = "Final URL"
	parsed, err := url.Parse(location)
	if err != nil || location == "" {
		return warn(name, "unknown")
	}
	if parsed.Scheme != "https" {
		return fail(name, fmt.Sprintf("served over %s: %s", parsed.Scheme, location))
	}
	return ok(name, location)
}

// loginCheck reports whether signing in left the login page.
func loginCheck(page RenderedPage, attempted bool) domain.HealthCheck {
	const name = "Login"
	switch {
	case !attempted:
		return warn(name, "skipped, no dashboard credentials configured")
	case page.LoginErr != nil:
		return fail(name, fmt.Sprintf("login failed: %v", page.LoginErr))
	case strings.Contains(strings.ToLower(page.LoginURL), "login"):
		return fail(name, fmt.Sprintf("still on login page: %s", page.LoginURL))
	default:
		return ok(name, fmt.Sprintf("signed in, landed on %s", page.LoginURL))
	}
}

var (
	_ ports.Probe  = (*BrowserProbe)(nil)
	_ PageRenderer = (*ChromeRenderer)(nil)
)
