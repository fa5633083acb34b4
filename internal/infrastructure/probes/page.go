package probes

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/doeshing/socprobe/internal/domain"
)

const brandName = "Wazuh"

// inspectPage runs the dashboard content checks shared by the HTTP and
// browser probes.
func inspectPage(html string, minPageSize int) []domain.HealthCheck {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return []domain.HealthCheck{fail("Page content", fmt.Sprintf("cannot parse HTML: %v", err))}
	}

	checks := []domain.HealthCheck{
		contentCheck(doc),
		titleCheck(doc),
		loginFormCheck(doc),
		brandingCheck(doc),
	}
	if minPageSize > 0 {
		checks = append(checks, pageSizeCheck(len(html), minPageSize))
	}
	return checks
}

func contentCheck(doc *goquery.Document) domain.HealthCheck {
	body := doc.Find("body")
	if body.Children().Length() == 0 && strings.TrimSpace(body.Text()) == "" {
		return fail("Page content", "document body is empty")
	}
	return ok("Page content", fmt.Sprintf("%d top-level elements", body.Children().Length()))
}

func titleCheck(doc *goquery.Document) domain.HealthCheck {
	title := strings.TrimSpace(doc.Find("title").First().Text())
	switch {
	case title == "":
		return warn("Page title", "missing")
	case strings.Contains(strings.ToLower(title), "error"):
		return fail("Page title", fmt.Sprintf("title reports an error: %q", title))
	default:
		return ok("Page title", title)
	}
}

func loginFormCheck(doc *goquery.Document) domain.HealthCheck {
	password := doc.Find("input[type='password']").Length()
	forms := doc.Find("form").Length()
	switch {
	case password > 0 && forms > 0:
		return ok("Login form", "password field inside a form")
	case password > 0:
		return ok("Login form", "password field present")
	default:
		return warn("Login form", "no password field found")
	}
}

func brandingCheck(doc *goquery.Document) domain.HealthCheck {
	if strings.Contains(doc.Text(), brandName) {
		return ok("Branding", brandName+" text present")
	}
	return warn("Branding", brandName+" text not found")
}

func pageSizeCheck(size, minSize int) domain.HealthCheck {
	details := fmt.Sprintf("%d bytes (minimum %d)", size, minSize)
	if size <= minSize {
		return warn("Page size", details)
	}
	return ok("Page size", details)
}
