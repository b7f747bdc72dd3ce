package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/xerrors"
)

// UserAgent is the agent announced when checking a URL.
const UserAgent = "Blitz-Auction-Bot/1.0"

// CheckJSON is the result of the check of a URL.
type CheckJSON struct {
	Embeddable bool   `json:"embeddable"`
	Reason     string `json:"reason,omitempty"`
	Error      string `json:"error,omitempty"`
	Details    string `json:"details,omitempty"`
	Status     int    `json:"status,omitempty"`
	StatusText string `json:"statusText,omitempty"`
}

// URLChecker tells if the page of a URL can be embedded in a frame.
type URLChecker interface {
	Check(ctx context.Context, raw string) CheckJSON
}

// httpChecker checks the framing policy announced by the headers of the
// page.
//
// - implements api.URLChecker
type httpChecker struct {
	client *http.Client
}

// NewURLChecker returns a checker that requests the headers of the page with
// the client.
func NewURLChecker(client *http.Client) URLChecker {
	return httpChecker{client: client}
}

// Check implements api.URLChecker. Only http and https URLs are accepted and
// the page is refused if it denies framing through X-Frame-Options or the
// frame-ancestors directive of its content security policy.
func (c httpChecker) Check(ctx context.Context, raw string) CheckJSON {
	if raw == "" {
		return CheckJSON{Error: "No URL provided"}
	}

	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return CheckJSON{Error: "Invalid URL format"}
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return CheckJSON{Error: "Only HTTP/HTTPS URLs allowed"}
	}

	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, u.String(), nil)
	if err != nil {
		return CheckJSON{Error: "Invalid URL format"}
	}

	req.Header.Set("User-Agent", UserAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return CheckJSON{Error: "Unable to check URL", Details: err.Error()}
	}

	resp.Body.Close()

	frameOptions := resp.Header.Get("X-Frame-Options")
	value := strings.ToLower(strings.TrimSpace(frameOptions))
	if value == "deny" || value == "sameorigin" {
		return CheckJSON{Reason: fmt.Sprintf("X-Frame-Options: %s", frameOptions)}
	}

	csp := strings.ToLower(resp.Header.Get("Content-Security-Policy"))
	if strings.Contains(csp, "frame-ancestors") &&
		!strings.Contains(csp, "frame-ancestors *") &&
		!strings.Contains(csp, "frame-ancestors 'self' *") {

		return CheckJSON{Reason: "CSP frame-ancestors restriction"}
	}

	return CheckJSON{
		Embeddable: true,
		Status:     resp.StatusCode,
		StatusText: http.StatusText(resp.StatusCode),
	}
}

type checkRequest struct {
	URL string `json:"url"`
}

func (s *Server) handleCheckURL(w http.ResponseWriter, r *http.Request) {
	var req checkRequest

	err := json.NewDecoder(io.LimitReader(r.Body, maxBodySize)).Decode(&req)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, CheckJSON{
			Error:   "Server error",
			Details: xerrors.Errorf("malformed request: %v", err).Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, s.checker.Check(r.Context(), req.URL))
}
