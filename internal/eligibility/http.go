package eligibility

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/coopvote/plenum/internal/model"
)

// HTTPGateway queries an external member-eligibility service over HTTP.
// The service answers GET {base}/members/{id} with {"status": "ABLE_TO_VOTE"}
// or {"status": "UNABLE_TO_VOTE"}, and 404 for identifiers it does not know.
type HTTPGateway struct {
	baseURL    string
	httpClient *http.Client
}

// Compile-time check that HTTPGateway implements Gateway.
var _ Gateway = (*HTTPGateway)(nil)

// NewHTTPGateway creates a gateway targeting the given base URL.
func NewHTTPGateway(baseURL string) *HTTPGateway {
	return &HTTPGateway{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (g *HTTPGateway) ValidateMember(ctx context.Context, memberID string) error {
	if err := model.ValidateMemberID(memberID); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		g.baseURL+"/members/"+url.PathEscape(memberID), nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("querying eligibility service: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return model.ErrInvalidMemberID
	case resp.StatusCode >= 400:
		return fmt.Errorf("eligibility service returned status %d", resp.StatusCode)
	}

	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fmt.Errorf("decoding eligibility response: %w", err)
	}

	if body.Status != StatusAbleToVote {
		return model.ErrIneligibleMember
	}
	return nil
}
