package transport

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/agentstation/pimsync/pkg/errors"
	"github.com/agentstation/pimsync/pkg/logging"
)

// maxErrorBody bounds how much of a failed response is kept in the error.
const maxErrorBody = 512

// ReadBody reads and closes the response body, turning non-2xx statuses
// into *errors.APIError.
func ReadBody(resp *http.Response, service string) ([]byte, error) {
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logging.Warn().Err(err).Str("service", service).Msg("failed to close response body")
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.WrapAPI(service, resp.StatusCode, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := strings.TrimSpace(string(body))
		if len(msg) > maxErrorBody {
			msg = msg[:maxErrorBody] + "..."
		}
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		apiErr := errors.NewAPIError(service, resp.StatusCode, msg)
		if resp.Request != nil && resp.Request.URL != nil {
			apiErr.Endpoint = resp.Request.URL.String()
		}
		return nil, apiErr
	}
	return body, nil
}

// DecodeResponse decodes a JSON response into the target structure.
func DecodeResponse(resp *http.Response, service string, target any) error {
	body, err := ReadBody(resp, service)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, target); err != nil {
		return errors.WrapParse("json", service+" response", err)
	}
	return nil
}
