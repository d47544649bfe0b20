package retrieval

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/standardbeagle/codectx/internal/xerrors"
)

const noResultsMessage = "No relevant code context found for your query."

type blobsPayload struct {
	CheckpointID *string  `json:"checkpoint_id"`
	AddedBlobs   []string `json:"added_blobs"`
	DeletedBlobs []string `json:"deleted_blobs"`
}

type searchRequest struct {
	InformationRequest       string       `json:"information_request"`
	Blobs                    blobsPayload `json:"blobs"`
	Dialog                   []any        `json:"dialog"`
	MaxOutputLength          int          `json:"max_output_length"`
	DisableCodebaseRetrieval bool         `json:"disable_codebase_retrieval"`
	EnableCommitRetrieval    bool         `json:"enable_commit_retrieval"`
}

type searchResponse struct {
	FormattedRetrieval string `json:"formatted_retrieval"`
}

// Search sends one POST to {base_url}/agents/codebase-retrieval with
// query and the project's known identities, returning the formatted
// retrieval text verbatim, or the literal no-results message when the
// response carries none.
func (c *Client) Search(ctx context.Context, query string, identities []string) (string, error) {
	req := searchRequest{
		InformationRequest: query,
		Blobs: blobsPayload{
			CheckpointID: nil,
			AddedBlobs:   identities,
			DeletedBlobs: []string{},
		},
		Dialog:                   []any{},
		MaxOutputLength:          0,
		DisableCodebaseRetrieval: false,
		EnableCommitRetrieval:    false,
	}

	body, err := json.Marshal(req)
	if err != nil {
		return "", xerrors.NewSearchError(query, err)
	}

	var text string
	attempts := 0
	err = withRetry(ctx, c.maxRetries, c.retryBaseDelay, func() error {
		attempts++
		result, attemptErr := c.doSearch(ctx, body)
		if attemptErr != nil {
			return attemptErr
		}
		text = result
		return nil
	})

	if err != nil {
		var transient *transientHTTPError
		if errors.As(err, &transient) {
			return "", xerrors.NewSearchError(query, xerrors.NewUploadTransientError(attempts, err))
		}
		return "", xerrors.NewSearchError(query, err)
	}

	if text == "" {
		return noResultsMessage, nil
	}
	return text, nil
}

func (c *Client) doSearch(ctx context.Context, body []byte) (string, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/agents/codebase-retrieval", bytes.NewReader(body))
	if err != nil {
		return "", xerrors.NewUploadPermanentError(0, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", &transientHTTPError{cause: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &transientHTTPError{cause: err}
	}

	if isTransientStatus(resp.StatusCode) {
		return "", &transientHTTPError{cause: fmt.Errorf("status %d", resp.StatusCode)}
	}
	if resp.StatusCode >= 400 {
		return "", xerrors.NewUploadPermanentError(resp.StatusCode, fmt.Errorf("%s", respBody))
	}

	var parsed searchResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", xerrors.NewUploadPermanentError(resp.StatusCode, err)
	}
	return parsed.FormattedRetrieval, nil
}
