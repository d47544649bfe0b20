package retrieval

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/standardbeagle/codectx/internal/blob"
	"github.com/standardbeagle/codectx/internal/xerrors"
)

type uploadBlob struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

type uploadRequest struct {
	Blobs []uploadBlob `json:"blobs"`
}

type uploadResponse struct {
	BlobNames []string `json:"blob_names"`
}

// UploadBatch sends one POST to {base_url}/batch-upload with the given
// blobs and returns the identities the server confirms, in the same
// order as requested.
func (c *Client) UploadBatch(ctx context.Context, blobs []blob.Blob) ([]string, error) {
	req := uploadRequest{Blobs: make([]uploadBlob, len(blobs))}
	for i, b := range blobs {
		req.Blobs[i] = uploadBlob{Path: b.Label(), Content: b.Content}
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, xerrors.NewUploadPermanentError(0, err)
	}

	var identities []string
	attempts := 0
	err = withRetry(ctx, c.maxRetries, c.retryBaseDelay, func() error {
		attempts++
		ids, attemptErr := c.doUpload(ctx, body)
		if attemptErr != nil {
			return attemptErr
		}
		identities = ids
		return nil
	})

	if err == nil {
		return identities, nil
	}

	var transient *transientHTTPError
	if errors.As(err, &transient) {
		return nil, xerrors.NewUploadTransientError(attempts, err)
	}
	var permanent *xerrors.UploadPermanentError
	if errors.As(err, &permanent) {
		return nil, err
	}
	return nil, xerrors.NewUploadTransientError(attempts, err)
}

func (c *Client) doUpload(ctx context.Context, body []byte) ([]string, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/batch-upload", bytes.NewReader(body))
	if err != nil {
		return nil, xerrors.NewUploadPermanentError(0, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &transientHTTPError{cause: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &transientHTTPError{cause: err}
	}

	if isTransientStatus(resp.StatusCode) {
		return nil, &transientHTTPError{cause: fmt.Errorf("status %d", resp.StatusCode)}
	}
	if resp.StatusCode >= 400 {
		return nil, xerrors.NewUploadPermanentError(resp.StatusCode, fmt.Errorf("%s", respBody))
	}

	var parsed uploadResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, xerrors.NewUploadPermanentError(resp.StatusCode, err)
	}
	return parsed.BlobNames, nil
}
