// Package netx builds outbound HTTP requests that carry files.
package netx

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
)

// maxErrorBody caps how much of a failed response is kept for the error text.
const maxErrorBody = 4 << 10

// NewMultipartFileRequest returns a POST request whose multipart body holds
// the file at path under the given form field. The body is streamed from the
// file as the request is sent, so memory use does not grow with file size.
// The caller must send the request or close its Body.
func NewMultipartFileRequest(ctx context.Context, url, field, path string) (*http.Request, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, pr)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	go func() {
		defer f.Close()
		pw.CloseWithError(writeFilePart(mw, field, path, f))
	}()
	return req, nil
}

func writeFilePart(mw *multipart.Writer, field, path string, r io.Reader) error {
	part, err := mw.CreateFormFile(field, filepath.Base(path))
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, r); err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	return mw.Close()
}

// ErrorBody reads at most a few KiB of resp.Body for inclusion in errors.
func ErrorBody(resp *http.Response) string {
	b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return string(bytes.TrimSpace(b))
}
