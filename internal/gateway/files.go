package gateway

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
)

// FileUpload describes a local file to attach to a message. Open is called
// once, at transfer time.
type FileUpload struct {
	FileName    string
	ContentType string
	Size        int64
	Open        func() (io.ReadCloser, error)
}

// FileFromPath stats path and returns an upload descriptor for it.
func FileFromPath(path string) (FileUpload, error) {
	info, err := os.Stat(path)
	if err != nil {
		return FileUpload{}, fmt.Errorf("attachment: %w", err)
	}
	if info.IsDir() {
		return FileUpload{}, fmt.Errorf("attachment: %s is a directory", path)
	}
	return FileUpload{
		FileName:    filepath.Base(path),
		ContentType: GuessContentType(path),
		Size:        info.Size(),
		Open:        func() (io.ReadCloser, error) { return os.Open(path) },
	}, nil
}

// GuessContentType maps a file extension to a MIME type, falling back to
// application/octet-stream.
func GuessContentType(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

// Presign requests a direct upload target for an attachment.
func (s *Session) Presign(ctx context.Context, req PresignRequest) (*PresignResponse, error) {
	var out PresignResponse
	if err := s.do(ctx, http.MethodPost, "/Attachments/presign", "/Attachments/presign", nil, req, &out); err != nil {
		return nil, err
	}
	if out.UploadURL == "" || out.AttachmentID == "" {
		return nil, errors.New("presign: incomplete response")
	}
	return &out, nil
}

// Transfer PUTs the file bytes to a presigned target. The target URL carries
// its own authorization, so no bearer token is sent.
func (c *Client) Transfer(ctx context.Context, target *PresignResponse, f FileUpload) error {
	if f.Open == nil {
		return errors.New("transfer: no file source")
	}
	body, err := f.Open()
	if err != nil {
		return fmt.Errorf("transfer: open %s: %w", f.FileName, err)
	}
	defer func() { _ = body.Close() }()

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, target.UploadURL, body)
	if err != nil {
		return fmt.Errorf("transfer: %w", err)
	}
	ct := target.ContentType
	if ct == "" {
		ct = f.ContentType
	}
	req.Header.Set("Content-Type", ct)
	if f.Size > 0 {
		req.ContentLength = f.Size
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.record("PUT upload", 0, start)
		return fmt.Errorf("transfer %s: %w", f.FileName, err)
	}
	defer func() { _ = resp.Body.Close() }()
	c.record("PUT upload", resp.StatusCode, start)
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{Method: http.MethodPut, Route: "upload", Status: resp.StatusCode}
	}
	c.logger.Debug("attachment transferred",
		zap.String("file", f.FileName),
		zap.Int64("size", f.Size),
		zap.Duration("elapsed", time.Since(start)),
	)
	return nil
}

// Upload presigns and transfers f for chatID and returns the attachment id
// to reference from a message.
func (s *Session) Upload(ctx context.Context, chatID string, f FileUpload) (string, error) {
	ct := f.ContentType
	if ct == "" {
		ct = GuessContentType(f.FileName)
	}
	target, err := s.Presign(ctx, PresignRequest{
		ChatID:      chatID,
		FileName:    f.FileName,
		ContentType: ct,
		FileSize:    f.Size,
	})
	if err != nil {
		return "", err
	}
	if err := s.client.Transfer(ctx, target, f); err != nil {
		return "", err
	}
	return target.AttachmentID, nil
}
