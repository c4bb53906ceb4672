package apiclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/erazemk/auberge/internal/model"
)

// ListContactMessages returns the messages left through the contact form.
func (c *Client) ListContactMessages(ctx context.Context) ([]model.ContactMessage, error) {
	var msgs []model.ContactMessage
	if err := c.do(ctx, http.MethodGet, "/admin/messages", "/admin/messages", nil, &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

// MarkContactMessageRead flags a contact message as read.
func (c *Client) MarkContactMessageRead(ctx context.Context, id int64) (model.ContactMessage, error) {
	var msg model.ContactMessage
	path := fmt.Sprintf("/admin/messages/%d/read", id)
	if err := c.do(ctx, http.MethodPatch, "/admin/messages/{id}/read", path, nil, &msg); err != nil {
		return model.ContactMessage{}, err
	}
	return msg, nil
}

// Upload sends a file to the backend file service.
func (c *Client) Upload(ctx context.Context, name, mimeType string, data []byte) (model.Upload, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", name)
	if err != nil {
		return model.Upload{}, fmt.Errorf("apiclient: create form file: %w", err)
	}
	if _, err := io.Copy(part, bytes.NewReader(data)); err != nil {
		return model.Upload{}, fmt.Errorf("apiclient: write form file: %w", err)
	}
	if err := mw.Close(); err != nil {
		return model.Upload{}, fmt.Errorf("apiclient: close multipart: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/files/upload", &buf)
	if err != nil {
		return model.Upload{}, fmt.Errorf("apiclient: build request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var up model.Upload
	if err := c.send(req, "/files/upload", &up); err != nil {
		return model.Upload{}, err
	}
	if up.Name == "" {
		up.Name = name
	}
	if up.MimeType == "" {
		up.MimeType = mimeType
	}
	if up.Size == 0 {
		up.Size = int64(len(data))
	}
	return up, nil
}
