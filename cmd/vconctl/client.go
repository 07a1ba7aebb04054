package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/al-ameen36/vcon-bubble-maps/models"
)

type apiClient struct {
	http *resty.Client
}

type apiError struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

func (e apiError) text() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Error
}

type listResponse struct {
	Records    []models.Vcon `json:"records"`
	NextCursor string        `json:"nextCursor"`
	IsDone     bool          `json:"isDone"`
}

func newAPIClient(server string, timeout time.Duration) *apiClient {
	return &apiClient{
		http: resty.New().SetBaseURL(server).SetTimeout(timeout),
	}
}

func check(resp *resty.Response, err error, apiErr *apiError) error {
	if err != nil {
		return err
	}
	if resp.IsError() {
		if msg := apiErr.text(); msg != "" {
			return fmt.Errorf("%s: %s", resp.Status(), msg)
		}
		return fmt.Errorf("%s", resp.Status())
	}
	return nil
}

func (c *apiClient) push(ctx context.Context, doc []byte) error {
	var apiErr apiError
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(doc).
		SetError(&apiErr).
		Post("/api/vcons")
	return check(resp, err, &apiErr)
}

func (c *apiClient) list(ctx context.Context, cursor string, limit int) (listResponse, error) {
	var out listResponse
	var apiErr apiError
	req := c.http.R().SetContext(ctx).SetResult(&out).SetError(&apiErr)
	if cursor != "" {
		req.SetQueryParam("cursor", cursor)
	}
	if limit > 0 {
		req.SetQueryParam("limit", fmt.Sprint(limit))
	}
	resp, err := req.Get("/api/vcons")
	if err := check(resp, err, &apiErr); err != nil {
		return listResponse{}, err
	}
	return out, nil
}

func (c *apiClient) ask(ctx context.Context, question string) (string, error) {
	var out struct {
		Answer string `json:"answer"`
	}
	var apiErr apiError
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]string{"question": question}).
		SetResult(&out).
		SetError(&apiErr).
		Post("/dashboard/assistant")
	if err := check(resp, err, &apiErr); err != nil {
		return "", err
	}
	return out.Answer, nil
}

// splitDocuments accepts one vCon object or an array of them.
func splitDocuments(data []byte) ([][]byte, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("empty document")
	}
	if trimmed[0] != '[' {
		if !json.Valid(trimmed) {
			return nil, fmt.Errorf("invalid JSON")
		}
		return [][]byte{trimmed}, nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return nil, fmt.Errorf("invalid JSON array: %w", err)
	}
	out := make([][]byte, len(items))
	for i, it := range items {
		out[i] = []byte(it)
	}
	return out, nil
}
