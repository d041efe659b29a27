package analyzer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/textproto"
	"strconv"

	"github.com/ds124wfegd/skysight/internal/entity"
)

const formField = "image"

type Analyzer interface {
	Analyze(ctx context.Context, host string, image entity.ImageFile) (*entity.AnalysisResponse, error)
}

type Client struct {
	httpClient *http.Client
	port       int
	path       string
}

func NewClient(httpClient *http.Client, port int, path string) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{httpClient: httpClient, port: port, path: path}
}

func (c *Client) Endpoint(host string) string {
	return "http://" + net.JoinHostPort(host, strconv.Itoa(c.port)) + c.path
}

func (c *Client) Analyze(ctx context.Context, host string, image entity.ImageFile) (*entity.AnalysisResponse, error) {
	body, contentType, err := buildForm(image)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint(host), body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrTransport, err)
	}
	req.Header.Set("Content-Type", contentType)

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrTransport, err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		io.Copy(io.Discard, res.Body)
		return nil, &entity.StatusError{Code: res.StatusCode}
	}

	var out entity.AnalysisResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrDecode, err)
	}
	if out.Caption == nil {
		return nil, fmt.Errorf("%w: no caption in response", entity.ErrDecode)
	}

	return &out, nil
}

func buildForm(image entity.ImageFile) (*bytes.Buffer, string, error) {
	var buffer bytes.Buffer
	writer := multipart.NewWriter(&buffer)

	name := image.Name
	if name == "" {
		name = "image"
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, formField, name))
	if image.ContentType != "" {
		header.Set("Content-Type", image.ContentType)
	} else {
		header.Set("Content-Type", "application/octet-stream")
	}

	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(image.Data); err != nil {
		return nil, "", err
	}

	if err := writer.Close(); err != nil {
		return nil, "", err
	}
	return &buffer, writer.FormDataContentType(), nil
}
