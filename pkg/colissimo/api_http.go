package colissimo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

// HTTPAPIClient is the production implementation of APIClient. Postage
// requests go through the JSON web service (multipart responses carrying
// the label artifacts), pickup-point lookups through the SOAP withdrawal
// service (see api_soap.go).
type HTTPAPIClient struct {
	postageURL    string
	withdrawalURL string
	login         string
	password      string
	httpClient    *http.Client
}

// HTTPAPIClientConfig holds configuration for the web service client.
type HTTPAPIClientConfig struct {
	PostageURL    string
	WithdrawalURL string
	Login         string // contract number
	Password      string
	Timeout       time.Duration
}

// Default web service endpoints.
const (
	DefaultPostageURL    = "https://ws.colissimo.fr/sls-ws/SlsServiceWSRest/2.0"
	DefaultWithdrawalURL = "https://ws.colissimo.fr/pointretrait-ws-cxf/PointRetraitServiceWS/2.0"
)

// NewHTTPAPIClient creates a new web service client for production use.
func NewHTTPAPIClient(cfg HTTPAPIClientConfig) *HTTPAPIClient {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	postageURL := cfg.PostageURL
	if postageURL == "" {
		postageURL = DefaultPostageURL
	}

	withdrawalURL := cfg.WithdrawalURL
	if withdrawalURL == "" {
		withdrawalURL = DefaultWithdrawalURL
	}

	return &HTTPAPIClient{
		postageURL:    postageURL,
		withdrawalURL: withdrawalURL,
		login:         cfg.Login,
		password:      cfg.Password,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// ============================================================================
// JSON structures for the postage web service
// ============================================================================

// jsonInfos is the JSON envelope part of a generateLabel response.
type jsonInfos struct {
	Messages        []Message `json:"messages"`
	LabelV2Response struct {
		ParcelNumber        string `json:"parcelNumber"`
		ParcelNumberPartner string `json:"parcelNumberPartner"`
		PDFURL              string `json:"pdfUrl"`
	} `json:"labelV2Response"`
}

// GenerateLabel submits a postage request to the Colissimo API.
// A successful response is multipart: a JSON envelope part plus one part
// per binary artifact (label, customs form).
func (c *HTTPAPIClient) GenerateLabel(ctx context.Context, req *GenerateLabelRequest) (*GenerateLabelResponse, error) {
	req.ContractNumber = c.login
	req.Password = c.password

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := c.postageURL + "/generateLabel"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	mediaType, params, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, fmt.Errorf("unexpected response content type: %w", err)
	}

	if strings.HasPrefix(mediaType, "multipart/") {
		return c.parseMultipartResponse(resp.Body, params["boundary"])
	}

	// Non-multipart responses carry only the JSON envelope, which means
	// the postage request was declined.
	var infos jsonInfos
	if err := json.NewDecoder(resp.Body).Decode(&infos); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &GenerateLabelResponse{
		Success:      false,
		Messages:     infos.Messages,
		ParcelNumber: infos.LabelV2Response.ParcelNumber,
	}, nil
}

func (c *HTTPAPIClient) parseMultipartResponse(body io.Reader, boundary string) (*GenerateLabelResponse, error) {
	if boundary == "" {
		return nil, &APIError{Code: "BAD_RESPONSE", Description: "multipart response without boundary"}
	}

	out := &GenerateLabelResponse{}
	reader := multipart.NewReader(body, boundary)

	for {
		part, err := reader.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read response part: %w", err)
		}

		data, err := io.ReadAll(part)
		part.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read response part: %w", err)
		}

		name := part.FormName()
		contentType := part.Header.Get("Content-Type")

		switch {
		case name == "jsonInfos" || strings.HasPrefix(contentType, "application/json"):
			var infos jsonInfos
			if err := json.Unmarshal(data, &infos); err != nil {
				return nil, fmt.Errorf("failed to decode response envelope: %w", err)
			}
			out.Messages = infos.Messages
			out.ParcelNumber = infos.LabelV2Response.ParcelNumber
		case name == "cn23":
			out.Attachments = append(out.Attachments, Attachment{Type: AttachmentCN23, Data: data})
		default:
			out.Attachments = append(out.Attachments, Attachment{Type: AttachmentLabel, Data: data})
		}
	}

	out.Success = out.ParcelNumber != ""
	return out, nil
}
