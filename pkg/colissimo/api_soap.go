package colissimo

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"text/template"
)

// SOAP transport for the withdrawal (pickup point) web service.

const soapDateFormat = "02/01/2006"

const soapEnvelopeTemplate = `<?xml version="1.0" encoding="utf-8"?>
<soapenv:Envelope xmlns:soapenv="http://schemas.xmlsoap.org/soap/envelope/" xmlns:v2="http://v2.pointretrait.geopost.com/">
  <soapenv:Header/>
  <soapenv:Body>
    {{.Body}}
  </soapenv:Body>
</soapenv:Envelope>`

// FindPoints searches pickup points through the withdrawal SOAP service.
func (c *HTTPAPIClient) FindPoints(ctx context.Context, req *FindPointsRequest) (*FindPointsResponse, error) {
	bodyTmpl := `<v2:findRDVPointRetraitAcheminement>
      <accountNumber>{{.Login}}</accountNumber>
      <password>{{.Password}}</password>
      <zipCode>{{.Req.ZipCode}}</zipCode>
      <city>{{.Req.City}}</city>
      <countryCode>{{.Req.CountryCode}}</countryCode>
      <address>{{.Req.Address}}</address>
      <shippingDate>{{.ShippingDate}}</shippingDate>
      <requestId>{{.Req.RequestID}}</requestId>{{if .Req.WeightGrams}}
      <weight>{{.Req.WeightGrams}}</weight>{{end}}{{if .Req.FilterRelay}}
      <filterRelay>1</filterRelay>{{end}}
    </v2:findRDVPointRetraitAcheminement>`

	envelope, err := c.buildEnvelope(bodyTmpl, struct {
		Login        string
		Password     string
		ShippingDate string
		Req          *FindPointsRequest
	}{c.login, c.password, req.ShippingDate.Format(soapDateFormat), req})
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.doSOAPRequest(ctx, envelope)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.parseSOAPError(resp)
	}

	var parsed findPointsEnvelope
	if err := xml.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	ret := parsed.Body.Response.Return
	out := &FindPointsResponse{
		Success: ret.ErrorCode == 0,
		Points:  ret.Points,
	}
	if ret.ErrorCode != 0 {
		out.Messages = []Message{{ID: fmt.Sprintf("%d", ret.ErrorCode), Content: ret.ErrorMessage}}
	}
	return out, nil
}

// FindPoint fetches a single pickup point through the withdrawal SOAP service.
func (c *HTTPAPIClient) FindPoint(ctx context.Context, req *FindPointRequest) (*FindPointResponse, error) {
	bodyTmpl := `<v2:findPointRetraitAcheminementByID>
      <accountNumber>{{.Login}}</accountNumber>
      <password>{{.Password}}</password>
      <id>{{.Req.ID}}</id>
      <date>{{.Date}}</date>{{if .Req.WeightGrams}}
      <weight>{{.Req.WeightGrams}}</weight>{{end}}
    </v2:findPointRetraitAcheminementByID>`

	envelope, err := c.buildEnvelope(bodyTmpl, struct {
		Login    string
		Password string
		Date     string
		Req      *FindPointRequest
	}{c.login, c.password, req.Date.Format(soapDateFormat), req})
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.doSOAPRequest(ctx, envelope)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.parseSOAPError(resp)
	}

	var parsed findPointEnvelope
	if err := xml.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	ret := parsed.Body.Response.Return
	out := &FindPointResponse{
		Success: ret.ErrorCode == 0,
		Point:   ret.Point,
	}
	if ret.ErrorCode != 0 {
		out.Messages = []Message{{ID: fmt.Sprintf("%d", ret.ErrorCode), Content: ret.ErrorMessage}}
	}
	return out, nil
}

// ============================================================================
// SOAP helpers
// ============================================================================

func (c *HTTPAPIClient) buildEnvelope(bodyTmpl string, data interface{}) ([]byte, error) {
	var body bytes.Buffer
	tmpl, err := template.New("body").Parse(bodyTmpl)
	if err != nil {
		return nil, err
	}
	if err := tmpl.Execute(&body, data); err != nil {
		return nil, err
	}

	var envelope bytes.Buffer
	envTmpl, err := template.New("envelope").Parse(soapEnvelopeTemplate)
	if err != nil {
		return nil, err
	}
	if err := envTmpl.Execute(&envelope, struct{ Body string }{body.String()}); err != nil {
		return nil, err
	}

	return envelope.Bytes(), nil
}

func (c *HTTPAPIClient) doSOAPRequest(ctx context.Context, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.withdrawalURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "text/xml; charset=utf-8")

	return c.httpClient.Do(req)
}

func (c *HTTPAPIClient) parseSOAPError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)

	var fault soapFaultEnvelope
	if err := xml.Unmarshal(body, &fault); err == nil && fault.Body.Fault.String != "" {
		return &APIError{
			Code:        fault.Body.Fault.Code,
			Description: fault.Body.Fault.String,
		}
	}

	return &APIError{
		Code:        fmt.Sprintf("HTTP_%d", resp.StatusCode),
		Description: string(body),
	}
}

// ============================================================================
// XML response structures
// ============================================================================

type findPointsEnvelope struct {
	XMLName xml.Name `xml:"Envelope"`
	Body    struct {
		Response struct {
			Return struct {
				ErrorCode    int           `xml:"errorCode"`
				ErrorMessage string        `xml:"errorMessage"`
				Points       []PickupPoint `xml:"listePointRetraitAcheminement"`
			} `xml:"return"`
		} `xml:"findRDVPointRetraitAcheminementResponse"`
	} `xml:"Body"`
}

type findPointEnvelope struct {
	XMLName xml.Name `xml:"Envelope"`
	Body    struct {
		Response struct {
			Return struct {
				ErrorCode    int          `xml:"errorCode"`
				ErrorMessage string       `xml:"errorMessage"`
				Point        *PickupPoint `xml:"pointRetraitAcheminement"`
			} `xml:"return"`
		} `xml:"findPointRetraitAcheminementByIDResponse"`
	} `xml:"Body"`
}

type soapFaultEnvelope struct {
	XMLName xml.Name `xml:"Envelope"`
	Body    struct {
		Fault struct {
			Code   string `xml:"faultcode"`
			String string `xml:"faultstring"`
		} `xml:"Fault"`
	} `xml:"Body"`
}

var _ APIClient = (*HTTPAPIClient)(nil)
