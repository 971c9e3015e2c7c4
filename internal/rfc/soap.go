package rfc

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"
)

const (
	soapRFCPath  = "/sap/bc/soap/rfc"
	rfcNamespace = "urn:sap-com:document:sap:rfc:functions"

	defaultTimeout = 120 * time.Second
)

// SOAPConfig holds the settings for the ICF SOAP gateway transport.
type SOAPConfig struct {
	// BaseURL is the system's HTTP(S) base, e.g. https://sap.example.com:44300.
	BaseURL  string
	Client   string // SAP client number, e.g. "100"
	User     string
	Password string
	Language string
	Timeout  time.Duration
	// InsecureSkipVerify disables TLS certificate verification. Test
	// systems with self-signed certificates only.
	InsecureSkipVerify bool
}

// SOAPCaller invokes remote functions through the ICF SOAP RFC service
// (/sap/bc/soap/rfc). It needs no SDK, just HTTP access to the system.
type SOAPCaller struct {
	endpoint   string
	user       string
	password   string
	httpClient *http.Client
}

// NewSOAPCaller builds a Caller for the given gateway settings.
func NewSOAPCaller(cfg SOAPConfig) (*SOAPCaller, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if cfg.Client == "" {
		return nil, fmt.Errorf("SAP client is required")
	}

	query := url.Values{}
	query.Set("sap-client", cfg.Client)
	if cfg.Language != "" {
		query.Set("sap-language", cfg.Language)
	}
	endpoint := strings.TrimRight(cfg.BaseURL, "/") + soapRFCPath + "?" + query.Encode()

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	httpClient := &http.Client{Timeout: timeout}
	if cfg.InsecureSkipVerify {
		httpClient.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
	}

	return &SOAPCaller{
		endpoint:   endpoint,
		user:       cfg.User,
		password:   cfg.Password,
		httpClient: httpClient,
	}, nil
}

// Call posts a SOAP envelope for the named function and returns the parsed
// response parameters.
func (c *SOAPCaller) Call(ctx context.Context, function string, params map[string]any) (map[string]any, error) {
	envelope, err := buildEnvelope(function, params)
	if err != nil {
		return nil, fmt.Errorf("encode %s request: %w", function, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(envelope))
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", function, err)
	}
	req.SetBasicAuth(c.user, c.password)
	req.Header.Set("Content-Type", "text/xml; charset=utf-8")
	req.Header.Set("SOAPAction", "")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", function, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", function, err)
	}

	result, fault, err := parseEnvelope(body)
	if fault != "" {
		return nil, fmt.Errorf("remote function %s failed: %s", function, fault)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("call %s: unexpected status %d: %s", function, resp.StatusCode, truncate(string(body), 200))
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s response: %w", function, err)
	}
	return result, nil
}

// buildEnvelope writes the request envelope. Parameter keys are sorted so
// request bodies are deterministic; the gateway does not care about order.
func buildEnvelope(function string, params map[string]any) ([]byte, error) {
	var b bytes.Buffer
	b.WriteString(xml.Header)
	b.WriteString(`<SOAP-ENV:Envelope xmlns:SOAP-ENV="http://schemas.xmlsoap.org/soap/envelope/"><SOAP-ENV:Body>`)
	fmt.Fprintf(&b, `<urn:%s xmlns:urn=%q>`, function, rfcNamespace)

	keys := make([]string, 0, len(params))
	for key := range params {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if err := writeParam(&b, key, params[key]); err != nil {
			return nil, err
		}
	}

	fmt.Fprintf(&b, `</urn:%s>`, function)
	b.WriteString(`</SOAP-ENV:Body></SOAP-ENV:Envelope>`)
	return b.Bytes(), nil
}

func writeParam(b *bytes.Buffer, name string, value any) error {
	switch rows := value.(type) {
	case []map[string]any:
		fmt.Fprintf(b, "<%s>", name)
		for _, row := range rows {
			b.WriteString("<item>")
			keys := make([]string, 0, len(row))
			for key := range row {
				keys = append(keys, key)
			}
			sort.Strings(keys)
			for _, key := range keys {
				writeScalar(b, key, row[key])
			}
			b.WriteString("</item>")
		}
		fmt.Fprintf(b, "</%s>", name)
		return nil
	case []any:
		fmt.Fprintf(b, "<%s>", name)
		for _, item := range rows {
			row, ok := item.(map[string]any)
			if !ok {
				return fmt.Errorf("table parameter %s: unsupported row type %T", name, item)
			}
			b.WriteString("<item>")
			keys := make([]string, 0, len(row))
			for key := range row {
				keys = append(keys, key)
			}
			sort.Strings(keys)
			for _, key := range keys {
				writeScalar(b, key, row[key])
			}
			b.WriteString("</item>")
		}
		fmt.Fprintf(b, "</%s>", name)
		return nil
	default:
		writeScalar(b, name, value)
		return nil
	}
}

func writeScalar(b *bytes.Buffer, name string, value any) {
	fmt.Fprintf(b, "<%s>", name)
	// EscapeText cannot fail on a bytes.Buffer.
	_ = xml.EscapeText(b, []byte(fmt.Sprint(value)))
	fmt.Fprintf(b, "</%s>", name)
}

// parseEnvelope walks the response envelope and returns the response
// parameters as a generic map. A SOAP fault is reported through the fault
// return so callers can prefer it over the HTTP status.
func parseEnvelope(body []byte) (result map[string]any, fault string, err error) {
	decoder := xml.NewDecoder(bytes.NewReader(body))

	for {
		token, err := decoder.Token()
		if err == io.EOF {
			return nil, "", fmt.Errorf("response has no body element")
		}
		if err != nil {
			return nil, "", err
		}
		if start, ok := token.(xml.StartElement); ok && start.Name.Local == "Body" {
			break
		}
	}

	for {
		token, err := decoder.Token()
		if err == io.EOF {
			return nil, "", fmt.Errorf("response body is empty")
		}
		if err != nil {
			return nil, "", err
		}
		start, ok := token.(xml.StartElement)
		if !ok {
			continue
		}

		parsed, err := parseElement(decoder)
		if err != nil {
			return nil, "", err
		}
		if start.Name.Local == "Fault" {
			return nil, faultString(parsed), nil
		}
		if params, ok := parsed.(map[string]any); ok {
			return params, "", nil
		}
		// A response element with no children decodes as its text.
		return map[string]any{}, "", nil
	}
}

// parseElement consumes tokens up to the matching end element. Elements with
// only character data decode as strings; repeated <item> children decode as
// a slice; any other children decode as a map.
func parseElement(decoder *xml.Decoder) (any, error) {
	var text strings.Builder
	var items []any
	children := make(map[string]any)
	hasChildren := false

	for {
		token, err := decoder.Token()
		if err != nil {
			return nil, err
		}
		switch t := token.(type) {
		case xml.StartElement:
			hasChildren = true
			child, err := parseElement(decoder)
			if err != nil {
				return nil, err
			}
			if t.Name.Local == "item" {
				items = append(items, child)
			} else {
				children[t.Name.Local] = child
			}
		case xml.CharData:
			text.Write(t)
		case xml.EndElement:
			if !hasChildren {
				return text.String(), nil
			}
			if len(items) > 0 {
				return items, nil
			}
			return children, nil
		}
	}
}

func faultString(parsed any) string {
	if fields, ok := parsed.(map[string]any); ok {
		if message, ok := fields["faultstring"].(string); ok && message != "" {
			return message
		}
	}
	return "SOAP fault"
}

func truncate(s string, limit int) string {
	s = strings.TrimSpace(s)
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "…"
}
