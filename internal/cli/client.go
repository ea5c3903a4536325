package cli

import (
	"bytes"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"os"
	"strings"
	"time"

	"github.com/mcoot/chessrooms/internal/dependencies/random"
	"github.com/mcoot/chessrooms/internal/services/keyexchange"
)

// handshakeKeyBits is the size of the throwaway key the session key is wrapped for
const handshakeKeyBits = 2048

// Client is an HTTP client for the server. It keeps cookies, so the
// session established by Handshake rides along on later requests.
type Client struct {
	baseURL    string
	httpClient *http.Client
	verbose    bool
}

// NewClient creates a new API client
func NewClient(baseURL string, timeout time.Duration) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Jar:     jar,
			Timeout: timeout,
		},
	}, nil
}

// APIError represents an error response from the API
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps an API error
type ErrorResponse struct {
	Error APIError `json:"error"`
}

func (e *APIError) String() string {
	return fmt.Sprintf("%s (%s)", e.Message, e.Code)
}

// Do performs an HTTP request
func (c *Client) Do(method, path string, body, result any) error {
	url := c.baseURL + path

	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, url, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if c.verbose {
		fmt.Fprintf(os.Stderr, "%s %s -> %d\n", method, path, resp.StatusCode)
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	// Check for error responses
	if resp.StatusCode >= 400 {
		var errResp ErrorResponse
		if err := json.Unmarshal(respBody, &errResp); err == nil && errResp.Error.Code != "" {
			return fmt.Errorf("%s", errResp.Error.String())
		}
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(respBody))
	}

	// Parse successful response
	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
	}

	return nil
}

// Get performs a GET request
func (c *Client) Get(path string, result any) error {
	return c.Do(http.MethodGet, path, nil, result)
}

// Post performs a POST request
func (c *Client) Post(path string, body, result any) error {
	return c.Do(http.MethodPost, path, body, result)
}

// SecureSession sends and receives bodies encrypted under a session key
type SecureSession struct {
	client *Client
	keys   *keyexchange.Service
	key    string
}

// Handshake establishes a session and retrieves its key, wrapped for a
// freshly generated RSA key pair
func (c *Client) Handshake() (*SecureSession, error) {
	if err := c.Get("/establish-connection", nil); err != nil {
		return nil, fmt.Errorf("establish connection: %w", err)
	}

	priv, err := rsa.GenerateKey(rand.Reader, handshakeKeyBits)
	if err != nil {
		return nil, fmt.Errorf("generate key pair: %w", err)
	}
	pemKey, err := keyexchange.MarshalPublicKey(&priv.PublicKey)
	if err != nil {
		return nil, err
	}

	var wrapped struct {
		AESKey string `json:"aesKey"`
	}
	if err := c.Post("/get-aes-key", map[string]string{"publicKey": pemKey}, &wrapped); err != nil {
		return nil, fmt.Errorf("get session key: %w", err)
	}

	key, err := keyexchange.UnwrapKey(wrapped.AESKey, priv)
	if err != nil {
		return nil, err
	}

	return &SecureSession{
		client: c,
		keys:   keyexchange.New(random.New()),
		key:    key,
	}, nil
}

// Post encrypts payload, posts it and decrypts the reply into result
func (s *SecureSession) Post(path string, payload, result any) error {
	env, err := s.keys.Encrypt(payload, s.key)
	if err != nil {
		return err
	}

	var reply struct {
		Data keyexchange.Envelope `json:"data"`
	}
	if err := s.client.Post(path, env, &reply); err != nil {
		return err
	}
	return s.keys.Decrypt(reply.Data, s.key, result)
}
