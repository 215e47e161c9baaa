package client

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/pkg/errors"

	"github.com/veilshelf/veilshelf"
	"github.com/veilshelf/veilshelf/jwt"
)

const (
	defaultTimeout = 3 * time.Second
	maxAttempts    = 5
	baseBackoff    = 500 * time.Millisecond
	tokenLifetime  = 300 // seconds
)

type Client struct {
	client     *http.Client
	cache      *cache.Cache
	base       string
	fqdn       string
	privatekey string
	subjectID  string
}

func New(base string) (*Client, error) {
	parsed, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %v", err)
	}

	return &Client{
		client: &http.Client{
			Timeout: defaultTimeout,
		},
		cache: cache.New(10*time.Minute, 15*time.Minute),
		base:  base,
		fqdn:  parsed.Host,
	}, nil
}

// SetPrivateKey installs the signing key used to authenticate record
// creation. The subject identity is derived from it.
func (c *Client) SetPrivateKey(privatekey string) error {
	subjectID, err := veilshelf.PrivKeyToAddr(privatekey, veilshelf.PrefixSubject)
	if err != nil {
		return fmt.Errorf("invalid private key: %v", err)
	}
	c.privatekey = privatekey
	c.subjectID = subjectID
	return nil
}

func (c *Client) SubjectID() string {
	return c.subjectID
}

func (c *Client) authToken() (string, error) {
	if c.privatekey == "" {
		return "", fmt.Errorf("no private key configured")
	}
	now := time.Now()
	return jwt.Create(jwt.Claims{
		Issuer:         c.subjectID,
		Subject:        "veilshelf",
		Audience:       c.fqdn,
		IssuedAt:       strconv.FormatInt(now.Unix(), 10),
		ExpirationTime: strconv.FormatInt(now.Unix()+tokenLifetime, 10),
	}, c.privatekey)
}

type apiError struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func mapError(status int, body []byte) error {
	var e apiError
	_ = json.Unmarshal(body, &e)

	var base error
	switch e.Code {
	case "not_found":
		base = veilshelf.ErrNotFound
	case "duplicate_id":
		base = veilshelf.ErrDuplicateID
	case "already_disclosed":
		base = veilshelf.ErrAlreadyDisclosed
	case "invalid_proof":
		base = veilshelf.ErrInvalidProof
	case "invalid_ciphertext":
		base = veilshelf.ErrInvalidCiphertext
	case "encoding_error":
		base = veilshelf.ErrEncoding
	case "oracle_unavailable":
		base = veilshelf.ErrOracleUnavailable
	default:
		return fmt.Errorf("unexpected status code %d: %s", status, e.Error)
	}

	return fmt.Errorf("%w: %s", base, e.Error)
}

func (c *Client) request(ctx context.Context, method, path string, payload any, authorized bool, response any) error {
	var body *bytes.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %v", err)
		}
		body = bytes.NewReader(data)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %v", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authorized {
		token, err := c.authToken()
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to perform request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var buf bytes.Buffer
		_, _ = buf.ReadFrom(resp.Body)
		return mapError(resp.StatusCode, buf.Bytes())
	}

	if response == nil {
		return nil
	}
	err = json.NewDecoder(resp.Body).Decode(response)
	if err != nil {
		return fmt.Errorf("failed to decode response: %v", err)
	}
	return nil
}

type CreateRecordInput struct {
	ID               string                     `json:"id"`
	Title            string                     `json:"title"`
	Author           string                     `json:"author"`
	Description      string                     `json:"description"`
	PublicCategory   int                        `json:"publicCategory"`
	PublicYear       int                        `json:"publicYear"`
	CiphertextHandle veilshelf.CiphertextHandle `json:"ciphertextHandle"`
	Proof            veilshelf.RangeProof       `json:"proof"`
}

func (c *Client) CreateRecord(ctx context.Context, input CreateRecordInput) error {
	return c.request(ctx, http.MethodPost, "/records", input, true, nil)
}

func (c *Client) GetRecord(ctx context.Context, id string) (veilshelf.Record, error) {
	var record veilshelf.Record
	err := c.request(ctx, http.MethodGet, "/records/"+url.PathEscape(id), nil, false, &record)
	if err != nil {
		return veilshelf.Record{}, err
	}
	return record, nil
}

// GetHandle fetches a record's ciphertext handle. Handles never change, so
// they are cached without expiry.
func (c *Client) GetHandle(ctx context.Context, id string) (veilshelf.CiphertextHandle, error) {
	cacheKey := "handle:" + id
	if x, found := c.cache.Get(cacheKey); found {
		return x.(veilshelf.CiphertextHandle), nil
	}

	var response struct {
		CiphertextHandle veilshelf.CiphertextHandle `json:"ciphertextHandle"`
	}
	err := c.request(ctx, http.MethodGet, "/records/"+url.PathEscape(id)+"/handle", nil, false, &response)
	if err != nil {
		return nil, err
	}

	c.cache.Set(cacheKey, response.CiphertextHandle, cache.NoExpiration)
	return response.CiphertextHandle, nil
}

func (c *Client) ListIDs(ctx context.Context) ([]string, error) {
	var response struct {
		IDs []string `json:"ids"`
	}
	err := c.request(ctx, http.MethodGet, "/records", nil, false, &response)
	if err != nil {
		return nil, err
	}
	return response.IDs, nil
}

func (c *Client) Verify(ctx context.Context, id string, value uint32, attestation veilshelf.Attestation) error {
	payload := struct {
		Value       uint32                `json:"value"`
		Attestation veilshelf.Attestation `json:"attestation"`
	}{Value: value, Attestation: attestation}
	return c.request(ctx, http.MethodPost, "/records/"+url.PathEscape(id)+"/verify", payload, false, nil)
}

func (c *Client) Health(ctx context.Context) error {
	return c.request(ctx, http.MethodGet, "/health", nil, false, nil)
}

func (c *Client) WellKnown(ctx context.Context) (veilshelf.WellKnownVeilshelf, error) {
	cacheKey := "wellknown:" + c.fqdn
	if x, found := c.cache.Get(cacheKey); found {
		return x.(veilshelf.WellKnownVeilshelf), nil
	}

	var wk veilshelf.WellKnownVeilshelf
	err := c.request(ctx, http.MethodGet, "/.well-known/veilshelf", nil, false, &wk)
	if err != nil {
		return veilshelf.WellKnownVeilshelf{}, err
	}

	c.cache.Set(cacheKey, wk, cache.DefaultExpiration)
	return wk, nil
}

// Disclose runs the full disclosure flow for one record: fetch the handle,
// ask the oracle for the cleartext and an attestation, then commit the value
// on the ledger. Transient oracle failures are retried with exponential
// backoff. If another party disclosed the record first, the stored value is
// returned instead of an error.
func (c *Client) Disclose(ctx context.Context, id string, oracle veilshelf.Oracle, contextID string) (uint32, error) {
	handle, err := c.GetHandle(ctx, id)
	if err != nil {
		return 0, err
	}

	var values map[string]uint32
	var attestation veilshelf.Attestation
	backoff := baseBackoff
	for attempt := 1; ; attempt++ {
		values, attestation, err = oracle.RequestDisclosure(ctx, []veilshelf.CiphertextHandle{handle}, contextID)
		if err == nil {
			break
		}
		if !errors.Is(err, veilshelf.ErrOracleUnavailable) || attempt >= maxAttempts {
			return 0, err
		}
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}

	digest := hex.EncodeToString(veilshelf.GetHash(handle))
	value, ok := values[digest]
	if !ok {
		return 0, fmt.Errorf("oracle response is missing the requested handle")
	}

	err = c.Verify(ctx, id, value, attestation)
	if errors.Is(err, veilshelf.ErrAlreadyDisclosed) {
		record, err := c.GetRecord(ctx, id)
		if err != nil {
			return 0, err
		}
		return record.DisclosedValue, nil
	}
	if err != nil {
		return 0, err
	}

	return value, nil
}
