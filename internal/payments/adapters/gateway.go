package adapters

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"go-shop/internal/payments/domain"
	"go-shop/internal/payments/ports"
	"go-shop/pkg/errors"
)

// signatureTolerance bounds how stale a webhook timestamp may be
const signatureTolerance = 5 * time.Minute

// HTTPGateway implements ports.Gateway against a Stripe-style REST API
type HTTPGateway struct {
	baseURL       string
	apiKey        string
	webhookSecret string
	client        *http.Client
	now           func() time.Time
}

// NewHTTPGateway creates a new payment gateway client
func NewHTTPGateway(baseURL, apiKey, webhookSecret string, timeout time.Duration) *HTTPGateway {
	return &HTTPGateway{
		baseURL:       strings.TrimRight(baseURL, "/"),
		apiKey:        apiKey,
		webhookSecret: webhookSecret,
		client:        &http.Client{Timeout: timeout},
		now:           time.Now,
	}
}

// CreateCustomer registers a customer with the processor
func (g *HTTPGateway) CreateCustomer(ctx context.Context, email, name string) (string, error) {
	form := url.Values{}
	form.Set("email", email)
	form.Set("name", name)

	var response struct {
		ID string `json:"id"`
	}
	if err := g.post(ctx, "/v1/customers", form, &response); err != nil {
		return "", err
	}
	return response.ID, nil
}

// CreateIntent creates a payment intent
func (g *HTTPGateway) CreateIntent(ctx context.Context, params ports.IntentParams) (*domain.Intent, error) {
	form := url.Values{}
	form.Set("amount", strconv.FormatInt(params.AmountCents, 10))
	form.Set("currency", params.Currency)
	if params.CustomerID != "" {
		form.Set("customer", params.CustomerID)
	}
	for key, value := range params.Metadata {
		form.Set(fmt.Sprintf("metadata[%s]", key), value)
	}

	var response struct {
		ID           string `json:"id"`
		ClientSecret string `json:"client_secret"`
		Amount       int64  `json:"amount"`
	}
	if err := g.post(ctx, "/v1/payment_intents", form, &response); err != nil {
		return nil, err
	}

	return &domain.Intent{
		ID:           response.ID,
		ClientSecret: response.ClientSecret,
		Amount:       decimal.New(response.Amount, -2),
	}, nil
}

// VerifySignature authenticates a webhook delivery. The signature header
// carries a unix timestamp and an HMAC-SHA256 of "<timestamp>.<payload>"
// keyed with the endpoint secret.
func (g *HTTPGateway) VerifySignature(payload []byte, header string) error {
	if header == "" {
		return errors.NewUnauthorized("missing webhook signature")
	}

	var timestamp string
	var signatures []string
	for _, part := range strings.Split(header, ",") {
		key, value, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			continue
		}
		switch key {
		case "t":
			timestamp = value
		case "v1":
			signatures = append(signatures, value)
		}
	}
	if timestamp == "" || len(signatures) == 0 {
		return errors.NewUnauthorized("malformed webhook signature")
	}

	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return errors.NewUnauthorized("malformed webhook signature")
	}
	age := g.now().Sub(time.Unix(ts, 0))
	if age > signatureTolerance || age < -signatureTolerance {
		return errors.NewUnauthorized("webhook signature expired")
	}

	mac := hmac.New(sha256.New, []byte(g.webhookSecret))
	mac.Write([]byte(timestamp))
	mac.Write([]byte("."))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))

	for _, signature := range signatures {
		if hmac.Equal([]byte(expected), []byte(signature)) {
			return nil
		}
	}
	return errors.NewUnauthorized("invalid webhook signature")
}

func (g *HTTPGateway) post(ctx context.Context, path string, form url.Values, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return errors.NewInternal("failed to build payment request", err)
	}
	req.Header.Set("Authorization", "Bearer "+g.apiKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := g.client.Do(req)
	if err != nil {
		return errors.NewInternal("payment processor unreachable", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.NewInternal("failed to read payment response", err)
	}

	if resp.StatusCode >= 400 {
		var apiError struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		_ = json.Unmarshal(body, &apiError)
		message := apiError.Error.Message
		if message == "" {
			message = fmt.Sprintf("payment processor returned %d", resp.StatusCode)
		}
		return errors.NewInternal(message, nil)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return errors.NewInternal("malformed payment response", err)
	}
	return nil
}
