package payment

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/guonaihong/gout"
	"github.com/guonaihong/gout/dataflow"
)

// ErrGateway marks failures talking to the payment gateway.
var ErrGateway = errors.New("payment gateway error")

type TransactionStatus string

const (
	StatusPending   TransactionStatus = "pending"
	StatusApproved  TransactionStatus = "approved"
	StatusDeclined  TransactionStatus = "declined"
	StatusCancelled TransactionStatus = "cancelled"
)

type Customer struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}

type TransactionRequest struct {
	Amount      int64    `json:"amount"`
	Currency    string   `json:"currency,omitempty"`
	Description string   `json:"description"`
	Reference   string   `json:"reference"`
	CallbackURL string   `json:"callback_url"`
	Customer    Customer `json:"customer"`
}

type Transaction struct {
	ID          string            `json:"id"`
	Status      TransactionStatus `json:"status"`
	CheckoutURL string            `json:"checkout_url,omitempty"`
	Reference   string            `json:"reference,omitempty"`
}

type Gateway interface {
	CreateTransaction(ctx context.Context, req TransactionRequest) (*Transaction, error)
	GetTransaction(ctx context.Context, id string) (*Transaction, error)
}

// Client talks to the gateway's JSON transaction API.
type Client struct {
	baseURL string
	apiKey  string
	timeout time.Duration
	http    *http.Client
}

func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		timeout: timeout,
		http:    &http.Client{},
	}
}

func (c *Client) request(ctx context.Context, df *dataflow.DataFlow) *dataflow.DataFlow {
	df = df.WithContext(ctx).SetHeader(gout.H{
		"Authorization": "Bearer " + c.apiKey,
		"Accept":        "application/json",
	})
	if c.timeout > 0 {
		df = df.SetTimeout(c.timeout)
	}
	return df
}

func (c *Client) CreateTransaction(ctx context.Context, req TransactionRequest) (*Transaction, error) {
	var (
		tx   Transaction
		code int
	)

	err := c.request(ctx, gout.New(c.http).POST(c.baseURL+"/transactions")).
		SetJSON(req).
		BindJSON(&tx).
		Code(&code).
		Do()
	if err != nil {
		return nil, fmt.Errorf("%w: create transaction: %v", ErrGateway, err)
	}
	if code != http.StatusOK && code != http.StatusCreated {
		return nil, fmt.Errorf("%w: create transaction: status %d", ErrGateway, code)
	}
	if tx.ID == "" || tx.CheckoutURL == "" {
		return nil, fmt.Errorf("%w: create transaction: incomplete response", ErrGateway)
	}

	return &tx, nil
}

func (c *Client) GetTransaction(ctx context.Context, id string) (*Transaction, error) {
	var (
		tx   Transaction
		code int
	)

	err := c.request(ctx, gout.New(c.http).GET(c.baseURL+"/transactions/"+url.PathEscape(id))).
		BindJSON(&tx).
		Code(&code).
		Do()
	if err != nil {
		return nil, fmt.Errorf("%w: get transaction %s: %v", ErrGateway, id, err)
	}
	if code != http.StatusOK {
		return nil, fmt.Errorf("%w: get transaction %s: status %d", ErrGateway, id, code)
	}

	return &tx, nil
}
