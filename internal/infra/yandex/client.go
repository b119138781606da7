package yandex

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Morwran/yagpt"

	"kebbi/internal/infra"
)

// IAM tokens live for 12 hours; refresh well before that.
const tokenTTL = 11 * time.Hour

// Client generates text with YandexGPT.
type Client struct {
	ya      yagpt.YaGPTFace
	refresh func() (string, error)
	retry   infra.RetryConfig

	mu       sync.Mutex
	iamToken string
	issuedAt time.Time
}

func NewClient(oauthToken, folderID string, attempts int) (*Client, error) {
	iam, err := yagpt.NewYaIam(oauthToken)
	if err != nil {
		return nil, fmt.Errorf("initializing yandex iam: %w", err)
	}

	ya, err := yagpt.NewYagpt(folderID)
	if err != nil {
		return nil, fmt.Errorf("initializing yagpt: %w", err)
	}

	c := &Client{
		ya: ya,
		refresh: func() (string, error) {
			resp, err := iam.Create()
			if err != nil {
				return "", fmt.Errorf("creating iam token: %w", err)
			}
			return resp.IamToken, nil
		},
		retry: infra.AttemptsConfig(attempts),
	}

	if _, err := c.token(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Client) token() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.iamToken != "" && time.Since(c.issuedAt) < tokenTTL {
		return c.iamToken, nil
	}

	tok, err := c.refresh()
	if err != nil {
		return "", err
	}
	c.iamToken = tok
	c.issuedAt = time.Now()
	return tok, nil
}

func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	messages := []yagpt.Message{{Role: "user", Content: prompt}}

	var text string
	err := infra.WithRetry(ctx, c.retry, func() error {
		tok, err := c.token()
		if err != nil {
			return err
		}

		resp, err := c.ya.CompletionWithCtx(ctx, tok, messages)
		if err != nil {
			return fmt.Errorf("yagpt completion: %w", err)
		}
		if resp == nil || len(resp.Alternatives) == 0 {
			return fmt.Errorf("empty response from yagpt")
		}
		text = resp.Alternatives[0].Message.Content
		return nil
	})
	if err != nil {
		return "", err
	}
	return text, nil
}
