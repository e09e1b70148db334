package reddit

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"SentiPull/internal/domain/models"
	domrepo "SentiPull/internal/domain/repository"
	xhttp "SentiPull/pkg/http"
)

// Config holds Reddit API access settings.
type Config struct {
	BaseURL      string
	AuthURL      string
	ClientID     string
	ClientSecret string
	Username     string
	Password     string
	UserAgent    string
	Subreddit    string
}

// Client implements domain repository.CommentSource against the Reddit API.
// It authenticates with the password grant and pages the subreddit's newest
// comments, anchoring on the last seen fullname so a quiet period yields an
// empty batch instead of duplicates.
type Client struct {
	cfg    Config
	client *xhttp.Client

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
	before      string // fullname of the newest comment seen so far
}

// New creates a Reddit comment source.
func New(cfg Config) *Client {
	return &Client{
		cfg:    cfg,
		client: xhttp.NewClient(xhttp.WithTimeout(15 * time.Second)),
	}
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

type listingResponse struct {
	Data struct {
		Children []struct {
			Data struct {
				Name       string  `json:"name"` // fullname, e.g. t1_abc
				ID         string  `json:"id"`
				Author     string  `json:"author"`
				Body       string  `json:"body"`
				Score      int     `json:"score"`
				CreatedUTC float64 `json:"created_utc"`
			} `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

// Poll fetches up to limit new comments from the configured subreddit.
// Transport and auth failures surface as ErrSourceUnavailable; the driver
// logs and retries on its next tick.
func (c *Client) Poll(ctx context.Context, limit int) ([]models.Comment, error) {
	token, err := c.accessToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domrepo.ErrSourceUnavailable, err)
	}

	params := map[string][]string{
		"limit": {strconv.Itoa(limit)},
	}
	c.mu.Lock()
	if c.before != "" {
		params["before"] = []string{c.before}
	}
	c.mu.Unlock()

	var listing listingResponse
	err = c.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    fmt.Sprintf("%s/r/%s/comments", strings.TrimRight(c.cfg.BaseURL, "/"), c.cfg.Subreddit),
		Headers: map[string]string{
			"Authorization": "Bearer " + token,
			"User-Agent":    c.cfg.UserAgent,
		},
		QueryParams: params,
	}, &listing)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domrepo.ErrSourceUnavailable, err)
	}

	comments := make([]models.Comment, 0, len(listing.Data.Children))
	for _, ch := range listing.Data.Children {
		d := ch.Data
		comments = append(comments, models.Comment{
			ID:        d.ID,
			Author:    d.Author,
			Body:      d.Body,
			Score:     d.Score,
			CreatedAt: time.Unix(int64(d.CreatedUTC), 0),
		})
	}

	// The listing is newest-first; anchor on its head for the next poll.
	if len(listing.Data.Children) > 0 {
		c.mu.Lock()
		c.before = listing.Data.Children[0].Data.Name
		c.mu.Unlock()
	}

	return comments, nil
}

// accessToken returns a cached OAuth token, refreshing it when expired.
func (c *Client) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	if c.token != "" && time.Now().Before(c.tokenExpiry) {
		token := c.token
		c.mu.Unlock()
		return token, nil
	}
	c.mu.Unlock()

	var tok tokenResponse
	err := c.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodPost,
		URL:    c.cfg.AuthURL,
		Headers: map[string]string{
			"Content-Type": "application/x-www-form-urlencoded",
			"User-Agent":   c.cfg.UserAgent,
		},
		Body: map[string]string{
			"grant_type": "password",
			"username":   c.cfg.Username,
			"password":   c.cfg.Password,
		},
		BasicAuth: &xhttp.BasicAuth{User: c.cfg.ClientID, Password: c.cfg.ClientSecret},
	}, &tok)
	if err != nil {
		return "", fmt.Errorf("token request: %w", err)
	}
	if tok.AccessToken == "" {
		return "", fmt.Errorf("token request: empty access_token")
	}

	c.mu.Lock()
	c.token = tok.AccessToken
	// refresh one minute early
	c.tokenExpiry = time.Now().Add(time.Duration(tok.ExpiresIn)*time.Second - time.Minute)
	c.mu.Unlock()
	return tok.AccessToken, nil
}

var _ domrepo.CommentSource = (*Client)(nil)
