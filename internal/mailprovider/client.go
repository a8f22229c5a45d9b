package mailprovider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultCacheTTL = 60 * time.Second

var retryBackoff = []time.Duration{2 * time.Second, 5 * time.Second, 15 * time.Second}

const maxRetries = 3

// Client is an HTTP client for the external mail provider's API-key
// authenticated, JSON-LD paginated endpoints.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	cache      *ttlCache
}

// NewClient builds a client against baseURL authenticating with apiKey.
// The underlying transport pools up to 20 connections (10 keepalive) so
// a scan sweep's many sequential per-inbox requests reuse sockets.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 10,
			},
		},
		cache: newTTLCache(defaultCacheTTL),
	}
}

func (c *Client) headers() http.Header {
	h := http.Header{}
	h.Set("X-API-Key", c.apiKey)
	h.Set("Accept", "application/ld+json")
	return h
}

// request performs one HTTP call, retrying on 429 with the fixed
// [2s, 5s, 15s] backoff schedule. A non-2xx, non-429 status is returned
// as an error carrying the status code and body.
func (c *Client) request(ctx context.Context, method, path string, query map[string]string, body interface{}) ([]byte, int, error) {
	var bodyReader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, 0, fmt.Errorf("mailprovider: marshal body: %w", err)
		}
		bodyReader = bytes.NewReader(b)
	}

	url := c.baseURL + path
	if len(query) > 0 {
		q := make([]string, 0, len(query))
		for k, v := range query {
			q = append(q, k+"="+v)
		}
		url += "?" + strings.Join(q, "&")
	}

	var lastStatus int
	for attempt := 0; attempt < maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
		if err != nil {
			return nil, 0, fmt.Errorf("mailprovider: build request: %w", err)
		}
		req.Header = c.headers()
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, 0, fmt.Errorf("mailprovider: request failed: %w", err)
		}

		respBody, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			return nil, resp.StatusCode, fmt.Errorf("mailprovider: read response: %w", readErr)
		}

		lastStatus = resp.StatusCode
		if resp.StatusCode == http.StatusTooManyRequests {
			if attempt == maxRetries-1 {
				break
			}
			wait := retryBackoff[attempt]
			if attempt >= len(retryBackoff) {
				wait = retryBackoff[len(retryBackoff)-1]
			}
			timer := time.NewTimer(wait)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				return nil, 0, ctx.Err()
			}
			continue
		}

		if resp.StatusCode >= 300 {
			return nil, resp.StatusCode, fmt.Errorf("mailprovider: status %d: %s", resp.StatusCode, string(respBody))
		}

		return respBody, resp.StatusCode, nil
	}

	return nil, lastStatus, fmt.Errorf("mailprovider: rate limited after %d retries: %s", maxRetries, path)
}

// jsonLDCollection is the generic shape of a paged provider collection.
type jsonLDCollection struct {
	Member []json.RawMessage `json:"member"`
	View   struct {
		Next string `json:"next"`
	} `json:"view"`
	TotalItems int `json:"totalItems"`
}

type rawAccount struct {
	ID        string          `json:"id"`
	Address   string          `json:"address"`
	FirstName string          `json:"firstName"`
	LastName  string          `json:"lastName"`
	Mailboxes []rawMailboxRef `json:"mailboxes"`
}

type rawMailboxRef struct {
	ID   string `json:"id"`
	Path string `json:"path"`
}

func normalizeAccount(ra rawAccount) Account {
	acc := Account{
		ID:        ra.ID,
		Email:     ra.Address,
		FirstName: ra.FirstName,
		LastName:  ra.LastName,
	}
	for _, mb := range ra.Mailboxes {
		switch strings.ToLower(mb.Path) {
		case "inbox":
			acc.InboxID = mb.ID
		case "trash":
			acc.TrashID = mb.ID
		case "junk":
			acc.JunkID = mb.ID
		case "sent":
			acc.SentID = mb.ID
		}
	}
	return acc
}

// ListAccounts fetches every account across all pages of the provider's
// JSON-LD collection, memoized for the cache TTL.
func (c *Client) ListAccounts(ctx context.Context) ([]Account, error) {
	if cached, ok := c.cache.get("all_accounts"); ok {
		return cached.([]Account), nil
	}

	var all []Account
	page := 1
	for {
		respBody, _, err := c.request(ctx, http.MethodGet, "/accounts", map[string]string{
			"page":     fmt.Sprintf("%d", page),
			"per_page": "100",
		}, nil)
		if err != nil {
			return nil, err
		}

		var coll jsonLDCollection
		if err := json.Unmarshal(respBody, &coll); err != nil {
			return nil, fmt.Errorf("mailprovider: decode accounts page: %w", err)
		}

		if len(coll.Member) == 0 {
			break
		}
		for _, raw := range coll.Member {
			var ra rawAccount
			if err := json.Unmarshal(raw, &ra); err != nil {
				return nil, fmt.Errorf("mailprovider: decode account: %w", err)
			}
			all = append(all, normalizeAccount(ra))
		}
		if coll.View.Next == "" {
			break
		}
		page++
	}

	c.cache.set("all_accounts", all)
	return all, nil
}

// FindAccountByEmail looks up a single account, consulting the per-email
// cache entry before falling back to ListAccounts.
func (c *Client) FindAccountByEmail(ctx context.Context, email string) (Account, bool, error) {
	key := "account:" + email
	if cached, ok := c.cache.get(key); ok {
		return cached.(Account), true, nil
	}

	accounts, err := c.ListAccounts(ctx)
	if err != nil {
		return Account{}, false, err
	}
	for _, acc := range accounts {
		if strings.EqualFold(acc.Email, email) {
			c.cache.set(key, acc)
			return acc, true, nil
		}
	}
	return Account{}, false, nil
}

// CreateAccount provisions a new mailbox account and invalidates the
// account-list cache so the next ListAccounts sees it.
func (c *Client) CreateAccount(ctx context.Context, email, password string) (Account, error) {
	payload := map[string]string{"address": email}
	if password != "" {
		payload["password"] = password
	}

	respBody, _, err := c.request(ctx, http.MethodPost, "/accounts", nil, payload)
	if err != nil {
		return Account{}, err
	}

	var ra rawAccount
	if err := json.Unmarshal(respBody, &ra); err != nil {
		return Account{}, fmt.Errorf("mailprovider: decode created account: %w", err)
	}
	c.cache.invalidate("all_accounts")
	return normalizeAccount(ra), nil
}

// UpdatePassword sets a new password on an existing account.
func (c *Client) UpdatePassword(ctx context.Context, accountID, password string) error {
	_, status, err := c.request(ctx, http.MethodPatch, "/accounts/"+accountID, nil, map[string]string{"password": password})
	if err != nil && status == 0 {
		return err
	}
	c.cache.invalidate("all_accounts")
	return err
}

// ListMailboxes fetches an account's mailbox folders, memoized for the
// cache TTL.
func (c *Client) ListMailboxes(ctx context.Context, accountID string) ([]Mailbox, error) {
	key := "mailboxes:" + accountID
	if cached, ok := c.cache.get(key); ok {
		return cached.([]Mailbox), nil
	}

	respBody, _, err := c.request(ctx, http.MethodGet, "/accounts/"+accountID+"/mailboxes", nil, nil)
	if err != nil {
		return nil, err
	}

	var coll jsonLDCollection
	if err := json.Unmarshal(respBody, &coll); err != nil {
		return nil, fmt.Errorf("mailprovider: decode mailboxes: %w", err)
	}

	mailboxes := make([]Mailbox, 0, len(coll.Member))
	for _, raw := range coll.Member {
		var mb Mailbox
		if err := json.Unmarshal(raw, &mb); err != nil {
			return nil, fmt.Errorf("mailprovider: decode mailbox: %w", err)
		}
		if mb.Name == "" {
			mb.Name = mb.Path
		}
		mailboxes = append(mailboxes, mb)
	}

	c.cache.set(key, mailboxes)
	return mailboxes, nil
}

type rawFrom struct {
	Address string `json:"address"`
	Name    string `json:"name"`
}

type rawMessage struct {
	ID      string          `json:"id"`
	Subject string          `json:"subject"`
	From    json.RawMessage `json:"from"`
	Date    time.Time       `json:"date"`
	HTML    json.RawMessage `json:"html"`
	Text    json.RawMessage `json:"text"`
}

func normalizeMessage(rm rawMessage) Message {
	msg := Message{ID: rm.ID, Subject: rm.Subject, Date: rm.Date}

	if len(rm.From) > 0 {
		var asObj rawFrom
		if err := json.Unmarshal(rm.From, &asObj); err == nil && asObj.Address != "" {
			msg.Sender = asObj.Address
			if asObj.Name != "" {
				msg.From = fmt.Sprintf("%s <%s>", asObj.Name, asObj.Address)
			} else {
				msg.From = asObj.Address
			}
		} else {
			var asStr string
			if err := json.Unmarshal(rm.From, &asStr); err == nil {
				msg.From = asStr
				msg.Sender = asStr
			}
		}
	}

	msg.HTML = joinStringOrArray(rm.HTML)
	msg.Text = joinStringOrArray(rm.Text)
	return msg
}

func joinStringOrArray(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var asArr []string
	if err := json.Unmarshal(raw, &asArr); err == nil {
		return strings.Join(asArr, "\n")
	}
	var asStr string
	if err := json.Unmarshal(raw, &asStr); err == nil {
		return asStr
	}
	return ""
}

// ListMessages fetches one page of messages in a mailbox.
func (c *Client) ListMessages(ctx context.Context, accountID, mailboxID string, page, perPage int) ([]Message, int, error) {
	if perPage <= 0 {
		perPage = 50
	}
	respBody, _, err := c.request(ctx, http.MethodGet,
		fmt.Sprintf("/accounts/%s/mailboxes/%s/messages", accountID, mailboxID),
		map[string]string{"page": fmt.Sprintf("%d", page), "per_page": fmt.Sprintf("%d", perPage)}, nil)
	if err != nil {
		return nil, 0, err
	}

	var coll jsonLDCollection
	if err := json.Unmarshal(respBody, &coll); err != nil {
		return nil, 0, fmt.Errorf("mailprovider: decode messages: %w", err)
	}

	messages := make([]Message, 0, len(coll.Member))
	for _, raw := range coll.Member {
		var rm rawMessage
		if err := json.Unmarshal(raw, &rm); err != nil {
			return nil, 0, fmt.Errorf("mailprovider: decode message: %w", err)
		}
		msg := normalizeMessage(rm)
		msg.MailboxID = mailboxID
		messages = append(messages, msg)
	}

	return messages, coll.TotalItems, nil
}

// ListAllHeaders fetches every message across the given mailboxes,
// paging through each until its collection runs dry.
func (c *Client) ListAllHeaders(ctx context.Context, accountID string, mailboxIDs []string) ([]Message, error) {
	var all []Message
	for _, mailboxID := range mailboxIDs {
		page := 1
		for {
			msgs, _, err := c.ListMessages(ctx, accountID, mailboxID, page, 100)
			if err != nil {
				return nil, err
			}
			if len(msgs) == 0 {
				break
			}
			all = append(all, msgs...)
			if len(msgs) < 100 {
				break
			}
			page++
		}
	}
	return all, nil
}

// GetMessage fetches a single message with full body.
func (c *Client) GetMessage(ctx context.Context, accountID, mailboxID, messageID string) (Message, error) {
	path := fmt.Sprintf("/accounts/%s/mailboxes/%s/messages/%s", accountID, mailboxID, messageID)
	respBody, _, err := c.request(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return Message{}, err
	}

	var rm rawMessage
	if err := json.Unmarshal(respBody, &rm); err != nil {
		return Message{}, fmt.Errorf("mailprovider: decode message: %w", err)
	}
	return normalizeMessage(rm), nil
}

// GetAttachment downloads a single attachment's bytes and metadata.
func (c *Client) GetAttachment(ctx context.Context, accountID, mailboxID, messageID, attachmentID string) (Attachment, error) {
	path := fmt.Sprintf("/accounts/%s/mailboxes/%s/messages/%s/attachment/%s", accountID, mailboxID, messageID, attachmentID)

	var lastStatus int
	for attempt := 0; attempt < maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
		if err != nil {
			return Attachment{}, fmt.Errorf("mailprovider: build request: %w", err)
		}
		req.Header = c.headers()

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return Attachment{}, fmt.Errorf("mailprovider: request failed: %w", err)
		}

		lastStatus = resp.StatusCode
		if resp.StatusCode == http.StatusTooManyRequests {
			resp.Body.Close()
			if attempt == maxRetries-1 {
				break
			}
			wait := retryBackoff[attempt]
			timer := time.NewTimer(wait)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				return Attachment{}, ctx.Err()
			}
			continue
		}

		content, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			return Attachment{}, fmt.Errorf("mailprovider: read attachment: %w", readErr)
		}
		if resp.StatusCode >= 300 {
			return Attachment{}, fmt.Errorf("mailprovider: status %d: %s", resp.StatusCode, string(content))
		}

		contentType := resp.Header.Get("Content-Type")
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		filename := "attachment"
		if cd := resp.Header.Get("Content-Disposition"); strings.Contains(cd, "filename=") {
			parts := strings.SplitN(cd, "filename=", 2)
			filename = strings.Trim(parts[1], `" `)
		}

		return Attachment{Content: content, ContentType: contentType, Filename: filename}, nil
	}

	return Attachment{}, fmt.Errorf("mailprovider: rate limited after %d retries: %s", maxRetries, path)
}
