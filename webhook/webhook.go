/* Copyright 2026 Comcast Cable Communications Management, LLC
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 * http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package webhook posts intent matches to a fulfillment endpoint.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"sync"
	"time"

	"golang.org/x/net/publicsuffix"
)

// Jar is a cookie jar for fulfillment endpoints that use session
// cookies.
type Jar struct {
	*cookiejar.Jar
}

// NewJar creates a jar with the standard public suffix list.
func NewJar() (*Jar, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, err
	}
	return &Jar{Jar: jar}, nil
}

// Fulfillment is the request body sent on an intent match.
type Fulfillment struct {
	UserID string   `json:"user"`
	Intent string   `json:"intent"`
	Action string   `json:"action,omitempty"`
	Input  string   `json:"input,omitempty"`
	States []string `json:"states"`
	Next   []string `json:"next"`
}

// Response is what a fulfillment endpoint may answer with.  Texts are
// appended to the user-facing reply; everything is optional.
type Response struct {
	StatusCode int                    `json:"-"`
	Texts      []string               `json:"fulfillmentTexts,omitempty"`
	Payload    map[string]interface{} `json:"payload,omitempty"`
}

// Client calls one fulfillment endpoint.
type Client struct {
	URL string

	// Token, when set, is sent as a bearer token.
	Token string

	Timeout time.Duration
	Jar     *Jar

	// TestResponse, if set, is returned instead of making a real
	// request.
	TestResponse *Response

	initOnce   sync.Once
	httpClient *http.Client
}

// DefaultTimeout bounds a fulfillment round-trip when the Client
// doesn't set one.
const DefaultTimeout = 10 * time.Second

// client builds the HTTP client on first use.  Fulfill runs on
// per-message goroutines, so the init is guarded.
func (c *Client) client() *http.Client {
	c.initOnce.Do(func() {
		timeout := c.Timeout
		if timeout == 0 {
			timeout = DefaultTimeout
		}
		c.httpClient = &http.Client{
			Timeout: timeout,
		}
		if c.Jar != nil {
			c.httpClient.Jar = c.Jar.Jar
		}
	})
	return c.httpClient
}

// Fulfill posts the match and decodes the endpoint's reply.  A non-2xx
// status is an error; an empty or non-JSON 2xx body is a Response with
// nothing in it.
func (c *Client) Fulfill(ctx context.Context, f Fulfillment) (*Response, error) {
	if c.TestResponse != nil {
		return c.TestResponse, nil
	}

	js, err := json.Marshal(&f)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, bytes.NewReader(js))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.client().Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fulfillment endpoint returned %s", resp.Status)
	}

	r := &Response{StatusCode: resp.StatusCode}
	if len(body) > 0 {
		// Tolerate non-JSON bodies: fulfillment is best-effort.
		_ = json.Unmarshal(body, r)
	}
	return r, nil
}
