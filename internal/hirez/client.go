// Package hirez is a minimal client for the Hi-Rez SMITE API, used only to
// learn the current god roster: which god is the newest release and which
// class each god belongs to. The whole package is soft-failing — ingestion
// degrades to "roster unknown" when the API or credentials are broken.
package hirez

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/smitebuilds/backend/internal/domain"
	"go.uber.org/zap"
)

// DefaultBaseURL is the SMITE PC API endpoint.
const DefaultBaseURL = "https://api.smitegame.com/smiteapi.svc"

// GodInfo is what ingestion needs from the roster. Either field may be
// zero-valued when the lookup failed; callers must treat that as "unknown".
type GodInfo struct {
	NewestGod  string
	GodClasses map[string]domain.GodClass
}

// RosterProvider is the boundary the ingestion service depends on.
type RosterProvider interface {
	GodInfo(ctx context.Context) GodInfo
}

type Client struct {
	baseURL   string
	devID     string
	authKey   string
	cachePath string
	client    *http.Client
	log       *zap.Logger
	now       func() time.Time
}

func NewClient(baseURL, devID, authKey, cachePath string, log *zap.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:   baseURL,
		devID:     devID,
		authKey:   authKey,
		cachePath: cachePath,
		client:    &http.Client{Timeout: 30 * time.Second},
		log:       log,
		now:       time.Now,
	}
}

type god struct {
	Name      string `json:"Name"`
	Roles     string `json:"Roles"`
	LatestGod string `json:"latestGod"`
}

// GodInfo fetches the roster, falling back to the last cached copy when the
// API is unreachable. Failures are logged, never returned.
func (c *Client) GodInfo(ctx context.Context) GodInfo {
	gods, err := c.getGods(ctx)
	if err != nil {
		c.log.Warn("roster fetch failed", zap.Error(err))
		gods, err = c.loadCache()
		if err != nil {
			c.log.Warn("no usable roster cache", zap.Error(err))
			return GodInfo{}
		}
	} else {
		c.saveCache(gods)
	}

	info, err := parseGodInfo(gods)
	if err != nil {
		c.log.Warn("roster parse failed", zap.Error(err))
		return GodInfo{}
	}
	return info
}

func (c *Client) getGods(ctx context.Context) ([]god, error) {
	session, err := c.createSession(ctx)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	ts := c.timestamp()
	url := fmt.Sprintf("%s/getgodsJson/%s/%s/%s/%s/1",
		c.baseURL, c.devID, c.signature("getgods", ts), session, ts)

	body, err := c.get(ctx, url)
	if err != nil {
		return nil, err
	}

	var gods []god
	if err := json.Unmarshal(body, &gods); err != nil {
		return nil, fmt.Errorf("decode gods: %w", err)
	}
	return gods, nil
}

func (c *Client) createSession(ctx context.Context) (string, error) {
	ts := c.timestamp()
	url := fmt.Sprintf("%s/createsessionJson/%s/%s/%s",
		c.baseURL, c.devID, c.signature("createsession", ts), ts)

	body, err := c.get(ctx, url)
	if err != nil {
		return "", err
	}

	var resp struct {
		SessionID string `json:"session_id"`
		RetMsg    string `json:"ret_msg"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("decode session: %w", err)
	}
	if resp.SessionID == "" {
		return "", fmt.Errorf("session rejected: %s", resp.RetMsg)
	}
	return resp.SessionID, nil
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET %s: %s", url, resp.Status)
	}
	return io.ReadAll(resp.Body)
}

func (c *Client) timestamp() string {
	return c.now().UTC().Format("20060102150405")
}

func (c *Client) signature(method, ts string) string {
	sum := md5.Sum([]byte(c.devID + method + c.authKey + ts))
	return hex.EncodeToString(sum[:])
}

func (c *Client) loadCache() ([]god, error) {
	if c.cachePath == "" {
		return nil, fmt.Errorf("roster cache disabled")
	}
	data, err := os.ReadFile(c.cachePath)
	if err != nil {
		return nil, err
	}
	var gods []god
	if err := json.Unmarshal(data, &gods); err != nil {
		return nil, err
	}
	return gods, nil
}

func (c *Client) saveCache(gods []god) {
	if c.cachePath == "" {
		return
	}
	data, err := json.MarshalIndent(gods, "", "  ")
	if err == nil {
		err = os.WriteFile(c.cachePath, data, 0o644)
	}
	if err != nil {
		c.log.Warn("roster cache write failed", zap.Error(err))
	}
}

func parseGodInfo(gods []god) (GodInfo, error) {
	var newest []string
	classes := make(map[string]domain.GodClass, len(gods))
	for _, g := range gods {
		if g.LatestGod == "y" {
			newest = append(newest, g.Name)
		}
		class := domain.GodClass(g.Roles)
		if !class.IsValid() {
			return GodInfo{}, fmt.Errorf("unknown god class %q for %s", g.Roles, g.Name)
		}
		classes[g.Name] = class
	}
	if len(newest) != 1 {
		return GodInfo{}, fmt.Errorf("cannot ascertain newest god: %v", newest)
	}
	return GodInfo{NewestGod: newest[0], GodClasses: classes}, nil
}
