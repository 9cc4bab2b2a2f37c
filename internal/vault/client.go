package vault

import (
	"context"
	"fmt"
	"sync"

	"signal-fusion-engine/config"

	"github.com/hashicorp/vault/api"
)

// ProviderCredentials represents the credentials for an external data provider
// (market data feeds, sentiment APIs, fundamentals vendors) stored in Vault.
type ProviderCredentials struct {
	APIKey    string `json:"api_key"`
	APISecret string `json:"api_secret"`
	Provider  string `json:"provider"`
	Sandbox   bool   `json:"sandbox"`
}

// Client wraps the HashiCorp Vault client
type Client struct {
	client       *api.Client
	config       config.VaultConfig
	mu           sync.RWMutex
	cache        map[string]*ProviderCredentials // provider -> credentials cache
	cacheEnabled bool
}

// NewClient creates a new Vault client
func NewClient(cfg config.VaultConfig) (*Client, error) {
	if !cfg.Enabled {
		return &Client{
			config:       cfg,
			cache:        make(map[string]*ProviderCredentials),
			cacheEnabled: true,
		}, nil
	}

	vaultConfig := api.DefaultConfig()
	vaultConfig.Address = cfg.Address

	if cfg.TLSEnabled && cfg.CACert != "" {
		tlsConfig := &api.TLSConfig{
			CACert: cfg.CACert,
		}
		if err := vaultConfig.ConfigureTLS(tlsConfig); err != nil {
			return nil, fmt.Errorf("failed to configure TLS: %w", err)
		}
	}

	client, err := api.NewClient(vaultConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create vault client: %w", err)
	}

	client.SetToken(cfg.Token)

	return &Client{
		client:       client,
		config:       cfg,
		cache:        make(map[string]*ProviderCredentials),
		cacheEnabled: true,
	}, nil
}

// StoreCredentials stores credentials for a data provider in Vault
func (c *Client) StoreCredentials(ctx context.Context, creds ProviderCredentials) error {
	if !c.config.Enabled {
		// Store in local cache only (for development/testing)
		c.mu.Lock()
		c.cache[c.cacheKey(creds.Provider, creds.Sandbox)] = &creds
		c.mu.Unlock()
		return nil
	}

	path := c.secretPath(creds.Provider, creds.Sandbox)

	secretData := map[string]interface{}{
		"data": map[string]interface{}{
			"api_key":    creds.APIKey,
			"api_secret": creds.APISecret,
			"provider":   creds.Provider,
			"sandbox":    creds.Sandbox,
		},
	}

	_, err := c.client.Logical().WriteWithContext(ctx, path, secretData)
	if err != nil {
		return fmt.Errorf("failed to store provider credentials in vault: %w", err)
	}

	// Update cache
	if c.cacheEnabled {
		c.mu.Lock()
		c.cache[c.cacheKey(creds.Provider, creds.Sandbox)] = &creds
		c.mu.Unlock()
	}

	return nil
}

// GetCredentials retrieves credentials for a data provider from Vault
func (c *Client) GetCredentials(ctx context.Context, provider string, sandbox bool) (*ProviderCredentials, error) {
	// Check cache first
	if c.cacheEnabled {
		c.mu.RLock()
		if cached, ok := c.cache[c.cacheKey(provider, sandbox)]; ok {
			c.mu.RUnlock()
			return cached, nil
		}
		c.mu.RUnlock()
	}

	if !c.config.Enabled {
		return nil, fmt.Errorf("credentials not found and vault is disabled")
	}

	path := c.secretPath(provider, sandbox)

	secret, err := c.client.Logical().ReadWithContext(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read provider credentials from vault: %w", err)
	}

	if secret == nil || secret.Data == nil {
		return nil, fmt.Errorf("credentials not found")
	}

	data, ok := secret.Data["data"].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("invalid secret format")
	}

	creds := &ProviderCredentials{
		APIKey:    getString(data, "api_key"),
		APISecret: getString(data, "api_secret"),
		Provider:  getString(data, "provider"),
		Sandbox:   getBool(data, "sandbox"),
	}

	// Update cache
	if c.cacheEnabled {
		c.mu.Lock()
		c.cache[c.cacheKey(provider, sandbox)] = creds
		c.mu.Unlock()
	}

	return creds, nil
}

// DeleteCredentials deletes credentials for a data provider from Vault
func (c *Client) DeleteCredentials(ctx context.Context, provider string, sandbox bool) error {
	// Remove from cache
	c.mu.Lock()
	delete(c.cache, c.cacheKey(provider, sandbox))
	c.mu.Unlock()

	if !c.config.Enabled {
		return nil
	}

	path := c.metadataPath(provider, sandbox)

	_, err := c.client.Logical().DeleteWithContext(ctx, path)
	if err != nil {
		return fmt.Errorf("failed to delete provider credentials from vault: %w", err)
	}

	return nil
}

// RotateCredentials updates existing provider credentials
func (c *Client) RotateCredentials(ctx context.Context, creds ProviderCredentials) error {
	return c.StoreCredentials(ctx, creds)
}

// ListProviders lists all providers with stored credentials
func (c *Client) ListProviders(ctx context.Context) ([]string, error) {
	if !c.config.Enabled {
		c.mu.RLock()
		defer c.mu.RUnlock()

		var providers []string
		for _, creds := range c.cache {
			providers = append(providers, creds.Provider)
		}
		return providers, nil
	}

	path := fmt.Sprintf("%s/metadata/%s", c.config.MountPath, c.config.SecretPath)

	secret, err := c.client.Logical().ListWithContext(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to list providers: %w", err)
	}

	if secret == nil || secret.Data == nil {
		return nil, nil
	}

	keys, ok := secret.Data["keys"].([]interface{})
	if !ok {
		return nil, nil
	}

	var result []string
	for _, key := range keys {
		if keyStr, ok := key.(string); ok {
			result = append(result, keyStr)
		}
	}

	return result, nil
}

// ClearCache clears the in-memory cache
func (c *Client) ClearCache() {
	c.mu.Lock()
	c.cache = make(map[string]*ProviderCredentials)
	c.mu.Unlock()
}

// SetCacheEnabled enables or disables caching
func (c *Client) SetCacheEnabled(enabled bool) {
	c.mu.Lock()
	c.cacheEnabled = enabled
	c.mu.Unlock()
}

// IsEnabled returns whether Vault is enabled
func (c *Client) IsEnabled() bool {
	return c.config.Enabled
}

func (c *Client) cacheKey(provider string, sandbox bool) string {
	env := "live"
	if sandbox {
		env = "sandbox"
	}
	return fmt.Sprintf("%s/%s", provider, env)
}

func (c *Client) secretPath(provider string, sandbox bool) string {
	env := "live"
	if sandbox {
		env = "sandbox"
	}
	return fmt.Sprintf("%s/data/%s/%s_%s", c.config.MountPath, c.config.SecretPath, provider, env)
}

func (c *Client) metadataPath(provider string, sandbox bool) string {
	env := "live"
	if sandbox {
		env = "sandbox"
	}
	return fmt.Sprintf("%s/metadata/%s/%s_%s", c.config.MountPath, c.config.SecretPath, provider, env)
}

func getString(data map[string]interface{}, key string) string {
	if v, ok := data[key].(string); ok {
		return v
	}
	return ""
}

func getBool(data map[string]interface{}, key string) bool {
	if v, ok := data[key].(bool); ok {
		return v
	}
	return false
}
