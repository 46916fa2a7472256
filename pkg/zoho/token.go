package zoho

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"golang.org/x/crypto/pbkdf2"
	"golang.org/x/oauth2"
)

// ErrNoToken means the token file is missing or unreadable and the
// authorization flow has to be run.
var ErrNoToken = errors.New("zoho: no token data; run the authorization flow")

const (
	tokenSalt      = "houzz_to_zoho_salt"
	pbkdf2Iters    = 100000
	refreshLeeway  = 5 * time.Minute
	zohoAuthURL    = "https://accounts.zoho.com/oauth/v2/auth"
	zohoTokenURL   = "https://accounts.zoho.com/oauth/v2/token"
	zohoBooksScope = "ZohoBooks.fullaccess.all"
)

// TokenConfig configures OAuth credentials and token storage.
type TokenConfig struct {
	ClientID      string
	ClientSecret  string
	RedirectURL   string
	TokenFile     string
	EncryptionKey string
}

// TokenManager stores, refreshes and serves Zoho OAuth tokens. The token
// file is AES-GCM encrypted with a key derived from the configured secret.
type TokenManager struct {
	oauth *oauth2.Config
	file  string
	key   []byte

	mu sync.Mutex
}

// NewTokenManager creates a TokenManager.
func NewTokenManager(cfg TokenConfig) *TokenManager {
	return &TokenManager{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{zohoBooksScope},
			Endpoint: oauth2.Endpoint{
				AuthURL:  zohoAuthURL,
				TokenURL: zohoTokenURL,
			},
		},
		file: cfg.TokenFile,
		key:  pbkdf2.Key([]byte(cfg.EncryptionKey), []byte(tokenSalt), pbkdf2Iters, 32, sha256.New),
	}
}

// AuthURL is the URL the user visits to authorize the application. The
// consent prompt is forced so Zoho always returns a refresh token.
func (m *TokenManager) AuthURL() string {
	return m.oauth.AuthCodeURL("",
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
	)
}

// SaveAuthCode exchanges an authorization code for tokens and persists
// them.
func (m *TokenManager) SaveAuthCode(ctx context.Context, code string) error {
	tok, err := m.oauth.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("zoho: exchange auth code: %w", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.save(tok)
}

// AccessToken returns a valid access token, refreshing it when it is
// expired or about to expire.
func (m *TokenManager) AccessToken(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	tok, err := m.load()
	if err != nil {
		return "", err
	}

	if tok.AccessToken != "" && time.Until(tok.Expiry) > refreshLeeway {
		return tok.AccessToken, nil
	}
	if tok.RefreshToken == "" {
		return "", fmt.Errorf("zoho: no refresh token: %w", ErrNoToken)
	}

	// Force the token source to hit the refresh endpoint.
	stale := *tok
	stale.Expiry = time.Now().Add(-time.Minute)
	fresh, err := m.oauth.TokenSource(ctx, &stale).Token()
	if err != nil {
		return "", fmt.Errorf("zoho: refresh token: %w", err)
	}
	if fresh.RefreshToken == "" {
		fresh.RefreshToken = tok.RefreshToken
	}
	if err := m.save(fresh); err != nil {
		return "", err
	}
	return fresh.AccessToken, nil
}

// Invalidate marks the stored access token expired so the next AccessToken
// call refreshes it. The refresh token is kept.
func (m *TokenManager) Invalidate() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	tok, err := m.load()
	if err != nil {
		return err
	}
	tok.Expiry = time.Now().Add(-time.Minute)
	return m.save(tok)
}

// Clear removes the token file entirely.
func (m *TokenManager) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	err := os.Remove(m.file)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("zoho: clear tokens: %w", err)
	}
	return nil
}

func (m *TokenManager) save(tok *oauth2.Token) error {
	plain, err := json.Marshal(tok)
	if err != nil {
		return fmt.Errorf("zoho: marshal token: %w", err)
	}
	sealed, err := m.encrypt(plain)
	if err != nil {
		return fmt.Errorf("zoho: encrypt token: %w", err)
	}
	if err := os.WriteFile(m.file, sealed, 0o600); err != nil {
		return fmt.Errorf("zoho: write token file: %w", err)
	}
	return nil
}

func (m *TokenManager) load() (*oauth2.Token, error) {
	data, err := os.ReadFile(m.file)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoToken
		}
		return nil, fmt.Errorf("zoho: read token file: %w", err)
	}

	plain, err := m.decrypt(data)
	if err != nil {
		// Pre-encryption token files were plain JSON.
		plain = data
	}
	var tok oauth2.Token
	if err := json.Unmarshal(plain, &tok); err != nil {
		return nil, fmt.Errorf("zoho: token file corrupt: %w", ErrNoToken)
	}
	return &tok, nil
}

func (m *TokenManager) encrypt(plain []byte) ([]byte, error) {
	block, err := aes.NewCipher(m.key)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	return gcm.Seal(nonce, nonce, plain, nil), nil
}

func (m *TokenManager) decrypt(data []byte) ([]byte, error) {
	block, err := aes.NewCipher(m.key)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	if len(data) < gcm.NonceSize() {
		return nil, errors.New("ciphertext too short")
	}
	nonce, sealed := data[:gcm.NonceSize()], data[gcm.NonceSize():]
	return gcm.Open(nil, nonce, sealed, nil)
}
