package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/BurntSushi/toml"
)

// SecurityMethod selects how API keys are kept on disk.
type SecurityMethod string

const (
	// SecurityPlainText writes credentials.toml, readable by the owner only.
	SecurityPlainText SecurityMethod = "plaintext"
	// SecuritySSHKey writes credentials.enc, sealed with a key derived from
	// the user's SSH private key.
	SecuritySSHKey SecurityMethod = "ssh_key"
)

// CredentialStore keeps one API key per provider id. Keys for services other
// than providers (e.g. "redis") share the same store.
type CredentialStore struct {
	mu          sync.RWMutex
	method      SecurityMethod
	credentials map[string]string
	sshKeyPath  string
	passphrase  string
	sealer      *credentialCipher
}

func NewCredentialStore(method SecurityMethod, sshKeyPath string) *CredentialStore {
	return &CredentialStore{
		method:      method,
		credentials: make(map[string]string),
		sshKeyPath:  sshKeyPath,
	}
}

// SetPassphrase unlocks an encrypted SSH key on the next Load or Save.
func (c *CredentialStore) SetPassphrase(passphrase string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.passphrase = passphrase
	c.sealer = nil
}

func (c *CredentialStore) Method() SecurityMethod {
	return c.method
}

func (c *CredentialStore) Get(id string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.credentials[id]
}

func (c *CredentialStore) Set(id, apiKey string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.credentials[id] = apiKey
}

func (c *CredentialStore) Delete(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.credentials, id)
}

// Providers returns the ids that have a stored key, sorted.
func (c *CredentialStore) Providers() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ids := make([]string, 0, len(c.credentials))
	for id := range c.credentials {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Load replaces the in-memory keys with the file for the configured method.
// A missing file leaves the store empty.
func (c *CredentialStore) Load(dataDir string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	path, err := c.path(dataDir)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		c.credentials = make(map[string]string)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read credentials: %w", err)
	}

	creds, err := c.decode(data)
	if err != nil {
		return err
	}
	if creds == nil {
		creds = make(map[string]string)
	}
	c.credentials = creds
	Logf("[Credentials] Loaded %d keys (%s)", len(creds), c.method)
	return nil
}

// Save writes every key to the file for the configured method.
func (c *CredentialStore) Save(dataDir string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	path, err := c.path(dataDir)
	if err != nil {
		return err
	}
	data, err := c.encode()
	if err != nil {
		return err
	}
	if err := writeFileAtomic(path, data); err != nil {
		return fmt.Errorf("failed to write credentials: %w", err)
	}
	return nil
}

func (c *CredentialStore) path(dataDir string) (string, error) {
	switch c.method {
	case SecurityPlainText:
		return credentialsPath(dataDir), nil
	case SecuritySSHKey:
		return encryptedCredentialsPath(dataDir), nil
	}
	return "", fmt.Errorf("unknown security method: %s", c.method)
}

func credentialsPath(dataDir string) string {
	return filepath.Join(dataDir, "credentials.toml")
}

func encryptedCredentialsPath(dataDir string) string {
	return filepath.Join(dataDir, "credentials.enc")
}

type credentialsFile struct {
	Credentials map[string]string `toml:"credentials"`
}

func (c *CredentialStore) encode() ([]byte, error) {
	if c.method == SecurityPlainText {
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(credentialsFile{Credentials: c.credentials}); err != nil {
			return nil, fmt.Errorf("failed to encode credentials: %w", err)
		}
		return buf.Bytes(), nil
	}

	sealer, err := c.cipher()
	if err != nil {
		return nil, err
	}
	plaintext, err := json.Marshal(c.credentials)
	if err != nil {
		return nil, fmt.Errorf("failed to encode credentials: %w", err)
	}
	sealed, err := sealer.seal(plaintext)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt credentials: %w", err)
	}
	return sealed, nil
}

func (c *CredentialStore) decode(data []byte) (map[string]string, error) {
	if c.method == SecurityPlainText {
		var cf credentialsFile
		if _, err := toml.Decode(string(data), &cf); err != nil {
			return nil, fmt.Errorf("failed to parse credentials file: %w", err)
		}
		return cf.Credentials, nil
	}

	sealer, err := c.cipher()
	if err != nil {
		return nil, err
	}
	plaintext, err := sealer.open(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt credentials: %w", err)
	}
	var creds map[string]string
	if err := json.Unmarshal(plaintext, &creds); err != nil {
		return nil, fmt.Errorf("failed to parse decrypted credentials: %w", err)
	}
	return creds, nil
}

// cipher derives the sealing key on first use, so the SSH key is only read
// once credentials.enc is actually touched. Callers hold c.mu.
func (c *CredentialStore) cipher() (*credentialCipher, error) {
	if c.sealer != nil {
		return c.sealer, nil
	}
	signer, err := loadSigner(c.sshKeyPath, c.passphrase)
	if err != nil {
		return nil, err
	}
	sealer, err := newCredentialCipher(signer)
	if err != nil {
		return nil, fmt.Errorf("failed to derive credential key: %w", err)
	}
	c.sealer = sealer
	return sealer, nil
}
