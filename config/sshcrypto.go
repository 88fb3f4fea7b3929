package config

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/crypto/ssh"
)

// keyDerivationMessage is signed with the SSH key; the signature hash becomes
// the AES key. Changing it invalidates every existing credentials.enc.
const keyDerivationMessage = "promptsmith-credential-key-v1"

// sshKeyCandidates are tried in ~/.ssh when no key path is configured. Only
// ed25519 and RSA PKCS#1 v1.5 sign deterministically, so only they give a
// stable key.
var sshKeyCandidates = []string{"promptsmith_ed25519", "id_ed25519", "id_rsa"}

var ErrPassphraseRequired = errors.New("SSH key is encrypted, passphrase required")

func defaultSSHKey() (string, error) {
	sshDir := filepath.Join(GetHomeDir(), ".ssh")
	for _, name := range sshKeyCandidates {
		path := filepath.Join(sshDir, name)
		if FileExists(path) {
			return path, nil
		}
	}
	return "", fmt.Errorf("no SSH private key found in %s (tried %v)", sshDir, sshKeyCandidates)
}

// loadSigner parses the private key at keyPath, or the first candidate key
// when keyPath is empty. Encrypted keys need passphrase.
func loadSigner(keyPath, passphrase string) (ssh.Signer, error) {
	if keyPath == "" {
		var err error
		if keyPath, err = defaultSSHKey(); err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(keyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read SSH key: %w", err)
	}

	signer, err := ssh.ParsePrivateKey(data)
	var missing *ssh.PassphraseMissingError
	switch {
	case err == nil:
		Logf("[Credentials] Using SSH key %s", keyPath)
		return signer, nil
	case !errors.As(err, &missing):
		return nil, fmt.Errorf("failed to parse SSH key %s: %w", keyPath, err)
	case passphrase == "":
		return nil, fmt.Errorf("%w: %s", ErrPassphraseRequired, keyPath)
	}

	signer, err = ssh.ParsePrivateKeyWithPassphrase(data, []byte(passphrase))
	if err != nil {
		return nil, fmt.Errorf("failed to parse SSH key (wrong passphrase?): %w", err)
	}
	Logf("[Credentials] Using encrypted SSH key %s", keyPath)
	return signer, nil
}

// deriveKey turns a signature over keyDerivationMessage into an AES-256 key.
func deriveKey(signer ssh.Signer) ([]byte, error) {
	signature, err := signer.Sign(rand.Reader, []byte(keyDerivationMessage))
	if err != nil {
		return nil, fmt.Errorf("failed to sign key derivation message: %w", err)
	}
	sum := sha256.Sum256(signature.Blob)
	return sum[:], nil
}

// credentialCipher seals the credentials blob with AES-256-GCM. Sealed data
// is the nonce followed by ciphertext and tag.
type credentialCipher struct {
	aead cipher.AEAD
}

func newCredentialCipher(signer ssh.Signer) (*credentialCipher, error) {
	key, err := deriveKey(signer)
	if err != nil {
		return nil, err
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &credentialCipher{aead: aead}, nil
}

func (c *credentialCipher) seal(plaintext []byte) ([]byte, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	return c.aead.Seal(nonce, nonce, plaintext, nil), nil
}

func (c *credentialCipher) open(sealed []byte) ([]byte, error) {
	n := c.aead.NonceSize()
	if len(sealed) < n {
		return nil, errors.New("sealed credentials too short")
	}
	plaintext, err := c.aead.Open(nil, sealed[:n], sealed[n:], nil)
	if err != nil {
		return nil, fmt.Errorf("decryption failed: %w", err)
	}
	return plaintext, nil
}
