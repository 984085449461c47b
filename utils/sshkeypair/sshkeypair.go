// Package sshkeypair ensures an OpenSSH key pair exists on disk.
package sshkeypair

import (
	"crypto"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/rsa"
	"encoding/pem"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/ssh"
)

// KeyType names a supported key algorithm.
type KeyType string

const (
	KeyTypeEd25519 KeyType = "ed25519"
	KeyTypeRSA     KeyType = "rsa"
)

const (
	defaultBits    = 4096
	minKeyBits     = 2048
	defaultComment = "workstation-bootstrap"
)

// ParseKeyType validates a configured key type.
func ParseKeyType(value string) (KeyType, error) {
	switch KeyType(strings.ToLower(strings.TrimSpace(value))) {
	case KeyTypeEd25519, "":
		return KeyTypeEd25519, nil
	case KeyTypeRSA:
		return KeyTypeRSA, nil
	default:
		return "", OptionError{Reason: fmt.Sprintf("unsupported key type %q", value)}
	}
}

// DefaultPath returns the conventional private key path for keyType under home.
func DefaultPath(home string, keyType KeyType) string {
	return filepath.Join(home, ".ssh", "id_"+string(keyType))
}

// KeyPairInfo describes the ensured key pair.
type KeyPairInfo struct {
	PrivatePath   string
	PublicPath    string
	KeyGenerated  bool
	PublicCreated bool
}

// Option configures EnsureKeyPair behavior.
type Option func(*ensureOptions) error

type ensureOptions struct {
	keyType KeyType
	bits    int
	comment string
}

// WithKeyType selects the algorithm used when a key must be generated.
func WithKeyType(keyType KeyType) Option {
	return func(opts *ensureOptions) error {
		parsed, err := ParseKeyType(string(keyType))
		if err != nil {
			return err
		}
		opts.keyType = parsed
		return nil
	}
}

// WithKeyBits overrides the RSA key size.
func WithKeyBits(bits int) Option {
	return func(opts *ensureOptions) error {
		if bits < minKeyBits {
			return OptionError{Reason: fmt.Sprintf("bits must be >= %d", minKeyBits)}
		}
		opts.bits = bits
		return nil
	}
}

// WithComment overrides the comment appended to the public key line.
func WithComment(comment string) Option {
	return func(opts *ensureOptions) error {
		comment = strings.TrimSpace(comment)
		if comment == "" {
			return OptionError{Reason: "comment must not be empty"}
		}
		opts.comment = comment
		return nil
	}
}

// Exists reports whether the private key at privatePath is present.
func Exists(privatePath string) (bool, error) {
	ok, err := fileExists(privatePath)
	if err != nil {
		return false, FileStatError{Path: privatePath, Err: err}
	}
	return ok, nil
}

// EnsureKeyPair checks for an SSH key pair and creates it when missing. An
// existing private key is never replaced; a missing public half is re-derived.
func EnsureKeyPair(privatePath string, opts ...Option) (*KeyPairInfo, error) {
	privatePath = strings.TrimSpace(privatePath)
	if privatePath == "" {
		return nil, PathError{Reason: "private key path is required"}
	}

	pubPath := privatePath + ".pub"
	cfg := ensureOptions{
		keyType: KeyTypeEd25519,
		bits:    defaultBits,
		comment: defaultComment,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	info := &KeyPairInfo{
		PrivatePath: privatePath,
		PublicPath:  pubPath,
	}

	privExists, err := fileExists(privatePath)
	if err != nil {
		return nil, FileStatError{Path: privatePath, Err: err}
	}

	pubExists, err := fileExists(pubPath)
	if err != nil {
		return nil, FileStatError{Path: pubPath, Err: err}
	}

	if privExists {
		if !pubExists {
			signer, err := readPrivateKey(privatePath)
			if err != nil {
				return nil, err
			}
			if err := writePublicKey(pubPath, signer.PublicKey(), cfg.comment); err != nil {
				return nil, err
			}
			info.PublicCreated = true
		}
		return info, nil
	}

	if err := generateAndWritePair(privatePath, pubPath, cfg); err != nil {
		return nil, err
	}

	info.KeyGenerated = true
	info.PublicCreated = true

	return info, nil
}

func generateAndWritePair(privatePath, publicPath string, cfg ensureOptions) error {
	var (
		key crypto.PrivateKey
		pub crypto.PublicKey
	)
	switch cfg.keyType {
	case KeyTypeRSA:
		rsaKey, err := rsa.GenerateKey(rand.Reader, cfg.bits)
		if err != nil {
			return KeyGenerateError{Type: cfg.keyType, Err: err}
		}
		key, pub = rsaKey, &rsaKey.PublicKey
	default:
		edPub, edKey, err := ed25519.GenerateKey(rand.Reader)
		if err != nil {
			return KeyGenerateError{Type: cfg.keyType, Err: err}
		}
		key, pub = edKey, edPub
	}

	sshPub, err := ssh.NewPublicKey(pub)
	if err != nil {
		return KeyWriteError{Path: publicPath, Err: err}
	}

	if err := writePrivateKey(privatePath, key, cfg.comment); err != nil {
		return err
	}

	return writePublicKey(publicPath, sshPub, cfg.comment)
}

func writePrivateKey(path string, key crypto.PrivateKey, comment string) error {
	block, err := ssh.MarshalPrivateKey(key, comment)
	if err != nil {
		return KeyWriteError{Path: path, Err: err}
	}

	if err := ensureDir(path); err != nil {
		return err
	}

	if err := os.WriteFile(path, pem.EncodeToMemory(block), 0o600); err != nil {
		return KeyWriteError{Path: path, Err: err}
	}

	return nil
}

func writePublicKey(path string, pub ssh.PublicKey, comment string) error {
	line := strings.TrimSpace(string(ssh.MarshalAuthorizedKey(pub)))
	if comment != "" {
		line = fmt.Sprintf("%s %s", line, comment)
	}
	line += "\n"

	if err := ensureDir(path); err != nil {
		return err
	}

	if err := os.WriteFile(path, []byte(line), 0o644); err != nil {
		return KeyWriteError{Path: path, Err: err}
	}

	return nil
}

func readPrivateKey(path string) (ssh.Signer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, KeyReadError{Path: path, Err: err}
	}

	signer, err := ssh.ParsePrivateKey(data)
	if err != nil {
		return nil, KeyParseError{Path: path, Err: err}
	}
	return signer, nil
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return KeyWriteError{Path: path, Err: err}
	}
	return nil
}

func fileExists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}
