package policy

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"strings"
	"time"

	"github.com/JeanGrijp/cascade-gateway/internal/core/domain"
)

var hashes = map[string]func() hash.Hash{
	"md5":    md5.New,
	"sha1":   sha1.New,
	"sha256": sha256.New,
}

const defaultExpiredMessage = "Invalid or expired timestamp"

// SignerSpec descreve como um token curto é derivado.
// Format aceita os marcadores {payload} e {secret}.
type SignerSpec struct {
	Hash           string        `yaml:"hash"`
	Format         string        `yaml:"format"`
	Secret         string        `yaml:"secret"`
	Length         int           `yaml:"length"`
	Tolerance      time.Duration `yaml:"tolerance"`
	Hint           string        `yaml:"hint"`
	Message        string        `yaml:"message"`
	ExpiredMessage string        `yaml:"expired_message"`
}

// Signer recalcula o token esperado a cada verificação; nada é armazenado.
type Signer struct {
	newHash func() hash.Hash
	spec    SignerSpec
}

func NewSigner(spec SignerSpec) (*Signer, error) {
	newHash, ok := hashes[strings.ToLower(spec.Hash)]
	if !ok {
		return nil, fmt.Errorf("unsupported signer hash: %q", spec.Hash)
	}
	if !strings.Contains(spec.Format, "{payload}") {
		return nil, fmt.Errorf("signer format must reference {payload}: %q", spec.Format)
	}
	if spec.Length < 0 {
		return nil, fmt.Errorf("signer length must not be negative: %d", spec.Length)
	}
	if spec.Tolerance < 0 {
		return nil, fmt.Errorf("signer tolerance must not be negative: %s", spec.Tolerance)
	}
	if spec.Message == "" {
		spec.Message = "Invalid signature"
	}
	if spec.ExpiredMessage == "" {
		spec.ExpiredMessage = defaultExpiredMessage
	}
	return &Signer{newHash: newHash, spec: spec}, nil
}

// RequiresTimestamp indica se a janela de validade está ativa.
func (s *Signer) RequiresTimestamp() bool {
	return s.spec.Tolerance > 0
}

// Derive calcula truncate(hex(hash(format(payload, secret))), length).
func (s *Signer) Derive(payload string) string {
	composed := strings.NewReplacer("{payload}", payload, "{secret}", s.spec.Secret).Replace(s.spec.Format)
	h := s.newHash()
	h.Write([]byte(composed))
	digest := hex.EncodeToString(h.Sum(nil))
	if s.spec.Length > 0 && s.spec.Length < len(digest) {
		return digest[:s.spec.Length]
	}
	return digest
}

// Verify checa primeiro a janela de validade e depois a assinatura.
func (s *Signer) Verify(payload, suppliedTimestamp, suppliedToken string, now time.Time) error {
	if s.RequiresTimestamp() {
		ts, ok := parseLeadingInt(suppliedTimestamp)
		if !ok {
			return &domain.AuthError{Reason: domain.AuthExpired, Message: s.spec.ExpiredMessage}
		}
		skew := now.Unix() - ts
		if skew < 0 {
			skew = -skew
		}
		if skew > int64(s.spec.Tolerance/time.Second) {
			return &domain.AuthError{Reason: domain.AuthExpired, Message: s.spec.ExpiredMessage}
		}
	}

	if suppliedToken == "" || suppliedToken != s.Derive(payload) {
		return &domain.AuthError{Reason: domain.AuthBadSignature, Message: s.spec.Message, Hint: s.spec.Hint}
	}
	return nil
}

// parseLeadingInt segue a semântica de parseInt sem radix: espaços iniciais,
// sinal opcional, prefixo 0x para hexadecimal e o maior prefixo de dígitos.
// "123abc" vale 123 e "0x1A" vale 26.
func parseLeadingInt(raw string) (int64, bool) {
	s := strings.TrimLeft(raw, " \t\n\r\f\v")
	neg := false
	if s != "" && (s[0] == '+' || s[0] == '-') {
		neg = s[0] == '-'
		s = s[1:]
	}
	base := int64(10)
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		base = 16
		s = s[2:]
	}
	var n int64
	digits := 0
	for digits < len(s) {
		d := digitValue(s[digits])
		if d < 0 || d >= base {
			break
		}
		if n > (1<<62)/base {
			return 0, false
		}
		n = n*base + d
		digits++
	}
	if digits == 0 {
		return 0, false
	}
	if neg {
		n = -n
	}
	return n, true
}

func digitValue(c byte) int64 {
	switch {
	case c >= '0' && c <= '9':
		return int64(c - '0')
	case c >= 'a' && c <= 'f':
		return int64(c-'a') + 10
	case c >= 'A' && c <= 'F':
		return int64(c-'A') + 10
	default:
		return -1
	}
}
