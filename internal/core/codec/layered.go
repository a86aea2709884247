// Package codec aplica cadeias ordenadas de codificações sem envelope autodescritivo.
// Quem decodifica precisa conhecer a cadeia; uma camada a menos produz lixo, não erro.
package codec

import (
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

type Transform interface {
	Name() string
	Encode(in []byte) ([]byte, error)
	Decode(in []byte) ([]byte, error)
}

type hexTransform struct{}

func (hexTransform) Name() string { return "hex" }

func (hexTransform) Encode(in []byte) ([]byte, error) {
	out := make([]byte, hex.EncodedLen(len(in)))
	hex.Encode(out, in)
	return out, nil
}

func (hexTransform) Decode(in []byte) ([]byte, error) {
	out := make([]byte, hex.DecodedLen(len(in)))
	n, err := hex.Decode(out, in)
	if err != nil {
		return nil, err
	}
	return out[:n], nil
}

type base64Transform struct {
	name string
	enc  *base64.Encoding
}

func (t base64Transform) Name() string { return t.name }

func (t base64Transform) Encode(in []byte) ([]byte, error) {
	out := make([]byte, t.enc.EncodedLen(len(in)))
	t.enc.Encode(out, in)
	return out, nil
}

func (t base64Transform) Decode(in []byte) ([]byte, error) {
	out := make([]byte, t.enc.DecodedLen(len(in)))
	n, err := t.enc.Decode(out, in)
	if err != nil {
		return nil, err
	}
	return out[:n], nil
}

type utf8Transform struct{}

func (utf8Transform) Name() string { return "utf8" }

func (utf8Transform) Encode(in []byte) ([]byte, error) { return validUTF8(in) }

func (utf8Transform) Decode(in []byte) ([]byte, error) { return validUTF8(in) }

func validUTF8(in []byte) ([]byte, error) {
	if !utf8.Valid(in) {
		return nil, errors.New("invalid utf-8 sequence")
	}
	return in, nil
}

var registry = map[string]Transform{
	"hex":       hexTransform{},
	"base64":    base64Transform{name: "base64", enc: base64.StdEncoding},
	"base64url": base64Transform{name: "base64url", enc: base64.URLEncoding},
	"utf8":      utf8Transform{},
}

// Lookup devolve a transformação registrada com o nome informado.
func Lookup(name string) (Transform, bool) {
	t, ok := registry[strings.ToLower(strings.TrimSpace(name))]
	return t, ok
}

// Chain é aplicada em ordem por Produce e em ordem inversa por Consume.
type Chain []Transform

func ParseChain(names []string) (Chain, error) {
	chain := make(Chain, 0, len(names))
	for _, name := range names {
		t, ok := Lookup(name)
		if !ok {
			return nil, fmt.Errorf("unknown transform %q", name)
		}
		chain = append(chain, t)
	}
	return chain, nil
}

// ParseChainString aceita nomes separados por vírgula ou "->".
func ParseChainString(raw string) (Chain, error) {
	raw = strings.ReplaceAll(raw, "->", ",")
	var names []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			names = append(names, part)
		}
	}
	return ParseChain(names)
}

func (c Chain) Produce(plain []byte) ([]byte, error) {
	out := plain
	for _, t := range c {
		next, err := t.Encode(out)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", t.Name(), err)
		}
		out = next
	}
	return out, nil
}

func (c Chain) Consume(blob []byte) ([]byte, error) {
	out := blob
	for i := len(c) - 1; i >= 0; i-- {
		next, err := c[i].Decode(out)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", c[i].Name(), err)
		}
		out = next
	}
	return out, nil
}

func (c Chain) String() string {
	names := make([]string, len(c))
	for i, t := range c {
		names[i] = t.Name()
	}
	return strings.Join(names, "->")
}
