package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"net/url"
	"sort"
	"strings"
)

// Format selects how a payload is canonicalized before hashing.
type Format int

const (
	// FormatQuery sorts keys and concatenates key=value pairs without a separator.
	// Usage charge signatures use this form.
	FormatQuery Format = iota
	// FormatQueryJoined sorts keys and joins key=value pairs with "&".
	// Signed requests coming from the platform use this form.
	FormatQueryJoined
	// FormatJSON serializes the payload as a JSON object with sorted keys.
	FormatJSON
)

// Encoding selects the textual form of the digest.
type Encoding int

const (
	EncodingHex Encoding = iota
	EncodingBase64
)

// Options controls canonicalization and digest encoding.
type Options struct {
	Format   Format
	Encoding Encoding
}

// Payload is the set of fields that participate in a signature. Callers decide
// which fields go in; Sign never adds or drops any.
type Payload map[string]string

// Only returns a copy that contains the listed fields present in p.
func (p Payload) Only(fields ...string) Payload {
	out := make(Payload, len(fields))
	for _, f := range fields {
		if v, ok := p[f]; ok {
			out[f] = v
		}
	}
	return out
}

// Without returns a copy of p with the listed fields removed.
func (p Payload) Without(fields ...string) Payload {
	out := make(Payload, len(p))
	for k, v := range p {
		out[k] = v
	}
	for _, f := range fields {
		delete(out, f)
	}
	return out
}

// Canonical returns the exact string that gets hashed for the given format.
func (p Payload) Canonical(format Format) string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	switch format {
	case FormatJSON:
		// encoding/json writes map keys in sorted order.
		raw, err := json.Marshal(map[string]string(p))
		if err != nil {
			return ""
		}
		return string(raw)
	case FormatQueryJoined:
		pairs := make([]string, 0, len(keys))
		for _, k := range keys {
			pairs = append(pairs, k+"="+p[k])
		}
		return strings.Join(pairs, "&")
	default:
		var b strings.Builder
		for _, k := range keys {
			b.WriteString(k)
			b.WriteByte('=')
			b.WriteString(p[k])
		}
		return b.String()
	}
}

// Sign computes the HMAC-SHA256 of the canonical payload.
func Sign(data Payload, secret []byte, opts Options) string {
	return SignBytes([]byte(data.Canonical(opts.Format)), secret, opts.Encoding)
}

// Verify recomputes the signature for data and compares it in constant time.
func Verify(data Payload, provided string, secret []byte, opts Options) bool {
	provided = strings.TrimSpace(provided)
	if provided == "" {
		return false
	}
	expected := Sign(data, secret, opts)
	return hmac.Equal([]byte(expected), []byte(provided))
}

// SignBytes computes the HMAC-SHA256 of a raw body.
func SignBytes(body, secret []byte, enc Encoding) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	sum := mac.Sum(nil)
	if enc == EncodingBase64 {
		return base64.StdEncoding.EncodeToString(sum)
	}
	return hex.EncodeToString(sum)
}

// VerifyBytes checks a raw-body signature such as a webhook HMAC header.
func VerifyBytes(body []byte, provided string, secret []byte, enc Encoding) bool {
	provided = strings.TrimSpace(provided)
	if provided == "" {
		return false
	}
	return hmac.Equal([]byte(SignBytes(body, secret, enc)), []byte(provided))
}

// FromValues flattens url.Values into a Payload. Repeated values are joined
// with "," the same way the platform does when it signs array parameters.
func FromValues(values url.Values) Payload {
	p := make(Payload, len(values))
	for k, v := range values {
		p[k] = strings.Join(v, ",")
	}
	return p
}

// VerifyQuery checks the "hmac" parameter of a request signed by the platform.
// The hmac and signature parameters themselves are not part of the signed set.
func VerifyQuery(values url.Values, secret []byte) bool {
	provided := values.Get("hmac")
	if provided == "" {
		return false
	}
	data := FromValues(values).Without("hmac", "signature")
	return Verify(data, provided, secret, Options{Format: FormatQueryJoined})
}
