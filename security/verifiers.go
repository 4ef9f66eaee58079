package security

import (
	"context"
	"crypto/hmac"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"hash"
	"strings"

	"github.com/goliatone/go-receivers/core"
)

// Verifier checks one request against one already-resolved secret. Every
// implementation funnels its final comparison through the constant-time
// primitives in this package.
type Verifier interface {
	Verify(ctx context.Context, req core.InboundRequest) error
}

// HeaderHMACVerifier validates an HMAC digest carried in a request header.
// With TimestampHeader set, the digest covers "<version>:<timestamp>:<body>"
// instead of the raw body, version being Prefix without its trailing "=".
type HeaderHMACVerifier struct {
	Receiver        string
	Header          string
	Prefix          string
	TimestampHeader string
	Secret          string
	Algorithm       string // sha1 | sha256
	Encoding        string // hex | base64
}

func (v HeaderHMACVerifier) Verify(_ context.Context, req core.InboundRequest) error {
	header := strings.TrimSpace(headerValue(req.Headers, v.Header))
	if header == "" {
		return securityBadInput(
			fmt.Sprintf("security: receiver %q requires the %s signature header", v.Receiver, strings.TrimSpace(v.Header)),
			map[string]any{"receiver": v.Receiver, "header": strings.TrimSpace(v.Header)},
		)
	}
	secret := strings.TrimSpace(v.Secret)
	if secret == "" {
		return core.ConfigFatalError("security: signature secret is required", map[string]any{
			"receiver": v.Receiver,
		})
	}
	signature := strings.TrimSpace(strings.TrimPrefix(header, strings.TrimSpace(v.Prefix)))
	if signature == "" {
		return securityBadInput(
			fmt.Sprintf("security: receiver %q signature value is empty", v.Receiver),
			map[string]any{"receiver": v.Receiver, "header": strings.TrimSpace(v.Header)},
		)
	}

	var newHash func() hash.Hash
	switch strings.ToLower(strings.TrimSpace(v.Algorithm)) {
	case core.HMACAlgorithmSHA1:
		newHash = sha1.New
	case "", core.HMACAlgorithmSHA256:
		newHash = sha256.New
	default:
		return core.ConfigFatalError(
			fmt.Sprintf("security: receiver %q has unsupported hmac algorithm %q", v.Receiver, v.Algorithm),
			map[string]any{"receiver": v.Receiver, "algorithm": v.Algorithm},
		)
	}

	mac := hmac.New(newHash, []byte(secret))
	if timestampHeader := strings.TrimSpace(v.TimestampHeader); timestampHeader != "" {
		timestamp := strings.TrimSpace(headerValue(req.Headers, timestampHeader))
		if timestamp == "" {
			return securityBadInput(
				fmt.Sprintf("security: receiver %q requires the %s timestamp header", v.Receiver, timestampHeader),
				map[string]any{"receiver": v.Receiver, "header": timestampHeader},
			)
		}
		version := strings.TrimSuffix(strings.TrimSpace(v.Prefix), "=")
		_, _ = mac.Write([]byte(version + ":" + timestamp + ":"))
	}
	_, _ = mac.Write(req.Body)
	expected := mac.Sum(nil)

	var decoded []byte
	var err error
	switch strings.ToLower(strings.TrimSpace(v.Encoding)) {
	case core.SignatureEncodingBase64:
		decoded, err = base64.StdEncoding.DecodeString(signature)
	default:
		decoded, err = hex.DecodeString(signature)
	}
	if err != nil {
		return securityBadInput(
			fmt.Sprintf("security: receiver %q signature is not valid %s", v.Receiver, signatureEncodingName(v.Encoding)),
			map[string]any{"receiver": v.Receiver, "header": strings.TrimSpace(v.Header)},
		)
	}
	if !SecretBytesEqual(decoded, expected) {
		return securityBadInput(
			fmt.Sprintf("security: receiver %q signature verification failed", v.Receiver),
			map[string]any{"receiver": v.Receiver, "header": strings.TrimSpace(v.Header)},
		)
	}
	return nil
}

// HeaderTokenVerifier validates a shared token carried verbatim in a header.
type HeaderTokenVerifier struct {
	Receiver string
	Header   string
	Token    string
}

func (v HeaderTokenVerifier) Verify(_ context.Context, req core.InboundRequest) error {
	expected := strings.TrimSpace(v.Token)
	if expected == "" {
		return core.ConfigFatalError("security: verification token is required", map[string]any{
			"receiver": v.Receiver,
		})
	}
	actual := strings.TrimSpace(headerValue(req.Headers, v.Header))
	if actual == "" {
		return securityBadInput(
			fmt.Sprintf("security: receiver %q requires the %s verification header", v.Receiver, strings.TrimSpace(v.Header)),
			map[string]any{"receiver": v.Receiver, "header": strings.TrimSpace(v.Header)},
		)
	}
	if !SecretEqual(actual, expected) {
		return securityBadInput(
			fmt.Sprintf("security: receiver %q verification token mismatch", v.Receiver),
			map[string]any{"receiver": v.Receiver, "header": strings.TrimSpace(v.Header)},
		)
	}
	return nil
}

// CodeQueryVerifier validates a shared code carried in a query parameter.
type CodeQueryVerifier struct {
	Receiver string
	QueryKey string
	Code     string
}

func (v CodeQueryVerifier) Verify(_ context.Context, req core.InboundRequest) error {
	expected := strings.TrimSpace(v.Code)
	if expected == "" {
		return core.ConfigFatalError("security: verification code is required", map[string]any{
			"receiver": v.Receiver,
		})
	}
	actual := strings.TrimSpace(queryValue(req.Query, v.QueryKey))
	if actual == "" {
		return securityBadInput(
			fmt.Sprintf("security: receiver %q requires the %q query parameter", v.Receiver, strings.TrimSpace(v.QueryKey)),
			map[string]any{"receiver": v.Receiver, "query_key": strings.TrimSpace(v.QueryKey)},
		)
	}
	if !SecretEqual(actual, expected) {
		return securityBadInput(
			fmt.Sprintf("security: receiver %q verification code mismatch", v.Receiver),
			map[string]any{"receiver": v.Receiver, "query_key": strings.TrimSpace(v.QueryKey)},
		)
	}
	return nil
}

type noopVerifier struct{}

func (noopVerifier) Verify(context.Context, core.InboundRequest) error {
	return nil
}

// VerifierForScheme builds the verifier matching a descriptor's security
// scheme, binding the resolved secret. An empty secret is acceptable only
// for SecuritySchemeNone.
func VerifierForScheme(receiver string, scheme core.SecurityScheme, secret string) (Verifier, error) {
	switch scheme.Kind {
	case core.SecuritySchemeNone:
		return noopVerifier{}, nil
	case core.SecuritySchemeHMACHeader:
		return HeaderHMACVerifier{
			Receiver:        receiver,
			Header:          scheme.Header,
			Prefix:          scheme.Prefix,
			TimestampHeader: scheme.TimestampHeader,
			Secret:          secret,
			Algorithm:       scheme.Algorithm,
			Encoding:        scheme.Encoding,
		}, nil
	case core.SecuritySchemeTokenHeader:
		return HeaderTokenVerifier{
			Receiver: receiver,
			Header:   scheme.Header,
			Token:    secret,
		}, nil
	case core.SecuritySchemeCodeQuery:
		return CodeQueryVerifier{
			Receiver: receiver,
			QueryKey: scheme.QueryKey,
			Code:     secret,
		}, nil
	default:
		return nil, core.ConfigFatalError(
			fmt.Sprintf("security: receiver %q has unknown security scheme %q", receiver, scheme.Kind),
			map[string]any{"receiver": receiver, "scheme": string(scheme.Kind)},
		)
	}
}

func signatureEncodingName(encoding string) string {
	if strings.ToLower(strings.TrimSpace(encoding)) == core.SignatureEncodingBase64 {
		return "base64"
	}
	return "hex"
}

func headerValue(headers map[string]string, key string) string {
	if len(headers) == 0 {
		return ""
	}
	for existing, value := range headers {
		if strings.EqualFold(strings.TrimSpace(existing), strings.TrimSpace(key)) {
			return strings.TrimSpace(value)
		}
	}
	return ""
}

func queryValue(query map[string]string, key string) string {
	if len(query) == 0 {
		return ""
	}
	for existing, value := range query {
		if strings.EqualFold(strings.TrimSpace(existing), strings.TrimSpace(key)) {
			return strings.TrimSpace(value)
		}
	}
	return ""
}
