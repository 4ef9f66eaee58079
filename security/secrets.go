package security

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/goliatone/go-receivers/core"
)

// StaticSecretSource serves secrets from a literal table keyed by
// "<receiver>" or "<receiver>/<instance id>". The instance-qualified entry
// wins when both exist.
type StaticSecretSource struct {
	secrets map[string]string
}

func NewStaticSecretSource(secrets map[string]string) *StaticSecretSource {
	normalized := make(map[string]string, len(secrets))
	for key, value := range secrets {
		trimmed := strings.TrimSpace(strings.ToLower(key))
		if trimmed == "" {
			continue
		}
		normalized[trimmed] = value
	}
	return &StaticSecretSource{secrets: normalized}
}

func (s *StaticSecretSource) Lookup(_ context.Context, receiver string, instanceID string) (string, bool, error) {
	if s == nil {
		return "", false, securityInternal("security: static secret source is nil", nil)
	}
	receiver = strings.TrimSpace(strings.ToLower(receiver))
	if receiver == "" {
		return "", false, securityBadInput("security: receiver name is required", nil)
	}
	if instanceID = strings.TrimSpace(strings.ToLower(instanceID)); instanceID != "" {
		if secret, ok := s.secrets[receiver+"/"+instanceID]; ok {
			return secret, true, nil
		}
	}
	secret, ok := s.secrets[receiver]
	return secret, ok, nil
}

const DefaultEnvSecretPrefix = "RECEIVERS_SECRET_"

// EnvSecretSource reads secrets from the process environment:
// <prefix><RECEIVER> or <prefix><RECEIVER>_<INSTANCE_ID>, upper-cased with
// non-alphanumerics folded to underscores.
type EnvSecretSource struct {
	prefix string
	getenv func(string) string
}

type EnvOption func(*EnvSecretSource)

func WithEnvPrefix(prefix string) EnvOption {
	return func(s *EnvSecretSource) {
		trimmed := strings.TrimSpace(prefix)
		if trimmed != "" {
			s.prefix = trimmed
		}
	}
}

func WithEnvLookup(getenv func(string) string) EnvOption {
	return func(s *EnvSecretSource) {
		if getenv != nil {
			s.getenv = getenv
		}
	}
}

func NewEnvSecretSource(opts ...EnvOption) *EnvSecretSource {
	source := &EnvSecretSource{
		prefix: DefaultEnvSecretPrefix,
		getenv: os.Getenv,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(source)
	}
	return source
}

func (s *EnvSecretSource) Lookup(_ context.Context, receiver string, instanceID string) (string, bool, error) {
	if s == nil {
		return "", false, securityInternal("security: env secret source is nil", nil)
	}
	receiver = strings.TrimSpace(receiver)
	if receiver == "" {
		return "", false, securityBadInput("security: receiver name is required", nil)
	}
	if instanceID = strings.TrimSpace(instanceID); instanceID != "" {
		if value := s.getenv(s.prefix + envSegment(receiver) + "_" + envSegment(instanceID)); value != "" {
			return value, true, nil
		}
	}
	value := s.getenv(s.prefix + envSegment(receiver))
	return value, value != "", nil
}

func envSegment(value string) string {
	var builder strings.Builder
	for _, r := range strings.ToUpper(strings.TrimSpace(value)) {
		switch {
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			builder.WriteRune(r)
		default:
			builder.WriteRune('_')
		}
	}
	return builder.String()
}

type SecretSourceFailurePolicy string

const (
	SecretSourceFailurePolicyStrict   SecretSourceFailurePolicy = "strict_fail"
	SecretSourceFailurePolicyFallback SecretSourceFailurePolicy = "fallback_allowed"
)

type FailoverOption func(*FailoverSecretSource)

// FailoverSecretSource consults a primary source and, depending on policy,
// falls back to a secondary one when the primary errors or misses.
type FailoverSecretSource struct {
	primary  core.SecretSource
	fallback core.SecretSource
	policy   SecretSourceFailurePolicy
}

func WithFallbackSecretSource(source core.SecretSource) FailoverOption {
	return func(f *FailoverSecretSource) {
		f.fallback = source
	}
}

func WithSecretSourceFailurePolicy(policy SecretSourceFailurePolicy) FailoverOption {
	return func(f *FailoverSecretSource) {
		f.policy = policy
	}
}

func NewFailoverSecretSource(primary core.SecretSource, opts ...FailoverOption) (*FailoverSecretSource, error) {
	if primary == nil {
		return nil, fmt.Errorf("security: primary secret source is required")
	}
	source := &FailoverSecretSource{
		primary: primary,
		policy:  SecretSourceFailurePolicyStrict,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(source)
	}
	if source.policy == SecretSourceFailurePolicyFallback && source.fallback == nil {
		return nil, fmt.Errorf("security: fallback policy requires a configured fallback secret source")
	}
	return source, nil
}

func (f *FailoverSecretSource) Lookup(ctx context.Context, receiver string, instanceID string) (string, bool, error) {
	if f == nil || f.primary == nil {
		return "", false, securityInternal("security: failover secret source is not configured", nil)
	}
	secret, found, err := f.primary.Lookup(ctx, receiver, instanceID)
	if err == nil && found {
		return secret, true, nil
	}
	if f.policy != SecretSourceFailurePolicyFallback || f.fallback == nil {
		return secret, found, err
	}
	if fallbackSecret, fallbackFound, fallbackErr := f.fallback.Lookup(ctx, receiver, instanceID); fallbackErr == nil {
		return fallbackSecret, fallbackFound, nil
	}
	return secret, found, err
}

// ResolveSecret fetches the configured secret for a receiver instance and
// enforces the [minLength, maxLength] deployment contract. Absence or a
// bounds violation is a configuration defect, not a request error.
func ResolveSecret(
	ctx context.Context,
	source core.SecretSource,
	receiver string,
	instanceID string,
	minLength int,
	maxLength int,
) (string, error) {
	if source == nil {
		return "", core.ConfigFatalError("security: secret source is not configured", map[string]any{
			"receiver": receiver,
		})
	}
	secret, found, err := source.Lookup(ctx, receiver, instanceID)
	if err != nil {
		return "", securityWrap(err, "security: secret lookup failed", map[string]any{
			"receiver":    receiver,
			"instance_id": instanceID,
		})
	}
	if !found || strings.TrimSpace(secret) == "" {
		return "", core.ConfigFatalError(
			fmt.Sprintf("security: no secret configured for receiver %q", receiver),
			map[string]any{"receiver": receiver, "instance_id": instanceID},
		)
	}
	if minLength > 0 && len(secret) < minLength {
		return "", core.ConfigFatalError(
			fmt.Sprintf("security: secret for receiver %q is shorter than %d characters", receiver, minLength),
			map[string]any{"receiver": receiver, "instance_id": instanceID, "min_length": minLength},
		)
	}
	if maxLength > 0 && len(secret) > maxLength {
		return "", core.ConfigFatalError(
			fmt.Sprintf("security: secret for receiver %q is longer than %d characters", receiver, maxLength),
			map[string]any{"receiver": receiver, "instance_id": instanceID, "max_length": maxLength},
		)
	}
	return secret, nil
}

var (
	_ core.SecretSource = (*StaticSecretSource)(nil)
	_ core.SecretSource = (*EnvSecretSource)(nil)
	_ core.SecretSource = (*FailoverSecretSource)(nil)
)
