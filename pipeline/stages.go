package pipeline

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/goliatone/go-receivers/core"
	"github.com/goliatone/go-receivers/security"
)

const (
	StageSecurity       = "security"
	StageRequiredValues = "required_values"
	StageGetHead        = "get_head"
	StageMethod         = "method"
	StageBodyType       = "body_type"
	StagePing           = "ping"
)

// exchange is the per-request state threaded through the stages. It is
// never shared across requests.
type exchange struct {
	req        core.InboundRequest
	descriptor core.ReceiverDescriptor
	events     []string
}

// A stage either passes (nil, nil), rejects or short-circuits with a
// terminal outcome, or aborts with a configuration error (nil, err).
type stage struct {
	name string
	run  func(ctx context.Context, o *Orchestrator, x *exchange) (*core.Outcome, error)
}

func verificationStages() []stage {
	// The total order of verification checks. Cheap, security-critical stages
	// run first; body type runs last among rejections because it is the
	// most expensive precondition; ping runs after everything so a ping
	// is still authenticated.
	return []stage{
		{name: StageSecurity, run: runSecurityStage},
		{name: StageRequiredValues, run: runRequiredValuesStage},
		{name: StageGetHead, run: runGetHeadStage},
		{name: StageMethod, run: runMethodStage},
		{name: StageBodyType, run: runBodyTypeStage},
		{name: StagePing, run: runPingStage},
	}
}

func runSecurityStage(ctx context.Context, o *Orchestrator, x *exchange) (*core.Outcome, error) {
	if !x.req.Secure && !x.req.Loopback && !o.config.Security.DisableHTTPSCheck {
		reason := fmt.Sprintf(
			"receiver %q requires HTTPS; plaintext requests are only accepted from loopback",
			x.descriptor.Name,
		)
		return o.reject(x, StageSecurity, http.StatusBadRequest, reason),
			pipelineBadInput("pipeline: "+reason, map[string]any{
				"receiver": x.descriptor.Name,
				"scheme":   string(x.descriptor.Security.Kind),
			})
	}

	scheme := x.descriptor.Security
	secret := ""
	if scheme.RequiresSecret() {
		minLength := scheme.MinSecretLength
		if minLength <= 0 {
			minLength = o.config.Security.SecretMinLength
		}
		maxLength := scheme.MaxSecretLength
		if maxLength <= 0 {
			maxLength = o.config.Security.SecretMaxLength
		}
		resolved, err := security.ResolveSecret(ctx, o.secrets, x.descriptor.Name, x.req.InstanceID, minLength, maxLength)
		if err != nil {
			// Deployment defect: abort loudly instead of masking as 4xx.
			return nil, err
		}
		secret = resolved
	}

	verifier, err := security.VerifierForScheme(x.descriptor.Name, scheme, secret)
	if err != nil {
		return nil, err
	}
	if err := verifier.Verify(ctx, x.req); err != nil {
		if core.IsConfigFatal(err) {
			return nil, err
		}
		mapped := core.ReceiverErrorMapper(err)
		return o.reject(x, StageSecurity, mapped.Code, mapped.Message), err
	}
	return nil, nil
}

func runRequiredValuesStage(_ context.Context, o *Orchestrator, x *exchange) (*core.Outcome, error) {
	outcome, err := CheckRequiredValues(x.descriptor, x.req)
	if err != nil {
		return o.reject(x, StageRequiredValues, outcome.StatusCode, outcome.Reason), err
	}
	return nil, nil
}

// CheckRequiredValues verifies every declared required header and query
// parameter is present and non-empty. It is exported so hosts can reuse
// the check standalone; with no declared requirements it is a no-op.
func CheckRequiredValues(descriptor core.ReceiverDescriptor, req core.InboundRequest) (core.Outcome, error) {
	for _, required := range descriptor.RequiredValues {
		var present bool
		var location string
		if required.IsQuery {
			location = "query parameter"
			present = lookupFold(req.Query, required.Name) != ""
		} else {
			location = "header"
			present = lookupFold(req.Headers, required.Name) != ""
		}
		if present {
			continue
		}
		reason := fmt.Sprintf(
			"receiver %q requires the %q %s",
			descriptor.Name, required.Name, location,
		)
		return core.Outcome{
				Decision:   core.DecisionRejected,
				Receiver:   descriptor.Name,
				StatusCode: http.StatusBadRequest,
				Reason:     reason,
				Stage:      StageRequiredValues,
			}, pipelineBadInput("pipeline: "+reason, map[string]any{
				"receiver": descriptor.Name,
				"field":    required.Name,
				"location": location,
			})
	}
	return core.Outcome{Decision: core.DecisionAdmitted, Receiver: descriptor.Name}, nil
}

func runGetHeadStage(_ context.Context, o *Orchestrator, x *exchange) (*core.Outcome, error) {
	if !x.descriptor.AllowGetHead {
		return nil, nil
	}
	switch strings.ToUpper(strings.TrimSpace(x.req.Method)) {
	case http.MethodGet, http.MethodHead:
		return o.shortCircuit(x, StageGetHead, http.StatusOK), nil
	default:
		return nil, nil
	}
}

func runMethodStage(_ context.Context, o *Orchestrator, x *exchange) (*core.Outcome, error) {
	method := strings.ToUpper(strings.TrimSpace(x.req.Method))
	if method == http.MethodPost {
		return nil, nil
	}
	reason := fmt.Sprintf("receiver %q does not accept %s requests", x.descriptor.Name, method)
	return o.reject(x, StageMethod, http.StatusMethodNotAllowed, reason),
		pipelineMethodNotAllowed("pipeline: "+reason, map[string]any{
			"receiver": x.descriptor.Name,
			"method":   method,
		})
}

func runBodyTypeStage(_ context.Context, o *Orchestrator, x *exchange) (*core.Outcome, error) {
	if x.descriptor.BodyType == core.BodyTypeNone {
		return nil, nil
	}
	if contentTypeMatches(x.descriptor.BodyType, x.req.ContentType) {
		return nil, nil
	}
	reason := fmt.Sprintf(
		"receiver %q expects %s content, got %q",
		x.descriptor.Name, bodyTypeName(x.descriptor.BodyType), strings.TrimSpace(x.req.ContentType),
	)
	return o.reject(x, StageBodyType, http.StatusUnsupportedMediaType, reason),
		pipelineUnsupportedMedia("pipeline: "+reason, map[string]any{
			"receiver":     x.descriptor.Name,
			"expected":     string(x.descriptor.BodyType),
			"content_type": x.req.ContentType,
		})
}

func runPingStage(_ context.Context, o *Orchestrator, x *exchange) (*core.Outcome, error) {
	ping := strings.TrimSpace(x.descriptor.PingEvent)
	if ping == "" {
		return nil, nil
	}
	for _, event := range x.events {
		if strings.EqualFold(event, ping) {
			return o.shortCircuit(x, StagePing, http.StatusOK), nil
		}
	}
	return nil, nil
}

// ResolveEvents reads the event name(s) for a request according to the
// descriptor's event source. Comma-separated values produce multiple
// events; an absent source means the receiver accepts all events.
func ResolveEvents(descriptor core.ReceiverDescriptor, req core.InboundRequest) []string {
	var raw string
	switch descriptor.EventSource.Kind {
	case core.EventSourceConstant:
		raw = descriptor.EventSource.Value
	case core.EventSourceHeader:
		raw = lookupFold(req.Headers, descriptor.EventSource.Value)
	case core.EventSourceQuery:
		raw = lookupFold(req.Query, descriptor.EventSource.Value)
	default:
		return nil
	}
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	events := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			events = append(events, trimmed)
		}
	}
	return events
}

func contentTypeMatches(bodyType core.BodyType, contentType string) bool {
	mediaType := strings.ToLower(strings.TrimSpace(contentType))
	if idx := strings.Index(mediaType, ";"); idx >= 0 {
		mediaType = strings.TrimSpace(mediaType[:idx])
	}
	switch bodyType {
	case core.BodyTypeForm:
		return mediaType == "application/x-www-form-urlencoded" ||
			strings.HasPrefix(mediaType, "multipart/form-data")
	case core.BodyTypeJSON:
		return mediaType == "application/json" ||
			mediaType == "text/json" ||
			strings.HasSuffix(mediaType, "+json")
	case core.BodyTypeXML:
		return mediaType == "application/xml" ||
			mediaType == "text/xml" ||
			strings.HasSuffix(mediaType, "+xml")
	default:
		return true
	}
}

func bodyTypeName(bodyType core.BodyType) string {
	switch bodyType {
	case core.BodyTypeForm:
		return "form data"
	case core.BodyTypeJSON:
		return "JSON"
	case core.BodyTypeXML:
		return "XML"
	default:
		return string(bodyType)
	}
}

func lookupFold(values map[string]string, key string) string {
	if len(values) == 0 {
		return ""
	}
	for existing, value := range values {
		if strings.EqualFold(strings.TrimSpace(existing), strings.TrimSpace(key)) {
			return strings.TrimSpace(value)
		}
	}
	return ""
}
