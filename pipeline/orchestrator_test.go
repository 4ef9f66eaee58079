package pipeline

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"testing"

	"github.com/goliatone/go-receivers/core"
	"github.com/goliatone/go-receivers/security"
)

type recordingObserver struct {
	outcomes []core.Outcome
	err      error
}

func (o *recordingObserver) ObserveOutcome(_ context.Context, _ core.InboundRequest, outcome core.Outcome) error {
	o.outcomes = append(o.outcomes, outcome)
	return o.err
}

func acmeDescriptor() core.ReceiverDescriptor {
	return core.ReceiverDescriptor{
		Name:     "acme",
		BodyType: core.BodyTypeJSON,
		Security: core.SecurityScheme{
			Kind:      core.SecuritySchemeHMACHeader,
			Header:    "X-Acme-Signature",
			Prefix:    "sha256=",
			Algorithm: core.HMACAlgorithmSHA256,
			Encoding:  core.SignatureEncodingHex,
		},
		RequiredValues: []core.RequiredValue{
			{Name: "X-Acme-Delivery"},
		},
		EventSource: core.EventSource{Kind: core.EventSourceHeader, Value: "X-Acme-Event"},
		PingEvent:   "ping",
	}
}

func newAcmeOrchestrator(t *testing.T, descriptor core.ReceiverDescriptor, secret string, opts ...Option) *Orchestrator {
	t.Helper()
	registry, err := core.NewDescriptorRegistryFrom(descriptor)
	if err != nil {
		t.Fatalf("build registry: %v", err)
	}
	secrets := security.NewStaticSecretSource(map[string]string{"acme": secret})
	return NewOrchestrator(registry, secrets, opts...)
}

func signAcme(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

func acmeRequest(secret string, body []byte) core.InboundRequest {
	return core.InboundRequest{
		Receiver:    "acme",
		Method:      http.MethodPost,
		Secure:      true,
		ContentType: "application/json",
		Headers: map[string]string{
			"X-Acme-Signature": signAcme(secret, body),
			"X-Acme-Delivery":  "d-123",
			"X-Acme-Event":     "order.created",
		},
		Body: body,
	}
}

const acmeSecret = "acme-shared-secret"

func TestOrchestrator_AdmitsValidRequest(t *testing.T) {
	observer := &recordingObserver{}
	o := newAcmeOrchestrator(t, acmeDescriptor(), acmeSecret, WithObserver(observer))

	body := []byte(`{"order":"ord_1"}`)
	outcome, err := o.Run(context.Background(), acmeRequest(acmeSecret, body))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !outcome.Admitted() {
		t.Fatalf("expected admission, got %+v", outcome)
	}
	if outcome.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", outcome.StatusCode)
	}
	if len(outcome.Events) != 1 || outcome.Events[0] != "order.created" {
		t.Fatalf("expected resolved event, got %v", outcome.Events)
	}
	if outcome.ID == "" {
		t.Fatalf("expected generated outcome id")
	}
	if len(observer.outcomes) != 1 || !observer.outcomes[0].Admitted() {
		t.Fatalf("expected observer notification, got %+v", observer.outcomes)
	}
}

func TestOrchestrator_RejectsUnknownReceiver(t *testing.T) {
	o := newAcmeOrchestrator(t, acmeDescriptor(), acmeSecret)

	req := acmeRequest(acmeSecret, []byte("{}"))
	req.Receiver = "nope"
	outcome, err := o.Run(context.Background(), req)
	if err == nil {
		t.Fatalf("expected unknown receiver error")
	}
	if !outcome.Rejected() || outcome.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 rejection, got %+v", outcome)
	}
	mapped := core.ReceiverErrorMapper(err)
	if mapped.TextCode != core.ReceiversErrorNotFound {
		t.Fatalf("expected not-found text code, got %q", mapped.TextCode)
	}
}

func TestOrchestrator_RejectsPlaintextNonLoopback(t *testing.T) {
	o := newAcmeOrchestrator(t, acmeDescriptor(), acmeSecret)

	req := acmeRequest(acmeSecret, []byte("{}"))
	req.Secure = false
	outcome, err := o.Run(context.Background(), req)
	if err == nil {
		t.Fatalf("expected transport security rejection")
	}
	if !outcome.Rejected() || outcome.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 rejection, got %+v", outcome)
	}
	if outcome.Stage != StageSecurity {
		t.Fatalf("expected security stage, got %q", outcome.Stage)
	}
}

func TestOrchestrator_AllowsPlaintextFromLoopback(t *testing.T) {
	o := newAcmeOrchestrator(t, acmeDescriptor(), acmeSecret)

	req := acmeRequest(acmeSecret, []byte("{}"))
	req.Secure = false
	req.Loopback = true
	outcome, err := o.Run(context.Background(), req)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !outcome.Admitted() {
		t.Fatalf("expected loopback plaintext admission, got %+v", outcome)
	}
}

func TestOrchestrator_AllowsPlaintextWhenCheckDisabled(t *testing.T) {
	cfg := core.DefaultConfig()
	cfg.Security.DisableHTTPSCheck = true
	o := newAcmeOrchestrator(t, acmeDescriptor(), acmeSecret, WithConfig(cfg))

	req := acmeRequest(acmeSecret, []byte("{}"))
	req.Secure = false
	outcome, err := o.Run(context.Background(), req)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !outcome.Admitted() {
		t.Fatalf("expected admission with https check disabled, got %+v", outcome)
	}
}

func TestOrchestrator_RejectsInvalidSignature(t *testing.T) {
	o := newAcmeOrchestrator(t, acmeDescriptor(), acmeSecret)

	req := acmeRequest(acmeSecret, []byte(`{"order":"ord_1"}`))
	req.Body = []byte(`{"order":"tampered"}`)
	outcome, err := o.Run(context.Background(), req)
	if err == nil {
		t.Fatalf("expected signature rejection")
	}
	if !outcome.Rejected() || outcome.Stage != StageSecurity {
		t.Fatalf("expected security stage rejection, got %+v", outcome)
	}
	if outcome.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for failed verification, got %d", outcome.StatusCode)
	}
}

func TestOrchestrator_MissingSecretIsConfigFatal(t *testing.T) {
	registry, err := core.NewDescriptorRegistryFrom(acmeDescriptor())
	if err != nil {
		t.Fatalf("build registry: %v", err)
	}
	observer := &recordingObserver{}
	o := NewOrchestrator(registry, security.NewStaticSecretSource(nil), WithObserver(observer))

	outcome, err := o.Run(context.Background(), acmeRequest(acmeSecret, []byte("{}")))
	if !core.IsConfigFatal(err) {
		t.Fatalf("expected config fatal error, got %v", err)
	}
	if outcome.Decision != "" || outcome.ID != "" || outcome.StatusCode != 0 {
		t.Fatalf("config fatal must not produce a request verdict, got %+v", outcome)
	}
	if len(observer.outcomes) != 0 {
		t.Fatalf("config fatal must not notify observers, got %d", len(observer.outcomes))
	}
}

func TestOrchestrator_SecretBoundsAreConfigFatal(t *testing.T) {
	o := newAcmeOrchestrator(t, acmeDescriptor(), "short")

	req := acmeRequest("short", []byte("{}"))
	_, err := o.Run(context.Background(), req)
	if !core.IsConfigFatal(err) {
		t.Fatalf("expected out-of-bounds secret to be config fatal, got %v", err)
	}
}

func TestOrchestrator_SchemeBoundsOverrideDefaults(t *testing.T) {
	descriptor := acmeDescriptor()
	descriptor.Security.MinSecretLength = 4
	o := newAcmeOrchestrator(t, descriptor, "tiny5")

	outcome, err := o.Run(context.Background(), acmeRequest("tiny5", []byte("{}")))
	if err != nil {
		t.Fatalf("expected per-scheme minimum to admit short secret: %v", err)
	}
	if !outcome.Admitted() {
		t.Fatalf("expected admission, got %+v", outcome)
	}
}

func TestOrchestrator_RejectsMissingRequiredHeader(t *testing.T) {
	o := newAcmeOrchestrator(t, acmeDescriptor(), acmeSecret)

	req := acmeRequest(acmeSecret, []byte("{}"))
	delete(req.Headers, "X-Acme-Delivery")
	outcome, err := o.Run(context.Background(), req)
	if err == nil {
		t.Fatalf("expected required value rejection")
	}
	if !outcome.Rejected() || outcome.Stage != StageRequiredValues {
		t.Fatalf("expected required_values stage, got %+v", outcome)
	}
	if outcome.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", outcome.StatusCode)
	}
}

func TestOrchestrator_EmptyRequiredHeaderCountsAsMissing(t *testing.T) {
	o := newAcmeOrchestrator(t, acmeDescriptor(), acmeSecret)

	req := acmeRequest(acmeSecret, []byte("{}"))
	req.Headers["X-Acme-Delivery"] = "   "
	outcome, err := o.Run(context.Background(), req)
	if err == nil {
		t.Fatalf("expected empty required value rejection")
	}
	if outcome.Stage != StageRequiredValues {
		t.Fatalf("expected required_values stage, got %q", outcome.Stage)
	}
}

func TestOrchestrator_RejectsNonPostMethod(t *testing.T) {
	o := newAcmeOrchestrator(t, acmeDescriptor(), acmeSecret)

	req := acmeRequest(acmeSecret, []byte("{}"))
	req.Method = http.MethodPut
	outcome, err := o.Run(context.Background(), req)
	if err == nil {
		t.Fatalf("expected method rejection")
	}
	if !outcome.Rejected() || outcome.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405 rejection, got %+v", outcome)
	}
	if outcome.Stage != StageMethod {
		t.Fatalf("expected method stage, got %q", outcome.Stage)
	}
}

func TestOrchestrator_GetHeadShortCircuitWhenAllowed(t *testing.T) {
	descriptor := acmeDescriptor()
	descriptor.AllowGetHead = true
	o := newAcmeOrchestrator(t, descriptor, acmeSecret)

	req := acmeRequest(acmeSecret, nil)
	req.Method = http.MethodGet
	outcome, err := o.Run(context.Background(), req)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !outcome.ShortCircuited() || outcome.StatusCode != http.StatusOK {
		t.Fatalf("expected GET short-circuit, got %+v", outcome)
	}
	if outcome.Stage != StageGetHead {
		t.Fatalf("expected get_head stage, got %q", outcome.Stage)
	}
}

func TestOrchestrator_GetStillAuthenticatedBeforeShortCircuit(t *testing.T) {
	descriptor := acmeDescriptor()
	descriptor.AllowGetHead = true
	o := newAcmeOrchestrator(t, descriptor, acmeSecret)

	req := acmeRequest(acmeSecret, nil)
	req.Method = http.MethodGet
	req.Headers["X-Acme-Signature"] = "sha256=" + hex.EncodeToString(make([]byte, 32))
	outcome, err := o.Run(context.Background(), req)
	if err == nil {
		t.Fatalf("expected signature check to run before GET short-circuit")
	}
	if outcome.Stage != StageSecurity {
		t.Fatalf("expected security stage, got %q", outcome.Stage)
	}
}

func TestOrchestrator_RejectsWrongContentType(t *testing.T) {
	o := newAcmeOrchestrator(t, acmeDescriptor(), acmeSecret)

	req := acmeRequest(acmeSecret, []byte("{}"))
	req.ContentType = "text/plain"
	outcome, err := o.Run(context.Background(), req)
	if err == nil {
		t.Fatalf("expected content type rejection")
	}
	if !outcome.Rejected() || outcome.StatusCode != http.StatusUnsupportedMediaType {
		t.Fatalf("expected 415 rejection, got %+v", outcome)
	}
	if outcome.Stage != StageBodyType {
		t.Fatalf("expected body_type stage, got %q", outcome.Stage)
	}
}

func TestOrchestrator_BodyTypeNoneAdmitsAnyContentType(t *testing.T) {
	descriptor := acmeDescriptor()
	descriptor.BodyType = core.BodyTypeNone
	o := newAcmeOrchestrator(t, descriptor, acmeSecret)

	req := acmeRequest(acmeSecret, []byte("opaque payload"))
	req.ContentType = "text/plain"
	outcome, err := o.Run(context.Background(), req)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !outcome.Admitted() {
		t.Fatalf("expected admission without a body type constraint, got %+v", outcome)
	}
}

func TestOrchestrator_RequiredValuesWinOverBodyType(t *testing.T) {
	// Request missing the required header AND carrying the wrong content
	// type must be rejected by the required-values stage, not body type.
	o := newAcmeOrchestrator(t, acmeDescriptor(), acmeSecret)

	req := acmeRequest(acmeSecret, []byte("{}"))
	delete(req.Headers, "X-Acme-Delivery")
	req.ContentType = "text/plain"
	outcome, err := o.Run(context.Background(), req)
	if err == nil {
		t.Fatalf("expected rejection")
	}
	if outcome.Stage != StageRequiredValues {
		t.Fatalf("expected required_values stage to win, got %q", outcome.Stage)
	}
	if outcome.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 from required values, got %d", outcome.StatusCode)
	}
}

func TestOrchestrator_PingShortCircuits(t *testing.T) {
	observer := &recordingObserver{}
	o := newAcmeOrchestrator(t, acmeDescriptor(), acmeSecret, WithObserver(observer))

	body := []byte(`{"zen":"keep it simple"}`)
	req := acmeRequest(acmeSecret, body)
	req.Headers["X-Acme-Event"] = "Ping"
	outcome, err := o.Run(context.Background(), req)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !outcome.ShortCircuited() || outcome.StatusCode != http.StatusOK {
		t.Fatalf("expected ping short-circuit, got %+v", outcome)
	}
	if outcome.Stage != StagePing {
		t.Fatalf("expected ping stage, got %q", outcome.Stage)
	}
	if len(observer.outcomes) != 1 {
		t.Fatalf("expected observer notification, got %d", len(observer.outcomes))
	}
}

func TestOrchestrator_EarlierStageWins(t *testing.T) {
	// Request with a bad signature AND a wrong method must be rejected by
	// the security stage, not the method stage.
	o := newAcmeOrchestrator(t, acmeDescriptor(), acmeSecret)

	req := acmeRequest(acmeSecret, []byte(`{"order":"ord_1"}`))
	req.Body = []byte(`{"order":"tampered"}`)
	req.Method = http.MethodDelete
	outcome, err := o.Run(context.Background(), req)
	if err == nil {
		t.Fatalf("expected rejection")
	}
	if outcome.Stage != StageSecurity {
		t.Fatalf("expected security stage to win, got %q", outcome.Stage)
	}
	if outcome.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected security status, got %d", outcome.StatusCode)
	}
}

func TestOrchestrator_ObserverFailureDoesNotChangeVerdict(t *testing.T) {
	observer := &recordingObserver{err: errors.New("sink down")}
	o := newAcmeOrchestrator(t, acmeDescriptor(), acmeSecret, WithObserver(observer))

	outcome, err := o.Run(context.Background(), acmeRequest(acmeSecret, []byte("{}")))
	if err != nil {
		t.Fatalf("observer failure must not surface: %v", err)
	}
	if !outcome.Admitted() {
		t.Fatalf("expected admission, got %+v", outcome)
	}
}

func TestOrchestrator_RequiresReceiverName(t *testing.T) {
	o := newAcmeOrchestrator(t, acmeDescriptor(), acmeSecret)
	if _, err := o.Run(context.Background(), core.InboundRequest{Receiver: "  "}); err == nil {
		t.Fatalf("expected receiver name requirement")
	}
}

func TestOrchestrator_StableIDGenerator(t *testing.T) {
	o := newAcmeOrchestrator(t, acmeDescriptor(), acmeSecret, WithIDGenerator(func() string {
		return "fixed-id"
	}))
	outcome, err := o.Run(context.Background(), acmeRequest(acmeSecret, []byte("{}")))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if outcome.ID != "fixed-id" {
		t.Fatalf("expected injected id, got %q", outcome.ID)
	}
}
