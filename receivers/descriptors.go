// Package receivers carries the built-in descriptor tables for well-known
// webhook senders. Adding a provider means adding a descriptor value here;
// there is no per-provider type hierarchy.
package receivers

import "github.com/goliatone/go-receivers/core"

func NewGitHubDescriptor() core.ReceiverDescriptor {
	return core.ReceiverDescriptor{
		Name:     "github",
		BodyType: core.BodyTypeJSON,
		Security: core.SecurityScheme{
			Kind:      core.SecuritySchemeHMACHeader,
			Header:    "X-Hub-Signature-256",
			Prefix:    "sha256=",
			Algorithm: core.HMACAlgorithmSHA256,
			Encoding:  core.SignatureEncodingHex,
		},
		RequiredValues: []core.RequiredValue{
			{Name: "X-GitHub-Delivery"},
		},
		EventSource: core.EventSource{Kind: core.EventSourceHeader, Value: "X-GitHub-Event"},
		PingEvent:   "ping",
		Bindings: []core.BindingParameter{
			{Name: "delivery", Source: core.BindingSourceHeader, Key: "X-GitHub-Delivery"},
		},
	}
}

func NewGitLabDescriptor() core.ReceiverDescriptor {
	return core.ReceiverDescriptor{
		Name:     "gitlab",
		BodyType: core.BodyTypeJSON,
		Security: core.SecurityScheme{
			Kind:   core.SecuritySchemeTokenHeader,
			Header: "X-Gitlab-Token",
		},
		EventSource: core.EventSource{Kind: core.EventSourceHeader, Value: "X-Gitlab-Event"},
	}
}

func NewBitbucketDescriptor() core.ReceiverDescriptor {
	return core.ReceiverDescriptor{
		Name:     "bitbucket",
		BodyType: core.BodyTypeJSON,
		Security: core.SecurityScheme{
			Kind:      core.SecuritySchemeHMACHeader,
			Header:    "X-Hub-Signature",
			Prefix:    "sha256=",
			Algorithm: core.HMACAlgorithmSHA256,
			Encoding:  core.SignatureEncodingHex,
		},
		RequiredValues: []core.RequiredValue{
			{Name: "X-Hook-UUID"},
		},
		EventSource: core.EventSource{Kind: core.EventSourceHeader, Value: "X-Event-Key"},
		Bindings: []core.BindingParameter{
			{Name: "webhookid", Source: core.BindingSourceHeader, Key: "X-Hook-UUID"},
		},
	}
}

// NewAzureDevOpsDescriptor uses the code-query-parameter convention: the
// shared secret travels as ?code=... on the subscription URL.
func NewAzureDevOpsDescriptor() core.ReceiverDescriptor {
	return core.ReceiverDescriptor{
		Name:     "azuredevops",
		BodyType: core.BodyTypeJSON,
		Security: core.SecurityScheme{
			Kind:     core.SecuritySchemeCodeQuery,
			QueryKey: "code",
		},
		EventSource: core.EventSource{Kind: core.EventSourceConstant, Value: "workitem"},
	}
}

// NewSlackDescriptor signs the Slack base string "v0:<timestamp>:<body>",
// with the timestamp taken from X-Slack-Request-Timestamp.
func NewSlackDescriptor() core.ReceiverDescriptor {
	return core.ReceiverDescriptor{
		Name:     "slack",
		BodyType: core.BodyTypeForm,
		Security: core.SecurityScheme{
			Kind:            core.SecuritySchemeHMACHeader,
			Header:          "X-Slack-Signature",
			Prefix:          "v0=",
			TimestampHeader: "X-Slack-Request-Timestamp",
			Algorithm:       core.HMACAlgorithmSHA256,
			Encoding:        core.SignatureEncodingHex,
		},
		RequiredValues: []core.RequiredValue{
			{Name: "X-Slack-Request-Timestamp"},
		},
		EventSource: core.EventSource{Kind: core.EventSourceConstant, Value: "slash_command"},
	}
}

// NewDropboxDescriptor marks GET as acceptable so the provider's
// URL-verification handshake short-circuits after authentication.
func NewDropboxDescriptor() core.ReceiverDescriptor {
	return core.ReceiverDescriptor{
		Name:     "dropbox",
		BodyType: core.BodyTypeJSON,
		Security: core.SecurityScheme{
			Kind:      core.SecuritySchemeHMACHeader,
			Header:    "X-Dropbox-Signature",
			Algorithm: core.HMACAlgorithmSHA256,
			Encoding:  core.SignatureEncodingHex,
		},
		EventSource:  core.EventSource{Kind: core.EventSourceConstant, Value: "change"},
		AllowGetHead: true,
	}
}

// NewBuiltinRegistry registers every built-in descriptor.
func NewBuiltinRegistry() (*core.DescriptorRegistry, error) {
	return core.NewDescriptorRegistryFrom(
		NewGitHubDescriptor(),
		NewGitLabDescriptor(),
		NewBitbucketDescriptor(),
		NewAzureDevOpsDescriptor(),
		NewSlackDescriptor(),
		NewDropboxDescriptor(),
	)
}
