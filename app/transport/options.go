package transport

import (
	"regexp"

	"github.com/aws/aws-sdk-go-v2/aws"
)

const (
	// APIVersion is the SES API revision the raw transport speaks.
	APIVersion = "2010-12-01"
	// DefaultRegion is used when no region can be resolved from the options.
	DefaultRegion = "us-east-1"
)

// Legacy SES endpoints carried the region in the host name; the third capture
// group is the region segment.
var serviceURLRegion = regexp.MustCompile(`(?i)(.*)email(.*)\.(.*)\.amazonaws\.com`)

// Options configures an SES-backed transport. Every field is optional:
// malformed or absent values degrade to defaults, construction never fails.
type Options struct {
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string

	// Legacy option names. The new-style field wins when both are set.
	AWSAccessKeyID   string
	AWSSecretKey     string
	AWSSecurityToken string

	// Region selects the SES regional endpoint.
	Region string
	// ServiceURL is the legacy endpoint form. When Region is empty, the
	// region segment of a matching URL is used instead.
	ServiceURL string

	// SDK passthrough.
	Endpoint    string
	HTTPClient  aws.HTTPClient
	MaxAttempts int
}

// Config is the normalized, immutable form of Options.
type Config struct {
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
	Region          string
	APIVersion      string
}

// HasStaticCredentials reports whether the options carry a usable credential
// pair after alias resolution. Callers use it to decide between a static
// client and the SDK's default credential chain.
func (o Options) HasStaticCredentials() bool {
	cfg := o.resolve()
	return cfg.AccessKeyID != "" && cfg.SecretAccessKey != ""
}

// resolve normalizes credentials (new name wins over alias) and the region
// (explicit option, then service URL, then DefaultRegion).
func (o Options) resolve() Config {
	cfg := Config{
		AccessKeyID:     firstOf(o.AccessKeyID, o.AWSAccessKeyID),
		SecretAccessKey: firstOf(o.SecretAccessKey, o.AWSSecretKey),
		SessionToken:    firstOf(o.SessionToken, o.AWSSecurityToken),
		Region:          DefaultRegion,
		APIVersion:      APIVersion,
	}
	if o.Region != "" {
		cfg.Region = o.Region
		return cfg
	}
	if m := serviceURLRegion.FindStringSubmatch(o.ServiceURL); m != nil && m[3] != "" {
		cfg.Region = m[3]
	}
	return cfg
}

func firstOf(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
