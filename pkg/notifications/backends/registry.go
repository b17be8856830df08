package backends

import (
	"fmt"

	"github.com/hashicorp/go-hclog"
)

// Config holds backend configuration from HCL
type Config struct {
	// Resend backend configuration
	Resend *ResendConfig `hcl:"resend,block"`

	// SMTP backend configuration
	SMTP *SMTPConfig `hcl:"smtp,block"`

	// Audit backend (logs instead of sending)
	Audit *AuditConfig `hcl:"audit,block"`
}

// ResendConfig configures the Resend backend. The API key is usually supplied
// through the RESEND_API_KEY environment variable.
type ResendConfig struct {
	Enabled  bool   `hcl:"enabled,optional"`
	APIKey   string `hcl:"api_key,optional"`
	Endpoint string `hcl:"endpoint,optional"`
}

// SMTPConfig configures the SMTP backend
type SMTPConfig struct {
	Enabled bool `hcl:"enabled,optional"`

	Host     string `hcl:"host,optional"`
	Port     string `hcl:"port,optional"`
	Username string `hcl:"username,optional"`
	Password string `hcl:"password,optional"`
	UseTLS   bool   `hcl:"use_tls,optional"`
}

// AuditConfig configures the audit backend
type AuditConfig struct {
	Enabled bool `hcl:"enabled,optional"`
}

// precedence is the order Primary picks backends in.
var precedence = []string{"resend", "smtp", "audit"}

// Registry manages available email backends
type Registry struct {
	backends map[string]Sender
}

// NewRegistry creates a new backend registry from configuration
func NewRegistry(cfg *Config, log hclog.Logger) (*Registry, error) {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	registry := &Registry{
		backends: make(map[string]Sender),
	}

	if cfg == nil {
		return registry, nil
	}

	if cfg.Resend != nil && cfg.Resend.Enabled {
		if cfg.Resend.APIKey == "" {
			return nil, fmt.Errorf("resend backend enabled without an API key")
		}
		registry.Register(NewResendBackend(ResendBackendConfig{
			APIKey:   cfg.Resend.APIKey,
			Endpoint: cfg.Resend.Endpoint,
		}))
		log.Info("initialized resend backend")
	}

	if cfg.SMTP != nil && cfg.SMTP.Enabled {
		if cfg.SMTP.Host == "" {
			return nil, fmt.Errorf("smtp backend enabled without a host")
		}
		port := cfg.SMTP.Port
		if port == "" {
			port = "587"
		}
		registry.Register(NewMailBackend(MailBackendConfig{
			SMTPHost:     cfg.SMTP.Host,
			SMTPPort:     port,
			SMTPUsername: cfg.SMTP.Username,
			SMTPPassword: cfg.SMTP.Password,
			UseTLS:       cfg.SMTP.UseTLS,
		}))
		log.Info("initialized smtp backend", "host", cfg.SMTP.Host, "port", port)
	}

	if cfg.Audit != nil && cfg.Audit.Enabled {
		registry.Register(NewAuditBackend(log))
		log.Info("initialized audit backend")
	}

	return registry, nil
}

// Register adds or replaces a backend under its name.
func (r *Registry) Register(s Sender) {
	r.backends[s.Name()] = s
}

// GetBackend returns a backend by name
func (r *Registry) GetBackend(name string) (Sender, bool) {
	backend, ok := r.backends[name]
	return backend, ok
}

// Primary returns the backend emails are sent through: resend, then smtp,
// then audit.
func (r *Registry) Primary() (Sender, error) {
	for _, name := range precedence {
		if b, ok := r.backends[name]; ok {
			return b, nil
		}
	}
	for _, b := range r.backends {
		return b, nil
	}
	return nil, fmt.Errorf("no email backend configured")
}

// GetBackendNames returns the names of all registered backends in
// precedence order.
func (r *Registry) GetBackendNames() []string {
	names := make([]string, 0, len(r.backends))
	for _, name := range precedence {
		if _, ok := r.backends[name]; ok {
			names = append(names, name)
		}
	}
	for name := range r.backends {
		known := false
		for _, p := range precedence {
			if p == name {
				known = true
				break
			}
		}
		if !known {
			names = append(names, name)
		}
	}
	return names
}
