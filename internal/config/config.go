// Package config loads the HCL configuration of the helpdesk services.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"
	_ "time/tzdata"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/hashicorp/hcl/v2/hclsimple"
	"github.com/helpdeskhq/helpdesk/pkg/notifications"
	"github.com/helpdeskhq/helpdesk/pkg/notifications/backends"
)

// Config contains the helpdesk configuration.
type Config struct {
	// Server configures the HTTP listener.
	Server *Server `hcl:"server,block"`

	// Postgres configures the ticket data store.
	Postgres *Postgres `hcl:"postgres,block"`

	// Notifications configures email content.
	Notifications *Notifications `hcl:"notifications,block"`

	// Backends configures the email providers.
	Backends *backends.Config `hcl:"backends,block"`

	// Kafka configures the ticket event queue. Optional.
	Kafka *Kafka `hcl:"kafka,block"`

	// Auth configures bearer token verification. Optional.
	Auth *Auth `hcl:"auth,block"`

	// Identity configures the identity service used to resolve email
	// addresses. When unset, addresses are read from the database.
	Identity *Identity `hcl:"identity,block"`
}

// Server configures the HTTP listener.
type Server struct {
	Addr            string `hcl:"addr,optional"`
	ShutdownTimeout string `hcl:"shutdown_timeout,optional"`
}

// ShutdownTimeoutDuration parses ShutdownTimeout.
func (s *Server) ShutdownTimeoutDuration() time.Duration {
	d, err := time.ParseDuration(s.ShutdownTimeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// Postgres configures the database connection.
type Postgres struct {
	// URL is a full connection string. When set, the other fields are ignored.
	URL      string `hcl:"url,optional"`
	Host     string `hcl:"host,optional"`
	Port     int    `hcl:"port,optional"`
	User     string `hcl:"user,optional"`
	Password string `hcl:"password,optional"`
	DBName   string `hcl:"dbname,optional"`
	SSLMode  string `hcl:"sslmode,optional"`
}

// Notifications configures email content.
type Notifications struct {
	// BaseURL is the web app URL ticket links point to.
	BaseURL string `hcl:"base_url,optional"`

	FromAddress string `hcl:"from_address,optional"`
	FromName    string `hcl:"from_name,optional"`

	// Locale selects the email copy (pt-BR or en).
	Locale string `hcl:"locale,optional"`

	// TimeZone is the IANA zone dates are shown in.
	TimeZone string `hcl:"time_zone,optional"`

	// MaxConcurrency caps in-flight sends per event. Zero means no limit.
	MaxConcurrency int `hcl:"max_concurrency,optional"`
}

// From returns the From header of outgoing emails.
func (n *Notifications) From() string {
	return backends.FormatAddress(n.FromName, n.FromAddress)
}

// Location loads TimeZone.
func (n *Notifications) Location() (*time.Location, error) {
	return time.LoadLocation(n.TimeZone)
}

// Kafka configures the ticket event queue.
type Kafka struct {
	Brokers          []string `hcl:"brokers,optional"`
	Topic            string   `hcl:"topic,optional"`
	DLQTopic         string   `hcl:"dlq_topic,optional"`
	ConsumerGroup    string   `hcl:"consumer_group,optional"`
	ConsumeFromStart bool     `hcl:"consume_from_start,optional"`
}

// Auth configures bearer token verification of API requests.
type Auth struct {
	// JWTSecret is the HS256 signing secret of access tokens.
	JWTSecret string `hcl:"jwt_secret,optional"`
}

// Identity configures the identity service admin API.
type Identity struct {
	AdminURL   string `hcl:"admin_url,optional"`
	ServiceKey string `hcl:"service_key,optional"`
}

// NewConfig parses an HCL configuration file, applies environment overrides
// and defaults, and validates the result.
func NewConfig(filename string) (*Config, error) {
	var c Config
	if err := hclsimple.DecodeFile(filename, nil, &c); err != nil {
		return nil, fmt.Errorf("error decoding config: %w", err)
	}

	c.applyEnv(os.LookupEnv)
	c.applyDefaults()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &c, nil
}

// applyEnv overrides configuration with environment variables.
func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	if c.Notifications == nil {
		c.Notifications = &Notifications{}
	}
	if v, ok := lookup("APP_BASE_URL"); ok && v != "" {
		c.Notifications.BaseURL = v
	}

	if v, ok := lookup("RESEND_API_KEY"); ok && v != "" {
		if c.Backends == nil {
			c.Backends = &backends.Config{}
		}
		if c.Backends.Resend == nil {
			c.Backends.Resend = &backends.ResendConfig{Enabled: true}
		}
		c.Backends.Resend.APIKey = v
	}

	if v, ok := lookup("DATABASE_URL"); ok && v != "" {
		if c.Postgres == nil {
			c.Postgres = &Postgres{}
		}
		c.Postgres.URL = v
	}

	if v, ok := lookup("JWT_SECRET"); ok && v != "" {
		if c.Auth == nil {
			c.Auth = &Auth{}
		}
		c.Auth.JWTSecret = v
	}

	if v, ok := lookup("KAFKA_BROKERS"); ok && v != "" {
		if c.Kafka == nil {
			c.Kafka = &Kafka{}
		}
		c.Kafka.Brokers = strings.Split(v, ",")
	}

	adminURL, hasURL := lookup("IDENTITY_ADMIN_URL")
	serviceKey, hasKey := lookup("IDENTITY_SERVICE_KEY")
	if (hasURL && adminURL != "") || (hasKey && serviceKey != "") {
		if c.Identity == nil {
			c.Identity = &Identity{}
		}
		if adminURL != "" {
			c.Identity.AdminURL = adminURL
		}
		if serviceKey != "" {
			c.Identity.ServiceKey = serviceKey
		}
	}
}

func (c *Config) applyDefaults() {
	if c.Server == nil {
		c.Server = &Server{}
	}
	if c.Server.Addr == "" {
		c.Server.Addr = "127.0.0.1:8000"
	}
	if c.Server.ShutdownTimeout == "" {
		c.Server.ShutdownTimeout = "30s"
	}

	if c.Postgres == nil {
		c.Postgres = &Postgres{}
	}
	if c.Postgres.Host == "" {
		c.Postgres.Host = "localhost"
	}
	if c.Postgres.Port == 0 {
		c.Postgres.Port = 5432
	}
	if c.Postgres.DBName == "" {
		c.Postgres.DBName = "helpdesk"
	}
	if c.Postgres.SSLMode == "" {
		c.Postgres.SSLMode = "disable"
	}

	if c.Notifications == nil {
		c.Notifications = &Notifications{}
	}
	if c.Notifications.FromName == "" {
		c.Notifications.FromName = "Helpdesk"
	}
	if c.Notifications.Locale == "" {
		c.Notifications.Locale = "pt-BR"
	}
	if c.Notifications.TimeZone == "" {
		c.Notifications.TimeZone = "UTC"
	}

	if c.Backends == nil {
		c.Backends = &backends.Config{}
	}
	if c.Backends.Resend == nil && c.Backends.SMTP == nil && c.Backends.Audit == nil {
		c.Backends.Audit = &backends.AuditConfig{Enabled: true}
	}

	if c.Kafka != nil {
		if c.Kafka.Topic == "" {
			c.Kafka.Topic = notifications.DefaultTopic
		}
		if c.Kafka.DLQTopic == "" {
			c.Kafka.DLQTopic = c.Kafka.Topic + ".dlq"
		}
		if c.Kafka.ConsumerGroup == "" {
			c.Kafka.ConsumerGroup = "helpdesk-notifiers"
		}
	}
}

// Validate checks the fields the services cannot run without.
func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Notifications, validation.Required),
		validation.Field(&c.Kafka),
		validation.Field(&c.Identity),
	)
}

// Validate implements validation.Validatable.
func (n *Notifications) Validate() error {
	return validation.ValidateStruct(n,
		validation.Field(&n.BaseURL, validation.Required, validation.By(absoluteURL)),
		validation.Field(&n.FromAddress, validation.Required),
		validation.Field(&n.Locale, validation.In("pt-BR", "en")),
		validation.Field(&n.TimeZone, validation.By(func(value interface{}) error {
			if _, err := time.LoadLocation(value.(string)); err != nil {
				return errors.New("must be an IANA time zone")
			}
			return nil
		})),
		validation.Field(&n.MaxConcurrency, validation.Min(0)),
	)
}

// Validate implements validation.Validatable.
func (k *Kafka) Validate() error {
	return validation.ValidateStruct(k,
		validation.Field(&k.Brokers, validation.Required),
	)
}

// Validate implements validation.Validatable.
func (i *Identity) Validate() error {
	return validation.ValidateStruct(i,
		validation.Field(&i.AdminURL, validation.Required, validation.By(absoluteURL)),
		validation.Field(&i.ServiceKey, validation.Required),
	)
}

func absoluteURL(value interface{}) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	u, err := url.Parse(s)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return errors.New("must be an absolute URL")
	}
	return nil
}
