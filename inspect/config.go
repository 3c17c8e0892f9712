package inspect

import (
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/kbukum/injector/validation"
)

// Auth modes.
const (
	AuthNone   = "none"
	AuthBearer = "bearer"
	AuthBasic  = "basic"
)

// Config configures the introspection server.
type Config struct {
	Enabled      bool          `yaml:"enabled" mapstructure:"enabled" json:"enabled"`
	Host         string        `yaml:"host" mapstructure:"host" json:"host"`
	Port         int           `yaml:"port" mapstructure:"port" json:"port" validate:"gte=0,lte=65535"`
	MaxConns     int           `yaml:"max_conns" mapstructure:"max_conns" json:"max_conns" validate:"gte=0"`
	ReadTimeout  time.Duration `yaml:"read_timeout" mapstructure:"read_timeout" json:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout" mapstructure:"write_timeout" json:"write_timeout"`
	Auth         AuthConfig    `yaml:"auth" mapstructure:"auth" json:"auth"`
	TLS          TLSConfig     `yaml:"tls" mapstructure:"tls" json:"tls"`
}

// AuthConfig selects how requests are authenticated.
type AuthConfig struct {
	Mode string `yaml:"mode" mapstructure:"mode" json:"mode" validate:"oneof=none bearer basic"`
	// JWTSecret is the HS256 key for bearer mode.
	JWTSecret string `yaml:"jwt_secret" mapstructure:"jwt_secret" json:"jwt_secret"`
	// Issuer, when set, must match the token's iss claim.
	Issuer string `yaml:"issuer" mapstructure:"issuer" json:"issuer"`
	// Username and PasswordHash (bcrypt) for basic mode.
	Username     string `yaml:"username" mapstructure:"username" json:"username"`
	PasswordHash string `yaml:"password_hash" mapstructure:"password_hash" json:"password_hash"`
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.Host == "" {
		c.Host = "127.0.0.1"
	}
	if c.Port == 0 {
		c.Port = 8089
	}
	if c.MaxConns == 0 {
		c.MaxConns = 64
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 5 * time.Second
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 10 * time.Second
	}
	if c.Auth.Mode == "" {
		c.Auth.Mode = AuthNone
	}
}

// Validate checks field ranges and the credentials each auth mode needs.
func (c *Config) Validate() error {
	if err := validation.Validate(c); err != nil {
		return err
	}
	v := validation.New()
	if err := c.TLS.validate(); err != nil {
		v.AddError("tls", err.Error())
	}
	switch c.Auth.Mode {
	case AuthBearer:
		v.Required("auth.jwt_secret", c.Auth.JWTSecret).
			Check(c.Auth.JWTSecret == "" || len(c.Auth.JWTSecret) >= 16, "auth.jwt_secret", "must be at least 16 bytes")
	case AuthBasic:
		v.Required("auth.username", c.Auth.Username).
			Required("auth.password_hash", c.Auth.PasswordHash)
		if c.Auth.PasswordHash != "" {
			_, err := bcrypt.Cost([]byte(c.Auth.PasswordHash))
			v.Check(err == nil, "auth.password_hash", "must be a bcrypt hash")
		}
	}
	return v.Err()
}
