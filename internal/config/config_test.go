package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != ":5000" {
		t.Errorf("HTTPAddr = %q", cfg.HTTPAddr)
	}
	if cfg.StoreDriver != DriverMemory {
		t.Errorf("StoreDriver = %q, want memory", cfg.StoreDriver)
	}
	if cfg.TokenTTL != 24*time.Hour {
		t.Errorf("TokenTTL = %v", cfg.TokenTTL)
	}
	if cfg.LoginMaxAttempts != 5 || cfg.LoginWindow != 15*time.Minute {
		t.Errorf("login limit = %d/%v", cfg.LoginMaxAttempts, cfg.LoginWindow)
	}
	if len(cfg.AllowedOrigins) != 0 {
		t.Errorf("AllowedOrigins = %q, want none", cfg.AllowedOrigins)
	}
	if len(cfg.TrustedProxies) != 0 {
		t.Errorf("TrustedProxies = %q, want none", cfg.TrustedProxies)
	}
	if cfg.MaxBodyBytes != 10<<20 {
		t.Errorf("MaxBodyBytes = %d", cfg.MaxBodyBytes)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestLoadPicksMongoFromURI(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("MONGODB_URI", "mongodb://localhost:27017")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.StoreDriver != DriverMongo {
		t.Errorf("StoreDriver = %q, want mongo", cfg.StoreDriver)
	}
}

func TestLoadReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	writeFile(t, ".env", "ADMIN_EMAIL=owner@myquiz.com\nALLOWED_ORIGINS= https://a.example , ,https://b.example\n")
	unsetAfter(t, "ADMIN_EMAIL", "ALLOWED_ORIGINS")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.AdminEmail != "owner@myquiz.com" {
		t.Errorf("AdminEmail = %q", cfg.AdminEmail)
	}
	if got := strings.Join(cfg.AllowedOrigins, ","); got != "https://a.example,https://b.example" {
		t.Errorf("AllowedOrigins = %q", got)
	}
}

func TestTrustedProxyPrefixes(t *testing.T) {
	cfg := Config{TrustedProxies: []string{"10.1.2.3/8", "192.0.2.7", "::ffff:198.51.100.1"}}

	got, err := cfg.TrustedProxyPrefixes()
	if err != nil {
		t.Fatalf("TrustedProxyPrefixes: %v", err)
	}
	want := []string{"10.0.0.0/8", "192.0.2.7/32", "198.51.100.1/32"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i].String() != want[i] {
			t.Errorf("prefix %d = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Environment:      "development",
			StoreDriver:      DriverMemory,
			JWTSecret:        devJWTSecret,
			TokenTTL:         time.Hour,
			LoginMaxAttempts: 5,
			LoginWindow:      time.Minute,
			MaxBodyBytes:     1024,
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "unknown driver", mutate: func(c *Config) { c.StoreDriver = "postgres" }, wantErr: "unknown STORE_DRIVER"},
		{name: "mongo without uri", mutate: func(c *Config) { c.StoreDriver = DriverMongo }, wantErr: "MONGODB_URI"},
		{name: "production default secret", mutate: func(c *Config) { c.Environment = EnvProduction }, wantErr: "JWT_SECRET must be set"},
		{name: "production default admin password", mutate: func(c *Config) {
			c.Environment = EnvProduction
			c.JWTSecret = "s3cret"
			c.AdminPassword = devAdminPassword
		}, wantErr: "ADMIN_PASSWORD must be set"},
		{name: "production empty admin password", mutate: func(c *Config) {
			c.Environment = EnvProduction
			c.JWTSecret = "s3cret"
		}, wantErr: "ADMIN_PASSWORD must be set"},
		{name: "production wildcard origin", mutate: func(c *Config) {
			c.Environment = EnvProduction
			c.JWTSecret = "s3cret"
			c.AdminPassword = "hunter22"
			c.AllowedOrigins = []string{"*"}
		}, wantErr: "ALLOWED_ORIGINS"},
		{name: "production ok", mutate: func(c *Config) {
			c.Environment = EnvProduction
			c.JWTSecret = "s3cret"
			c.AdminPassword = "hunter22"
		}},
		{name: "trusted proxies", mutate: func(c *Config) { c.TrustedProxies = []string{"10.0.0.0/8", "::1"} }},
		{name: "bad trusted proxy", mutate: func(c *Config) { c.TrustedProxies = []string{"10.0.0.0/33"} }, wantErr: "TRUSTED_PROXIES"},
		{name: "zero attempts", mutate: func(c *Config) { c.LoginMaxAttempts = 0 }, wantErr: "LOGIN_MAX_ATTEMPTS"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			switch {
			case tt.wantErr == "" && err != nil:
				t.Fatalf("unexpected error: %v", err)
			case tt.wantErr != "" && (err == nil || !strings.Contains(err.Error(), tt.wantErr)):
				t.Fatalf("error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}
