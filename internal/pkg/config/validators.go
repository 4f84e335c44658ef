// internal/pkg/config/validators.go
package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
)

// Validator checks one aspect of a loaded Config
type Validator interface {
	Validate(cfg *Config) error
}

// BasicValidator checks required fields and pool sizing
type BasicValidator struct{}

func (v *BasicValidator) Validate(cfg *Config) error {
	if err := errors.Join(missingFields(reflect.ValueOf(cfg).Elem(), "")...); err != nil {
		return err
	}
	switch {
	case cfg.Database.MaxConnections < cfg.Database.MinConnections:
		return fmt.Errorf("database max_connections must be >= min_connections")
	case cfg.Redis.PoolSize <= 0:
		return fmt.Errorf("redis pool_size must be positive")
	case cfg.Security.RateLimitRequests <= 0:
		return fmt.Errorf("rate_limit_requests must be positive")
	}
	return nil
}

// CatalogValidator checks listing, storage and cart settings
type CatalogValidator struct{}

func (v *CatalogValidator) Validate(cfg *Config) error {
	if cfg.Catalog.PageSize <= 0 {
		return fmt.Errorf("catalog page_size must be positive")
	}
	if cfg.Catalog.MaxPageSize < cfg.Catalog.PageSize {
		return fmt.Errorf("catalog max_page_size must be >= page_size")
	}

	switch cfg.Catalog.Source {
	case "postgres":
	case "seed":
		if cfg.Catalog.SeedPath == "" {
			return fmt.Errorf("%w: catalog seed path", ErrMissingRequiredConfig)
		}
	default:
		return fmt.Errorf("unknown catalog source %q", cfg.Catalog.Source)
	}

	switch cfg.Storage.Driver {
	case "s3":
		if cfg.AWS.S3Bucket == "" {
			return fmt.Errorf("%w: image bucket", ErrMissingRequiredConfig)
		}
	case "local":
		if cfg.Storage.LocalDir == "" {
			return fmt.Errorf("%w: local image directory", ErrMissingRequiredConfig)
		}
	default:
		return fmt.Errorf("unknown image storage %q", cfg.Storage.Driver)
	}

	if cfg.Cart.TTL <= 0 {
		return fmt.Errorf("cart ttl must be positive")
	}
	if cfg.Import.MaxSizeMB <= 0 {
		return fmt.Errorf("import max size must be positive")
	}
	return nil
}

// ProductionValidator refuses development defaults
type ProductionValidator struct{}

func (v *ProductionValidator) Validate(cfg *Config) error {
	if cfg.Database.Password == "" || strings.HasPrefix(cfg.Database.Password, "MISSING_") {
		return fmt.Errorf("%w: database password", ErrMissingRequiredConfig)
	}
	if cfg.Database.Password == "greencycle_dev" {
		return fmt.Errorf("default database password cannot be used in production")
	}
	if cfg.Database.SSLMode == "disable" {
		return fmt.Errorf("database SSL must be enabled in production")
	}
	if !cfg.Security.SecureHeaders {
		return fmt.Errorf("secure headers must be enabled in production")
	}
	if len(cfg.Security.AllowedOrigins) == 0 {
		return fmt.Errorf("allowed origins must be configured in production")
	}
	for _, origin := range cfg.Security.AllowedOrigins {
		if origin == "*" {
			return fmt.Errorf("wildcard origin (*) not allowed in production")
		}
	}
	if cfg.Catalog.Source == "seed" {
		return fmt.Errorf("seed catalog source is for development only")
	}
	if cfg.Storage.Driver == "local" {
		return fmt.Errorf("local image storage is for development only")
	}
	return nil
}

// missingFields walks v and reports every `required:"true"` field left unset
func missingFields(v reflect.Value, prefix string) []error {
	var errs []error
	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		field, meta := v.Field(i), t.Field(i)
		name := meta.Name
		if prefix != "" {
			name = prefix + "." + name
		}

		if meta.Tag.Get("required") == "true" && unset(field) {
			errs = append(errs, fmt.Errorf("%w: %s", ErrMissingRequiredConfig, name))
		}
		if field.Kind() == reflect.Struct {
			errs = append(errs, missingFields(field, name)...)
		}
	}
	return errs
}

func unset(v reflect.Value) bool {
	if v.Kind() == reflect.String {
		return v.String() == "" || strings.HasPrefix(v.String(), "MISSING_")
	}
	return v.IsZero()
}
