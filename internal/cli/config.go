package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/example/swagdoc/internal/diag"
	"github.com/example/swagdoc/internal/emit"
	"github.com/example/swagdoc/internal/openapi"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is read from the working directory when --config is not
// given.
const DefaultConfigFile = ".swagdoc.yml"

const megabyte = 1 << 20

// Config is the init command configuration. The YAML file is read first and
// explicitly set flags override it.
type Config struct {
	GeneralInfo      string            `yaml:"generalInfo"`
	SearchDirs       []string          `yaml:"dirs" validate:"required,min=1,dive,required"`
	ExcludeDirs      []string          `yaml:"excludeDirs" validate:"dive,required"`
	Output           string            `yaml:"output" validate:"required"`
	OutputTypes      []string          `yaml:"outputTypes" validate:"required,min=1,dive,oneof=go json yaml ui"`
	OpenAPIVersion   string            `yaml:"openapi" validate:"oneof=3.0.0 3.1.0 3.1.1"`
	MaxFileSizeMB    float64           `yaml:"maxFileSize" validate:"gte=0"`
	MaxChunkSizeMB   float64           `yaml:"maxChunkSize" validate:"gte=0"`
	Validate         bool              `yaml:"validate"`
	Debug            bool              `yaml:"debug"`
	CustomValidators map[string]string `yaml:"customValidators" validate:"dive,keys,required,endkeys,required"`
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() Config {
	return Config{
		SearchDirs:     []string{"./"},
		Output:         "./docs",
		OutputTypes:    append([]string(nil), emit.AllTypes...),
		OpenAPIVersion: openapi.DefaultVersion,
		MaxFileSizeMB:  5,
	}
}

// LoadConfig reads path over the defaults. An empty path falls back to
// DefaultConfigFile, which may be absent.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	explicit := path != ""
	if !explicit {
		path = DefaultConfigFile
	}

	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return cfg, diag.Configurationf(diag.ErrInvalidConfig, "read config %s: %v", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, diag.Configurationf(diag.ErrInvalidConfig, "parse config %s: %v", path, err)
	}
	return cfg, nil
}

// Check validates the struct tags. The first failure is reported as a
// configuration error naming the offending field.
func (c Config) Check() error {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	err := v.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return diag.Configurationf(diag.ErrInvalidConfig, "invalid configuration: %v", err)
	}
	fe := verrs[0]
	return diag.Configurationf(diag.ErrInvalidConfig, "invalid configuration: %s %s", fieldName(fe), describe(fe))
}

// fieldName strips the struct name from the namespace, leaving the YAML
// key path, as in outputTypes[1].
func fieldName(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("needs at least %s entries", fe.Param())
	case "oneof":
		return fmt.Sprintf("is %v; must be one of %s", fe.Value(), strings.ReplaceAll(fe.Param(), " ", ", "))
	case "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	default:
		return fmt.Sprintf("fails %s", fe.Tag())
	}
}

// toBytes converts a size in megabytes.
func toBytes(mb float64) int64 {
	return int64(mb * megabyte)
}
