package conf

/*
   Wrapper around viper for the FastVal claims engine. Configuration is an
   env-format file; any key not present in the file falls back to the process
   environment. The file, once loaded, is treated as immutable for the uptime
   of the application (tests excepted, via SetEnv/UnsetEnv).
*/

import (
	"os"
	"reflect"
	"strings"
	"testing"

	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

var envVars viper.Viper

const (
	configgood uint8 = iota
	configbad
	noconfigfound
)

var state = configgood

func setup(dir string) *viper.Viper {
	v := viper.New()
	v.SetConfigName("local")
	v.SetConfigType("env")
	v.AddConfigPath(dir)
	if err := v.ReadInConfig(); err != nil {
		state = configbad
	}
	return v
}

func init() {
	// Deployed environments mount the config under /etc; local development
	// keeps it next to the repo. FASTVAL_CONFIG_DIR overrides both.
	locations := []string{
		os.Getenv("FASTVAL_CONFIG_DIR"),
		"./shared_files",
		"/etc/fastval",
	}

	if found, loc := findEnv(locations); found {
		envVars = *setup(loc)
	} else {
		state = noconfigfound
	}
}

func findEnv(locations []string) (bool, string) {
	for _, loc := range locations {
		if loc == "" {
			continue
		}
		if _, err := os.Stat(loc + "/local.env"); err == nil {
			return true, loc
		}
	}
	return false, ""
}

// GetEnv retrieves the value stored in conf, falling back to the process
// environment. Returns "" when the key is set nowhere.
func GetEnv(key string) string {
	if state == configgood {
		if value := envVars.GetString(key); value != "" {
			return value
		}
	}
	return os.Getenv(key)
}

// LookupEnv augments os.LookupEnv to consult the config file first.
func LookupEnv(key string) (string, bool) {
	if state == configgood {
		if value := envVars.Get(key); value != nil && value != "" {
			return value.(string), true
		}
	}
	return os.LookupEnv(key)
}

// SetEnv adds a key value into conf. The *testing.T parameter is there to
// ensure callers knowingly use it in test scope only.
func SetEnv(_ *testing.T, key string, value string) error {
	if state == configgood {
		envVars.Set(key, value)
		return nil
	}
	return os.Setenv(key, value)
}

// UnsetEnv removes a variable from conf and the environment.
func UnsetEnv(_ *testing.T, key string) error {
	if state == configgood {
		envVars.Set(key, "")
	}
	return os.Unsetenv(key)
}

// Checkout populates the struct pointed to by target from conf values.
// Fields opt in via the `conf` tag naming the variable; `conf_default`
// supplies the value used when the variable is unset. Nested structs tagged
// `conf:",squash"` are flattened, matching mapstructure semantics.
func Checkout(target interface{}) error {
	rv := reflect.ValueOf(target)
	if rv.Kind() != reflect.Ptr || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return errors.New("conf: Checkout requires a non-nil pointer to a struct")
	}

	values := gather(rv.Elem().Type())

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "conf",
		WeaklyTypedInput: true,
		Result:           target,
	})
	if err != nil {
		return errors.Wrap(err, "conf: building decoder")
	}

	return errors.Wrap(decoder.Decode(values), "conf: decoding values")
}

func gather(t reflect.Type) map[string]interface{} {
	out := make(map[string]interface{})
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("conf")
		name, opts, _ := strings.Cut(tag, ",")

		if strings.Contains(opts, "squash") && field.Type.Kind() == reflect.Struct {
			for k, v := range gather(field.Type) {
				out[k] = v
			}
			continue
		}
		if name == "" || name == "-" {
			continue
		}

		value, ok := LookupEnv(name)
		if !ok || value == "" {
			value = field.Tag.Get("conf_default")
			if value == "" {
				continue
			}
		}
		out[name] = value
	}
	return out
}
