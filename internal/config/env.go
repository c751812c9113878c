package config

import (
	"errors"
	"io/fs"
	"strings"

	"dbetl/internal/storage"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every dbetl environment variable, e.g. DBETL_JOB.
const EnvPrefix = "DBETL"

// credentialEnv names the variables holding credentials per kind. The plain
// names come first for compatibility with existing shells.
var credentialEnv = map[string][2][]string{
	"postgres": {{"postgres_username", "DBETL_POSTGRES_USERNAME"}, {"postgres_password", "DBETL_POSTGRES_PASSWORD"}},
	"mssql":    {{"mssql_username", "DBETL_MSSQL_USERNAME"}, {"mssql_password", "DBETL_MSSQL_PASSWORD"}},
}

// LoadDotEnv loads KEY=VALUE files into the process environment without
// overriding variables that are already set. Missing files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return nil
}

// NewViper returns a viper instance reading DBETL_* variables and the
// credential variables.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	for kind, names := range credentialEnv {
		_ = v.BindEnv(append([]string{kind + ".username"}, names[0]...)...)
		_ = v.BindEnv(append([]string{kind + ".password"}, names[1]...)...)
	}
	return v
}

// Credentials returns the environment credentials for kind (aliases
// allowed). Both are empty when none are set, which selects integrated
// authentication.
func Credentials(v *viper.Viper, kind string) (user, password string) {
	k, _ := storage.Canonical(kind)
	if _, ok := credentialEnv[k]; !ok {
		return "", ""
	}
	return v.GetString(k + ".username"), v.GetString(k + ".password")
}

// ApplyCredentials fills empty endpoint credentials from the environment.
func ApplyCredentials(v *viper.Viper, e Endpoint) Endpoint {
	if e.User != "" {
		return e
	}
	e.User, e.Password = Credentials(v, e.Kind)
	return e
}
