package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/portalsend/internal/flagx"
	"github.com/dmitrijs2005/portalsend/internal/timex"
)

// JsonConfig defines a configuration structure tailored for JSON unmarshalling.
// It uses timex.Duration for interval fields, which allows parsing both
// string values such as "30s" and integer nanoseconds.
type JsonConfig struct {
	ServerEndpointAddr string         `json:"server_endpoint_addr"`
	Email              string         `json:"email"`
	AccessToken        string         `json:"access_token"`
	RequestTimeout     timex.Duration `json:"request_timeout"`
	LocalDBPath        string         `json:"local_db_path"`
}

// parseJson loads configuration values from a JSON file given by the -c or
// -config command-line flags. If no file is set, nothing is loaded; if the
// file cannot be read or contains invalid JSON, the function panics.
func parseJson(config *Config) {

	// try flags
	jsonConfigFile := flagx.JsonConfigFlags()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	err = json.Unmarshal(file, c)
	if err != nil {
		panic(err)
	}

	config.ServerEndpointAddr = c.ServerEndpointAddr
	config.Email = c.Email
	config.AccessToken = c.AccessToken
	config.RequestTimeout = time.Duration(c.RequestTimeout.Duration)
	config.LocalDBPath = c.LocalDBPath
}
