package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func Test_parseFlags_OverridesSelectedFields(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	os.Args = []string{"testbin",
		"-a", ":9999",
		"-d", "postgres://flags/portalsend",
		"-s", "flag_secret",
		"-t", "30",
		"-m", "2097152",
		"-u", "flag_user",
		"-p", "flag_password",
		"-b", "flag_bucket",
		"-g", "flag_region",
		"-e", "http://flags:9000/",
	}

	cfg := &Config{}
	cfg.LoadDefaults()
	parseFlags(cfg)

	assert.Equal(t, ":9999", cfg.EndpointAddrHTTP)
	assert.Equal(t, "postgres://flags/portalsend", cfg.DatabaseDSN)
	assert.Equal(t, "flag_secret", cfg.SecretKey)
	assert.Equal(t, 30*time.Minute, cfg.AccessTokenValidityDuration)
	assert.Equal(t, int64(2097152), cfg.MaxFileSizeBytes)
	assert.Equal(t, "flag_user", cfg.S3RootUser)
	assert.Equal(t, "flag_password", cfg.S3RootPassword)
	assert.Equal(t, "flag_bucket", cfg.S3Bucket)
	assert.Equal(t, "flag_region", cfg.S3Region)
	assert.Equal(t, "http://flags:9000/", cfg.S3BaseEndpoint)
}

func Test_parseFlags_UnrelatedFlagsIgnored(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	os.Args = []string{"testbin", "-test.v", "-a", ":7070", "-unknown", "value"}

	cfg := &Config{}
	cfg.LoadDefaults()
	parseFlags(cfg)

	assert.Equal(t, ":7070", cfg.EndpointAddrHTTP)
}
