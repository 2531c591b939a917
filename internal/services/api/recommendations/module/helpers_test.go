package module

import (
	"testing"

	"bunshare/internal/platform/config"
)

func configWith(t *testing.T, env map[string]string) config.Conf {
	t.Helper()
	for k, v := range env {
		t.Setenv("RECTEST_"+k, v)
	}
	return config.New().Prefix("RECTEST_")
}
