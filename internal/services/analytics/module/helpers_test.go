package module

import (
	"testing"

	"bunshare/internal/platform/config"
)

func configFor(t *testing.T, env map[string]string) config.Conf {
	t.Helper()
	for k, v := range env {
		t.Setenv("ANTEST_"+k, v)
	}
	return config.New().Prefix("ANTEST_")
}
