package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

func newTestViper() *viper.Viper {
	v := viper.New()
	v.SetDefault("output.dir", "archive")
	v.SetDefault("scrape.timeout_seconds", 30)
	v.SetDefault("scrape.extractors", []string{"text"})
	v.SetDefault("scrape.workers", 2)
	v.SetDefault("renderer.user_agent", "test-agent")
	v.SetDefault("renderer.max_parallel", 2)
	v.SetDefault("renderer.domain_qps", 0.5)
	v.SetDefault("index.table", "snapshots")
	return v
}

func TestLoadDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := Load(newTestViper())
	require.NoError(t, err)
	require.Equal(t, "archive", cfg.Output.Dir)
	require.Equal(t, 30*time.Second, cfg.Scrape.Timeout)
	require.Equal(t, []string{"text"}, cfg.Scrape.Extractors)
	require.Equal(t, 2, cfg.Scrape.Workers)
	require.False(t, cfg.Scrape.Force)
	require.Equal(t, "snapshots", cfg.Index.Table)
}

func TestLoadValidationFailures(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		set  func(*viper.Viper)
	}{
		{"missing output dir", func(v *viper.Viper) { v.Set("output.dir", "") }},
		{"zero timeout", func(v *viper.Viper) { v.Set("scrape.timeout_seconds", 0) }},
		{"no extractors", func(v *viper.Viper) { v.Set("scrape.extractors", []string{}) }},
		{"zero workers", func(v *viper.Viper) { v.Set("scrape.workers", 0) }},
		{"missing user agent", func(v *viper.Viper) { v.Set("renderer.user_agent", "") }},
		{"negative qps", func(v *viper.Viper) { v.Set("renderer.domain_qps", -1.0) }},
		{"unknown mirror backend", func(v *viper.Viper) { v.Set("mirror.backend", "s3") }},
		{"local mirror without base dir", func(v *viper.Viper) { v.Set("mirror.backend", "local") }},
		{"gcs mirror without bucket", func(v *viper.Viper) { v.Set("mirror.backend", "gcs") }},
		{"topic without project", func(v *viper.Viper) { v.Set("pubsub.topic", "snapshots") }},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			v := newTestViper()
			tc.set(v)
			_, err := Load(v)
			require.Error(t, err)
		})
	}
}

func TestLoadMirrorBackends(t *testing.T) {
	t.Parallel()

	v := newTestViper()
	v.Set("mirror.backend", "local")
	v.Set("mirror.base_dir", "/tmp/mirror")
	cfg, err := Load(v)
	require.NoError(t, err)
	require.Equal(t, "local", cfg.Mirror.Backend)

	v = newTestViper()
	v.Set("mirror.backend", "gcs")
	v.Set("mirror.bucket", "policy-archive")
	cfg, err = Load(v)
	require.NoError(t, err)
	require.Equal(t, "policy-archive", cfg.Mirror.Bucket)
}
