package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type ConfigSuite struct {
	suite.Suite
}

func TestConfigSuite(t *testing.T) {
	suite.Run(t, new(ConfigSuite))
}

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func (s *ConfigSuite) TestEnvOverrides() {
	cfg := Default()
	applyEnv(&cfg, envMap(map[string]string{
		"FACEPAY_ADDR":           ":9090",
		"FACE_MODE":              "memory",
		"LEDGER_TIMEOUT":         "5s",
		"LEDGER_CONFIRM_TIMEOUT": "90s",
		"KAFKA_BROKERS":          "k1:9092, k2:9092,",
		"MAX_PHOTO_BYTES":        "2048",
		"REQUEST_ID_TTL":         "not-a-duration",
		"APTOS_PRIVATE_KEY":      "0xabc",
	}))

	s.Equal(":9090", cfg.Server.Addr)
	s.Equal("memory", cfg.Face.Mode)
	s.Equal(5*time.Second, cfg.Ledger.Timeout)
	s.Equal(90*time.Second, cfg.Ledger.ConfirmTimeout)
	s.Equal([]string{"k1:9092", "k2:9092"}, cfg.Journal.KafkaBrokers)
	s.Equal(int64(2048), cfg.Server.MaxPhotoBytes)
	s.Equal(24*time.Hour, cfg.Payment.RequestIDTTL, "invalid durations keep the default")
	s.True(cfg.Ledger.AdminConfigured())
}

func (s *ConfigSuite) TestNetworkDefaults() {
	l := Ledger{Network: "testnet"}
	l.applyNetworkDefaults()
	s.Equal("https://fullnode.testnet.aptoslabs.com/v1", l.NodeURL)
	s.Equal("https://faucet.testnet.aptoslabs.com", l.FaucetURL)

	main := Ledger{Network: "mainnet"}
	main.applyNetworkDefaults()
	s.Empty(main.FaucetURL)

	custom := Ledger{Network: "local", NodeURL: "http://localhost:8080/v1"}
	custom.applyNetworkDefaults()
	s.Equal("http://localhost:8080/v1", custom.NodeURL)
}

func (s *ConfigSuite) TestValidate() {
	s.Run("defaults need a luxand token", func() {
		cfg := Default()
		cfg.Ledger.applyNetworkDefaults()
		s.ErrorContains(cfg.Validate(), "LUXAND_API_TOKEN")
	})

	s.Run("memory adapters are valid", func() {
		cfg := Default()
		cfg.Face.Mode = "memory"
		cfg.Ledger.Mode = "memory"
		s.NoError(cfg.Validate())
	})

	s.Run("redis store requires url", func() {
		cfg := Default()
		cfg.Face.Mode = "memory"
		cfg.Ledger.Mode = "memory"
		cfg.Enrollment.Store = "redis"
		s.ErrorContains(cfg.Validate(), "REDIS_URL")
	})

	s.Run("unknown sink", func() {
		cfg := Default()
		cfg.Face.Mode = "memory"
		cfg.Ledger.Mode = "memory"
		cfg.Journal.Sink = "sqs"
		s.ErrorContains(cfg.Validate(), "outcome sink")
	})
}

func (s *ConfigSuite) TestLoadFile() {
	dir := s.T().TempDir()
	path := filepath.Join(dir, "facepay.yaml")
	s.Require().NoError(os.WriteFile(path, []byte(`
server:
  addr: ":7070"
  max_photo_bytes: 1024
face:
  mode: memory
ledger:
  mode: memory
  network: testnet
  timeout: 12s
journal:
  sink: kafka
  kafka_brokers: ["localhost:9092"]
`), 0o600))

	s.T().Setenv("FACEPAY_CONFIG", path)
	s.T().Setenv("FACEPAY_ADDR", ":6060")

	cfg, err := Load()
	s.Require().NoError(err)
	s.Equal(":6060", cfg.Server.Addr, "env wins over file")
	s.Equal(int64(1024), cfg.Server.MaxPhotoBytes)
	s.Equal(12*time.Second, cfg.Ledger.Timeout)
	s.Equal("https://fullnode.testnet.aptoslabs.com/v1", cfg.Ledger.NodeURL)
	s.Equal([]string{"localhost:9092"}, cfg.Journal.KafkaBrokers)
}
