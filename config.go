package drivethru

import (
	"fmt"

	"drivethru/menu"
	"drivethru/validation"

	"github.com/joeshaw/envdecode"
)

type MenuConfig struct {
	Path            string `env:"MENU_PATH,default=artifacts/menu.json"`
	Format          string `env:"MENU_FORMAT,default=catalog"`
	S3Bucket        string `env:"MENU_S3_BUCKET"`
	S3Key           string `env:"MENU_S3_KEY"`
	CommonModifiers bool   `env:"MENU_COMMON_MODIFIERS,default=true"`
}

// UseS3 reports whether the menu should be read from S3 instead of disk.
func (c MenuConfig) UseS3() bool { return c.S3Bucket != "" && c.S3Key != "" }

// Options returns the catalog options implied by the config.
func (c MenuConfig) Options() []menu.Option {
	if !c.CommonModifiers {
		return nil
	}
	return []menu.Option{menu.WithCommonModifiers(menu.DefaultCommonModifiers)}
}

type MatchConfig struct {
	Threshold         float64 `env:"MATCH_THRESHOLD,default=85"`
	ModifierThreshold float64 `env:"MATCH_MODIFIER_THRESHOLD,default=85"`
	TieMargin         float64 `env:"MATCH_TIE_MARGIN,default=0"`
	FoldAccents       bool    `env:"MATCH_FOLD_ACCENTS,default=false"`
}

// Validation converts the env config into validator settings.
func (c MatchConfig) Validation() validation.Config {
	return validation.Config{
		Threshold:         c.Threshold,
		ModifierThreshold: c.ModifierThreshold,
		TieMargin:         c.TieMargin,
		FoldAccents:       c.FoldAccents,
	}
}

type OrderConfig struct {
	OutputDir        string `env:"ORDER_OUTPUT_DIR,default=orders"`
	SnapshotS3Bucket string `env:"ORDER_SNAPSHOT_S3_BUCKET"`
	SnapshotS3Prefix string `env:"ORDER_SNAPSHOT_S3_PREFIX,default=orders"`
	Sync             bool   `env:"ORDER_SYNC,default=true"`
}

type NotifyConfig struct {
	NATSURL         string `env:"NATS_URL"`
	NATSSubject     string `env:"NATS_SUBJECT,default=orders.completed"`
	SlackWebhookURL string `env:"SLACK_WEBHOOK_URL"`
	SlackChannel    string `env:"SLACK_CHANNEL,default=#kitchen"`
}

// Config is the full process configuration.
type Config struct {
	Menu        MenuConfig
	Match       MatchConfig
	Order       OrderConfig
	Notify      NotifyConfig
	OtelEnabled bool `env:"OTEL_ENABLED,default=false"`
}

// LoadConfig reads the process configuration from the environment.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if _, err := menu.ParseFormat(cfg.Menu.Format); err != nil {
		return Config{}, err
	}
	for name, v := range map[string]float64{
		"MATCH_THRESHOLD":          cfg.Match.Threshold,
		"MATCH_MODIFIER_THRESHOLD": cfg.Match.ModifierThreshold,
	} {
		if v < 0 || v > 100 {
			return Config{}, fmt.Errorf("%s must be between 0 and 100, got %v", name, v)
		}
	}
	if cfg.Match.TieMargin < 0 {
		return Config{}, fmt.Errorf("MATCH_TIE_MARGIN must not be negative, got %v", cfg.Match.TieMargin)
	}
	return cfg, nil
}
