package config

import (
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// CreditMapping maps a payment-provider variant ID to the number of
// generation credits granted (or removed) for that plan.
type CreditMapping map[string]int

// DefaultCreditMapping returns the compiled-in variant to credit table.
func DefaultCreditMapping() CreditMapping {
	return CreditMapping{
		"679422": 50,
		"679423": 125,
		"679424": 250,
		"679425": 600,
		"679426": 1500,
		"679427": 3000,
	}
}

// CreditMappingHolder serves the current mapping and hot-reloads it when
// the backing credits.yml changes.
type CreditMappingHolder struct {
	current atomic.Value // holds CreditMapping
}

func NewCreditMappingHolder(log *zap.Logger) (*CreditMappingHolder, error) {
	v := viper.New()

	v.SetConfigName("credits")
	v.SetConfigType("yml")
	v.AddConfigPath("/etc/influencer-api")
	v.AddConfigPath(".")

	v.SetEnvPrefix("INFLUENCER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	holder := &CreditMappingHolder{}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		holder.current.Store(DefaultCreditMapping())
		return holder, nil
	}

	holder.current.Store(loadMapping(v))

	v.OnConfigChange(func(in fsnotify.Event) {
		holder.current.Store(loadMapping(v))
		log.Info("credit mapping reloaded", zap.String("file", in.Name))
	})
	v.WatchConfig()

	return holder, nil
}

// Get returns the currently active mapping.
func (h *CreditMappingHolder) Get() CreditMapping {
	return h.current.Load().(CreditMapping)
}

// CreditsFor returns the credit delta for a variant, false when the
// variant has no mapping.
func (h *CreditMappingHolder) CreditsFor(variantID string) (int, bool) {
	credits, ok := h.Get()[strings.TrimSpace(variantID)]
	return credits, ok
}

func loadMapping(v *viper.Viper) CreditMapping {
	raw := v.GetStringMap("credits")
	if len(raw) == 0 {
		return DefaultCreditMapping()
	}
	mapping := make(CreditMapping, len(raw))
	for variant := range raw {
		mapping[variant] = v.GetInt("credits." + variant)
	}
	return mapping
}
