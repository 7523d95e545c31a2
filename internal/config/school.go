package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// SchoolConfig carries the settings an administrator can change without a redeploy.
type SchoolConfig struct {
	School   SchoolIdentity `mapstructure:"school"`
	Invoice  InvoiceConfig  `mapstructure:"invoice"`
	Reminder ReminderConfig `mapstructure:"reminder"`
}

type SchoolIdentity struct {
	Name        string `mapstructure:"name"`
	Address     string `mapstructure:"address"`
	Email       string `mapstructure:"email"`
	Phone       string `mapstructure:"phone"`
	BankDetails string `mapstructure:"bankDetails"`
}

type InvoiceConfig struct {
	NumberTemplate string `mapstructure:"numberTemplate"`
	DueDays        int    `mapstructure:"dueDays"`
}

type ReminderConfig struct {
	Month int `mapstructure:"month"`
	Day   int `mapstructure:"day"`
}

func DefaultSchoolConfig() SchoolConfig {
	return SchoolConfig{
		School: SchoolIdentity{
			Name:    "École Montessori",
			Address: "",
			Email:   "secretariat@ecole-montessori.fr",
		},
		Invoice: InvoiceConfig{
			NumberTemplate: "FAC-{YYYY}{MM}-{SEQ5}",
			DueDays:        15,
		},
		Reminder: ReminderConfig{
			Month: 9,
			Day:   1,
		},
	}
}

type SchoolConfigHolder struct {
	current atomic.Value // holds SchoolConfig
}

// NewStaticSchoolConfigHolder returns a holder that never reloads. Used by tests.
func NewStaticSchoolConfigHolder(cfg SchoolConfig) *SchoolConfigHolder {
	holder := &SchoolConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

func NewSchoolConfigHolder() (*SchoolConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("school")
	v.SetConfigType("yml")
	v.AddConfigPath("/etc/ecole")
	v.AddConfigPath("./config")
	v.AddConfigPath(".")

	v.SetEnvPrefix("ECOLE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultSchoolConfig()
	v.SetDefault("school.name", defaults.School.Name)
	v.SetDefault("school.email", defaults.School.Email)
	v.SetDefault("invoice.numberTemplate", defaults.Invoice.NumberTemplate)
	v.SetDefault("invoice.dueDays", defaults.Invoice.DueDays)
	v.SetDefault("reminder.month", defaults.Reminder.Month)
	v.SetDefault("reminder.day", defaults.Reminder.Day)

	fileFound := true
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		fileFound = false
	}

	var cfg SchoolConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if err := validateSchoolConfig(cfg); err != nil {
		return nil, err
	}

	holder := &SchoolConfigHolder{}
	holder.current.Store(cfg)

	if fileFound {
		v.WatchConfig()
		v.OnConfigChange(func(e fsnotify.Event) {
			var updated SchoolConfig
			if err := v.Unmarshal(&updated); err != nil {
				log.Printf("[school-config] reload failed: %v", err)
				return
			}
			if err := validateSchoolConfig(updated); err != nil {
				log.Printf("[school-config] invalid config ignored: %v", err)
				return
			}
			holder.current.Store(updated)
			log.Printf("[school-config] reloaded from %s", e.Name)
		})
	}

	return holder, nil
}

func (h *SchoolConfigHolder) Get() SchoolConfig {
	return h.current.Load().(SchoolConfig)
}

func validateSchoolConfig(cfg SchoolConfig) error {
	if strings.TrimSpace(cfg.School.Name) == "" {
		return errors.New("school.name cannot be empty")
	}
	if strings.TrimSpace(cfg.Invoice.NumberTemplate) == "" {
		return errors.New("invoice.numberTemplate cannot be empty")
	}
	if cfg.Invoice.DueDays < 0 {
		return errors.New("invoice.dueDays cannot be negative")
	}
	if cfg.Reminder.Month < 1 || cfg.Reminder.Month > 12 {
		return errors.New("reminder.month must be between 1 and 12")
	}
	if cfg.Reminder.Day < 1 || cfg.Reminder.Day > 31 {
		return errors.New("reminder.day must be between 1 and 31")
	}
	return nil
}
