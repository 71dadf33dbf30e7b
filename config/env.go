package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

var conf *viper.Viper

func init() {
	conf = viper.New()
	conf.SetTypeByDefaultValue(true)

	conf.SetDefault("ENV", "development")
	conf.SetDefault("APP_NAME", "FEEDESK")
	conf.SetDefault("HTTP_HOST", "0.0.0.0")
	conf.SetDefault("HTTP_PORT", "8000")
	conf.SetDefault("DB_SSLMODE", "disable")
	conf.SetDefault("INSTALL_SQL_FUNCTIONS", true)
	conf.SetDefault("GRACE_PERIOD_DAYS", 30)
	conf.SetDefault("REMINDER_INTERVAL_DAYS", 6)
	conf.SetDefault("REMINDER_CRON", "0 9 * * *")
	conf.SetDefault("REMINDER_AUTO_SEND", false)
	conf.SetDefault("REMINDER_WORKERS", 10)
	conf.SetDefault("INSTITUTION_NAME", "COM-TECH ACADEMY")
	conf.SetDefault("INSTITUTION_TAGLINE", "Digital Skills")
	conf.SetDefault("CURRENCY", "PKR")
	conf.SetDefault("PHONE_COUNTRY_CODE", "92")
	conf.SetDefault("TIMEZONE", "Asia/Karachi")
	conf.SetDefault("SESSION_TIMEOUT", 24*time.Hour)
	conf.SetDefault("REQUEST_TIMEOUT", 10*time.Second)
	conf.SetDefault("JWT_EXPIRY", 24*time.Hour)
	conf.SetDefault("WHATSAPP_ENABLED", false)
	conf.SetDefault("DBMS", "postgres")
	conf.SetDefault("EMAIL_PROVIDER", "smtp")

	conf.AutomaticEnv()
}

// LoadEnv reads .env when present. A missing file is not an error.
func LoadEnv() error {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return fmt.Errorf("failed to load .env: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return err
	}
	return nil
}

// SetLocalTimezone moves time.Local to TIMEZONE so "today" follows the school's day.
func SetLocalTimezone() error {
	loc, err := time.LoadLocation(GetTimezone())
	if err != nil {
		return fmt.Errorf("invalid TIMEZONE %q: %w", GetTimezone(), err)
	}
	time.Local = loc
	return nil
}

func GetEnv() string                   { return conf.GetString("ENV") }
func GetTimezone() string              { return conf.GetString("TIMEZONE") }
func GetInstallSQLFunctions() bool     { return conf.GetBool("INSTALL_SQL_FUNCTIONS") }
func GetRequestTimeout() time.Duration { return conf.GetDuration("REQUEST_TIMEOUT") }
func GetSessionTimeout() time.Duration { return conf.GetDuration("SESSION_TIMEOUT") }
func GetJWTExpiry() time.Duration      { return conf.GetDuration("JWT_EXPIRY") }
func GetRollbarToken() string          { return conf.GetString("ROLLBAR_TOKEN") }

func GetGracePeriodDays() int {
	if v := conf.GetInt("GRACE_PERIOD_DAYS"); v >= 0 {
		return v
	}
	return 30
}

func GetReminderIntervalDays() int {
	if v := conf.GetInt("REMINDER_INTERVAL_DAYS"); v >= 0 {
		return v
	}
	return 6
}

func GetReminderCron() string       { return conf.GetString("REMINDER_CRON") }
func GetReminderAutoSend() bool     { return conf.GetBool("REMINDER_AUTO_SEND") }
func GetInstitutionName() string    { return conf.GetString("INSTITUTION_NAME") }
func GetInstitutionTagline() string { return conf.GetString("INSTITUTION_TAGLINE") }
func GetCurrency() string           { return conf.GetString("CURRENCY") }
func GetPhoneCountryCode() string   { return conf.GetString("PHONE_COUNTRY_CODE") }
func GetWhatsAppEnabled() bool      { return conf.GetBool("WHATSAPP_ENABLED") }
func GetEmailProvider() string      { return strings.ToLower(conf.GetString("EMAIL_PROVIDER")) }

func GetReminderWorkers() int {
	if v := conf.GetInt("REMINDER_WORKERS"); v > 0 {
		return v
	}
	return 10
}

func GetJWTSecret() (*string, error) {
	v := conf.GetString("JWT_SECRET")
	if v == "" {
		return nil, fmt.Errorf("JWT secret is missing, value: %s", v)
	}
	return &v, nil
}
