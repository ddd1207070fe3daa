package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/PierreBultez/WendysDiner/internal/schedule"
)

type Config struct {
	HTTPPort int
	DB       Postgres
	RMQ      RabbitMQ
	Revolut  Revolut
	POS      POS
	Slots    Slots
}

type Postgres struct {
	Host     string
	Port     string
	User     string
	Password string
	Database string
	SSLMode  string
}

// DSN renders the pgx connection string.
func (p Postgres) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		p.User, p.Password, p.Host, p.Port, p.Database, p.SSLMode)
}

type RabbitMQ struct {
	Host     string
	Port     string
	User     string
	Password string
}

func (r RabbitMQ) URL() string {
	return fmt.Sprintf("amqp://%s:%s@%s:%s/", r.User, r.Password, r.Host, r.Port)
}

type Revolut struct {
	Mode string // "sandbox" or "production"
	Key  string
}

// POS groups the pricing knobs that staff tune without a deploy.
type POS struct {
	// MenuSurcharge is added to a burger's base price when it is sold
	// as a full menu.
	MenuSurcharge decimal.Decimal
	// DeliveryFee is added to the checkout total for delivery orders.
	// It is a checkout adjustment, never a cart line.
	DeliveryFee decimal.Decimal
}

type Slots struct {
	Granularity   time.Duration
	LeadTime      time.Duration
	ClosingBuffer time.Duration
	Weekly        schedule.Weekly
}

// Load reads the configuration from environment variables, falling back
// to the diner's defaults for everything but the database credentials.
func Load() (*Config, error) {
	cfg := &Config{
		HTTPPort: getEnvInt("HTTP_PORT", 8080),
		DB: Postgres{
			Host:     getEnv("POSTGRES_HOST", "localhost"),
			Port:     getEnv("POSTGRES_PORT", "5432"),
			User:     getEnv("POSTGRES_USER", "wendys"),
			Password: os.Getenv("POSTGRES_PASSWORD"),
			Database: getEnv("POSTGRES_DBNAME", "wendys_diner"),
			SSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
		},
		RMQ: RabbitMQ{
			Host:     getEnv("RABBITMQ_HOST", "localhost"),
			Port:     getEnv("RABBITMQ_PORT", "5672"),
			User:     getEnv("RABBITMQ_USER", "guest"),
			Password: getEnv("RABBITMQ_PASSWORD", "guest"),
		},
		Revolut: Revolut{
			Mode: getEnv("REVOLUT_MODE", "sandbox"),
			Key:  os.Getenv("REVOLUT_API_KEY"),
		},
		POS: POS{
			MenuSurcharge: getEnvDecimal("POS_MENU_SURCHARGE", "4.00"),
			DeliveryFee:   getEnvDecimal("POS_DELIVERY_FEE", "2.00"),
		},
		Slots: Slots{
			Granularity:   getEnvMinutes("SLOT_GRANULARITY_MIN", 15),
			LeadTime:      getEnvMinutes("SLOT_LEAD_TIME_MIN", 30),
			ClosingBuffer: getEnvMinutes("SLOT_CLOSING_BUFFER_MIN", 15),
			Weekly:        schedule.DefaultWeekly(),
		},
	}

	if weekly := os.Getenv("OPENING_HOURS"); weekly != "" {
		parsed, err := parseWeekly(weekly)
		if err != nil {
			return nil, fmt.Errorf("OPENING_HOURS: %w", err)
		}
		cfg.Slots.Weekly = parsed
	}

	switch cfg.Revolut.Mode {
	case "sandbox", "production":
	default:
		return nil, fmt.Errorf("REVOLUT_MODE must be sandbox or production, got %q", cfg.Revolut.Mode)
	}

	return cfg, nil
}

// parseWeekly reads "Fri=11:30-13:30,18:30-21:30;Sat=18:30-21:30".
func parseWeekly(s string) (schedule.Weekly, error) {
	days := map[string]time.Weekday{
		"Sun": time.Sunday, "Mon": time.Monday, "Tue": time.Tuesday,
		"Wed": time.Wednesday, "Thu": time.Thursday, "Fri": time.Friday,
		"Sat": time.Saturday,
	}

	weekly := schedule.Weekly{}
	for _, dayPart := range strings.Split(s, ";") {
		dayPart = strings.TrimSpace(dayPart)
		if dayPart == "" {
			continue
		}
		name, shiftsPart, ok := strings.Cut(dayPart, "=")
		if !ok {
			return nil, fmt.Errorf("invalid day entry %q", dayPart)
		}
		day, ok := days[strings.TrimSpace(name)]
		if !ok {
			return nil, fmt.Errorf("unknown weekday %q", name)
		}
		var shifts []schedule.Shift
		for _, shiftPart := range strings.Split(shiftsPart, ",") {
			from, to, ok := strings.Cut(strings.TrimSpace(shiftPart), "-")
			if !ok {
				return nil, fmt.Errorf("invalid shift %q", shiftPart)
			}
			start, err := schedule.ParseTimeOfDay(from)
			if err != nil {
				return nil, err
			}
			end, err := schedule.ParseTimeOfDay(to)
			if err != nil {
				return nil, err
			}
			shifts = append(shifts, schedule.Shift{Start: start, End: end})
		}
		weekly[day] = shifts
	}
	return weekly, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvMinutes(key string, defaultValue int) time.Duration {
	return time.Duration(getEnvInt(key, defaultValue)) * time.Minute
}

func getEnvDecimal(key, defaultValue string) decimal.Decimal {
	if value := os.Getenv(key); value != "" {
		if d, err := decimal.NewFromString(value); err == nil {
			return d
		}
	}
	d, _ := decimal.NewFromString(defaultValue)
	return d
}
