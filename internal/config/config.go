package config

import (
	"errors"
	"flag"
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Config неизменяемая конфигурация приложения. Собирается один раз на старте и дальше
// только передается в компоненты - никакого глобального состояния.
type Config struct {
	RunAddress     string `env:"RUN_ADDRESS"`
	DatabaseDSN    string `env:"DATABASE_URI"`
	MigrationsDir  string `env:"MIGRATIONS_DIR"`
	JWTUserSecret  string `env:"JWT_USER_SECRET"`
	VendorBaseURL  string `env:"VENDOR_BASE_URL"`
	VendorName     string `env:"VENDOR_NAME"`
	VendorAPIKey   string `env:"VENDOR_API_KEY"`
	AdminSecretKey string `env:"ADMIN_SECRET_KEY"`
	DefaultCostRaw string `env:"DEFAULT_COST"`

	// DefaultCost распарсенная стоимость аренды номера.
	DefaultCost decimal.Decimal `env:"-"`
}

func LoadConfig() (*Config, error) {
	// .env подхватывается только если файл есть, иначе работаем с тем что в окружении.
	_ = godotenv.Load()

	var flagsConfig, envConfig Config

	if envParseErr := env.Parse(&envConfig); envParseErr != nil {
		return nil, fmt.Errorf("parse env config: %s", envParseErr.Error())
	}

	loadFlags(&flagsConfig)

	conf := mergeConfig(&envConfig, &flagsConfig)
	if conf.DatabaseDSN == "" {
		return nil, errors.New("database DSN is not set")
	}
	if conf.AdminSecretKey == "" {
		return nil, errors.New("admin secret key is not set")
	}

	cost, costErr := decimal.NewFromString(conf.DefaultCostRaw)
	if costErr != nil || !cost.IsPositive() {
		return nil, fmt.Errorf("invalid default cost %q", conf.DefaultCostRaw)
	}
	conf.DefaultCost = cost

	return conf, nil
}

func MustLoadConfig() *Config {
	config, err := LoadConfig()
	if err != nil {
		panic(err)
	}
	return config
}

func loadFlags(flagConfig *Config) {
	flag.StringVar(&flagConfig.RunAddress, "a", "localhost:8080", "Run address in format host:port")
	flag.StringVar(&flagConfig.DatabaseDSN, "d", "", "Database DSN")
	flag.StringVar(&flagConfig.MigrationsDir, "m", "internal/db/migrations", "Database migrations directory")
	flag.StringVar(&flagConfig.JWTUserSecret, "j", "", "JWT signing secret")
	flag.StringVar(&flagConfig.VendorBaseURL, "vendor-url", "https://api.durianrcs.com/out/ext_api", "Vendor API base URL")
	flag.StringVar(&flagConfig.VendorName, "vendor-name", "", "Vendor account name")
	flag.StringVar(&flagConfig.VendorAPIKey, "vendor-key", "", "Vendor API key")
	flag.StringVar(&flagConfig.AdminSecretKey, "admin-key", "", "Admin credit secret key")
	flag.StringVar(&flagConfig.DefaultCostRaw, "cost", "1.0", "Default lease cost")

	flag.Parse()
}

func mergeConfig(envConfig, flagsConfig *Config) *Config {
	return &Config{
		RunAddress:     defaultIfBlank(envConfig.RunAddress, flagsConfig.RunAddress),
		DatabaseDSN:    defaultIfBlank(envConfig.DatabaseDSN, flagsConfig.DatabaseDSN),
		MigrationsDir:  defaultIfBlank(envConfig.MigrationsDir, flagsConfig.MigrationsDir),
		JWTUserSecret:  defaultIfBlank(envConfig.JWTUserSecret, flagsConfig.JWTUserSecret),
		VendorBaseURL:  defaultIfBlank(envConfig.VendorBaseURL, flagsConfig.VendorBaseURL),
		VendorName:     defaultIfBlank(envConfig.VendorName, flagsConfig.VendorName),
		VendorAPIKey:   defaultIfBlank(envConfig.VendorAPIKey, flagsConfig.VendorAPIKey),
		AdminSecretKey: defaultIfBlank(envConfig.AdminSecretKey, flagsConfig.AdminSecretKey),
		DefaultCostRaw: defaultIfBlank(envConfig.DefaultCostRaw, flagsConfig.DefaultCostRaw),
	}
}

func defaultIfBlank(value string, defaultValue string) string {
	if value == "" {
		return defaultValue
	}
	return value
}
