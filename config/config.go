package config

import (
	"log"
	"os"

	"github.com/callwiseai/pkg/configs"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Application config structure
type AppConfig struct {
	Name     string `mapstructure:"service_name" validate:"required"`
	Version  string `mapstructure:"version" validate:"required"`
	Host     string `mapstructure:"host" validate:"required"`
	Port     int    `mapstructure:"port" validate:"required"`
	LogLevel string `mapstructure:"log_level" validate:"required"`
	LogFile  string `mapstructure:"log_file"`

	PostgresConfig  configs.PostgresConfig  `mapstructure:"postgres" validate:"required"`
	RedisConfig     configs.RedisConfig     `mapstructure:"redis"`
	TelephonyConfig configs.TelephonyConfig `mapstructure:"telephony" validate:"required"`
	DialerConfig    configs.DialerConfig    `mapstructure:"dialer" validate:"required"`
}

// reading config and intializing configs for application
func InitConfig() (*viper.Viper, error) {
	vConfig := viper.NewWithOptions(viper.KeyDelimiter("__"))

	vConfig.AddConfigPath(".")
	vConfig.SetConfigName(".env")
	path := os.Getenv("ENV_PATH")
	if path != "" {
		log.Printf("env path %v", path)
		vConfig.SetConfigFile(path)
	}
	vConfig.SetConfigType("env")
	vConfig.AutomaticEnv()

	setDefault(vConfig)
	if err := vConfig.ReadInConfig(); err != nil && !os.IsNotExist(err) {
		log.Printf("Reading from env varaibles.")
	}

	return vConfig, nil
}

func setDefault(v *viper.Viper) {
	// setting all default values
	v.SetDefault("SERVICE_NAME", "dialer-api")
	v.SetDefault("VERSION", "0.0.1")
	v.SetDefault("HOST", "0.0.0.0")
	v.SetDefault("PORT", 9090)
	v.SetDefault("LOG_LEVEL", "debug")
	v.SetDefault("LOG_FILE", "")

	v.SetDefault("POSTGRES__HOST", "localhost")
	v.SetDefault("POSTGRES__PORT", 5432)
	v.SetDefault("POSTGRES__DB_NAME", "dialer")
	v.SetDefault("POSTGRES__AUTH__USER", "dialer")
	v.SetDefault("POSTGRES__AUTH__PASSWORD", "dialer")
	v.SetDefault("POSTGRES__MAX_OPEN_CONNECTION", 10)
	v.SetDefault("POSTGRES__MAX_IDEAL_CONNECTION", 10)
	v.SetDefault("POSTGRES__SSL_MODE", "disable")

	v.SetDefault("REDIS__HOST", "")
	v.SetDefault("REDIS__PORT", 6379)
	v.SetDefault("REDIS__PASSWORD", "")
	v.SetDefault("REDIS__DB", 0)

	v.SetDefault("TELEPHONY__PROVIDER", "noop")
	v.SetDefault("TELEPHONY__GATEWAY_URL", "")
	v.SetDefault("TELEPHONY__GATEWAY_TOKEN", "")
	v.SetDefault("TELEPHONY__TWILIO_ACCOUNT_SID", "")
	v.SetDefault("TELEPHONY__TWILIO_AUTH_TOKEN", "")
	v.SetDefault("TELEPHONY__TWILIO_FROM_NUMBER", "")

	v.SetDefault("DIALER__LEADS_FILE", "leads.csv")
	v.SetDefault("DIALER__CONNECT_IMMEDIATELY", false)
	v.SetDefault("DIALER__STATUS_CHANNEL", "dialer:status")
}

// Getting application config from viper
func GetApplicationConfig(v *viper.Viper) (*AppConfig, error) {
	var config AppConfig
	err := v.Unmarshal(&config)
	if err != nil {
		log.Printf("%+v\n", err)
		return nil, err
	}

	// valdating the app config
	validate := validator.New()
	err = validate.Struct(&config)
	if err != nil {
		log.Printf("%+v\n", err)
		return nil, err
	}
	return &config, nil
}
