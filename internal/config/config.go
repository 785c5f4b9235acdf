package config

import (
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DBDriverPostgres = "postgres"
	DBDriverMemory   = "memory"
)

type Config struct {
	App struct {
		Port        string   `mapstructure:"port"`
		Env         string   `mapstructure:"env"`
		BaseURL     string   `mapstructure:"base_url"`
		CORSOrigins []string `mapstructure:"cors_origins"`
	} `mapstructure:"app"`
	DB struct {
		Driver string `mapstructure:"driver"`
		DSN    string `mapstructure:"dsn"`
	} `mapstructure:"db"`
	Redis struct {
		Addr     string        `mapstructure:"addr"`
		Password string        `mapstructure:"password"`
		CacheTTL time.Duration `mapstructure:"cache_ttl"`
	} `mapstructure:"redis"`
	Kafka struct {
		Brokers []string `mapstructure:"brokers"`
		GroupID string   `mapstructure:"group_id"`
	} `mapstructure:"kafka"`
	Auth struct {
		JWTSecret     string        `mapstructure:"jwt_secret"`
		TokenLifespan time.Duration `mapstructure:"token_lifespan"`
	} `mapstructure:"auth"`
	Cloudinary struct {
		CloudName    string `mapstructure:"cloud_name"`
		UploadPreset string `mapstructure:"upload_preset"`
		ApiKey       string `mapstructure:"api_key"`
		ApiSecret    string `mapstructure:"api_secret"`
		Folder       string `mapstructure:"folder"`
	} `mapstructure:"cloudinary"`
	Elastic struct {
		Addresses []string `mapstructure:"addresses"`
		Index     string   `mapstructure:"index"`
	} `mapstructure:"elastic"`
	Jaeger struct {
		OTLPEndpoint string `mapstructure:"otlp_endpoint"`
	} `mapstructure:"jaeger"`
}

// LoadConfig reads config.yaml from path (default ".") and overlays the
// environment, which wins.
func LoadConfig(path ...string) (cfg Config, err error) {
	configPath := "."
	if len(path) > 0 && path[0] != "" {
		configPath = path[0]
	}

	if err = godotenv.Load(configPath + "/.env"); err != nil {
		log.Println("warning: .env file not found, use default.")
	}

	v := viper.New()
	v.AddConfigPath(configPath)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if err = v.ReadInConfig(); err != nil {
		log.Printf("note: config.yaml not found, read .env only. Error: %v", err)
	}

	v.SetDefault("app.port", "8080")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.base_url", "http://localhost:3000")
	v.SetDefault("db.driver", DBDriverPostgres)
	v.SetDefault("redis.cache_ttl", 5*time.Minute)
	v.SetDefault("kafka.group_id", "profile-indexer-group")
	v.SetDefault("auth.token_lifespan", 24*time.Hour)
	v.SetDefault("cloudinary.folder", "skilldeck/avatars")
	v.SetDefault("elastic.index", "profiles_v1")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.BindEnv("app.port", "APP_PORT")
	v.BindEnv("app.env", "APP_ENV")
	v.BindEnv("app.base_url", "APP_BASE_URL")
	v.BindEnv("app.cors_origins", "CORS_ORIGINS")
	v.BindEnv("db.driver", "DB_DRIVER")
	v.BindEnv("db.dsn", "DB_DSN")
	v.BindEnv("redis.addr", "REDIS_ADDR")
	v.BindEnv("redis.password", "REDIS_PASSWORD")
	v.BindEnv("redis.cache_ttl", "REDIS_CACHE_TTL")
	v.BindEnv("kafka.brokers", "KAFKA_BROKERS")
	v.BindEnv("kafka.group_id", "KAFKA_GROUP_ID")
	v.BindEnv("auth.jwt_secret", "JWT_SECRET")
	v.BindEnv("auth.token_lifespan", "TOKEN_LIFESPAN")

	v.BindEnv("cloudinary.cloud_name", "CLOUDINARY_CLOUD_NAME")
	v.BindEnv("cloudinary.upload_preset", "CLOUDINARY_UPLOAD_PRESET")
	v.BindEnv("cloudinary.api_key", "CLOUDINARY_API_KEY")
	v.BindEnv("cloudinary.api_secret", "CLOUDINARY_API_SECRET")
	v.BindEnv("cloudinary.folder", "CLOUDINARY_FOLDER")

	v.BindEnv("elastic.addresses", "ELASTIC_URL")
	v.BindEnv("elastic.index", "ELASTIC_INDEX")
	v.BindEnv("jaeger.otlp_endpoint", "OTEL_EXPORTER_OTLP_ENDPOINT")

	err = v.Unmarshal(&cfg)
	return
}
