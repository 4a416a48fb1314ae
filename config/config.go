package config

import (
	"SmartRestaurant/models"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const DefaultConfigPath = "config/config.yaml"

var ErrUnsupportedDriver = errors.New("unsupported database driver")

type DatabaseConfig struct {
	Driver       string `yaml:"driver" envconfig:"DB_DRIVER"`
	Username     string `yaml:"username" envconfig:"DB_USER"`
	Password     string `yaml:"password" envconfig:"DB_PASSWORD"`
	Host         string `yaml:"host" envconfig:"DB_HOST"`
	Port         string `yaml:"port" envconfig:"DB_PORT"`
	Database     string `yaml:"database" envconfig:"DB_NAME"`
	SSLMode      string `yaml:"sslmode" envconfig:"DB_SSLMODE"`
	Path         string `yaml:"path" envconfig:"DB_PATH"`
	LogLevel     string `yaml:"log_level" envconfig:"DB_LOG_LEVEL"`
	MaxOpenConns int    `yaml:"max_open_conns" envconfig:"DB_MAX_OPEN_CONNS"`
	MaxIdleConns int    `yaml:"max_idle_conns" envconfig:"DB_MAX_IDLE_CONNS"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr" envconfig:"REDIS_ADDR"`
	Password string `yaml:"password" envconfig:"REDIS_PASSWORD"`
	Database int    `yaml:"database" envconfig:"REDIS_DB"`
}

type RabbitMQConfig struct {
	URL      string `yaml:"url" envconfig:"RABBITMQ_URL"`
	Exchange string `yaml:"exchange" envconfig:"RABBITMQ_EXCHANGE"`
}

type ServerConfig struct {
	AppName     string   `yaml:"app_name" envconfig:"APP_NAME"`
	Port        string   `yaml:"port" envconfig:"PORT"`
	CORSOrigins []string `yaml:"cors_origins" envconfig:"CORS_ORIGINS"`
	GinMode     string   `yaml:"gin_mode" envconfig:"GIN_MODE"`
}

type AnalyticsConfig struct {
	Timezone string `yaml:"timezone" envconfig:"ANALYTICS_TIMEZONE"`
}

type UploadConfig struct {
	Dir          string `yaml:"dir" envconfig:"UPLOAD_DIR"`
	MaxFileBytes int64  `yaml:"max_file_bytes" envconfig:"UPLOAD_MAX_FILE_BYTES"`
}

type LogConfig struct {
	Level       string `yaml:"level" envconfig:"LOG_LEVEL"`
	Development bool   `yaml:"development" envconfig:"LOG_DEVELOPMENT"`
}

type Config struct {
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	RabbitMQ  RabbitMQConfig  `yaml:"rabbitmq"`
	Server    ServerConfig    `yaml:"server"`
	Analytics AnalyticsConfig `yaml:"analytics"`
	Upload    UploadConfig    `yaml:"upload"`
	Log       LogConfig       `yaml:"log"`
}

// 預設設定，設定檔與環境變數未指定的欄位沿用此值
func Default() Config {
	return Config{
		Database: DatabaseConfig{
			Driver:       "mysql",
			Host:         "127.0.0.1",
			Port:         "3306",
			Database:     "restaurant_db",
			SSLMode:      "disable",
			Path:         "restaurant.db",
			LogLevel:     "warn",
			MaxOpenConns: 10,
			MaxIdleConns: 5,
		},
		RabbitMQ: RabbitMQConfig{
			Exchange: "orders_topic",
		},
		Server: ServerConfig{
			AppName:     "Smart Restaurant API",
			Port:        "8080",
			CORSOrigins: []string{"*"},
			GinMode:     "release",
		},
		Analytics: AnalyticsConfig{
			Timezone: "Local",
		},
		Upload: UploadConfig{
			Dir:          "./uploads",
			MaxFileBytes: 5 << 20,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// 讀取YAML設定檔，再以.env及環境變數覆蓋
func LoadConfig(filename string) (Config, error) {
	config := Default()

	file, err := os.Open(filename)
	if err != nil && !os.IsNotExist(err) {
		return config, err
	}
	if err == nil {
		defer file.Close()
		decoder := yaml.NewDecoder(file)
		if err := decoder.Decode(&config); err != nil {
			return config, fmt.Errorf("decode %s: %w", filename, err)
		}
	}

	//.env不存在不代表錯誤
	_ = godotenv.Load()

	for _, section := range []interface{}{
		&config.Database,
		&config.Redis,
		&config.RabbitMQ,
		&config.Server,
		&config.Analytics,
		&config.Upload,
		&config.Log,
	} {
		if err := envconfig.Process("", section); err != nil {
			return config, fmt.Errorf("read environment: %w", err)
		}
	}

	return config, nil
}

// 依驅動組出連線字串
func (d DatabaseConfig) DSN() (string, error) {
	switch d.Driver {
	case "mysql":
		return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
			d.Username,
			d.Password,
			d.Host,
			d.Port,
			d.Database,
		), nil
	case "postgres":
		return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			d.Host,
			d.Port,
			d.Username,
			d.Password,
			d.Database,
			d.SSLMode,
		), nil
	case "sqlite":
		return d.Path, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedDriver, d.Driver)
}

func (d DatabaseConfig) dialector() (gorm.Dialector, error) {
	dsn, err := d.DSN()
	if err != nil {
		return nil, err
	}
	switch d.Driver {
	case "mysql":
		return mysql.Open(dsn), nil
	case "postgres":
		return postgres.Open(dsn), nil
	default:
		return sqlite.Open(dsn), nil
	}
}

func gormLogLevel(level string) logger.LogLevel {
	switch strings.ToLower(level) {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}

func SetupDatabaseConnection(config DatabaseConfig) (*gorm.DB, error) {
	dialector, err := config.dialector()
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(gormLogLevel(config.LogLevel)),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(config.MaxOpenConns)
	sqlDB.SetMaxIdleConns(config.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := models.Migrate(db); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// 未設定位址時不啟用Redis快取，回傳nil
func SetupRedisConnection(config RedisConfig) *redis.Client {
	if config.Addr == "" {
		return nil
	}

	return redis.NewClient(&redis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.Database,
	})
}

func SetupLogger(config LogConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(config.Level)
	if err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}

	zapConfig := zap.NewProductionConfig()
	if config.Development {
		zapConfig = zap.NewDevelopmentConfig()
	}
	zapConfig.Level = zap.NewAtomicLevelAt(level)

	return zapConfig.Build()
}

// 統計用時區，"Local"或空字串代表伺服器時區
func (a AnalyticsConfig) Location() (*time.Location, error) {
	if a.Timezone == "" || a.Timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(a.Timezone)
}
