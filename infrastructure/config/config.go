package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/emberchat/ember/domain/model"
	"github.com/spf13/viper"
)

type Config struct {
	Server ServerConfig
	Redis  RedisConfig
	Room   RoomConfig
	Cors   CorsConfig
	Logger LoggerConfig
	Jaeger JaegerConfig
}

type ServerConfig struct {
	Port    string
	RunMode string
	Domain  string
}

type RedisConfig struct {
	Host         string
	Port         string
	Password     string
	Db           int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	PoolSize     int
	PoolTimeout  time.Duration
}

// RoomConfig carries the lifecycle tunables. Every duration is persisted as
// a key TTL, so the store enforces all of them without background sweeps.
type RoomConfig struct {
	DefaultTTL      time.Duration
	MaxSessionAge   time.Duration
	LeaveGrace      time.Duration
	ExtendIncrement time.Duration
	AllowedTTLs     []time.Duration
	PrivateMaxUsers int
	GroupMaxUsers   int
}

type CorsConfig struct {
	AllowOrigins string
}

type LoggerConfig struct {
	Level string
}

type JaegerConfig struct {
	ServiceName    string
	ServiceVersion string
	Endpoint       string
	Enabled        bool
}

func GetConfig() *Config {
	cfgPath := getConfigPath(os.Getenv("APP_ENV"))
	v, err := LoadConfig(cfgPath, "yml")
	if err != nil {
		log.Fatalf("Error in load config %v", err)
	}

	cfg, err := ParseConfig(v)
	if err != nil {
		log.Fatalf("Error in parse config %v", err)
	}

	if envPort := os.Getenv("PORT"); envPort != "" {
		cfg.Server.Port = envPort
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	return cfg
}

func ParseConfig(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		log.Printf("Unable to parse config: %v", err)
		return nil, err
	}
	return &cfg, nil
}

func LoadConfig(filename string, fileType string) (*viper.Viper, error) {
	v := viper.New()
	v.SetConfigType(fileType)
	v.SetConfigName(filename)

	setDefaults(v)

	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("./infrastructure/config")
	v.AddConfigPath("../config")
	v.AddConfigPath("../infrastructure/config")

	if wd, err := os.Getwd(); err == nil {
		v.AddConfigPath(filepath.Join(wd, "config"))
		v.AddConfigPath(filepath.Join(wd, "infrastructure", "config"))
	}

	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		log.Printf("Unable to read config: %v", err)
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			return nil, errors.New("config file not found")
		}
		return nil, err
	}

	log.Printf("Using config file: %s", v.ConfigFileUsed())
	return v, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("room.defaultTtl", "600s")
	v.SetDefault("room.maxSessionAge", "604800s")
	v.SetDefault("room.leaveGrace", "30s")
	v.SetDefault("room.extendIncrement", "600s")
	v.SetDefault("room.allowedTtls", []string{"600s", "86400s", "604800s"})
	v.SetDefault("room.privateMaxUsers", 2)
	v.SetDefault("room.groupMaxUsers", 10)
	v.SetDefault("logger.level", "info")
}

func getConfigPath(env string) string {
	switch env {
	case "docker":
		return "config-docker"
	case "production":
		return "config-production"
	default:
		return "config-development"
	}
}

func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return errors.New("server.port is required")
	}
	if c.Redis.Host == "" {
		return errors.New("redis.host is required")
	}
	if c.Redis.Port == "" {
		return errors.New("redis.port is required")
	}
	if len(c.Room.AllowedTTLs) == 0 {
		return errors.New("room.allowedTtls must not be empty")
	}
	if c.Room.PrivateMaxUsers < 1 || c.Room.GroupMaxUsers < 1 {
		return errors.New("room capacities must be positive")
	}
	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.Server.RunMode == "debug" || c.Server.RunMode == "development"
}

func (c *Config) IsProduction() bool {
	return c.Server.RunMode == "release" || c.Server.RunMode == "production"
}

func (c *Config) GetRedisAddress() string {
	return fmt.Sprintf("%s:%s", c.Redis.Host, c.Redis.Port)
}

// IsAllowedTTL reports whether a client-requested TTL is one of the
// enumerated choices.
func (rc RoomConfig) IsAllowedTTL(ttl time.Duration) bool {
	for _, allowed := range rc.AllowedTTLs {
		if ttl == allowed {
			return true
		}
	}
	return false
}

// MaxUsersFor returns the immutable capacity for a room type.
func (rc RoomConfig) MaxUsersFor(t model.RoomType) int {
	if t == model.RoomTypePrivate {
		return rc.PrivateMaxUsers
	}
	return rc.GroupMaxUsers
}
