package config

import (
	"net"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Server struct {
	Host        string   `envconfig:"CLIMATE_SERVER_HOST" default:"localhost"`
	Port        string   `envconfig:"CLIMATE_SERVER_PORT" default:"5000"`
	ReadTimeout int      `envconfig:"CLIMATE_SERVER_TIMEOUT" default:"10"`
	CORSOrigins []string `envconfig:"CLIMATE_CORS_ORIGINS" default:"*"`
}

type Db struct {
	Dialect      string `envconfig:"DB_DIALECT" default:"sqlite"`
	Source       string `envconfig:"DB_NAME" default:"Resources/hawaii.sqlite"`
	MaxOpenConns int    `envconfig:"DB_MAX_OPEN_CONNS" default:"4"`
}

type Breaker struct {
	TimeInterval int    `envconfig:"BREAKER_INTERVAL" default:"30"`
	TimeTimeOut  int    `envconfig:"BREAKER_TIMEOUT" default:"10"`
	RepeatNumber uint32 `envconfig:"BREAKER_REPEAT_NUM" default:"5"`
}

type Logging struct {
	Level         string `envconfig:"LOG_LEVEL" default:"debug"`
	LogsPath      string `envconfig:"LOGS_PATH" default:"./log/climate-api.log"`
	AccessLogPath string `envconfig:"ACCESS_LOG_PATH" default:"./log/access.log"`
}

type Config struct {
	MetricsNamespace string `envconfig:"METRICS_NAMESPACE" default:"climate_api"`

	Server  Server
	DB      Db
	Breaker Breaker
	Logging Logging
}

func NewConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) ServerAddress() string {
	return net.JoinHostPort(c.Server.Host, c.Server.Port)
}

func (c *Config) ReadTimeout() time.Duration {
	return time.Duration(c.Server.ReadTimeout) * time.Second
}

func (b Breaker) Interval() time.Duration {
	return time.Duration(b.TimeInterval) * time.Second
}

func (b Breaker) Timeout() time.Duration {
	return time.Duration(b.TimeTimeOut) * time.Second
}
