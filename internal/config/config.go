package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/etlonline/prompt-competition/assignment-service/internal/logger"
	"github.com/etlonline/prompt-competition/assignment-service/internal/types"
	"github.com/etlonline/prompt-competition/assignment-service/internal/validator"
)

type APIKeyPermissions struct {
	Admin                 bool `mapstructure:"admin"                  json:"admin"`
	Judge                 bool `mapstructure:"judge"                  json:"judge"`
	CompetitionManagement bool `mapstructure:"competition_management" json:"competition_management"`
}

type APIKey struct {
	Active      *bool             `mapstructure:"active"      json:"active"      validate:"required"`
	Token       string            `mapstructure:"token"       json:"token"       validate:"required"`
	Permissions APIKeyPermissions `mapstructure:"permissions" json:"permissions"`
}

type APIClient struct {
	ID     string `mapstructure:"id"      json:"id"      validate:"required,uuid_rfc4122"`
	Note   string `mapstructure:"note"    json:"note"    validate:"required"`
	APIKey APIKey `mapstructure:"api_key" json:"api_key" validate:"required"`
}

type PostgresConfig struct {
	User               string        `validate:"required"`
	Password           string        `validate:"required"`
	Host               string        `validate:"required"`
	Database           string        `validate:"required"`
	MaxIdleConnections int           `validate:"required" mapstructure:"max_idle_connections"`
	MaxOpenConnections int           `validate:"required" mapstructure:"max_open_connections"`
	ConnectionTTL      time.Duration `validate:"required" mapstructure:"connection_ttl"`
	Port               int16         `validate:"required"`
}

type AzureConfig struct {
	StorageAccount *AzureStorageAccountConfig `mapstructure:"storage_account" validate:"required"`
	Dev            bool                       `mapstructure:"dev"`
}

type AzureStorageAccountConfig struct {
	Containers *AzureStorageAccountContainerConfig `mapstructure:"containers" validate:"required"`
	Queues     *AzureStorageAccountQueueConfig     `mapstructure:"queues"     validate:"required"`
	Name       string                              `mapstructure:"name"       validate:"required"`
	Key        string                              `mapstructure:"key"        validate:"required"`
}

type AzureStorageAccountContainerConfig struct {
	URL        string `mapstructure:"url"        validate:"required"`
	Recordings string `mapstructure:"recordings" validate:"required"`
}

type AzureStorageAccountQueueConfig struct {
	URL         string `mapstructure:"url"         validate:"required"`
	Assignments string `mapstructure:"assignments" validate:"required"`
}

type SlogConfig struct {
	Level int `mapstructure:"level"`
}

type GormLogConfig struct {
	Level        int  `mapstructure:"level"`
	TraceQueries bool `mapstructure:"trace_queries"`
}

type LoggingConfig struct {
	Gorm    GormLogConfig `mapstructure:"gorm"`
	App     SlogConfig    `mapstructure:"app"`
	UseOTLP bool          `mapstructure:"use_otlp"`
}

type S3ArchiveConfig struct {
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	BucketName      string `mapstructure:"bucket_name"`
	SSLEnabled      bool   `mapstructure:"ssl_enabled"`
}

type RateLimitConfig struct {
	RedisHost       string `mapstructure:"redis_host"`
	GlobalPerMinute int64  `mapstructure:"global_per_minute"`
	ScorePerMinute  int64  `mapstructure:"score_per_minute"`
	FailOpen        bool   `mapstructure:"fail_open"`
}

type DistributionConfig struct {
	// What to do when total declared capacity is less than the selected
	// participant count on a weighted run. "truncate" or "reject".
	ShortfallPolicy types.ShortfallPolicy `mapstructure:"shortfall_policy" validate:"required,oneof=truncate reject"`
	// Notify judges of fresh assignments through the assignments queue
	NotifyEnabled bool `mapstructure:"notify_enabled"`
}

// See assignmentservice.yaml for an example config
type Config struct {
	Postgres             *PostgresConfig     `mapstructure:"postgres"               validate:"required"`
	Azure                *AzureConfig        `mapstructure:"azure"                  validate:"required"`
	Logging              *LoggingConfig      `mapstructure:"logging"                validate:"required"`
	S3Archive            *S3ArchiveConfig    `mapstructure:"s3_archive"             validate:"required"`
	RateLimit            *RateLimitConfig    `mapstructure:"ratelimit"`
	Distribution         *DistributionConfig `mapstructure:"distribution"           validate:"required"`
	ListenAddress        string              `mapstructure:"listen_address"         validate:"required"`
	Clients              []APIClient         `mapstructure:"clients"                validate:"required"`
	GracefulShutdownSecs int64               `mapstructure:"graceful_shutdown_secs"`
}

const (
	AppLogLevel                 string = "logging.app.level"
	AzureDev                    string = "azure.dev"
	AzureStorageAccountKey      string = "azure.storage_account.key"
	DistributionNotifyEnabled   string = "distribution.notify_enabled"
	DistributionShortfallPolicy string = "distribution.shortfall_policy"
	EnvPrefix                   string = "assignmentservice"
	UseOTLP                     string = "logging.use_otlp"
	GlobalPerMinute             string = "ratelimit.global_per_minute"
	GormLogLevel                string = "logging.gorm.level"
	GormTraceQueries            string = "logging.gorm.trace_queries"
	GracefulShutdownSecs        string = "graceful_shutdown_secs"
	ListenAddress               string = "listen_address"
	PostgresDatabase            string = "postgres.database"
	PostgresHost                string = "postgres.host"
	PostgresPassword            string = "postgres.password"
	PostgresPort                string = "postgres.port"
	PostgresUser                string = "postgres.user"
	PostgresMaxIdleConnections  string = "postgres.max_idle_connections"
	PostgresMaxOpenConnections  string = "postgres.max_open_connections"
	PostgresConnectonTTL        string = "postgres.connection_ttl"
	RateLimitFailOpen           string = "ratelimit.fail_open"
	RedisHost                   string = "ratelimit.redis_host"
	S3AccessKeyID               string = "s3_archive.access_key_id"
	S3SSLEnabled                string = "s3_archive.ssl_enabled"
	S3SecretAccessKey           string = "s3_archive.secret_access_key" // #nosec
	ScorePerMinute              string = "ratelimit.score_per_minute"
)

var configReady = false
var config Config

func GetConfig() (*Config, error) {
	if configReady {
		logger.Logger.Debug("returning already-loaded config")
		return &config, nil
	}
	logger.Logger.Info("loading config")

	v := viper.New()

	v.SetConfigName("assignmentservice")

	v.AddConfigPath("/etc/assignmentservice/")
	v.AddConfigPath(".")

	v.SetConfigType("yaml")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.AutomaticEnv()

	// workaround for https://github.com/spf13/viper/issues/761
	// bind env vars explicitly so they unmarshal into the nested struct
	err := v.BindEnv(PostgresPassword)
	if err != nil {
		return nil, err
	}
	err = v.BindEnv(AzureStorageAccountKey)
	if err != nil {
		return nil, err
	}

	err = v.BindEnv(S3AccessKeyID)
	if err != nil {
		return nil, err
	}

	err = v.BindEnv(S3SecretAccessKey)
	if err != nil {
		return nil, err
	}

	v.SetDefault(ListenAddress, "[::]:1323")
	v.SetDefault(PostgresHost, "localhost")
	v.SetDefault(PostgresPort, 5432)
	v.SetDefault(PostgresMaxIdleConnections, 2)
	v.SetDefault(PostgresMaxOpenConnections, 10)
	v.SetDefault(PostgresConnectonTTL, 10*time.Minute)
	v.SetDefault(AzureDev, false)
	v.SetDefault(GormLogLevel, int(slog.LevelDebug))
	v.SetDefault(GormTraceQueries, false)
	v.SetDefault(AppLogLevel, int(slog.LevelDebug))
	v.SetDefault(S3SSLEnabled, true)

	v.SetDefault(RedisHost, "localhost")
	v.SetDefault(GlobalPerMinute, 0)
	v.SetDefault(ScorePerMinute, 0)
	v.SetDefault(RateLimitFailOpen, true)

	v.SetDefault(UseOTLP, false)

	v.SetDefault(DistributionShortfallPolicy, string(types.ShortfallTruncate))
	v.SetDefault(DistributionNotifyEnabled, false)

	v.SetDefault(GracefulShutdownSecs, 30)

	err = v.ReadInConfig()
	if err != nil {
		// ignore config file not found to allow pure env config
		if _, ok := err.(*viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	err = v.Unmarshal(&config)
	if err != nil {
		configReady = false
		return nil, err
	}

	valid := validator.Create()
	err = valid.Validate(&config)
	if err != nil {
		configReady = false
		return nil, err
	}

	configReady = true
	return &config, nil
}

func (c *Config) PostgresDSN() string {
	return fmt.Sprintf(
		"postgresql://%s:%s@%s:%d/%s",
		url.QueryEscape(c.Postgres.User),
		url.QueryEscape(c.Postgres.Password),
		c.Postgres.Host, c.Postgres.Port,
		url.QueryEscape(c.Postgres.Database),
	)
}
