package config

import (
	"flag"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

type Config struct {
	Env         string            `yaml:"env" env:"ENV" env-default:"local"`
	DSN         string            `yaml:"dsn" env:"DSN" env-required:"true"`
	HTTP        HTTPConfig        `yaml:"http"`
	Redis       RedisConfig       `yaml:"redis"`
	Tokens      TokensConfig      `yaml:"tokens"`
	Credentials CredentialsConfig `yaml:"credentials"`
	Assets      AssetsConfig      `yaml:"assets"`
	Cursor      CursorConfig      `yaml:"cursor"`
	Cleanup     CleanupConfig     `yaml:"cleanup"`
}

type HTTPConfig struct {
	Host     string        `yaml:"host" env:"HTTP_HOST"`
	Port     string        `yaml:"port" env:"HTTP_PORT" env-default:"8080"`
	Timeout  time.Duration `yaml:"timeout" env-default:"10s"`
	AdminKey string        `yaml:"admin_key" env:"ADMIN_KEY" env-required:"true"`
	// Origins для CORS, пусто - любой.
	AllowOrigins []string `yaml:"allow_origins"`
}

type RedisConfig struct {
	Addr        string        `yaml:"addr" env:"REDIS_ADDR" env-default:"localhost:6379"`
	Password    string        `yaml:"password" env:"REDIS_PASSWORD"`
	DB          int           `yaml:"db" env:"REDIS_DB" env-default:"0"`
	DialTimeout time.Duration `yaml:"dial_timeout" env-default:"5s"`
}

type TokensConfig struct {
	Secret    string        `yaml:"secret" env:"TOKEN_SECRET" env-required:"true"`
	Issuer    string        `yaml:"issuer" env-default:"gallery_keeper"`
	ViewTTL   time.Duration `yaml:"view_ttl" env-default:"2h"`
	AccessTTL time.Duration `yaml:"access_ttl" env-default:"24h"`
	EditorTTL time.Duration `yaml:"editor_ttl" env-default:"168h"`
}

type CredentialsConfig struct {
	Hasher           string        `yaml:"hasher" env-default:"bcrypt"`
	BcryptCost       int           `yaml:"bcrypt_cost" env-default:"10"`
	// redis или memory (только для одного инстанса)
	Limiter          string        `yaml:"limiter" env-default:"redis"`
	PinMaxAttempts   int64         `yaml:"pin_max_attempts" env-default:"5"`
	PinWindow        time.Duration `yaml:"pin_window" env-default:"15m"`
	MagicLinkBaseURL string        `yaml:"magic_link_base_url" env:"MAGIC_LINK_BASE_URL"`
}

type AssetsConfig struct {
	// local или s3
	Driver  string   `yaml:"driver" env-default:"local"`
	BaseDir string   `yaml:"base_dir" env-default:"./uploads"`
	S3      S3Config `yaml:"s3"`
}

type S3Config struct {
	Endpoint  string `yaml:"endpoint" env:"S3_ENDPOINT"`
	Region    string `yaml:"region" env:"S3_REGION"`
	Bucket    string `yaml:"bucket" env:"S3_BUCKET"`
	Prefix    string `yaml:"prefix"`
	AccessKey string `yaml:"access_key" env:"S3_ACCESS_KEY"`
	SecretKey string `yaml:"secret_key" env:"S3_SECRET_KEY"`
	UseSSL    bool   `yaml:"use_ssl" env-default:"true"`
	PathStyle bool   `yaml:"path_style"`
}

type CursorConfig struct {
	Secret string `yaml:"secret" env:"CURSOR_SECRET" env-required:"true"`
}

type CleanupConfig struct {
	Concurrency int `yaml:"concurrency" env-default:"4"`
}

func MustLoad() *Config {
	path := fetchConfigPath()
	if path == "" {
		panic("config path is empty")
	}

	return MustLoadPath(path)
}

func MustLoadPath(configPath string) *Config {
	cfg, err := Load(configPath)
	if err != nil {
		panic(err)
	}

	return cfg
}

// Load читает yaml и переопределяет значения переменными окружения.
// Файл .env рядом с процессом подхватывается, если он есть.
func Load(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, &PathError{Path: configPath}
	}

	_ = godotenv.Load()

	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

type PathError struct {
	Path string
}

func (e *PathError) Error() string {
	return "config file does not exist: " + e.Path
}

func fetchConfigPath() string {
	var res string

	// --config="path/to/config.yaml"
	flag.StringVar(&res, "config", "", "path to config file")
	flag.Parse()

	if res == "" {
		res = os.Getenv("CONFIG_PATH")
	}

	return res
}
