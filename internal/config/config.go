package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

type Config struct {
	App        App        `mapstructure:",squash"`
	Server     Server     `mapstructure:",squash"`
	Database   Database   `mapstructure:",squash"`
	Auth       Auth       `mapstructure:",squash"`
	Evaluation Evaluation `mapstructure:",squash"`
	Thresholds Thresholds `mapstructure:",squash"`
}

type Server struct {
	Host           string   `mapstructure:"host"`
	Port           string   `mapstructure:"port"`
	AllowedOrigins []string `mapstructure:"cors_allowed_origins"`
}

type Database struct {
	DSN      string `mapstructure:"-"`
	Driver   string `mapstructure:"database_driver"`
	Password string `mapstructure:"database_password"`
	URL      string `mapstructure:"database_url"`
	User     string `mapstructure:"database_user"`
	Path     string `mapstructure:"database_path"` // apenas sqlite: ":memory:" ou caminho do arquivo
}

type App struct {
	LogLevel string `mapstructure:"log_level"`
}

type Auth struct {
	SecretKey string        `mapstructure:"secret_key"`
	TokenTTL  time.Duration `mapstructure:"auth_token_ttl"`
}

type Evaluation struct {
	CronSchedule          string        `mapstructure:"evaluation_cron"`
	Enabled               bool          `mapstructure:"evaluation_enabled"`
	WindowDays            int           `mapstructure:"evaluation_window_days"`
	MaxConcurrentAccounts int           `mapstructure:"evaluation_max_concurrent_accounts"`
	DetectorWorkers       int           `mapstructure:"evaluation_detector_workers"`
	Timeout               time.Duration `mapstructure:"evaluation_timeout"`
	PersistSignals        bool          `mapstructure:"evaluation_persist_signals"`
	MinSeverity           string        `mapstructure:"evaluation_min_severity"`
	ThresholdsFile        string        `mapstructure:"evaluation_thresholds_file"`
}

func SetDefaults() {
	viper.SetDefault("HOST", "localhost")
	viper.SetDefault("PORT", 8000)
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:4001")

	viper.SetDefault("DATABASE_DRIVER", "postgres")
	viper.SetDefault("DATABASE_URL", "localhost:5432/traffic_advisor?sslmode=disable")
	viper.SetDefault("DATABASE_USER", "postgres")
	viper.SetDefault("DATABASE_PASSWORD", "root")
	viper.SetDefault("DATABASE_PATH", "traffic_advisor.db")

	viper.SetDefault("SECRET_KEY", "your_secret_key") // ONLY LOCAL
	viper.SetDefault("AUTH_TOKEN_TTL", "24h")

	// Defaults para a avaliação agendada
	viper.SetDefault("EVALUATION_CRON", "0 6 * * *")          // Todos os dias às 6h da manhã
	viper.SetDefault("EVALUATION_ENABLED", false)             // Habilitar avaliação agendada
	viper.SetDefault("EVALUATION_WINDOW_DAYS", 7)             // 7 dias de fatos
	viper.SetDefault("EVALUATION_MAX_CONCURRENT_ACCOUNTS", 3) // 3 contas em paralelo
	viper.SetDefault("EVALUATION_DETECTOR_WORKERS", 4)        // 4 detectores em paralelo por conta
	viper.SetDefault("EVALUATION_TIMEOUT", "30s")             // Prazo total de uma avaliação
	viper.SetDefault("EVALUATION_PERSIST_SIGNALS", true)      // Gravar sinais após cada avaliação
	viper.SetDefault("EVALUATION_MIN_SEVERITY", "low")        // Severidade mínima retornada
	viper.SetDefault("EVALUATION_THRESHOLDS_FILE", "")        // YAML opcional com limiares

	setThresholdDefaults()

	viper.SetDefault("LOG_LEVEL", "debug")
}

func NewConfig() (*Config, error) {
	// Primeiro carregar o arquivo .env usando godotenv
	loadEnvFile() // ONLY LOCAL

	config := &Config{}

	// Configurar valores padrão
	SetDefaults()

	// Configurar o Viper
	viper.SetConfigType("env")
	viper.SetConfigFile(".env")
	viper.AutomaticEnv() // Isso permite que o Viper leia variáveis de ambiente

	if err := viper.ReadInConfig(); err != nil {
		logrus.Info("Usando variáveis carregadas pelo godotenv (viper não conseguiu ler .env):", err)
	} else {
		logrus.Info("Arquivo .env lido pelo Viper com sucesso")
	}

	err := viper.Unmarshal(&config, viper.DecodeHook(
		mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	))
	if err != nil {
		return nil, err
	}

	if config.Evaluation.ThresholdsFile != "" {
		thresholds, err := LoadThresholdsFile(config.Evaluation.ThresholdsFile, config.Thresholds)
		if err != nil {
			return nil, err
		}
		config.Thresholds = thresholds
	}

	if err := config.Thresholds.Validate(); err != nil {
		return nil, err
	}

	config.Database.DSN = buildDSN(config.Database)

	return config, nil
}

func buildDSN(db Database) string {
	if strings.EqualFold(db.Driver, "sqlite") {
		return db.Path
	}

	return fmt.Sprintf(
		"%s://%s:%s@%s",
		db.Driver,
		db.User,
		db.Password,
		db.URL,
	)
}

// Função auxiliar para carregar o arquivo .env usando godotenv
func loadEnvFile() {
	cwd, err := os.Getwd()
	if err != nil {
		logrus.Warn("Não foi possível obter o diretório atual:", err)
		return
	}

	// Tentar várias localizações possíveis para o arquivo .env
	locations := []string{
		filepath.Join(cwd, ".env"),               // Diretório atual
		filepath.Join(filepath.Dir(cwd), ".env"), // Diretório pai
		filepath.Join(cwd, "../../.env"),         // Dois diretórios acima
	}

	for _, location := range locations {
		logrus.Debug("Tentando carregar .env de:", location)
		err := godotenv.Load(location)
		if err == nil {
			logrus.Info("Arquivo .env carregado com sucesso de:", location)
			return
		}
	}

	logrus.Warn("Não foi possível carregar o arquivo .env de nenhuma localização conhecida")
}
