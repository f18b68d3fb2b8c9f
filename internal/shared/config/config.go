package config

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config — полная конфигурация проекта
type Config struct {
	Database DBConfig
	RabbitMQ MQConfig
	Service  ServiceConfig
	JWT      JWTConfig
	Match    MatchConfig
}

type DBConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Database     string
	SSLMode      string
	PoolMaxConns int
	PoolMinConns int
}

type MQConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	VHost    string
}

type ServiceConfig struct {
	Port int
}

type JWTConfig struct {
	Secret        string
	ExpiryMinutes int
}

// MatchConfig — параметры диспетчеризации и территориального матчинга
type MatchConfig struct {
	OfferTTL          time.Duration // время жизни offer (по умолчанию 15s)
	MaxAttempts       int           // максимум попыток диспетчеризации на поездку
	SweepInterval     time.Duration // период проверки истекших offers
	SearchRadiusKm    float64       // радиус поиска кандидатов
	LocationFreshness time.Duration // окно свежести локации водителя
	FallbackRadiusM   float64       // радиус fallback-территории (метры)
	LocalityBonus     float64       // множитель score для "своего" района
}

// Load — загрузка из CONFIG_DIR (по умолчанию ./config) + ENV перекрывает
func Load() Config {
	configDir := getEnv("CONFIG_DIR", "./config")
	cfg := Config{}

	dbKV, _ := parseYAML(filepath.Join(configDir, "db.yaml"))
	cfg.Database.Host = getStrWithEnv("DB_HOST", dbKV, "host", "localhost")
	cfg.Database.Port = getIntWithEnv("DB_PORT", dbKV, "port", 5432)
	cfg.Database.User = getStrWithEnv("DB_USER", dbKV, "user", "kaviar_user")
	cfg.Database.Password = getStrWithEnv("DB_PASSWORD", dbKV, "password", "kaviar_pass")
	cfg.Database.Database = getStrWithEnv("DB_NAME", dbKV, "database", "kaviar_db")
	cfg.Database.SSLMode = getStrWithEnv("DB_SSLMODE", dbKV, "sslmode", "disable")
	cfg.Database.PoolMaxConns = getIntWithEnv("DB_POOL_MAX_CONNS", dbKV, "pool_max_conns", 20)
	cfg.Database.PoolMinConns = getIntWithEnv("DB_POOL_MIN_CONNS", dbKV, "pool_min_conns", 2)

	mqKV, _ := parseYAML(filepath.Join(configDir, "mq.yaml"))
	cfg.RabbitMQ.Host = getStrWithEnv("RABBITMQ_HOST", mqKV, "host", "localhost")
	cfg.RabbitMQ.Port = getIntWithEnv("RABBITMQ_PORT", mqKV, "port", 5672)
	cfg.RabbitMQ.User = getStrWithEnv("RABBITMQ_USER", mqKV, "user", "guest")
	cfg.RabbitMQ.Password = getStrWithEnv("RABBITMQ_PASSWORD", mqKV, "password", "guest")
	cfg.RabbitMQ.VHost = getStrWithEnv("RABBITMQ_VHOST", mqKV, "vhost", "/")

	svcKV, _ := parseYAML(filepath.Join(configDir, "service.yaml"))
	cfg.Service.Port = getIntWithEnv("MATCH_SERVICE_PORT", svcKV, "match_service", 3002)

	jwtKV, _ := parseYAML(filepath.Join(configDir, "jwt.yaml"))
	cfg.JWT.Secret = getStrWithEnv("JWT_SECRET", jwtKV, "secret", "dev_secret")
	cfg.JWT.ExpiryMinutes = getIntWithEnv("JWT_EXPIRY_MINUTES", jwtKV, "expiry_minutes", 60)

	matchKV, _ := parseYAML(filepath.Join(configDir, "match.yaml"))
	cfg.Match.OfferTTL = time.Duration(getIntWithEnv("OFFER_TTL_SECONDS", matchKV, "offer_ttl_seconds", 15)) * time.Second
	cfg.Match.MaxAttempts = getIntWithEnv("MAX_DISPATCH_ATTEMPTS", matchKV, "max_attempts", 5)
	cfg.Match.SweepInterval = time.Duration(getIntWithEnv("SWEEP_INTERVAL_SECONDS", matchKV, "sweep_interval_seconds", 3)) * time.Second
	cfg.Match.SearchRadiusKm = getFloatWithEnv("SEARCH_RADIUS_KM", matchKV, "search_radius_km", 10)
	cfg.Match.LocationFreshness = time.Duration(getIntWithEnv("LOCATION_FRESHNESS_SECONDS", matchKV, "location_freshness_seconds", 120)) * time.Second
	cfg.Match.FallbackRadiusM = getFloatWithEnv("FALLBACK_RADIUS_M", matchKV, "fallback_radius_m", 800)
	cfg.Match.LocalityBonus = getFloatWithEnv("LOCALITY_BONUS", matchKV, "locality_bonus", 0.7)

	return cfg
}

// parseYAML — парсит простые YAML файлы без глубокой вложенности.
// Формат: key: value (плоский), секции игнорируются как префиксы.
func parseYAML(path string) (map[string]string, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	result := map[string]string{}
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasSuffix(line, ":") && !strings.Contains(line, " ") {
			// начало секции, ключи внутри читаем как плоские
			continue
		}
		parts := strings.SplitN(line, ":", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		val := strings.Trim(strings.TrimSpace(parts[1]), `"'`)
		result[key] = val
	}
	return result, sc.Err()
}

func getEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getStrWithEnv(envKey string, yaml map[string]string, key, def string) string {
	if v := strings.TrimSpace(os.Getenv(envKey)); v != "" {
		return v
	}
	if val, ok := yaml[key]; ok && val != "" {
		return val
	}
	return def
}

func getIntWithEnv(envKey string, yaml map[string]string, key string, def int) int {
	if v := strings.TrimSpace(os.Getenv(envKey)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	if val, ok := yaml[key]; ok && val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return def
}

func getFloatWithEnv(envKey string, yaml map[string]string, key string, def float64) float64 {
	if v := strings.TrimSpace(os.Getenv(envKey)); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	if val, ok := yaml[key]; ok && val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return def
}

// DSN возвращает строку подключения к БД
func (c DBConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// AMQPURL возвращает URL подключения к RabbitMQ
func (c MQConfig) AMQPURL() string {
	return fmt.Sprintf(
		"amqp://%s:%s@%s:%d%s",
		c.User, c.Password, c.Host, c.Port, c.VHost,
	)
}
