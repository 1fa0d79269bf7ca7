// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	GraphBackendMemory = "memory"
	GraphBackendNeo4j  = "neo4j"

	DefaultAITimeout = 15 * time.Second
)

// Config 存储应用配置
type Config struct {
	Port       string
	DataDir    string
	CorpusFile string
	LogDir     string
	DebugMode  bool

	// 问答相关配置
	AnswerCacheSize    int
	AnswerCacheTTL     time.Duration
	RateLimitPerMinute int

	AI    AIConfig
	Graph GraphConfig
}

// AIConfig AI兜底服务配置
type AIConfig struct {
	FallbackEnabled bool
	Provider        string
	APIURL          string
	APIKey          string
	Model           string
	Timeout         time.Duration
}

// GraphConfig 知识图谱后端配置
type GraphConfig struct {
	Backend       string
	Neo4jURI      string
	Neo4jUser     string
	Neo4jPassword string
	Neo4jDatabase string
}

// Configured 端点与密钥是否都已提供
func (c AIConfig) Configured() bool {
	return c.APIURL != "" && c.APIKey != ""
}

// ProviderConfig 转换为LLM提供者的初始化参数
func (c AIConfig) ProviderConfig() map[string]string {
	return map[string]string{
		"api_key":       c.APIKey,
		"base_url":      c.APIURL,
		"default_model": c.Model,
	}
}

// Load 从环境变量加载配置
func Load() (*Config, error) {
	// 尝试加载.env文件（可选）
	_ = godotenv.Load()

	dataDir := getEnv("DATA_DIR", "data")

	config := &Config{
		Port:               getEnv("PORT", "5000"),
		DataDir:            dataDir,
		CorpusFile:         getEnv("CORPUS_FILE", filepath.Join(dataDir, "out_poem_decoded.ttl")),
		LogDir:             getEnv("LOG_DIR", "logs"),
		DebugMode:          getEnvBool("DEBUG_MODE", false),
		AnswerCacheSize:    getEnvInt("ANSWER_CACHE_SIZE", 1024),
		AnswerCacheTTL:     getEnvDuration("ANSWER_CACHE_TTL", 10*time.Minute),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 120),
		AI: AIConfig{
			FallbackEnabled: getEnvBool("AI_FALLBACK_ENABLED", false),
			Provider:        getEnv("AI_PROVIDER", "deepseek"),
			APIURL:          getEnv("DEEPSEEK_API_URL", ""),
			APIKey:          getEnv("DEEPSEEK_API_KEY", ""),
			Model:           getEnv("DEEPSEEK_MODEL", "deepseek-chat"),
			Timeout:         getEnvDuration("AI_TIMEOUT", DefaultAITimeout),
		},
		Graph: GraphConfig{
			Backend:       strings.ToLower(getEnv("GRAPH_BACKEND", GraphBackendMemory)),
			Neo4jURI:      getEnv("NEO4J_URI", ""),
			Neo4jUser:     getEnv("NEO4J_USER", "neo4j"),
			Neo4jPassword: getEnv("NEO4J_PASSWORD", ""),
			Neo4jDatabase: getEnv("NEO4J_DATABASE", ""),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate 检查配置是否合法
func (c *Config) Validate() error {
	switch c.Graph.Backend {
	case GraphBackendMemory:
	case GraphBackendNeo4j:
		if c.Graph.Neo4jURI == "" {
			return fmt.Errorf("GRAPH_BACKEND=neo4j 需要设置 NEO4J_URI")
		}
	default:
		return fmt.Errorf("未知的图谱后端: %s", c.Graph.Backend)
	}

	if c.AI.Timeout <= 0 {
		return fmt.Errorf("AI_TIMEOUT 必须为正数")
	}
	if c.AnswerCacheSize < 0 {
		return fmt.Errorf("ANSWER_CACHE_SIZE 不能为负数")
	}
	return nil
}

// getEnv 获取环境变量，如果不存在则返回默认值
func getEnv(key, defaultValue string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvBool 获取布尔类型环境变量
func getEnvBool(key string, defaultValue bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return defaultValue
	}

	return value == "true" || value == "1" || value == "yes"
}

// getEnvInt 获取整数类型环境变量，解析失败时使用默认值
func getEnvInt(key string, defaultValue int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}

// getEnvDuration 支持 "15s" 形式，也接受纯数字（秒）
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}
