// Package config 负责加载和管理应用程序的配置。
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// 全局配置变量，存储从配置文件加载的所有设置。
var Conf Config

// Config 是整个应用程序的配置结构体，与 config.yaml 文件结构对应。
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Log       LogConfig       `mapstructure:"log"`
	Kafka     KafkaConfig     `mapstructure:"kafka"`
	Embedding EmbeddingConfig `mapstructure:"embedding"`
	Matching  MatchingConfig  `mapstructure:"matching"`
}

// ServerConfig 存储服务器相关的配置。
type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

// DatabaseConfig 存储所有数据库连接的配置。
type DatabaseConfig struct {
	MySQL MySQLConfig `mapstructure:"mysql"`
	Redis RedisConfig `mapstructure:"redis"`
}

// MySQLConfig 存储 MySQL 数据库的配置。
type MySQLConfig struct {
	DSN string `mapstructure:"dsn"`
}

// RedisConfig 存储 Redis 的配置。
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// LogConfig 存储日志相关的配置。
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

// KafkaConfig 存储 Kafka 相关的配置。
type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
	GroupID string   `mapstructure:"group_id"`
}

// EmbeddingConfig 存储 Embedding 模型相关的配置。
type EmbeddingConfig struct {
	APIKey     string `mapstructure:"api_key"`
	BaseURL    string `mapstructure:"base_url"`
	Model      string `mapstructure:"model"`
	Dimensions int    `mapstructure:"dimensions"`
}

// MatchingConfig 存储匹配引擎与批处理相关的配置。
type MatchingConfig struct {
	// SkillAliasesPath 是技能别名辞典（JSON 文件）的路径。辞典缺失或损坏时进程启动失败。
	SkillAliasesPath string `mapstructure:"skill_aliases_path"`
	// Workers 是批处理中并行处理公司的 worker 数量上限。
	Workers int `mapstructure:"workers"`
	// ChunkSize 是每个公司内按块遍历 RFP 时的块大小。
	ChunkSize int `mapstructure:"chunk_size"`
	// RetrievalTopK 大于 0 时，先用混合检索把 RFP 池缩小到前 K 条再打分；为 0 时全量打分。
	RetrievalTopK int `mapstructure:"retrieval_top_k"`
	// EmbeddingRetryMax 是调用 Embedding 服务的最大尝试次数。
	EmbeddingRetryMax int `mapstructure:"embedding_retry_max"`
	// EmbeddingRetryBaseMs 是指数退避的基础等待毫秒数。
	EmbeddingRetryBaseMs int `mapstructure:"embedding_retry_base_ms"`
}

// Init 初始化配置加载，从指定的路径读取 YAML 文件并解析到 Conf 变量中。
func Init(configPath string) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")

	if err := viper.ReadInConfig(); err != nil {
		panic(fmt.Errorf("读取配置文件失败: %w", err))
	}

	if err := viper.Unmarshal(&Conf); err != nil {
		panic(fmt.Errorf("无法将配置解析到结构体中: %w", err))
	}

	applyDefaults()
}

// applyDefaults 为未配置的匹配参数填充缺省值。
func applyDefaults() {
	if Conf.Matching.Workers <= 0 {
		Conf.Matching.Workers = 4
	}
	if Conf.Matching.ChunkSize <= 0 {
		Conf.Matching.ChunkSize = 100
	}
	if Conf.Matching.EmbeddingRetryMax <= 0 {
		Conf.Matching.EmbeddingRetryMax = 3
	}
	if Conf.Matching.EmbeddingRetryBaseMs <= 0 {
		Conf.Matching.EmbeddingRetryBaseMs = 500
	}
}
