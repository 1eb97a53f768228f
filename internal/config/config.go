package config

import (
	"github.com/0xkmm/presale/internal/logger"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Engine   EngineConfig   `mapstructure:"engine"`
	Task     TaskConfig     `mapstructure:"task"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

// EngineConfig 销售引擎配置
type EngineConfig struct {
	ChainID            int64  `mapstructure:"chain_id"`            // 白名单叶子哈希使用的链ID
	Owner              string `mapstructure:"owner"`               // 工厂所有者地址
	FeeRecipient       string `mapstructure:"fee_recipient"`       // 协议费接收地址
	GracePeriod        int64  `mapstructure:"grace_period"`        // 结束后的宽限期（秒）
	MaxFeeRate         string `mapstructure:"max_fee_rate"`        // 最大协议费率（1e18定点）
	SettlementDecimals uint8  `mapstructure:"settlement_decimals"` // 结算币精度
}

type TaskConfig struct {
	Interval int `mapstructure:"interval"` // 秒
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // 日志级别: debug, info, warn, error, fatal
	Output string `mapstructure:"output"` // 输出目标: stdout, stderr, file
	File   string `mapstructure:"file"`   // 日志文件路径（当output为file时使用）
}

func Load() *Config {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/presale")

	// 设置默认值
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.mode", "debug")
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.user", "postgres")
	viper.SetDefault("database.password", "")
	viper.SetDefault("database.dbname", "presale")
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("engine.chain_id", 1)
	viper.SetDefault("engine.grace_period", 7*24*3600)
	viper.SetDefault("engine.max_fee_rate", "50000000000000000") // 5%
	viper.SetDefault("engine.settlement_decimals", 18)
	viper.SetDefault("task.interval", 60)
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.output", "stdout")
	viper.SetDefault("log.file", "logs/app.log")

	// 自动读取环境变量
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		logger.Warn("Warning: Could not read config file: %v", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		logger.Fatal("Unable to decode config into struct: %v", err)
	}

	return &config
}
