package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	OSS      OSSConfig      `mapstructure:"oss"`
	OAuth    OAuthConfig    `mapstructure:"oauth"`
	Email    EmailConfig    `mapstructure:"email"`
	Queue    QueueConfig    `mapstructure:"queue"`
	CORS     CORSConfig     `mapstructure:"cors"`
	Razorpay RazorpayConfig `mapstructure:"razorpay"`
	Billing  BillingConfig  `mapstructure:"billing"`
	AI       AIConfig       `mapstructure:"ai"`
	Upload   UploadConfig   `mapstructure:"upload"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

type DatabaseConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	Username     string `mapstructure:"username"`
	Password     string `mapstructure:"password"`
	Database     string `mapstructure:"database"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

type JWTConfig struct {
	Secret      string `mapstructure:"secret"`
	ExpireHours int    `mapstructure:"expire_hours"`
}

type OSSConfig struct {
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	AccessKeySecret string `mapstructure:"access_key_secret"`
	BucketName      string `mapstructure:"bucket_name"`
	CDNDomain       string `mapstructure:"cdn_domain"`
}

type OAuthConfig struct {
	Linkedin LinkedinOAuthConfig `mapstructure:"linkedin"`
}

type LinkedinOAuthConfig struct {
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	RedirectURI  string `mapstructure:"redirect_uri"`
}

type EmailConfig struct {
	SMTPHost string `mapstructure:"smtp_host"`
	SMTPPort int    `mapstructure:"smtp_port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

type QueueConfig struct {
	OptimizeQueue string `mapstructure:"optimize_queue"`
	MaxWorkers    int    `mapstructure:"max_workers"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	AllowedMethods []string `mapstructure:"allowed_methods"`
	AllowedHeaders []string `mapstructure:"allowed_headers"`
}

// RazorpayConfig 支付网关配置
// KeySecret 仅用于服务端本地计算签名，绝不下发给客户端
type RazorpayConfig struct {
	KeyID     string `mapstructure:"key_id"`
	KeySecret string `mapstructure:"key_secret"`
	BaseURL   string `mapstructure:"base_url"`
	Currency  string `mapstructure:"currency"`
}

// BillingConfig 套餐/加油包/优惠券目录
// 服务端唯一定价来源，启动时加载后只读，绝不使用客户端传入的价格
type BillingConfig struct {
	FreePlan string         `mapstructure:"free_plan"`
	Plans    []PlanConfig   `mapstructure:"plans"`
	AddOns   []AddOnConfig  `mapstructure:"addons"`
	Coupons  []CouponConfig `mapstructure:"coupons"`
}

type PlanConfig struct {
	ID               string `mapstructure:"id"`
	Name             string `mapstructure:"name"`
	Price            int64  `mapstructure:"price"` // 单位：派萨（最小货币单位）
	DurationDays     int    `mapstructure:"duration_days"`
	Optimizations    int    `mapstructure:"optimizations"`
	ScoreChecks      int    `mapstructure:"score_checks"`
	LinkedinMessages int    `mapstructure:"linkedin_messages"`
	GuidedBuilds     int    `mapstructure:"guided_builds"`
}

type AddOnConfig struct {
	ID       string `mapstructure:"id"`
	Name     string `mapstructure:"name"`
	Price    int64  `mapstructure:"price"`
	Kind     string `mapstructure:"kind"` // 资源类型，见 model 中的 Kind 常量
	Quantity int    `mapstructure:"quantity"`
	// 加油包额度有效期（天），0 表示永不过期
	ExpireDays int `mapstructure:"expire_days"`
}

type CouponConfig struct {
	Code    string   `mapstructure:"code"`
	PlanIDs []string `mapstructure:"plan_ids"` // 适用套餐，空表示全部适用
	Type    string   `mapstructure:"type"`     // free, percent
	Percent int      `mapstructure:"percent"`  // Type=percent 时的折扣百分比
	MaxUses int      `mapstructure:"max_uses"` // 全局使用上限，0 表示不限
}

type AIConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	APIKey    string `mapstructure:"api_key"`
	Model     string `mapstructure:"model"`
	TimeoutS  int    `mapstructure:"timeout_s"`
	MaxTokens int    `mapstructure:"max_tokens"`
}

type UploadConfig struct {
	MaxSize           int64    `mapstructure:"max_size"`           // 最大文件大小（字节）
	AllowedExtensions []string `mapstructure:"allowed_extensions"` // 允许的扩展名
}

func Load(configPath string) (*Config, error) {
	// 优先尝试读取 config.local.yaml（包含真实密钥，不提交到git）
	dir := filepath.Dir(configPath)
	localConfigPath := filepath.Join(dir, "config.local.yaml")

	// 检查 config.local.yaml 是否存在
	if _, err := os.Stat(localConfigPath); err == nil {
		configPath = localConfigPath
	}

	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")

	// 环境变量覆盖
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
