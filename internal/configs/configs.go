package configs

type Config struct {
	// 基础配置
	Server  Server `json:"server" yaml:"server"`
	EnvFile string `json:"env_file" yaml:"env_file"` // credential store path

	Database Database `json:"database" yaml:"database"`

	// AI 模型参数
	AIConfig AIConfig `json:"ai_config" yaml:"ai_config"`

	// 定时任务参数
	Scheduler Scheduler `json:"scheduler" yaml:"scheduler"`

	Proxy string `json:"proxy" yaml:"proxy"`
}

type Server struct {
	Addr string `json:"addr" yaml:"addr"` // listen address, e.g. :8080
}

type Database struct {
	ConnStr string `json:"conn_str" yaml:"conn_str"` // 数据库连接字符串, empty disables history
}

type AIConfig struct {
	APIKey    string `json:"api_key" yaml:"api_key"`       // AI服务API密钥, empty disables commentary
	Provider  string `json:"provider" yaml:"provider"`     // openai 或 deepseek
	ModelType string `json:"model_type" yaml:"model_type"` // AI模型类型
}

type Scheduler struct {
	ReportTimes     []string `json:"report_times" yaml:"report_times"`         // HH:MM, e.g. ["09:00", "18:00"]
	RefreshInterval string   `json:"refresh_interval" yaml:"refresh_interval"` // client refresh interval
	HealthInterval  string   `json:"health_interval" yaml:"health_interval"`   // health check interval
}
