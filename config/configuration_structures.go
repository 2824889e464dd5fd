package config

type DatabaseConfig struct {
	DSN            string `yaml:"dsn"`
	MigrationsPath string `yaml:"migrations_path"`
}

type StorageConfig struct {
	UploadDir string `yaml:"upload_dir"`
	TempDir   string `yaml:"temp_dir"`
}

type JWTConfig struct {
	SecretKey       string `yaml:"secret_key"`
	AccessTokenTTL  string `yaml:"access_token_ttl"`
	RefreshTokenTTL string `yaml:"refresh_token_ttl"`
}

type AdminConfig struct {
	AdminToken string `yaml:"admin_token"`
}

type TTL struct {
	Cache int `yaml:"cache"`
}
