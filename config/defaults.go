package config

func DefaultSystemConfig() *SystemConfig {
	return &SystemConfig{
		DataDirectory: "~/.local/share/promptsmith",
	}
}

func DefaultUserConfig() *UserConfig {
	return &UserConfig{
		Storage: StorageConfig{
			Backend:     "file",
			RedisPrefix: "promptsmith",
		},
		Server: ServerConfig{
			Addr: "127.0.0.1:8787",
		},
		Defaults: DefaultsConfig{
			Style:         "general",
			ImageTemplate: "image2prompt-general",
		},
		Security: SecurityConfig{
			CredentialStorage: string(SecurityPlainText),
		},
	}
}

func GenerateSystemConfigTemplate() string {
	return `# promptsmith system configuration
# Location: ~/.config/promptsmith/settings.toml
# This file uses TOML format: https://toml.io

# Directory where model configs, templates, history and credentials are stored
data_directory = "~/.local/share/promptsmith"
`
}

func GenerateUserConfigTemplate() string {
	return `# promptsmith user configuration
# Location: <data_directory>/config.toml
# This file uses TOML format: https://toml.io

[storage]
# One of: file, sqlite, redis, memory
backend = "file"
# path = "~/.local/share/promptsmith/store"
# redis_addr = "127.0.0.1:6379"
redis_prefix = "promptsmith"
# Optional byte quota for file/memory backends (0 = unlimited)
# quota_bytes = 5242880

[server]
# Listen address for "promptsmith serve"
addr = "127.0.0.1:8787"

[defaults]
# Model key used when --model is omitted, e.g. "openai-gpt-4o"
model = ""
style = "general"
image_template = "image2prompt-general"

[security]
# plaintext (credentials.toml) or ssh_key (credentials.enc)
credential_storage = "plaintext"
# ssh_key_path = "~/.ssh/id_ed25519"

# Model configurations seeded on startup. API keys are read from the
# credential store ("promptsmith models key <provider>").
#
# [[models]]
# provider = "openai"
# model = "gpt-4o"
#
# [[models]]
# provider = "ollama"
# model = "llava"
# base_url = "http://127.0.0.1:11434/v1"
`
}
