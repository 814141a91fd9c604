package config

func loadProductionConfig(cfg *Config) {
	cfg.DatabaseFilePath = "/data/library.sqlite"
	cfg.ServerHost = "0.0.0.0"
}
