package config

type Context struct {
	Modules []ModuleI
	Config  *Config
	// HomePath is the home directory of the relayer
	HomePath string
}
