package config

import (
	"os"
	"path/filepath"
)

const (
	appName  = "create-rena-cleanarch"
	envDir   = "CREATE_RENA_CONFIG_DIR"
	fileBase = "settings"
)

// Dir returns the folder holding user settings: CREATE_RENA_CONFIG_DIR when
// set, else the per-user config dir (XDG_CONFIG_HOME is honoured on unix).
// Without a usable home it falls back to a dot folder in the working
// directory, which Load then treats like any other missing file.
func Dir() string {
	return dirFrom(os.Getenv, os.UserConfigDir)
}

func dirFrom(getenv func(string) string, base func() (string, error)) string {
	if dir := getenv(envDir); dir != "" {
		return filepath.Clean(dir)
	}
	root, err := base()
	if err != nil || root == "" {
		return "." + appName
	}
	return filepath.Join(root, appName)
}
