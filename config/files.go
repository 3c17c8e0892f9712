package config

import (
	"path"
	"strings"
)

// ResolvedFiles holds the config and env files chosen for a service.
type ResolvedFiles struct {
	ConfigFile string
	EnvFile    string
}

// FindFiles returns the explicit paths from lc, searching standard locations
// for any that are unset. A path is empty when nothing was found.
func FindFiles(fs FileSystem, serviceName string, lc LoaderConfig) ResolvedFiles {
	files := ResolvedFiles{ConfigFile: lc.ConfigFile, EnvFile: lc.EnvFile}
	if files.ConfigFile == "" {
		files.ConfigFile = firstExisting(fs, configCandidates(serviceName))
	}
	if files.EnvFile == "" {
		files.EnvFile = firstExisting(fs, envCandidates(serviceName))
	}
	return files
}

func firstExisting(fs FileSystem, candidates []string) string {
	for _, c := range candidates {
		if fs.Exists(c) {
			return c
		}
	}
	return ""
}

// shortName returns the last dash-separated segment: "injector-demo" -> "demo".
func shortName(serviceName string) string {
	if i := strings.LastIndex(serviceName, "-"); i != -1 {
		return serviceName[i+1:]
	}
	return serviceName
}

func serviceDirs(serviceName string) []string {
	names := []string{serviceName}
	if short := shortName(serviceName); short != serviceName {
		names = append(names, short)
	}
	var dirs []string
	for _, up := range []string{".", "..", "../.."} {
		for _, n := range names {
			dirs = append(dirs, path.Join(up, "cmd", n))
		}
	}
	return dirs
}

func configCandidates(serviceName string) []string {
	var out []string
	for _, dir := range serviceDirs(serviceName) {
		out = append(out, rel(path.Join(dir, "config.yml")))
	}
	return append(out, "./config/config.yml", "../config/config.yml", "./config.yml")
}

func envCandidates(serviceName string) []string {
	dirs := append(serviceDirs(serviceName), "config", ".", "..", "../..")
	var out []string
	for _, name := range []string{".env." + serviceName, ".env"} {
		for _, dir := range dirs {
			out = append(out, rel(path.Join(dir, name)))
		}
	}
	return out
}

func rel(p string) string {
	if strings.HasPrefix(p, "..") {
		return p
	}
	return "./" + p
}
